package models

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Answer is one structured questionnaire answer passed as prompt context.
type Answer struct {
	Question string `json:"question,omitempty"`
	Answer   string `json:"answer"`
}

// Answers keeps answers in the order the client sent them.
//
// It decodes from a JSON object ({"q1": "a", ...}, key order preserved),
// an array of strings, or an array of {"question", "answer"} objects.
type Answers []Answer

var errAnswersShape = errors.New("answers must be an object or an array")

// UnmarshalJSON implements json.Unmarshaler.
func (a *Answers) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*a = nil
		return nil
	}

	switch data[0] {
	case '{':
		out, err := decodeAnswerObject(data)
		if err != nil {
			return err
		}
		*a = out
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("decode answers: %w", err)
		}
		out := make(Answers, 0, len(items))
		for _, item := range items {
			item = bytes.TrimSpace(item)
			if len(item) > 0 && item[0] == '{' {
				var obj struct {
					Question json.RawMessage `json:"question"`
					Answer   json.RawMessage `json:"answer"`
				}
				if err := json.Unmarshal(item, &obj); err != nil {
					return fmt.Errorf("decode answer: %w", err)
				}
				out = append(out, Answer{Question: CoerceText(obj.Question), Answer: CoerceText(obj.Answer)})
				continue
			}
			out = append(out, Answer{Answer: CoerceText(item)})
		}
		*a = out
	default:
		return errAnswersShape
	}
	return nil
}

// decodeAnswerObject walks the object token by token so that key order survives.
func decodeAnswerObject(data []byte) (Answers, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil { // opening brace
		return nil, fmt.Errorf("decode answers: %w", err)
	}
	var out Answers
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		key, ok := tok.(string)
		if !ok {
			return nil, errAnswersShape
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, fmt.Errorf("decode answer %q: %w", key, err)
		}
		out = append(out, Answer{Question: key, Answer: CoerceText(value)})
	}
	return out, nil
}

// NonEmpty returns the answers whose text is not blank.
func (a Answers) NonEmpty() Answers {
	out := make(Answers, 0, len(a))
	for _, ans := range a {
		if strings.TrimSpace(ans.Answer) != "" {
			out = append(out, ans)
		}
	}
	return out
}
