package conversation

import (
	"fmt"
	"strings"

	"nexus-backend/internal/models"
)

const (
	defaultBasePrompt = "You are an expert in %s. Respond helpfully and concisely with a professional, direct and useful output."
	noAnswersBlock    = "No additional answers."
	instructionBlock  = "Instruction:\n" +
		"Produce a professional, actionable deliverable based on this information.\n" +
		"Do not describe the process; deliver the final structured result directly."

	recommendationSystemPrompt = "You are an expert career and vocational advisor."
	recommendationHeader       = "Based on the following questionnaire answers, write a professional career recommendation:"
)

// PromptContext carries the optional per-request context that used to live in
// browser storage as the "active project".
type PromptContext struct {
	Project *models.Project
	Answers models.Answers
}

// Compose returns the final message list: exactly one system turn first,
// followed by the conversation. Client turns claiming the system role are
// demoted to user so the leading system turn stays the only one.
func Compose(systemPrompt string, turns []models.Turn) ([]models.Turn, error) {
	systemPrompt = strings.TrimSpace(systemPrompt)
	if systemPrompt == "" {
		return nil, ErrMissingSystemPrompt
	}

	out := make([]models.Turn, 0, len(turns)+1)
	out = append(out, models.Turn{Role: models.RoleSystem, Content: systemPrompt})
	for _, t := range turns {
		role := models.RoleUser
		if t.Role == models.RoleAssistant {
			role = models.RoleAssistant
		}
		out = append(out, models.Turn{Role: role, Content: t.Content})
	}
	return out, nil
}

// BasePrompt resolves a descriptor's own prompt, or synthesizes one from its title.
func BasePrompt(d *models.SubExpert) (string, error) {
	if d == nil {
		return "", ErrMissingSystemPrompt
	}
	if d.PromptBase != nil {
		if base := strings.TrimSpace(*d.PromptBase); base != "" {
			return base, nil
		}
	}
	title := strings.TrimSpace(d.Title)
	if title == "" {
		return "", ErrMissingSystemPrompt
	}
	return fmt.Sprintf(defaultBasePrompt, title), nil
}

// BuildSystemPrompt assembles the deliverable prompt for a sub-expert:
// base prompt, expert context, optional project and answers blocks, and the
// closing instruction, each separated by a blank line.
func BuildSystemPrompt(d *models.SubExpert, pc PromptContext) (string, error) {
	base, err := BasePrompt(d)
	if err != nil {
		return "", err
	}

	blocks := []string{
		base,
		fmt.Sprintf("Expert context: %s.", orNA(d.Description)),
	}
	if pc.Project != nil {
		blocks = append(blocks, projectBlock(pc.Project))
	}
	blocks = append(blocks, answersBlock(pc.Answers), instructionBlock)
	return strings.Join(blocks, "\n\n"), nil
}

// BuildRecommendationTurns builds the message list for a questionnaire recommendation.
func BuildRecommendationTurns(answers models.Answers) ([]models.Turn, error) {
	answers = answers.NonEmpty()
	if len(answers) == 0 {
		return nil, fmt.Errorf("%w: answers are required", ErrInvalidRequest)
	}

	pairs := make([]string, 0, len(answers))
	for _, a := range answers {
		pairs = append(pairs, fmt.Sprintf("Question: %s\nAnswer: %s", strings.TrimSpace(a.Question), strings.TrimSpace(a.Answer)))
	}
	user := recommendationHeader + "\n\n" + strings.Join(pairs, "\n\n")
	return Compose(recommendationSystemPrompt, []models.Turn{{Role: models.RoleUser, Content: user}})
}

func projectBlock(p *models.Project) string {
	title := strings.TrimSpace(p.Title)
	if title == "" {
		title = "(untitled)"
	}
	return fmt.Sprintf("Selected project: %s.\nDescription: %s.", title, orNA(p.Description))
}

func answersBlock(answers models.Answers) string {
	answers = answers.NonEmpty()
	if len(answers) == 0 {
		return noAnswersBlock
	}
	lines := make([]string, 0, len(answers)+1)
	lines = append(lines, "User answers:")
	for _, a := range answers {
		lines = append(lines, "- "+strings.TrimSpace(a.Answer))
	}
	return strings.Join(lines, "\n")
}

func orNA(s *string) string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return "N/A"
	}
	return strings.TrimSpace(*s)
}
