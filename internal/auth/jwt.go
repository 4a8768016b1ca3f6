package auth

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// --- Context Keys ---

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

const (
	UserIDKey contextKey = "userID"
)

// ErrInvalidSubject is returned when a verified token's sub claim is not a user id.
var ErrInvalidSubject = errors.New("token subject is not a valid user id")

// --- JWT Claims ---

// SupabaseClaims is the subset of a Supabase access token the API reads.
// The subject is the auth user id.
type SupabaseClaims struct {
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// ParseToken verifies an HS256 access token against secret and returns its claims and user id.
func ParseToken(tokenString, secret string) (*SupabaseClaims, uuid.UUID, error) {
	claims := &SupabaseClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, uuid.Nil, err
	}
	if !token.Valid {
		return nil, uuid.Nil, jwt.ErrTokenUnverifiable
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil || userID == uuid.Nil {
		return nil, uuid.Nil, ErrInvalidSubject
	}
	return claims, userID, nil
}

// NewAccessToken signs a token shaped like the ones Supabase issues.
// The API never issues tokens itself; this serves local tooling and tests.
func NewAccessToken(userID uuid.UUID, email, jwtSecret string, expiration time.Duration) (string, error) {
	now := time.Now()
	claims := SupabaseClaims{
		Email: email,
		Role:  "authenticated",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Subject:   userID.String(),
			Audience:  jwt.ClaimStrings{"authenticated"},
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		log.Printf("Error signing JWT token for UserID %s: %v", userID, err)
		return "", err
	}
	return signedToken, nil
}
