package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"nexus-backend/internal/conversation"
	"nexus-backend/internal/models"
	"nexus-backend/internal/store"
)

// UserService finds or registers the users the dashboard works with.
type UserService struct {
	store store.UserStore
}

func NewUserService(store store.UserStore) *UserService {
	return &UserService{store: store}
}

// FindOrCreate looks a user up by email, then by name, and creates one when
// neither matches. The boolean reports whether a new user was created.
func (s *UserService) FindOrCreate(ctx context.Context, name, email string) (*models.User, bool, error) {
	name, email = strings.TrimSpace(name), strings.ToLower(strings.TrimSpace(email))
	if name == "" && email == "" {
		return nil, false, fmt.Errorf("%w: name or email is required", conversation.ErrInvalidRequest)
	}

	// Match on email first, then on name.
	user, err := s.lookup(ctx, name, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, false, fmt.Errorf("failed to look up user: %w", err)
	}

	params := store.CreateUserParams{}
	if name != "" {
		params.Name = &name
	}
	if email != "" {
		params.Email = &email
	}
	user, err = s.store.CreateUser(ctx, params)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create user: %w", err)
	}
	log.Printf("[UserService] created user %s", user.ID)
	return user, true, nil
}

func (s *UserService) lookup(ctx context.Context, name, email string) (*models.User, error) {
	if email != "" {
		user, err := s.store.GetUserByEmail(ctx, email)
		if err == nil || !errors.Is(err, store.ErrNotFound) || name == "" {
			return user, err
		}
	}
	return s.store.GetUserByName(ctx, name)
}
