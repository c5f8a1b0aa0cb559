package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Service manages identity lifecycle. Provisioning always runs against the
// privileged store role.
type Service struct {
	repo Repository
}

// NewService creates a new identity service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// FindOrCreate resolves a verified mobile number to its durable user record,
// creating one with an empty profile on first login. Concurrent first-time
// logins for the same number race through the not-found branch; the store's
// uniqueness constraint arbitrates and the loser re-fetches the winner's
// record, so every caller observes the same identity.
func (s *Service) FindOrCreate(ctx context.Context, mobile string) (User, error) {
	mobile = NormalizeMobile(mobile)

	user, err := s.repo.FindByMobile(ctx, mobile)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return User{}, fmt.Errorf("lookup user: %w", err)
	}

	user = User{
		ID:        uuid.New().String(),
		Mobile:    mobile,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, user); err != nil {
		if errors.Is(err, ErrMobileTaken) {
			existing, err := s.repo.FindByMobile(ctx, mobile)
			if err != nil {
				return User{}, fmt.Errorf("refetch after conflict: %w", err)
			}
			return existing, nil
		}
		return User{}, fmt.Errorf("create user: %w", err)
	}

	return user, nil
}

// UpdateProfile mutates the optional profile fields of an existing user.
func (s *Service) UpdateProfile(ctx context.Context, id string, profile Profile) (User, error) {
	user, err := s.repo.UpdateProfile(ctx, id, profile)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return User{}, err
		}
		return User{}, fmt.Errorf("update profile: %w", err)
	}
	return user, nil
}
