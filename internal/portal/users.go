package portal

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"eventportal/internal/metrics"
	"eventportal/internal/model"
	"eventportal/internal/repo"
	"eventportal/internal/secret"
	"eventportal/pkg/validator"
)

type NewUser struct {
	FirstName string `json:"first_name" validate:"required,max=100"`
	LastName  string `json:"last_name" validate:"required,max=100"`
	Phone     string `json:"phone" validate:"required,phone"`
	Email     string `json:"email" validate:"required,email,max=255"`
	Password  string `json:"password" validate:"required,min=6"`
	Role      string `json:"role" validate:"omitempty,oneof=user admin organizer"`
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateUser stores a new account. A taken email comes back as ErrUserCreate
// wrapping the storage error.
func (p *Portal) CreateUser(ctx context.Context, in NewUser) (*model.User, error) {
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = normalizeEmail(in.Email)
	in.Role = strings.ToLower(strings.TrimSpace(in.Role))

	if err := validator.Validate(ctx, in); err != nil {
		metrics.Signups.WithLabelValues("invalid").Inc()
		return nil, err
	}

	role := model.RoleUser
	if in.Role != "" {
		role = model.Role(in.Role)
	}

	hash, err := secret.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u := &model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if _, err := p.repo.CreateUser(ctx, u); err != nil {
		metrics.Signups.WithLabelValues("failed").Inc()
		if errors.Is(err, repo.ErrDuplicateEmail) {
			return nil, fmt.Errorf("%w: %w", ErrUserCreate, err)
		}
		return nil, err
	}

	metrics.Signups.WithLabelValues("ok").Inc()
	p.log.Info().Int64("user_id", u.ID).Str("role", string(u.Role)).Msg("user created")
	return u, nil
}

// Unknown accounts are checked against this hash so both failure paths
// cost the same.
var dummyHash = sync.OnceValue(func() string {
	h, _ := secret.HashPassword("not-a-real-password")
	return h
})

func (p *Portal) AuthenticateUser(ctx context.Context, email, password string) (*model.User, error) {
	u, err := p.repo.GetUserByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			secret.CheckPassword(dummyHash(), password)
			metrics.Logins.WithLabelValues("invalid").Inc()
			return nil, ErrInvalidCredentials
		}
		metrics.Logins.WithLabelValues("error").Inc()
		return nil, err
	}

	if !secret.CheckPassword(u.PasswordHash, password) {
		metrics.Logins.WithLabelValues("invalid").Inc()
		return nil, ErrInvalidCredentials
	}

	metrics.Logins.WithLabelValues("ok").Inc()
	return u, nil
}

func (p *Portal) GetUser(ctx context.Context, id int64) (*model.User, error) {
	return p.repo.GetUserByID(ctx, id)
}
