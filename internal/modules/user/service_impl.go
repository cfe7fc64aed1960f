package user

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/georgemunganga/restaurant-pos/internal/platform/apperr"
)

const minPasswordLength = 8

type service struct {
	repo Repository
}

// NewService creates a new user service.
func NewService(repo Repository) Service {
	return &service{repo: repo}
}

func (s *service) RegisterUser(ctx context.Context, req RegisterRequest) (*User, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Invalid("email", "is not a valid address")
	}
	if len(req.Password) < minPasswordLength {
		return nil, apperr.Invalid("password", "must be at least %d characters", minPasswordLength)
	}
	role := req.Role
	if role == "" {
		role = RoleCashier
	}
	if !role.Valid() {
		return nil, apperr.Invalid("role", "unknown role %q", role)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &User{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: string(hashedPassword),
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Role:         role,
		IsActive:     true,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	return user, nil
}

func (s *service) GetUser(ctx context.Context, id string) (*User, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Invalid("id", "is not a valid id")
	}
	return s.repo.GetUserByID(ctx, uid)
}

func (s *service) ListUsers(ctx context.Context) ([]*User, error) {
	return s.repo.ListUsers(ctx)
}

func (s *service) ChangeRole(ctx context.Context, id string, role Role) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("id", "is not a valid id")
	}
	if !role.Valid() {
		return apperr.Invalid("role", "unknown role %q", role)
	}
	return s.repo.UpdateRole(ctx, uid, role)
}

func (s *service) SetActive(ctx context.Context, id string, active bool) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return apperr.Invalid("id", "is not a valid id")
	}
	return s.repo.SetActive(ctx, uid, active)
}

func (s *service) EnsureAdmin(ctx context.Context, email, password string) (*User, error) {
	n, err := s.repo.CountByRole(ctx, RoleAdmin)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		return nil, nil
	}
	return s.RegisterUser(ctx, RegisterRequest{
		Email:     email,
		Password:  password,
		FirstName: "Admin",
		Role:      RoleAdmin,
	})
}
