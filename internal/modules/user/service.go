package user

import "context"

// Service defines the interface for user-related business logic.
type Service interface {
	RegisterUser(ctx context.Context, req RegisterRequest) (*User, error)
	GetUser(ctx context.Context, id string) (*User, error)
	ListUsers(ctx context.Context) ([]*User, error)
	ChangeRole(ctx context.Context, id string, role Role) error
	SetActive(ctx context.Context, id string, active bool) error
	// EnsureAdmin creates the first admin account when no active admin exists.
	EnsureAdmin(ctx context.Context, email, password string) (*User, error)
}

// RegisterRequest holds data for creating a staff account.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Role      Role   `json:"role"`
}
