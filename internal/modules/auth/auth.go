package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/georgemunganga/restaurant-pos/internal/modules/user"
)

// Service defines the interface for authentication-related business logic.
type Service interface {
	Login(ctx context.Context, email, password string) (*Token, error)
	// Verify parses a bearer token and returns the caller it was issued to.
	Verify(tokenString string) (Principal, error)
}

// Token is returned on a successful login.
type Token struct {
	AccessToken string       `json:"access_token"`
	TokenType   string       `json:"token_type"`
	ExpiresAt   time.Time    `json:"expires_at"`
	UserID      uuid.UUID    `json:"user_id"`
	Role        user.Role    `json:"role"`
	Permissions []Permission `json:"permissions"`
}
