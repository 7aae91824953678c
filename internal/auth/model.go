package auth

import (
	"errors"
	"time"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// User is a garage staff account. The password hash never leaves the package.
type User struct {
	ID           string    `json:"id"`
	WorkspaceID  string    `json:"workspaceId"`
	Email        string    `json:"email"`
	Name         *string   `json:"name"`
	IsOwner      bool      `json:"isOwner"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
}

// RegisterRequest is the body of POST /api/auth/register.
type RegisterRequest struct {
	Email         string  `json:"email" validate:"required,email,max=254"`
	Password      string  `json:"password" validate:"required,min=6,max=72"`
	WorkspaceName string  `json:"workspaceName" validate:"required,min=2,max=120"`
	Name          *string `json:"name" validate:"omitempty,max=120"`
}

// LoginRequest is the body of POST /api/auth/login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
