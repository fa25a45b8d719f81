package model

import (
	"time"

	"github.com/google/uuid"
)

// Role is the access role carried in a principal's token.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleStudent   Role = "student"
	RoleEvaluator Role = "evaluator"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleStudent, RoleEvaluator:
		return true
	}
	return false
}

// User is an account of any role.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Principal is the authenticated caller as seen by the core: identity and role only.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// RegisterRequest is the payload for creating an account.
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=2,max=100"`
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
	Role     Role   `json:"role" binding:"omitempty,oneof=admin student evaluator"`
}

// LoginRequest is the payload for authentication.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// LoginResponse is returned after successful login.
type LoginResponse struct {
	Token string `json:"token"`
	Role  Role   `json:"role"`
	User  User   `json:"user"`
}
