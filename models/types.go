package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UserRole user role enum
type UserRole string

const (
	UserRoleManager  UserRole = "gerente"       // manager
	UserRoleAdmin    UserRole = "administrador" // administrator
	UserRoleExecutor UserRole = "executor"      // field executor
)

// Valid reports whether r is a known role
func (r UserRole) Valid() bool {
	switch r {
	case UserRoleManager, UserRoleAdmin, UserRoleExecutor:
		return true
	}
	return false
}

// UserProfile user profile
type UserProfile struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Email     string             `bson:"email" json:"email"`
	Role      UserRole           `bson:"role" json:"role"`
	Password  string             `bson:"password" json:"-"` // never returned
	CreatedAt int64              `bson:"createdAt" json:"createdAt"`
}

type (
	// LoginRequest login by e-mail or by user name
	LoginRequest struct {
		Login    string `json:"login" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	// LoginResponse login response
	LoginResponse struct {
		Token string      `json:"token"`
		User  UserProfile `json:"user"`
	}

	// ChangePasswordRequest change password request
	ChangePasswordRequest struct {
		CurrentPassword string `json:"currentPassword" binding:"required"`
		NewPassword     string `json:"newPassword" binding:"required,min=6"`
		ConfirmPassword string `json:"confirmPassword" binding:"required,eqfield=NewPassword"`
	}

	// CreateUserRequest create user request
	CreateUserRequest struct {
		Name     string   `json:"name" binding:"required,min=2"`
		Login    string   `json:"login" binding:"required"`
		Password string   `json:"password" binding:"required,min=6"`
		Role     UserRole `json:"role" binding:"required,oneof=gerente administrador executor"`
	}
)
