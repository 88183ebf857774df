package auth

import "github.com/angelmondragon/aura-storefront/internal/users"

// RegisterRequest is the sign-up payload.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// LoginRequest is the credential payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse is the identity plus bearer token returned by register and login.
type AuthResponse struct {
	users.UserDTO
	Token string `json:"token"`
}
