package dto

import "github.com/hongminglow/finanzas-be/internal/models"

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

type ResetRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	Code        string `json:"code"`
	NewPassword string `json:"new_password"`
}

type AuthorizeResponse struct {
	Role       models.Role       `json:"role"`
	Permission models.Permission `json:"permission"`
	Allowed    bool              `json:"allowed"`
}

type MeResponse struct {
	User    models.User    `json:"user"`
	Session models.Session `json:"session"`
}
