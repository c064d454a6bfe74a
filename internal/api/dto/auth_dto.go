package dto

import "time"

// LoginRequest payload.
type LoginRequest struct {
	EmployeeID string `json:"employee_id"`
	Password   string `json:"password"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token                  string           `json:"token"`
	ExpiresAt              time.Time        `json:"expires_at"`
	PasswordChangeRequired bool             `json:"password_change_required"`
	Employee               EmployeeResponse `json:"employee"`
}

// PasswordResetRequest payload for initiating reset.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirmRequest payload for confirming reset.
type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}
