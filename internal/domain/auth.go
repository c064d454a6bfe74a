package domain

import "time"

// PasswordReset is a single-use reset token. Only the hash is stored.
type PasswordReset struct {
	ID         string
	EmployeeID string
	TokenHash  string
	ExpiresAt  time.Time
	UsedAt     *time.Time
	CreatedAt  time.Time
}

// Usable reports whether the token can still be redeemed.
func (p *PasswordReset) Usable(now time.Time) bool {
	return p.UsedAt == nil && now.Before(p.ExpiresAt)
}
