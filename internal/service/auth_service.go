package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/config"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/mailer"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// TokenRevoker records revoked token ids until they expire.
type TokenRevoker interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
}

// LoginResult is returned on successful sign-in.
type LoginResult struct {
	Employee               *domain.Employee
	Token                  string
	ExpiresAt              time.Time
	PasswordChangeRequired bool
}

// AuthService coordinates sign-in, sign-out and password flows.
type AuthService struct {
	employees  repository.EmployeeRepository
	resets     repository.PasswordResetRepository
	revoker    TokenRevoker
	mail       mailer.Sender
	tx         persistence.Transactor
	tokenMgr   *auth.TokenManager
	logger     *zap.Logger
	bcryptCost int
	resetTTL   time.Duration
	baseURL    string
	now        func() time.Time
}

// AuthDependencies encapsulates collaborators for the auth service.
type AuthDependencies struct {
	EmployeeRepo      repository.EmployeeRepository
	PasswordResetRepo repository.PasswordResetRepository
	Revoker           TokenRevoker
	Mailer            mailer.Sender
	Transactor        persistence.Transactor
	Logger            *zap.Logger
	Clock             func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, deps AuthDependencies) *AuthService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		employees:  deps.EmployeeRepo,
		resets:     deps.PasswordResetRepo,
		revoker:    deps.Revoker,
		mail:       deps.Mailer,
		tx:         deps.Transactor,
		tokenMgr:   auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTL()),
		logger:     logger,
		bcryptCost: cfg.Auth.BcryptCost,
		resetTTL:   cfg.Auth.PasswordResetTTL(),
		baseURL:    strings.TrimRight(cfg.App.BaseURL, "/"),
		now:        clockOrDefault(deps.Clock),
	}
}

// Login authenticates an employee by staff number and password.
func (s *AuthService) Login(ctx context.Context, employeeNumber, password string) (*LoginResult, error) {
	employee, err := s.employees.GetByEmployeeNumber(ctx, strings.TrimSpace(employeeNumber))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, err
	}
	if err := auth.ComparePassword(employee.PasswordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}
	if !employee.CanSignIn() {
		return nil, apperrors.NewForbidden("account is inactive")
	}

	token, claims, err := s.tokenMgr.GenerateToken(employee)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Employee:               employee,
		Token:                  token,
		ExpiresAt:              claims.ExpiresAtTime(),
		PasswordChangeRequired: employee.PasswordChangeRequired,
	}, nil
}

// Logout revokes the presented token until it would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *auth.Claims) error {
	if claims == nil || s.revoker == nil {
		return nil
	}
	return s.revoker.Revoke(ctx, claims.ID, claims.ExpiresAtTime())
}

// ChangePassword verifies the current password before storing the new one.
func (s *AuthService) ChangePassword(ctx context.Context, actor *domain.Employee, currentPassword, newPassword string) error {
	employee, err := s.employees.GetByID(ctx, actor.ID)
	if err != nil {
		return notFound(err, "employee")
	}
	if err := auth.ComparePassword(employee.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}
	if newPassword == currentPassword {
		return apperrors.NewValidationError("invalid password", map[string]any{"new_password": "must differ from the current password"})
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	if err := s.employees.UpdatePassword(ctx, employee.ID, hash, false); err != nil {
		return err
	}
	actor.PasswordChangeRequired = false
	return nil
}

// RequestPasswordReset emails a reset link when the address belongs to an
// active employee. It reports success either way.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	employee, err := s.employees.GetByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil
		}
		return err
	}
	if !employee.CanSignIn() {
		return nil
	}

	token, hash := auth.NewResetToken()
	reset := &domain.PasswordReset{
		EmployeeID: employee.ID,
		TokenHash:  hash,
		ExpiresAt:  s.now().Add(s.resetTTL),
	}
	if err := s.resets.Create(ctx, reset); err != nil {
		return err
	}

	if s.mail != nil {
		body := fmt.Sprintf("A password reset was requested for your account.\n\nUse this token within %d minutes: %s\n\n%s/reset-password?token=%s\n",
			int(s.resetTTL.Minutes()), token, s.baseURL, token)
		if err := s.mail.Send(ctx, mailer.Message{To: []string{employee.Email}, Subject: "Password reset", Body: body}); err != nil {
			s.logger.Warn("password reset email failed", zap.String("employee_id", employee.ID), zap.Error(err))
		}
	}
	return nil
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token, newPassword string) error {
	if err := validateNewPassword(newPassword); err != nil {
		return err
	}
	reset, err := s.resets.GetByTokenHash(ctx, auth.HashResetToken(strings.TrimSpace(token)))
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewValidationError("invalid or expired token", nil)
		}
		return err
	}
	if !reset.Usable(s.now()) {
		return apperrors.NewValidationError("invalid or expired token", nil)
	}

	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return err
	}
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.resets.MarkUsed(ctx, reset.ID); err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewValidationError("invalid or expired token", nil)
			}
			return err
		}
		return s.employees.UpdatePassword(ctx, reset.EmployeeID, hash, false)
	})
}

// TokenManager exposes the underlying token manager for middleware usage.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}

func validateNewPassword(pw string) error {
	if len(pw) < auth.MinPasswordLength {
		return apperrors.NewValidationError("invalid password", map[string]any{
			"new_password": fmt.Sprintf("must be at least %d characters", auth.MinPasswordLength),
		})
	}
	return nil
}
