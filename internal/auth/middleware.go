package auth

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	Employee *domain.Employee
	Claims   *Claims
}

// Scope returns the caller's visibility scope.
func (p *Principal) Scope() domain.Scope {
	return domain.ScopeFor(p.Employee)
}

// RevocationChecker reports whether a token id has been revoked.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	employees repository.EmployeeRepository
	revoked   RevocationChecker
	logger    *zap.Logger
}

// NewAuthMiddleware constructs middleware. revoked may be nil.
func NewAuthMiddleware(tokens *TokenManager, employees repository.EmployeeRepository, revoked RevocationChecker, logger *zap.Logger) *AuthMiddleware {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthMiddleware{tokens: tokens, employees: employees, revoked: revoked, logger: logger}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get(fiber.HeaderAuthorization)
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(strings.TrimSpace(parts[1]))
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	ctx := c.UserContext()
	if m.revoked != nil {
		revoked, err := m.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			m.logger.Error("token denylist lookup failed", zap.Error(err))
			return apperrors.NewUnauthorized("token could not be verified")
		}
		if revoked {
			return apperrors.NewUnauthorized("token revoked")
		}
	}

	employee, err := m.employees.GetByID(ctx, claims.EmployeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return apperrors.NewUnauthorized("employee not found")
		}
		return apperrors.MapError(err)
	}
	if !employee.CanSignIn() {
		return apperrors.NewForbidden("account is inactive")
	}

	c.Locals(principalKey, &Principal{Employee: employee, Claims: claims})
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok && principal != nil
}

// SetPrincipal attaches a principal to the request.
func SetPrincipal(c *fiber.Ctx, p *Principal) {
	c.Locals(principalKey, p)
}
