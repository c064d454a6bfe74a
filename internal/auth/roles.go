package auth

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// RequireRole ensures the principal holds one of the allowed roles. With no
// roles it only requires authentication.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok {
			return fiber.NewError(http.StatusUnauthorized, http.StatusText(http.StatusUnauthorized))
		}
		if len(allowedSet) == 0 {
			return c.Next()
		}
		if _, exists := allowedSet[principal.Employee.Role]; !exists {
			return fiber.NewError(http.StatusForbidden, "insufficient role")
		}
		return c.Next()
	}
}

// RequirePasswordFresh blocks callers that still carry the default password.
// Paths listed in exempt (matched on the request path) stay reachable so the
// password can be changed.
func RequirePasswordFresh(exempt ...string) fiber.Handler {
	exemptSet := make(map[string]struct{}, len(exempt))
	for _, p := range exempt {
		exemptSet[p] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		principal, ok := PrincipalFromContext(c)
		if !ok || !principal.Employee.PasswordChangeRequired {
			return c.Next()
		}
		if _, skip := exemptSet[c.Path()]; skip {
			return c.Next()
		}
		return fiber.NewError(http.StatusForbidden, "password change required")
	}
}
