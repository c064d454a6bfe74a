package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/domain"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

func currentEmployee(c *fiber.Ctx) (*domain.Employee, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.Employee, nil
}

func parseBody(c *fiber.Ctx, dst any) error {
	if err := c.BodyParser(dst); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"body": err.Error()})
	}
	return nil
}

func data(c *fiber.Ctx, status int, payload any) error {
	return c.Status(status).JSON(fiber.Map{"data": payload})
}

func parseBoolQuery(c *fiber.Ctx, key string) *bool {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.ParseBool(val); err == nil {
			return &parsed
		}
	}
	return nil
}

func parseIntQuery(c *fiber.Ctx, key string, defaultVal int) int {
	if val := c.Query(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil && parsed > 0 {
			return parsed
		}
	}
	return defaultVal
}

func optionalQuery(c *fiber.Ctx, key string) *string {
	if val := c.Query(key); val != "" {
		return &val
	}
	return nil
}

// paging returns page, page size, limit and offset from ?page=&page_size=.
func paging(c *fiber.Ctx) (page, size, limit, offset int) {
	page = parseIntQuery(c, "page", 1)
	size = parseIntQuery(c, "page_size", defaultPageSize)
	if size > maxPageSize {
		size = maxPageSize
	}
	return page, size, size, (page - 1) * size
}
