package service

import (
	"context"
	"net/mail"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

var (
	phonePattern       = regexp.MustCompile(`^(080|081|090|091|070)\d{8}$`)
	bankAccountPattern = regexp.MustCompile(`^\d{10}$`)
	pfaPattern         = regexp.MustCompile(`^\d{12}$`)
)

// SystemActor is the principal used by CLI commands and scheduled jobs.
func SystemActor() *domain.Employee {
	return &domain.Employee{FirstName: "System", Role: domain.RoleDirectorGeneral, Active: true}
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func clockOrDefault(clock func() time.Time) func() time.Time {
	if clock == nil {
		return time.Now
	}
	return clock
}

// canView reports whether actor may read target's records.
func canView(actor, target *domain.Employee) bool {
	if actor.ID != "" && actor.ID == target.ID {
		return true
	}
	if actor.Role == domain.RoleStaff {
		return false
	}
	return target.InScope(domain.ScopeFor(actor))
}

// canManage reports whether actor may write target's HR records: DG
// anywhere, DIR within their own department.
func canManage(actor *domain.Employee, departmentID *string) bool {
	switch actor.Role {
	case domain.RoleDirectorGeneral:
		return true
	case domain.RoleDirector:
		return actor.DepartmentID != nil && departmentID != nil && *actor.DepartmentID == *departmentID
	}
	return false
}

func isManager(role domain.Role) bool {
	return role == domain.RoleDirectorGeneral || role == domain.RoleDirector
}

// notFound wraps repository misses with a resource name and passes other
// errors through.
func notFound(err error, resource string) error {
	if err == nil {
		return nil
	}
	if apperrors.IsNotFound(err) {
		return apperrors.NewNotFound(resource, nil)
	}
	return err
}

// fieldErrors collects per-field validation messages.
type fieldErrors map[string]any

func (f fieldErrors) add(field, msg string) {
	if _, exists := f[field]; !exists {
		f[field] = msg
	}
}

func (f fieldErrors) err(message string) error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.NewValidationError(message, map[string]any(f))
}

func validEmail(addr string) bool {
	parsed, err := mail.ParseAddress(addr)
	return err == nil && parsed.Address == addr
}

func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
