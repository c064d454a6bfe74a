package repository

import (
	"fmt"
	"strings"

	"github.com/spec-kit/staff-portal/internal/domain"
)

const (
	defaultLimit = 50
	maxLimit     = 500
)

// where accumulates positional WHERE clauses.
type where struct {
	clauses []string
	args    []any
}

func (w *where) add(format string, val any) {
	w.args = append(w.args, val)
	w.clauses = append(w.clauses, fmt.Sprintf(format, len(w.args)))
}

func (w *where) raw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *where) String() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

// scope restricts rows to a viewer's scope. prefix is the table alias of
// the employees row being filtered, including the trailing dot.
func (w *where) scope(s domain.Scope, prefix string) {
	switch {
	case s.All:
	case s.DepartmentID != nil:
		w.add(prefix+"department_id=$%d", *s.DepartmentID)
	case s.ZoneCode != nil:
		w.add(prefix+"zone_code=$%d", *s.ZoneCode)
	case s.StateCode != nil:
		w.add(prefix+"state_code=$%d", *s.StateCode)
	case s.EmployeeID != nil:
		w.add(prefix+"id=$%d", *s.EmployeeID)
	default:
		w.raw("FALSE")
	}
}

func page(limit, offset int) string {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if offset < 0 {
		offset = 0
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)
}
