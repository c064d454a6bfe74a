package domain

import (
	"strings"
	"time"
)

// Role enumerates the organisational roles an employee can hold.
type Role string

const (
	RoleDirectorGeneral  Role = "DG"
	RoleDirector         Role = "DIR"
	RoleZonalDirector    Role = "ZD"
	RoleStateCoordinator Role = "SC"
	RoleStaff            Role = "STAFF"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleDirectorGeneral, RoleDirector, RoleZonalDirector, RoleStateCoordinator, RoleStaff:
		return true
	}
	return false
}

const (
	RetirementAge          = 60
	MaxYearsOfService      = 35
	MinGradeLevel          = 1
	MaxGradeLevel          = 18
	MinStep                = 1
	MaxStep                = 15
	DefaultInitialPassword = "changeme"
)

// Employee is the core staff record and also the authenticated subject.
type Employee struct {
	ID                     string
	EmployeeNumber         string
	IPPISNumber            *string
	FirstName              string
	LastName               string
	MiddleName             string
	Email                  string
	Phone                  *string
	Role                   Role
	DepartmentID           *string
	ZoneCode               *string
	StateCode              *string
	GradeLevel             int
	Step                   int
	DateOfBirth            time.Time
	DateOfFirstAppointment time.Time
	DateOfRetirement       *time.Time
	LastPromotionDate      *time.Time
	LastExaminationDate    *time.Time
	BankAccountNumber      *string
	PFANumber              *string
	Active                 bool
	PasswordHash           string
	PasswordChangeRequired bool
	DeletedAt              *time.Time
	CreatedAt              time.Time
	UpdatedAt              time.Time
}

// FullName joins the name parts that are present.
func (e *Employee) FullName() string {
	parts := []string{e.FirstName}
	if e.MiddleName != "" {
		parts = append(parts, e.MiddleName)
	}
	parts = append(parts, e.LastName)
	return strings.Join(parts, " ")
}

// CanSignIn reports whether the account is allowed to authenticate.
func (e *Employee) CanSignIn() bool {
	return e.Active && e.DeletedAt == nil
}

// RetirementDate returns the earlier of the statutory age limit and the
// service-length limit.
func RetirementDate(dateOfBirth, firstAppointment time.Time) time.Time {
	byAge := addYears(dateOfBirth, RetirementAge)
	byService := addYears(firstAppointment, MaxYearsOfService)
	if byService.Before(byAge) {
		return byService
	}
	return byAge
}

// ApplyRetirementRules fills in the retirement date when it is unset and
// deactivates the employee once that date has been reached.
func (e *Employee) ApplyRetirementRules(today time.Time) {
	if e.DateOfRetirement == nil {
		rd := RetirementDate(e.DateOfBirth, e.DateOfFirstAppointment)
		e.DateOfRetirement = &rd
	}
	if !truncateDay(*e.DateOfRetirement).After(truncateDay(today)) {
		e.Active = false
	}
}

// InScope reports whether the employee falls within a viewer's scope.
func (e *Employee) InScope(scope Scope) bool {
	switch {
	case scope.All:
		return true
	case scope.DepartmentID != nil:
		return e.DepartmentID != nil && *e.DepartmentID == *scope.DepartmentID
	case scope.ZoneCode != nil:
		return e.ZoneCode != nil && *e.ZoneCode == *scope.ZoneCode
	case scope.StateCode != nil:
		return e.StateCode != nil && *e.StateCode == *scope.StateCode
	case scope.EmployeeID != nil:
		return e.ID == *scope.EmployeeID
	}
	return false
}

// Scope narrows what a viewer may see based on their role.
type Scope struct {
	All          bool
	DepartmentID *string
	ZoneCode     *string
	StateCode    *string
	EmployeeID   *string
}

// Key renders the scope for use in cache keys.
func (s Scope) Key() string {
	switch {
	case s.All:
		return "all"
	case s.DepartmentID != nil:
		return "dept:" + *s.DepartmentID
	case s.ZoneCode != nil:
		return "zone:" + *s.ZoneCode
	case s.StateCode != nil:
		return "state:" + *s.StateCode
	case s.EmployeeID != nil:
		return "self:" + *s.EmployeeID
	}
	return "none"
}

// ScopeFor derives the visibility scope of an employee from their role.
func ScopeFor(e *Employee) Scope {
	switch e.Role {
	case RoleDirectorGeneral:
		return Scope{All: true}
	case RoleDirector:
		if e.DepartmentID != nil {
			return Scope{DepartmentID: e.DepartmentID}
		}
	case RoleZonalDirector:
		if e.ZoneCode != nil {
			return Scope{ZoneCode: e.ZoneCode}
		}
	case RoleStateCoordinator:
		if e.StateCode != nil {
			return Scope{StateCode: e.StateCode}
		}
	}
	id := e.ID
	return Scope{EmployeeID: &id}
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// addYears moves t by n calendar years. A day that does not exist in the
// target month (Feb 29 outside a leap year) clamps to the month's last day.
func addYears(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	last := time.Date(y+n, m+1, 0, 0, 0, 0, 0, t.Location()).Day()
	if d > last {
		d = last
	}
	hh, mm, ss := t.Clock()
	return time.Date(y+n, m, d, hh, mm, ss, t.Nanosecond(), t.Location())
}
