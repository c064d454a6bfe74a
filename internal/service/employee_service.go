package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// EmployeeService manages employee records.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	org        repository.OrgRepository
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// EmployeeDependencies bundles collaborators for the employee service.
type EmployeeDependencies struct {
	EmployeeRepo repository.EmployeeRepository
	OrgRepo      repository.OrgRepository
	Dispatcher   events.Dispatcher
	BcryptCost   int
	Clock        func() time.Time
}

// EmployeeInput describes a new employee.
type EmployeeInput struct {
	EmployeeNumber         string
	IPPISNumber            *string
	FirstName              string
	LastName               string
	MiddleName             string
	Email                  string
	Phone                  *string
	Role                   domain.Role
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
}

// EmployeeUpdate is a partial update. Nil fields are left unchanged; an
// empty string clears an optional text field.
type EmployeeUpdate struct {
	EmployeeNumber         *string
	IPPISNumber            *string
	FirstName              *string
	LastName               *string
	MiddleName             *string
	Email                  *string
	Phone                  *string
	Role                   *domain.Role
	DepartmentID           *string
	ZoneCode               *string
	StateCode              *string
	GradeLevel             *int
	Step                   *int
	DateOfBirth            *time.Time
	DateOfFirstAppointment *time.Time
	DateOfRetirement       *time.Time
	LastPromotionDate      *time.Time
	LastExaminationDate    *time.Time
	BankAccountNumber      *string
	PFANumber              *string
	Active                 *bool
}

// EmployeeListFilter describes listing filters.
type EmployeeListFilter struct {
	Role         *domain.Role
	DepartmentID *string
	ZoneCode     *string
	StateCode    *string
	Active       *bool
	Search       *string
	Limit        int
	Offset       int
}

// EmployeePage is one page of a listing plus the total match count.
type EmployeePage struct {
	Items []domain.Employee
	Total int
}

// NewEmployeeService constructs the service.
func NewEmployeeService(deps EmployeeDependencies) *EmployeeService {
	cost := deps.BcryptCost
	if cost == 0 {
		cost = 12
	}
	return &EmployeeService{
		employees:  deps.EmployeeRepo,
		org:        deps.OrgRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: cost,
		now:        clockOrDefault(deps.Clock),
	}
}

// Create validates and stores a new employee with the default password.
func (s *EmployeeService) Create(ctx context.Context, actor *domain.Employee, input EmployeeInput) (*domain.Employee, error) {
	employee := &domain.Employee{
		EmployeeNumber:         input.EmployeeNumber,
		IPPISNumber:            input.IPPISNumber,
		FirstName:              input.FirstName,
		LastName:               input.LastName,
		MiddleName:             input.MiddleName,
		Email:                  input.Email,
		Phone:                  input.Phone,
		Role:                   input.Role,
		DepartmentID:           input.DepartmentID,
		ZoneCode:               input.ZoneCode,
		StateCode:              input.StateCode,
		GradeLevel:             input.GradeLevel,
		Step:                   input.Step,
		DateOfBirth:            input.DateOfBirth,
		DateOfFirstAppointment: input.DateOfFirstAppointment,
		DateOfRetirement:       input.DateOfRetirement,
		LastPromotionDate:      input.LastPromotionDate,
		LastExaminationDate:    input.LastExaminationDate,
		BankAccountNumber:      input.BankAccountNumber,
		PFANumber:              input.PFANumber,
		Active:                 true,
		PasswordChangeRequired: true,
	}
	if employee.Role == "" {
		employee.Role = domain.RoleStaff
	}
	normalizeEmployee(employee)

	if err := s.authorizeWrite(actor, employee); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, employee); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, employee); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(domain.DefaultInitialPassword, s.bcryptCost)
	if err != nil {
		return nil, err
	}
	employee.PasswordHash = hash
	employee.ApplyRetirementRules(s.now())

	if err := s.employees.Create(ctx, employee); err != nil {
		return nil, conflictFromUnique(err)
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventEmployeeCreated,
		ActorID: actor.ID,
		Payload: events.EmployeeCreatedPayload{
			EmployeeID:     employee.ID,
			EmployeeNumber: employee.EmployeeNumber,
			FullName:       employee.FullName(),
		},
	})
	return employee, nil
}

// Update applies a partial update to an employee.
func (s *EmployeeService) Update(ctx context.Context, actor *domain.Employee, id string, upd EmployeeUpdate) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canManage(actor, employee.DepartmentID) {
		return nil, apperrors.NewForbidden("not allowed to modify this employee")
	}

	datesChanged := applyEmployeeUpdate(employee, upd)
	normalizeEmployee(employee)

	if err := s.authorizeWrite(actor, employee); err != nil {
		return nil, err
	}
	if err := s.validate(ctx, employee); err != nil {
		return nil, err
	}
	if err := s.checkConflict(ctx, employee); err != nil {
		return nil, err
	}

	if datesChanged && upd.DateOfRetirement == nil {
		employee.DateOfRetirement = nil
	}
	employee.ApplyRetirementRules(s.now())

	if err := s.employees.Update(ctx, employee); err != nil {
		return nil, conflictFromUnique(err)
	}
	return employee, nil
}

// Get returns an employee the actor is allowed to see.
func (s *EmployeeService) Get(ctx context.Context, actor *domain.Employee, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canView(actor, employee) {
		return nil, apperrors.NewForbidden("employee is outside your scope")
	}
	return employee, nil
}

// Me returns the caller's own record.
func (s *EmployeeService) Me(ctx context.Context, actor *domain.Employee) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, actor.ID)
	return employee, notFound(err, "employee")
}

// List returns employees within the actor's scope.
func (s *EmployeeService) List(ctx context.Context, actor *domain.Employee, filter EmployeeListFilter) (*EmployeePage, error) {
	if actor.Role == domain.RoleStaff {
		return nil, apperrors.NewForbidden("staff cannot list employees")
	}
	repoFilter := repository.EmployeeFilter{
		Scope:        domain.ScopeFor(actor),
		Role:         filter.Role,
		DepartmentID: filter.DepartmentID,
		ZoneCode:     filter.ZoneCode,
		StateCode:    filter.StateCode,
		Active:       filter.Active,
		Search:       trimPtr(filter.Search),
		Limit:        filter.Limit,
		Offset:       filter.Offset,
	}
	items, err := s.employees.List(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	total, err := s.employees.Count(ctx, repoFilter)
	if err != nil {
		return nil, err
	}
	return &EmployeePage{Items: items, Total: total}, nil
}

// Deactivate soft-deletes an employee.
func (s *EmployeeService) Deactivate(ctx context.Context, actor *domain.Employee, id string) error {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "employee")
	}
	if !canManage(actor, employee.DepartmentID) {
		return apperrors.NewForbidden("not allowed to deactivate this employee")
	}
	if employee.ID == actor.ID {
		return apperrors.NewValidationError("cannot deactivate your own account", nil)
	}
	return notFound(s.employees.SoftDelete(ctx, id), "employee")
}

func (s *EmployeeService) authorizeWrite(actor *domain.Employee, employee *domain.Employee) error {
	if !canManage(actor, employee.DepartmentID) {
		return apperrors.NewForbidden("not allowed to manage employees outside your department")
	}
	if actor.Role != domain.RoleDirectorGeneral && employee.Role == domain.RoleDirectorGeneral {
		return apperrors.NewForbidden("only the DG can assign the DG role")
	}
	return nil
}

func (s *EmployeeService) validate(ctx context.Context, e *domain.Employee) error {
	errs := validateEmployeeFields(e)
	if len(errs) > 0 {
		return errs.err("invalid employee")
	}
	if e.DepartmentID != nil {
		if _, err := s.org.GetDepartmentByID(ctx, *e.DepartmentID); err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			errs.add("department_id", "unknown department")
		}
	}
	if e.ZoneCode != nil {
		if _, err := s.org.GetZone(ctx, *e.ZoneCode); err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			errs.add("zone_code", "unknown zone")
		}
	}
	if e.StateCode != nil {
		if _, err := s.org.GetState(ctx, *e.StateCode); err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			errs.add("state_code", "unknown state")
		}
	}
	return errs.err("invalid employee")
}

func (s *EmployeeService) checkConflict(ctx context.Context, e *domain.Employee) error {
	field, err := s.employees.FindConflict(ctx, e.EmployeeNumber, e.Email, e.IPPISNumber, e.ID)
	if err != nil {
		return err
	}
	if field != "" {
		return apperrors.NewConflict(field+" already exists", map[string]any{"field": field})
	}
	return nil
}

func validateEmployeeFields(e *domain.Employee) fieldErrors {
	errs := fieldErrors{}
	if e.EmployeeNumber == "" {
		errs.add("employee_id", "is required")
	}
	if e.FirstName == "" {
		errs.add("first_name", "is required")
	}
	if e.LastName == "" {
		errs.add("last_name", "is required")
	}
	if e.Email == "" {
		errs.add("email", "is required")
	} else if !validEmail(e.Email) {
		errs.add("email", "is not a valid address")
	}
	if e.Phone != nil && !phonePattern.MatchString(*e.Phone) {
		errs.add("phone", "must be an 11 digit number starting with 080, 081, 090, 091 or 070")
	}
	if !e.Role.Valid() {
		errs.add("role", "must be one of DG, DIR, ZD, SC, STAFF")
	}
	if e.GradeLevel < domain.MinGradeLevel || e.GradeLevel > domain.MaxGradeLevel {
		errs.add("grade_level", "must be between 1 and 18")
	}
	if e.Step < domain.MinStep || e.Step > domain.MaxStep {
		errs.add("step", "must be between 1 and 15")
	}
	if e.DateOfBirth.IsZero() {
		errs.add("date_of_birth", "is required")
	}
	if e.DateOfFirstAppointment.IsZero() {
		errs.add("date_of_first_appointment", "is required")
	}
	if !e.DateOfBirth.IsZero() && !e.DateOfFirstAppointment.IsZero() && !e.DateOfBirth.Before(e.DateOfFirstAppointment) {
		errs.add("date_of_first_appointment", "must be after date of birth")
	}
	if e.BankAccountNumber != nil && !bankAccountPattern.MatchString(*e.BankAccountNumber) {
		errs.add("bank_account_number", "must be 10 digits")
	}
	if e.PFANumber != nil && !pfaPattern.MatchString(*e.PFANumber) {
		errs.add("pfa_number", "must be 12 digits")
	}
	return errs
}

func normalizeEmployee(e *domain.Employee) {
	e.EmployeeNumber = strings.TrimSpace(e.EmployeeNumber)
	e.FirstName = strings.TrimSpace(e.FirstName)
	e.LastName = strings.TrimSpace(e.LastName)
	e.MiddleName = strings.TrimSpace(e.MiddleName)
	e.Email = strings.ToLower(strings.TrimSpace(e.Email))
	e.IPPISNumber = trimPtr(e.IPPISNumber)
	e.Phone = trimPtr(e.Phone)
	e.DepartmentID = trimPtr(e.DepartmentID)
	e.ZoneCode = trimPtr(e.ZoneCode)
	e.StateCode = trimPtr(e.StateCode)
	e.BankAccountNumber = trimPtr(e.BankAccountNumber)
	e.PFANumber = trimPtr(e.PFANumber)
}

// applyEmployeeUpdate copies set fields onto e and reports whether a date
// feeding the retirement calculation changed.
func applyEmployeeUpdate(e *domain.Employee, upd EmployeeUpdate) bool {
	if upd.EmployeeNumber != nil {
		e.EmployeeNumber = *upd.EmployeeNumber
	}
	if upd.IPPISNumber != nil {
		e.IPPISNumber = upd.IPPISNumber
	}
	if upd.FirstName != nil {
		e.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		e.LastName = *upd.LastName
	}
	if upd.MiddleName != nil {
		e.MiddleName = *upd.MiddleName
	}
	if upd.Email != nil {
		e.Email = *upd.Email
	}
	if upd.Phone != nil {
		e.Phone = upd.Phone
	}
	if upd.Role != nil {
		e.Role = *upd.Role
	}
	if upd.DepartmentID != nil {
		e.DepartmentID = upd.DepartmentID
	}
	if upd.ZoneCode != nil {
		e.ZoneCode = upd.ZoneCode
	}
	if upd.StateCode != nil {
		e.StateCode = upd.StateCode
	}
	if upd.GradeLevel != nil {
		e.GradeLevel = *upd.GradeLevel
	}
	if upd.Step != nil {
		e.Step = *upd.Step
	}
	if upd.LastPromotionDate != nil {
		e.LastPromotionDate = upd.LastPromotionDate
	}
	if upd.LastExaminationDate != nil {
		e.LastExaminationDate = upd.LastExaminationDate
	}
	if upd.BankAccountNumber != nil {
		e.BankAccountNumber = upd.BankAccountNumber
	}
	if upd.PFANumber != nil {
		e.PFANumber = upd.PFANumber
	}
	if upd.Active != nil {
		e.Active = *upd.Active
	}

	changed := false
	if upd.DateOfBirth != nil && !upd.DateOfBirth.Equal(e.DateOfBirth) {
		e.DateOfBirth = *upd.DateOfBirth
		changed = true
	}
	if upd.DateOfFirstAppointment != nil && !upd.DateOfFirstAppointment.Equal(e.DateOfFirstAppointment) {
		e.DateOfFirstAppointment = *upd.DateOfFirstAppointment
		changed = true
	}
	if upd.DateOfRetirement != nil {
		e.DateOfRetirement = upd.DateOfRetirement
	}
	return changed
}

func conflictFromUnique(err error) error {
	if apperrors.IsUniqueViolation(err) {
		return apperrors.MapError(err)
	}
	return err
}
