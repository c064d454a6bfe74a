package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// importColumns is the required CSV header, in any order.
var importColumns = []string{
	"employee_id", "ippis_number", "first_name", "last_name", "middle_name", "email", "phone", "role",
	"department_code", "zone_code", "state_code", "grade_level", "step", "date_of_birth", "date_of_first_appointment",
}

// ImportRowError describes a rejected CSV row. Row counts the header as 1.
type ImportRowError struct {
	Row        int    `json:"row"`
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

// ImportResult summarises a bulk import.
type ImportResult struct {
	Created int              `json:"created"`
	Updated int              `json:"updated"`
	Errored int              `json:"errored"`
	Errors  []ImportRowError `json:"errors"`
}

// ImportService bulk-loads employees from CSV.
type ImportService struct {
	employees *EmployeeService
	repo      repository.EmployeeRepository
	org       repository.OrgRepository
	logger    *zap.Logger
}

// ImportDependencies bundles collaborators for the import service.
type ImportDependencies struct {
	EmployeeService *EmployeeService
	EmployeeRepo    repository.EmployeeRepository
	OrgRepo         repository.OrgRepository
	Logger          *zap.Logger
}

// NewImportService constructs the service.
func NewImportService(deps ImportDependencies) *ImportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{employees: deps.EmployeeService, repo: deps.EmployeeRepo, org: deps.OrgRepo, logger: logger}
}

// ImportEmployees creates or updates one employee per CSV row. Rows are
// independent: a bad row is reported and the rest continue.
func (s *ImportService) ImportEmployees(ctx context.Context, actor *domain.Employee, r io.Reader) (*ImportResult, error) {
	if !isManager(actor.Role) {
		return nil, apperrors.NewForbidden("only DG and DIR can import employees")
	}

	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, apperrors.NewValidationError("empty file", nil)
		}
		return nil, apperrors.NewValidationError("unreadable csv", map[string]any{"reason": err.Error()})
	}
	index, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Errors: []ImportRowError{}}
	deptCache := map[string]string{}
	rowNum := 1
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		rowNum++
		if err != nil {
			result.fail(rowNum, "", err)
			continue
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		row := func(col string) string {
			i, ok := index[col]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}
		number := row("employee_id")

		input, err := s.parseRow(ctx, row, deptCache)
		if err != nil {
			result.fail(rowNum, number, err)
			continue
		}

		existing, err := s.repo.GetByEmployeeNumber(ctx, number)
		switch {
		case err == nil:
			if _, err := s.employees.Update(ctx, actor, existing.ID, updateFromInput(input)); err != nil {
				result.fail(rowNum, number, err)
				continue
			}
			result.Updated++
		case apperrors.IsNotFound(err):
			if _, err := s.employees.Create(ctx, actor, input); err != nil {
				result.fail(rowNum, number, err)
				continue
			}
			result.Created++
		default:
			result.fail(rowNum, number, err)
		}
	}

	s.logger.Info("employee import finished",
		zap.Int("created", result.Created),
		zap.Int("updated", result.Updated),
		zap.Int("errored", result.Errored))
	return result, nil
}

func (r *ImportResult) fail(row int, employeeID string, err error) {
	r.Errored++
	msg := err.Error()
	if de := apperrors.ToDomainError(err); de != nil && de.Code != "INTERNAL_ERROR" {
		msg = de.Message
		if len(de.Details) > 0 {
			msg = fmt.Sprintf("%s: %v", de.Message, de.Details)
		}
	}
	r.Errors = append(r.Errors, ImportRowError{Row: row, EmployeeID: employeeID, Error: msg})
}

func headerIndex(header []string) (map[string]int, error) {
	index := make(map[string]int, len(header))
	for i, h := range header {
		index[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	var missing []string
	for _, col := range importColumns {
		if _, ok := index[col]; !ok {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("missing csv columns", map[string]any{"columns": missing})
	}
	return index, nil
}

func (s *ImportService) parseRow(ctx context.Context, row func(string) string, deptCache map[string]string) (EmployeeInput, error) {
	errs := fieldErrors{}
	input := EmployeeInput{
		EmployeeNumber: row("employee_id"),
		IPPISNumber:    optional(row("ippis_number")),
		FirstName:      row("first_name"),
		LastName:       row("last_name"),
		MiddleName:     row("middle_name"),
		Email:          row("email"),
		Phone:          optional(row("phone")),
		Role:           domain.Role(strings.ToUpper(row("role"))),
		ZoneCode:       optional(row("zone_code")),
		StateCode:      optional(row("state_code")),
	}
	if input.Role == "" {
		input.Role = domain.RoleStaff
	}

	var err error
	if input.GradeLevel, err = strconv.Atoi(row("grade_level")); err != nil {
		errs.add("grade_level", "must be a number")
	}
	if input.Step, err = strconv.Atoi(row("step")); err != nil {
		errs.add("step", "must be a number")
	}
	if input.DateOfBirth, err = time.Parse(DateLayout, row("date_of_birth")); err != nil {
		errs.add("date_of_birth", "must be YYYY-MM-DD")
	}
	if input.DateOfFirstAppointment, err = time.Parse(DateLayout, row("date_of_first_appointment")); err != nil {
		errs.add("date_of_first_appointment", "must be YYYY-MM-DD")
	}

	if code := row("department_code"); code != "" {
		id, ok := deptCache[code]
		if !ok {
			dept, err := s.org.GetDepartment(ctx, code)
			switch {
			case err == nil:
				id = dept.ID
				deptCache[code] = id
			case apperrors.IsNotFound(err):
				errs.add("department_code", "unknown department")
			default:
				return input, err
			}
		}
		if id != "" {
			input.DepartmentID = &id
		}
	}
	return input, errs.err("invalid row")
}

func updateFromInput(in EmployeeInput) EmployeeUpdate {
	orEmpty := func(p *string) *string {
		if p == nil {
			empty := ""
			return &empty
		}
		return p
	}
	return EmployeeUpdate{
		IPPISNumber:            orEmpty(in.IPPISNumber),
		FirstName:              &in.FirstName,
		LastName:               &in.LastName,
		MiddleName:             &in.MiddleName,
		Email:                  &in.Email,
		Phone:                  orEmpty(in.Phone),
		Role:                   &in.Role,
		DepartmentID:           orEmpty(in.DepartmentID),
		ZoneCode:               orEmpty(in.ZoneCode),
		StateCode:              orEmpty(in.StateCode),
		GradeLevel:             &in.GradeLevel,
		Step:                   &in.Step,
		DateOfBirth:            &in.DateOfBirth,
		DateOfFirstAppointment: &in.DateOfFirstAppointment,
	}
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
