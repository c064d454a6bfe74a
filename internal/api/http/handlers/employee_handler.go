package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// EmployeeHandler exposes the staff directory.
type EmployeeHandler struct {
	employees *service.EmployeeService
	importer  *service.ImportService
}

// NewEmployeeHandler constructs handler.
func NewEmployeeHandler(employees *service.EmployeeService, importer *service.ImportService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees, importer: importer}
}

// List handles GET /employees.
func (h *EmployeeHandler) List(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	page, size, limit, offset := paging(c)
	filter := service.EmployeeListFilter{
		DepartmentID: optionalQuery(c, "department_id"),
		ZoneCode:     optionalQuery(c, "zone_code"),
		StateCode:    optionalQuery(c, "state_code"),
		Active:       parseBoolQuery(c, "active"),
		Search:       optionalQuery(c, "search"),
		Limit:        limit,
		Offset:       offset,
	}
	if role := c.Query("role"); role != "" {
		r := domain.Role(role)
		filter.Role = &r
	}

	result, err := h.employees.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"data": employeeResponses(result.Items),
		"meta": dto.PageMeta{Page: page, PageSize: size, Total: result.Total},
	})
}

// Create handles POST /employees.
func (h *EmployeeHandler) Create(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Create(c.UserContext(), actor, service.EmployeeInput{
		EmployeeNumber:         req.EmployeeID,
		IPPISNumber:            req.IPPISNumber,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		MiddleName:             req.MiddleName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		Role:                   req.Role,
		DepartmentID:           req.DepartmentID,
		ZoneCode:               req.ZoneCode,
		StateCode:              req.StateCode,
		GradeLevel:             req.GradeLevel,
		Step:                   req.Step,
		DateOfBirth:            req.DateOfBirth.Time,
		DateOfFirstAppointment: req.DateOfFirstAppointment.Time,
		DateOfRetirement:       req.DateOfRetirement.TimePtr(),
		LastPromotionDate:      req.LastPromotionDate.TimePtr(),
		LastExaminationDate:    req.LastExaminationDate.TimePtr(),
		BankAccountNumber:      req.BankAccountNumber,
		PFANumber:              req.PFANumber,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, employeeResponse(employee))
}

// Me handles GET /employees/me.
func (h *EmployeeHandler) Me(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Me(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, employeeResponse(employee))
}

// Get handles GET /employees/:id.
func (h *EmployeeHandler) Get(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	employee, err := h.employees.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, employeeResponse(employee))
}

// Update handles PATCH /employees/:id.
func (h *EmployeeHandler) Update(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.EmployeeUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	employee, err := h.employees.Update(c.UserContext(), actor, c.Params("id"), service.EmployeeUpdate{
		EmployeeNumber:         req.EmployeeID,
		IPPISNumber:            req.IPPISNumber,
		FirstName:              req.FirstName,
		LastName:               req.LastName,
		MiddleName:             req.MiddleName,
		Email:                  req.Email,
		Phone:                  req.Phone,
		Role:                   req.Role,
		DepartmentID:           req.DepartmentID,
		ZoneCode:               req.ZoneCode,
		StateCode:              req.StateCode,
		GradeLevel:             req.GradeLevel,
		Step:                   req.Step,
		DateOfBirth:            req.DateOfBirth.TimePtr(),
		DateOfFirstAppointment: req.DateOfFirstAppointment.TimePtr(),
		DateOfRetirement:       req.DateOfRetirement.TimePtr(),
		LastPromotionDate:      req.LastPromotionDate.TimePtr(),
		LastExaminationDate:    req.LastExaminationDate.TimePtr(),
		BankAccountNumber:      req.BankAccountNumber,
		PFANumber:              req.PFANumber,
		Active:                 req.Active,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, employeeResponse(employee))
}

// Deactivate handles DELETE /employees/:id.
func (h *EmployeeHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	if err := h.employees.Deactivate(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// Import handles POST /employees/import with a multipart "file" field.
func (h *EmployeeHandler) Import(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	header, err := c.FormFile("file")
	if err != nil {
		return apperrors.NewValidationError("a CSV file is required", map[string]any{"file": "is required"})
	}
	f, err := header.Open()
	if err != nil {
		return apperrors.NewValidationError("uploaded file could not be read", nil)
	}
	defer f.Close()

	result, err := h.importer.ImportEmployees(c.UserContext(), actor, f)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, result)
}
