package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

// OrgHandler exposes zones, states, LGAs, departments and grade levels.
type OrgHandler struct {
	org *service.OrgService
}

// NewOrgHandler constructs handler.
func NewOrgHandler(org *service.OrgService) *OrgHandler {
	return &OrgHandler{org: org}
}

func orgInput(req dto.OrgUnitRequest) service.OrgUnitInput {
	return service.OrgUnitInput{Code: req.Code, Name: req.Name, Parent: req.Parent, HeadID: req.HeadID, Active: req.Active}
}

// ListZones handles GET /zones.
func (h *OrgHandler) ListZones(c *fiber.Ctx) error {
	zones, err := h.org.ListZones(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.ZoneResponse, 0, len(zones))
	for i := range zones {
		resp = append(resp, zoneResponse(&zones[i]))
	}
	return data(c, http.StatusOK, resp)
}

// GetZone handles GET /zones/:code.
func (h *OrgHandler) GetZone(c *fiber.Ctx) error {
	zone, err := h.org.GetZone(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, zoneResponse(zone))
}

// CreateZone handles POST /zones.
func (h *OrgHandler) CreateZone(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	zone, err := h.org.CreateZone(c.UserContext(), actor, orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, zoneResponse(zone))
}

// UpdateZone handles PATCH /zones/:code.
func (h *OrgHandler) UpdateZone(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	zone, err := h.org.UpdateZone(c.UserContext(), actor, c.Params("code"), orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, zoneResponse(zone))
}

// ListStates handles GET /states?zone_code=.
func (h *OrgHandler) ListStates(c *fiber.Ctx) error {
	states, err := h.org.ListStates(c.UserContext(), optionalQuery(c, "zone_code"))
	if err != nil {
		return err
	}
	resp := make([]dto.StateResponse, 0, len(states))
	for i := range states {
		resp = append(resp, stateResponse(&states[i]))
	}
	return data(c, http.StatusOK, resp)
}

// GetState handles GET /states/:code.
func (h *OrgHandler) GetState(c *fiber.Ctx) error {
	state, err := h.org.GetState(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, stateResponse(state))
}

// CreateState handles POST /states.
func (h *OrgHandler) CreateState(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	state, err := h.org.CreateState(c.UserContext(), actor, orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, stateResponse(state))
}

// UpdateState handles PATCH /states/:code.
func (h *OrgHandler) UpdateState(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	state, err := h.org.UpdateState(c.UserContext(), actor, c.Params("code"), orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, stateResponse(state))
}

// ListLGAs handles GET /lgas?state_code=.
func (h *OrgHandler) ListLGAs(c *fiber.Ctx) error {
	lgas, err := h.org.ListLGAs(c.UserContext(), optionalQuery(c, "state_code"))
	if err != nil {
		return err
	}
	resp := make([]dto.LGAResponse, 0, len(lgas))
	for i := range lgas {
		resp = append(resp, lgaResponse(&lgas[i]))
	}
	return data(c, http.StatusOK, resp)
}

// CreateLGA handles POST /lgas.
func (h *OrgHandler) CreateLGA(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	lga, err := h.org.CreateLGA(c.UserContext(), actor, orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, lgaResponse(lga))
}

// ListDepartments handles GET /departments?active=.
func (h *OrgHandler) ListDepartments(c *fiber.Ctx) error {
	activeOnly := false
	if active := parseBoolQuery(c, "active"); active != nil {
		activeOnly = *active
	}
	depts, err := h.org.ListDepartments(c.UserContext(), activeOnly)
	if err != nil {
		return err
	}
	resp := make([]dto.DepartmentResponse, 0, len(depts))
	for i := range depts {
		resp = append(resp, departmentResponse(&depts[i]))
	}
	return data(c, http.StatusOK, resp)
}

// GetDepartment handles GET /departments/:code.
func (h *OrgHandler) GetDepartment(c *fiber.Ctx) error {
	dept, err := h.org.GetDepartment(c.UserContext(), c.Params("code"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, departmentResponse(dept))
}

// CreateDepartment handles POST /departments.
func (h *OrgHandler) CreateDepartment(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.org.CreateDepartment(c.UserContext(), actor, orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, departmentResponse(dept))
}

// UpdateDepartment handles PATCH /departments/:code.
func (h *OrgHandler) UpdateDepartment(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.OrgUnitRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	dept, err := h.org.UpdateDepartment(c.UserContext(), actor, c.Params("code"), orgInput(req))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, departmentResponse(dept))
}

// ListGradeLevels handles GET /grade-levels.
func (h *OrgHandler) ListGradeLevels(c *fiber.Ctx) error {
	levels, err := h.org.ListGradeLevels(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.GradeLevel, 0, len(levels))
	for i := range levels {
		resp = append(resp, gradeLevelResponse(&levels[i]))
	}
	return data(c, http.StatusOK, resp)
}

// UpsertGradeLevels handles PUT /grade-levels with a JSON array body.
func (h *OrgHandler) UpsertGradeLevels(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req []dto.GradeLevel
	if err := parseBody(c, &req); err != nil {
		return err
	}
	levels := make([]domain.GradeLevel, 0, len(req))
	for _, g := range req {
		levels = append(levels, domain.GradeLevel{
			Level:            g.Level,
			PerDiem:          g.PerDiem,
			LocalRunning:     g.LocalRunning,
			Estacode:         g.Estacode,
			AssumptionOfDuty: g.AssumptionOfDuty,
		})
	}
	saved, err := h.org.UpsertGradeLevels(c.UserContext(), actor, levels)
	if err != nil {
		return err
	}
	resp := make([]dto.GradeLevel, 0, len(saved))
	for i := range saved {
		resp = append(resp, gradeLevelResponse(&saved[i]))
	}
	return data(c, http.StatusOK, resp)
}
