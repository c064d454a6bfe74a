package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/repository"
	"github.com/spec-kit/staff-portal/internal/service"
)

// ProjectHandler exposes project tracking.
type ProjectHandler struct {
	projects *service.ProjectService
}

// NewProjectHandler constructs handler.
func NewProjectHandler(projects *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List handles GET /projects?status=&department_id=.
func (h *ProjectHandler) List(c *fiber.Ctx) error {
	_, _, limit, offset := paging(c)
	filter := repository.ProjectFilter{
		DepartmentID: optionalQuery(c, "department_id"),
		StateCode:    optionalQuery(c, "state_code"),
		ManagerID:    optionalQuery(c, "manager_id"),
		Limit:        limit,
		Offset:       offset,
	}
	if val := c.Query("status"); val != "" {
		s := domain.ProjectStatus(val)
		filter.Status = &s
	}
	list, err := h.projects.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	resp := make([]dto.ProjectResponse, 0, len(list))
	for i := range list {
		resp = append(resp, projectResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Create handles POST /projects.
func (h *ProjectHandler) Create(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ProjectCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.projects.Create(c.UserContext(), actor, service.ProjectInput{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		StateCode:    req.StateCode,
		ManagerID:    req.ManagerID,
		StartDate:    req.StartDate.Time,
		EndDate:      req.EndDate.Time,
		Budget:       req.Budget,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, projectResponse(project))
}

// Get handles GET /projects/:id.
func (h *ProjectHandler) Get(c *fiber.Ctx) error {
	detail, err := h.projects.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.ProjectDetailResponse{
		ProjectResponse: projectResponse(detail.Project),
		Milestones:      milestoneResponses(detail.Milestones),
		History:         make([]dto.StatusUpdateResponse, 0, len(detail.History)),
	}
	for _, u := range detail.History {
		resp.History = append(resp.History, dto.StatusUpdateResponse{
			OldStatus: u.OldStatus,
			NewStatus: u.NewStatus,
			Note:      u.Note,
			UpdatedBy: u.UpdatedBy,
			CreatedAt: u.CreatedAt,
		})
	}
	return data(c, http.StatusOK, resp)
}

// Update handles PATCH /projects/:id.
func (h *ProjectHandler) Update(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ProjectUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.projects.Update(c.UserContext(), actor, c.Params("id"), service.ProjectUpdate{
		Name:         req.Name,
		Description:  req.Description,
		DepartmentID: req.DepartmentID,
		StateCode:    req.StateCode,
		ManagerID:    req.ManagerID,
		StartDate:    req.StartDate.TimePtr(),
		EndDate:      req.EndDate.TimePtr(),
		Budget:       req.Budget,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, projectResponse(project))
}

// ChangeStatus handles POST /projects/:id/status.
func (h *ProjectHandler) ChangeStatus(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ProjectStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	project, err := h.projects.ChangeStatus(c.UserContext(), actor, c.Params("id"), req.Status, req.Note)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, projectResponse(project))
}

// ListMilestones handles GET /projects/:id/milestones.
func (h *ProjectHandler) ListMilestones(c *fiber.Ctx) error {
	list, err := h.projects.ListMilestones(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, milestoneResponses(list))
}

// AddMilestone handles POST /projects/:id/milestones.
func (h *ProjectHandler) AddMilestone(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.MilestoneRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	m, err := h.projects.AddMilestone(c.UserContext(), actor, c.Params("id"), req.Name, req.DueDate.Time)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, milestoneResponse(m))
}

// CompleteMilestone handles POST /projects/:id/milestones/:milestoneID/complete.
func (h *ProjectHandler) CompleteMilestone(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.MilestoneCompleteRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	m, err := h.projects.CompleteMilestone(c.UserContext(), actor, c.Params("id"), c.Params("milestoneID"), req.CompletedDate.Time)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, milestoneResponse(m))
}
