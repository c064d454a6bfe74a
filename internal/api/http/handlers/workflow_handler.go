package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

// WorkflowHandler exposes workflow definitions and instances.
type WorkflowHandler struct {
	workflows *service.WorkflowService
}

// NewWorkflowHandler constructs handler.
func NewWorkflowHandler(workflows *service.WorkflowService) *WorkflowHandler {
	return &WorkflowHandler{workflows: workflows}
}

// List handles GET /workflows.
func (h *WorkflowHandler) List(c *fiber.Ctx) error {
	list, err := h.workflows.ListWorkflows(c.UserContext())
	if err != nil {
		return err
	}
	resp := make([]dto.WorkflowResponse, 0, len(list))
	for i := range list {
		resp = append(resp, workflowResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Define handles POST /workflows.
func (h *WorkflowHandler) Define(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.WorkflowRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	steps := make([]domain.WorkflowStep, 0, len(req.Steps))
	for _, s := range req.Steps {
		steps = append(steps, domain.WorkflowStep{Name: s.Name, RequiredRole: s.RequiredRole})
	}
	wf, err := h.workflows.DefineWorkflow(c.UserContext(), actor, service.WorkflowInput{
		Name:        req.Name,
		RecordType:  req.RecordType,
		Description: req.Description,
		Steps:       steps,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, workflowResponse(wf))
}

// Start handles POST /workflow-instances.
func (h *WorkflowHandler) Start(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.StartInstanceRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	inst, err := h.workflows.Start(c.UserContext(), actor, req.RecordType, req.RecordID)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, instanceResponse(inst))
}

// Pending handles GET /workflow-instances/pending.
func (h *WorkflowHandler) Pending(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.workflows.ListPendingFor(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.InstanceResponse, 0, len(list))
	for i := range list {
		resp = append(resp, instanceResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Get handles GET /workflow-instances/:id.
func (h *WorkflowHandler) Get(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	detail, err := h.workflows.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, instanceDetailResponse(detail))
}

// Decide handles POST /workflow-instances/:id/decision.
func (h *WorkflowHandler) Decide(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.DecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	inst, err := h.workflows.Decide(c.UserContext(), actor, c.Params("id"), domain.Decision(req.Decision), req.Comment)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, instanceResponse(inst))
}

// Cancel handles POST /workflow-instances/:id/cancel.
func (h *WorkflowHandler) Cancel(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	inst, err := h.workflows.Cancel(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, instanceResponse(inst))
}
