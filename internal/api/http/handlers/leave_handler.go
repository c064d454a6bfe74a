package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

// LeaveHandler exposes leave requests.
type LeaveHandler struct {
	leave *service.LeaveService
}

// NewLeaveHandler constructs handler.
func NewLeaveHandler(leave *service.LeaveService) *LeaveHandler {
	return &LeaveHandler{leave: leave}
}

func leaveStatusQuery(c *fiber.Ctx) *domain.LeaveStatus {
	if val := c.Query("status"); val != "" {
		s := domain.LeaveStatus(val)
		return &s
	}
	return nil
}

// ListMine handles GET /leave.
func (h *LeaveHandler) ListMine(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.leave.ListMine(c.UserContext(), actor, leaveStatusQuery(c), limit, offset)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, leaveResponses(list))
}

// ListManaged handles GET /leave/manage.
func (h *LeaveHandler) ListManaged(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.leave.List(c.UserContext(), actor, leaveStatusQuery(c), limit, offset)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, leaveResponses(list))
}

// Submit handles POST /leave.
func (h *LeaveHandler) Submit(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.LeaveRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	leave, err := h.leave.Submit(c.UserContext(), actor, service.LeaveInput{
		LeaveType: req.LeaveType,
		StartDate: req.StartDate.Time,
		EndDate:   req.EndDate.Time,
		Reason:    req.Reason,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, leaveResponse(leave))
}

// Get handles GET /leave/:id.
func (h *LeaveHandler) Get(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	leave, err := h.leave.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, leaveResponse(leave))
}

// Decide handles POST /leave/:id/decision.
func (h *LeaveHandler) Decide(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.DecisionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	leave, err := h.leave.Decide(c.UserContext(), actor, c.Params("id"), domain.Decision(req.Decision), req.Comment)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, leaveResponse(leave))
}

// Cancel handles POST /leave/:id/cancel.
func (h *LeaveHandler) Cancel(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	leave, err := h.leave.Cancel(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, leaveResponse(leave))
}
