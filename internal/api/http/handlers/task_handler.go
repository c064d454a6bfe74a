package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// TaskHandler exposes task assignment endpoints.
type TaskHandler struct {
	tasks *service.TaskService
}

// NewTaskHandler constructs handler.
func NewTaskHandler(tasks *service.TaskService) *TaskHandler {
	return &TaskHandler{tasks: tasks}
}

// List handles GET /tasks?role=assignee|assigner&status=.
func (h *TaskHandler) List(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	filter := service.TaskListFilter{Role: c.Query("role"), Limit: limit, Offset: offset}
	if val := c.Query("status"); val != "" {
		s := domain.TaskStatus(val)
		filter.Status = &s
	}
	list, err := h.tasks.List(c.UserContext(), actor, filter)
	if err != nil {
		return err
	}
	resp := make([]dto.TaskResponse, 0, len(list))
	for i := range list {
		resp = append(resp, taskResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Create handles POST /tasks.
func (h *TaskHandler) Create(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.TaskCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Create(c.UserContext(), actor, service.TaskInput{
		Title:       req.Title,
		Description: req.Description,
		AssigneeID:  req.AssigneeID,
		Priority:    req.Priority,
		DueDate:     req.DueDate.Time,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, taskResponse(task))
}

// Get handles GET /tasks/:id.
func (h *TaskHandler) Get(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	detail, err := h.tasks.Get(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := dto.TaskDetailResponse{
		TaskResponse: taskResponse(detail.Task),
		Subtasks:     make([]dto.SubtaskResponse, 0, len(detail.Subtasks)),
	}
	for i := range detail.Subtasks {
		resp.Subtasks = append(resp.Subtasks, subtaskResponse(&detail.Subtasks[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Update handles PATCH /tasks/:id.
func (h *TaskHandler) Update(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.TaskUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	task, err := h.tasks.Update(c.UserContext(), actor, c.Params("id"), service.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
		DueDate:     req.DueDate.TimePtr(),
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, taskResponse(task))
}

// AddSubtask handles POST /tasks/:id/subtasks.
func (h *TaskHandler) AddSubtask(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.SubtaskRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Title == "" {
		return apperrors.NewValidationError("title required", map[string]any{"title": "is required"})
	}
	sub, err := h.tasks.AddSubtask(c.UserContext(), actor, c.Params("id"), req.Title)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, subtaskResponse(sub))
}

// ToggleSubtask handles POST /tasks/:id/subtasks/:subtaskID/toggle.
func (h *TaskHandler) ToggleSubtask(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	sub, err := h.tasks.ToggleSubtask(c.UserContext(), actor, c.Params("id"), c.Params("subtaskID"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, subtaskResponse(sub))
}
