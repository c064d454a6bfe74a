package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// TaskCreateRequest payload.
type TaskCreateRequest struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AssigneeID  string              `json:"assignee_id"`
	Priority    domain.TaskPriority `json:"priority"`
	DueDate     Date                `json:"due_date"`
}

// TaskUpdateRequest payload; omitted fields are unchanged.
type TaskUpdateRequest struct {
	Title       *string              `json:"title"`
	Description *string              `json:"description"`
	Priority    *domain.TaskPriority `json:"priority"`
	DueDate     *Date                `json:"due_date"`
	Status      *domain.TaskStatus   `json:"status"`
}

// TaskResponse payload.
type TaskResponse struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	AssignerID  string              `json:"assigner_id"`
	AssigneeID  string              `json:"assignee_id"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	DueDate     Date                `json:"due_date"`
	CompletedAt *time.Time          `json:"completed_at"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// SubtaskRequest payload.
type SubtaskRequest struct {
	Title string `json:"title"`
}

// SubtaskResponse payload.
type SubtaskResponse struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// TaskDetailResponse is a task with its subtasks.
type TaskDetailResponse struct {
	TaskResponse
	Subtasks []SubtaskResponse `json:"subtasks"`
}
