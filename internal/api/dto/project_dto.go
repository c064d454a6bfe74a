package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// ProjectCreateRequest payload.
type ProjectCreateRequest struct {
	Name         string  `json:"name"`
	Description  string  `json:"description"`
	DepartmentID *string `json:"department_id"`
	StateCode    *string `json:"state_code"`
	ManagerID    string  `json:"manager_id"`
	StartDate    Date    `json:"start_date"`
	EndDate      Date    `json:"end_date"`
	Budget       int64   `json:"budget"`
}

// ProjectUpdateRequest payload; omitted fields are unchanged.
type ProjectUpdateRequest struct {
	Name         *string `json:"name"`
	Description  *string `json:"description"`
	DepartmentID *string `json:"department_id"`
	StateCode    *string `json:"state_code"`
	ManagerID    *string `json:"manager_id"`
	StartDate    *Date   `json:"start_date"`
	EndDate      *Date   `json:"end_date"`
	Budget       *int64  `json:"budget"`
}

// ProjectStatusRequest payload.
type ProjectStatusRequest struct {
	Status domain.ProjectStatus `json:"status"`
	Note   string               `json:"note"`
}

// ProjectResponse payload.
type ProjectResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Description  string               `json:"description"`
	DepartmentID *string              `json:"department_id"`
	StateCode    *string              `json:"state_code"`
	ManagerID    string               `json:"manager_id"`
	StartDate    Date                 `json:"start_date"`
	EndDate      Date                 `json:"end_date"`
	Status       domain.ProjectStatus `json:"status"`
	Budget       int64                `json:"budget"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// StatusUpdateResponse is one entry of a project's status history.
type StatusUpdateResponse struct {
	OldStatus domain.ProjectStatus `json:"old_status"`
	NewStatus domain.ProjectStatus `json:"new_status"`
	Note      string               `json:"note,omitempty"`
	UpdatedBy string               `json:"updated_by"`
	CreatedAt time.Time            `json:"created_at"`
}

// MilestoneRequest payload.
type MilestoneRequest struct {
	Name    string `json:"name"`
	DueDate Date   `json:"due_date"`
}

// MilestoneCompleteRequest payload. A missing date means today.
type MilestoneCompleteRequest struct {
	CompletedDate Date `json:"completed_date"`
}

// MilestoneResponse payload.
type MilestoneResponse struct {
	ID            string `json:"id"`
	ProjectID     string `json:"project_id"`
	Name          string `json:"name"`
	DueDate       Date   `json:"due_date"`
	CompletedDate *Date  `json:"completed_date"`
}

// ProjectDetailResponse is a project with milestones and history.
type ProjectDetailResponse struct {
	ProjectResponse
	Milestones []MilestoneResponse    `json:"milestones"`
	History    []StatusUpdateResponse `json:"history"`
}
