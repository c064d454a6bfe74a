package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// LeaveRequest payload.
type LeaveRequest struct {
	LeaveType domain.LeaveType `json:"leave_type"`
	StartDate Date             `json:"start_date"`
	EndDate   Date             `json:"end_date"`
	Reason    string           `json:"reason"`
}

// LeaveResponse payload.
type LeaveResponse struct {
	ID              string             `json:"id"`
	EmployeeID      string             `json:"employee_id"`
	LeaveType       domain.LeaveType   `json:"leave_type"`
	StartDate       Date               `json:"start_date"`
	EndDate         Date               `json:"end_date"`
	Days            int                `json:"days"`
	Reason          string             `json:"reason"`
	Status          domain.LeaveStatus `json:"status"`
	DecidedBy       *string            `json:"decided_by"`
	DecidedAt       *time.Time         `json:"decided_at"`
	DecisionComment string             `json:"decision_comment,omitempty"`
	CreatedAt       time.Time          `json:"created_at"`
}
