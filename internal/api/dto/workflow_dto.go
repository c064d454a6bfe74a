package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// WorkflowStepRequest is one step of a workflow definition.
type WorkflowStepRequest struct {
	Name         string      `json:"name"`
	RequiredRole domain.Role `json:"required_role"`
}

// WorkflowRequest defines a workflow.
type WorkflowRequest struct {
	Name        string                `json:"name"`
	RecordType  string                `json:"record_type"`
	Description string                `json:"description"`
	Steps       []WorkflowStepRequest `json:"steps"`
}

// WorkflowStepResponse payload.
type WorkflowStepResponse struct {
	Name         string      `json:"name"`
	StepOrder    int         `json:"step_order"`
	RequiredRole domain.Role `json:"required_role"`
}

// WorkflowResponse payload.
type WorkflowResponse struct {
	ID          string                 `json:"id"`
	Name        string                 `json:"name"`
	RecordType  string                 `json:"record_type"`
	Description string                 `json:"description"`
	Active      bool                   `json:"active"`
	Steps       []WorkflowStepResponse `json:"steps"`
	CreatedAt   time.Time              `json:"created_at"`
}

// StartInstanceRequest starts a workflow for a record.
type StartInstanceRequest struct {
	RecordType string `json:"record_type"`
	RecordID   string `json:"record_id"`
}

// DecisionRequest approves or rejects a pending step.
type DecisionRequest struct {
	Decision string `json:"decision"`
	Comment  string `json:"comment"`
}

// InstanceResponse payload.
type InstanceResponse struct {
	ID          string                `json:"id"`
	WorkflowID  string                `json:"workflow_id"`
	RecordType  string                `json:"record_type"`
	RecordID    string                `json:"record_id"`
	InitiatorID string                `json:"initiator_id"`
	CurrentStep int                   `json:"current_step"`
	Status      domain.WorkflowStatus `json:"status"`
	CreatedAt   time.Time             `json:"created_at"`
	UpdatedAt   time.Time             `json:"updated_at"`
	CompletedAt *time.Time            `json:"completed_at"`
}

// ApprovalResponse payload.
type ApprovalResponse struct {
	StepOrder  int             `json:"step_order"`
	StepName   string          `json:"step_name"`
	ApproverID string          `json:"approver_id"`
	Decision   domain.Decision `json:"decision"`
	Comment    string          `json:"comment,omitempty"`
	DecidedAt  time.Time       `json:"decided_at"`
}

// InstanceDetailResponse is an instance with its definition and trail.
type InstanceDetailResponse struct {
	InstanceResponse
	CurrentStepName string             `json:"current_step_name,omitempty"`
	Workflow        WorkflowResponse   `json:"workflow"`
	Approvals       []ApprovalResponse `json:"approvals"`
}
