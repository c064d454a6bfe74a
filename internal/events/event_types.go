package events

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventEmployeeCreated   EventType = "employee_created"
	EventWorkflowAdvanced  EventType = "workflow_advanced"
	EventWorkflowCompleted EventType = "workflow_completed"
	EventWorkflowRejected  EventType = "workflow_rejected"
	EventMailSent          EventType = "mail_sent"
	EventTaskAssigned      EventType = "task_assigned"
)

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	ActorID   string      `json:"actor_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// EmployeeCreatedPayload payload.
type EmployeeCreatedPayload struct {
	EmployeeID     string `json:"employee_id"`
	EmployeeNumber string `json:"employee_number"`
	FullName       string `json:"full_name"`
}

// WorkflowPayload is shared by the workflow lifecycle events.
type WorkflowPayload struct {
	InstanceID  string                `json:"instance_id"`
	WorkflowID  string                `json:"workflow_id"`
	RecordType  string                `json:"record_type"`
	RecordID    string                `json:"record_id"`
	InitiatorID string                `json:"initiator_id"`
	StepName    string                `json:"step_name"`
	NextStep    string                `json:"next_step,omitempty"`
	Status      domain.WorkflowStatus `json:"status"`
	Comment     string                `json:"comment,omitempty"`
}

// MailSentPayload payload.
type MailSentPayload struct {
	MailID       string   `json:"mail_id"`
	SenderID     string   `json:"sender_id"`
	SenderName   string   `json:"sender_name"`
	Subject      string   `json:"subject"`
	RecipientIDs []string `json:"recipient_ids"`
}

// TaskAssignedPayload payload.
type TaskAssignedPayload struct {
	TaskID     string              `json:"task_id"`
	Title      string              `json:"title"`
	AssigneeID string              `json:"assignee_id"`
	AssignerID string              `json:"assigner_id"`
	Priority   domain.TaskPriority `json:"priority"`
	DueDate    time.Time           `json:"due_date"`
}
