package domain

import (
	"errors"
	"time"
)

// Workflow is a named, linear approval chain for one record type.
type Workflow struct {
	ID          string
	Name        string
	RecordType  string
	Description string
	Active      bool
	Steps       []WorkflowStep
	CreatedAt   time.Time
}

// WorkflowStep is one approval stage. StepOrder starts at 1.
type WorkflowStep struct {
	ID           string
	WorkflowID   string
	Name         string
	StepOrder    int
	RequiredRole Role
}

// StepAt returns the step with the given order.
func (w *Workflow) StepAt(order int) (WorkflowStep, bool) {
	for _, s := range w.Steps {
		if s.StepOrder == order {
			return s, true
		}
	}
	return WorkflowStep{}, false
}

// WorkflowStatus enumerates instance states.
type WorkflowStatus string

const (
	WorkflowStatusInProgress WorkflowStatus = "IN_PROGRESS"
	WorkflowStatusApproved   WorkflowStatus = "APPROVED"
	WorkflowStatusRejected   WorkflowStatus = "REJECTED"
	WorkflowStatusCancelled  WorkflowStatus = "CANCELLED"
)

// Terminal reports whether no further decisions are accepted.
func (s WorkflowStatus) Terminal() bool {
	return s != WorkflowStatusInProgress
}

// WorkflowInstance tracks one record moving through a workflow.
type WorkflowInstance struct {
	ID          string
	WorkflowID  string
	RecordType  string
	RecordID    string
	InitiatorID string
	CurrentStep int
	Status      WorkflowStatus
	CreatedAt   time.Time
	UpdatedAt   time.Time
	CompletedAt *time.Time
}

// Decision is an approver's verdict on a step.
type Decision string

const (
	DecisionApproved Decision = "APPROVED"
	DecisionRejected Decision = "REJECTED"
)

// Valid reports whether d is a known decision.
func (d Decision) Valid() bool {
	return d == DecisionApproved || d == DecisionRejected
}

// WorkflowApproval is the audit row written for every decision.
type WorkflowApproval struct {
	ID         string
	InstanceID string
	StepOrder  int
	StepName   string
	ApproverID string
	Decision   Decision
	Comment    string
	DecidedAt  time.Time
}

var (
	ErrWorkflowClosed     = errors.New("workflow instance is no longer in progress")
	ErrWorkflowStep       = errors.New("workflow instance points at an unknown step")
	ErrApproverRole       = errors.New("approver does not hold the role required by the current step")
	ErrSelfApproval       = errors.New("initiator cannot decide on their own request")
	ErrInvalidDecision    = errors.New("decision must be APPROVED or REJECTED")
	ErrNotInitiator       = errors.New("only the initiator can cancel")
	ErrWorkflowNoSteps    = errors.New("workflow needs at least one step")
	ErrWorkflowDuplicate  = errors.New("workflow step names must be unique")
	ErrWorkflowStepRole   = errors.New("workflow step has an unknown role")
	ErrWorkflowStepNaming = errors.New("workflow step name is required")
)

// Transition is the outcome of applying a decision to an instance.
type Transition struct {
	Step      WorkflowStep
	Approval  WorkflowApproval
	Completed bool
	Rejected  bool
}

// Decide applies an approver's decision to the instance. The instance is
// mutated in place only when the decision is accepted.
func (i *WorkflowInstance) Decide(wf *Workflow, approver *Employee, decision Decision, comment string, now time.Time) (Transition, error) {
	if !decision.Valid() {
		return Transition{}, ErrInvalidDecision
	}
	if i.Status.Terminal() {
		return Transition{}, ErrWorkflowClosed
	}
	step, ok := wf.StepAt(i.CurrentStep)
	if !ok {
		return Transition{}, ErrWorkflowStep
	}
	if approver.ID == i.InitiatorID {
		return Transition{}, ErrSelfApproval
	}
	if approver.Role != step.RequiredRole && approver.Role != RoleDirectorGeneral {
		return Transition{}, ErrApproverRole
	}

	t := Transition{
		Step: step,
		Approval: WorkflowApproval{
			InstanceID: i.ID,
			StepOrder:  step.StepOrder,
			StepName:   step.Name,
			ApproverID: approver.ID,
			Decision:   decision,
			Comment:    comment,
			DecidedAt:  now,
		},
	}

	switch decision {
	case DecisionRejected:
		i.Status = WorkflowStatusRejected
		i.CompletedAt = &now
		t.Rejected = true
	case DecisionApproved:
		if _, hasNext := wf.StepAt(i.CurrentStep + 1); hasNext {
			i.CurrentStep++
		} else {
			i.Status = WorkflowStatusApproved
			i.CompletedAt = &now
			t.Completed = true
		}
	}
	i.UpdatedAt = now
	return t, nil
}

// Cancel withdraws an in-progress instance on behalf of its initiator.
func (i *WorkflowInstance) Cancel(actorID string, now time.Time) error {
	if i.Status.Terminal() {
		return ErrWorkflowClosed
	}
	if actorID != i.InitiatorID {
		return ErrNotInitiator
	}
	i.Status = WorkflowStatusCancelled
	i.CompletedAt = &now
	i.UpdatedAt = now
	return nil
}

// ValidateSteps checks names and roles and renumbers steps 1..n in the
// given order.
func ValidateSteps(steps []WorkflowStep) ([]WorkflowStep, error) {
	if len(steps) == 0 {
		return nil, ErrWorkflowNoSteps
	}
	seen := make(map[string]struct{}, len(steps))
	out := make([]WorkflowStep, len(steps))
	for idx, s := range steps {
		if s.Name == "" {
			return nil, ErrWorkflowStepNaming
		}
		if _, dup := seen[s.Name]; dup {
			return nil, ErrWorkflowDuplicate
		}
		seen[s.Name] = struct{}{}
		if !s.RequiredRole.Valid() {
			return nil, ErrWorkflowStepRole
		}
		s.StepOrder = idx + 1
		out[idx] = s
	}
	return out, nil
}
