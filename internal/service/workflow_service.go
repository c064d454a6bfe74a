package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// WorkflowService defines approval chains and moves records through them.
type WorkflowService struct {
	repo       repository.WorkflowRepository
	tx         persistence.Transactor
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// WorkflowDependencies bundles collaborators for the workflow service.
type WorkflowDependencies struct {
	WorkflowRepo repository.WorkflowRepository
	Transactor   persistence.Transactor
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        func() time.Time
}

// WorkflowInput defines a new workflow.
type WorkflowInput struct {
	Name        string
	RecordType  string
	Description string
	Steps       []domain.WorkflowStep
}

// InstanceDetail is an instance with its definition and approval trail.
type InstanceDetail struct {
	Instance  *domain.WorkflowInstance
	Workflow  *domain.Workflow
	Approvals []domain.WorkflowApproval
}

// CurrentStep returns the step awaiting a decision, if any.
func (d *InstanceDetail) CurrentStep() (domain.WorkflowStep, bool) {
	if d.Instance.Status.Terminal() {
		return domain.WorkflowStep{}, false
	}
	return d.Workflow.StepAt(d.Instance.CurrentStep)
}

// NewWorkflowService constructs the service.
func NewWorkflowService(deps WorkflowDependencies) *WorkflowService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkflowService{
		repo:       deps.WorkflowRepo,
		tx:         deps.Transactor,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// DefineWorkflow stores a workflow and makes it the active one for its
// record type.
func (s *WorkflowService) DefineWorkflow(ctx context.Context, actor *domain.Employee, input WorkflowInput) (*domain.Workflow, error) {
	if actor.Role != domain.RoleDirectorGeneral {
		return nil, apperrors.NewForbidden("only the DG can define workflows")
	}
	input.Name = strings.TrimSpace(input.Name)
	input.RecordType = strings.ToLower(strings.TrimSpace(input.RecordType))
	errs := fieldErrors{}
	if input.Name == "" {
		errs.add("name", "is required")
	}
	if input.RecordType == "" {
		errs.add("record_type", "is required")
	}
	for i := range input.Steps {
		input.Steps[i].Name = strings.TrimSpace(input.Steps[i].Name)
		input.Steps[i].RequiredRole = domain.Role(strings.ToUpper(string(input.Steps[i].RequiredRole)))
	}
	steps, err := domain.ValidateSteps(input.Steps)
	if err != nil {
		errs.add("steps", err.Error())
	}
	if err := errs.err("invalid workflow"); err != nil {
		return nil, err
	}

	wf := &domain.Workflow{
		Name:        input.Name,
		RecordType:  input.RecordType,
		Description: strings.TrimSpace(input.Description),
		Active:      true,
		Steps:       steps,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.repo.DeactivateByRecordType(ctx, wf.RecordType); err != nil {
			return err
		}
		return s.repo.CreateWorkflow(ctx, wf)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("workflow defined", zap.String("workflow_id", wf.ID), zap.String("record_type", wf.RecordType), zap.Int("steps", len(wf.Steps)))
	return wf, nil
}

// ListWorkflows returns every workflow with its steps.
func (s *WorkflowService) ListWorkflows(ctx context.Context) ([]domain.Workflow, error) {
	return s.repo.ListWorkflows(ctx)
}

// HasActive reports whether recordType has an active workflow.
func (s *WorkflowService) HasActive(ctx context.Context, recordType string) (bool, error) {
	_, err := s.repo.GetActiveByRecordType(ctx, recordType)
	if err == nil {
		return true, nil
	}
	if apperrors.IsNotFound(err) {
		return false, nil
	}
	return false, err
}

// Start opens an instance for a record at step 1.
func (s *WorkflowService) Start(ctx context.Context, initiator *domain.Employee, recordType, recordID string) (*domain.WorkflowInstance, error) {
	recordType = strings.ToLower(strings.TrimSpace(recordType))
	recordID = strings.TrimSpace(recordID)
	if recordType == "" || recordID == "" {
		return nil, apperrors.NewValidationError("invalid input", map[string]any{"record": "record_type and record_id are required"})
	}
	wf, err := s.repo.GetActiveByRecordType(ctx, recordType)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("no active workflow", map[string]any{"record_type": recordType})
		}
		return nil, err
	}
	if _, err := s.repo.GetOpenInstanceByRecord(ctx, recordType, recordID); err == nil {
		return nil, apperrors.NewConflict("record already has a workflow in progress", map[string]any{"record_id": recordID})
	} else if !apperrors.IsNotFound(err) {
		return nil, err
	}

	now := s.now()
	inst := &domain.WorkflowInstance{
		WorkflowID:  wf.ID,
		RecordType:  recordType,
		RecordID:    recordID,
		InitiatorID: initiator.ID,
		CurrentStep: 1,
		Status:      domain.WorkflowStatusInProgress,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.CreateInstance(ctx, inst); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("record already has a workflow in progress", map[string]any{"record_id": recordID})
		}
		return nil, err
	}
	s.logger.Info("workflow started",
		zap.String("instance_id", inst.ID),
		zap.String("record_type", recordType),
		zap.String("record_id", recordID))
	return inst, nil
}

// Decide applies an approver's decision under a row lock and publishes the
// resulting lifecycle event once committed.
func (s *WorkflowService) Decide(ctx context.Context, approver *domain.Employee, instanceID string, decision domain.Decision, comment string) (*domain.WorkflowInstance, error) {
	decision = domain.Decision(strings.ToUpper(strings.TrimSpace(string(decision))))
	comment = strings.TrimSpace(comment)

	var (
		inst       *domain.WorkflowInstance
		wf         *domain.Workflow
		transition domain.Transition
	)
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inst, err = s.repo.GetInstanceForUpdate(ctx, instanceID)
		if err != nil {
			return notFound(err, "workflow instance")
		}
		wf, err = s.repo.GetWorkflow(ctx, inst.WorkflowID)
		if err != nil {
			return err
		}
		transition, err = inst.Decide(wf, approver, decision, comment, s.now())
		if err != nil {
			return workflowError(err)
		}
		if err := s.repo.UpdateInstance(ctx, inst); err != nil {
			return err
		}
		return s.repo.CreateApproval(ctx, &transition.Approval)
	})
	if err != nil {
		return nil, err
	}

	payload := events.WorkflowPayload{
		InstanceID:  inst.ID,
		WorkflowID:  inst.WorkflowID,
		RecordType:  inst.RecordType,
		RecordID:    inst.RecordID,
		InitiatorID: inst.InitiatorID,
		StepName:    transition.Step.Name,
		Status:      inst.Status,
		Comment:     comment,
	}
	eventType := events.EventWorkflowAdvanced
	switch {
	case transition.Rejected:
		eventType = events.EventWorkflowRejected
	case transition.Completed:
		eventType = events.EventWorkflowCompleted
	default:
		if next, ok := wf.StepAt(inst.CurrentStep); ok {
			payload.NextStep = next.Name
		}
	}
	publishEvent(ctx, s.dispatcher, events.Event{Type: eventType, ActorID: approver.ID, Payload: payload})

	s.logger.Info("workflow decision recorded",
		zap.String("instance_id", inst.ID),
		zap.String("approver_id", approver.ID),
		zap.String("decision", string(decision)),
		zap.String("status", string(inst.Status)))
	return inst, nil
}

// Cancel withdraws an in-progress instance on behalf of its initiator.
func (s *WorkflowService) Cancel(ctx context.Context, actor *domain.Employee, instanceID string) (*domain.WorkflowInstance, error) {
	var inst *domain.WorkflowInstance
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		inst, err = s.repo.GetInstanceForUpdate(ctx, instanceID)
		if err != nil {
			return notFound(err, "workflow instance")
		}
		if err := inst.Cancel(actor.ID, s.now()); err != nil {
			return workflowError(err)
		}
		return s.repo.UpdateInstance(ctx, inst)
	})
	if err != nil {
		return nil, err
	}
	return inst, nil
}

// Get returns an instance with its workflow and approvals. Only the
// initiator, a holder of a step role and the DG may read it.
func (s *WorkflowService) Get(ctx context.Context, actor *domain.Employee, instanceID string) (*InstanceDetail, error) {
	inst, err := s.repo.GetInstance(ctx, instanceID)
	if err != nil {
		return nil, notFound(err, "workflow instance")
	}
	wf, err := s.repo.GetWorkflow(ctx, inst.WorkflowID)
	if err != nil {
		return nil, err
	}
	if !canSeeInstance(actor, inst, wf) {
		return nil, apperrors.NewForbidden("not a participant in this workflow")
	}
	approvals, err := s.repo.ListApprovals(ctx, inst.ID)
	if err != nil {
		return nil, err
	}
	return &InstanceDetail{Instance: inst, Workflow: wf, Approvals: approvals}, nil
}

// ListPendingFor returns in-progress instances the approver can act on.
func (s *WorkflowService) ListPendingFor(ctx context.Context, approver *domain.Employee) ([]domain.WorkflowInstance, error) {
	return s.repo.ListPendingForRole(ctx, approver.Role, approver.ID)
}

// FindOpenForRecord returns the in-progress instance for a record, or nil.
func (s *WorkflowService) FindOpenForRecord(ctx context.Context, recordType, recordID string) (*domain.WorkflowInstance, error) {
	inst, err := s.repo.GetOpenInstanceByRecord(ctx, recordType, recordID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return inst, nil
}

func canSeeInstance(actor *domain.Employee, inst *domain.WorkflowInstance, wf *domain.Workflow) bool {
	if actor.Role == domain.RoleDirectorGeneral || actor.ID == inst.InitiatorID {
		return true
	}
	for _, step := range wf.Steps {
		if step.RequiredRole == actor.Role {
			return true
		}
	}
	return false
}

func workflowError(err error) error {
	switch {
	case errors.Is(err, domain.ErrWorkflowClosed):
		return apperrors.NewConflict(err.Error(), nil)
	case errors.Is(err, domain.ErrApproverRole),
		errors.Is(err, domain.ErrSelfApproval),
		errors.Is(err, domain.ErrNotInitiator):
		return apperrors.NewForbidden(err.Error())
	case errors.Is(err, domain.ErrInvalidDecision):
		return apperrors.NewValidationError("invalid decision", map[string]any{"decision": err.Error()})
	}
	return err
}
