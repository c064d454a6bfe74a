package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// LeaveService handles leave applications and their approval.
type LeaveService struct {
	leaves     repository.LeaveRepository
	employees  repository.EmployeeRepository
	workflows  *WorkflowService
	notifier   Notifier
	dispatcher events.Dispatcher
	tx         persistence.Transactor
	logger     *zap.Logger
	now        func() time.Time
}

// LeaveDependencies bundles collaborators for the leave service.
type LeaveDependencies struct {
	LeaveRepo       repository.LeaveRepository
	EmployeeRepo    repository.EmployeeRepository
	WorkflowService *WorkflowService
	Notifier        Notifier
	Dispatcher      events.Dispatcher
	Transactor      persistence.Transactor
	Logger          *zap.Logger
	Clock           func() time.Time
}

// LeaveInput is a new leave application.
type LeaveInput struct {
	LeaveType domain.LeaveType
	StartDate time.Time
	EndDate   time.Time
	Reason    string
}

// NewLeaveService constructs the service.
func NewLeaveService(deps LeaveDependencies) *LeaveService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LeaveService{
		leaves:     deps.LeaveRepo,
		employees:  deps.EmployeeRepo,
		workflows:  deps.WorkflowService,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		tx:         deps.Transactor,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// RegisterHandlers finalises leave requests when their workflow ends.
func (s *LeaveService) RegisterHandlers() {
	if s.dispatcher == nil {
		return
	}
	s.dispatcher.Subscribe(events.EventWorkflowCompleted, s.handleWorkflowFinished)
	s.dispatcher.Subscribe(events.EventWorkflowRejected, s.handleWorkflowFinished)
}

// Submit stores a pending request and starts the leave workflow when one is
// active.
func (s *LeaveService) Submit(ctx context.Context, actor *domain.Employee, input LeaveInput) (*domain.LeaveRequest, error) {
	input.LeaveType = domain.LeaveType(strings.ToLower(strings.TrimSpace(string(input.LeaveType))))
	input.Reason = strings.TrimSpace(input.Reason)
	today := truncateDay(s.now())

	errs := fieldErrors{}
	if !input.LeaveType.Valid() {
		errs.add("leave_type", "must be one of annual, sick, maternity, paternity, study, compassionate")
	}
	if input.StartDate.IsZero() {
		errs.add("start_date", "is required")
	}
	if input.EndDate.IsZero() {
		errs.add("end_date", "is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && input.EndDate.Before(input.StartDate) {
		errs.add("end_date", "must not be before start_date")
	}
	if !input.StartDate.IsZero() && truncateDay(input.StartDate).Before(today) {
		errs.add("start_date", "must not be in the past")
	}
	if input.Reason == "" {
		errs.add("reason", "is required")
	}
	if err := errs.err("invalid leave request"); err != nil {
		return nil, err
	}

	open, err := s.leaves.ListOpenByEmployee(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for _, existing := range open {
		if existing.Overlaps(input.StartDate, input.EndDate) {
			return nil, apperrors.NewConflict("leave overlaps an existing request", map[string]any{"leave_id": existing.ID})
		}
	}

	leave := &domain.LeaveRequest{
		EmployeeID: actor.ID,
		LeaveType:  input.LeaveType,
		StartDate:  truncateDay(input.StartDate),
		EndDate:    truncateDay(input.EndDate),
		Reason:     input.Reason,
		Status:     domain.LeaveStatusPending,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.leaves.Create(ctx, leave); err != nil {
			return err
		}
		if s.workflows == nil {
			return nil
		}
		active, err := s.workflows.HasActive(ctx, domain.LeaveRecordType)
		if err != nil || !active {
			return err
		}
		_, err = s.workflows.Start(ctx, actor, domain.LeaveRecordType, leave.ID)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("leave submitted", zap.String("leave_id", leave.ID), zap.String("employee_id", actor.ID), zap.Int("days", leave.Days()))
	return leave, nil
}

// Decide approves or rejects a pending request. When the request runs under
// a workflow the decision is applied to the current step.
func (s *LeaveService) Decide(ctx context.Context, approver *domain.Employee, leaveID string, decision domain.Decision, comment string) (*domain.LeaveRequest, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, notFound(err, "leave request")
	}
	if leave.Status != domain.LeaveStatusPending {
		return nil, apperrors.NewConflict("leave request is no longer pending", map[string]any{"status": leave.Status})
	}

	if s.workflows != nil {
		inst, err := s.workflows.FindOpenForRecord(ctx, domain.LeaveRecordType, leave.ID)
		if err != nil {
			return nil, err
		}
		if inst != nil {
			if _, err := s.workflows.Decide(ctx, approver, inst.ID, decision, comment); err != nil {
				return nil, err
			}
			updated, err := s.leaves.GetByID(ctx, leave.ID)
			return updated, notFound(err, "leave request")
		}
	}

	decision = domain.Decision(strings.ToUpper(strings.TrimSpace(string(decision))))
	if !decision.Valid() {
		return nil, apperrors.NewValidationError("invalid decision", map[string]any{"decision": domain.ErrInvalidDecision.Error()})
	}
	if approver.ID == leave.EmployeeID {
		return nil, apperrors.NewForbidden(domain.ErrSelfApproval.Error())
	}
	owner, err := s.employees.GetByID(ctx, leave.EmployeeID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canManage(approver, owner.DepartmentID) {
		return nil, apperrors.NewForbidden("not allowed to decide this leave request")
	}

	if err := s.finalise(ctx, leave, decision, approver.ID, strings.TrimSpace(comment), s.now()); err != nil {
		return nil, err
	}
	s.notifyOutcome(ctx, leave)
	return leave, nil
}

// Cancel withdraws the caller's pending request and any open workflow.
func (s *LeaveService) Cancel(ctx context.Context, actor *domain.Employee, leaveID string) (*domain.LeaveRequest, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, notFound(err, "leave request")
	}
	if leave.EmployeeID != actor.ID {
		return nil, apperrors.NewForbidden("only the applicant can cancel a leave request")
	}
	if leave.Status != domain.LeaveStatusPending {
		return nil, apperrors.NewConflict("only pending requests can be cancelled", map[string]any{"status": leave.Status})
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if s.workflows != nil {
			inst, err := s.workflows.FindOpenForRecord(ctx, domain.LeaveRecordType, leave.ID)
			if err != nil {
				return err
			}
			if inst != nil {
				if _, err := s.workflows.Cancel(ctx, actor, inst.ID); err != nil {
					return err
				}
			}
		}
		now := s.now()
		leave.Status = domain.LeaveStatusCancelled
		leave.UpdatedAt = now
		return s.leaves.UpdateStatus(ctx, leave)
	})
	if err != nil {
		return nil, err
	}
	return leave, nil
}

// Get returns a request visible to the caller.
func (s *LeaveService) Get(ctx context.Context, actor *domain.Employee, leaveID string) (*domain.LeaveRequest, error) {
	leave, err := s.leaves.GetByID(ctx, leaveID)
	if err != nil {
		return nil, notFound(err, "leave request")
	}
	if leave.EmployeeID == actor.ID {
		return leave, nil
	}
	owner, err := s.employees.GetByID(ctx, leave.EmployeeID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canView(actor, owner) {
		return nil, apperrors.NewForbidden("not allowed to view this leave request")
	}
	return leave, nil
}

// ListMine returns the caller's own requests.
func (s *LeaveService) ListMine(ctx context.Context, actor *domain.Employee, status *domain.LeaveStatus, limit, offset int) ([]domain.LeaveRequest, error) {
	id := actor.ID
	return s.leaves.List(ctx, repository.LeaveFilter{
		Scope:      domain.Scope{EmployeeID: &id},
		EmployeeID: &id,
		Status:     status,
		Limit:      limit,
		Offset:     offset,
	})
}

// List returns requests within the manager's scope.
func (s *LeaveService) List(ctx context.Context, actor *domain.Employee, status *domain.LeaveStatus, limit, offset int) ([]domain.LeaveRequest, error) {
	if actor.Role == domain.RoleStaff {
		return nil, apperrors.NewForbidden("staff can only list their own leave")
	}
	return s.leaves.List(ctx, repository.LeaveFilter{
		Scope:  domain.ScopeFor(actor),
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
}

func (s *LeaveService) finalise(ctx context.Context, leave *domain.LeaveRequest, decision domain.Decision, deciderID, comment string, at time.Time) error {
	leave.Status = domain.LeaveStatusRejected
	if decision == domain.DecisionApproved {
		leave.Status = domain.LeaveStatusApproved
	}
	if deciderID != "" {
		leave.DecidedBy = &deciderID
	}
	leave.DecidedAt = &at
	leave.DecisionComment = comment
	leave.UpdatedAt = at
	return s.leaves.UpdateStatus(ctx, leave)
}

func (s *LeaveService) notifyOutcome(ctx context.Context, leave *domain.LeaveRequest) {
	if s.notifier == nil {
		return
	}
	msg := fmt.Sprintf("Your %s leave from %s to %s was %s.", leave.LeaveType,
		leave.StartDate.Format(DateLayout), leave.EndDate.Format(DateLayout), leave.Status)
	if leave.DecisionComment != "" {
		msg += " Comment: " + leave.DecisionComment
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: leave.EmployeeID,
		Type:        domain.NotificationSystem,
		Title:       "Leave request " + string(leave.Status),
		Message:     msg,
		Link:        "/leave/" + leave.ID,
		Email:       true,
	}); err != nil {
		s.logger.Warn("leave notification failed", zap.String("leave_id", leave.ID), zap.Error(err))
	}
}

func (s *LeaveService) handleWorkflowFinished(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.WorkflowPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	if payload.RecordType != domain.LeaveRecordType {
		return nil
	}
	leave, err := s.leaves.GetByID(ctx, payload.RecordID)
	if err != nil {
		return err
	}
	if leave.Status != domain.LeaveStatusPending {
		return nil
	}
	decision := domain.DecisionApproved
	if payload.Status == domain.WorkflowStatusRejected {
		decision = domain.DecisionRejected
	}
	at := event.Timestamp
	if at.IsZero() {
		at = s.now()
	}
	return s.finalise(ctx, leave, decision, event.ActorID, payload.Comment, at)
}
