package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// TrainingService schedules trainings and enrols participants.
type TrainingService struct {
	trainings repository.TrainingRepository
	employees repository.EmployeeRepository
	notifier  Notifier
	tx        persistence.Transactor
	logger    *zap.Logger
	now       func() time.Time
}

// TrainingDependencies bundles collaborators for the training service.
type TrainingDependencies struct {
	TrainingRepo repository.TrainingRepository
	EmployeeRepo repository.EmployeeRepository
	Notifier     Notifier
	Transactor   persistence.Transactor
	Logger       *zap.Logger
	Clock        func() time.Time
}

// TrainingInput schedules a training.
type TrainingInput struct {
	Title          string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	Trainer        string
	ParticipantIDs []string
}

// NewTrainingService constructs the service.
func NewTrainingService(deps TrainingDependencies) *TrainingService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TrainingService{
		trainings: deps.TrainingRepo,
		employees: deps.EmployeeRepo,
		notifier:  deps.Notifier,
		tx:        deps.Transactor,
		logger:    logger,
		now:       clockOrDefault(deps.Clock),
	}
}

// Create schedules a training. DG and DIR only; a director may enrol staff
// of their own department.
func (s *TrainingService) Create(ctx context.Context, actor *domain.Employee, input TrainingInput) (*domain.Training, error) {
	if !isManager(actor.Role) {
		return nil, apperrors.NewForbidden("only the DG and directors can schedule trainings")
	}
	training := &domain.Training{
		Title:       strings.TrimSpace(input.Title),
		Description: strings.TrimSpace(input.Description),
		StartDate:   truncateDay(input.StartDate),
		EndDate:     truncateDay(input.EndDate),
		Trainer:     strings.TrimSpace(input.Trainer),
		CreatedBy:   actor.ID,
	}
	errs := fieldErrors{}
	if training.Title == "" {
		errs.add("title", "is required")
	}
	if training.Trainer == "" {
		errs.add("trainer", "is required")
	}
	if input.StartDate.IsZero() {
		errs.add("start_date", "is required")
	}
	if input.EndDate.IsZero() {
		errs.add("end_date", "is required")
	}
	if !input.StartDate.IsZero() && !input.EndDate.IsZero() && training.EndDate.Before(training.StartDate) {
		errs.add("end_date", "must not be before start_date")
	}
	if err := errs.err("invalid training"); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	for _, id := range input.ParticipantIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		training.ParticipantIDs = append(training.ParticipantIDs, id)
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range training.ParticipantIDs {
			if _, err := s.enrollable(ctx, actor, id); err != nil {
				return err
			}
		}
		return s.trainings.Create(ctx, training)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("training scheduled", zap.String("training_id", training.ID), zap.Int("participants", len(training.ParticipantIDs)))
	for _, id := range training.ParticipantIDs {
		s.notifyEnrolled(ctx, training, id)
	}
	return training, nil
}

// List returns scheduled trainings, latest start first.
func (s *TrainingService) List(ctx context.Context, limit, offset int) ([]domain.Training, error) {
	return s.trainings.List(ctx, limit, offset)
}

// Get returns one training with its participants.
func (s *TrainingService) Get(ctx context.Context, id string) (*domain.Training, error) {
	training, err := s.trainings.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "training")
	}
	return training, nil
}

// AssignParticipant enrols an employee on a training.
func (s *TrainingService) AssignParticipant(ctx context.Context, actor *domain.Employee, trainingID, employeeID string) (*domain.Training, error) {
	if !isManager(actor.Role) {
		return nil, apperrors.NewForbidden("only the DG and directors can assign trainings")
	}
	training, err := s.trainings.GetByID(ctx, trainingID)
	if err != nil {
		return nil, notFound(err, "training")
	}
	employee, err := s.enrollable(ctx, actor, strings.TrimSpace(employeeID))
	if err != nil {
		return nil, err
	}
	if training.HasParticipant(employee.ID) {
		return nil, apperrors.NewConflict("employee is already enrolled", map[string]any{"employee_id": employee.ID})
	}
	if err := s.trainings.AddParticipant(ctx, training.ID, employee.ID); err != nil {
		if apperrors.IsUniqueViolation(err) {
			return nil, apperrors.NewConflict("employee is already enrolled", map[string]any{"employee_id": employee.ID})
		}
		return nil, err
	}
	training.ParticipantIDs = append(training.ParticipantIDs, employee.ID)
	s.notifyEnrolled(ctx, training, employee.ID)
	return training, nil
}

// ListForEmployee returns the trainings an employee is enrolled on.
func (s *TrainingService) ListForEmployee(ctx context.Context, actor *domain.Employee, employeeID string) ([]domain.Training, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canView(actor, employee) {
		return nil, apperrors.NewForbidden("not allowed to view this employee")
	}
	return s.trainings.ListForEmployee(ctx, employee.ID)
}

func (s *TrainingService) enrollable(ctx context.Context, actor *domain.Employee, employeeID string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("invalid training", map[string]any{"participant_ids": "unknown employee " + employeeID})
		}
		return nil, err
	}
	if !employee.Active {
		return nil, apperrors.NewValidationError("invalid training", map[string]any{"participant_ids": "inactive employee " + employeeID})
	}
	if !canManage(actor, employee.DepartmentID) {
		return nil, apperrors.NewForbidden("not allowed to enrol employees outside your department")
	}
	return employee, nil
}

func (s *TrainingService) notifyEnrolled(ctx context.Context, t *domain.Training, employeeID string) {
	if s.notifier == nil {
		return
	}
	if _, err := s.notifier.Notify(ctx, NotifyInput{
		RecipientID: employeeID,
		Type:        domain.NotificationReminder,
		Title:       "Training: " + t.Title,
		Message: fmt.Sprintf("You are enrolled on %s with %s from %s to %s.", t.Title, t.Trainer,
			t.StartDate.Format(DateLayout), t.EndDate.Format(DateLayout)),
		Link: "/trainings/" + t.ID,
	}); err != nil {
		s.logger.Warn("training notification failed", zap.String("training_id", t.ID), zap.Error(err))
	}
}
