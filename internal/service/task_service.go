package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// TaskService manages tasks and their checklists.
type TaskService struct {
	tasks      repository.TaskRepository
	employees  repository.EmployeeRepository
	notifier   Notifier
	dispatcher events.Dispatcher
	logger     *zap.Logger
	now        func() time.Time
}

// TaskDependencies bundles collaborators for the task service.
type TaskDependencies struct {
	TaskRepo     repository.TaskRepository
	EmployeeRepo repository.EmployeeRepository
	Notifier     Notifier
	Dispatcher   events.Dispatcher
	Logger       *zap.Logger
	Clock        func() time.Time
}

// TaskInput creates a task.
type TaskInput struct {
	Title       string
	Description string
	AssigneeID  string
	Priority    domain.TaskPriority
	DueDate     time.Time
}

// TaskUpdate carries optional task changes.
type TaskUpdate struct {
	Title       *string
	Description *string
	Priority    *domain.TaskPriority
	DueDate     *time.Time
	Status      *domain.TaskStatus
}

// TaskDetail is a task with its subtasks.
type TaskDetail struct {
	Task     *domain.Task
	Subtasks []domain.Subtask
}

// TaskListFilter selects the caller's tasks. Role is "assignee" (default)
// or "assigner".
type TaskListFilter struct {
	Role   string
	Status *domain.TaskStatus
	Limit  int
	Offset int
}

// NewTaskService constructs the service.
func NewTaskService(deps TaskDependencies) *TaskService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TaskService{
		tasks:      deps.TaskRepo,
		employees:  deps.EmployeeRepo,
		notifier:   deps.Notifier,
		dispatcher: deps.Dispatcher,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// Create assigns a new task and announces it to the assignee.
func (s *TaskService) Create(ctx context.Context, actor *domain.Employee, input TaskInput) (*domain.Task, error) {
	input.Title = strings.TrimSpace(input.Title)
	input.AssigneeID = strings.TrimSpace(input.AssigneeID)
	input.Priority = domain.TaskPriority(strings.ToUpper(strings.TrimSpace(string(input.Priority))))
	if input.Priority == "" {
		input.Priority = domain.TaskPriorityMedium
	}

	errs := fieldErrors{}
	if input.Title == "" {
		errs.add("title", "is required")
	}
	if input.AssigneeID == "" {
		errs.add("assignee_id", "is required")
	}
	if !input.Priority.Valid() {
		errs.add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
	}
	if input.DueDate.IsZero() {
		errs.add("due_date", "is required")
	} else if truncateDay(input.DueDate).Before(truncateDay(s.now())) {
		errs.add("due_date", "must not be in the past")
	}
	if err := errs.err("invalid task"); err != nil {
		return nil, err
	}

	assignee, err := s.employees.GetByID(ctx, input.AssigneeID)
	if err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewValidationError("invalid task", map[string]any{"assignee_id": "unknown employee"})
		}
		return nil, err
	}
	if !assignee.Active {
		return nil, apperrors.NewValidationError("invalid task", map[string]any{"assignee_id": "employee is inactive"})
	}

	task := &domain.Task{
		Title:       input.Title,
		Description: strings.TrimSpace(input.Description),
		AssignerID:  actor.ID,
		AssigneeID:  assignee.ID,
		Priority:    input.Priority,
		Status:      domain.TaskStatusPending,
		DueDate:     input.DueDate,
	}
	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventTaskAssigned,
		ActorID: actor.ID,
		Payload: events.TaskAssignedPayload{
			TaskID:     task.ID,
			Title:      task.Title,
			AssigneeID: task.AssigneeID,
			AssignerID: task.AssignerID,
			Priority:   task.Priority,
			DueDate:    task.DueDate,
		},
	})
	return task, nil
}

// Get returns a task and its subtasks to the assigner or assignee.
func (s *TaskService) Get(ctx context.Context, actor *domain.Employee, id string) (*TaskDetail, error) {
	task, err := s.involved(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	subtasks, err := s.tasks.ListSubtasks(ctx, task.ID)
	if err != nil {
		return nil, err
	}
	return &TaskDetail{Task: task, Subtasks: subtasks}, nil
}

// Update edits a task. Only the assigner edits details or cancels; only the
// assignee completes.
func (s *TaskService) Update(ctx context.Context, actor *domain.Employee, id string, upd TaskUpdate) (*domain.Task, error) {
	task, err := s.involved(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	isAssigner := task.AssignerID == actor.ID

	if upd.Title != nil || upd.Description != nil || upd.Priority != nil || upd.DueDate != nil {
		if !isAssigner {
			return nil, apperrors.NewForbidden("only the assigner can edit task details")
		}
	}

	errs := fieldErrors{}
	if upd.Title != nil {
		if title := strings.TrimSpace(*upd.Title); title == "" {
			errs.add("title", "is required")
		} else {
			task.Title = title
		}
	}
	if upd.Description != nil {
		task.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.Priority != nil {
		p := domain.TaskPriority(strings.ToUpper(string(*upd.Priority)))
		if !p.Valid() {
			errs.add("priority", "must be one of LOW, MEDIUM, HIGH, URGENT")
		}
		task.Priority = p
	}
	if upd.DueDate != nil {
		if truncateDay(*upd.DueDate).Before(truncateDay(s.now())) {
			errs.add("due_date", "must not be in the past")
		}
		task.DueDate = *upd.DueDate
	}
	if err := errs.err("invalid task"); err != nil {
		return nil, err
	}

	if upd.Status != nil {
		next := domain.TaskStatus(strings.ToUpper(string(*upd.Status)))
		if next != task.Status {
			if !task.Status.CanTransitionTo(next) {
				return nil, apperrors.NewValidationError("invalid status transition", map[string]any{
					"from": task.Status,
					"to":   next,
				})
			}
			switch {
			case next == domain.TaskStatusCompleted && task.AssigneeID != actor.ID:
				return nil, apperrors.NewForbidden("only the assignee can complete a task")
			case next == domain.TaskStatusCancelled && !isAssigner:
				return nil, apperrors.NewForbidden("only the assigner can cancel a task")
			}
			if next == domain.TaskStatusCompleted {
				now := s.now()
				task.CompletedAt = &now
			} else {
				task.CompletedAt = nil
			}
			task.Status = next
		}
	}

	if err := s.tasks.Update(ctx, task); err != nil {
		return nil, notFound(err, "task")
	}
	return task, nil
}

// List returns tasks assigned to or by the caller.
func (s *TaskService) List(ctx context.Context, actor *domain.Employee, filter TaskListFilter) ([]domain.Task, error) {
	id := actor.ID
	repoFilter := repository.TaskFilter{Status: filter.Status, Limit: filter.Limit, Offset: filter.Offset}
	switch strings.ToLower(filter.Role) {
	case "", "assignee":
		repoFilter.AssigneeID = &id
	case "assigner":
		repoFilter.AssignerID = &id
	default:
		return nil, apperrors.NewValidationError("invalid filter", map[string]any{"role": "must be assignee or assigner"})
	}
	return s.tasks.List(ctx, repoFilter)
}

// AddSubtask appends a checklist item.
func (s *TaskService) AddSubtask(ctx context.Context, actor *domain.Employee, taskID, title string) (*domain.Subtask, error) {
	task, err := s.involved(ctx, actor, taskID)
	if err != nil {
		return nil, err
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, apperrors.NewValidationError("invalid subtask", map[string]any{"title": "is required"})
	}
	sub := &domain.Subtask{TaskID: task.ID, Title: title}
	if err := s.tasks.CreateSubtask(ctx, sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// ToggleSubtask flips a checklist item's completed flag.
func (s *TaskService) ToggleSubtask(ctx context.Context, actor *domain.Employee, taskID, subtaskID string) (*domain.Subtask, error) {
	if _, err := s.involved(ctx, actor, taskID); err != nil {
		return nil, err
	}
	sub, err := s.tasks.GetSubtask(ctx, taskID, subtaskID)
	if err != nil {
		return nil, notFound(err, "subtask")
	}
	sub.Completed = !sub.Completed
	if err := s.tasks.SetSubtaskCompleted(ctx, sub.ID, sub.Completed); err != nil {
		return nil, notFound(err, "subtask")
	}
	return sub, nil
}

// NotifyOverdue sends a reminder for every open task past its due date and
// returns how many were sent.
func (s *TaskService) NotifyOverdue(ctx context.Context, now time.Time) (int, error) {
	overdue, err := s.tasks.ListOverdue(ctx, now)
	if err != nil {
		return 0, err
	}
	sent := 0
	for _, task := range overdue {
		if s.notifier == nil {
			break
		}
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: task.AssigneeID,
			Type:        domain.NotificationReminder,
			Title:       "Task overdue: " + task.Title,
			Message:     fmt.Sprintf("This task was due on %s.", task.DueDate.Format(DateLayout)),
			Link:        "/tasks/" + task.ID,
		}); err != nil {
			return sent, err
		}
		sent++
	}
	s.logger.Info("overdue task reminders sent", zap.Int("count", sent))
	return sent, nil
}

func (s *TaskService) involved(ctx context.Context, actor *domain.Employee, id string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "task")
	}
	if !task.Involves(actor.ID) {
		return nil, apperrors.NewForbidden("only the assigner and assignee can access this task")
	}
	return task, nil
}
