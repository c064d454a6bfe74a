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

// ProjectService tracks projects, their status history and milestones.
type ProjectService struct {
	projects  repository.ProjectRepository
	employees repository.EmployeeRepository
	org       repository.OrgRepository
	notifier  Notifier
	tx        persistence.Transactor
	logger    *zap.Logger
	now       func() time.Time
}

// ProjectDependencies bundles collaborators for the project service.
type ProjectDependencies struct {
	ProjectRepo  repository.ProjectRepository
	EmployeeRepo repository.EmployeeRepository
	OrgRepo      repository.OrgRepository
	Notifier     Notifier
	Transactor   persistence.Transactor
	Logger       *zap.Logger
	Clock        func() time.Time
}

// ProjectInput creates a project.
type ProjectInput struct {
	Name         string
	Description  string
	DepartmentID *string
	StateCode    *string
	ManagerID    string
	StartDate    time.Time
	EndDate      time.Time
	Budget       int64
}

// ProjectUpdate carries optional project changes. Status goes through
// ChangeStatus.
type ProjectUpdate struct {
	Name         *string
	Description  *string
	DepartmentID *string
	StateCode    *string
	ManagerID    *string
	StartDate    *time.Time
	EndDate      *time.Time
	Budget       *int64
}

// ProjectDetail is a project with its milestones and status history.
type ProjectDetail struct {
	Project    *domain.Project
	Milestones []domain.Milestone
	History    []domain.ProjectStatusUpdate
}

// NewProjectService constructs the service.
func NewProjectService(deps ProjectDependencies) *ProjectService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProjectService{
		projects:  deps.ProjectRepo,
		employees: deps.EmployeeRepo,
		org:       deps.OrgRepo,
		notifier:  deps.Notifier,
		tx:        deps.Transactor,
		logger:    logger,
		now:       clockOrDefault(deps.Clock),
	}
}

// Create registers a project. Only DG and DIR create projects.
func (s *ProjectService) Create(ctx context.Context, actor *domain.Employee, input ProjectInput) (*domain.Project, error) {
	if !isManager(actor.Role) {
		return nil, apperrors.NewForbidden("only DG and DIR can create projects")
	}
	p := &domain.Project{
		Name:         strings.TrimSpace(input.Name),
		Description:  strings.TrimSpace(input.Description),
		DepartmentID: trimPtr(input.DepartmentID),
		StateCode:    upperPtr(input.StateCode),
		ManagerID:    strings.TrimSpace(input.ManagerID),
		StartDate:    truncateDay(input.StartDate),
		EndDate:      truncateDay(input.EndDate),
		Status:       domain.ProjectStatusNotStarted,
		Budget:       input.Budget,
	}
	if p.ManagerID == "" {
		p.ManagerID = actor.ID
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, conflictFromUnique(err)
	}
	s.logger.Info("project created", zap.String("project_id", p.ID), zap.String("manager_id", p.ManagerID))
	return p, nil
}

// Get returns a project with its milestones and status history.
func (s *ProjectService) Get(ctx context.Context, id string) (*ProjectDetail, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "project")
	}
	milestones, err := s.projects.ListMilestones(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	history, err := s.projects.ListStatusUpdates(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	return &ProjectDetail{Project: p, Milestones: milestones, History: history}, nil
}

// List returns projects matching the filter.
func (s *ProjectService) List(ctx context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	filter.DepartmentID = trimPtr(filter.DepartmentID)
	filter.StateCode = upperPtr(filter.StateCode)
	if filter.Status != nil && !filter.Status.Valid() {
		return nil, apperrors.NewValidationError("invalid filter", map[string]any{"status": "unknown project status"})
	}
	return s.projects.List(ctx, filter)
}

// Update edits project details.
func (s *ProjectService) Update(ctx context.Context, actor *domain.Employee, id string, upd ProjectUpdate) (*domain.Project, error) {
	p, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if upd.Name != nil {
		p.Name = strings.TrimSpace(*upd.Name)
	}
	if upd.Description != nil {
		p.Description = strings.TrimSpace(*upd.Description)
	}
	if upd.DepartmentID != nil {
		p.DepartmentID = trimPtr(upd.DepartmentID)
	}
	if upd.StateCode != nil {
		p.StateCode = upperPtr(upd.StateCode)
	}
	if upd.ManagerID != nil {
		p.ManagerID = strings.TrimSpace(*upd.ManagerID)
	}
	if upd.StartDate != nil {
		p.StartDate = truncateDay(*upd.StartDate)
	}
	if upd.EndDate != nil {
		p.EndDate = truncateDay(*upd.EndDate)
	}
	if upd.Budget != nil {
		p.Budget = *upd.Budget
	}
	if err := s.validate(ctx, p); err != nil {
		return nil, err
	}
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, notFound(err, "project")
	}
	return p, nil
}

// ChangeStatus moves a project to a new status, records the change and
// tells the manager.
func (s *ProjectService) ChangeStatus(ctx context.Context, actor *domain.Employee, id string, status domain.ProjectStatus, note string) (*domain.Project, error) {
	status = domain.ProjectStatus(strings.ToUpper(strings.TrimSpace(string(status))))
	if !status.Valid() {
		return nil, apperrors.NewValidationError("invalid status", map[string]any{"status": "must be one of NOT_STARTED, ONGOING, COMPLETED, DELAYED"})
	}
	p, err := s.editable(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if p.Status == status {
		return p, nil
	}

	update := &domain.ProjectStatusUpdate{
		ProjectID: p.ID,
		OldStatus: p.Status,
		NewStatus: status,
		Note:      strings.TrimSpace(note),
		UpdatedBy: actor.ID,
	}
	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		p.Status = status
		if err := s.projects.Update(ctx, p); err != nil {
			return notFound(err, "project")
		}
		return s.projects.CreateStatusUpdate(ctx, update)
	})
	if err != nil {
		return nil, err
	}

	if s.notifier != nil && p.ManagerID != actor.ID {
		msg := fmt.Sprintf("%s moved from %s to %s.", p.Name, update.OldStatus, update.NewStatus)
		if update.Note != "" {
			msg += " Note: " + update.Note
		}
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: p.ManagerID,
			Type:        domain.NotificationSystem,
			Title:       "Project status changed",
			Message:     msg,
			Link:        "/projects/" + p.ID,
		}); err != nil {
			s.logger.Warn("project notification failed", zap.String("project_id", p.ID), zap.Error(err))
		}
	}
	return p, nil
}

// AddMilestone adds a dated deliverable.
func (s *ProjectService) AddMilestone(ctx context.Context, actor *domain.Employee, projectID, name string, dueDate time.Time) (*domain.Milestone, error) {
	p, err := s.editable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	m := &domain.Milestone{ProjectID: p.ID, Name: strings.TrimSpace(name), DueDate: truncateDay(dueDate)}
	errs := fieldErrors{}
	if m.Name == "" {
		errs.add("name", "is required")
	}
	if m.DueDate.IsZero() {
		errs.add("due_date", "is required")
	} else if m.DueDate.Before(p.StartDate) {
		errs.add("due_date", "must not be before the project start date")
	}
	if err := errs.err("invalid milestone"); err != nil {
		return nil, err
	}
	if err := s.projects.CreateMilestone(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

// CompleteMilestone marks a milestone done on the given date, today when
// zero.
func (s *ProjectService) CompleteMilestone(ctx context.Context, actor *domain.Employee, projectID, milestoneID string, completed time.Time) (*domain.Milestone, error) {
	p, err := s.editable(ctx, actor, projectID)
	if err != nil {
		return nil, err
	}
	m, err := s.projects.GetMilestone(ctx, p.ID, milestoneID)
	if err != nil {
		return nil, notFound(err, "milestone")
	}
	if m.CompletedDate != nil {
		return nil, apperrors.NewConflict("milestone already completed", nil)
	}
	if completed.IsZero() {
		completed = s.now()
	}
	completed = truncateDay(completed)
	if completed.Before(p.StartDate) {
		return nil, apperrors.NewValidationError("invalid milestone", map[string]any{"completed_date": "must not be before the project start date"})
	}
	m.CompletedDate = &completed
	if err := s.projects.CompleteMilestone(ctx, m); err != nil {
		return nil, notFound(err, "milestone")
	}
	return m, nil
}

// ListMilestones returns a project's milestones by due date.
func (s *ProjectService) ListMilestones(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	if _, err := s.projects.GetByID(ctx, projectID); err != nil {
		return nil, notFound(err, "project")
	}
	return s.projects.ListMilestones(ctx, projectID)
}

// editable loads a project the actor may change: the DG, its manager, or
// the director of its department.
func (s *ProjectService) editable(ctx context.Context, actor *domain.Employee, id string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "project")
	}
	if p.ManagerID == actor.ID || canManage(actor, p.DepartmentID) {
		return p, nil
	}
	return nil, apperrors.NewForbidden("not allowed to change this project")
}

func (s *ProjectService) validate(ctx context.Context, p *domain.Project) error {
	errs := fieldErrors{}
	if p.Name == "" {
		errs.add("name", "is required")
	}
	if p.StartDate.IsZero() {
		errs.add("start_date", "is required")
	}
	if p.EndDate.IsZero() {
		errs.add("end_date", "is required")
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		errs.add("end_date", "must not be before start_date")
	}
	if p.Budget < 0 {
		errs.add("budget", "must not be negative")
	}

	manager, err := s.employees.GetByID(ctx, p.ManagerID)
	switch {
	case err == nil:
		if !manager.Active {
			errs.add("manager_id", "employee is inactive")
		}
	case apperrors.IsNotFound(err):
		errs.add("manager_id", "unknown employee")
	default:
		return err
	}
	if p.DepartmentID != nil {
		if _, err := s.org.GetDepartmentByID(ctx, *p.DepartmentID); err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			errs.add("department_id", "unknown department")
		}
	}
	if p.StateCode != nil {
		if _, err := s.org.GetState(ctx, *p.StateCode); err != nil {
			if !apperrors.IsNotFound(err) {
				return err
			}
			errs.add("state_code", "unknown state")
		}
	}
	return errs.err("invalid project")
}

func upperPtr(s *string) *string {
	v := trimPtr(s)
	if v == nil {
		return nil
	}
	u := strings.ToUpper(*v)
	return &u
}
