package service

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spec-kit/staff-portal/internal/cache"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// retirementHorizonDays is the look-ahead used by the HR summary.
const retirementHorizonDays = 365

// HRSummary is the role-scoped HR dashboard.
type HRSummary struct {
	Scope             string                       `json:"scope"`
	EmployeesByRole   map[domain.Role]int          `json:"employees_by_role"`
	ActiveEmployees   int                          `json:"active_employees"`
	InactiveEmployees int                          `json:"inactive_employees"`
	PendingLeave      int                          `json:"pending_leave"`
	RetirementsDue    int                          `json:"retirements_due"`
	ProjectsByStatus  map[domain.ProjectStatus]int `json:"projects_by_status"`
	TasksByStatus     map[domain.TaskStatus]int    `json:"tasks_by_status"`
	GeneratedAt       time.Time                    `json:"generated_at"`
}

// ReportService builds dashboards.
type ReportService struct {
	employees     repository.EmployeeRepository
	leaves        repository.LeaveRepository
	projects      repository.ProjectRepository
	tasks         repository.TaskRepository
	mails         repository.MailRepository
	notifications repository.NotificationRepository
	cache         cache.Cache
	ttl           time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// ReportDependencies bundles collaborators for the report service.
type ReportDependencies struct {
	EmployeeRepo     repository.EmployeeRepository
	LeaveRepo        repository.LeaveRepository
	ProjectRepo      repository.ProjectRepository
	TaskRepo         repository.TaskRepository
	MailRepo         repository.MailRepository
	NotificationRepo repository.NotificationRepository
	Cache            cache.Cache
	CacheTTL         time.Duration
	Logger           *zap.Logger
	Clock            func() time.Time
}

// NewReportService constructs the service.
func NewReportService(deps ReportDependencies) *ReportService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		employees:     deps.EmployeeRepo,
		leaves:        deps.LeaveRepo,
		projects:      deps.ProjectRepo,
		tasks:         deps.TaskRepo,
		mails:         deps.MailRepo,
		notifications: deps.NotificationRepo,
		cache:         deps.Cache,
		ttl:           deps.CacheTTL,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// CommunicationDashboard counts what is waiting for the caller.
func (s *ReportService) CommunicationDashboard(ctx context.Context, actor *domain.Employee) (domain.CommunicationCounts, error) {
	return s.communicationCounts(ctx, actor.ID)
}

func (s *ReportService) communicationCounts(ctx context.Context, employeeID string) (domain.CommunicationCounts, error) {
	var counts domain.CommunicationCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		counts.UnreadMail, err = s.mails.CountUnread(gctx, employeeID)
		return err
	})
	g.Go(func() (err error) {
		counts.PendingTasks, err = s.tasks.CountOpenForAssignee(gctx, employeeID)
		return err
	})
	g.Go(func() (err error) {
		counts.UnreadNotifications, err = s.notifications.CountUnread(gctx, employeeID)
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.CommunicationCounts{}, err
	}
	return counts, nil
}

// HRSummary returns role-scoped HR counts, cached per scope.
func (s *ReportService) HRSummary(ctx context.Context, actor *domain.Employee) (*HRSummary, error) {
	if actor.Role == domain.RoleStaff {
		return nil, apperrors.NewForbidden("the HR dashboard is for managers")
	}
	scope := domain.ScopeFor(actor)
	key := "dashboard:hr:" + scope.Key()

	if s.cache != nil {
		var cached HRSummary
		hit, err := s.cache.GetJSON(ctx, key, &cached)
		if err != nil {
			s.logger.Warn("dashboard cache read failed", zap.String("key", key), zap.Error(err))
		} else if hit {
			return &cached, nil
		}
	}

	summary := &HRSummary{Scope: scope.Key(), GeneratedAt: s.now()}
	active, inactive := true, false
	today := truncateDay(summary.GeneratedAt)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		summary.EmployeesByRole, err = s.employees.CountByRole(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		summary.ActiveEmployees, err = s.employees.Count(gctx, repository.EmployeeFilter{Scope: scope, Active: &active})
		return err
	})
	g.Go(func() (err error) {
		summary.InactiveEmployees, err = s.employees.Count(gctx, repository.EmployeeFilter{Scope: scope, Active: &inactive})
		return err
	})
	g.Go(func() (err error) {
		summary.PendingLeave, err = s.leaves.CountPending(gctx, scope)
		return err
	})
	g.Go(func() error {
		due, err := s.employees.ListRetiringBetween(gctx, today, today.AddDate(0, 0, retirementHorizonDays), scope)
		summary.RetirementsDue = len(due)
		return err
	})
	g.Go(func() (err error) {
		summary.ProjectsByStatus, err = s.projects.CountByStatus(gctx, scope)
		return err
	})
	g.Go(func() (err error) {
		summary.TasksByStatus, err = s.tasks.CountByStatus(gctx, scope)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.cache != nil && s.ttl > 0 {
		if err := s.cache.SetJSON(ctx, key, summary, s.ttl); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return summary, nil
}
