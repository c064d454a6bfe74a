package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/mailer"
	"github.com/spec-kit/staff-portal/internal/observability"
	"github.com/spec-kit/staff-portal/internal/repository"
)

const (
	JobDailySummary = "daily-summary"
	JobOverdueTasks = "overdue-tasks"
)

const summaryBatchSize = 200

// JobsService holds the scheduled jobs run by staffctl.
type JobsService struct {
	employees repository.EmployeeRepository
	reports   *ReportService
	tasks     *TaskService
	mail      mailer.Sender
	metrics   *observability.Metrics
	logger    *zap.Logger
	baseURL   string
}

// JobsDependencies bundles collaborators for scheduled jobs.
type JobsDependencies struct {
	EmployeeRepo  repository.EmployeeRepository
	ReportService *ReportService
	TaskService   *TaskService
	Mailer        mailer.Sender
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	BaseURL       string
}

// NewJobsService constructs the service.
func NewJobsService(deps JobsDependencies) *JobsService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &JobsService{
		employees: deps.EmployeeRepo,
		reports:   deps.ReportService,
		tasks:     deps.TaskService,
		mail:      deps.Mailer,
		metrics:   deps.Metrics,
		logger:    logger,
		baseURL:   strings.TrimRight(deps.BaseURL, "/"),
	}
}

// Run executes a job by name and returns how many items it handled.
func (s *JobsService) Run(ctx context.Context, name string, now time.Time) (int, error) {
	switch name {
	case JobDailySummary:
		return s.DailySummary(ctx, now)
	case JobOverdueTasks:
		return s.OverdueTasks(ctx, now)
	}
	return 0, fmt.Errorf("unknown job %q", name)
}

// DailySummary emails every active employee who has unread mail, open
// tasks or unread notifications. It returns the number of emails sent.
func (s *JobsService) DailySummary(ctx context.Context, now time.Time) (sent int, err error) {
	defer func() { s.metrics.RecordJob(JobDailySummary, err) }()

	active := true
	filter := repository.EmployeeFilter{Scope: domain.Scope{All: true}, Active: &active, Limit: summaryBatchSize}
	for {
		batch, err := s.employees.List(ctx, filter)
		if err != nil {
			return sent, err
		}
		for i := range batch {
			employee := &batch[i]
			counts, err := s.reports.communicationCounts(ctx, employee.ID)
			if err != nil {
				return sent, err
			}
			if counts.Empty() {
				continue
			}
			msg := mailer.Message{
				To:      []string{employee.Email},
				Subject: "Your daily summary for " + now.Format(DateLayout),
				Body:    s.summaryBody(employee, counts),
			}
			if err := s.mail.Send(ctx, msg); err != nil {
				s.logger.Warn("daily summary email failed", zap.String("employee_id", employee.ID), zap.Error(err))
				continue
			}
			sent++
		}
		if len(batch) < summaryBatchSize {
			break
		}
		filter.Offset += summaryBatchSize
	}
	s.logger.Info("daily summary finished", zap.Int("sent", sent))
	return sent, nil
}

// OverdueTasks reminds assignees about open tasks past their due date.
func (s *JobsService) OverdueTasks(ctx context.Context, now time.Time) (count int, err error) {
	defer func() { s.metrics.RecordJob(JobOverdueTasks, err) }()
	return s.tasks.NotifyOverdue(ctx, now)
}

func (s *JobsService) summaryBody(e *domain.Employee, c domain.CommunicationCounts) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", e.FullName())
	fmt.Fprintf(&b, "Unread mail: %d\n", c.UnreadMail)
	fmt.Fprintf(&b, "Pending tasks: %d\n", c.PendingTasks)
	fmt.Fprintf(&b, "Unread notifications: %d\n", c.UnreadNotifications)
	if s.baseURL != "" {
		fmt.Fprintf(&b, "\n%s/dashboard/communication\n", s.baseURL)
	}
	return b.String()
}
