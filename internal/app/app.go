// Package app wires configuration, storage and services into a runnable
// HTTP server and the operations commands.
package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	httptransport "github.com/spec-kit/staff-portal/internal/api/http"
	"github.com/spec-kit/staff-portal/internal/api/http/handlers"
	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/cache"
	"github.com/spec-kit/staff-portal/internal/config"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/mailer"
	"github.com/spec-kit/staff-portal/internal/observability"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	"github.com/spec-kit/staff-portal/internal/service"
	"github.com/spec-kit/staff-portal/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Container holds the long-lived collaborators shared by the server and CLI.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Metrics    *observability.Metrics
	Postgres   *persistence.Postgres
	Redis      *persistence.Redis
	Dispatcher events.Dispatcher
	Denylist   *cache.Denylist

	EmployeeRepo repository.EmployeeRepository

	Auth          *service.AuthService
	Employees     *service.EmployeeService
	Import        *service.ImportService
	Career        *service.CareerService
	Trainings     *service.TrainingService
	Announcements *service.AnnouncementService
	Org           *service.OrgService
	Workflows     *service.WorkflowService
	Leave         *service.LeaveService
	Tasks         *service.TaskService
	Projects      *service.ProjectService
	Mail          *service.MailService
	Chat          *service.ChatService
	Notifications *service.NotificationService
	Reports       *service.ReportService
	Jobs          *service.JobsService
}

// New connects to Postgres and Redis, applies migrations when enabled and
// builds every service. Call Close when done.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		return nil, err
	}
	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
			pg.Close()
			return nil, err
		}
	}
	rdb := persistence.NewRedis(cfg.Redis, logger)

	c := &Container{
		Config:     cfg,
		Logger:     logger,
		Metrics:    observability.NewMetrics(metricsNamespace(cfg.App.Name)),
		Postgres:   pg,
		Redis:      rdb,
		Dispatcher: events.NewInMemoryDispatcher(logger),
		Denylist:   cache.NewDenylist(rdb.Client, rdb.Namespace("revoked")),
	}
	c.buildServices()
	return c, nil
}

func (c *Container) buildServices() {
	cfg := c.Config
	logger := c.Logger
	pool := c.Postgres.PoolHandle()
	tx := c.Postgres.Transactor()
	sender := mailer.New(cfg.Mail, logger)

	employeeRepo := repository.NewEmployeeRepository(pool)
	orgRepo := repository.NewOrgRepository(pool)
	careerRepo := repository.NewCareerRepository(pool)
	workflowRepo := repository.NewWorkflowRepository(pool)
	leaveRepo := repository.NewLeaveRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	mailRepo := repository.NewMailRepository(pool)
	chatRepo := repository.NewChatRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	resetRepo := repository.NewPasswordResetRepository(pool)
	trainingRepo := repository.NewTrainingRepository(pool)
	announcementRepo := repository.NewAnnouncementRepository(pool)
	c.EmployeeRepo = employeeRepo

	c.Notifications = service.NewNotificationService(service.NotificationDependencies{
		NotificationRepo: notificationRepo,
		EmployeeRepo:     employeeRepo,
		Mailer:           sender,
		Dispatcher:       c.Dispatcher,
		Logger:           logger.Named("notifications"),
		BaseURL:          cfg.App.BaseURL,
	})
	c.Auth = service.NewAuthService(*cfg, service.AuthDependencies{
		EmployeeRepo:      employeeRepo,
		PasswordResetRepo: resetRepo,
		Revoker:           c.Denylist,
		Mailer:            sender,
		Transactor:        tx,
		Logger:            logger.Named("auth"),
	})
	c.Employees = service.NewEmployeeService(service.EmployeeDependencies{
		EmployeeRepo: employeeRepo,
		OrgRepo:      orgRepo,
		Dispatcher:   c.Dispatcher,
		BcryptCost:   cfg.Auth.BcryptCost,
	})
	c.Import = service.NewImportService(service.ImportDependencies{
		EmployeeService: c.Employees,
		EmployeeRepo:    employeeRepo,
		OrgRepo:         orgRepo,
		Logger:          logger.Named("import"),
	})
	c.Career = service.NewCareerService(service.CareerDependencies{
		CareerRepo:   careerRepo,
		EmployeeRepo: employeeRepo,
		OrgRepo:      orgRepo,
		Notifier:     c.Notifications,
		Transactor:   tx,
		Logger:       logger.Named("career"),
	})
	c.Trainings = service.NewTrainingService(service.TrainingDependencies{
		TrainingRepo: trainingRepo,
		EmployeeRepo: employeeRepo,
		Notifier:     c.Notifications,
		Transactor:   tx,
		Logger:       logger.Named("trainings"),
	})
	c.Announcements = service.NewAnnouncementService(service.AnnouncementDependencies{
		AnnouncementRepo: announcementRepo,
		EmployeeRepo:     employeeRepo,
		OrgRepo:          orgRepo,
		Notifier:         c.Notifications,
		Transactor:       tx,
		Logger:           logger.Named("announcements"),
	})
	c.Org = service.NewOrgService(service.OrgDependencies{
		OrgRepo:      orgRepo,
		EmployeeRepo: employeeRepo,
	})
	c.Workflows = service.NewWorkflowService(service.WorkflowDependencies{
		WorkflowRepo: workflowRepo,
		Transactor:   tx,
		Dispatcher:   c.Dispatcher,
		Logger:       logger.Named("workflows"),
	})
	c.Leave = service.NewLeaveService(service.LeaveDependencies{
		LeaveRepo:       leaveRepo,
		EmployeeRepo:    employeeRepo,
		WorkflowService: c.Workflows,
		Notifier:        c.Notifications,
		Dispatcher:      c.Dispatcher,
		Transactor:      tx,
		Logger:          logger.Named("leave"),
	})
	c.Tasks = service.NewTaskService(service.TaskDependencies{
		TaskRepo:     taskRepo,
		EmployeeRepo: employeeRepo,
		Notifier:     c.Notifications,
		Dispatcher:   c.Dispatcher,
		Logger:       logger.Named("tasks"),
	})
	c.Projects = service.NewProjectService(service.ProjectDependencies{
		ProjectRepo:  projectRepo,
		EmployeeRepo: employeeRepo,
		OrgRepo:      orgRepo,
		Notifier:     c.Notifications,
		Transactor:   tx,
		Logger:       logger.Named("projects"),
	})
	c.Mail = service.NewMailService(service.MailDependencies{
		MailRepo:     mailRepo,
		EmployeeRepo: employeeRepo,
		Dispatcher:   c.Dispatcher,
		Transactor:   tx,
		Logger:       logger.Named("mail"),
	})
	c.Chat = service.NewChatService(service.ChatDependencies{
		ChatRepo:     chatRepo,
		EmployeeRepo: employeeRepo,
		Transactor:   tx,
	})
	c.Reports = service.NewReportService(service.ReportDependencies{
		EmployeeRepo:     employeeRepo,
		LeaveRepo:        leaveRepo,
		ProjectRepo:      projectRepo,
		TaskRepo:         taskRepo,
		MailRepo:         mailRepo,
		NotificationRepo: notificationRepo,
		Cache:            cache.NewRedisCache(c.Redis.Client, c.Redis.Prefix(), logger),
		CacheTTL:         cfg.Cache.DashboardTTL,
		Logger:           logger.Named("reports"),
	})
	c.Jobs = service.NewJobsService(service.JobsDependencies{
		EmployeeRepo:  employeeRepo,
		ReportService: c.Reports,
		TaskService:   c.Tasks,
		Mailer:        sender,
		Metrics:       c.Metrics,
		Logger:        logger.Named("jobs"),
		BaseURL:       cfg.App.BaseURL,
	})

	worker.StartEventHandlers(logger, c.Notifications, c.Leave)
}

// HTTP builds the fiber application with middlewares and routes.
func (c *Container) HTTP() *fiber.App {
	cfg := c.Config
	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		BodyLimit:    cfg.App.BodyLimitBytes,
		ErrorHandler: httptransport.ErrorHandler,
	})
	httptransport.RegisterMiddlewares(app, c.Logger, c.Metrics, cfg.App.RequestTimeout())

	health := handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, map[string]handlers.Pinger{
		"postgres": c.Postgres,
		"redis":    c.Redis,
	})

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         health,
		Auth:           handlers.NewAuthHandler(c.Auth),
		Employees:      handlers.NewEmployeeHandler(c.Employees, c.Import),
		Career:         handlers.NewCareerHandler(c.Career),
		Trainings:      handlers.NewTrainingHandler(c.Trainings),
		Announcements:  handlers.NewAnnouncementHandler(c.Announcements),
		Org:            handlers.NewOrgHandler(c.Org),
		Workflows:      handlers.NewWorkflowHandler(c.Workflows),
		Leave:          handlers.NewLeaveHandler(c.Leave),
		Tasks:          handlers.NewTaskHandler(c.Tasks),
		Projects:       handlers.NewProjectHandler(c.Projects),
		Messaging:      handlers.NewMessagingHandler(c.Mail, c.Chat),
		Notifications:  handlers.NewNotificationHandler(c.Notifications, c.Reports),
		AuthMiddleware: auth.NewAuthMiddleware(c.Auth.TokenManager(), c.EmployeeRepo, c.Denylist, c.Logger),
		LoginLimiter:   httptransport.LoginRateLimiter(cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow, c.Redis.LimiterStorage()),
		Metrics:        c.Metrics,
	})
	return app
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down
// gracefully.
func (c *Container) Serve(ctx context.Context) error {
	app := c.HTTP()
	addr := c.Config.App.Addr()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		c.Logger.Info("http server listening", zap.String("addr", addr))
		return app.Listen(addr)
	})
	g.Go(func() error {
		<-gctx.Done()
		c.Logger.Info("shutting down http server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})
	return g.Wait()
}

// Close releases connections.
func (c *Container) Close() {
	c.Redis.Close()
	c.Postgres.Close()
}

func metricsNamespace(name string) string {
	name = strings.NewReplacer("-", "_", " ", "_", ".", "_").Replace(strings.ToLower(name))
	if name == "" {
		return "staff_portal"
	}
	return name
}
