package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/staff-portal/internal/api/http/handlers"
	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/observability"
)

const apiPrefix = "/api/v1"

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health         *handlers.HealthHandler
	Auth           *handlers.AuthHandler
	Employees      *handlers.EmployeeHandler
	Career         *handlers.CareerHandler
	Trainings      *handlers.TrainingHandler
	Announcements  *handlers.AnnouncementHandler
	Org            *handlers.OrgHandler
	Workflows      *handlers.WorkflowHandler
	Leave          *handlers.LeaveHandler
	Tasks          *handlers.TaskHandler
	Projects       *handlers.ProjectHandler
	Messaging      *handlers.MessagingHandler
	Notifications  *handlers.NotificationHandler
	AuthMiddleware *auth.AuthMiddleware
	LoginLimiter   fiber.Handler
	Metrics        *observability.Metrics
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if reg := cfg.Metrics.Registry(); reg != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
	}

	limit := cfg.LoginLimiter
	if limit == nil {
		limit = func(c *fiber.Ctx) error { return c.Next() }
	}

	api := app.Group(apiPrefix)
	authGroup := api.Group("/auth")
	authGroup.Post("/login", limit, cfg.Auth.Login)
	authGroup.Post("/password/reset/request", limit, cfg.Auth.RequestPasswordReset)
	authGroup.Post("/password/reset/confirm", limit, cfg.Auth.ConfirmPasswordReset)

	protected := api.Group("", cfg.AuthMiddleware.Handle, auth.RequireRole(),
		auth.RequirePasswordFresh(apiPrefix+"/auth/password/change", apiPrefix+"/auth/logout"))
	protected.Post("/auth/logout", cfg.Auth.Logout)
	protected.Post("/auth/password/change", cfg.Auth.ChangePassword)

	managers := auth.RequireRole(domain.RoleDirectorGeneral, domain.RoleDirector, domain.RoleZonalDirector, domain.RoleStateCoordinator)
	writers := auth.RequireRole(domain.RoleDirectorGeneral, domain.RoleDirector)
	dgOnly := auth.RequireRole(domain.RoleDirectorGeneral)

	employees := protected.Group("/employees")
	employees.Get("/", managers, cfg.Employees.List)
	employees.Post("/", writers, cfg.Employees.Create)
	employees.Get("/me", cfg.Employees.Me)
	employees.Post("/import", writers, cfg.Employees.Import)
	employees.Get("/:id", cfg.Employees.Get)
	employees.Patch("/:id", writers, cfg.Employees.Update)
	employees.Delete("/:id", writers, cfg.Employees.Deactivate)
	employees.Get("/:id/promotion-eligibility", cfg.Career.Eligibility)
	employees.Get("/:id/promotions", cfg.Career.ListPromotions)
	employees.Post("/:id/promotions", writers, cfg.Career.RecordPromotion)
	employees.Get("/:id/examinations", cfg.Career.ListExaminations)
	employees.Post("/:id/examinations", writers, cfg.Career.RecordExamination)
	employees.Get("/:id/performance-reviews", cfg.Career.ListPerformanceReviews)
	employees.Post("/:id/performance-reviews", writers, cfg.Career.RecordPerformanceReview)
	employees.Get("/:id/transfers", cfg.Career.ListTransfers)
	employees.Post("/:id/transfers", writers, cfg.Career.Transfer)
	employees.Get("/:id/trainings", cfg.Trainings.ListForEmployee)

	trainings := protected.Group("/trainings")
	trainings.Get("/", cfg.Trainings.List)
	trainings.Post("/", writers, cfg.Trainings.Create)
	trainings.Get("/:id", cfg.Trainings.Get)
	trainings.Post("/:id/participants", writers, cfg.Trainings.Assign)

	announcements := protected.Group("/announcements")
	announcements.Get("/", cfg.Announcements.List)
	announcements.Post("/", writers, cfg.Announcements.Create)
	announcements.Delete("/:id", writers, cfg.Announcements.Deactivate)

	newsletters := protected.Group("/newsletters")
	newsletters.Get("/", cfg.Announcements.ListNewsletters)
	newsletters.Post("/", writers, cfg.Announcements.CreateNewsletter)
	newsletters.Post("/:id/publish", writers, cfg.Announcements.PublishNewsletter)

	retirements := protected.Group("/retirements", managers)
	retirements.Get("/", cfg.Career.ListRetirements)
	retirements.Post("/", dgOnly, cfg.Career.RecordRetirement)
	retirements.Get("/due", cfg.Career.RetirementsDue)

	protected.Get("/zones", cfg.Org.ListZones)
	protected.Post("/zones", dgOnly, cfg.Org.CreateZone)
	protected.Get("/zones/:code", cfg.Org.GetZone)
	protected.Patch("/zones/:code", dgOnly, cfg.Org.UpdateZone)
	protected.Get("/states", cfg.Org.ListStates)
	protected.Post("/states", dgOnly, cfg.Org.CreateState)
	protected.Get("/states/:code", cfg.Org.GetState)
	protected.Patch("/states/:code", dgOnly, cfg.Org.UpdateState)
	protected.Get("/lgas", cfg.Org.ListLGAs)
	protected.Post("/lgas", dgOnly, cfg.Org.CreateLGA)
	protected.Get("/departments", cfg.Org.ListDepartments)
	protected.Post("/departments", dgOnly, cfg.Org.CreateDepartment)
	protected.Get("/departments/:code", cfg.Org.GetDepartment)
	protected.Patch("/departments/:code", dgOnly, cfg.Org.UpdateDepartment)
	protected.Get("/grade-levels", cfg.Org.ListGradeLevels)
	protected.Put("/grade-levels", dgOnly, cfg.Org.UpsertGradeLevels)

	protected.Get("/workflows", cfg.Workflows.List)
	protected.Post("/workflows", dgOnly, cfg.Workflows.Define)
	instances := protected.Group("/workflow-instances")
	instances.Post("/", cfg.Workflows.Start)
	instances.Get("/pending", cfg.Workflows.Pending)
	instances.Get("/:id", cfg.Workflows.Get)
	instances.Post("/:id/decision", cfg.Workflows.Decide)
	instances.Post("/:id/cancel", cfg.Workflows.Cancel)

	leave := protected.Group("/leave")
	leave.Get("/", cfg.Leave.ListMine)
	leave.Post("/", cfg.Leave.Submit)
	leave.Get("/manage", managers, cfg.Leave.ListManaged)
	leave.Get("/:id", cfg.Leave.Get)
	leave.Post("/:id/decision", cfg.Leave.Decide)
	leave.Post("/:id/cancel", cfg.Leave.Cancel)

	tasks := protected.Group("/tasks")
	tasks.Get("/", cfg.Tasks.List)
	tasks.Post("/", cfg.Tasks.Create)
	tasks.Get("/:id", cfg.Tasks.Get)
	tasks.Patch("/:id", cfg.Tasks.Update)
	tasks.Post("/:id/subtasks", cfg.Tasks.AddSubtask)
	tasks.Post("/:id/subtasks/:subtaskID/toggle", cfg.Tasks.ToggleSubtask)

	projects := protected.Group("/projects")
	projects.Get("/", cfg.Projects.List)
	projects.Post("/", writers, cfg.Projects.Create)
	projects.Get("/:id", cfg.Projects.Get)
	projects.Patch("/:id", cfg.Projects.Update)
	projects.Post("/:id/status", cfg.Projects.ChangeStatus)
	projects.Get("/:id/milestones", cfg.Projects.ListMilestones)
	projects.Post("/:id/milestones", cfg.Projects.AddMilestone)
	projects.Post("/:id/milestones/:milestoneID/complete", cfg.Projects.CompleteMilestone)

	mail := protected.Group("/mail")
	mail.Get("/inbox", cfg.Messaging.Inbox)
	mail.Get("/sent", cfg.Messaging.Sent)
	mail.Post("/", cfg.Messaging.Compose)
	mail.Get("/:id", cfg.Messaging.View)
	mail.Delete("/:id", cfg.Messaging.Delete)

	chats := protected.Group("/chats")
	chats.Get("/", cfg.Messaging.ListChats)
	chats.Post("/", cfg.Messaging.CreateChat)
	chats.Get("/:id/messages", cfg.Messaging.ListMessages)
	chats.Post("/:id/messages", cfg.Messaging.SendMessage)
	chats.Post("/:id/leave", cfg.Messaging.LeaveChat)

	protected.Get("/notifications", cfg.Notifications.List)
	protected.Post("/notifications/read-all", cfg.Notifications.MarkAllRead)
	protected.Post("/notifications/:id/read", cfg.Notifications.MarkRead)

	protected.Get("/dashboard/communication", cfg.Notifications.CommunicationDashboard)
	protected.Get("/dashboard/hr", managers, cfg.Notifications.HRDashboard)
}
