package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/mailer"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// NotifyInput describes one notification.
type NotifyInput struct {
	RecipientID string
	Type        domain.NotificationType
	Title       string
	Message     string
	Link        string
	Email       bool
}

// Notifier creates in-app notifications.
type Notifier interface {
	Notify(ctx context.Context, input NotifyInput) (*domain.Notification, error)
}

// NotificationService handles in-app notifications and turns domain events
// into notifications and email.
type NotificationService struct {
	notifications repository.NotificationRepository
	employees     repository.EmployeeRepository
	mail          mailer.Sender
	dispatcher    events.Dispatcher
	logger        *zap.Logger
	baseURL       string
	now           func() time.Time
}

// NotificationDependencies bundles collaborators for the notification service.
type NotificationDependencies struct {
	NotificationRepo repository.NotificationRepository
	EmployeeRepo     repository.EmployeeRepository
	Mailer           mailer.Sender
	Dispatcher       events.Dispatcher
	Logger           *zap.Logger
	BaseURL          string
	Clock            func() time.Time
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		notifications: deps.NotificationRepo,
		employees:     deps.EmployeeRepo,
		mail:          deps.Mailer,
		dispatcher:    deps.Dispatcher,
		logger:        logger,
		baseURL:       strings.TrimRight(deps.BaseURL, "/"),
		now:           clockOrDefault(deps.Clock),
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventEmployeeCreated, n.handleEmployeeCreated)
	n.dispatcher.Subscribe(events.EventWorkflowAdvanced, n.handleWorkflowAdvanced)
	n.dispatcher.Subscribe(events.EventWorkflowCompleted, n.handleWorkflowFinished)
	n.dispatcher.Subscribe(events.EventWorkflowRejected, n.handleWorkflowFinished)
	n.dispatcher.Subscribe(events.EventMailSent, n.handleMailSent)
	n.dispatcher.Subscribe(events.EventTaskAssigned, n.handleTaskAssigned)
}

// Notify persists a notification and, when asked, emails the recipient.
// Email failures are logged and do not fail the call.
func (n *NotificationService) Notify(ctx context.Context, input NotifyInput) (*domain.Notification, error) {
	if input.Type == "" {
		input.Type = domain.NotificationSystem
	}
	note := &domain.Notification{
		RecipientID: input.RecipientID,
		Type:        input.Type,
		Title:       strings.TrimSpace(input.Title),
		Message:     strings.TrimSpace(input.Message),
		Link:        input.Link,
	}
	if err := n.notifications.Create(ctx, note); err != nil {
		return nil, err
	}
	if input.Email {
		n.emailEmployee(ctx, input.RecipientID, note.Title, note.Message, note.Link)
	}
	return note, nil
}

// ListMine returns the caller's notifications, newest first.
func (n *NotificationService) ListMine(ctx context.Context, actor *domain.Employee, unreadOnly bool, limit, offset int) ([]domain.Notification, error) {
	return n.notifications.List(ctx, actor.ID, unreadOnly, limit, offset)
}

// MarkRead marks one of the caller's notifications as read.
func (n *NotificationService) MarkRead(ctx context.Context, actor *domain.Employee, id string) error {
	note, err := n.notifications.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "notification")
	}
	if note.RecipientID != actor.ID {
		return apperrors.NewNotFound("notification", nil)
	}
	return n.notifications.MarkRead(ctx, id, n.now())
}

// MarkAllRead marks every unread notification of the caller as read.
func (n *NotificationService) MarkAllRead(ctx context.Context, actor *domain.Employee) (int64, error) {
	return n.notifications.MarkAllRead(ctx, actor.ID, n.now())
}

// UnreadCount returns the number of unread notifications.
func (n *NotificationService) UnreadCount(ctx context.Context, actor *domain.Employee) (int, error) {
	return n.notifications.CountUnread(ctx, actor.ID)
}

func (n *NotificationService) handleEmployeeCreated(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.EmployeeCreatedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	_, err := n.Notify(ctx, NotifyInput{
		RecipientID: payload.EmployeeID,
		Type:        domain.NotificationSystem,
		Title:       "Welcome to the staff portal",
		Message:     fmt.Sprintf("Hello %s, your account (%s) is ready. Please change your password after signing in.", payload.FullName, payload.EmployeeNumber),
		Link:        "/employees/me",
	})
	return err
}

func (n *NotificationService) handleWorkflowAdvanced(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.WorkflowPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	_, err := n.Notify(ctx, NotifyInput{
		RecipientID: payload.InitiatorID,
		Type:        domain.NotificationSystem,
		Title:       "Request moved forward",
		Message:     fmt.Sprintf("Your %s was approved at %q and is now awaiting %q.", recordLabel(payload.RecordType), payload.StepName, payload.NextStep),
		Link:        "/workflow-instances/" + payload.InstanceID,
	})
	return err
}

func (n *NotificationService) handleWorkflowFinished(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.WorkflowPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	verdict := "approved"
	if payload.Status == domain.WorkflowStatusRejected {
		verdict = "rejected"
	}
	msg := fmt.Sprintf("Your %s was %s at %q.", recordLabel(payload.RecordType), verdict, payload.StepName)
	if payload.Comment != "" {
		msg += " Comment: " + payload.Comment
	}
	_, err := n.Notify(ctx, NotifyInput{
		RecipientID: payload.InitiatorID,
		Type:        domain.NotificationSystem,
		Title:       "Request " + verdict,
		Message:     msg,
		Link:        "/workflow-instances/" + payload.InstanceID,
		Email:       true,
	})
	return err
}

func (n *NotificationService) handleMailSent(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.MailSentPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	for _, recipientID := range payload.RecipientIDs {
		if recipientID == payload.SenderID {
			continue
		}
		if _, err := n.Notify(ctx, NotifyInput{
			RecipientID: recipientID,
			Type:        domain.NotificationMessage,
			Title:       "New mail from " + payload.SenderName,
			Message:     payload.Subject,
			Link:        "/mail/" + payload.MailID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (n *NotificationService) handleTaskAssigned(ctx context.Context, event events.Event) error {
	payload, ok := event.Payload.(events.TaskAssignedPayload)
	if !ok {
		return fmt.Errorf("unexpected payload %T", event.Payload)
	}
	_, err := n.Notify(ctx, NotifyInput{
		RecipientID: payload.AssigneeID,
		Type:        domain.NotificationTask,
		Title:       "New task: " + payload.Title,
		Message:     fmt.Sprintf("Priority %s, due %s.", payload.Priority, payload.DueDate.Format(DateLayout)),
		Link:        "/tasks/" + payload.TaskID,
		Email:       true,
	})
	return err
}

func (n *NotificationService) emailEmployee(ctx context.Context, employeeID, subject, body, link string) {
	if n.mail == nil || n.employees == nil {
		return
	}
	employee, err := n.employees.GetByID(ctx, employeeID)
	if err != nil {
		n.logger.Warn("notification email skipped", zap.String("employee_id", employeeID), zap.Error(err))
		return
	}
	if link != "" && n.baseURL != "" {
		body = body + "\n\n" + n.baseURL + link
	}
	if err := n.mail.Send(ctx, mailer.Message{To: []string{employee.Email}, Subject: subject, Body: body}); err != nil {
		n.logger.Warn("notification email failed", zap.String("employee_id", employeeID), zap.Error(err))
	}
}

func recordLabel(recordType string) string {
	return strings.ReplaceAll(recordType, "_", " ")
}
