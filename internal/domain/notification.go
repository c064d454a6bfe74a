package domain

import "time"

// NotificationType enumerates in-app notification categories.
type NotificationType string

const (
	NotificationMessage      NotificationType = "MESSAGE"
	NotificationTask         NotificationType = "TASK"
	NotificationReminder     NotificationType = "REMINDER"
	NotificationAnnouncement NotificationType = "ANNOUNCEMENT"
	NotificationSystem       NotificationType = "SYSTEM"
)

// Notification is an in-app alert for one employee.
type Notification struct {
	ID          string
	RecipientID string
	Type        NotificationType
	Title       string
	Message     string
	Link        string
	ReadAt      *time.Time
	CreatedAt   time.Time
}

// CommunicationCounts summarises what is waiting for an employee.
type CommunicationCounts struct {
	UnreadMail          int
	PendingTasks        int
	UnreadNotifications int
}

// Empty reports whether nothing is waiting.
func (c CommunicationCounts) Empty() bool {
	return c.UnreadMail == 0 && c.PendingTasks == 0 && c.UnreadNotifications == 0
}
