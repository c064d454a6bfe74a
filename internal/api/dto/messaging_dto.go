package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// ComposeMailRequest payload.
type ComposeMailRequest struct {
	Subject  string   `json:"subject"`
	Body     string   `json:"body"`
	To       []string `json:"to"`
	CC       []string `json:"cc"`
	BCC      []string `json:"bcc"`
	ParentID *string  `json:"parent_id"`
	Draft    bool     `json:"draft"`
}

// RecipientResponse payload.
type RecipientResponse struct {
	EmployeeID string               `json:"employee_id"`
	Kind       domain.RecipientKind `json:"kind"`
	ReadAt     *time.Time           `json:"read_at,omitempty"`
}

// MailResponse payload.
type MailResponse struct {
	ID         string              `json:"id"`
	SenderID   string              `json:"sender_id"`
	Subject    string              `json:"subject"`
	Body       string              `json:"body"`
	ParentID   *string             `json:"parent_id"`
	Draft      bool                `json:"draft"`
	Recipients []RecipientResponse `json:"recipients"`
	CreatedAt  time.Time           `json:"created_at"`
}

// InboxItem is a mail plus the caller's unread flag.
type InboxItem struct {
	MailResponse
	Unread bool `json:"unread"`
}

// ChatCreateRequest payload.
type ChatCreateRequest struct {
	Name           string   `json:"name"`
	ParticipantIDs []string `json:"participant_ids"`
}

// ChatResponse payload.
type ChatResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	IsGroup      bool      `json:"is_group"`
	CreatedBy    string    `json:"created_by"`
	Participants []string  `json:"participants"`
	CreatedAt    time.Time `json:"created_at"`
}

// ChatMessageRequest payload.
type ChatMessageRequest struct {
	Body string `json:"body"`
}

// ChatMessageResponse payload.
type ChatMessageResponse struct {
	ID        string    `json:"id"`
	ChatID    string    `json:"chat_id"`
	SenderID  string    `json:"sender_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// NotificationResponse payload.
type NotificationResponse struct {
	ID        string                  `json:"id"`
	Type      domain.NotificationType `json:"type"`
	Title     string                  `json:"title"`
	Message   string                  `json:"message"`
	Link      string                  `json:"link,omitempty"`
	Read      bool                    `json:"read"`
	CreatedAt time.Time               `json:"created_at"`
}

// CommunicationDashboard payload.
type CommunicationDashboard struct {
	UnreadMail          int `json:"unread_mail"`
	PendingTasks        int `json:"pending_tasks"`
	UnreadNotifications int `json:"unread_notifications"`
}
