package domain

import "time"

// RecipientKind distinguishes To, Cc and Bcc recipients.
type RecipientKind string

const (
	RecipientTo  RecipientKind = "TO"
	RecipientCC  RecipientKind = "CC"
	RecipientBCC RecipientKind = "BCC"
)

// Mail is an internal message between employees.
type Mail struct {
	ID            string
	SenderID      string
	Subject       string
	Body          string
	ParentID      *string
	Draft         bool
	SenderDeleted bool
	Recipients    []MailRecipient
	CreatedAt     time.Time
}

// MailRecipient is one addressee's copy of a mail.
type MailRecipient struct {
	MailID     string
	EmployeeID string
	Kind       RecipientKind
	ReadAt     *time.Time
	DeletedAt  *time.Time
}

// RecipientFor returns the caller's copy when they are an addressee.
func (m *Mail) RecipientFor(employeeID string) (*MailRecipient, bool) {
	for i := range m.Recipients {
		if m.Recipients[i].EmployeeID == employeeID {
			return &m.Recipients[i], true
		}
	}
	return nil, false
}

// VisibleTo reports whether the employee may open the mail.
func (m *Mail) VisibleTo(employeeID string) bool {
	if m.SenderID == employeeID && !m.SenderDeleted {
		return true
	}
	if m.Draft {
		return false
	}
	r, ok := m.RecipientFor(employeeID)
	return ok && r.DeletedAt == nil
}

// ViewFor returns a copy with BCC recipients hidden from everyone but the
// sender.
func (m *Mail) ViewFor(employeeID string) Mail {
	out := *m
	if employeeID == m.SenderID {
		return out
	}
	out.Recipients = make([]MailRecipient, 0, len(m.Recipients))
	for _, r := range m.Recipients {
		if r.Kind == RecipientBCC && r.EmployeeID != employeeID {
			continue
		}
		out.Recipients = append(out.Recipients, r)
	}
	return out
}

// MailSummary is a mailbox listing row.
type MailSummary struct {
	Mail   Mail
	Unread bool
}

// Chat is a direct or group conversation.
type Chat struct {
	ID           string
	Name         string
	IsGroup      bool
	CreatedBy    string
	Participants []ChatParticipant
	CreatedAt    time.Time
}

// ChatParticipant links an employee to a chat.
type ChatParticipant struct {
	ChatID     string
	EmployeeID string
	JoinedAt   time.Time
	LeftAt     *time.Time
}

// IsActiveParticipant reports whether the employee is in the chat and has
// not left.
func (c *Chat) IsActiveParticipant(employeeID string) bool {
	for _, p := range c.Participants {
		if p.EmployeeID == employeeID && p.LeftAt == nil {
			return true
		}
	}
	return false
}

// ChatMessage is one message posted to a chat.
type ChatMessage struct {
	ID        string
	ChatID    string
	SenderID  string
	Body      string
	CreatedAt time.Time
}
