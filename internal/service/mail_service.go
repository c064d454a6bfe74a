package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// MailService is the internal mail system.
type MailService struct {
	mails      repository.MailRepository
	employees  repository.EmployeeRepository
	dispatcher events.Dispatcher
	tx         persistence.Transactor
	logger     *zap.Logger
	now        func() time.Time
}

// MailDependencies bundles collaborators for the mail service.
type MailDependencies struct {
	MailRepo     repository.MailRepository
	EmployeeRepo repository.EmployeeRepository
	Dispatcher   events.Dispatcher
	Transactor   persistence.Transactor
	Logger       *zap.Logger
	Clock        func() time.Time
}

// ComposeInput is a new mail or draft.
type ComposeInput struct {
	Subject  string
	Body     string
	To       []string
	CC       []string
	BCC      []string
	ParentID *string
	Draft    bool
}

// NewMailService constructs the service.
func NewMailService(deps MailDependencies) *MailService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MailService{
		mails:      deps.MailRepo,
		employees:  deps.EmployeeRepo,
		dispatcher: deps.Dispatcher,
		tx:         deps.Transactor,
		logger:     logger,
		now:        clockOrDefault(deps.Clock),
	}
}

// Compose stores a mail with its recipients and, unless it is a draft,
// announces it.
func (s *MailService) Compose(ctx context.Context, actor *domain.Employee, input ComposeInput) (*domain.Mail, error) {
	mail := &domain.Mail{
		SenderID: actor.ID,
		Subject:  strings.TrimSpace(input.Subject),
		Body:     input.Body,
		ParentID: trimPtr(input.ParentID),
		Draft:    input.Draft,
	}
	mail.Recipients = mergeRecipients(input.To, input.CC, input.BCC)

	errs := fieldErrors{}
	if mail.Subject == "" {
		errs.add("subject", "is required")
	}
	if !mail.Draft && !hasKind(mail.Recipients, domain.RecipientTo) {
		errs.add("to", "at least one recipient is required")
	}
	if err := errs.err("invalid mail"); err != nil {
		return nil, err
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, r := range mail.Recipients {
			if _, err := s.employees.GetByID(ctx, r.EmployeeID); err != nil {
				if apperrors.IsNotFound(err) {
					return apperrors.NewValidationError("invalid mail", map[string]any{"recipients": "unknown employee " + r.EmployeeID})
				}
				return err
			}
		}
		if mail.ParentID != nil {
			parent, err := s.mails.GetByID(ctx, *mail.ParentID)
			if err != nil && !apperrors.IsNotFound(err) {
				return err
			}
			if err != nil || !parent.VisibleTo(actor.ID) {
				return apperrors.NewValidationError("invalid mail", map[string]any{"parent_id": "unknown mail"})
			}
		}
		return s.mails.Create(ctx, mail)
	})
	if err != nil {
		return nil, err
	}

	if !mail.Draft {
		ids := make([]string, 0, len(mail.Recipients))
		for _, r := range mail.Recipients {
			ids = append(ids, r.EmployeeID)
		}
		publishEvent(ctx, s.dispatcher, events.Event{
			Type:    events.EventMailSent,
			ActorID: actor.ID,
			Payload: events.MailSentPayload{
				MailID:       mail.ID,
				SenderID:     actor.ID,
				SenderName:   actor.FullName(),
				Subject:      mail.Subject,
				RecipientIDs: ids,
			},
		})
		s.logger.Info("mail sent", zap.String("mail_id", mail.ID), zap.Int("recipients", len(ids)))
	}
	return mail, nil
}

// Inbox lists mail addressed to the caller, newest first.
func (s *MailService) Inbox(ctx context.Context, actor *domain.Employee, limit, offset int) ([]domain.MailSummary, error) {
	summaries, err := s.mails.Inbox(ctx, actor.ID, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range summaries {
		summaries[i].Mail = summaries[i].Mail.ViewFor(actor.ID)
	}
	return summaries, nil
}

// Sent lists mail and drafts written by the caller.
func (s *MailService) Sent(ctx context.Context, actor *domain.Employee, limit, offset int) ([]domain.Mail, error) {
	return s.mails.Sent(ctx, actor.ID, limit, offset)
}

// View opens a mail and marks the caller's copy as read. Blind copies are
// hidden from everyone but the sender.
func (s *MailService) View(ctx context.Context, actor *domain.Employee, id string) (*domain.Mail, error) {
	mail, err := s.mails.GetByID(ctx, id)
	if err != nil {
		return nil, notFound(err, "mail")
	}
	if !mail.VisibleTo(actor.ID) {
		return nil, apperrors.NewNotFound("mail", nil)
	}
	if r, ok := mail.RecipientFor(actor.ID); ok && r.ReadAt == nil && !mail.Draft {
		now := s.now()
		if err := s.mails.MarkRead(ctx, mail.ID, actor.ID, now); err != nil && !apperrors.IsNotFound(err) {
			return nil, err
		}
		r.ReadAt = &now
	}
	view := mail.ViewFor(actor.ID)
	return &view, nil
}

// Delete removes the mail from the caller's mailbox only.
func (s *MailService) Delete(ctx context.Context, actor *domain.Employee, id string) error {
	mail, err := s.mails.GetByID(ctx, id)
	if err != nil {
		return notFound(err, "mail")
	}
	if !mail.VisibleTo(actor.ID) {
		return apperrors.NewNotFound("mail", nil)
	}
	if mail.SenderID == actor.ID {
		if err := s.mails.DeleteForSender(ctx, mail.ID); err != nil {
			return notFound(err, "mail")
		}
	}
	if _, ok := mail.RecipientFor(actor.ID); ok {
		if err := s.mails.DeleteForRecipient(ctx, mail.ID, actor.ID, s.now()); err != nil {
			return notFound(err, "mail")
		}
	}
	return nil
}

// UnreadCount returns the number of unread inbox mails.
func (s *MailService) UnreadCount(ctx context.Context, actor *domain.Employee) (int, error) {
	return s.mails.CountUnread(ctx, actor.ID)
}

// mergeRecipients deduplicates addressees, keeping the most visible kind
// when an employee is listed more than once.
func mergeRecipients(to, cc, bcc []string) []domain.MailRecipient {
	var out []domain.MailRecipient
	seen := map[string]struct{}{}
	for _, group := range []struct {
		ids  []string
		kind domain.RecipientKind
	}{
		{to, domain.RecipientTo},
		{cc, domain.RecipientCC},
		{bcc, domain.RecipientBCC},
	} {
		for _, id := range group.ids {
			id = strings.TrimSpace(id)
			if id == "" {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, domain.MailRecipient{EmployeeID: id, Kind: group.kind})
		}
	}
	return out
}

func hasKind(recipients []domain.MailRecipient, kind domain.RecipientKind) bool {
	for _, r := range recipients {
		if r.Kind == kind {
			return true
		}
	}
	return false
}
