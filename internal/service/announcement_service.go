package service

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

const audiencePageSize = 500

// AnnouncementService publishes department announcements and newsletters
// and notifies their readers.
type AnnouncementService struct {
	announcements repository.AnnouncementRepository
	employees     repository.EmployeeRepository
	org           repository.OrgRepository
	notifier      Notifier
	tx            persistence.Transactor
	logger        *zap.Logger
	now           func() time.Time
}

// AnnouncementDependencies bundles collaborators for the announcement service.
type AnnouncementDependencies struct {
	AnnouncementRepo repository.AnnouncementRepository
	EmployeeRepo     repository.EmployeeRepository
	OrgRepo          repository.OrgRepository
	Notifier         Notifier
	Transactor       persistence.Transactor
	Logger           *zap.Logger
	Clock            func() time.Time
}

// AnnouncementInput is a new announcement. A nil DepartmentID addresses the
// whole organisation, which only the DG may do.
type AnnouncementInput struct {
	DepartmentID *string
	Title        string
	Content      string
}

// NewsletterInput is a new newsletter, optionally published immediately.
type NewsletterInput struct {
	Title         string
	Content       string
	DepartmentIDs []string
	Publish       bool
}

// NewAnnouncementService constructs the service.
func NewAnnouncementService(deps AnnouncementDependencies) *AnnouncementService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AnnouncementService{
		announcements: deps.AnnouncementRepo,
		employees:     deps.EmployeeRepo,
		org:           deps.OrgRepo,
		notifier:      deps.Notifier,
		tx:            deps.Transactor,
		logger:        logger,
		now:           clockOrDefault(deps.Clock),
	}
}

// Create posts an announcement and notifies everyone it reaches.
func (s *AnnouncementService) Create(ctx context.Context, actor *domain.Employee, input AnnouncementInput) (*domain.Announcement, error) {
	a := &domain.Announcement{
		DepartmentID: trimPtr(input.DepartmentID),
		Title:        strings.TrimSpace(input.Title),
		Content:      strings.TrimSpace(input.Content),
		AuthorID:     actor.ID,
		Active:       true,
	}
	errs := fieldErrors{}
	if a.Title == "" {
		errs.add("title", "is required")
	}
	if a.Content == "" {
		errs.add("content", "is required")
	}
	if err := errs.err("invalid announcement"); err != nil {
		return nil, err
	}

	switch actor.Role {
	case domain.RoleDirectorGeneral:
	case domain.RoleDirector:
		if a.DepartmentID == nil {
			a.DepartmentID = actor.DepartmentID
		}
		if !canManage(actor, a.DepartmentID) {
			return nil, apperrors.NewForbidden("directors can only announce to their own department")
		}
	default:
		return nil, apperrors.NewForbidden("only the DG and directors can post announcements")
	}
	if a.DepartmentID != nil {
		if err := s.requireDepartment(ctx, *a.DepartmentID, "department_id"); err != nil {
			return nil, err
		}
	}

	if err := s.announcements.CreateAnnouncement(ctx, a); err != nil {
		return nil, err
	}
	s.logger.Info("announcement posted", zap.String("announcement_id", a.ID), zap.Stringp("department_id", a.DepartmentID))

	var departments []string
	if a.DepartmentID != nil {
		departments = []string{*a.DepartmentID}
	}
	s.broadcast(ctx, actor.ID, departments, NotifyInput{
		Type:    domain.NotificationAnnouncement,
		Title:   a.Title,
		Message: a.Content,
		Link:    "/announcements/" + a.ID,
	})
	return a, nil
}

// List returns active announcements for the caller's department and the
// whole organisation, newest first. The DG sees every department.
func (s *AnnouncementService) List(ctx context.Context, actor *domain.Employee, limit, offset int) ([]domain.Announcement, error) {
	return s.announcements.ListAnnouncements(ctx, readerFilter(actor, limit, offset))
}

// Deactivate withdraws an announcement. Authors and the DG only.
func (s *AnnouncementService) Deactivate(ctx context.Context, actor *domain.Employee, id string) error {
	a, err := s.announcements.GetAnnouncement(ctx, id)
	if err != nil {
		return notFound(err, "announcement")
	}
	if a.AuthorID != actor.ID && actor.Role != domain.RoleDirectorGeneral {
		return apperrors.NewForbidden("only the author or the DG can withdraw an announcement")
	}
	if !a.Active {
		return apperrors.NewConflict("announcement is already withdrawn", nil)
	}
	return notFound(s.announcements.DeactivateAnnouncement(ctx, a.ID, s.now()), "announcement")
}

// CreateNewsletter stores a newsletter as a draft or publishes it straight
// away.
func (s *AnnouncementService) CreateNewsletter(ctx context.Context, actor *domain.Employee, input NewsletterInput) (*domain.Newsletter, error) {
	if !isManager(actor.Role) {
		return nil, apperrors.NewForbidden("only the DG and directors can write newsletters")
	}
	n := &domain.Newsletter{
		Title:    strings.TrimSpace(input.Title),
		Content:  strings.TrimSpace(input.Content),
		AuthorID: actor.ID,
	}
	seen := map[string]struct{}{}
	for _, id := range input.DepartmentIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; dup || id == "" {
			continue
		}
		seen[id] = struct{}{}
		n.DepartmentIDs = append(n.DepartmentIDs, id)
	}

	errs := fieldErrors{}
	if n.Title == "" {
		errs.add("title", "is required")
	}
	if n.Content == "" {
		errs.add("content", "is required")
	}
	if err := errs.err("invalid newsletter"); err != nil {
		return nil, err
	}
	if actor.Role == domain.RoleDirector {
		if len(n.DepartmentIDs) == 0 && actor.DepartmentID != nil {
			n.DepartmentIDs = []string{*actor.DepartmentID}
		}
		for _, id := range n.DepartmentIDs {
			if !canManage(actor, &id) {
				return nil, apperrors.NewForbidden("directors can only address their own department")
			}
		}
	}
	if input.Publish {
		now := s.now()
		n.PublishedAt = &now
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		for _, id := range n.DepartmentIDs {
			if err := s.requireDepartment(ctx, id, "department_ids"); err != nil {
				return err
			}
		}
		return s.announcements.CreateNewsletter(ctx, n)
	})
	if err != nil {
		return nil, err
	}
	if n.Published() {
		s.announceNewsletter(ctx, actor.ID, n)
	}
	return n, nil
}

// PublishNewsletter sends out a draft. Authors and the DG only.
func (s *AnnouncementService) PublishNewsletter(ctx context.Context, actor *domain.Employee, id string) (*domain.Newsletter, error) {
	n, err := s.announcements.GetNewsletter(ctx, id)
	if err != nil {
		return nil, notFound(err, "newsletter")
	}
	if n.AuthorID != actor.ID && actor.Role != domain.RoleDirectorGeneral {
		return nil, apperrors.NewForbidden("only the author or the DG can publish a newsletter")
	}
	if n.Published() {
		return nil, apperrors.NewConflict("newsletter is already published", map[string]any{"published_at": n.PublishedAt})
	}
	now := s.now()
	if err := s.announcements.PublishNewsletter(ctx, n.ID, now); err != nil {
		if apperrors.IsNotFound(err) {
			return nil, apperrors.NewConflict("newsletter is already published", nil)
		}
		return nil, err
	}
	n.PublishedAt = &now
	s.announceNewsletter(ctx, actor.ID, n)
	return n, nil
}

// ListNewsletters returns published newsletters addressed to the caller,
// newest first.
func (s *AnnouncementService) ListNewsletters(ctx context.Context, actor *domain.Employee, limit, offset int) ([]domain.Newsletter, error) {
	return s.announcements.ListPublishedNewsletters(ctx, readerFilter(actor, limit, offset))
}

func readerFilter(actor *domain.Employee, limit, offset int) repository.AnnouncementFilter {
	return repository.AnnouncementFilter{
		All:          actor.Role == domain.RoleDirectorGeneral,
		DepartmentID: actor.DepartmentID,
		Limit:        limit,
		Offset:       offset,
	}
}

func (s *AnnouncementService) requireDepartment(ctx context.Context, id, field string) error {
	dept, err := s.org.GetDepartmentByID(ctx, id)
	if err != nil && !apperrors.IsNotFound(err) {
		return err
	}
	if err != nil || !dept.Active {
		return apperrors.NewValidationError("unknown department", map[string]any{field: "unknown or inactive department " + id})
	}
	return nil
}

func (s *AnnouncementService) announceNewsletter(ctx context.Context, authorID string, n *domain.Newsletter) {
	s.logger.Info("newsletter published", zap.String("newsletter_id", n.ID), zap.Strings("department_ids", n.DepartmentIDs))
	s.broadcast(ctx, authorID, n.DepartmentIDs, NotifyInput{
		Type:    domain.NotificationAnnouncement,
		Title:   "Newsletter: " + n.Title,
		Message: n.Title,
		Link:    "/newsletters/" + n.ID,
	})
}

// broadcast notifies every active employee of the listed departments, or
// of the whole organisation when none are listed. The author is skipped.
func (s *AnnouncementService) broadcast(ctx context.Context, authorID string, departmentIDs []string, input NotifyInput) {
	if s.notifier == nil {
		return
	}
	scopes := []domain.Scope{{All: true}}
	if len(departmentIDs) > 0 {
		scopes = scopes[:0]
		for i := range departmentIDs {
			scopes = append(scopes, domain.Scope{DepartmentID: &departmentIDs[i]})
		}
	}

	active := true
	sent := 0
	for _, scope := range scopes {
		for offset := 0; ; offset += audiencePageSize {
			batch, err := s.employees.List(ctx, repository.EmployeeFilter{Scope: scope, Active: &active, Limit: audiencePageSize, Offset: offset})
			if err != nil {
				s.logger.Warn("announcement audience lookup failed", zap.Error(err))
				return
			}
			for _, e := range batch {
				if e.ID == authorID {
					continue
				}
				note := input
				note.RecipientID = e.ID
				if _, err := s.notifier.Notify(ctx, note); err != nil {
					s.logger.Warn("announcement notification failed", zap.String("recipient_id", e.ID), zap.Error(err))
					continue
				}
				sent++
			}
			if len(batch) < audiencePageSize {
				break
			}
		}
	}
	s.logger.Debug("announcement delivered", zap.String("title", input.Title), zap.Int("recipients", sent))
}
