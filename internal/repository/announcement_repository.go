package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// AnnouncementRepository persists department announcements and newsletters.
type AnnouncementRepository interface {
	CreateAnnouncement(ctx context.Context, a *domain.Announcement) error
	GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error)
	ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]domain.Announcement, error)
	DeactivateAnnouncement(ctx context.Context, id string, at time.Time) error

	CreateNewsletter(ctx context.Context, n *domain.Newsletter) error
	GetNewsletter(ctx context.Context, id string) (*domain.Newsletter, error)
	PublishNewsletter(ctx context.Context, id string, at time.Time) error
	ListPublishedNewsletters(ctx context.Context, filter AnnouncementFilter) ([]domain.Newsletter, error)
}

// AnnouncementFilter selects what a reader sees. All skips the department
// filter; otherwise rows for DepartmentID and organisation-wide rows match.
type AnnouncementFilter struct {
	All          bool
	DepartmentID *string
	Limit        int
	Offset       int
}

const newsletterSelect = `
        SELECT n.id, n.title, n.content, n.author_id, n.published_at, n.created_at,
               COALESCE(array_agg(nd.department_id::text ORDER BY nd.department_id)
                        FILTER (WHERE nd.department_id IS NOT NULL), '{}')
        FROM newsletters n LEFT JOIN newsletter_departments nd ON nd.newsletter_id = n.id`

type announcementRepository struct {
	db persistence.DBTX
}

// NewAnnouncementRepository instantiates repository.
func NewAnnouncementRepository(db persistence.DBTX) AnnouncementRepository {
	return &announcementRepository{db: db}
}

func (r *announcementRepository) CreateAnnouncement(ctx context.Context, a *domain.Announcement) error {
	const query = `
        INSERT INTO announcements (department_id, title, content, author_id, is_active)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		a.DepartmentID, a.Title, a.Content, a.AuthorID, a.Active,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
}

func (r *announcementRepository) GetAnnouncement(ctx context.Context, id string) (*domain.Announcement, error) {
	const query = `
        SELECT id, department_id, title, content, author_id, is_active, created_at, updated_at
        FROM announcements WHERE id=$1`
	var a domain.Announcement
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, id).Scan(
		&a.ID, &a.DepartmentID, &a.Title, &a.Content, &a.AuthorID, &a.Active, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *announcementRepository) ListAnnouncements(ctx context.Context, filter AnnouncementFilter) ([]domain.Announcement, error) {
	w := &where{}
	w.raw("is_active")
	audience(w, filter, "department_id")
	query := `
        SELECT id, department_id, title, content, author_id, is_active, created_at, updated_at
        FROM announcements` + w.String() + ` ORDER BY created_at DESC, id` + page(filter.Limit, filter.Offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Announcement
	for rows.Next() {
		var a domain.Announcement
		if err := rows.Scan(&a.ID, &a.DepartmentID, &a.Title, &a.Content, &a.AuthorID, &a.Active,
			&a.CreatedAt, &a.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *announcementRepository) DeactivateAnnouncement(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE announcements SET is_active=FALSE, updated_at=$1 WHERE id=$2 AND is_active`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, at, id)
}

func (r *announcementRepository) CreateNewsletter(ctx context.Context, n *domain.Newsletter) error {
	const insertNewsletter = `
        INSERT INTO newsletters (title, content, author_id, published_at)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	const insertDepartment = `INSERT INTO newsletter_departments (newsletter_id, department_id) VALUES ($1,$2)`

	db := persistence.Conn(ctx, r.db)
	if err := db.QueryRow(ctx, insertNewsletter, n.Title, n.Content, n.AuthorID, n.PublishedAt).Scan(&n.ID, &n.CreatedAt); err != nil {
		return err
	}
	for _, id := range n.DepartmentIDs {
		if _, err := db.Exec(ctx, insertDepartment, n.ID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *announcementRepository) GetNewsletter(ctx context.Context, id string) (*domain.Newsletter, error) {
	query := newsletterSelect + ` WHERE n.id=$1 GROUP BY n.id`
	return scanNewsletter(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *announcementRepository) PublishNewsletter(ctx context.Context, id string, at time.Time) error {
	const query = `UPDATE newsletters SET published_at=$1 WHERE id=$2 AND published_at IS NULL`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, at, id)
}

func (r *announcementRepository) ListPublishedNewsletters(ctx context.Context, filter AnnouncementFilter) ([]domain.Newsletter, error) {
	w := &where{}
	w.raw("n.published_at IS NOT NULL")
	if !filter.All {
		if filter.DepartmentID != nil {
			w.add(`(NOT EXISTS (SELECT 1 FROM newsletter_departments x WHERE x.newsletter_id = n.id)
              OR EXISTS (SELECT 1 FROM newsletter_departments x WHERE x.newsletter_id = n.id AND x.department_id=$%d))`, *filter.DepartmentID)
		} else {
			w.raw("NOT EXISTS (SELECT 1 FROM newsletter_departments x WHERE x.newsletter_id = n.id)")
		}
	}
	query := newsletterSelect + w.String() + ` GROUP BY n.id ORDER BY n.published_at DESC, n.id` + page(filter.Limit, filter.Offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Newsletter
	for rows.Next() {
		n, err := scanNewsletter(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *n)
	}
	return out, rows.Err()
}

// audience narrows rows to the reader's department plus organisation-wide
// rows, whose column is NULL.
func audience(w *where, filter AnnouncementFilter, column string) {
	switch {
	case filter.All:
	case filter.DepartmentID != nil:
		w.add("("+column+" IS NULL OR "+column+"=$%d)", *filter.DepartmentID)
	default:
		w.raw(column + " IS NULL")
	}
}

func scanNewsletter(row pgx.Row) (*domain.Newsletter, error) {
	var n domain.Newsletter
	if err := row.Scan(&n.ID, &n.Title, &n.Content, &n.AuthorID, &n.PublishedAt, &n.CreatedAt, &n.DepartmentIDs); err != nil {
		return nil, err
	}
	return &n, nil
}
