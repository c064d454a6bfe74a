package repository

import (
	"context"
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// MailRepository persists internal mail and per-recipient state.
type MailRepository interface {
	Create(ctx context.Context, m *domain.Mail) error
	GetByID(ctx context.Context, id string) (*domain.Mail, error)
	Inbox(ctx context.Context, employeeID string, limit, offset int) ([]domain.MailSummary, error)
	Sent(ctx context.Context, employeeID string, limit, offset int) ([]domain.Mail, error)
	MarkRead(ctx context.Context, mailID, employeeID string, at time.Time) error
	DeleteForRecipient(ctx context.Context, mailID, employeeID string, at time.Time) error
	DeleteForSender(ctx context.Context, mailID string) error
	CountUnread(ctx context.Context, employeeID string) (int, error)
}

const mailColumns = `m.id, m.sender_id, m.subject, m.body, m.parent_id, m.draft, m.sender_deleted, m.created_at`

type mailRepository struct {
	db persistence.DBTX
}

// NewMailRepository instantiates repository.
func NewMailRepository(db persistence.DBTX) MailRepository {
	return &mailRepository{db: db}
}

// Create stores the mail and its recipient rows. Callers wrap it in a
// transaction.
func (r *mailRepository) Create(ctx context.Context, m *domain.Mail) error {
	const insertMail = `
        INSERT INTO mails (sender_id, subject, body, parent_id, draft)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	const insertRecipient = `
        INSERT INTO mail_recipients (mail_id, employee_id, kind)
        VALUES ($1,$2,$3)`

	db := persistence.Conn(ctx, r.db)
	if err := db.QueryRow(ctx, insertMail, m.SenderID, m.Subject, m.Body, m.ParentID, m.Draft).
		Scan(&m.ID, &m.CreatedAt); err != nil {
		return err
	}
	for i := range m.Recipients {
		m.Recipients[i].MailID = m.ID
		if _, err := db.Exec(ctx, insertRecipient, m.ID, m.Recipients[i].EmployeeID, m.Recipients[i].Kind); err != nil {
			return err
		}
	}
	return nil
}

func (r *mailRepository) GetByID(ctx context.Context, id string) (*domain.Mail, error) {
	db := persistence.Conn(ctx, r.db)
	query := `SELECT ` + mailColumns + ` FROM mails m WHERE m.id=$1`
	var m domain.Mail
	if err := db.QueryRow(ctx, query, id).Scan(
		&m.ID, &m.SenderID, &m.Subject, &m.Body, &m.ParentID, &m.Draft, &m.SenderDeleted, &m.CreatedAt,
	); err != nil {
		return nil, err
	}

	const recipients = `
        SELECT mail_id, employee_id, kind, read_at, deleted_at
        FROM mail_recipients WHERE mail_id=$1 ORDER BY kind, employee_id`
	rows, err := db.Query(ctx, recipients, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var rc domain.MailRecipient
		if err := rows.Scan(&rc.MailID, &rc.EmployeeID, &rc.Kind, &rc.ReadAt, &rc.DeletedAt); err != nil {
			return nil, err
		}
		m.Recipients = append(m.Recipients, rc)
	}
	return &m, rows.Err()
}

func (r *mailRepository) Inbox(ctx context.Context, employeeID string, limit, offset int) ([]domain.MailSummary, error) {
	query := `SELECT ` + mailColumns + `, r.read_at IS NULL
        FROM mails m JOIN mail_recipients r ON r.mail_id = m.id
        WHERE r.employee_id=$1 AND r.deleted_at IS NULL AND NOT m.draft
        ORDER BY m.created_at DESC` + page(limit, offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.MailSummary
	for rows.Next() {
		var s domain.MailSummary
		m := &s.Mail
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Subject, &m.Body, &m.ParentID, &m.Draft, &m.SenderDeleted,
			&m.CreatedAt, &s.Unread); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *mailRepository) Sent(ctx context.Context, employeeID string, limit, offset int) ([]domain.Mail, error) {
	query := `SELECT ` + mailColumns + ` FROM mails m
        WHERE m.sender_id=$1 AND NOT m.sender_deleted
        ORDER BY m.created_at DESC` + page(limit, offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Mail
	for rows.Next() {
		var m domain.Mail
		if err := rows.Scan(&m.ID, &m.SenderID, &m.Subject, &m.Body, &m.ParentID, &m.Draft, &m.SenderDeleted,
			&m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (r *mailRepository) MarkRead(ctx context.Context, mailID, employeeID string, at time.Time) error {
	const query = `UPDATE mail_recipients SET read_at=$1 WHERE mail_id=$2 AND employee_id=$3 AND read_at IS NULL`
	_, err := persistence.Conn(ctx, r.db).Exec(ctx, query, at, mailID, employeeID)
	return err
}

func (r *mailRepository) DeleteForRecipient(ctx context.Context, mailID, employeeID string, at time.Time) error {
	const query = `UPDATE mail_recipients SET deleted_at=$1 WHERE mail_id=$2 AND employee_id=$3 AND deleted_at IS NULL`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, at, mailID, employeeID)
}

func (r *mailRepository) DeleteForSender(ctx context.Context, mailID string) error {
	const query = `UPDATE mails SET sender_deleted=TRUE WHERE id=$1 AND NOT sender_deleted`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, mailID)
}

func (r *mailRepository) CountUnread(ctx context.Context, employeeID string) (int, error) {
	const query = `
        SELECT COUNT(*) FROM mail_recipients r JOIN mails m ON m.id = r.mail_id
        WHERE r.employee_id=$1 AND r.read_at IS NULL AND r.deleted_at IS NULL AND NOT m.draft`
	var n int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, employeeID).Scan(&n)
	return n, err
}
