package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// PasswordResetRepository manages password reset token persistence.
type PasswordResetRepository interface {
	Create(ctx context.Context, reset *domain.PasswordReset) error
	GetByTokenHash(ctx context.Context, hash string) (*domain.PasswordReset, error)
	MarkUsed(ctx context.Context, id string) error
}

type passwordResetRepository struct {
	db persistence.DBTX
}

// NewPasswordResetRepository constructs repository.
func NewPasswordResetRepository(db persistence.DBTX) PasswordResetRepository {
	return &passwordResetRepository{db: db}
}

func (r *passwordResetRepository) Create(ctx context.Context, reset *domain.PasswordReset) error {
	const query = `
        INSERT INTO password_resets (employee_id, token_hash, expires_at)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		reset.EmployeeID,
		reset.TokenHash,
		reset.ExpiresAt,
	).Scan(&reset.ID, &reset.CreatedAt)
}

func (r *passwordResetRepository) GetByTokenHash(ctx context.Context, hash string) (*domain.PasswordReset, error) {
	const query = `
        SELECT id, employee_id, token_hash, expires_at, used_at, created_at
        FROM password_resets WHERE token_hash=$1`
	var reset domain.PasswordReset
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, hash).Scan(
		&reset.ID,
		&reset.EmployeeID,
		&reset.TokenHash,
		&reset.ExpiresAt,
		&reset.UsedAt,
		&reset.CreatedAt,
	); err != nil {
		return nil, err
	}
	return &reset, nil
}

func (r *passwordResetRepository) MarkUsed(ctx context.Context, id string) error {
	const query = `
        UPDATE password_resets SET used_at=NOW()
        WHERE id=$1 AND used_at IS NULL`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
