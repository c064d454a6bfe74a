package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// LeaveRepository persists leave requests.
type LeaveRepository interface {
	Create(ctx context.Context, l *domain.LeaveRequest) error
	UpdateStatus(ctx context.Context, l *domain.LeaveRequest) error
	GetByID(ctx context.Context, id string) (*domain.LeaveRequest, error)
	List(ctx context.Context, filter LeaveFilter) ([]domain.LeaveRequest, error)
	ListOpenByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveRequest, error)
	CountPending(ctx context.Context, scope domain.Scope) (int, error)
}

// LeaveFilter narrows leave listings. Scope applies to the owning employee.
type LeaveFilter struct {
	Scope      domain.Scope
	EmployeeID *string
	Status     *domain.LeaveStatus
	Limit      int
	Offset     int
}

const leaveColumns = `l.id, l.employee_id, l.leave_type, l.start_date, l.end_date, l.reason, l.status,
        l.decided_by, l.decided_at, l.decision_comment, l.created_at, l.updated_at`

type leaveRepository struct {
	db persistence.DBTX
}

// NewLeaveRepository instantiates repository.
func NewLeaveRepository(db persistence.DBTX) LeaveRepository {
	return &leaveRepository{db: db}
}

func (r *leaveRepository) Create(ctx context.Context, l *domain.LeaveRequest) error {
	const query = `
        INSERT INTO leave_requests (employee_id, leave_type, start_date, end_date, reason, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		l.EmployeeID, l.LeaveType, l.StartDate, l.EndDate, l.Reason, l.Status,
	).Scan(&l.ID, &l.CreatedAt, &l.UpdatedAt)
}

func (r *leaveRepository) UpdateStatus(ctx context.Context, l *domain.LeaveRequest) error {
	const query = `
        UPDATE leave_requests
        SET status=$1, decided_by=$2, decided_at=$3, decision_comment=$4, updated_at=NOW()
        WHERE id=$5
        RETURNING updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		l.Status, l.DecidedBy, l.DecidedAt, l.DecisionComment, l.ID,
	).Scan(&l.UpdatedAt)
}

func (r *leaveRepository) GetByID(ctx context.Context, id string) (*domain.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests l WHERE l.id=$1`
	return scanLeave(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *leaveRepository) List(ctx context.Context, filter LeaveFilter) ([]domain.LeaveRequest, error) {
	w := &where{}
	w.raw("e.deleted_at IS NULL")
	w.scope(filter.Scope, "e.")
	if filter.EmployeeID != nil {
		w.add("l.employee_id=$%d", *filter.EmployeeID)
	}
	if filter.Status != nil {
		w.add("l.status=$%d", *filter.Status)
	}
	query := `SELECT ` + leaveColumns + ` FROM leave_requests l JOIN employees e ON e.id = l.employee_id` +
		w.String() + ` ORDER BY l.created_at DESC` + page(filter.Limit, filter.Offset)
	return r.queryLeaves(ctx, query, w.args...)
}

func (r *leaveRepository) ListOpenByEmployee(ctx context.Context, employeeID string) ([]domain.LeaveRequest, error) {
	query := `SELECT ` + leaveColumns + ` FROM leave_requests l
        WHERE l.employee_id=$1 AND l.status IN ('pending','approved')
        ORDER BY l.start_date`
	return r.queryLeaves(ctx, query, employeeID)
}

func (r *leaveRepository) CountPending(ctx context.Context, scope domain.Scope) (int, error) {
	w := &where{}
	w.raw("l.status='pending'")
	w.raw("e.deleted_at IS NULL")
	w.scope(scope, "e.")
	query := `SELECT COUNT(*) FROM leave_requests l JOIN employees e ON e.id = l.employee_id` + w.String()
	var n int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, w.args...).Scan(&n)
	return n, err
}

func (r *leaveRepository) queryLeaves(ctx context.Context, query string, args ...any) ([]domain.LeaveRequest, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LeaveRequest
	for rows.Next() {
		l, err := scanLeave(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *l)
	}
	return out, rows.Err()
}

func scanLeave(row pgx.Row) (*domain.LeaveRequest, error) {
	var l domain.LeaveRequest
	if err := row.Scan(
		&l.ID,
		&l.EmployeeID,
		&l.LeaveType,
		&l.StartDate,
		&l.EndDate,
		&l.Reason,
		&l.Status,
		&l.DecidedBy,
		&l.DecidedAt,
		&l.DecisionComment,
		&l.CreatedAt,
		&l.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &l, nil
}
