package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// TaskRepository persists tasks and their subtasks.
type TaskRepository interface {
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	List(ctx context.Context, filter TaskFilter) ([]domain.Task, error)
	ListOverdue(ctx context.Context, now time.Time) ([]domain.Task, error)
	CountOpenForAssignee(ctx context.Context, assigneeID string) (int, error)
	CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.TaskStatus]int, error)

	CreateSubtask(ctx context.Context, s *domain.Subtask) error
	GetSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Subtask, error)
	SetSubtaskCompleted(ctx context.Context, subtaskID string, completed bool) error
	ListSubtasks(ctx context.Context, taskID string) ([]domain.Subtask, error)
}

// TaskFilter narrows task listings.
type TaskFilter struct {
	AssigneeID *string
	AssignerID *string
	Status     *domain.TaskStatus
	Limit      int
	Offset     int
}

const taskColumns = `t.id, t.title, t.description, t.assigner_id, t.assignee_id, t.priority, t.status,
        t.due_date, t.completed_at, t.created_at, t.updated_at`

type taskRepository struct {
	db persistence.DBTX
}

// NewTaskRepository instantiates repository.
func NewTaskRepository(db persistence.DBTX) TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, t *domain.Task) error {
	const query = `
        INSERT INTO tasks (title, description, assigner_id, assignee_id, priority, status, due_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		t.Title, t.Description, t.AssignerID, t.AssigneeID, t.Priority, t.Status, t.DueDate,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
}

func (r *taskRepository) Update(ctx context.Context, t *domain.Task) error {
	const query = `
        UPDATE tasks
        SET title=$1, description=$2, priority=$3, status=$4, due_date=$5, completed_at=$6, updated_at=NOW()
        WHERE id=$7
        RETURNING updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		t.Title, t.Description, t.Priority, t.Status, t.DueDate, t.CompletedAt, t.ID,
	).Scan(&t.UpdatedAt)
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t WHERE t.id=$1`
	return scanTask(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *taskRepository) List(ctx context.Context, filter TaskFilter) ([]domain.Task, error) {
	w := &where{}
	if filter.AssigneeID != nil {
		w.add("t.assignee_id=$%d", *filter.AssigneeID)
	}
	if filter.AssignerID != nil {
		w.add("t.assigner_id=$%d", *filter.AssignerID)
	}
	if filter.Status != nil {
		w.add("t.status=$%d", *filter.Status)
	}
	query := `SELECT ` + taskColumns + ` FROM tasks t` + w.String() +
		` ORDER BY t.due_date, t.created_at` + page(filter.Limit, filter.Offset)
	return r.queryTasks(ctx, query, w.args...)
}

func (r *taskRepository) ListOverdue(ctx context.Context, now time.Time) ([]domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks t
        WHERE t.status IN ('PENDING','IN_PROGRESS') AND t.due_date < $1
        ORDER BY t.due_date`
	return r.queryTasks(ctx, query, now)
}

func (r *taskRepository) CountOpenForAssignee(ctx context.Context, assigneeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM tasks WHERE assignee_id=$1 AND status IN ('PENDING','IN_PROGRESS')`
	var n int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, assigneeID).Scan(&n)
	return n, err
}

func (r *taskRepository) CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.TaskStatus]int, error) {
	w := &where{}
	w.scope(scope, "e.")
	query := `SELECT t.status, COUNT(*) FROM tasks t JOIN employees e ON e.id = t.assignee_id` +
		w.String() + ` GROUP BY t.status`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.TaskStatus]int)
	for rows.Next() {
		var status domain.TaskStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *taskRepository) CreateSubtask(ctx context.Context, s *domain.Subtask) error {
	const query = `
        INSERT INTO subtasks (task_id, title, completed)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, s.TaskID, s.Title, s.Completed).Scan(&s.ID, &s.CreatedAt)
}

func (r *taskRepository) GetSubtask(ctx context.Context, taskID, subtaskID string) (*domain.Subtask, error) {
	const query = `SELECT id, task_id, title, completed, created_at FROM subtasks WHERE task_id=$1 AND id=$2`
	var s domain.Subtask
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, taskID, subtaskID).
		Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *taskRepository) SetSubtaskCompleted(ctx context.Context, subtaskID string, completed bool) error {
	const query = `UPDATE subtasks SET completed=$1 WHERE id=$2`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, completed, subtaskID)
}

func (r *taskRepository) ListSubtasks(ctx context.Context, taskID string) ([]domain.Subtask, error) {
	const query = `SELECT id, task_id, title, completed, created_at FROM subtasks WHERE task_id=$1 ORDER BY created_at`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Subtask
	for rows.Next() {
		var s domain.Subtask
		if err := rows.Scan(&s.ID, &s.TaskID, &s.Title, &s.Completed, &s.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *taskRepository) queryTasks(ctx context.Context, query string, args ...any) ([]domain.Task, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTask(row pgx.Row) (*domain.Task, error) {
	var t domain.Task
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&t.AssignerID,
		&t.AssigneeID,
		&t.Priority,
		&t.Status,
		&t.DueDate,
		&t.CompletedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &t, nil
}
