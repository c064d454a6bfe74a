package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// ProjectRepository persists projects, status history and milestones.
type ProjectRepository interface {
	Create(ctx context.Context, p *domain.Project) error
	Update(ctx context.Context, p *domain.Project) error
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error)
	CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.ProjectStatus]int, error)

	CreateStatusUpdate(ctx context.Context, u *domain.ProjectStatusUpdate) error
	ListStatusUpdates(ctx context.Context, projectID string) ([]domain.ProjectStatusUpdate, error)

	CreateMilestone(ctx context.Context, m *domain.Milestone) error
	GetMilestone(ctx context.Context, projectID, milestoneID string) (*domain.Milestone, error)
	CompleteMilestone(ctx context.Context, m *domain.Milestone) error
	ListMilestones(ctx context.Context, projectID string) ([]domain.Milestone, error)
}

// ProjectFilter narrows project listings.
type ProjectFilter struct {
	Status       *domain.ProjectStatus
	DepartmentID *string
	StateCode    *string
	ManagerID    *string
	Limit        int
	Offset       int
}

const projectColumns = `p.id, p.name, p.description, p.department_id, p.state_code, p.manager_id,
        p.start_date, p.end_date, p.status, p.budget, p.created_at, p.updated_at`

type projectRepository struct {
	db persistence.DBTX
}

// NewProjectRepository instantiates repository.
func NewProjectRepository(db persistence.DBTX) ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) Create(ctx context.Context, p *domain.Project) error {
	const query = `
        INSERT INTO projects (name, description, department_id, state_code, manager_id, start_date, end_date, status, budget)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		p.Name, p.Description, p.DepartmentID, p.StateCode, p.ManagerID, p.StartDate, p.EndDate, p.Status, p.Budget,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (r *projectRepository) Update(ctx context.Context, p *domain.Project) error {
	const query = `
        UPDATE projects
        SET name=$1, description=$2, department_id=$3, state_code=$4, manager_id=$5,
            start_date=$6, end_date=$7, status=$8, budget=$9, updated_at=NOW()
        WHERE id=$10
        RETURNING updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		p.Name, p.Description, p.DepartmentID, p.StateCode, p.ManagerID,
		p.StartDate, p.EndDate, p.Status, p.Budget, p.ID,
	).Scan(&p.UpdatedAt)
}

func (r *projectRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	query := `SELECT ` + projectColumns + ` FROM projects p WHERE p.id=$1`
	return scanProject(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *projectRepository) List(ctx context.Context, filter ProjectFilter) ([]domain.Project, error) {
	w := &where{}
	if filter.Status != nil {
		w.add("p.status=$%d", *filter.Status)
	}
	if filter.DepartmentID != nil {
		w.add("p.department_id=$%d", *filter.DepartmentID)
	}
	if filter.StateCode != nil {
		w.add("p.state_code=$%d", *filter.StateCode)
	}
	if filter.ManagerID != nil {
		w.add("p.manager_id=$%d", *filter.ManagerID)
	}
	query := `SELECT ` + projectColumns + ` FROM projects p` + w.String() +
		` ORDER BY p.start_date DESC, p.created_at DESC` + page(filter.Limit, filter.Offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// CountByStatus counts projects whose manager falls within scope.
func (r *projectRepository) CountByStatus(ctx context.Context, scope domain.Scope) (map[domain.ProjectStatus]int, error) {
	w := &where{}
	w.scope(scope, "e.")
	query := `SELECT p.status, COUNT(*) FROM projects p JOIN employees e ON e.id = p.manager_id` +
		w.String() + ` GROUP BY p.status`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.ProjectStatus]int)
	for rows.Next() {
		var status domain.ProjectStatus
		var n int
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		out[status] = n
	}
	return out, rows.Err()
}

func (r *projectRepository) CreateStatusUpdate(ctx context.Context, u *domain.ProjectStatusUpdate) error {
	const query = `
        INSERT INTO project_status_updates (project_id, old_status, new_status, note, updated_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		u.ProjectID, u.OldStatus, u.NewStatus, u.Note, u.UpdatedBy,
	).Scan(&u.ID, &u.CreatedAt)
}

func (r *projectRepository) ListStatusUpdates(ctx context.Context, projectID string) ([]domain.ProjectStatusUpdate, error) {
	const query = `
        SELECT id, project_id, old_status, new_status, note, updated_by, created_at
        FROM project_status_updates WHERE project_id=$1 ORDER BY created_at DESC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ProjectStatusUpdate
	for rows.Next() {
		var u domain.ProjectStatusUpdate
		if err := rows.Scan(&u.ID, &u.ProjectID, &u.OldStatus, &u.NewStatus, &u.Note, &u.UpdatedBy, &u.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, u)
	}
	return out, rows.Err()
}

func (r *projectRepository) CreateMilestone(ctx context.Context, m *domain.Milestone) error {
	const query = `
        INSERT INTO milestones (project_id, name, due_date, completed_date)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, m.ProjectID, m.Name, m.DueDate, m.CompletedDate).
		Scan(&m.ID, &m.CreatedAt)
}

func (r *projectRepository) GetMilestone(ctx context.Context, projectID, milestoneID string) (*domain.Milestone, error) {
	const query = `SELECT id, project_id, name, due_date, completed_date, created_at FROM milestones WHERE project_id=$1 AND id=$2`
	var m domain.Milestone
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, projectID, milestoneID).
		Scan(&m.ID, &m.ProjectID, &m.Name, &m.DueDate, &m.CompletedDate, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *projectRepository) CompleteMilestone(ctx context.Context, m *domain.Milestone) error {
	const query = `UPDATE milestones SET completed_date=$1 WHERE id=$2`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, m.CompletedDate, m.ID)
}

func (r *projectRepository) ListMilestones(ctx context.Context, projectID string) ([]domain.Milestone, error) {
	const query = `SELECT id, project_id, name, due_date, completed_date, created_at FROM milestones WHERE project_id=$1 ORDER BY due_date`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, projectID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Milestone
	for rows.Next() {
		var m domain.Milestone
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Name, &m.DueDate, &m.CompletedDate, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func scanProject(row pgx.Row) (*domain.Project, error) {
	var p domain.Project
	if err := row.Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&p.DepartmentID,
		&p.StateCode,
		&p.ManagerID,
		&p.StartDate,
		&p.EndDate,
		&p.Status,
		&p.Budget,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &p, nil
}
