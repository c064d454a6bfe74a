package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// OrgRepository persists the organisational and geographic hierarchy.
type OrgRepository interface {
	CreateZone(ctx context.Context, z *domain.Zone) error
	UpdateZone(ctx context.Context, z *domain.Zone) error
	GetZone(ctx context.Context, code string) (*domain.Zone, error)
	ListZones(ctx context.Context) ([]domain.Zone, error)

	CreateState(ctx context.Context, s *domain.State) error
	UpdateState(ctx context.Context, s *domain.State) error
	GetState(ctx context.Context, code string) (*domain.State, error)
	ListStates(ctx context.Context, zoneCode *string) ([]domain.State, error)

	CreateLGA(ctx context.Context, l *domain.LGA) error
	ListLGAs(ctx context.Context, stateCode *string) ([]domain.LGA, error)

	CreateDepartment(ctx context.Context, d *domain.Department) error
	UpdateDepartment(ctx context.Context, d *domain.Department) error
	GetDepartment(ctx context.Context, code string) (*domain.Department, error)
	GetDepartmentByID(ctx context.Context, id string) (*domain.Department, error)
	ListDepartments(ctx context.Context, activeOnly bool) ([]domain.Department, error)

	UpsertGradeLevel(ctx context.Context, g *domain.GradeLevel) error
	ListGradeLevels(ctx context.Context) ([]domain.GradeLevel, error)
}

type orgRepository struct {
	db persistence.DBTX
}

// NewOrgRepository instantiates repository.
func NewOrgRepository(db persistence.DBTX) OrgRepository {
	return &orgRepository{db: db}
}

func (r *orgRepository) CreateZone(ctx context.Context, z *domain.Zone) error {
	const query = `
        INSERT INTO zones (code, name, director_id)
        VALUES ($1,$2,$3)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, z.Code, z.Name, z.DirectorID).
		Scan(&z.ID, &z.CreatedAt, &z.UpdatedAt)
}

func (r *orgRepository) UpdateZone(ctx context.Context, z *domain.Zone) error {
	const query = `UPDATE zones SET name=$1, director_id=$2, updated_at=NOW() WHERE code=$3`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, z.Name, z.DirectorID, z.Code)
}

func (r *orgRepository) GetZone(ctx context.Context, code string) (*domain.Zone, error) {
	const query = `SELECT id, code, name, director_id, created_at, updated_at FROM zones WHERE code=$1`
	var z domain.Zone
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, code).
		Scan(&z.ID, &z.Code, &z.Name, &z.DirectorID, &z.CreatedAt, &z.UpdatedAt); err != nil {
		return nil, err
	}
	return &z, nil
}

func (r *orgRepository) ListZones(ctx context.Context) ([]domain.Zone, error) {
	const query = `SELECT id, code, name, director_id, created_at, updated_at FROM zones ORDER BY name`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Zone
	for rows.Next() {
		var z domain.Zone
		if err := rows.Scan(&z.ID, &z.Code, &z.Name, &z.DirectorID, &z.CreatedAt, &z.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, z)
	}
	return out, rows.Err()
}

func (r *orgRepository) CreateState(ctx context.Context, s *domain.State) error {
	const query = `
        INSERT INTO states (code, name, zone_code, coordinator_id)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, s.Code, s.Name, s.ZoneCode, s.CoordinatorID).
		Scan(&s.ID, &s.CreatedAt, &s.UpdatedAt)
}

func (r *orgRepository) UpdateState(ctx context.Context, s *domain.State) error {
	const query = `UPDATE states SET name=$1, zone_code=$2, coordinator_id=$3, updated_at=NOW() WHERE code=$4`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, s.Name, s.ZoneCode, s.CoordinatorID, s.Code)
}

func (r *orgRepository) GetState(ctx context.Context, code string) (*domain.State, error) {
	const query = `SELECT id, code, name, zone_code, coordinator_id, created_at, updated_at FROM states WHERE code=$1`
	var s domain.State
	if err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, code).
		Scan(&s.ID, &s.Code, &s.Name, &s.ZoneCode, &s.CoordinatorID, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *orgRepository) ListStates(ctx context.Context, zoneCode *string) ([]domain.State, error) {
	w := &where{}
	if zoneCode != nil {
		w.add("zone_code=$%d", *zoneCode)
	}
	query := `SELECT id, code, name, zone_code, coordinator_id, created_at, updated_at FROM states` + w.String() + ` ORDER BY name`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.State
	for rows.Next() {
		var s domain.State
		if err := rows.Scan(&s.ID, &s.Code, &s.Name, &s.ZoneCode, &s.CoordinatorID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *orgRepository) CreateLGA(ctx context.Context, l *domain.LGA) error {
	const query = `
        INSERT INTO lgas (code, name, state_code)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, l.Code, l.Name, l.StateCode).Scan(&l.ID, &l.CreatedAt)
}

func (r *orgRepository) ListLGAs(ctx context.Context, stateCode *string) ([]domain.LGA, error) {
	w := &where{}
	if stateCode != nil {
		w.add("state_code=$%d", *stateCode)
	}
	query := `SELECT id, code, name, state_code, created_at FROM lgas` + w.String() + ` ORDER BY name`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.LGA
	for rows.Next() {
		var l domain.LGA
		if err := rows.Scan(&l.ID, &l.Code, &l.Name, &l.StateCode, &l.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

const departmentColumns = `id, code, name, director_id, active_flag, created_at, updated_at`

func (r *orgRepository) CreateDepartment(ctx context.Context, d *domain.Department) error {
	const query = `
        INSERT INTO departments (code, name, director_id, active_flag)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, d.Code, d.Name, d.DirectorID, d.Active).
		Scan(&d.ID, &d.CreatedAt, &d.UpdatedAt)
}

func (r *orgRepository) UpdateDepartment(ctx context.Context, d *domain.Department) error {
	const query = `UPDATE departments SET name=$1, director_id=$2, active_flag=$3, updated_at=NOW() WHERE code=$4`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, d.Name, d.DirectorID, d.Active, d.Code)
}

func (r *orgRepository) GetDepartment(ctx context.Context, code string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE code=$1`
	return scanDepartment(persistence.Conn(ctx, r.db).QueryRow(ctx, query, code))
}

func (r *orgRepository) GetDepartmentByID(ctx context.Context, id string) (*domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments WHERE id=$1`
	return scanDepartment(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *orgRepository) ListDepartments(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	query := `SELECT ` + departmentColumns + ` FROM departments`
	if activeOnly {
		query += ` WHERE active_flag`
	}
	query += ` ORDER BY name`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Department
	for rows.Next() {
		d, err := scanDepartment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *d)
	}
	return out, rows.Err()
}

func (r *orgRepository) UpsertGradeLevel(ctx context.Context, g *domain.GradeLevel) error {
	const query = `
        INSERT INTO grade_levels (level, per_diem, local_running, estacode, assumption_of_duty)
        VALUES ($1,$2,$3,$4,$5)
        ON CONFLICT (level) DO UPDATE
        SET per_diem=EXCLUDED.per_diem, local_running=EXCLUDED.local_running,
            estacode=EXCLUDED.estacode, assumption_of_duty=EXCLUDED.assumption_of_duty, updated_at=NOW()
        RETURNING updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		g.Level, g.PerDiem, g.LocalRunning, g.Estacode, g.AssumptionOfDuty,
	).Scan(&g.UpdatedAt)
}

func (r *orgRepository) ListGradeLevels(ctx context.Context) ([]domain.GradeLevel, error) {
	const query = `
        SELECT level, per_diem, local_running, estacode, assumption_of_duty, updated_at
        FROM grade_levels ORDER BY level`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.GradeLevel
	for rows.Next() {
		var g domain.GradeLevel
		if err := rows.Scan(&g.Level, &g.PerDiem, &g.LocalRunning, &g.Estacode, &g.AssumptionOfDuty, &g.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanDepartment(row pgx.Row) (*domain.Department, error) {
	var d domain.Department
	if err := row.Scan(&d.ID, &d.Code, &d.Name, &d.DirectorID, &d.Active, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

// execOne runs an UPDATE/DELETE that must touch exactly one row.
func execOne(ctx context.Context, db persistence.DBTX, query string, args ...any) error {
	cmd, err := db.Exec(ctx, query, args...)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}
