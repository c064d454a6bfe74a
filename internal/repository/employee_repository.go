package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// EmployeeRepository handles persistence for employees.
type EmployeeRepository interface {
	Create(ctx context.Context, e *domain.Employee) error
	Update(ctx context.Context, e *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmployeeNumber(ctx context.Context, number string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	FindConflict(ctx context.Context, number, email string, ippis *string, excludeID string) (string, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
	Count(ctx context.Context, filter EmployeeFilter) (int, error)
	CountByRole(ctx context.Context, scope domain.Scope) (map[domain.Role]int, error)
	SoftDelete(ctx context.Context, id string) error
	UpdatePassword(ctx context.Context, id, hash string, changeRequired bool) error
	UpdateCareer(ctx context.Context, e *domain.Employee) error
	ListRetiringBetween(ctx context.Context, from, to time.Time, scope domain.Scope) ([]domain.Employee, error)
}

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Scope        domain.Scope
	Role         *domain.Role
	DepartmentID *string
	ZoneCode     *string
	StateCode    *string
	Active       *bool
	Search       *string
	Limit        int
	Offset       int
}

const employeeColumns = `id, employee_number, ippis_number, first_name, last_name, middle_name, email, phone, role,
        department_id, zone_code, state_code, grade_level, step, date_of_birth, date_of_first_appointment,
        date_of_retirement, last_promotion_date, last_examination_date, bank_account_number, pfa_number,
        active_flag, password_hash, password_change_required, deleted_at, created_at, updated_at`

type employeeRepository struct {
	db persistence.DBTX
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(db persistence.DBTX) EmployeeRepository {
	return &employeeRepository{db: db}
}

func (r *employeeRepository) Create(ctx context.Context, e *domain.Employee) error {
	const query = `
        INSERT INTO employees (employee_number, ippis_number, first_name, last_name, middle_name, email, phone, role,
            department_id, zone_code, state_code, grade_level, step, date_of_birth, date_of_first_appointment,
            date_of_retirement, last_promotion_date, last_examination_date, bank_account_number, pfa_number,
            active_flag, password_hash, password_change_required)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23)
        RETURNING id, created_at, updated_at`

	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		e.EmployeeNumber,
		e.IPPISNumber,
		e.FirstName,
		e.LastName,
		e.MiddleName,
		e.Email,
		e.Phone,
		e.Role,
		e.DepartmentID,
		e.ZoneCode,
		e.StateCode,
		e.GradeLevel,
		e.Step,
		e.DateOfBirth,
		e.DateOfFirstAppointment,
		e.DateOfRetirement,
		e.LastPromotionDate,
		e.LastExaminationDate,
		e.BankAccountNumber,
		e.PFANumber,
		e.Active,
		e.PasswordHash,
		e.PasswordChangeRequired,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (r *employeeRepository) Update(ctx context.Context, e *domain.Employee) error {
	const query = `
        UPDATE employees
        SET employee_number=$1, ippis_number=$2, first_name=$3, last_name=$4, middle_name=$5, email=$6, phone=$7,
            role=$8, department_id=$9, zone_code=$10, state_code=$11, grade_level=$12, step=$13, date_of_birth=$14,
            date_of_first_appointment=$15, date_of_retirement=$16, bank_account_number=$17, pfa_number=$18,
            active_flag=$19, updated_at=NOW()
        WHERE id=$20 AND deleted_at IS NULL`

	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query,
		e.EmployeeNumber,
		e.IPPISNumber,
		e.FirstName,
		e.LastName,
		e.MiddleName,
		e.Email,
		e.Phone,
		e.Role,
		e.DepartmentID,
		e.ZoneCode,
		e.StateCode,
		e.GradeLevel,
		e.Step,
		e.DateOfBirth,
		e.DateOfFirstAppointment,
		e.DateOfRetirement,
		e.BankAccountNumber,
		e.PFANumber,
		e.Active,
		e.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1 AND deleted_at IS NULL`
	return scanEmployee(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *employeeRepository) GetByEmployeeNumber(ctx context.Context, number string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE employee_number=$1`
	return scanEmployee(persistence.Conn(ctx, r.db).QueryRow(ctx, query, number))
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees WHERE lower(email)=lower($1) AND deleted_at IS NULL`
	return scanEmployee(persistence.Conn(ctx, r.db).QueryRow(ctx, query, email))
}

// FindConflict returns the name of the first unique field already taken by
// another employee, or "" when none is.
func (r *employeeRepository) FindConflict(ctx context.Context, number, email string, ippis *string, excludeID string) (string, error) {
	const query = `
        SELECT CASE
                 WHEN employee_number=$1 THEN 'employee_id'
                 WHEN lower(email)=lower($2) THEN 'email'
                 ELSE 'ippis_number'
               END
        FROM employees
        WHERE (employee_number=$1 OR lower(email)=lower($2) OR ($3::text IS NOT NULL AND ippis_number=$3))
          AND ($4='' OR id::text<>$4)
        LIMIT 1`
	var field string
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, query, number, email, ippis, excludeID).Scan(&field)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", nil
	}
	return field, err
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	w := employeeWhere(filter)
	query := `SELECT ` + employeeColumns + ` FROM employees` + w.String() +
		` ORDER BY last_name, first_name, id` + page(filter.Limit, filter.Offset)

	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func (r *employeeRepository) Count(ctx context.Context, filter EmployeeFilter) (int, error) {
	w := employeeWhere(filter)
	var n int
	err := persistence.Conn(ctx, r.db).QueryRow(ctx, `SELECT COUNT(*) FROM employees`+w.String(), w.args...).Scan(&n)
	return n, err
}

func (r *employeeRepository) CountByRole(ctx context.Context, scope domain.Scope) (map[domain.Role]int, error) {
	w := &where{}
	w.raw("deleted_at IS NULL")
	w.scope(scope, "")
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, `SELECT role, COUNT(*) FROM employees`+w.String()+` GROUP BY role`, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[domain.Role]int)
	for rows.Next() {
		var role domain.Role
		var n int
		if err := rows.Scan(&role, &n); err != nil {
			return nil, err
		}
		out[role] = n
	}
	return out, rows.Err()
}

func (r *employeeRepository) SoftDelete(ctx context.Context, id string) error {
	const query = `
        UPDATE employees SET deleted_at=NOW(), active_flag=FALSE, updated_at=NOW()
        WHERE id=$1 AND deleted_at IS NULL`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) UpdatePassword(ctx context.Context, id, hash string, changeRequired bool) error {
	const query = `
        UPDATE employees SET password_hash=$1, password_change_required=$2, updated_at=NOW()
        WHERE id=$3`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query, hash, changeRequired, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

// UpdateCareer persists the fields changed by promotions, examinations,
// transfers and retirements.
func (r *employeeRepository) UpdateCareer(ctx context.Context, e *domain.Employee) error {
	const query = `
        UPDATE employees
        SET grade_level=$1, step=$2, last_promotion_date=$3, last_examination_date=$4,
            date_of_retirement=$5, active_flag=$6, department_id=$7, updated_at=NOW()
        WHERE id=$8`
	cmd, err := persistence.Conn(ctx, r.db).Exec(ctx, query,
		e.GradeLevel,
		e.Step,
		e.LastPromotionDate,
		e.LastExaminationDate,
		e.DateOfRetirement,
		e.Active,
		e.DepartmentID,
		e.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *employeeRepository) ListRetiringBetween(ctx context.Context, from, to time.Time, scope domain.Scope) ([]domain.Employee, error) {
	w := &where{}
	w.raw("deleted_at IS NULL")
	w.raw("active_flag")
	w.add("date_of_retirement>=$%d", from)
	w.add("date_of_retirement<=$%d", to)
	w.scope(scope, "")
	query := `SELECT ` + employeeColumns + ` FROM employees` + w.String() + ` ORDER BY date_of_retirement`

	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		e, err := scanEmployee(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *e)
	}
	return result, rows.Err()
}

func employeeWhere(filter EmployeeFilter) *where {
	w := &where{}
	w.raw("deleted_at IS NULL")
	w.scope(filter.Scope, "")
	if filter.Role != nil {
		w.add("role=$%d", *filter.Role)
	}
	if filter.DepartmentID != nil {
		w.add("department_id=$%d", *filter.DepartmentID)
	}
	if filter.ZoneCode != nil {
		w.add("zone_code=$%d", *filter.ZoneCode)
	}
	if filter.StateCode != nil {
		w.add("state_code=$%d", *filter.StateCode)
	}
	if filter.Active != nil {
		w.add("active_flag=$%d", *filter.Active)
	}
	if filter.Search != nil && *filter.Search != "" {
		w.add("(first_name ILIKE $%[1]d OR last_name ILIKE $%[1]d OR employee_number ILIKE $%[1]d OR email ILIKE $%[1]d)", "%"+*filter.Search+"%")
	}
	return w
}

func scanEmployee(row pgx.Row) (*domain.Employee, error) {
	var e domain.Employee
	if err := row.Scan(
		&e.ID,
		&e.EmployeeNumber,
		&e.IPPISNumber,
		&e.FirstName,
		&e.LastName,
		&e.MiddleName,
		&e.Email,
		&e.Phone,
		&e.Role,
		&e.DepartmentID,
		&e.ZoneCode,
		&e.StateCode,
		&e.GradeLevel,
		&e.Step,
		&e.DateOfBirth,
		&e.DateOfFirstAppointment,
		&e.DateOfRetirement,
		&e.LastPromotionDate,
		&e.LastExaminationDate,
		&e.BankAccountNumber,
		&e.PFANumber,
		&e.Active,
		&e.PasswordHash,
		&e.PasswordChangeRequired,
		&e.DeletedAt,
		&e.CreatedAt,
		&e.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &e, nil
}
