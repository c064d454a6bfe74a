package repository

import (
	"context"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// CareerRepository persists promotions, examinations, performance reviews,
// transfers and retirements.
type CareerRepository interface {
	CreatePromotion(ctx context.Context, p *domain.Promotion) error
	ListPromotions(ctx context.Context, employeeID string) ([]domain.Promotion, error)
	CreateExamination(ctx context.Context, e *domain.Examination) error
	ListExaminations(ctx context.Context, employeeID string) ([]domain.Examination, error)
	CreatePerformanceReview(ctx context.Context, r *domain.PerformanceReview) error
	ListPerformanceReviews(ctx context.Context, employeeID string) ([]domain.PerformanceReview, error)
	CreateTransfer(ctx context.Context, t *domain.Transfer) error
	ListTransfers(ctx context.Context, employeeID string) ([]domain.Transfer, error)
	CreateRetirement(ctx context.Context, r *domain.Retirement) error
	ListRetirements(ctx context.Context, scope domain.Scope, limit, offset int) ([]domain.Retirement, error)
}

type careerRepository struct {
	db persistence.DBTX
}

// NewCareerRepository instantiates repository.
func NewCareerRepository(db persistence.DBTX) CareerRepository {
	return &careerRepository{db: db}
}

func (r *careerRepository) CreatePromotion(ctx context.Context, p *domain.Promotion) error {
	const query = `
        INSERT INTO promotions (employee_id, from_grade_level, from_step, to_grade_level, to_step,
            promotion_date, effective_date, approved_by, remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		p.EmployeeID, p.FromGradeLevel, p.FromStep, p.ToGradeLevel, p.ToStep,
		p.PromotionDate, p.EffectiveDate, p.ApprovedBy, p.Remarks,
	).Scan(&p.ID, &p.CreatedAt)
}

func (r *careerRepository) ListPromotions(ctx context.Context, employeeID string) ([]domain.Promotion, error) {
	const query = `
        SELECT id, employee_id, from_grade_level, from_step, to_grade_level, to_step,
               promotion_date, effective_date, approved_by, remarks, created_at
        FROM promotions WHERE employee_id=$1
        ORDER BY promotion_date DESC, created_at DESC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Promotion
	for rows.Next() {
		var p domain.Promotion
		if err := rows.Scan(&p.ID, &p.EmployeeID, &p.FromGradeLevel, &p.FromStep, &p.ToGradeLevel, &p.ToStep,
			&p.PromotionDate, &p.EffectiveDate, &p.ApprovedBy, &p.Remarks, &p.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *careerRepository) CreateExamination(ctx context.Context, e *domain.Examination) error {
	const query = `
        INSERT INTO examinations (employee_id, exam_type, exam_date, score, passing_score, result, remarks)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		e.EmployeeID, e.ExamType, e.ExamDate, e.Score, e.PassingScore, e.Result, e.Remarks,
	).Scan(&e.ID, &e.CreatedAt)
}

func (r *careerRepository) ListExaminations(ctx context.Context, employeeID string) ([]domain.Examination, error) {
	const query = `
        SELECT id, employee_id, exam_type, exam_date, score, passing_score, result, remarks, created_at
        FROM examinations WHERE employee_id=$1
        ORDER BY exam_date DESC, created_at DESC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Examination
	for rows.Next() {
		var e domain.Examination
		if err := rows.Scan(&e.ID, &e.EmployeeID, &e.ExamType, &e.ExamDate, &e.Score, &e.PassingScore,
			&e.Result, &e.Remarks, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *careerRepository) CreatePerformanceReview(ctx context.Context, pr *domain.PerformanceReview) error {
	const query = `
        INSERT INTO performance_reviews (employee_id, reviewer_id, review_date, performance_score, comments, goals_set)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		pr.EmployeeID, pr.ReviewerID, pr.ReviewDate, pr.Score, pr.Comments, pr.GoalsSet,
	).Scan(&pr.ID, &pr.CreatedAt)
}

func (r *careerRepository) ListPerformanceReviews(ctx context.Context, employeeID string) ([]domain.PerformanceReview, error) {
	const query = `
        SELECT id, employee_id, reviewer_id, review_date, performance_score::float8, comments, goals_set, created_at
        FROM performance_reviews WHERE employee_id=$1
        ORDER BY review_date DESC, created_at DESC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PerformanceReview
	for rows.Next() {
		var pr domain.PerformanceReview
		if err := rows.Scan(&pr.ID, &pr.EmployeeID, &pr.ReviewerID, &pr.ReviewDate, &pr.Score,
			&pr.Comments, &pr.GoalsSet, &pr.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, pr)
	}
	return out, rows.Err()
}

func (r *careerRepository) CreateTransfer(ctx context.Context, t *domain.Transfer) error {
	const query = `
        INSERT INTO transfers (employee_id, from_department_id, to_department_id, transfer_date, reason, approved_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		t.EmployeeID, t.FromDepartmentID, t.ToDepartmentID, t.TransferDate, t.Reason, t.ApprovedBy,
	).Scan(&t.ID, &t.CreatedAt)
}

func (r *careerRepository) ListTransfers(ctx context.Context, employeeID string) ([]domain.Transfer, error) {
	const query = `
        SELECT id, employee_id, from_department_id, to_department_id, transfer_date, reason, approved_by, created_at
        FROM transfers WHERE employee_id=$1
        ORDER BY transfer_date DESC, created_at DESC`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Transfer
	for rows.Next() {
		var t domain.Transfer
		if err := rows.Scan(&t.ID, &t.EmployeeID, &t.FromDepartmentID, &t.ToDepartmentID, &t.TransferDate,
			&t.Reason, &t.ApprovedBy, &t.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *careerRepository) CreateRetirement(ctx context.Context, ret *domain.Retirement) error {
	const query = `
        INSERT INTO retirements (employee_id, reason, retirement_date, remarks, processed_by)
        VALUES ($1,$2,$3,$4,$5)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		ret.EmployeeID, ret.Reason, ret.RetirementDate, ret.Remarks, ret.ProcessedBy,
	).Scan(&ret.ID, &ret.CreatedAt)
}

func (r *careerRepository) ListRetirements(ctx context.Context, scope domain.Scope, limit, offset int) ([]domain.Retirement, error) {
	w := &where{}
	w.scope(scope, "e.")
	query := `
        SELECT r.id, r.employee_id, r.reason, r.retirement_date, r.remarks, r.processed_by, r.created_at
        FROM retirements r JOIN employees e ON e.id = r.employee_id` +
		w.String() + ` ORDER BY r.retirement_date DESC` + page(limit, offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Retirement
	for rows.Next() {
		var ret domain.Retirement
		if err := rows.Scan(&ret.ID, &ret.EmployeeID, &ret.Reason, &ret.RetirementDate, &ret.Remarks,
			&ret.ProcessedBy, &ret.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ret)
	}
	return out, rows.Err()
}
