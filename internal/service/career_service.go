package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// CareerService records promotions, examinations, performance reviews,
// transfers and retirements.
type CareerService struct {
	career    repository.CareerRepository
	employees repository.EmployeeRepository
	org       repository.OrgRepository
	notifier  Notifier
	tx        persistence.Transactor
	logger    *zap.Logger
	now       func() time.Time
}

// CareerDependencies bundles collaborators for the career service.
type CareerDependencies struct {
	CareerRepo   repository.CareerRepository
	EmployeeRepo repository.EmployeeRepository
	OrgRepo      repository.OrgRepository
	Notifier     Notifier
	Transactor   persistence.Transactor
	Logger       *zap.Logger
	Clock        func() time.Time
}

// PromotionInput records a grade or step change.
type PromotionInput struct {
	ToGradeLevel  int
	ToStep        int
	PromotionDate time.Time
	EffectiveDate time.Time
	Remarks       string
}

// ExaminationInput records a sat exam.
type ExaminationInput struct {
	ExamType     domain.ExamType
	ExamDate     time.Time
	Score        *float64
	PassingScore float64
	Result       domain.ExamResult
	Remarks      string
}

// PerformanceReviewInput records an appraisal.
type PerformanceReviewInput struct {
	ReviewDate time.Time
	Score      float64
	Comments   string
	GoalsSet   string
}

// TransferInput moves an employee to another department.
type TransferInput struct {
	ToDepartmentID string
	TransferDate   time.Time
	Reason         string
}

// RetirementInput records an employee leaving service.
type RetirementInput struct {
	EmployeeID     string
	Reason         domain.RetirementReason
	RetirementDate time.Time
	Remarks        string
}

// NewCareerService constructs the service.
func NewCareerService(deps CareerDependencies) *CareerService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CareerService{
		career:    deps.CareerRepo,
		employees: deps.EmployeeRepo,
		org:       deps.OrgRepo,
		notifier:  deps.Notifier,
		tx:        deps.Transactor,
		logger:    logger,
		now:       clockOrDefault(deps.Clock),
	}
}

// RecordPromotion stores the promotion and moves the employee to the new
// grade and step in one transaction.
func (s *CareerService) RecordPromotion(ctx context.Context, actor *domain.Employee, employeeID string, input PromotionInput) (*domain.Promotion, error) {
	var promotion *domain.Promotion
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employee, err := s.manageable(ctx, actor, employeeID)
		if err != nil {
			return err
		}
		promotion = &domain.Promotion{
			EmployeeID:     employee.ID,
			FromGradeLevel: employee.GradeLevel,
			FromStep:       employee.Step,
			ToGradeLevel:   input.ToGradeLevel,
			ToStep:         input.ToStep,
			PromotionDate:  truncateDay(input.PromotionDate),
			EffectiveDate:  truncateDay(input.EffectiveDate),
			ApprovedBy:     actor.ID,
			Remarks:        strings.TrimSpace(input.Remarks),
		}
		if promotion.EffectiveDate.IsZero() {
			promotion.EffectiveDate = promotion.PromotionDate
		}
		if err := validatePromotion(promotion); err != nil {
			return err
		}
		if err := s.career.CreatePromotion(ctx, promotion); err != nil {
			return err
		}

		employee.GradeLevel = promotion.ToGradeLevel
		employee.Step = promotion.ToStep
		employee.LastPromotionDate = &promotion.PromotionDate
		return s.employees.UpdateCareer(ctx, employee)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("promotion recorded",
		zap.String("employee_id", employeeID),
		zap.Int("grade_level", promotion.ToGradeLevel),
		zap.Int("step", promotion.ToStep))
	return promotion, nil
}

// ListPromotions returns an employee's promotion history.
func (s *CareerService) ListPromotions(ctx context.Context, actor *domain.Employee, employeeID string) ([]domain.Promotion, error) {
	if _, err := s.viewable(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	return s.career.ListPromotions(ctx, employeeID)
}

// RecordExamination stores an exam and updates the employee's last
// examination date.
func (s *CareerService) RecordExamination(ctx context.Context, actor *domain.Employee, employeeID string, input ExaminationInput) (*domain.Examination, error) {
	exam := &domain.Examination{
		ExamType:     domain.ExamType(strings.ToUpper(strings.TrimSpace(string(input.ExamType)))),
		ExamDate:     truncateDay(input.ExamDate),
		Score:        input.Score,
		PassingScore: input.PassingScore,
		Result:       domain.ExamResult(strings.ToUpper(strings.TrimSpace(string(input.Result)))),
		Remarks:      strings.TrimSpace(input.Remarks),
	}
	if err := validateExamination(exam, s.now()); err != nil {
		return nil, err
	}
	exam.ResolveResult()

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employee, err := s.manageable(ctx, actor, employeeID)
		if err != nil {
			return err
		}
		exam.EmployeeID = employee.ID
		if err := s.career.CreateExamination(ctx, exam); err != nil {
			return err
		}
		if employee.LastExaminationDate == nil || exam.ExamDate.After(*employee.LastExaminationDate) {
			employee.LastExaminationDate = &exam.ExamDate
			return s.employees.UpdateCareer(ctx, employee)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exam, nil
}

// ListExaminations returns an employee's examinations.
func (s *CareerService) ListExaminations(ctx context.Context, actor *domain.Employee, employeeID string) ([]domain.Examination, error) {
	if _, err := s.viewable(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	return s.career.ListExaminations(ctx, employeeID)
}

// RecordPerformanceReview stores an appraisal written by the caller.
func (s *CareerService) RecordPerformanceReview(ctx context.Context, actor *domain.Employee, employeeID string, input PerformanceReviewInput) (*domain.PerformanceReview, error) {
	review := &domain.PerformanceReview{
		ReviewerID: actor.ID,
		ReviewDate: truncateDay(input.ReviewDate),
		Score:      input.Score,
		Comments:   strings.TrimSpace(input.Comments),
		GoalsSet:   strings.TrimSpace(input.GoalsSet),
	}
	errs := fieldErrors{}
	if input.ReviewDate.IsZero() {
		errs.add("review_date", "is required")
	} else if review.ReviewDate.After(truncateDay(s.now())) {
		errs.add("review_date", "must not be in the future")
	}
	if !domain.ValidPerformanceScore(review.Score) {
		errs.add("performance_score", "must be between 0 and 5 with at most two decimals")
	}
	if err := errs.err("invalid performance review"); err != nil {
		return nil, err
	}

	employee, err := s.manageable(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}
	if employee.ID == actor.ID {
		return nil, apperrors.NewForbidden("employees cannot review themselves")
	}
	review.EmployeeID = employee.ID
	if err := s.career.CreatePerformanceReview(ctx, review); err != nil {
		return nil, err
	}
	s.logger.Info("performance review recorded", zap.String("employee_id", employee.ID), zap.Float64("score", review.Score))
	return review, nil
}

// ListPerformanceReviews returns an employee's appraisals, newest first.
func (s *CareerService) ListPerformanceReviews(ctx context.Context, actor *domain.Employee, employeeID string) ([]domain.PerformanceReview, error) {
	if _, err := s.viewable(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	return s.career.ListPerformanceReviews(ctx, employeeID)
}

// TransferEmployee records the move and reassigns the employee's department
// in one transaction. A director may only transfer staff out of their own
// department.
func (s *CareerService) TransferEmployee(ctx context.Context, actor *domain.Employee, employeeID string, input TransferInput) (*domain.Transfer, error) {
	transfer := &domain.Transfer{
		ToDepartmentID: strings.TrimSpace(input.ToDepartmentID),
		TransferDate:   truncateDay(input.TransferDate),
		Reason:         strings.TrimSpace(input.Reason),
		ApprovedBy:     actor.ID,
	}
	errs := fieldErrors{}
	if transfer.ToDepartmentID == "" {
		errs.add("to_department_id", "is required")
	}
	if input.TransferDate.IsZero() {
		errs.add("transfer_date", "is required")
	}
	if transfer.Reason == "" {
		errs.add("reason", "is required")
	}
	if err := errs.err("invalid transfer"); err != nil {
		return nil, err
	}

	var target *domain.Department
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employee, err := s.manageable(ctx, actor, employeeID)
		if err != nil {
			return err
		}
		target, err = s.org.GetDepartmentByID(ctx, transfer.ToDepartmentID)
		if err != nil || !target.Active {
			if err != nil && !apperrors.IsNotFound(err) {
				return err
			}
			return apperrors.NewValidationError("invalid transfer", map[string]any{"to_department_id": "unknown or inactive department"})
		}
		if employee.DepartmentID != nil && *employee.DepartmentID == target.ID {
			return apperrors.NewValidationError("invalid transfer", map[string]any{"to_department_id": "employee is already in this department"})
		}

		transfer.EmployeeID = employee.ID
		transfer.FromDepartmentID = employee.DepartmentID
		if err := s.career.CreateTransfer(ctx, transfer); err != nil {
			return err
		}
		employee.DepartmentID = &target.ID
		return s.employees.UpdateCareer(ctx, employee)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("transfer recorded", zap.String("employee_id", transfer.EmployeeID), zap.String("to_department_id", target.ID))
	if s.notifier != nil {
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			RecipientID: transfer.EmployeeID,
			Type:        domain.NotificationSystem,
			Title:       "Department transfer",
			Message:     fmt.Sprintf("You have been transferred to %s effective %s.", target.Name, transfer.TransferDate.Format(DateLayout)),
			Link:        "/employees/" + transfer.EmployeeID + "/transfers",
			Email:       true,
		}); err != nil {
			s.logger.Warn("transfer notification failed", zap.String("employee_id", transfer.EmployeeID), zap.Error(err))
		}
	}
	return transfer, nil
}

// ListTransfers returns an employee's transfer history, newest first.
func (s *CareerService) ListTransfers(ctx context.Context, actor *domain.Employee, employeeID string) ([]domain.Transfer, error) {
	if _, err := s.viewable(ctx, actor, employeeID); err != nil {
		return nil, err
	}
	return s.career.ListTransfers(ctx, employeeID)
}

// Eligibility evaluates promotion eligibility as of a date; zero means today.
func (s *CareerService) Eligibility(ctx context.Context, actor *domain.Employee, employeeID string, asOf time.Time) (*domain.PromotionEligibility, error) {
	employee, err := s.viewable(ctx, actor, employeeID)
	if err != nil {
		return nil, err
	}
	if asOf.IsZero() {
		asOf = s.now()
	}
	result := domain.EvaluatePromotionEligibility(employee, truncateDay(asOf))
	return &result, nil
}

// RecordRetirement retires an employee. An employee retires once.
func (s *CareerService) RecordRetirement(ctx context.Context, actor *domain.Employee, input RetirementInput) (*domain.Retirement, error) {
	if actor.Role != domain.RoleDirectorGeneral {
		return nil, apperrors.NewForbidden("only the DG can record retirements")
	}
	input.Reason = domain.RetirementReason(strings.ToUpper(strings.TrimSpace(string(input.Reason))))
	errs := fieldErrors{}
	if strings.TrimSpace(input.EmployeeID) == "" {
		errs.add("employee_id", "is required")
	}
	if !input.Reason.Valid() {
		errs.add("reason", "must be one of AGE, YEARS_OF_SERVICE, VOLUNTARY, MEDICAL, OTHER")
	}
	if input.RetirementDate.IsZero() {
		errs.add("retirement_date", "is required")
	}
	if err := errs.err("invalid retirement"); err != nil {
		return nil, err
	}

	retirement := &domain.Retirement{
		EmployeeID:     strings.TrimSpace(input.EmployeeID),
		Reason:         input.Reason,
		RetirementDate: truncateDay(input.RetirementDate),
		Remarks:        strings.TrimSpace(input.Remarks),
		ProcessedBy:    actor.ID,
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		employee, err := s.employees.GetByID(ctx, retirement.EmployeeID)
		if err != nil {
			return notFound(err, "employee")
		}
		if err := s.career.CreateRetirement(ctx, retirement); err != nil {
			if apperrors.IsUniqueViolation(err) {
				return apperrors.NewConflict("employee has already retired", map[string]any{"employee_id": employee.ID})
			}
			return err
		}
		employee.DateOfRetirement = &retirement.RetirementDate
		employee.Active = false
		return s.employees.UpdateCareer(ctx, employee)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("retirement recorded", zap.String("employee_id", retirement.EmployeeID), zap.String("reason", string(retirement.Reason)))
	return retirement, nil
}

// ListRetirements returns recorded retirements within the caller's scope.
func (s *CareerService) ListRetirements(ctx context.Context, actor *domain.Employee, limit, offset int) ([]domain.Retirement, error) {
	if actor.Role == domain.RoleStaff {
		return nil, apperrors.NewForbidden("not allowed to list retirements")
	}
	return s.career.ListRetirements(ctx, domain.ScopeFor(actor), limit, offset)
}

// RetirementsDue lists active employees whose retirement date falls within
// the next withinDays days.
func (s *CareerService) RetirementsDue(ctx context.Context, actor *domain.Employee, withinDays int) ([]domain.Employee, error) {
	if actor.Role == domain.RoleStaff {
		return nil, apperrors.NewForbidden("not allowed to list retirements")
	}
	if withinDays <= 0 {
		withinDays = 365
	}
	from := truncateDay(s.now())
	return s.employees.ListRetiringBetween(ctx, from, from.AddDate(0, 0, withinDays), domain.ScopeFor(actor))
}

func (s *CareerService) manageable(ctx context.Context, actor *domain.Employee, employeeID string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canManage(actor, employee.DepartmentID) {
		return nil, apperrors.NewForbidden("not allowed to change this employee's career records")
	}
	return employee, nil
}

func (s *CareerService) viewable(ctx context.Context, actor *domain.Employee, employeeID string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, notFound(err, "employee")
	}
	if !canView(actor, employee) {
		return nil, apperrors.NewForbidden("not allowed to view this employee")
	}
	return employee, nil
}

func validatePromotion(p *domain.Promotion) error {
	errs := fieldErrors{}
	if p.ToGradeLevel < domain.MinGradeLevel || p.ToGradeLevel > domain.MaxGradeLevel {
		errs.add("to_grade_level", "must be between 1 and 18")
	}
	if p.ToStep < domain.MinStep || p.ToStep > domain.MaxStep {
		errs.add("to_step", "must be between 1 and 15")
	}
	if p.PromotionDate.IsZero() {
		errs.add("promotion_date", "is required")
	}
	if !p.EffectiveDate.IsZero() && p.EffectiveDate.Before(p.PromotionDate) {
		errs.add("effective_date", "must not be before promotion_date")
	}
	if len(errs) == 0 && !p.IsAdvancement() {
		errs.add("to_grade_level", "must rank above the current grade and step")
	}
	return errs.err("invalid promotion")
}

func validateExamination(e *domain.Examination, now time.Time) error {
	errs := fieldErrors{}
	if !e.ExamType.Valid() {
		errs.add("exam_type", "must be one of PROMOTION, CONFIRMATION, PROFICIENCY, OTHER")
	}
	if e.ExamDate.IsZero() {
		errs.add("exam_date", "is required")
	} else if e.ExamDate.After(truncateDay(now)) {
		errs.add("exam_date", "must not be in the future")
	}
	if e.Score != nil && (*e.Score < 0 || *e.Score > 100) {
		errs.add("score", "must be between 0 and 100")
	}
	if e.PassingScore < 0 || e.PassingScore > 100 {
		errs.add("passing_score", "must be between 0 and 100")
	}
	if e.Result != "" && !e.Result.Valid() {
		errs.add("result", "must be one of PASSED, FAILED, AWAITING, EXEMPTED")
	}
	return errs.err("invalid examination")
}
