package domain

import (
	"math"
	"time"
)

// Promotion records a grade/step change for an employee.
type Promotion struct {
	ID             string
	EmployeeID     string
	FromGradeLevel int
	FromStep       int
	ToGradeLevel   int
	ToStep         int
	PromotionDate  time.Time
	EffectiveDate  time.Time
	ApprovedBy     string
	Remarks        string
	CreatedAt      time.Time
}

// IsAdvancement reports whether the target rank is above the source rank.
func (p *Promotion) IsAdvancement() bool {
	if p.ToGradeLevel != p.FromGradeLevel {
		return p.ToGradeLevel > p.FromGradeLevel
	}
	return p.ToStep > p.FromStep
}

// ExamType enumerates examination categories.
type ExamType string

const (
	ExamTypePromotion    ExamType = "PROMOTION"
	ExamTypeConfirmation ExamType = "CONFIRMATION"
	ExamTypeProficiency  ExamType = "PROFICIENCY"
	ExamTypeOther        ExamType = "OTHER"
)

// Valid reports whether t is a known exam type.
func (t ExamType) Valid() bool {
	switch t {
	case ExamTypePromotion, ExamTypeConfirmation, ExamTypeProficiency, ExamTypeOther:
		return true
	}
	return false
}

// ExamResult enumerates examination outcomes.
type ExamResult string

const (
	ExamResultPassed   ExamResult = "PASSED"
	ExamResultFailed   ExamResult = "FAILED"
	ExamResultAwaiting ExamResult = "AWAITING"
	ExamResultExempted ExamResult = "EXEMPTED"
)

// Valid reports whether r is a known result.
func (r ExamResult) Valid() bool {
	switch r {
	case ExamResultPassed, ExamResultFailed, ExamResultAwaiting, ExamResultExempted:
		return true
	}
	return false
}

// Examination is a sat exam and its outcome.
type Examination struct {
	ID           string
	EmployeeID   string
	ExamType     ExamType
	ExamDate     time.Time
	Score        *float64
	PassingScore float64
	Result       ExamResult
	Remarks      string
	CreatedAt    time.Time
}

// ResolveResult derives PASSED/FAILED from the score while the result is
// still awaiting.
func (e *Examination) ResolveResult() {
	if e.Result == "" {
		e.Result = ExamResultAwaiting
	}
	if e.Result != ExamResultAwaiting || e.Score == nil {
		return
	}
	if *e.Score >= e.PassingScore {
		e.Result = ExamResultPassed
	} else {
		e.Result = ExamResultFailed
	}
}

// ExamValidityYears is how long a sat exam counts towards promotion.
const ExamValidityYears = 2

// PromotionEligibility is the outcome of the eligibility calculator.
type PromotionEligibility struct {
	EmployeeID         string
	GradeLevel         int
	ReferenceDate      time.Time
	RequiredYears      int
	YearsServed        int
	YearsToEligibility int
	NextEligibleDate   time.Time
	HasRecentExam      bool
	Eligible           bool
}

// RequiredYearsForGrade returns the years an employee must spend on a grade
// level before promotion.
func RequiredYearsForGrade(gradeLevel int) int {
	switch {
	case gradeLevel <= 6:
		return 2
	case gradeLevel <= 14:
		return 3
	default:
		return 4
	}
}

// EvaluatePromotionEligibility applies the grade-band waiting periods and
// the recent-exam requirement as of the given date.
func EvaluatePromotionEligibility(e *Employee, asOf time.Time) PromotionEligibility {
	ref := e.DateOfFirstAppointment
	if e.LastPromotionDate != nil {
		ref = *e.LastPromotionDate
	}
	required := RequiredYearsForGrade(e.GradeLevel)
	served := WholeYearsBetween(ref, asOf)
	remaining := required - served
	if remaining < 0 {
		remaining = 0
	}

	recentExam := false
	if e.LastExaminationDate != nil {
		cutoff := addYears(asOf, -ExamValidityYears)
		recentExam = !e.LastExaminationDate.Before(cutoff) && !e.LastExaminationDate.After(asOf)
	}

	return PromotionEligibility{
		EmployeeID:         e.ID,
		GradeLevel:         e.GradeLevel,
		ReferenceDate:      ref,
		RequiredYears:      required,
		YearsServed:        served,
		YearsToEligibility: remaining,
		NextEligibleDate:   addYears(ref, required),
		HasRecentExam:      recentExam,
		Eligible:           remaining == 0 && recentExam,
	}
}

// WholeYearsBetween counts completed anniversaries from start to end.
func WholeYearsBetween(start, end time.Time) int {
	if end.Before(start) {
		return 0
	}
	years := end.Year() - start.Year()
	if addYears(start, years).After(end) {
		years--
	}
	return years
}

// RetirementReason enumerates why an employee left service.
type RetirementReason string

const (
	RetirementReasonAge            RetirementReason = "AGE"
	RetirementReasonYearsOfService RetirementReason = "YEARS_OF_SERVICE"
	RetirementReasonVoluntary      RetirementReason = "VOLUNTARY"
	RetirementReasonMedical        RetirementReason = "MEDICAL"
	RetirementReasonOther          RetirementReason = "OTHER"
)

// Valid reports whether r is a known reason.
func (r RetirementReason) Valid() bool {
	switch r {
	case RetirementReasonAge, RetirementReasonYearsOfService, RetirementReasonVoluntary, RetirementReasonMedical, RetirementReasonOther:
		return true
	}
	return false
}

// Retirement records an employee leaving service.
type Retirement struct {
	ID             string
	EmployeeID     string
	Reason         RetirementReason
	RetirementDate time.Time
	Remarks        string
	ProcessedBy    string
	CreatedAt      time.Time
}

// Performance scores run from 0 to 5 with two decimal places.
const (
	MinPerformanceScore = 0.0
	MaxPerformanceScore = 5.0
)

// PerformanceReview is one appraisal of an employee by a manager.
type PerformanceReview struct {
	ID         string
	EmployeeID string
	ReviewerID string
	ReviewDate time.Time
	Score      float64
	Comments   string
	GoalsSet   string
	CreatedAt  time.Time
}

// ValidPerformanceScore reports whether score lies in range and carries at
// most two decimal places.
func ValidPerformanceScore(score float64) bool {
	if math.IsNaN(score) || score < MinPerformanceScore || score > MaxPerformanceScore {
		return false
	}
	cents := score * 100
	return math.Abs(cents-math.Round(cents)) < 1e-6
}

// Transfer records an employee moving between departments.
type Transfer struct {
	ID               string
	EmployeeID       string
	FromDepartmentID *string
	ToDepartmentID   string
	TransferDate     time.Time
	Reason           string
	ApprovedBy       string
	CreatedAt        time.Time
}
