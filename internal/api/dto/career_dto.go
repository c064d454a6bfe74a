package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// PromotionRequest payload.
type PromotionRequest struct {
	ToGradeLevel  int    `json:"to_grade_level"`
	ToStep        int    `json:"to_step"`
	PromotionDate Date   `json:"promotion_date"`
	EffectiveDate Date   `json:"effective_date"`
	Remarks       string `json:"remarks"`
}

// PromotionResponse payload.
type PromotionResponse struct {
	ID             string    `json:"id"`
	EmployeeID     string    `json:"employee_id"`
	FromGradeLevel int       `json:"from_grade_level"`
	FromStep       int       `json:"from_step"`
	ToGradeLevel   int       `json:"to_grade_level"`
	ToStep         int       `json:"to_step"`
	PromotionDate  Date      `json:"promotion_date"`
	EffectiveDate  Date      `json:"effective_date"`
	ApprovedBy     string    `json:"approved_by"`
	Remarks        string    `json:"remarks,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExaminationRequest payload.
type ExaminationRequest struct {
	ExamType     domain.ExamType   `json:"exam_type"`
	ExamDate     Date              `json:"exam_date"`
	Score        *float64          `json:"score"`
	PassingScore float64           `json:"passing_score"`
	Result       domain.ExamResult `json:"result"`
	Remarks      string            `json:"remarks"`
}

// ExaminationResponse payload.
type ExaminationResponse struct {
	ID           string            `json:"id"`
	EmployeeID   string            `json:"employee_id"`
	ExamType     domain.ExamType   `json:"exam_type"`
	ExamDate     Date              `json:"exam_date"`
	Score        *float64          `json:"score"`
	PassingScore float64           `json:"passing_score"`
	Result       domain.ExamResult `json:"result"`
	Remarks      string            `json:"remarks,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// PerformanceReviewRequest payload.
type PerformanceReviewRequest struct {
	ReviewDate       Date    `json:"review_date"`
	PerformanceScore float64 `json:"performance_score"`
	Comments         string  `json:"comments"`
	GoalsSet         string  `json:"goals_set"`
}

// PerformanceReviewResponse payload.
type PerformanceReviewResponse struct {
	ID               string    `json:"id"`
	EmployeeID       string    `json:"employee_id"`
	ReviewerID       string    `json:"reviewer_id"`
	ReviewDate       Date      `json:"review_date"`
	PerformanceScore float64   `json:"performance_score"`
	Comments         string    `json:"comments,omitempty"`
	GoalsSet         string    `json:"goals_set,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
}

// TransferRequest payload.
type TransferRequest struct {
	ToDepartmentID string `json:"to_department_id"`
	TransferDate   Date   `json:"transfer_date"`
	Reason         string `json:"reason"`
}

// TransferResponse payload.
type TransferResponse struct {
	ID               string    `json:"id"`
	EmployeeID       string    `json:"employee_id"`
	FromDepartmentID *string   `json:"from_department_id"`
	ToDepartmentID   string    `json:"to_department_id"`
	TransferDate     Date      `json:"transfer_date"`
	Reason           string    `json:"reason"`
	ApprovedBy       string    `json:"approved_by"`
	CreatedAt        time.Time `json:"created_at"`
}

// EligibilityResponse payload.
type EligibilityResponse struct {
	EmployeeID         string `json:"employee_id"`
	GradeLevel         int    `json:"grade_level"`
	ReferenceDate      Date   `json:"reference_date"`
	RequiredYears      int    `json:"required_years"`
	YearsServed        int    `json:"years_served"`
	YearsToEligibility int    `json:"years_to_eligibility"`
	NextEligibleDate   Date   `json:"next_eligible_date"`
	HasRecentExam      bool   `json:"has_recent_exam"`
	Eligible           bool   `json:"eligible"`
}

// RetirementRequest payload.
type RetirementRequest struct {
	EmployeeID     string                  `json:"employee_id"`
	Reason         domain.RetirementReason `json:"reason"`
	RetirementDate Date                    `json:"retirement_date"`
	Remarks        string                  `json:"remarks"`
}

// RetirementResponse payload.
type RetirementResponse struct {
	ID             string                  `json:"id"`
	EmployeeID     string                  `json:"employee_id"`
	Reason         domain.RetirementReason `json:"reason"`
	RetirementDate Date                    `json:"retirement_date"`
	Remarks        string                  `json:"remarks,omitempty"`
	ProcessedBy    string                  `json:"processed_by"`
	CreatedAt      time.Time               `json:"created_at"`
}
