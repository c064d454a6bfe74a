package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/service"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// CareerHandler exposes promotions, examinations, performance reviews,
// transfers and retirements.
type CareerHandler struct {
	career *service.CareerService
}

// NewCareerHandler constructs handler.
func NewCareerHandler(career *service.CareerService) *CareerHandler {
	return &CareerHandler{career: career}
}

// ListPromotions handles GET /employees/:id/promotions.
func (h *CareerHandler) ListPromotions(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.career.ListPromotions(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.PromotionResponse, 0, len(list))
	for i := range list {
		resp = append(resp, promotionResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// RecordPromotion handles POST /employees/:id/promotions.
func (h *CareerHandler) RecordPromotion(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.PromotionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	promo, err := h.career.RecordPromotion(c.UserContext(), actor, c.Params("id"), service.PromotionInput{
		ToGradeLevel:  req.ToGradeLevel,
		ToStep:        req.ToStep,
		PromotionDate: req.PromotionDate.Time,
		EffectiveDate: req.EffectiveDate.Time,
		Remarks:       req.Remarks,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, promotionResponse(promo))
}

// ListExaminations handles GET /employees/:id/examinations.
func (h *CareerHandler) ListExaminations(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.career.ListExaminations(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.ExaminationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, examinationResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// RecordExamination handles POST /employees/:id/examinations.
func (h *CareerHandler) RecordExamination(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ExaminationRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	exam, err := h.career.RecordExamination(c.UserContext(), actor, c.Params("id"), service.ExaminationInput{
		ExamType:     req.ExamType,
		ExamDate:     req.ExamDate.Time,
		Score:        req.Score,
		PassingScore: req.PassingScore,
		Result:       req.Result,
		Remarks:      req.Remarks,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, examinationResponse(exam))
}

// ListPerformanceReviews handles GET /employees/:id/performance-reviews.
func (h *CareerHandler) ListPerformanceReviews(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.career.ListPerformanceReviews(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.PerformanceReviewResponse, 0, len(list))
	for i := range list {
		resp = append(resp, performanceReviewResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// RecordPerformanceReview handles POST /employees/:id/performance-reviews.
func (h *CareerHandler) RecordPerformanceReview(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.PerformanceReviewRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	review, err := h.career.RecordPerformanceReview(c.UserContext(), actor, c.Params("id"), service.PerformanceReviewInput{
		ReviewDate: req.ReviewDate.Time,
		Score:      req.PerformanceScore,
		Comments:   req.Comments,
		GoalsSet:   req.GoalsSet,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, performanceReviewResponse(review))
}

// ListTransfers handles GET /employees/:id/transfers.
func (h *CareerHandler) ListTransfers(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.career.ListTransfers(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	resp := make([]dto.TransferResponse, 0, len(list))
	for i := range list {
		resp = append(resp, transferResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Transfer handles POST /employees/:id/transfers.
func (h *CareerHandler) Transfer(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.TransferRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	transfer, err := h.career.TransferEmployee(c.UserContext(), actor, c.Params("id"), service.TransferInput{
		ToDepartmentID: req.ToDepartmentID,
		TransferDate:   req.TransferDate.Time,
		Reason:         req.Reason,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, transferResponse(transfer))
}

// Eligibility handles GET /employees/:id/promotion-eligibility?as_of=.
func (h *CareerHandler) Eligibility(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var asOf time.Time
	if raw := c.Query("as_of"); raw != "" {
		asOf, err = time.Parse(service.DateLayout, raw)
		if err != nil {
			return apperrors.NewValidationError("invalid as_of", map[string]any{"as_of": "must use YYYY-MM-DD"})
		}
	}
	result, err := h.career.Eligibility(c.UserContext(), actor, c.Params("id"), asOf)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.EligibilityResponse{
		EmployeeID:         result.EmployeeID,
		GradeLevel:         result.GradeLevel,
		ReferenceDate:      dto.NewDate(result.ReferenceDate),
		RequiredYears:      result.RequiredYears,
		YearsServed:        result.YearsServed,
		YearsToEligibility: result.YearsToEligibility,
		NextEligibleDate:   dto.NewDate(result.NextEligibleDate),
		HasRecentExam:      result.HasRecentExam,
		Eligible:           result.Eligible,
	})
}

// ListRetirements handles GET /retirements.
func (h *CareerHandler) ListRetirements(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.career.ListRetirements(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.RetirementResponse, 0, len(list))
	for i := range list {
		resp = append(resp, retirementResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// RecordRetirement handles POST /retirements.
func (h *CareerHandler) RecordRetirement(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.RetirementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ret, err := h.career.RecordRetirement(c.UserContext(), actor, service.RetirementInput{
		EmployeeID:     req.EmployeeID,
		Reason:         req.Reason,
		RetirementDate: req.RetirementDate.Time,
		Remarks:        req.Remarks,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, retirementResponse(ret))
}

// RetirementsDue handles GET /retirements/due?within_days=.
func (h *CareerHandler) RetirementsDue(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	due, err := h.career.RetirementsDue(c.UserContext(), actor, parseIntQuery(c, "within_days", 0))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, employeeResponses(due))
}
