package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/service"
)

// TrainingHandler exposes trainings and enrolment.
type TrainingHandler struct {
	trainings *service.TrainingService
}

// NewTrainingHandler constructs handler.
func NewTrainingHandler(trainings *service.TrainingService) *TrainingHandler {
	return &TrainingHandler{trainings: trainings}
}

// List handles GET /trainings.
func (h *TrainingHandler) List(c *fiber.Ctx) error {
	_, _, limit, offset := paging(c)
	list, err := h.trainings.List(c.UserContext(), limit, offset)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, trainingResponses(list))
}

// Create handles POST /trainings.
func (h *TrainingHandler) Create(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.TrainingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	training, err := h.trainings.Create(c.UserContext(), actor, service.TrainingInput{
		Title:          req.Title,
		Description:    req.Description,
		StartDate:      req.StartDate.Time,
		EndDate:        req.EndDate.Time,
		Trainer:        req.Trainer,
		ParticipantIDs: req.ParticipantIDs,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, trainingResponse(training))
}

// Get handles GET /trainings/:id.
func (h *TrainingHandler) Get(c *fiber.Ctx) error {
	training, err := h.trainings.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, trainingResponse(training))
}

// Assign handles POST /trainings/:id/participants.
func (h *TrainingHandler) Assign(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.AssignTrainingRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	training, err := h.trainings.AssignParticipant(c.UserContext(), actor, c.Params("id"), req.EmployeeID)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, trainingResponse(training))
}

// ListForEmployee handles GET /employees/:id/trainings.
func (h *TrainingHandler) ListForEmployee(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	list, err := h.trainings.ListForEmployee(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, trainingResponses(list))
}
