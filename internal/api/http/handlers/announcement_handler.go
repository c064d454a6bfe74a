package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/service"
)

// AnnouncementHandler exposes department announcements and newsletters.
type AnnouncementHandler struct {
	announcements *service.AnnouncementService
}

// NewAnnouncementHandler constructs handler.
func NewAnnouncementHandler(announcements *service.AnnouncementService) *AnnouncementHandler {
	return &AnnouncementHandler{announcements: announcements}
}

// List handles GET /announcements.
func (h *AnnouncementHandler) List(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.announcements.List(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.AnnouncementResponse, 0, len(list))
	for i := range list {
		resp = append(resp, announcementResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// Create handles POST /announcements.
func (h *AnnouncementHandler) Create(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.AnnouncementRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	a, err := h.announcements.Create(c.UserContext(), actor, service.AnnouncementInput{
		DepartmentID: req.DepartmentID,
		Title:        req.Title,
		Content:      req.Content,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, announcementResponse(a))
}

// Deactivate handles DELETE /announcements/:id.
func (h *AnnouncementHandler) Deactivate(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	if err := h.announcements.Deactivate(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListNewsletters handles GET /newsletters.
func (h *AnnouncementHandler) ListNewsletters(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.announcements.ListNewsletters(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.NewsletterResponse, 0, len(list))
	for i := range list {
		resp = append(resp, newsletterResponse(&list[i]))
	}
	return data(c, http.StatusOK, resp)
}

// CreateNewsletter handles POST /newsletters.
func (h *AnnouncementHandler) CreateNewsletter(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.NewsletterRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	n, err := h.announcements.CreateNewsletter(c.UserContext(), actor, service.NewsletterInput{
		Title:         req.Title,
		Content:       req.Content,
		DepartmentIDs: req.DepartmentIDs,
		Publish:       req.Publish,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, newsletterResponse(n))
}

// PublishNewsletter handles POST /newsletters/:id/publish.
func (h *AnnouncementHandler) PublishNewsletter(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	n, err := h.announcements.PublishNewsletter(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, newsletterResponse(n))
}
