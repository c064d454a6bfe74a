package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/service"
)

// NotificationHandler exposes in-app notifications and dashboards.
type NotificationHandler struct {
	notifications *service.NotificationService
	reports       *service.ReportService
}

// NewNotificationHandler constructs handler.
func NewNotificationHandler(notifications *service.NotificationService, reports *service.ReportService) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, reports: reports}
}

// List handles GET /notifications?unread=true.
func (h *NotificationHandler) List(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	unreadOnly := false
	if v := parseBoolQuery(c, "unread"); v != nil {
		unreadOnly = *v
	}
	_, _, limit, offset := paging(c)
	list, err := h.notifications.ListMine(c.UserContext(), actor, unreadOnly, limit, offset)
	if err != nil {
		return err
	}
	unread, err := h.notifications.UnreadCount(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.NotificationResponse, 0, len(list))
	for i := range list {
		resp = append(resp, notificationResponse(&list[i]))
	}
	return c.JSON(fiber.Map{"data": resp, "meta": fiber.Map{"unread": unread}})
}

// MarkRead handles POST /notifications/:id/read.
func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	if err := h.notifications.MarkRead(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// MarkAllRead handles POST /notifications/read-all.
func (h *NotificationHandler) MarkAllRead(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	n, err := h.notifications.MarkAllRead(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, fiber.Map{"updated": n})
}

// CommunicationDashboard handles GET /dashboard/communication.
func (h *NotificationHandler) CommunicationDashboard(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	counts, err := h.reports.CommunicationDashboard(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, dto.CommunicationDashboard{
		UnreadMail:          counts.UnreadMail,
		PendingTasks:        counts.PendingTasks,
		UnreadNotifications: counts.UnreadNotifications,
	})
}

// HRDashboard handles GET /dashboard/hr.
func (h *NotificationHandler) HRDashboard(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	summary, err := h.reports.HRSummary(c.UserContext(), actor)
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, summary)
}
