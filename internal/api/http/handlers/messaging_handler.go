package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/staff-portal/internal/api/dto"
	"github.com/spec-kit/staff-portal/internal/service"
)

// MessagingHandler exposes internal mail and chats.
type MessagingHandler struct {
	mail *service.MailService
	chat *service.ChatService
}

// NewMessagingHandler constructs handler.
func NewMessagingHandler(mail *service.MailService, chat *service.ChatService) *MessagingHandler {
	return &MessagingHandler{mail: mail, chat: chat}
}

// Inbox handles GET /mail/inbox.
func (h *MessagingHandler) Inbox(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.mail.Inbox(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.InboxItem, 0, len(list))
	for i := range list {
		resp = append(resp, dto.InboxItem{MailResponse: mailResponse(&list[i].Mail, actor.ID), Unread: list[i].Unread})
	}
	return data(c, http.StatusOK, resp)
}

// Sent handles GET /mail/sent.
func (h *MessagingHandler) Sent(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	list, err := h.mail.Sent(c.UserContext(), actor, limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.MailResponse, 0, len(list))
	for i := range list {
		resp = append(resp, mailResponse(&list[i], actor.ID))
	}
	return data(c, http.StatusOK, resp)
}

// Compose handles POST /mail.
func (h *MessagingHandler) Compose(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ComposeMailRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	mail, err := h.mail.Compose(c.UserContext(), actor, service.ComposeInput{
		Subject:  req.Subject,
		Body:     req.Body,
		To:       req.To,
		CC:       req.CC,
		BCC:      req.BCC,
		ParentID: req.ParentID,
		Draft:    req.Draft,
	})
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, mailResponse(mail, actor.ID))
}

// View handles GET /mail/:id.
func (h *MessagingHandler) View(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	mail, err := h.mail.View(c.UserContext(), actor, c.Params("id"))
	if err != nil {
		return err
	}
	return data(c, http.StatusOK, mailResponse(mail, actor.ID))
}

// Delete handles DELETE /mail/:id.
func (h *MessagingHandler) Delete(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	if err := h.mail.Delete(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}

// ListChats handles GET /chats.
func (h *MessagingHandler) ListChats(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	chats, err := h.chat.ListMine(c.UserContext(), actor)
	if err != nil {
		return err
	}
	resp := make([]dto.ChatResponse, 0, len(chats))
	for i := range chats {
		resp = append(resp, chatResponse(&chats[i]))
	}
	return data(c, http.StatusOK, resp)
}

// CreateChat handles POST /chats.
func (h *MessagingHandler) CreateChat(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ChatCreateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	chat, err := h.chat.Create(c.UserContext(), actor, req.Name, req.ParticipantIDs)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, chatResponse(chat))
}

// ListMessages handles GET /chats/:id/messages.
func (h *MessagingHandler) ListMessages(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	_, _, limit, offset := paging(c)
	msgs, err := h.chat.ListMessages(c.UserContext(), actor, c.Params("id"), limit, offset)
	if err != nil {
		return err
	}
	resp := make([]dto.ChatMessageResponse, 0, len(msgs))
	for i := range msgs {
		resp = append(resp, chatMessageResponse(&msgs[i]))
	}
	return data(c, http.StatusOK, resp)
}

// SendMessage handles POST /chats/:id/messages.
func (h *MessagingHandler) SendMessage(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	var req dto.ChatMessageRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	msg, err := h.chat.SendMessage(c.UserContext(), actor, c.Params("id"), req.Body)
	if err != nil {
		return err
	}
	return data(c, http.StatusCreated, chatMessageResponse(msg))
}

// LeaveChat handles POST /chats/:id/leave.
func (h *MessagingHandler) LeaveChat(c *fiber.Ctx) error {
	actor, err := currentEmployee(c)
	if err != nil {
		return err
	}
	if err := h.chat.Leave(c.UserContext(), actor, c.Params("id")); err != nil {
		return err
	}
	return c.SendStatus(http.StatusNoContent)
}
