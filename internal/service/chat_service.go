package service

import (
	"context"
	"strings"
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// ChatService manages direct and group conversations.
type ChatService struct {
	chats     repository.ChatRepository
	employees repository.EmployeeRepository
	tx        persistence.Transactor
	now       func() time.Time
}

// ChatDependencies bundles collaborators for the chat service.
type ChatDependencies struct {
	ChatRepo     repository.ChatRepository
	EmployeeRepo repository.EmployeeRepository
	Transactor   persistence.Transactor
	Clock        func() time.Time
}

// NewChatService constructs the service.
func NewChatService(deps ChatDependencies) *ChatService {
	return &ChatService{
		chats:     deps.ChatRepo,
		employees: deps.EmployeeRepo,
		tx:        deps.Transactor,
		now:       clockOrDefault(deps.Clock),
	}
}

// Create opens a chat between the creator and the listed participants.
// More than two members makes it a group, which needs a name.
func (s *ChatService) Create(ctx context.Context, actor *domain.Employee, name string, participantIDs []string) (*domain.Chat, error) {
	members := []string{actor.ID}
	seen := map[string]struct{}{actor.ID: {}}
	for _, id := range participantIDs {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		members = append(members, id)
	}

	chat := &domain.Chat{Name: strings.TrimSpace(name), IsGroup: len(members) > 2, CreatedBy: actor.ID}
	errs := fieldErrors{}
	if len(members) < 2 {
		errs.add("participant_ids", "at least one other participant is required")
	}
	if chat.IsGroup && chat.Name == "" {
		errs.add("name", "is required for group chats")
	}
	if err := errs.err("invalid chat"); err != nil {
		return nil, err
	}

	for _, id := range members[1:] {
		employee, err := s.employees.GetByID(ctx, id)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return nil, apperrors.NewValidationError("invalid chat", map[string]any{"participant_ids": "unknown employee " + id})
			}
			return nil, err
		}
		if !employee.Active {
			return nil, apperrors.NewValidationError("invalid chat", map[string]any{"participant_ids": "inactive employee " + id})
		}
	}

	for _, id := range members {
		chat.Participants = append(chat.Participants, domain.ChatParticipant{EmployeeID: id})
	}
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		return s.chats.Create(ctx, chat)
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// ListMine returns chats the caller still participates in.
func (s *ChatService) ListMine(ctx context.Context, actor *domain.Employee) ([]domain.Chat, error) {
	return s.chats.ListForEmployee(ctx, actor.ID)
}

// SendMessage posts to a chat the caller is active in.
func (s *ChatService) SendMessage(ctx context.Context, actor *domain.Employee, chatID, body string) (*domain.ChatMessage, error) {
	if _, err := s.activeChat(ctx, actor, chatID); err != nil {
		return nil, err
	}
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, apperrors.NewValidationError("invalid message", map[string]any{"body": "is required"})
	}
	msg := &domain.ChatMessage{ChatID: chatID, SenderID: actor.ID, Body: body}
	if err := s.chats.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	return msg, nil
}

// ListMessages returns a chat's messages, oldest first.
func (s *ChatService) ListMessages(ctx context.Context, actor *domain.Employee, chatID string, limit, offset int) ([]domain.ChatMessage, error) {
	if _, err := s.activeChat(ctx, actor, chatID); err != nil {
		return nil, err
	}
	return s.chats.ListMessages(ctx, chatID, limit, offset)
}

// Leave removes the caller from a chat.
func (s *ChatService) Leave(ctx context.Context, actor *domain.Employee, chatID string) error {
	if _, err := s.activeChat(ctx, actor, chatID); err != nil {
		return err
	}
	return notFound(s.chats.Leave(ctx, chatID, actor.ID, s.now()), "chat")
}

func (s *ChatService) activeChat(ctx context.Context, actor *domain.Employee, chatID string) (*domain.Chat, error) {
	chat, err := s.chats.GetByID(ctx, chatID)
	if err != nil {
		return nil, notFound(err, "chat")
	}
	if !chat.IsActiveParticipant(actor.ID) {
		return nil, apperrors.NewForbidden("not a participant in this chat")
	}
	return chat, nil
}
