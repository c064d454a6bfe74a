package repository

import (
	"context"
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// ChatRepository persists chats, participants and messages.
type ChatRepository interface {
	Create(ctx context.Context, c *domain.Chat) error
	GetByID(ctx context.Context, id string) (*domain.Chat, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]domain.Chat, error)
	Leave(ctx context.Context, chatID, employeeID string, at time.Time) error
	AddMessage(ctx context.Context, m *domain.ChatMessage) error
	ListMessages(ctx context.Context, chatID string, limit, offset int) ([]domain.ChatMessage, error)
}

type chatRepository struct {
	db persistence.DBTX
}

// NewChatRepository instantiates repository.
func NewChatRepository(db persistence.DBTX) ChatRepository {
	return &chatRepository{db: db}
}

func (r *chatRepository) Create(ctx context.Context, c *domain.Chat) error {
	const insertChat = `
        INSERT INTO chats (name, is_group, created_by)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	const insertParticipant = `
        INSERT INTO chat_participants (chat_id, employee_id)
        VALUES ($1,$2)
        RETURNING joined_at`

	db := persistence.Conn(ctx, r.db)
	if err := db.QueryRow(ctx, insertChat, c.Name, c.IsGroup, c.CreatedBy).Scan(&c.ID, &c.CreatedAt); err != nil {
		return err
	}
	for i := range c.Participants {
		p := &c.Participants[i]
		p.ChatID = c.ID
		if err := db.QueryRow(ctx, insertParticipant, c.ID, p.EmployeeID).Scan(&p.JoinedAt); err != nil {
			return err
		}
	}
	return nil
}

func (r *chatRepository) GetByID(ctx context.Context, id string) (*domain.Chat, error) {
	db := persistence.Conn(ctx, r.db)
	const query = `SELECT id, name, is_group, created_by, created_at FROM chats WHERE id=$1`
	var c domain.Chat
	if err := db.QueryRow(ctx, query, id).Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatedBy, &c.CreatedAt); err != nil {
		return nil, err
	}
	participants, err := r.listParticipants(ctx, db, id)
	if err != nil {
		return nil, err
	}
	c.Participants = participants
	return &c, nil
}

func (r *chatRepository) ListForEmployee(ctx context.Context, employeeID string) ([]domain.Chat, error) {
	const query = `
        SELECT c.id, c.name, c.is_group, c.created_by, c.created_at
        FROM chats c JOIN chat_participants p ON p.chat_id = c.id
        WHERE p.employee_id=$1 AND p.left_at IS NULL
        ORDER BY c.created_at DESC`
	db := persistence.Conn(ctx, r.db)
	rows, err := db.Query(ctx, query, employeeID)
	if err != nil {
		return nil, err
	}
	var out []domain.Chat
	for rows.Next() {
		var c domain.Chat
		if err := rows.Scan(&c.ID, &c.Name, &c.IsGroup, &c.CreatedBy, &c.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		participants, err := r.listParticipants(ctx, db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Participants = participants
	}
	return out, nil
}

func (r *chatRepository) listParticipants(ctx context.Context, db persistence.DBTX, chatID string) ([]domain.ChatParticipant, error) {
	const query = `
        SELECT chat_id, employee_id, joined_at, left_at
        FROM chat_participants WHERE chat_id=$1 ORDER BY joined_at, employee_id`
	rows, err := db.Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatParticipant
	for rows.Next() {
		var p domain.ChatParticipant
		if err := rows.Scan(&p.ChatID, &p.EmployeeID, &p.JoinedAt, &p.LeftAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *chatRepository) Leave(ctx context.Context, chatID, employeeID string, at time.Time) error {
	const query = `UPDATE chat_participants SET left_at=$1 WHERE chat_id=$2 AND employee_id=$3 AND left_at IS NULL`
	return execOne(ctx, persistence.Conn(ctx, r.db), query, at, chatID, employeeID)
}

func (r *chatRepository) AddMessage(ctx context.Context, m *domain.ChatMessage) error {
	const query = `
        INSERT INTO chat_messages (chat_id, sender_id, body)
        VALUES ($1,$2,$3)
        RETURNING id, created_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query, m.ChatID, m.SenderID, m.Body).Scan(&m.ID, &m.CreatedAt)
}

func (r *chatRepository) ListMessages(ctx context.Context, chatID string, limit, offset int) ([]domain.ChatMessage, error) {
	query := `SELECT id, chat_id, sender_id, body, created_at FROM chat_messages
        WHERE chat_id=$1 ORDER BY created_at` + page(limit, offset)
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, chatID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ChatMessage
	for rows.Next() {
		var m domain.ChatMessage
		if err := rows.Scan(&m.ID, &m.ChatID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
