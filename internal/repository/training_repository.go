package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// TrainingRepository persists trainings and their participants.
type TrainingRepository interface {
	Create(ctx context.Context, t *domain.Training) error
	GetByID(ctx context.Context, id string) (*domain.Training, error)
	List(ctx context.Context, limit, offset int) ([]domain.Training, error)
	ListForEmployee(ctx context.Context, employeeID string) ([]domain.Training, error)
	AddParticipant(ctx context.Context, trainingID, employeeID string) error
}

const trainingSelect = `
        SELECT t.id, t.title, t.description, t.start_date, t.end_date, t.trainer, t.created_by, t.created_at,
               COALESCE(array_agg(tp.employee_id::text ORDER BY tp.enrolled_at, tp.employee_id)
                        FILTER (WHERE tp.employee_id IS NOT NULL), '{}')
        FROM trainings t LEFT JOIN training_participants tp ON tp.training_id = t.id`

type trainingRepository struct {
	db persistence.DBTX
}

// NewTrainingRepository instantiates repository.
func NewTrainingRepository(db persistence.DBTX) TrainingRepository {
	return &trainingRepository{db: db}
}

func (r *trainingRepository) Create(ctx context.Context, t *domain.Training) error {
	const insertTraining = `
        INSERT INTO trainings (title, description, start_date, end_date, trainer, created_by)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	const insertParticipant = `INSERT INTO training_participants (training_id, employee_id) VALUES ($1,$2)`

	db := persistence.Conn(ctx, r.db)
	if err := db.QueryRow(ctx, insertTraining,
		t.Title, t.Description, t.StartDate, t.EndDate, t.Trainer, t.CreatedBy,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return err
	}
	for _, id := range t.ParticipantIDs {
		if _, err := db.Exec(ctx, insertParticipant, t.ID, id); err != nil {
			return err
		}
	}
	return nil
}

func (r *trainingRepository) GetByID(ctx context.Context, id string) (*domain.Training, error) {
	query := trainingSelect + ` WHERE t.id=$1 GROUP BY t.id`
	return scanTraining(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *trainingRepository) List(ctx context.Context, limit, offset int) ([]domain.Training, error) {
	query := trainingSelect + ` GROUP BY t.id ORDER BY t.start_date DESC, t.created_at DESC` + page(limit, offset)
	return r.query(ctx, query)
}

func (r *trainingRepository) ListForEmployee(ctx context.Context, employeeID string) ([]domain.Training, error) {
	query := trainingSelect + `
        WHERE t.id IN (SELECT training_id FROM training_participants WHERE employee_id=$1)
        GROUP BY t.id ORDER BY t.start_date DESC`
	return r.query(ctx, query, employeeID)
}

func (r *trainingRepository) AddParticipant(ctx context.Context, trainingID, employeeID string) error {
	const query = `INSERT INTO training_participants (training_id, employee_id) VALUES ($1,$2)`
	_, err := persistence.Conn(ctx, r.db).Exec(ctx, query, trainingID, employeeID)
	return err
}

func (r *trainingRepository) query(ctx context.Context, query string, args ...any) ([]domain.Training, error) {
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Training
	for rows.Next() {
		t, err := scanTraining(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

func scanTraining(row pgx.Row) (*domain.Training, error) {
	var t domain.Training
	if err := row.Scan(&t.ID, &t.Title, &t.Description, &t.StartDate, &t.EndDate, &t.Trainer, &t.CreatedBy,
		&t.CreatedAt, &t.ParticipantIDs); err != nil {
		return nil, err
	}
	return &t, nil
}
