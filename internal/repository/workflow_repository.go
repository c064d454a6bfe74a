package repository

import (
	"context"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
)

// WorkflowRepository persists workflow definitions, instances and the
// approval trail.
type WorkflowRepository interface {
	CreateWorkflow(ctx context.Context, wf *domain.Workflow) error
	DeactivateByRecordType(ctx context.Context, recordType string) error
	GetWorkflow(ctx context.Context, id string) (*domain.Workflow, error)
	GetActiveByRecordType(ctx context.Context, recordType string) (*domain.Workflow, error)
	ListWorkflows(ctx context.Context) ([]domain.Workflow, error)

	CreateInstance(ctx context.Context, inst *domain.WorkflowInstance) error
	GetInstance(ctx context.Context, id string) (*domain.WorkflowInstance, error)
	GetInstanceForUpdate(ctx context.Context, id string) (*domain.WorkflowInstance, error)
	GetOpenInstanceByRecord(ctx context.Context, recordType, recordID string) (*domain.WorkflowInstance, error)
	UpdateInstance(ctx context.Context, inst *domain.WorkflowInstance) error
	ListPendingForRole(ctx context.Context, role domain.Role, excludeInitiator string) ([]domain.WorkflowInstance, error)

	CreateApproval(ctx context.Context, a *domain.WorkflowApproval) error
	ListApprovals(ctx context.Context, instanceID string) ([]domain.WorkflowApproval, error)
}

const instanceColumns = `i.id, i.workflow_id, i.record_type, i.record_id, i.initiator_id, i.current_step,
        i.status, i.created_at, i.updated_at, i.completed_at`

type workflowRepository struct {
	db persistence.DBTX
}

// NewWorkflowRepository instantiates repository.
func NewWorkflowRepository(db persistence.DBTX) WorkflowRepository {
	return &workflowRepository{db: db}
}

func (r *workflowRepository) CreateWorkflow(ctx context.Context, wf *domain.Workflow) error {
	const insertWorkflow = `
        INSERT INTO workflows (name, record_type, description, active_flag)
        VALUES ($1,$2,$3,$4)
        RETURNING id, created_at`
	const insertStep = `
        INSERT INTO workflow_steps (workflow_id, name, step_order, required_role)
        VALUES ($1,$2,$3,$4)
        RETURNING id`

	db := persistence.Conn(ctx, r.db)
	if err := db.QueryRow(ctx, insertWorkflow, wf.Name, wf.RecordType, wf.Description, wf.Active).
		Scan(&wf.ID, &wf.CreatedAt); err != nil {
		return err
	}
	for i := range wf.Steps {
		step := &wf.Steps[i]
		step.WorkflowID = wf.ID
		if err := db.QueryRow(ctx, insertStep, wf.ID, step.Name, step.StepOrder, step.RequiredRole).
			Scan(&step.ID); err != nil {
			return err
		}
	}
	return nil
}

func (r *workflowRepository) DeactivateByRecordType(ctx context.Context, recordType string) error {
	const query = `UPDATE workflows SET active_flag=FALSE WHERE record_type=$1 AND active_flag`
	_, err := persistence.Conn(ctx, r.db).Exec(ctx, query, recordType)
	return err
}

func (r *workflowRepository) GetWorkflow(ctx context.Context, id string) (*domain.Workflow, error) {
	const query = `SELECT id, name, record_type, description, active_flag, created_at FROM workflows WHERE id=$1`
	return r.loadWorkflow(ctx, query, id)
}

func (r *workflowRepository) GetActiveByRecordType(ctx context.Context, recordType string) (*domain.Workflow, error) {
	const query = `SELECT id, name, record_type, description, active_flag, created_at FROM workflows WHERE record_type=$1 AND active_flag`
	return r.loadWorkflow(ctx, query, recordType)
}

func (r *workflowRepository) ListWorkflows(ctx context.Context) ([]domain.Workflow, error) {
	const query = `SELECT id, name, record_type, description, active_flag, created_at FROM workflows ORDER BY record_type, created_at DESC`
	db := persistence.Conn(ctx, r.db)
	rows, err := db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	var out []domain.Workflow
	for rows.Next() {
		var wf domain.Workflow
		if err := rows.Scan(&wf.ID, &wf.Name, &wf.RecordType, &wf.Description, &wf.Active, &wf.CreatedAt); err != nil {
			rows.Close()
			return nil, err
		}
		out = append(out, wf)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		steps, err := r.listSteps(ctx, db, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Steps = steps
	}
	return out, nil
}

func (r *workflowRepository) loadWorkflow(ctx context.Context, query string, arg string) (*domain.Workflow, error) {
	db := persistence.Conn(ctx, r.db)
	var wf domain.Workflow
	if err := db.QueryRow(ctx, query, arg).
		Scan(&wf.ID, &wf.Name, &wf.RecordType, &wf.Description, &wf.Active, &wf.CreatedAt); err != nil {
		return nil, err
	}
	steps, err := r.listSteps(ctx, db, wf.ID)
	if err != nil {
		return nil, err
	}
	wf.Steps = steps
	return &wf, nil
}

func (r *workflowRepository) listSteps(ctx context.Context, db persistence.DBTX, workflowID string) ([]domain.WorkflowStep, error) {
	const query = `
        SELECT id, workflow_id, name, step_order, required_role
        FROM workflow_steps WHERE workflow_id=$1 ORDER BY step_order`
	rows, err := db.Query(ctx, query, workflowID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var steps []domain.WorkflowStep
	for rows.Next() {
		var s domain.WorkflowStep
		if err := rows.Scan(&s.ID, &s.WorkflowID, &s.Name, &s.StepOrder, &s.RequiredRole); err != nil {
			return nil, err
		}
		steps = append(steps, s)
	}
	return steps, rows.Err()
}

func (r *workflowRepository) CreateInstance(ctx context.Context, inst *domain.WorkflowInstance) error {
	const query = `
        INSERT INTO workflow_instances (workflow_id, record_type, record_id, initiator_id, current_step, status)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		inst.WorkflowID, inst.RecordType, inst.RecordID, inst.InitiatorID, inst.CurrentStep, inst.Status,
	).Scan(&inst.ID, &inst.CreatedAt, &inst.UpdatedAt)
}

func (r *workflowRepository) GetInstance(ctx context.Context, id string) (*domain.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances i WHERE i.id=$1`
	return scanInstance(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

// GetInstanceForUpdate locks the row until the surrounding transaction ends.
func (r *workflowRepository) GetInstanceForUpdate(ctx context.Context, id string) (*domain.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances i WHERE i.id=$1 FOR UPDATE`
	return scanInstance(persistence.Conn(ctx, r.db).QueryRow(ctx, query, id))
}

func (r *workflowRepository) GetOpenInstanceByRecord(ctx context.Context, recordType, recordID string) (*domain.WorkflowInstance, error) {
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances i
        WHERE i.record_type=$1 AND i.record_id=$2 AND i.status='IN_PROGRESS'`
	return scanInstance(persistence.Conn(ctx, r.db).QueryRow(ctx, query, recordType, recordID))
}

func (r *workflowRepository) UpdateInstance(ctx context.Context, inst *domain.WorkflowInstance) error {
	const query = `
        UPDATE workflow_instances
        SET current_step=$1, status=$2, updated_at=$3, completed_at=$4
        WHERE id=$5`
	return execOne(ctx, persistence.Conn(ctx, r.db), query,
		inst.CurrentStep, inst.Status, inst.UpdatedAt, inst.CompletedAt, inst.ID)
}

func (r *workflowRepository) ListPendingForRole(ctx context.Context, role domain.Role, excludeInitiator string) ([]domain.WorkflowInstance, error) {
	w := &where{}
	w.raw("i.status='IN_PROGRESS'")
	if role != domain.RoleDirectorGeneral {
		w.add("s.required_role=$%d", role)
	}
	if excludeInitiator != "" {
		w.add("i.initiator_id<>$%d", excludeInitiator)
	}
	query := `SELECT ` + instanceColumns + ` FROM workflow_instances i
        JOIN workflow_steps s ON s.workflow_id = i.workflow_id AND s.step_order = i.current_step` +
		w.String() + ` ORDER BY i.created_at`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, w.args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WorkflowInstance
	for rows.Next() {
		inst, err := scanInstance(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inst)
	}
	return out, rows.Err()
}

func (r *workflowRepository) CreateApproval(ctx context.Context, a *domain.WorkflowApproval) error {
	const query = `
        INSERT INTO workflow_approvals (instance_id, step_order, step_name, approver_id, decision, comment, decided_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING id`
	return persistence.Conn(ctx, r.db).QueryRow(ctx, query,
		a.InstanceID, a.StepOrder, a.StepName, a.ApproverID, a.Decision, a.Comment, a.DecidedAt,
	).Scan(&a.ID)
}

func (r *workflowRepository) ListApprovals(ctx context.Context, instanceID string) ([]domain.WorkflowApproval, error) {
	const query = `
        SELECT id, instance_id, step_order, step_name, approver_id, decision, comment, decided_at
        FROM workflow_approvals WHERE instance_id=$1 ORDER BY decided_at, step_order`
	rows, err := persistence.Conn(ctx, r.db).Query(ctx, query, instanceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.WorkflowApproval
	for rows.Next() {
		var a domain.WorkflowApproval
		if err := rows.Scan(&a.ID, &a.InstanceID, &a.StepOrder, &a.StepName, &a.ApproverID,
			&a.Decision, &a.Comment, &a.DecidedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanInstance(row pgx.Row) (*domain.WorkflowInstance, error) {
	var i domain.WorkflowInstance
	if err := row.Scan(
		&i.ID,
		&i.WorkflowID,
		&i.RecordType,
		&i.RecordID,
		&i.InitiatorID,
		&i.CurrentStep,
		&i.Status,
		&i.CreatedAt,
		&i.UpdatedAt,
		&i.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &i, nil
}
