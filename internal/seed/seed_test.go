package seed

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

type recordingWorkflows struct {
	active  map[string]bool
	defined []service.WorkflowInput
	actors  []*domain.Employee
}

func (r *recordingWorkflows) HasActive(_ context.Context, recordType string) (bool, error) {
	return r.active[recordType], nil
}

func (r *recordingWorkflows) DefineWorkflow(_ context.Context, actor *domain.Employee, input service.WorkflowInput) (*domain.Workflow, error) {
	r.defined = append(r.defined, input)
	r.actors = append(r.actors, actor)
	return &domain.Workflow{ID: "wf", Name: input.Name, RecordType: input.RecordType}, nil
}

type recordingGrades struct {
	levels []domain.GradeLevel
	err    error
}

func (r *recordingGrades) UpsertGradeLevels(_ context.Context, _ *domain.Employee, levels []domain.GradeLevel) ([]domain.GradeLevel, error) {
	if r.err != nil {
		return nil, r.err
	}
	r.levels = levels
	return levels, nil
}

func TestDefaultsParse(t *testing.T) {
	file, err := Defaults()
	require.NoError(t, err)

	require.NotEmpty(t, file.Workflows)
	var leave *Workflow
	for i := range file.Workflows {
		if file.Workflows[i].RecordType == domain.LeaveRecordType {
			leave = &file.Workflows[i]
		}
	}
	require.NotNil(t, leave, "defaults must define the leave workflow")
	require.Len(t, leave.Steps, 2)
	assert.Equal(t, "DIR", leave.Steps[0].RequiredRole)
	assert.Equal(t, "DG", leave.Steps[1].RequiredRole)

	require.Len(t, file.GradeLevels, domain.MaxGradeLevel)
	for i, g := range file.GradeLevels {
		assert.Equal(t, i+1, g.Level)
		assert.Positive(t, g.PerDiem)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	_, err := Parse([]byte("workflows:\n  - name: x\n    recordtype: leave_request\n"))
	assert.Error(t, err)
}

func TestParseEmptyDocument(t *testing.T) {
	file, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, file.Workflows)
	assert.Empty(t, file.GradeLevels)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
grade_levels:
  - level: 7
    per_diem: 20000
    local_running: 7500
    estacode: 350
    assumption_of_duty: 45000
`), 0o600))

	file, err := Load(path)
	require.NoError(t, err)
	require.Len(t, file.GradeLevels, 1)
	assert.Equal(t, int64(45000), file.GradeLevels[0].AssumptionOfDuty)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestApplySkipsActiveWorkflows(t *testing.T) {
	file, err := Defaults()
	require.NoError(t, err)

	workflows := &recordingWorkflows{active: map[string]bool{domain.LeaveRecordType: true}}
	grades := &recordingGrades{}
	res, err := Apply(context.Background(), file, workflows, grades, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.Equal(t, 1, res.WorkflowsSkipped)
	assert.Equal(t, len(file.Workflows)-1, res.WorkflowsDefined)
	assert.Equal(t, domain.MaxGradeLevel, res.GradeLevels)
	for _, in := range workflows.defined {
		assert.NotEqual(t, domain.LeaveRecordType, in.RecordType)
		assert.NotEmpty(t, in.Steps)
	}
	for _, actor := range workflows.actors {
		assert.Equal(t, domain.RoleDirectorGeneral, actor.Role)
	}
	assert.Len(t, grades.levels, domain.MaxGradeLevel)
}

func TestApplyPropagatesGradeLevelErrors(t *testing.T) {
	file := &File{GradeLevels: []GradeLevel{{Level: 1}}}
	_, err := Apply(context.Background(), file, &recordingWorkflows{}, &recordingGrades{err: errors.New("db down")}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "db down")
}
