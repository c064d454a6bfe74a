package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoStepWorkflow() *Workflow {
	return &Workflow{
		ID:         "wf-1",
		Name:       "Leave approval",
		RecordType: LeaveRecordType,
		Active:     true,
		Steps: []WorkflowStep{
			{Name: "Director review", StepOrder: 1, RequiredRole: RoleDirector},
			{Name: "DG sign-off", StepOrder: 2, RequiredRole: RoleDirectorGeneral},
		},
	}
}

func newInstance() *WorkflowInstance {
	return &WorkflowInstance{ID: "inst-1", WorkflowID: "wf-1", InitiatorID: "staff-1", CurrentStep: 1, Status: WorkflowStatusInProgress}
}

func TestWorkflowDecideAdvancesThenCompletes(t *testing.T) {
	wf := twoStepWorkflow()
	inst := newInstance()
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	tr, err := inst.Decide(wf, &Employee{ID: "dir-1", Role: RoleDirector}, DecisionApproved, "ok", now)
	require.NoError(t, err)
	assert.False(t, tr.Completed)
	assert.Equal(t, 2, inst.CurrentStep)
	assert.Equal(t, WorkflowStatusInProgress, inst.Status)
	assert.Equal(t, "Director review", tr.Approval.StepName)
	assert.Equal(t, 1, tr.Approval.StepOrder)

	tr, err = inst.Decide(wf, &Employee{ID: "dg-1", Role: RoleDirectorGeneral}, DecisionApproved, "", now)
	require.NoError(t, err)
	assert.True(t, tr.Completed)
	assert.Equal(t, WorkflowStatusApproved, inst.Status)
	require.NotNil(t, inst.CompletedAt)
	assert.Equal(t, 2, inst.CurrentStep)
}

func TestWorkflowDecideRejectIsTerminal(t *testing.T) {
	wf := twoStepWorkflow()
	inst := newInstance()
	now := time.Now()

	tr, err := inst.Decide(wf, &Employee{ID: "dir-1", Role: RoleDirector}, DecisionRejected, "no budget", now)
	require.NoError(t, err)
	assert.True(t, tr.Rejected)
	assert.Equal(t, WorkflowStatusRejected, inst.Status)

	_, err = inst.Decide(wf, &Employee{ID: "dg-1", Role: RoleDirectorGeneral}, DecisionApproved, "", now)
	assert.ErrorIs(t, err, ErrWorkflowClosed)
}

func TestWorkflowDecideGuards(t *testing.T) {
	wf := twoStepWorkflow()
	now := time.Now()

	t.Run("wrong role", func(t *testing.T) {
		inst := newInstance()
		_, err := inst.Decide(wf, &Employee{ID: "sc-1", Role: RoleStateCoordinator}, DecisionApproved, "", now)
		assert.ErrorIs(t, err, ErrApproverRole)
		assert.Equal(t, 1, inst.CurrentStep)
	})

	t.Run("director general may act on any step", func(t *testing.T) {
		inst := newInstance()
		_, err := inst.Decide(wf, &Employee{ID: "dg-1", Role: RoleDirectorGeneral}, DecisionApproved, "", now)
		assert.NoError(t, err)
	})

	t.Run("self approval", func(t *testing.T) {
		inst := newInstance()
		inst.InitiatorID = "dir-1"
		_, err := inst.Decide(wf, &Employee{ID: "dir-1", Role: RoleDirector}, DecisionApproved, "", now)
		assert.ErrorIs(t, err, ErrSelfApproval)
	})

	t.Run("unknown decision", func(t *testing.T) {
		inst := newInstance()
		_, err := inst.Decide(wf, &Employee{ID: "dir-1", Role: RoleDirector}, Decision("MAYBE"), "", now)
		assert.ErrorIs(t, err, ErrInvalidDecision)
	})

	t.Run("dangling step", func(t *testing.T) {
		inst := newInstance()
		inst.CurrentStep = 9
		_, err := inst.Decide(wf, &Employee{ID: "dir-1", Role: RoleDirector}, DecisionApproved, "", now)
		assert.ErrorIs(t, err, ErrWorkflowStep)
	})
}

func TestWorkflowCancel(t *testing.T) {
	now := time.Now()
	inst := newInstance()

	assert.ErrorIs(t, inst.Cancel("someone-else", now), ErrNotInitiator)
	require.NoError(t, inst.Cancel("staff-1", now))
	assert.Equal(t, WorkflowStatusCancelled, inst.Status)
	assert.ErrorIs(t, inst.Cancel("staff-1", now), ErrWorkflowClosed)
}

func TestValidateSteps(t *testing.T) {
	steps, err := ValidateSteps([]WorkflowStep{
		{Name: "a", StepOrder: 7, RequiredRole: RoleDirector},
		{Name: "b", RequiredRole: RoleDirectorGeneral},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, steps[0].StepOrder)
	assert.Equal(t, 2, steps[1].StepOrder)

	_, err = ValidateSteps(nil)
	assert.ErrorIs(t, err, ErrWorkflowNoSteps)

	_, err = ValidateSteps([]WorkflowStep{{Name: "a", RequiredRole: RoleDirector}, {Name: "a", RequiredRole: RoleDirector}})
	assert.ErrorIs(t, err, ErrWorkflowDuplicate)

	_, err = ValidateSteps([]WorkflowStep{{Name: "a", RequiredRole: Role("BOSS")}})
	assert.ErrorIs(t, err, ErrWorkflowStepRole)

	_, err = ValidateSteps([]WorkflowStep{{RequiredRole: RoleDirector}})
	assert.ErrorIs(t, err, ErrWorkflowStepNaming)
}
