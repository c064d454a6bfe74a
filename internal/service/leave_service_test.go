package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
)

type leaveFixture struct {
	employees     *fakeEmployees
	leaves        *fakeLeaves
	workflows     *fakeWorkflows
	notifications *fakeNotifications
	mail          *recordingMailer
	workflowSvc   *WorkflowService
	svc           *LeaveService
}

func newLeaveFixture(t *testing.T, withWorkflow bool) *leaveFixture {
	t.Helper()
	f := &leaveFixture{
		employees: newFakeEmployees(dg(), director("dir-1", "dept-adm"), director("dir-2", "dept-fin"),
			staff("staff-1", "dept-adm"), staff("staff-2", "dept-adm")),
		leaves:        newFakeLeaves(),
		workflows:     newFakeWorkflows(),
		notifications: &fakeNotifications{},
		mail:          &recordingMailer{},
	}
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	tx := &noopTx{}
	notifications := NewNotificationService(NotificationDependencies{
		NotificationRepo: f.notifications,
		EmployeeRepo:     f.employees,
		Mailer:           f.mail,
		Dispatcher:       dispatcher,
		Clock:            fixedClock,
	})
	notifications.RegisterHandlers()
	f.workflowSvc = NewWorkflowService(WorkflowDependencies{
		WorkflowRepo: f.workflows,
		Transactor:   tx,
		Dispatcher:   dispatcher,
		Clock:        fixedClock,
	})
	f.svc = NewLeaveService(LeaveDependencies{
		LeaveRepo:       f.leaves,
		EmployeeRepo:    f.employees,
		WorkflowService: f.workflowSvc,
		Notifier:        notifications,
		Dispatcher:      dispatcher,
		Transactor:      tx,
		Clock:           fixedClock,
	})
	f.svc.RegisterHandlers()

	if withWorkflow {
		actor := dg()
		_, err := f.workflowSvc.DefineWorkflow(context.Background(), &actor, WorkflowInput{
			Name:       "Leave approval",
			RecordType: "LEAVE_REQUEST",
			Steps: []domain.WorkflowStep{
				{Name: "Director review", RequiredRole: "dir"},
				{Name: "DG sign-off", RequiredRole: domain.RoleDirectorGeneral},
			},
		})
		require.NoError(t, err)
	}
	return f
}

func (f *leaveFixture) actor(id string) *domain.Employee {
	e := f.employees.get(id)
	return &e
}

func annualLeave(startOffsetDays, days int) LeaveInput {
	start := testNow.AddDate(0, 0, startOffsetDays)
	return LeaveInput{
		LeaveType: "Annual",
		StartDate: start,
		EndDate:   start.AddDate(0, 0, days-1),
		Reason:    "family visit",
	}
}

func TestLeaveApprovedThroughWorkflow(t *testing.T) {
	f := newLeaveFixture(t, true)
	ctx := context.Background()

	leave, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(7, 5))
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusPending, leave.Status)
	assert.Equal(t, domain.LeaveTypeAnnual, leave.LeaveType)
	assert.Equal(t, 5, leave.Days())

	inst, err := f.workflowSvc.FindOpenForRecord(ctx, domain.LeaveRecordType, leave.ID)
	require.NoError(t, err)
	require.NotNil(t, inst)
	assert.Equal(t, 1, inst.CurrentStep)

	// The applicant cannot approve their own request.
	_, err = f.svc.Decide(ctx, f.actor("staff-1"), leave.ID, domain.DecisionApproved, "")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	// Staff do not hold the role of the first step.
	_, err = f.svc.Decide(ctx, f.actor("staff-2"), leave.ID, domain.DecisionApproved, "")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	got, err := f.svc.Decide(ctx, f.actor("dir-1"), leave.ID, "approved", "ok from me")
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusPending, got.Status)

	notes := f.notifications.forRecipient("staff-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Request moved forward", notes[0].Title)

	got, err = f.svc.Decide(ctx, f.actor("dg-1"), leave.ID, domain.DecisionApproved, "enjoy")
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusApproved, got.Status)
	require.NotNil(t, got.DecidedBy)
	assert.Equal(t, "dg-1", *got.DecidedBy)
	assert.Equal(t, "enjoy", got.DecisionComment)

	require.Len(t, f.workflows.approvals, 2)
	sent := f.mail.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"staff-1@example.gov.ng"}, sent[0].To)

	_, err = f.svc.Decide(ctx, f.actor("dg-1"), leave.ID, domain.DecisionApproved, "")
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestLeaveRejectedThroughWorkflow(t *testing.T) {
	f := newLeaveFixture(t, true)
	ctx := context.Background()

	leave, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(3, 2))
	require.NoError(t, err)

	got, err := f.svc.Decide(ctx, f.actor("dir-1"), leave.ID, domain.DecisionRejected, "busy period")
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusRejected, got.Status)

	inst, err := f.workflows.GetOpenInstanceByRecord(ctx, domain.LeaveRecordType, leave.ID)
	assert.Nil(t, inst)
	assert.Error(t, err)
}

func TestLeaveDecidedDirectlyWithoutWorkflow(t *testing.T) {
	f := newLeaveFixture(t, false)
	ctx := context.Background()

	leave, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(1, 1))
	require.NoError(t, err)
	assert.Empty(t, f.workflows.instances)

	_, err = f.svc.Decide(ctx, f.actor("dir-2"), leave.ID, domain.DecisionApproved, "")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	_, err = f.svc.Decide(ctx, f.actor("dir-1"), leave.ID, "maybe", "")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	got, err := f.svc.Decide(ctx, f.actor("dir-1"), leave.ID, domain.DecisionApproved, "")
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusApproved, got.Status)
	require.NotNil(t, got.DecidedAt)
	assert.Equal(t, testNow, *got.DecidedAt)

	notes := f.notifications.forRecipient("staff-1")
	require.Len(t, notes, 1)
	assert.Equal(t, "Leave request approved", notes[0].Title)
	assert.Len(t, f.mail.messages(), 1)
}

func TestLeaveSubmitValidation(t *testing.T) {
	f := newLeaveFixture(t, false)
	ctx := context.Background()

	in := annualLeave(5, 3)
	in.EndDate = in.StartDate.AddDate(0, 0, -1)
	_, err := f.svc.Submit(ctx, f.actor("staff-1"), in)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(-2, 3))
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	in = annualLeave(5, 3)
	in.LeaveType = "holiday"
	_, err = f.svc.Submit(ctx, f.actor("staff-1"), in)
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestLeaveOverlapConflicts(t *testing.T) {
	f := newLeaveFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(10, 5))
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(14, 3))
	assert.Equal(t, "CONFLICT", errCode(t, err))

	// Adjacent periods do not overlap.
	_, err = f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(15, 2))
	assert.NoError(t, err)

	// Other employees are unaffected.
	_, err = f.svc.Submit(ctx, f.actor("staff-2"), annualLeave(10, 5))
	assert.NoError(t, err)
}

func TestLeaveCancelWithdrawsWorkflow(t *testing.T) {
	f := newLeaveFixture(t, true)
	ctx := context.Background()

	leave, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(7, 2))
	require.NoError(t, err)

	_, err = f.svc.Cancel(ctx, f.actor("staff-2"), leave.ID)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	got, err := f.svc.Cancel(ctx, f.actor("staff-1"), leave.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeaveStatusCancelled, got.Status)

	for _, inst := range f.workflows.instances {
		assert.Equal(t, domain.WorkflowStatusCancelled, inst.Status)
	}

	// A cancelled request no longer blocks the same dates.
	_, err = f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(7, 2))
	assert.NoError(t, err)
}

func TestLeaveListingScope(t *testing.T) {
	f := newLeaveFixture(t, false)
	ctx := context.Background()

	_, err := f.svc.Submit(ctx, f.actor("staff-1"), annualLeave(3, 1))
	require.NoError(t, err)
	_, err = f.svc.Submit(ctx, f.actor("staff-2"), annualLeave(3, 1))
	require.NoError(t, err)

	mine, err := f.svc.ListMine(ctx, f.actor("staff-1"), nil, 20, 0)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "staff-1", mine[0].EmployeeID)

	_, err = f.svc.List(ctx, f.actor("staff-1"), nil, 20, 0)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestDefineWorkflowRequiresDG(t *testing.T) {
	f := newLeaveFixture(t, false)
	_, err := f.workflowSvc.DefineWorkflow(context.Background(), f.actor("dir-1"), WorkflowInput{
		Name:       "Leave approval",
		RecordType: domain.LeaveRecordType,
		Steps:      []domain.WorkflowStep{{Name: "Review", RequiredRole: domain.RoleDirector}},
	})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	actor := dg()
	_, err = f.workflowSvc.DefineWorkflow(context.Background(), &actor, WorkflowInput{
		Name:       "Broken",
		RecordType: domain.LeaveRecordType,
		Steps:      []domain.WorkflowStep{{Name: "Review", RequiredRole: "BOSS"}},
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}

func TestWorkflowRedefinitionReplacesActive(t *testing.T) {
	f := newLeaveFixture(t, true)
	actor := dg()
	_, err := f.workflowSvc.DefineWorkflow(context.Background(), &actor, WorkflowInput{
		Name:       "Leave approval v2",
		RecordType: domain.LeaveRecordType,
		Steps:      []domain.WorkflowStep{{Name: "DG only", RequiredRole: domain.RoleDirectorGeneral}},
	})
	require.NoError(t, err)

	active := 0
	for _, wf := range f.workflows.workflows {
		if wf.Active {
			active++
			assert.Equal(t, "Leave approval v2", wf.Name)
		}
	}
	assert.Equal(t, 1, active)
}

func TestSubmitComparesCalendarDaysInUTC(t *testing.T) {
	f := newLeaveFixture(t, false)
	evening := time.Date(2024, 6, 2, 22, 0, 0, 0, time.FixedZone("UTC-5", -5*60*60))
	f.svc.now = func() time.Time { return evening }

	leave, err := f.svc.Submit(context.Background(), f.actor("staff-1"), LeaveInput{
		LeaveType: "annual",
		StartDate: time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 4, 0, 0, 0, 0, time.UTC),
		Reason:    "moving house",
	})
	require.NoError(t, err)
	assert.Equal(t, time.UTC, leave.StartDate.Location())
	assert.Equal(t, 3, leave.Days())

	_, err = f.svc.Submit(context.Background(), f.actor("staff-2"), LeaveInput{
		LeaveType: "annual",
		StartDate: time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		Reason:    "too late",
	})
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
}
