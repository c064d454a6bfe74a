package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/mailer"
	"github.com/spec-kit/staff-portal/internal/repository"
)

var testNow = time.Date(2024, 6, 3, 9, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func strPtr(s string) *string { return &s }

func uniqueViolation(constraint string) error {
	return &pgconn.PgError{Code: "23505", ConstraintName: constraint}
}

type fakeSeq struct {
	mu sync.Mutex
	n  int
}

func (s *fakeSeq) next(prefix string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("%s-%d", prefix, s.n)
}

// noopTx runs fn directly; the fakes have no rollback.
type noopTx struct{ calls int }

func (t *noopTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	return fn(ctx)
}

type recordingMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
	err  error
}

func (m *recordingMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mailer.Message(nil), m.sent...)
}

// --- employees ---

type fakeEmployees struct {
	mu   sync.Mutex
	seq  fakeSeq
	rows map[string]domain.Employee
}

func newFakeEmployees(seed ...domain.Employee) *fakeEmployees {
	f := &fakeEmployees{rows: map[string]domain.Employee{}}
	for _, e := range seed {
		f.rows[e.ID] = e
	}
	return f
}

func (f *fakeEmployees) Create(_ context.Context, e *domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.seq.next("emp")
	e.CreatedAt, e.UpdatedAt = testNow, testNow
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEmployees) Update(_ context.Context, e *domain.Employee) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.rows[e.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[e.ID] = *e
	return nil
}

func (f *fakeEmployees) find(match func(domain.Employee) bool) (*domain.Employee, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.DeletedAt == nil && match(e) {
			cp := e
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	return f.find(func(e domain.Employee) bool { return e.ID == id })
}

func (f *fakeEmployees) GetByEmployeeNumber(_ context.Context, number string) (*domain.Employee, error) {
	return f.find(func(e domain.Employee) bool { return e.EmployeeNumber == number })
}

func (f *fakeEmployees) GetByEmail(_ context.Context, email string) (*domain.Employee, error) {
	return f.find(func(e domain.Employee) bool { return strings.EqualFold(e.Email, email) })
}

func (f *fakeEmployees) FindConflict(_ context.Context, number, email string, ippis *string, excludeID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.rows {
		if e.ID == excludeID {
			continue
		}
		switch {
		case e.EmployeeNumber == number:
			return "employee_id", nil
		case strings.EqualFold(e.Email, email):
			return "email", nil
		case ippis != nil && e.IPPISNumber != nil && *e.IPPISNumber == *ippis:
			return "ippis_number", nil
		}
	}
	return "", nil
}

func (f *fakeEmployees) filtered(filter repository.EmployeeFilter) []domain.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Employee
	for _, e := range f.rows {
		if e.DeletedAt != nil || !e.InScope(filter.Scope) {
			continue
		}
		if filter.Active != nil && e.Active != *filter.Active {
			continue
		}
		if filter.Role != nil && e.Role != *filter.Role {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EmployeeNumber < out[j].EmployeeNumber })
	return out
}

func (f *fakeEmployees) List(_ context.Context, filter repository.EmployeeFilter) ([]domain.Employee, error) {
	out := f.filtered(filter)
	if filter.Offset >= len(out) {
		return nil, nil
	}
	out = out[filter.Offset:]
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeEmployees) Count(_ context.Context, filter repository.EmployeeFilter) (int, error) {
	return len(f.filtered(filter)), nil
}

func (f *fakeEmployees) CountByRole(_ context.Context, scope domain.Scope) (map[domain.Role]int, error) {
	counts := map[domain.Role]int{}
	for _, e := range f.filtered(repository.EmployeeFilter{Scope: scope}) {
		counts[e.Role]++
	}
	return counts, nil
}

func (f *fakeEmployees) SoftDelete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok || e.DeletedAt != nil {
		return pgx.ErrNoRows
	}
	now := testNow
	e.DeletedAt = &now
	e.Active = false
	f.rows[id] = e
	return nil
}

func (f *fakeEmployees) UpdatePassword(_ context.Context, id, hash string, changeRequired bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.rows[id]
	if !ok {
		return pgx.ErrNoRows
	}
	e.PasswordHash = hash
	e.PasswordChangeRequired = changeRequired
	f.rows[id] = e
	return nil
}

func (f *fakeEmployees) UpdateCareer(ctx context.Context, e *domain.Employee) error {
	return f.Update(ctx, e)
}

func (f *fakeEmployees) ListRetiringBetween(_ context.Context, from, to time.Time, scope domain.Scope) ([]domain.Employee, error) {
	active := true
	var out []domain.Employee
	for _, e := range f.filtered(repository.EmployeeFilter{Scope: scope, Active: &active}) {
		if e.DateOfRetirement != nil && !e.DateOfRetirement.Before(from) && !e.DateOfRetirement.After(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEmployees) get(id string) domain.Employee {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[id]
}

// --- organisation ---

type fakeOrg struct {
	zones       map[string]domain.Zone
	states      map[string]domain.State
	lgas        []domain.LGA
	departments map[string]domain.Department
	grades      map[int]domain.GradeLevel
}

func newFakeOrg() *fakeOrg {
	return &fakeOrg{
		zones:  map[string]domain.Zone{"NC": {ID: "z-1", Code: "NC", Name: "North Central"}},
		states: map[string]domain.State{"FC": {ID: "s-1", Code: "FC", Name: "FCT", ZoneCode: "NC"}},
		departments: map[string]domain.Department{
			"ADM": {ID: "dept-adm", Code: "ADM", Name: "Administration", Active: true},
			"FIN": {ID: "dept-fin", Code: "FIN", Name: "Finance", Active: true},
		},
		grades: map[int]domain.GradeLevel{},
	}
}

func (f *fakeOrg) CreateZone(_ context.Context, z *domain.Zone) error {
	if _, ok := f.zones[z.Code]; ok {
		return uniqueViolation("zones_code_key")
	}
	z.ID = "z-" + z.Code
	f.zones[z.Code] = *z
	return nil
}

func (f *fakeOrg) UpdateZone(_ context.Context, z *domain.Zone) error {
	if _, ok := f.zones[z.Code]; !ok {
		return pgx.ErrNoRows
	}
	f.zones[z.Code] = *z
	return nil
}

func (f *fakeOrg) GetZone(_ context.Context, code string) (*domain.Zone, error) {
	z, ok := f.zones[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &z, nil
}

func (f *fakeOrg) ListZones(context.Context) ([]domain.Zone, error) {
	var out []domain.Zone
	for _, z := range f.zones {
		out = append(out, z)
	}
	return out, nil
}

func (f *fakeOrg) CreateState(_ context.Context, s *domain.State) error {
	if _, ok := f.states[s.Code]; ok {
		return uniqueViolation("states_code_key")
	}
	s.ID = "s-" + s.Code
	f.states[s.Code] = *s
	return nil
}

func (f *fakeOrg) UpdateState(_ context.Context, s *domain.State) error {
	if _, ok := f.states[s.Code]; !ok {
		return pgx.ErrNoRows
	}
	f.states[s.Code] = *s
	return nil
}

func (f *fakeOrg) GetState(_ context.Context, code string) (*domain.State, error) {
	s, ok := f.states[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeOrg) ListStates(_ context.Context, zoneCode *string) ([]domain.State, error) {
	var out []domain.State
	for _, s := range f.states {
		if zoneCode == nil || s.ZoneCode == *zoneCode {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeOrg) CreateLGA(_ context.Context, l *domain.LGA) error {
	l.ID = "lga-" + l.Code
	f.lgas = append(f.lgas, *l)
	return nil
}

func (f *fakeOrg) ListLGAs(_ context.Context, stateCode *string) ([]domain.LGA, error) {
	var out []domain.LGA
	for _, l := range f.lgas {
		if stateCode == nil || l.StateCode == *stateCode {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeOrg) CreateDepartment(_ context.Context, d *domain.Department) error {
	if _, ok := f.departments[d.Code]; ok {
		return uniqueViolation("departments_code_key")
	}
	d.ID = "dept-" + strings.ToLower(d.Code)
	f.departments[d.Code] = *d
	return nil
}

func (f *fakeOrg) UpdateDepartment(_ context.Context, d *domain.Department) error {
	if _, ok := f.departments[d.Code]; !ok {
		return pgx.ErrNoRows
	}
	f.departments[d.Code] = *d
	return nil
}

func (f *fakeOrg) GetDepartment(_ context.Context, code string) (*domain.Department, error) {
	d, ok := f.departments[code]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &d, nil
}

func (f *fakeOrg) GetDepartmentByID(_ context.Context, id string) (*domain.Department, error) {
	for _, d := range f.departments {
		if d.ID == id {
			cp := d
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeOrg) ListDepartments(_ context.Context, activeOnly bool) ([]domain.Department, error) {
	var out []domain.Department
	for _, d := range f.departments {
		if !activeOnly || d.Active {
			out = append(out, d)
		}
	}
	return out, nil
}

func (f *fakeOrg) UpsertGradeLevel(_ context.Context, g *domain.GradeLevel) error {
	g.UpdatedAt = testNow
	f.grades[g.Level] = *g
	return nil
}

func (f *fakeOrg) ListGradeLevels(context.Context) ([]domain.GradeLevel, error) {
	var out []domain.GradeLevel
	for _, g := range f.grades {
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Level < out[j].Level })
	return out, nil
}

// --- password resets ---

type fakeResets struct {
	seq  fakeSeq
	rows map[string]domain.PasswordReset
}

func newFakeResets() *fakeResets { return &fakeResets{rows: map[string]domain.PasswordReset{}} }

func (f *fakeResets) Create(_ context.Context, r *domain.PasswordReset) error {
	r.ID = f.seq.next("reset")
	r.CreatedAt = testNow
	f.rows[r.ID] = *r
	return nil
}

func (f *fakeResets) GetByTokenHash(_ context.Context, hash string) (*domain.PasswordReset, error) {
	for _, r := range f.rows {
		if r.TokenHash == hash {
			cp := r
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeResets) MarkUsed(_ context.Context, id string) error {
	r, ok := f.rows[id]
	if !ok || r.UsedAt != nil {
		return pgx.ErrNoRows
	}
	now := testNow
	r.UsedAt = &now
	f.rows[id] = r
	return nil
}

// --- notifications ---

type fakeNotifications struct {
	mu   sync.Mutex
	seq  fakeSeq
	rows []domain.Notification
}

func (f *fakeNotifications) Create(_ context.Context, n *domain.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	n.ID = f.seq.next("note")
	n.CreatedAt = testNow
	f.rows = append(f.rows, *n)
	return nil
}

func (f *fakeNotifications) GetByID(_ context.Context, id string) (*domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, n := range f.rows {
		if n.ID == id {
			cp := n
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeNotifications) List(_ context.Context, recipientID string, unreadOnly bool, _, _ int) ([]domain.Notification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.Notification
	for _, n := range f.rows {
		if n.RecipientID == recipientID && (!unreadOnly || n.ReadAt == nil) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].ReadAt = &at
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, recipientID string, at time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for i := range f.rows {
		if f.rows[i].RecipientID == recipientID && f.rows[i].ReadAt == nil {
			f.rows[i].ReadAt = &at
			n++
		}
	}
	return n, nil
}

func (f *fakeNotifications) CountUnread(ctx context.Context, recipientID string) (int, error) {
	list, _ := f.List(ctx, recipientID, true, 0, 0)
	return len(list), nil
}

func (f *fakeNotifications) forRecipient(id string) []domain.Notification {
	list, _ := f.List(context.Background(), id, false, 0, 0)
	return list
}

// --- leave ---

type fakeLeaves struct {
	seq  fakeSeq
	rows map[string]domain.LeaveRequest
}

func newFakeLeaves() *fakeLeaves { return &fakeLeaves{rows: map[string]domain.LeaveRequest{}} }

func (f *fakeLeaves) Create(_ context.Context, l *domain.LeaveRequest) error {
	l.ID = f.seq.next("leave")
	l.CreatedAt, l.UpdatedAt = testNow, testNow
	f.rows[l.ID] = *l
	return nil
}

func (f *fakeLeaves) UpdateStatus(_ context.Context, l *domain.LeaveRequest) error {
	if _, ok := f.rows[l.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[l.ID] = *l
	return nil
}

func (f *fakeLeaves) GetByID(_ context.Context, id string) (*domain.LeaveRequest, error) {
	l, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &l, nil
}

func (f *fakeLeaves) List(_ context.Context, filter repository.LeaveFilter) ([]domain.LeaveRequest, error) {
	var out []domain.LeaveRequest
	for _, l := range f.rows {
		if filter.EmployeeID != nil && l.EmployeeID != *filter.EmployeeID {
			continue
		}
		if filter.Status != nil && l.Status != *filter.Status {
			continue
		}
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeLeaves) ListOpenByEmployee(_ context.Context, employeeID string) ([]domain.LeaveRequest, error) {
	var out []domain.LeaveRequest
	for _, l := range f.rows {
		if l.EmployeeID == employeeID && l.IsOpen() {
			out = append(out, l)
		}
	}
	return out, nil
}

func (f *fakeLeaves) CountPending(context.Context, domain.Scope) (int, error) {
	n := 0
	for _, l := range f.rows {
		if l.Status == domain.LeaveStatusPending {
			n++
		}
	}
	return n, nil
}

// --- workflows ---

type fakeWorkflows struct {
	seq       fakeSeq
	workflows map[string]domain.Workflow
	instances map[string]domain.WorkflowInstance
	approvals []domain.WorkflowApproval
}

func newFakeWorkflows() *fakeWorkflows {
	return &fakeWorkflows{workflows: map[string]domain.Workflow{}, instances: map[string]domain.WorkflowInstance{}}
}

func (f *fakeWorkflows) CreateWorkflow(_ context.Context, wf *domain.Workflow) error {
	wf.ID = f.seq.next("wf")
	for i := range wf.Steps {
		wf.Steps[i].ID = f.seq.next("step")
		wf.Steps[i].WorkflowID = wf.ID
	}
	f.workflows[wf.ID] = *wf
	return nil
}

func (f *fakeWorkflows) DeactivateByRecordType(_ context.Context, recordType string) error {
	for id, wf := range f.workflows {
		if wf.RecordType == recordType {
			wf.Active = false
			f.workflows[id] = wf
		}
	}
	return nil
}

func (f *fakeWorkflows) GetWorkflow(_ context.Context, id string) (*domain.Workflow, error) {
	wf, ok := f.workflows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &wf, nil
}

func (f *fakeWorkflows) GetActiveByRecordType(_ context.Context, recordType string) (*domain.Workflow, error) {
	for _, wf := range f.workflows {
		if wf.Active && wf.RecordType == recordType {
			cp := wf
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeWorkflows) ListWorkflows(context.Context) ([]domain.Workflow, error) {
	var out []domain.Workflow
	for _, wf := range f.workflows {
		out = append(out, wf)
	}
	return out, nil
}

func (f *fakeWorkflows) CreateInstance(_ context.Context, inst *domain.WorkflowInstance) error {
	inst.ID = f.seq.next("inst")
	f.instances[inst.ID] = *inst
	return nil
}

func (f *fakeWorkflows) GetInstance(_ context.Context, id string) (*domain.WorkflowInstance, error) {
	inst, ok := f.instances[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &inst, nil
}

func (f *fakeWorkflows) GetInstanceForUpdate(ctx context.Context, id string) (*domain.WorkflowInstance, error) {
	return f.GetInstance(ctx, id)
}

func (f *fakeWorkflows) GetOpenInstanceByRecord(_ context.Context, recordType, recordID string) (*domain.WorkflowInstance, error) {
	for _, inst := range f.instances {
		if inst.RecordType == recordType && inst.RecordID == recordID && inst.Status == domain.WorkflowStatusInProgress {
			cp := inst
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeWorkflows) UpdateInstance(_ context.Context, inst *domain.WorkflowInstance) error {
	if _, ok := f.instances[inst.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.instances[inst.ID] = *inst
	return nil
}

func (f *fakeWorkflows) ListPendingForRole(_ context.Context, role domain.Role, excludeInitiator string) ([]domain.WorkflowInstance, error) {
	var out []domain.WorkflowInstance
	for _, inst := range f.instances {
		if inst.Status != domain.WorkflowStatusInProgress || inst.InitiatorID == excludeInitiator {
			continue
		}
		wf := f.workflows[inst.WorkflowID]
		step, ok := wf.StepAt(inst.CurrentStep)
		if ok && (role == domain.RoleDirectorGeneral || step.RequiredRole == role) {
			out = append(out, inst)
		}
	}
	return out, nil
}

func (f *fakeWorkflows) CreateApproval(_ context.Context, a *domain.WorkflowApproval) error {
	a.ID = f.seq.next("approval")
	f.approvals = append(f.approvals, *a)
	return nil
}

func (f *fakeWorkflows) ListApprovals(_ context.Context, instanceID string) ([]domain.WorkflowApproval, error) {
	var out []domain.WorkflowApproval
	for _, a := range f.approvals {
		if a.InstanceID == instanceID {
			out = append(out, a)
		}
	}
	return out, nil
}

// --- tasks ---

type fakeTasks struct {
	seq      fakeSeq
	rows     map[string]domain.Task
	subtasks map[string]domain.Subtask
}

func newFakeTasks() *fakeTasks {
	return &fakeTasks{rows: map[string]domain.Task{}, subtasks: map[string]domain.Subtask{}}
}

func (f *fakeTasks) Create(_ context.Context, t *domain.Task) error {
	t.ID = f.seq.next("task")
	t.CreatedAt, t.UpdatedAt = testNow, testNow
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTasks) Update(_ context.Context, t *domain.Task) error {
	if _, ok := f.rows[t.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[t.ID] = *t
	return nil
}

func (f *fakeTasks) GetByID(_ context.Context, id string) (*domain.Task, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &t, nil
}

func (f *fakeTasks) List(_ context.Context, filter repository.TaskFilter) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.rows {
		if filter.AssigneeID != nil && t.AssigneeID != *filter.AssigneeID {
			continue
		}
		if filter.AssignerID != nil && t.AssignerID != *filter.AssignerID {
			continue
		}
		if filter.Status != nil && t.Status != *filter.Status {
			continue
		}
		out = append(out, t)
	}
	return out, nil
}

func (f *fakeTasks) ListOverdue(_ context.Context, now time.Time) ([]domain.Task, error) {
	var out []domain.Task
	for _, t := range f.rows {
		if t.IsOverdue(now) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTasks) CountOpenForAssignee(_ context.Context, assigneeID string) (int, error) {
	n := 0
	for _, t := range f.rows {
		if t.AssigneeID == assigneeID && t.Status.Open() {
			n++
		}
	}
	return n, nil
}

func (f *fakeTasks) CountByStatus(context.Context, domain.Scope) (map[domain.TaskStatus]int, error) {
	counts := map[domain.TaskStatus]int{}
	for _, t := range f.rows {
		counts[t.Status]++
	}
	return counts, nil
}

func (f *fakeTasks) CreateSubtask(_ context.Context, s *domain.Subtask) error {
	s.ID = f.seq.next("sub")
	f.subtasks[s.ID] = *s
	return nil
}

func (f *fakeTasks) GetSubtask(_ context.Context, taskID, subtaskID string) (*domain.Subtask, error) {
	s, ok := f.subtasks[subtaskID]
	if !ok || s.TaskID != taskID {
		return nil, pgx.ErrNoRows
	}
	return &s, nil
}

func (f *fakeTasks) SetSubtaskCompleted(_ context.Context, subtaskID string, completed bool) error {
	s, ok := f.subtasks[subtaskID]
	if !ok {
		return pgx.ErrNoRows
	}
	s.Completed = completed
	f.subtasks[subtaskID] = s
	return nil
}

func (f *fakeTasks) ListSubtasks(_ context.Context, taskID string) ([]domain.Subtask, error) {
	var out []domain.Subtask
	for _, s := range f.subtasks {
		if s.TaskID == taskID {
			out = append(out, s)
		}
	}
	return out, nil
}

// --- mail ---

type fakeMails struct {
	seq  fakeSeq
	rows map[string]domain.Mail
}

func newFakeMails() *fakeMails { return &fakeMails{rows: map[string]domain.Mail{}} }

func (f *fakeMails) Create(_ context.Context, m *domain.Mail) error {
	m.ID = f.seq.next("mail")
	m.CreatedAt = testNow
	for i := range m.Recipients {
		m.Recipients[i].MailID = m.ID
	}
	cp := *m
	cp.Recipients = append([]domain.MailRecipient(nil), m.Recipients...)
	f.rows[m.ID] = cp
	return nil
}

func (f *fakeMails) GetByID(_ context.Context, id string) (*domain.Mail, error) {
	m, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	m.Recipients = append([]domain.MailRecipient(nil), m.Recipients...)
	return &m, nil
}

func (f *fakeMails) Inbox(_ context.Context, employeeID string, _, _ int) ([]domain.MailSummary, error) {
	var out []domain.MailSummary
	for _, m := range f.rows {
		if m.Draft {
			continue
		}
		if r, ok := m.RecipientFor(employeeID); ok && r.DeletedAt == nil {
			out = append(out, domain.MailSummary{Mail: m, Unread: r.ReadAt == nil})
		}
	}
	return out, nil
}

func (f *fakeMails) Sent(_ context.Context, employeeID string, _, _ int) ([]domain.Mail, error) {
	var out []domain.Mail
	for _, m := range f.rows {
		if m.SenderID == employeeID && !m.SenderDeleted {
			out = append(out, m)
		}
	}
	return out, nil
}

func (f *fakeMails) updateRecipient(mailID, employeeID string, fn func(*domain.MailRecipient)) error {
	m, ok := f.rows[mailID]
	if !ok {
		return pgx.ErrNoRows
	}
	r, ok := m.RecipientFor(employeeID)
	if !ok {
		return pgx.ErrNoRows
	}
	fn(r)
	f.rows[mailID] = m
	return nil
}

func (f *fakeMails) MarkRead(_ context.Context, mailID, employeeID string, at time.Time) error {
	return f.updateRecipient(mailID, employeeID, func(r *domain.MailRecipient) { r.ReadAt = &at })
}

func (f *fakeMails) DeleteForRecipient(_ context.Context, mailID, employeeID string, at time.Time) error {
	return f.updateRecipient(mailID, employeeID, func(r *domain.MailRecipient) { r.DeletedAt = &at })
}

func (f *fakeMails) DeleteForSender(_ context.Context, mailID string) error {
	m, ok := f.rows[mailID]
	if !ok {
		return pgx.ErrNoRows
	}
	m.SenderDeleted = true
	f.rows[mailID] = m
	return nil
}

func (f *fakeMails) CountUnread(ctx context.Context, employeeID string) (int, error) {
	inbox, _ := f.Inbox(ctx, employeeID, 0, 0)
	n := 0
	for _, s := range inbox {
		if s.Unread {
			n++
		}
	}
	return n, nil
}

// --- chat ---

type fakeChats struct {
	seq      fakeSeq
	rows     map[string]domain.Chat
	messages []domain.ChatMessage
}

func newFakeChats() *fakeChats { return &fakeChats{rows: map[string]domain.Chat{}} }

func (f *fakeChats) Create(_ context.Context, c *domain.Chat) error {
	c.ID = f.seq.next("chat")
	for i := range c.Participants {
		c.Participants[i].ChatID = c.ID
		c.Participants[i].JoinedAt = testNow
	}
	cp := *c
	cp.Participants = append([]domain.ChatParticipant(nil), c.Participants...)
	f.rows[c.ID] = cp
	return nil
}

func (f *fakeChats) GetByID(_ context.Context, id string) (*domain.Chat, error) {
	c, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	c.Participants = append([]domain.ChatParticipant(nil), c.Participants...)
	return &c, nil
}

func (f *fakeChats) ListForEmployee(_ context.Context, employeeID string) ([]domain.Chat, error) {
	var out []domain.Chat
	for _, c := range f.rows {
		if c.IsActiveParticipant(employeeID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeChats) Leave(_ context.Context, chatID, employeeID string, at time.Time) error {
	c, ok := f.rows[chatID]
	if !ok {
		return pgx.ErrNoRows
	}
	for i := range c.Participants {
		if c.Participants[i].EmployeeID == employeeID {
			c.Participants[i].LeftAt = &at
			f.rows[chatID] = c
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeChats) AddMessage(_ context.Context, m *domain.ChatMessage) error {
	m.ID = f.seq.next("msg")
	m.CreatedAt = testNow
	f.messages = append(f.messages, *m)
	return nil
}

func (f *fakeChats) ListMessages(_ context.Context, chatID string, _, _ int) ([]domain.ChatMessage, error) {
	var out []domain.ChatMessage
	for _, m := range f.messages {
		if m.ChatID == chatID {
			out = append(out, m)
		}
	}
	return out, nil
}

// --- career ---

type fakeCareer struct {
	seq         fakeSeq
	promotions  []domain.Promotion
	exams       []domain.Examination
	reviews     []domain.PerformanceReview
	transfers   []domain.Transfer
	retirements []domain.Retirement
}

func (f *fakeCareer) CreatePromotion(_ context.Context, p *domain.Promotion) error {
	p.ID = f.seq.next("promo")
	f.promotions = append(f.promotions, *p)
	return nil
}

func (f *fakeCareer) ListPromotions(_ context.Context, employeeID string) ([]domain.Promotion, error) {
	var out []domain.Promotion
	for _, p := range f.promotions {
		if p.EmployeeID == employeeID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeCareer) CreateExamination(_ context.Context, e *domain.Examination) error {
	e.ID = f.seq.next("exam")
	f.exams = append(f.exams, *e)
	return nil
}

func (f *fakeCareer) ListExaminations(_ context.Context, employeeID string) ([]domain.Examination, error) {
	var out []domain.Examination
	for _, e := range f.exams {
		if e.EmployeeID == employeeID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeCareer) CreatePerformanceReview(_ context.Context, r *domain.PerformanceReview) error {
	r.ID = f.seq.next("review")
	r.CreatedAt = testNow
	f.reviews = append(f.reviews, *r)
	return nil
}

func (f *fakeCareer) ListPerformanceReviews(_ context.Context, employeeID string) ([]domain.PerformanceReview, error) {
	var out []domain.PerformanceReview
	for _, r := range f.reviews {
		if r.EmployeeID == employeeID {
			out = append(out, r)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReviewDate.After(out[j].ReviewDate) })
	return out, nil
}

func (f *fakeCareer) CreateTransfer(_ context.Context, t *domain.Transfer) error {
	t.ID = f.seq.next("transfer")
	t.CreatedAt = testNow
	f.transfers = append(f.transfers, *t)
	return nil
}

func (f *fakeCareer) ListTransfers(_ context.Context, employeeID string) ([]domain.Transfer, error) {
	var out []domain.Transfer
	for _, t := range f.transfers {
		if t.EmployeeID == employeeID {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].TransferDate.After(out[j].TransferDate) })
	return out, nil
}

func (f *fakeCareer) CreateRetirement(_ context.Context, r *domain.Retirement) error {
	for _, existing := range f.retirements {
		if existing.EmployeeID == r.EmployeeID {
			return uniqueViolation("retirements_employee_id_key")
		}
	}
	r.ID = f.seq.next("ret")
	f.retirements = append(f.retirements, *r)
	return nil
}

func (f *fakeCareer) ListRetirements(context.Context, domain.Scope, int, int) ([]domain.Retirement, error) {
	return f.retirements, nil
}

// --- trainings ---

type fakeTrainings struct {
	seq  fakeSeq
	rows map[string]domain.Training
}

func newFakeTrainings() *fakeTrainings { return &fakeTrainings{rows: map[string]domain.Training{}} }

func (f *fakeTrainings) Create(_ context.Context, t *domain.Training) error {
	t.ID = f.seq.next("training")
	t.CreatedAt = testNow
	cp := *t
	cp.ParticipantIDs = append([]string(nil), t.ParticipantIDs...)
	f.rows[t.ID] = cp
	return nil
}

func (f *fakeTrainings) GetByID(_ context.Context, id string) (*domain.Training, error) {
	t, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	t.ParticipantIDs = append([]string(nil), t.ParticipantIDs...)
	return &t, nil
}

func (f *fakeTrainings) List(_ context.Context, _, _ int) ([]domain.Training, error) {
	out := make([]domain.Training, 0, len(f.rows))
	for _, t := range f.rows {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out, nil
}

func (f *fakeTrainings) ListForEmployee(ctx context.Context, employeeID string) ([]domain.Training, error) {
	all, _ := f.List(ctx, 0, 0)
	var out []domain.Training
	for _, t := range all {
		if t.HasParticipant(employeeID) {
			out = append(out, t)
		}
	}
	return out, nil
}

func (f *fakeTrainings) AddParticipant(_ context.Context, trainingID, employeeID string) error {
	t, ok := f.rows[trainingID]
	if !ok {
		return pgx.ErrNoRows
	}
	if t.HasParticipant(employeeID) {
		return uniqueViolation("training_participants_pkey")
	}
	t.ParticipantIDs = append(t.ParticipantIDs, employeeID)
	f.rows[trainingID] = t
	return nil
}

// --- announcements ---

type fakeAnnouncements struct {
	seq         fakeSeq
	rows        []domain.Announcement
	newsletters map[string]domain.Newsletter
}

func newFakeAnnouncements() *fakeAnnouncements {
	return &fakeAnnouncements{newsletters: map[string]domain.Newsletter{}}
}

func (f *fakeAnnouncements) CreateAnnouncement(_ context.Context, a *domain.Announcement) error {
	a.ID = f.seq.next("ann")
	a.CreatedAt, a.UpdatedAt = testNow, testNow
	f.rows = append(f.rows, *a)
	return nil
}

func (f *fakeAnnouncements) GetAnnouncement(_ context.Context, id string) (*domain.Announcement, error) {
	for _, a := range f.rows {
		if a.ID == id {
			cp := a
			return &cp, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeAnnouncements) ListAnnouncements(_ context.Context, filter repository.AnnouncementFilter) ([]domain.Announcement, error) {
	var out []domain.Announcement
	for _, a := range f.rows {
		if !a.Active {
			continue
		}
		if filter.All || a.DepartmentID == nil ||
			(filter.DepartmentID != nil && *a.DepartmentID == *filter.DepartmentID) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (f *fakeAnnouncements) DeactivateAnnouncement(_ context.Context, id string, at time.Time) error {
	for i := range f.rows {
		if f.rows[i].ID == id && f.rows[i].Active {
			f.rows[i].Active = false
			f.rows[i].UpdatedAt = at
			return nil
		}
	}
	return pgx.ErrNoRows
}

func (f *fakeAnnouncements) CreateNewsletter(_ context.Context, n *domain.Newsletter) error {
	n.ID = f.seq.next("news")
	n.CreatedAt = testNow
	f.newsletters[n.ID] = *n
	return nil
}

func (f *fakeAnnouncements) GetNewsletter(_ context.Context, id string) (*domain.Newsletter, error) {
	n, ok := f.newsletters[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &n, nil
}

func (f *fakeAnnouncements) PublishNewsletter(_ context.Context, id string, at time.Time) error {
	n, ok := f.newsletters[id]
	if !ok || n.Published() {
		return pgx.ErrNoRows
	}
	n.PublishedAt = &at
	f.newsletters[id] = n
	return nil
}

func (f *fakeAnnouncements) ListPublishedNewsletters(_ context.Context, filter repository.AnnouncementFilter) ([]domain.Newsletter, error) {
	var out []domain.Newsletter
	for _, n := range f.newsletters {
		if n.Published() && (filter.All || n.Addresses(filter.DepartmentID)) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// --- projects ---

type fakeProjects struct {
	seq        fakeSeq
	rows       map[string]domain.Project
	updates    []domain.ProjectStatusUpdate
	milestones map[string]domain.Milestone
}

func newFakeProjects() *fakeProjects {
	return &fakeProjects{rows: map[string]domain.Project{}, milestones: map[string]domain.Milestone{}}
}

func (f *fakeProjects) Create(_ context.Context, p *domain.Project) error {
	p.ID = f.seq.next("proj")
	p.CreatedAt, p.UpdatedAt = testNow, testNow
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProjects) Update(_ context.Context, p *domain.Project) error {
	if _, ok := f.rows[p.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.rows[p.ID] = *p
	return nil
}

func (f *fakeProjects) GetByID(_ context.Context, id string) (*domain.Project, error) {
	p, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return &p, nil
}

func (f *fakeProjects) List(_ context.Context, filter repository.ProjectFilter) ([]domain.Project, error) {
	var out []domain.Project
	for _, p := range f.rows {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.ManagerID != nil && p.ManagerID != *filter.ManagerID {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProjects) CountByStatus(context.Context, domain.Scope) (map[domain.ProjectStatus]int, error) {
	counts := map[domain.ProjectStatus]int{}
	for _, p := range f.rows {
		counts[p.Status]++
	}
	return counts, nil
}

func (f *fakeProjects) CreateStatusUpdate(_ context.Context, u *domain.ProjectStatusUpdate) error {
	u.ID = f.seq.next("psu")
	u.CreatedAt = testNow
	f.updates = append(f.updates, *u)
	return nil
}

func (f *fakeProjects) ListStatusUpdates(_ context.Context, projectID string) ([]domain.ProjectStatusUpdate, error) {
	var out []domain.ProjectStatusUpdate
	for _, u := range f.updates {
		if u.ProjectID == projectID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeProjects) CreateMilestone(_ context.Context, m *domain.Milestone) error {
	m.ID = f.seq.next("ms")
	m.CreatedAt = testNow
	f.milestones[m.ID] = *m
	return nil
}

func (f *fakeProjects) GetMilestone(_ context.Context, projectID, milestoneID string) (*domain.Milestone, error) {
	m, ok := f.milestones[milestoneID]
	if !ok || m.ProjectID != projectID {
		return nil, pgx.ErrNoRows
	}
	return &m, nil
}

func (f *fakeProjects) CompleteMilestone(_ context.Context, m *domain.Milestone) error {
	if _, ok := f.milestones[m.ID]; !ok {
		return pgx.ErrNoRows
	}
	f.milestones[m.ID] = *m
	return nil
}

func (f *fakeProjects) ListMilestones(_ context.Context, projectID string) ([]domain.Milestone, error) {
	var out []domain.Milestone
	for _, m := range f.milestones {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DueDate.Before(out[j].DueDate) })
	return out, nil
}

// --- fixtures ---

func dg() domain.Employee {
	return domain.Employee{
		ID: "dg-1", EmployeeNumber: "DG001", FirstName: "Ada", LastName: "Okafor", Email: "dg@example.gov.ng",
		Role: domain.RoleDirectorGeneral, GradeLevel: 17, Step: 1, Active: true,
		DateOfBirth: time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC), DateOfFirstAppointment: time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func director(id, dept string) domain.Employee {
	return domain.Employee{
		ID: id, EmployeeNumber: strings.ToUpper(id), FirstName: "Bola", LastName: "Ade", Email: id + "@example.gov.ng",
		Role: domain.RoleDirector, DepartmentID: strPtr(dept), GradeLevel: 16, Step: 2, Active: true,
		DateOfBirth: time.Date(1975, 3, 1, 0, 0, 0, 0, time.UTC), DateOfFirstAppointment: time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC),
	}
}

func staff(id, dept string) domain.Employee {
	return domain.Employee{
		ID: id, EmployeeNumber: strings.ToUpper(id), FirstName: "Chidi", LastName: "Eze", Email: id + "@example.gov.ng",
		Role: domain.RoleStaff, DepartmentID: strPtr(dept), GradeLevel: 8, Step: 3, Active: true,
		DateOfBirth: time.Date(1990, 7, 1, 0, 0, 0, 0, time.UTC), DateOfFirstAppointment: time.Date(2015, 7, 1, 0, 0, 0, 0, time.UTC),
	}
}
