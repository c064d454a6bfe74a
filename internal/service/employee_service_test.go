package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/events"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	require.Error(t, err)
	de := apperrors.ToDomainError(err)
	require.NotNil(t, de)
	return de.Code
}

func newEmployeeService(repo *fakeEmployees, dispatcher events.Dispatcher) *EmployeeService {
	return NewEmployeeService(EmployeeDependencies{
		EmployeeRepo: repo,
		OrgRepo:      newFakeOrg(),
		Dispatcher:   dispatcher,
		BcryptCost:   4,
		Clock:        fixedClock,
	})
}

func validInput(number string) EmployeeInput {
	return EmployeeInput{
		EmployeeNumber:         number,
		FirstName:              "Ngozi",
		LastName:               "Bello",
		Email:                  "  " + number + "@Example.gov.ng ",
		DepartmentID:           strPtr("dept-adm"),
		GradeLevel:             7,
		Step:                   1,
		DateOfBirth:            time.Date(1992, 2, 10, 0, 0, 0, 0, time.UTC),
		DateOfFirstAppointment: time.Date(2018, 9, 1, 0, 0, 0, 0, time.UTC),
	}
}

func TestCreateEmployeeAppliesDefaults(t *testing.T) {
	repo := newFakeEmployees(dg())
	dispatcher := events.NewInMemoryDispatcher(zap.NewNop())
	var created []events.EmployeeCreatedPayload
	dispatcher.Subscribe(events.EventEmployeeCreated, func(_ context.Context, e events.Event) error {
		created = append(created, e.Payload.(events.EmployeeCreatedPayload))
		return nil
	})
	svc := newEmployeeService(repo, dispatcher)
	actor := dg()

	emp, err := svc.Create(context.Background(), &actor, validInput("FN1001"))
	require.NoError(t, err)

	assert.Equal(t, domain.RoleStaff, emp.Role)
	assert.Equal(t, "fn1001@example.gov.ng", emp.Email)
	assert.True(t, emp.Active)
	assert.True(t, emp.PasswordChangeRequired)
	assert.NotEmpty(t, emp.PasswordHash)
	require.NotNil(t, emp.DateOfRetirement)
	assert.Equal(t, time.Date(2052, 2, 10, 0, 0, 0, 0, time.UTC), *emp.DateOfRetirement)

	require.Len(t, created, 1)
	assert.Equal(t, emp.ID, created[0].EmployeeID)
	assert.Equal(t, "Ngozi Bello", created[0].FullName)
}

func TestCreateEmployeeDuplicateNumberConflicts(t *testing.T) {
	repo := newFakeEmployees(dg())
	svc := newEmployeeService(repo, nil)
	actor := dg()

	_, err := svc.Create(context.Background(), &actor, validInput("FN1001"))
	require.NoError(t, err)

	dup := validInput("FN1001")
	dup.Email = "someone.else@example.gov.ng"
	_, err = svc.Create(context.Background(), &actor, dup)
	assert.Equal(t, "CONFLICT", errCode(t, err))
	assert.Equal(t, "employee_id", apperrors.ToDomainError(err).Details["field"])
}

func TestCreateEmployeeValidation(t *testing.T) {
	actor := dg()
	tests := []struct {
		name   string
		mutate func(*EmployeeInput)
		field  string
	}{
		{"bad email", func(in *EmployeeInput) { in.Email = "not-an-email" }, "email"},
		{"grade too high", func(in *EmployeeInput) { in.GradeLevel = 19 }, "grade_level"},
		{"bad phone", func(in *EmployeeInput) { in.Phone = strPtr("12345") }, "phone"},
		{"appointment before birth", func(in *EmployeeInput) { in.DateOfFirstAppointment = in.DateOfBirth.AddDate(-1, 0, 0) }, "date_of_first_appointment"},
		{"unknown department", func(in *EmployeeInput) { in.DepartmentID = strPtr("dept-missing") }, "department_id"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newEmployeeService(newFakeEmployees(dg()), nil)
			in := validInput("FN2000")
			tt.mutate(&in)
			_, err := svc.Create(context.Background(), &actor, in)
			assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))
			assert.Contains(t, apperrors.ToDomainError(err).Details, tt.field)
		})
	}
}

func TestDirectorWritesOnlyInOwnDepartment(t *testing.T) {
	dir := director("dir-1", "dept-adm")
	svc := newEmployeeService(newFakeEmployees(dg(), dir), nil)

	in := validInput("FN3000")
	in.DepartmentID = strPtr("dept-fin")
	_, err := svc.Create(context.Background(), &dir, in)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	in = validInput("FN3001")
	in.Role = domain.RoleDirectorGeneral
	_, err = svc.Create(context.Background(), &dir, in)
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	_, err = svc.Create(context.Background(), &dir, validInput("FN3002"))
	assert.NoError(t, err)
}

func TestListIsScopedByRole(t *testing.T) {
	dir := director("dir-1", "dept-adm")
	s1 := staff("staff-1", "dept-adm")
	s2 := staff("staff-2", "dept-fin")
	svc := newEmployeeService(newFakeEmployees(dg(), dir, s1, s2), nil)

	page, err := svc.List(context.Background(), &dir, EmployeeListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	for _, e := range page.Items {
		assert.Equal(t, "dept-adm", *e.DepartmentID)
	}

	actor := dg()
	page, err = svc.List(context.Background(), &actor, EmployeeListFilter{})
	require.NoError(t, err)
	assert.Equal(t, 4, page.Total)

	_, err = svc.List(context.Background(), &s1, EmployeeListFilter{})
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}

func TestGetRespectsScope(t *testing.T) {
	s1 := staff("staff-1", "dept-adm")
	s2 := staff("staff-2", "dept-fin")
	svc := newEmployeeService(newFakeEmployees(s1, s2), nil)

	got, err := svc.Get(context.Background(), &s1, "staff-1")
	require.NoError(t, err)
	assert.Equal(t, "staff-1", got.ID)

	_, err = svc.Get(context.Background(), &s1, "staff-2")
	assert.Equal(t, "FORBIDDEN", errCode(t, err))

	_, err = svc.Get(context.Background(), &s1, "missing")
	assert.Equal(t, "NOT_FOUND", errCode(t, err))
}

func TestUpdateRecomputesRetirementWhenDatesChange(t *testing.T) {
	s1 := staff("staff-1", "dept-adm")
	rd := time.Date(2050, 7, 1, 0, 0, 0, 0, time.UTC)
	s1.DateOfRetirement = &rd
	repo := newFakeEmployees(dg(), s1)
	svc := newEmployeeService(repo, nil)
	actor := dg()

	dob := time.Date(1980, 1, 15, 0, 0, 0, 0, time.UTC)
	updated, err := svc.Update(context.Background(), &actor, "staff-1", EmployeeUpdate{DateOfBirth: &dob})
	require.NoError(t, err)
	require.NotNil(t, updated.DateOfRetirement)
	assert.Equal(t, time.Date(2040, 1, 15, 0, 0, 0, 0, time.UTC), *updated.DateOfRetirement)
}

func TestDeactivate(t *testing.T) {
	s1 := staff("staff-1", "dept-adm")
	repo := newFakeEmployees(dg(), s1)
	svc := newEmployeeService(repo, nil)
	actor := dg()

	err := svc.Deactivate(context.Background(), &actor, "dg-1")
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	require.NoError(t, svc.Deactivate(context.Background(), &actor, "staff-1"))
	_, err = repo.GetByID(context.Background(), "staff-1")
	assert.True(t, apperrors.IsNotFound(err))
}
