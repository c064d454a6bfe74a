package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/staff-portal/internal/domain"
)

const importHeader = "employee_id,ippis_number,first_name,last_name,middle_name,email,phone,role,department_code,zone_code,state_code,grade_level,step,date_of_birth,date_of_first_appointment\n"

func newImportService(employees *fakeEmployees) *ImportService {
	org := newFakeOrg()
	return NewImportService(ImportDependencies{
		EmployeeService: NewEmployeeService(EmployeeDependencies{
			EmployeeRepo: employees,
			OrgRepo:      org,
			BcryptCost:   4,
			Clock:        fixedClock,
		}),
		EmployeeRepo: employees,
		OrgRepo:      org,
	})
}

func TestImportEmployeesCountsRows(t *testing.T) {
	employees := newFakeEmployees(dg(), staff("staff-1", "dept-adm"))
	svc := newImportService(employees)
	actor := dg()

	csv := "\ufeff" + importHeader +
		"FN5001,,Amina,Yusuf,,fn5001@example.gov.ng,08031234567,staff,ADM,NC,FC,7,1,1991-04-12,2016-01-04\n" +
		"STAFF-1,,Chidinma,Eze,,staff-1@example.gov.ng,,,ADM,,,8,3,1990-07-01,2015-07-01\n" +
		"FN5003,,Bad,Grade,,fn5003@example.gov.ng,,,ADM,,,abc,1,1990-01-01,2015-01-01\n" +
		"FN5004,,Dup,Email,,FN5001@example.gov.ng,,,ADM,,,7,1,1990-01-01,2015-01-01\n" +
		"FN5005,,No,Dept,,fn5005@example.gov.ng,,,XYZ,,,7,1,1990-01-01,2015-01-01\n"

	result, err := svc.ImportEmployees(context.Background(), &actor, strings.NewReader(csv))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 3, result.Errored)

	rows := make([]int, 0, len(result.Errors))
	for _, e := range result.Errors {
		rows = append(rows, e.Row)
	}
	assert.Equal(t, []int{4, 5, 6}, rows)
	assert.Equal(t, "FN5004", result.Errors[1].EmployeeID)
	assert.Contains(t, result.Errors[1].Error, "already exists")

	updated := employees.get("staff-1")
	assert.Equal(t, "Chidinma", updated.FirstName)

	created, err := employees.GetByEmployeeNumber(context.Background(), "FN5001")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleStaff, created.Role)
	require.NotNil(t, created.DepartmentID)
	assert.Equal(t, "dept-adm", *created.DepartmentID)
}

func TestImportEmployeesRejectsBadInput(t *testing.T) {
	employees := newFakeEmployees(dg(), staff("staff-1", "dept-adm"))
	svc := newImportService(employees)
	actor := dg()

	_, err := svc.ImportEmployees(context.Background(), &actor, strings.NewReader(""))
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	_, err = svc.ImportEmployees(context.Background(), &actor, strings.NewReader("employee_id,first_name\nFN1,A\n"))
	assert.Equal(t, "VALIDATION_FAILED", errCode(t, err))

	s := employees.get("staff-1")
	_, err = svc.ImportEmployees(context.Background(), &s, strings.NewReader(importHeader))
	assert.Equal(t, "FORBIDDEN", errCode(t, err))
}
