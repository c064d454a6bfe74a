//go:build integration

package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"

	"github.com/spec-kit/staff-portal/internal/config"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	"github.com/spec-kit/staff-portal/internal/seed"
	"github.com/spec-kit/staff-portal/internal/service"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

func startPostgres(t *testing.T) *persistence.Postgres {
	t.Helper()
	ctx := context.Background()
	logger := zaptest.NewLogger(t)

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("staff_test"),
		tcpostgres.WithUsername("staff"),
		tcpostgres.WithPassword("staff"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	mg, err := persistence.NewMigrator(dsn, logger)
	require.NoError(t, err)
	require.NoError(t, mg.Up())
	version, dirty, err := mg.Status()
	require.NoError(t, err)
	assert.False(t, dirty)
	assert.Positive(t, version)
	require.NoError(t, mg.Close())

	pg, err := persistence.NewPostgres(ctx, config.PostgresConfig{DSN: dsn, MaxConns: 4, ConnectRetries: 3}, logger)
	require.NoError(t, err)
	t.Cleanup(pg.Close)
	return pg
}

func TestIntegrationSeedAndEmployees(t *testing.T) {
	pg := startPostgres(t)
	ctx := context.Background()
	pool := pg.PoolHandle()
	tx := persistence.NewTransactor(pool)

	orgRepo := repository.NewOrgRepository(pool)
	employeeRepo := repository.NewEmployeeRepository(pool)
	workflows := service.NewWorkflowService(service.WorkflowDependencies{
		WorkflowRepo: repository.NewWorkflowRepository(pool),
		Transactor:   tx,
	})
	org := service.NewOrgService(service.OrgDependencies{OrgRepo: orgRepo, EmployeeRepo: employeeRepo})

	file, err := seed.Defaults()
	require.NoError(t, err)
	res, err := seed.Apply(ctx, file, workflows, org, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, len(file.Workflows), res.WorkflowsDefined)

	again, err := seed.Apply(ctx, file, workflows, org, nil)
	require.NoError(t, err)
	assert.Zero(t, again.WorkflowsDefined)
	assert.Equal(t, len(file.Workflows), again.WorkflowsSkipped)

	levels, err := orgRepo.ListGradeLevels(ctx)
	require.NoError(t, err)
	assert.Len(t, levels, domain.MaxGradeLevel)

	dept := &domain.Department{Code: "ADM", Name: "Administration", Active: true}
	require.NoError(t, orgRepo.CreateDepartment(ctx, dept))

	emp := &domain.Employee{
		EmployeeNumber:         "FCSC-100",
		FirstName:              "Ngozi",
		LastName:               "Okafor",
		Email:                  "ngozi.okafor@example.gov.ng",
		Role:                   domain.RoleStaff,
		DepartmentID:           &dept.ID,
		GradeLevel:             8,
		Step:                   2,
		DateOfBirth:            time.Date(1985, 4, 12, 0, 0, 0, 0, time.UTC),
		DateOfFirstAppointment: time.Date(2010, 1, 4, 0, 0, 0, 0, time.UTC),
		Active:                 true,
		PasswordHash:           "x",
		PasswordChangeRequired: true,
	}
	require.NoError(t, employeeRepo.Create(ctx, emp))
	require.NotEmpty(t, emp.ID)

	got, err := employeeRepo.GetByEmployeeNumber(ctx, "FCSC-100")
	require.NoError(t, err)
	assert.Equal(t, emp.ID, got.ID)
	assert.Equal(t, "ADM", func() string {
		d, err := orgRepo.GetDepartmentByID(ctx, *got.DepartmentID)
		require.NoError(t, err)
		return d.Code
	}())

	dup := *emp
	dup.ID = ""
	dup.EmployeeNumber = "FCSC-101"
	err = employeeRepo.Create(ctx, &dup)
	require.Error(t, err)
	assert.True(t, apperrors.IsUniqueViolation(err))

	_, err = employeeRepo.GetByID(ctx, "00000000-0000-0000-0000-000000000000")
	assert.True(t, apperrors.IsNotFound(err))
}
