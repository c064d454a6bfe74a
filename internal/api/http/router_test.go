package http

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/staff-portal/internal/api/http/handlers"
	"github.com/spec-kit/staff-portal/internal/auth"
	"github.com/spec-kit/staff-portal/internal/cache"
	"github.com/spec-kit/staff-portal/internal/config"
	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/observability"
	"github.com/spec-kit/staff-portal/internal/persistence"
	"github.com/spec-kit/staff-portal/internal/repository"
	"github.com/spec-kit/staff-portal/internal/service"
)

const testPassword = "Secret123!"

type stubEmployees struct {
	repository.EmployeeRepository
	byID map[string]*domain.Employee
}

func (s *stubEmployees) GetByID(_ context.Context, id string) (*domain.Employee, error) {
	e, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *e
	return &copied, nil
}

func (s *stubEmployees) GetByEmployeeNumber(_ context.Context, number string) (*domain.Employee, error) {
	for _, e := range s.byID {
		if e.EmployeeNumber == number {
			copied := *e
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

type stubLeaves struct {
	repository.LeaveRepository
	byID map[string]*domain.LeaveRequest
}

func (s *stubLeaves) GetByID(_ context.Context, id string) (*domain.LeaveRequest, error) {
	l, ok := s.byID[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *l
	return &copied, nil
}

type stubWorkflows struct {
	repository.WorkflowRepository
	workflow  domain.Workflow
	instances map[string]*domain.WorkflowInstance
	approvals []domain.WorkflowApproval
}

func (s *stubWorkflows) GetWorkflow(_ context.Context, id string) (*domain.Workflow, error) {
	if id != s.workflow.ID {
		return nil, pgx.ErrNoRows
	}
	wf := s.workflow
	return &wf, nil
}

func (s *stubWorkflows) GetOpenInstanceByRecord(_ context.Context, recordType, recordID string) (*domain.WorkflowInstance, error) {
	for _, inst := range s.instances {
		if inst.RecordType == recordType && inst.RecordID == recordID && !inst.Status.Terminal() {
			copied := *inst
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (s *stubWorkflows) GetInstanceForUpdate(_ context.Context, id string) (*domain.WorkflowInstance, error) {
	inst, ok := s.instances[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *inst
	return &copied, nil
}

func (s *stubWorkflows) UpdateInstance(_ context.Context, inst *domain.WorkflowInstance) error {
	copied := *inst
	s.instances[inst.ID] = &copied
	return nil
}

func (s *stubWorkflows) CreateApproval(_ context.Context, a *domain.WorkflowApproval) error {
	s.approvals = append(s.approvals, *a)
	return nil
}

type passthroughTx struct{}

func (passthroughTx) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type pingerFunc func(ctx context.Context) error

func (f pingerFunc) Ping(ctx context.Context) error { return f(ctx) }

type testServer struct {
	app       *fiber.App
	tokens    *auth.TokenManager
	emps      *stubEmployees
	workflows *stubWorkflows
}

func newTestServer(t *testing.T, limit int, deps map[string]handlers.Pinger) *testServer {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	require.NoError(t, err)
	dept, zone := "dept-adm", "NC"
	emps := &stubEmployees{byID: map[string]*domain.Employee{
		"emp-dir": {
			ID: "emp-dir", EmployeeNumber: "FCSC-001", FirstName: "Ada", LastName: "Obi",
			Role: domain.RoleDirector, DepartmentID: &dept, Active: true, PasswordHash: string(hash),
		},
		"emp-staff": {
			ID: "emp-staff", EmployeeNumber: "FCSC-002", FirstName: "Bala", LastName: "Musa",
			Role: domain.RoleStaff, DepartmentID: &dept, Active: true, PasswordHash: string(hash),
		},
		"emp-zd": {
			ID: "emp-zd", EmployeeNumber: "FCSC-004", FirstName: "Dayo", LastName: "Ade",
			Role: domain.RoleZonalDirector, ZoneCode: &zone, Active: true, PasswordHash: string(hash),
		},
		"emp-new": {
			ID: "emp-new", EmployeeNumber: "FCSC-003", FirstName: "Chi", LastName: "Eze",
			Role: domain.RoleStaff, Active: true, PasswordHash: string(hash), PasswordChangeRequired: true,
		},
	}}

	cfg := config.Config{Auth: config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 60, BcryptCost: bcrypt.MinCost}}
	denylist := cache.NewDenylist(client, "staff:revoked:")
	authService := service.NewAuthService(cfg, service.AuthDependencies{EmployeeRepo: emps, Revoker: denylist})
	employeeService := service.NewEmployeeService(service.EmployeeDependencies{EmployeeRepo: emps})
	metrics := observability.NewMetrics("staff")

	start := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	leaves := &stubLeaves{byID: map[string]*domain.LeaveRequest{
		"leave-1": {
			ID: "leave-1", EmployeeID: "emp-staff", LeaveType: domain.LeaveTypeAnnual,
			StartDate: start, EndDate: start.AddDate(0, 0, 4), Reason: "travel", Status: domain.LeaveStatusPending,
		},
	}}
	workflows := &stubWorkflows{
		workflow: domain.Workflow{ID: "wf-leave", Name: "Leave approval", RecordType: domain.LeaveRecordType, Active: true, Steps: []domain.WorkflowStep{
			{StepOrder: 1, Name: "Zonal review", RequiredRole: domain.RoleZonalDirector},
			{StepOrder: 2, Name: "DG sign-off", RequiredRole: domain.RoleDirectorGeneral},
		}},
		instances: map[string]*domain.WorkflowInstance{
			"inst-1": {
				ID: "inst-1", WorkflowID: "wf-leave", RecordType: domain.LeaveRecordType, RecordID: "leave-1",
				InitiatorID: "emp-staff", CurrentStep: 1, Status: domain.WorkflowStatusInProgress,
			},
		},
	}
	workflowService := service.NewWorkflowService(service.WorkflowDependencies{WorkflowRepo: workflows, Transactor: passthroughTx{}})
	leaveService := service.NewLeaveService(service.LeaveDependencies{
		LeaveRepo:       leaves,
		EmployeeRepo:    emps,
		WorkflowService: workflowService,
		Transactor:      passthroughTx{},
	})

	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler})
	RegisterMiddlewares(app, zaptest.NewLogger(t), metrics, time.Second)
	RegisterRoutes(app, RouteConfig{
		Health:         handlers.NewHealthHandler("staff-portal", "test", deps),
		Auth:           handlers.NewAuthHandler(authService),
		Employees:      handlers.NewEmployeeHandler(employeeService, nil),
		Leave:          handlers.NewLeaveHandler(leaveService),
		AuthMiddleware: auth.NewAuthMiddleware(authService.TokenManager(), emps, denylist, nil),
		LoginLimiter:   LoginRateLimiter(limit, time.Minute, persistence.NewRedisStorage(client, "staff:limiter:")),
		Metrics:        metrics,
	})
	app.Get("/boom", func(c *fiber.Ctx) error { panic("kaboom") })

	return &testServer{app: app, tokens: authService.TokenManager(), emps: emps, workflows: workflows}
}

func (s *testServer) tokenFor(t *testing.T, id string) string {
	t.Helper()
	token, _, err := s.tokens.GenerateToken(s.emps.byID[id])
	require.NoError(t, err)
	return token
}

func (s *testServer) do(t *testing.T, method, path, token, body string) (int, map[string]any) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}
	resp, err := s.app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	out := map[string]any{}
	if len(raw) > 0 && strings.HasPrefix(resp.Header.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(raw, &out))
	} else {
		out["raw"] = string(raw)
	}
	return resp.StatusCode, out
}

func errorCode(t *testing.T, body map[string]any) string {
	t.Helper()
	envelope, ok := body["error"].(map[string]any)
	require.True(t, ok, "expected error envelope, got %v", body)
	code, _ := envelope["code"].(string)
	return code
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, 0, map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
	})

	status, body := srv.do(t, fiber.MethodGet, "/health/live", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "alive", body["status"])

	status, body = srv.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Equal(t, "ready", body["status"])
}

func TestReadinessReportsFailedDependency(t *testing.T) {
	srv := newTestServer(t, 0, map[string]handlers.Pinger{
		"postgres": pingerFunc(func(context.Context) error { return nil }),
		"redis":    pingerFunc(func(context.Context) error { return errors.New("connection refused") }),
	})

	status, body := srv.do(t, fiber.MethodGet, "/health/ready", "", "")
	assert.Equal(t, fiber.StatusServiceUnavailable, status)
	assert.Equal(t, "DEPENDENCY_UNAVAILABLE", errorCode(t, body))
	details := body["error"].(map[string]any)["details"].(map[string]any)
	assert.Equal(t, "ok", details["postgres"])
	assert.Equal(t, "connection refused", details["redis"])
}

func TestProtectedRouteRequiresToken(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/employees/me", "", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/employees/me", "not-a-jwt", "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestLoginThenFetchProfile(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", `{"employee_id":"FCSC-001","password":"`+testPassword+`"}`)
	require.Equal(t, fiber.StatusOK, status, body)
	payload := body["data"].(map[string]any)
	token, _ := payload["token"].(string)
	require.NotEmpty(t, token)
	assert.Equal(t, false, payload["password_change_required"])

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/employees/me", token, "")
	require.Equal(t, fiber.StatusOK, status, body)
	me := body["data"].(map[string]any)
	assert.Equal(t, "emp-dir", me["id"])
	assert.Equal(t, "FCSC-001", me["employee_id"])
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", `{"employee_id":"FCSC-001","password":"wrong"}`)
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", `{"employee_id":""}`)
	assert.Equal(t, fiber.StatusBadRequest, status)
	assert.Equal(t, "VALIDATION_FAILED", errorCode(t, body))
}

func TestLogoutRevokesToken(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	token := srv.tokenFor(t, "emp-dir")

	status, _ := srv.do(t, fiber.MethodPost, "/api/v1/auth/logout", token, "")
	require.Equal(t, fiber.StatusOK, status)

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/employees/me", token, "")
	assert.Equal(t, fiber.StatusUnauthorized, status)
	assert.Equal(t, "UNAUTHORIZED", errorCode(t, body))
}

func TestDefaultPasswordBlocksOtherRoutes(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	token := srv.tokenFor(t, "emp-new")

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/employees/me", token, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, _ = srv.do(t, fiber.MethodPost, "/api/v1/auth/logout", token, "")
	assert.Equal(t, fiber.StatusOK, status)
}

func TestRoleGuardRejectsStaff(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	token := srv.tokenFor(t, "emp-staff")

	status, body := srv.do(t, fiber.MethodGet, "/api/v1/employees", token, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodGet, "/api/v1/dashboard/hr", token, "")
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/zones", token, `{"code":"NC","name":"North Central"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))
}

func TestZonalDirectorDecidesLeaveAtZonalStep(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	status, body := srv.do(t, fiber.MethodPost, "/api/v1/leave/leave-1/decision", srv.tokenFor(t, "emp-dir"), `{"decision":"APPROVED"}`)
	assert.Equal(t, fiber.StatusForbidden, status)
	assert.Equal(t, "FORBIDDEN", errorCode(t, body))

	status, body = srv.do(t, fiber.MethodPost, "/api/v1/leave/leave-1/decision", srv.tokenFor(t, "emp-zd"), `{"decision":"APPROVED","comment":"cover arranged"}`)
	require.Equal(t, fiber.StatusOK, status, body)
	leave := body["data"].(map[string]any)
	assert.Equal(t, "leave-1", leave["id"])
	assert.Equal(t, string(domain.LeaveStatusPending), leave["status"])

	require.Len(t, srv.workflows.approvals, 1)
	assert.Equal(t, "emp-zd", srv.workflows.approvals[0].ApproverID)
	assert.Equal(t, 2, srv.workflows.instances["inst-1"].CurrentStep)
}

func TestLoginRateLimit(t *testing.T) {
	srv := newTestServer(t, 2, nil)
	body := `{"employee_id":"FCSC-001","password":"wrong"}`

	for i := 0; i < 2; i++ {
		status, _ := srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", body)
		assert.Equal(t, fiber.StatusUnauthorized, status)
	}
	status, resp := srv.do(t, fiber.MethodPost, "/api/v1/auth/login", "", body)
	assert.Equal(t, fiber.StatusTooManyRequests, status)
	assert.Equal(t, "RATE_LIMITED", errorCode(t, resp))
}

func TestPanicIsRecovered(t *testing.T) {
	srv := newTestServer(t, 0, nil)

	status, body := srv.do(t, fiber.MethodGet, "/boom", "", "")
	assert.Equal(t, fiber.StatusInternalServerError, status)
	assert.Equal(t, "INTERNAL_ERROR", errorCode(t, body))
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, 0, nil)
	srv.do(t, fiber.MethodGet, "/health/live", "", "")

	status, body := srv.do(t, fiber.MethodGet, "/metrics", "", "")
	assert.Equal(t, fiber.StatusOK, status)
	assert.Contains(t, body["raw"], "staff_http_requests_total")
}
