package service

import (
	"context"
	"strings"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/repository"
	apperrors "github.com/spec-kit/staff-portal/pkg/util/errorutil"
)

// OrgService manages zones, states, LGAs, departments and grade levels.
type OrgService struct {
	org       repository.OrgRepository
	employees repository.EmployeeRepository
}

// OrgDependencies bundles repositories for the organisation service.
type OrgDependencies struct {
	OrgRepo      repository.OrgRepository
	EmployeeRepo repository.EmployeeRepository
}

// OrgUnitInput is shared by zone, state, LGA and department writes. HeadID
// is the director or coordinator; Parent is the zone or state code.
type OrgUnitInput struct {
	Code   string
	Name   string
	Parent string
	HeadID *string
	Active *bool
}

// NewOrgService constructs the service.
func NewOrgService(deps OrgDependencies) *OrgService {
	return &OrgService{org: deps.OrgRepo, employees: deps.EmployeeRepo}
}

// ListZones returns all zones.
func (s *OrgService) ListZones(ctx context.Context) ([]domain.Zone, error) {
	return s.org.ListZones(ctx)
}

// GetZone returns a zone by code.
func (s *OrgService) GetZone(ctx context.Context, code string) (*domain.Zone, error) {
	z, err := s.org.GetZone(ctx, code)
	return z, notFound(err, "zone")
}

// CreateZone adds a zone.
func (s *OrgService) CreateZone(ctx context.Context, actor *domain.Employee, in OrgUnitInput) (*domain.Zone, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	in = normalizeUnit(in)
	if err := validateUnit(in, false); err != nil {
		return nil, err
	}
	if err := s.checkHead(ctx, in.HeadID); err != nil {
		return nil, err
	}
	z := &domain.Zone{Code: in.Code, Name: in.Name, DirectorID: in.HeadID}
	if err := s.org.CreateZone(ctx, z); err != nil {
		return nil, conflictFromUnique(err)
	}
	return z, nil
}

// UpdateZone changes a zone's name and director.
func (s *OrgService) UpdateZone(ctx context.Context, actor *domain.Employee, code string, in OrgUnitInput) (*domain.Zone, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	z, err := s.org.GetZone(ctx, code)
	if err != nil {
		return nil, notFound(err, "zone")
	}
	in = normalizeUnit(in)
	if in.Name != "" {
		z.Name = in.Name
	}
	if in.HeadID != nil {
		if err := s.checkHead(ctx, in.HeadID); err != nil {
			return nil, err
		}
		z.DirectorID = in.HeadID
	}
	if err := s.org.UpdateZone(ctx, z); err != nil {
		return nil, notFound(err, "zone")
	}
	return z, nil
}

// ListStates returns states, optionally within a zone.
func (s *OrgService) ListStates(ctx context.Context, zoneCode *string) ([]domain.State, error) {
	return s.org.ListStates(ctx, trimPtr(zoneCode))
}

// GetState returns a state by code.
func (s *OrgService) GetState(ctx context.Context, code string) (*domain.State, error) {
	st, err := s.org.GetState(ctx, code)
	return st, notFound(err, "state")
}

// CreateState adds a state under an existing zone.
func (s *OrgService) CreateState(ctx context.Context, actor *domain.Employee, in OrgUnitInput) (*domain.State, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	in = normalizeUnit(in)
	if err := validateUnit(in, true); err != nil {
		return nil, err
	}
	if _, err := s.org.GetZone(ctx, in.Parent); err != nil {
		return nil, parentMissing(err, "zone_code", "unknown zone")
	}
	if err := s.checkHead(ctx, in.HeadID); err != nil {
		return nil, err
	}
	st := &domain.State{Code: in.Code, Name: in.Name, ZoneCode: in.Parent, CoordinatorID: in.HeadID}
	if err := s.org.CreateState(ctx, st); err != nil {
		return nil, conflictFromUnique(err)
	}
	return st, nil
}

// UpdateState changes a state's name, zone and coordinator.
func (s *OrgService) UpdateState(ctx context.Context, actor *domain.Employee, code string, in OrgUnitInput) (*domain.State, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	st, err := s.org.GetState(ctx, code)
	if err != nil {
		return nil, notFound(err, "state")
	}
	in = normalizeUnit(in)
	if in.Name != "" {
		st.Name = in.Name
	}
	if in.Parent != "" && in.Parent != st.ZoneCode {
		if _, err := s.org.GetZone(ctx, in.Parent); err != nil {
			return nil, parentMissing(err, "zone_code", "unknown zone")
		}
		st.ZoneCode = in.Parent
	}
	if in.HeadID != nil {
		if err := s.checkHead(ctx, in.HeadID); err != nil {
			return nil, err
		}
		st.CoordinatorID = in.HeadID
	}
	if err := s.org.UpdateState(ctx, st); err != nil {
		return nil, notFound(err, "state")
	}
	return st, nil
}

// ListLGAs returns LGAs, optionally within a state.
func (s *OrgService) ListLGAs(ctx context.Context, stateCode *string) ([]domain.LGA, error) {
	return s.org.ListLGAs(ctx, trimPtr(stateCode))
}

// CreateLGA adds an LGA under an existing state.
func (s *OrgService) CreateLGA(ctx context.Context, actor *domain.Employee, in OrgUnitInput) (*domain.LGA, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	in = normalizeUnit(in)
	if err := validateUnit(in, true); err != nil {
		return nil, err
	}
	if _, err := s.org.GetState(ctx, in.Parent); err != nil {
		return nil, parentMissing(err, "state_code", "unknown state")
	}
	l := &domain.LGA{Code: in.Code, Name: in.Name, StateCode: in.Parent}
	if err := s.org.CreateLGA(ctx, l); err != nil {
		return nil, conflictFromUnique(err)
	}
	return l, nil
}

// ListDepartments returns departments.
func (s *OrgService) ListDepartments(ctx context.Context, activeOnly bool) ([]domain.Department, error) {
	return s.org.ListDepartments(ctx, activeOnly)
}

// GetDepartment returns a department by code.
func (s *OrgService) GetDepartment(ctx context.Context, code string) (*domain.Department, error) {
	d, err := s.org.GetDepartment(ctx, code)
	return d, notFound(err, "department")
}

// CreateDepartment adds a department.
func (s *OrgService) CreateDepartment(ctx context.Context, actor *domain.Employee, in OrgUnitInput) (*domain.Department, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	in = normalizeUnit(in)
	if err := validateUnit(in, false); err != nil {
		return nil, err
	}
	if err := s.checkHead(ctx, in.HeadID); err != nil {
		return nil, err
	}
	d := &domain.Department{Code: in.Code, Name: in.Name, DirectorID: in.HeadID, Active: true}
	if in.Active != nil {
		d.Active = *in.Active
	}
	if err := s.org.CreateDepartment(ctx, d); err != nil {
		return nil, conflictFromUnique(err)
	}
	return d, nil
}

// UpdateDepartment changes a department's name, director and active flag.
func (s *OrgService) UpdateDepartment(ctx context.Context, actor *domain.Employee, code string, in OrgUnitInput) (*domain.Department, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	d, err := s.org.GetDepartment(ctx, code)
	if err != nil {
		return nil, notFound(err, "department")
	}
	in = normalizeUnit(in)
	if in.Name != "" {
		d.Name = in.Name
	}
	if in.HeadID != nil {
		if err := s.checkHead(ctx, in.HeadID); err != nil {
			return nil, err
		}
		d.DirectorID = in.HeadID
	}
	if in.Active != nil {
		d.Active = *in.Active
	}
	if err := s.org.UpdateDepartment(ctx, d); err != nil {
		return nil, notFound(err, "department")
	}
	return d, nil
}

// ListGradeLevels returns the allowance table.
func (s *OrgService) ListGradeLevels(ctx context.Context) ([]domain.GradeLevel, error) {
	return s.org.ListGradeLevels(ctx)
}

// UpsertGradeLevels replaces allowance rows for the given levels.
func (s *OrgService) UpsertGradeLevels(ctx context.Context, actor *domain.Employee, levels []domain.GradeLevel) ([]domain.GradeLevel, error) {
	if err := requireDG(actor); err != nil {
		return nil, err
	}
	errs := fieldErrors{}
	for _, g := range levels {
		if g.Level < domain.MinGradeLevel || g.Level > domain.MaxGradeLevel {
			errs.add("level", "must be between 1 and 18")
		}
		if g.PerDiem < 0 || g.LocalRunning < 0 || g.Estacode < 0 || g.AssumptionOfDuty < 0 {
			errs.add("amounts", "must not be negative")
		}
	}
	if err := errs.err("invalid grade levels"); err != nil {
		return nil, err
	}
	for i := range levels {
		if err := s.org.UpsertGradeLevel(ctx, &levels[i]); err != nil {
			return nil, err
		}
	}
	return levels, nil
}

func (s *OrgService) checkHead(ctx context.Context, headID *string) error {
	if headID == nil || s.employees == nil {
		return nil
	}
	if _, err := s.employees.GetByID(ctx, *headID); err != nil {
		return parentMissing(err, "head_id", "unknown employee")
	}
	return nil
}

func requireDG(actor *domain.Employee) error {
	if actor.Role != domain.RoleDirectorGeneral {
		return apperrors.NewForbidden("only the DG can change the organisation structure")
	}
	return nil
}

func normalizeUnit(in OrgUnitInput) OrgUnitInput {
	in.Code = strings.ToUpper(strings.TrimSpace(in.Code))
	in.Name = strings.TrimSpace(in.Name)
	in.Parent = strings.ToUpper(strings.TrimSpace(in.Parent))
	in.HeadID = trimPtr(in.HeadID)
	return in
}

func validateUnit(in OrgUnitInput, needsParent bool) error {
	errs := fieldErrors{}
	if in.Code == "" {
		errs.add("code", "is required")
	}
	if in.Name == "" {
		errs.add("name", "is required")
	}
	if needsParent && in.Parent == "" {
		errs.add("parent", "is required")
	}
	return errs.err("invalid input")
}

func parentMissing(err error, field, msg string) error {
	if apperrors.IsNotFound(err) {
		return apperrors.NewValidationError("invalid reference", map[string]any{field: msg})
	}
	return err
}
