// Package seed loads reference data (approval workflows and grade level
// allowances) from YAML and applies it through the services.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/spec-kit/staff-portal/internal/domain"
	"github.com/spec-kit/staff-portal/internal/service"
)

//go:embed defaults.yaml
var defaultData []byte

// File is the YAML document layout.
type File struct {
	Workflows   []Workflow   `yaml:"workflows"`
	GradeLevels []GradeLevel `yaml:"grade_levels"`
}

// Workflow describes one approval chain.
type Workflow struct {
	Name        string `yaml:"name"`
	RecordType  string `yaml:"record_type"`
	Description string `yaml:"description"`
	Steps       []Step `yaml:"steps"`
}

// Step is one approval stage.
type Step struct {
	Name         string `yaml:"name"`
	RequiredRole string `yaml:"required_role"`
}

// GradeLevel carries allowance amounts for one level.
type GradeLevel struct {
	Level            int   `yaml:"level"`
	PerDiem          int64 `yaml:"per_diem"`
	LocalRunning     int64 `yaml:"local_running"`
	Estacode         int64 `yaml:"estacode"`
	AssumptionOfDuty int64 `yaml:"assumption_of_duty"`
}

// WorkflowStore is the subset of the workflow service used for seeding.
type WorkflowStore interface {
	HasActive(ctx context.Context, recordType string) (bool, error)
	DefineWorkflow(ctx context.Context, actor *domain.Employee, input service.WorkflowInput) (*domain.Workflow, error)
}

// GradeLevelStore is the subset of the org service used for seeding.
type GradeLevelStore interface {
	UpsertGradeLevels(ctx context.Context, actor *domain.Employee, levels []domain.GradeLevel) ([]domain.GradeLevel, error)
}

// Result counts what Apply changed.
type Result struct {
	WorkflowsDefined int
	WorkflowsSkipped int
	GradeLevels      int
}

// Defaults returns the embedded seed data.
func Defaults() (*File, error) {
	return Parse(defaultData)
}

// Load reads seed data from path, or the embedded defaults when path is empty.
func Load(path string) (*File, error) {
	if path == "" {
		return Defaults()
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(raw)
}

// Parse decodes a seed document. Unknown keys are rejected.
func Parse(raw []byte) (*File, error) {
	var file File
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse seed data: %w", err)
	}
	return &file, nil
}

// Apply defines workflows whose record type has no active workflow yet and
// upserts every grade level. Existing workflows are left untouched.
func Apply(ctx context.Context, file *File, workflows WorkflowStore, grades GradeLevelStore, logger *zap.Logger) (Result, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	actor := service.SystemActor()
	var res Result

	for _, wf := range file.Workflows {
		active, err := workflows.HasActive(ctx, wf.RecordType)
		if err != nil {
			return res, fmt.Errorf("check workflow %q: %w", wf.RecordType, err)
		}
		if active {
			res.WorkflowsSkipped++
			logger.Info("workflow already defined", zap.String("record_type", wf.RecordType))
			continue
		}
		steps := make([]domain.WorkflowStep, 0, len(wf.Steps))
		for _, s := range wf.Steps {
			steps = append(steps, domain.WorkflowStep{Name: s.Name, RequiredRole: domain.Role(s.RequiredRole)})
		}
		if _, err := workflows.DefineWorkflow(ctx, actor, service.WorkflowInput{
			Name:        wf.Name,
			RecordType:  wf.RecordType,
			Description: wf.Description,
			Steps:       steps,
		}); err != nil {
			return res, fmt.Errorf("define workflow %q: %w", wf.RecordType, err)
		}
		res.WorkflowsDefined++
	}

	if len(file.GradeLevels) > 0 {
		levels := make([]domain.GradeLevel, 0, len(file.GradeLevels))
		for _, g := range file.GradeLevels {
			levels = append(levels, domain.GradeLevel{
				Level:            g.Level,
				PerDiem:          g.PerDiem,
				LocalRunning:     g.LocalRunning,
				Estacode:         g.Estacode,
				AssumptionOfDuty: g.AssumptionOfDuty,
			})
		}
		saved, err := grades.UpsertGradeLevels(ctx, actor, levels)
		if err != nil {
			return res, fmt.Errorf("upsert grade levels: %w", err)
		}
		res.GradeLevels = len(saved)
	}

	logger.Info("seed applied",
		zap.Int("workflows_defined", res.WorkflowsDefined),
		zap.Int("workflows_skipped", res.WorkflowsSkipped),
		zap.Int("grade_levels", res.GradeLevels),
	)
	return res, nil
}
