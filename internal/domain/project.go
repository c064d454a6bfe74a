package domain

import "time"

// ProjectStatus enumerates project states.
type ProjectStatus string

const (
	ProjectStatusNotStarted ProjectStatus = "NOT_STARTED"
	ProjectStatusOngoing    ProjectStatus = "ONGOING"
	ProjectStatusCompleted  ProjectStatus = "COMPLETED"
	ProjectStatusDelayed    ProjectStatus = "DELAYED"
)

// Valid reports whether s is a known project status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectStatusNotStarted, ProjectStatusOngoing, ProjectStatusCompleted, ProjectStatusDelayed:
		return true
	}
	return false
}

// Project is a tracked initiative with an owner and a schedule.
type Project struct {
	ID           string
	Name         string
	Description  string
	DepartmentID *string
	StateCode    *string
	ManagerID    string
	StartDate    time.Time
	EndDate      time.Time
	Status       ProjectStatus
	Budget       int64
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// ProjectStatusUpdate is a status history entry.
type ProjectStatusUpdate struct {
	ID        string
	ProjectID string
	OldStatus ProjectStatus
	NewStatus ProjectStatus
	Note      string
	UpdatedBy string
	CreatedAt time.Time
}

// Milestone is a dated deliverable within a project.
type Milestone struct {
	ID            string
	ProjectID     string
	Name          string
	DueDate       time.Time
	CompletedDate *time.Time
	CreatedAt     time.Time
}
