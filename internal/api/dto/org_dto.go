package dto

import "time"

// OrgUnitRequest creates or updates a zone, state, LGA or department.
// Parent is the zone code for states and the state code for LGAs.
type OrgUnitRequest struct {
	Code   string  `json:"code"`
	Name   string  `json:"name"`
	Parent string  `json:"parent"`
	HeadID *string `json:"head_id"`
	Active *bool   `json:"active"`
}

// ZoneResponse payload.
type ZoneResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	DirectorID *string   `json:"director_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// StateResponse payload.
type StateResponse struct {
	ID            string    `json:"id"`
	Code          string    `json:"code"`
	Name          string    `json:"name"`
	ZoneCode      string    `json:"zone_code"`
	CoordinatorID *string   `json:"coordinator_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// LGAResponse payload.
type LGAResponse struct {
	ID        string `json:"id"`
	Code      string `json:"code"`
	Name      string `json:"name"`
	StateCode string `json:"state_code"`
}

// DepartmentResponse payload.
type DepartmentResponse struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	Name       string    `json:"name"`
	DirectorID *string   `json:"director_id"`
	Active     bool      `json:"active"`
	CreatedAt  time.Time `json:"created_at"`
}

// GradeLevel is both the request and response shape for allowances, in kobo.
type GradeLevel struct {
	Level            int   `json:"level"`
	PerDiem          int64 `json:"per_diem"`
	LocalRunning     int64 `json:"local_running"`
	Estacode         int64 `json:"estacode"`
	AssumptionOfDuty int64 `json:"assumption_of_duty"`
}
