package domain

import "time"

// Zone groups states under a zonal director.
type Zone struct {
	ID         string
	Code       string
	Name       string
	DirectorID *string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// State belongs to a zone and is run by a state coordinator.
type State struct {
	ID            string
	Code          string
	Name          string
	ZoneCode      string
	CoordinatorID *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LGA is a local government area within a state.
type LGA struct {
	ID        string
	Code      string
	Name      string
	StateCode string
	CreatedAt time.Time
}

// Department represents a headquarters department.
type Department struct {
	ID         string
	Code       string
	Name       string
	DirectorID *string
	Active     bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GradeLevel holds allowance amounts, in kobo, for a salary grade.
type GradeLevel struct {
	Level            int
	PerDiem          int64
	LocalRunning     int64
	Estacode         int64
	AssumptionOfDuty int64
	UpdatedAt        time.Time
}
