package dto

import "time"

// TrainingRequest payload.
type TrainingRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	StartDate      Date     `json:"start_date"`
	EndDate        Date     `json:"end_date"`
	Trainer        string   `json:"trainer"`
	ParticipantIDs []string `json:"participant_ids"`
}

// AssignTrainingRequest payload.
type AssignTrainingRequest struct {
	EmployeeID string `json:"employee_id"`
}

// TrainingResponse payload.
type TrainingResponse struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Description    string    `json:"description,omitempty"`
	StartDate      Date      `json:"start_date"`
	EndDate        Date      `json:"end_date"`
	Days           int       `json:"days"`
	Trainer        string    `json:"trainer"`
	CreatedBy      string    `json:"created_by"`
	ParticipantIDs []string  `json:"participant_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// AnnouncementRequest payload.
type AnnouncementRequest struct {
	DepartmentID *string `json:"department_id"`
	Title        string  `json:"title"`
	Content      string  `json:"content"`
}

// AnnouncementResponse payload.
type AnnouncementResponse struct {
	ID           string    `json:"id"`
	DepartmentID *string   `json:"department_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	AuthorID     string    `json:"author_id"`
	Active       bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// NewsletterRequest payload.
type NewsletterRequest struct {
	Title         string   `json:"title"`
	Content       string   `json:"content"`
	DepartmentIDs []string `json:"department_ids"`
	Publish       bool     `json:"publish"`
}

// NewsletterResponse payload.
type NewsletterResponse struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Content       string     `json:"content"`
	AuthorID      string     `json:"author_id"`
	DepartmentIDs []string   `json:"department_ids"`
	Published     bool       `json:"is_published"`
	PublishedAt   *time.Time `json:"published_at"`
	CreatedAt     time.Time  `json:"created_at"`
}
