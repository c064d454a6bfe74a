package domain

import "time"

// Training is a course employees can be enrolled on.
type Training struct {
	ID             string
	Title          string
	Description    string
	StartDate      time.Time
	EndDate        time.Time
	Trainer        string
	CreatedBy      string
	ParticipantIDs []string
	CreatedAt      time.Time
}

// HasParticipant reports whether the employee is enrolled.
func (t *Training) HasParticipant(employeeID string) bool {
	for _, id := range t.ParticipantIDs {
		if id == employeeID {
			return true
		}
	}
	return false
}

// Days is the inclusive length of the course.
func (t *Training) Days() int {
	if t.EndDate.Before(t.StartDate) {
		return 0
	}
	return int(truncateDay(t.EndDate).Sub(truncateDay(t.StartDate)).Hours()/24) + 1
}
