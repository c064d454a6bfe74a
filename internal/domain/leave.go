package domain

import "time"

// LeaveType enumerates supported leave categories.
type LeaveType string

const (
	LeaveTypeAnnual        LeaveType = "annual"
	LeaveTypeSick          LeaveType = "sick"
	LeaveTypeMaternity     LeaveType = "maternity"
	LeaveTypePaternity     LeaveType = "paternity"
	LeaveTypeStudy         LeaveType = "study"
	LeaveTypeCompassionate LeaveType = "compassionate"
)

// Valid reports whether t is a known leave type.
func (t LeaveType) Valid() bool {
	switch t {
	case LeaveTypeAnnual, LeaveTypeSick, LeaveTypeMaternity, LeaveTypePaternity, LeaveTypeStudy, LeaveTypeCompassionate:
		return true
	}
	return false
}

// LeaveStatus enumerates leave request states.
type LeaveStatus string

const (
	LeaveStatusPending   LeaveStatus = "pending"
	LeaveStatusApproved  LeaveStatus = "approved"
	LeaveStatusRejected  LeaveStatus = "rejected"
	LeaveStatusCancelled LeaveStatus = "cancelled"
)

// LeaveRecordType binds leave requests to approval workflows.
const LeaveRecordType = "leave_request"

// LeaveRequest is an employee's application for time off.
type LeaveRequest struct {
	ID              string
	EmployeeID      string
	LeaveType       LeaveType
	StartDate       time.Time
	EndDate         time.Time
	Reason          string
	Status          LeaveStatus
	DecidedBy       *string
	DecidedAt       *time.Time
	DecisionComment string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Days returns the inclusive length of the leave in calendar days.
func (l *LeaveRequest) Days() int {
	if l.EndDate.Before(l.StartDate) {
		return 0
	}
	return int(truncateDay(l.EndDate).Sub(truncateDay(l.StartDate)).Hours()/24) + 1
}

// Overlaps reports whether two leave periods share at least one day.
func (l *LeaveRequest) Overlaps(start, end time.Time) bool {
	return !truncateDay(l.StartDate).After(truncateDay(end)) && !truncateDay(start).After(truncateDay(l.EndDate))
}

// IsOpen reports whether the request still blocks overlapping requests.
func (l *LeaveRequest) IsOpen() bool {
	return l.Status == LeaveStatusPending || l.Status == LeaveStatusApproved
}
