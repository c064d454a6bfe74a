package domain

import "time"

// TaskPriority enumerates task urgency.
type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "LOW"
	TaskPriorityMedium TaskPriority = "MEDIUM"
	TaskPriorityHigh   TaskPriority = "HIGH"
	TaskPriorityUrgent TaskPriority = "URGENT"
)

// Valid reports whether p is a known priority.
func (p TaskPriority) Valid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh, TaskPriorityUrgent:
		return true
	}
	return false
}

// TaskStatus enumerates task lifecycle states.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
	TaskStatusCancelled  TaskStatus = "CANCELLED"
)

// Open reports whether the task still needs work.
func (s TaskStatus) Open() bool {
	return s == TaskStatusPending || s == TaskStatusInProgress
}

var taskTransitions = map[TaskStatus][]TaskStatus{
	TaskStatusPending:    {TaskStatusInProgress, TaskStatusCancelled},
	TaskStatusInProgress: {TaskStatusCompleted, TaskStatusCancelled, TaskStatusPending},
	TaskStatusCompleted:  {},
	TaskStatusCancelled:  {},
}

// CanTransitionTo reports whether a task may move from s to next.
func (s TaskStatus) CanTransitionTo(next TaskStatus) bool {
	for _, candidate := range taskTransitions[s] {
		if candidate == next {
			return true
		}
	}
	return false
}

// Task is a piece of work assigned from one employee to another.
type Task struct {
	ID          string
	Title       string
	Description string
	AssignerID  string
	AssigneeID  string
	Priority    TaskPriority
	Status      TaskStatus
	DueDate     time.Time
	CompletedAt *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsOverdue reports whether an open task has passed its due date.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status.Open() && t.DueDate.Before(now)
}

// Involves reports whether the employee is the assigner or assignee.
func (t *Task) Involves(employeeID string) bool {
	return t.AssignerID == employeeID || t.AssigneeID == employeeID
}

// Subtask is a checklist item under a task.
type Subtask struct {
	ID        string
	TaskID    string
	Title     string
	Completed bool
	CreatedAt time.Time
}
