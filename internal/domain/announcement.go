package domain

import "time"

// Announcement is a notice for one department, or for everyone when
// DepartmentID is nil.
type Announcement struct {
	ID           string
	DepartmentID *string
	Title        string
	Content      string
	AuthorID     string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// VisibleTo reports whether an active announcement reaches the employee.
func (a *Announcement) VisibleTo(e *Employee) bool {
	if !a.Active {
		return false
	}
	if a.DepartmentID == nil {
		return true
	}
	return e.DepartmentID != nil && *e.DepartmentID == *a.DepartmentID
}

// Newsletter is a longer bulletin addressed to a set of departments. It is
// a draft until PublishedAt is set.
type Newsletter struct {
	ID            string
	Title         string
	Content       string
	AuthorID      string
	DepartmentIDs []string
	PublishedAt   *time.Time
	CreatedAt     time.Time
}

// Published reports whether the newsletter has gone out.
func (n *Newsletter) Published() bool {
	return n.PublishedAt != nil
}

// Addresses reports whether the newsletter targets the department. An
// empty department list addresses everyone.
func (n *Newsletter) Addresses(departmentID *string) bool {
	if len(n.DepartmentIDs) == 0 {
		return true
	}
	if departmentID == nil {
		return false
	}
	for _, id := range n.DepartmentIDs {
		if id == *departmentID {
			return true
		}
	}
	return false
}
