package dto

import (
	"bytes"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar date carried on the wire as YYYY-MM-DD.
type Date struct {
	time.Time
}

// NewDate wraps t.
func NewDate(t time.Time) Date {
	return Date{Time: t}
}

// DatePtr wraps an optional time.
func DatePtr(t *time.Time) *Date {
	if t == nil {
		return nil
	}
	d := NewDate(*t)
	return &d
}

// TimePtr unwraps an optional date.
func (d *Date) TimePtr() *time.Time {
	if d == nil {
		return nil
	}
	t := d.Time
	return &t
}

// MarshalJSON renders the date without a time component.
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON accepts YYYY-MM-DD or null.
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) || bytes.Equal(data, []byte(`""`)) {
		d.Time = time.Time{}
		return nil
	}
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("date must be a string in %s format", dateLayout)
	}
	t, err := time.Parse(dateLayout, string(data[1:len(data)-1]))
	if err != nil {
		return fmt.Errorf("date must use %s format", dateLayout)
	}
	d.Time = t
	return nil
}
