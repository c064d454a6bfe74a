package dto

import (
	"time"

	"github.com/spec-kit/staff-portal/internal/domain"
)

// EmployeeCreateRequest payload.
type EmployeeCreateRequest struct {
	EmployeeID             string      `json:"employee_id"`
	IPPISNumber            *string     `json:"ippis_number"`
	FirstName              string      `json:"first_name"`
	LastName               string      `json:"last_name"`
	MiddleName             string      `json:"middle_name"`
	Email                  string      `json:"email"`
	Phone                  *string     `json:"phone"`
	Role                   domain.Role `json:"role"`
	DepartmentID           *string     `json:"department_id"`
	ZoneCode               *string     `json:"zone_code"`
	StateCode              *string     `json:"state_code"`
	GradeLevel             int         `json:"grade_level"`
	Step                   int         `json:"step"`
	DateOfBirth            Date        `json:"date_of_birth"`
	DateOfFirstAppointment Date        `json:"date_of_first_appointment"`
	DateOfRetirement       *Date       `json:"date_of_retirement"`
	LastPromotionDate      *Date       `json:"last_promotion_date"`
	LastExaminationDate    *Date       `json:"last_examination_date"`
	BankAccountNumber      *string     `json:"bank_account_number"`
	PFANumber              *string     `json:"pfa_number"`
}

// EmployeeUpdateRequest is a partial update; omitted fields are unchanged.
type EmployeeUpdateRequest struct {
	EmployeeID             *string      `json:"employee_id"`
	IPPISNumber            *string      `json:"ippis_number"`
	FirstName              *string      `json:"first_name"`
	LastName               *string      `json:"last_name"`
	MiddleName             *string      `json:"middle_name"`
	Email                  *string      `json:"email"`
	Phone                  *string      `json:"phone"`
	Role                   *domain.Role `json:"role"`
	DepartmentID           *string      `json:"department_id"`
	ZoneCode               *string      `json:"zone_code"`
	StateCode              *string      `json:"state_code"`
	GradeLevel             *int         `json:"grade_level"`
	Step                   *int         `json:"step"`
	DateOfBirth            *Date        `json:"date_of_birth"`
	DateOfFirstAppointment *Date        `json:"date_of_first_appointment"`
	DateOfRetirement       *Date        `json:"date_of_retirement"`
	LastPromotionDate      *Date        `json:"last_promotion_date"`
	LastExaminationDate    *Date        `json:"last_examination_date"`
	BankAccountNumber      *string      `json:"bank_account_number"`
	PFANumber              *string      `json:"pfa_number"`
	Active                 *bool        `json:"active"`
}

// EmployeeResponse is the public view of an employee.
type EmployeeResponse struct {
	ID                     string      `json:"id"`
	EmployeeID             string      `json:"employee_id"`
	IPPISNumber            *string     `json:"ippis_number"`
	FirstName              string      `json:"first_name"`
	LastName               string      `json:"last_name"`
	MiddleName             string      `json:"middle_name,omitempty"`
	FullName               string      `json:"full_name"`
	Email                  string      `json:"email"`
	Phone                  *string     `json:"phone"`
	Role                   domain.Role `json:"role"`
	DepartmentID           *string     `json:"department_id"`
	ZoneCode               *string     `json:"zone_code"`
	StateCode              *string     `json:"state_code"`
	GradeLevel             int         `json:"grade_level"`
	Step                   int         `json:"step"`
	DateOfBirth            Date        `json:"date_of_birth"`
	DateOfFirstAppointment Date        `json:"date_of_first_appointment"`
	DateOfRetirement       *Date       `json:"date_of_retirement"`
	LastPromotionDate      *Date       `json:"last_promotion_date"`
	LastExaminationDate    *Date       `json:"last_examination_date"`
	Active                 bool        `json:"active"`
	PasswordChangeRequired bool        `json:"password_change_required"`
	CreatedAt              time.Time   `json:"created_at"`
	UpdatedAt              time.Time   `json:"updated_at"`
}

// PageMeta describes a paged listing.
type PageMeta struct {
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Total    int `json:"total"`
}
