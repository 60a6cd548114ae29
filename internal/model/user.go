package model

import (
	"strings"
	"time"
)

// Role is the fixed role tag carried by every user.
type Role string

const (
	RoleAdmin     Role = "admin"
	RoleEmployer  Role = "employer"
	RoleJobSeeker Role = "job_seeker"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleEmployer, RoleJobSeeker:
		return true
	}
	return false
}

// Display returns the human label for the role.
func (r Role) Display() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleEmployer:
		return "Employer"
	case RoleJobSeeker:
		return "Job Seeker"
	}
	return string(r)
}

// User is the single identity table; behaviour differs only by Role.
type User struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Email       string    `json:"email" gorm:"type:varchar(254);uniqueIndex;not null"`
	Password    string    `json:"-" gorm:"type:varchar(255);not null"`
	FirstName   string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName    string    `json:"last_name" gorm:"type:varchar(150)"`
	Role        Role      `json:"role" gorm:"type:varchar(20);not null;default:'job_seeker'"`
	CompanyName string    `json:"company_name" gorm:"type:varchar(255)"`
	Bio         string    `json:"bio" gorm:"type:text"`
	Phone       string    `json:"phone" gorm:"type:varchar(20)"`
	IsActive    bool      `json:"-" gorm:"not null"`
	DateJoined  time.Time `json:"date_joined" gorm:"autoCreateTime"`
	UpdatedAt   time.Time `json:"-"`
}

// NormalizeEmail trims the address and lower-cases its domain part.
func NormalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + "@" + strings.ToLower(email[at+1:])
}
