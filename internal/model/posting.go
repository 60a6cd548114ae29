package model

import "time"

// JobType enumerates posting employment types.
type JobType string

const (
	JobTypeFullTime   JobType = "full_time"
	JobTypePartTime   JobType = "part_time"
	JobTypeContract   JobType = "contract"
	JobTypeRemote     JobType = "remote"
	JobTypeInternship JobType = "internship"
)

// JobTypes lists the accepted job types in display order.
var JobTypes = []JobType{JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeRemote, JobTypeInternship}

// Valid reports whether t is a known job type.
func (t JobType) Valid() bool {
	for _, v := range JobTypes {
		if v == t {
			return true
		}
	}
	return false
}

// Display returns the human label for the job type.
func (t JobType) Display() string {
	switch t {
	case JobTypeFullTime:
		return "Full Time"
	case JobTypePartTime:
		return "Part Time"
	case JobTypeContract:
		return "Contract"
	case JobTypeRemote:
		return "Remote"
	case JobTypeInternship:
		return "Internship"
	}
	return string(t)
}

// JobPosting is a listing owned by exactly one employer.
type JobPosting struct {
	ID           uint      `json:"id" gorm:"primarykey"`
	Title        string    `json:"title" gorm:"type:varchar(255);not null;index"`
	Description  string    `json:"description" gorm:"type:text;not null"`
	CompanyID    uint      `json:"company_id" gorm:"not null;index"`
	Company      *User     `json:"company,omitempty" gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	CategoryID   *uint     `json:"category" gorm:"index:idx_posting_category_active"`
	Category     *Category `json:"-" gorm:"foreignKey:CategoryID;constraint:OnDelete:SET NULL"`
	Location     string    `json:"location" gorm:"type:varchar(255);not null;index:idx_posting_location_active"`
	JobType      JobType   `json:"job_type" gorm:"type:varchar(20);not null;default:'full_time';index:idx_posting_type_active"`
	SalaryMin    *float64  `json:"salary_min" gorm:"type:numeric(10,2)"`
	SalaryMax    *float64  `json:"salary_max" gorm:"type:numeric(10,2)"`
	Requirements string    `json:"requirements" gorm:"type:text"`
	IsActive     bool      `json:"is_active" gorm:"not null;index;index:idx_posting_category_active;index:idx_posting_type_active;index:idx_posting_location_active"`
	CreatedAt    time.Time `json:"created_at" gorm:"index"`
	UpdatedAt    time.Time `json:"updated_at"`

	// ApplicationCount is filled by a subquery on read.
	ApplicationCount int64 `json:"application_count" gorm:"->;-:migration"`
}

// OwnedBy returns the owning employer's id.
func (p *JobPosting) OwnedBy() uint {
	return p.CompanyID
}

// SalaryRangeValid reports whether min <= max when both bounds are present.
func (p *JobPosting) SalaryRangeValid() bool {
	if p.SalaryMin == nil || p.SalaryMax == nil {
		return true
	}
	return *p.SalaryMin <= *p.SalaryMax
}
