package model

import "time"

// ApplicationStatus is the review state of an application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusReviewed ApplicationStatus = "reviewed"
	StatusAccepted ApplicationStatus = "accepted"
	StatusRejected ApplicationStatus = "rejected"
)

// ApplicationStatuses lists every status value.
var ApplicationStatuses = []ApplicationStatus{StatusPending, StatusReviewed, StatusAccepted, StatusRejected}

// Valid reports whether s is a known status.
func (s ApplicationStatus) Valid() bool {
	for _, v := range ApplicationStatuses {
		if v == s {
			return true
		}
	}
	return false
}

// JobApplication is a job seeker's application to one posting.
// The (job, applicant) pair is unique at the store level.
type JobApplication struct {
	ID          uint              `json:"id" gorm:"primarykey"`
	JobID       uint              `json:"job_id" gorm:"not null;uniqueIndex:idx_application_job_applicant"`
	Job         *JobPosting       `json:"job,omitempty" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	ApplicantID uint              `json:"applicant_id" gorm:"not null;uniqueIndex:idx_application_job_applicant;index"`
	Applicant   *User             `json:"applicant,omitempty" gorm:"foreignKey:ApplicantID;constraint:OnDelete:CASCADE"`
	CoverLetter string            `json:"cover_letter" gorm:"type:text"`
	Status      ApplicationStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	AppliedAt   time.Time         `json:"applied_at" gorm:"autoCreateTime;index"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// OwnedBy returns the id of the employer owning the applied-to posting.
// Job must be loaded.
func (a *JobApplication) OwnedBy() uint {
	if a.Job == nil {
		return 0
	}
	return a.Job.CompanyID
}
