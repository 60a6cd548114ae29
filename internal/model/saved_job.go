package model

import "time"

// SavedJob is a bookmark; its existence means the job is saved.
type SavedJob struct {
	ID        uint        `json:"id" gorm:"primarykey"`
	UserID    uint        `json:"user_id" gorm:"not null;uniqueIndex:idx_saved_user_job"`
	User      *User       `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`
	JobID     uint        `json:"job_id" gorm:"not null;uniqueIndex:idx_saved_user_job;index"`
	Job       *JobPosting `json:"job,omitempty" gorm:"foreignKey:JobID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time   `json:"created_at"`
}

// OwnedBy returns the bookmarking user's id.
func (s *SavedJob) OwnedBy() uint {
	return s.UserID
}
