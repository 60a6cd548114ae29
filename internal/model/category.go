package model

import "time"

// Category is admin-curated reference data for postings.
type Category struct {
	ID          uint      `json:"id" gorm:"primarykey"`
	Name        string    `json:"name" gorm:"type:varchar(100);uniqueIndex;not null"`
	Description string    `json:"description" gorm:"type:text"`
	CreatedAt   time.Time `json:"created_at"`

	// JobCount is the number of active postings, filled by a subquery on read.
	JobCount int64 `json:"job_count" gorm:"->;-:migration"`
}
