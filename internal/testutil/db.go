// Package testutil provides a migrated sqlite store and fixtures for tests.
package testutil

import (
	"fmt"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/pkg/database"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a file-backed sqlite database in a temp dir with foreign keys
// enforced and all models migrated.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000",
		filepath.Join(t.TempDir(), "jobboard.db"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// A single connection serializes writers; sqlite would otherwise report SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

var seq atomic.Int64

// CreateUser inserts an active user with the given role and a unique email.
func CreateUser(t testing.TB, db *gorm.DB, role model.Role) *model.User {
	t.Helper()
	n := seq.Add(1)
	u := &model.User{
		Email:       fmt.Sprintf("%s%d@example.com", role, n),
		Password:    "x",
		FirstName:   "Test",
		LastName:    fmt.Sprintf("User%d", n),
		Role:        role,
		CompanyName: fmt.Sprintf("Company %d", n),
		IsActive:    true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// CreateCategory inserts a category with the given name.
func CreateCategory(t testing.TB, db *gorm.DB, name string) *model.Category {
	t.Helper()
	c := &model.Category{Name: name}
	require.NoError(t, db.Create(c).Error)
	return c
}

// PostingOption customizes CreatePosting.
type PostingOption func(*model.JobPosting)

func WithCategory(c *model.Category) PostingOption {
	return func(p *model.JobPosting) { p.CategoryID = &c.ID }
}

func WithTitle(title string) PostingOption {
	return func(p *model.JobPosting) { p.Title = title }
}

func WithLocation(location string) PostingOption {
	return func(p *model.JobPosting) { p.Location = location }
}

func WithSalary(min, max float64) PostingOption {
	return func(p *model.JobPosting) { p.SalaryMin, p.SalaryMax = &min, &max }
}

func WithJobType(jt model.JobType) PostingOption {
	return func(p *model.JobPosting) { p.JobType = jt }
}

func Inactive() PostingOption {
	return func(p *model.JobPosting) { p.IsActive = false }
}

// CreatePosting inserts an active posting owned by owner.
func CreatePosting(t testing.TB, db *gorm.DB, owner *model.User, opts ...PostingOption) *model.JobPosting {
	t.Helper()
	n := seq.Add(1)
	p := &model.JobPosting{
		Title:       fmt.Sprintf("Job %d", n),
		Description: "Build things",
		CompanyID:   owner.ID,
		Location:    "Remote",
		JobType:     model.JobTypeFullTime,
		IsActive:    true,
	}
	for _, opt := range opts {
		opt(p)
	}
	require.NoError(t, db.Create(p).Error)
	return p
}

// CreateApplication inserts a pending application.
func CreateApplication(t testing.TB, db *gorm.DB, job *model.JobPosting, applicant *model.User) *model.JobApplication {
	t.Helper()
	a := &model.JobApplication{
		JobID:       job.ID,
		ApplicantID: applicant.ID,
		CoverLetter: "Hire me",
		Status:      model.StatusPending,
	}
	require.NoError(t, db.Create(a).Error)
	return a
}
