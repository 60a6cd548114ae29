package service

import (
	"context"
	"errors"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const topJobsLimit = 5

// SavedJobService handles bookmarks and employer statistics.
type SavedJobService struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewSavedJobService(db *gorm.DB, log *zap.Logger, m *metrics.Collector) *SavedJobService {
	return &SavedJobService{db: db, log: log, metrics: m}
}

// EmployerStats aggregates over the caller's own postings.
type EmployerStats struct {
	TotalJobs         int64              `json:"total_jobs"`
	ActiveJobs        int64              `json:"active_jobs"`
	TotalApplications int64              `json:"total_applications"`
	TopJobs           []model.JobPosting `json:"top_jobs"`
}

// Toggle saves the job for the caller, or unsaves it if already saved.
// It reports the resulting state.
func (s *SavedJobService) Toggle(ctx context.Context, p policy.Principal, jobID uint) (bool, error) {
	if err := policy.Require(p, policy.CanToggleSavedJob(p)); err != nil {
		return false, err
	}

	saved := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var job model.JobPosting
		if err := tx.Select("id").First(&job, jobID).Error; err != nil {
			return err
		}

		var existing model.SavedJob
		err := tx.Where("user_id = ? AND job_id = ?", p.ID, jobID).First(&existing).Error
		switch {
		case err == nil:
			return tx.Delete(&existing).Error
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		saved = true
		return tx.Omit(clause.Associations).Create(&model.SavedJob{UserID: p.ID, JobID: jobID}).Error
	})
	if err != nil {
		err = apperrors.MapDBError(err)
		// A concurrent toggle created the row first; the job is saved either way.
		if saved && apperrors.IsConflict(err) {
			return true, nil
		}
		return false, err
	}

	s.metrics.SavedJobToggled(saved)
	loggerFor(ctx, s.log).Info("Saved job toggled",
		zap.Uint("job_id", jobID), zap.Uint("user_id", p.ID), zap.Bool("saved", saved))
	return saved, nil
}

// List returns the caller's saved jobs, most recently saved first.
func (s *SavedJobService) List(ctx context.Context, p policy.Principal, req PageRequest) (*Page[model.SavedJob], error) {
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	defer s.metrics.TrackDBOperation("query")()
	return paginate[model.SavedJob](
		func() *gorm.DB { return s.db.WithContext(ctx).Model(&model.SavedJob{}).Where("user_id = ?", p.ID) },
		func(q *gorm.DB) *gorm.DB {
			return q.Preload("Job").Preload("Job.Company").Preload("Job.Category").Order("saved_jobs.id DESC")
		},
		req,
	)
}

// Stats aggregates the caller's own postings. Employers and admins only.
// Top jobs are ordered by application count, then newest first.
func (s *SavedJobService) Stats(ctx context.Context, p policy.Principal) (*EmployerStats, error) {
	if err := policy.RequireMsg(p, policy.CanViewStats(p), "Only employers or admins can perform this action."); err != nil {
		return nil, err
	}
	defer s.metrics.TrackDBOperation("query")()

	db := s.db.WithContext(ctx)
	owned := func() *gorm.DB { return db.Model(&model.JobPosting{}).Where("company_id = ?", p.ID) }

	stats := &EmployerStats{TopJobs: []model.JobPosting{}}
	if err := owned().Count(&stats.TotalJobs).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if err := owned().Where("is_active = ?", true).Count(&stats.ActiveJobs).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	err := db.Model(&model.JobApplication{}).
		Where("job_id IN (?)", owned().Select("id")).
		Count(&stats.TotalApplications).Error
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	err = owned().Select(applicationCountSelect).
		Order("application_count DESC").
		Order("job_postings.created_at DESC").
		Order("job_postings.id DESC").
		Limit(topJobsLimit).
		Find(&stats.TopJobs).Error
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return stats, nil
}
