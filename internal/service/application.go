package service

import (
	"context"
	"errors"
	"strconv"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrDuplicateApplication is returned when the applicant already applied to the job,
// including when a concurrent submission wins the unique index.
var ErrDuplicateApplication = apperrors.Validation("You have already applied for this job.")

// ApplicationService implements the application workflow.
type ApplicationService struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewApplicationService(db *gorm.DB, log *zap.Logger, m *metrics.Collector) *ApplicationService {
	return &ApplicationService{db: db, log: log, metrics: m}
}

// SubmitInput is the apply payload.
type SubmitInput struct {
	JobID       uint   `json:"job"`
	CoverLetter string `json:"cover_letter"`
}

// employerScope restricts employers to applications on their own postings.
// Admins are unrestricted.
func employerScope(q *gorm.DB, p policy.Principal) *gorm.DB {
	if p.Is(model.RoleEmployer) {
		return q.Where("job_applications.job_id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).Model(&model.JobPosting{}).Select("id").Where("company_id = ?", p.ID))
	}
	return q
}

func preloadApplication(q *gorm.DB) *gorm.DB {
	return q.Preload("Job").Preload("Job.Company").Preload("Job.Category").Preload("Applicant")
}

// Submit files an application for the caller. The (job, applicant) pair is
// unique in the store, so concurrent duplicates leave exactly one row.
func (s *ApplicationService) Submit(ctx context.Context, p policy.Principal, in SubmitInput) (*model.JobApplication, error) {
	log := loggerFor(ctx, s.log)
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	if in.JobID == 0 {
		return nil, apperrors.ValidationField("job", msgRequired)
	}

	var job model.JobPosting
	if err := s.db.WithContext(ctx).First(&job, in.JobID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ValidationField("job",
				`Invalid pk "`+strconv.FormatUint(uint64(in.JobID), 10)+`" - object does not exist.`)
		}
		return nil, apperrors.MapDBError(err)
	}
	if !job.IsActive {
		log.Warn("Application to inactive posting", zap.Uint("job_id", job.ID), zap.Uint("user_id", p.ID))
		return nil, apperrors.ValidationField("job", "This job posting is no longer active.")
	}
	if !policy.CanApply(p) {
		return nil, apperrors.Validation("Only job seekers can apply for jobs.")
	}

	application := &model.JobApplication{
		JobID:       job.ID,
		ApplicantID: p.ID,
		CoverLetter: in.CoverLetter,
		Status:      model.StatusPending,
	}

	defer s.metrics.TrackDBOperation("insert")()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(application).Error; err != nil {
		err = apperrors.MapDBError(err)
		if apperrors.IsConflict(err) {
			s.metrics.ApplicationDuplicate()
			log.Warn("Duplicate application rejected", zap.Uint("job_id", job.ID), zap.Uint("user_id", p.ID))
			return nil, ErrDuplicateApplication
		}
		log.Error("Failed to create application", zap.Error(err))
		return nil, err
	}
	application.Job = &job

	s.metrics.ApplicationSubmitted()
	log.Info("Application submitted",
		zap.Uint("application_id", application.ID),
		zap.Uint("job_id", job.ID),
		zap.Uint("user_id", p.ID))
	return application, nil
}

// ListMine returns the caller's applications, newest first. Job seekers only.
func (s *ApplicationService) ListMine(ctx context.Context, p policy.Principal, req PageRequest) (*Page[model.JobApplication], error) {
	if err := policy.RequireMsg(p, p.Is(model.RoleJobSeeker), "Only job seekers can perform this action."); err != nil {
		return nil, err
	}
	defer s.metrics.TrackDBOperation("query")()
	return paginate[model.JobApplication](
		func() *gorm.DB {
			return s.db.WithContext(ctx).Model(&model.JobApplication{}).Where("applicant_id = ?", p.ID)
		},
		func(q *gorm.DB) *gorm.DB {
			return preloadApplication(q).Order("job_applications.applied_at DESC").Order("job_applications.id DESC")
		},
		req,
	)
}

// ListForJob returns applications for one posting. Employers see only
// applications on postings they own; for any other posting the list is empty.
func (s *ApplicationService) ListForJob(ctx context.Context, p policy.Principal, jobID uint, req PageRequest) (*Page[model.JobApplication], error) {
	if err := policy.RequireMsg(p, policy.CanReviewApplications(p), "Only employers or admins can perform this action."); err != nil {
		return nil, err
	}
	defer s.metrics.TrackDBOperation("query")()
	return paginate[model.JobApplication](
		func() *gorm.DB {
			q := s.db.WithContext(ctx).Model(&model.JobApplication{}).Where("job_applications.job_id = ?", jobID)
			return employerScope(q, p)
		},
		func(q *gorm.DB) *gorm.DB {
			return preloadApplication(q).Order("job_applications.applied_at DESC").Order("job_applications.id DESC")
		},
		req,
	)
}

// UpdateStatus sets a new status. Any status may follow any other. With
// partial set, an empty status leaves the application unchanged.
// Employers can only reach applications on their own postings; others are not found.
func (s *ApplicationService) UpdateStatus(ctx context.Context, p policy.Principal, id uint, status model.ApplicationStatus, partial bool) (*model.JobApplication, error) {
	log := loggerFor(ctx, s.log)
	if err := policy.RequireMsg(p, policy.CanReviewApplications(p), "Only employers or admins can perform this action."); err != nil {
		return nil, err
	}

	var application model.JobApplication
	q := employerScope(s.db.WithContext(ctx).Model(&model.JobApplication{}), p).Preload("Job")
	if err := q.First(&application, id).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if err := policy.Require(p, policy.CanUpdateApplicationStatus(p, &application)); err != nil {
		return nil, err
	}

	if status == "" {
		if partial {
			return &application, nil
		}
		return nil, apperrors.ValidationField("status", msgRequired)
	}
	if !status.Valid() {
		return nil, apperrors.ValidationField("status", invalidChoice(string(status)))
	}

	previous := application.Status
	defer s.metrics.TrackDBOperation("update")()
	if err := s.db.WithContext(ctx).Model(&application).Update("status", status).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	application.Status = status

	s.metrics.ApplicationStatusChanged(string(status))
	log.Info("Application status updated",
		zap.Uint("application_id", application.ID),
		zap.String("from", string(previous)),
		zap.String("to", string(status)),
		zap.Uint("user_id", p.ID))
	return &application, nil
}
