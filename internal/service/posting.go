package service

import (
	"context"
	"errors"
	"strconv"
	"strings"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const applicationCountSelect = "job_postings.*, (SELECT COUNT(*) FROM job_applications" +
	" WHERE job_applications.job_id = job_postings.id) AS application_count"

const msgSalaryRange = "Maximum salary must be greater than minimum salary."

// orderingColumns maps accepted ordering keys onto columns.
var orderingColumns = map[string]string{
	"created_at": "job_postings.created_at",
	"salary_min": "job_postings.salary_min",
	"salary_max": "job_postings.salary_max",
	"title":      "job_postings.title",
}

// DefaultOrdering is used when no or an unknown ordering is requested.
const DefaultOrdering = "-created_at"

// PostingService implements the job posting lifecycle.
type PostingService struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewPostingService(db *gorm.DB, log *zap.Logger, m *metrics.Collector) *PostingService {
	return &PostingService{db: db, log: log, metrics: m}
}

// PostingInput is the create/update payload. Owner, id and timestamps are not
// part of it.
type PostingInput struct {
	Title        Optional[string]        `json:"title"`
	Description  Optional[string]        `json:"description"`
	CategoryID   Optional[*uint]         `json:"category"`
	Location     Optional[string]        `json:"location"`
	JobType      Optional[model.JobType] `json:"job_type"`
	SalaryMin    Optional[*float64]      `json:"salary_min"`
	SalaryMax    Optional[*float64]      `json:"salary_max"`
	Requirements Optional[string]        `json:"requirements"`
	IsActive     Optional[bool]          `json:"is_active"`
}

// PostingFilter narrows List. Zero values mean "no filter".
type PostingFilter struct {
	CategoryID   *uint
	CategoryName string
	JobType      string
	Location     string
	SalaryMin    *float64
	SalaryMax    *float64
	IsActive     *bool
	Search       string
	Ordering     string
}

// OrderClause resolves a comma-separated ordering such as "-salary_min,title"
// into SQL. Unknown keys are skipped; if none remain DefaultOrdering applies.
// Ties are broken by id descending.
func OrderClause(ordering string) string {
	var cols []string
	seen := map[string]bool{}
	for _, key := range strings.Split(ordering, ",") {
		key = strings.TrimSpace(key)
		name := strings.TrimPrefix(key, "-")
		col, ok := orderingColumns[name]
		if !ok || seen[name] {
			continue
		}
		seen[name] = true
		if strings.HasPrefix(key, "-") {
			cols = append(cols, col+" DESC")
		} else {
			cols = append(cols, col+" ASC")
		}
	}
	if len(cols) == 0 {
		return OrderClause(DefaultOrdering)
	}
	return strings.Join(cols, ", ") + ", job_postings.id DESC"
}

func (f PostingFilter) apply(q *gorm.DB) *gorm.DB {
	if f.CategoryID != nil {
		q = q.Where("job_postings.category_id = ?", *f.CategoryID)
	}
	if f.CategoryName != "" {
		q = q.Where("job_postings.category_id IN (?)",
			q.Session(&gorm.Session{NewDB: true}).Model(&model.Category{}).Select("id").
				Where(ilike("name"), containsPattern(f.CategoryName)))
	}
	if f.JobType != "" {
		q = q.Where("job_postings.job_type = ?", f.JobType)
	}
	if f.Location != "" {
		q = q.Where(ilike("job_postings.location"), containsPattern(f.Location))
	}
	if f.SalaryMin != nil {
		q = q.Where("job_postings.salary_min >= ?", *f.SalaryMin)
	}
	if f.SalaryMax != nil {
		q = q.Where("job_postings.salary_max <= ?", *f.SalaryMax)
	}
	if f.IsActive != nil {
		q = q.Where("job_postings.is_active = ?", *f.IsActive)
	}
	if f.Search != "" {
		pattern := containsPattern(f.Search)
		q = q.Where(
			ilike("job_postings.title")+" OR "+ilike("job_postings.description")+" OR "+ilike("job_postings.location"),
			pattern, pattern, pattern,
		)
	}
	return q
}

func (s *PostingService) detailQuery(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).Model(&model.JobPosting{}).
		Select(applicationCountSelect).
		Preload("Company").
		Preload("Category")
}

// List returns postings matching the filter. Public.
func (s *PostingService) List(ctx context.Context, f PostingFilter, req PageRequest) (*Page[model.JobPosting], error) {
	defer s.metrics.TrackDBOperation("query")()
	return paginate[model.JobPosting](
		func() *gorm.DB { return f.apply(s.db.WithContext(ctx).Model(&model.JobPosting{})) },
		func(q *gorm.DB) *gorm.DB {
			return q.Preload("Company").Preload("Category").Order(OrderClause(f.Ordering))
		},
		req,
	)
}

// Get returns one posting with its application count, active or not. Public.
func (s *PostingService) Get(ctx context.Context, id uint) (*model.JobPosting, error) {
	var posting model.JobPosting
	if err := s.detailQuery(ctx).First(&posting, id).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &posting, nil
}

// validate checks the input merged over existing (nil on create).
func (s *PostingService) validate(ctx context.Context, in PostingInput, merged *model.JobPosting, partial bool) error {
	fe := fieldErrors{}
	fe.requireText("title", in.Title, partial, 255)
	fe.requireText("description", in.Description, partial, 0)
	fe.requireText("location", in.Location, partial, 255)

	if in.JobType.Set && !rejectNull(fe, "job_type", in.JobType) && !in.JobType.Value.Valid() {
		fe.add("job_type", invalidChoice(string(in.JobType.Value)))
	}
	rejectNull(fe, "requirements", in.Requirements)
	rejectNull(fe, "is_active", in.IsActive)
	for field, v := range map[string]Optional[*float64]{"salary_min": in.SalaryMin, "salary_max": in.SalaryMax} {
		if !v.Set || v.Value == nil {
			continue
		}
		switch {
		case *v.Value < 0 || *v.Value >= 1e8:
			fe.add(field, "Ensure that there are no more than 10 digits in total.")
		case decimalPlaces(*v.Value) > 2:
			fe.add(field, "Ensure that there are no more than 2 decimal places.")
		}
	}
	if in.CategoryID.Set && in.CategoryID.Value != nil {
		id := *in.CategoryID.Value
		var n int64
		if err := s.db.WithContext(ctx).Model(&model.Category{}).Where("id = ?", id).Count(&n).Error; err != nil {
			return apperrors.MapDBError(err)
		}
		if n == 0 {
			fe.add("category", `Invalid pk "`+strconv.FormatUint(uint64(id), 10)+`" - object does not exist.`)
		}
	}
	if err := fe.err(); err != nil {
		return err
	}

	if !merged.SalaryRangeValid() {
		return apperrors.ValidationField("salary_max", msgSalaryRange)
	}
	return nil
}

// decimalPlaces counts the fractional digits of v's shortest decimal form.
func decimalPlaces(v float64) int {
	str := strconv.FormatFloat(v, 'f', -1, 64)
	if i := strings.IndexByte(str, '.'); i >= 0 {
		return len(str) - i - 1
	}
	return 0
}

func (in PostingInput) mergeInto(p *model.JobPosting) {
	p.Title = in.Title.Or(p.Title)
	p.Description = in.Description.Or(p.Description)
	p.CategoryID = in.CategoryID.Or(p.CategoryID)
	p.Location = in.Location.Or(p.Location)
	p.JobType = in.JobType.Or(p.JobType)
	p.SalaryMin = in.SalaryMin.Or(p.SalaryMin)
	p.SalaryMax = in.SalaryMax.Or(p.SalaryMax)
	p.Requirements = in.Requirements.Or(p.Requirements)
	p.IsActive = in.IsActive.Or(p.IsActive)
}

// Create adds a posting owned by the caller. Employers and admins only.
func (s *PostingService) Create(ctx context.Context, p policy.Principal, in PostingInput) (*model.JobPosting, error) {
	log := loggerFor(ctx, s.log)
	if err := policy.RequireMsg(p, policy.CanCreatePosting(p), "Only employers or admins can perform this action."); err != nil {
		return nil, err
	}

	posting := &model.JobPosting{CompanyID: p.ID, JobType: model.JobTypeFullTime, IsActive: true}
	in.mergeInto(posting)
	if err := s.validate(ctx, in, posting, false); err != nil {
		log.Warn("Rejected posting", zap.Uint("user_id", p.ID), zap.Error(err))
		return nil, err
	}

	defer s.metrics.TrackDBOperation("insert")()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(posting).Error; err != nil {
		log.Error("Failed to create posting", zap.Error(err))
		return nil, apperrors.MapDBError(err)
	}

	s.metrics.PostingOperation("create")
	log.Info("Job posting created",
		zap.Uint("job_id", posting.ID),
		zap.Uint("company_id", posting.CompanyID),
		zap.String("title", posting.Title))
	return s.Get(ctx, posting.ID)
}

// loadForModify resolves the posting and applies the owner-or-admin rule.
// Unauthenticated callers fail before the lookup; missing postings fail before the ownership check.
func (s *PostingService) loadForModify(ctx context.Context, tx *gorm.DB, p policy.Principal, id uint) (*model.JobPosting, error) {
	if err := policy.RequireAuthenticated(p); err != nil {
		return nil, err
	}
	var posting model.JobPosting
	if err := tx.WithContext(ctx).First(&posting, id).Error; err != nil {
		return nil, err
	}
	if err := policy.RequireMsg(p, policy.CanModifyPosting(p, &posting), "You do not own this resource."); err != nil {
		loggerFor(ctx, s.log).Warn("Posting modification denied",
			zap.Uint("job_id", id), zap.Uint("user_id", p.ID))
		return nil, err
	}
	return &posting, nil
}

// Update changes a posting. partial selects PATCH semantics. Owner or admin only.
func (s *PostingService) Update(ctx context.Context, p policy.Principal, id uint, in PostingInput, partial bool) (*model.JobPosting, error) {
	posting, err := s.loadForModify(ctx, s.db, p, id)
	if err != nil {
		return nil, apperrors.MapDBError(err)
	}

	in.mergeInto(posting)
	if err := s.validate(ctx, in, posting, partial); err != nil {
		return nil, err
	}

	defer s.metrics.TrackDBOperation("update")()
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Save(posting).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}

	s.metrics.PostingOperation("update")
	loggerFor(ctx, s.log).Info("Job posting updated",
		zap.Uint("job_id", posting.ID), zap.Uint("user_id", p.ID), zap.Bool("is_active", posting.IsActive))
	return s.Get(ctx, posting.ID)
}

// Delete removes a posting together with its applications and saved-job rows.
// Owner or admin only.
func (s *PostingService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	defer s.metrics.TrackDBOperation("delete")()
	var removed int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		posting, err := s.loadForModify(ctx, tx, p, id)
		if err != nil {
			return err
		}
		res := tx.Where("job_id = ?", posting.ID).Delete(&model.JobApplication{})
		if res.Error != nil {
			return res.Error
		}
		removed = res.RowsAffected
		if err := tx.Where("job_id = ?", posting.ID).Delete(&model.SavedJob{}).Error; err != nil {
			return err
		}
		return tx.Delete(posting).Error
	})
	if err != nil {
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			loggerFor(ctx, s.log).Error("Failed to delete posting", zap.Uint("job_id", id), zap.Error(err))
		}
		return apperrors.MapDBError(err)
	}

	s.metrics.PostingOperation("delete")
	loggerFor(ctx, s.log).Info("Job posting deleted",
		zap.Uint("job_id", id), zap.Uint("user_id", p.ID), zap.Int64("applications_removed", removed))
	return nil
}
