package service

import (
	"context"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/metrics"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const categoryJobCountSelect = "categories.*, (SELECT COUNT(*) FROM job_postings" +
	" WHERE job_postings.category_id = categories.id AND job_postings.is_active = ?) AS job_count"

// CategoryService manages the admin-curated category catalog.
type CategoryService struct {
	db      *gorm.DB
	log     *zap.Logger
	metrics *metrics.Collector
}

func NewCategoryService(db *gorm.DB, log *zap.Logger, m *metrics.Collector) *CategoryService {
	return &CategoryService{db: db, log: log, metrics: m}
}

// CategoryInput is the create/update payload.
type CategoryInput struct {
	Name        Optional[string] `json:"name"`
	Description Optional[string] `json:"description"`
}

func (s *CategoryService) withJobCount(q *gorm.DB) *gorm.DB {
	return q.Select(categoryJobCountSelect, true)
}

// List returns categories ordered by name. Public.
func (s *CategoryService) List(ctx context.Context, req PageRequest) (*Page[model.Category], error) {
	defer s.metrics.TrackDBOperation("query")()
	return paginate[model.Category](
		func() *gorm.DB { return s.db.WithContext(ctx).Model(&model.Category{}) },
		func(q *gorm.DB) *gorm.DB { return s.withJobCount(q).Order("categories.name ASC").Order("categories.id ASC") },
		req,
	)
}

// Get returns one category. Public.
func (s *CategoryService) Get(ctx context.Context, id uint) (*model.Category, error) {
	var c model.Category
	if err := s.withJobCount(s.db.WithContext(ctx).Model(&model.Category{})).First(&c, id).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	return &c, nil
}

func validateCategory(in CategoryInput, partial bool) error {
	fe := fieldErrors{}
	fe.requireText("name", in.Name, partial, 100)
	rejectNull(fe, "description", in.Description)
	return fe.err()
}

func duplicateCategory(err error) error {
	if apperrors.IsConflict(err) {
		return apperrors.ValidationField("name", "job category with this name already exists.")
	}
	return err
}

// Create adds a category. Admin only.
func (s *CategoryService) Create(ctx context.Context, p policy.Principal, in CategoryInput) (*model.Category, error) {
	if err := policy.Require(p, policy.CanManageCategories(p)); err != nil {
		return nil, err
	}
	if err := validateCategory(in, false); err != nil {
		return nil, err
	}

	c := &model.Category{Name: in.Name.Value, Description: in.Description.Value}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, duplicateCategory(apperrors.MapDBError(err))
	}

	loggerFor(ctx, s.log).Info("Category created", zap.Uint("category_id", c.ID), zap.String("name", c.Name))
	return s.Get(ctx, c.ID)
}

// Update changes a category. partial selects PATCH semantics. Admin only.
func (s *CategoryService) Update(ctx context.Context, p policy.Principal, id uint, in CategoryInput, partial bool) (*model.Category, error) {
	if err := policy.Require(p, policy.CanManageCategories(p)); err != nil {
		return nil, err
	}

	var c model.Category
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if err := validateCategory(in, partial); err != nil {
		return nil, err
	}

	c.Name = in.Name.Or(c.Name)
	c.Description = in.Description.Or(c.Description)
	if err := s.db.WithContext(ctx).Model(&c).Select("name", "description").Updates(&c).Error; err != nil {
		return nil, duplicateCategory(apperrors.MapDBError(err))
	}

	loggerFor(ctx, s.log).Info("Category updated", zap.Uint("category_id", c.ID))
	return s.Get(ctx, c.ID)
}

// Delete removes a category. Postings that referenced it keep existing with
// no category. Admin only.
func (s *CategoryService) Delete(ctx context.Context, p policy.Principal, id uint) error {
	if err := policy.Require(p, policy.CanManageCategories(p)); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var c model.Category
		if err := tx.First(&c, id).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.JobPosting{}).Where("category_id = ?", id).
			Update("category_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&c).Error
	})
	if err != nil {
		return apperrors.MapDBError(err)
	}

	loggerFor(ctx, s.log).Info("Category deleted", zap.Uint("category_id", id))
	return nil
}
