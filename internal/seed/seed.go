// Package seed loads demo categories and postings into the store.
package seed

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/viper"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

//go:embed fixtures.yaml
var defaultFixtures []byte

type Employer struct {
	Email       string `mapstructure:"email"`
	Password    string `mapstructure:"password"`
	FirstName   string `mapstructure:"first_name"`
	LastName    string `mapstructure:"last_name"`
	CompanyName string `mapstructure:"company_name"`
}

type Category struct {
	Name        string `mapstructure:"name"`
	Description string `mapstructure:"description"`
}

type Posting struct {
	Title        string   `mapstructure:"title"`
	Category     string   `mapstructure:"category"`
	Location     string   `mapstructure:"location"`
	JobType      string   `mapstructure:"job_type"`
	SalaryMin    *float64 `mapstructure:"salary_min"`
	SalaryMax    *float64 `mapstructure:"salary_max"`
	Description  string   `mapstructure:"description"`
	Requirements string   `mapstructure:"requirements"`
}

// Fixtures is the seed file layout.
type Fixtures struct {
	Employer   Employer   `mapstructure:"employer"`
	Categories []Category `mapstructure:"categories"`
	Postings   []Posting  `mapstructure:"postings"`
}

// Load parses YAML fixtures.
func Load(r io.Reader) (*Fixtures, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(r); err != nil {
		return nil, fmt.Errorf("failed to read fixtures: %w", err)
	}

	var f Fixtures
	if err := v.Unmarshal(&f); err != nil {
		return nil, fmt.Errorf("failed to decode fixtures: %w", err)
	}
	if f.Employer.Email == "" {
		return nil, errors.New("fixtures: employer.email is required")
	}
	return &f, nil
}

// Default returns the embedded demo fixtures.
func Default() (*Fixtures, error) {
	return Load(bytes.NewReader(defaultFixtures))
}

// Result counts the rows a run created.
type Result struct {
	EmployerCreated bool
	Categories      int
	Postings        int
}

// Seeder writes fixtures. Running it twice creates nothing new: categories
// match by name and postings by title within the demo employer.
type Seeder struct {
	db       *gorm.DB
	accounts *service.AccountService
	log      *zap.Logger
}

func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{
		db:       db,
		accounts: service.NewAccountService(db, nil, log, nil),
		log:      log,
	}
}

// Run applies the fixtures.
func (s *Seeder) Run(ctx context.Context, f *Fixtures) (*Result, error) {
	res := &Result{}

	employer, err := s.ensureEmployer(ctx, f.Employer, res)
	if err != nil {
		return nil, err
	}

	byName := make(map[string]uint, len(f.Categories))
	for _, c := range f.Categories {
		cat := model.Category{Name: c.Name, Description: c.Description}
		created, err := s.createMissing(ctx, &cat, s.db.Where("name = ?", c.Name))
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", c.Name, err)
		}
		if created {
			res.Categories++
		}
		byName[c.Name] = cat.ID
	}

	for _, p := range f.Postings {
		jobType := model.JobType(p.JobType)
		if jobType == "" {
			jobType = model.JobTypeFullTime
		}
		if !jobType.Valid() {
			return nil, fmt.Errorf("posting %q: unknown job type %q", p.Title, p.JobType)
		}

		posting := model.JobPosting{
			Title:        p.Title,
			Description:  p.Description,
			CompanyID:    employer.ID,
			Location:     p.Location,
			JobType:      jobType,
			SalaryMin:    p.SalaryMin,
			SalaryMax:    p.SalaryMax,
			Requirements: p.Requirements,
			IsActive:     true,
		}
		if p.Category != "" {
			id, ok := byName[p.Category]
			if !ok {
				return nil, fmt.Errorf("posting %q: unknown category %q", p.Title, p.Category)
			}
			posting.CategoryID = &id
		}
		if !posting.SalaryRangeValid() {
			return nil, fmt.Errorf("posting %q: salary_min exceeds salary_max", p.Title)
		}

		created, err := s.createMissing(ctx, &posting,
			s.db.Where("title = ? AND company_id = ?", p.Title, employer.ID))
		if err != nil {
			return nil, fmt.Errorf("posting %q: %w", p.Title, err)
		}
		if created {
			res.Postings++
		}
	}

	s.log.Info("Seed completed",
		zap.Bool("employer_created", res.EmployerCreated),
		zap.Int("categories_created", res.Categories),
		zap.Int("postings_created", res.Postings))
	return res, nil
}

// createMissing inserts row unless match finds one, in which case row is
// overwritten with the stored values.
func (s *Seeder) createMissing(ctx context.Context, row interface{}, match *gorm.DB) (bool, error) {
	err := match.WithContext(ctx).Take(row).Error
	if err == nil {
		return false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}
	if err := s.db.WithContext(ctx).Omit(clause.Associations).Create(row).Error; err != nil {
		return false, err
	}
	return true, nil
}

func (s *Seeder) ensureEmployer(ctx context.Context, e Employer, res *Result) (*model.User, error) {
	var existing model.User
	err := s.db.WithContext(ctx).Where("email = ?", model.NormalizeEmail(e.Email)).First(&existing).Error
	if err == nil {
		return &existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	user, err := s.accounts.Register(ctx, service.RegisterInput{
		Email:           e.Email,
		Password:        e.Password,
		PasswordConfirm: e.Password,
		FirstName:       e.FirstName,
		LastName:        e.LastName,
		Role:            model.RoleEmployer,
		CompanyName:     e.CompanyName,
	})
	if err != nil {
		return nil, fmt.Errorf("demo employer: %w", err)
	}
	res.EmployerCreated = true
	return user, nil
}
