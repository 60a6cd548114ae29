package seed

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/testutil"
	"go.uber.org/zap"
)

func TestDefaultFixtures(t *testing.T) {
	f, err := Default()
	require.NoError(t, err)
	assert.Equal(t, "demo.employer@jobboard.com", f.Employer.Email)
	assert.Len(t, f.Categories, 4)
	require.NotEmpty(t, f.Postings)
	assert.Equal(t, "Software Engineering", f.Postings[0].Category)
	require.NotNil(t, f.Postings[0].SalaryMin)
	assert.Equal(t, 90000.0, *f.Postings[0].SalaryMin)
}

func TestLoadRequiresEmployer(t *testing.T) {
	_, err := Load(strings.NewReader("categories:\n  - name: Data\n"))
	assert.Error(t, err)
}

func TestSeederIsIdempotent(t *testing.T) {
	db := testutil.NewDB(t)
	f, err := Default()
	require.NoError(t, err)
	s := NewSeeder(db, zap.NewNop())
	ctx := context.Background()

	first, err := s.Run(ctx, f)
	require.NoError(t, err)
	assert.True(t, first.EmployerCreated)
	assert.Equal(t, len(f.Categories), first.Categories)
	assert.Equal(t, len(f.Postings), first.Postings)

	second, err := s.Run(ctx, f)
	require.NoError(t, err)
	assert.False(t, second.EmployerCreated)
	assert.Zero(t, second.Categories)
	assert.Zero(t, second.Postings)

	var employer model.User
	require.NoError(t, db.Where("email = ?", f.Employer.Email).First(&employer).Error)
	assert.Equal(t, model.RoleEmployer, employer.Role)

	var active int64
	require.NoError(t, db.Model(&model.JobPosting{}).Where("company_id = ? AND is_active = ?", employer.ID, true).Count(&active).Error)
	assert.Equal(t, int64(len(f.Postings)), active)
}

func TestSeederRejectsUnknownCategory(t *testing.T) {
	db := testutil.NewDB(t)
	f := &Fixtures{
		Employer: Employer{Email: "e@example.com", Password: "password123"},
		Postings: []Posting{{Title: "X", Category: "Nope", Description: "d", Location: "l"}},
	}
	_, err := NewSeeder(db, zap.NewNop()).Run(context.Background(), f)
	assert.ErrorContains(t, err, "unknown category")
}
