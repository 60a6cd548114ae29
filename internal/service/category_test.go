package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"github.com/suteetoe/jobboard/internal/testutil"
)

func TestCategory_AdminOnlyMutations(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(db, nopLogger, nil)
	ctx := context.Background()
	admin := principal(testutil.CreateUser(t, db, model.RoleAdmin))
	employer := principal(testutil.CreateUser(t, db, model.RoleEmployer))
	seeker := principal(testutil.CreateUser(t, db, model.RoleJobSeeker))

	created, err := svc.Create(ctx, admin, CategoryInput{Name: Some("Engineering"), Description: Some("Build")})
	require.NoError(t, err)
	assert.Equal(t, "Engineering", created.Name)

	for _, p := range []policy.Principal{employer, seeker} {
		_, err := svc.Create(ctx, p, CategoryInput{Name: Some("Sales")})
		assert.True(t, apperrors.IsForbidden(err))
		_, err = svc.Update(ctx, p, created.ID, CategoryInput{Name: Some("X")}, true)
		assert.True(t, apperrors.IsForbidden(err))
		assert.True(t, apperrors.IsForbidden(svc.Delete(ctx, p, created.ID)))
	}

	_, err = svc.Create(ctx, policy.Anonymous, CategoryInput{Name: Some("Sales")})
	assert.True(t, apperrors.IsUnauthorized(err))

	// Permission is checked before existence.
	assert.True(t, apperrors.IsForbidden(svc.Delete(ctx, seeker, 9999)))
	assert.True(t, apperrors.IsNotFound(svc.Delete(ctx, admin, 9999)))
}

func TestCategory_Validation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(db, nopLogger, nil)
	ctx := context.Background()
	admin := principal(testutil.CreateUser(t, db, model.RoleAdmin))

	_, err := svc.Create(ctx, admin, CategoryInput{})
	assert.Equal(t, []string{msgRequired}, fieldMessages(t, err)["name"])

	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some("   ")})
	assert.Equal(t, []string{msgBlank}, fieldMessages(t, err)["name"])

	long := make([]byte, 101)
	for i := range long {
		long[i] = 'a'
	}
	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some(string(long))})
	assert.Contains(t, fieldMessages(t, err), "name")

	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some("Design")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some("Design")})
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "name", apperrors.GetField(err))

	// Names are case-sensitive as stored.
	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some("design")})
	require.NoError(t, err)

	_, err = svc.Create(ctx, admin, CategoryInput{Name: Optional[string]{Set: true, Null: true}})
	assert.Equal(t, []string{msgNull}, fieldMessages(t, err)["name"])
	_, err = svc.Create(ctx, admin, CategoryInput{Name: Some("Ops"), Description: Optional[string]{Set: true, Null: true}})
	assert.Equal(t, []string{msgNull}, fieldMessages(t, err)["description"])
}

func TestCategory_UpdatePartialAndFull(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(db, nopLogger, nil)
	ctx := context.Background()
	admin := principal(testutil.CreateUser(t, db, model.RoleAdmin))
	c := testutil.CreateCategory(t, db, "Ops")

	updated, err := svc.Update(ctx, admin, c.ID, CategoryInput{Description: Some("Keep it running")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Ops", updated.Name)
	assert.Equal(t, "Keep it running", updated.Description)

	_, err = svc.Update(ctx, admin, c.ID, CategoryInput{Description: Some("x")}, false)
	assert.Contains(t, fieldMessages(t, err), "name")
}

func TestCategory_JobCountCountsActivePostings(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(db, nopLogger, nil)
	employer := testutil.CreateUser(t, db, model.RoleEmployer)
	c := testutil.CreateCategory(t, db, "Data")
	testutil.CreatePosting(t, db, employer, testutil.WithCategory(c))
	testutil.CreatePosting(t, db, employer, testutil.WithCategory(c))
	testutil.CreatePosting(t, db, employer, testutil.WithCategory(c), testutil.Inactive())

	got, err := svc.Get(context.Background(), c.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), got.JobCount)

	page, err := svc.List(context.Background(), PageRequest{})
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(2), page.Results[0].JobCount)
}

func TestCategory_DeleteNullsPostings(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewCategoryService(db, nopLogger, nil)
	admin := principal(testutil.CreateUser(t, db, model.RoleAdmin))
	employer := testutil.CreateUser(t, db, model.RoleEmployer)
	c := testutil.CreateCategory(t, db, "Finance")
	p1 := testutil.CreatePosting(t, db, employer, testutil.WithCategory(c))
	p2 := testutil.CreatePosting(t, db, employer, testutil.WithCategory(c))

	require.NoError(t, svc.Delete(context.Background(), admin, c.ID))

	for _, id := range []uint{p1.ID, p2.ID} {
		var p model.JobPosting
		require.NoError(t, db.First(&p, id).Error)
		assert.Nil(t, p.CategoryID)
	}
	_, err := svc.Get(context.Background(), c.ID)
	assert.True(t, apperrors.IsNotFound(err))
}
