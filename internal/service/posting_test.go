package service

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/policy"
	"github.com/suteetoe/jobboard/internal/testutil"
)

func f64(v float64) *float64 { return &v }

func validPosting() PostingInput {
	return PostingInput{
		Title:       Some("Backend Engineer"),
		Description: Some("Write Go"),
		Location:    Some("Bangkok"),
		JobType:     Some(model.JobTypeFullTime),
	}
}

func TestPosting_Create(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, newMetrics())
	ctx := context.Background()
	employer := testutil.CreateUser(t, db, model.RoleEmployer)
	admin := testutil.CreateUser(t, db, model.RoleAdmin)
	seeker := testutil.CreateUser(t, db, model.RoleJobSeeker)

	created, err := svc.Create(ctx, principal(employer), validPosting())
	require.NoError(t, err)
	assert.Equal(t, employer.ID, created.CompanyID)
	assert.True(t, created.IsActive)
	require.NotNil(t, created.Company)
	assert.Equal(t, employer.Email, created.Company.Email)

	byAdmin, err := svc.Create(ctx, principal(admin), validPosting())
	require.NoError(t, err)
	assert.Equal(t, admin.ID, byAdmin.CompanyID)

	_, err = svc.Create(ctx, principal(seeker), validPosting())
	assert.True(t, apperrors.IsForbidden(err))

	_, err = svc.Create(ctx, policy.Anonymous, validPosting())
	assert.True(t, apperrors.IsUnauthorized(err))
}

func TestPosting_CreateInactive(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	employer := testutil.CreateUser(t, db, model.RoleEmployer)

	in := validPosting()
	in.IsActive = Some(false)
	created, err := svc.Create(context.Background(), principal(employer), in)
	require.NoError(t, err)
	assert.False(t, created.IsActive)
}

func TestPosting_SalaryInvariant(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	ctx := context.Background()
	employer := principal(testutil.CreateUser(t, db, model.RoleEmployer))

	in := validPosting()
	in.SalaryMin, in.SalaryMax = Some(f64(90000)), Some(f64(50000))
	_, err := svc.Create(ctx, employer, in)
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, "salary_max", apperrors.GetField(err))

	in.SalaryMin, in.SalaryMax = Some(f64(50000)), Some(f64(80000))
	created, err := svc.Create(ctx, employer, in)
	require.NoError(t, err)

	// The check runs on the merged values of a partial update.
	_, err = svc.Update(ctx, employer, created.ID, PostingInput{SalaryMin: Some(f64(95000))}, true)
	assert.True(t, apperrors.IsValidation(err))

	updated, err := svc.Update(ctx, employer, created.ID, PostingInput{SalaryMax: Some[*float64](nil), SalaryMin: Some(f64(95000))}, true)
	require.NoError(t, err)
	assert.Nil(t, updated.SalaryMax)
}

func TestPosting_CreateValidation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	employer := principal(testutil.CreateUser(t, db, model.RoleEmployer))

	missing := uint(404)
	_, err := svc.Create(context.Background(), employer, PostingInput{
		JobType:    Some(model.JobType("gig")),
		CategoryID: Some(&missing),
	})
	fields := fieldMessages(t, err)
	for _, f := range []string{"title", "description", "location", "job_type", "category"} {
		assert.Contains(t, fields, f)
	}
	assert.Equal(t, []string{`Invalid pk "404" - object does not exist.`}, fields["category"])
}

func TestPosting_OwnershipIsolation(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	other := principal(testutil.CreateUser(t, db, model.RoleEmployer))
	admin := principal(testutil.CreateUser(t, db, model.RoleAdmin))
	posting := testutil.CreatePosting(t, db, owner)

	_, err := svc.Update(ctx, other, posting.ID, PostingInput{Title: Some("Hijacked")}, true)
	assert.True(t, apperrors.IsForbidden(err))
	assert.True(t, apperrors.IsForbidden(svc.Delete(ctx, other, posting.ID)))

	_, err = svc.Update(ctx, other, 9999, PostingInput{}, true)
	assert.True(t, apperrors.IsNotFound(err))

	_, err = svc.Update(ctx, policy.Anonymous, posting.ID, PostingInput{}, true)
	assert.True(t, apperrors.IsUnauthorized(err))

	updated, err := svc.Update(ctx, admin, posting.ID, PostingInput{Title: Some("Edited by admin")}, true)
	require.NoError(t, err)
	assert.Equal(t, "Edited by admin", updated.Title)
	assert.Equal(t, owner.ID, updated.CompanyID, "admin edits never transfer ownership")

	require.NoError(t, svc.Delete(ctx, admin, posting.ID))
}

func TestPosting_UpdateFullRequiresFields(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	posting := testutil.CreatePosting(t, db, owner)

	_, err := svc.Update(context.Background(), principal(owner), posting.ID, PostingInput{Title: Some("Only title")}, false)
	fields := fieldMessages(t, err)
	assert.Contains(t, fields, "description")
	assert.Contains(t, fields, "location")
}

func TestPosting_DeleteCascades(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	seeker := testutil.CreateUser(t, db, model.RoleJobSeeker)
	posting := testutil.CreatePosting(t, db, owner)
	keep := testutil.CreatePosting(t, db, owner)
	testutil.CreateApplication(t, db, posting, seeker)
	testutil.CreateApplication(t, db, keep, seeker)
	require.NoError(t, db.Create(&model.SavedJob{UserID: seeker.ID, JobID: posting.ID}).Error)

	require.NoError(t, svc.Delete(context.Background(), principal(owner), posting.ID))

	var n int64
	require.NoError(t, db.Model(&model.JobApplication{}).Where("job_id = ?", posting.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.SavedJob{}).Where("job_id = ?", posting.ID).Count(&n).Error)
	assert.Zero(t, n)
	require.NoError(t, db.Model(&model.JobApplication{}).Count(&n).Error)
	assert.Equal(t, int64(1), n)
}

func TestPosting_GetIncludesInactiveAndCount(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	posting := testutil.CreatePosting(t, db, owner, testutil.Inactive())
	testutil.CreateApplication(t, db, posting, testutil.CreateUser(t, db, model.RoleJobSeeker))
	testutil.CreateApplication(t, db, posting, testutil.CreateUser(t, db, model.RoleJobSeeker))

	got, err := svc.Get(context.Background(), posting.ID)
	require.NoError(t, err)
	assert.False(t, got.IsActive)
	assert.Equal(t, int64(2), got.ApplicationCount)

	_, err = svc.Get(context.Background(), 9999)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestPosting_ListFilters(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	eng := testutil.CreateCategory(t, db, "Engineering")
	mkt := testutil.CreateCategory(t, db, "Marketing")

	goDev := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Go Developer"), testutil.WithCategory(eng),
		testutil.WithLocation("Bangkok"), testutil.WithSalary(50000, 80000))
	remote := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Writer"), testutil.WithCategory(mkt),
		testutil.WithLocation("Remote, golang shop"), testutil.WithJobType(model.JobTypeRemote), testutil.WithSalary(20000, 30000))
	inactive := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Old Go role"), testutil.Inactive())

	ids := func(f PostingFilter) []uint {
		t.Helper()
		page, err := svc.List(ctx, f, PageRequest{PageSize: 50})
		require.NoError(t, err)
		out := []uint{}
		for _, p := range page.Results {
			out = append(out, p.ID)
		}
		return out
	}
	yes, no := true, false

	assert.ElementsMatch(t, []uint{goDev.ID}, ids(PostingFilter{CategoryID: &eng.ID}))
	assert.ElementsMatch(t, []uint{remote.ID}, ids(PostingFilter{CategoryName: "market"}))
	assert.ElementsMatch(t, []uint{remote.ID}, ids(PostingFilter{JobType: "remote"}))
	assert.ElementsMatch(t, []uint{goDev.ID}, ids(PostingFilter{Location: "bangKOK"}))
	assert.ElementsMatch(t, []uint{goDev.ID}, ids(PostingFilter{SalaryMin: f64(40000)}))
	assert.ElementsMatch(t, []uint{remote.ID}, ids(PostingFilter{SalaryMax: f64(30000)}))
	assert.ElementsMatch(t, []uint{inactive.ID}, ids(PostingFilter{IsActive: &no}))
	assert.ElementsMatch(t, []uint{goDev.ID, remote.ID}, ids(PostingFilter{IsActive: &yes}))

	// Search matches title OR description OR location.
	assert.ElementsMatch(t, []uint{goDev.ID, remote.ID, inactive.ID}, ids(PostingFilter{Search: "go"}))
	assert.ElementsMatch(t, []uint{remote.ID}, ids(PostingFilter{Search: "GOLANG"}))
	assert.Empty(t, ids(PostingFilter{Search: "100%"}))
}

func TestPosting_ListOrdering(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	a := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Alpha"), testutil.WithSalary(30000, 40000))
	b := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Bravo"), testutil.WithSalary(10000, 20000))
	c := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Charlie"), testutil.WithSalary(20000, 30000))
	require.NoError(t, db.Model(a).Update("created_at", time.Now().Add(-time.Hour)).Error)

	order := func(ordering string) []uint {
		page, err := svc.List(context.Background(), PostingFilter{Ordering: ordering}, PageRequest{})
		require.NoError(t, err)
		out := []uint{}
		for _, p := range page.Results {
			out = append(out, p.ID)
		}
		return out
	}

	assert.Equal(t, []uint{b.ID, c.ID, a.ID}, order("salary_min"))
	assert.Equal(t, []uint{a.ID, c.ID, b.ID}, order("-salary_min"))
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, order("title"))
	assert.Equal(t, a.ID, order("")[2], "default is newest first")
	assert.Equal(t, order(""), order("bogus"))
}

func TestOrderClause(t *testing.T) {
	assert.Equal(t, "job_postings.created_at DESC, job_postings.id DESC", OrderClause(""))
	assert.Equal(t, "job_postings.title ASC, job_postings.id DESC", OrderClause("title"))
	assert.Equal(t, "job_postings.salary_max DESC, job_postings.id DESC", OrderClause("-salary_max"))
	assert.Equal(t, "job_postings.created_at DESC, job_postings.id DESC", OrderClause("password"))
	assert.Equal(t, "job_postings.salary_min DESC, job_postings.title ASC, job_postings.id DESC",
		OrderClause("-salary_min, title"))
	assert.Equal(t, "job_postings.title ASC, job_postings.id DESC", OrderClause("password,title,-title"))
}

func TestPosting_ListMultiKeyOrdering(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	b := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Bravo"), testutil.WithSalary(50000, 60000))
	a := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Alpha"), testutil.WithSalary(50000, 60000))
	c := testutil.CreatePosting(t, db, owner, testutil.WithTitle("Charlie"), testutil.WithSalary(10000, 20000))

	page, err := svc.List(context.Background(), PostingFilter{Ordering: "-salary_min,title"}, PageRequest{})
	require.NoError(t, err)
	ids := []uint{}
	for _, p := range page.Results {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uint{a.ID, b.ID, c.ID}, ids)
}

func TestPosting_UpdateRejectsNull(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	ctx := context.Background()
	owner := testutil.CreateUser(t, db, model.RoleEmployer)
	posting := testutil.CreatePosting(t, db, owner)

	var in PostingInput
	require.NoError(t, json.Unmarshal([]byte(`{"is_active": null, "requirements": null, "job_type": null}`), &in))
	_, err := svc.Update(ctx, principal(owner), posting.ID, in, true)
	require.True(t, apperrors.IsValidation(err))
	fields := fieldMessages(t, err)
	for _, f := range []string{"is_active", "requirements", "job_type"} {
		assert.Equal(t, []string{"This field may not be null."}, fields[f], f)
	}

	stored, err := svc.Get(ctx, posting.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsActive)

	// Nullable fields still accept null.
	in = PostingInput{}
	require.NoError(t, json.Unmarshal([]byte(`{"category": null, "salary_min": null, "salary_max": null}`), &in))
	updated, err := svc.Update(ctx, principal(owner), posting.ID, in, true)
	require.NoError(t, err)
	assert.Nil(t, updated.CategoryID)
	assert.True(t, updated.IsActive)
}

func TestPosting_SalaryDecimalPlaces(t *testing.T) {
	db := testutil.NewDB(t)
	svc := NewPostingService(db, nopLogger, nil)
	employer := principal(testutil.CreateUser(t, db, model.RoleEmployer))

	in := validPosting()
	in.SalaryMin = Some(f64(50000.125))
	_, err := svc.Create(context.Background(), employer, in)
	require.True(t, apperrors.IsValidation(err))
	assert.Equal(t, []string{"Ensure that there are no more than 2 decimal places."}, fieldMessages(t, err)["salary_min"])

	in.SalaryMin = Some(f64(50000.25))
	created, err := svc.Create(context.Background(), employer, in)
	require.NoError(t, err)
	assert.Equal(t, 50000.25, *created.SalaryMin)
}

func TestDecimalPlaces(t *testing.T) {
	assert.Equal(t, 0, decimalPlaces(50000))
	assert.Equal(t, 1, decimalPlaces(1.1))
	assert.Equal(t, 2, decimalPlaces(0.07))
	assert.Equal(t, 3, decimalPlaces(12.345))
}
