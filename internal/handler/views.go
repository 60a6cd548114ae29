package handler

import (
	"strconv"
	"time"

	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/service"
)

type userMinimalView struct {
	ID          uint   `json:"id"`
	Email       string `json:"email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	CompanyName string `json:"company_name"`
}

func userMinimal(u *model.User) *userMinimalView {
	if u == nil {
		return nil
	}
	return &userMinimalView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		CompanyName: u.CompanyName,
	}
}

type profileView struct {
	ID          uint       `json:"id"`
	Email       string     `json:"email"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Role        model.Role `json:"role"`
	CompanyName string     `json:"company_name"`
	Bio         string     `json:"bio"`
	Phone       string     `json:"phone"`
	DateJoined  time.Time  `json:"date_joined"`
}

func profile(u *model.User) profileView {
	return profileView{
		ID:          u.ID,
		Email:       u.Email,
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		Role:        u.Role,
		CompanyName: u.CompanyName,
		Bio:         u.Bio,
		Phone:       u.Phone,
		DateJoined:  u.DateJoined,
	}
}

type categoryView struct {
	ID          uint      `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	JobCount    int64     `json:"job_count"`
	CreatedAt   time.Time `json:"created_at"`
}

func category(c *model.Category) categoryView {
	return categoryView{
		ID:          c.ID,
		Name:        c.Name,
		Description: c.Description,
		JobCount:    c.JobCount,
		CreatedAt:   c.CreatedAt,
	}
}

// decimal renders a salary with two fractional digits, or null.
func decimal(v *float64) *string {
	if v == nil {
		return nil
	}
	s := strconv.FormatFloat(*v, 'f', 2, 64)
	return &s
}

type postingListView struct {
	ID             uint             `json:"id"`
	Title          string           `json:"title"`
	Company        *userMinimalView `json:"company"`
	Category       *uint            `json:"category"`
	CategoryName   *string          `json:"category_name"`
	Location       string           `json:"location"`
	JobType        model.JobType    `json:"job_type"`
	JobTypeDisplay string           `json:"job_type_display"`
	SalaryMin      *string          `json:"salary_min"`
	SalaryMax      *string          `json:"salary_max"`
	IsActive       bool             `json:"is_active"`
	CreatedAt      time.Time        `json:"created_at"`
}

func postingList(p *model.JobPosting) postingListView {
	v := postingListView{
		ID:             p.ID,
		Title:          p.Title,
		Company:        userMinimal(p.Company),
		Category:       p.CategoryID,
		Location:       p.Location,
		JobType:        p.JobType,
		JobTypeDisplay: p.JobType.Display(),
		SalaryMin:      decimal(p.SalaryMin),
		SalaryMax:      decimal(p.SalaryMax),
		IsActive:       p.IsActive,
		CreatedAt:      p.CreatedAt,
	}
	if p.Category != nil {
		v.CategoryName = &p.Category.Name
	}
	return v
}

type postingDetailView struct {
	postingListView
	Description      string    `json:"description"`
	Requirements     string    `json:"requirements"`
	ApplicationCount int64     `json:"application_count"`
	UpdatedAt        time.Time `json:"updated_at"`
}

func postingDetail(p *model.JobPosting) postingDetailView {
	return postingDetailView{
		postingListView:  postingList(p),
		Description:      p.Description,
		Requirements:     p.Requirements,
		ApplicationCount: p.ApplicationCount,
		UpdatedAt:        p.UpdatedAt,
	}
}

type applicationView struct {
	ID          uint                    `json:"id"`
	Job         *postingListView        `json:"job"`
	Applicant   *userMinimalView        `json:"applicant"`
	CoverLetter string                  `json:"cover_letter"`
	Status      model.ApplicationStatus `json:"status"`
	AppliedAt   time.Time               `json:"applied_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

func application(a *model.JobApplication) applicationView {
	v := applicationView{
		ID:          a.ID,
		Applicant:   userMinimal(a.Applicant),
		CoverLetter: a.CoverLetter,
		Status:      a.Status,
		AppliedAt:   a.AppliedAt,
		UpdatedAt:   a.UpdatedAt,
	}
	if a.Job != nil {
		job := postingList(a.Job)
		v.Job = &job
	}
	return v
}

type applicationStatusView struct {
	ID        uint                    `json:"id"`
	Status    model.ApplicationStatus `json:"status"`
	UpdatedAt time.Time               `json:"updated_at"`
}

type savedJobView struct {
	ID      uint             `json:"id"`
	Job     *postingListView `json:"job"`
	SavedAt time.Time        `json:"saved_at"`
}

func savedJob(s *model.SavedJob) savedJobView {
	v := savedJobView{ID: s.ID, SavedAt: s.CreatedAt}
	if s.Job != nil {
		job := postingList(s.Job)
		v.Job = &job
	}
	return v
}

type topJobView struct {
	ID               uint   `json:"id"`
	Title            string `json:"title"`
	IsActive         bool   `json:"is_active"`
	ApplicationCount int64  `json:"application_count"`
}

type statsView struct {
	TotalJobs         int64        `json:"total_jobs"`
	ActiveJobs        int64        `json:"active_jobs"`
	TotalApplications int64        `json:"total_applications"`
	TopJobs           []topJobView `json:"top_jobs"`
}

func stats(s *service.EmployerStats) statsView {
	v := statsView{
		TotalJobs:         s.TotalJobs,
		ActiveJobs:        s.ActiveJobs,
		TotalApplications: s.TotalApplications,
		TopJobs:           make([]topJobView, 0, len(s.TopJobs)),
	}
	for _, j := range s.TopJobs {
		v.TopJobs = append(v.TopJobs, topJobView{
			ID:               j.ID,
			Title:            j.Title,
			IsActive:         j.IsActive,
			ApplicationCount: j.ApplicationCount,
		})
	}
	return v
}
