package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/internal/middleware"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/config"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
)

// JobHandler serves postings, saved jobs and employer stats.
type JobHandler struct {
	postings *service.PostingService
	saved    *service.SavedJobService
	pages    config.PaginationConfig
}

func NewJobHandler(postings *service.PostingService, saved *service.SavedJobService, pages config.PaginationConfig) *JobHandler {
	return &JobHandler{postings: postings, saved: saved, pages: pages}
}

// postingFilter reads the list filters from the query string.
func postingFilter(c echo.Context) (service.PostingFilter, error) {
	q := c.QueryParams()
	f := service.PostingFilter{
		CategoryName: q.Get("category_name"),
		JobType:      q.Get("job_type"),
		Location:     q.Get("location"),
		Search:       strings.TrimSpace(q.Get("search")),
		Ordering:     q.Get("ordering"),
	}

	fields := map[string][]string{}
	if raw := q.Get("category"); raw != "" {
		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil {
			fields["category"] = []string{"Enter a number."}
		} else {
			v := uint(id)
			f.CategoryID = &v
		}
	}
	for name, dst := range map[string]**float64{"salary_min": &f.SalaryMin, "salary_max": &f.SalaryMax} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			fields[name] = []string{"Enter a number."}
			continue
		}
		*dst = &v
	}
	if raw := q.Get("is_active"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			fields["is_active"] = []string{"Enter a valid boolean."}
		} else {
			f.IsActive = &v
		}
	}
	if len(fields) > 0 {
		return f, apperrors.ValidationFields(fields)
	}
	return f, nil
}

// List returns postings matching the query filters. Public.
func (h *JobHandler) List(c echo.Context) error {
	filter, err := postingFilter(c)
	if err != nil {
		return err
	}
	req, err := pageRequest(c, h.pages)
	if err != nil {
		return err
	}

	page, err := h.postings.List(c.Request().Context(), filter, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(c, page, postingList))
}

// Get returns one posting in detail form. Public.
func (h *JobHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	posting, err := h.postings.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, postingDetail(posting))
}

// Create adds a posting owned by the caller.
func (h *JobHandler) Create(c echo.Context) error {
	var req service.PostingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	posting, err := h.postings.Create(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, postingDetail(posting))
}

// Update serves PUT and PATCH on a posting. Owner or admin.
func (h *JobHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.PostingInput
	if err := bind(c, &req); err != nil {
		return err
	}
	partial := c.Request().Method == http.MethodPatch
	posting, err := h.postings.Update(c.Request().Context(), middleware.PrincipalFrom(c), id, req, partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, postingDetail(posting))
}

// Delete removes a posting and its applications. Owner or admin.
func (h *JobHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.postings.Delete(c.Request().Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ToggleSave saves or unsaves a posting for the caller.
func (h *JobHandler) ToggleSave(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	saved, err := h.saved.Toggle(c.Request().Context(), middleware.PrincipalFrom(c), id)
	if err != nil {
		return err
	}

	logger.FromEcho(c).Debug("Saved job toggled", zap.Uint("job_id", id), zap.Bool("saved", saved))
	if saved {
		return c.JSON(http.StatusCreated, echo.Map{"saved": true, "message": "Job saved."})
	}
	return c.JSON(http.StatusOK, echo.Map{"saved": false, "message": "Job removed from saved list."})
}

// Saved lists the caller's saved postings.
func (h *JobHandler) Saved(c echo.Context) error {
	req, err := pageRequest(c, h.pages)
	if err != nil {
		return err
	}
	page, err := h.saved.List(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(c, page, savedJob))
}

// Stats aggregates the caller's own postings.
func (h *JobHandler) Stats(c echo.Context) error {
	s, err := h.saved.Stats(c.Request().Context(), middleware.PrincipalFrom(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stats(s))
}
