package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/jobboard/internal/middleware"
	"github.com/suteetoe/jobboard/internal/model"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/config"
)

// ApplicationHandler serves the application workflow.
type ApplicationHandler struct {
	applications *service.ApplicationService
	pages        config.PaginationConfig
}

func NewApplicationHandler(applications *service.ApplicationService, pages config.PaginationConfig) *ApplicationHandler {
	return &ApplicationHandler{applications: applications, pages: pages}
}

// Apply submits an application for the caller.
func (h *ApplicationHandler) Apply(c echo.Context) error {
	var req service.SubmitInput
	if err := bind(c, &req); err != nil {
		return err
	}

	app, err := h.applications.Submit(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}

	title := ""
	if app.Job != nil {
		title = app.Job.Title
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "Application submitted successfully.",
		"application": echo.Map{
			"id":     app.ID,
			"job":    title,
			"status": app.Status,
		},
	})
}

// Mine lists the caller's applications.
func (h *ApplicationHandler) Mine(c echo.Context) error {
	req, err := pageRequest(c, h.pages)
	if err != nil {
		return err
	}
	page, err := h.applications.ListMine(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(c, page, application))
}

// ForJob lists applications on one posting. Employers only see their own postings' applications.
func (h *ApplicationHandler) ForJob(c echo.Context) error {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		return err
	}
	req, err := pageRequest(c, h.pages)
	if err != nil {
		return err
	}
	page, err := h.applications.ListForJob(c.Request().Context(), middleware.PrincipalFrom(c), jobID, req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(c, page, application))
}

// UpdateStatus serves PUT and PATCH on an application's status.
func (h *ApplicationHandler) UpdateStatus(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req struct {
		Status model.ApplicationStatus `json:"status"`
	}
	if err := bind(c, &req); err != nil {
		return err
	}

	partial := c.Request().Method == http.MethodPatch
	app, err := h.applications.UpdateStatus(c.Request().Context(), middleware.PrincipalFrom(c), id, req.Status, partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, applicationStatusView{
		ID:        app.ID,
		Status:    app.Status,
		UpdatedAt: app.UpdatedAt,
	})
}
