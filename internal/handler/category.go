package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/jobboard/internal/middleware"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/config"
)

// CategoryHandler serves the category catalog.
type CategoryHandler struct {
	categories *service.CategoryService
	pages      config.PaginationConfig
}

func NewCategoryHandler(categories *service.CategoryService, pages config.PaginationConfig) *CategoryHandler {
	return &CategoryHandler{categories: categories, pages: pages}
}

// List returns categories ordered by name.
func (h *CategoryHandler) List(c echo.Context) error {
	req, err := pageRequest(c, h.pages)
	if err != nil {
		return err
	}
	page, err := h.categories.List(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, envelope(c, page, category))
}

// Get returns one category.
func (h *CategoryHandler) Get(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	cat, err := h.categories.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category(cat))
}

// Create adds a category. Admin only.
func (h *CategoryHandler) Create(c echo.Context) error {
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	cat, err := h.categories.Create(c.Request().Context(), middleware.PrincipalFrom(c), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, category(cat))
}

// Update serves PUT and PATCH. Admin only.
func (h *CategoryHandler) Update(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	var req service.CategoryInput
	if err := bind(c, &req); err != nil {
		return err
	}
	partial := c.Request().Method == http.MethodPatch
	cat, err := h.categories.Update(c.Request().Context(), middleware.PrincipalFrom(c), id, req, partial)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, category(cat))
}

// Delete removes a category; its postings keep existing without one. Admin only.
func (h *CategoryHandler) Delete(c echo.Context) error {
	id, err := pathID(c, "id")
	if err != nil {
		return err
	}
	if err := h.categories.Delete(c.Request().Context(), middleware.PrincipalFrom(c), id); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

