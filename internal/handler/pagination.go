package handler

import (
	"net/url"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/suteetoe/jobboard/internal/service"
	"github.com/suteetoe/jobboard/pkg/config"
)

// PageEnvelope is the list response shape.
type PageEnvelope struct {
	Count    int64       `json:"count"`
	Next     *string     `json:"next"`
	Previous *string     `json:"previous"`
	Results  interface{} `json:"results"`
}

// pageRequest reads page and page_size. A malformed page is an invalid page;
// a malformed page_size falls back to the default and is capped at the maximum.
func pageRequest(c echo.Context, cfg config.PaginationConfig) (service.PageRequest, error) {
	req := service.PageRequest{Page: 1, PageSize: cfg.PageSize}

	if raw := c.QueryParam("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil || page < 1 {
			return req, service.ErrInvalidPage
		}
		req.Page = page
	}
	if raw := c.QueryParam("page_size"); raw != "" {
		if size, err := strconv.Atoi(raw); err == nil && size > 0 {
			req.PageSize = size
		}
	}
	if req.PageSize > cfg.MaxPageSize {
		req.PageSize = cfg.MaxPageSize
	}
	return req, nil
}

func pageURL(c echo.Context, page int) *string {
	req := c.Request()
	u := url.URL{Scheme: c.Scheme(), Host: req.Host, Path: req.URL.Path}
	q := req.URL.Query()
	if page <= 1 {
		q.Del("page")
	} else {
		q.Set("page", strconv.Itoa(page))
	}
	u.RawQuery = q.Encode()
	s := u.String()
	return &s
}

// envelope wraps a page of results, converting each item with view.
func envelope[T any, V any](c echo.Context, page *service.Page[T], view func(*T) V) PageEnvelope {
	results := make([]V, 0, len(page.Results))
	for i := range page.Results {
		results = append(results, view(&page.Results[i]))
	}
	env := PageEnvelope{Count: page.Count, Results: results}
	if page.HasNext() {
		env.Next = pageURL(c, page.Page+1)
	}
	if page.HasPrevious() {
		env.Previous = pageURL(c, page.Page-1)
	}
	return env
}
