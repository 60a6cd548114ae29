// Package service implements the job board's operations: accounts,
// categories, the posting lifecycle, the application workflow and saved jobs.
// Every operation takes the calling principal explicitly.
package service

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"

	apperrors "github.com/suteetoe/jobboard/internal/errors"
	"github.com/suteetoe/jobboard/pkg/logger"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Field messages shared by validators.
const (
	msgRequired = "This field is required."
	msgBlank    = "This field may not be blank."
	msgNull     = "This field may not be null."
)

// ErrInvalidPage is returned when a page past the end is requested.
var ErrInvalidPage = apperrors.NotFound("Invalid page.")

// DefaultPageSize applies when a PageRequest leaves the size unset.
const DefaultPageSize = 10

// PageRequest selects one page of a list, 1-based.
type PageRequest struct {
	Page     int
	PageSize int
}

func (r PageRequest) normalized() PageRequest {
	if r.Page < 1 {
		r.Page = 1
	}
	if r.PageSize <= 0 {
		r.PageSize = DefaultPageSize
	}
	return r
}

// Page is one page of results plus the total count.
type Page[T any] struct {
	Count    int64
	Page     int
	PageSize int
	Results  []T
}

func (p *Page[T]) HasNext() bool {
	return int64(p.Page*p.PageSize) < p.Count
}

func (p *Page[T]) HasPrevious() bool {
	return p.Page > 1
}

// paginate counts base() and then loads the requested page through find(base()).
// base must carry only Model and filters; find adds selects, preloads and ordering.
func paginate[T any](base func() *gorm.DB, find func(*gorm.DB) *gorm.DB, req PageRequest) (*Page[T], error) {
	req = req.normalized()

	var count int64
	if err := base().Count(&count).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}
	if req.Page > 1 && int64((req.Page-1)*req.PageSize) >= count {
		return nil, ErrInvalidPage
	}

	results := make([]T, 0, req.PageSize)
	q := find(base()).Offset((req.Page - 1) * req.PageSize).Limit(req.PageSize)
	if err := q.Find(&results).Error; err != nil {
		return nil, apperrors.MapDBError(err)
	}

	return &Page[T]{Count: count, Page: req.Page, PageSize: req.PageSize, Results: results}, nil
}

// Optional distinguishes an absent input field from a zero value and from
// an explicit null. Decoding accepts a quoted value where a number or bool is expected.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

// Some returns a set Optional.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	o.Null = bytes.Equal(bytes.TrimSpace(b), []byte("null"))
	err := json.Unmarshal(b, &o.Value)
	if err == nil {
		return nil
	}
	if len(b) >= 2 && b[0] == '"' && b[len(b)-1] == '"' {
		inner := bytes.TrimSpace(b[1 : len(b)-1])
		if len(inner) > 0 && json.Unmarshal(inner, &o.Value) == nil {
			return nil
		}
	}
	return err
}

// Or returns the value when set and def otherwise.
func (o Optional[T]) Or(def T) T {
	if o.Set {
		return o.Value
	}
	return def
}

// fieldErrors collects per-field validation messages.
type fieldErrors map[string][]string

func (f fieldErrors) add(field, msg string) {
	f[field] = append(f[field], msg)
}

func (f fieldErrors) err() error {
	if len(f) == 0 {
		return nil
	}
	return apperrors.ValidationFields(f)
}

// rejectNull records an error when a non-nullable field was sent as null.
// It reports whether the field was null.
func rejectNull[T any](f fieldErrors, field string, v Optional[T]) bool {
	if v.Null {
		f.add(field, msgNull)
	}
	return v.Null
}

// requireText validates a required text field against a max length (0 means unbounded).
func (f fieldErrors) requireText(field string, v Optional[string], partial bool, max int) {
	if !v.Set {
		if !partial {
			f.add(field, msgRequired)
		}
		return
	}
	if rejectNull(f, field, v) {
		return
	}
	if strings.TrimSpace(v.Value) == "" {
		f.add(field, msgBlank)
		return
	}
	f.maxLen(field, v.Value, max)
}

func (f fieldErrors) maxLen(field, v string, max int) {
	if max > 0 && len([]rune(v)) > max {
		f.add(field, maxLenMessage(max))
	}
}

func maxLenMessage(n int) string {
	return "Ensure this field has no more than " + strconv.Itoa(n) + " characters."
}

func minLenMessage(n int) string {
	return "Ensure this field has at least " + strconv.Itoa(n) + " characters."
}

func invalidChoice(v string) string {
	return `"` + v + `" is not a valid choice.`
}

// containsPattern builds an escaped, lower-cased LIKE pattern for substring matching.
func containsPattern(term string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(term)) + "%"
}

// ilike is a portable case-insensitive substring match for a column.
func ilike(column string) string {
	return "LOWER(" + column + `) LIKE ? ESCAPE '\'`
}

func loggerFor(ctx context.Context, fallback *zap.Logger) *zap.Logger {
	if l, ok := logger.Lookup(ctx); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return logger.GetLogger()
}
