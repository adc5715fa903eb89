package services

import (
	"errors"

	"go.opentelemetry.io/otel"
	"gorm.io/gorm"
)

var (
	tracer = otel.Tracer("bakery-storefront")
	meter  = otel.Meter("bakery-storefront")
)

// ErrInvalidInput wraps every validation failure; the message after the
// colon is safe to show to the caller.
var ErrInvalidInput = errors.New("invalid input")

const (
	defaultPerPage = 20
	maxPerPage     = 100
)

type Page struct {
	Page    int
	PerPage int
}

func (p Page) normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage < 1 || p.PerPage > maxPerPage {
		p.PerPage = defaultPerPage
	}
	return p
}

func (p Page) offset() int {
	return (p.Page - 1) * p.PerPage
}

type ListResult[T any] struct {
	Items      []T   `json:"items"`
	TotalCount int64 `json:"total_count"`
	Page       int   `json:"page"`
	PerPage    int   `json:"per_page"`
}

// notFound maps gorm's missing-row error to the service's own sentinel.
func notFound(err, sentinel error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return sentinel
	}
	return err
}
