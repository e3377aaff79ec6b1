// Package pagination implements a reusable controller for paginated, filtered
// remote collections.
//
// A Controller owns the page cursor, the search/filter inputs and the
// currently displayed page of results. It reacts to every input change by
// calling a caller-supplied fetch function, reshaping the raw response with a
// caller-supplied normalizer, and atomically publishing the new page.
//
// # Ordering
//
// Every fetch is tagged with a sequence number when it is dispatched. Only the
// completion carrying the latest sequence number is applied; earlier ones are
// dropped without touching loading or error state. Dispatching a new fetch also
// cancels the context of the previous one.
//
// # Teardown
//
// Close disposes the controller. Completions that arrive afterwards are no-ops
// and the event channel returned by Subscribe is closed.
package pagination

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEnvelope is returned when a normalized page fails validation.
var ErrInvalidEnvelope = errors.New("pagination: invalid page envelope")

// Params describes one page request handed to the fetch function.
type Params struct {
	// Key identifies the logical collection. Fetch functions may route on it.
	Key         string
	Page        int
	Limit       int
	SearchQuery string
	Filters     map[string]any
}

// Envelope is the canonical page shape consumed by the controller.
type Envelope[T any] struct {
	Results      []T `json:"results"`
	Limit        int `json:"limit" validate:"gt=0"`
	Page         int `json:"page" validate:"gte=1"`
	TotalPages   int `json:"totalPages" validate:"gte=0"`
	TotalResults int `json:"totalResults" validate:"gte=0"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// ValidateEnvelope checks the envelope's counters and that the page does not
// hold more results than its limit.
func ValidateEnvelope[T any](env Envelope[T]) error {
	if err := validate.Struct(env); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEnvelope, err)
	}
	if len(env.Results) > env.Limit {
		return fmt.Errorf("%w: %d results exceed limit %d", ErrInvalidEnvelope, len(env.Results), env.Limit)
	}
	return nil
}

// PageCount returns the number of pages needed for total rows at limit rows
// per page.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return (total + limit - 1) / limit
}
