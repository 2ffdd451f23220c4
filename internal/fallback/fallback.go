// Package fallback runs an ordered list of named strategies and keeps the
// first one that succeeds.
package fallback

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
)

// ErrSkipped lets a strategy step aside without counting as a provider failure,
// e.g. a vision strategy when there is no image to look at.
var ErrSkipped = errors.New("strategy skipped")

type Strategy[T any] struct {
	Name string
	Run  func(ctx context.Context) (T, error)
}

type Attempt struct {
	Name string
	Err  error
}

// Error is returned when every strategy failed.
type Error struct {
	Attempts []Attempt
}

func (e *Error) Error() string {
	parts := make([]string, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		parts = append(parts, fmt.Sprintf("%s: %v", a.Name, a.Err))
	}
	return "all strategies failed (" + strings.Join(parts, "; ") + ")"
}

func (e *Error) Unwrap() []error {
	errs := make([]error, 0, len(e.Attempts))
	for _, a := range e.Attempts {
		errs = append(errs, a.Err)
	}
	return errs
}

// First runs strategies in order and returns the first successful value along
// with the name of the strategy that produced it. A cancelled context stops the
// chain early.
func First[T any](ctx context.Context, strategies ...Strategy[T]) (T, string, error) {
	var zero T
	failed := &Error{}

	for _, s := range strategies {
		if err := ctx.Err(); err != nil {
			failed.Attempts = append(failed.Attempts, Attempt{Name: s.Name, Err: err})
			return zero, "", failed
		}

		v, err := s.Run(ctx)
		if err == nil {
			return v, s.Name, nil
		}
		if !errors.Is(err, ErrSkipped) {
			log.Printf("Strategy %s failed: %v", s.Name, err)
		}
		failed.Attempts = append(failed.Attempts, Attempt{Name: s.Name, Err: err})
	}

	return zero, "", failed
}
