package catalog

import (
	"cmp"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
)

// Option configures a catalog service.
type Option func(*base)

type base struct {
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(b *base) {
		b.logger = logger
	}
}

// WithClock sets the time source for CreatedAt and UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(b *base) {
		b.now = now
	}
}

// WithIDGenerator sets the id generator for new records.
func WithIDGenerator(newID func() string) Option {
	return func(b *base) {
		b.newID = newID
	}
}

func newBase(opts []Option) base {
	b := base{
		now:    time.Now,
		newID:  uuid.NewString,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(&b)
	}
	return b
}

// newestFirst sorts records by creation time, most recent first.
func newestFirst[T any](recs []T, created func(T) time.Time, id func(T) string) []T {
	slices.SortFunc(recs, func(a, b T) int {
		if c := created(b).Compare(created(a)); c != 0 {
			return c
		}
		return cmp.Compare(id(a), id(b))
	})
	return recs
}
