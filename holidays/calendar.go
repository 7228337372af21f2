package holidays

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/warp/timesheet-engine/generic"
)

// Repository is the persistence a Calendar reads from and seeds into.
type Repository interface {
	generic.HolidayResolver
	// UpsertHoliday stores h keyed by date and name and reports whether it was new.
	UpsertHoliday(ctx context.Context, h generic.Holiday) (bool, error)
}

// Calendar resolves holidays from a repository and seeds the public defaults.
type Calendar struct {
	Repo   Repository
	Logger *zap.Logger
}

func NewCalendar(repo Repository, logger *zap.Logger) *Calendar {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calendar{Repo: repo, Logger: logger}
}

// HolidaysInRange implements generic.HolidayResolver.
func (c *Calendar) HolidaysInRange(ctx context.Context, from, to generic.TimePoint) ([]generic.Holiday, error) {
	return c.Repo.HolidaysInRange(ctx, from, to)
}

// SeedDefaults writes the Swedish public holidays for year. Existing rows are
// left in place, so seeding the same year twice adds nothing.
func (c *Calendar) SeedDefaults(ctx context.Context, year int) (int, error) {
	added := 0
	for _, h := range Swedish(year) {
		if err := ctx.Err(); err != nil {
			return added, err
		}
		created, err := c.Repo.UpsertHoliday(ctx, h)
		if err != nil {
			return added, fmt.Errorf("seed %s %s: %w", h.Date, h.Name, err)
		}
		if created {
			added++
		}
	}
	c.Logger.Debug("seeded holiday calendar", zap.Int("year", year), zap.Int("added", added))
	return added, nil
}
