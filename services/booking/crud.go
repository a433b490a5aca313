package booking

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	bookingRepo "slotbook/database/repository/booking"
	"slotbook/models"

	"go.uber.org/zap"
)

func (e *DefaultEngine) Get(ctx context.Context, bookingID string) (*models.Booking, error) {
	b, err := e.Repo.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, bookingRepo.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (e *DefaultEngine) ListFor(ctx context.Context, role, actorID string, status models.BookingStatus) ([]models.Booking, error) {
	switch role {
	case "customer":
		return e.Repo.ListByCustomer(ctx, actorID, status)
	case "provider":
		return e.Repo.ListByProvider(ctx, actorID, status)
	default:
		return nil, newValidationError("unknown role %q", role)
	}
}

// Availability returns the free intervals of a provider's day: the day minus
// the merged active bookings. Served from the Redis day cache when warm.
func (e *DefaultEngine) Availability(ctx context.Context, providerID, date string) ([]Interval, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return nil, newValidationError("date must be YYYY-MM-DD, got %q", date)
	}

	if cached, ok := e.cachedAvailability(ctx, providerID, date); ok {
		return cached, nil
	}

	busy, err := e.Repo.FindOverlapping(ctx, providerID, date, 0, minutesPerDay, "")
	if err != nil {
		return nil, fmt.Errorf("failed to load day bookings: %w", err)
	}

	free := freeIntervals(busy)
	e.storeAvailability(ctx, providerID, date, free)
	return free, nil
}

// freeIntervals subtracts the given bookings from [0, minutesPerDay).
func freeIntervals(busy []models.Booking) []Interval {
	intervals := make([]Interval, 0, len(busy))
	for _, b := range busy {
		intervals = append(intervals, Interval{Start: b.Start, End: b.End})
	}
	sort.Slice(intervals, func(i, j int) bool { return intervals[i].Start < intervals[j].Start })

	free := []Interval{}
	cursor := 0
	for _, iv := range intervals {
		if iv.Start > cursor {
			free = append(free, Interval{Start: cursor, End: iv.Start})
		}
		if iv.End > cursor {
			cursor = iv.End
		}
	}
	if cursor < minutesPerDay {
		free = append(free, Interval{Start: cursor, End: minutesPerDay})
	}
	return free
}

func availabilityCacheKey(providerID, date string) string {
	return fmt.Sprintf("avail:%s:%s", providerID, date)
}

func (e *DefaultEngine) cachedAvailability(ctx context.Context, providerID, date string) ([]Interval, bool) {
	if e.Cache == nil {
		return nil, false
	}
	raw, err := e.Cache.Get(ctx, availabilityCacheKey(providerID, date)).Result()
	if err != nil {
		return nil, false
	}
	var out []Interval
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (e *DefaultEngine) storeAvailability(ctx context.Context, providerID, date string, free []Interval) {
	if e.Cache == nil {
		return
	}
	raw, err := json.Marshal(free)
	if err != nil {
		return
	}
	if err := e.Cache.Set(ctx, availabilityCacheKey(providerID, date), raw, 2*time.Minute).Err(); err != nil {
		e.Logger.Debug("availability cache write failed", zap.Error(err))
	}
}

func (e *DefaultEngine) invalidateDayCache(ctx context.Context, providerID, date string) {
	if e.Cache == nil {
		return
	}
	if err := e.Cache.Del(ctx, availabilityCacheKey(providerID, date)).Err(); err != nil {
		e.Logger.Debug("availability cache invalidation failed", zap.Error(err))
	}
}
