package review

import (
	"context"
	"log/slog"
	"time"
)

// DayCutoffSource is implemented by host backends that know the scheduler's
// own next day rollover. Backends without this knowledge simply don't
// implement it and the fallback chain applies.
type DayCutoffSource interface {
	// NextDayCutoff returns the instant the current scheduling day ends.
	NextDayCutoff(ctx context.Context) (time.Time, error)
}

// DayStart resolves the start of the current scheduling day, trying in
// order: an explicitly configured rollover hour, the host's own cutoff, and
// finally local midnight. rolloverHour < 0 means not configured.
func DayStart(ctx context.Context, now time.Time, rolloverHour int, cutoffs DayCutoffSource) time.Time {
	if rolloverHour >= 0 && rolloverHour <= 23 {
		start := time.Date(now.Year(), now.Month(), now.Day(), rolloverHour, 0, 0, 0, now.Location())
		if now.Before(start) {
			start = start.AddDate(0, 0, -1)
		}
		return start
	}

	if cutoffs != nil {
		cutoff, err := cutoffs.NextDayCutoff(ctx)
		if err != nil {
			slog.Warn("failed to query the host day cutoff, falling back to local midnight",
				slog.Any("error", err),
			)
		} else if cutoff.After(now) {
			return cutoff.AddDate(0, 0, -1)
		}
	}

	return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
}
