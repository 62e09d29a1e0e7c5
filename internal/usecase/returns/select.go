package returns

import (
	"sort"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// SelectBeginSnapshot picks the opening snapshot for a window from an
// account's history (ordered by date ascending). Preference order: the
// latest positive-value snapshot on or before windowFrom, then the earliest
// positive-value snapshot inside the window, then the latest snapshot on or
// before windowFrom regardless of value. Returns nil when none qualifies.
func SelectBeginSnapshot(history []domain.SnapshotRecord, windowFrom, windowTo time.Time) *domain.SnapshotRecord {
	var latestBefore, latestBeforeAny, earliestIn *domain.SnapshotRecord
	for i := range history {
		rec := &history[i]
		if !rec.Date.After(windowFrom) {
			latestBeforeAny = rec
			if rec.ValueCents > 0 {
				latestBefore = rec
			}
			continue
		}
		if earliestIn == nil && !rec.Date.After(windowTo) && rec.ValueCents > 0 {
			earliestIn = rec
		}
	}
	// A positive snapshot exactly on windowFrom satisfies both the "on or
	// before" and "inside the window" preferences; the former wins.
	if latestBefore != nil {
		return latestBefore
	}
	if earliestIn != nil {
		return earliestIn
	}
	return latestBeforeAny
}

// SelectEndSnapshot picks the closing snapshot: the latest positive-value
// snapshot in [beginDate, windowTo], falling back to the latest any-value
// snapshot in that window. Returns nil when the window holds no snapshot.
func SelectEndSnapshot(history []domain.SnapshotRecord, beginDate, windowTo time.Time) *domain.SnapshotRecord {
	var latestPositive, latestAny *domain.SnapshotRecord
	for i := range history {
		rec := &history[i]
		if rec.Date.Before(beginDate) || rec.Date.After(windowTo) {
			continue
		}
		latestAny = rec
		if rec.ValueCents > 0 {
			latestPositive = rec
		}
	}
	if latestPositive != nil {
		return latestPositive
	}
	return latestAny
}

// FlowsBetween extracts the cash-flow events strictly after afterExclusive
// and up to throughInclusive from an account's history, ordered by date.
func FlowsBetween(history []domain.SnapshotRecord, afterExclusive, throughInclusive time.Time) []domain.CashFlowEvent {
	var flows []domain.CashFlowEvent
	for _, rec := range history {
		if rec.FlowCents == 0 || !rec.Date.After(afterExclusive) || rec.Date.After(throughInclusive) {
			continue
		}
		flows = append(flows, domain.CashFlowEvent{Date: rec.Date, AmountCents: rec.FlowCents})
	}
	return flows
}

// GroupFlows sums multi-account flows per date over (afterExclusive,
// throughInclusive], dropping dates whose sum is zero, ordered by date.
func GroupFlows(history []domain.AccountSnapshotRecord, afterExclusive, throughInclusive time.Time) []domain.CashFlowEvent {
	byDate := make(map[string]int64)
	dates := make(map[string]time.Time)
	for _, rec := range history {
		if rec.FlowCents == 0 || !rec.Date.After(afterExclusive) || rec.Date.After(throughInclusive) {
			continue
		}
		key := domain.FormatDate(rec.Date)
		byDate[key] += rec.FlowCents
		dates[key] = rec.Date
	}
	flows := make([]domain.CashFlowEvent, 0, len(byDate))
	for key, amount := range byDate {
		if amount == 0 {
			continue
		}
		flows = append(flows, domain.CashFlowEvent{Date: dates[key], AmountCents: amount})
	}
	sort.Slice(flows, func(i, j int) bool { return flows[i].Date.Before(flows[j].Date) })
	return flows
}

// DistinctDates collects the sorted, deduplicated snapshot dates of a
// multi-account history that fall within [from, to], always including both
// boundary dates.
func DistinctDates(history []domain.AccountSnapshotRecord, from, to time.Time) []time.Time {
	seen := map[string]time.Time{
		domain.FormatDate(from): from,
		domain.FormatDate(to):   to,
	}
	for _, rec := range history {
		if rec.Date.Before(from) || rec.Date.After(to) {
			continue
		}
		seen[domain.FormatDate(rec.Date)] = rec.Date
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
