package domain

import (
	"sort"
	"time"
)

// AsOfTotals computes, for each requested date, the sum across accounts of
// each account's carried-forward value as of that date. Dates must be sorted
// ascending. Missing snapshots are never interpolated or zero-filled: the
// most recent prior value is carried forward.
//
// A row holding only a transfer amount (value 0, flow non-zero) does not
// reset a positive carried value; such rows are written by importers that
// record a flow without a fresh valuation.
func AsOfTotals(dates []time.Time, history []AccountSnapshotRecord) map[string]int64 {
	totals := make(map[string]int64, len(dates))
	for _, d := range dates {
		totals[FormatDate(d)] = 0
	}

	byAccount := make(map[string][]AccountSnapshotRecord)
	for _, row := range history {
		byAccount[row.AccountID] = append(byAccount[row.AccountID], row)
	}

	for _, series := range byAccount {
		sort.Slice(series, func(i, j int) bool { return series[i].Date.Before(series[j].Date) })
		idx := 0
		current := int64(0)
		for _, d := range dates {
			for idx < len(series) && !series[idx].Date.After(d) {
				raw := series[idx].ValueCents
				flow := series[idx].FlowCents
				if !(raw == 0 && flow != 0 && current > 0) {
					current = raw
				}
				idx++
			}
			totals[FormatDate(d)] += current
		}
	}
	return totals
}
