package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAsOfTotals_CarriesValuesForward(t *testing.T) {
	history := []AccountSnapshotRecord{
		{AccountID: "a", Date: Date(2024, time.January, 1), ValueCents: 10000},
		{AccountID: "a", Date: Date(2024, time.January, 10), ValueCents: 12000},
		{AccountID: "b", Date: Date(2024, time.January, 5), ValueCents: 5000},
	}
	dates := []time.Time{
		Date(2024, time.January, 1),
		Date(2024, time.January, 5),
		Date(2024, time.January, 10),
		Date(2024, time.January, 20),
	}

	totals := AsOfTotals(dates, history)

	// b contributes nothing until its first snapshot, then carries forward.
	assert.Equal(t, int64(10000), totals["2024-01-01"])
	assert.Equal(t, int64(15000), totals["2024-01-05"])
	assert.Equal(t, int64(17000), totals["2024-01-10"])
	assert.Equal(t, int64(17000), totals["2024-01-20"])
}

func TestAsOfTotals_FlowOnlyRowKeepsCarriedValue(t *testing.T) {
	// A zero-value row that carries a transfer must not reset a positive
	// carried value.
	history := []AccountSnapshotRecord{
		{AccountID: "a", Date: Date(2024, time.January, 1), ValueCents: 10000},
		{AccountID: "a", Date: Date(2024, time.January, 5), ValueCents: 0, FlowCents: 2000},
		{AccountID: "a", Date: Date(2024, time.January, 10), ValueCents: 13000},
	}
	dates := []time.Time{
		Date(2024, time.January, 5),
		Date(2024, time.January, 10),
	}

	totals := AsOfTotals(dates, history)

	assert.Equal(t, int64(10000), totals["2024-01-05"])
	assert.Equal(t, int64(13000), totals["2024-01-10"])
}

func TestAsOfTotals_ZeroValueWithoutFlowResets(t *testing.T) {
	// An explicit zero valuation with no flow is a real zero, e.g. an account
	// that was emptied.
	history := []AccountSnapshotRecord{
		{AccountID: "a", Date: Date(2024, time.January, 1), ValueCents: 10000},
		{AccountID: "a", Date: Date(2024, time.January, 5), ValueCents: 0},
	}
	dates := []time.Time{Date(2024, time.January, 6)}

	totals := AsOfTotals(dates, history)

	assert.Equal(t, int64(0), totals["2024-01-06"])
}

func TestAsOfTotals_UnsortedHistory(t *testing.T) {
	history := []AccountSnapshotRecord{
		{AccountID: "a", Date: Date(2024, time.January, 10), ValueCents: 12000},
		{AccountID: "a", Date: Date(2024, time.January, 1), ValueCents: 10000},
	}
	dates := []time.Time{Date(2024, time.January, 2)}

	totals := AsOfTotals(dates, history)

	assert.Equal(t, int64(10000), totals["2024-01-02"])
}
