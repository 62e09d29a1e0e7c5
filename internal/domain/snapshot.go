package domain

import (
	"math"
	"strings"
	"time"
)

// PortfolioAccountID is the sentinel account id that selects the synthetic
// aggregate of every investment account.
const PortfolioAccountID = "__portfolio__"

// PortfolioAccountName is the display name used for the synthetic portfolio.
const PortfolioAccountName = "All investment accounts (portfolio)"

// AssetClass classifies a wealth row. Liabilities are stored as positive
// magnitudes; the class-level sign is applied during aggregation.
type AssetClass string

const (
	AssetClassInvestment AssetClass = "investment"
	AssetClassCash       AssetClass = "cash"
	AssetClassRealEstate AssetClass = "real_estate"
	AssetClassLiability  AssetClass = "liability"
)

// SnapshotRecord is one dated row of an account's history. A row can carry
// both a total value and a transfer (cash-flow) amount for the same date.
// Records are immutable once written; the engine only reads them.
type SnapshotRecord struct {
	Date       time.Time
	ValueCents int64
	FlowCents  int64
}

// AccountSnapshotRecord is a SnapshotRecord tagged with its account,
// used for multi-account aggregation.
type AccountSnapshotRecord struct {
	AccountID  string
	Date       time.Time
	ValueCents int64
	FlowCents  int64
}

// CashFlowEvent is a dated contribution (positive) or withdrawal (negative).
type CashFlowEvent struct {
	Date        time.Time
	AmountCents int64
}

// AccountBounds describes the snapshot coverage of a single account.
type AccountBounds struct {
	AccountName string
	Earliest    time.Time
	Latest      time.Time
}

// PortfolioBounds describes the snapshot coverage across all accounts.
type PortfolioBounds struct {
	Earliest     time.Time
	Latest       time.Time
	AccountCount int64
}

// AccountInfo is a catalog row for the batch returns listing.
type AccountInfo struct {
	ID                 string
	Name               string
	RecordCount        int64
	FirstSnapshotDate  time.Time
	LatestSnapshotDate time.Time
}

// AccountValueRow is an account's latest known investment value as of a date.
type AccountValueRow struct {
	AccountID    string
	AccountName  string
	SnapshotDate time.Time
	ValueCents   int64
}

// ValuationRow is an account's latest known valuation for one asset class.
type ValuationRow struct {
	AccountID    string
	AccountName  string
	AssetClass   AssetClass
	SnapshotDate time.Time
	ValueCents   int64
}

// ValuationBounds describes the date coverage of the valuation store.
type ValuationBounds struct {
	Earliest time.Time
	Latest   time.Time
}

const isoDateLayout = "2006-01-02"

// Date builds a calendar date at UTC midnight.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

// ParseISODate parses a YYYY-MM-DD string. The field name is used in the
// validation error when the value is missing or malformed.
func ParseISODate(raw, field string) (time.Time, error) {
	text := strings.TrimSpace(raw)
	if text == "" {
		return time.Time{}, NewValidationError("missing field: %s", field)
	}
	t, err := time.ParseInLocation(isoDateLayout, text, time.UTC)
	if err != nil {
		return time.Time{}, NewValidationError("%s must be an ISO date (YYYY-MM-DD)", field)
	}
	return t, nil
}

// FormatDate renders a date as YYYY-MM-DD.
func FormatDate(t time.Time) string {
	return t.Format(isoDateLayout)
}

// DaysBetween returns the number of whole days from one calendar date to
// another. Both arguments must be UTC midnight dates.
func DaysBetween(from, to time.Time) int64 {
	return int64(to.Sub(from).Hours() / 24)
}

// RoundTo rounds a float to the given number of decimal places. All rate
// fields are rounded through this single helper so that both the single-shot
// and curve derivations of the same metric agree exactly.
func RoundTo(v float64, digits int) float64 {
	factor := math.Pow(10, float64(digits))
	return math.Round(v*factor) / factor
}
