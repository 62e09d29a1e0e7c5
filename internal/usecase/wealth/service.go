package wealth

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// Service aggregates point-in-time and time-series wealth across asset
// classes, reconciling the per-row sum against the computed net total.
type Service struct {
	Snapshots  domain.SnapshotRepository
	Valuations domain.ValuationRepository
}

// NewService creates a new wealth Service instance.
func NewService(snapshots domain.SnapshotRepository, valuations domain.ValuationRepository) *Service {
	return &Service{Snapshots: snapshots, Valuations: valuations}
}

// Filters toggles asset classes independently. At least one must be enabled.
type Filters struct {
	IncludeInvestment bool
	IncludeCash       bool
	IncludeRealEstate bool
	IncludeLiability  bool
}

// Validate rejects an all-disabled filter set.
func (f Filters) Validate() error {
	if !f.IncludeInvestment && !f.IncludeCash && !f.IncludeRealEstate && !f.IncludeLiability {
		return domain.NewValidationError("at least one asset class must be selected")
	}
	return nil
}

// OverviewQuery selects the as-of date and class filters for an overview.
type OverviewQuery struct {
	AsOf    string
	Filters Filters
}

// Row is one account's contribution to a wealth aggregation. StaleDays is
// the age of the underlying snapshot relative to the effective as-of date.
type Row struct {
	AssetClass   domain.AssetClass
	AccountID    string
	AccountName  string
	SnapshotDate time.Time
	ValueCents   int64
	StaleDays    int64
}

// OverviewSummary aggregates an overview. Liabilities are positive
// magnitudes; the sign is applied here. ReconciliationDeltaCents compares
// the sum of the emitted rows against the computed net total; a non-zero
// delta indicates an upstream data inconsistency and is surfaced, never
// corrected.
type OverviewSummary struct {
	InvestmentTotalCents            int64
	CashTotalCents                  int64
	RealEstateTotalCents            int64
	LiabilityTotalCents             int64
	GrossAssetsTotalCents           int64
	NetAssetTotalCents              int64
	SelectedRowsAssetsTotalCents    int64
	SelectedRowsLiabilityTotalCents int64
	SelectedRowsTotalCents          int64
	ReconciliationDeltaCents        int64
	ReconciliationOK                bool
	StaleAccountCount               int
}

// OverviewResult is a point-in-time wealth aggregation.
type OverviewResult struct {
	AsOf          time.Time
	RequestedAsOf time.Time
	Filters       Filters
	Summary       OverviewSummary
	Rows          []Row
}

// Overview aggregates the latest known value of every account in the
// selected classes as of a date. When the requested date exceeds the latest
// available data, the latest available date is used and both dates are
// reported.
func (s *Service) Overview(ctx context.Context, q OverviewQuery) (*OverviewResult, error) {
	if err := q.Filters.Validate(); err != nil {
		return nil, err
	}

	latest, err := s.latestAvailableDate(ctx)
	if err != nil {
		return nil, err
	}
	requestedAsOf := latest
	if strings.TrimSpace(q.AsOf) != "" {
		parsed, err := domain.ParseISODate(q.AsOf, "as_of")
		if err != nil {
			return nil, err
		}
		requestedAsOf = parsed
	}
	asOf := requestedAsOf
	if latest.Before(requestedAsOf) {
		asOf = latest
	}

	investmentRows, err := s.Snapshots.LatestValuesPerAccount(ctx, asOf)
	if err != nil {
		return nil, err
	}
	cashRows, err := s.Valuations.LatestPerAccount(ctx, domain.AssetClassCash, asOf)
	if err != nil {
		return nil, err
	}
	realEstateRows, err := s.Valuations.LatestPerAccount(ctx, domain.AssetClassRealEstate, asOf)
	if err != nil {
		return nil, err
	}
	liabilityRows, err := s.Valuations.LatestPerAccount(ctx, domain.AssetClassLiability, asOf)
	if err != nil {
		return nil, err
	}

	var investmentTotal, cashTotal, realEstateTotal, liabilityTotal int64
	for _, r := range investmentRows {
		investmentTotal += r.ValueCents
	}
	for _, r := range cashRows {
		cashTotal += r.ValueCents
	}
	for _, r := range realEstateRows {
		realEstateTotal += r.ValueCents
	}
	for _, r := range liabilityRows {
		liabilityTotal += r.ValueCents
	}

	var grossAssetsTotal int64
	if q.Filters.IncludeInvestment {
		grossAssetsTotal += investmentTotal
	}
	if q.Filters.IncludeCash {
		grossAssetsTotal += cashTotal
	}
	if q.Filters.IncludeRealEstate {
		grossAssetsTotal += realEstateTotal
	}
	var selectedLiabilityTotal int64
	if q.Filters.IncludeLiability {
		selectedLiabilityTotal = liabilityTotal
	}
	netAssetTotal := grossAssetsTotal - selectedLiabilityTotal

	var rows []Row
	if q.Filters.IncludeInvestment {
		for _, r := range investmentRows {
			rows = append(rows, Row{
				AssetClass:   domain.AssetClassInvestment,
				AccountID:    r.AccountID,
				AccountName:  r.AccountName,
				SnapshotDate: r.SnapshotDate,
				ValueCents:   r.ValueCents,
				StaleDays:    domain.DaysBetween(r.SnapshotDate, asOf),
			})
		}
	}
	appendValuations := func(include bool, source []domain.ValuationRow) {
		if !include {
			return
		}
		for _, r := range source {
			rows = append(rows, Row{
				AssetClass:   r.AssetClass,
				AccountID:    r.AccountID,
				AccountName:  r.AccountName,
				SnapshotDate: r.SnapshotDate,
				ValueCents:   r.ValueCents,
				StaleDays:    domain.DaysBetween(r.SnapshotDate, asOf),
			})
		}
	}
	appendValuations(q.Filters.IncludeCash, cashRows)
	appendValuations(q.Filters.IncludeRealEstate, realEstateRows)
	appendValuations(q.Filters.IncludeLiability, liabilityRows)

	// Reconciliation recomputes the total from the emitted rows; it must
	// match the class-total derivation exactly.
	var selectedAssets, selectedLiability int64
	staleCount := 0
	for _, r := range rows {
		if r.AssetClass == domain.AssetClassLiability {
			selectedLiability += r.ValueCents
		} else {
			selectedAssets += r.ValueCents
		}
		if r.StaleDays > 0 {
			staleCount++
		}
	}
	selectedTotal := selectedAssets - selectedLiability
	delta := selectedTotal - netAssetTotal

	return &OverviewResult{
		AsOf:          asOf,
		RequestedAsOf: requestedAsOf,
		Filters:       q.Filters,
		Summary: OverviewSummary{
			InvestmentTotalCents:            investmentTotal,
			CashTotalCents:                  cashTotal,
			RealEstateTotalCents:            realEstateTotal,
			LiabilityTotalCents:             liabilityTotal,
			GrossAssetsTotalCents:           grossAssetsTotal,
			NetAssetTotalCents:              netAssetTotal,
			SelectedRowsAssetsTotalCents:    selectedAssets,
			SelectedRowsLiabilityTotalCents: selectedLiability,
			SelectedRowsTotalCents:          selectedTotal,
			ReconciliationDeltaCents:        delta,
			ReconciliationOK:                delta == 0,
			StaleAccountCount:               staleCount,
		},
		Rows: rows,
	}, nil
}

// latestAvailableDate merges the investment and valuation store coverage.
func (s *Service) latestAvailableDate(ctx context.Context) (time.Time, error) {
	bounds, err := s.unionBounds(ctx)
	if err != nil {
		return time.Time{}, err
	}
	return bounds.Latest, nil
}

type unionBounds struct {
	Earliest time.Time
	Latest   time.Time
}

func (s *Service) unionBounds(ctx context.Context) (*unionBounds, error) {
	var out *unionBounds

	invBounds, err := s.Snapshots.PortfolioBounds(ctx)
	if err != nil {
		if _, ok := domain.CategoryOf(err); !ok {
			return nil, err
		}
	} else {
		out = &unionBounds{Earliest: invBounds.Earliest, Latest: invBounds.Latest}
	}

	valBounds, err := s.Valuations.Bounds(ctx)
	if err != nil {
		return nil, err
	}
	if valBounds != nil {
		if out == nil {
			out = &unionBounds{Earliest: valBounds.Earliest, Latest: valBounds.Latest}
		} else {
			if valBounds.Earliest.Before(out.Earliest) {
				out.Earliest = valBounds.Earliest
			}
			if valBounds.Latest.After(out.Latest) {
				out.Latest = valBounds.Latest
			}
		}
	}

	if out == nil {
		return nil, domain.NewNoDataError("no wealth data available")
	}
	return out, nil
}

// CurveQuery selects the window and class filters for a wealth curve.
type CurveQuery struct {
	Preset  string
	From    string
	To      string
	Filters Filters
}

// CurveRow is one dated row of a wealth curve. WealthTotalCents is gross
// (liability excluded by convention); NetAssetTotalCents subtracts the
// selected liability total. Net-growth fields are relative to the first row.
type CurveRow struct {
	SnapshotDate             time.Time
	InvestmentTotalCents     int64
	CashTotalCents           int64
	RealEstateTotalCents     int64
	LiabilityTotalCents      int64
	WealthTotalCents         int64
	NetAssetTotalCents       int64
	WealthNetGrowthCents     int64
	LiabilityNetGrowthCents  int64
	NetAssetNetGrowthCents   int64
	InvestmentNetGrowthCents int64
	CashNetGrowthCents       int64
	RealEstateNetGrowthCents int64
}

// ClassSpan summarizes one series over the curve window.
type ClassSpan struct {
	StartCents     int64
	EndCents       int64
	NetGrowthCents int64
	ChangePct      *float64
}

// CurveSummary holds per-series spans; each must equal the corresponding
// fields of rows[0] and rows[last] exactly.
type CurveSummary struct {
	Wealth     ClassSpan
	Liability  ClassSpan
	NetAsset   ClassSpan
	Investment ClassSpan
	Cash       ClassSpan
	RealEstate ClassSpan
}

// CurveResult is a wealth time series over a resolved range.
type CurveResult struct {
	Range   domain.ReturnRange
	Points  int
	Filters Filters
	Summary CurveSummary
	Rows    []CurveRow
}

// Curve builds a per-date wealth series with per-class subtotals over the
// resolved range, carrying stale snapshots forward at every point.
func (s *Service) Curve(ctx context.Context, q CurveQuery) (*CurveResult, error) {
	if err := q.Filters.Validate(); err != nil {
		return nil, err
	}
	preset, err := domain.ParsePreset(q.Preset, domain.Preset1Y)
	if err != nil {
		return nil, err
	}
	bounds, err := s.unionBounds(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := domain.ResolveRange(preset, q.From, q.To, bounds.Earliest, bounds.Latest)
	if err != nil {
		return nil, err
	}

	invHistory, err := s.Snapshots.PortfolioHistory(ctx, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	cashHistory, err := s.Valuations.ClassHistory(ctx, domain.AssetClassCash, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	realEstateHistory, err := s.Valuations.ClassHistory(ctx, domain.AssetClassRealEstate, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	liabilityHistory, err := s.Valuations.ClassHistory(ctx, domain.AssetClassLiability, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}

	dates := unionDates(rng.EffectiveFrom, rng.EffectiveTo, invHistory, cashHistory, realEstateHistory, liabilityHistory)
	invTotals := domain.AsOfTotals(dates, invHistory)
	cashTotals := domain.AsOfTotals(dates, cashHistory)
	realEstateTotals := domain.AsOfTotals(dates, realEstateHistory)
	liabilityTotals := domain.AsOfTotals(dates, liabilityHistory)

	rows := make([]CurveRow, 0, len(dates))
	var first CurveRow
	for _, d := range dates {
		key := domain.FormatDate(d)
		inv := invTotals[key]
		cash := cashTotals[key]
		realEstate := realEstateTotals[key]
		liability := liabilityTotals[key]

		var wealth int64
		if q.Filters.IncludeInvestment {
			wealth += inv
		}
		if q.Filters.IncludeCash {
			wealth += cash
		}
		if q.Filters.IncludeRealEstate {
			wealth += realEstate
		}
		var selectedLiability int64
		if q.Filters.IncludeLiability {
			selectedLiability = liability
		}
		netAsset := wealth - selectedLiability

		row := CurveRow{
			SnapshotDate:         d,
			InvestmentTotalCents: inv,
			CashTotalCents:       cash,
			RealEstateTotalCents: realEstate,
			LiabilityTotalCents:  liability,
			WealthTotalCents:     wealth,
			NetAssetTotalCents:   netAsset,
		}
		if len(rows) == 0 {
			first = row
		}
		row.WealthNetGrowthCents = wealth - first.WealthTotalCents
		row.LiabilityNetGrowthCents = liability - first.LiabilityTotalCents
		row.NetAssetNetGrowthCents = netAsset - first.NetAssetTotalCents
		row.InvestmentNetGrowthCents = inv - first.InvestmentTotalCents
		row.CashNetGrowthCents = cash - first.CashTotalCents
		row.RealEstateNetGrowthCents = realEstate - first.RealEstateTotalCents
		rows = append(rows, row)
	}

	last := rows[len(rows)-1]
	rng.EffectiveFrom = rows[0].SnapshotDate
	rng.EffectiveTo = last.SnapshotDate
	rng.IntervalDays = domain.DaysBetween(rng.EffectiveFrom, rng.EffectiveTo)

	return &CurveResult{
		Range:   *rng,
		Points:  len(rows),
		Filters: q.Filters,
		Summary: CurveSummary{
			Wealth:     span(first.WealthTotalCents, last.WealthTotalCents),
			Liability:  span(first.LiabilityTotalCents, last.LiabilityTotalCents),
			NetAsset:   span(first.NetAssetTotalCents, last.NetAssetTotalCents),
			Investment: span(first.InvestmentTotalCents, last.InvestmentTotalCents),
			Cash:       span(first.CashTotalCents, last.CashTotalCents),
			RealEstate: span(first.RealEstateTotalCents, last.RealEstateTotalCents),
		},
		Rows: rows,
	}, nil
}

func span(start, end int64) ClassSpan {
	s := ClassSpan{StartCents: start, EndCents: end, NetGrowthCents: end - start}
	if start > 0 {
		pct := domain.RoundTo(float64(end-start)/float64(start), 8)
		s.ChangePct = &pct
	}
	return s
}

// unionDates merges the distinct snapshot dates of every history within
// [from, to], always including both boundaries, sorted ascending.
func unionDates(from, to time.Time, histories ...[]domain.AccountSnapshotRecord) []time.Time {
	seen := map[string]time.Time{
		domain.FormatDate(from): from,
		domain.FormatDate(to):   to,
	}
	for _, history := range histories {
		for _, rec := range history {
			if rec.Date.Before(from) || rec.Date.After(to) {
				continue
			}
			seen[domain.FormatDate(rec.Date)] = rec.Date
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}
