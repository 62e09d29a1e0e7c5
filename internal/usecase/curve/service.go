package curve

import (
	"context"
	"strings"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
	"github.com/keepwise/analytics-backend/internal/usecase/returns"
)

// Service builds per-date investment value and cumulative return curves.
// Like the returns service it is stateless: each call reads fresh data.
type Service struct {
	Snapshots domain.SnapshotRepository
}

// NewService creates a new curve Service instance.
func NewService(snapshots domain.SnapshotRepository) *Service {
	return &Service{Snapshots: snapshots}
}

// Query identifies one curve computation. Preset defaults to 1y.
type Query struct {
	AccountID string
	Preset    string
	From      string
	To        string
}

// Point is one dated row of a curve. EffectiveSnapshotDate differs from
// SnapshotDate when the value was carried forward from an earlier snapshot;
// the provenance is reported rather than hidden because gaps must never be
// interpolated or zero-filled.
type Point struct {
	SnapshotDate             time.Time
	EffectiveSnapshotDate    time.Time
	TotalValueCents          int64
	TransferAmountCents      int64
	CumulativeNetGrowthCents int64
	CumulativeReturnRate     *float64
}

// Summary describes the terminal state of a curve.
type Summary struct {
	Count                   int
	StartValueCents         int64
	EndValueCents           int64
	ChangeCents             int64
	ChangePct               *float64
	EndNetGrowthCents       int64
	EndCumulativeReturnRate *float64
}

// Result is the full outcome of a curve computation.
type Result struct {
	AccountID    string
	AccountName  string
	AccountCount int64
	Range        domain.ReturnRange
	Summary      Summary
	Rows         []Point
}

// Curve builds the cumulative return curve for one account, or for the
// whole portfolio when AccountID is the portfolio sentinel. Each point's
// cumulative rate is a Modified Dietz return recomputed from the range start,
// so the terminal point agrees with the single-shot return over the same
// effective range.
func (s *Service) Curve(ctx context.Context, q Query) (*Result, error) {
	accountID := strings.TrimSpace(q.AccountID)
	if accountID == "" {
		return nil, domain.NewValidationError("account_id is required")
	}
	preset, err := domain.ParsePreset(q.Preset, domain.Preset1Y)
	if err != nil {
		return nil, err
	}
	if accountID == domain.PortfolioAccountID {
		return s.portfolioCurve(ctx, preset, q.From, q.To)
	}
	return s.accountCurve(ctx, accountID, preset, q.From, q.To)
}

func (s *Service) accountCurve(ctx context.Context, accountID string, preset domain.Preset, fromRaw, toRaw string) (*Result, error) {
	bounds, err := s.Snapshots.AccountBounds(ctx, accountID)
	if err != nil {
		return nil, err
	}
	rng, err := domain.ResolveRange(preset, fromRaw, toRaw, bounds.Earliest, bounds.Latest)
	if err != nil {
		return nil, err
	}

	history, err := s.Snapshots.AccountHistory(ctx, accountID, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	begin := returns.SelectBeginSnapshot(history, rng.EffectiveFrom, rng.EffectiveTo)
	if begin == nil {
		return nil, domain.NewNoDataError("no opening snapshot available in range")
	}
	finalEnd := returns.SelectEndSnapshot(history, begin.Date, rng.EffectiveTo)
	if finalEnd == nil {
		return nil, domain.NewNoDataError("no closing snapshot available in range")
	}

	candidates := candidateDates(history, begin.Date, finalEnd.Date)
	transferByDate := transferTotalsByDate(history, begin.Date, finalEnd.Date)

	rows := make([]Point, 0, len(candidates))
	for _, pointDate := range candidates {
		pointEnd := returns.SelectEndSnapshot(history, begin.Date, pointDate)
		if pointEnd == nil {
			continue
		}
		flows := returns.FlowsBetween(history, begin.Date, pointEnd.Date)
		calc, err := returns.ComputeModifiedDietz(begin.Date, pointEnd.Date, begin.ValueCents, pointEnd.ValueCents, flows, true)
		if err != nil {
			return nil, err
		}
		rows = append(rows, Point{
			SnapshotDate:             pointDate,
			EffectiveSnapshotDate:    pointEnd.Date,
			TotalValueCents:          pointEnd.ValueCents,
			TransferAmountCents:      transferByDate[domain.FormatDate(pointDate)],
			CumulativeNetGrowthCents: calc.ProfitCents,
			CumulativeReturnRate:     returns.RoundRate(calc.ReturnRate),
		})
	}

	rng.EffectiveFrom = begin.Date
	rng.EffectiveTo = finalEnd.Date
	if len(rows) > 0 {
		rng.EffectiveTo = rows[len(rows)-1].EffectiveSnapshotDate
	}
	rng.IntervalDays = domain.DaysBetween(rng.EffectiveFrom, rng.EffectiveTo)

	return &Result{
		AccountID:   accountID,
		AccountName: bounds.AccountName,
		Range:       *rng,
		Summary:     summarize(rows),
		Rows:        rows,
	}, nil
}

func (s *Service) portfolioCurve(ctx context.Context, preset domain.Preset, fromRaw, toRaw string) (*Result, error) {
	bounds, err := s.Snapshots.PortfolioBounds(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := domain.ResolveRange(preset, fromRaw, toRaw, bounds.Earliest, bounds.Latest)
	if err != nil {
		return nil, err
	}

	history, err := s.Snapshots.PortfolioHistory(ctx, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.NewNoDataError("no investment records available in range")
	}

	dates := returns.DistinctDates(history, rng.EffectiveFrom, rng.EffectiveTo)
	totals := domain.AsOfTotals(dates, history)
	beginCents := totals[domain.FormatDate(rng.EffectiveFrom)]
	flowRows := returns.GroupFlows(history, rng.EffectiveFrom, rng.EffectiveTo)

	rows := make([]Point, 0, len(dates))
	for _, pointDate := range dates {
		var pointFlows []domain.CashFlowEvent
		for _, flow := range flowRows {
			if flow.Date.After(pointDate) {
				break
			}
			pointFlows = append(pointFlows, flow)
		}
		calc, err := returns.ComputeModifiedDietz(rng.EffectiveFrom, pointDate, beginCents, totals[domain.FormatDate(pointDate)], pointFlows, true)
		if err != nil {
			return nil, err
		}
		var transfer int64
		for _, flow := range flowRows {
			if flow.Date.Equal(pointDate) {
				transfer = flow.AmountCents
			}
		}
		rows = append(rows, Point{
			SnapshotDate:             pointDate,
			EffectiveSnapshotDate:    pointDate,
			TotalValueCents:          totals[domain.FormatDate(pointDate)],
			TransferAmountCents:      transfer,
			CumulativeNetGrowthCents: calc.ProfitCents,
			CumulativeReturnRate:     returns.RoundRate(calc.ReturnRate),
		})
	}

	if len(rows) > 0 {
		rng.EffectiveTo = rows[len(rows)-1].EffectiveSnapshotDate
	}
	rng.IntervalDays = domain.DaysBetween(rng.EffectiveFrom, rng.EffectiveTo)

	return &Result{
		AccountID:    domain.PortfolioAccountID,
		AccountName:  domain.PortfolioAccountName,
		AccountCount: bounds.AccountCount,
		Range:        *rng,
		Summary:      summarize(rows),
		Rows:         rows,
	}, nil
}

// candidateDates lists the account's distinct snapshot dates within
// [begin, end] plus both boundaries, sorted ascending.
func candidateDates(history []domain.SnapshotRecord, begin, end time.Time) []time.Time {
	tagged := make([]domain.AccountSnapshotRecord, len(history))
	for i, rec := range history {
		tagged[i] = domain.AccountSnapshotRecord{Date: rec.Date, ValueCents: rec.ValueCents, FlowCents: rec.FlowCents}
	}
	return returns.DistinctDates(tagged, begin, end)
}

// transferTotalsByDate sums the flows dated within [from, through] keyed by
// date, so each curve row can report the transfer landing exactly on it.
func transferTotalsByDate(history []domain.SnapshotRecord, from, through time.Time) map[string]int64 {
	totals := make(map[string]int64)
	for _, rec := range history {
		if rec.FlowCents == 0 || rec.Date.Before(from) || rec.Date.After(through) {
			continue
		}
		totals[domain.FormatDate(rec.Date)] += rec.FlowCents
	}
	return totals
}

func summarize(rows []Point) Summary {
	if len(rows) == 0 {
		return Summary{}
	}
	first, last := rows[0], rows[len(rows)-1]
	summary := Summary{
		Count:                   len(rows),
		StartValueCents:         first.TotalValueCents,
		EndValueCents:           last.TotalValueCents,
		ChangeCents:             last.TotalValueCents - first.TotalValueCents,
		EndNetGrowthCents:       last.CumulativeNetGrowthCents,
		EndCumulativeReturnRate: last.CumulativeReturnRate,
	}
	if first.TotalValueCents > 0 {
		pct := domain.RoundTo(float64(summary.ChangeCents)/float64(first.TotalValueCents), 8)
		summary.ChangePct = &pct
	}
	return summary
}
