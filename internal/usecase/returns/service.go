package returns

import (
	"context"
	"strings"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// Service computes cash-weighted investment returns. It is stateless and
// side-effect free: every call reads fresh data from the repository and is
// safe to invoke concurrently.
type Service struct {
	Snapshots domain.SnapshotRepository
}

// NewService creates a new returns Service instance.
func NewService(snapshots domain.SnapshotRepository) *Service {
	return &Service{Snapshots: snapshots}
}

// Query identifies one return computation. AccountID may be the portfolio
// sentinel; Preset defaults to ytd. From/To are raw ISO date strings, the
// boundary layer passes them through unparsed.
type Query struct {
	AccountID string
	Preset    string
	From      string
	To        string
}

// Metrics holds the computed return figures for one account or portfolio.
type Metrics struct {
	BeginValueCents      int64
	EndValueCents        int64
	NetFlowCents         int64
	ProfitCents          int64
	WeightedCapitalCents int64
	ReturnRate           *float64
	AnnualizedRate       *float64
	Note                 string
}

// Result is the full outcome of a return computation.
type Result struct {
	AccountID    string
	AccountName  string
	AccountCount int64 // number of aggregated accounts; 0 for a single account
	Range        domain.ReturnRange
	Metrics      Metrics
	CashFlows    []WeightedFlow
}

// Return computes the Modified Dietz return for one account, or for the
// whole portfolio when AccountID is the portfolio sentinel.
func (s *Service) Return(ctx context.Context, q Query) (*Result, error) {
	accountID := strings.TrimSpace(q.AccountID)
	if accountID == "" {
		return nil, domain.NewValidationError("account_id is required")
	}
	preset, err := domain.ParsePreset(q.Preset, domain.PresetYTD)
	if err != nil {
		return nil, err
	}
	if accountID == domain.PortfolioAccountID {
		return s.portfolioReturn(ctx, preset, q.From, q.To)
	}
	return s.accountReturn(ctx, accountID, preset, q.From, q.To)
}

func (s *Service) accountReturn(ctx context.Context, accountID string, preset domain.Preset, fromRaw, toRaw string) (*Result, error) {
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
	begin := SelectBeginSnapshot(history, rng.EffectiveFrom, rng.EffectiveTo)
	if begin == nil {
		return nil, domain.NewNoDataError("no opening snapshot available in range")
	}
	end := SelectEndSnapshot(history, begin.Date, rng.EffectiveTo)
	if end == nil {
		return nil, domain.NewNoDataError("no closing snapshot available in range")
	}
	if !begin.Date.Before(end.Date) {
		return nil, domain.NewNoDataError("fewer than two distinct snapshots in range; cannot compute a return")
	}

	flows := FlowsBetween(history, begin.Date, end.Date)
	calc, err := ComputeModifiedDietz(begin.Date, end.Date, begin.ValueCents, end.ValueCents, flows, false)
	if err != nil {
		return nil, err
	}

	// The effective bounds reported back are the snapshot dates actually
	// used, which may sit before the requested window boundary.
	rng.EffectiveFrom = begin.Date
	rng.EffectiveTo = end.Date
	rng.IntervalDays = calc.IntervalDays

	return &Result{
		AccountID:   accountID,
		AccountName: bounds.AccountName,
		Range:       *rng,
		Metrics: Metrics{
			BeginValueCents:      begin.ValueCents,
			EndValueCents:        end.ValueCents,
			NetFlowCents:         calc.NetFlowCents,
			ProfitCents:          calc.ProfitCents,
			WeightedCapitalCents: calc.WeightedCapitalCents,
			ReturnRate:           RoundRate(calc.ReturnRate),
			AnnualizedRate:       RoundRate(calc.AnnualizedRate),
			Note:                 calc.Note,
		},
		CashFlows: calc.Flows,
	}, nil
}

func (s *Service) portfolioReturn(ctx context.Context, preset domain.Preset, fromRaw, toRaw string) (*Result, error) {
	bounds, err := s.Snapshots.PortfolioBounds(ctx)
	if err != nil {
		return nil, err
	}
	rng, err := domain.ResolveRange(preset, fromRaw, toRaw, bounds.Earliest, bounds.Latest)
	if err != nil {
		return nil, err
	}
	if !rng.EffectiveFrom.Before(rng.EffectiveTo) {
		return nil, domain.NewNoDataError("fewer than two distinct snapshots in range; cannot compute a return")
	}

	history, err := s.Snapshots.PortfolioHistory(ctx, rng.EffectiveTo)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, domain.NewNoDataError("no investment records available in range")
	}

	// Each account contributes its carried-forward value at both window
	// boundaries; accounts with no snapshot yet contribute zero.
	dates := DistinctDates(history, rng.EffectiveFrom, rng.EffectiveTo)
	totals := domain.AsOfTotals(dates, history)
	beginCents := totals[domain.FormatDate(rng.EffectiveFrom)]
	endCents := totals[domain.FormatDate(rng.EffectiveTo)]

	flows := GroupFlows(history, rng.EffectiveFrom, rng.EffectiveTo)
	calc, err := ComputeModifiedDietz(rng.EffectiveFrom, rng.EffectiveTo, beginCents, endCents, flows, false)
	if err != nil {
		return nil, err
	}
	rng.IntervalDays = calc.IntervalDays

	return &Result{
		AccountID:    domain.PortfolioAccountID,
		AccountName:  domain.PortfolioAccountName,
		AccountCount: bounds.AccountCount,
		Range:        *rng,
		Metrics: Metrics{
			BeginValueCents:      beginCents,
			EndValueCents:        endCents,
			NetFlowCents:         calc.NetFlowCents,
			ProfitCents:          calc.ProfitCents,
			WeightedCapitalCents: calc.WeightedCapitalCents,
			ReturnRate:           RoundRate(calc.ReturnRate),
			AnnualizedRate:       RoundRate(calc.AnnualizedRate),
			Note:                 calc.Note,
		},
		CashFlows: calc.Flows,
	}, nil
}
