package returns

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/alitto/pond/v2"

	"github.com/keepwise/analytics-backend/internal/domain"
)

const (
	defaultBatchLimit = 200
	maxBatchLimit     = 500
	batchWorkers      = 8
)

// BatchQuery selects the accounts and window for a batch return computation.
type BatchQuery struct {
	Preset  string
	From    string
	To      string
	Keyword string
	Limit   int
}

// BatchRow is one account's return figures in a batch result.
type BatchRow struct {
	AccountID          string
	AccountName        string
	RecordCount        int64
	FirstSnapshotDate  time.Time
	LatestSnapshotDate time.Time
	EffectiveFrom      time.Time
	EffectiveTo        time.Time
	IntervalDays       int64
	Metrics            Metrics
}

// BatchError reports one account's failure without aborting its siblings.
type BatchError struct {
	AccountID   string
	AccountName string
	Category    domain.ErrorCategory
	Message     string
}

// BatchSummary aggregates a batch result.
type BatchSummary struct {
	AccountCount  int
	ComputedCount int
	ErrorCount    int
	AvgReturnRate *float64
}

// BatchResult is the outcome of a batch return computation.
type BatchResult struct {
	Preset        domain.Preset
	RequestedFrom string
	RequestedTo   string
	Keyword       string
	Limit         int
	Summary       BatchSummary
	Rows          []BatchRow
	Errors        []BatchError
}

// BatchReturns computes per-account returns for every matching account.
// Accounts are computed concurrently on a bounded pool; one account's
// failure is isolated into Errors and never aborts the batch. Rows are
// ordered by return rate descending with undefined rates last, ties broken
// by account name; errors keep the account listing order.
func (s *Service) BatchReturns(ctx context.Context, q BatchQuery) (*BatchResult, error) {
	preset, err := domain.ParsePreset(q.Preset, domain.PresetYTD)
	if err != nil {
		return nil, err
	}
	// Validate the explicit bounds up front so a malformed date fails the
	// whole request instead of surfacing as one error per account.
	if preset == domain.PresetCustom {
		if _, err := domain.ParseISODate(q.From, "from"); err != nil {
			return nil, err
		}
	}
	requestedTo := ""
	if strings.TrimSpace(q.To) != "" {
		parsed, err := domain.ParseISODate(q.To, "to")
		if err != nil {
			return nil, err
		}
		requestedTo = domain.FormatDate(parsed)
	}
	keyword := strings.ToLower(strings.TrimSpace(q.Keyword))
	limit := q.Limit
	if limit <= 0 {
		limit = defaultBatchLimit
	}
	if limit > maxBatchLimit {
		limit = maxBatchLimit
	}

	catalog, err := s.Snapshots.ListAccounts(ctx)
	if err != nil {
		return nil, err
	}
	accounts := make([]domain.AccountInfo, 0, limit)
	for _, acct := range catalog {
		if keyword != "" &&
			!strings.Contains(strings.ToLower(acct.ID), keyword) &&
			!strings.Contains(strings.ToLower(acct.Name), keyword) {
			continue
		}
		accounts = append(accounts, acct)
		if len(accounts) >= limit {
			break
		}
	}

	results := make([]*Result, len(accounts))
	failures := make([]error, len(accounts))
	pool := pond.NewPool(batchWorkers)
	group := pool.NewGroupContext(ctx)
	for i, acct := range accounts {
		i, acct := i, acct
		group.Submit(func() {
			results[i], failures[i] = s.accountReturn(group.Context(), acct.ID, preset, q.From, q.To)
		})
	}
	_ = group.Wait()
	pool.StopAndWait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rows := make([]BatchRow, 0, len(accounts))
	var errRows []BatchError
	for i, acct := range accounts {
		if failures[i] != nil {
			category, ok := domain.CategoryOf(failures[i])
			if !ok {
				// Provider failures abort the batch: they are defects or
				// outages, not per-account domain conditions.
				return nil, failures[i]
			}
			errRows = append(errRows, BatchError{
				AccountID:   acct.ID,
				AccountName: acct.Name,
				Category:    category,
				Message:     failures[i].Error(),
			})
			continue
		}
		res := results[i]
		rows = append(rows, BatchRow{
			AccountID:          acct.ID,
			AccountName:        acct.Name,
			RecordCount:        acct.RecordCount,
			FirstSnapshotDate:  acct.FirstSnapshotDate,
			LatestSnapshotDate: acct.LatestSnapshotDate,
			EffectiveFrom:      res.Range.EffectiveFrom,
			EffectiveTo:        res.Range.EffectiveTo,
			IntervalDays:       res.Range.IntervalDays,
			Metrics:            res.Metrics,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		ri, rj := rows[i].Metrics.ReturnRate, rows[j].Metrics.ReturnRate
		switch {
		case ri != nil && rj != nil:
			if *ri != *rj {
				return *ri > *rj
			}
			return rows[i].AccountName < rows[j].AccountName
		case ri != nil:
			return true
		case rj != nil:
			return false
		default:
			return rows[i].AccountName < rows[j].AccountName
		}
	})

	var avg *float64
	var sum float64
	var defined int
	for _, row := range rows {
		if row.Metrics.ReturnRate != nil {
			sum += *row.Metrics.ReturnRate
			defined++
		}
	}
	if defined > 0 {
		mean := domain.RoundTo(sum/float64(defined), 8)
		avg = &mean
	}

	requestedFrom := strings.TrimSpace(q.From)
	return &BatchResult{
		Preset:        preset,
		RequestedFrom: requestedFrom,
		RequestedTo:   requestedTo,
		Keyword:       keyword,
		Limit:         limit,
		Summary: BatchSummary{
			AccountCount:  len(accounts),
			ComputedCount: len(rows),
			ErrorCount:    len(errRows),
			AvgReturnRate: avg,
		},
		Rows:   rows,
		Errors: errRows,
	}, nil
}
