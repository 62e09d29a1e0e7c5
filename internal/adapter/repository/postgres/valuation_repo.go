package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// valuationRepository implements domain.ValuationRepository
type valuationRepository struct {
	db *DB
}

// NewValuationRepository creates a new account valuation repository
func NewValuationRepository(db *DB) domain.ValuationRepository {
	return &valuationRepository{db: db}
}

// Bounds retrieves the date coverage of the valuation store
func (r *valuationRepository) Bounds(ctx context.Context) (*domain.ValuationBounds, error) {
	query := `
		SELECT MIN(snapshot_date), MAX(snapshot_date)
		FROM account_valuations
	`

	var earliest, latest sql.NullTime
	if err := r.db.QueryRowContext(ctx, query).Scan(&earliest, &latest); err != nil {
		return nil, fmt.Errorf("failed to query valuation bounds: %w", err)
	}
	if !earliest.Valid || !latest.Valid {
		return nil, nil
	}

	return &domain.ValuationBounds{
		Earliest: toUTCDate(earliest.Time),
		Latest:   toUTCDate(latest.Time),
	}, nil
}

// LatestPerAccount retrieves each account's latest valuation of a class on
// or before asOf, largest value first
func (r *valuationRepository) LatestPerAccount(ctx context.Context, class domain.AssetClass, asOf time.Time) ([]domain.ValuationRow, error) {
	query := `
		SELECT v.account_id, v.account_name, v.asset_class, v.snapshot_date, v.value_cents
		FROM account_valuations v
		INNER JOIN (
			SELECT account_id, MAX(snapshot_date) AS snapshot_date
			FROM account_valuations
			WHERE asset_class = $1 AND snapshot_date <= $2
			GROUP BY account_id
		) latest ON latest.account_id = v.account_id AND latest.snapshot_date = v.snapshot_date
		WHERE v.asset_class = $1
		ORDER BY v.value_cents DESC, v.account_name ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(class), asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest valuations: %w", err)
	}
	defer rows.Close()

	var values []domain.ValuationRow
	for rows.Next() {
		var row domain.ValuationRow
		var classRaw string
		if err := rows.Scan(&row.AccountID, &row.AccountName, &classRaw, &row.SnapshotDate, &row.ValueCents); err != nil {
			return nil, fmt.Errorf("failed to scan valuation: %w", err)
		}
		row.AssetClass = domain.AssetClass(classRaw)
		row.SnapshotDate = toUTCDate(row.SnapshotDate)
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate valuations: %w", err)
	}

	return values, nil
}

// ClassHistory retrieves every valuation of a class up to a date
func (r *valuationRepository) ClassHistory(ctx context.Context, class domain.AssetClass, through time.Time) ([]domain.AccountSnapshotRecord, error) {
	query := `
		SELECT account_id, snapshot_date, value_cents
		FROM account_valuations
		WHERE asset_class = $1 AND snapshot_date <= $2
		ORDER BY account_id ASC, snapshot_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, string(class), through)
	if err != nil {
		return nil, fmt.Errorf("failed to query valuation history: %w", err)
	}
	defer rows.Close()

	var history []domain.AccountSnapshotRecord
	for rows.Next() {
		var rec domain.AccountSnapshotRecord
		if err := rows.Scan(&rec.AccountID, &rec.Date, &rec.ValueCents); err != nil {
			return nil, fmt.Errorf("failed to scan valuation record: %w", err)
		}
		rec.Date = toUTCDate(rec.Date)
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate valuation records: %w", err)
	}

	return history, nil
}
