package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// snapshotRepository implements domain.SnapshotRepository
type snapshotRepository struct {
	db *DB
}

// NewSnapshotRepository creates a new investment snapshot repository
func NewSnapshotRepository(db *DB) domain.SnapshotRepository {
	return &snapshotRepository{db: db}
}

// AccountBounds retrieves the display name and snapshot coverage of an account
func (r *snapshotRepository) AccountBounds(ctx context.Context, accountID string) (*domain.AccountBounds, error) {
	query := `
		SELECT COALESCE(a.name, r.account_id), MIN(r.snapshot_date), MAX(r.snapshot_date)
		FROM investment_records r
		LEFT JOIN accounts a ON a.id = r.account_id
		WHERE r.account_id = $1
		GROUP BY a.name, r.account_id
	`

	var bounds domain.AccountBounds
	err := r.db.QueryRowContext(ctx, query, accountID).Scan(
		&bounds.AccountName,
		&bounds.Earliest,
		&bounds.Latest,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NewNoDataError("no snapshot records found for account %s", accountID)
		}
		return nil, fmt.Errorf("failed to query account bounds: %w", err)
	}
	bounds.Earliest = toUTCDate(bounds.Earliest)
	bounds.Latest = toUTCDate(bounds.Latest)

	return &bounds, nil
}

// AccountHistory retrieves an account's snapshots up to a date, oldest first
func (r *snapshotRepository) AccountHistory(ctx context.Context, accountID string, through time.Time) ([]domain.SnapshotRecord, error) {
	query := `
		SELECT snapshot_date, total_value_cents, transfer_amount_cents
		FROM investment_records
		WHERE account_id = $1 AND snapshot_date <= $2
		ORDER BY snapshot_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, accountID, through)
	if err != nil {
		return nil, fmt.Errorf("failed to query account history: %w", err)
	}
	defer rows.Close()

	var history []domain.SnapshotRecord
	for rows.Next() {
		var rec domain.SnapshotRecord
		if err := rows.Scan(&rec.Date, &rec.ValueCents, &rec.FlowCents); err != nil {
			return nil, fmt.Errorf("failed to scan snapshot record: %w", err)
		}
		rec.Date = toUTCDate(rec.Date)
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate snapshot records: %w", err)
	}

	return history, nil
}

// ListAccounts retrieves the account catalog, most recently updated first
func (r *snapshotRepository) ListAccounts(ctx context.Context) ([]domain.AccountInfo, error) {
	query := `
		SELECT r.account_id, COALESCE(a.name, r.account_id), COUNT(*),
		       MIN(r.snapshot_date), MAX(r.snapshot_date)
		FROM investment_records r
		LEFT JOIN accounts a ON a.id = r.account_id
		GROUP BY r.account_id, a.name
		ORDER BY MAX(r.snapshot_date) DESC, COALESCE(a.name, r.account_id) ASC
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to query account catalog: %w", err)
	}
	defer rows.Close()

	var accounts []domain.AccountInfo
	for rows.Next() {
		var info domain.AccountInfo
		if err := rows.Scan(&info.ID, &info.Name, &info.RecordCount, &info.FirstSnapshotDate, &info.LatestSnapshotDate); err != nil {
			return nil, fmt.Errorf("failed to scan account info: %w", err)
		}
		info.FirstSnapshotDate = toUTCDate(info.FirstSnapshotDate)
		info.LatestSnapshotDate = toUTCDate(info.LatestSnapshotDate)
		accounts = append(accounts, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account catalog: %w", err)
	}

	return accounts, nil
}

// PortfolioBounds retrieves the snapshot coverage across all accounts
func (r *snapshotRepository) PortfolioBounds(ctx context.Context) (*domain.PortfolioBounds, error) {
	query := `
		SELECT MIN(snapshot_date), MAX(snapshot_date), COUNT(DISTINCT account_id)
		FROM investment_records
	`

	var earliest, latest sql.NullTime
	var bounds domain.PortfolioBounds
	err := r.db.QueryRowContext(ctx, query).Scan(&earliest, &latest, &bounds.AccountCount)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio bounds: %w", err)
	}
	if !earliest.Valid || !latest.Valid {
		return nil, domain.NewNoDataError("no investment snapshot records exist")
	}
	bounds.Earliest = toUTCDate(earliest.Time)
	bounds.Latest = toUTCDate(latest.Time)

	return &bounds, nil
}

// PortfolioHistory retrieves every account's snapshots up to a date
func (r *snapshotRepository) PortfolioHistory(ctx context.Context, through time.Time) ([]domain.AccountSnapshotRecord, error) {
	query := `
		SELECT account_id, snapshot_date, total_value_cents, transfer_amount_cents
		FROM investment_records
		WHERE snapshot_date <= $1
		ORDER BY account_id ASC, snapshot_date ASC
	`

	rows, err := r.db.QueryContext(ctx, query, through)
	if err != nil {
		return nil, fmt.Errorf("failed to query portfolio history: %w", err)
	}
	defer rows.Close()

	var history []domain.AccountSnapshotRecord
	for rows.Next() {
		var rec domain.AccountSnapshotRecord
		if err := rows.Scan(&rec.AccountID, &rec.Date, &rec.ValueCents, &rec.FlowCents); err != nil {
			return nil, fmt.Errorf("failed to scan portfolio record: %w", err)
		}
		rec.Date = toUTCDate(rec.Date)
		history = append(history, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate portfolio records: %w", err)
	}

	return history, nil
}

// LatestValuesPerAccount retrieves each account's latest positive snapshot
// on or before asOf, largest value first
func (r *snapshotRepository) LatestValuesPerAccount(ctx context.Context, asOf time.Time) ([]domain.AccountValueRow, error) {
	query := `
		SELECT r.account_id, COALESCE(a.name, r.account_id), r.snapshot_date, r.total_value_cents
		FROM investment_records r
		LEFT JOIN accounts a ON a.id = r.account_id
		INNER JOIN (
			SELECT account_id, MAX(snapshot_date) AS snapshot_date
			FROM investment_records
			WHERE snapshot_date <= $1 AND total_value_cents > 0
			GROUP BY account_id
		) latest ON latest.account_id = r.account_id AND latest.snapshot_date = r.snapshot_date
		ORDER BY r.total_value_cents DESC, COALESCE(a.name, r.account_id) ASC
	`

	rows, err := r.db.QueryContext(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("failed to query latest account values: %w", err)
	}
	defer rows.Close()

	var values []domain.AccountValueRow
	for rows.Next() {
		var row domain.AccountValueRow
		if err := rows.Scan(&row.AccountID, &row.AccountName, &row.SnapshotDate, &row.ValueCents); err != nil {
			return nil, fmt.Errorf("failed to scan account value: %w", err)
		}
		row.SnapshotDate = toUTCDate(row.SnapshotDate)
		values = append(values, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate account values: %w", err)
	}

	return values, nil
}

// toUTCDate normalizes a scanned DATE column to UTC midnight. The driver
// returns DATE values in the session location, which would break date
// arithmetic and map keys downstream.
func toUTCDate(t time.Time) time.Time {
	return domain.Date(t.Year(), t.Month(), t.Day())
}
