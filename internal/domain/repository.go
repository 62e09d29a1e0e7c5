package domain

import (
	"context"
	"time"
)

// SnapshotRepository supplies ordered investment snapshot history. All reads
// are side-effect free; the engine never writes through this interface.
type SnapshotRepository interface {
	// AccountBounds returns the display name and snapshot coverage of one
	// account, or a NO_DATA_ERROR when the account has no records.
	AccountBounds(ctx context.Context, accountID string) (*AccountBounds, error)

	// AccountHistory returns every snapshot record of an account with
	// snapshot_date <= through, ordered by date ascending.
	AccountHistory(ctx context.Context, accountID string, through time.Time) ([]SnapshotRecord, error)

	// ListAccounts returns the account catalog ordered by latest snapshot
	// date descending, then by account name.
	ListAccounts(ctx context.Context) ([]AccountInfo, error)

	// PortfolioBounds returns the snapshot coverage across all accounts, or
	// a NO_DATA_ERROR when no records exist at all.
	PortfolioBounds(ctx context.Context) (*PortfolioBounds, error)

	// PortfolioHistory returns every snapshot record of every account with
	// snapshot_date <= through, ordered by account id then date ascending.
	PortfolioHistory(ctx context.Context, through time.Time) ([]AccountSnapshotRecord, error)

	// LatestValuesPerAccount returns, per account, the latest snapshot with
	// a positive value on or before asOf, ordered by value descending then
	// account name.
	LatestValuesPerAccount(ctx context.Context, asOf time.Time) ([]AccountValueRow, error)
}

// ValuationRepository supplies dated per-asset-class account valuations
// (cash, real estate, liability).
type ValuationRepository interface {
	// Bounds returns the date coverage of the valuation store, or nil when
	// the store is empty.
	Bounds(ctx context.Context) (*ValuationBounds, error)

	// LatestPerAccount returns, per account, the latest valuation of the
	// given class on or before asOf, ordered by value descending then
	// account name.
	LatestPerAccount(ctx context.Context, class AssetClass, asOf time.Time) ([]ValuationRow, error)

	// ClassHistory returns every valuation of the given class with
	// snapshot_date <= through, ordered by account id then date ascending.
	ClassHistory(ctx context.Context, class AssetClass, through time.Time) ([]AccountSnapshotRecord, error)
}
