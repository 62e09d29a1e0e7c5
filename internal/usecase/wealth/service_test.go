package wealth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// MockSnapshotRepository is a mock implementation of domain.SnapshotRepository for testing
type MockSnapshotRepository struct {
	mock.Mock
}

func (m *MockSnapshotRepository) AccountBounds(ctx context.Context, accountID string) (*domain.AccountBounds, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.AccountBounds), args.Error(1)
}

func (m *MockSnapshotRepository) AccountHistory(ctx context.Context, accountID string, through time.Time) ([]domain.SnapshotRecord, error) {
	args := m.Called(ctx, accountID, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.SnapshotRecord), args.Error(1)
}

func (m *MockSnapshotRepository) ListAccounts(ctx context.Context) ([]domain.AccountInfo, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountInfo), args.Error(1)
}

func (m *MockSnapshotRepository) PortfolioBounds(ctx context.Context) (*domain.PortfolioBounds, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PortfolioBounds), args.Error(1)
}

func (m *MockSnapshotRepository) PortfolioHistory(ctx context.Context, through time.Time) ([]domain.AccountSnapshotRecord, error) {
	args := m.Called(ctx, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountSnapshotRecord), args.Error(1)
}

func (m *MockSnapshotRepository) LatestValuesPerAccount(ctx context.Context, asOf time.Time) ([]domain.AccountValueRow, error) {
	args := m.Called(ctx, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountValueRow), args.Error(1)
}

// MockValuationRepository is a mock implementation of domain.ValuationRepository for testing
type MockValuationRepository struct {
	mock.Mock
}

func (m *MockValuationRepository) Bounds(ctx context.Context) (*domain.ValuationBounds, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ValuationBounds), args.Error(1)
}

func (m *MockValuationRepository) LatestPerAccount(ctx context.Context, class domain.AssetClass, asOf time.Time) ([]domain.ValuationRow, error) {
	args := m.Called(ctx, class, asOf)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ValuationRow), args.Error(1)
}

func (m *MockValuationRepository) ClassHistory(ctx context.Context, class domain.AssetClass, through time.Time) ([]domain.AccountSnapshotRecord, error) {
	args := m.Called(ctx, class, through)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.AccountSnapshotRecord), args.Error(1)
}

func allClasses() Filters {
	return Filters{IncludeInvestment: true, IncludeCash: true, IncludeRealEstate: true, IncludeLiability: true}
}

func overviewFixture(mockSnapshots *MockSnapshotRepository, mockValuations *MockValuationRepository, asOf time.Time) {
	mockSnapshots.On("PortfolioBounds", mock.Anything).
		Return(&domain.PortfolioBounds{
			Earliest:     domain.Date(2024, time.January, 1),
			Latest:       asOf,
			AccountCount: 2,
		}, nil)
	mockValuations.On("Bounds", mock.Anything).
		Return(&domain.ValuationBounds{
			Earliest: domain.Date(2024, time.January, 1),
			Latest:   asOf.AddDate(0, 0, -5),
		}, nil)

	mockSnapshots.On("LatestValuesPerAccount", mock.Anything, asOf).
		Return([]domain.AccountValueRow{
			{AccountID: "inv-1", AccountName: "Broker A", SnapshotDate: asOf, ValueCents: 300000},
		}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassCash, asOf).
		Return([]domain.ValuationRow{
			{AccountID: "cash-1", AccountName: "Checking", AssetClass: domain.AssetClassCash, SnapshotDate: asOf.AddDate(0, 0, -5), ValueCents: 150000},
		}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassRealEstate, asOf).
		Return([]domain.ValuationRow{
			{AccountID: "re-1", AccountName: "Apartment", AssetClass: domain.AssetClassRealEstate, SnapshotDate: asOf, ValueCents: 50000},
		}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassLiability, asOf).
		Return([]domain.ValuationRow{
			{AccountID: "loan-1", AccountName: "Mortgage", AssetClass: domain.AssetClassLiability, SnapshotDate: asOf, ValueCents: 120000},
		}, nil)
}

func TestOverview_LiabilityExcluded(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	asOf := domain.Date(2024, time.June, 15)
	overviewFixture(mockSnapshots, mockValuations, asOf)

	filters := allClasses()
	filters.IncludeLiability = false
	res, err := service.Overview(ctx, OverviewQuery{Filters: filters})

	require.NoError(t, err)
	assert.Equal(t, asOf, res.AsOf)

	s := res.Summary
	assert.Equal(t, int64(500000), s.GrossAssetsTotalCents)
	// The liability class total is still reported even though it is
	// excluded from the net figure.
	assert.Equal(t, int64(120000), s.LiabilityTotalCents)
	assert.Equal(t, int64(500000), s.NetAssetTotalCents)
	assert.Equal(t, int64(0), s.ReconciliationDeltaCents)
	assert.True(t, s.ReconciliationOK)

	// No liability rows are emitted.
	require.Len(t, res.Rows, 3)
	for _, row := range res.Rows {
		assert.NotEqual(t, domain.AssetClassLiability, row.AssetClass)
	}
}

func TestOverview_AllClassesSelected(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	asOf := domain.Date(2024, time.June, 15)
	overviewFixture(mockSnapshots, mockValuations, asOf)

	res, err := service.Overview(ctx, OverviewQuery{Filters: allClasses()})

	require.NoError(t, err)
	s := res.Summary
	assert.Equal(t, int64(500000), s.GrossAssetsTotalCents)
	assert.Equal(t, int64(380000), s.NetAssetTotalCents)
	assert.Equal(t, int64(500000), s.SelectedRowsAssetsTotalCents)
	assert.Equal(t, int64(120000), s.SelectedRowsLiabilityTotalCents)
	assert.True(t, s.ReconciliationOK)

	// Rows are grouped by class: investment, cash, real estate, liability.
	require.Len(t, res.Rows, 4)
	assert.Equal(t, domain.AssetClassInvestment, res.Rows[0].AssetClass)
	assert.Equal(t, domain.AssetClassLiability, res.Rows[3].AssetClass)

	// The cash valuation is five days old as of the effective date.
	assert.Equal(t, int64(5), res.Rows[1].StaleDays)
	assert.Equal(t, 1, s.StaleAccountCount)
}

func TestOverview_AsOfClampedToLatest(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	asOf := domain.Date(2024, time.June, 15)
	overviewFixture(mockSnapshots, mockValuations, asOf)

	res, err := service.Overview(ctx, OverviewQuery{AsOf: "2030-01-01", Filters: allClasses()})

	require.NoError(t, err)
	assert.Equal(t, asOf, res.AsOf)
	assert.Equal(t, domain.Date(2030, time.January, 1), res.RequestedAsOf)
}

func TestOverview_AllFlagsOffIsValidation(t *testing.T) {
	ctx := context.Background()
	service := NewService(new(MockSnapshotRepository), new(MockValuationRepository))

	_, err := service.Overview(ctx, OverviewQuery{Filters: Filters{}})

	require.Error(t, err)
	category, _ := domain.CategoryOf(err)
	assert.Equal(t, domain.CategoryValidation, category)
}

func TestOverview_NoDataAnywhere(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	mockSnapshots.On("PortfolioBounds", mock.Anything).
		Return(nil, domain.NewNoDataError("no investment snapshot records exist"))
	mockValuations.On("Bounds", mock.Anything).Return(nil, nil)

	_, err := service.Overview(ctx, OverviewQuery{Filters: allClasses()})

	require.Error(t, err)
	category, _ := domain.CategoryOf(err)
	assert.Equal(t, domain.CategoryNoData, category)
}

func TestOverview_ValuationsOnly(t *testing.T) {
	// Investment store empty, valuation store populated: the overview still
	// works off the valuation coverage.
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	asOf := domain.Date(2024, time.June, 15)
	mockSnapshots.On("PortfolioBounds", mock.Anything).
		Return(nil, domain.NewNoDataError("no investment snapshot records exist"))
	mockValuations.On("Bounds", mock.Anything).
		Return(&domain.ValuationBounds{Earliest: domain.Date(2024, time.January, 1), Latest: asOf}, nil)
	mockSnapshots.On("LatestValuesPerAccount", mock.Anything, asOf).
		Return([]domain.AccountValueRow{}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassCash, asOf).
		Return([]domain.ValuationRow{
			{AccountID: "cash-1", AccountName: "Checking", AssetClass: domain.AssetClassCash, SnapshotDate: asOf, ValueCents: 80000},
		}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassRealEstate, asOf).
		Return([]domain.ValuationRow{}, nil)
	mockValuations.On("LatestPerAccount", mock.Anything, domain.AssetClassLiability, asOf).
		Return([]domain.ValuationRow{}, nil)

	res, err := service.Overview(ctx, OverviewQuery{Filters: allClasses()})

	require.NoError(t, err)
	assert.Equal(t, int64(80000), res.Summary.NetAssetTotalCents)
}

func TestCurve_BuildsClassSeries(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	earliest := domain.Date(2024, time.January, 1)
	latest := domain.Date(2024, time.February, 1)

	mockSnapshots.On("PortfolioBounds", mock.Anything).
		Return(&domain.PortfolioBounds{Earliest: earliest, Latest: latest, AccountCount: 1}, nil)
	mockValuations.On("Bounds", mock.Anything).
		Return(&domain.ValuationBounds{Earliest: earliest, Latest: latest}, nil)

	mockSnapshots.On("PortfolioHistory", mock.Anything, latest).
		Return([]domain.AccountSnapshotRecord{
			{AccountID: "inv-1", Date: earliest, ValueCents: 100000},
			{AccountID: "inv-1", Date: latest, ValueCents: 110000},
		}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassCash, latest).
		Return([]domain.AccountSnapshotRecord{
			{AccountID: "cash-1", Date: earliest, ValueCents: 50000},
		}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassRealEstate, latest).
		Return([]domain.AccountSnapshotRecord{}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassLiability, latest).
		Return([]domain.AccountSnapshotRecord{
			{AccountID: "loan-1", Date: earliest, ValueCents: 40000},
			{AccountID: "loan-1", Date: latest, ValueCents: 38000},
		}, nil)

	res, err := service.Curve(ctx, CurveQuery{Preset: "since_inception", Filters: allClasses()})

	require.NoError(t, err)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, 2, res.Points)

	first, last := res.Rows[0], res.Rows[1]
	assert.Equal(t, int64(150000), first.WealthTotalCents)
	assert.Equal(t, int64(110000), first.NetAssetTotalCents)
	// Cash carries forward; the loan amortizes.
	assert.Equal(t, int64(160000), last.WealthTotalCents)
	assert.Equal(t, int64(122000), last.NetAssetTotalCents)
	assert.Equal(t, int64(10000), last.WealthNetGrowthCents)
	assert.Equal(t, int64(-2000), last.LiabilityNetGrowthCents)
	assert.Equal(t, int64(12000), last.NetAssetNetGrowthCents)

	// Summary spans equal the first and last rows exactly.
	assert.Equal(t, first.WealthTotalCents, res.Summary.Wealth.StartCents)
	assert.Equal(t, last.WealthTotalCents, res.Summary.Wealth.EndCents)
	assert.Equal(t, last.NetAssetNetGrowthCents, res.Summary.NetAsset.NetGrowthCents)
	require.NotNil(t, res.Summary.Liability.ChangePct)
	assert.InDelta(t, -0.05, *res.Summary.Liability.ChangePct, 1e-8)
}

func TestCurve_LiabilityExcludedFromNetOnly(t *testing.T) {
	ctx := context.Background()
	mockSnapshots := new(MockSnapshotRepository)
	mockValuations := new(MockValuationRepository)
	service := NewService(mockSnapshots, mockValuations)

	earliest := domain.Date(2024, time.January, 1)
	latest := domain.Date(2024, time.February, 1)

	mockSnapshots.On("PortfolioBounds", mock.Anything).
		Return(&domain.PortfolioBounds{Earliest: earliest, Latest: latest, AccountCount: 1}, nil)
	mockValuations.On("Bounds", mock.Anything).Return(nil, nil)

	mockSnapshots.On("PortfolioHistory", mock.Anything, latest).
		Return([]domain.AccountSnapshotRecord{
			{AccountID: "inv-1", Date: earliest, ValueCents: 100000},
			{AccountID: "inv-1", Date: latest, ValueCents: 110000},
		}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassCash, latest).
		Return([]domain.AccountSnapshotRecord{}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassRealEstate, latest).
		Return([]domain.AccountSnapshotRecord{}, nil)
	mockValuations.On("ClassHistory", mock.Anything, domain.AssetClassLiability, latest).
		Return([]domain.AccountSnapshotRecord{
			{AccountID: "loan-1", Date: earliest, ValueCents: 40000},
		}, nil)

	filters := allClasses()
	filters.IncludeLiability = false
	res, err := service.Curve(ctx, CurveQuery{Preset: "since_inception", Filters: filters})

	require.NoError(t, err)
	last := res.Rows[len(res.Rows)-1]
	// The liability series is still reported per class, but never subtracted.
	assert.Equal(t, int64(40000), last.LiabilityTotalCents)
	assert.Equal(t, last.WealthTotalCents, last.NetAssetTotalCents)
}
