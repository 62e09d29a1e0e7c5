package returns

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/keepwise/analytics-backend/internal/domain"
)

func batchFixture(mockRepo *MockSnapshotRepository, ctx context.Context) (time.Time, time.Time) {
	earliest := domain.Date(2024, time.January, 1)
	latest := domain.Date(2024, time.April, 10)

	catalog := []domain.AccountInfo{
		{ID: "acct-1", Name: "Broker A", RecordCount: 2, FirstSnapshotDate: earliest, LatestSnapshotDate: latest},
		{ID: "acct-2", Name: "Broker B", RecordCount: 2, FirstSnapshotDate: earliest, LatestSnapshotDate: latest},
		{ID: "acct-3", Name: "Broker C", RecordCount: 1, FirstSnapshotDate: latest, LatestSnapshotDate: latest},
	}
	mockRepo.On("ListAccounts", ctx).Return(catalog, nil)

	mockRepo.On("AccountBounds", mock.Anything, "acct-1").
		Return(&domain.AccountBounds{AccountName: "Broker A", Earliest: earliest, Latest: latest}, nil)
	mockRepo.On("AccountHistory", mock.Anything, "acct-1", latest).
		Return([]domain.SnapshotRecord{
			{Date: earliest, ValueCents: 100000},
			{Date: latest, ValueCents: 110000},
		}, nil)

	mockRepo.On("AccountBounds", mock.Anything, "acct-2").
		Return(&domain.AccountBounds{AccountName: "Broker B", Earliest: earliest, Latest: latest}, nil)
	mockRepo.On("AccountHistory", mock.Anything, "acct-2", latest).
		Return([]domain.SnapshotRecord{
			{Date: earliest, ValueCents: 200000},
			{Date: latest, ValueCents: 210000},
		}, nil)

	// A single snapshot cannot establish a return.
	mockRepo.On("AccountBounds", mock.Anything, "acct-3").
		Return(&domain.AccountBounds{AccountName: "Broker C", Earliest: latest, Latest: latest}, nil)
	mockRepo.On("AccountHistory", mock.Anything, "acct-3", latest).
		Return([]domain.SnapshotRecord{{Date: latest, ValueCents: 50000}}, nil)

	return earliest, latest
}

func TestBatchReturns_IsolatesPerAccountErrors(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockSnapshotRepository)
	service := NewService(mockRepo)
	batchFixture(mockRepo, ctx)

	res, err := service.BatchReturns(ctx, BatchQuery{Preset: "since_inception"})

	require.NoError(t, err)
	assert.Equal(t, 3, res.Summary.AccountCount)
	assert.Equal(t, 2, res.Summary.ComputedCount)
	assert.Equal(t, 1, res.Summary.ErrorCount)

	require.Len(t, res.Rows, 2)
	require.Len(t, res.Errors, 1)
	assert.Equal(t, "acct-3", res.Errors[0].AccountID)
	assert.Equal(t, domain.CategoryNoData, res.Errors[0].Category)

	// 10% beats 5%: rows are ordered by return rate descending.
	assert.Equal(t, "acct-1", res.Rows[0].AccountID)
	assert.Equal(t, "acct-2", res.Rows[1].AccountID)

	require.NotNil(t, res.Summary.AvgReturnRate)
	assert.InDelta(t, 0.075, *res.Summary.AvgReturnRate, 1e-8)
}

func TestBatchReturns_KeywordFilter(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockSnapshotRepository)
	service := NewService(mockRepo)
	batchFixture(mockRepo, ctx)

	res, err := service.BatchReturns(ctx, BatchQuery{Preset: "since_inception", Keyword: "broker b"})

	require.NoError(t, err)
	assert.Equal(t, 1, res.Summary.AccountCount)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "acct-2", res.Rows[0].AccountID)
}

func TestBatchReturns_LimitClamp(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockSnapshotRepository)
	service := NewService(mockRepo)
	batchFixture(mockRepo, ctx)

	res, err := service.BatchReturns(ctx, BatchQuery{Preset: "since_inception", Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, 2, res.Summary.AccountCount)
	assert.Equal(t, 2, res.Limit)

	res, err = service.BatchReturns(ctx, BatchQuery{Preset: "since_inception", Limit: 9999})
	require.NoError(t, err)
	assert.Equal(t, maxBatchLimit, res.Limit)

	res, err = service.BatchReturns(ctx, BatchQuery{Preset: "since_inception", Limit: -1})
	require.NoError(t, err)
	assert.Equal(t, defaultBatchLimit, res.Limit)
}

func TestBatchReturns_MalformedBoundFailsWholeRequest(t *testing.T) {
	ctx := context.Background()
	mockRepo := new(MockSnapshotRepository)
	service := NewService(mockRepo)

	_, err := service.BatchReturns(ctx, BatchQuery{Preset: "custom", From: "bogus"})

	require.Error(t, err)
	category, _ := domain.CategoryOf(err)
	assert.Equal(t, domain.CategoryValidation, category)
	mockRepo.AssertNotCalled(t, "ListAccounts")
}
