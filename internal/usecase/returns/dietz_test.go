package returns

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepwise/analytics-backend/internal/domain"
)

func TestComputeModifiedDietz_MidpointFlow(t *testing.T) {
	// 100-day window, one deposit exactly at the midpoint. The deposit is
	// invested for half the window, so it contributes half its amount to the
	// capital base.
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.April, 10)
	require.Equal(t, int64(100), domain.DaysBetween(begin, end))

	flows := []domain.CashFlowEvent{
		{Date: begin.AddDate(0, 0, 50), AmountCents: 5000},
	}

	calc, err := ComputeModifiedDietz(begin, end, 100000, 115000, flows, false)
	require.NoError(t, err)

	assert.Equal(t, int64(100), calc.IntervalDays)
	assert.Equal(t, int64(5000), calc.NetFlowCents)
	assert.Equal(t, int64(10000), calc.ProfitCents)
	assert.Equal(t, int64(102500), calc.WeightedCapitalCents)

	require.NotNil(t, calc.ReturnRate)
	assert.InDelta(t, 10000.0/102500.0, *calc.ReturnRate, 1e-12)
	assert.InDelta(t, 0.09756098, *RoundRate(calc.ReturnRate), 1e-9)

	require.NotNil(t, calc.AnnualizedRate)
	assert.Greater(t, *calc.AnnualizedRate, *calc.ReturnRate)

	require.Len(t, calc.Flows, 1)
	assert.Equal(t, 0.5, calc.Flows[0].Weight)
}

func TestComputeModifiedDietz_NoFlows(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.December, 31)

	calc, err := ComputeModifiedDietz(begin, end, 100000, 110000, nil, false)
	require.NoError(t, err)

	assert.Equal(t, int64(0), calc.NetFlowCents)
	assert.Equal(t, int64(10000), calc.ProfitCents)
	assert.Equal(t, int64(100000), calc.WeightedCapitalCents)
	require.NotNil(t, calc.ReturnRate)
	assert.InDelta(t, 0.1, *calc.ReturnRate, 1e-12)
}

func TestComputeModifiedDietz_BoundaryWeights(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.January, 11)

	flows := []domain.CashFlowEvent{
		{Date: begin, AmountCents: 1000},
		{Date: end, AmountCents: 2000},
	}

	calc, err := ComputeModifiedDietz(begin, end, 100000, 103000, flows, false)
	require.NoError(t, err)

	// A flow on the window start weighs 1, on the window end 0.
	require.Len(t, calc.Flows, 2)
	assert.Equal(t, 1.0, calc.Flows[0].Weight)
	assert.Equal(t, 0.0, calc.Flows[1].Weight)
	assert.Equal(t, int64(101000), calc.WeightedCapitalCents)
}

func TestComputeModifiedDietz_NonPositiveCapital(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.February, 1)

	// Withdrawal on the first day wipes out the entire capital base.
	flows := []domain.CashFlowEvent{
		{Date: begin, AmountCents: -100000},
	}

	calc, err := ComputeModifiedDietz(begin, end, 100000, 0, flows, false)
	require.NoError(t, err)

	assert.Nil(t, calc.ReturnRate)
	assert.Nil(t, calc.AnnualizedRate)
	assert.NotEmpty(t, calc.Note)
	// Integer fields stay defined even when the rate is not.
	assert.Equal(t, int64(-100000), calc.NetFlowCents)
	assert.Equal(t, int64(0), calc.ProfitCents)
}

func TestComputeModifiedDietz_ShortWindowNotAnnualized(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.January, 4)

	calc, err := ComputeModifiedDietz(begin, end, 100000, 101000, nil, false)
	require.NoError(t, err)

	require.NotNil(t, calc.ReturnRate)
	assert.Nil(t, calc.AnnualizedRate)
}

func TestComputeModifiedDietz_TotalLossNotAnnualized(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.June, 1)

	calc, err := ComputeModifiedDietz(begin, end, 100000, 0, nil, false)
	require.NoError(t, err)

	require.NotNil(t, calc.ReturnRate)
	assert.InDelta(t, -1.0, *calc.ReturnRate, 1e-12)
	// 1 + r == 0: the annualized power is undefined.
	assert.Nil(t, calc.AnnualizedRate)
}

func TestComputeModifiedDietz_ZeroInterval(t *testing.T) {
	day := domain.Date(2024, time.January, 1)

	_, err := ComputeModifiedDietz(day, day, 100000, 100000, nil, false)
	require.Error(t, err)
	category, _ := domain.CategoryOf(err)
	assert.Equal(t, domain.CategoryNoData, category)

	calc, err := ComputeModifiedDietz(day, day, 100000, 100000, nil, true)
	require.NoError(t, err)
	require.NotNil(t, calc.ReturnRate)
	assert.Equal(t, 0.0, *calc.ReturnRate)
}

func TestComputeModifiedDietz_InvertedDates(t *testing.T) {
	_, err := ComputeModifiedDietz(
		domain.Date(2024, time.February, 1), domain.Date(2024, time.January, 1),
		100000, 100000, nil, false,
	)
	require.Error(t, err)
	category, _ := domain.CategoryOf(err)
	assert.Equal(t, domain.CategoryInvalidRange, category)
}

func TestComputeModifiedDietz_ProfitIdentity(t *testing.T) {
	begin := domain.Date(2024, time.January, 1)
	end := domain.Date(2024, time.July, 1)

	flows := []domain.CashFlowEvent{
		{Date: begin.AddDate(0, 0, 30), AmountCents: 7000},
		{Date: begin.AddDate(0, 0, 90), AmountCents: -3000},
	}

	calc, err := ComputeModifiedDietz(begin, end, 250000, 270000, flows, false)
	require.NoError(t, err)

	assert.Equal(t, calc.ProfitCents, 270000-250000-calc.NetFlowCents)
	assert.Equal(t, int64(4000), calc.NetFlowCents)
}
