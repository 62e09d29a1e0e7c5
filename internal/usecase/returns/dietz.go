package returns

import (
	"math"
	"time"

	"github.com/keepwise/analytics-backend/internal/domain"
)

// AnnualizeMinIntervalDays is the minimum window length for which an
// annualized rate is reported. Shorter windows extrapolate too aggressively
// to be meaningful.
const AnnualizeMinIntervalDays = 7

const noCapitalNote = "weighted capital is not positive; cash-weighted return is undefined"

// WeightedFlow is a cash flow with its Modified Dietz time weight.
// A flow on the first day of the window weighs ~1, on the last day ~0.
type WeightedFlow struct {
	Date        time.Time
	AmountCents int64
	Weight      float64
}

// Calculation is the result of one Modified Dietz computation. ReturnRate and
// AnnualizedRate are nil when undefined: a non-positive weighted capital
// leaves the rate undefined (with Note explaining why), and windows shorter
// than AnnualizeMinIntervalDays are never annualized.
type Calculation struct {
	IntervalDays         int64
	NetFlowCents         int64
	ProfitCents          int64
	WeightedCapitalCents int64
	ReturnRate           *float64
	AnnualizedRate       *float64
	Note                 string
	Flows                []WeightedFlow
}

// ComputeModifiedDietz computes a cash-weighted return over [beginDate,
// endDate]. Integer fields use exact integer arithmetic; the rate is derived
// once, directly from cents inputs. allowZeroInterval permits a degenerate
// single-day window (used for the first point of a curve), which yields a
// zero return when the capital base is positive.
func ComputeModifiedDietz(
	beginDate, endDate time.Time,
	beginCents, endCents int64,
	flows []domain.CashFlowEvent,
	allowZeroInterval bool,
) (*Calculation, error) {
	intervalDays := domain.DaysBetween(beginDate, endDate)
	if intervalDays < 0 {
		return nil, domain.NewInvalidRangeError("end date must not precede begin date")
	}
	if intervalDays == 0 && !allowZeroInterval {
		return nil, domain.NewNoDataError("fewer than two distinct snapshots in range; cannot compute a return")
	}

	var netFlowCents int64
	for _, f := range flows {
		netFlowCents += f.AmountCents
	}
	profitCents := endCents - beginCents - netFlowCents

	weightedFlow := 0.0
	weighted := make([]WeightedFlow, 0, len(flows))
	for _, f := range flows {
		if f.AmountCents == 0 {
			continue
		}
		weight := 0.0
		if intervalDays > 0 {
			weight = float64(domain.DaysBetween(f.Date, endDate)) / float64(intervalDays)
		}
		weightedFlow += float64(f.AmountCents) * weight
		weighted = append(weighted, WeightedFlow{
			Date:        f.Date,
			AmountCents: f.AmountCents,
			Weight:      domain.RoundTo(weight, 6),
		})
	}

	denominator := float64(beginCents) + weightedFlow
	calc := &Calculation{
		IntervalDays:         intervalDays,
		NetFlowCents:         netFlowCents,
		ProfitCents:          profitCents,
		WeightedCapitalCents: int64(math.Round(denominator)),
		Flows:                weighted,
	}

	switch {
	case denominator <= 0:
		calc.Note = noCapitalNote
	case intervalDays == 0:
		zero := 0.0
		calc.ReturnRate = &zero
	default:
		rate := float64(profitCents) / denominator
		calc.ReturnRate = &rate
		if intervalDays >= AnnualizeMinIntervalDays && 1+rate > 0 {
			annualized := math.Pow(1+rate, 365/float64(intervalDays)) - 1
			calc.AnnualizedRate = &annualized
		}
	}
	return calc, nil
}

// RoundRate rounds a rate pointer to 8 decimal places, the precision at
// which independent implementations must agree.
func RoundRate(v *float64) *float64 {
	if v == nil {
		return nil
	}
	r := domain.RoundTo(*v, 8)
	return &r
}
