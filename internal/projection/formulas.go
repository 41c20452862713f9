package projection

import (
	"fmt"
	"math"

	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/mathutil"
)

// MonthlyRate converts an effective annual rate into the equivalent effective
// monthly rate: (1+a)^(1/12) - 1.
func MonthlyRate(annualRate float64) float64 {
	return math.Pow(1+annualRate, 1.0/constants.MonthsPerYear) - 1
}

// FutureValueAnnuity returns the accumulated value of n end-of-month
// contributions compounded at the monthly rate i:
//
//	FV = contribution * ((1+i)^n - 1) / i
func FutureValueAnnuity(contribution, monthlyRate float64, months int) (float64, error) {
	if err := checkTerm(monthlyRate, months); err != nil {
		return 0, err
	}

	growth := math.Pow(1+monthlyRate, float64(months))
	fv := contribution * (growth - 1) / monthlyRate
	if !mathutil.IsFinite(fv) {
		return 0, fmt.Errorf("%w: annuity value is not finite (rate %g, months %d)", ErrComputation, monthlyRate, months)
	}
	return fv, nil
}

// ReserveFactor is the actuarial multiplier that turns a level monthly pure
// premium into its accumulated value after n months:
//
//	RFU(i, n) = [(1+i)^n * (1 - (1+i)^-n)] / (1 - (1+i)^-1)
func ReserveFactor(monthlyRate float64, months int) (float64, error) {
	if err := checkTerm(monthlyRate, months); err != nil {
		return 0, err
	}

	base := 1 + monthlyRate
	n := float64(months)
	rfu := (math.Pow(base, n) * (1 - math.Pow(base, -n))) / (1 - math.Pow(base, -1))
	if !mathutil.IsFinite(rfu) {
		return 0, fmt.Errorf("%w: reserve factor is not finite (rate %g, months %d)", ErrComputation, monthlyRate, months)
	}
	return rfu, nil
}

// PurePremium strips the tariff loading and then the expense charge from a
// nominal contribution.
func PurePremium(contribution, tariffLoading, expenseCharge float64) float64 {
	return (contribution / tariffLoading) * (1 - expenseCharge)
}

// RoundCapital rounds a capital figure to whole currency units, half away
// from zero.
func RoundCapital(capital float64) int64 {
	return mathutil.RoundWhole(capital)
}

func checkTerm(monthlyRate float64, months int) error {
	if months < 1 {
		return invalid("months", "must be at least 1, got %d", months)
	}
	if monthlyRate == 0 {
		return &ValidationError{Field: "rate", Message: ErrZeroRate.Error(), Err: ErrZeroRate}
	}
	if monthlyRate <= -1 || !mathutil.IsFinite(monthlyRate) {
		return invalid("rate", "monthly rate %g is out of range", monthlyRate)
	}
	return nil
}
