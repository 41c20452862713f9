package projection

import (
	"fmt"
	"strings"

	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/mathutil"
)

// Method selects the closed-form formula used to accumulate contributions.
type Method string

const (
	// MethodAnnuity is the future value of an ordinary monthly annuity.
	MethodAnnuity Method = "annuity"
	// MethodActuarial applies the reserve factor to the pure premium.
	MethodActuarial Method = "actuarial"
)

// ParseMethod resolves a method name; the empty string selects the default.
func ParseMethod(name string) (Method, error) {
	switch Method(strings.ToLower(strings.TrimSpace(name))) {
	case "":
		return Method(constants.DefaultProjectionMethod), nil
	case MethodAnnuity:
		return MethodAnnuity, nil
	case MethodActuarial:
		return MethodActuarial, nil
	default:
		return "", fmt.Errorf("unknown projection method %q (expected %s or %s)", name, MethodAnnuity, MethodActuarial)
	}
}

// Scenario names as they appear in results.
const (
	ScenarioOfficial       = "official"
	ScenarioRealisticLocal = "realistic_local_currency"
	ScenarioRealisticUSD   = "realistic_usd"
)

// Scenario is a named annual-rate assumption.
type Scenario struct {
	Name       string
	AnnualRate float64
}

// Policy holds every business rule that has changed between deployments of
// the service. Operators change these through configuration, never in the
// formulas.
type Policy struct {
	Method              Method
	OfficialAnnualRate  float64
	RealisticAnnualRate float64
	USDAnnualRate       float64
	TariffLoading       float64
	ExpenseCharge       float64
	// MinimumContribution rejects smaller contributions. Zero disables it.
	MinimumContribution float64
}

// DefaultPolicy returns the canonical policy: actuarial method, 18% official,
// 30% realistic, 2% USD and a hard 40000 minimum.
func DefaultPolicy() Policy {
	return Policy{
		Method:              Method(constants.DefaultProjectionMethod),
		OfficialAnnualRate:  constants.DefaultOfficialAnnualRate,
		RealisticAnnualRate: constants.DefaultRealisticAnnualRate,
		USDAnnualRate:       constants.DefaultUSDAnnualRate,
		TariffLoading:       constants.DefaultTariffLoading,
		ExpenseCharge:       constants.DefaultExpenseCharge,
		MinimumContribution: constants.DefaultMinimumContribution,
	}
}

// Validate checks the policy once, before any request is served.
func (p Policy) Validate() error {
	if _, err := ParseMethod(string(p.Method)); err != nil {
		return err
	}

	rates := []Scenario{
		{Name: ScenarioOfficial, AnnualRate: p.OfficialAnnualRate},
		{Name: ScenarioRealisticLocal, AnnualRate: p.RealisticAnnualRate},
		{Name: ScenarioRealisticUSD, AnnualRate: p.USDAnnualRate},
	}
	for _, s := range rates {
		if !mathutil.IsFinite(s.AnnualRate) {
			return fmt.Errorf("%s annual rate must be finite, got %g", s.Name, s.AnnualRate)
		}
		if s.AnnualRate <= -1 {
			return fmt.Errorf("%s annual rate must be greater than -1, got %g", s.Name, s.AnnualRate)
		}
		if MonthlyRate(s.AnnualRate) == 0 {
			return &ValidationError{Field: s.Name, Message: ErrZeroRate.Error(), Err: ErrZeroRate}
		}
	}
	if p.RealisticAnnualRate < p.OfficialAnnualRate {
		return fmt.Errorf("realistic annual rate %g is below official rate %g", p.RealisticAnnualRate, p.OfficialAnnualRate)
	}

	if !mathutil.IsFinite(p.TariffLoading) || p.TariffLoading <= 0 {
		return fmt.Errorf("tariff loading must be positive, got %g", p.TariffLoading)
	}
	if !mathutil.IsFinite(p.ExpenseCharge) || p.ExpenseCharge < 0 || p.ExpenseCharge >= 1 {
		return fmt.Errorf("expense charge must be in [0, 1), got %g", p.ExpenseCharge)
	}
	if !mathutil.IsFinite(p.MinimumContribution) || p.MinimumContribution < 0 {
		return fmt.Errorf("minimum contribution must not be negative, got %g", p.MinimumContribution)
	}
	return nil
}

// Scenarios returns the scenarios that apply to a quote in the given currency.
func (p Policy) Scenarios(currency Currency) []Scenario {
	scenarios := []Scenario{
		{Name: ScenarioOfficial, AnnualRate: p.OfficialAnnualRate},
		{Name: ScenarioRealisticLocal, AnnualRate: p.RealisticAnnualRate},
	}
	if currency == CurrencyUSD {
		scenarios = append(scenarios, Scenario{Name: ScenarioRealisticUSD, AnnualRate: p.USDAnnualRate})
	}
	return scenarios
}
