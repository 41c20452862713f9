// Package projection computes retirement capital projections from a monthly
// contribution stream under a small set of named rate scenarios.
//
// Everything in this package is pure: an Engine holds only its validated
// Policy and may be shared by any number of goroutines.
package projection

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/Martingim-10/retirex/pkg/constants"
	"github.com/Martingim-10/retirex/pkg/mathutil"
)

// Currency is the denomination requested for a quote.
type Currency string

const (
	// CurrencyLocal is the default denomination.
	CurrencyLocal Currency = "local"
	// CurrencyUSD adds the USD scenario to the result.
	CurrencyUSD Currency = "usd"
)

// ParseCurrency normalizes a currency code. Empty means local.
func ParseCurrency(code string) (Currency, error) {
	switch Currency(strings.ToLower(strings.TrimSpace(code))) {
	case "", CurrencyLocal:
		return CurrencyLocal, nil
	case CurrencyUSD:
		return CurrencyUSD, nil
	default:
		return "", invalid("currency", "unsupported currency %q", code)
	}
}

// Request is a single quote request.
type Request struct {
	CurrentAge          int
	RetirementAge       int
	MonthlyContribution float64
	Currency            string
	// Gender is echoed back untouched; it does not affect the computation.
	Gender string
}

// ScenarioResult is the capital projected under one scenario.
type ScenarioResult struct {
	Name        string
	AnnualRate  float64
	MonthlyRate float64
	Capital     int64
}

// Result is a complete projection. RealisticUSD is set only for USD quotes.
type Result struct {
	Method         Method
	Currency       Currency
	Months         int
	Contribution   float64
	PurePremium    float64
	Gender         string
	Official       ScenarioResult
	RealisticLocal ScenarioResult
	RealisticUSD   *ScenarioResult
}

// Scenarios lists the populated scenario results in presentation order.
func (r Result) Scenarios() []ScenarioResult {
	out := []ScenarioResult{r.Official, r.RealisticLocal}
	if r.RealisticUSD != nil {
		out = append(out, *r.RealisticUSD)
	}
	return out
}

// Engine evaluates requests against a fixed Policy.
type Engine struct {
	policy Policy
}

// NewEngine validates the policy and returns an engine bound to it.
func NewEngine(policy Policy) (*Engine, error) {
	method, err := ParseMethod(string(policy.Method))
	if err != nil {
		return nil, fmt.Errorf("invalid projection policy: %w", err)
	}
	policy.Method = method
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid projection policy: %w", err)
	}
	return &Engine{policy: policy}, nil
}

// Policy returns a copy of the engine's policy.
func (e *Engine) Policy() Policy {
	return e.policy
}

// Validate checks a request against the engine's invariants without
// computing anything.
func (e *Engine) Validate(req Request) error {
	if req.CurrentAge <= 0 {
		return invalid("current_age", "is required and must be a positive number of years")
	}
	if req.CurrentAge > constants.MaxAge {
		return invalid("current_age", "must be at most %d", constants.MaxAge)
	}
	if req.RetirementAge <= 0 {
		return invalid("retirement_age", "is required and must be a positive number of years")
	}
	if req.RetirementAge > constants.MaxAge {
		return invalid("retirement_age", "must be at most %d", constants.MaxAge)
	}
	if req.RetirementAge <= req.CurrentAge {
		return invalid("retirement_age", "must be greater than current_age (%d <= %d)", req.RetirementAge, req.CurrentAge)
	}
	if !mathutil.IsFinite(req.MonthlyContribution) || req.MonthlyContribution <= 0 {
		return invalid("monthly_contribution", "is required and must be greater than zero")
	}
	if req.MonthlyContribution > constants.MaxMonthlyContribution {
		return invalid("monthly_contribution", "must be at most %.0f", constants.MaxMonthlyContribution)
	}
	if floor := e.policy.MinimumContribution; floor > 0 && req.MonthlyContribution < floor {
		return invalid("monthly_contribution", "the minimum monthly contribution is %.0f", floor)
	}
	if _, err := ParseCurrency(req.Currency); err != nil {
		return err
	}
	return nil
}

// Project validates the request and computes every applicable scenario. It
// returns either a complete Result or an error, never a partial result.
func (e *Engine) Project(req Request) (Result, error) {
	if err := e.Validate(req); err != nil {
		return Result{}, err
	}
	currency, _ := ParseCurrency(req.Currency)

	months := (req.RetirementAge - req.CurrentAge) * constants.MonthsPerYear
	result := Result{
		Method:       e.policy.Method,
		Currency:     currency,
		Months:       months,
		Contribution: req.MonthlyContribution,
		Gender:       req.Gender,
	}

	base := req.MonthlyContribution
	if e.policy.Method == MethodActuarial {
		base = PurePremium(req.MonthlyContribution, e.policy.TariffLoading, e.policy.ExpenseCharge)
		result.PurePremium = base
	}

	for _, scenario := range e.policy.Scenarios(currency) {
		sr, err := e.project(scenario, base, months)
		if err != nil {
			return Result{}, err
		}
		switch scenario.Name {
		case ScenarioOfficial:
			result.Official = sr
		case ScenarioRealisticLocal:
			result.RealisticLocal = sr
		case ScenarioRealisticUSD:
			usd := sr
			result.RealisticUSD = &usd
		}
	}
	return result, nil
}

func (e *Engine) project(scenario Scenario, base float64, months int) (ScenarioResult, error) {
	rate := MonthlyRate(scenario.AnnualRate)

	var (
		capital float64
		err     error
	)
	switch e.policy.Method {
	case MethodAnnuity:
		capital, err = FutureValueAnnuity(base, rate, months)
	default:
		var rfu float64
		rfu, err = ReserveFactor(rate, months)
		capital = base * rfu
	}
	// Ages, contribution and policy rates are all bounded and finite by now,
	// so an overflow here comes from the input combination.
	if errors.Is(err, ErrComputation) || math.IsInf(capital, 0) || math.Abs(capital) >= math.MaxInt64 {
		return ScenarioResult{}, capitalOutOfRange(scenario.Name)
	}
	if err != nil {
		return ScenarioResult{}, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}
	if math.IsNaN(capital) {
		return ScenarioResult{}, fmt.Errorf("%w: scenario %s capital is NaN", ErrComputation, scenario.Name)
	}

	return ScenarioResult{
		Name:        scenario.Name,
		AnnualRate:  scenario.AnnualRate,
		MonthlyRate: rate,
		Capital:     RoundCapital(capital),
	}, nil
}

func capitalOutOfRange(scenario string) error {
	return &ValidationError{
		Message: fmt.Sprintf("%s for scenario %s; shorten the horizon or lower the contribution", ErrCapitalOutOfRange, scenario),
		Err:     ErrCapitalOutOfRange,
	}
}
