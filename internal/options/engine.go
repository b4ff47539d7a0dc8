// Package options prices American-style equity options on a Cox-Ross-Rubinstein
// binomial lattice and derives delta and implied volatility from it.
package options

import (
	"math"
	"time"

	"folio/internal/model"
)

const (
	DefaultSteps        = 100
	DefaultRiskFreeRate = 0.05

	// MinVol and MaxVol bound the implied-volatility search.
	MinVol = 0.01
	MaxVol = 3.0

	// DefaultVol is returned by ImpliedVolatility at expiry when the observed
	// price carries time value that cannot exist on the last day.
	DefaultVol = 0.30

	// StabilityFloor is the volatility below which the lattice is not used.
	StabilityFloor = 0.001

	// nearMoneyBand is the relative distance from the strike treated as
	// at-the-money by the low-volatility delta heuristic.
	nearMoneyBand = 0.02

	priceEpsilon = 1e-9
	daysPerYear  = 365.0
)

// Contract is the subset of an option position the pricing routines need.
type Contract struct {
	Type   model.OptionType
	Strike float64
	Expiry time.Time
}

// ContractFor builds a Contract from a classified option position.
func ContractFor(p model.OptionPosition) Contract {
	return Contract{
		Type:   p.OptionType,
		Strike: p.Strike.InexactFloat64(),
		Expiry: p.Expiry,
	}
}

// Engine holds the model parameters. The zero value is not usable; build one
// with NewEngine.
type Engine struct {
	Steps         int
	RiskFreeRate  float64
	DividendYield float64
	Tolerance     float64
	MaxIterations int
}

// Option configures an Engine.
type Option func(*Engine)

func WithSteps(n int) Option            { return func(e *Engine) { e.Steps = n } }
func WithRiskFreeRate(r float64) Option { return func(e *Engine) { e.RiskFreeRate = r } }
func WithDividendYield(q float64) Option {
	return func(e *Engine) { e.DividendYield = q }
}

// NewEngine returns an engine with 100 steps, a 5% flat risk-free rate and a
// flat zero dividend yield.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		Steps:         DefaultSteps,
		RiskFreeRate:  DefaultRiskFreeRate,
		Tolerance:     1e-6,
		MaxIterations: 100,
	}
	for _, o := range opts {
		o(e)
	}
	if e.Steps < 1 {
		e.Steps = DefaultSteps
	}
	return e
}

// Intrinsic is the value of exercising immediately.
func Intrinsic(c Contract, spot float64) float64 {
	if c.Type == model.Put {
		return math.Max(0, c.Strike-spot)
	}
	return math.Max(0, spot-c.Strike)
}

// Price returns the American option value at calcDate. On the expiry date it
// is the intrinsic value.
func (e *Engine) Price(c Contract, spot, vol float64, calcDate time.Time) (float64, error) {
	t, err := e.prepare("price", c, spot, calcDate)
	if err != nil {
		return 0, err
	}
	if t == 0 {
		return Intrinsic(c, spot), nil
	}
	if !(vol > 0) || math.IsInf(vol, 0) {
		return 0, calcErr("price", ErrInvalidInput, "volatility %v", vol)
	}
	if vol < StabilityFloor || e.driftDominated(vol, t) {
		return e.zeroVolPrice(c, spot, t), nil
	}
	price, _, err := e.lattice(c, spot, vol, t)
	return price, err
}

// Delta returns dV/dS in [-1, 1]. At expiry it is 1/0 for calls and -1/0 for
// puts depending on moneyness; below StabilityFloor a moneyness heuristic is
// used instead of the lattice.
func (e *Engine) Delta(c Contract, spot, vol float64, calcDate time.Time) (float64, error) {
	t, err := e.prepare("delta", c, spot, calcDate)
	if err != nil {
		return 0, err
	}
	if t == 0 {
		return expiryDelta(c, spot), nil
	}
	if math.IsNaN(vol) || vol < 0 || math.IsInf(vol, 0) {
		return 0, calcErr("delta", ErrInvalidInput, "volatility %v", vol)
	}
	if vol < StabilityFloor || e.driftDominated(vol, t) {
		return moneynessDelta(c, spot), nil
	}
	_, delta, err := e.lattice(c, spot, vol, t)
	if err != nil {
		return 0, err
	}
	return clamp(delta, -1, 1), nil
}

// prepare validates inputs and returns the year fraction to expiry.
func (e *Engine) prepare(op string, c Contract, spot float64, calcDate time.Time) (float64, error) {
	if c.Type != model.Call && c.Type != model.Put {
		return 0, calcErr(op, ErrInvalidInput, "option type %q", c.Type)
	}
	if !(c.Strike > 0) {
		return 0, calcErr(op, ErrInvalidInput, "strike %v", c.Strike)
	}
	if !(spot > 0) || math.IsInf(spot, 0) {
		return 0, calcErr(op, ErrInvalidInput, "underlying price %v", spot)
	}
	if c.Expiry.IsZero() {
		return 0, calcErr(op, ErrInvalidInput, "missing expiry")
	}
	calc, exp := dateOnly(calcDate), dateOnly(c.Expiry)
	if exp.Before(calc) {
		return 0, calcErr(op, ErrExpired, "expiry %s, calculation date %s",
			exp.Format(time.DateOnly), calc.Format(time.DateOnly))
	}
	return exp.Sub(calc).Hours() / 24 / daysPerYear, nil
}

// lattice runs the CRR tree and returns the root value and the delta taken
// from the first step.
func (e *Engine) lattice(c Contract, spot, vol, t float64) (float64, float64, error) {
	n := e.Steps
	dt := t / float64(n)
	u := math.Exp(vol * math.Sqrt(dt))
	d := 1 / u
	growth := math.Exp((e.RiskFreeRate - e.DividendYield) * dt)
	p := (growth - d) / (u - d)
	if !(p > 0 && p < 1) {
		return 0, 0, calcErr("lattice", ErrLattice, "risk-neutral probability %v (vol %v, dt %v)", p, vol, dt)
	}
	disc := math.Exp(-e.RiskFreeRate * dt)

	values := make([]float64, n+1)
	for i := 0; i <= n; i++ {
		values[i] = payoff(c, spot*math.Pow(u, float64(n-2*i)))
	}

	var up, down float64
	for step := n - 1; step >= 0; step-- {
		for i := 0; i <= step; i++ {
			cont := disc * (p*values[i] + (1-p)*values[i+1])
			exercise := payoff(c, spot*math.Pow(u, float64(step-2*i)))
			values[i] = math.Max(cont, exercise)
		}
		if step == 1 {
			up, down = values[0], values[1]
		}
	}
	if n == 1 {
		up, down = payoff(c, spot*u), payoff(c, spot*d)
	}
	delta := (up - down) / (spot*u - spot*d)
	return values[0], delta, nil
}

// driftDominated reports whether the per-step carry exceeds the per-step
// move, which pushes the risk-neutral probability outside (0, 1).
func (e *Engine) driftDominated(vol, t float64) bool {
	dt := t / float64(e.Steps)
	return vol*math.Sqrt(dt) <= math.Abs(e.RiskFreeRate-e.DividendYield)*dt
}

// zeroVolPrice is the American value when the underlying drifts at the
// risk-free rate with no uncertainty.
func (e *Engine) zeroVolPrice(c Contract, spot, t float64) float64 {
	fwd := spot * math.Exp((e.RiskFreeRate-e.DividendYield)*t)
	discounted := math.Exp(-e.RiskFreeRate*t) * payoff(c, fwd)
	return math.Max(Intrinsic(c, spot), discounted)
}

func payoff(c Contract, s float64) float64 { return Intrinsic(c, s) }

func expiryDelta(c Contract, spot float64) float64 {
	if c.Type == model.Put {
		if spot < c.Strike {
			return -1
		}
		return 0
	}
	if spot > c.Strike {
		return 1
	}
	return 0
}

func moneynessDelta(c Contract, spot float64) float64 {
	m := spot / c.Strike
	sign := 1.0
	if c.Type == model.Put {
		sign = -1
		m = c.Strike / spot
	}
	switch {
	case m > 1+nearMoneyBand:
		return sign
	case m < 1-nearMoneyBand:
		return 0
	default:
		return sign * 0.5
	}
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
