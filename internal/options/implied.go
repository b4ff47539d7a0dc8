package options

import (
	"math"
	"time"
)

const machineEpsilon = 2.220446049250313e-16

// ImpliedVolatility solves Price(vol) == observed for vol in [MinVol, MaxVol].
//
// Edge cases do not return errors except an observed price strictly below
// intrinsic value:
//   - observed == intrinsic before expiry returns MinVol
//   - on the expiry date any other price returns DefaultVol
//   - observed below the model price at MinVol returns MinVol
//   - observed above the model price at MaxVol returns MaxVol
func (e *Engine) ImpliedVolatility(c Contract, spot, observed float64, calcDate time.Time) (float64, error) {
	t, err := e.prepare("implied volatility", c, spot, calcDate)
	if err != nil {
		return 0, err
	}
	if !(observed > 0) || math.IsInf(observed, 0) {
		return 0, calcErr("implied volatility", ErrInvalidInput, "observed price %v", observed)
	}

	intrinsic := Intrinsic(c, spot)
	if observed < intrinsic-priceEpsilon {
		return 0, calcErr("implied volatility", ErrBelowIntrinsic,
			"observed %.6f, intrinsic %.6f", observed, intrinsic)
	}
	atIntrinsic := math.Abs(observed-intrinsic) <= priceEpsilon
	if t == 0 {
		if atIntrinsic {
			return MinVol, nil
		}
		return DefaultVol, nil
	}
	if atIntrinsic {
		return MinVol, nil
	}

	objective := func(vol float64) (float64, error) {
		p, err := e.Price(c, spot, vol, calcDate)
		if err != nil {
			return 0, err
		}
		return p - observed, nil
	}

	lo, err := objective(MinVol)
	if err != nil {
		return 0, err
	}
	hi, err := objective(MaxVol)
	if err != nil {
		return 0, err
	}
	switch {
	case lo >= 0 && hi >= 0:
		return MinVol, nil
	case lo <= 0 && hi <= 0:
		return MaxVol, nil
	}

	vol, err := brent(objective, MinVol, MaxVol, lo, hi, e.Tolerance, e.MaxIterations)
	if err != nil {
		return 0, err
	}
	return clamp(vol, MinVol, MaxVol), nil
}

// PositionDelta backs out implied volatility from the observed option price
// and returns the delta at that volatility.
func (e *Engine) PositionDelta(c Contract, spot, observed float64, calcDate time.Time) (delta, vol float64, err error) {
	vol, err = e.ImpliedVolatility(c, spot, observed, calcDate)
	if err != nil {
		return 0, 0, err
	}
	delta, err = e.Delta(c, spot, vol, calcDate)
	if err != nil {
		return 0, 0, err
	}
	return delta, vol, nil
}

// brent finds a root of f in [a, b] given f(a) and f(b) of opposite sign.
// After maxIter iterations the best estimate so far is returned.
func brent(f func(float64) (float64, error), a, b, fa, fb, tol float64, maxIter int) (float64, error) {
	if math.Abs(fa) < math.Abs(fb) {
		a, b = b, a
		fa, fb = fb, fa
	}
	c, fc := a, fa
	d := b - a
	e := d

	for i := 0; i < maxIter; i++ {
		if fb == 0 {
			return b, nil
		}
		if (fb > 0) == (fc > 0) {
			c, fc = a, fa
			d = b - a
			e = d
		}
		if math.Abs(fc) < math.Abs(fb) {
			a, b, c = b, c, b
			fa, fb, fc = fb, fc, fb
		}

		tol1 := 2*machineEpsilon*math.Abs(b) + 0.5*tol
		m := 0.5 * (c - b)
		if math.Abs(m) <= tol1 {
			return b, nil
		}

		if math.Abs(e) >= tol1 && math.Abs(fa) > math.Abs(fb) {
			var p, q float64
			s := fb / fa
			if a == c {
				p = 2 * m * s
				q = 1 - s
			} else {
				qa := fa / fc
				r := fb / fc
				p = s * (2*m*qa*(qa-r) - (b-a)*(r-1))
				q = (qa - 1) * (r - 1) * (s - 1)
			}
			if p > 0 {
				q = -q
			} else {
				p = -p
			}
			if 2*p < math.Min(3*m*q-math.Abs(tol1*q), math.Abs(e*q)) {
				e = d
				d = p / q
			} else {
				d = m
				e = d
			}
		} else {
			d = m
			e = d
		}

		a, fa = b, fb
		if math.Abs(d) > tol1 {
			b += d
		} else if m > 0 {
			b += tol1
		} else {
			b -= tol1
		}
		var err error
		fb, err = f(b)
		if err != nil {
			return 0, err
		}
	}
	return b, nil
}
