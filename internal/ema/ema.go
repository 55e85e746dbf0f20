// Package ema implements the exponential moving average used to steady
// noisy per-tick readings.
package ema

// EMA is a value type: copying it forks the history, and restarting the
// average is done by replacing it with New.
type EMA struct {
	current float64
	set     bool
	alpha   float64
}

// New returns an empty average. alpha is the weight of the newest sample,
// so alpha = 1 tracks the input exactly and small values favour history.
func New(alpha float64) EMA {
	return EMA{alpha: alpha}
}

// Push adds a sample and returns the new average. The first sample seeds
// the average and is returned unchanged.
func (e *EMA) Push(value float64) float64 {
	if !e.set {
		e.current = value
		e.set = true
		return value
	}

	e.current = e.alpha*value + (1-e.alpha)*e.current

	return e.current
}

// Value returns the current average, or false if nothing was pushed yet.
func (e EMA) Value() (float64, bool) {
	return e.current, e.set
}

// Alpha returns the smoothing factor given to New.
func (e EMA) Alpha() float64 {
	return e.alpha
}
