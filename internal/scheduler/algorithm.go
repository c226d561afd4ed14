package scheduler

import "math"

// recall computes R(t, S) = (1 + F·t/S)^C.
func recall(elapsedDays, stability float64) float64 {
	return math.Pow(1+factor*elapsedDays/stability, decay)
}

// intervalFor computes I(r, S) = (S / F) · (r^(1/C) − 1) in fractional days.
func intervalFor(stability, retention float64) float64 {
	return stability / factor * (math.Pow(retention, 1.0/decay) - 1)
}

// clampInterval rounds a raw interval to whole days within [1, 256].
func clampInterval(raw float64) int {
	days := math.Round(raw)
	return int(math.Min(math.Max(days, MinIntervalDays), MaxIntervalDays))
}

// initStability returns S₀(G): w[2] for Pass, w[0] for Fail.
func (w *Weights) initStability(g Grade) float64 {
	if g == Pass {
		return w[2]
	}
	return w[0]
}

// initDifficulty returns D₀(G) = clamp(w[4] − e^(w[5]·(G−1)) + 1).
func (w *Weights) initDifficulty(g Grade) float64 {
	return clampDifficulty(w[4] - math.Exp(w[5]*(g.score()-1)) + 1)
}

// nextDifficulty applies linear damping then mean reversion towards D₀(Pass).
func (w *Weights) nextDifficulty(d float64, g Grade) float64 {
	deltaD := -w[6] * (g.score() - 3)
	dPrime := d + deltaD*(10-d)/9
	return clampDifficulty(w[7]*w.initDifficulty(Pass) + (1-w[7])*dPrime)
}

// nextStability dispatches on the grade.
func (w *Weights) nextStability(d, s, r float64, g Grade) float64 {
	if g == Fail {
		return w.forgetStability(d, s, r)
	}
	return w.recallStability(d, s, r)
}

// recallStability: S' = S · (1 + (11−D) · S^(−w[9]) · (e^(w[10]·(1−R)) − 1) · e^(w[8])).
func (w *Weights) recallStability(d, s, r float64) float64 {
	return s * (1 + (11-d)*
		math.Pow(s, -w[9])*
		(math.Exp(w[10]*(1-r))-1)*
		math.Exp(w[8]))
}

// forgetStability: S' = min(S, w[11] · D^(−w[12]) · ((S+1)^w[13] − 1) · e^(w[14]·(1−R))).
func (w *Weights) forgetStability(d, s, r float64) float64 {
	long := w[11] *
		math.Pow(d, -w[12]) *
		(math.Pow(s+1, w[13]) - 1) *
		math.Exp(w[14]*(1-r))
	return math.Min(long, s)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}

// Recall is the probability of recalling a card with the given stability
// after elapsedDays. Negative elapsed time counts as zero.
func Recall(elapsedDays, stability float64) float64 {
	if elapsedDays < 0 {
		elapsedDays = 0
	}
	return recall(elapsedDays, stability)
}
