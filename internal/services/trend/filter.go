package trend

import "TrendPulse/internal/domain/models"

// slopeDamping attenuates the slope gain relative to the textbook Kalman gain.
const slopeDamping = 0.5

// filtered holds the per-step output of the forward pass. All slices have the
// length of the input series.
type filtered struct {
	level       []float64
	slope       []float64
	pLevel      []float64
	pSlope      []float64
	innovations []float64
}

// initialSlope is the average increment over the first min(5, n-1) points.
func initialSlope(y []float64) float64 {
	n := len(y)
	if n <= 1 {
		return 0
	}
	m := 5
	if n-1 < m {
		m = n - 1
	}
	return (y[m] - y[0]) / float64(m)
}

// gains returns the level and damped slope gains for one step. A zero
// innovation variance means the observation is trusted fully.
func gains(pLevelPred, pSlopePred, sigmaEps2 float64) (kLevel, kSlope float64) {
	f := pLevelPred + sigmaEps2
	if f == 0 {
		return 1, 0
	}
	return pLevelPred / f, slopeDamping * pSlopePred / f
}

// forwardFilter runs the local-level/local-trend recursion over y.
// len(y) must be at least 1.
func forwardFilter(y []float64, v models.VarianceParameters) filtered {
	n := len(y)
	out := filtered{
		level:       make([]float64, n),
		slope:       make([]float64, n),
		pLevel:      make([]float64, n),
		pSlope:      make([]float64, n),
		innovations: make([]float64, n),
	}

	level, slope := y[0], initialSlope(y)
	pLevel, pSlope := v.SigmaEta2, v.SigmaZeta2

	for t := 0; t < n; t++ {
		levelPred := level + slope
		slopePred := slope
		pLevelPred := pLevel + v.SigmaEta2
		pSlopePred := pSlope + v.SigmaZeta2

		e := y[t] - levelPred
		kLevel, kSlope := gains(pLevelPred, pSlopePred, v.SigmaEpsilon2)

		level = levelPred + kLevel*e
		slope = slopePred + kSlope*e
		pLevel = pLevelPred * (1 - kLevel)
		pSlope = pSlopePred * (1 - slopeDamping*kSlope)

		out.level[t] = level
		out.slope[t] = slope
		out.pLevel[t] = pLevel
		out.pSlope[t] = pSlope
		out.innovations[t] = e
	}
	return out
}
