package trend

import "TrendPulse/internal/domain/models"

// backwardSmooth refines the filtered states with later observations. The
// last point is left equal to the filtered one.
//
// This is the simplified fixed-interval recursion: the filtered level plus
// slope stands in for the one-step prediction and no smoother gain matrix is
// carried, so results differ from a canonical RTS pass.
func backwardSmooth(f filtered, v models.VarianceParameters) (level, slope []float64) {
	n := len(f.level)
	level = make([]float64, n)
	slope = make([]float64, n)
	if n == 0 {
		return level, slope
	}
	level[n-1] = f.level[n-1]
	slope[n-1] = f.slope[n-1]

	for t := n - 2; t >= 0; t-- {
		l := 0.0
		if d := f.pLevel[t] + v.SigmaEta2; d != 0 {
			l = f.pLevel[t] / d
		}
		level[t] = f.level[t] + l*(level[t+1]-f.level[t]-f.slope[t])
		slope[t] = f.slope[t] + slopeDamping*l*(slope[t+1]-f.slope[t])
	}
	return level, slope
}
