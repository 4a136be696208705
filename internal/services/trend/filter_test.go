package trend

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"TrendPulse/internal/domain/models"
)

func TestHeuristicVariance(t *testing.T) {
	// population std of {2,4,4,4,5,5,7,9} is 2
	v := HeuristicVariance{}.Variances([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	assert.InDelta(t, 1.0, v.SigmaEpsilon2, 1e-12)
	assert.InDelta(t, 0.04, v.SigmaEta2, 1e-12)
	assert.InDelta(t, 0.01, v.SigmaZeta2, 1e-12)

	assert.Equal(t, models.VarianceParameters{}, HeuristicVariance{}.Variances([]float64{7}))
	assert.Equal(t, models.VarianceParameters{}, HeuristicVariance{}.Variances(nil))
}

func TestInitialSlope(t *testing.T) {
	assert.Zero(t, initialSlope([]float64{5}))
	assert.Equal(t, 3.0, initialSlope([]float64{1, 4}))
	assert.Equal(t, 2.0, initialSlope([]float64{0, 1, 2, 3, 4, 10, 100}))
}

func TestGainsBounded(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 1000; i++ {
		pl, ps, eps := r.Float64()*100, r.Float64()*100, r.Float64()*100
		kl, ks := gains(pl, ps, eps)
		assert.GreaterOrEqual(t, kl, 0.0)
		assert.LessOrEqual(t, kl, 1.0)
		assert.GreaterOrEqual(t, ks, 0.0)
	}
	kl, ks := gains(0, 0, 0)
	assert.Equal(t, 1.0, kl)
	assert.Equal(t, 0.0, ks)
}

func TestSmootherBoundaryMatchesFilter(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	for i := 0; i < 50; i++ {
		n := 3 + r.Intn(60)
		y := make([]float64, n)
		for j := range y {
			y[j] = r.NormFloat64()*10 + float64(j)
		}
		v := HeuristicVariance{}.Variances(y)
		f := forwardFilter(y, v)
		level, slope := backwardSmooth(f, v)
		require.Len(t, level, n)
		assert.Equal(t, f.level[n-1], level[n-1])
		assert.Equal(t, f.slope[n-1], slope[n-1])
		assert.Len(t, f.innovations, n)
	}
}

func TestForwardFilterFirstInnovation(t *testing.T) {
	y := []float64{10, 12, 14}
	f := forwardFilter(y, HeuristicVariance{}.Variances(y))
	// first prediction is y0 plus the initial slope
	assert.InDelta(t, -initialSlope(y), f.innovations[0], 1e-12)
}

func TestAnomaliesDegenerate(t *testing.T) {
	assert.Empty(t, anomalies([]float64{0, 0, 0, 0}))
	assert.Empty(t, anomalies(nil))
	assert.Equal(t, []int{5}, anomalies([]float64{1, -1, 1, -1, 1, 20, -1, 1, -1, 1}))
}

// The ratio divides |e| by the spread around the mean, so innovations that
// all share one sign and sit far from zero are flagged at every index.
func TestAnomaliesOneSidedInnovations(t *testing.T) {
	assert.Equal(t, []int{0, 1, 2, 3, 4}, anomalies([]float64{-5, -4.58, -4.01, -3.33, -2.61}))
	assert.Empty(t, anomalies([]float64{-5, 5, -5, 5, -5}))
}

func TestClassifyUncertainty(t *testing.T) {
	assert.Equal(t, models.UncertaintyLow, classifyUncertainty(models.Interval{Low: 95, High: 104}, 100))
	assert.Equal(t, models.UncertaintyModerate, classifyUncertainty(models.Interval{Low: 90, High: 110}, 100))
	assert.Equal(t, models.UncertaintyHigh, classifyUncertainty(models.Interval{Low: 80, High: 110}, 100))
	assert.Equal(t, models.UncertaintyHigh, classifyUncertainty(models.Interval{Low: -1, High: 1}, 0))
}

func TestClassifyTrend(t *testing.T) {
	d, s := classifyTrend(0.4, 100)
	assert.Equal(t, models.DirectionStable, d)
	assert.Equal(t, models.StrengthWeak, s)

	d, s = classifyTrend(1, 100)
	assert.Equal(t, models.DirectionUp, d)
	assert.Equal(t, models.StrengthModerate, s)

	d, s = classifyTrend(-3, 100)
	assert.Equal(t, models.DirectionDown, d)
	assert.Equal(t, models.StrengthStrong, s)

	// zero mean is floored instead of dividing by zero
	d, _ = classifyTrend(1, 0)
	assert.Equal(t, models.DirectionUp, d)
}
