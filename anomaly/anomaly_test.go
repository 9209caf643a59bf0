package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frugalops/frugal/types"
)

func flatSeries(value float64, days int) []float64 {
	s := make([]float64, days)
	for i := range s {
		s[i] = value
	}
	return s
}

func TestDetectSustainedSpike(t *testing.T) {
	series := append(flatSeries(10, 28), 100, 100)

	a, found := Detect(series, "AmazonEC2", types.ProviderAWS)
	require.True(t, found)
	assert.Equal(t, 100.0, a.ActualCost)
	assert.InDelta(t, 10.0, a.BaselineCost, 0.001)
	assert.Greater(t, a.DeviationPct, 0.0)
	assert.Equal(t, types.AnomalyOpen, a.Status)
	assert.Equal(t, "AmazonEC2", a.Service)
}

func TestDetectQuietSeries(t *testing.T) {
	series := []float64{10.0, 10.2, 9.8, 10.1, 10.3, 9.9, 10.0, 10.1, 10.2, 10.0}

	_, found := Detect(series, "AmazonS3", types.ProviderAWS)
	assert.False(t, found)
}

func TestDetectInsufficientData(t *testing.T) {
	_, found := Detect([]float64{1.0, 2.0, 3.0}, "AmazonRDS", types.ProviderAWS)
	assert.False(t, found)

	_, found = Detect([]float64{1, 2, 3, 4}, "AmazonRDS", types.ProviderAWS)
	assert.False(t, found)
}

func TestDetectSingleDayBlipIgnored(t *testing.T) {
	// Only the last point spikes; the one before it is normal.
	series := append(flatSeries(10, 28), 10, 100)

	_, found := Detect(series, "AmazonEC2", types.ProviderAWS)
	assert.False(t, found, "spike must hold for both trailing days")
}

func TestDetectZeroLastPointIgnored(t *testing.T) {
	// Baseline is negative-cost credits; last point is zero.
	series := []float64{-5, -5, -5, -1, 0}

	_, found := Detect(series, "credits", types.ProviderAWS)
	assert.False(t, found, "most recent point must be positive")
}

func TestSampleStdev(t *testing.T) {
	assert.InDelta(t, 1.0, stdev([]float64{1, 2, 3}), 0.001, "sample stdev uses n-1")
	assert.Equal(t, 0.0, stdev([]float64{5}), "single point has no spread")
}

func TestDeviationZeroWhenMeanZero(t *testing.T) {
	series := []float64{0, 0, 0, 5, 5}

	a, found := Detect(series, "new-service", types.ProviderAzure)
	require.True(t, found)
	assert.Equal(t, 0.0, a.DeviationPct)
	assert.Equal(t, 5.0, a.ActualCost)
}
