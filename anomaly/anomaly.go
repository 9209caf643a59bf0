// Package anomaly detects sustained cost spikes in per-service daily
// spend. Detection is a pure function over the series; persistence is
// the caller's concern.
package anomaly

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/frugalops/frugal/types"
)

const (
	// minPoints is the shortest usable series.
	minPoints = 5
	// recentPoints is how many trailing days must all spike for the
	// anomaly to count as sustained.
	recentPoints = 2
	// minBaseline is the shortest baseline the statistics are
	// meaningful over.
	minBaseline = 3
	// sigmaFactor sets the spike threshold at mean + 3 standard
	// deviations of the baseline.
	sigmaFactor = 3.0
)

// Detect checks whether the trailing days of a daily cost series form
// a sustained spike above the baseline. Returns false when the series
// is too short or no anomaly is present.
func Detect(dailyCosts []float64, service string, provider types.Provider) (*types.Anomaly, bool) {
	if len(dailyCosts) < minPoints {
		return nil, false
	}

	baseline := dailyCosts[:len(dailyCosts)-recentPoints]
	recent := dailyCosts[len(dailyCosts)-recentPoints:]
	if len(baseline) < minBaseline {
		return nil, false
	}

	m := mean(baseline)
	threshold := m + sigmaFactor*stdev(baseline)

	// Both trailing points must exceed the threshold: a single-day
	// blip is billing noise, not an anomaly.
	for _, v := range recent {
		if v <= threshold {
			return nil, false
		}
	}

	last := recent[len(recent)-1]
	if last <= 0 {
		return nil, false
	}

	deviation := 0.0
	if m != 0 {
		deviation = (last - m) / m * 100
	}

	return &types.Anomaly{
		ID:           uuid.NewString(),
		Provider:     provider,
		Service:      service,
		DetectedDate: time.Now().UTC().Truncate(24 * time.Hour),
		BaselineCost: m,
		ActualCost:   last,
		DeviationPct: deviation,
		Status:       types.AnomalyOpen,
	}, true
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// stdev is the sample standard deviation (n-1 divisor). Fewer than
// two points have no spread and yield 0.
func stdev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var sum float64
	for _, v := range values {
		d := v - m
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}
