package analysis

import "trainload/internal/store"

// EffortWindows lists the target window durations, in seconds, of the
// mean-maximal curve: dense coverage through the first minute, then
// progressively coarser steps out to four hours. The schedule is a tunable
// table, not a contract.
var EffortWindows = buildEffortWindows()

func buildEffortWindows() []int {
	var windows []int
	for d := 1; d <= 60; d++ {
		windows = append(windows, d)
	}
	for d := 75; d <= 300; d += 15 {
		windows = append(windows, d)
	}
	for d := 360; d <= 1200; d += 60 {
		windows = append(windows, d)
	}
	for d := 1500; d <= 3600; d += 300 {
		windows = append(windows, d)
	}
	for d := 4500; d <= 14400; d += 900 {
		windows = append(windows, d)
	}
	return windows
}

// Effort is the best sustained average for one window duration within a
// single activity.
type Effort struct {
	DurationSeconds int
	Value           float64
}

// PowerCurve computes the mean-maximal power curve of a watts stream: for
// each window duration the maximum sliding-window average. Windows longer
// than the stream produce nothing.
func PowerCurve(watts []float64, windows []int) []Effort {
	samples := filterPositive(watts)

	var efforts []Effort
	for _, d := range windows {
		best, ok := maxWindowMean(samples, d)
		if !ok {
			continue
		}
		efforts = append(efforts, Effort{DurationSeconds: d, Value: best})
	}
	return efforts
}

// PaceCurve computes the mean-maximal pace curve of a speed stream (m/s):
// for each window duration the fastest sustained average speed, converted to
// pace in seconds per kilometer. Lower values are better.
func PaceCurve(speeds []float64, windows []int) []Effort {
	samples := filterPositive(speeds)

	var efforts []Effort
	for _, d := range windows {
		best, ok := maxWindowMean(samples, d)
		if !ok || best <= 0 {
			continue
		}
		efforts = append(efforts, Effort{DurationSeconds: d, Value: 1000.0 / best})
	}
	return efforts
}

// WattsSamples extracts the power samples of a stream in offset order.
func WattsSamples(streams []store.StreamPoint) []float64 {
	var samples []float64
	for _, p := range streams {
		if p.Watts != nil {
			samples = append(samples, *p.Watts)
		}
	}
	return samples
}

// SpeedSamples extracts the velocity samples of a stream in offset order.
func SpeedSamples(streams []store.StreamPoint) []float64 {
	var samples []float64
	for _, p := range streams {
		if p.VelocitySmooth != nil {
			samples = append(samples, *p.VelocitySmooth)
		}
	}
	return samples
}

// maxWindowMean returns the maximum mean over every contiguous window of d
// samples, using prefix sums for O(n) per duration. ok is false when the
// stream has fewer than d samples.
func maxWindowMean(samples []float64, d int) (best float64, ok bool) {
	if d <= 0 || len(samples) < d {
		return 0, false
	}

	prefix := make([]float64, len(samples)+1)
	for i, s := range samples {
		prefix[i+1] = prefix[i] + s
	}

	for i := 0; i+d <= len(samples); i++ {
		mean := (prefix[i+d] - prefix[i]) / float64(d)
		if !ok || mean > best {
			best = mean
			ok = true
		}
	}
	return best, ok
}

// filterPositive drops zero, negative and non-sensical samples before
// windowing. Paused recordings produce runs of zeros that would otherwise
// drag every window average down.
func filterPositive(samples []float64) []float64 {
	filtered := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s > 0 {
			filtered = append(filtered, s)
		}
	}
	return filtered
}
