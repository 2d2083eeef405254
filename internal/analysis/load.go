// Package analysis holds the pure computation core: the load scalar, the
// chronic/acute load recurrence and mean-maximal effort extraction. Storage
// I/O stays in the service layer so everything here is unit-testable without
// a database.
package analysis

import (
	"math"
	"sort"
	"time"

	"trainload/internal/store"
)

// Decay constants of the load recurrence, in days.
const (
	ChronicDays = 42.0
	AcuteDays   = 7.0
)

// HRZones represents an athlete's heart rate zones
type HRZones struct {
	RestingHR float64
	MaxHR     float64
}

// NewHRZones creates HRZones from athlete config values
func NewHRZones(restingHR, maxHR float64) HRZones {
	return HRZones{RestingHR: restingHR, MaxHR: maxHR}
}

// DefaultZones returns sensible defaults if not configured
func DefaultZones() HRZones {
	return HRZones{
		RestingHR: 50,
		MaxHR:     185,
	}
}

// TRIMP calculates Training Impulse (Banister model)
// TRIMP = duration (min) * ΔHR ratio * e^(b * ΔHR ratio)
// where b = 1.92 for men, 1.67 for women (using male default)
func TRIMP(activity store.Activity, streams []store.StreamPoint, zones HRZones) float64 {
	duration := float64(activity.DurationSeconds) / 60.0 // Convert to minutes

	avgHR := averageHR(streams)
	if avgHR == 0 && activity.AverageHeartrate != nil {
		avgHR = *activity.AverageHeartrate
	}
	if avgHR == 0 {
		return 0
	}

	hrReserve := zones.MaxHR - zones.RestingHR
	if hrReserve <= 0 {
		return 0
	}

	hrRatio := (avgHR - zones.RestingHR) / hrReserve
	if hrRatio < 0 {
		hrRatio = 0
	}
	if hrRatio > 1 {
		hrRatio = 1
	}

	// Gender coefficient (using male default)
	b := 1.92

	return duration * hrRatio * math.Exp(b*hrRatio)
}

// HRSS calculates Heart Rate Stress Score, normalized to ~100 for a one-hour
// threshold effort.
func HRSS(activity store.Activity, streams []store.StreamPoint, zones HRZones) float64 {
	trimp := TRIMP(activity, streams, zones)

	// Threshold TRIMP for 1 hour at lactate threshold (~88% max HR)
	thresholdTRIMP := 100.0

	return (trimp / thresholdTRIMP) * 100
}

// LoadScalar computes the single per-session load number fed into the series.
// HR-based stress when heart rate data exists; otherwise a deliberately
// conservative duration estimate so manual records still move the series.
func LoadScalar(activity store.Activity, streams []store.StreamPoint, zones HRZones) float64 {
	if hrss := HRSS(activity, streams, zones); hrss > 0 {
		return hrss
	}
	return float64(activity.DurationSeconds) / 60.0 * 0.5
}

// averageHR computes the mean of positive heart rate samples in a stream.
func averageHR(streams []store.StreamPoint) float64 {
	var sum float64
	var count int
	for _, p := range streams {
		if p.Heartrate != nil && *p.Heartrate > 0 {
			sum += float64(*p.Heartrate)
			count++
		}
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}

// DailyLoad represents the summed training load for a single calendar day
type DailyLoad struct {
	Date            time.Time
	Load            float64
	DurationSeconds int
}

// SeriesPoint represents one day of the chronic/acute series
type SeriesPoint struct {
	Date time.Time
	Load float64
	CTL  float64 // chronic load - "fitness"
	ATL  float64 // acute load - "fatigue"
	TSB  float64 // balance, CTL - ATL - "form"
}

// Day truncates a timestamp to its UTC calendar day.
func Day(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ReplaySeries computes the series over every calendar day from start through
// `through`, inclusive. The recurrence steps once per calendar day:
//
//	ctl[t] = ctl[t-1] + (load[t] - ctl[t-1]) / 42
//	atl[t] = atl[t-1] + (load[t] - atl[t-1]) / 7
//	tsb[t] = ctl[t] - atl[t]
//
// seed carries the state of the day before start; a zero-value seed starts a
// fresh series. Days absent from loads contribute zero load but still appear
// as timeline entries - skipping them would corrupt the decay, which assumes
// one step per day, not per activity. The function is pure: identical input
// reproduces identical output.
func ReplaySeries(seed SeriesPoint, start, through time.Time, loads []DailyLoad) []SeriesPoint {
	start = Day(start)
	through = Day(through)
	if through.Before(start) {
		return nil
	}

	// Sum loads by day; a day can hold several activities.
	loadMap := make(map[string]float64)
	for _, dl := range loads {
		loadMap[Day(dl.Date).Format("2006-01-02")] += dl.Load
	}

	ctl, atl := seed.CTL, seed.ATL

	var points []SeriesPoint
	for d := start; !d.After(through); d = d.AddDate(0, 0, 1) {
		load := loadMap[d.Format("2006-01-02")]

		ctl = ctl + (load-ctl)/ChronicDays
		atl = atl + (load-atl)/AcuteDays

		points = append(points, SeriesPoint{
			Date: d,
			Load: load,
			CTL:  ctl,
			ATL:  atl,
			TSB:  ctl - atl,
		})
	}

	return points
}

// AggregateDaily buckets activity-level loads into per-day sums, in date
// order.
func AggregateDaily(activities []store.Activity) []DailyLoad {
	byDay := make(map[time.Time]*DailyLoad)
	for _, a := range activities {
		day := Day(a.StartDate)
		dl, ok := byDay[day]
		if !ok {
			dl = &DailyLoad{Date: day}
			byDay[day] = dl
		}
		dl.Load += a.Load
		dl.DurationSeconds += a.DurationSeconds
	}

	loads := make([]DailyLoad, 0, len(byDay))
	for _, dl := range byDay {
		loads = append(loads, *dl)
	}
	sort.Slice(loads, func(i, j int) bool {
		return loads[i].Date.Before(loads[j].Date)
	})
	return loads
}
