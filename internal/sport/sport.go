// Package sport maps free-text activity type labels onto the three canonical
// sport buckets the rest of the system aggregates by. Every consumer (the
// duplicate resolver, the load series builder, the best-effort extractor)
// must go through Normalize; a second alias table anywhere else would
// fragment load aggregation.
package sport

import "strings"

// Sport is a canonical sport bucket.
type Sport string

const (
	Run  Sport = "run"
	Ride Sport = "ride"
	Swim Sport = "swim"
)

// Default is the bucket unknown labels fall back to. Unknown labels never
// error; they just land here.
const Default = Run

// All lists every canonical bucket, in a stable order.
var All = []Sport{Run, Ride, Swim}

// aliases maps a folded label (lowercase, separators stripped) to its bucket.
// Vocabulary covers the Strava and Garmin type names seen in the wild.
var aliases = map[string]Sport{
	// Running family
	"run":           Run,
	"running":       Run,
	"trailrun":      Run,
	"trailrunning":  Run,
	"treadmill":     Run,
	"treadmillrun":  Run,
	"virtualrun":    Run,
	"trackrun":      Run,
	"jog":           Run,
	"jogging":       Run,
	"streetrunning": Run,
	"walk":          Run,
	"walking":       Run,
	"hike":          Run,
	"hiking":        Run,

	// Cycling family
	"ride":              Ride,
	"bike":              Ride,
	"biking":            Ride,
	"cycle":             Ride,
	"cycling":           Ride,
	"roadcycling":       Ride,
	"virtualride":       Ride,
	"gravelride":        Ride,
	"gravelcycling":     Ride,
	"mountainbike":      Ride,
	"mountainbikeride":  Ride,
	"mtb":               Ride,
	"ebikeride":         Ride,
	"emountainbikeride": Ride,
	"indoorcycling":     Ride,
	"spin":              Ride,
	"spinning":          Ride,

	// Swimming family
	"swim":              Swim,
	"swimming":          Swim,
	"poolswim":          Swim,
	"lapswimming":       Swim,
	"openwaterswim":     Swim,
	"openwaterswimming": Swim,
}

// Normalize maps a free-text sport label to its canonical bucket.
// Matching ignores case and common separators. Unknown labels return Default.
func Normalize(label string) Sport {
	if s, ok := aliases[fold(label)]; ok {
		return s
	}
	return Default
}

// PaceBased reports whether best efforts for the sport are measured as pace
// (time per distance, lower is better) rather than power (higher is better).
func PaceBased(s Sport) bool {
	return s == Run || s == Swim
}

// fold lowercases a label and strips spaces, underscores and dashes so that
// "Trail Run", "trail_run" and "TrailRun" all match the same alias.
func fold(label string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(label)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
