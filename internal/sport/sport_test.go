package sport

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		label string
		want  Sport
	}{
		{"Run", Run},
		{"running", Run},
		{"Trail Run", Run},
		{"trail_run", Run},
		{"TrailRun", Run},
		{"VirtualRun", Run},
		{"treadmill", Run},
		{"Walk", Run},
		{"Hike", Run},
		{"Ride", Ride},
		{"cycling", Ride},
		{"Gravel Ride", Ride},
		{"MountainBikeRide", Ride},
		{"EBikeRide", Ride},
		{"indoor-cycling", Ride},
		{"MTB", Ride},
		{"Swim", Swim},
		{"open water swim", Swim},
		{"LapSwimming", Swim},
		{"  swim  ", Swim},
	}

	for _, tt := range tests {
		if got := Normalize(tt.label); got != tt.want {
			t.Errorf("Normalize(%q) = %v, want %v", tt.label, got, tt.want)
		}
	}
}

func TestNormalizeUnknownFallsBack(t *testing.T) {
	for _, label := range []string{"", "Yoga", "WeightTraining", "???"} {
		if got := Normalize(label); got != Default {
			t.Errorf("Normalize(%q) = %v, want Default (%v)", label, got, Default)
		}
	}
}

func TestPaceBased(t *testing.T) {
	if !PaceBased(Run) {
		t.Error("PaceBased(Run) = false, want true")
	}
	if !PaceBased(Swim) {
		t.Error("PaceBased(Swim) = false, want true")
	}
	if PaceBased(Ride) {
		t.Error("PaceBased(Ride) = true, want false")
	}
}
