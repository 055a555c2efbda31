package viz

import (
	"os"
	"path/filepath"
	"testing"

	"pfviz/internal/feed"
)

func constRegion(r int) func(x, y int) int {
	return func(x, y int) int { return r }
}

func TestFeedEntry_String(t *testing.T) {
	e := FeedEntry{Region: 2, Odometry: 3, Turn: 0.5, TruthX: 10, TruthY: 20, TruthTheta: 0.5}
	want := "0.0 1.0 0.0 0.0 0.0 0.0\n+ 3 0.50000\n! 10 20 0.50000"
	if got := e.String(); got != want {
		t.Fatalf("entry serialized as:\n%s\nwant:\n%s", got, want)
	}
}

func TestFeedEntry_String_VoidRegionAllZero(t *testing.T) {
	e := FeedEntry{Region: 0}
	want := "0.0 0.0 0.0 0.0 0.0 0.0\n+ 0 0.00000\n! 0 0 0.00000"
	if got := e.String(); got != want {
		t.Fatalf("void entry serialized as:\n%s", got)
	}
}

func TestRecorder_SamplesOnCadence(t *testing.T) {
	r := NewFeedRecorder(3, constRegion(1))
	for i := 0; i < 7; i++ {
		r.Record(Pose{X: float64(i), Y: 0})
	}
	// Ticks 0, 3, and 6 log.
	if n := len(r.Entries()); n != 3 {
		t.Fatalf("got %d entries after 7 ticks at cadence 3, want 3", n)
	}
}

func TestRecorder_DisabledByZeroCadence(t *testing.T) {
	r := NewFeedRecorder(0, constRegion(1))
	r.Record(Pose{})
	if len(r.Entries()) != 0 {
		t.Fatal("disabled recorder logged an entry")
	}
}

func TestRecorder_OdometryAndTurnDeltas(t *testing.T) {
	r := NewFeedRecorder(1, constRegion(1))
	r.Record(Pose{X: 0, Y: 0, Theta: 0.5})
	r.Record(Pose{X: 3, Y: 4, Theta: 0.2})

	entries := r.Entries()
	if entries[0].Odometry != 0 || entries[0].Turn != 0 {
		t.Fatalf("first entry should have zero deltas: %+v", entries[0])
	}
	if entries[1].Odometry != 5 {
		t.Fatalf("odometry = %d, want 5 (3-4-5 triangle)", entries[1].Odometry)
	}
	if got := entries[1].Turn; got != 0.3 {
		t.Fatalf("turn = %v, want 0.3 (previous theta minus current)", got)
	}
}

func TestRecorder_RoundTripThroughFeed(t *testing.T) {
	r := NewFeedRecorder(1, constRegion(3))
	r.Record(Pose{X: 10, Y: 20, Theta: 0})
	r.Record(Pose{X: 13, Y: 24, Theta: 0.25})

	path := filepath.Join(t.TempDir(), "trace.txt")
	if err := r.WriteFile(path); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Fatal(err)
	}

	p, err := feed.Load(path, false, feed.Options{})
	if err != nil {
		t.Fatalf("recorded trace does not parse back: %v", err)
	}
	if p.Len() != 2 {
		t.Fatalf("round trip kept %d steps, want 2", p.Len())
	}
	probs, turn := p.GetNext()
	if probs[2] != 1.0 {
		t.Fatalf("region 3 should be one-hot at slot 2: %v", probs)
	}
	if turn != 0 {
		t.Fatalf("first step turn = %v, want 0", turn)
	}
	gt := p.LastGroundTruth()
	if gt == nil || gt.X != 10 || gt.Y != 20 {
		t.Fatalf("first step ground truth = %+v", gt)
	}
	_, turn = p.GetNext()
	if turn != -0.25 {
		t.Fatalf("second step turn = %v, want -0.25", turn)
	}
}
