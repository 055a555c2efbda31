package viz

import (
	"testing"

	"pfviz/internal/pf"
)

// stubMap is a minimal RegionMap with settable probabilities.
type stubMap struct {
	rows, cols int
	probs      []float64
	setCalls   int
}

func newStubMap() *stubMap {
	return &stubMap{
		rows:  300,
		cols:  400,
		probs: []float64{0.01, 0.1, 0.2, 0.3, 0.1, 0.2, 0.1},
	}
}

func (m *stubMap) NumRows() int           { return m.rows }
func (m *stubMap) NumCols() int           { return m.cols }
func (m *stubMap) RegionAt(x, y int) int  { return 1 }
func (m *stubMap) RegionProbs() []float64 { return m.probs }
func (m *stubMap) SetProbabilities(p []float64) {
	m.setCalls++
	m.probs = p
}

// stubEstimator records Update calls and serves fixed state.
type stubEstimator struct {
	turns     []float64
	particles []pf.Particle
}

func (e *stubEstimator) Update(turnAngle float64) { e.turns = append(e.turns, turnAngle) }
func (e *stubEstimator) Particles() []pf.Particle { return e.particles }
func (e *stubEstimator) Predicted() (x, y, theta float64) {
	return 200, 150, 0
}

// stubFeed replays a queue of scripted steps.
type stubFeed struct {
	steps []struct {
		probs []float64
		turn  float64
	}
	next int
}

func (f *stubFeed) push(probs []float64, turn float64) {
	f.steps = append(f.steps, struct {
		probs []float64
		turn  float64
	}{probs, turn})
}

func (f *stubFeed) GetNext() ([]float64, float64) {
	if f.next >= len(f.steps) {
		return nil, 0
	}
	s := f.steps[f.next]
	f.next++
	return s.probs, s.turn
}

func TestModes_MutuallyExclusiveTimers(t *testing.T) {
	a := NewApp(newStubMap(), "", nil, nil, 0)
	if err := a.prepareMakeFeed(); err != nil {
		t.Fatal(err)
	}
	if !a.manualTimer.Armed() {
		t.Fatal("manual mode did not arm the manual timer")
	}
	if a.filterTimer.Armed() {
		t.Fatal("manual mode armed the filter timer")
	}

	b := NewApp(newStubMap(), "", &stubEstimator{}, &stubFeed{}, 0)
	if err := b.prepareParticleFilter(); err != nil {
		t.Fatal(err)
	}
	if !b.filterTimer.Armed() {
		t.Fatal("filter mode did not arm the filter timer")
	}
	if b.manualTimer.Armed() {
		t.Fatal("filter mode armed the manual timer")
	}
}

func TestPrepareParticleFilter_MissingCollaborators(t *testing.T) {
	cases := []struct {
		name string
		est  Estimator
		feed FeedSource
	}{
		{"no estimator", nil, &stubFeed{}},
		{"no feed", &stubEstimator{}, nil},
		{"neither", nil, nil},
	}
	for _, tc := range cases {
		a := NewApp(newStubMap(), "", tc.est, tc.feed, 0)
		if err := a.prepareParticleFilter(); err == nil {
			t.Fatalf("%s: start accepted", tc.name)
		}
		if a.filterTimer.Armed() || a.manualTimer.Armed() {
			t.Fatalf("%s: refused start still armed a timer", tc.name)
		}
		if a.mode != ModeNone {
			t.Fatalf("%s: refused start switched mode", tc.name)
		}
	}
}

func TestPrepare_SecondModeRefused(t *testing.T) {
	a := NewApp(newStubMap(), "", &stubEstimator{}, &stubFeed{}, 0)
	if err := a.prepareParticleFilter(); err != nil {
		t.Fatal(err)
	}
	if err := a.prepareMakeFeed(); err == nil {
		t.Fatal("second mode start accepted")
	}
	if a.manualTimer.Armed() {
		t.Fatal("refused second mode armed its timer")
	}
}

func TestFilterTick_AbsentProbsLeavesMapUntouched(t *testing.T) {
	m := newStubMap()
	est := &stubEstimator{}
	f := &stubFeed{} // empty queue: every step is (nil, 0)
	a := NewApp(m, "", est, f, 0)

	before := append([]float64(nil), m.RegionProbs()...)
	for i := 0; i < 3; i++ {
		a.filterTick()
	}
	if m.setCalls != 0 {
		t.Fatalf("SetProbabilities called %d times for absent probs", m.setCalls)
	}
	after := m.RegionProbs()
	for i := range before {
		if before[i] != after[i] {
			t.Fatalf("map probabilities changed: %v -> %v", before, after)
		}
	}
	if len(est.turns) != 3 {
		t.Fatalf("estimator updated %d times, want 3", len(est.turns))
	}
	for i, turn := range est.turns {
		if turn != 0 {
			t.Fatalf("tick %d: update turn = %v, want 0", i, turn)
		}
	}
}

func TestFilterTick_AppliesProbsAndTurn(t *testing.T) {
	m := newStubMap()
	est := &stubEstimator{}
	f := &stubFeed{}
	f.push([]float64{0.9, 0.02, 0.02, 0.02, 0.02, 0.02}, 0.7)
	a := NewApp(m, "", est, f, 0)

	a.filterTick()
	if m.setCalls != 1 {
		t.Fatalf("SetProbabilities called %d times, want 1", m.setCalls)
	}
	if len(est.turns) != 1 || est.turns[0] != 0.7 {
		t.Fatalf("estimator turns = %v, want [0.7]", est.turns)
	}
	if a.lastTurn != 0.7 {
		t.Fatalf("lastTurn = %v, want 0.7", a.lastTurn)
	}
	if len(a.ops) == 0 || a.ops[0].Kind != OpBackground {
		t.Fatal("filter tick did not rebuild the frame")
	}
}

func TestFilterTick_RendersParticles(t *testing.T) {
	m := newStubMap()
	est := &stubEstimator{particles: []pf.Particle{
		{X: 10, Y: 10, Weight: 0},
		{X: 20, Y: 20, Weight: 2},
	}}
	a := NewApp(m, "", est, &stubFeed{}, 0)

	a.filterTick()
	discs := opsOfKind(a.ops, OpDisc)
	if len(discs) != 2 {
		t.Fatalf("got %d particle discs, want 2", len(discs))
	}
	if discs[0].Radius != particleRadius {
		t.Fatalf("weight-0 particle radius = %v, want the base radius", discs[0].Radius)
	}
	if discs[1].Radius != 2*particleRadius {
		t.Fatalf("weight-2 particle radius = %v, want %v", discs[1].Radius, 2*particleRadius)
	}
}

func TestFilterTick_NoEstimatorSkipsRender(t *testing.T) {
	a := NewApp(newStubMap(), "", nil, &stubFeed{}, 0)
	a.filterTick() // must log and skip, not panic
	if len(a.ops) != 0 {
		t.Fatal("render ran without an estimator")
	}
}

func TestLoadBackground_BadPathDegrades(t *testing.T) {
	m := newStubMap()
	est := &stubEstimator{particles: []pf.Particle{{X: 10, Y: 10, Weight: 1}}}
	a := NewApp(m, "/nonexistent/map.gif", est, &stubFeed{}, 0)

	a.loadBackground()
	if a.background != nil {
		t.Fatal("bad image path produced a background")
	}
	// The frame still renders the overlays against a blank surface.
	a.filterTick()
	if len(opsOfKind(a.ops, OpDisc)) != 1 {
		t.Fatal("overlays missing after background load failure")
	}
	if len(opsOfKind(a.ops, OpRing)) != 1 {
		t.Fatal("estimate ring missing after background load failure")
	}
}

func TestManualTick_BuildsFrameAndRespectsLock(t *testing.T) {
	m := newStubMap()
	a := NewApp(m, "", nil, nil, 1)

	a.manualTick() // locked: nothing recorded, frame still built
	if len(a.recorder.Entries()) != 0 {
		t.Fatal("locked tick recorded a feed entry")
	}
	if len(a.ops) == 0 || a.ops[0].Kind != OpBackground {
		t.Fatal("manual tick did not build a frame")
	}

	a.motion.ToggleLock()
	a.manualTick()
	if len(a.recorder.Entries()) != 1 {
		t.Fatalf("unlocked tick recorded %d entries, want 1", len(a.recorder.Entries()))
	}
}

func TestTeleport_RoutedFromSecondaryClick(t *testing.T) {
	a := NewApp(newStubMap(), "", nil, nil, 0)
	a.input.ButtonDown(ButtonSecondary, 33, 44)
	if p := a.motion.Pose(); p.X != 33 || p.Y != 44 {
		t.Fatalf("secondary click did not teleport the agent: %+v", p)
	}
}
