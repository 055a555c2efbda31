// Package viz is the visualization front end for the localization
// simulation: it schedules the two mutually exclusive update loops
// (manual feed-making at 30 FPS, automated filter updates every
// 500 ms), aggregates user input, and renders the scene.
package viz

import (
	"errors"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"

	"pfviz/internal/pf"
)

// RegionMap is the slice of the building map the visualizer reads and
// updates: fixed drawable dimensions, the region under a position, and
// the region probability sequence replaced each filter tick.
type RegionMap interface {
	NumRows() int
	NumCols() int
	RegionAt(x, y int) int
	RegionProbs() []float64
	SetProbabilities(p []float64)
}

// Estimator is the localization filter the automated mode advances and
// renders. The visualizer only ever reads its particles and estimate.
type Estimator interface {
	Update(turnAngle float64)
	Particles() []pf.Particle
	Predicted() (x, y, theta float64)
}

// FeedSource supplies the next classifier observation. Nil
// probabilities mean "no map update this tick" and must leave the
// map's current probabilities untouched.
type FeedSource interface {
	GetNext() (probs []float64, turnAngle float64)
}

// Mode selects which update loop the app runs. The two modes are
// mutually exclusive: starting one never arms the other's timer.
type Mode int

const (
	ModeNone Mode = iota
	ModeMakeFeed
	ModeParticleFilter
)

// App is the top-level window. It owns the two mode timers, dispatches
// input events to the aggregator, and replays the last built frame on
// every display refresh. Everything runs on Ebiten's single
// event/render thread; input handlers and tick callbacks interleave
// there, so a render callback always sees whatever state the latest
// delivered event left behind.
type App struct {
	bmap RegionMap
	est  Estimator
	feed FeedSource

	imagePath  string
	background *ebiten.Image

	input    *Aggregator
	motion   *MotionModel
	recorder *FeedRecorder

	manualTimer *Timer
	filterTimer *Timer
	mode        Mode

	ops      []DrawOp
	lastTurn float64

	prevKeys  map[ebiten.Key]bool
	prevLeft  bool
	prevRight bool
}

// watchedKeys maps the physical keys dispatched in manual mode to the
// normalized codes the aggregator understands.
var watchedKeys = map[ebiten.Key]string{
	ebiten.KeyW: "w", ebiten.KeyArrowUp: "up",
	ebiten.KeyS: "s", ebiten.KeyArrowDown: "down",
	ebiten.KeyA: "a", ebiten.KeyArrowLeft: "left",
	ebiten.KeyD: "d", ebiten.KeyArrowRight: "right",
}

// NewApp wires the visualizer. est and feed stay nil for manual
// (make-feed) runs; mapImage may be empty for a blank background.
// logEvery is the manual-tick cadence of the feed recorder (0 disables
// recording).
func NewApp(m RegionMap, mapImage string, est Estimator, feed FeedSource, logEvery int) *App {
	a := &App{
		bmap:      m,
		est:       est,
		feed:      feed,
		imagePath: mapImage,
		prevKeys:  make(map[ebiten.Key]bool),
	}
	cols, rows := 0, 0
	regionAt := func(x, y int) int { return 0 }
	if m != nil {
		cols, rows = m.NumCols(), m.NumRows()
		regionAt = m.RegionAt
	}
	a.motion = NewMotionModel(cols, rows)
	a.input = NewAggregator(a.motion.Teleport)
	a.recorder = NewFeedRecorder(logEvery, regionAt)
	a.manualTimer = NewTimer(time.Second/userControlFPS, a.manualTick)
	a.filterTimer = NewTimer(updateIntervalMS*time.Millisecond, a.filterTick)
	return a
}

// Recorder returns the manual-mode feed recorder.
func (a *App) Recorder() *FeedRecorder { return a.recorder }

// StartMakeFeed runs manual mode: user input drives the simulated
// agent at 30 FPS while the recorder collects a feed trace. Blocks
// until the window closes.
func (a *App) StartMakeFeed() error {
	if err := a.prepareMakeFeed(); err != nil {
		log.Printf("cannot start feed maker: %v", err)
		return err
	}
	a.loadBackground()
	return a.run("Particle Filter - Feed Maker")
}

func (a *App) prepareMakeFeed() error {
	if a.mode != ModeNone {
		return errors.New("a mode is already running")
	}
	if a.bmap == nil {
		return errors.New("building map must be set")
	}
	a.mode = ModeMakeFeed
	a.manualTimer.Arm()
	return nil
}

// StartParticleFilter runs automated mode: the feed advances the map
// and estimator every 500 ms and the result is rendered. The map,
// estimator, and feed must all be bound or the start is refused before
// any timer is armed. Blocks until the window closes.
func (a *App) StartParticleFilter() error {
	if err := a.prepareParticleFilter(); err != nil {
		log.Printf("cannot start updating particle filter: %v", err)
		return err
	}
	a.loadBackground()
	return a.run("Particle Filter")
}

func (a *App) prepareParticleFilter() error {
	if a.mode != ModeNone {
		return errors.New("a mode is already running")
	}
	if a.bmap == nil || a.est == nil || a.feed == nil {
		return errors.New("map, estimator, and feed must all be set")
	}
	a.mode = ModeParticleFilter
	a.filterTimer.Arm()
	return nil
}

// loadBackground tries the map image. Failure is never fatal: the
// scene just renders against a blank surface.
func (a *App) loadBackground() {
	if a.imagePath == "" {
		return
	}
	img, _, err := ebitenutil.NewImageFromFile(a.imagePath)
	if err != nil {
		log.Printf("failed to load image: %s (%v)", a.imagePath, err)
		return
	}
	a.background = img
}

func (a *App) run(title string) error {
	ebiten.SetWindowTitle(title)
	ebiten.SetWindowSize(a.bmap.NumCols(), a.bmap.NumRows())
	return ebiten.RunGame(a)
}

// Update is the Ebiten tick: dispatch input events, then poll
// whichever mode timer is armed.
func (a *App) Update() error {
	if a.mode == ModeMakeFeed {
		a.dispatchInput()
	}
	a.manualTimer.Poll()
	a.filterTimer.Poll()
	return nil
}

// dispatchInput converts Ebiten's polled key and mouse state into the
// discrete events the aggregator consumes, edge-detecting transitions
// against the previous frame.
func (a *App) dispatchInput() {
	for key, code := range watchedKeys {
		down := ebiten.IsKeyPressed(key)
		if down != a.prevKeys[key] {
			if down {
				a.input.KeyDown(code)
			} else {
				a.input.KeyUp(code)
			}
			a.prevKeys[key] = down
		}
	}

	// Escape toggles the simulation lock; C copies the recorded trace.
	esc := ebiten.IsKeyPressed(ebiten.KeyEscape)
	if esc && !a.prevKeys[ebiten.KeyEscape] {
		a.motion.ToggleLock()
	}
	a.prevKeys[ebiten.KeyEscape] = esc
	c := ebiten.IsKeyPressed(ebiten.KeyC)
	if c && !a.prevKeys[ebiten.KeyC] {
		if err := a.recorder.CopyToClipboard(); err != nil {
			log.Printf("failed to copy feed trace: %v", err)
		}
	}
	a.prevKeys[ebiten.KeyC] = c

	mx, my := ebiten.CursorPosition()
	left := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)
	switch {
	case left && !a.prevLeft:
		a.input.ButtonDown(ButtonPrimary, float64(mx), float64(my))
	case !left && a.prevLeft:
		a.input.ButtonUp(ButtonPrimary)
	case left:
		a.input.PointerMove(float64(mx), float64(my))
	}
	a.prevLeft = left

	right := ebiten.IsMouseButtonPressed(ebiten.MouseButtonRight)
	if right && !a.prevRight {
		a.input.ButtonDown(ButtonSecondary, float64(mx), float64(my))
	}
	a.prevRight = right
}

// manualTick advances the simulated agent and rebuilds the manual
// frame. Runs at the manual timer cadence, not the display rate.
func (a *App) manualTick() {
	a.motion.Tick(a.input.Directions(), a.input.Mouse())
	if !a.motion.Locked() {
		a.recorder.Record(a.motion.Pose())
	}
	a.ops = BuildManualFrame(a.bmap.NumCols(), a.bmap.NumRows(),
		a.motion.Pose(), a.input.Directions(), a.input.Mouse())
}

// filterTick pulls the next observation, advances the estimator, and
// rebuilds the automated frame. A missing estimator mid-mode is
// reported and the render skipped rather than crashing the loop.
func (a *App) filterTick() {
	if a.est == nil {
		log.Printf("cannot render particle filter: no estimator bound")
		return
	}
	probs, turn := a.feed.GetNext()
	if probs != nil {
		a.bmap.SetProbabilities(probs)
	}
	a.est.Update(turn)
	a.lastTurn = turn
	x, y, theta := a.est.Predicted()
	a.ops = BuildFilterFrame(a.bmap.NumCols(), a.bmap.NumRows(),
		a.est.Particles(), Pose{X: x, Y: y, Theta: theta},
		a.bmap.RegionProbs(), turn)
}

// Draw replays the last built frame.
func (a *App) Draw(screen *ebiten.Image) {
	executeOps(screen, a.background, a.ops)
}

// Layout fixes the drawable surface to the map dimensions.
func (a *App) Layout(_, _ int) (int, int) {
	return a.bmap.NumCols(), a.bmap.NumRows()
}
