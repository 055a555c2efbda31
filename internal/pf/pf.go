// Package pf is the probabilistic localization filter: a weighted
// particle set advanced by turn-angle observations and reweighted by
// the building map's region probabilities.
package pf

import (
	"math"
	"math/rand"
	"time"

	"gonum.org/v1/gonum/stat"
)

// resampleThreshold is the normalized weight below which a particle is
// considered starved and replaced by a clone of a likelier one.
const resampleThreshold = 0.05

// Particle is a single weighted pose hypothesis. Weights are relative;
// after every update the heaviest particle has weight 1.
type Particle struct {
	X      float64
	Y      float64
	Theta  float64
	Weight float64
}

// Randomize scatters the particle uniformly across the map with a
// random heading and full weight.
func (p *Particle) Randomize(rng *rand.Rand, cols, rows int) {
	p.X = rng.Float64() * float64(cols)
	p.Y = rng.Float64() * float64(rows)
	p.Theta = rng.Float64()*2*math.Pi - math.Pi
	p.Weight = 1.0
}

// FloorMap is the slice of the building map the filter needs: the
// drawable dimensions and a probability lookup per position.
type FloorMap interface {
	NumRows() int
	NumCols() int
	ProbabilityOf(x, y float64) float64
}

// Filter maintains the particle set and the best-estimate pose.
type Filter struct {
	cfg  Config
	fmap FloorMap
	rng  *rand.Rand

	particles []Particle
	updates   int

	predX     float64
	predY     float64
	predTheta float64
}

// New creates a filter with a time-seeded noise source.
func New(cfg Config, m FloorMap) *Filter {
	return NewSeeded(cfg, m, time.Now().UnixNano())
}

// NewSeeded creates a filter with a fixed seed for deterministic runs.
func NewSeeded(cfg Config, m FloorMap, seed int64) *Filter {
	f := &Filter{
		cfg:  cfg,
		fmap: m,
		rng:  rand.New(rand.NewSource(seed)), // #nosec G404 -- simulation only
	}
	f.particles = make([]Particle, cfg.NumParticles)
	for i := range f.particles {
		f.initParticle(&f.particles[i])
	}
	f.estimate()
	return f
}

// initParticle places a particle at the configured start pose (with a
// little jitter) or uniformly at random when no start is configured.
func (f *Filter) initParticle(p *Particle) {
	if f.cfg.StartX == nil || f.cfg.StartY == nil {
		p.Randomize(f.rng, f.fmap.NumCols(), f.fmap.NumRows())
		return
	}
	jitter := f.cfg.RandomWalkMaxDist / 4
	p.X = *f.cfg.StartX + (f.rng.Float64()*2-1)*jitter
	p.Y = *f.cfg.StartY + (f.rng.Float64()*2-1)*jitter
	if f.cfg.StartTheta != nil {
		p.Theta = *f.cfg.StartTheta
	} else {
		p.Theta = f.rng.Float64()*2*math.Pi - math.Pi
	}
	p.Weight = 1.0
}

// Particles returns the current particle set. Callers must treat it as
// read-only.
func (f *Filter) Particles() []Particle { return f.particles }

// Predicted returns the best-estimate pose.
func (f *Filter) Predicted() (x, y, theta float64) {
	return f.predX, f.predY, f.predTheta
}

// Update advances the filter by one observation: every particle turns
// by turnAngle, walks its move speed, and is reweighted by the map
// probability under it. Starved particles are resampled and the whole
// set is periodically jittered to keep exploring.
func (f *Filter) Update(turnAngle float64) {
	steps := f.cfg.UpdatesPerFrame
	if steps < 1 {
		steps = 1
	}
	for i := 0; i < steps; i++ {
		f.step(turnAngle)
	}
	f.estimate()
}

func (f *Filter) step(turnAngle float64) {
	f.updates++
	for i := range f.particles {
		p := &f.particles[i]
		p.Theta += turnAngle
		p.X += f.cfg.MoveSpeed * math.Cos(p.Theta)
		p.Y += f.cfg.MoveSpeed * math.Sin(p.Theta)
		p.Weight *= f.fmap.ProbabilityOf(p.X, p.Y)
		p.Weight *= f.cfg.WeightDecayRate
	}
	f.normalize()
	if f.cfg.RandomWalkFrequency > 0 && f.updates%f.cfg.RandomWalkFrequency == 0 {
		f.randomWalk()
	}
	f.resample()
}

// normalize rescales all weights so the heaviest particle sits at 1.
// If every weight has collapsed to zero the set is reset to uniform
// full weight, which amounts to starting the search over.
func (f *Filter) normalize() {
	maxW := 0.0
	for i := range f.particles {
		if f.particles[i].Weight > maxW {
			maxW = f.particles[i].Weight
		}
	}
	if maxW <= 0 {
		for i := range f.particles {
			f.particles[i].Weight = 1.0
		}
		return
	}
	for i := range f.particles {
		f.particles[i].Weight /= maxW
	}
}

// randomWalk jitters every particle's position and heading within the
// configured bounds.
func (f *Filter) randomWalk() {
	for i := range f.particles {
		p := &f.particles[i]
		dist := f.rng.Float64() * f.cfg.RandomWalkMaxDist
		ang := f.rng.Float64() * 2 * math.Pi
		p.X += dist * math.Cos(ang)
		p.Y += dist * math.Sin(ang)
		p.Theta += (f.rng.Float64()*2 - 1) * f.cfg.RandomWalkMaxTheta
	}
}

// resample replaces starved particles with clones of roulette-selected
// survivors, lightly jittered so the clones do not stack.
func (f *Filter) resample() {
	total := 0.0
	for i := range f.particles {
		total += f.particles[i].Weight
	}
	if total <= 0 {
		return
	}
	for i := range f.particles {
		if f.particles[i].Weight >= resampleThreshold {
			continue
		}
		src := f.rouletteSelect(total)
		clone := f.particles[src]
		clone.X += (f.rng.Float64()*2 - 1) * 2
		clone.Y += (f.rng.Float64()*2 - 1) * 2
		f.particles[i] = clone
	}
}

// rouletteSelect picks a particle index with probability proportional
// to its weight.
func (f *Filter) rouletteSelect(total float64) int {
	target := f.rng.Float64() * total
	acc := 0.0
	for i := range f.particles {
		acc += f.particles[i].Weight
		if acc >= target {
			return i
		}
	}
	return len(f.particles) - 1
}

// estimate recomputes the predicted pose as the weight-weighted mean
// of the particle positions, with a circular mean for the heading.
func (f *Filter) estimate() {
	n := len(f.particles)
	if n == 0 {
		return
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	sins := make([]float64, n)
	coss := make([]float64, n)
	ws := make([]float64, n)
	total := 0.0
	for i, p := range f.particles {
		xs[i] = p.X
		ys[i] = p.Y
		sins[i] = math.Sin(p.Theta)
		coss[i] = math.Cos(p.Theta)
		ws[i] = p.Weight
		total += p.Weight
	}
	if total <= 0 {
		ws = nil // fall back to an unweighted mean
	}
	f.predX = stat.Mean(xs, ws)
	f.predY = stat.Mean(ys, ws)
	f.predTheta = math.Atan2(stat.Mean(sins, ws), stat.Mean(coss, ws))
}
