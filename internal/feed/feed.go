// Package feed replays a recorded classifier data stream: per-step
// region probabilities, optional odometry/turn lines, and optional
// ground-truth lines.
package feed

import (
	"bufio"
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"time"
)

// Motion is the odometry attached to a feed step: distance traveled
// and turn angle since the previous step.
type Motion struct {
	Odometry int
	Turn     float64
}

// GroundTruth is the true pose recorded with a feed step. It is only
// used for error reporting; the filter never sees it.
type GroundTruth struct {
	X     int
	Y     int
	Theta float64
}

// Options tune how the feed is replayed.
type Options struct {
	// ClassifierNoise adds up to this much random mass to each region
	// probability on read.
	ClassifierNoise float64
	// MotionNoise perturbs the turn angle of steps that carry motion.
	MotionNoise float64
	// IgnoreRegions replaces every probability line with a uniform one.
	IgnoreRegions bool
	// Seed fixes the noise source. Zero means time-seeded.
	Seed int64
}

// Processor walks a parsed feed one step at a time, optionally looping
// back to the start when the stream runs out.
type Processor struct {
	probs   [][]float64
	motions []*Motion
	truths  []*GroundTruth
	next    int
	loop    bool
	opts    Options
	rng     *rand.Rand

	lastTruth *GroundTruth
}

// Load parses a feed file. Blank lines and lines starting with '#' are
// skipped. A line starting with '+' carries "odometry turn" for the
// probability line above it; a line starting with '!' carries
// "x y theta" ground truth for the line above it. Every other line is
// a series of space-delimited region probabilities.
func Load(path string, loop bool, opts Options) (*Processor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load feed file: %w", err)
	}
	defer f.Close()

	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	p := &Processor{
		loop: loop,
		opts: opts,
		rng:  rand.New(rand.NewSource(seed)), // #nosec G404 -- simulation noise only
	}

	lineNo := 0
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		switch {
		case strings.HasPrefix(line, "+"):
			fields := strings.Fields(line[1:])
			if len(fields) < 2 || len(p.motions) == 0 {
				continue
			}
			od, err1 := strconv.Atoi(fields[0])
			turn, err2 := strconv.ParseFloat(fields[1], 64)
			if err1 != nil || err2 != nil {
				return nil, fmt.Errorf("feed line %d: bad motion entry", lineNo)
			}
			p.motions[len(p.motions)-1] = &Motion{Odometry: od, Turn: turn}
		case strings.HasPrefix(line, "!"):
			fields := strings.Fields(line[1:])
			if len(fields) < 3 || len(p.truths) == 0 {
				continue
			}
			x, err1 := strconv.Atoi(fields[0])
			y, err2 := strconv.Atoi(fields[1])
			theta, err3 := strconv.ParseFloat(fields[2], 64)
			if err1 != nil || err2 != nil || err3 != nil {
				return nil, fmt.Errorf("feed line %d: bad ground truth entry", lineNo)
			}
			p.truths[len(p.truths)-1] = &GroundTruth{X: x, Y: y, Theta: theta}
		default:
			fields := strings.Fields(line)
			probs := make([]float64, len(fields))
			for i, f := range fields {
				v, err := strconv.ParseFloat(f, 64)
				if err != nil {
					return nil, fmt.Errorf("feed line %d: %w", lineNo, err)
				}
				probs[i] = v
			}
			p.probs = append(p.probs, probs)
			p.motions = append(p.motions, nil)
			p.truths = append(p.truths, nil)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("load feed file: %w", err)
	}
	return p, nil
}

// Len returns the number of parsed feed steps.
func (p *Processor) Len() int { return len(p.probs) }

// HasNext reports whether another step is available. With looping
// enabled this stays true as long as the feed is non-empty.
func (p *Processor) HasNext() bool {
	if p.loop {
		return len(p.probs) > 0
	}
	return p.next < len(p.probs)
}

// GetNext returns the next step's region probabilities and turn angle.
// When the stream is exhausted (and not looping) the probabilities are
// nil and the turn angle 0, which callers treat as "no update".
func (p *Processor) GetNext() (probs []float64, turnAngle float64) {
	if p.next >= len(p.probs) {
		p.lastTruth = nil
		return nil, 0
	}
	probs = p.stepProbs(p.probs[p.next])
	if m := p.motions[p.next]; m != nil {
		turnAngle = m.Turn
		if p.opts.MotionNoise > 0 {
			turnAngle += p.rng.NormFloat64() * p.opts.MotionNoise
		}
	}
	p.lastTruth = p.truths[p.next]
	p.next++
	if p.next >= len(p.probs) && p.loop {
		p.next = 0
	}
	return probs, turnAngle
}

// LastGroundTruth returns the ground truth attached to the step most
// recently returned by GetNext, or nil if that step had none.
func (p *Processor) LastGroundTruth() *GroundTruth { return p.lastTruth }

// stepProbs returns a copy of the stored probabilities with the
// configured distortions applied. The stored feed is never mutated.
func (p *Processor) stepProbs(stored []float64) []float64 {
	out := make([]float64, len(stored))
	if p.opts.IgnoreRegions {
		for i := range out {
			out[i] = 1.0
		}
		return out
	}
	copy(out, stored)
	if p.opts.ClassifierNoise > 0 {
		for i := range out {
			out[i] += p.rng.Float64() * p.opts.ClassifierNoise
		}
	}
	return out
}
