package viz

import (
	"fmt"
	"image/color"
	"math"
	"strings"

	"pfviz/internal/pf"
)

// Display settings.
const (
	particleRadius   = 5.0
	estimateRadius   = 30.0
	agentRadius      = 10.0
	agentHeadingLen  = 20.0
	userControlFPS   = 30
	updateIntervalMS = 500

	readoutPadding = 100.0
	readoutOffsetY = 50.0
	readoutValueDY = 25.0
)

// Scene colors.
var (
	colorParticle   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	colorEstimate   = color.RGBA{R: 160, G: 32, B: 240, A: 255}
	colorAgent      = color.RGBA{G: 128, A: 255}
	colorDragLine   = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	colorKeyLabel   = color.RGBA{B: 255, A: 255}
	colorReadout    = color.RGBA{R: 255, A: 255}
	colorReadoutMax = color.RGBA{R: 255, G: 255, B: 0, A: 255}
	colorTurning    = color.RGBA{G: 128, A: 255}
)

// regionLabels are the displayed names for region probability indices
// 1..6, in index order.
var regionLabels = [6]string{"hall", "stairs", "elevator", "door", "sit", "stand"}

// OpKind discriminates draw commands.
type OpKind int

const (
	// OpBackground clears the surface and blits the map image if one
	// loaded. Always the first op of a frame.
	OpBackground OpKind = iota
	// OpDisc is a filled disc centered at (X, Y) with Radius.
	OpDisc
	// OpRing is an unfilled circle at (X, Y) with Radius and Stroke.
	OpRing
	// OpLine is a segment from (X, Y) to (X2, Y2) with Stroke width.
	OpLine
	// OpText is Text centered on (X, Y).
	OpText
)

// DrawOp is one device-independent draw command. The frame builders
// emit these and the Ebiten executor replays them in order, so z-order
// is slice order.
type DrawOp struct {
	Kind   OpKind
	X, Y   float64
	X2, Y2 float64
	Radius float64
	Stroke float64
	Color  color.RGBA
	Text   string
}

// ParticleRadius returns the rendered radius for a particle weight:
// linear in the weight, with the unweighted radius as the floor at
// weight zero.
func ParticleRadius(weight float64) float64 {
	return particleRadius + particleRadius*weight/2
}

// BuildManualFrame composes the manual-mode scene: background, agent
// disc and heading line, the drag line while the mouse is held, and
// the active-input label near the bottom.
func BuildManualFrame(cols, rows int, agent Pose, dirs DirectionSet, mouse MouseState) []DrawOp {
	ops := []DrawOp{
		{Kind: OpBackground},
		{Kind: OpDisc, X: agent.X, Y: agent.Y, Radius: agentRadius, Color: colorAgent},
		{
			Kind: OpLine, X: agent.X, Y: agent.Y,
			X2:     agent.X + agentHeadingLen*math.Cos(agent.Theta),
			Y2:     agent.Y + agentHeadingLen*math.Sin(agent.Theta),
			Stroke: 4, Color: colorAgent,
		},
	}
	if mouse.Pressed {
		ops = append(ops, DrawOp{
			Kind: OpLine, X: agent.X, Y: agent.Y, X2: mouse.X, Y2: mouse.Y,
			Stroke: 1, Color: colorDragLine,
		})
	}
	labels := dirs.Active()
	if mouse.Pressed {
		labels = append(labels, "Mouse")
	}
	ops = append(ops, DrawOp{
		Kind: OpText,
		X:    float64(cols) / 2, Y: float64(rows) - readoutOffsetY,
		Text: strings.Join(labels, ", "), Color: colorKeyLabel,
	})
	return ops
}

// BuildFilterFrame composes the automated-mode scene: background,
// weight-scaled particles, the fixed-size estimate ring, the region
// probability readout, and the turn annotation when a turn is in
// progress.
func BuildFilterFrame(cols, rows int, particles []pf.Particle, est Pose, probs []float64, turnAngle float64) []DrawOp {
	ops := []DrawOp{{Kind: OpBackground}}
	for _, p := range particles {
		r := ParticleRadius(p.Weight)
		ops = append(ops,
			DrawOp{Kind: OpDisc, X: p.X, Y: p.Y, Radius: r, Color: colorParticle},
			DrawOp{
				Kind: OpLine, X: p.X, Y: p.Y,
				X2: p.X + r*math.Cos(p.Theta), Y2: p.Y + r*math.Sin(p.Theta),
				Stroke: 1, Color: colorParticle,
			},
		)
	}
	// The estimate ring is a fixed size no matter how confident the
	// estimator is.
	halfR := estimateRadius / 2
	thickness := estimateRadius/8 + 1
	cosT := math.Cos(est.Theta)
	sinT := math.Sin(est.Theta)
	ops = append(ops,
		DrawOp{Kind: OpRing, X: est.X, Y: est.Y, Radius: halfR, Stroke: thickness, Color: colorEstimate},
		DrawOp{
			Kind: OpLine,
			X:    est.X + halfR*cosT, Y: est.Y + halfR*sinT,
			X2:   est.X + (halfR+estimateRadius)*cosT,
			Y2:   est.Y + (halfR+estimateRadius)*sinT,
			Stroke: thickness, Color: colorEstimate,
		},
	)
	return append(ops, buildReadout(cols, rows, probs, turnAngle)...)
}

// buildReadout lays out the six labeled region probabilities centered
// near the bottom of the map, with the most likely region highlighted.
// The probability at index 0 is the reserved void slot and is never
// displayed.
func buildReadout(cols, rows int, probs []float64, turnAngle float64) []DrawOp {
	var ops []DrawOp
	if len(probs) < 7 {
		return ops
	}
	textX := float64(cols) / 2
	textY := float64(rows) - readoutOffsetY
	maxIdx := 1
	for i := 2; i <= 6; i++ {
		if probs[i] > probs[maxIdx] {
			maxIdx = i
		}
	}
	for i := 0; i < 6; i++ {
		col := colorReadout
		if i+1 == maxIdx {
			col = colorReadoutMax
		}
		x := textX - readoutPadding*(float64(i)-2.5)
		ops = append(ops,
			DrawOp{Kind: OpText, X: x, Y: textY, Text: regionLabels[i], Color: col},
			DrawOp{Kind: OpText, X: x, Y: textY + readoutValueDY, Text: fmt.Sprintf("%.3f", probs[i+1]), Color: col},
		)
	}
	// A zero turn angle means "no turn signal this tick" and suppresses
	// the annotation.
	if turnAngle != 0 {
		ops = append(ops, DrawOp{
			Kind: OpText,
			X:    textX + readoutPadding*4, Y: textY + 12,
			Text: fmt.Sprintf("TURNING: %.3f", turnAngle), Color: colorTurning,
		})
	}
	return ops
}
