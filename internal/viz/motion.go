package viz

import "math"

// Pose is a 2D position and heading in map coordinates.
type Pose struct {
	X     float64
	Y     float64
	Theta float64
}

const (
	// moveSpeed is the agent's walking speed in pixels per manual tick.
	moveSpeed = 1.2
	// distThresh is how close the agent walks to the drag target before
	// stopping.
	distThresh = 30.0
	// turnRate is the heading change per tick while a turn key is held.
	turnRate = math.Pi / 45
)

// MotionModel owns the simulated agent pose in manual mode and
// integrates the aggregated input into motion once per manual tick.
type MotionModel struct {
	pose   Pose
	cols   int
	rows   int
	locked bool
}

// NewMotionModel starts the agent at the center of the map with the
// simulation lock engaged.
func NewMotionModel(cols, rows int) *MotionModel {
	return &MotionModel{
		pose:   Pose{X: float64(cols) / 2, Y: float64(rows) / 2},
		cols:   cols,
		rows:   rows,
		locked: true,
	}
}

// Pose returns the current agent pose.
func (m *MotionModel) Pose() Pose { return m.pose }

// Locked reports whether the simulation lock is engaged.
func (m *MotionModel) Locked() bool { return m.locked }

// ToggleLock flips the simulation lock. While locked, Tick is a no-op
// and nothing is recorded.
func (m *MotionModel) ToggleLock() { m.locked = !m.locked }

// Teleport moves the agent to (x, y) immediately, heading unchanged.
// It applies regardless of the simulation lock and is idempotent.
func (m *MotionModel) Teleport(x, y float64) {
	m.pose.X = x
	m.pose.Y = y
}

// Tick advances the agent one manual frame. An active drag steers the
// heading toward the mouse and walks the agent there, stopping once
// inside the threshold distance. Without a drag the direction keys
// apply: up/down translate along the current heading, left/right
// rotate it. No active input means zero motion.
func (m *MotionModel) Tick(dirs DirectionSet, mouse MouseState) {
	if m.locked {
		return
	}
	if mouse.Pressed {
		dx := mouse.X - m.pose.X
		dy := mouse.Y - m.pose.Y
		m.pose.Theta = math.Atan2(dy, dx)
		if dx*dx+dy*dy >= distThresh*distThresh {
			m.pose.X += moveSpeed * math.Cos(m.pose.Theta)
			m.pose.Y += moveSpeed * math.Sin(m.pose.Theta)
			m.clamp()
		}
		return
	}
	if dirs[DirLeft] {
		m.pose.Theta -= turnRate
	}
	if dirs[DirRight] {
		m.pose.Theta += turnRate
	}
	step := 0.0
	if dirs[DirUp] {
		step += moveSpeed
	}
	if dirs[DirDown] {
		step -= moveSpeed
	}
	if step != 0 {
		m.pose.X += step * math.Cos(m.pose.Theta)
		m.pose.Y += step * math.Sin(m.pose.Theta)
		m.clamp()
	}
}

func (m *MotionModel) clamp() {
	if m.pose.X < 0 {
		m.pose.X = 0
	}
	if max := float64(m.cols - 1); m.pose.X > max {
		m.pose.X = max
	}
	if m.pose.Y < 0 {
		m.pose.Y = 0
	}
	if max := float64(m.rows - 1); m.pose.Y > max {
		m.pose.Y = max
	}
}
