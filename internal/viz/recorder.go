package viz

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/atotto/clipboard"
)

// FeedEntry is one recorded step of a manual trace, serializable in
// the classifier feed format.
type FeedEntry struct {
	Region     int
	Odometry   int
	Turn       float64
	TruthX     int
	TruthY     int
	TruthTheta float64
}

// String renders the entry as feed-file lines: a one-hot probability
// line for regions 1..6, the odometry/turn line, and the ground-truth
// line.
func (e FeedEntry) String() string {
	probs := [6]string{"0.0", "0.0", "0.0", "0.0", "0.0", "0.0"}
	if e.Region >= 1 && e.Region <= 6 {
		probs[e.Region-1] = "1.0"
	}
	return fmt.Sprintf("%s\n+ %d %.5f\n! %d %d %.5f",
		strings.Join(probs[:], " "), e.Odometry, e.Turn, e.TruthX, e.TruthY, e.TruthTheta)
}

// FeedRecorder samples the agent pose on a fixed manual-tick cadence
// and accumulates feed entries with odometry deltas between samples.
// The recorded trace parses back through the feed processor.
type FeedRecorder struct {
	entries  []FeedEntry
	logEvery int
	frame    int
	regionAt func(x, y int) int
}

// NewFeedRecorder records one entry per logEvery ticks. A logEvery of
// zero or less disables recording. regionAt resolves the map region
// under a position.
func NewFeedRecorder(logEvery int, regionAt func(x, y int) int) *FeedRecorder {
	return &FeedRecorder{logEvery: logEvery, regionAt: regionAt}
}

// Record samples the pose if this tick falls on the logging cadence.
func (r *FeedRecorder) Record(pose Pose) {
	if r.logEvery <= 0 {
		return
	}
	if r.frame%r.logEvery == 0 {
		r.log(pose)
	}
	r.frame++
}

func (r *FeedRecorder) log(pose Pose) {
	e := FeedEntry{
		Region:     r.regionAt(int(pose.X), int(pose.Y)),
		TruthX:     int(pose.X),
		TruthY:     int(pose.Y),
		TruthTheta: pose.Theta,
	}
	if n := len(r.entries); n > 0 {
		prev := r.entries[n-1]
		dx := float64(prev.TruthX) - pose.X
		dy := float64(prev.TruthY) - pose.Y
		e.Odometry = int(math.Round(math.Sqrt(dx*dx + dy*dy)))
		e.Turn = prev.TruthTheta - pose.Theta
	}
	r.entries = append(r.entries, e)
}

// Entries returns the recorded entries.
func (r *FeedRecorder) Entries() []FeedEntry { return r.entries }

// Format returns the whole trace in feed-file form.
func (r *FeedRecorder) Format() string {
	var sb strings.Builder
	for _, e := range r.entries {
		sb.WriteString(e.String())
		sb.WriteByte('\n')
	}
	return sb.String()
}

// WriteFile saves the trace to path.
func (r *FeedRecorder) WriteFile(path string) error {
	return os.WriteFile(path, []byte(r.Format()), 0o644)
}

// CopyToClipboard puts the trace on the system clipboard.
func (r *FeedRecorder) CopyToClipboard() error {
	return clipboard.WriteAll(r.Format())
}
