// Package bmap holds the building map: a fixed grid of region indices
// plus the per-region probabilities that the classifier feed replaces
// every update.
package bmap

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Region indices into the probability sequence. Index 0 is the void
// (out-of-building) slot; it is tracked but never displayed.
const (
	RegionVoid = iota
	RegionHall
	RegionStairs
	RegionElevator
	RegionDoor
	RegionSit
	RegionStand

	NumRegions
)

// voidProb is the fixed near-zero probability of void space, so
// particles drifting off the floor plan starve quickly.
const voidProb = 0.01

// Map is the building's region grid and current region probabilities.
// The grid and its dimensions are fixed at load time.
type Map struct {
	rows  int
	cols  int
	grid  [][]int
	probs []float64
}

// Load reads a map data file: one grid row per line, comma-separated
// region indices. All rows must be the same width.
func Load(path string) (*Map, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read map data: %w", err)
	}
	m := &Map{probs: make([]float64, NumRegions)}
	for i := range m.probs {
		m.probs[i] = 1.0
	}
	m.probs[RegionVoid] = voidProb

	for lineNo, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		fields := strings.Split(line, ",")
		row := make([]int, len(fields))
		for j, f := range fields {
			v, err := strconv.Atoi(strings.TrimSpace(f))
			if err != nil {
				return nil, fmt.Errorf("map data line %d: %w", lineNo+1, err)
			}
			row[j] = v
		}
		if m.grid != nil && len(row) != m.cols {
			return nil, fmt.Errorf("map data line %d: width %d, want %d", lineNo+1, len(row), m.cols)
		}
		m.cols = len(row)
		m.grid = append(m.grid, row)
	}
	m.rows = len(m.grid)
	return m, nil
}

// NumRows returns the grid height in pixels.
func (m *Map) NumRows() int { return m.rows }

// NumCols returns the grid width in pixels.
func (m *Map) NumCols() int { return m.cols }

// RegionAt returns the region index at (x, y). Out-of-bounds positions
// are void space.
func (m *Map) RegionAt(x, y int) int {
	if x < 0 || x >= m.cols || y < 0 || y >= m.rows {
		return RegionVoid
	}
	return m.grid[y][x]
}

// ProbabilityOf returns the current probability of the region under
// (x, y), or 0 when out of bounds.
func (m *Map) ProbabilityOf(x, y float64) float64 {
	xi, yi := int(x), int(y)
	if xi < 0 || xi >= m.cols || yi < 0 || yi >= m.rows {
		return 0
	}
	return m.probs[m.grid[yi][xi]]
}

// RegionProbs returns the probability sequence. Index 0 is the
// reserved void slot; indices 1..6 are the labeled regions.
func (m *Map) RegionProbs() []float64 { return m.probs }

// SetProbabilities replaces the region probabilities wholesale. The
// classifier feed carries six values (regions 1..6); those land on
// indices 1..6 and the void slot keeps its value. A slice of full
// length or longer replaces the whole sequence. Anything shorter is
// ignored.
func (m *Map) SetProbabilities(p []float64) {
	switch {
	case len(p) >= NumRegions:
		m.probs = append([]float64(nil), p...)
	case len(p) == NumRegions-1:
		void := m.probs[RegionVoid]
		m.probs = append([]float64{void}, p...)
	}
}
