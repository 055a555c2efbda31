package pf

import (
	"fmt"
	"math"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the particle filter tuning parameters. Field names
// mirror the KEY = value keys of the configuration file.
type Config struct {
	NumParticles        int
	UpdatesPerFrame     int
	MoveSpeed           float64
	RandomWalkFrequency int
	RandomWalkMaxDist   float64
	RandomWalkMaxTheta  float64
	WeightDecayRate     float64

	// Optional start pose. When set, particles cluster near it instead
	// of scattering uniformly across the map.
	StartX     *float64
	StartY     *float64
	StartTheta *float64
}

// DefaultConfig returns the stock filter parameters.
func DefaultConfig() Config {
	return Config{
		NumParticles:        2000,
		UpdatesPerFrame:     1,
		MoveSpeed:           3,
		RandomWalkFrequency: 3,
		RandomWalkMaxDist:   80,
		RandomWalkMaxTheta:  math.Pi / 4,
		WeightDecayRate:     1.0,
	}
}

// LoadConfig reads a KEY = value configuration file. On any read or
// parse error the returned config still carries usable values (the
// defaults plus whatever parsed cleanly) so the caller can log the
// error and proceed.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	vals, err := godotenv.Read(path)
	if err != nil {
		return cfg, fmt.Errorf("read config file: %w", err)
	}

	var parseErr error
	intKey := func(key string, dst *int) {
		s, ok := vals[key]
		if !ok {
			return
		}
		v, err := strconv.Atoi(s)
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("config %s: %w", key, err)
			}
			return
		}
		*dst = v
	}
	floatKey := func(key string, dst *float64) {
		s, ok := vals[key]
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("config %s: %w", key, err)
			}
			return
		}
		*dst = v
	}
	optFloatKey := func(key string, dst **float64) {
		s, ok := vals[key]
		if !ok {
			return
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			if parseErr == nil {
				parseErr = fmt.Errorf("config %s: %w", key, err)
			}
			return
		}
		*dst = &v
	}

	intKey("NUM_PARTICLES", &cfg.NumParticles)
	intKey("UPDATES_PER_FRAME", &cfg.UpdatesPerFrame)
	floatKey("PARTICLE_MOVE_SPEED", &cfg.MoveSpeed)
	intKey("RANDOM_WALK_FREQUENCY", &cfg.RandomWalkFrequency)
	floatKey("RANDOM_WALK_MAX_DIST", &cfg.RandomWalkMaxDist)
	floatKey("RANDOM_WALK_MAX_THETA", &cfg.RandomWalkMaxTheta)
	floatKey("WEIGHT_DECAY_RATE", &cfg.WeightDecayRate)
	optFloatKey("START_X", &cfg.StartX)
	optFloatKey("START_Y", &cfg.StartY)
	optFloatKey("START_THETA", &cfg.StartTheta)

	return cfg, parseErr
}
