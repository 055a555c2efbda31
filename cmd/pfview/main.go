// Command pfview visualizes an indoor localization particle filter, or
// collects a classifier feed trace from user control with --make-feed.
package main

import (
	"flag"
	"fmt"
	"log"
	"math"

	"pfviz/internal/bmap"
	"pfviz/internal/feed"
	"pfviz/internal/pf"
	"pfviz/internal/viz"
)

func main() {
	var (
		feedPath      = flag.String("feed", "", "path of the classifier data feed file")
		mapData       = flag.String("map-data", "", "path of the map data file")
		configPath    = flag.String("config", "", "path of a filter configuration file")
		mapImage      = flag.String("map-image", "", "path of the background map image")
		loopFeed      = flag.Bool("loop-feed", false, "loop the input feed after it finishes")
		makeFeed      = flag.Bool("make-feed", false, "collect feed data from user control")
		noDisp        = flag.Bool("no-disp", false, "disable visualizations (runs faster)")
		cNoise        = flag.Float64("classifier-noise", 0, "classifier noise added to the feed")
		mNoise        = flag.Float64("motion-noise", 0, "motion noise added to the feed")
		ignoreRegions = flag.Bool("ignore-regions", false, "disable the feed's region probabilities")
		logRate       = flag.Int("log-rate", 15, "manual ticks between feed trace samples")
		outFeed       = flag.String("out-feed", "", "file to write the recorded feed trace to on exit")
	)
	flag.Parse()
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	if *mapData == "" {
		log.Fatal("--map-data is required")
	}
	m, err := bmap.Load(*mapData)
	if err != nil {
		log.Fatal(err)
	}

	if *makeFeed {
		app := viz.NewApp(m, *mapImage, nil, nil, *logRate)
		if err := app.StartMakeFeed(); err != nil {
			log.Fatal(err)
		}
		if *outFeed != "" {
			if err := app.Recorder().WriteFile(*outFeed); err != nil {
				log.Fatal(err)
			}
			log.Printf("wrote %d feed entries to %s", len(app.Recorder().Entries()), *outFeed)
		}
		return
	}

	if *feedPath == "" {
		log.Fatal("--feed is required")
	}
	cfg := pf.DefaultConfig()
	if *configPath != "" {
		if cfg, err = pf.LoadConfig(*configPath); err != nil {
			log.Printf("using default filter config: %v", err)
		}
	}
	loop := *loopFeed
	if loop && *noDisp {
		log.Printf("--loop-feed ignored with --no-disp: a headless run must terminate")
		loop = false
	}
	fp, err := feed.Load(*feedPath, loop, feed.Options{
		ClassifierNoise: *cNoise,
		MotionNoise:     *mNoise,
		IgnoreRegions:   *ignoreRegions,
	})
	if err != nil {
		log.Fatal(err)
	}
	filter := pf.New(cfg, m)

	if *noDisp {
		runHeadless(m, filter, fp)
		return
	}
	app := viz.NewApp(m, *mapImage, filter, fp, 0)
	if err := app.StartParticleFilter(); err != nil {
		log.Fatal(err)
	}
}

// runHeadless advances the filter over the whole feed without a
// window, printing the estimate and, when the feed carries ground
// truth, the position error per step.
func runHeadless(m *bmap.Map, filter *pf.Filter, fp *feed.Processor) {
	step := 0
	for fp.HasNext() {
		probs, turn := fp.GetNext()
		if probs != nil {
			m.SetProbabilities(probs)
		}
		filter.Update(turn)
		x, y, theta := filter.Predicted()
		line := fmt.Sprintf("step %4d: estimate (%.1f, %.1f) theta %.3f", step, x, y, theta)
		if gt := fp.LastGroundTruth(); gt != nil {
			dx := x - float64(gt.X)
			dy := y - float64(gt.Y)
			line += fmt.Sprintf("  error %.1f", math.Sqrt(dx*dx+dy*dy))
		}
		fmt.Println(line)
		step++
	}
}
