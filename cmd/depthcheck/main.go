// Package main provides the depthcheck tool. It validates a recorded
// post-processing fixture and, given a directory of actual output frames,
// profiles the per-pixel differences against the fixture's expected output.
package main

import (
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/banshee-data/depthcheck/internal/fixture"
	"github.com/banshee-data/depthcheck/internal/profile"
	"github.com/banshee-data/depthcheck/internal/report"
	"github.com/banshee-data/depthcheck/internal/resultstore"
)

type config struct {
	Fixture   string
	Dir       string
	ActualDir string
	MaxStd    float64
	Outlier   float64
	DBPath    string
	PlotDir   string
	Verbose   bool
}

func parseFlags() *config {
	cfg := &config{}
	flag.StringVar(&cfg.Fixture, "fixture", "", "fixture base name (required)")
	flag.StringVar(&cfg.Dir, "dir", "", "fixture directory (default: platform temp directory)")
	flag.StringVar(&cfg.ActualDir, "actual", "", "directory of actual output .raw frames; omit to only validate the fixture")
	flag.Float64Var(&cfg.MaxStd, "max-std", 0, "maximum allowed population standard deviation")
	flag.Float64Var(&cfg.Outlier, "outlier", 0, "maximum allowed per-pixel difference magnitude")
	flag.StringVar(&cfg.DBPath, "db", "", "optional sqlite database to record results in")
	flag.StringVar(&cfg.PlotDir, "plots", "", "optional directory for diff plot PNGs")
	flag.BoolVar(&cfg.Verbose, "v", false, "verbose diagnostics")
	flag.Parse()
	return cfg
}

func main() {
	cfg := parseFlags()
	if cfg.Fixture == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(cfg); err != nil {
		if errors.Is(err, fixture.ErrFixtureMissing) {
			// Absent fixtures are expected where no data was recorded.
			log.Printf("skipping %s: %v", cfg.Fixture, err)
			return
		}
		log.Fatalf("depthcheck: %v", err)
	}
}

func run(cfg *config) error {
	rec := &report.LogRecorder{Verbose: cfg.Verbose}

	loader := fixture.NewLoader(cfg.Dir, rec)
	fix, err := loader.Load(cfg.Fixture)
	if err != nil {
		return err
	}
	log.Printf("fixture %s: %d frame(s), input %dx%d, output %dx%d",
		fix.Name, fix.FramesSequenceSize, fix.InputResX, fix.InputResY,
		fix.OutputResX, fix.OutputResY)

	if cfg.ActualDir == "" {
		log.Printf("fixture %s is valid", fix.Name)
		return nil
	}

	var store *resultstore.Store
	if cfg.DBPath != "" {
		store, err = resultstore.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer store.Close()
	}
	if cfg.PlotDir != "" {
		if err := os.MkdirAll(cfg.PlotDir, 0755); err != nil {
			return fmt.Errorf("create plot dir: %w", err)
		}
	}

	prof := profile.NewProfiler(rec)
	failed := 0
	for i := 0; i < fix.FramesSequenceSize; i++ {
		actual, err := os.ReadFile(filepath.Join(cfg.ActualDir, fix.OutputFrameNames[i]))
		if err != nil {
			return fmt.Errorf("actual frame %d: %w", i, err)
		}

		diffs, err := profile.Diff16(actual, fix.OutputFrames[i])
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		artifact := fmt.Sprintf("%s.%d.diffs.txt", fix.Name, i)
		result, err := prof.Profile(artifact, diffs, cfg.MaxStd, cfg.Outlier, i)
		if err != nil {
			return fmt.Errorf("frame %d: %w", i, err)
		}

		if store != nil {
			record := resultstore.NewProfileRecord(fix.Name, i, result, cfg.MaxStd, cfg.Outlier)
			if err := store.Insert(record); err != nil {
				return err
			}
		}
		if cfg.PlotDir != "" {
			plotPath := filepath.Join(cfg.PlotDir, fmt.Sprintf("%s.%d.png", fix.Name, i))
			title := fmt.Sprintf("%s frame %d", fix.Name, i)
			if err := profile.SavePlot(plotPath, title, diffs); err != nil {
				return err
			}
		}

		if result.Pass {
			log.Printf("frame %d: pass (mean %.4g, std %.4g, max %.4g)",
				i, result.Mean, result.StdDev, result.MaxValue)
		} else {
			failed++
			log.Printf("frame %d: FAIL (mean %.4g, std %.4g > %.4g allowed? %v, max %.4g > %.4g allowed? %v)",
				i, result.Mean, result.StdDev, cfg.MaxStd, !result.StdDevOK,
				result.MaxValue, cfg.Outlier, !result.OutlierOK)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d frame(s) failed profiling", failed, fix.FramesSequenceSize)
	}
	log.Printf("all %d frame(s) passed", fix.FramesSequenceSize)
	return nil
}
