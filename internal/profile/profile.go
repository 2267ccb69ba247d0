// Package profile computes the pass/fail oracle for post-processing fixtures:
// descriptive statistics over a per-pixel difference sequence, checked
// against caller-supplied thresholds.
package profile

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"

	"gonum.org/v1/gonum/stat"

	"github.com/banshee-data/depthcheck/internal/fsutil"
	"github.com/banshee-data/depthcheck/internal/report"
)

// ErrEmptyDiffs indicates a profiling call with no pixels. That is a caller
// error, distinct from a failing verdict.
var ErrEmptyDiffs = errors.New("empty difference sequence")

// Result holds the statistical profile of one frame's difference sequence
// and the outcome of both threshold checks.
type Result struct {
	Pixels       int
	Mean         float64
	StdDev       float64 // population standard deviation (divisor N)
	NonZeroCount int
	FirstIndex   int // index of the first non-zero difference, -1 if all zero
	FirstValue   float64
	MaxIndex     int // first index of the maximum difference
	MaxValue     float64

	StdDevOK  bool
	OutlierOK bool
	Pass      bool
}

// Profiler evaluates difference sequences. The zero value is not usable;
// call NewProfiler.
type Profiler struct {
	FS  fsutil.FileSystem
	Rec report.Recorder
}

// NewProfiler creates a Profiler over the real filesystem.
func NewProfiler(rec report.Recorder) *Profiler {
	if rec == nil {
		rec = &report.LogRecorder{}
	}
	return &Profiler{FS: fsutil.OSFileSystem{}, Rec: rec}
}

// Profile persists the difference sequence to the named artifact, computes
// its statistics, and checks them against the thresholds. frameIdx is only
// used to label diagnostics.
//
// The verdict passes iff the population standard deviation is within maxStd
// and the magnitude of the maximum difference is within outlier. Both checks
// are always evaluated and recorded independently, so a frame that violates
// both thresholds surfaces both violations. The artifact write is a side
// effect for offline plotting; its failure warns but never affects the
// verdict.
func (p *Profiler) Profile(artifact string, diffs []float64, maxStd, outlier float64, frameIdx int) (*Result, error) {
	if err := p.persist(artifact, diffs); err != nil {
		p.Rec.Warnf("could not persist diff artifact %s: %v", artifact, err)
	}

	if len(diffs) == 0 {
		return nil, ErrEmptyDiffs
	}

	r := &Result{
		Pixels:     len(diffs),
		Mean:       stat.Mean(diffs, nil),
		StdDev:     stat.PopStdDev(diffs, nil),
		FirstIndex: -1,
	}

	r.MaxValue = diffs[0]
	for i, v := range diffs {
		if v != 0 {
			r.NonZeroCount++
			if r.FirstIndex < 0 {
				r.FirstIndex = i
				r.FirstValue = v
			}
		}
		if v > r.MaxValue {
			r.MaxValue = v
			r.MaxIndex = i
		}
	}

	if r.MaxValue != 0 {
		p.Rec.Warnf("frame %d: %d non-identical pixels, first diff %g at index %d, max diff %g at index %d",
			frameIdx, r.NonZeroCount, r.FirstValue, r.FirstIndex, r.MaxValue, r.MaxIndex)
	}

	p.Rec.Capture("pixels", r.Pixels)
	p.Rec.Capture("mean", r.Mean)
	p.Rec.Capture("standard_deviation", r.StdDev)
	p.Rec.Capture("max_allowed_std", maxStd)
	p.Rec.Capture("max_value", r.MaxValue)
	p.Rec.Capture("max_value_index", r.MaxIndex)
	p.Rec.Capture("non_identical_count", r.NonZeroCount)
	p.Rec.Capture("first_non_identical_index", r.FirstIndex)
	p.Rec.Capture("first_difference", r.FirstValue)
	p.Rec.Capture("outlier", outlier)
	p.Rec.Capture("frame_idx", frameIdx)

	r.StdDevOK = p.Rec.Check("standard_deviation_within_bound",
		r.StdDev <= maxStd,
		fmt.Sprintf("frame %d: std dev %g exceeds %g", frameIdx, r.StdDev, maxStd))
	r.OutlierOK = p.Rec.Check("max_difference_within_outlier",
		math.Abs(r.MaxValue) <= outlier,
		fmt.Sprintf("frame %d: |max diff| %g exceeds %g", frameIdx, math.Abs(r.MaxValue), outlier))
	r.Pass = r.StdDevOK && r.OutlierOK

	return r, nil
}

// persist writes the sequence to the artifact file, one value per line in
// sequence order.
func (p *Profiler) persist(artifact string, diffs []float64) error {
	f, err := p.FS.Create(artifact)
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)
	for _, v := range diffs {
		w.WriteString(strconv.FormatFloat(v, 'g', -1, 64))
		w.WriteByte('\n')
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
