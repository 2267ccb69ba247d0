// Package fixture loads and validates recorded depth post-processing test
// fixtures: a sequence of raw 16-bit depth frames plus the comma-delimited
// metadata describing the filter chain that produced the expected output.
package fixture

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/banshee-data/depthcheck/internal/fsutil"
	"github.com/banshee-data/depthcheck/internal/report"
)

// ErrFixtureMissing indicates one or more of the required fixture files is
// absent. Callers should treat it as a skip condition, not a failure:
// environments without recorded data are expected.
var ErrFixtureMissing = errors.New("fixture files missing")

// The four files every fixture consists of. Frame sequences are always
// zero-indexed, so the base name carries a fixed ".0".
var requiredSuffixes = []string{
	".Input.raw",
	".Input.csv",
	".Output.raw",
	".Output.csv",
}

// maxComfortableFrames is a soft cap on sequence length; longer recordings
// are prefetched whole and only cost time and memory, so exceeding it warns.
const maxComfortableFrames = 50

// Loader discovers, parses, and validates named fixtures. The zero value is
// not usable; call NewLoader.
type Loader struct {
	FS  fsutil.FileSystem
	Dir string // directory holding the fixture files
	Rec report.Recorder
}

// NewLoader creates a Loader over the real filesystem. An empty dir selects
// the platform temp directory, where the reference recorder drops fixtures.
func NewLoader(dir string, rec report.Recorder) *Loader {
	if dir == "" {
		dir = os.TempDir()
	}
	if rec == nil {
		rec = &report.LogRecorder{}
	}
	return &Loader{FS: fsutil.OSFileSystem{}, Dir: dir, Rec: rec}
}

// Load builds the fully validated configuration for the named fixture,
// including all prefetched frame buffers.
//
// A missing fixture file returns an error wrapping ErrFixtureMissing after
// warning about each absent file. Malformed metadata, geometry or calibration
// mismatches, out-of-range filter parameters, and wrong-size frame buffers
// are fatal: no partial Config is ever returned, and validation reports every
// failing check rather than stopping at the first.
func (l *Loader) Load(name string) (*Config, error) {
	base := filepath.Join(l.Dir, name+".0")

	var missing []string
	for _, suffix := range requiredSuffixes {
		path := base + suffix
		l.Rec.Capture("fixture_file", path)
		if !l.FS.Exists(path) {
			l.Rec.Warnf("required fixture file not present: %s", path)
			missing = append(missing, path)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %d of %d files for %q", ErrFixtureMissing,
			len(missing), len(requiredSuffixes), name)
	}

	inputMeta, err := ParseMetadata(l.FS, base+".Input.csv")
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", name, err)
	}
	outputMeta, err := ParseMetadata(l.FS, base+".Output.csv")
	if err != nil {
		return nil, fmt.Errorf("fixture %q: %w", name, err)
	}

	cfg := l.merge(name, inputMeta, outputMeta)

	// The sequence length comes from the input metadata but the output frame
	// names come from the output metadata; the two files must agree or the
	// prefetch below has nothing to pair frames with.
	if len(cfg.OutputFrameNames) != cfg.FramesSequenceSize {
		return nil, fmt.Errorf("fixture %q: input metadata declares %d frame(s) but output metadata declares %d",
			name, cfg.FramesSequenceSize, len(cfg.OutputFrameNames))
	}

	if cfg.FramesSequenceSize > maxComfortableFrames {
		l.Rec.Warnf("fixture %q sequence is long (%d frames); loading may be slow",
			name, cfg.FramesSequenceSize)
	}

	// Prefetch the whole sequence up front; buffers move into the config and
	// are owned by it from here on.
	for i := 0; i < cfg.FramesSequenceSize; i++ {
		in, err := l.FS.ReadFile(filepath.Join(l.Dir, cfg.InputFrameNames[i]))
		if err != nil {
			return nil, fmt.Errorf("fixture %q: input frame %d: %w", name, i, err)
		}
		out, err := l.FS.ReadFile(filepath.Join(l.Dir, cfg.OutputFrameNames[i]))
		if err != nil {
			return nil, fmt.Errorf("fixture %q: output frame %d: %w", name, i, err)
		}
		cfg.InputFrames = append(cfg.InputFrames, in)
		cfg.OutputFrames = append(cfg.OutputFrames, out)
	}

	l.capture(cfg)
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("fixture %q invalid: %w", name, err)
	}

	return cfg, nil
}

// merge combines the two provisional metadata records into the final
// configuration. The input file drives sequence, input geometry, and
// calibration; the output file drives output geometry and the filter chain.
func (l *Loader) merge(name string, in, out *Config) *Config {
	cfg := &Config{}
	cfg.Reset()
	cfg.Name = name

	cfg.FramesSequenceSize = in.FramesSequenceSize
	cfg.InputFrameNames = in.InputFrameNames
	cfg.OutputFrameNames = out.InputFrameNames

	cfg.InputResX = in.InputResX
	cfg.InputResY = in.InputResY
	cfg.OutputResX = out.InputResX
	cfg.OutputResY = out.InputResY

	cfg.DepthUnits = in.DepthUnits
	cfg.FocalLength = in.FocalLength
	// The recorder writes the baseline in meters; everything downstream
	// expects millimeters.
	cfg.StereoBaseline = in.StereoBaseline * 1000

	cfg.DownsampleScale = out.DownsampleScale
	cfg.SpatialFilter = out.SpatialFilter
	cfg.SpatialAlpha = out.SpatialAlpha
	cfg.SpatialDelta = out.SpatialDelta
	cfg.SpatialIterations = out.SpatialIterations
	cfg.TemporalFilter = out.TemporalFilter
	cfg.TemporalAlpha = out.TemporalAlpha
	cfg.TemporalDelta = out.TemporalDelta
	cfg.TemporalPersistence = out.TemporalPersistence
	cfg.HolesFilter = out.HolesFilter
	cfg.HolesFillingMode = out.HolesFillingMode

	return cfg
}

// capture records the merged configuration for failure diagnosis before the
// validation cascade runs.
func (l *Loader) capture(cfg *Config) {
	l.Rec.Capture("name", cfg.Name)
	l.Rec.Capture("input_res_x", cfg.InputResX)
	l.Rec.Capture("input_res_y", cfg.InputResY)
	l.Rec.Capture("output_res_x", cfg.OutputResX)
	l.Rec.Capture("output_res_y", cfg.OutputResY)
	l.Rec.Capture("downsample_scale", cfg.DownsampleScale)
	l.Rec.Capture("frames_sequence_size", cfg.FramesSequenceSize)
	l.Rec.Capture("spatial_filter", cfg.SpatialFilter)
	l.Rec.Capture("spatial_alpha", cfg.SpatialAlpha)
	l.Rec.Capture("spatial_delta", cfg.SpatialDelta)
	l.Rec.Capture("spatial_iterations", cfg.SpatialIterations)
	l.Rec.Capture("temporal_filter", cfg.TemporalFilter)
	l.Rec.Capture("temporal_alpha", cfg.TemporalAlpha)
	l.Rec.Capture("temporal_delta", cfg.TemporalDelta)
	l.Rec.Capture("temporal_persistence", cfg.TemporalPersistence)
	l.Rec.Capture("holes_filter", cfg.HolesFilter)
	l.Rec.Capture("holes_filling_mode", cfg.HolesFillingMode)
	for i := range cfg.InputFrames {
		l.Rec.Capture(fmt.Sprintf("input_frame_%d_bytes", i), len(cfg.InputFrames[i]))
		l.Rec.Capture(fmt.Sprintf("output_frame_%d_bytes", i), len(cfg.OutputFrames[i]))
	}
}
