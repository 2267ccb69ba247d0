package fixture

import (
	"errors"
	"fmt"
	"math"
)

// Config describes one recorded post-processing fixture: which filters were
// applied with what parameters, the frame geometry and calibration, and the
// prefetched frame buffers for the whole sequence.
//
// The same type doubles as the intermediate parse target for a single
// metadata file; ParseMetadata fills only the role-neutral fields
// (InputResX/Y, InputFrameNames, and all filter and calibration values) and
// the loader assigns roles when merging the input and output halves.
type Config struct {
	Name string

	SpatialFilter     bool
	SpatialAlpha      float64
	SpatialDelta      uint8
	SpatialIterations int

	TemporalFilter      bool
	TemporalAlpha       float64
	TemporalDelta       uint8
	TemporalPersistence uint8

	HolesFilter      bool
	HolesFillingMode int

	DownsampleScale int

	// DepthUnits and FocalLength come from the input metadata.
	// StereoBaseline is stored in millimeters; the source CSV records meters.
	DepthUnits     float64
	StereoBaseline float64
	FocalLength    float64

	InputResX  uint32
	InputResY  uint32
	OutputResX uint32
	OutputResY uint32

	FramesSequenceSize int

	InputFrameNames  []string
	OutputFrameNames []string

	// Raw pixel data, index-aligned with the name lists. 16-bit samples.
	InputFrames  [][]byte
	OutputFrames [][]byte
}

// Reset restores the zero state: all filter toggles off, numeric fields zero,
// downsample scale 1, sequence size 1, and all lists empty.
func (c *Config) Reset() {
	*c = Config{DownsampleScale: 1, FramesSequenceSize: 1}
}

// PaddedDim computes the expected output dimension for an input dimension and
// downsample scale: the downsampled dimension plus a 3-pixel margin, rounded
// down to a multiple of 4. Matches the filters' internal frame padding.
func PaddedDim(dim uint32, scale int) uint32 {
	padded := dim/uint32(scale) + 3
	padded /= 4
	padded *= 4
	return padded
}

// validate runs every sanity check on the merged configuration and returns
// all failures joined. Checks never short-circuit: a broken fixture surfaces
// every problem at once.
func (c *Config) validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	// Geometry. The output dimensions are fully determined by the input
	// dimensions and the downsample scale.
	if c.DownsampleScale >= 1 {
		if want := PaddedDim(c.InputResX, c.DownsampleScale); c.OutputResX != want {
			fail("output width %d, want %d for input width %d at scale %d",
				c.OutputResX, want, c.InputResX, c.DownsampleScale)
		}
		if want := PaddedDim(c.InputResY, c.DownsampleScale); c.OutputResY != want {
			fail("output height %d, want %d for input height %d at scale %d",
				c.OutputResY, want, c.InputResY, c.DownsampleScale)
		}
	} else {
		fail("downsample scale %d, must be at least 1", c.DownsampleScale)
	}
	if c.InputResX == 0 || c.InputResY == 0 {
		fail("input resolution %dx%d, both dimensions must be positive", c.InputResX, c.InputResY)
	}
	if c.OutputResX == 0 || c.OutputResY == 0 {
		fail("output resolution %dx%d, both dimensions must be positive", c.OutputResX, c.OutputResY)
	}

	// Calibration.
	if math.Abs(c.StereoBaseline) == 0 {
		fail("stereo baseline is zero")
	}
	if c.DepthUnits <= 0 {
		fail("depth units %g, must be positive", c.DepthUnits)
	}
	if c.FocalLength <= 0 {
		fail("focal length %g, must be positive", c.FocalLength)
	}
	if c.FramesSequenceSize <= 0 {
		fail("frames sequence size %d, must be positive", c.FramesSequenceSize)
	}

	// Buffer sizes. Frames are flat 16-bit-per-pixel buffers.
	wantIn := int(c.InputResX) * int(c.InputResY) * 2
	wantOut := int(c.OutputResX) * int(c.OutputResY) * 2
	for i := 0; i < len(c.InputFrames); i++ {
		if len(c.InputFrames[i]) != wantIn {
			fail("input frame %d is %d bytes, want %d", i, len(c.InputFrames[i]), wantIn)
		}
	}
	for i := 0; i < len(c.OutputFrames); i++ {
		if len(c.OutputFrames[i]) != wantOut {
			fail("output frame %d is %d bytes, want %d", i, len(c.OutputFrames[i]), wantOut)
		}
	}

	// Filter parameter ranges. The bounds mirror the filters' implementations
	// and are a compatibility contract with the recorded fixtures; a disabled
	// filter leaves its parameters unchecked.
	if c.SpatialFilter {
		if c.SpatialAlpha < 0.25 || c.SpatialAlpha > 1.0 {
			fail("spatial alpha %g outside [0.25, 1]", c.SpatialAlpha)
		}
		if c.SpatialDelta < 1 || c.SpatialDelta > 50 {
			fail("spatial delta %d outside [1, 50]", c.SpatialDelta)
		}
		if c.SpatialIterations < 1 || c.SpatialIterations > 5 {
			fail("spatial iterations %d outside [1, 5]", c.SpatialIterations)
		}
	}
	if c.TemporalFilter {
		if c.TemporalAlpha < 0 || c.TemporalAlpha > 1 {
			fail("temporal alpha %g outside [0, 1]", c.TemporalAlpha)
		}
		if c.TemporalDelta < 1 || c.TemporalDelta > 100 {
			fail("temporal delta %d outside [1, 100]", c.TemporalDelta)
		}
		if c.TemporalPersistence > 8 {
			fail("temporal persistence %d outside [0, 8]", c.TemporalPersistence)
		}
	}
	if c.HolesFilter {
		if c.HolesFillingMode < 0 || c.HolesFillingMode > 2 {
			fail("holes filling mode %d outside [0, 2]", c.HolesFillingMode)
		}
	}

	return errors.Join(errs...)
}
