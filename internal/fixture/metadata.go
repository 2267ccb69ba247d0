package fixture

import (
	"bufio"
	"fmt"
	"strconv"
	"strings"

	"github.com/banshee-data/depthcheck/internal/fsutil"
)

// Attribute names as written by the reference recorder into the metadata CSV.
// Filter presence markers carry no meaningful value; the key existing at all
// means the filter was enabled for the recording.
const (
	attrResX            = "Resolution_x"
	attrResY            = "Resolution_y"
	attrFocalLength     = "Focal Length"
	attrDepthUnits      = "Depth Units"
	attrStereoBaseline  = "Stereo Baseline"
	attrDownscale       = "Scale"
	attrSpatialFilter   = "Spatial Filter Params:"
	attrSpatialAlpha    = "SpatialAlpha"
	attrSpatialDelta    = "SpatialDelta"
	attrSpatialIter     = "SpatialIterations"
	attrTemporalFilter  = "Temporal Filter Params:"
	attrTemporalAlpha   = "TemporalAlpha"
	attrTemporalDelta   = "TemporalDelta"
	attrTemporalPersist = "TemporalPersistency"
	attrHolesFilter     = "Holes Filling Mode:"
	attrHolesFill       = "HolesFilling"
	attrSequenceLength  = "Frames sequence length"
)

// maxStrikes is the number of consecutive unparsable lines that terminates
// metadata parsing. The format has no explicit terminator and some recorders
// emit a single blank trailing line, so one stray bad line is tolerated.
// TODO: drop the two-strikes rule if the recorder ever gains a real terminator.
const maxStrikes = 2

// parseDict reads a metadata file into a flat key/value dictionary. Lines are
// split at the first comma; values are trimmed of surrounding whitespace so
// carriage returns and alignment padding do not corrupt numeric parsing.
// Duplicate keys keep the last value seen.
func parseDict(fs fsutil.FileSystem, path string) (map[string]string, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read metadata %s: %w", path, err)
	}

	dict := make(map[string]string)
	strikes := 0

	scanner := bufio.NewScanner(strings.NewReader(string(data)))
	for scanner.Scan() {
		line := scanner.Text()
		key, value, ok := strings.Cut(line, ",")
		if !ok {
			strikes++
			if strikes >= maxStrikes {
				break
			}
			continue
		}
		strikes = 0
		dict[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan metadata %s: %w", path, err)
	}

	return dict, nil
}

// ParseMetadata parses one metadata file and projects it into a provisional
// Config. The projection is role-neutral: resolution and frame names land in
// the input-side fields regardless of whether the file describes the input or
// the output half of the fixture, and the caller assigns them when merging.
func ParseMetadata(fs fsutil.FileSystem, path string) (*Config, error) {
	dict, err := parseDict(fs, path)
	if err != nil {
		return nil, err
	}

	cfg := &Config{}
	cfg.Reset()

	cfg.InputResX = uint32(dictInt(dict, attrResX, 0))
	cfg.InputResY = uint32(dictInt(dict, attrResY, 0))
	cfg.StereoBaseline = dictFloat(dict, attrStereoBaseline)
	cfg.DepthUnits = dictFloat(dict, attrDepthUnits)
	cfg.FocalLength = dictFloat(dict, attrFocalLength)

	cfg.DownsampleScale = dictInt(dict, attrDownscale, 1)
	_, cfg.SpatialFilter = dict[attrSpatialFilter]
	cfg.SpatialAlpha = dictFloat(dict, attrSpatialAlpha)
	cfg.SpatialDelta = uint8(dictInt(dict, attrSpatialDelta, 0))
	cfg.SpatialIterations = dictInt(dict, attrSpatialIter, 0)
	_, cfg.TemporalFilter = dict[attrTemporalFilter]
	cfg.TemporalAlpha = dictFloat(dict, attrTemporalAlpha)
	cfg.TemporalDelta = uint8(dictInt(dict, attrTemporalDelta, 0))
	cfg.TemporalPersistence = uint8(dictInt(dict, attrTemporalPersist, 0))
	_, cfg.HolesFilter = dict[attrHolesFilter]
	cfg.HolesFillingMode = dictInt(dict, attrHolesFill, 0)

	cfg.FramesSequenceSize = dictInt(dict, attrSequenceLength, 0)
	if cfg.FramesSequenceSize < 1 {
		return nil, fmt.Errorf("metadata %s: missing or zero %q", path, attrSequenceLength)
	}

	// The frame file names are stored under plain decimal index keys.
	cfg.InputFrameNames = make([]string, 0, cfg.FramesSequenceSize)
	for i := 0; i < cfg.FramesSequenceSize; i++ {
		base, ok := dict[strconv.Itoa(i)]
		if !ok {
			return nil, fmt.Errorf("metadata %s: no frame entry for index %d of %d",
				path, i, cfg.FramesSequenceSize)
		}
		cfg.InputFrameNames = append(cfg.InputFrameNames, base+".raw")
	}

	return cfg, nil
}

// dictInt parses an integer attribute, falling back to def when the key is
// absent or unparsable.
func dictInt(dict map[string]string, key string, def int) int {
	s, ok := dict[key]
	if !ok {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// dictFloat parses a float attribute, falling back to zero when the key is
// absent or unparsable.
func dictFloat(dict map[string]string, key string) float64 {
	s, ok := dict[key]
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
