package fixture

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthcheck/internal/fsutil"
)

func writeMeta(t *testing.T, fs *fsutil.MemoryFileSystem, path, content string) {
	t.Helper()
	require.NoError(t, fs.WriteFile(path, []byte(content), 0644))
}

const sampleMeta = "Resolution_x,640\n" +
	"Resolution_y,480\n" +
	"Focal Length,383.72\n" +
	"Depth Units,0.001\n" +
	"Stereo Baseline,0.0499585\n" +
	"Scale,2\n" +
	"Spatial Filter Params:,\n" +
	"SpatialAlpha,0.85\n" +
	"SpatialDelta,32\n" +
	"SpatialIterations,3\n" +
	"Frames sequence length,2\n" +
	"0,recording.0.Output\n" +
	"1,recording.1.Output\n"

func TestParseMetadata_Sample(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv", sampleMeta)

	cfg, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)

	assert.Equal(t, uint32(640), cfg.InputResX)
	assert.Equal(t, uint32(480), cfg.InputResY)
	assert.InDelta(t, 383.72, cfg.FocalLength, 1e-9)
	assert.InDelta(t, 0.001, cfg.DepthUnits, 1e-9)
	assert.InDelta(t, 0.0499585, cfg.StereoBaseline, 1e-9)
	assert.Equal(t, 2, cfg.DownsampleScale)

	assert.True(t, cfg.SpatialFilter)
	assert.InDelta(t, 0.85, cfg.SpatialAlpha, 1e-9)
	assert.Equal(t, uint8(32), cfg.SpatialDelta)
	assert.Equal(t, 3, cfg.SpatialIterations)
	assert.False(t, cfg.TemporalFilter)
	assert.False(t, cfg.HolesFilter)

	assert.Equal(t, 2, cfg.FramesSequenceSize)
	assert.Equal(t, []string{"recording.0.Output.raw", "recording.1.Output.raw"}, cfg.InputFrameNames)
}

func TestParseMetadata_Idempotent(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv", sampleMeta)

	first, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)
	second, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("repeated parse differs (-first +second):\n%s", diff)
	}
}

func TestParseMetadata_TrimsValueNoise(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	// Values padded with alignment spaces and a stray carriage return must
	// still parse as numbers.
	writeMeta(t, fs, "meta.csv",
		"Resolution_x,  640 \r\n"+
			"Stereo Baseline,\t0.05\r\n"+
			"Frames sequence length,1\n"+
			"0,frame\n")

	cfg, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)
	assert.Equal(t, uint32(640), cfg.InputResX)
	assert.InDelta(t, 0.05, cfg.StereoBaseline, 1e-9)
}

func TestParseMetadata_ToggleValueIgnored(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv",
		"Temporal Filter Params:,anything at all\n"+
			"Frames sequence length,1\n"+
			"0,frame\n")

	cfg, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)
	assert.True(t, cfg.TemporalFilter)
	assert.Zero(t, cfg.TemporalAlpha)
}

func TestParseMetadata_DefaultsWhenAbsent(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv",
		"Frames sequence length,1\n"+
			"0,frame\n")

	cfg, err := ParseMetadata(fs, "meta.csv")
	require.NoError(t, err)
	assert.Zero(t, cfg.InputResX)
	assert.Zero(t, cfg.FocalLength)
	assert.Equal(t, 1, cfg.DownsampleScale, "scale defaults to 1, not 0")
	assert.False(t, cfg.SpatialFilter)
}

func TestParseMetadata_MissingSequenceLength(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv", "Resolution_x,640\n")

	_, err := ParseMetadata(fs, "meta.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Frames sequence length")
}

func TestParseMetadata_MissingFrameIndex(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	// Declares three frames but only indexes 0 and 2 are present.
	writeMeta(t, fs, "meta.csv",
		"Frames sequence length,3\n"+
			"0,frame0\n"+
			"2,frame2\n")

	_, err := ParseMetadata(fs, "meta.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index 1")
}

// The metadata format has no terminator; parsing stops after two consecutive
// unparsable lines. The rule is fragile by design (it tolerates the single
// blank trailing line some recorders emit) and is pinned here so nobody
// "fixes" it without revising the format.
func TestParseDict_TwoStrikesTerminates(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv",
		"Resolution_x,640\n"+
			"\n"+
			"\n"+
			"Resolution_y,480\n")

	dict, err := parseDict(fs, "meta.csv")
	require.NoError(t, err)
	assert.Contains(t, dict, "Resolution_x")
	assert.NotContains(t, dict, "Resolution_y", "parsing must stop at the second consecutive bad line")
}

func TestParseDict_SingleStrikeRecovers(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv",
		"Resolution_x,640\n"+
			"\n"+
			"Resolution_y,480\n"+
			"\n"+
			"Focal Length,383.0\n")

	dict, err := parseDict(fs, "meta.csv")
	require.NoError(t, err)
	assert.Equal(t, "640", dict["Resolution_x"])
	assert.Equal(t, "480", dict["Resolution_y"], "one stray bad line must not terminate parsing")
	assert.Equal(t, "383.0", dict["Focal Length"])
}

func TestParseDict_DuplicateKeyLastWins(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	writeMeta(t, fs, "meta.csv",
		"Scale,1\n"+
			"Scale,2\n")

	dict, err := parseDict(fs, "meta.csv")
	require.NoError(t, err)
	assert.Equal(t, "2", dict["Scale"])
}

func TestParseDict_OversizedLine(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	// A line longer than the scanner's token limit must surface as an error
	// rather than silently truncating the dictionary.
	writeMeta(t, fs, "meta.csv",
		"Resolution_x,640\n"+
			"junk,"+strings.Repeat("x", 70*1024)+"\n"+
			"Resolution_y,480\n")

	_, err := parseDict(fs, "meta.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "scan metadata")
}

func TestParseDict_ValueWithCommas(t *testing.T) {
	t.Parallel()
	fs := fsutil.NewMemoryFileSystem()
	// Only the first comma splits; the rest belongs to the value.
	writeMeta(t, fs, "meta.csv", "key,a,b,c\n")

	dict, err := parseDict(fs, "meta.csv")
	require.NoError(t, err)
	assert.Equal(t, "a,b,c", dict["key"])
}
