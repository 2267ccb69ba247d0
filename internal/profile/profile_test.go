package profile

import (
	"io"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/depthcheck/internal/fsutil"
	"github.com/banshee-data/depthcheck/internal/report"
)

func memProfiler() (*Profiler, *fsutil.MemoryFileSystem, *report.MemRecorder) {
	fs := fsutil.NewMemoryFileSystem()
	rec := report.NewMemRecorder()
	return &Profiler{FS: fs, Rec: rec}, fs, rec
}

func TestProfile_AllZero(t *testing.T) {
	t.Parallel()
	prof, _, rec := memProfiler()

	r, err := prof.Profile("zeros.txt", make([]float64, 16), 0, 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 16, r.Pixels)
	assert.Zero(t, r.Mean)
	assert.Zero(t, r.StdDev)
	assert.Zero(t, r.NonZeroCount)
	assert.Equal(t, -1, r.FirstIndex, "no first non-identical index when all pixels match")
	assert.Zero(t, r.MaxValue)
	assert.True(t, r.Pass, "identical frames pass for any non-negative thresholds")
	assert.Empty(t, rec.FailedChecks())
	assert.Empty(t, rec.Warnings, "identical frames emit no diagnostic")
}

func TestProfile_SingleDifference(t *testing.T) {
	t.Parallel()
	prof, _, rec := memProfiler()

	r, err := prof.Profile("one.txt", []float64{0, 0, 5, 0}, 3, 10, 7)
	require.NoError(t, err)

	assert.Equal(t, 4, r.Pixels)
	assert.InDelta(t, 1.25, r.Mean, 1e-12)
	assert.InDelta(t, math.Sqrt(4.6875), r.StdDev, 1e-12) // population divisor
	assert.Equal(t, 1, r.NonZeroCount)
	assert.Equal(t, 2, r.FirstIndex)
	assert.InDelta(t, 5, r.FirstValue, 0)
	assert.InDelta(t, 5, r.MaxValue, 0)
	assert.Equal(t, 2, r.MaxIndex)
	assert.True(t, r.Pass)

	require.Len(t, rec.Warnings, 1, "non-identical frames emit one diagnostic")
	assert.Contains(t, rec.Warnings[0], "frame 7")
}

func TestProfile_EmptySequence(t *testing.T) {
	t.Parallel()
	prof, _, _ := memProfiler()

	_, err := prof.Profile("empty.txt", nil, 100, 100, 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyDiffs, "empty input is a caller error, not a failed verdict")
}

func TestProfile_BothChecksRecordedOnFailure(t *testing.T) {
	t.Parallel()
	prof, _, rec := memProfiler()

	// Violates both thresholds at once; both checks must still be recorded.
	r, err := prof.Profile("both.txt", []float64{0, 100, -100, 0}, 0.1, 1, 0)
	require.NoError(t, err)

	assert.False(t, r.Pass)
	assert.False(t, r.StdDevOK)
	assert.False(t, r.OutlierOK)
	failed := rec.FailedChecks()
	require.Len(t, failed, 2, "a failure in one check must not suppress the other")
	assert.Equal(t, "standard_deviation_within_bound", failed[0].Name)
	assert.Equal(t, "max_difference_within_outlier", failed[1].Name)
}

func TestProfile_OutlierOnly(t *testing.T) {
	t.Parallel()
	prof, _, rec := memProfiler()

	r, err := prof.Profile("outlier.txt", []float64{0, 0, 5, 0}, 3, 4, 0)
	require.NoError(t, err)

	assert.True(t, r.StdDevOK)
	assert.False(t, r.OutlierOK)
	assert.False(t, r.Pass)
	require.Len(t, rec.FailedChecks(), 1)
}

func TestProfile_NegativeMax(t *testing.T) {
	t.Parallel()
	prof, _, _ := memProfiler()

	// The maximum is the largest signed value; the outlier bound applies to
	// its magnitude.
	r, err := prof.Profile("neg.txt", []float64{-3, -1, -2}, 100, 0.5, 0)
	require.NoError(t, err)
	assert.InDelta(t, -1, r.MaxValue, 0)
	assert.Equal(t, 1, r.MaxIndex)
	assert.False(t, r.OutlierOK)
}

func TestProfile_ArtifactContents(t *testing.T) {
	t.Parallel()
	prof, fs, _ := memProfiler()

	_, err := prof.Profile("artifact.txt", []float64{0, 0, 5, 0}, 100, 100, 0)
	require.NoError(t, err)

	data, err := fs.ReadFile("artifact.txt")
	require.NoError(t, err)
	assert.Equal(t, "0\n0\n5\n0\n", string(data), "one value per line, in sequence order")
}

func TestProfile_ArtifactFailureDoesNotAffectVerdict(t *testing.T) {
	t.Parallel()
	rec := report.NewMemRecorder()
	prof := &Profiler{FS: failingFS{}, Rec: rec}

	r, err := prof.Profile("nope/artifact.txt", []float64{0, 0}, 0, 0, 0)
	require.NoError(t, err)
	assert.True(t, r.Pass)
	require.Len(t, rec.Warnings, 1)
	assert.Contains(t, rec.Warnings[0], "artifact")
}

// failingFS rejects all writes.
type failingFS struct {
	fsutil.OSFileSystem
}

func (failingFS) Create(string) (io.WriteCloser, error) {
	return nil, assert.AnError
}
