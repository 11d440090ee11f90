package profiler_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stepClock advances by step on every call.
func stepClock(step time.Duration) func() time.Time {
	t := time.Unix(0, 0)
	return func() time.Time {
		t = t.Add(step)
		return t
	}
}

func TestStartValidatesFrameCount(t *testing.T) {
	s := profiler.NewSession("stats-original.txt", profiler.WithOutputDir(t.TempDir()))
	defer s.Close()

	assert.Equal(t, profiler.DefaultStopFrames, s.StopFrames())
	assert.ErrorIs(t, s.Start(0), profiler.ErrInvalidStopFrames)
	assert.ErrorIs(t, s.Start(100001), profiler.ErrInvalidStopFrames)
	assert.False(t, s.IsActive())

	require.NoError(t, s.Start(1))
	require.NoError(t, s.Start(100000))
	assert.True(t, s.IsActive())
}

func TestSessionWritesArtifact(t *testing.T) {
	dir := t.TempDir()
	s := profiler.NewSession("stats-preprocessed.txt",
		profiler.WithOutputDir(dir),
		profiler.WithClock(stepClock(10*time.Millisecond)),
	)
	defer s.Close()

	require.NoError(t, s.Start(3))
	var done bool
	var res profiler.Result
	for range 3 {
		s.BeginFrame()
		res, done = s.Tick()
	}
	require.True(t, done)
	assert.False(t, s.IsActive())
	assert.Equal(t, 3, res.Frames)
	assert.Equal(t, 10*time.Millisecond, res.Total)

	s.Wait()
	require.NoError(t, s.Err())
	data, err := os.ReadFile(filepath.Join(dir, "stats-preprocessed.txt"))
	require.NoError(t, err)
	assert.Equal(t, "3 10.000000 3.333333\n", string(data))

	_, done = s.Tick()
	assert.False(t, done)
	last, ok := s.LastResult()
	require.True(t, ok)
	assert.Equal(t, res, last)
}

func TestStopDiscardsMeasurement(t *testing.T) {
	dir := t.TempDir()
	s := profiler.NewSession("stats-original.txt", profiler.WithOutputDir(dir))
	defer s.Close()

	require.NoError(t, s.Start(2))
	s.BeginFrame()
	s.Tick()
	s.Stop()
	_, done := s.Tick()
	assert.False(t, done)
	assert.Equal(t, 1, s.FrameCount())

	s.Wait()
	_, err := os.Stat(filepath.Join(dir, "stats-original.txt"))
	assert.True(t, os.IsNotExist(err))
}

func TestWriteFailureIsSurfacedNotFatal(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(blocker, nil, 0o644))

	s := profiler.NewSession("stats-original.txt", profiler.WithOutputDir(filepath.Join(blocker, "sub")))
	defer s.Close()

	require.NoError(t, s.Start(1))
	s.BeginFrame()
	_, done := s.Tick()
	require.True(t, done)
	s.Wait()
	assert.Error(t, s.Err())

	require.NoError(t, s.Start(1))
	assert.True(t, s.IsActive())
}

func TestProfilerLogsAtInterval(t *testing.T) {
	p := profiler.NewProfiler(
		profiler.WithUpdateInterval(time.Second),
		profiler.WithProfilerClock(stepClock(250*time.Millisecond)),
	)

	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
	assert.False(t, p.Tick())
	assert.True(t, p.Tick())
	assert.InDelta(t, 4, p.Last().FPS, 1e-9)
}

func TestResultArtifactFormat(t *testing.T) {
	r := profiler.Result{Frames: 100, Total: 1500 * time.Millisecond}
	assert.Equal(t, "100 1500.000000 15.000000\n", r.Artifact())
	assert.Zero(t, profiler.Result{}.MeanMs())
}
