package profiler

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

const (
	// DefaultStopFrames is the number of frames a session measures when none is given.
	DefaultStopFrames = 100

	// MinStopFrames and MaxStopFrames bound the frame count a session accepts.
	MinStopFrames = 1
	MaxStopFrames = 100000
)

// ErrInvalidStopFrames is returned by Start when the frame count is out of range.
var ErrInvalidStopFrames = errors.New("invalid profiling frame count")

// Result is the outcome of a completed profiling session.
type Result struct {
	Frames int
	Total  time.Duration
}

// TotalMs returns the measured duration in milliseconds.
func (r Result) TotalMs() float64 {
	return float64(r.Total) / float64(time.Millisecond)
}

// MeanMs returns the mean frame duration in milliseconds.
func (r Result) MeanMs() float64 {
	if r.Frames == 0 {
		return 0
	}
	return r.TotalMs() / float64(r.Frames)
}

// Artifact returns the single line persisted for the result: frame count, total duration and
// mean frame duration, both in milliseconds.
func (r Result) Artifact() string {
	return fmt.Sprintf("%d %f %f\n", r.Frames, r.TotalMs(), r.MeanMs())
}

// session is the implementation of the Session interface.
type session struct {
	mu *sync.Mutex

	active     bool
	frameCount int
	stopFrames int
	start      time.Time
	stop       time.Time
	last       *Result
	err        error

	outputDir string
	fileName  string
	now       func() time.Time

	pool    worker.DynamicWorkerPool
	pending *sync.WaitGroup
	taskID  int
}

// Session measures the wall-clock time of a fixed number of frames and persists the result
// as a one-line text artifact. Writing happens on a background worker so it never blocks a frame.
type Session interface {
	// Start arms a new measurement over stopFrames frames. A running session is restarted.
	//
	// Parameters:
	//   - stopFrames: the number of frames to measure, within [MinStopFrames, MaxStopFrames]
	//
	// Returns:
	//   - error: ErrInvalidStopFrames if stopFrames is out of range
	Start(stopFrames int) error

	// Stop clears the active flag. It takes effect at the next BeginFrame or Tick and
	// discards the partial measurement.
	Stop()

	// IsActive reports whether a measurement is running.
	//
	// Returns:
	//   - bool: true while active
	IsActive() bool

	// FrameCount returns the number of frames measured so far by the current or last session.
	//
	// Returns:
	//   - int: the measured frame count
	FrameCount() int

	// StopFrames returns the frame count the current or last session stops at.
	//
	// Returns:
	//   - int: the stop frame count
	StopFrames() int

	// BeginFrame records the start timestamp when the session is active and no frame has been
	// measured yet. Called at the top of a frame.
	BeginFrame()

	// Tick counts a finished frame. When the stop frame count is reached the session records
	// the stop timestamp, deactivates, and schedules the artifact write.
	//
	// Returns:
	//   - Result: the completed result, valid only when the bool is true
	//   - bool: true on the frame that completed the session
	Tick() (Result, bool)

	// LastResult returns the result of the most recently completed session.
	//
	// Returns:
	//   - Result: the last result
	//   - bool: false if no session has completed
	LastResult() (Result, bool)

	// Path returns the artifact path.
	//
	// Returns:
	//   - string: the path the artifact is written to
	Path() string

	// Err returns the error of the most recent artifact write, or nil.
	//
	// Returns:
	//   - error: the last write error
	Err() error

	// Wait blocks until every scheduled artifact write has finished.
	Wait()

	// Close waits for pending writes and stops the background worker.
	Close()
}

var _ Session = &session{}

// NewSession creates a new inactive profiling Session.
//
// Parameters:
//   - fileName: the artifact file name, e.g. "stats-original.txt"
//   - options: variadic list of SessionBuilderOption functions
//
// Returns:
//   - Session: the new session
func NewSession(fileName string, options ...SessionBuilderOption) Session {
	s := &session{
		mu:         &sync.Mutex{},
		stopFrames: DefaultStopFrames,
		fileName:   fileName,
		now:        time.Now,
		pending:    &sync.WaitGroup{},
	}
	for _, opt := range options {
		opt(s)
	}
	if s.pool == nil {
		s.pool = worker.NewDynamicWorkerPool(1, 4, time.Second)
	}
	return s
}

func (s *session) Start(stopFrames int) error {
	if stopFrames < MinStopFrames || stopFrames > MaxStopFrames {
		return fmt.Errorf("%w: %d not in [%d, %d]", ErrInvalidStopFrames, stopFrames, MinStopFrames, MaxStopFrames)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = true
	s.frameCount = 0
	s.stopFrames = stopFrames
	return nil
}

func (s *session) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.active = false
}

func (s *session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (s *session) FrameCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameCount
}

func (s *session) StopFrames() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopFrames
}

func (s *session) BeginFrame() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active && s.frameCount == 0 {
		s.start = s.now()
	}
}

func (s *session) Tick() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return Result{}, false
	}

	s.frameCount++
	if s.frameCount < s.stopFrames {
		return Result{}, false
	}

	s.active = false
	s.stop = s.now()
	r := Result{Frames: s.frameCount, Total: s.stop.Sub(s.start)}
	s.last = &r

	common.Logger().Info("profiling complete",
		"frames", r.Frames,
		"totalMs", r.TotalMs(),
		"meanMs", r.MeanMs(),
	)
	s.schedule(r)
	return r, true
}

// schedule hands the artifact write to the worker pool. Caller must hold the mutex.
func (s *session) schedule(r Result) {
	path := s.path()
	s.pending.Add(1)
	s.taskID++
	s.pool.SubmitTask(worker.Task{
		ID:      s.taskID,
		Payload: path,
		Do: func() (any, error) {
			defer s.pending.Done()
			err := writeArtifact(path, r)
			if err != nil {
				common.Logger().Warn("failed to write profiling artifact", "path", path, "error", err)
			}
			s.mu.Lock()
			s.err = err
			s.mu.Unlock()
			return nil, err
		},
	})
}

func writeArtifact(path string, r Result) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create artifact directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(r.Artifact()), 0o644); err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}
	return nil
}

func (s *session) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

func (s *session) Path() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path()
}

func (s *session) path() string {
	return filepath.Join(s.outputDir, s.fileName)
}

func (s *session) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

func (s *session) Wait() {
	s.pending.Wait()
}

func (s *session) Close() {
	s.pending.Wait()
	s.pool.Stop()
}
