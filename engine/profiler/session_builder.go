package profiler

import (
	"time"

	"github.com/Carmen-Shannon/automation/tools/worker"
)

// SessionBuilderOption is a functional option applied to a Session during construction via NewSession.
type SessionBuilderOption func(*session)

// WithOutputDir sets the directory the artifact is written to. The default is the working directory.
//
// Parameters:
//   - dir: the output directory
//
// Returns:
//   - SessionBuilderOption: a function that applies the output directory to a session
func WithOutputDir(dir string) SessionBuilderOption {
	return func(s *session) {
		s.outputDir = dir
	}
}

// WithClock replaces the wall clock used for the start and stop timestamps.
//
// Parameters:
//   - now: the clock function
//
// Returns:
//   - SessionBuilderOption: a function that applies the clock to a session
func WithClock(now func() time.Time) SessionBuilderOption {
	return func(s *session) {
		s.now = now
	}
}

// WithWorkerPool sets the pool artifact writes are submitted to. By default the session
// creates a single-worker pool of its own.
//
// Parameters:
//   - pool: the worker pool
//
// Returns:
//   - SessionBuilderOption: a function that applies the pool to a session
func WithWorkerPool(pool worker.DynamicWorkerPool) SessionBuilderOption {
	return func(s *session) {
		s.pool = pool
	}
}
