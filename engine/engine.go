package engine

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

// engine implements the Engine interface.
// Coordinates the render goroutine with the window's message loop.
type engine struct {
	mu *sync.Mutex

	wg sync.WaitGroup

	quitChannel chan struct{}
	quitOnce    sync.Once // Ensures quitChannel is only closed once

	window       window.Window
	orchestrator FrameOrchestrator
	watcher      config.Watcher

	renderFrameLimit time.Duration // minimum frame duration; 0 = uncapped

	err error
}

// Engine is the main entry point of the viewer.
// It runs the render loop on its own goroutine and the window message loop on the caller's.
type Engine interface {
	// Window returns the underlying window, or nil when running without one.
	//
	// Returns:
	//   - window.Window: the window instance
	Window() window.Window

	// Orchestrator returns the frame orchestrator driven by the render loop.
	//
	// Returns:
	//   - FrameOrchestrator: the orchestrator
	Orchestrator() FrameOrchestrator

	// SetRenderFrameLimit sets an optional render frame rate cap in frames per second.
	// Pass 0 to uncap the render loop (default).
	//
	// Parameters:
	//   - fps: maximum render frames per second (0 = uncapped)
	SetRenderFrameLimit(fps float64)

	// Run starts the render loop and blocks until the window closes, Quit is called, or a frame
	// fails.
	//
	// Returns:
	//   - error: the error that stopped the render loop, or nil
	Run() error

	// Quit signals all engine goroutines to stop.
	// Safe to call multiple times; subsequent calls are no-ops.
	Quit()

	// Err returns the error that stopped the render loop, or nil.
	Err() error
}

// NewEngine creates a new Engine instance with the provided options.
// When a window is given, its framebuffer size is queued as the first resize and its resize
// and input callbacks are routed to the orchestrator.
//
// Parameters:
//   - options: functional options for engine configuration
//
// Returns:
//   - Engine: the newly created engine
//   - error: an error if no orchestrator was supplied or the window has no framebuffer
func NewEngine(options ...EngineBuilderOption) (Engine, error) {
	e := &engine{
		mu:          &sync.Mutex{},
		quitChannel: make(chan struct{}),
	}

	for _, opt := range options {
		opt(e)
	}
	if e.orchestrator == nil {
		return nil, errors.New("engine requires a frame orchestrator")
	}

	if e.window != nil {
		if err := e.orchestrator.RequestResize(e.window.Width(), e.window.Height()); err != nil {
			return nil, err
		}
		e.window.SetResizeCallback(func(width, height int) {
			// Minimized windows report a zero framebuffer; the last surfaces are kept.
			if err := e.orchestrator.RequestResize(width, height); err != nil {
				common.Logger().Debug("resize ignored", "error", err)
			}
		})
		e.window.SetKeyCallback(func(ev common.KeyboardEvent) {
			e.orchestrator.OnKeyEvent(ev)
		})
		e.window.SetMouseCallback(func(ev common.MouseEvent) {
			e.orchestrator.OnMouseEvent(ev)
		})
		e.window.SetUpdateCallback(func() {
			select {
			case <-e.quitChannel:
				_ = e.window.Close()
			default:
			}
		})
	}

	return e, nil
}

func (e *engine) Window() window.Window {
	return e.window
}

func (e *engine) Orchestrator() FrameOrchestrator {
	return e.orchestrator
}

func (e *engine) Run() error {
	e.handle()
	if e.window != nil {
		e.window.ProcessMessages()
		e.signalQuit()
	}
	e.wg.Wait()
	return e.Err()
}

// Quit signals all engine goroutines to stop and shuts down the engine.
// Safe to call multiple times; subsequent calls are no-ops due to sync.Once.
func (e *engine) Quit() {
	e.signalQuit()
}

func (e *engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// signalQuit closes the quit channel to signal all goroutines to exit.
// Uses sync.Once to ensure the channel is only closed once.
func (e *engine) signalQuit() {
	e.quitOnce.Do(func() {
		close(e.quitChannel)
	})
}

// fail records the first fatal error and stops the engine.
func (e *engine) fail(err error) {
	common.Logger().Error("render loop stopped", "error", err)
	e.mu.Lock()
	if e.err == nil {
		e.err = err
	}
	e.mu.Unlock()
	e.signalQuit()
}

// handle launches the render and quit goroutines.
// Each goroutine is tracked by the engine's WaitGroup.
func (e *engine) handle() {
	e.wg.Add(2)
	go e.handleRender()
	go e.handleQuit()
}

// handleRender runs the uncapped (or frame-limited) render loop in its own goroutine.
// Reloaded settings are applied between frames. A failed frame stops the engine.
// Recovers from panics to avoid crashing the process and signals quit on recovery.
func (e *engine) handleRender() {
	defer e.wg.Done()
	// Recover from panics inside the render goroutine to avoid crashing the whole process.
	defer func() {
		if r := recover(); r != nil {
			e.fail(fmt.Errorf("render goroutine recovered from panic: %v", r))
		}
	}()

	lastRender := time.Now()

	for {
		select {
		case <-e.quitChannel:
			return
		default:
		}

		e.applySettings()

		now := time.Now()
		dt := float32(now.Sub(lastRender).Seconds())
		lastRender = now

		if err := e.orchestrator.RenderFrame(dt); err != nil {
			e.fail(fmt.Errorf("frame failed: %w", err))
			return
		}

		// Frame rate limiting
		if limit := e.frameLimit(); limit > 0 {
			if remaining := limit - time.Since(lastRender); remaining > 0 {
				time.Sleep(remaining)
			}
		}
	}
}

// applySettings drains reloaded settings without blocking and applies them in order.
func (e *engine) applySettings() {
	if e.watcher == nil {
		return
	}
	for {
		select {
		case s, ok := <-e.watcher.Changes():
			if !ok {
				return
			}
			if err := e.orchestrator.ApplySettings(s); err != nil {
				common.Logger().Warn("failed to apply reloaded settings", "error", err)
				continue
			}
			e.SetRenderFrameLimit(float64(s.FrameLimit))
			common.Logger().Info("settings reloaded")
		default:
			return
		}
	}
}

// handleQuit blocks until the quit channel is closed, then stops watching the settings file.
func (e *engine) handleQuit() {
	defer e.wg.Done()
	<-e.quitChannel
	if e.watcher != nil {
		if err := e.watcher.Close(); err != nil {
			common.Logger().Warn("failed to stop settings watcher", "error", err)
		}
	}
}

func (e *engine) frameLimit() time.Duration {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.renderFrameLimit
}

// SetRenderFrameLimit sets an optional render frame rate cap.
// Pass 0 to uncap the render loop.
func (e *engine) SetRenderFrameLimit(fps float64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if fps <= 0 {
		e.renderFrameLimit = 0
		return
	}
	e.renderFrameLimit = time.Duration(float64(time.Second) / fps)
}
