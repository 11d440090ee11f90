// Command modelviewer renders a scene through the multisampled, tone-mapped frame pipeline and
// can profile a fixed number of frames into a stats file.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/Carmen-Shannon/oxy-viewer/engine"
	"github.com/Carmen-Shannon/oxy-viewer/engine/config"
	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/scene"
	"github.com/Carmen-Shannon/oxy-viewer/engine/window"
)

func main() {
	var (
		configPath = flag.String("config", "", "settings file (.toml, .yaml or .yml), reloaded on change")
		scenePath  = flag.String("scene", "", "scene file to load, or "+scene.BuiltinGrid)
		profile    = flag.Int("profile", 0, "profile this many frames once the scene is loaded")
		debug      = flag.Bool("debug", false, "log per-frame statistics")
	)
	flag.Parse()

	level := slog.LevelInfo
	if *debug {
		level = slog.LevelDebug
	}
	common.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*configPath, *scenePath, *profile); err != nil {
		common.Logger().Error("modelviewer failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath, scenePath string, profileFrames int) error {
	settings := config.Default()
	if configPath != "" {
		s, err := config.Load(configPath)
		if err != nil {
			return err
		}
		settings = s
	}
	if settings.Scene == "" {
		settings.Scene = scene.BuiltinGrid
	}

	resolved, err := settings.Resolve()
	if err != nil {
		return fmt.Errorf("invalid settings: %w", err)
	}

	title := resolved.ProgramBackend.WindowTitle()
	win, err := window.NewWindow(
		window.WithTitle(title),
		window.WithSize(settings.Window.Width, settings.Window.Height),
	)
	if err != nil {
		return err
	}
	defer func() { _ = win.Close() }()

	backend, err := renderer.NewWGPUBackend(win.SurfaceDescriptor(), renderer.WithPresentMode(resolved.PresentMode))
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}

	orchestratorOptions := []engine.FrameOrchestratorBuilderOption{
		engine.WithProgramBackend(resolved.ProgramBackend),
		engine.WithSession(profiler.NewSession(
			resolved.ProgramBackend.StatsFileName(),
			profiler.WithOutputDir(settings.Profiling.OutputDir),
		)),
		engine.WithSampleCount(resolved.SampleCount),
		engine.WithToneMap(resolved.ToneMap),
		engine.WithPresentMode(resolved.PresentMode),
		engine.WithOverlay(engine.NewTextOverlay(func(text string) {
			win.SetTitle(title + " | " + text)
		})),
	}
	if scenePath != "" {
		// The command line scene survives settings reloads.
		orchestratorOptions = append(orchestratorOptions, engine.WithPinnedScene(scenePath))
	}
	orchestrator, err := engine.NewFrameOrchestrator(backend, orchestratorOptions...)
	if err != nil {
		return err
	}
	defer orchestrator.Release()

	if err := orchestrator.ApplySettings(settings); err != nil {
		return err
	}
	if profileFrames > 0 {
		if err := orchestrator.StartProfiling(profileFrames); err != nil {
			return err
		}
	}

	options := []engine.EngineBuilderOption{
		engine.WithWindow(win),
		engine.WithOrchestrator(orchestrator),
		engine.WithRenderFrameLimit(float64(settings.FrameLimit)),
	}
	if configPath != "" {
		watcher, err := config.Watch(configPath)
		if err != nil {
			return err
		}
		options = append(options, engine.WithSettingsWatcher(watcher))
	}

	e, err := engine.NewEngine(options...)
	if err != nil {
		return err
	}
	return e.Run()
}
