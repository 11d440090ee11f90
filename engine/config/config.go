// Package config loads the viewer settings file. Settings are written in TOML or YAML; the
// format is chosen by file extension.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-viewer/engine/profiler"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/tonemap"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// ErrUnknownFormat is returned for files whose extension is neither TOML nor YAML.
var ErrUnknownFormat = errors.New("unknown settings format")

// Format is a settings file encoding.
type Format int

const (
	FormatTOML Format = iota
	FormatYAML
)

// FormatOf returns the encoding of a file from its extension.
//
// Parameters:
//   - path: the file path
//
// Returns:
//   - Format: the encoding
//   - error: ErrUnknownFormat if the extension is not .toml, .yaml or .yml
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownFormat, path)
}

// Decode unmarshals data in the given format into v. Unknown keys are rejected.
//
// Parameters:
//   - format: the encoding of data
//   - data: the raw file contents
//   - v: a pointer to the destination value
//
// Returns:
//   - error: a decoding error
func Decode(format Format, data []byte, v any) error {
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		return nil
	}
	return ErrUnknownFormat
}

// DecodeFile reads path and decodes it into v using the format of its extension.
//
// Parameters:
//   - path: the file path
//   - v: a pointer to the destination value
//
// Returns:
//   - error: a read, format or decoding error
func DecodeFile(path string, v any) error {
	format, err := FormatOf(path)
	if err != nil {
		return err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	if err := Decode(format, data, v); err != nil {
		return fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return nil
}

// WindowSettings is the initial window configuration.
type WindowSettings struct {
	Width  int `toml:"width" yaml:"width"`
	Height int `toml:"height" yaml:"height"`
}

// ToneMapSettings selects the tone-map operator and its parameters.
type ToneMapSettings struct {
	Operator   string  `toml:"operator" yaml:"operator"`
	Exposure   float32 `toml:"exposure" yaml:"exposure"`
	WhitePoint float32 `toml:"white_point" yaml:"white_point"`
}

// ProfilingSettings configures profiling sessions.
type ProfilingSettings struct {
	Frames    int    `toml:"frames" yaml:"frames"`
	OutputDir string `toml:"output_dir" yaml:"output_dir"`
	// StartOnLoad starts a session as soon as the settings are applied.
	StartOnLoad bool `toml:"start_on_load" yaml:"start_on_load"`
}

// Settings is the viewer settings file.
type Settings struct {
	Window         WindowSettings    `toml:"window" yaml:"window"`
	Scene          string            `toml:"scene" yaml:"scene"`
	SampleCount    uint32            `toml:"sample_count" yaml:"sample_count"`
	ToneMap        ToneMapSettings   `toml:"tonemap" yaml:"tonemap"`
	CullMode       string            `toml:"cull_mode" yaml:"cull_mode"`
	Wireframe      bool              `toml:"wireframe" yaml:"wireframe"`
	Filter         string            `toml:"filter" yaml:"filter"`
	ProgramBackend string            `toml:"program_backend" yaml:"program_backend"`
	PresentMode    string            `toml:"present_mode" yaml:"present_mode"`
	FrameLimit     int               `toml:"frame_limit" yaml:"frame_limit"`
	CameraSpeed    float32           `toml:"camera_speed" yaml:"camera_speed"`
	Profiling      ProfilingSettings `toml:"profiling" yaml:"profiling"`
}

// Default returns the settings used when no file is given.
//
// Returns:
//   - Settings: the defaults
func Default() Settings {
	sel := tonemap.DefaultSelection()
	return Settings{
		Window:      WindowSettings{Width: 1280, Height: 720},
		SampleCount: uint32(renderer.MSAA4x),
		ToneMap: ToneMapSettings{
			Operator:   sel.Operator.String(),
			Exposure:   sel.Params.Exposure,
			WhitePoint: sel.Params.WhitePoint,
		},
		CullMode:       pipeline.CullModeBack.String(),
		Filter:         pipeline.FilterModeTrilinear.String(),
		ProgramBackend: shader.ProgramBackendOriginal.String(),
		PresentMode:    "vsync",
		CameraSpeed:    1,
		Profiling:      ProfilingSettings{Frames: profiler.DefaultStopFrames},
	}
}

// Load reads a settings file on top of Default and validates it.
//
// Parameters:
//   - path: a .toml, .yaml or .yml file
//
// Returns:
//   - Settings: the loaded settings
//   - error: a read, format, decoding or validation error
func Load(path string) (Settings, error) {
	s := Default()
	if err := DecodeFile(path, &s); err != nil {
		return Settings{}, err
	}
	if _, err := s.Resolve(); err != nil {
		return Settings{}, fmt.Errorf("invalid settings in %s: %w", path, err)
	}
	return s, nil
}

// Resolved holds the typed values of a Settings.
type Resolved struct {
	SampleCount    renderer.MSAASampleCount
	ToneMap        tonemap.Selection
	CullMode       pipeline.CullMode
	Filter         pipeline.FilterMode
	ProgramBackend shader.ProgramBackend
	PresentMode    renderer.PresentMode
}

// Resolve parses the textual fields of s.
//
// Returns:
//   - Resolved: the typed values
//   - error: the first invalid field
func (s Settings) Resolve() (Resolved, error) {
	var r Resolved
	var err error

	r.SampleCount = renderer.MSAASampleCount(s.SampleCount)
	if !r.SampleCount.Valid() {
		return Resolved{}, fmt.Errorf("sample_count %d must be 1, 2, 4 or 8", s.SampleCount)
	}
	if r.ToneMap.Operator, err = tonemap.ParseOperator(s.ToneMap.Operator); err != nil {
		return Resolved{}, err
	}
	r.ToneMap.Params = tonemap.Params{Exposure: s.ToneMap.Exposure, WhitePoint: s.ToneMap.WhitePoint}
	if r.ToneMap.Params.WhitePoint <= 0 {
		return Resolved{}, fmt.Errorf("tonemap white_point %g must be positive", s.ToneMap.WhitePoint)
	}
	if r.CullMode, err = pipeline.ParseCullMode(s.CullMode); err != nil {
		return Resolved{}, err
	}
	if r.Filter, err = pipeline.ParseFilterMode(s.Filter); err != nil {
		return Resolved{}, err
	}
	if r.ProgramBackend, err = shader.ParseProgramBackend(s.ProgramBackend); err != nil {
		return Resolved{}, err
	}
	if r.PresentMode, err = renderer.ParsePresentMode(s.PresentMode); err != nil {
		return Resolved{}, err
	}
	if s.Profiling.Frames < profiler.MinStopFrames || s.Profiling.Frames > profiler.MaxStopFrames {
		return Resolved{}, fmt.Errorf("profiling frames %d must be within [%d, %d]", s.Profiling.Frames, profiler.MinStopFrames, profiler.MaxStopFrames)
	}
	if s.Window.Width <= 0 || s.Window.Height <= 0 {
		return Resolved{}, fmt.Errorf("window size %dx%d must be positive", s.Window.Width, s.Window.Height)
	}
	return r, nil
}
