package scene

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/pipeline"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/resource"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/shader"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
)

// cubeVertexCount is the number of vertices the grid program expands into one cube.
const cubeVertexCount = 36

// GridProgram is the name of the grid scene's program.
const GridProgram = "grid"

// ProgramFS returns the file system the grid scene's programs are read from.
//
// Returns:
//   - fs.FS: the program files rooted at the assets directory
func ProgramFS() fs.FS {
	sub, err := fs.Sub(programs, "assets")
	if err != nil {
		panic(err)
	}
	return sub
}

// GridDescription describes a grid of lit cubes.
type GridDescription struct {
	Columns   uint32  `toml:"columns" yaml:"columns"`
	Rows      uint32  `toml:"rows" yaml:"rows"`
	Spacing   float32 `toml:"spacing" yaml:"spacing"`
	Intensity float32 `toml:"intensity" yaml:"intensity"`
}

// CameraDescription is a scene camera as written in a scene file.
type CameraDescription struct {
	Position [3]float32 `toml:"position" yaml:"position"`
	Target   [3]float32 `toml:"target" yaml:"target"`
	Up       [3]float32 `toml:"up" yaml:"up"`
	Near     float32    `toml:"near" yaml:"near"`
	Far      float32    `toml:"far" yaml:"far"`
}

// Description is the content of a scene file.
type Description struct {
	Name    string              `toml:"name" yaml:"name"`
	Grid    GridDescription     `toml:"grid" yaml:"grid"`
	Cameras []CameraDescription `toml:"cameras" yaml:"cameras"`
	// ActiveCamera indexes Cameras. A negative value or an index out of range means no camera is active.
	ActiveCamera int `toml:"active_camera" yaml:"active_camera"`
}

// DefaultDescription returns a 5x5 grid with no cameras.
//
// Returns:
//   - Description: the default scene
func DefaultDescription() Description {
	return Description{
		Name:         "grid",
		Grid:         GridDescription{Columns: 5, Rows: 5, Spacing: 2.5, Intensity: 4},
		ActiveCamera: -1,
	}
}

// gridScene is the Scene implementation that draws an instanced grid of cubes generated
// entirely by its program.
type gridScene struct {
	mu *sync.Mutex

	backend renderer.Backend
	program resource.Handle
	desc    Description
	cameras []Camera
	loaded  bool
}

var _ Scene = &gridScene{}

// NewGridScene compiles the grid program and returns a loaded scene.
//
// Parameters:
//   - backend: the GPU backend to create the program on
//   - loader: the program loader of the selected program backend
//   - desc: the scene description
//
// Returns:
//   - Scene: the loaded scene
//   - error: an error if the description is invalid or the program fails to load
func NewGridScene(backend renderer.Backend, loader shader.ProgramLoader, desc Description) (Scene, error) {
	if desc.Grid.Columns == 0 || desc.Grid.Rows == 0 {
		return nil, errors.New("grid must have at least one column and one row")
	}

	cameras := make([]Camera, 0, len(desc.Cameras))
	for i, c := range desc.Cameras {
		cam := Camera{Position: c.Position, Target: c.Target, Up: c.Up, Near: c.Near, Far: c.Far}
		if cam.Up == ([3]float32{}) {
			cam.Up = camera.DefaultPose().Up
		}
		if cam.Near <= 0 || cam.Near >= cam.Far {
			return nil, fmt.Errorf("camera %d: %w: near %g, far %g", i, camera.ErrInvalidDepthRange, cam.Near, cam.Far)
		}
		cameras = append(cameras, cam)
	}

	var uniform GPUSceneUniform
	programDesc, err := loader.Load(GridProgram, uint64(uniform.Size()))
	if err != nil {
		return nil, err
	}
	program, err := backend.CreateProgram(programDesc)
	if err != nil {
		return nil, fmt.Errorf("failed to create grid program: %w", err)
	}

	return &gridScene{
		mu:      &sync.Mutex{},
		backend: backend,
		program: program,
		desc:    desc,
		cameras: cameras,
		loaded:  true,
	}, nil
}

func (s *gridScene) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

func (s *gridScene) ActiveCamera() (Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.desc.ActiveCamera
	if i < 0 || i >= len(s.cameras) {
		return Camera{}, false
	}
	return s.cameras[i], true
}

func (s *gridScene) CameraCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.cameras)
}

func (s *gridScene) Camera(i int) (Camera, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i < 0 || i >= len(s.cameras) {
		return Camera{}, false
	}
	return s.cameras[i], true
}

func (s *gridScene) Draw(ctx renderer.RenderContext, target surface.Surface, cam camera.Camera) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return nil
	}
	if target.Empty() {
		return errors.New("cannot draw scene into an empty surface")
	}

	state := ctx.State()
	state.ColorTargets = target.ColorHandles()
	state.DepthTarget = target.DepthHandle()
	state.Program = s.program
	ctx.SetState(state)

	uniform := GPUSceneUniform{
		Camera:    cam.Uniform(),
		Columns:   s.desc.Grid.Columns,
		Spacing:   s.desc.Grid.Spacing,
		Intensity: s.desc.Grid.Intensity,
	}
	if state.Rasterizer.Fill == pipeline.FillModeWireframe {
		uniform.Wireframe = 1
	}

	pass, err := ctx.BeginRenderPass()
	if err != nil {
		return fmt.Errorf("failed to begin scene pass: %w", err)
	}
	if err := pass.SetUniforms(uniform.Marshal()); err != nil {
		pass.End()
		return fmt.Errorf("failed to upload scene uniforms: %w", err)
	}
	if err := pass.Draw(cubeVertexCount, s.desc.Grid.Columns*s.desc.Grid.Rows); err != nil {
		pass.End()
		return fmt.Errorf("failed to draw scene: %w", err)
	}
	return pass.End()
}

func (s *gridScene) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.loaded {
		return
	}
	s.backend.ReleaseProgram(s.program)
	s.program = resource.InvalidHandle
	s.loaded = false
}
