// Package scene is the boundary between the frame pipeline and the content it draws. A Scene
// answers camera queries and records its own draw into the target it is handed.
package scene

import (
	"github.com/Carmen-Shannon/oxy-viewer/engine/camera"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer"
	"github.com/Carmen-Shannon/oxy-viewer/engine/renderer/surface"
)

// Camera is a camera provided by a scene: position, target, up vector and depth range.
type Camera = camera.Pose

// Scene is the scene collaborator the frame pipeline draws each frame.
type Scene interface {
	// Loaded reports whether the scene holds content to draw.
	//
	// Returns:
	//   - bool: true once loading completed
	Loaded() bool

	// ActiveCamera returns the camera the scene designates as active.
	//
	// Returns:
	//   - Camera: the active camera
	//   - bool: false if the scene has no active camera
	ActiveCamera() (Camera, bool)

	// CameraCount returns the number of cameras the scene provides.
	CameraCount() int

	// Camera returns the camera at index i.
	//
	// Parameters:
	//   - i: the camera index
	//
	// Returns:
	//   - Camera: the camera
	//   - bool: false if i is out of range
	Camera(i int) (Camera, bool)

	// Draw records the scene into target. The caller has already bound the rasterizer, depth
	// and filtering state on ctx; the scene binds its targets and program on top of it.
	//
	// Parameters:
	//   - ctx: the frame's render context
	//   - target: the surface to draw into
	//   - cam: the camera to draw from
	//
	// Returns:
	//   - error: an error from the backend
	Draw(ctx renderer.RenderContext, target surface.Surface, cam camera.Camera) error

	// Release frees the scene's GPU resources.
	Release()
}

// Loader loads scenes from files.
type Loader interface {
	// Load reads and prepares the scene at path.
	//
	// Parameters:
	//   - path: the scene file
	//
	// Returns:
	//   - Scene: the loaded scene
	//   - error: a read, decoding or GPU error
	Load(path string) (Scene, error)
}

// PickCamera returns the camera a reset should copy: the active camera, else camera 0.
//
// Parameters:
//   - s: the scene, may be nil
//
// Returns:
//   - *Camera: the camera to copy, or nil if s has none
func PickCamera(s Scene) *Camera {
	if s == nil || !s.Loaded() {
		return nil
	}
	if c, ok := s.ActiveCamera(); ok {
		return &c
	}
	if s.CameraCount() > 0 {
		if c, ok := s.Camera(0); ok {
			return &c
		}
	}
	return nil
}
