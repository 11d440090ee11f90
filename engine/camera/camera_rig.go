package camera

import (
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// RigMode is the state of a CameraRig.
type RigMode int

const (
	// RigModeUninitialized means no camera is bound.
	RigModeUninitialized RigMode = iota

	// RigModeIdle means a camera is bound and the last update had no queued input.
	RigModeIdle

	// RigModeTracking means the last update consumed queued input.
	RigModeTracking
)

func (m RigMode) String() string {
	switch m {
	case RigModeIdle:
		return "idle"
	case RigModeTracking:
		return "tracking"
	}
	return "uninitialized"
}

// cameraRigImpl is the implementation of the CameraRig interface.
type cameraRigImpl struct {
	mu *sync.Mutex

	camera     Camera
	controller CameraController
	mode       RigMode
	fov        float32
	viewport   common.Extent
}

// CameraRig owns a camera and the controller that moves it. The rig exclusively owns the
// controller; the controller only references the camera it drives.
type CameraRig interface {
	// Bind attaches a camera to the rig and its controller. Binding a camera moves the rig
	// from RigModeUninitialized to RigModeIdle. Binding nil returns it to RigModeUninitialized.
	//
	// Parameters:
	//   - cam: the camera to bind
	Bind(cam Camera)

	// Camera returns the bound camera, or nil.
	//
	// Returns:
	//   - Camera: the bound camera
	Camera() Camera

	// Controller returns the rig's controller.
	//
	// Returns:
	//   - CameraController: the controller
	Controller() CameraController

	// Mode returns the state derived by the most recent Update.
	//
	// Returns:
	//   - RigMode: the current mode
	Mode() RigMode

	// Update advances the camera from queued input. The mode is re-derived on every call:
	// RigModeTracking when input was queued, otherwise RigModeIdle.
	//
	// Parameters:
	//   - dt: the frame time in seconds
	//
	// Returns:
	//   - bool: true if the camera moved
	Update(dt float32) bool

	// ResetCamera installs source as the camera pose, or DefaultPose when source is nil,
	// and resets the controller speed to DefaultSpeed. A camera is created and bound if
	// none is bound yet.
	//
	// Parameters:
	//   - source: the scene camera pose to copy, or nil
	//
	// Returns:
	//   - error: ErrInvalidDepthRange if source carries an invalid depth range
	ResetCamera(source *Pose) error

	// SetViewport pushes output dimensions into the bound camera's aspect ratio and
	// applies the rig's field of view. The dimensions are remembered for cameras bound later.
	//
	// Parameters:
	//   - width: output width in pixels
	//   - height: output height in pixels
	SetViewport(width, height int)

	// OnKeyEvent forwards a keyboard event to the controller.
	//
	// Returns:
	//   - bool: true if the controller consumed the event
	OnKeyEvent(ev common.KeyboardEvent) bool

	// OnMouseEvent forwards a mouse event to the controller.
	//
	// Returns:
	//   - bool: true if the controller consumed the event
	OnMouseEvent(ev common.MouseEvent) bool
}

var _ CameraRig = &cameraRigImpl{}

// NewCameraRig creates a new CameraRig with no camera bound.
//
// Parameters:
//   - options: functional options to configure the rig
//
// Returns:
//   - CameraRig: the new rig
func NewCameraRig(options ...CameraRigBuilderOption) CameraRig {
	r := &cameraRigImpl{
		mu:  &sync.Mutex{},
		fov: DefaultFov,
	}
	for _, option := range options {
		option(r)
	}
	if r.controller == nil {
		r.controller = NewFirstPersonController()
	}
	return r
}

func (r *cameraRigImpl) Bind(cam Camera) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.bind(cam)
}

// bind attaches cam. Caller must hold the mutex.
func (r *cameraRigImpl) bind(cam Camera) {
	r.camera = cam
	r.controller.Attach(cam)
	if cam == nil {
		r.mode = RigModeUninitialized
		return
	}
	r.mode = RigModeIdle
	if r.viewport.Valid() {
		cam.SetViewport(r.viewport.Width, r.viewport.Height)
	}
}

func (r *cameraRigImpl) Camera() Camera {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.camera
}

func (r *cameraRigImpl) Controller() CameraController {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.controller
}

func (r *cameraRigImpl) Mode() RigMode {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mode
}

func (r *cameraRigImpl) Update(dt float32) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.camera == nil {
		r.mode = RigModeUninitialized
		return false
	}
	if !r.controller.HasInput() {
		r.mode = RigModeIdle
		return false
	}
	r.mode = RigModeTracking
	return r.controller.Advance(dt)
}

func (r *cameraRigImpl) ResetCamera(source *Pose) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	pose := DefaultPose()
	if source != nil {
		pose = *source
	}
	if r.camera == nil {
		cam := NewCamera(WithFov(r.fov))
		if err := cam.SetPose(pose); err != nil {
			return fmt.Errorf("failed to reset camera: %w", err)
		}
		r.bind(cam)
	} else if err := r.camera.SetPose(pose); err != nil {
		return fmt.Errorf("failed to reset camera: %w", err)
	}
	r.controller.SetSpeed(DefaultSpeed)
	return nil
}

func (r *cameraRigImpl) SetViewport(width, height int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.viewport = common.Extent{Width: width, Height: height}
	if r.camera == nil {
		return
	}
	r.camera.SetFov(r.fov)
	r.camera.SetViewport(width, height)
}

func (r *cameraRigImpl) OnKeyEvent(ev common.KeyboardEvent) bool {
	return r.Controller().OnKeyEvent(ev)
}

func (r *cameraRigImpl) OnMouseEvent(ev common.MouseEvent) bool {
	return r.Controller().OnMouseEvent(ev)
}
