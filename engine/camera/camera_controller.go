package camera

import (
	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// CameraController defines the capability interface for camera control systems.
// A controller drives exactly one camera at a time through a non-owning reference. Input
// events are queued by the event handlers and turned into camera motion by Advance.
type CameraController interface {
	// Attach binds the controller to a camera, replacing any previous binding.
	//
	// Parameters:
	//   - cam: the camera to drive, or nil to detach
	Attach(cam Camera)

	// Camera returns the camera the controller drives, or nil if none is attached.
	//
	// Returns:
	//   - Camera: the attached camera
	Camera() Camera

	// OnKeyEvent queues a keyboard event.
	//
	// Parameters:
	//   - ev: the keyboard event
	//
	// Returns:
	//   - bool: true if the controller consumed the event
	OnKeyEvent(ev common.KeyboardEvent) bool

	// OnMouseEvent queues a mouse event.
	//
	// Parameters:
	//   - ev: the mouse event
	//
	// Returns:
	//   - bool: true if the controller consumed the event
	OnMouseEvent(ev common.MouseEvent) bool

	// HasInput reports whether input is queued that Advance would turn into motion.
	//
	// Returns:
	//   - bool: true if keys are held or mouse motion is pending
	HasInput() bool

	// Advance applies the queued input to the attached camera for a frame of dt seconds.
	// Pending mouse motion is consumed; held keys stay held.
	//
	// Parameters:
	//   - dt: the frame time in seconds
	//
	// Returns:
	//   - bool: true if the camera moved
	Advance(dt float32) bool

	// Speed returns the translation speed in world units per second.
	//
	// Returns:
	//   - float32: the current speed
	Speed() float32

	// SetSpeed sets the translation speed in world units per second.
	//
	// Parameters:
	//   - speed: the new speed
	SetSpeed(speed float32)

	// Reset drops all queued input.
	Reset()
}
