package camera

import (
	"math"
)

// DefaultFov is the vertical field of view applied on every viewport change.
const DefaultFov float32 = math.Pi / 3

// CameraRigBuilderOption is a functional option applied to a camera rig during construction via NewCameraRig.
type CameraRigBuilderOption func(*cameraRigImpl)

// WithController sets the controller owned by the rig. The default is a first-person controller.
//
// Parameters:
//   - ctrl: the controller the rig takes ownership of
//
// Returns:
//   - CameraRigBuilderOption: a function that sets the rig's controller
func WithController(ctrl CameraController) CameraRigBuilderOption {
	return func(r *cameraRigImpl) {
		r.controller = ctrl
	}
}

// WithRigFov sets the vertical field of view the rig applies on viewport changes.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraRigBuilderOption: a function that sets the rig's field of view
func WithRigFov(fov float32) CameraRigBuilderOption {
	return func(r *cameraRigImpl) {
		r.fov = fov
	}
}
