package camera

// CameraControllerOption is a functional option for configuring a CameraController.
type CameraControllerOption func(*firstPersonControllerImpl)

// WithSpeed sets the initial translation speed.
//
// Parameters:
//   - speed: world units per second
//
// Returns:
//   - CameraControllerOption: functional option to set the speed
func WithSpeed(speed float32) CameraControllerOption {
	return func(cc *firstPersonControllerImpl) {
		cc.speed = speed
	}
}

// WithMouseSensitivity sets the mouse drag sensitivity.
//
// Parameters:
//   - sensitivity: radians per pixel of mouse movement
//
// Returns:
//   - CameraControllerOption: functional option to set mouse sensitivity
func WithMouseSensitivity(sensitivity float32) CameraControllerOption {
	return func(cc *firstPersonControllerImpl) {
		cc.mouseSensitivity = sensitivity
	}
}
