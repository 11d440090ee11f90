package camera

type CameraBuilderOption func(*cameraImpl)

// WithPose sets the camera's initial position, target, up vector and depth range.
// An invalid depth range keeps the default one.
//
// Parameters:
//   - p: the initial pose
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's pose
func WithPose(p Pose) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.position, c.target, c.up = p.Position, p.Target, p.Up
		if validDepthRange(p.Near, p.Far) == nil {
			c.near, c.far = p.Near, p.Far
		}
	}
}

// WithFov sets the camera's vertical field of view in radians.
//
// Parameters:
//   - fov: field of view in radians
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's field of view
func WithFov(fov float32) CameraBuilderOption {
	return func(c *cameraImpl) {
		c.fov = fov
	}
}

// WithViewport derives the camera's initial aspect ratio from output dimensions.
//
// Parameters:
//   - width: output width in pixels
//   - height: output height in pixels
//
// Returns:
//   - CameraBuilderOption: a function that sets the camera's aspect ratio
func WithViewport(width, height int) CameraBuilderOption {
	return func(c *cameraImpl) {
		if width > 0 && height > 0 {
			c.aspect = float32(width) / float32(height)
		}
	}
}
