package camera

import (
	"errors"
	"fmt"
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
)

// ErrInvalidDepthRange is returned when a depth range does not satisfy 0 < near < far.
var ErrInvalidDepthRange = errors.New("invalid depth range")

// Pose is the part of a camera's state that can be copied between cameras: where it is,
// what it looks at and its depth range.
type Pose struct {
	Position common.Vec3
	Target   common.Vec3
	Up       common.Vec3
	Near     float32
	Far      float32
}

type cameraImpl struct {
	mu *sync.Mutex

	position common.Vec3
	target   common.Vec3
	up       common.Vec3

	fov    float32
	aspect float32
	near   float32
	far    float32

	viewMatrix           [16]float32
	projectionMatrix     [16]float32
	viewProjectionMatrix [16]float32
}

// Camera defines the interface for the camera state consumed by the renderer.
// The aspect ratio is only derived from output dimensions through SetViewport.
type Camera interface {
	// Position returns the camera's world-space position.
	Position() common.Vec3

	// Target returns the world-space look-at point.
	Target() common.Vec3

	// Up returns the camera's up vector.
	Up() common.Vec3

	// Fov returns the vertical field of view in radians.
	//
	// Returns:
	//   - float32: field of view in radians
	Fov() float32

	// Aspect returns the aspect ratio (width / height).
	//
	// Returns:
	//   - float32: the aspect ratio
	Aspect() float32

	// Near returns the near clipping plane distance.
	Near() float32

	// Far returns the far clipping plane distance.
	Far() float32

	// Pose returns a copy of the camera's position, target, up vector and depth range.
	//
	// Returns:
	//   - Pose: the current pose
	Pose() Pose

	// ViewMatrix returns the current 4x4 view matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the view matrix
	ViewMatrix() [16]float32

	// ProjectionMatrix returns the current 4x4 projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the projection matrix
	ProjectionMatrix() [16]float32

	// ViewProjectionMatrix returns the current combined view-projection matrix as 16 floats (column-major).
	//
	// Returns:
	//   - [16]float32: the combined view-projection matrix
	ViewProjectionMatrix() [16]float32

	// Uniform returns the GPU uniform block for the camera's current state.
	//
	// Returns:
	//   - GPUCameraUniform: the uniform ready to be marshaled
	Uniform() GPUCameraUniform

	// SetPosition moves the camera without changing its target.
	SetPosition(p common.Vec3)

	// SetTarget changes the look-at point without moving the camera.
	SetTarget(t common.Vec3)

	// SetUp sets the camera's up vector.
	SetUp(u common.Vec3)

	// SetFov sets the vertical field of view in radians and recomputes matrices.
	//
	// Parameters:
	//   - fov: field of view in radians
	SetFov(fov float32)

	// SetViewport derives the aspect ratio from output dimensions. Non-positive dimensions
	// are ignored.
	//
	// Parameters:
	//   - width: output width in pixels
	//   - height: output height in pixels
	SetViewport(width, height int)

	// SetDepthRange sets the near and far clipping plane distances.
	//
	// Parameters:
	//   - near: near plane distance
	//   - far: far plane distance
	//
	// Returns:
	//   - error: ErrInvalidDepthRange unless 0 < near < far; the camera is unchanged on error
	SetDepthRange(near, far float32) error

	// SetPose installs position, target, up and depth range in one step.
	//
	// Parameters:
	//   - p: the pose to copy
	//
	// Returns:
	//   - error: ErrInvalidDepthRange if the pose's depth range is invalid; the camera is unchanged on error
	SetPose(p Pose) error
}

var _ Camera = &cameraImpl{}

// NewCamera creates a new Camera at the default viewer pose.
//
// Parameters:
//   - options: functional options to configure the camera
//
// Returns:
//   - Camera: the newly created camera
func NewCamera(options ...CameraBuilderOption) Camera {
	d := DefaultPose()
	c := &cameraImpl{
		mu:       &sync.Mutex{},
		position: d.Position,
		target:   d.Target,
		up:       d.Up,
		fov:      DefaultFov,
		aspect:   1.0,
		near:     d.Near,
		far:      d.Far,
	}
	for _, option := range options {
		option(c)
	}
	c.updateMatrices()
	return c
}

// DefaultPose returns the pose installed when no scene camera is available.
//
// Returns:
//   - Pose: position (0,0,-10) looking at the origin with +Y up and depth range [0.1, 1000]
func DefaultPose() Pose {
	return Pose{
		Position: common.Vec3{0, 0, -10},
		Target:   common.Vec3{0, 0, 0},
		Up:       common.Vec3{0, 1, 0},
		Near:     0.1,
		Far:      1000,
	}
}

func validDepthRange(near, far float32) error {
	if near <= 0 || near >= far {
		return fmt.Errorf("%w: near %g, far %g", ErrInvalidDepthRange, near, far)
	}
	return nil
}

func (c *cameraImpl) Position() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.position
}

func (c *cameraImpl) Target() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

func (c *cameraImpl) Up() common.Vec3 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.up
}

func (c *cameraImpl) Fov() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fov
}

func (c *cameraImpl) Aspect() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.aspect
}

func (c *cameraImpl) Near() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.near
}

func (c *cameraImpl) Far() float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.far
}

func (c *cameraImpl) Pose() Pose {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Pose{Position: c.position, Target: c.target, Up: c.up, Near: c.near, Far: c.far}
}

func (c *cameraImpl) ViewMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewMatrix
}

func (c *cameraImpl) ProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.projectionMatrix
}

func (c *cameraImpl) ViewProjectionMatrix() [16]float32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.viewProjectionMatrix
}

func (c *cameraImpl) Uniform() GPUCameraUniform {
	c.mu.Lock()
	defer c.mu.Unlock()
	return GPUCameraUniform{ViewProj: c.viewProjectionMatrix, Position: c.position}
}

func (c *cameraImpl) SetPosition(p common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position = p
	c.updateMatrices()
}

func (c *cameraImpl) SetTarget(t common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.target = t
	c.updateMatrices()
}

func (c *cameraImpl) SetUp(u common.Vec3) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.up = u
	c.updateMatrices()
}

func (c *cameraImpl) SetFov(fov float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fov = fov
	c.updateMatrices()
}

func (c *cameraImpl) SetViewport(width, height int) {
	e := common.Extent{Width: width, Height: height}
	if !e.Valid() {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.aspect = e.Aspect()
	c.updateMatrices()
}

func (c *cameraImpl) SetDepthRange(near, far float32) error {
	if err := validDepthRange(near, far); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.near, c.far = near, far
	c.updateMatrices()
	return nil
}

func (c *cameraImpl) SetPose(p Pose) error {
	if err := validDepthRange(p.Near, p.Far); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.position, c.target, c.up = p.Position, p.Target, p.Up
	c.near, c.far = p.Near, p.Far
	c.updateMatrices()
	return nil
}

// updateMatrices recalculates the view, projection and view-projection matrices.
// Caller must hold the mutex.
func (c *cameraImpl) updateMatrices() {
	common.LookAt(c.viewMatrix[:], c.position, c.target, c.up)
	common.Perspective(c.projectionMatrix[:], c.fov, c.aspect, c.near, c.far)
	common.Mul4(c.viewProjectionMatrix[:], c.projectionMatrix[:], c.viewMatrix[:])
}
