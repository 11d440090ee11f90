package camera

import (
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetDepthRangeRejectsInvalid(t *testing.T) {
	c := NewCamera()

	assert.ErrorIs(t, c.SetDepthRange(10, 10), ErrInvalidDepthRange)
	assert.ErrorIs(t, c.SetDepthRange(10, 1), ErrInvalidDepthRange)
	assert.ErrorIs(t, c.SetDepthRange(0, 1), ErrInvalidDepthRange)
	assert.Equal(t, float32(0.1), c.Near())
	assert.Equal(t, float32(1000), c.Far())

	require.NoError(t, c.SetDepthRange(1, 50))
	assert.Equal(t, float32(1), c.Near())
	assert.Equal(t, float32(50), c.Far())
}

func TestSetViewportDerivesAspect(t *testing.T) {
	c := NewCamera()
	c.SetViewport(1920, 1080)
	assert.InDelta(t, 1920.0/1080.0, c.Aspect(), 1e-6)

	c.SetViewport(0, 1080)
	assert.InDelta(t, 1920.0/1080.0, c.Aspect(), 1e-6)
}

func TestUniformCarriesViewProjection(t *testing.T) {
	c := NewCamera()
	u := c.Uniform()
	assert.Equal(t, c.ViewProjectionMatrix(), u.ViewProj)
	assert.Equal(t, common.Vec3{0, 0, -10}, u.Position)
	assert.Len(t, u.Marshal(), 80)
}

func TestResetCameraWithoutSceneCamera(t *testing.T) {
	r := NewCameraRig()
	assert.Equal(t, RigModeUninitialized, r.Mode())

	r.Controller().SetSpeed(7)
	require.NoError(t, r.ResetCamera(nil))

	assert.Equal(t, RigModeIdle, r.Mode())
	assert.Equal(t, DefaultPose(), r.Camera().Pose())
	assert.Equal(t, float32(1), r.Controller().Speed())
}

func TestResetCameraCopiesSceneCamera(t *testing.T) {
	r := NewCameraRig()
	r.Bind(NewCamera())
	r.Controller().SetSpeed(3)

	src := Pose{
		Position: common.Vec3{1, 2, 3},
		Target:   common.Vec3{4, 5, 6},
		Up:       common.Vec3{0, 0, 1},
		Near:     0.5,
		Far:      20,
	}
	require.NoError(t, r.ResetCamera(&src))
	assert.Equal(t, src, r.Camera().Pose())
	assert.Equal(t, DefaultSpeed, r.Controller().Speed())

	bad := src
	bad.Near, bad.Far = 5, 1
	assert.ErrorIs(t, r.ResetCamera(&bad), ErrInvalidDepthRange)
	assert.Equal(t, src, r.Camera().Pose())
}

func TestRigModeFollowsQueuedInput(t *testing.T) {
	r := NewCameraRig()
	assert.False(t, r.Update(0.016))
	assert.Equal(t, RigModeUninitialized, r.Mode())

	r.Bind(NewCamera())
	assert.Equal(t, RigModeIdle, r.Mode())

	assert.True(t, r.OnKeyEvent(common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeyW}))
	before := r.Camera().Position()
	assert.True(t, r.Update(1))
	assert.Equal(t, RigModeTracking, r.Mode())
	after := r.Camera().Position()
	assert.InDelta(t, 1, after.Sub(before).Length(), 1e-5)
	assert.InDelta(t, before[2]+1, after[2], 1e-5)

	r.OnKeyEvent(common.KeyboardEvent{Type: common.KeyReleased, Key: common.KeyW})
	assert.False(t, r.Update(1))
	assert.Equal(t, RigModeIdle, r.Mode())
}

func TestControllerDoesNotConsumeResetKey(t *testing.T) {
	r := NewCameraRig()
	r.Bind(NewCamera())
	assert.False(t, r.OnKeyEvent(common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeyR}))
}

func TestMouseDragRotatesView(t *testing.T) {
	r := NewCameraRig()
	r.Bind(NewCamera())
	cam := r.Camera()
	pos := cam.Position()

	assert.False(t, r.OnMouseEvent(common.MouseEvent{Type: common.MouseMove, X: 10, Y: 10}))
	assert.True(t, r.OnMouseEvent(common.MouseEvent{Type: common.MouseButtonDown, Button: common.MouseButtonLeft, X: 10, Y: 10}))
	assert.True(t, r.OnMouseEvent(common.MouseEvent{Type: common.MouseMove, X: 60, Y: 10}))
	assert.True(t, r.Controller().HasInput())

	assert.True(t, r.Update(0.016))
	assert.Equal(t, pos, cam.Position())
	assert.NotEqual(t, common.Vec3{0, 0, 0}, cam.Target())
	assert.InDelta(t, 10, cam.Target().Sub(pos).Length(), 1e-4)
	assert.False(t, r.Controller().HasInput())

	assert.True(t, r.OnMouseEvent(common.MouseEvent{Type: common.MouseButtonUp, Button: common.MouseButtonLeft}))
	assert.False(t, r.OnMouseEvent(common.MouseEvent{Type: common.MouseButtonDown, Button: common.MouseButtonRight}))
}

func TestSetViewportAppliesToBoundCamera(t *testing.T) {
	r := NewCameraRig()
	r.SetViewport(800, 400)
	require.NoError(t, r.ResetCamera(nil))
	assert.InDelta(t, 2, r.Camera().Aspect(), 1e-6)
	assert.InDelta(t, DefaultFov, r.Camera().Fov(), 1e-6)

	r.Camera().SetFov(1)
	r.SetViewport(400, 400)
	assert.InDelta(t, 1, r.Camera().Aspect(), 1e-6)
	assert.InDelta(t, DefaultFov, r.Camera().Fov(), 1e-6)
}
