package camera

import (
	"sync"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/chewxy/math32"
)

// DefaultSpeed is the controller speed installed on construction and on every camera reset.
const DefaultSpeed float32 = 1.0

// firstPersonControllerImpl is the first-person implementation of CameraController.
// W/S move along the view direction, A/D strafe, Q/E move along the up vector and
// dragging with the left mouse button rotates the view around the camera position.
type firstPersonControllerImpl struct {
	mu *sync.Mutex

	camera Camera

	held map[uint32]bool

	dragging   bool
	lastX      float32
	lastY      float32
	hasLast    bool
	pendingYaw float32
	pendingPit float32

	speed            float32
	mouseSensitivity float32
	minPitchCos      float32
}

// Compile-time interface compliance check
var _ CameraController = &firstPersonControllerImpl{}

// movementKeys maps each movement key to its (right, up, forward) direction.
var movementKeys = map[uint32]common.Vec3{
	common.KeyW: {0, 0, 1},
	common.KeyS: {0, 0, -1},
	common.KeyD: {1, 0, 0},
	common.KeyA: {-1, 0, 0},
	common.KeyE: {0, 1, 0},
	common.KeyQ: {0, -1, 0},
}

// NewFirstPersonController creates a new first-person camera controller.
//
// Parameters:
//   - options: functional options to configure the controller
//
// Returns:
//   - CameraController: the newly created controller
func NewFirstPersonController(options ...CameraControllerOption) CameraController {
	cc := &firstPersonControllerImpl{
		mu:               &sync.Mutex{},
		held:             make(map[uint32]bool),
		speed:            DefaultSpeed,
		mouseSensitivity: 0.005,
		minPitchCos:      0.01,
	}
	for _, option := range options {
		option(cc)
	}
	return cc
}

func (cc *firstPersonControllerImpl) Attach(cam Camera) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.camera = cam
}

func (cc *firstPersonControllerImpl) Camera() Camera {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.camera
}

func (cc *firstPersonControllerImpl) OnKeyEvent(ev common.KeyboardEvent) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if _, ok := movementKeys[ev.Key]; !ok {
		return false
	}
	switch ev.Type {
	case common.KeyPressed:
		cc.held[ev.Key] = true
	case common.KeyReleased:
		delete(cc.held, ev.Key)
	}
	return true
}

func (cc *firstPersonControllerImpl) OnMouseEvent(ev common.MouseEvent) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	switch ev.Type {
	case common.MouseButtonDown:
		if ev.Button != common.MouseButtonLeft {
			return false
		}
		cc.dragging = true
		cc.lastX, cc.lastY, cc.hasLast = ev.X, ev.Y, true
		return true
	case common.MouseButtonUp:
		if ev.Button != common.MouseButtonLeft {
			return false
		}
		cc.dragging = false
		return true
	case common.MouseMove:
		if !cc.dragging {
			cc.lastX, cc.lastY, cc.hasLast = ev.X, ev.Y, true
			return false
		}
		if cc.hasLast {
			cc.pendingYaw += (ev.X - cc.lastX) * cc.mouseSensitivity
			cc.pendingPit += (ev.Y - cc.lastY) * cc.mouseSensitivity
		}
		cc.lastX, cc.lastY, cc.hasLast = ev.X, ev.Y, true
		return true
	}
	return false
}

func (cc *firstPersonControllerImpl) HasInput() bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.hasInput()
}

// hasInput reports queued input. Caller must hold the mutex.
func (cc *firstPersonControllerImpl) hasInput() bool {
	return len(cc.held) > 0 || cc.pendingYaw != 0 || cc.pendingPit != 0
}

func (cc *firstPersonControllerImpl) Advance(dt float32) bool {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	if cc.camera == nil || !cc.hasInput() {
		return false
	}

	pos := cc.camera.Position()
	target := cc.camera.Target()
	up := cc.camera.Up().Normalize()

	view := target.Sub(pos)
	dist := view.Length()
	if dist < 1e-6 {
		view, dist = common.Vec3{0, 0, 1}, 1
	}
	forward := view.Scale(1 / dist)

	moved := false
	if cc.pendingYaw != 0 || cc.pendingPit != 0 {
		forward = common.RotateAround(forward, up, -cc.pendingYaw)
		right := forward.Cross(up).Normalize()
		pitched := common.RotateAround(forward, right, -cc.pendingPit)
		if math32.Abs(pitched.Dot(up)) < 1-cc.minPitchCos {
			forward = pitched
		}
		cc.pendingYaw, cc.pendingPit = 0, 0
		moved = true
	}

	var dir common.Vec3
	for key := range cc.held {
		dir = dir.Add(movementKeys[key])
	}
	if dir != (common.Vec3{}) {
		right := forward.Cross(up).Normalize()
		step := cc.speed * dt
		offset := right.Scale(dir[0] * step).
			Add(up.Scale(dir[1] * step)).
			Add(forward.Scale(dir[2] * step))
		pos = pos.Add(offset)
		moved = true
	}

	if moved {
		cc.camera.SetPosition(pos)
		cc.camera.SetTarget(pos.Add(forward.Scale(dist)))
	}
	return moved
}

func (cc *firstPersonControllerImpl) Speed() float32 {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.speed
}

func (cc *firstPersonControllerImpl) SetSpeed(speed float32) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	cc.speed = speed
}

func (cc *firstPersonControllerImpl) Reset() {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	clear(cc.held)
	cc.dragging, cc.hasLast = false, false
	cc.pendingYaw, cc.pendingPit = 0, 0
}
