package common

// KeyEventType distinguishes key presses from key releases.
type KeyEventType int

const (
	// KeyPressed is emitted when a key goes down (GLFW press or repeat).
	KeyPressed KeyEventType = iota

	// KeyReleased is emitted when a key goes up.
	KeyReleased
)

// KeyboardEvent is a single discrete keyboard event delivered by the window layer.
type KeyboardEvent struct {
	// Type is either KeyPressed or KeyReleased.
	Type KeyEventType
	// Key is the virtual key code (see key_codes.go).
	Key uint32
}

// MouseEventType identifies the kind of mouse event.
type MouseEventType int

const (
	// MouseMove is emitted when the cursor moves.
	MouseMove MouseEventType = iota

	// MouseButtonDown is emitted when a mouse button is pressed.
	MouseButtonDown

	// MouseButtonUp is emitted when a mouse button is released.
	MouseButtonUp

	// MouseWheel is emitted when the scroll wheel moves.
	MouseWheel
)

// MouseEvent is a single discrete mouse event delivered by the window layer.
// Positions are in window pixels.
type MouseEvent struct {
	Type   MouseEventType
	Button int
	X, Y   float32
	// WheelDelta is positive when scrolling up.
	WheelDelta float32
}
