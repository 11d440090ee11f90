package window

import (
	"sync"
	"testing"

	"github.com/Carmen-Shannon/oxy-viewer/common"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/stretchr/testify/assert"
)

func TestKeyEvent(t *testing.T) {
	ev, ok := keyEvent(glfw.KeyW, glfw.Press)
	assert.True(t, ok)
	assert.Equal(t, common.KeyboardEvent{Type: common.KeyPressed, Key: common.KeyW}, ev)

	ev, ok = keyEvent(glfw.KeyR, glfw.Repeat)
	assert.True(t, ok)
	assert.Equal(t, common.KeyPressed, ev.Type)

	ev, ok = keyEvent(glfw.KeyR, glfw.Release)
	assert.True(t, ok)
	assert.Equal(t, common.KeyboardEvent{Type: common.KeyReleased, Key: common.KeyR}, ev)
}

func TestMouseButtonEvent(t *testing.T) {
	ev, ok := mouseButtonEvent(glfw.MouseButtonLeft, glfw.Press, 10, 20)
	assert.True(t, ok)
	assert.Equal(t, common.MouseEvent{Type: common.MouseButtonDown, Button: common.MouseButtonLeft, X: 10, Y: 20}, ev)

	ev, ok = mouseButtonEvent(glfw.MouseButtonRight, glfw.Release, 1, 2)
	assert.True(t, ok)
	assert.Equal(t, common.MouseButtonUp, ev.Type)
	assert.Equal(t, common.MouseButtonRight, ev.Button)

	_, ok = mouseButtonEvent(glfw.MouseButtonLeft, glfw.Repeat, 0, 0)
	assert.False(t, ok)
}

func TestSetTitleIsAppliedOnce(t *testing.T) {
	w := &engineWindow{mu: &sync.Mutex{}, title: "Oxy Scene Viewer"}

	w.SetTitle("Oxy Scene Viewer")
	_, ok := w.takeTitle()
	assert.False(t, ok)

	w.SetTitle("Oxy Scene Viewer | 60 fps")
	title, ok := w.takeTitle()
	assert.True(t, ok)
	assert.Equal(t, "Oxy Scene Viewer | 60 fps", title)
	assert.Equal(t, title, w.Title())

	_, ok = w.takeTitle()
	assert.False(t, ok)
}
