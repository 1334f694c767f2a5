package game

import (
	"testing"

	"github.com/hajimehoshi/ebiten/v2"
)

// MockScene is a mock implementation of the Scene interface for testing.
type MockScene struct {
	updateCalled bool
	drawCalled   bool
	deltaTime    float64
	unmounts     int
	w, h         int
}

func (m *MockScene) Update(deltaTime float64) {
	m.updateCalled = true
	m.deltaTime = deltaTime
}

func (m *MockScene) Draw(screen *ebiten.Image) {
	m.drawCalled = true
}

func (m *MockScene) Unmount() { m.unmounts++ }

func (m *MockScene) Resize(w, h int) { m.w, m.h = w, h }

// plainScene 不实现任何可选接口
type plainScene struct{}

func (plainScene) Update(float64) {}
func (plainScene) Draw(*ebiten.Image) {}

// TestSceneManagerSwitchTo verifies SwitchTo changes the scene and unmounts the old one.
func TestSceneManagerSwitchTo(t *testing.T) {
	sm := NewSceneManager()
	if sm.GetCurrentScene() != nil {
		t.Fatal("Expected no scene initially")
	}

	first := &MockScene{}
	second := &MockScene{}
	sm.SwitchTo(first)
	sm.SwitchTo(first)
	if first.unmounts != 0 {
		t.Error("切换到同一场景不应卸载")
	}

	sm.SwitchTo(second)
	if sm.GetCurrentScene() != second {
		t.Error("SwitchTo did not set the current scene correctly")
	}
	if first.unmounts != 1 {
		t.Errorf("旧场景 unmounts = %d, 期望 1", first.unmounts)
	}

	sm.SwitchTo(plainScene{})
	sm.Shutdown()
	if second.unmounts != 1 || sm.GetCurrentScene() != nil {
		t.Error("Shutdown 后不应有场景")
	}
}

// TestSceneManagerUpdateDraw verifies Update and Draw are forwarded.
func TestSceneManagerUpdateDraw(t *testing.T) {
	sm := NewSceneManager()
	sm.Update(0.016)
	sm.Draw(nil)

	mock := &MockScene{}
	sm.SwitchTo(mock)
	sm.Update(0.016)
	sm.Draw(nil)

	if !mock.updateCalled || mock.deltaTime != 0.016 {
		t.Errorf("Update not forwarded: %+v", mock)
	}
	if !mock.drawCalled {
		t.Error("Draw not forwarded")
	}
}

// TestSceneManagerResize verifies layout size forwarding.
func TestSceneManagerResize(t *testing.T) {
	sm := NewSceneManager()
	sm.Resize(1280, 720)

	mock := &MockScene{}
	sm.SwitchTo(mock)
	if mock.w != 1280 || mock.h != 720 {
		t.Errorf("新场景应收到已知尺寸, got %dx%d", mock.w, mock.h)
	}

	sm.Resize(390, 844)
	if mock.w != 390 || mock.h != 844 {
		t.Errorf("got %dx%d", mock.w, mock.h)
	}
}
