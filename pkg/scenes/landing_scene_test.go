package scenes

import (
	"os"
	"testing"

	"github.com/decker502/rolet/pkg/embedded"
	"github.com/decker502/rolet/pkg/game"
	"github.com/decker502/rolet/pkg/scheduler"
)

// TestContentHeight 测试页面基础高度
func TestContentHeight(t *testing.T) {
	tests := []struct {
		name     string
		viewport float64
		after    float64
		want     float64
	}{
		{"页脚一屏", 800, 1, 1600},
		{"没有页脚", 800, 0, 800},
		{"半屏页脚", 600, 0.5, 900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := contentHeight(tt.viewport, tt.after); got != tt.want {
				t.Errorf("contentHeight(%v, %v) = %v, 期望 %v", tt.viewport, tt.after, got, tt.want)
			}
		})
	}
}

// TestMusicTargetVolume 测试保存的音量覆盖页面配置
func TestMusicTargetVolume(t *testing.T) {
	saved := game.NewSettingsManager(nil)
	saved.SetMusicVolume(0.6)

	tests := []struct {
		name     string
		settings *game.SettingsManager
		want     float64
	}{
		{"没有设置管理器", nil, 0.25},
		{"未设置音量", game.NewSettingsManager(nil), 0.25},
		{"已保存音量", saved, 0.6},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := musicTargetVolume(0.25, tt.settings); got != tt.want {
				t.Errorf("musicTargetVolume = %v, 期望 %v", got, tt.want)
			}
		})
	}
}

// TestNewLandingSceneMissingConfig 测试配置缺失
func TestNewLandingSceneMissingConfig(t *testing.T) {
	rm := game.NewResourceManager(nil, scheduler.New())
	if _, err := NewLandingScene(rm, scheduler.New(), nil, nil, "data/does_not_exist.yaml"); err == nil {
		t.Error("配置缺失时应返回错误")
	}
}

// TestLandingSceneLifecycle 测试挂载与卸载
func TestLandingSceneLifecycle(t *testing.T) {
	root := os.DirFS("../..")
	embedded.Init(root, root)

	sched := scheduler.New()
	rm := game.NewResourceManager(nil, sched)
	s, err := NewLandingScene(rm, sched, nil, nil, "data/hero.yaml")
	if err != nil {
		t.Fatalf("NewLandingScene() failed: %v", err)
	}

	s.Resize(1280, 720)
	if got := s.Document().ViewportHeight(); got != 720 {
		t.Errorf("ViewportHeight = %v, 期望 720", got)
	}
	if !s.showLoader {
		t.Error("就绪前应显示加载遮罩")
	}

	s.media = game.NewMediaPlayer(nil, nil)
	s.Unmount()
	s.Unmount()
	sched.Flush()

	if !s.media.Muted() || !s.media.Paused() {
		t.Error("卸载后音乐应静音并暂停")
	}

	if s.Document().Listeners() != 0 || s.Document().Reservations() != 0 {
		t.Error("卸载后不应保留滚动订阅或预留")
	}
	if s.Sequencer().Binding() != nil {
		t.Error("卸载后不应有绑定")
	}

	// 卸载后的尺寸变化被忽略
	s.Resize(400, 800)
	if s.Document().ViewportHeight() != 720 {
		t.Error("卸载后不应再响应尺寸变化")
	}
}
