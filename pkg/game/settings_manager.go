package game

import (
	"fmt"
	"log"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// PageSettings 用户偏好（跨会话保存）
type PageSettings struct {
	// MusicVolume 背景音乐渐变的目标音量 0.0 ~ 1.0
	MusicVolume float64 `yaml:"musicVolume"`
	// CustomVolume 用户是否设置过音量；未设置时使用页面配置的目标音量
	CustomVolume bool `yaml:"customVolume"`
	// Muted 用户是否要求静音
	Muted bool `yaml:"muted"`
	// Fullscreen 启动时是否全屏
	Fullscreen bool `yaml:"fullscreen"`
}

// DefaultSettings 返回默认设置
func DefaultSettings() *PageSettings {
	return &PageSettings{
		MusicVolume: 0.3,
		Muted:       false,
		Fullscreen:  false,
	}
}

// SettingsManager 设置管理器
// gdataManager 为 nil 时进入降级模式，设置只保存在内存中
type SettingsManager struct {
	gdataManager *gdata.Manager
	settings     *PageSettings
}

const (
	settingsObject   = "settings"
	settingsProperty = "page"
)

// NewSettingsManager 创建设置管理器
//
// 参数：
//   - gdataManager: 跨平台存储，可为 nil
//
// 加载失败只记录警告并使用默认设置。
func NewSettingsManager(gdataManager *gdata.Manager) *SettingsManager {
	sm := &SettingsManager{
		gdataManager: gdataManager,
		settings:     DefaultSettings(),
	}
	if err := sm.Load(); err != nil {
		log.Printf("[SettingsManager] Warning: Failed to load settings: %v (using defaults)", err)
	}
	return sm
}

// Load 从 gdata 加载设置
func (sm *SettingsManager) Load() error {
	sm.settings = DefaultSettings()
	if sm.gdataManager == nil || !sm.gdataManager.ObjectPropExists(settingsObject, settingsProperty) {
		return nil
	}

	data, err := sm.gdataManager.LoadObjectProp(settingsObject, settingsProperty)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}

	loaded := DefaultSettings()
	if err := yaml.Unmarshal(data, loaded); err != nil {
		return fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	loaded.MusicVolume = clampVolume(loaded.MusicVolume)

	sm.settings = loaded
	log.Printf("[SettingsManager] Settings loaded (muted=%v, volume=%.2f)", loaded.Muted, loaded.MusicVolume)
	return nil
}

// Save 保存设置到 gdata，降级模式下直接返回 nil
func (sm *SettingsManager) Save() error {
	if sm.gdataManager == nil {
		return nil
	}

	data, err := yaml.Marshal(sm.settings)
	if err != nil {
		return fmt.Errorf("failed to marshal settings: %w", err)
	}
	if err := sm.gdataManager.SaveObjectProp(settingsObject, settingsProperty, data); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// GetSettings 当前设置
func (sm *SettingsManager) GetSettings() *PageSettings {
	return sm.settings
}

// SetMuted 设置静音偏好（需调用 Save 持久化）
func (sm *SettingsManager) SetMuted(muted bool) {
	sm.settings.Muted = muted
}

// SetMusicVolume 设置目标音量，限制在 0.0 ~ 1.0
func (sm *SettingsManager) SetMusicVolume(volume float64) {
	sm.settings.MusicVolume = clampVolume(volume)
	sm.settings.CustomVolume = true
}

// MusicVolume 用户保存的目标音量
//
// 返回:
//   - float64: 音量
//   - bool: 用户是否设置过；false 时调用方应使用自己的默认值
func (sm *SettingsManager) MusicVolume() (float64, bool) {
	return sm.settings.MusicVolume, sm.settings.CustomVolume
}

// SetFullscreen 设置全屏偏好
func (sm *SettingsManager) SetFullscreen(enabled bool) {
	sm.settings.Fullscreen = enabled
}

// clampVolume 将音量值限制在 0.0 ~ 1.0 范围内
func clampVolume(volume float64) float64 {
	if volume < 0.0 {
		return 0.0
	}
	if volume > 1.0 {
		return 1.0
	}
	return volume
}
