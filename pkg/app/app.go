// Package app 提供页面应用的核心包装器
//
// 该包将初始化逻辑从 main 包提取出来，使其可以被桌面端和移动端共用。
// 桌面端通过 main.go 调用 NewApp()，移动端通过 mobile/mobile.go 调用。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/decker502/rolet/pkg/game"
	"github.com/decker502/rolet/pkg/scenes"
	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/decker502/rolet/pkg/utils"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

const (
	// DefaultWindowWidth 默认窗口宽度
	DefaultWindowWidth = 1280
	// DefaultWindowHeight 默认窗口高度
	DefaultWindowHeight = 800
	// DefaultConfigPath 默认页面配置
	DefaultConfigPath = "data/hero.yaml"

	sampleRate = 48000
	appName    = "rolet"
)

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// Width / Height 窗口初始尺寸，0 使用默认值
	Width  int
	Height int
	// Muted 强制以静音启动（覆盖保存的偏好）
	Muted bool
	// ConfigPath 页面配置路径，空使用 DefaultConfigPath
	ConfigPath string
}

// App 是页面应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sched        *scheduler.Scheduler
	sceneManager *game.SceneManager
	settings     *game.SettingsManager
	verbose      bool

	windowWidth  int
	windowHeight int
	// 退出全屏后延迟几帧再恢复窗口大小
	pendingWindowSizeReset   bool
	windowSizeResetCountdown int
}

// NewApp 创建并初始化页面应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}
	if cfg.Width <= 0 {
		cfg.Width = DefaultWindowWidth
	}
	if cfg.Height <= 0 {
		cfg.Height = DefaultWindowHeight
	}
	if cfg.ConfigPath == "" {
		cfg.ConfigPath = DefaultConfigPath
	}

	sched := scheduler.New()
	audioContext := audio.NewContext(sampleRate)
	resourceManager := game.NewResourceManager(audioContext, sched)

	settings := game.NewSettingsManager(openStorage())
	if cfg.Muted {
		settings.SetMuted(true)
	}

	landing, err := scenes.NewLandingScene(resourceManager, sched, settings, audioContext, cfg.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("页面初始化失败: %w", err)
	}

	sceneManager := game.NewSceneManager()
	sceneManager.SwitchTo(landing)

	if settings.GetSettings().Fullscreen {
		ebiten.SetFullscreen(true)
	}
	log.Printf("[App] Initialized (config=%s, muted=%v)", cfg.ConfigPath, settings.GetSettings().Muted)

	return &App{
		sched:        sched,
		sceneManager: sceneManager,
		settings:     settings,
		verbose:      cfg.Verbose,
		windowWidth:  cfg.Width,
		windowHeight: cfg.Height,
	}, nil
}

// openStorage 打开跨平台存储，失败时返回 nil（设置只保存在内存中）
func openStorage() *gdata.Manager {
	if err := utils.EnsureStorageDir(); err != nil {
		log.Printf("[App] Warning: storage dir unavailable: %v", err)
	}
	m, err := gdata.Open(gdata.Config{AppName: appName})
	if err != nil {
		log.Printf("[App] Warning: gdata unavailable: %v", err)
		return nil
	}
	return m
}

// WindowSize 窗口初始尺寸
func (a *App) WindowSize() (int, int) {
	return a.windowWidth, a.windowHeight
}

// Update 更新页面逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(a.windowWidth, a.windowHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		a.toggleFullscreen()
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sched.Advance(deltaTime)
	a.sceneManager.Update(deltaTime)
	return nil
}

func (a *App) toggleFullscreen() {
	fullscreen := !ebiten.IsFullscreen()
	ebiten.SetFullscreen(fullscreen)
	if !fullscreen {
		if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
			ebiten.RestoreWindow()
		}
		a.pendingWindowSizeReset = true
		a.windowSizeResetCountdown = 3
	}

	a.settings.SetFullscreen(fullscreen)
	if err := a.settings.Save(); err != nil {
		log.Printf("[App] Warning: failed to save settings: %v", err)
	}
	log.Printf("[App] Fullscreen = %v", fullscreen)
}

// Draw 绘制页面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 逻辑尺寸与窗口尺寸一致，尺寸变化转发给当前场景
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	a.sceneManager.Resize(outsideWidth, outsideHeight)
	return outsideWidth, outsideHeight
}

// Shutdown 卸载当前场景（程序退出时调用）
func (a *App) Shutdown() {
	a.sceneManager.Shutdown()
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
