// Package main 是 Rolet 首屏滚动页面的桌面端入口
//
// Usage:
//
//	go run . [flags]
//
// Flags:
//
//	--verbose        Enable verbose logging
//	--width <px>     Initial window width (default: 1280)
//	--height <px>    Initial window height (default: 800)
//	--muted          Start with background music muted
//	--config <path>  Page config (default: data/hero.yaml)
//
// Controls:
//
//	Wheel / Arrows / PageUp / PageDown / Space / Drag - Scroll
//	Home / End - Jump to top / bottom
//	M   - Toggle music
//	F11 - Toggle fullscreen
package main

import (
	"flag"
	"log"

	"github.com/decker502/rolet/pkg/app"
	"github.com/decker502/rolet/pkg/embedded"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verboseFlag = flag.Bool("verbose", false, "Enable verbose logging")
	widthFlag   = flag.Int("width", app.DefaultWindowWidth, "Initial window width")
	heightFlag  = flag.Int("height", app.DefaultWindowHeight, "Initial window height")
	mutedFlag   = flag.Bool("muted", false, "Start with background music muted")
	configFlag  = flag.String("config", app.DefaultConfigPath, "Page config path")
)

func main() {
	flag.Parse()

	// assetsFS 和 dataFS 在 embed.go 中声明
	embedded.Init(assetsFS, dataFS)

	pageApp, err := app.NewApp(app.Config{
		Verbose:    *verboseFlag,
		Width:      *widthFlag,
		Height:     *heightFlag,
		Muted:      *mutedFlag,
		ConfigPath: *configFlag,
	})
	if err != nil {
		log.Fatalf("页面初始化失败: %v", err)
	}
	defer pageApp.Shutdown()

	w, h := pageApp.WindowSize()
	ebiten.SetWindowSize(w, h)
	ebiten.SetWindowTitle("Rolet")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(pageApp); err != nil {
		log.Fatal(err)
	}
}
