package game

import (
	"github.com/hajimehoshi/ebiten/v2"
)

// Scene represents one page view.
// Each scene has its own update and rendering logic.
type Scene interface {
	// Update updates the scene logic based on the elapsed time.
	// deltaTime is the time elapsed since the last update in seconds.
	Update(deltaTime float64)

	// Draw renders the scene to the provided screen.
	Draw(screen *ebiten.Image)
}

// Resizable 可选接口：场景需要知道布局尺寸变化
type Resizable interface {
	// Resize 在布局尺寸变化时调用（逻辑像素）
	Resize(width, height int)
}

// Unmountable 可选接口：场景在被替换或程序退出时释放资源
//
// Unmount 必须同步地把所有动画恢复到静止状态并注销全部监听。
type Unmountable interface {
	Unmount()
}
