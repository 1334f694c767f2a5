// Package utils 提供通用工具函数
package utils

import (
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
)

// PollInteractions 收集本帧新发生的用户交互
// 触摸优先于鼠标；每个新按下的键单独产生一个 KeyDown
func PollInteractions(dst []Interaction) []Interaction {
	for _, id := range inpututil.AppendJustPressedTouchIDs(nil) {
		x, y := ebiten.TouchPosition(id)
		lastTouchX, lastTouchY = x, y
		dst = append(dst, Interaction{Kind: TouchStart, X: x, Y: y})
	}

	for _, btn := range []ebiten.MouseButton{ebiten.MouseButtonLeft, ebiten.MouseButtonRight, ebiten.MouseButtonMiddle} {
		if inpututil.IsMouseButtonJustPressed(btn) {
			x, y := ebiten.CursorPosition()
			dst = append(dst, Interaction{Kind: PointerDown, X: x, Y: y})
		}
	}

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		dst = append(dst, Interaction{Kind: KeyDown, Key: key})
	}
	return dst
}

// ScrollCommand 本帧的滚动输入
type ScrollCommand struct {
	// Delta 相对滚动距离（像素，向下为正）
	Delta float64
	// ToTop / ToBottom Home / End 键
	ToTop    bool
	ToBottom bool
}

// 保存最后一次触摸位置（触摸释放时 ebiten 已不再报告位置）
var lastTouchX, lastTouchY int

// ReadScrollCommand 读取滚轮、键盘与拖动产生的滚动
//
// 参数:
//   - lineHeight: 滚轮一格与方向键一次的距离
//   - pageHeight: PageUp / PageDown / 空格的距离
func ReadScrollCommand(lineHeight, pageHeight float64) ScrollCommand {
	var cmd ScrollCommand

	_, wy := ebiten.Wheel()
	cmd.Delta -= wy * lineHeight

	for _, key := range inpututil.AppendJustPressedKeys(nil) {
		switch key {
		case ebiten.KeyHome:
			cmd.ToTop = true
		case ebiten.KeyEnd:
			cmd.ToBottom = true
		default:
			shift := ebiten.IsKeyPressed(ebiten.KeyShift)
			cmd.Delta += scrollKeyDelta(key, shift, lineHeight, pageHeight)
		}
	}

	dm := GetDragManager()
	dm.Update()
	cmd.Delta -= float64(dm.FrameDeltaY())
	return cmd
}

// scrollKeyDelta 单个按键对应的滚动距离
func scrollKeyDelta(key ebiten.Key, shift bool, line, page float64) float64 {
	switch key {
	case ebiten.KeyArrowDown:
		return line
	case ebiten.KeyArrowUp:
		return -line
	case ebiten.KeyPageDown:
		return page
	case ebiten.KeyPageUp:
		return -page
	case ebiten.KeySpace:
		if shift {
			return -page
		}
		return page
	}
	return 0
}

// ============================================================================
// 拖动滚动 - 移动端用手指或鼠标拖动页面
// ============================================================================

// DragState 拖动状态
type DragState int

const (
	// DragStateNone 无拖动
	DragStateNone DragState = iota
	// DragStateDragging 拖动中
	DragStateDragging
)

// DragManager 跟踪单指（或鼠标左键）拖动
type DragManager struct {
	state   DragState
	touchID ebiten.TouchID
	isTouch bool
	lastY   int
	deltaY  int
}

var globalDragManager = &DragManager{touchID: -1}

// GetDragManager 获取全局拖动管理器
func GetDragManager() *DragManager {
	return globalDragManager
}

// Update 每帧调用一次
func (dm *DragManager) Update() {
	dm.deltaY = 0

	switch dm.state {
	case DragStateNone:
		if ids := inpututil.AppendJustPressedTouchIDs(nil); len(ids) > 0 {
			_, y := ebiten.TouchPosition(ids[0])
			dm.begin(y, ids[0], true)
			return
		}
		if inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft) {
			_, y := ebiten.CursorPosition()
			dm.begin(y, -1, false)
		}

	case DragStateDragging:
		if dm.isTouch {
			if inpututil.IsTouchJustReleased(dm.touchID) {
				dm.Reset()
				return
			}
			_, y := ebiten.TouchPosition(dm.touchID)
			dm.move(y)
			return
		}
		if !ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
			dm.Reset()
			return
		}
		_, y := ebiten.CursorPosition()
		dm.move(y)
	}
}

func (dm *DragManager) begin(y int, id ebiten.TouchID, touch bool) {
	dm.state = DragStateDragging
	dm.touchID = id
	dm.isTouch = touch
	dm.lastY = y
	dm.deltaY = 0
}

func (dm *DragManager) move(y int) {
	dm.deltaY = y - dm.lastY
	dm.lastY = y
}

// Reset 结束拖动
func (dm *DragManager) Reset() {
	dm.state = DragStateNone
	dm.touchID = -1
	dm.isTouch = false
	dm.deltaY = 0
}

// GetState 当前拖动状态
func (dm *DragManager) GetState() DragState {
	return dm.state
}

// FrameDeltaY 本帧纵向移动距离（向下为正）
func (dm *DragManager) FrameDeltaY() int {
	return dm.deltaY
}

// IsTouchDrag 是否为触摸拖动
func (dm *DragManager) IsTouchDrag() bool {
	return dm.isTouch
}
