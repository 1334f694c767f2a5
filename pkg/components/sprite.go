package components

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
)

// SpriteComponent 存储元素的图像
// Image 为 nil 时（加载中或加载失败）用 Fill 绘制纯色占位块
type SpriteComponent struct {
	Image *ebiten.Image
	Fill  color.NRGBA
}
