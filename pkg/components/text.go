package components

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// TextComponent 文字元素（标题、卖点、行动号召）
type TextComponent struct {
	Lines    []string
	Face     *text.GoTextFace
	Color    color.NRGBA
	Subtext  []string
	SubFace  *text.GoTextFace
	SubColor color.NRGBA
}
