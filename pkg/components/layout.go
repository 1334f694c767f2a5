package components

import (
	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/viewport"
)

// LayoutComponent 元素摆放规则与当前视口下的布局结果
type LayoutComponent struct {
	Element config.ElementConfig

	// 以下由 StageSystem.Layout 计算，坐标相对父元素（或固定区域）左上角
	CenterX float64
	CenterY float64
	Width   float64
	Height  float64
}

// Placement 当前视口类别下的摆放
func (l *LayoutComponent) Placement(class viewport.Class) config.Placement {
	return l.Element.PlacementFor(class)
}
