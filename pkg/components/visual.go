package components

import "github.com/decker502/rolet/pkg/timeline"

// VisualComponent 元素当前的视觉状态
//
// Rest 是静止状态，State 是时间轴最近一次写入的值；
// 渲染时 State 中缺失的属性回落到 Rest，再回落到默认静止值。
type VisualComponent struct {
	Rest  timeline.VisualState
	State timeline.VisualState
}

// Value 读取属性的当前值
func (v *VisualComponent) Value(p timeline.Property) float64 {
	if v.State.Has(p) {
		return v.State[p]
	}
	return v.Rest.Get(p)
}
