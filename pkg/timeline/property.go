// Package timeline 声明式动画片段与时间轴
//
// 片段列表是纯数据：Builder 按视口类别过滤、解析锚点、追加背景平移，
// 得到确定的 Timeline；Timeline.StateAt(t) 是 t 的纯函数，
// 因此前后拖动滚动条的结果与路径无关。
package timeline

import (
	"fmt"
	"math"
	"sort"
)

// Property 可动画的视觉属性
type Property string

const (
	Opacity  Property = "opacity"
	X        Property = "x"
	Y        Property = "y"
	Scale    Property = "scale"
	ScaleY   Property = "scaleY"
	Rotation Property = "rotation"
	XPercent Property = "xPercent"
	YPercent Property = "yPercent"
)

// Properties 全部属性（固定顺序）
var Properties = []Property{Opacity, X, Y, Scale, ScaleY, Rotation, XPercent, YPercent}

// Valid 是否为已知属性
func (p Property) Valid() bool {
	for _, q := range Properties {
		if p == q {
			return true
		}
	}
	return false
}

// RestValue 属性的默认静止值
// opacity / scale / scaleY 为 1，其余为 0
func RestValue(p Property) float64 {
	switch p {
	case Opacity, Scale, ScaleY:
		return 1
	default:
		return 0
	}
}

// VisualState 属性 -> 数值
type VisualState map[Property]float64

// Clone 复制，nil 返回 nil
func (s VisualState) Clone() VisualState {
	if s == nil {
		return nil
	}
	out := make(VisualState, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Get 读取属性，不存在时返回默认静止值
func (s VisualState) Get(p Property) float64 {
	if v, ok := s[p]; ok {
		return v
	}
	return RestValue(p)
}

// Has 是否显式包含属性
func (s VisualState) Has(p Property) bool {
	_, ok := s[p]
	return ok
}

// Keys 按 Properties 顺序返回包含的属性
func (s VisualState) Keys() []Property {
	keys := make([]Property, 0, len(s))
	for _, p := range Properties {
		if _, ok := s[p]; ok {
			keys = append(keys, p)
		}
	}
	return keys
}

// Equal 两个状态在 eps 误差内相等
func (s VisualState) Equal(other VisualState, eps float64) bool {
	if len(s) != len(other) {
		return false
	}
	for k, v := range s {
		w, ok := other[k]
		if !ok || math.Abs(v-w) > eps {
			return false
		}
	}
	return true
}

// validate 检查属性名与数值
func (s VisualState) validate() error {
	for k, v := range s {
		if !k.Valid() {
			return fmt.Errorf("unknown property %q", k)
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("property %q is not finite", k)
		}
	}
	return nil
}

// String 稳定的文本形式，便于日志与测试输出
func (s VisualState) String() string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, string(k))
	}
	sort.Strings(keys)

	out := "{"
	for i, k := range keys {
		if i > 0 {
			out += " "
		}
		out += fmt.Sprintf("%s:%g", k, s[Property(k)])
	}
	return out + "}"
}
