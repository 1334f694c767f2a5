package timeline

import (
	"errors"
	"fmt"
	"math"

	"github.com/decker502/rolet/pkg/utils"
	"github.com/decker502/rolet/pkg/viewport"
)

// ErrInvalidSegment 片段定义非法
var ErrInvalidSegment = errors.New("invalid segment")

// AnchorKind 锚点类型
type AnchorKind int

const (
	// AfterPrevious 在当前时间轴末尾（已解析片段的最大结束时刻）之后 Offset 秒开始
	AfterPrevious AnchorKind = iota
	// WithPrevious 在上一个片段开始时刻之后 Offset 秒开始
	WithPrevious
	// AtAbsolute 在绝对时刻 Offset 开始
	AtAbsolute
)

func (k AnchorKind) String() string {
	switch k {
	case AfterPrevious:
		return "after"
	case WithPrevious:
		return "with"
	case AtAbsolute:
		return "at"
	}
	return fmt.Sprintf("AnchorKind(%d)", int(k))
}

// Anchor 片段的放置规则
type Anchor struct {
	Kind   AnchorKind
	Offset float64
}

// After 紧接时间轴末尾，gap 可为负（与前面重叠）
func After(gap float64) Anchor { return Anchor{Kind: AfterPrevious, Offset: gap} }

// With 与上一个片段同时开始，偏移 gap
func With(gap float64) Anchor { return Anchor{Kind: WithPrevious, Offset: gap} }

// At 绝对时刻
func At(t float64) Anchor { return Anchor{Kind: AtAbsolute, Offset: t} }

// Segment 一个动画片段
//
// From / To 可以省略：省略的一端取构建时该属性的"当前值"
// （同一目标上前一个片段的结束值，或静止值）。
// By 表示相对增量（终点 = 起点 + By）。
// Keyframes 非空时，片段依次经过每个关键帧，关键帧均分时长。
type Segment struct {
	Target    string
	From      VisualState
	To        VisualState
	By        VisualState
	Keyframes []VisualState
	Duration  float64
	Easing    string
	Anchor    Anchor
	// Viewports 限定生效的视口类别，空表示全部
	Viewports []viewport.Class
}

// AppliesTo 片段是否在该视口类别下生效
func (s Segment) AppliesTo(class viewport.Class) bool {
	if len(s.Viewports) == 0 {
		return true
	}
	for _, c := range s.Viewports {
		if c == class {
			return true
		}
	}
	return false
}

// Properties 片段涉及的全部属性（按 Properties 顺序）
func (s Segment) Properties() []Property {
	seen := make(map[Property]bool)
	mark := func(vs VisualState) {
		for k := range vs {
			seen[k] = true
		}
	}
	mark(s.From)
	mark(s.To)
	mark(s.By)
	for _, kf := range s.Keyframes {
		mark(kf)
	}

	out := make([]Property, 0, len(seen))
	for _, p := range Properties {
		if seen[p] {
			out = append(out, p)
		}
	}
	return out
}

// Validate 检查片段定义
func (s Segment) Validate() error {
	if s.Target == "" {
		return fmt.Errorf("%w: empty target", ErrInvalidSegment)
	}
	if math.IsNaN(s.Duration) || math.IsInf(s.Duration, 0) || s.Duration < 0 {
		return fmt.Errorf("%w: %s: duration %v", ErrInvalidSegment, s.Target, s.Duration)
	}
	if math.IsNaN(s.Anchor.Offset) || math.IsInf(s.Anchor.Offset, 0) {
		return fmt.Errorf("%w: %s: anchor offset is not finite", ErrInvalidSegment, s.Target)
	}
	if s.Anchor.Kind < AfterPrevious || s.Anchor.Kind > AtAbsolute {
		return fmt.Errorf("%w: %s: unknown anchor kind %d", ErrInvalidSegment, s.Target, s.Anchor.Kind)
	}

	states := append([]VisualState{s.From, s.To, s.By}, s.Keyframes...)
	for _, vs := range states {
		if err := vs.validate(); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidSegment, s.Target, err)
		}
	}
	for i, kf := range s.Keyframes {
		if len(kf) == 0 {
			return fmt.Errorf("%w: %s: keyframe %d is empty", ErrInvalidSegment, s.Target, i)
		}
	}
	if len(s.Keyframes) > 0 && (len(s.To) > 0 || len(s.By) > 0) {
		return fmt.Errorf("%w: %s: keyframes cannot be combined with to/by", ErrInvalidSegment, s.Target)
	}
	for p := range s.By {
		if s.To.Has(p) {
			return fmt.Errorf("%w: %s: %s set in both to and by", ErrInvalidSegment, s.Target, p)
		}
	}
	if len(s.Properties()) == 0 {
		return fmt.Errorf("%w: %s: no properties", ErrInvalidSegment, s.Target)
	}
	if _, err := utils.Easing(s.Easing); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidSegment, s.Target, err)
	}
	return nil
}
