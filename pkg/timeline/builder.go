package timeline

import (
	"fmt"
	"math"
	"sort"

	"github.com/decker502/rolet/pkg/utils"
	"github.com/decker502/rolet/pkg/viewport"
)

// DefaultMobilePanFactor 移动端背景平移缩放系数
const DefaultMobilePanFactor = 0.35

// DefaultPanTarget 背景平移的目标
const DefaultPanTarget = "background"

// Metrics 就绪后测得的布局尺寸
type Metrics struct {
	// DisplayedImageHeight 背景图按容器铺满后的显示高度
	DisplayedImageHeight float64
	// ContainerHeight 固定区域高度
	ContainerHeight float64
}

// MaxMovePercent 背景可平移的距离（占图片显示高度的百分比），不小于 0
func (m Metrics) MaxMovePercent() float64 {
	if m.DisplayedImageHeight <= 0 || math.IsNaN(m.DisplayedImageHeight) || math.IsNaN(m.ContainerHeight) {
		return 0
	}
	move := (m.DisplayedImageHeight - m.ContainerHeight) / m.DisplayedImageHeight * 100
	if move < 0 {
		return 0
	}
	return move
}

// CoverMetrics 计算按 cover 方式铺满容器时的显示尺寸
//
// 参数:
//   - naturalW, naturalH: 图片原始尺寸
//   - containerW, containerH: 容器尺寸
//
// 返回:
//   - Metrics: 显示高度与容器高度；图片尺寸未知时显示高度取容器高度
func CoverMetrics(naturalW, naturalH, containerW, containerH float64) Metrics {
	if naturalW <= 0 || naturalH <= 0 {
		return Metrics{DisplayedImageHeight: containerH, ContainerHeight: containerH}
	}
	scale := math.Max(containerW/naturalW, containerH/naturalH)
	return Metrics{DisplayedImageHeight: naturalH * scale, ContainerHeight: containerH}
}

// BuilderOptions 构建选项
type BuilderOptions struct {
	// PanTarget 背景平移目标，空时使用 DefaultPanTarget
	PanTarget string
	// MobilePanFactor 移动端平移系数，<=0 时使用 DefaultMobilePanFactor
	MobilePanFactor float64
	// Rest 各目标的静止状态（未列出的属性取 RestValue）
	Rest map[string]VisualState
}

// Builder 时间轴构建器
type Builder struct {
	opts BuilderOptions
}

// NewBuilder 创建构建器
func NewBuilder(opts BuilderOptions) *Builder {
	if opts.PanTarget == "" {
		opts.PanTarget = DefaultPanTarget
	}
	if opts.MobilePanFactor <= 0 {
		opts.MobilePanFactor = DefaultMobilePanFactor
	}
	rest := make(map[string]VisualState, len(opts.Rest))
	for k, v := range opts.Rest {
		rest[k] = v.Clone()
	}
	opts.Rest = rest
	return &Builder{opts: opts}
}

// Build 为指定视口类别构建时间轴
//
// 步骤：
//  1. 按 Viewports 过滤
//  2. 按声明顺序解析锚点，游标记录已见的最大结束时刻
//  3. 最后追加背景平移片段（At(0)，时长 = 总时长）
//  4. 按 (开始时刻, 声明序号) 顺序解析省略的起止值
//
// 相同输入总是得到相同的开始/结束时刻与总时长。
func (b *Builder) Build(segments []Segment, class viewport.Class, metrics Metrics) (*Timeline, error) {
	resolved := make([]*ResolvedSegment, 0, len(segments)+1)

	cursor := 0.0
	prevStart := 0.0
	for i, seg := range segments {
		if !seg.AppliesTo(class) {
			continue
		}
		if err := seg.Validate(); err != nil {
			return nil, fmt.Errorf("segment %d: %w", i, err)
		}

		var start float64
		switch seg.Anchor.Kind {
		case AfterPrevious:
			start = cursor + seg.Anchor.Offset
		case WithPrevious:
			start = prevStart + seg.Anchor.Offset
		case AtAbsolute:
			start = seg.Anchor.Offset
		}
		if start < 0 {
			start = 0
		}
		end := start + seg.Duration
		if end > cursor {
			cursor = end
		}
		prevStart = start

		resolved = append(resolved, newResolved(len(resolved), seg, start))
	}

	total := cursor

	pan := b.panDisplacement(class, metrics)
	panSeg := Segment{
		Target:   b.opts.PanTarget,
		From:     VisualState{YPercent: 0},
		To:       VisualState{YPercent: -pan},
		Duration: total,
		Easing:   "none",
		Anchor:   At(0),
	}
	panResolved := newResolved(len(resolved), panSeg, 0)
	panResolved.Pan = true
	resolved = append(resolved, panResolved)

	b.resolveValues(resolved)

	return newTimeline(class, total, pan, resolved, b.opts.Rest), nil
}

// UnscaledPanDisplacement 不含移动端系数的平移距离
func (b *Builder) UnscaledPanDisplacement(metrics Metrics) float64 {
	return metrics.MaxMovePercent()
}

func (b *Builder) panDisplacement(class viewport.Class, metrics Metrics) float64 {
	move := metrics.MaxMovePercent()
	if class == viewport.Mobile {
		move *= b.opts.MobilePanFactor
	}
	return move
}

func newResolved(index int, seg Segment, start float64) *ResolvedSegment {
	ease, _ := utils.Easing(seg.Easing)
	return &ResolvedSegment{
		Index:    index,
		Target:   seg.Target,
		Start:    start,
		End:      start + seg.Duration,
		Duration: seg.Duration,
		Easing:   seg.Easing,
		ease:     ease,
		source:   seg,
	}
}

// resolveValues 按开始时刻解析每个属性的轨迹
func (b *Builder) resolveValues(resolved []*ResolvedSegment) {
	order := make([]*ResolvedSegment, len(resolved))
	copy(order, resolved)
	sort.SliceStable(order, func(i, j int) bool {
		if order[i].Start != order[j].Start {
			return order[i].Start < order[j].Start
		}
		return order[i].Index < order[j].Index
	})

	current := make(map[string]VisualState)
	currentOf := func(target string, p Property) float64 {
		if vs, ok := current[target]; ok && vs.Has(p) {
			return vs[p]
		}
		return restOf(b.opts.Rest, target, p)
	}

	for _, r := range order {
		seg := r.source
		r.Tracks = make(map[Property][]float64)
		r.From = make(VisualState)
		r.To = make(VisualState)
		r.ExplicitFrom = seg.From.Clone()

		for _, p := range seg.Properties() {
			start := currentOf(r.Target, p)
			if seg.From.Has(p) {
				start = seg.From[p]
			}

			var track []float64
			switch {
			case len(seg.Keyframes) > 0:
				track = append(track, start)
				v := start
				for _, kf := range seg.Keyframes {
					if kf.Has(p) {
						v = kf[p]
					}
					track = append(track, v)
				}
			case seg.To.Has(p):
				track = []float64{start, seg.To[p]}
			case seg.By.Has(p):
				track = []float64{start, start + seg.By[p]}
			default:
				// 只有 from：终点为当前值
				track = []float64{start, currentOf(r.Target, p)}
			}

			r.Tracks[p] = track
			r.From[p] = track[0]
			r.To[p] = track[len(track)-1]

			if current[r.Target] == nil {
				current[r.Target] = make(VisualState)
			}
			current[r.Target][p] = r.To[p]
		}
	}
}

func restOf(rest map[string]VisualState, target string, p Property) float64 {
	if vs, ok := rest[target]; ok && vs.Has(p) {
		return vs[p]
	}
	return RestValue(p)
}
