package timeline

import (
	"math"
	"sort"

	"github.com/decker502/rolet/pkg/utils"
	"github.com/decker502/rolet/pkg/viewport"
)

// Applier 把视觉状态写到目标上
type Applier interface {
	// Apply 应用目标的完整视觉状态
	Apply(target string, state VisualState)
	// Reset 恢复目标的静止状态
	Reset(target string)
}

// ResolvedSegment 解析后的片段
type ResolvedSegment struct {
	Index    int
	Target   string
	Start    float64
	End      float64
	Duration float64
	Easing   string
	// From / To 每个属性轨迹的起点与终点
	From VisualState
	To   VisualState
	// ExplicitFrom 声明中显式给出的起点（用于开始前立即渲染）
	ExplicitFrom VisualState
	// Tracks 每个属性依次经过的值，至少两个
	Tracks map[Property][]float64
	// Pan 是否为背景平移片段
	Pan bool

	ease   utils.EasingFunc
	source Segment
}

// Progress 片段在时刻 t 的缓动后进度
// t 在开始之前返回 0，结束之后返回 1
func (r *ResolvedSegment) Progress(t float64) float64 {
	if t < r.Start {
		return 0
	}
	if r.Duration <= 0 || t >= r.End {
		return 1
	}
	return r.ease((t - r.Start) / r.Duration)
}

// ValueAt 属性在片段内时刻 t 的取值
func (r *ResolvedSegment) ValueAt(p Property, t float64) float64 {
	return sampleTrack(r.Tracks[p], r.Progress(t))
}

// sampleTrack 在均分的轨迹上取值，e 超出 [0,1] 时沿首尾段外推
func sampleTrack(track []float64, e float64) float64 {
	switch len(track) {
	case 0:
		return 0
	case 1:
		return track[0]
	}
	if e == 1 {
		return track[len(track)-1]
	}

	pieces := float64(len(track) - 1)
	pos := e * pieces
	i := int(math.Floor(pos))
	if i < 0 {
		i = 0
	}
	if i > len(track)-2 {
		i = len(track) - 2
	}
	return utils.Lerp(track[i], track[i+1], pos-float64(i))
}

type trackKey struct {
	target string
	prop   Property
}

// Timeline 已解析的时间轴
type Timeline struct {
	class    viewport.Class
	total    float64
	pan      float64
	segments []*ResolvedSegment
	rest     map[string]VisualState
	targets  []string
	// tracks 每个 (目标, 属性) 上的片段，按 (Start, Index) 排序
	tracks map[trackKey][]*ResolvedSegment
}

func newTimeline(class viewport.Class, total, pan float64, segments []*ResolvedSegment, rest map[string]VisualState) *Timeline {
	tl := &Timeline{
		class:    class,
		total:    total,
		pan:      pan,
		segments: segments,
		rest:     rest,
		tracks:   make(map[trackKey][]*ResolvedSegment),
	}

	seen := make(map[string]bool)
	for _, r := range segments {
		if !seen[r.Target] {
			seen[r.Target] = true
			tl.targets = append(tl.targets, r.Target)
		}
		for p := range r.Tracks {
			k := trackKey{r.Target, p}
			tl.tracks[k] = append(tl.tracks[k], r)
		}
	}
	for t := range rest {
		if !seen[t] {
			seen[t] = true
			tl.targets = append(tl.targets, t)
		}
	}
	sort.Strings(tl.targets)

	for _, list := range tl.tracks {
		sort.SliceStable(list, func(i, j int) bool {
			if list[i].Start != list[j].Start {
				return list[i].Start < list[j].Start
			}
			return list[i].Index < list[j].Index
		})
	}
	return tl
}

// Class 构建时的视口类别
func (tl *Timeline) Class() viewport.Class { return tl.class }

// TotalDuration 总时长（秒）
func (tl *Timeline) TotalDuration() float64 { return tl.total }

// PanDisplacement 背景平移距离（百分比，已含移动端系数）
func (tl *Timeline) PanDisplacement() float64 { return tl.pan }

// Segments 按声明顺序返回解析后的片段（最后一个是背景平移）
func (tl *Timeline) Segments() []*ResolvedSegment { return tl.segments }

// PanSegment 背景平移片段
func (tl *Timeline) PanSegment() *ResolvedSegment {
	return tl.segments[len(tl.segments)-1]
}

// Targets 时间轴涉及的全部目标（排序后）
func (tl *Timeline) Targets() []string { return tl.targets }

// Rest 目标的静止状态（包含时间轴涉及的每个属性）
func (tl *Timeline) Rest(target string) VisualState {
	out := tl.rest[target].Clone()
	if out == nil {
		out = make(VisualState)
	}
	for k := range tl.tracks {
		if k.target == target && !out.Has(k.prop) {
			out[k.prop] = RestValue(k.prop)
		}
	}
	return out
}

// StateAt 时刻 t 的全部目标状态
//
// 每个属性取已开始的片段中开始最晚的一个；
// 尚无片段开始时，若第一个片段显式给出了起点则显示该起点，否则显示静止值。
// 结果只依赖 t，与之前的调用无关。
func (tl *Timeline) StateAt(t float64) map[string]VisualState {
	out := make(map[string]VisualState, len(tl.targets))
	for _, target := range tl.targets {
		out[target] = tl.Rest(target)
	}

	for k, list := range tl.tracks {
		out[k.target][k.prop] = valueAt(list, k.prop, t)
	}
	return out
}

// StateAtProgress 进度 p ∈ [0,1] 对应的状态
func (tl *Timeline) StateAtProgress(p float64) map[string]VisualState {
	return tl.StateAt(clamp01(p) * tl.total)
}

func valueAt(list []*ResolvedSegment, p Property, t float64) float64 {
	var active *ResolvedSegment
	for _, r := range list {
		if r.Start > t {
			break
		}
		active = r
	}
	if active != nil {
		return active.ValueAt(p, t)
	}

	// 第一个片段的起点即显式 from 或静止值
	return list[0].From[p]
}

func clamp01(p float64) float64 {
	if math.IsNaN(p) || p < 0 {
		return 0
	}
	if p > 1 {
		return 1
	}
	return p
}
