package scroll

import (
	"fmt"
	"log"
	"math"

	"github.com/decker502/rolet/pkg/timeline"
)

// DefaultExtraDistance 固定区域之外额外的虚拟滚动距离
const DefaultExtraDistance = 4500

// DefaultScrub 进度平滑追赶时间（秒）
const DefaultScrub = 1.2

// snapEpsilon 平滑进度与目标进度之差小于该值时直接对齐
const snapEpsilon = 1e-4

// Options 绑定选项
type Options struct {
	// ExtraDistance 额外滚动距离，滚动总长 = 区域高度 + ExtraDistance
	ExtraDistance float64
	// Scrub 平滑追赶时间（秒），<=0 表示滚动即生效
	Scrub float64
}

// Binding 时间轴与滚动范围的绑定
type Binding struct {
	tl      *timeline.Timeline
	region  Region
	doc     Document
	applier timeline.Applier
	opts    Options
	length  float64

	progress float64
	target   float64

	release     func()
	unsubscribe func()
	torn        bool
}

// Attach 绑定时间轴
//
// 参数:
//   - tl: 时间轴
//   - region: 被固定的区域
//   - doc: 滚动文档，nil 返回 ErrNoScrollContainer
//   - applier: 视觉状态输出
//   - opts: 选项
//
// 返回:
//   - *Binding: 已生效的绑定，当前滚动位置对应的状态已经应用
//   - error: 无法绑定时返回错误，此时没有任何副作用
func Attach(tl *timeline.Timeline, region Region, doc Document, applier timeline.Applier, opts Options) (*Binding, error) {
	if doc == nil {
		return nil, ErrNoScrollContainer
	}
	if tl == nil || applier == nil {
		return nil, fmt.Errorf("attach %s: timeline and applier are required", region.ID)
	}
	if opts.ExtraDistance < 0 {
		opts.ExtraDistance = 0
	}

	length := region.Height + opts.ExtraDistance
	release, err := doc.ReserveRange(length)
	if err != nil {
		return nil, fmt.Errorf("attach %s: %w", region.ID, err)
	}

	b := &Binding{
		tl:      tl,
		region:  region,
		doc:     doc,
		applier: applier,
		opts:    opts,
		length:  length,
		release: release,
	}
	doc.Pin(region, region.Top, region.Top+length)
	b.unsubscribe = doc.Subscribe(b.onScroll)

	p := b.offsetProgress(doc.ScrollOffset())
	b.ApplyProgress(p)

	log.Printf("[ScrollBinding] 已绑定 %s: range=%.0f, duration=%.2fs, class=%s",
		region.ID, length, tl.TotalDuration(), tl.Class())
	return b, nil
}

// offsetProgress 滚动偏移 -> 夹紧后的进度
func (b *Binding) offsetProgress(offset float64) float64 {
	if b.length <= 0 {
		if offset >= b.region.Top {
			return 1
		}
		return 0
	}
	p := (offset - b.region.Top) / b.length
	return math.Max(0, math.Min(1, p))
}

func (b *Binding) onScroll(offset float64) {
	if b.torn {
		return
	}
	b.target = b.offsetProgress(offset)
	if b.opts.Scrub <= 0 {
		b.apply(b.target)
	}
}

// Update 推进平滑进度
func (b *Binding) Update(dt float64) {
	if b.torn || b.progress == b.target {
		return
	}
	if b.opts.Scrub <= 0 || dt <= 0 {
		if b.opts.Scrub <= 0 {
			b.apply(b.target)
		}
		return
	}

	// 时间常数取 scrub/3，scrub 秒后完成约 95%
	alpha := 1 - math.Exp(-dt*3/b.opts.Scrub)
	next := b.progress + (b.target-b.progress)*alpha
	if math.Abs(b.target-next) < snapEpsilon {
		next = b.target
	}
	b.apply(next)
}

// ApplyProgress 立即应用进度（同时作为平滑目标），重复应用结果相同
func (b *Binding) ApplyProgress(p float64) {
	if b.torn {
		return
	}
	if math.IsNaN(p) {
		p = 0
	}
	p = math.Max(0, math.Min(1, p))
	b.target = p
	b.apply(p)
}

func (b *Binding) apply(p float64) {
	b.progress = p
	states := b.tl.StateAtProgress(p)
	for _, target := range b.tl.Targets() {
		b.applier.Apply(target, states[target])
	}
}

// Progress 当前已应用的进度
func (b *Binding) Progress() float64 {
	return b.progress
}

// TargetProgress 滚动位置对应的目标进度
func (b *Binding) TargetProgress() float64 {
	return b.target
}

// Length 预留的滚动距离
func (b *Binding) Length() float64 {
	return b.length
}

// Timeline 绑定的时间轴
func (b *Binding) Timeline() *timeline.Timeline {
	return b.tl
}

// Active 是否尚未销毁
func (b *Binding) Active() bool {
	return !b.torn
}

// Teardown 释放预留距离、取消固定并恢复所有目标
// 可重复调用
func (b *Binding) Teardown() {
	if b.torn {
		return
	}
	b.torn = true

	if b.unsubscribe != nil {
		b.unsubscribe()
		b.unsubscribe = nil
	}
	if b.release != nil {
		b.release()
		b.release = nil
	}
	b.doc.Unpin(b.region)

	for _, target := range b.tl.Targets() {
		b.applier.Reset(target)
	}
	log.Printf("[ScrollBinding] 已解除绑定 %s", b.region.ID)
}
