// Package hero 组合首屏滚动动画的完整生命周期
//
// 就绪信号 → 按当前视口类别构建时间轴 → 绑定到滚动范围
// → 视口类别变化时先拆除旧绑定再重建 → 卸载时同步复位。
package hero

import (
	"log"

	"github.com/decker502/rolet/pkg/readiness"
	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/decker502/rolet/pkg/scroll"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
)

// Hooks 页面层提供的生命周期回调，均可为 nil
type Hooks struct {
	// OnBeforeActivate 首次构建之前调用（如关闭滚动位置恢复、滚回顶部）
	OnBeforeActivate func()
	// OnAfterFirstRefresh 第一次绑定完成后调用一次（如移除防闪烁遮罩）
	OnAfterFirstRefresh func()
	// OnBuild 每次构建出新时间轴后调用（如按新视口类别重新布局）
	OnBuild func(tl *timeline.Timeline)
}

// Options 组合选项
type Options struct {
	Segments    []timeline.Segment
	Builder     timeline.BuilderOptions
	Scroll      scroll.Options
	Breakpoints viewport.Breakpoints
	// SettleDelay 尺寸变化防抖时长（秒），<=0 时使用 viewport.DefaultSettleDelay
	SettleDelay float64
	Hooks       Hooks
}

// Sequencer 首屏动画编排器
//
// 所有方法只在调度器所在协程调用。
type Sequencer struct {
	sched   *scheduler.Scheduler
	doc     scroll.Document
	applier timeline.Applier
	builder *timeline.Builder
	opts    Options

	// measure 返回背景测量结果，region 返回固定区域，都在构建时调用
	measure func(class viewport.Class) timeline.Metrics
	region  func() scroll.Region

	resize  *viewport.ResizeCoordinator
	class   viewport.Class
	binding *scroll.Binding

	mounted   bool
	ready     bool
	refreshed bool
	building  bool
	pending   bool
	builds    int
}

// New 创建编排器
//
// 参数:
//   - sched: 调度器
//   - doc: 滚动文档
//   - applier: 视觉状态写入目标
//   - measure: 构建前调用，返回指定视口类别下的背景测量结果
//   - region: 构建前调用，返回固定区域
//   - opts: 片段与参数
func New(sched *scheduler.Scheduler, doc scroll.Document, applier timeline.Applier,
	measure func(class viewport.Class) timeline.Metrics, region func() scroll.Region, opts Options) *Sequencer {
	if opts.Breakpoints == (viewport.Breakpoints{}) {
		opts.Breakpoints = viewport.DefaultBreakpoints
	}
	if opts.SettleDelay <= 0 {
		opts.SettleDelay = viewport.DefaultSettleDelay
	}
	return &Sequencer{
		sched:   sched,
		doc:     doc,
		applier: applier,
		builder: timeline.NewBuilder(opts.Builder),
		opts:    opts,
		measure: measure,
		region:  region,
	}
}

// Mount 挂载：记录初始视口类别，等待就绪信号后构建
// ready 为 nil 或永不就绪时页面保持静态
func (s *Sequencer) Mount(ready *readiness.Signal, width float64) {
	if s.mounted {
		return
	}
	s.mounted = true
	s.class = s.opts.Breakpoints.Classify(width)
	s.resize = viewport.NewResizeCoordinator(s.sched, s.opts.SettleDelay, s.opts.Breakpoints, s.class, s.onClassChange)

	log.Printf("[HeroSequencer] Mounted (class=%s)", s.class)

	if ready == nil {
		log.Printf("[HeroSequencer] Warning: no readiness signal, page stays static")
		return
	}
	ready.OnReady(s.activate)
}

// NotifyResize 转发原始视口宽度变化
func (s *Sequencer) NotifyResize(width float64) {
	if !s.mounted {
		return
	}
	s.resize.Notify(width)
}

func (s *Sequencer) activate() {
	if !s.mounted || s.ready {
		return
	}
	s.ready = true

	if s.opts.Hooks.OnBeforeActivate != nil {
		s.opts.Hooks.OnBeforeActivate()
	}

	s.rebuild()

	if !s.refreshed {
		s.refreshed = true
		if s.opts.Hooks.OnAfterFirstRefresh != nil {
			s.opts.Hooks.OnAfterFirstRefresh()
		}
	}
}

func (s *Sequencer) onClassChange(class viewport.Class) {
	if !s.mounted {
		return
	}
	log.Printf("[HeroSequencer] Viewport class changed: %s -> %s", s.class, class)
	s.class = class
	if s.ready {
		s.rebuild()
	}
}

// rebuild 拆除旧绑定后重新构建并绑定
// 回调中再次触发的重建排到本次之后执行，任何时刻最多只有一个绑定
func (s *Sequencer) rebuild() {
	if s.building {
		s.pending = true
		return
	}
	s.building = true
	defer func() { s.building = false }()

	for {
		s.pending = false
		s.rebuildOnce()
		if !s.pending {
			return
		}
	}
}

// rebuildOnce 失败时页面停留在静止状态，不向上报告
func (s *Sequencer) rebuildOnce() {
	// 旧绑定释放预留距离时文档会夹紧偏移，重新绑定后恢复
	offset := s.doc.ScrollOffset()
	s.detach()

	metrics := timeline.Metrics{}
	if s.measure != nil {
		metrics = s.measure(s.class)
	}
	tl, err := s.builder.Build(s.opts.Segments, s.class, metrics)
	if err != nil {
		log.Printf("[HeroSequencer] Warning: failed to build timeline: %v", err)
		return
	}
	s.builds++

	if s.opts.Hooks.OnBuild != nil {
		s.opts.Hooks.OnBuild(tl)
	}
	if s.pending || !s.mounted {
		return
	}

	b, err := scroll.Attach(tl, s.region(), s.doc, s.applier, s.opts.Scroll)
	if err != nil {
		log.Printf("[HeroSequencer] Warning: failed to attach scroll binding: %v", err)
		return
	}
	s.binding = b
	if offset != s.doc.ScrollOffset() {
		s.doc.ScrollTo(offset)
		b.ApplyProgress(b.TargetProgress())
	}

	log.Printf("[HeroSequencer] Timeline built (class=%s, duration=%.2fs, pan=%.1f%%)",
		s.class, tl.TotalDuration(), tl.PanDisplacement())
}

func (s *Sequencer) detach() {
	if s.binding != nil {
		s.binding.Teardown()
		s.binding = nil
	}
}

// Update 推进滚动平滑
func (s *Sequencer) Update(dt float64) {
	if s.binding != nil {
		s.binding.Update(dt)
	}
}

// Binding 当前滚动绑定，未激活时为 nil
func (s *Sequencer) Binding() *scroll.Binding {
	return s.binding
}

// Class 当前视口类别
func (s *Sequencer) Class() viewport.Class {
	return s.class
}

// Ready 是否已收到就绪信号
func (s *Sequencer) Ready() bool {
	return s.ready
}

// Builds 已完成的构建次数
func (s *Sequencer) Builds() int {
	return s.builds
}

// Unmount 卸载：取消防抖定时器，拆除绑定并复位所有元素
// 幂等；卸载后迟到的就绪信号与尺寸变化都被忽略
func (s *Sequencer) Unmount() {
	if !s.mounted {
		return
	}
	s.mounted = false
	if s.resize != nil {
		s.resize.Teardown()
	}
	s.detach()
	log.Printf("[HeroSequencer] Unmounted")
}
