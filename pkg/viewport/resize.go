package viewport

import (
	"log"

	"github.com/decker502/rolet/pkg/scheduler"
)

// DefaultSettleDelay 默认防抖静默时间（秒）
const DefaultSettleDelay = 0.12

// ResizeCoordinator 尺寸变化协调器
//
// 收到原始宽度通知后等待 delay 秒的静默期，静默结束时重新分类；
// 只有类别与上一次发出的类别不同才回调 onChange。
type ResizeCoordinator struct {
	sched    *scheduler.Scheduler
	delay    float64
	bp       Breakpoints
	last     Class
	width    float64
	pending  scheduler.Cancel
	onChange func(Class)
	closed   bool
}

// NewResizeCoordinator 创建协调器
//
// 参数:
//   - sched: 调度器
//   - delay: 静默时间（秒），<=0 时使用 DefaultSettleDelay
//   - bp: 断点
//   - initial: 初始类别（挂载时的分类结果）
//   - onChange: 类别变化回调
func NewResizeCoordinator(sched *scheduler.Scheduler, delay float64, bp Breakpoints, initial Class, onChange func(Class)) *ResizeCoordinator {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &ResizeCoordinator{
		sched:    sched,
		delay:    delay,
		bp:       bp,
		last:     initial,
		onChange: onChange,
	}
}

// Notify 接收一次原始尺寸变化
func (r *ResizeCoordinator) Notify(width float64) {
	if r.closed {
		return
	}
	r.width = width
	if r.pending != nil {
		r.pending()
	}
	r.pending = r.sched.After(r.delay, r.settle)
}

func (r *ResizeCoordinator) settle() {
	r.pending = nil
	if r.closed {
		return
	}

	class := r.bp.Classify(r.width)
	if class == r.last {
		return
	}

	log.Printf("[ResizeCoordinator] 视口类别变化: %s -> %s (width=%.0f)", r.last, class, r.width)
	r.last = class
	if r.onChange != nil {
		r.onChange(class)
	}
}

// Current 返回最近一次发出的类别
func (r *ResizeCoordinator) Current() Class {
	return r.last
}

// Pending 是否有未到期的防抖定时器
func (r *ResizeCoordinator) Pending() bool {
	return r.pending != nil
}

// Teardown 清除挂起的防抖定时器，之后的通知全部忽略
func (r *ResizeCoordinator) Teardown() {
	if r.pending != nil {
		r.pending()
		r.pending = nil
	}
	r.closed = true
}
