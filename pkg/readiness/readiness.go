// Package readiness 资源就绪信号
//
// 就绪信号只会从 false 变为 true 一次；加载失败同样视为就绪，
// 目的只是避免在尚未测量的布局上启动动画。
package readiness

import (
	"log"

	"github.com/decker502/rolet/pkg/scheduler"
)

// Event 资源通知类型
type Event int

const (
	// EventLoad 加载完成
	EventLoad Event = iota
	// EventError 加载失败
	EventError
	// EventDestroy 资源句柄被销毁
	EventDestroy
)

func (e Event) String() string {
	switch e {
	case EventLoad:
		return "load"
	case EventError:
		return "error"
	case EventDestroy:
		return "destroy"
	}
	return "unknown"
}

// Resource 可观察的资源句柄
type Resource interface {
	// Loaded 是否已经处于可用状态（可同步查询）
	Loaded() bool
	// Subscribe 订阅通知，返回取消订阅函数
	Subscribe(fn func(Event)) (unsubscribe func())
}

// Signal 一次性就绪信号
type Signal struct {
	sched     *scheduler.Scheduler
	ready     bool
	abandoned bool
	waiters   []func()
}

// NewSignal 创建未就绪的信号
func NewSignal(sched *scheduler.Scheduler) *Signal {
	return &Signal{sched: sched}
}

// Ready 是否已就绪
func (s *Signal) Ready() bool {
	return s.ready
}

// OnReady 注册就绪回调
// 已经就绪时回调被投递到调度器，仍然异步执行
func (s *Signal) OnReady(fn func()) {
	if fn == nil || s.abandoned {
		return
	}
	if s.ready {
		s.sched.Post(fn)
		return
	}
	s.waiters = append(s.waiters, fn)
}

// resolve 第一次调用生效，之后全部忽略
func (s *Signal) resolve() {
	if s.ready || s.abandoned {
		return
	}
	s.ready = true
	waiters := s.waiters
	s.waiters = nil
	for _, fn := range waiters {
		s.sched.Post(fn)
	}
}

// abandon 放弃信号：不再就绪，丢弃所有等待者
func (s *Signal) abandon() {
	if s.ready {
		return
	}
	s.abandoned = true
	s.waiters = nil
}

// Gate 单个资源的就绪观察者
type Gate struct {
	signal      *Signal
	unsubscribe func()
}

// Observe 观察资源并返回就绪信号
//
// 参数:
//   - res: 资源句柄，nil 视为永不就绪
//   - sched: 调度器
//
// 返回:
//   - *Signal: 就绪信号；已加载的资源也在下一次 Flush 时才通知
func Observe(res Resource, sched *scheduler.Scheduler) *Signal {
	return ObserveGate(res, sched).Signal()
}

// ObserveGate 与 Observe 相同，但返回可提前关闭的 Gate
func ObserveGate(res Resource, sched *scheduler.Scheduler) *Gate {
	g := &Gate{signal: NewSignal(sched)}
	if res == nil {
		return g
	}

	if res.Loaded() {
		sched.Post(g.signal.resolve)
		return g
	}

	g.unsubscribe = res.Subscribe(func(ev Event) {
		switch ev {
		case EventLoad, EventError:
			if ev == EventError {
				log.Printf("[ReadinessGate] Warning: 资源加载失败，按就绪处理")
			}
			g.Close()
			g.signal.resolve()
		case EventDestroy:
			g.Close()
			g.signal.abandon()
		}
	})
	return g
}

// Signal 返回就绪信号
func (g *Gate) Signal() *Signal {
	return g.signal
}

// Close 取消对资源的订阅，可重复调用
func (g *Gate) Close() {
	if g.unsubscribe != nil {
		unsub := g.unsubscribe
		g.unsubscribe = nil
		unsub()
	}
}

// All 组合多个信号，全部就绪后才就绪
// 没有输入时下一次 Flush 即就绪
func All(sched *scheduler.Scheduler, signals ...*Signal) *Signal {
	out := NewSignal(sched)
	remaining := len(signals)
	if remaining == 0 {
		sched.Post(out.resolve)
		return out
	}
	for _, s := range signals {
		s.OnReady(func() {
			remaining--
			if remaining == 0 {
				out.resolve()
			}
		})
	}
	return out
}
