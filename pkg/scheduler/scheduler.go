// Package scheduler 提供单线程协作式事件循环
//
// 序列器的所有工作都运行在 Ebitengine 的 Update 协程上：
// 资源加载完成、防抖到期、音量渐变步进等"等待"都表示为挂起的回调，
// 由 App.Update 每帧调用 Advance(dt) 统一驱动，绝不阻塞。
//
// 唯一允许跨协程调用的方法是 Post（异步解码完成后回投主循环）。
package scheduler

import (
	"sync"
)

// Cancel 取消一个已注册的定时器或投递，可重复调用
type Cancel func()

// timer 单个定时器
type timer struct {
	id        uint64
	due       float64 // 到期时刻（秒，调度器时钟）
	interval  float64 // 周期（秒），0 表示一次性
	fn        func()
	cancelled bool
}

// Scheduler 协作式调度器
//
// 时钟单位为秒，由 Advance(dt) 推进，与 Scene.Update(deltaTime) 保持一致。
type Scheduler struct {
	mu     sync.Mutex
	posted []func()
	timers []*timer
	now    float64
	nextID uint64
}

// New 创建调度器
func New() *Scheduler {
	return &Scheduler{
		posted: make([]func(), 0, 8),
		timers: make([]*timer, 0, 8),
	}
}

// Now 返回调度器当前时钟（秒）
func (s *Scheduler) Now() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.now
}

// Post 投递一个回调，在下一次 Flush/Advance 时执行
// 可从任意协程调用
func (s *Scheduler) Post(fn func()) {
	if fn == nil {
		return
	}
	s.mu.Lock()
	s.posted = append(s.posted, fn)
	s.mu.Unlock()
}

// After 在 delay 秒后执行一次 fn
func (s *Scheduler) After(delay float64, fn func()) Cancel {
	return s.addTimer(delay, 0, fn)
}

// Every 每隔 interval 秒执行一次 fn，直到被取消
// interval 必须大于 0，否则按一次性定时器处理
func (s *Scheduler) Every(interval float64, fn func()) Cancel {
	if interval <= 0 {
		return s.addTimer(0, 0, fn)
	}
	return s.addTimer(interval, interval, fn)
}

func (s *Scheduler) addTimer(delay, interval float64, fn func()) Cancel {
	if delay < 0 {
		delay = 0
	}

	s.mu.Lock()
	s.nextID++
	t := &timer{
		id:       s.nextID,
		due:      s.now + delay,
		interval: interval,
		fn:       fn,
	}
	s.timers = append(s.timers, t)
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		t.cancelled = true
		s.mu.Unlock()
	}
}

// Flush 执行所有已投递的回调（包括执行过程中新投递的回调）
func (s *Scheduler) Flush() {
	for {
		s.mu.Lock()
		if len(s.posted) == 0 {
			s.mu.Unlock()
			return
		}
		batch := s.posted
		s.posted = make([]func(), 0, len(batch))
		s.mu.Unlock()

		for _, fn := range batch {
			fn()
		}
	}
}

// Advance 推进时钟 dt 秒
//
// 执行顺序：
//  1. 执行已投递回调
//  2. 推进时钟，按到期时间（相同则按注册顺序）依次触发定时器
//  3. 再次执行定时器回调中产生的投递
func (s *Scheduler) Advance(dt float64) {
	s.Flush()

	if dt < 0 {
		dt = 0
	}
	s.mu.Lock()
	s.now += dt
	s.mu.Unlock()

	for {
		t := s.nextDue()
		if t == nil {
			break
		}
		t.fn()
	}

	s.compact()
	s.Flush()
}

// nextDue 取出最早到期的定时器，周期定时器会被重新排期
func (s *Scheduler) nextDue() *timer {
	s.mu.Lock()
	defer s.mu.Unlock()

	var best *timer
	for _, t := range s.timers {
		if t.cancelled || t.due > s.now {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.id < best.id) {
			best = t
		}
	}
	if best == nil {
		return nil
	}

	if best.interval > 0 {
		best.due += best.interval
	} else {
		best.cancelled = true
	}
	return best
}

// compact 移除已取消的定时器
func (s *Scheduler) compact() {
	s.mu.Lock()
	defer s.mu.Unlock()

	alive := s.timers[:0]
	for _, t := range s.timers {
		if !t.cancelled {
			alive = append(alive, t)
		}
	}
	for i := len(alive); i < len(s.timers); i++ {
		s.timers[i] = nil
	}
	s.timers = alive
}

// PendingTimers 返回仍然有效的定时器数量（用于测试泄漏检查）
func (s *Scheduler) PendingTimers() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	count := 0
	for _, t := range s.timers {
		if !t.cancelled {
			count++
		}
	}
	return count
}
