package scheduler

import (
	"sync"
	"testing"
)

// TestPostRunsOnFlush 测试投递的回调在 Flush 时才执行
func TestPostRunsOnFlush(t *testing.T) {
	s := New()
	called := false
	s.Post(func() { called = true })

	if called {
		t.Fatal("Post 不应同步执行回调")
	}

	s.Flush()
	if !called {
		t.Error("Flush 后回调应已执行")
	}
}

// TestPostFromCallback 测试回调中再次投递的回调在同一次 Flush 中执行
func TestPostFromCallback(t *testing.T) {
	s := New()
	order := []int{}
	s.Post(func() {
		order = append(order, 1)
		s.Post(func() { order = append(order, 2) })
	})

	s.Flush()
	if len(order) != 2 || order[0] != 1 || order[1] != 2 {
		t.Errorf("执行顺序错误: %v", order)
	}
}

// TestPostConcurrent 测试多协程投递
func TestPostConcurrent(t *testing.T) {
	s := New()
	count := 0

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Post(func() { count++ })
		}()
	}
	wg.Wait()

	s.Flush()
	if count != 20 {
		t.Errorf("count = %d, 期望 20", count)
	}
}

// TestAfter 测试一次性定时器
func TestAfter(t *testing.T) {
	tests := []struct {
		name    string
		delay   float64
		steps   []float64
		expects bool
	}{
		{"未到期", 0.12, []float64{0.05, 0.05}, false},
		{"恰好到期", 0.12, []float64{0.06, 0.06}, true},
		{"单步跨越", 0.12, []float64{0.5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := New()
			fired := 0
			s.After(tt.delay, func() { fired++ })

			for _, dt := range tt.steps {
				s.Advance(dt)
			}

			if (fired == 1) != tt.expects {
				t.Errorf("fired = %d, 期望触发 %v", fired, tt.expects)
			}
			if fired > 1 {
				t.Errorf("一次性定时器触发了 %d 次", fired)
			}
		})
	}
}

// TestAfterCancel 测试取消定时器
func TestAfterCancel(t *testing.T) {
	s := New()
	fired := false
	cancel := s.After(0.1, func() { fired = true })

	cancel()
	cancel() // 重复取消不应出错
	s.Advance(1.0)

	if fired {
		t.Error("已取消的定时器不应触发")
	}
	if s.PendingTimers() != 0 {
		t.Errorf("PendingTimers = %d, 期望 0", s.PendingTimers())
	}
}

// TestEvery 测试周期定时器
func TestEvery(t *testing.T) {
	s := New()
	ticks := 0
	var cancel Cancel
	cancel = s.Every(0.1, func() {
		ticks++
		if ticks == 3 {
			cancel()
		}
	})

	for i := 0; i < 10; i++ {
		s.Advance(0.1)
	}

	if ticks != 3 {
		t.Errorf("ticks = %d, 期望 3", ticks)
	}
	if s.PendingTimers() != 0 {
		t.Errorf("取消后 PendingTimers = %d, 期望 0", s.PendingTimers())
	}
}

// TestEveryCatchUp 测试大步长推进时周期定时器补齐触发次数
func TestEveryCatchUp(t *testing.T) {
	s := New()
	ticks := 0
	s.Every(0.1, func() { ticks++ })

	s.Advance(0.35)
	if ticks != 3 {
		t.Errorf("ticks = %d, 期望 3", ticks)
	}
}

// TestTimerOrder 测试定时器按到期时间排序触发
func TestTimerOrder(t *testing.T) {
	s := New()
	order := []string{}
	s.After(0.3, func() { order = append(order, "c") })
	s.After(0.1, func() { order = append(order, "a") })
	s.After(0.2, func() { order = append(order, "b") })

	s.Advance(1.0)

	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "c" {
		t.Errorf("触发顺序错误: %v", order)
	}
}
