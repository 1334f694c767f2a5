// Package bgm 背景音乐自动播放控制
//
// 浏览器（以及 Ebitengine 的音频上下文）在用户交互之前可能拒绝播放，
// 控制器先静音尝试播放，被拒绝后等待第一次用户交互重试，
// 播放成功且用户未静音时逐步提升音量。
package bgm

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/decker502/rolet/pkg/utils"
)

// ErrAutoplayBlocked 平台策略拒绝播放
var ErrAutoplayBlocked = errors.New("autoplay blocked")

// ErrMediaUnavailable 音频资源不可用（加载失败），重试也不会成功
var ErrMediaUnavailable = errors.New("media unavailable")

// State 控制器状态
type State int

const (
	Idle State = iota
	AttemptingMuted
	PlayingMuted
	PlayingAudible
	Blocked
)

func (s State) String() string {
	switch s {
	case Idle:
		return "Idle"
	case AttemptingMuted:
		return "AttemptingMuted"
	case PlayingMuted:
		return "PlayingMuted"
	case PlayingAudible:
		return "PlayingAudible"
	case Blocked:
		return "Blocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Media 音频资源
type Media interface {
	SetMuted(muted bool)
	Muted() bool
	SetVolume(v float64)
	Volume() float64
	Paused() bool
	// Play 请求播放，结果通过 done 回调（可在任意协程、可同步调用）
	Play(done func(err error))
}

// InteractionSource 全页面的用户交互通知
type InteractionSource interface {
	Subscribe(fn func(utils.Interaction)) (unsubscribe func())
}

// Options 控制器选项
type Options struct {
	// TargetVolume 渐变目标音量
	TargetVolume float64
	// RampSteps 渐变步数
	RampSteps int
	// RampInterval 每步间隔（秒）
	RampInterval float64
	// StartMuted 用户偏好：启动时即静音
	StartMuted bool
}

// DefaultOptions 默认选项：0.3 音量，10 步，每步 0.1 秒
var DefaultOptions = Options{TargetVolume: 0.3, RampSteps: 10, RampInterval: 0.1}

// Controller 自动播放状态机
//
// 所有方法只在调度器所在协程调用；Media.Play 的结果会被投递回调度器。
type Controller struct {
	sched        *scheduler.Scheduler
	media        Media
	interactions InteractionSource
	opts         Options

	state     State
	userMuted bool
	started   bool
	torn      bool

	attempt  int
	inFlight bool

	unlisten   func()
	cancelRamp scheduler.Cancel
	rampStep   int

	listeners []func(State)
}

// NewController 创建控制器
func NewController(sched *scheduler.Scheduler, media Media, interactions InteractionSource, opts Options) *Controller {
	if opts.TargetVolume <= 0 || opts.TargetVolume > 1 {
		opts.TargetVolume = DefaultOptions.TargetVolume
	}
	if opts.RampSteps <= 0 {
		opts.RampSteps = DefaultOptions.RampSteps
	}
	if opts.RampInterval <= 0 {
		opts.RampInterval = DefaultOptions.RampInterval
	}
	return &Controller{
		sched:        sched,
		media:        media,
		interactions: interactions,
		opts:         opts,
		userMuted:    opts.StartMuted,
	}
}

// State 当前状态
func (c *Controller) State() State {
	return c.state
}

// UserMuted 用户是否要求静音
func (c *Controller) UserMuted() bool {
	return c.userMuted
}

// OnStateChange 注册状态变化回调
func (c *Controller) OnStateChange(fn func(State)) {
	if fn != nil {
		c.listeners = append(c.listeners, fn)
	}
}

func (c *Controller) setState(s State) {
	if c.state == s {
		return
	}
	log.Printf("[BGM] %s -> %s", c.state, s)
	c.state = s
	for _, fn := range c.listeners {
		fn(s)
	}
}

// Start 就绪后开始静音尝试播放，只生效一次
func (c *Controller) Start() {
	if c.torn || c.started {
		return
	}
	c.started = true
	if c.media == nil {
		log.Printf("[BGM] Warning: 没有音频资源，保持静默")
		return
	}

	c.media.SetMuted(true)
	c.media.SetVolume(0)
	c.setState(AttemptingMuted)
	c.attemptPlay()
}

// attemptPlay 发起一次播放请求，同一时间最多一个
func (c *Controller) attemptPlay() {
	if c.inFlight || c.torn {
		return
	}
	c.inFlight = true
	c.attempt++
	id := c.attempt

	done := func(err error) {
		c.sched.Post(func() { c.onPlayResult(id, err) })
	}
	if err := safePlay(c.media, done); err != nil {
		done(err)
	}
}

// safePlay 调用 Media.Play，把 panic 转成错误
func safePlay(m Media, done func(error)) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("play panicked: %v", r)
		}
	}()
	m.Play(done)
	return nil
}

func (c *Controller) onPlayResult(id int, err error) {
	if id != c.attempt {
		return
	}
	c.inFlight = false
	if c.torn {
		return
	}

	if errors.Is(err, ErrMediaUnavailable) {
		log.Printf("[BGM] 音频不可用，保持无声: %v", err)
		c.unlistenAll()
		c.setState(Blocked)
		return
	}
	if err != nil {
		log.Printf("[BGM] 播放被拒绝，等待用户交互: %v", err)
		c.setState(Blocked)
		c.listen()
		return
	}

	c.unlistenAll()
	c.setState(PlayingMuted)
	if !c.userMuted {
		c.startRamp()
	}
}

// listen 订阅用户交互（已订阅时不重复订阅）
func (c *Controller) listen() {
	if c.unlisten != nil || c.interactions == nil {
		return
	}
	c.unlisten = c.interactions.Subscribe(func(utils.Interaction) {
		c.onInteraction()
	})
}

func (c *Controller) unlistenAll() {
	if c.unlisten != nil {
		c.unlisten()
		c.unlisten = nil
	}
}

// Listening 是否仍在等待用户交互
func (c *Controller) Listening() bool {
	return c.unlisten != nil
}

func (c *Controller) onInteraction() {
	if c.torn || c.state != Blocked {
		return
	}
	c.media.SetMuted(true)
	c.attemptPlay()
}

// startRamp 从 0 逐步提升到目标音量，第一步后进入 PlayingAudible
func (c *Controller) startRamp() {
	c.stopRamp()
	c.rampStep = 0
	c.media.SetVolume(0)

	c.cancelRamp = c.sched.Every(c.opts.RampInterval, func() {
		if c.torn || c.userMuted {
			c.stopRamp()
			return
		}
		c.rampStep++
		if c.rampStep == 1 {
			c.media.SetMuted(false)
			c.setState(PlayingAudible)
		}
		c.media.SetVolume(c.opts.TargetVolume * float64(c.rampStep) / float64(c.opts.RampSteps))
		if c.rampStep >= c.opts.RampSteps {
			c.stopRamp()
		}
	})
}

func (c *Controller) stopRamp() {
	if c.cancelRamp != nil {
		c.cancelRamp()
		c.cancelRamp = nil
	}
}

// Ramping 音量是否正在渐变
func (c *Controller) Ramping() bool {
	return c.cancelRamp != nil
}

// ToggleMute 切换用户静音，返回切换后的静音状态
func (c *Controller) ToggleMute() bool {
	c.SetMuted(!c.userMuted)
	return c.userMuted
}

// SetMuted 设置用户静音
//
// 静音立即生效；取消静音时重新进入渐变，未在播放时重新尝试播放。
func (c *Controller) SetMuted(muted bool) {
	changed := muted != c.userMuted
	c.userMuted = muted
	if c.torn || c.media == nil {
		return
	}
	if !changed && c.state != Blocked {
		return
	}

	if muted {
		c.stopRamp()
		c.media.SetMuted(true)
		if c.state == PlayingAudible {
			c.setState(PlayingMuted)
		}
		return
	}

	switch c.state {
	case PlayingMuted, PlayingAudible:
		if c.media.Paused() {
			c.setState(AttemptingMuted)
			c.attemptPlay()
			return
		}
		c.startRamp()
	case Blocked:
		c.attemptPlay()
	}
}

// Teardown 停止渐变并取消交互订阅，可重复调用
func (c *Controller) Teardown() {
	if c.torn {
		return
	}
	c.torn = true
	c.stopRamp()
	c.unlistenAll()
	c.attempt++
	c.inFlight = false
}
