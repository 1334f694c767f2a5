package game

import (
	"fmt"

	"github.com/decker502/rolet/pkg/bgm"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// errNoPlayer 音频未加载成功
var errNoPlayer = fmt.Errorf("audio player not available: %w", bgm.ErrMediaUnavailable)

// MediaPlayer 把 audio.Player 适配为 bgm.Media
//
// 音频上下文尚未就绪（浏览器在用户交互前不允许出声）时，
// Play 以 bgm.ErrAutoplayBlocked 拒绝。
type MediaPlayer struct {
	player *audio.Player
	ready  func() bool
	muted  bool
	volume float64
}

// NewMediaPlayer 创建媒体适配器
//
// 参数:
//   - ctx: 音频上下文，nil 时视为永远就绪
//   - player: 音频播放器，nil 时 Play 总是失败
func NewMediaPlayer(ctx *audio.Context, player *audio.Player) *MediaPlayer {
	m := &MediaPlayer{player: player, ready: func() bool { return true }}
	if ctx != nil {
		m.ready = ctx.IsReady
	}
	if player != nil {
		m.volume = player.Volume()
	}
	return m
}

func (m *MediaPlayer) apply() {
	if m.player == nil {
		return
	}
	if m.muted {
		m.player.SetVolume(0)
		return
	}
	m.player.SetVolume(m.volume)
}

// SetMuted 静音
func (m *MediaPlayer) SetMuted(muted bool) {
	m.muted = muted
	m.apply()
}

// Muted 是否静音
func (m *MediaPlayer) Muted() bool { return m.muted }

// SetVolume 设置音量，限制在 0 ~ 1
func (m *MediaPlayer) SetVolume(v float64) {
	m.volume = clampVolume(v)
	m.apply()
}

// Volume 当前音量（不受静音影响）
func (m *MediaPlayer) Volume() float64 { return m.volume }

// Paused 是否未在播放
func (m *MediaPlayer) Paused() bool {
	return m.player == nil || !m.player.IsPlaying()
}

// Play 请求播放，结果同步回调
func (m *MediaPlayer) Play(done func(error)) {
	switch {
	case m.player == nil:
		done(errNoPlayer)
	case !m.ready():
		done(bgm.ErrAutoplayBlocked)
	default:
		m.apply()
		m.player.Play()
		done(nil)
	}
}

// Pause 暂停播放
func (m *MediaPlayer) Pause() {
	if m.player != nil && m.player.IsPlaying() {
		m.player.Pause()
	}
}

// Stop 静音并暂停，页面卸载后保持无声
func (m *MediaPlayer) Stop() {
	m.SetMuted(true)
	m.Pause()
}
