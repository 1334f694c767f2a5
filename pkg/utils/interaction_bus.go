package utils

import (
	"sort"

	"github.com/hajimehoshi/ebiten/v2"
)

// InteractionKind 用户交互类型
type InteractionKind int

const (
	// PointerDown 鼠标按下
	PointerDown InteractionKind = iota
	// TouchStart 触摸开始
	TouchStart
	// KeyDown 按键按下
	KeyDown
)

func (k InteractionKind) String() string {
	switch k {
	case PointerDown:
		return "pointerdown"
	case TouchStart:
		return "touchstart"
	case KeyDown:
		return "keydown"
	}
	return "unknown"
}

// Interaction 一次用户交互
type Interaction struct {
	Kind InteractionKind
	X, Y int
	Key  ebiten.Key
}

// InteractionBus 全页面的交互通知
// 订阅者按订阅顺序同步收到通知；回调中取消订阅立即生效
type InteractionBus struct {
	subs   map[int]func(Interaction)
	nextID int
}

// NewInteractionBus 创建交互总线
func NewInteractionBus() *InteractionBus {
	return &InteractionBus{subs: make(map[int]func(Interaction))}
}

// Subscribe 订阅交互，返回取消订阅函数（可重复调用）
func (b *InteractionBus) Subscribe(fn func(Interaction)) func() {
	id := b.nextID
	b.nextID++
	b.subs[id] = fn
	return func() { delete(b.subs, id) }
}

// Dispatch 分发一次交互
func (b *InteractionBus) Dispatch(ev Interaction) {
	ids := make([]int, 0, len(b.subs))
	for id := range b.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)

	for _, id := range ids {
		if fn, ok := b.subs[id]; ok {
			fn(ev)
		}
	}
}

// Subscribers 当前订阅者数量
func (b *InteractionBus) Subscribers() int {
	return len(b.subs)
}
