package game

import (
	"image"
	"sort"

	"github.com/decker502/rolet/pkg/readiness"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// assetState 资源句柄状态
type assetState int

const (
	assetLoading assetState = iota
	assetLoaded
	assetFailed
	assetDestroyed
)

// AssetHandle 异步加载中的资源
//
// 实现 readiness.Resource。Loaded 与页面图片的 complete 含义一致：
// 加载完成或加载失败都算"已完成"，避免在已失败的资源上永久等待。
// 只在游戏协程上使用。
type AssetHandle struct {
	path   string
	state  assetState
	err    error
	image  *ebiten.Image
	player *audio.Player

	subs   map[int]func(readiness.Event)
	nextID int
}

func newAssetHandle(path string) *AssetHandle {
	return &AssetHandle{path: path, subs: make(map[int]func(readiness.Event))}
}

// Path 资源路径
func (h *AssetHandle) Path() string { return h.path }

// Loaded 是否已完成（成功或失败）
func (h *AssetHandle) Loaded() bool {
	return h.state == assetLoaded || h.state == assetFailed
}

// Err 加载错误
func (h *AssetHandle) Err() error { return h.err }

// Image 加载成功的图片，否则为 nil
func (h *AssetHandle) Image() *ebiten.Image {
	if h.state != assetLoaded {
		return nil
	}
	return h.image
}

// NaturalSize 图片原始尺寸，未加载时为 0
func (h *AssetHandle) NaturalSize() image.Point {
	if img := h.Image(); img != nil {
		return img.Bounds().Size()
	}
	return image.Point{}
}

// Player 加载成功的音频播放器，否则为 nil
func (h *AssetHandle) Player() *audio.Player {
	if h.state != assetLoaded {
		return nil
	}
	return h.player
}

// Subscribe 订阅加载结果
func (h *AssetHandle) Subscribe(fn func(readiness.Event)) func() {
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	return func() { delete(h.subs, id) }
}

func (h *AssetHandle) completeImage(img *ebiten.Image, err error) {
	if h.state != assetLoading {
		return
	}
	h.image = img
	h.finish(err)
}

func (h *AssetHandle) completeAudio(p *audio.Player, err error) {
	if h.state != assetLoading {
		return
	}
	h.player = p
	h.finish(err)
}

func (h *AssetHandle) finish(err error) {
	ev := readiness.EventLoad
	h.state = assetLoaded
	if err != nil {
		h.err = err
		h.state = assetFailed
		ev = readiness.EventError
	}
	h.emit(ev)
}

// Destroy 销毁句柄：之后的加载结果全部丢弃
func (h *AssetHandle) Destroy() {
	if h.state == assetDestroyed {
		return
	}
	h.state = assetDestroyed
	h.image = nil
	h.player = nil
	h.emit(readiness.EventDestroy)
	h.subs = make(map[int]func(readiness.Event))
}

// emit 按订阅顺序通知
func (h *AssetHandle) emit(ev readiness.Event) {
	ids := make([]int, 0, len(h.subs))
	for id := range h.subs {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := h.subs[id]; ok {
			fn(ev)
		}
	}
}
