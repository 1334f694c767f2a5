// Package scroll 把时间轴绑定到滚动范围
package scroll

import (
	"errors"
	"fmt"
	"math"
	"sort"
)

// ErrNoScrollContainer 没有可滚动的文档
var ErrNoScrollContainer = errors.New("no scroll container")

// Region 被固定的页面区域
type Region struct {
	ID     string
	Top    float64
	Height float64
}

// Document 滚动容器
type Document interface {
	// ScrollOffset 当前滚动偏移
	ScrollOffset() float64
	// ScrollTo 滚动到指定偏移，超出范围时夹紧
	ScrollTo(y float64)
	// ReserveRange 预留 length 的滚动距离，返回释放函数
	ReserveRange(length float64) (release func(), err error)
	// Pin 在滚动偏移位于 [start, end] 时固定区域
	Pin(region Region, start, end float64)
	// Unpin 恢复区域的正常排版
	Unpin(region Region)
	// Subscribe 订阅滚动偏移变化，返回取消订阅函数
	Subscribe(fn func(offset float64)) (unsubscribe func())
}

type pinSpan struct {
	region     Region
	start, end float64
}

// VirtualDocument 内存中的滚动文档
//
// 内容高度 = 基础内容高度 + 所有预留距离；预留距离插在固定区域之后，
// 固定期间区域停留在视口顶部，之后随内容继续上移。
type VirtualDocument struct {
	viewportHeight float64
	contentHeight  float64
	offset         float64

	reservations map[int]float64
	pins         map[string]pinSpan
	listeners    map[int]func(float64)
	nextID       int
}

// NewVirtualDocument 创建虚拟文档
//
// 参数:
//   - viewportHeight: 视口高度
//   - contentHeight: 未预留任何距离时的内容高度
func NewVirtualDocument(viewportHeight, contentHeight float64) *VirtualDocument {
	return &VirtualDocument{
		viewportHeight: viewportHeight,
		contentHeight:  contentHeight,
		reservations:   make(map[int]float64),
		pins:           make(map[string]pinSpan),
		listeners:      make(map[int]func(float64)),
	}
}

// ScrollOffset 当前滚动偏移
func (d *VirtualDocument) ScrollOffset() float64 {
	return d.offset
}

// Reserved 当前预留的总距离
func (d *VirtualDocument) Reserved() float64 {
	total := 0.0
	for _, v := range d.reservations {
		total += v
	}
	return total
}

// Reservations 有效预留数量
func (d *VirtualDocument) Reservations() int {
	return len(d.reservations)
}

// MaxScroll 最大滚动偏移
func (d *VirtualDocument) MaxScroll() float64 {
	return math.Max(0, d.contentHeight+d.Reserved()-d.viewportHeight)
}

// ViewportHeight 视口高度
func (d *VirtualDocument) ViewportHeight() float64 {
	return d.viewportHeight
}

// Resize 更新视口与内容高度，并重新夹紧滚动偏移
func (d *VirtualDocument) Resize(viewportHeight, contentHeight float64) {
	d.viewportHeight = viewportHeight
	d.contentHeight = contentHeight
	d.ScrollTo(d.offset)
}

// ScrollTo 滚动到指定偏移（夹紧到 [0, MaxScroll]）
func (d *VirtualDocument) ScrollTo(y float64) {
	if math.IsNaN(y) {
		return
	}
	y = math.Max(0, math.Min(y, d.MaxScroll()))
	if y == d.offset {
		return
	}
	d.offset = y
	d.notify()
}

// ScrollBy 相对滚动
func (d *VirtualDocument) ScrollBy(dy float64) {
	d.ScrollTo(d.offset + dy)
}

// ReserveRange 预留滚动距离
func (d *VirtualDocument) ReserveRange(length float64) (func(), error) {
	if length < 0 || math.IsNaN(length) || math.IsInf(length, 0) {
		return nil, fmt.Errorf("invalid scroll range %v", length)
	}
	id := d.nextID
	d.nextID++
	d.reservations[id] = length

	released := false
	return func() {
		if released {
			return
		}
		released = true
		delete(d.reservations, id)
		d.ScrollTo(d.offset)
	}, nil
}

// Pin 固定区域
func (d *VirtualDocument) Pin(region Region, start, end float64) {
	d.pins[region.ID] = pinSpan{region: region, start: start, end: end}
}

// Unpin 取消固定
func (d *VirtualDocument) Unpin(region Region) {
	delete(d.pins, region.ID)
}

// Pinned 区域是否处于固定状态
func (d *VirtualDocument) Pinned(regionID string) bool {
	_, ok := d.pins[regionID]
	return ok
}

// RegionScreenY 区域顶部在视口中的纵坐标
func (d *VirtualDocument) RegionScreenY(region Region) float64 {
	span, ok := d.pins[region.ID]
	if !ok {
		return region.Top - d.offset
	}
	switch {
	case d.offset < span.start:
		return region.Top - d.offset
	case d.offset <= span.end:
		return region.Top - span.start
	default:
		return region.Top - d.offset + (span.end - span.start)
	}
}

// Subscribe 订阅滚动偏移变化
func (d *VirtualDocument) Subscribe(fn func(offset float64)) func() {
	id := d.nextID
	d.nextID++
	d.listeners[id] = fn
	return func() { delete(d.listeners, id) }
}

// Listeners 订阅者数量
func (d *VirtualDocument) Listeners() int {
	return len(d.listeners)
}

// notify 按订阅顺序同步通知
func (d *VirtualDocument) notify() {
	ids := make([]int, 0, len(d.listeners))
	for id := range d.listeners {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	for _, id := range ids {
		if fn, ok := d.listeners[id]; ok {
			fn(d.offset)
		}
	}
}
