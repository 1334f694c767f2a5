package scroll

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
)

// recordingApplier 记录最后一次应用的状态
type recordingApplier struct {
	states map[string]timeline.VisualState
	resets map[string]int
	applys int
}

func newRecordingApplier() *recordingApplier {
	return &recordingApplier{
		states: make(map[string]timeline.VisualState),
		resets: make(map[string]int),
	}
}

func (r *recordingApplier) Apply(target string, st timeline.VisualState) {
	r.states[target] = st.Clone()
	r.applys++
}

func (r *recordingApplier) Reset(target string) {
	delete(r.states, target)
	r.resets[target]++
}

func (r *recordingApplier) snapshot() map[string]timeline.VisualState {
	out := make(map[string]timeline.VisualState, len(r.states))
	for k, v := range r.states {
		out[k] = v.Clone()
	}
	return out
}

func testTimeline(t *testing.T) *timeline.Timeline {
	t.Helper()
	segs := []timeline.Segment{
		{Target: "leaf", From: timeline.VisualState{timeline.Y: 40, timeline.Opacity: 0}, To: timeline.VisualState{timeline.Y: 0, timeline.Opacity: 1}, Duration: 2, Easing: "power2.out", Anchor: timeline.At(0)},
		{Target: "product", To: timeline.VisualState{timeline.Rotation: -20}, Duration: 2, Easing: "power3.inOut", Anchor: timeline.After(0)},
		{Target: "bag", From: timeline.VisualState{timeline.Scale: 0}, To: timeline.VisualState{timeline.Scale: 1}, Duration: 1, Easing: "elastic.out(1,0.5)", Anchor: timeline.After(0)},
	}
	tl, err := timeline.NewBuilder(timeline.BuilderOptions{}).Build(segs, viewport.Desktop, timeline.Metrics{DisplayedImageHeight: 1500, ContainerHeight: 900})
	if err != nil {
		t.Fatal(err)
	}
	return tl
}

var hero = Region{ID: "hero", Top: 0, Height: 900}

// TestAttachNoContainer 测试缺少滚动容器
func TestAttachNoContainer(t *testing.T) {
	_, err := Attach(testTimeline(t), hero, nil, newRecordingApplier(), Options{})
	if !errors.Is(err, ErrNoScrollContainer) {
		t.Errorf("err = %v, 期望 ErrNoScrollContainer", err)
	}
}

// TestAttachReservesAndPins 测试预留距离与固定
func TestAttachReservesAndPins(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	app := newRecordingApplier()
	b, err := Attach(testTimeline(t), hero, doc, app, Options{ExtraDistance: DefaultExtraDistance})
	if err != nil {
		t.Fatal(err)
	}

	if doc.Reserved() != 900+DefaultExtraDistance {
		t.Errorf("Reserved = %v, 期望 %v", doc.Reserved(), 900+DefaultExtraDistance)
	}
	if !doc.Pinned("hero") {
		t.Error("区域应被固定")
	}
	if len(app.states) != 4 {
		t.Errorf("绑定时应立即应用全部目标, 实际 %d", len(app.states))
	}
	if b.Progress() != 0 {
		t.Errorf("初始进度 = %v, 期望 0", b.Progress())
	}
}

// TestScrollMapsToProgress 测试滚动偏移映射到进度
func TestScrollMapsToProgress(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	b, _ := Attach(testTimeline(t), hero, doc, newRecordingApplier(), Options{ExtraDistance: 4500})

	tests := []struct {
		offset float64
		want   float64
	}{
		{0, 0},
		{2700, 0.5},
		{5400, 1},
		{6000, 1},
	}
	for _, tt := range tests {
		doc.ScrollTo(tt.offset)
		if math.Abs(b.Progress()-tt.want) > 1e-9 {
			t.Errorf("offset %v: progress = %v, 期望 %v", tt.offset, b.Progress(), tt.want)
		}
	}
}

// TestPathIndependence 测试前后滚动到同一进度的结果相同
func TestPathIndependence(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	app := newRecordingApplier()
	b, _ := Attach(testTimeline(t), hero, doc, app, Options{ExtraDistance: 4500})

	p1, p2 := 0.3, 0.8

	b.ApplyProgress(p1)
	b.ApplyProgress(p2)
	forward := app.snapshot()

	b.ApplyProgress(1)
	b.ApplyProgress(p2)
	b.ApplyProgress(p1)
	b.ApplyProgress(p2)
	backward := app.snapshot()

	for target, st := range forward {
		if !st.Equal(backward[target], 1e-12) {
			t.Errorf("%s: 正向 %v, 反向 %v", target, st, backward[target])
		}
	}

	b.ApplyProgress(p2)
	again := app.snapshot()
	for target, st := range forward {
		if !st.Equal(again[target], 1e-12) {
			t.Errorf("%s: 重复应用结果不同", target)
		}
	}
}

// TestScrubSmoothing 测试平滑追赶
func TestScrubSmoothing(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	b, _ := Attach(testTimeline(t), hero, doc, newRecordingApplier(), Options{ExtraDistance: 4500, Scrub: DefaultScrub})

	doc.ScrollTo(5400)
	if b.Progress() != 0 || b.TargetProgress() != 1 {
		t.Fatalf("滚动后应只更新目标进度: progress=%v target=%v", b.Progress(), b.TargetProgress())
	}

	b.Update(1.0 / 60)
	first := b.Progress()
	if first <= 0 || first >= 1 {
		t.Errorf("一帧后进度 = %v, 应位于 (0,1)", first)
	}

	for i := 0; i < 60*5; i++ {
		b.Update(1.0 / 60)
	}
	if b.Progress() != 1 {
		t.Errorf("足够时间后进度 = %v, 期望 1", b.Progress())
	}
}

// TestTeardown 测试销毁释放资源且可重复调用
func TestTeardown(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	app := newRecordingApplier()
	b, _ := Attach(testTimeline(t), hero, doc, app, Options{ExtraDistance: 4500})

	doc.ScrollTo(2700)
	if math.Abs(b.Progress()-0.5) > 1e-9 {
		t.Fatalf("progress = %v, 期望 0.5", b.Progress())
	}

	b.Teardown()
	if doc.Reserved() != 0 || doc.Reservations() != 0 {
		t.Errorf("销毁后预留距离 = %v", doc.Reserved())
	}
	if doc.Pinned("hero") {
		t.Error("销毁后区域应取消固定")
	}
	if doc.Listeners() != 0 {
		t.Errorf("销毁后订阅者 = %d", doc.Listeners())
	}
	if len(app.states) != 0 {
		t.Errorf("销毁后目标应恢复, 剩余 %v", app.states)
	}
	if doc.ScrollOffset() > doc.MaxScroll() {
		t.Error("释放后滚动偏移应被夹紧")
	}

	applys := app.applys
	b.Teardown()
	if app.resets["leaf"] != 1 {
		t.Errorf("重复销毁不应再次恢复, resets = %d", app.resets["leaf"])
	}
	b.ApplyProgress(0.9)
	doc.ScrollTo(0)
	if app.applys != applys {
		t.Error("销毁后不应再应用状态")
	}
	if b.Active() {
		t.Error("销毁后 Active 应为 false")
	}
}

// TestRegionScreenY 测试固定区域的屏幕位置
func TestRegionScreenY(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	_, _ = Attach(testTimeline(t), hero, doc, newRecordingApplier(), Options{ExtraDistance: 4500})

	tests := []struct {
		offset float64
		want   float64
	}{
		{0, 0},
		{3000, 0},
		{5400, 0},
		{5700, -300},
	}
	for _, tt := range tests {
		doc.ScrollTo(tt.offset)
		if got := doc.RegionScreenY(hero); got != tt.want {
			t.Errorf("offset %v: screenY = %v, 期望 %v", tt.offset, got, tt.want)
		}
	}
}

// TestReserveRangeInvalid 测试非法预留
func TestReserveRangeInvalid(t *testing.T) {
	doc := NewVirtualDocument(900, 1800)
	if _, err := doc.ReserveRange(-1); err == nil {
		t.Error("负距离应返回错误")
	}
	release, err := doc.ReserveRange(100)
	if err != nil {
		t.Fatal(err)
	}
	release()
	release()
	if doc.Reservations() != 0 {
		t.Error("重复释放不应出错")
	}
}
