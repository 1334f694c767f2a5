package config

import (
	"errors"
	"math"
	"testing"

	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
)

// TestParseSequenceAnchors 测试锚点字段解析
func TestParseSequenceAnchors(t *testing.T) {
	segments, err := ParseSequence([]byte(`
segments:
  - target: leaf-1
    from: {opacity: 0, x: 150}
    duration: 1.4
    ease: power3.out
    after: 0.2
  - target: leaf-2
    from: {opacity: 0}
    duration: 1.3
    with: 0.15
  - target: hero-headline
    to: {opacity: 1}
    duration: 1
    at: 0.2
  - target: product-main
    keyframes:
      - {y: 500}
      - {y: 1000}
    duration: 2.4
  - target: cta-final
    to: {y: -190}
    duration: 1
    after: -1.4
    viewports: [mobile]
`))
	if err != nil {
		t.Fatalf("ParseSequence() failed: %v", err)
	}
	if len(segments) != 5 {
		t.Fatalf("len = %d, 期望 5", len(segments))
	}

	tests := []struct {
		name   string
		anchor timeline.Anchor
	}{
		{"after", timeline.After(0.2)},
		{"with", timeline.With(0.15)},
		{"at", timeline.At(0.2)},
		{"省略锚点", timeline.After(0)},
		{"负间隔", timeline.After(-1.4)},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if segments[i].Anchor != tt.anchor {
				t.Errorf("Anchor = %+v, 期望 %+v", segments[i].Anchor, tt.anchor)
			}
		})
	}

	if got := segments[0].From.Get(timeline.X); got != 150 {
		t.Errorf("leaf-1 from x = %v, 期望 150", got)
	}
	if segments[0].Easing != "power3.out" {
		t.Errorf("Easing = %q", segments[0].Easing)
	}
	if len(segments[3].Keyframes) != 2 {
		t.Errorf("关键帧数量 = %d, 期望 2", len(segments[3].Keyframes))
	}
	if !segments[4].AppliesTo(viewport.Mobile) || segments[4].AppliesTo(viewport.Desktop) {
		t.Error("viewports 过滤不正确")
	}
}

// TestParseSequenceInvalid 测试非法片段
func TestParseSequenceInvalid(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{"空列表", "segments: []", ErrInvalidConfig},
		{"多个锚点", "segments: [{target: a, to: {x: 1}, duration: 1, after: 0, with: 0}]", ErrInvalidConfig},
		{"未知视口", "segments: [{target: a, to: {x: 1}, duration: 1, viewports: [watch]}]", ErrInvalidConfig},
		{"负时长", "segments: [{target: a, to: {x: 1}, duration: -1}]", timeline.ErrInvalidSegment},
		{"缺少目标", "segments: [{to: {x: 1}, duration: 1}]", timeline.ErrInvalidSegment},
		{"未知缓动", "segments: [{target: a, to: {x: 1}, duration: 1, ease: bounce.out}]", timeline.ErrInvalidSegment},
		{"未知属性", "segments: [{target: a, to: {skew: 1}, duration: 1}]", timeline.ErrInvalidSegment},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseSequence([]byte(tt.yaml))
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("err = %v, 期望包装 %v", err, tt.wantErr)
			}
		})
	}
}

// TestSegmentConfigOf 测试片段还原为 YAML 形式后锚点不变
func TestSegmentConfigOf(t *testing.T) {
	seg := timeline.Segment{
		Target:    "incense",
		To:        timeline.VisualState{timeline.Rotation: 356},
		Duration:  1.4,
		Easing:    "power3.out",
		Anchor:    timeline.With(0),
		Viewports: []viewport.Class{viewport.Mobile},
	}

	back, err := SegmentConfigOf(seg).Segment()
	if err != nil {
		t.Fatalf("Segment() failed: %v", err)
	}
	if back.Anchor != seg.Anchor || back.Duration != seg.Duration || back.Easing != seg.Easing {
		t.Errorf("还原结果不一致: %+v", back)
	}
	if len(back.Viewports) != 1 || back.Viewports[0] != viewport.Mobile {
		t.Errorf("Viewports = %v", back.Viewports)
	}
}

// TestShippedHeroData 测试随程序发布的页面配置与片段列表
func TestShippedHeroData(t *testing.T) {
	cfg, err := LoadHeroConfig("../../data/hero.yaml")
	if err != nil {
		t.Fatalf("LoadHeroConfig() failed: %v", err)
	}
	segments, err := LoadSequence("../../" + cfg.Sequence)
	if err != nil {
		t.Fatalf("LoadSequence() failed: %v", err)
	}

	t.Run("片段目标都是舞台元素", func(t *testing.T) {
		for i, seg := range segments {
			if _, ok := cfg.Element(seg.Target); !ok {
				t.Errorf("segments[%d]: 未知目标 %q", i, seg.Target)
			}
		}
	})

	t.Run("各视口的总时长", func(t *testing.T) {
		b := timeline.NewBuilder(cfg.BuilderOptions())
		metrics := timeline.Metrics{DisplayedImageHeight: 2000, ContainerHeight: 800}
		for _, class := range []viewport.Class{viewport.Mobile, viewport.Tablet, viewport.Desktop} {
			tl, err := b.Build(segments, class, metrics)
			if err != nil {
				t.Fatalf("%s: Build() failed: %v", class, err)
			}
			if got := tl.TotalDuration(); math.Abs(got-29.2) > 1e-6 {
				t.Errorf("%s: TotalDuration = %v, 期望 29.2", class, got)
			}
			if got := len(tl.Segments()); got != 52 {
				t.Errorf("%s: 片段数 = %d, 期望 52（含背景平移）", class, got)
			}
		}
	})

	t.Run("移动端背景平移缩小", func(t *testing.T) {
		b := timeline.NewBuilder(cfg.BuilderOptions())
		metrics := timeline.Metrics{DisplayedImageHeight: 2000, ContainerHeight: 800}
		desktop, _ := b.Build(segments, viewport.Desktop, metrics)
		mobile, _ := b.Build(segments, viewport.Mobile, metrics)
		if math.Abs(desktop.PanDisplacement()-60) > 1e-9 {
			t.Errorf("desktop 平移 = %v, 期望 60", desktop.PanDisplacement())
		}
		if math.Abs(mobile.PanDisplacement()-21) > 1e-9 {
			t.Errorf("mobile 平移 = %v, 期望 21", mobile.PanDisplacement())
		}
	})
}
