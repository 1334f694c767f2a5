package config

import (
	"fmt"
	"os"

	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
	"gopkg.in/yaml.v3"
)

// SequenceConfig 片段列表文件（data/hero_sequence.yaml）
type SequenceConfig struct {
	Segments []SegmentConfig `yaml:"segments"`
}

// SegmentConfig 单个片段的 YAML 形式
//
// 锚点 after / with / at 三选一，全部省略时等同 after: 0。
//
//	- target: leaf-2
//	  from: {x: 200, y: -40, opacity: 0}
//	  duration: 1.3
//	  ease: power3.out
//	  with: 0.15
type SegmentConfig struct {
	Target    string                 `yaml:"target"`
	From      timeline.VisualState   `yaml:"from,omitempty"`
	To        timeline.VisualState   `yaml:"to,omitempty"`
	By        timeline.VisualState   `yaml:"by,omitempty"`
	Keyframes []timeline.VisualState `yaml:"keyframes,omitempty"`
	Duration  float64                `yaml:"duration"`
	Ease      string                 `yaml:"ease,omitempty"`

	After *float64 `yaml:"after,omitempty"`
	With  *float64 `yaml:"with,omitempty"`
	At    *float64 `yaml:"at,omitempty"`

	// Viewports 限定视口类别（mobile / tablet / desktop），空表示全部
	Viewports []string `yaml:"viewports,omitempty"`
}

// LoadSequence 从 YAML 文件加载片段列表
// 参数：
//
//	path - 片段文件路径
//
// 返回：
//
//	[]timeline.Segment - 按声明顺序排列的片段
//	error - 读取、解析或校验失败
func LoadSequence(path string) ([]timeline.Segment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence file %s: %w", path, err)
	}
	segments, err := ParseSequence(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return segments, nil
}

// ParseSequence 从 YAML 数据解析片段列表
func ParseSequence(data []byte) ([]timeline.Segment, error) {
	var seq SequenceConfig
	if err := yaml.Unmarshal(data, &seq); err != nil {
		return nil, fmt.Errorf("failed to parse sequence YAML: %w", err)
	}
	if len(seq.Segments) == 0 {
		return nil, fmt.Errorf("%w: at least one segment is required", ErrInvalidConfig)
	}

	out := make([]timeline.Segment, 0, len(seq.Segments))
	for i, sc := range seq.Segments {
		seg, err := sc.Segment()
		if err != nil {
			return nil, fmt.Errorf("segments[%d]: %w", i, err)
		}
		out = append(out, seg)
	}
	return out, nil
}

// Segment 转换为时间轴片段并校验
func (sc SegmentConfig) Segment() (timeline.Segment, error) {
	anchor, err := sc.anchor()
	if err != nil {
		return timeline.Segment{}, err
	}

	var classes []viewport.Class
	for _, name := range sc.Viewports {
		c, err := viewport.ParseClass(name)
		if err != nil {
			return timeline.Segment{}, fmt.Errorf("%w: %s: %v", ErrInvalidConfig, sc.Target, err)
		}
		classes = append(classes, c)
	}

	seg := timeline.Segment{
		Target:    sc.Target,
		From:      sc.From,
		To:        sc.To,
		By:        sc.By,
		Keyframes: sc.Keyframes,
		Duration:  sc.Duration,
		Easing:    sc.Ease,
		Anchor:    anchor,
		Viewports: classes,
	}
	if err := seg.Validate(); err != nil {
		return timeline.Segment{}, err
	}
	return seg, nil
}

func (sc SegmentConfig) anchor() (timeline.Anchor, error) {
	set := 0
	anchor := timeline.After(0)
	if sc.After != nil {
		set++
		anchor = timeline.After(*sc.After)
	}
	if sc.With != nil {
		set++
		anchor = timeline.With(*sc.With)
	}
	if sc.At != nil {
		set++
		anchor = timeline.At(*sc.At)
	}
	if set > 1 {
		return timeline.Anchor{}, fmt.Errorf("%w: %s: only one of after/with/at may be set", ErrInvalidConfig, sc.Target)
	}
	return anchor, nil
}

// SegmentConfigOf 把片段还原为 YAML 形式（分析工具导出用）
func SegmentConfigOf(seg timeline.Segment) SegmentConfig {
	off := seg.Anchor.Offset
	sc := SegmentConfig{
		Target:    seg.Target,
		From:      seg.From,
		To:        seg.To,
		By:        seg.By,
		Keyframes: seg.Keyframes,
		Duration:  seg.Duration,
		Ease:      seg.Easing,
	}
	switch seg.Anchor.Kind {
	case timeline.WithPrevious:
		sc.With = &off
	case timeline.AtAbsolute:
		sc.At = &off
	default:
		sc.After = &off
	}
	for _, c := range seg.Viewports {
		sc.Viewports = append(sc.Viewports, c.String())
	}
	return sc
}
