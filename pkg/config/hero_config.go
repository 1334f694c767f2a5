package config

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/decker502/rolet/pkg/bgm"
	"github.com/decker502/rolet/pkg/scroll"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 配置内容不合法
var ErrInvalidConfig = errors.New("invalid config")

// HeroConfig 首屏滚动动画页面配置
// 对应 data/hero.yaml
type HeroConfig struct {
	Viewport   ViewportConfig   `yaml:"viewport"`
	Scroll     ScrollConfig     `yaml:"scroll"`
	Background BackgroundConfig `yaml:"background"`
	Audio      AudioConfig      `yaml:"audio"`
	Loader     LoaderConfig     `yaml:"loader"`

	// Sequence 片段列表文件路径，如 "data/hero_sequence.yaml"
	Sequence string `yaml:"sequence"`

	// Elements 舞台元素，按声明顺序绘制（同层时）
	Elements []ElementConfig `yaml:"elements"`
}

// ViewportConfig 视口分类与尺寸变化防抖
type ViewportConfig struct {
	Breakpoints    viewport.Breakpoints `yaml:"breakpoints"`
	ResizeSettleMs int                  `yaml:"resizeSettleMs"` // 默认 120
}

// ScrollConfig 滚动绑定参数
type ScrollConfig struct {
	RegionID      string  `yaml:"regionId"`      // 固定区域 ID，默认 "hero"
	ExtraDistance float64 `yaml:"extraDistance"` // 默认 4500
	Scrub         float64 `yaml:"scrub"`         // 平滑秒数，默认 1.2；负数表示关闭平滑
	LineHeight    float64 `yaml:"lineHeight"`    // 滚轮一格 / 方向键滚动距离，默认 40
	ContentAfter  float64 `yaml:"contentAfter"`  // 固定区域之后的页面高度（以视口高度为单位），默认 1
}

// BackgroundConfig 背景平移
type BackgroundConfig struct {
	Target          string  `yaml:"target"`          // 平移目标元素 ID，默认 "background"
	MobilePanFactor float64 `yaml:"mobilePanFactor"` // 默认 0.35
}

// AudioConfig 背景音乐
type AudioConfig struct {
	Track          string  `yaml:"track"`          // 音频路径，空表示无音乐
	TargetVolume   float64 `yaml:"targetVolume"`   // 默认 0.3
	RampSteps      int     `yaml:"rampSteps"`      // 默认 10
	RampIntervalMs int     `yaml:"rampIntervalMs"` // 默认 100
}

// LoaderConfig 加载遮罩
type LoaderConfig struct {
	Text       string  `yaml:"text"`       // 默认 "LOADING"
	Background string  `yaml:"background"` // 默认 "#000000"
	FontSize   float64 `yaml:"fontSize"`   // 默认 18
}

// Placement 元素在固定区域中的摆放
// 坐标与宽度都是相对容器的比例
type Placement struct {
	CenterX  float64 `yaml:"centerX"`
	CenterY  float64 `yaml:"centerY"`
	Width    float64 `yaml:"width"`    // 占容器宽度比例
	MaxWidth float64 `yaml:"maxWidth"` // 像素上限，0 表示不限
	Aspect   float64 `yaml:"aspect"`   // 高/宽，图片缺失或文字元素时使用
}

// ElementConfig 舞台元素
type ElementConfig struct {
	ID       string   `yaml:"id"`
	Layer    int      `yaml:"layer"`
	Parent   string   `yaml:"parent"` // 父元素 ID，变换与透明度相对父元素
	Image    string   `yaml:"image"`
	Color    string   `yaml:"color"` // 文字颜色，或图片缺失时的占位色，#RRGGBB / #RRGGBBAA
	Text     []string `yaml:"text"`
	FontSize float64  `yaml:"fontSize"`
	Subtext  []string `yaml:"subtext"` // 副标题，字号为 FontSize 的 0.45 倍
	SubColor string   `yaml:"subColor"`

	// Cover 为 true 时按 cover 铺满容器（背景图）
	Cover bool `yaml:"cover"`

	// Brightness 亮度系数，默认 1
	Brightness float64 `yaml:"brightness"`

	// Origin 缩放与旋转的纵向原点：center（默认）、top、bottom
	Origin string `yaml:"origin"`

	Place Placement `yaml:"place"`

	// Layouts 按视口类别覆盖摆放，键为 mobile / tablet / desktop
	Layouts map[string]Placement `yaml:"layouts"`

	// Rest 静止状态，未列出的属性取默认静止值
	Rest timeline.VisualState `yaml:"rest"`
}

// OriginY 变换原点在元素高度上的比例，0 为顶边，1 为底边
func (e ElementConfig) OriginY() float64 {
	switch e.Origin {
	case "top":
		return 0
	case "bottom":
		return 1
	}
	return 0.5
}

// PlacementFor 返回指定视口类别下的摆放
func (e ElementConfig) PlacementFor(class viewport.Class) Placement {
	if p, ok := e.Layouts[class.String()]; ok {
		return p
	}
	return e.Place
}

// LoadHeroConfig 从 YAML 文件加载页面配置
// 参数：
//
//	path - 配置文件路径
//
// 返回：
//
//	*HeroConfig - 已填充默认值并通过校验的配置
//	error - 读取、解析或校验失败
func LoadHeroConfig(path string) (*HeroConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read hero config file %s: %w", path, err)
	}
	cfg, err := ParseHeroConfig(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// ParseHeroConfig 从 YAML 数据解析页面配置
// 嵌入资源通过 embedded.ReadFile 读出后调用本函数
func ParseHeroConfig(data []byte) (*HeroConfig, error) {
	var cfg HeroConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse hero config YAML: %w", err)
	}

	applyHeroDefaults(&cfg)

	if err := validateHeroConfig(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyHeroDefaults 为缺省字段设置默认值
func applyHeroDefaults(cfg *HeroConfig) {
	if cfg.Viewport.Breakpoints == (viewport.Breakpoints{}) {
		cfg.Viewport.Breakpoints = viewport.DefaultBreakpoints
	}
	if cfg.Viewport.ResizeSettleMs == 0 {
		cfg.Viewport.ResizeSettleMs = int(viewport.DefaultSettleDelay * 1000)
	}

	if cfg.Scroll.RegionID == "" {
		cfg.Scroll.RegionID = "hero"
	}
	if cfg.Scroll.ExtraDistance == 0 {
		cfg.Scroll.ExtraDistance = scroll.DefaultExtraDistance
	}
	if cfg.Scroll.Scrub == 0 {
		cfg.Scroll.Scrub = scroll.DefaultScrub
	}
	if cfg.Scroll.LineHeight == 0 {
		cfg.Scroll.LineHeight = 40
	}
	if cfg.Scroll.ContentAfter == 0 {
		cfg.Scroll.ContentAfter = 1
	}

	if cfg.Background.Target == "" {
		cfg.Background.Target = timeline.DefaultPanTarget
	}
	if cfg.Background.MobilePanFactor == 0 {
		cfg.Background.MobilePanFactor = timeline.DefaultMobilePanFactor
	}

	if cfg.Audio.TargetVolume == 0 {
		cfg.Audio.TargetVolume = bgm.DefaultOptions.TargetVolume
	}
	if cfg.Audio.RampSteps == 0 {
		cfg.Audio.RampSteps = bgm.DefaultOptions.RampSteps
	}
	if cfg.Audio.RampIntervalMs == 0 {
		cfg.Audio.RampIntervalMs = int(bgm.DefaultOptions.RampInterval * 1000)
	}

	if cfg.Loader.Text == "" {
		cfg.Loader.Text = "LOADING"
	}
	if cfg.Loader.Background == "" {
		cfg.Loader.Background = "#000000"
	}
	if cfg.Loader.FontSize == 0 {
		cfg.Loader.FontSize = 18
	}

	for i := range cfg.Elements {
		el := &cfg.Elements[i]
		if el.FontSize == 0 && (len(el.Text) > 0 || len(el.Subtext) > 0) {
			el.FontSize = 24
		}
		if el.Brightness == 0 {
			el.Brightness = 1
		}
	}
}

// validateHeroConfig 验证配置的完整性和合法性
func validateHeroConfig(cfg *HeroConfig) error {
	bp := cfg.Viewport.Breakpoints
	if bp.Tablet <= 0 || bp.Desktop <= bp.Tablet {
		return fmt.Errorf("%w: breakpoints must satisfy 0 < tablet < desktop, got %v/%v", ErrInvalidConfig, bp.Tablet, bp.Desktop)
	}
	if cfg.Viewport.ResizeSettleMs < 0 {
		return fmt.Errorf("%w: resizeSettleMs cannot be negative", ErrInvalidConfig)
	}
	if cfg.Scroll.ExtraDistance < 0 || math.IsNaN(cfg.Scroll.ExtraDistance) {
		return fmt.Errorf("%w: scroll.extraDistance cannot be negative", ErrInvalidConfig)
	}
	if cfg.Scroll.LineHeight < 0 || cfg.Scroll.ContentAfter < 0 {
		return fmt.Errorf("%w: scroll.lineHeight and scroll.contentAfter cannot be negative", ErrInvalidConfig)
	}
	if cfg.Background.MobilePanFactor < 0 {
		return fmt.Errorf("%w: background.mobilePanFactor cannot be negative", ErrInvalidConfig)
	}
	if cfg.Audio.TargetVolume < 0 || cfg.Audio.TargetVolume > 1 {
		return fmt.Errorf("%w: audio.targetVolume must be between 0 and 1, got %v", ErrInvalidConfig, cfg.Audio.TargetVolume)
	}
	if cfg.Audio.RampSteps < 1 || cfg.Audio.RampIntervalMs < 1 {
		return fmt.Errorf("%w: audio ramp steps and interval must be positive", ErrInvalidConfig)
	}
	if _, err := ParseColor(cfg.Loader.Background); err != nil {
		return fmt.Errorf("%w: loader.background: %v", ErrInvalidConfig, err)
	}

	ids := make(map[string]int, len(cfg.Elements))
	for i, el := range cfg.Elements {
		if el.ID == "" {
			return fmt.Errorf("%w: elements[%d]: id is required", ErrInvalidConfig, i)
		}
		if _, dup := ids[el.ID]; dup {
			return fmt.Errorf("%w: elements[%d]: duplicate id %q", ErrInvalidConfig, i, el.ID)
		}
		ids[el.ID] = i

		for _, c := range []string{el.Color, el.SubColor} {
			if c == "" {
				continue
			}
			if _, err := ParseColor(c); err != nil {
				return fmt.Errorf("%w: element %s: %v", ErrInvalidConfig, el.ID, err)
			}
		}
		switch el.Origin {
		case "", "center", "top", "bottom":
		default:
			return fmt.Errorf("%w: element %s: unknown origin %q", ErrInvalidConfig, el.ID, el.Origin)
		}
		for k := range el.Layouts {
			if _, err := viewport.ParseClass(k); err != nil {
				return fmt.Errorf("%w: element %s: layouts: %v", ErrInvalidConfig, el.ID, err)
			}
		}
		for p := range el.Rest {
			if !p.Valid() {
				return fmt.Errorf("%w: element %s: unknown rest property %q", ErrInvalidConfig, el.ID, p)
			}
		}
	}

	if _, ok := ids[cfg.Background.Target]; !ok {
		return fmt.Errorf("%w: background target %q is not an element", ErrInvalidConfig, cfg.Background.Target)
	}

	// 父链必须存在且无环
	for _, el := range cfg.Elements {
		seen := map[string]bool{el.ID: true}
		for parent := el.Parent; parent != ""; {
			idx, ok := ids[parent]
			if !ok {
				return fmt.Errorf("%w: element %s: unknown parent %q", ErrInvalidConfig, el.ID, parent)
			}
			if seen[parent] {
				return fmt.Errorf("%w: element %s: parent cycle through %q", ErrInvalidConfig, el.ID, parent)
			}
			seen[parent] = true
			parent = cfg.Elements[idx].Parent
		}
	}

	return nil
}

// Element 按 ID 查找元素
func (cfg *HeroConfig) Element(id string) (ElementConfig, bool) {
	for _, el := range cfg.Elements {
		if el.ID == id {
			return el, true
		}
	}
	return ElementConfig{}, false
}

// SettleDelay 尺寸变化防抖时长（秒）
func (cfg *HeroConfig) SettleDelay() float64 {
	return float64(cfg.Viewport.ResizeSettleMs) / 1000
}

// ScrollOptions 转换为滚动绑定选项
func (cfg *HeroConfig) ScrollOptions() scroll.Options {
	scrub := cfg.Scroll.Scrub
	if scrub < 0 {
		scrub = 0
	}
	return scroll.Options{ExtraDistance: cfg.Scroll.ExtraDistance, Scrub: scrub}
}

// BGMOptions 转换为背景音乐控制器选项
func (cfg *HeroConfig) BGMOptions(startMuted bool) bgm.Options {
	return bgm.Options{
		TargetVolume: cfg.Audio.TargetVolume,
		RampSteps:    cfg.Audio.RampSteps,
		RampInterval: float64(cfg.Audio.RampIntervalMs) / 1000,
		StartMuted:   startMuted,
	}
}

// BuilderOptions 转换为时间轴构建选项，静止状态取自各元素的 rest
func (cfg *HeroConfig) BuilderOptions() timeline.BuilderOptions {
	rest := make(map[string]timeline.VisualState, len(cfg.Elements))
	for _, el := range cfg.Elements {
		if len(el.Rest) > 0 {
			rest[el.ID] = el.Rest.Clone()
		}
	}
	return timeline.BuilderOptions{
		PanTarget:       cfg.Background.Target,
		MobilePanFactor: cfg.Background.MobilePanFactor,
		Rest:            rest,
	}
}

// ParseColor 解析 #RGB、#RRGGBB 或 #RRGGBBAA
func ParseColor(s string) (color.NRGBA, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	if len(hex) == 3 {
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	}
	if len(hex) == 6 {
		hex += "ff"
	}
	if len(hex) != 8 {
		return color.NRGBA{}, fmt.Errorf("bad color %q", s)
	}
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return color.NRGBA{}, fmt.Errorf("bad color %q: %w", s, err)
	}
	return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
}
