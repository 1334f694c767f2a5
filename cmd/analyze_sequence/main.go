// Package main 打印首屏动画在指定视口下的解析结果
//
// Usage:
//
//	go run ./cmd/analyze_sequence [flags]
//
// Flags:
//
//	--config <path>   Page config (default: data/hero.yaml)
//	--width <px>      Viewport width, 0 prints all three classes (default: 0)
//	--height <px>     Viewport height (default: 800)
//	--at <seconds>    Also print every target's state at this time (default: -1, off)
//	--out <path>      Write the resolved schedule as YAML
//	--normalize <path> Write the filtered segment list back as sequence YAML
package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"sort"

	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/timeline"
	"gopkg.in/yaml.v3"
)

var (
	configFlag    = flag.String("config", "data/hero.yaml", "Page config path")
	widthFlag     = flag.Float64("width", 0, "Viewport width (0 = mobile, tablet and desktop)")
	heightFlag    = flag.Float64("height", 800, "Viewport height")
	atFlag        = flag.Float64("at", -1, "Print target states at this time (seconds)")
	outFlag       = flag.String("out", "", "Write resolved schedule YAML to this path")
	normalizeFlag = flag.String("normalize", "", "Write the filtered sequence YAML to this path")
)

// resolvedEntry 导出的解析结果
type resolvedEntry struct {
	Index    int                  `yaml:"index"`
	Target   string               `yaml:"target"`
	Start    float64              `yaml:"start"`
	End      float64              `yaml:"end"`
	Ease     string               `yaml:"ease"`
	From     timeline.VisualState `yaml:"from"`
	To       timeline.VisualState `yaml:"to"`
	Explicit timeline.VisualState `yaml:"explicitFrom,omitempty"`
	Pan      bool                 `yaml:"pan,omitempty"`
}

type schedule struct {
	Class         string          `yaml:"class"`
	Width         float64         `yaml:"width"`
	TotalDuration float64         `yaml:"totalDuration"`
	PanPercent    float64         `yaml:"panPercent"`
	Segments      []resolvedEntry `yaml:"segments"`
}

func main() {
	flag.Parse()

	cfg, err := config.LoadHeroConfig(*configFlag)
	if err != nil {
		log.Fatalf("配置加载失败: %v", err)
	}
	segments, err := config.LoadSequence(resolvePath(*configFlag, cfg.Sequence))
	if err != nil {
		log.Fatalf("片段加载失败: %v", err)
	}

	bgW, bgH := backgroundSize(cfg, *configFlag)
	fmt.Printf("配置: %s\n", *configFlag)
	fmt.Printf("片段数: %d，背景图: %.0fx%.0f\n\n", len(segments), bgW, bgH)

	widths := []float64{*widthFlag}
	if *widthFlag <= 0 {
		bp := cfg.Viewport.Breakpoints
		widths = []float64{bp.Tablet / 2, (bp.Tablet + bp.Desktop) / 2, bp.Desktop * 1.25}
	}

	builder := timeline.NewBuilder(cfg.BuilderOptions())
	var schedules []schedule
	for _, w := range widths {
		class := cfg.Viewport.Breakpoints.Classify(w)
		metrics := timeline.CoverMetrics(bgW, bgH, w, *heightFlag)
		tl, err := builder.Build(segments, class, metrics)
		if err != nil {
			log.Fatalf("构建失败 (width=%.0f): %v", w, err)
		}
		printTimeline(tl, w)
		if *atFlag >= 0 {
			printState(tl, *atFlag)
		}
		schedules = append(schedules, toSchedule(tl, w))
	}

	if *outFlag != "" {
		writeYAML(*outFlag, schedules)
	}
	if *normalizeFlag != "" {
		class := cfg.Viewport.Breakpoints.Classify(widths[len(widths)-1])
		var seq config.SequenceConfig
		for _, seg := range segments {
			if seg.AppliesTo(class) {
				seq.Segments = append(seq.Segments, config.SegmentConfigOf(seg))
			}
		}
		writeYAML(*normalizeFlag, seq)
	}
}

// resolvePath 片段路径相对于项目根目录，配置不在 data/ 下时相对配置文件
func resolvePath(configPath, seqPath string) string {
	if _, err := os.Stat(seqPath); err == nil {
		return seqPath
	}
	return filepath.Join(filepath.Dir(configPath), filepath.Base(seqPath))
}

// backgroundSize 读取背景图的原始尺寸，读取失败时返回 0（不平移）
func backgroundSize(cfg *config.HeroConfig, configPath string) (float64, float64) {
	el, ok := cfg.Element(cfg.Background.Target)
	if !ok || el.Image == "" {
		return 0, 0
	}
	f, err := os.Open(resolvePath(configPath, el.Image))
	if err != nil {
		log.Printf("警告: 无法打开背景图: %v", err)
		return 0, 0
	}
	defer f.Close()
	ic, _, err := image.DecodeConfig(f)
	if err != nil {
		log.Printf("警告: 无法解析背景图: %v", err)
		return 0, 0
	}
	return float64(ic.Width), float64(ic.Height)
}

func printTimeline(tl *timeline.Timeline, width float64) {
	fmt.Printf("=== %s (width=%.0f) 总时长 %.2fs，背景平移 %.2f%% ===\n",
		tl.Class(), width, tl.TotalDuration(), tl.PanDisplacement())
	for _, seg := range tl.Segments() {
		mark := ""
		if seg.Pan {
			mark = " [pan]"
		}
		fmt.Printf("  #%-3d %-18s %6.2f → %6.2f  %-20s%s\n",
			seg.Index, seg.Target, seg.Start, seg.End, seg.Easing, mark)
	}
	fmt.Println()
}

func printState(tl *timeline.Timeline, t float64) {
	states := tl.StateAt(t)
	targets := make([]string, 0, len(states))
	for target := range states {
		targets = append(targets, target)
	}
	sort.Strings(targets)

	fmt.Printf("--- t = %.2fs ---\n", t)
	for _, target := range targets {
		fmt.Printf("  %-18s %s\n", target, states[target])
	}
	fmt.Println()
}

func toSchedule(tl *timeline.Timeline, width float64) schedule {
	s := schedule{
		Class:         tl.Class().String(),
		Width:         width,
		TotalDuration: tl.TotalDuration(),
		PanPercent:    tl.PanDisplacement(),
	}
	for _, seg := range tl.Segments() {
		s.Segments = append(s.Segments, resolvedEntry{
			Index:    seg.Index,
			Target:   seg.Target,
			Start:    seg.Start,
			End:      seg.End,
			Ease:     seg.Easing,
			From:     seg.From,
			To:       seg.To,
			Explicit: seg.ExplicitFrom,
			Pan:      seg.Pan,
		})
	}
	return s
}

func writeYAML(path string, v interface{}) {
	data, err := yaml.Marshal(v)
	if err != nil {
		log.Fatalf("序列化失败: %v", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Fatalf("写入 %s 失败: %v", path, err)
	}
	fmt.Printf("已写入 %s\n", path)
}

