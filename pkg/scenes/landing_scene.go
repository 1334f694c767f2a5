package scenes

import (
	"fmt"
	"image/color"
	"log"

	"github.com/decker502/rolet/pkg/bgm"
	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/decker502/rolet/pkg/entities"
	"github.com/decker502/rolet/pkg/game"
	"github.com/decker502/rolet/pkg/hero"
	"github.com/decker502/rolet/pkg/readiness"
	"github.com/decker502/rolet/pkg/scheduler"
	"github.com/decker502/rolet/pkg/scroll"
	"github.com/decker502/rolet/pkg/systems"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/utils"
	"github.com/decker502/rolet/pkg/viewport"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// pageScrollRatio PageUp / PageDown / 空格滚动的视口高度比例
const pageScrollRatio = 0.9

var (
	footerColor = color.NRGBA{R: 0x0b, G: 0x1a, B: 0x10, A: 0xff}
	hintColor   = color.NRGBA{R: 0xff, G: 0xff, B: 0xff, A: 0x99}
)

// LandingScene 首屏滚动动画页面
//
// 组成：
//   - StageSystem / RenderSystem：舞台元素的布局、状态写入与绘制
//   - VirtualDocument：滚动文档，固定区域之后是页脚
//   - hero.Sequencer：背景图就绪后构建时间轴并绑定滚动
//   - bgm.Controller：背景图与音乐都就绪后尝试自动播放
type LandingScene struct {
	sched           *scheduler.Scheduler
	resourceManager *game.ResourceManager
	settings        *game.SettingsManager
	audioContext    *audio.Context
	cfg             *config.HeroConfig

	entityManager *ecs.EntityManager
	stage         *systems.StageSystem
	render        *systems.RenderSystem

	doc       *scroll.VirtualDocument
	region    scroll.Region
	sequencer *hero.Sequencer
	ready     *readiness.Signal
	gates     []*readiness.Gate
	unsubs    []func()

	bus          *utils.InteractionBus
	interactions []utils.Interaction
	music        *bgm.Controller
	media        *game.MediaPlayer
	musicHandle  *game.AssetHandle
	muted        bool

	loaderFace  *text.GoTextFace
	loaderColor color.NRGBA
	hintFace    *text.GoTextFace
	showLoader  bool

	width, height float64
	mounted       bool
	unmounted     bool
}

// NewLandingScene 创建页面
//
// 参数：
//   - rm: 资源管理器（配置文件、图像、音频、字体）
//   - sched: 调度器
//   - settings: 用户偏好，可为 nil
//   - audioContext: 音频上下文，可为 nil（没有背景音乐）
//   - configPath: 页面配置路径，如 "data/hero.yaml"
//
// 返回：
//   - *LandingScene: 尚未挂载的页面，第一次 Resize 时挂载
//   - error: 配置读取、解析或元素创建失败
func NewLandingScene(rm *game.ResourceManager, sched *scheduler.Scheduler, settings *game.SettingsManager,
	audioContext *audio.Context, configPath string) (*LandingScene, error) {
	data, err := rm.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read hero config: %w", err)
	}
	cfg, err := config.ParseHeroConfig(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", configPath, err)
	}

	seqData, err := rm.ReadFile(cfg.Sequence)
	if err != nil {
		return nil, fmt.Errorf("failed to read sequence: %w", err)
	}
	segments, err := config.ParseSequence(seqData)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", cfg.Sequence, err)
	}

	s := &LandingScene{
		sched:           sched,
		resourceManager: rm,
		settings:        settings,
		audioContext:    audioContext,
		cfg:             cfg,
		entityManager:   ecs.NewEntityManager(),
		bus:             utils.NewInteractionBus(),
		showLoader:      true,
	}
	if settings != nil {
		s.muted = settings.GetSettings().Muted
	}

	s.stage = systems.NewStageSystem(s.entityManager)
	for i, el := range cfg.Elements {
		id, err := entities.NewStageElementEntity(s.entityManager, el, i, rm)
		if err != nil {
			return nil, err
		}
		s.stage.Register(id)
	}
	s.render = systems.NewRenderSystem(s.entityManager, s.stage)

	if s.loaderColor, err = config.ParseColor(cfg.Loader.Background); err != nil {
		return nil, err
	}
	if s.loaderFace, err = rm.LoadFont("", cfg.Loader.FontSize); err != nil {
		return nil, err
	}
	if s.hintFace, err = rm.LoadFont("", 14); err != nil {
		return nil, err
	}

	s.doc = scroll.NewVirtualDocument(0, 0)
	s.region = scroll.Region{ID: cfg.Scroll.RegionID}

	s.sequencer = hero.New(sched, s.doc, s.stage, s.measure, s.currentRegion, hero.Options{
		Segments:    segments,
		Builder:     cfg.BuilderOptions(),
		Scroll:      cfg.ScrollOptions(),
		Breakpoints: cfg.Viewport.Breakpoints,
		SettleDelay: cfg.SettleDelay(),
		Hooks: hero.Hooks{
			OnBeforeActivate:    func() { s.doc.ScrollTo(0) },
			OnAfterFirstRefresh: func() { s.showLoader = false },
			OnBuild: func(tl *timeline.Timeline) {
				log.Printf("[LandingScene] %d segments for %s", len(tl.Segments()), tl.Class())
			},
		},
	})

	s.loadImages()
	log.Printf("[LandingScene] Created with %d elements, %d segments", len(cfg.Elements), len(segments))
	return s, nil
}

// loadImages 异步加载所有元素图像，背景图决定动画何时开始
func (s *LandingScene) loadImages() {
	var bgSignal *readiness.Signal

	for _, el := range s.cfg.Elements {
		if el.Image == "" {
			continue
		}
		id := el.ID
		h := s.resourceManager.LoadImageAsync(el.Image)
		if h.Loaded() {
			s.stage.SetImage(id, h.Image())
		} else {
			s.unsubs = append(s.unsubs, h.Subscribe(func(ev readiness.Event) {
				if ev == readiness.EventLoad {
					s.stage.SetImage(id, h.Image())
				}
			}))
		}

		// 先订阅图像写入，再观察就绪：构建时背景图已经进入布局
		if id == s.cfg.Background.Target {
			gate := readiness.ObserveGate(h, s.sched)
			s.gates = append(s.gates, gate)
			bgSignal = gate.Signal()
		}
	}

	if bgSignal == nil {
		log.Printf("[LandingScene] Warning: background %q has no image, starting immediately", s.cfg.Background.Target)
		bgSignal = readiness.All(s.sched)
	}
	s.ready = bgSignal
}

// measure 按视口类别重新布局并测量背景图
func (s *LandingScene) measure(class viewport.Class) timeline.Metrics {
	s.stage.Layout(class, s.width, s.height)
	return s.stage.BackgroundMetrics(s.cfg.Background.Target)
}

// currentRegion 固定区域与视口等高
func (s *LandingScene) currentRegion() scroll.Region {
	s.region.Height = s.height
	return s.region
}

// contentHeight 未预留滚动距离时的页面高度
func contentHeight(viewportHeight, after float64) float64 {
	return viewportHeight * (1 + after)
}

// mount 第一次得到布局尺寸时挂载
func (s *LandingScene) mount() {
	s.mounted = true
	s.sequencer.Mount(s.ready, s.width)
	s.stage.Layout(s.sequencer.Class(), s.width, s.height)

	if s.cfg.Audio.Track == "" || s.audioContext == nil {
		return
	}
	s.musicHandle = s.resourceManager.LoadAudioAsync(s.cfg.Audio.Track)
	gate := readiness.ObserveGate(s.musicHandle, s.sched)
	s.gates = append(s.gates, gate)
	readiness.All(s.sched, s.ready, gate.Signal()).OnReady(s.startMusic)
}

func (s *LandingScene) startMusic() {
	if s.unmounted || s.music != nil {
		return
	}
	opts := s.cfg.BGMOptions(s.muted)
	opts.TargetVolume = musicTargetVolume(opts.TargetVolume, s.settings)
	s.media = game.NewMediaPlayer(s.audioContext, s.musicHandle.Player())
	s.music = bgm.NewController(s.sched, s.media, s.bus, opts)
	s.music.OnStateChange(func(st bgm.State) {
		log.Printf("[LandingScene] Music state: %s", st)
	})
	s.music.Start()
}

// musicTargetVolume 用户保存过音量时覆盖页面配置
func musicTargetVolume(configured float64, settings *game.SettingsManager) float64 {
	if settings == nil {
		return configured
	}
	if v, ok := settings.MusicVolume(); ok {
		return v
	}
	return configured
}

// Resize 实现 game.Resizable
func (s *LandingScene) Resize(width, height int) {
	if s.unmounted || width <= 0 || height <= 0 {
		return
	}
	s.width, s.height = float64(width), float64(height)
	s.doc.Resize(s.height, contentHeight(s.height, s.cfg.Scroll.ContentAfter))

	if !s.mounted {
		s.mount()
		return
	}
	s.sequencer.NotifyResize(s.width)
	s.stage.Layout(s.sequencer.Class(), s.width, s.height)
}

// Update 处理输入并推进滚动平滑
func (s *LandingScene) Update(deltaTime float64) {
	if !s.mounted || s.unmounted {
		return
	}

	s.interactions = utils.PollInteractions(s.interactions[:0])
	for _, ev := range s.interactions {
		if ev.Kind == utils.KeyDown && ev.Key == ebiten.KeyM {
			s.toggleMute()
		}
		s.bus.Dispatch(ev)
	}

	cmd := utils.ReadScrollCommand(s.cfg.Scroll.LineHeight, s.height*pageScrollRatio)
	switch {
	case cmd.ToTop:
		s.doc.ScrollTo(0)
	case cmd.ToBottom:
		s.doc.ScrollTo(s.doc.MaxScroll())
	}
	if cmd.Delta != 0 {
		s.doc.ScrollBy(cmd.Delta)
	}

	s.sequencer.Update(deltaTime)
}

// toggleMute 切换静音并保存偏好
func (s *LandingScene) toggleMute() {
	if s.music != nil {
		s.muted = s.music.ToggleMute()
	} else {
		s.muted = !s.muted
	}
	if s.settings == nil {
		return
	}
	s.settings.SetMuted(s.muted)
	if err := s.settings.Save(); err != nil {
		log.Printf("[LandingScene] Warning: failed to save settings: %v", err)
	}
}

// Draw 绘制固定区域、页脚与加载遮罩
func (s *LandingScene) Draw(screen *ebiten.Image) {
	screen.Fill(color.Black)
	if !s.mounted {
		return
	}

	region := s.currentRegion()
	originY := s.doc.RegionScreenY(region)
	s.render.Draw(screen, originY)

	// 页脚紧跟在固定区域之后，固定期间位于视口之外
	footerY := originY + region.Height
	if footerY < s.height {
		vector.DrawFilledRect(screen, 0, float32(footerY), float32(s.width), float32(s.height-footerY), footerColor, false)
		s.drawCentered(screen, "ROLET", s.loaderFace, s.width/2, footerY+s.height*s.cfg.Scroll.ContentAfter/2, hintColor)
	}

	// 移动端没有键盘，不显示静音快捷键提示
	if !utils.IsMobile() {
		label := "SOUND ON  [M]"
		if s.muted {
			label = "SOUND OFF  [M]"
		}
		op := &text.DrawOptions{}
		op.GeoM.Translate(16, s.height-32)
		op.ColorScale.ScaleWithColor(hintColor)
		text.Draw(screen, label, s.hintFace, op)
	}

	if s.showLoader {
		screen.Fill(s.loaderColor)
		s.drawCentered(screen, s.cfg.Loader.Text, s.loaderFace, s.width/2, s.height/2, color.White)
	}
}

func (s *LandingScene) drawCentered(screen *ebiten.Image, str string, face *text.GoTextFace, x, y float64, clr color.Color) {
	op := &text.DrawOptions{}
	op.PrimaryAlign = text.AlignCenter
	op.SecondaryAlign = text.AlignCenter
	op.GeoM.Translate(x, y)
	op.ColorScale.ScaleWithColor(clr)
	text.Draw(screen, str, face, op)
}

// Unmount 实现 game.Unmountable：同步复位所有动画并注销全部监听
func (s *LandingScene) Unmount() {
	if s.unmounted {
		return
	}
	s.unmounted = true

	s.sequencer.Unmount()
	if s.music != nil {
		s.music.Teardown()
	}
	if s.media != nil {
		s.media.Stop()
	}
	for _, g := range s.gates {
		g.Close()
	}
	for _, unsub := range s.unsubs {
		unsub()
	}
	s.unsubs = nil
	log.Printf("[LandingScene] Unmounted")
}

// Sequencer 页面的动画编排器
func (s *LandingScene) Sequencer() *hero.Sequencer {
	return s.sequencer
}

// Document 页面的滚动文档
func (s *LandingScene) Document() *scroll.VirtualDocument {
	return s.doc
}
