package systems

import (
	"log"
	"math"
	"sort"

	"github.com/decker502/rolet/pkg/components"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
	"github.com/hajimehoshi/ebiten/v2"
)

// lineSpacing 行高 / 字号
const lineSpacing = 1.25

// StageSystem 管理固定区域内的舞台元素
//
// 职责：
//   - 实现 timeline.Applier：把时间轴的状态写入 VisualComponent
//   - 按视口类别和容器尺寸计算每个元素的布局
//   - 提供背景图的测量结果（用于背景平移距离）
//
// 所有方法只在游戏主循环协程调用。
type StageSystem struct {
	entityManager *ecs.EntityManager
	byID          map[string]ecs.EntityID

	class  viewport.Class
	width  float64
	height float64
}

// NewStageSystem 创建舞台系统
func NewStageSystem(em *ecs.EntityManager) *StageSystem {
	return &StageSystem{
		entityManager: em,
		byID:          make(map[string]ecs.EntityID),
		class:         viewport.Desktop,
	}
}

// Register 登记一个已创建的元素实体
func (s *StageSystem) Register(id ecs.EntityID) {
	target, ok := ecs.GetComponent[*components.TargetComponent](s.entityManager, id)
	if !ok {
		log.Printf("[StageSystem] Warning: entity %d has no TargetComponent", id)
		return
	}
	s.byID[target.ID] = id
}

// Entity 按元素 ID 查找实体
func (s *StageSystem) Entity(target string) (ecs.EntityID, bool) {
	id, ok := s.byID[target]
	return id, ok
}

// Apply 写入元素的视觉状态（timeline.Applier）
// 未登记的目标被忽略
func (s *StageSystem) Apply(target string, state timeline.VisualState) {
	visual := s.visual(target)
	if visual == nil {
		return
	}
	if visual.State == nil {
		visual.State = make(timeline.VisualState, len(state))
	}
	for p, v := range state {
		visual.State[p] = v
	}
}

// Reset 清除时间轴写入的状态，元素回到静止状态（timeline.Applier）
func (s *StageSystem) Reset(target string) {
	if visual := s.visual(target); visual != nil {
		visual.State = nil
	}
}

func (s *StageSystem) visual(target string) *components.VisualComponent {
	id, ok := s.byID[target]
	if !ok {
		return nil
	}
	visual, ok := ecs.GetComponent[*components.VisualComponent](s.entityManager, id)
	if !ok {
		return nil
	}
	return visual
}

// SetImage 设置元素图像（异步加载完成后调用），之后重新布局
func (s *StageSystem) SetImage(target string, img *ebiten.Image) {
	id, ok := s.byID[target]
	if !ok {
		return
	}
	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok {
		return
	}
	sprite.Image = img
	s.Layout(s.class, s.width, s.height)
}

// Size 当前容器尺寸
func (s *StageSystem) Size() (float64, float64) {
	return s.width, s.height
}

// Class 当前布局使用的视口类别
func (s *StageSystem) Class() viewport.Class {
	return s.class
}

// Layout 按视口类别与容器尺寸计算所有元素的布局
// 父元素先于子元素计算，子元素坐标相对父元素左上角
func (s *StageSystem) Layout(class viewport.Class, width, height float64) {
	s.class = class
	s.width = width
	s.height = height

	done := make(map[ecs.EntityID]bool, len(s.byID))
	var layout func(id ecs.EntityID)
	layout = func(id ecs.EntityID) {
		if done[id] {
			return
		}
		done[id] = true

		target, _ := ecs.GetComponent[*components.TargetComponent](s.entityManager, id)
		parentW, parentH := width, height
		if target.Parent != "" {
			if pid, ok := s.byID[target.Parent]; ok {
				layout(pid)
				if pl, ok := ecs.GetComponent[*components.LayoutComponent](s.entityManager, pid); ok {
					parentW, parentH = pl.Width, pl.Height
				}
			}
		}
		s.layoutOne(id, parentW, parentH)
	}

	for _, id := range s.sortedIDs() {
		layout(id)
	}
}

func (s *StageSystem) layoutOne(id ecs.EntityID, parentW, parentH float64) {
	l, ok := ecs.GetComponent[*components.LayoutComponent](s.entityManager, id)
	if !ok {
		return
	}
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	txt, _ := ecs.GetComponent[*components.TextComponent](s.entityManager, id)

	if l.Element.Cover {
		nw, nh := imageSize(sprite)
		m := timeline.CoverMetrics(nw, nh, parentW, parentH)
		l.Height = m.DisplayedImageHeight
		l.Width = parentW
		if nh > 0 {
			l.Width = nw * l.Height / nh
		}
		l.CenterX = parentW / 2
		l.CenterY = l.Height / 2
		return
	}

	place := l.Placement(s.class)
	w := place.Width * parentW
	if place.MaxWidth > 0 && w > place.MaxWidth {
		w = place.MaxWidth
	}

	var h float64
	switch {
	case txt != nil:
		h = textBlockHeight(txt, s.TextScale())
	case sprite != nil && sprite.Image != nil:
		nw, nh := imageSize(sprite)
		h = w * nh / nw
	case place.Aspect > 0:
		h = w * place.Aspect
	default:
		h = w
	}

	l.Width = w
	l.Height = h
	l.CenterX = place.CenterX * parentW
	l.CenterY = place.CenterY * parentH
}

// TextScale 文字相对配置字号的缩放，随容器宽度在 [0.45, 1] 间变化
func (s *StageSystem) TextScale() float64 {
	if s.width <= 0 {
		return 1
	}
	return math.Max(0.45, math.Min(1, s.width/1280))
}

// BackgroundMetrics 返回目标元素（背景图）按 cover 铺满容器后的测量结果
func (s *StageSystem) BackgroundMetrics(target string) timeline.Metrics {
	id, ok := s.byID[target]
	if !ok {
		return timeline.Metrics{DisplayedImageHeight: s.height, ContainerHeight: s.height}
	}
	sprite, _ := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	nw, nh := imageSize(sprite)
	return timeline.CoverMetrics(nw, nh, s.width, s.height)
}

// sortedIDs 按绘制顺序（层级、声明顺序）返回实体
func (s *StageSystem) sortedIDs() []ecs.EntityID {
	ids := make([]ecs.EntityID, 0, len(s.byID))
	for _, id := range s.byID {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool {
		ti, _ := ecs.GetComponent[*components.TargetComponent](s.entityManager, ids[i])
		tj, _ := ecs.GetComponent[*components.TargetComponent](s.entityManager, ids[j])
		if ti.Layer != tj.Layer {
			return ti.Layer < tj.Layer
		}
		return ti.Order < tj.Order
	})
	return ids
}

func imageSize(sprite *components.SpriteComponent) (float64, float64) {
	if sprite == nil || sprite.Image == nil {
		return 0, 0
	}
	b := sprite.Image.Bounds()
	return float64(b.Dx()), float64(b.Dy())
}

func textBlockHeight(txt *components.TextComponent, scale float64) float64 {
	h := 0.0
	if txt.Face != nil {
		h += float64(len(txt.Lines)) * txt.Face.Size * lineSpacing
	}
	if txt.SubFace != nil && len(txt.Subtext) > 0 {
		h += float64(len(txt.Subtext))*txt.SubFace.Size*lineSpacing + txt.SubFace.Size
	}
	return h * scale
}
