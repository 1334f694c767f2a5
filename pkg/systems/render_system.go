package systems

import (
	"image/color"
	"math"

	"github.com/decker502/rolet/pkg/components"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// RenderSystem 绘制固定区域内的舞台元素
//
// 每个元素的变换按以下顺序组合：
//
//	以元素中心为原点 → 缩放(scale, scale×scaleY) → 旋转(rotation 度)
//	→ 平移到布局中心 + (x + xPercent%×宽, y + yPercent%×高) → 父元素变换
//
// 透明度与父元素相乘；透明度为 0 的元素及其子元素不绘制。
// 图像缺失时绘制 SpriteComponent.Fill 纯色块。
type RenderSystem struct {
	entityManager *ecs.EntityManager
	stage         *StageSystem
	pixel         *ebiten.Image
}

// NewRenderSystem 创建渲染系统
func NewRenderSystem(em *ecs.EntityManager, stage *StageSystem) *RenderSystem {
	pixel := ebiten.NewImage(1, 1)
	pixel.Fill(color.White)
	return &RenderSystem{
		entityManager: em,
		stage:         stage,
		pixel:         pixel,
	}
}

// Draw 绘制所有根元素及其子元素
// 参数:
//   - screen: 绘制目标
//   - originY: 固定区域顶部在屏幕上的 Y 坐标
func (s *RenderSystem) Draw(screen *ebiten.Image, originY float64) {
	var root ebiten.GeoM
	root.Translate(0, originY)

	children := make(map[string][]ecs.EntityID)
	var roots []ecs.EntityID
	for _, id := range s.stage.sortedIDs() {
		target, _ := ecs.GetComponent[*components.TargetComponent](s.entityManager, id)
		if target.Parent != "" {
			children[target.Parent] = append(children[target.Parent], id)
			continue
		}
		roots = append(roots, id)
	}

	for _, id := range roots {
		s.drawTree(screen, id, root, 1, children)
	}
}

func (s *RenderSystem) drawTree(screen *ebiten.Image, id ecs.EntityID, parent ebiten.GeoM, parentAlpha float64, children map[string][]ecs.EntityID) {
	target, _ := ecs.GetComponent[*components.TargetComponent](s.entityManager, id)
	layout, ok := ecs.GetComponent[*components.LayoutComponent](s.entityManager, id)
	if !ok {
		return
	}
	visual, ok := ecs.GetComponent[*components.VisualComponent](s.entityManager, id)
	if !ok {
		visual = &components.VisualComponent{}
	}

	alpha := parentAlpha * clampAlpha(visual.Value(timeline.Opacity))
	if alpha <= 0 {
		return
	}

	geo := ElementGeoM(layout, visual)
	geo.Concat(parent)

	s.drawContent(screen, id, layout, geo, alpha)

	for _, child := range children[target.ID] {
		s.drawTree(screen, child, geo, alpha, children)
	}
}

// ElementGeoM 计算元素内容空间（左上角为原点，尺寸为布局宽高）到父空间的变换
func ElementGeoM(layout *components.LayoutComponent, visual *components.VisualComponent) ebiten.GeoM {
	w, h := layout.Width, layout.Height
	scale := visual.Value(timeline.Scale)
	scaleY := visual.Value(timeline.ScaleY)

	// 原点在水平中线上，纵向位置由 Origin 决定
	oy := h * layout.Element.OriginY()

	var g ebiten.GeoM
	g.Translate(-w/2, -oy)
	g.Scale(scale, scale*scaleY)
	g.Rotate(visual.Value(timeline.Rotation) * math.Pi / 180)
	g.Translate(
		layout.CenterX+visual.Value(timeline.X)+visual.Value(timeline.XPercent)/100*w,
		layout.CenterY-h/2+oy+visual.Value(timeline.Y)+visual.Value(timeline.YPercent)/100*h,
	)
	return g
}

func (s *RenderSystem) drawContent(screen *ebiten.Image, id ecs.EntityID, layout *components.LayoutComponent, geo ebiten.GeoM, alpha float64) {
	brightness := layout.Element.Brightness
	if brightness <= 0 {
		brightness = 1
	}

	if txt, ok := ecs.GetComponent[*components.TextComponent](s.entityManager, id); ok {
		s.drawText(screen, txt, layout, geo, alpha)
		return
	}

	sprite, ok := ecs.GetComponent[*components.SpriteComponent](s.entityManager, id)
	if !ok {
		return
	}

	op := &ebiten.DrawImageOptions{}
	op.Filter = ebiten.FilterLinear
	if sprite.Image != nil {
		b := sprite.Image.Bounds()
		op.GeoM.Scale(layout.Width/float64(b.Dx()), layout.Height/float64(b.Dy()))
		op.GeoM.Concat(geo)
		op.ColorScale.Scale(float32(brightness), float32(brightness), float32(brightness), 1)
		op.ColorScale.ScaleAlpha(float32(alpha))
		screen.DrawImage(sprite.Image, op)
		return
	}

	if sprite.Fill.A == 0 {
		return
	}
	op.GeoM.Scale(layout.Width, layout.Height)
	op.GeoM.Concat(geo)
	op.ColorScale.ScaleWithColor(sprite.Fill)
	op.ColorScale.Scale(float32(brightness), float32(brightness), float32(brightness), 1)
	op.ColorScale.ScaleAlpha(float32(alpha))
	screen.DrawImage(s.pixel, op)
}

func (s *RenderSystem) drawText(screen *ebiten.Image, txt *components.TextComponent, layout *components.LayoutComponent, geo ebiten.GeoM, alpha float64) {
	scale := s.stage.TextScale()
	y := 0.0

	drawLines := func(lines []string, face *text.GoTextFace, clr color.NRGBA) {
		if face == nil {
			return
		}
		lineH := face.Size * lineSpacing
		for _, line := range lines {
			op := &text.DrawOptions{}
			op.PrimaryAlign = text.AlignCenter
			op.GeoM.Scale(scale, scale)
			op.GeoM.Translate(layout.Width/2, y)
			op.GeoM.Concat(geo)
			op.ColorScale.ScaleWithColor(clr)
			op.ColorScale.ScaleAlpha(float32(alpha))
			text.Draw(screen, line, face, op)
			y += lineH * scale
		}
	}

	drawLines(txt.Lines, txt.Face, txt.Color)
	if len(txt.Subtext) > 0 && txt.SubFace != nil {
		y += txt.SubFace.Size * scale
		drawLines(txt.Subtext, txt.SubFace, txt.SubColor)
	}
}

func clampAlpha(a float64) float64 {
	if math.IsNaN(a) || a < 0 {
		return 0
	}
	if a > 1 {
		return 1
	}
	return a
}
