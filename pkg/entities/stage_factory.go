package entities

import (
	"fmt"
	"image/color"

	"github.com/decker502/rolet/pkg/components"
	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// FontLoader 创建指定字号的字体（game.ResourceManager 实现）
type FontLoader interface {
	LoadFont(path string, size float64) (*text.GoTextFace, error)
}

// subtextScale 副标题字号 / 标题字号
const subtextScale = 0.45

// NewStageElementEntity 创建舞台元素实体
//
// 参数：
//   - em: 实体管理器
//   - el: 元素配置
//   - order: 声明顺序（同层绘制顺序）
//   - fonts: 字体加载器，文字元素需要；纯图像元素可为 nil
//
// 返回：
//   - 元素实体ID
//   - 错误信息（颜色非法或字体加载失败）
//
// 图像不在这里加载：场景异步加载完成后通过 StageSystem.SetImage 填入。
func NewStageElementEntity(em *ecs.EntityManager, el config.ElementConfig, order int, fonts FontLoader) (ecs.EntityID, error) {
	fill := color.NRGBA{}
	if el.Color != "" {
		c, err := config.ParseColor(el.Color)
		if err != nil {
			return 0, fmt.Errorf("element %s: %w", el.ID, err)
		}
		fill = c
	}

	var txt *components.TextComponent
	if len(el.Text) > 0 || len(el.Subtext) > 0 {
		if fonts == nil {
			return 0, fmt.Errorf("element %s: text element needs a font loader", el.ID)
		}
		face, err := fonts.LoadFont("", el.FontSize)
		if err != nil {
			return 0, fmt.Errorf("element %s: %w", el.ID, err)
		}
		subFace, err := fonts.LoadFont("", el.FontSize*subtextScale)
		if err != nil {
			return 0, fmt.Errorf("element %s: %w", el.ID, err)
		}

		textColor := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
		if el.Color != "" {
			textColor = fill
		}
		subColor := textColor
		if el.SubColor != "" {
			c, err := config.ParseColor(el.SubColor)
			if err != nil {
				return 0, fmt.Errorf("element %s: %w", el.ID, err)
			}
			subColor = c
		}

		txt = &components.TextComponent{
			Lines:    el.Text,
			Face:     face,
			Color:    textColor,
			Subtext:  el.Subtext,
			SubFace:  subFace,
			SubColor: subColor,
		}
	}

	entity := em.CreateEntity()

	ecs.AddComponent(em, entity, &components.TargetComponent{
		ID:     el.ID,
		Layer:  el.Layer,
		Order:  order,
		Parent: el.Parent,
	})
	ecs.AddComponent(em, entity, &components.VisualComponent{
		Rest: el.Rest.Clone(),
	})
	ecs.AddComponent(em, entity, &components.LayoutComponent{
		Element: el,
	})

	if txt != nil {
		ecs.AddComponent(em, entity, txt)
	} else {
		ecs.AddComponent(em, entity, &components.SpriteComponent{Fill: fill})
	}

	return entity, nil
}
