package entities

import (
	"errors"
	"image/color"
	"testing"

	"github.com/decker502/rolet/pkg/components"
	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
)

// fakeFonts 记录请求的字号
type fakeFonts struct {
	sizes []float64
	err   error
}

func (f *fakeFonts) LoadFont(path string, size float64) (*text.GoTextFace, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sizes = append(f.sizes, size)
	return &text.GoTextFace{Size: size}, nil
}

// TestNewStageElementEntityImage 测试图像元素
func TestNewStageElementEntityImage(t *testing.T) {
	em := ecs.NewEntityManager()
	el := config.ElementConfig{
		ID:     "incense-holder",
		Layer:  25,
		Parent: "incense-container",
		Image:  "assets/images/holder.png",
		Color:  "#c9a86a",
		Rest:   timeline.VisualState{timeline.Opacity: 0},
	}

	id, err := NewStageElementEntity(em, el, 3, nil)
	if err != nil {
		t.Fatalf("NewStageElementEntity() failed: %v", err)
	}

	target, ok := ecs.GetComponent[*components.TargetComponent](em, id)
	if !ok || target.ID != "incense-holder" || target.Parent != "incense-container" || target.Order != 3 || target.Layer != 25 {
		t.Errorf("TargetComponent = %+v", target)
	}

	sprite, ok := ecs.GetComponent[*components.SpriteComponent](em, id)
	if !ok {
		t.Fatal("缺少 SpriteComponent")
	}
	if sprite.Image != nil {
		t.Error("图像应由场景异步填入")
	}
	if sprite.Fill != (color.NRGBA{R: 0xc9, G: 0xa8, B: 0x6a, A: 0xff}) {
		t.Errorf("Fill = %+v", sprite.Fill)
	}

	visual, _ := ecs.GetComponent[*components.VisualComponent](em, id)
	if visual.Value(timeline.Opacity) != 0 {
		t.Error("静止透明度应为 0")
	}
	// 静止状态是副本
	el.Rest[timeline.Opacity] = 1
	if visual.Value(timeline.Opacity) != 0 {
		t.Error("修改配置不应影响实体")
	}
}

// TestNewStageElementEntityText 测试文字元素
func TestNewStageElementEntityText(t *testing.T) {
	em := ecs.NewEntityManager()
	fonts := &fakeFonts{}
	el := config.ElementConfig{
		ID:       "feature-1",
		Text:     []string{"Soothing Fragrance"},
		Subtext:  []string{"LONG-LASTING SCENT"},
		FontSize: 40,
		SubColor: "#bbf7d0",
	}

	id, err := NewStageElementEntity(em, el, 0, fonts)
	if err != nil {
		t.Fatalf("NewStageElementEntity() failed: %v", err)
	}

	txt, ok := ecs.GetComponent[*components.TextComponent](em, id)
	if !ok {
		t.Fatal("缺少 TextComponent")
	}
	if txt.Face.Size != 40 || txt.SubFace.Size != 18 {
		t.Errorf("字号 = %v / %v, 期望 40 / 18", txt.Face.Size, txt.SubFace.Size)
	}
	if txt.Color != (color.NRGBA{R: 255, G: 255, B: 255, A: 255}) {
		t.Errorf("默认文字颜色应为白色, 得到 %+v", txt.Color)
	}
	if txt.SubColor.G != 0xf7 {
		t.Errorf("SubColor = %+v", txt.SubColor)
	}
	if ecs.HasComponent[*components.SpriteComponent](em, id) {
		t.Error("文字元素不应带 SpriteComponent")
	}
}

// TestNewStageElementEntityErrors 测试创建失败
func TestNewStageElementEntityErrors(t *testing.T) {
	tests := []struct {
		name  string
		el    config.ElementConfig
		fonts FontLoader
	}{
		{"颜色非法", config.ElementConfig{ID: "a", Color: "#12"}, nil},
		{"文字元素缺少字体加载器", config.ElementConfig{ID: "a", Text: []string{"x"}}, nil},
		{"字体加载失败", config.ElementConfig{ID: "a", Text: []string{"x"}}, &fakeFonts{err: errors.New("boom")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			em := ecs.NewEntityManager()
			if _, err := NewStageElementEntity(em, tt.el, 0, tt.fonts); err == nil {
				t.Error("期望返回错误")
			}
			if em.Count() != 0 {
				t.Errorf("失败时不应创建实体, Count = %d", em.Count())
			}
		})
	}
}
