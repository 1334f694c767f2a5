package systems

import (
	"math"
	"testing"

	"github.com/decker502/rolet/pkg/components"
	"github.com/decker502/rolet/pkg/config"
	"github.com/decker502/rolet/pkg/ecs"
	"github.com/decker502/rolet/pkg/timeline"
	"github.com/decker502/rolet/pkg/viewport"
	"github.com/hajimehoshi/ebiten/v2"
)

// addElement 创建只带图像占位的元素并登记
func addElement(em *ecs.EntityManager, stage *StageSystem, el config.ElementConfig, order int) ecs.EntityID {
	id := em.CreateEntity()
	ecs.AddComponent(em, id, &components.TargetComponent{ID: el.ID, Layer: el.Layer, Order: order, Parent: el.Parent})
	ecs.AddComponent(em, id, &components.VisualComponent{Rest: el.Rest.Clone()})
	ecs.AddComponent(em, id, &components.LayoutComponent{Element: el})
	ecs.AddComponent(em, id, &components.SpriteComponent{})
	stage.Register(id)
	return id
}

func near(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

// TestStageApplyAndReset 测试 Applier 写入与复位
func TestStageApplyAndReset(t *testing.T) {
	em := ecs.NewEntityManager()
	stage := NewStageSystem(em)
	id := addElement(em, stage, config.ElementConfig{
		ID:   "product-main",
		Rest: timeline.VisualState{timeline.Rotation: -20},
	}, 0)

	visual, _ := ecs.GetComponent[*components.VisualComponent](em, id)
	if got := visual.Value(timeline.Rotation); got != -20 {
		t.Fatalf("静止旋转 = %v, 期望 -20", got)
	}

	stage.Apply("product-main", timeline.VisualState{timeline.Y: 250, timeline.Opacity: 0})
	stage.Apply("product-main", timeline.VisualState{timeline.Opacity: 0.5})
	if visual.Value(timeline.Y) != 250 || visual.Value(timeline.Opacity) != 0.5 {
		t.Errorf("写入后状态 = %v", visual.State)
	}
	if got := visual.Value(timeline.Rotation); got != -20 {
		t.Errorf("未写入的属性应保持静止值, 得到 %v", got)
	}

	stage.Reset("product-main")
	if visual.State != nil {
		t.Errorf("Reset 后 State 应为空, 得到 %v", visual.State)
	}
	if visual.Value(timeline.Opacity) != 1 {
		t.Error("Reset 后透明度应回到 1")
	}

	// 未登记的目标被忽略
	stage.Apply("nobody", timeline.VisualState{timeline.X: 1})
	stage.Reset("nobody")
}

// TestStageLayout 测试布局计算
func TestStageLayout(t *testing.T) {
	em := ecs.NewEntityManager()
	stage := NewStageSystem(em)

	product := addElement(em, stage, config.ElementConfig{
		ID:    "product-main",
		Place: config.Placement{CenterX: 0.5, CenterY: 0.55, Width: 0.3, MaxWidth: 400, Aspect: 1.3},
		Layouts: map[string]config.Placement{
			"mobile": {CenterX: 0.5, CenterY: 0.5, Width: 0.6, Aspect: 1},
		},
	}, 0)
	container := addElement(em, stage, config.ElementConfig{
		ID:    "incense-container",
		Place: config.Placement{CenterX: 0.7, CenterY: 0.5, Width: 0.1, Aspect: 4},
	}, 1)
	holder := addElement(em, stage, config.ElementConfig{
		ID:     "incense-holder",
		Parent: "incense-container",
		Place:  config.Placement{CenterX: 0.5, CenterY: 1, Width: 1.5, Aspect: 0.3},
	}, 2)

	tests := []struct {
		name          string
		class         viewport.Class
		width, height float64
		id            ecs.EntityID
		cx, cy, w, h  float64
	}{
		{"桌面端宽度受上限约束", viewport.Desktop, 1600, 900, product, 800, 495, 400, 520},
		{"桌面端宽度未达上限", viewport.Desktop, 1200, 800, product, 600, 440, 360, 468},
		{"移动端使用覆盖摆放", viewport.Mobile, 400, 800, product, 200, 400, 240, 240},
		{"子元素相对父元素", viewport.Desktop, 1000, 800, holder, 50, 400, 150, 45},
		{"父元素", viewport.Desktop, 1000, 800, container, 700, 400, 100, 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stage.Layout(tt.class, tt.width, tt.height)
			l, _ := ecs.GetComponent[*components.LayoutComponent](em, tt.id)
			if !near(l.CenterX, tt.cx) || !near(l.CenterY, tt.cy) || !near(l.Width, tt.w) || !near(l.Height, tt.h) {
				t.Errorf("布局 = (%v, %v, %v×%v), 期望 (%v, %v, %v×%v)",
					l.CenterX, l.CenterY, l.Width, l.Height, tt.cx, tt.cy, tt.w, tt.h)
			}
		})
	}
}

// TestStageBackgroundMetrics 测试背景图测量
func TestStageBackgroundMetrics(t *testing.T) {
	em := ecs.NewEntityManager()
	stage := NewStageSystem(em)
	bg := addElement(em, stage, config.ElementConfig{ID: "background", Cover: true}, 0)
	stage.Layout(viewport.Desktop, 1000, 800)

	t.Run("图像未加载时不平移", func(t *testing.T) {
		m := stage.BackgroundMetrics("background")
		if m.MaxMovePercent() != 0 {
			t.Errorf("MaxMovePercent = %v, 期望 0", m.MaxMovePercent())
		}
	})

	t.Run("加载后按 cover 计算", func(t *testing.T) {
		stage.SetImage("background", ebiten.NewImage(500, 1000))
		m := stage.BackgroundMetrics("background")
		// 宽度铺满：1000/500 = 2，显示高度 2000
		if !near(m.DisplayedImageHeight, 2000) || !near(m.ContainerHeight, 800) {
			t.Errorf("Metrics = %+v", m)
		}
		if !near(m.MaxMovePercent(), 60) {
			t.Errorf("MaxMovePercent = %v, 期望 60", m.MaxMovePercent())
		}

		l, _ := ecs.GetComponent[*components.LayoutComponent](em, bg)
		if !near(l.Width, 1000) || !near(l.Height, 2000) || !near(l.CenterY, 1000) {
			t.Errorf("背景布局 = %+v", l)
		}
	})

	t.Run("未知目标", func(t *testing.T) {
		if m := stage.BackgroundMetrics("nobody"); m.MaxMovePercent() != 0 {
			t.Errorf("未知目标不应平移, 得到 %v", m.MaxMovePercent())
		}
	})
}

// TestStageDrawOrder 测试绘制顺序
func TestStageDrawOrder(t *testing.T) {
	em := ecs.NewEntityManager()
	stage := NewStageSystem(em)
	a := addElement(em, stage, config.ElementConfig{ID: "cta-final", Layer: 45}, 0)
	b := addElement(em, stage, config.ElementConfig{ID: "leaf-2", Layer: 10}, 2)
	c := addElement(em, stage, config.ElementConfig{ID: "leaf-1", Layer: 10}, 1)

	got := stage.sortedIDs()
	want := []ecs.EntityID{c, b, a}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("顺序 = %v, 期望 %v", got, want)
		}
	}
}

// TestElementGeoM 测试元素变换
func TestElementGeoM(t *testing.T) {
	tests := []struct {
		name   string
		origin string
		state  timeline.VisualState
		px, py float64 // 内容空间的点
		wx, wy float64 // 期望的父空间坐标
	}{
		{"静止时中心对齐", "", nil, 20, 10, 100, 200},
		{"平移", "", timeline.VisualState{timeline.X: 5, timeline.Y: -7}, 20, 10, 105, 193},
		{"百分比平移", "", timeline.VisualState{timeline.XPercent: -50, timeline.YPercent: 10}, 20, 10, 80, 202},
		{"缩放以中心为原点", "", timeline.VisualState{timeline.Scale: 2}, 0, 0, 60, 180},
		{"scaleY 只作用于纵向", "", timeline.VisualState{timeline.ScaleY: 0.5}, 0, 0, 80, 195},
		{"旋转 90 度", "", timeline.VisualState{timeline.Rotation: 90}, 40, 10, 100, 220},
		{"底边原点静止时中心对齐", "bottom", nil, 20, 10, 100, 200},
		{"底边原点 scaleY 时底边不动", "bottom", timeline.VisualState{timeline.ScaleY: 0.5}, 0, 20, 80, 210},
		{"底边原点 scaleY 时顶边下移", "bottom", timeline.VisualState{timeline.ScaleY: 0.5}, 0, 0, 80, 200},
		{"顶边原点 scaleY 时顶边不动", "top", timeline.VisualState{timeline.ScaleY: 0.5}, 0, 0, 80, 190},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := &components.LayoutComponent{CenterX: 100, CenterY: 200, Width: 40, Height: 20}
			layout.Element.Origin = tt.origin
			visual := &components.VisualComponent{State: tt.state}
			g := ElementGeoM(layout, visual)
			x, y := g.Apply(tt.px, tt.py)
			if math.Abs(x-tt.wx) > 1e-6 || math.Abs(y-tt.wy) > 1e-6 {
				t.Errorf("Apply(%v, %v) = (%v, %v), 期望 (%v, %v)", tt.px, tt.py, x, y, tt.wx, tt.wy)
			}
		})
	}
}
