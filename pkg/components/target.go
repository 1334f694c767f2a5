package components

// TargetComponent 标记一个可被时间轴驱动的舞台元素
type TargetComponent struct {
	// ID 元素 ID，与片段的 Target 对应（如 "leaf-1"）
	ID string
	// Layer 绘制层级，数值大的在上
	Layer int
	// Order 同层时的声明顺序
	Order int
	// Parent 父元素 ID，空表示直接挂在固定区域上
	Parent string
}
