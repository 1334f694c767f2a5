// Package viewport 视口分类与尺寸变化协调
package viewport

import (
	"fmt"
	"strings"
)

// Class 视口类别
type Class int

const (
	Mobile Class = iota
	Tablet
	Desktop
)

// String 返回类别名称（与配置文件中的写法一致）
func (c Class) String() string {
	switch c {
	case Mobile:
		return "mobile"
	case Tablet:
		return "tablet"
	case Desktop:
		return "desktop"
	default:
		return fmt.Sprintf("Class(%d)", int(c))
	}
}

// ParseClass 解析类别名称（不区分大小写）
func ParseClass(name string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "mobile":
		return Mobile, nil
	case "tablet":
		return Tablet, nil
	case "desktop":
		return Desktop, nil
	}
	return Mobile, fmt.Errorf("unknown viewport class %q", name)
}

// Breakpoints 分类断点（像素）
//
// width < Tablet 为 Mobile，width < Desktop 为 Tablet，其余为 Desktop。
type Breakpoints struct {
	Tablet  float64 `yaml:"tablet"`
	Desktop float64 `yaml:"desktop"`
}

// DefaultBreakpoints 默认断点 768 / 1024
var DefaultBreakpoints = Breakpoints{Tablet: 768, Desktop: 1024}

// Classify 使用默认断点分类
func Classify(width float64) Class {
	return DefaultBreakpoints.Classify(width)
}

// Classify 根据宽度分类
// 全函数：NaN 与负数都落入 Mobile
func (b Breakpoints) Classify(width float64) Class {
	switch {
	case width >= b.Desktop:
		return Desktop
	case width >= b.Tablet:
		return Tablet
	default:
		return Mobile
	}
}
