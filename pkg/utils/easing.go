package utils

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Easing Functions (缓动函数)
//
// 缓动函数控制片段内部的速度曲线。
// 所有函数接受进度 t ∈ [0, 1]，f(0)=0，f(1)=1；elastic 中途允许越界。
//
// 命名沿用页面动画常用写法："none"、"power3.out"、"sine.inOut"、
// "elastic.out(1,0.5)"。省略方向时默认为 out。

// EasingFunc 缓动函数
type EasingFunc func(t float64) float64

// EaseLinear 线性缓动（none / power0）
func EaseLinear(t float64) float64 {
	return t
}

// EaseOutCubic 三次方缓出（power2.out）
// 公式：f(t) = 1 - (1-t)³
func EaseOutCubic(t float64) float64 {
	return 1 - math.Pow(1-t, 3)
}

// EaseInCubic 三次方缓入（power2.in）
func EaseInCubic(t float64) float64 {
	return t * t * t
}

// EaseInOutCubic 三次方缓入缓出（power2.inOut）
func EaseInOutCubic(t float64) float64 {
	return powerInOut(3)(t)
}

// EaseOutExpo 指数缓出
// 公式：f(t) = 1 - 2^(-10t)，t=1 时精确返回 1
func EaseOutExpo(t float64) float64 {
	if t >= 1.0 {
		return 1.0
	}
	return 1 - math.Pow(2, -10*t)
}

func powerIn(exp float64) EasingFunc {
	return func(t float64) float64 {
		return math.Pow(t, exp)
	}
}

func powerOut(exp float64) EasingFunc {
	return func(t float64) float64 {
		return 1 - math.Pow(1-t, exp)
	}
}

func powerInOut(exp float64) EasingFunc {
	return func(t float64) float64 {
		if t < 0.5 {
			return math.Pow(2*t, exp) / 2
		}
		return 1 - math.Pow(2*(1-t), exp)/2
	}
}

func sineIn(t float64) float64 {
	return 1 - math.Cos(t*math.Pi/2)
}

func sineOut(t float64) float64 {
	return math.Sin(t * math.Pi / 2)
}

func sineInOut(t float64) float64 {
	return -(math.Cos(math.Pi*t) - 1) / 2
}

// ElasticOut 弹性缓出
//
// 参数:
//   - amplitude: 振幅，小于 1 时按 1 处理
//   - period: 周期，<=0 时使用 0.3
func ElasticOut(amplitude, period float64) EasingFunc {
	if period <= 0 {
		period = 0.3
	}
	if amplitude < 1 {
		period /= math.Max(amplitude, 1e-6)
		amplitude = 1
	}
	shift := period / (2 * math.Pi) * math.Asin(1/amplitude)
	freq := 2 * math.Pi / period

	return func(t float64) float64 {
		if t <= 0 {
			return 0
		}
		if t >= 1 {
			return 1
		}
		return amplitude*math.Pow(2, -10*t)*math.Sin((t-shift)*freq) + 1
	}
}

// powerExponents power0..power4 对应的指数
var powerExponents = map[string]float64{
	"power0": 1,
	"power1": 2,
	"power2": 3,
	"power3": 4,
	"power4": 5,
}

// Easing 按名称查找缓动函数
//
// 参数:
//   - name: 缓动名称，空字符串等同于 "none"
//
// 返回:
//   - EasingFunc: 缓动函数
//   - error: 名称无法识别时返回错误
func Easing(name string) (EasingFunc, error) {
	raw := strings.TrimSpace(name)
	if raw == "" || raw == "none" || raw == "linear" {
		return EaseLinear, nil
	}

	base, args, err := splitEasingArgs(raw)
	if err != nil {
		return nil, err
	}

	family, dir := base, "out"
	if i := strings.IndexByte(base, '.'); i >= 0 {
		family, dir = base[:i], base[i+1:]
	}

	if exp, ok := powerExponents[family]; ok && len(args) == 0 {
		switch dir {
		case "in":
			return powerIn(exp), nil
		case "out":
			return powerOut(exp), nil
		case "inOut":
			return powerInOut(exp), nil
		}
	}

	switch family {
	case "sine":
		if len(args) == 0 {
			switch dir {
			case "in":
				return sineIn, nil
			case "out":
				return sineOut, nil
			case "inOut":
				return sineInOut, nil
			}
		}
	case "expo":
		if dir == "out" && len(args) == 0 {
			return EaseOutExpo, nil
		}
	case "elastic":
		if dir == "out" {
			amp, period := 1.0, 0.3
			if len(args) > 0 {
				amp = args[0]
			}
			if len(args) > 1 {
				period = args[1]
			}
			return ElasticOut(amp, period), nil
		}
	}

	return nil, fmt.Errorf("unknown easing %q", name)
}

// splitEasingArgs 拆分 "elastic.out(1,0.5)" 形式的参数
func splitEasingArgs(s string) (string, []float64, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 {
		return s, nil, nil
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, fmt.Errorf("malformed easing %q", s)
	}

	var args []float64
	for _, part := range strings.Split(s[open+1:len(s)-1], ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return "", nil, fmt.Errorf("malformed easing %q: %w", s, err)
		}
		args = append(args, v)
	}
	return strings.TrimSpace(s[:open]), args, nil
}

// Lerp 线性插值
// t=0 返回 a，t=1 返回 b
func Lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
