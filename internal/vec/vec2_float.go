package vec

import "math"

// Vec2Float представляет 2D координаты внутри зоны
type Vec2Float struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// Add складывает два вектора
func (v Vec2Float) Add(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X + other.X, Y: v.Y + other.Y}
}

// Sub вычитает вектор
func (v Vec2Float) Sub(other Vec2Float) Vec2Float {
	return Vec2Float{X: v.X - other.X, Y: v.Y - other.Y}
}

// Mul умножает вектор на скаляр
func (v Vec2Float) Mul(scalar float64) Vec2Float {
	return Vec2Float{X: v.X * scalar, Y: v.Y * scalar}
}

// Length возвращает длину вектора
func (v Vec2Float) Length() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// DistanceTo вычисляет евклидово расстояние до другой точки
func (v Vec2Float) DistanceTo(other Vec2Float) float64 {
	return v.Sub(other).Length()
}

// IsFinite проверяет, что обе координаты конечны (не NaN и не Inf)
func (v Vec2Float) IsFinite() bool {
	return !math.IsNaN(v.X) && !math.IsNaN(v.Y) && !math.IsInf(v.X, 0) && !math.IsInf(v.Y, 0)
}

// Rect описывает прямоугольные границы зоны.
// Нулевой Rect означает "границы неизвестны" и содержит любую конечную точку.
type Rect struct {
	Min Vec2Float `json:"min" yaml:"min"`
	Max Vec2Float `json:"max" yaml:"max"`
}

// IsZero возвращает true, если границы не заданы
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Valid проверяет, что Min не превышает Max по обеим осям
func (r Rect) Valid() bool {
	return r.Min.IsFinite() && r.Max.IsFinite() && r.Min.X <= r.Max.X && r.Min.Y <= r.Max.Y
}

// Contains проверяет попадание точки в границы (включительно)
func (r Rect) Contains(p Vec2Float) bool {
	if !p.IsFinite() {
		return false
	}
	if r.IsZero() {
		return true
	}
	return p.X >= r.Min.X && p.X <= r.Max.X && p.Y >= r.Min.Y && p.Y <= r.Max.Y
}

// Center возвращает центр прямоугольника
func (r Rect) Center() Vec2Float {
	return r.Min.Add(r.Max).Mul(0.5)
}
