// Package tonemap maps the resolved high-range color buffer into display range with a selectable
// curve. The curves are evaluated on the GPU by the fullscreen tone-map program; the CPU versions
// in this file are the reference the program mirrors.
package tonemap

import (
	"fmt"
	"strings"

	"github.com/chewxy/math32"
)

// Operator is a tone-mapping curve.
type Operator uint32

const (
	// OperatorClamp scales by exposure and clamps.
	OperatorClamp Operator = iota

	// OperatorReinhard is x / (1 + x).
	OperatorReinhard

	// OperatorReinhardModified is Reinhard with a white point that maps to 1.
	OperatorReinhardModified

	// OperatorHableUC2 is the Uncharted 2 filmic curve normalized by the white point.
	OperatorHableUC2

	// OperatorACES is the Narkowicz ACES filmic fit. This is the default.
	OperatorACES
)

var operatorNames = map[Operator]string{
	OperatorClamp:            "clamp",
	OperatorReinhard:         "reinhard",
	OperatorReinhardModified: "reinhard-modified",
	OperatorHableUC2:         "hable",
	OperatorACES:             "aces",
}

func (o Operator) String() string {
	if name, ok := operatorNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Operator(%d)", uint32(o))
}

// ParseOperator converts an operator name (case-insensitive) into an Operator.
//
// Parameters:
//   - s: the operator name, e.g. "aces"
//
// Returns:
//   - Operator: the parsed operator
//   - error: an error if s is not a known operator
func ParseOperator(s string) (Operator, error) {
	for op, name := range operatorNames {
		if strings.EqualFold(s, name) {
			return op, nil
		}
	}
	return OperatorACES, fmt.Errorf("unknown tone-map operator %q", s)
}

// Params are the operator parameters shared by every curve.
type Params struct {
	// Exposure is an exposure offset in stops; color is scaled by 2^Exposure before the curve.
	Exposure float32
	// WhitePoint is the smallest scene value mapped to full white by the curves that use one.
	WhitePoint float32
}

// DefaultParams returns neutral exposure and a white point of 4.
func DefaultParams() Params {
	return Params{Exposure: 0, WhitePoint: 4}
}

// Selection is an operator with its parameters, applied uniformly to a whole frame.
type Selection struct {
	Operator Operator
	Params   Params
}

// DefaultSelection returns ACES with DefaultParams.
func DefaultSelection() Selection {
	return Selection{Operator: OperatorACES, Params: DefaultParams()}
}

// ExposureScale returns the linear multiplier for the exposure offset.
func (p Params) ExposureScale() float32 {
	return math32.Exp2(p.Exposure)
}

// Apply maps one linear HDR channel value through the operator into [0, 1].
//
// Parameters:
//   - x: the linear channel value
//   - p: the operator parameters
//
// Returns:
//   - float32: the display-range value
func (o Operator) Apply(x float32, p Params) float32 {
	if x <= 0 {
		return 0
	}
	x *= p.ExposureScale()
	white := p.WhitePoint
	if white <= 0 {
		white = 1
	}

	var y float32
	switch o {
	case OperatorReinhard:
		y = x / (1 + x)
	case OperatorReinhardModified:
		y = x * (1 + x/(white*white)) / (1 + x)
	case OperatorHableUC2:
		y = hable(x) / hable(white)
	case OperatorACES:
		y = aces(x)
	default:
		y = x
	}
	return clamp01(y)
}

// ApplyRGB maps a linear HDR color through the operator channel by channel.
func (o Operator) ApplyRGB(c [3]float32, p Params) [3]float32 {
	return [3]float32{o.Apply(c[0], p), o.Apply(c[1], p), o.Apply(c[2], p)}
}

func aces(x float32) float32 {
	const (
		a = 2.51
		b = 0.03
		c = 2.43
		d = 0.59
		e = 0.14
	)
	return x * (a*x + b) / (x*(c*x+d) + e)
}

func hable(x float32) float32 {
	const (
		a = 0.15
		b = 0.50
		c = 0.10
		d = 0.20
		e = 0.02
		f = 0.30
	)
	return (x*(a*x+c*b)+d*e)/(x*(a*x+b)+d*f) - e/f
}

func clamp01(x float32) float32 {
	return math32.Max(0, math32.Min(1, x))
}
