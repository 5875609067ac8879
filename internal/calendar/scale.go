package calendar

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/samber/lo"
)

const (
	DefaultQuantile = 0.90
	// ScaleGamma is the gamma used when interpolating between scale colours.
	ScaleGamma = 2.2

	zeroTintAlpha = 0x12
	fadedAlpha    = 0x20
)

var (
	ErrInvalidQuantile = errors.New("quantile must be in (0, 1]")
	ErrInvalidColor    = errors.New("invalid color")
)

// Paint is a resolved fill: an RGB colour with opacity, or no fill at all.
type Paint struct {
	Color colorful.Color
	Alpha float64
	None  bool
}

// NoPaint renders as "none".
var NoPaint = Paint{None: true}

// String formats the paint the way CSS expects it: rgb(), rgba() or none.
func (p Paint) String() string {
	if p.None {
		return "none"
	}
	r, g, b := p.Color.Clamped().RGB255()
	a := clamp01(p.Alpha)
	if a >= 1 {
		return fmt.Sprintf("rgb(%d, %d, %d)", r, g, b)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", r, g, b, strconv.FormatFloat(a, 'f', -1, 64))
}

// Over composites the paint on an opaque background and returns a hex colour.
func (p Paint) Over(background colorful.Color) string {
	if p.None {
		return background.Hex()
	}
	return background.BlendRgb(p.Color.Clamped(), clamp01(p.Alpha)).Clamped().Hex()
}

// WithAlpha returns the same colour at another opacity.
func (p Paint) WithAlpha(a float64) Paint {
	p.Alpha = a
	return p
}

// ParsePaint reads a CSS hex colour: #rgb, #rrggbb or #rrggbbaa.
func ParsePaint(s string) (Paint, error) {
	h := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(h) {
	case 3:
		h = string([]byte{h[0], h[0], h[1], h[1], h[2], h[2]})
	case 6, 8:
	default:
		return Paint{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	alpha := 1.0
	if len(h) == 8 {
		a, err := strconv.ParseUint(h[6:], 16, 8)
		if err != nil {
			return Paint{}, fmt.Errorf("%w: %q", ErrInvalidColor, s)
		}
		alpha = float64(a) / 255
		h = h[:6]
	}
	c, err := colorful.Hex("#" + h)
	if err != nil {
		return Paint{}, fmt.Errorf("%w: %q: %v", ErrInvalidColor, s, err)
	}
	return Paint{Color: c, Alpha: alpha}, nil
}

// Quantile returns the q-quantile of the absolute non-zero amounts, with
// linear interpolation between closest ranks. NaN amounts are ignored.
// ok is false when no non-zero amount exists.
func Quantile(amounts []float64, q float64) (value float64, ok bool) {
	abs := lo.FilterMap(amounts, func(v float64, _ int) (float64, bool) {
		if v == 0 || math.IsNaN(v) {
			return 0, false
		}
		return math.Abs(v), true
	})
	n := len(abs)
	if n == 0 || math.IsNaN(q) {
		return 0, false
	}
	sort.Float64s(abs)
	if q <= 0 || n < 2 {
		return abs[0], true
	}
	if q >= 1 {
		return abs[n-1], true
	}
	i := float64(n-1) * q
	i0 := int(math.Floor(i))
	return abs[i0] + (abs[i0+1]-abs[i0])*(i-float64(i0)), true
}

// Scale is the sequential colour scale over the domain [-Max, 0]. -Max maps
// to the primary colour and 0 to a faded primary; values past either end
// saturate.
type Scale struct {
	Max     float64
	primary Paint
	faded   Paint
	defined bool
}

// NewScale builds the scale from the series amounts. The primary colour is
// the strong end; the faded end is the same colour at low opacity.
func NewScale(amounts []float64, q float64, primary Paint) (*Scale, error) {
	if !(q > 0 && q <= 1) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidQuantile, q)
	}
	limit, ok := Quantile(amounts, q)
	return &Scale{
		Max:     limit,
		primary: primary.WithAlpha(1),
		faded:   primary.WithAlpha(fadedAlpha / 255.0),
		defined: ok && limit > 0,
	}, nil
}

// Position maps an amount to its unclamped position along the scale:
// -Max is 0 and 0 is 1. It is linear, so x and -x sit symmetrically
// around Position(0).
func (s *Scale) Position(v float64) float64 {
	if !s.defined || math.IsNaN(v) {
		return math.NaN()
	}
	return (v + s.Max) / s.Max
}

// Color resolves the fill of an amount. Unknown amounts, or a scale built
// without any non-zero amount, give no fill.
func (s *Scale) Color(v float64) Paint {
	t := s.Position(v)
	if math.IsNaN(t) {
		return NoPaint
	}
	return s.Interpolate(clamp01(t))
}

// Interpolate samples the gamma-corrected ramp from primary (t=0) to faded (t=1).
func (s *Scale) Interpolate(t float64) Paint {
	a, b := s.primary, s.faded
	ch := func(x, y float64) float64 {
		x0 := math.Pow(x, ScaleGamma)
		return math.Pow(x0+t*(math.Pow(y, ScaleGamma)-x0), 1/ScaleGamma)
	}
	return Paint{
		Color: colorful.Color{
			R: ch(a.Color.R, b.Color.R),
			G: ch(a.Color.G, b.Color.G),
			B: ch(a.Color.B, b.Color.B),
		},
		Alpha: a.Alpha + t*(b.Alpha-a.Alpha),
	}
}

// ZeroTint is the fill of days whose amount is exactly zero. It is never
// the scale's own colour for zero.
func (s *Scale) ZeroTint() Paint {
	return s.primary.WithAlpha(zeroTintAlpha / 255.0)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
