package cells

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Margin is subtracted from every fractional size so that wrapped boxes
// and the container gap fit on one line.
const Margin = "1rem"

var (
	errEmptySize    = errors.New("empty size")
	errBadFraction  = errors.New("malformed fraction")
	errNonPositive  = errors.New("size must be positive")
	errAutoNotAllow = errors.New("auto is only valid for height")
)

// Dimension is a resolved box size relative to its container.
// Auto means "no forced size"; a Fraction of 1 means full bleed.
type Dimension struct {
	Auto     bool
	Fraction float64
	// Num and Den keep the written fraction when the value was given as
	// "<num>/<den>". Den is zero for decimal and percentage input.
	Num int
	Den int
}

// FullSize is the default width: the whole container, no margin.
func FullSize() Dimension {
	return Dimension{Fraction: 1, Num: 1, Den: 1}
}

// AutoSize is the default height: sized by content.
func AutoSize() Dimension {
	return Dimension{Auto: true}
}

// IsFull reports whether the dimension spans the whole container
func (d Dimension) IsFull() bool {
	return !d.Auto && d.Fraction >= 1
}

// CSS returns the CSS length for the dimension. Full and auto sizes map
// to "100%" and "auto"; every other fraction becomes a calc() expression
// that scales 100% and subtracts Margin.
func (d Dimension) CSS() string {
	switch {
	case d.Auto:
		return "auto"
	case d.IsFull():
		return "100%"
	default:
		return fmt.Sprintf("calc(%s * 100%% - %s)", d.expr(), Margin)
	}
}

// String returns the dimension in the notation the model uses
func (d Dimension) String() string {
	if d.Auto {
		return "auto"
	}
	return d.expr()
}

func (d Dimension) expr() string {
	if d.Den > 0 {
		return fmt.Sprintf("%d/%d", d.Num, d.Den)
	}
	return strconv.FormatFloat(d.Fraction, 'f', -1, 64)
}

// Span converts the dimension into terminal cells out of total, leaving
// gap cells free unless the dimension is full. Auto returns 0.
func (d Dimension) Span(total, gap int) int {
	if d.Auto || total <= 0 {
		return 0
	}
	if d.IsFull() {
		return total
	}
	n := int(d.Fraction*float64(total)) - gap
	if n < 1 {
		n = 1
	}
	return n
}

// ParseDimension parses "<num>/<den>", a decimal ("0.5"), a percentage
// ("50%") or, when allowAuto is set, "auto". Values above 1 are returned
// unclamped; callers decide how to treat them.
func ParseDimension(s string, allowAuto bool) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return Dimension{}, errEmptySize
	}

	if s == "auto" {
		if !allowAuto {
			return Dimension{}, errAutoNotAllow
		}
		return AutoSize(), nil
	}

	if num, den, ok := strings.Cut(s, "/"); ok {
		n, err1 := strconv.Atoi(strings.TrimSpace(num))
		dd, err2 := strconv.Atoi(strings.TrimSpace(den))
		if err1 != nil || err2 != nil || dd == 0 {
			return Dimension{}, fmt.Errorf("%w: %q", errBadFraction, s)
		}
		if n <= 0 || dd < 0 {
			return Dimension{}, fmt.Errorf("%w: %q", errNonPositive, s)
		}
		return Dimension{Fraction: float64(n) / float64(dd), Num: n, Den: dd}, nil
	}

	scale := 1.0
	if strings.HasSuffix(s, "%") {
		s = strings.TrimSuffix(s, "%")
		scale = 100
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return Dimension{}, fmt.Errorf("%w: %q", errBadFraction, s)
	}
	f /= scale
	if f <= 0 {
		return Dimension{}, fmt.Errorf("%w: %q", errNonPositive, s)
	}
	if f == 1 {
		return FullSize(), nil
	}
	return Dimension{Fraction: f}, nil
}
