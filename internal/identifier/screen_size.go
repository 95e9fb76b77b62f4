package identifier

import (
	"cmp"
	"fmt"
	"strconv"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// ScreenSize is a diagonal in tenths of an inch, so 12.9" is 129.
//
// Short and Brackets only affect rendering ("13\"" vs "13-inch", "(11-inch)"
// vs "11-inch"); they take no part in Equal or Compare.
type ScreenSize struct {
	Tenths   uint16
	Short    bool
	Brackets bool
}

// Inches returns a bracketed long-form size, e.g. Inches(129) is "(12.9-inch)".
func Inches(tenths uint16) ScreenSize {
	return ScreenSize{Tenths: tenths, Brackets: true}
}

// Float returns the size in inches.
func (s ScreenSize) Float() float64 { return float64(s.Tenths) / 10 }

func (s ScreenSize) String() string {
	n := strconv.Itoa(int(s.Tenths / 10))
	if frac := s.Tenths % 10; frac != 0 {
		n += "." + strconv.Itoa(int(frac))
	}
	unit := "-inch"
	if s.Short {
		unit = `"`
	}
	if s.Brackets {
		return fmt.Sprintf("(%s%s)", n, unit)
	}
	return n + unit
}

// Equal compares sizes, ignoring presentation flags.
func (s ScreenSize) Equal(o ScreenSize) bool { return s.Tenths == o.Tenths }

// Compare orders by size only.
func (s ScreenSize) Compare(o ScreenSize) int { return cmp.Compare(s.Tenths, o.Tenths) }

type decimal struct {
	whole, tenth string
}

// 12.9 or 11; a single fractional digit at most.
var decimalNumber grammar.Parser[decimal] = func(input string) (string, decimal, error) {
	rest, whole, err := grammar.Digits(input)
	if err != nil {
		return input, decimal{}, err
	}
	after, _, err := grammar.Tag(".")(rest)
	if err != nil {
		return rest, decimal{whole: whole}, nil
	}
	after, frac, err := grammar.Digits(after)
	if err != nil || len(frac) != 1 {
		return input, decimal{}, grammar.Fail(rest, "single fractional digit")
	}
	return after, decimal{whole: whole, tenth: frac}, nil
}

var bareScreenSize grammar.Parser[ScreenSize] = func(input string) (string, ScreenSize, error) {
	rest, t, err := tenths(input)
	if err != nil {
		return input, ScreenSize{}, err
	}
	rest, short, err := sizeUnit(rest)
	if err != nil {
		return input, ScreenSize{}, err
	}
	return rest, ScreenSize{Tenths: t, Short: short}, nil
}

var (
	tenths = grammar.TryMap(decimalNumber, "screen size", func(d decimal) (uint16, error) {
		w, err := strconv.ParseUint(d.whole, 10, 16)
		if err != nil {
			return 0, err
		}
		v := w * 10
		if d.tenth != "" {
			v += uint64(d.tenth[0] - '0')
		}
		if v == 0 || v > 0xffff {
			return 0, fmt.Errorf("screen size %s out of range", d.whole)
		}
		return uint16(v), nil
	})

	sizeUnit = grammar.Alt(
		grammar.Value(false, grammar.Tag("-inch")),
		grammar.Value(true, grammar.Tag(`"`)),
	)

	screenSize = grammar.Alt(
		grammar.Map(
			grammar.Delimited(grammar.WS(grammar.Tag("(")), bareScreenSize, grammar.WS(grammar.Tag(")"))),
			func(s ScreenSize) ScreenSize { s.Brackets = true; return s },
		),
		bareScreenSize,
	)
)

// ParseScreenSize parses "(11-inch)", "11-inch", "(13\")" or "13\"".
func ParseScreenSize(s string) (ScreenSize, error) {
	return grammar.Parse(screenSize, s)
}
