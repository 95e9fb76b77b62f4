package identifier

import (
	"cmp"
	"fmt"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Generation is a device iteration marker: either a NumericGeneration
// ("(5th generation)", "5G") or a ChipGeneration ("(M2)").
//
// Chip generations always order above numeric ones.
type Generation interface {
	fmt.Stringer
	// Number is the generation or chip number.
	Number() grammar.PositiveInt
	isChip() bool
}

// Presentation records how a numeric generation was spelled.
type Presentation int

const (
	// Long is the "(5th generation)" form.
	Long Presentation = iota
	// Short is the model-year "5G" form.
	Short
)

// NumericGeneration is an ordinal generation. Equality and ordering only
// look at the number; Presentation is kept for rendering.
type NumericGeneration struct {
	N            grammar.PositiveInt
	Presentation Presentation
}

// LongGeneration returns the "(Nth generation)" form of n.
func LongGeneration(n int) NumericGeneration {
	return NumericGeneration{N: grammar.MustPositiveInt(n)}
}

// ShortGeneration returns the "NG" form of n.
func ShortGeneration(n int) NumericGeneration {
	return NumericGeneration{N: grammar.MustPositiveInt(n), Presentation: Short}
}

func (g NumericGeneration) Number() grammar.PositiveInt { return g.N }
func (NumericGeneration) isChip() bool                  { return false }

func (g NumericGeneration) String() string {
	if g.Presentation == Short {
		return fmt.Sprintf("%dG", g.N)
	}
	return fmt.Sprintf("(%d%s generation)", g.N, grammar.OrdinalSuffix(g.N.Int()))
}

// Equal compares generation numbers, ignoring presentation.
func (g NumericGeneration) Equal(o NumericGeneration) bool { return g.N == o.N }

// ChipGeneration is an Apple-silicon marker such as "(M4)".
type ChipGeneration struct {
	N grammar.PositiveInt
}

// Chip returns the chip generation Mn.
func Chip(n int) ChipGeneration {
	return ChipGeneration{N: grammar.MustPositiveInt(n)}
}

func (g ChipGeneration) Number() grammar.PositiveInt { return g.N }
func (ChipGeneration) isChip() bool                  { return true }
func (g ChipGeneration) String() string              { return fmt.Sprintf("(M%d)", g.N) }

// CompareGenerations orders a before b: numeric generations by number, then
// every chip generation, again by number. A nil generation sorts first.
func CompareGenerations(a, b Generation) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if a.isChip() != b.isChip() {
		if a.isChip() {
			return 1
		}
		return -1
	}
	return cmp.Compare(a.Number(), b.Number())
}

// EqualGenerations reports whether a and b denote the same generation.
func EqualGenerations(a, b Generation) bool {
	return CompareGenerations(a, b) == 0
}

var (
	// (5th generation), tolerant of inner whitespace.
	longGeneration = grammar.Map(
		grammar.Delimited(
			grammar.WS(grammar.Tag("(")),
			grammar.PositiveInteger,
			grammar.Preceded(grammar.WS(grammar.Ordinal), grammar.Terminated(grammar.Tag("generation"), grammar.WS(grammar.Tag(")")))),
		),
		func(n grammar.PositiveInt) NumericGeneration { return NumericGeneration{N: n} },
	)

	// 5G
	shortGeneration = grammar.Map(
		grammar.Terminated(grammar.PositiveInteger, grammar.Tag("G")),
		func(n grammar.PositiveInt) NumericGeneration { return NumericGeneration{N: n, Presentation: Short} },
	)

	numericGeneration = grammar.Alt(longGeneration, shortGeneration)

	// (M2), tolerant of inner whitespace.
	chipGeneration = grammar.Map(
		grammar.Delimited(
			grammar.WS(grammar.Tag("(")),
			grammar.Preceded(grammar.Tag("M"), grammar.PositiveInteger),
			grammar.WS(grammar.Tag(")")),
		),
		func(n grammar.PositiveInt) ChipGeneration { return ChipGeneration{N: n} },
	)

	generation = grammar.Alt(
		grammar.Map(numericGeneration, func(g NumericGeneration) Generation { return g }),
		grammar.Map(chipGeneration, func(g ChipGeneration) Generation { return g }),
	)
)

// ParseNumericGeneration parses a standalone "(Nth generation)" or "NG" fragment.
func ParseNumericGeneration(s string) (NumericGeneration, error) {
	return grammar.Parse(numericGeneration, s)
}

// ParseChipGeneration parses a standalone "(Mn)" fragment.
func ParseChipGeneration(s string) (ChipGeneration, error) {
	return grammar.Parse(chipGeneration, s)
}

// ParseGeneration parses either generation fragment.
func ParseGeneration(s string) (Generation, error) {
	return grammar.Parse(generation, s)
}
