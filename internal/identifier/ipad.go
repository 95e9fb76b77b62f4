package identifier

import (
	"cmp"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// IPadVariant is one of IPadPlain, IPadMini, IPadAir or IPadPro.
//
// Variants order by family (Plain < Mini < Air < Pro) and then by
// generation, chip generations above numeric ones.
type IPadVariant interface {
	String() string
	// Gen returns the variant's generation marker.
	Gen() Generation
	ipadRank() int
}

// IPadPlain is "iPad (10th generation)".
type IPadPlain struct {
	Generation Generation
}

// IPadMini is "iPad mini (6th generation)".
type IPadMini struct {
	Generation Generation
}

// IPadAir is "iPad Air (5th generation)" or "iPad Air 11-inch (M2)".
type IPadAir struct {
	// Size is nil for names that carry no screen size.
	Size       *ScreenSize
	Generation Generation
}

// IPadPro is "iPad Pro (12.9-inch) (6th generation)" or "iPad Pro 11-inch (M4)".
type IPadPro struct {
	Size       ScreenSize
	Generation Generation
	// SizeBeforeGeneration records token order so the name renders back
	// exactly as parsed.
	SizeBeforeGeneration bool
}

func (IPadPlain) ipadRank() int { return 0 }
func (IPadMini) ipadRank() int  { return 1 }
func (IPadAir) ipadRank() int   { return 2 }
func (IPadPro) ipadRank() int   { return 3 }

func (v IPadPlain) Gen() Generation { return v.Generation }
func (v IPadMini) Gen() Generation  { return v.Generation }
func (v IPadAir) Gen() Generation   { return v.Generation }
func (v IPadPro) Gen() Generation   { return v.Generation }

func (v IPadPlain) String() string { return "iPad " + v.Generation.String() }
func (v IPadMini) String() string  { return "iPad mini " + v.Generation.String() }

func (v IPadAir) String() string {
	if v.Size != nil {
		return "iPad Air " + v.Size.String() + " " + v.Generation.String()
	}
	return "iPad Air " + v.Generation.String()
}

func (v IPadPro) String() string {
	if v.SizeBeforeGeneration {
		return "iPad Pro " + v.Size.String() + " " + v.Generation.String()
	}
	return "iPad Pro " + v.Generation.String() + " " + v.Size.String()
}

// CompareIPads orders a before b from oldest to newest. Screen size breaks
// ties between otherwise equal Air and Pro models.
func CompareIPads(a, b IPadVariant) int {
	if c := cmp.Compare(a.ipadRank(), b.ipadRank()); c != 0 {
		return c
	}
	if c := CompareGenerations(a.Gen(), b.Gen()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case IPadAir:
		b := b.(IPadAir)
		switch {
		case a.Size == nil && b.Size == nil:
			return 0
		case a.Size == nil:
			return -1
		case b.Size == nil:
			return 1
		}
		return a.Size.Compare(*b.Size)
	case IPadPro:
		return a.Size.Compare(b.(IPadPro).Size)
	}
	return 0
}

type ipadKind int

const (
	ipadPlain ipadKind = iota
	ipadMini
	ipadAir
	ipadPro
)

var ipadKeyword = grammar.WS(grammar.Tag("iPad"))

var ipadBody grammar.Parser[IPadVariant] = func(input string) (string, IPadVariant, error) {
	rest, kind, err := grammar.Alt(
		grammar.Value(ipadMini, grammar.WS(grammar.Tag("mini"))),
		grammar.Value(ipadAir, grammar.WS(grammar.Tag("Air"))),
		grammar.Value(ipadPro, grammar.WS(grammar.Tag("Pro"))),
		grammar.Succeed(ipadPlain),
	)(input)
	if err != nil {
		return input, nil, err
	}

	var v IPadVariant
	switch kind {
	case ipadPlain:
		var gen Generation
		rest, gen, err = generation(rest)
		v = IPadPlain{Generation: gen}
	case ipadMini:
		var gen Generation
		rest, gen, err = generation(rest)
		v = IPadMini{Generation: gen}
	case ipadAir:
		var air IPadAir
		if rest, air.Size, err = grammar.Optional(grammar.WS(screenSize))(rest); err != nil {
			break
		}
		rest, air.Generation, err = generation(rest)
		v = air
	case ipadPro:
		rest, v, err = ipadProBody(rest)
	}
	if err != nil {
		return input, nil, err
	}
	return rest, v, nil
}

// Pro names list the size either before or after the generation.
var ipadProBody = grammar.Alt[IPadVariant](
	func(input string) (string, IPadVariant, error) {
		rest, size, err := grammar.WS(screenSize)(input)
		if err != nil {
			return input, nil, err
		}
		rest, gen, err := grammar.WS(generation)(rest)
		if err != nil {
			return input, nil, err
		}
		return rest, IPadPro{Size: size, Generation: gen, SizeBeforeGeneration: true}, nil
	},
	func(input string) (string, IPadVariant, error) {
		rest, gen, err := grammar.WS(generation)(input)
		if err != nil {
			return input, nil, err
		}
		rest, size, err := grammar.WS(screenSize)(rest)
		if err != nil {
			return input, nil, err
		}
		return rest, IPadPro{Size: size, Generation: gen}, nil
	},
)

// ipad commits to the iPad family once the keyword matches.
var ipad = grammar.Preceded(ipadKeyword, grammar.Cut(grammar.AllConsuming(grammar.WS(ipadBody))))
