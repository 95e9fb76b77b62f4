package identifier

import (
	"cmp"
	"strings"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// IPhoneVariant is either IPhoneSE or IPhoneNumbered.
//
// Ordering goes from oldest to newest: every SE sorts below every numbered
// model, SEs compare by generation and numbered models by number, then by
// the mini, Plus, Pro and Max flags in that order.
type IPhoneVariant interface {
	String() string
	iphoneRank() int
}

// IPhoneSE is "iPhone SE (3rd generation)".
type IPhoneSE struct {
	Generation Generation
}

// IPhoneNumbered is "iPhone 15 Pro Max" and friends.
type IPhoneNumbered struct {
	Number grammar.PositiveInt
	Mini   bool
	Plus   bool
	Pro    bool
	Max    bool
}

func (IPhoneSE) iphoneRank() int       { return 0 }
func (IPhoneNumbered) iphoneRank() int { return 1 }

func (v IPhoneSE) String() string {
	return "iPhone SE " + v.Generation.String()
}

func (v IPhoneNumbered) String() string {
	var b strings.Builder
	b.WriteString("iPhone ")
	b.WriteString(v.Number.String())
	if v.Mini {
		b.WriteString(" mini")
	}
	if v.Plus {
		b.WriteString(" Plus")
	}
	if v.Pro {
		b.WriteString(" Pro")
	}
	if v.Max {
		b.WriteString(" Max")
	}
	return b.String()
}

// CompareIPhones orders a before b from oldest to newest.
func CompareIPhones(a, b IPhoneVariant) int {
	if c := cmp.Compare(a.iphoneRank(), b.iphoneRank()); c != 0 {
		return c
	}
	switch a := a.(type) {
	case IPhoneSE:
		return CompareGenerations(a.Generation, b.(IPhoneSE).Generation)
	case IPhoneNumbered:
		b := b.(IPhoneNumbered)
		if c := cmp.Compare(a.Number, b.Number); c != 0 {
			return c
		}
		// A mini sorts below the standard model of the same number.
		if c := compareBool(b.Mini, a.Mini); c != 0 {
			return c
		}
		if c := compareBool(a.Plus, b.Plus); c != 0 {
			return c
		}
		if c := compareBool(a.Pro, b.Pro); c != 0 {
			return c
		}
		return compareBool(a.Max, b.Max)
	}
	return 0
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case a:
		return 1
	}
	return -1
}

type iphoneKind int

const (
	iphoneSE iphoneKind = iota
	iphoneNumbered
)

var iphoneKeyword = grammar.WS(grammar.Tag("iPhone"))

// iphoneBody parses what follows the "iPhone" keyword.
var iphoneBody grammar.Parser[IPhoneVariant] = func(input string) (string, IPhoneVariant, error) {
	rest, kind, err := grammar.Alt(
		grammar.Value(iphoneSE, grammar.WS(grammar.Tag("SE"))),
		grammar.Value(iphoneNumbered, grammar.Peek(grammar.WS(grammar.Digits))),
	)(input)
	if err != nil {
		return input, nil, err
	}

	switch kind {
	case iphoneSE:
		rest, gen, err := generation(rest)
		if err != nil {
			return input, nil, err
		}
		return rest, IPhoneSE{Generation: gen}, nil
	default:
		rest, _, _ = grammar.Space0(rest)
		var v IPhoneNumbered
		if rest, v.Number, err = grammar.PositiveInteger(rest); err != nil {
			return input, nil, err
		}
		if rest, v.Mini, err = grammar.Flag(grammar.WS(grammar.Tag("mini")))(rest); err != nil {
			return input, nil, err
		}
		if rest, v.Plus, err = grammar.Flag(grammar.WS(grammar.Tag("Plus")))(rest); err != nil {
			return input, nil, err
		}
		if rest, v.Pro, err = grammar.Flag(grammar.WS(grammar.Tag("Pro")))(rest); err != nil {
			return input, nil, err
		}
		if rest, v.Max, err = grammar.Flag(grammar.WS(grammar.Tag("Max")))(rest); err != nil {
			return input, nil, err
		}
		return rest, v, nil
	}
}

// iphone commits to the iPhone family once the keyword matches.
var iphone = grammar.Preceded(iphoneKeyword, grammar.Cut(grammar.AllConsuming(grammar.WS(iphoneBody))))
