package grammar

import (
	"errors"
	"fmt"
	"strconv"
	"unicode"
)

// PositiveInt is a bounded unsigned integer that is never zero.
type PositiveInt uint8

// ErrZero is returned when constructing a PositiveInt from zero.
var ErrZero = errors.New("value must be non-zero")

// NewPositiveInt validates n and returns it as a PositiveInt.
func NewPositiveInt(n int) (PositiveInt, error) {
	switch {
	case n == 0:
		return 0, ErrZero
	case n < 0 || n > 255:
		return 0, fmt.Errorf("value %d out of range 1..255", n)
	}
	return PositiveInt(n), nil
}

// MustPositiveInt is NewPositiveInt for constants known to be valid.
func MustPositiveInt(n int) PositiveInt {
	p, err := NewPositiveInt(n)
	if err != nil {
		panic(err)
	}
	return p
}

// Int returns the value as an int.
func (p PositiveInt) Int() int { return int(p) }

func (p PositiveInt) String() string { return strconv.Itoa(int(p)) }

// Digits matches one or more ASCII digits.
var Digits = TakeWhile1("digits", func(r rune) bool { return r < unicode.MaxASCII && unicode.IsDigit(r) })

// PositiveInteger parses a non-zero decimal integer that fits a PositiveInt.
var PositiveInteger Parser[PositiveInt] = TryMap(Digits, "positive integer", func(s string) (PositiveInt, error) {
	n, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return NewPositiveInt(int(n))
})

// Ordinal matches an English ordinal suffix: st, nd, rd or th.
var Ordinal = Alt(Tag("st"), Tag("nd"), Tag("rd"), Tag("th"))

// OrdinalSuffix returns the English ordinal suffix for n.
func OrdinalSuffix(n int) string {
	if n%100 >= 11 && n%100 <= 13 {
		return "th"
	}
	switch n % 10 {
	case 1:
		return "st"
	case 2:
		return "nd"
	case 3:
		return "rd"
	}
	return "th"
}
