// Package grammar provides the small parser-combinator kit shared by the
// identifier grammars and the command output classifiers.
//
// A Parser consumes a prefix of its input and returns the unconsumed
// remainder together with the parsed value. Parsers are plain functions and
// hold no state, so they are safe to share between goroutines.
package grammar

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Parser consumes a prefix of input, returning the remainder and the value.
type Parser[T any] func(input string) (rest string, value T, err error)

// Error is a structured parse failure.
//
// A Committed error means a discriminating token already matched, so
// alternatives must not be tried: the input is malformed for the branch it
// selected.
type Error struct {
	Input     string // input at the failure point
	Expected  string
	Committed bool
}

func (e *Error) Error() string {
	prefix := "expected"
	if e.Committed {
		prefix = "committed: expected"
	}
	return fmt.Sprintf("%s %s at %q", prefix, e.Expected, excerpt(e.Input))
}

// Fail builds an uncommitted parse error.
func Fail(input, expected string) error {
	return &Error{Input: input, Expected: expected}
}

// IsCommitted reports whether err is (or wraps) a committed parse error.
func IsCommitted(err error) bool {
	var pe *Error
	return errors.As(err, &pe) && pe.Committed
}

// excerpt shortens s to at most 32 bytes without splitting a rune.
func excerpt(s string) string {
	const max = 32
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "..."
}

// Parse runs p against the whole of input. Leading and trailing whitespace is
// tolerated; anything else left over is an error.
func Parse[T any](p Parser[T], input string) (T, error) {
	_, v, err := AllConsuming(WS(p))(input)
	return v, err
}

// Tag matches the literal lit.
func Tag(lit string) Parser[string] {
	return func(input string) (string, string, error) {
		if strings.HasPrefix(input, lit) {
			return input[len(lit):], lit, nil
		}
		return input, "", Fail(input, fmt.Sprintf("%q", lit))
	}
}

// TakeWhile consumes runes while pred holds. It never fails.
func TakeWhile(pred func(rune) bool) Parser[string] {
	return func(input string) (string, string, error) {
		i := strings.IndexFunc(input, func(r rune) bool { return !pred(r) })
		if i < 0 {
			return "", input, nil
		}
		return input[i:], input[:i], nil
	}
}

// TakeWhile1 is TakeWhile but requires at least one rune; name describes the
// expected token in errors.
func TakeWhile1(name string, pred func(rune) bool) Parser[string] {
	inner := TakeWhile(pred)
	return func(input string) (string, string, error) {
		rest, v, _ := inner(input)
		if v == "" {
			return input, "", Fail(input, name)
		}
		return rest, v, nil
	}
}

// TakeTill consumes runes until stop holds. It never fails.
func TakeTill(stop func(rune) bool) Parser[string] {
	return TakeWhile(func(r rune) bool { return !stop(r) })
}

// TakeUntil consumes input up to, but not including, the first occurrence of
// lit. It fails if lit does not occur.
func TakeUntil(lit string) Parser[string] {
	return func(input string) (string, string, error) {
		i := strings.Index(input, lit)
		if i < 0 {
			return input, "", Fail(input, fmt.Sprintf("text followed by %q", lit))
		}
		return input[i:], input[:i], nil
	}
}

// Rest consumes everything.
var Rest Parser[string] = func(input string) (string, string, error) {
	return "", input, nil
}

// EOF succeeds only on empty input.
var EOF Parser[struct{}] = func(input string) (string, struct{}, error) {
	if input != "" {
		return input, struct{}{}, Fail(input, "end of input")
	}
	return input, struct{}{}, nil
}

// Line consumes up to and including the next newline, returning the line
// without its terminator. It fails on empty input.
var Line Parser[string] = func(input string) (string, string, error) {
	if input == "" {
		return input, "", Fail(input, "line")
	}
	i := strings.IndexByte(input, '\n')
	if i < 0 {
		return "", strings.TrimSuffix(input, "\r"), nil
	}
	return input[i+1:], strings.TrimSuffix(input[:i], "\r"), nil
}
