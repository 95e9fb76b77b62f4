package grammar

import (
	"errors"
	"strings"
	"unicode"
)

// Space0 consumes any amount of whitespace, including newlines.
var Space0 = TakeWhile(unicode.IsSpace)

// WS wraps p so that surrounding whitespace is consumed on both sides.
func WS[T any](p Parser[T]) Parser[T] {
	return func(input string) (string, T, error) {
		rest, _, _ := Space0(input)
		rest, v, err := p(rest)
		if err != nil {
			var zero T
			return input, zero, err
		}
		rest, _, _ = Space0(rest)
		return rest, v, nil
	}
}

// Alt tries each parser in order and returns the first success. A committed
// failure stops the search immediately.
func Alt[T any](ps ...Parser[T]) Parser[T] {
	return func(input string) (string, T, error) {
		var expected []string
		for _, p := range ps {
			rest, v, err := p(input)
			if err == nil {
				return rest, v, nil
			}
			if IsCommitted(err) {
				var zero T
				return input, zero, err
			}
			var pe *Error
			if errors.As(err, &pe) {
				expected = append(expected, pe.Expected)
			}
		}
		var zero T
		return input, zero, Fail(input, strings.Join(expected, " or "))
	}
}

// Peek runs p without consuming input.
func Peek[T any](p Parser[T]) Parser[T] {
	return func(input string) (string, T, error) {
		_, v, err := p(input)
		return input, v, err
	}
}

// Cut turns an uncommitted failure of p into a committed one.
func Cut[T any](p Parser[T]) Parser[T] {
	return func(input string) (string, T, error) {
		rest, v, err := p(input)
		if err != nil {
			if pe, ok := err.(*Error); ok && !pe.Committed {
				cp := *pe
				cp.Committed = true
				return input, v, &cp
			}
		}
		return rest, v, err
	}
}

// Map transforms the value produced by p.
func Map[A, B any](p Parser[A], f func(A) B) Parser[B] {
	return func(input string) (string, B, error) {
		rest, a, err := p(input)
		if err != nil {
			var zero B
			return input, zero, err
		}
		return rest, f(a), nil
	}
}

// TryMap transforms the value produced by p with a fallible function. A
// conversion error becomes an uncommitted parse failure naming expected.
func TryMap[A, B any](p Parser[A], expected string, f func(A) (B, error)) Parser[B] {
	return func(input string) (string, B, error) {
		rest, a, err := p(input)
		if err != nil {
			var zero B
			return input, zero, err
		}
		b, err := f(a)
		if err != nil {
			return input, b, Fail(input, expected)
		}
		return rest, b, nil
	}
}

// Value replaces the output of p with v.
func Value[A, B any](v B, p Parser[A]) Parser[B] {
	return Map(p, func(A) B { return v })
}

// Succeed consumes nothing and returns v.
func Succeed[T any](v T) Parser[T] {
	return func(input string) (string, T, error) {
		return input, v, nil
	}
}

// Flag reports whether p matched, consuming its input only when it did.
// Committed failures still propagate.
func Flag[T any](p Parser[T]) Parser[bool] {
	return func(input string) (string, bool, error) {
		rest, _, err := p(input)
		if err != nil {
			if IsCommitted(err) {
				return input, false, err
			}
			return input, false, nil
		}
		return rest, true, nil
	}
}

// Optional returns a pointer to the value of p, or nil when p does not match.
func Optional[T any](p Parser[T]) Parser[*T] {
	return func(input string) (string, *T, error) {
		rest, v, err := p(input)
		if err != nil {
			if IsCommitted(err) {
				return input, nil, err
			}
			return input, nil, nil
		}
		return rest, &v, nil
	}
}

// Preceded runs a then b, keeping b.
func Preceded[A, B any](a Parser[A], b Parser[B]) Parser[B] {
	return func(input string) (string, B, error) {
		var zero B
		rest, _, err := a(input)
		if err != nil {
			return input, zero, err
		}
		rest, v, err := b(rest)
		if err != nil {
			return input, zero, err
		}
		return rest, v, nil
	}
}

// Terminated runs a then b, keeping a.
func Terminated[A, B any](a Parser[A], b Parser[B]) Parser[A] {
	return func(input string) (string, A, error) {
		var zero A
		rest, v, err := a(input)
		if err != nil {
			return input, zero, err
		}
		rest, _, err = b(rest)
		if err != nil {
			return input, zero, err
		}
		return rest, v, nil
	}
}

// Delimited runs open, p, close and keeps the value of p.
func Delimited[A, T, C any](open Parser[A], p Parser[T], close Parser[C]) Parser[T] {
	return Preceded(open, Terminated(p, close))
}

// AllConsuming fails unless p consumes the entire input.
func AllConsuming[T any](p Parser[T]) Parser[T] {
	return func(input string) (string, T, error) {
		rest, v, err := p(input)
		if err != nil {
			return input, v, err
		}
		if rest != "" {
			var zero T
			return rest, zero, Fail(rest, "end of input")
		}
		return rest, v, nil
	}
}

// Many0 applies p until it fails, collecting the values. It stops on a
// match that consumes nothing to avoid looping forever.
func Many0[T any](p Parser[T]) Parser[[]T] {
	return func(input string) (string, []T, error) {
		var out []T
		rest := input
		for rest != "" {
			next, v, err := p(rest)
			if err != nil {
				if IsCommitted(err) {
					return input, nil, err
				}
				break
			}
			if len(next) == len(rest) {
				break
			}
			out = append(out, v)
			rest = next
		}
		return rest, out, nil
	}
}

// Many1 is Many0 but requires at least one match.
func Many1[T any](p Parser[T]) Parser[[]T] {
	many := Many0(p)
	return func(input string) (string, []T, error) {
		rest, out, err := many(input)
		if err != nil {
			return input, nil, err
		}
		if len(out) == 0 {
			_, _, err := p(input)
			if err == nil {
				err = Fail(input, "at least one match")
			}
			return input, nil, err
		}
		return rest, out, nil
	}
}
