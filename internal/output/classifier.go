package output

import (
	"encoding/json"
	"fmt"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Classifier turns an Execution into an Output for one tool.
//
// Success is tried against stdout when the run succeeded and Failure
// against stderr when it did not. A nil grammar means that side is not
// understood yet, so every run of that kind is unimplemented.
type Classifier[S, F any] struct {
	Tool    string
	Success grammar.Parser[S]
	Failure grammar.Parser[F]

	// SuccessFromStderr reads successful runs from stderr; codesign and
	// spctl report their results there.
	SuccessFromStderr bool

	// Tolerate marks recognized failures that IsSuccess should accept.
	Tolerate func(F) bool

	// Hint is attached to errors returned by Output.Primary.
	Hint string

	Logger *zap.Logger
}

// Classify never fails; text the grammars do not fully consume becomes an
// unimplemented output.
func (c *Classifier[S, F]) Classify(exec Execution) Output[S, F] {
	out := Output[S, F]{tool: c.Tool, hint: c.Hint, tolerate: c.Tolerate}

	if exec.Success {
		stream, text := "stdout", string(exec.Stdout)
		if c.SuccessFromStderr {
			stream, text = "stderr", string(exec.Stderr)
		}
		out.raw = text
		out.kind = UnimplementedSuccess
		if v, ok := run(c.logger(), c.Tool, stream, c.Success, text); ok {
			out.kind, out.success = RecognizedSuccess, v
		}
		return out
	}

	text := string(exec.Stderr)
	out.raw = text
	out.kind = UnimplementedFailure
	if v, ok := run(c.logger(), c.Tool, "stderr", c.Failure, text); ok {
		out.kind, out.failure = RecognizedFailure, v
	}
	return out
}

// ClassifyResult classifies exec unless err reports that the process never
// ran, in which case there is nothing to classify.
func (c *Classifier[S, F]) ClassifyResult(exec Execution, err error) (Output[S, F], error) {
	if err != nil {
		return Output[S, F]{tool: c.Tool}, fmt.Errorf("%s: %w", c.Tool, err)
	}
	return c.Classify(exec), nil
}

func (c *Classifier[S, F]) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func run[T any](log *zap.Logger, tool, stream string, p grammar.Parser[T], text string) (v T, ok bool) {
	if p == nil {
		return v, false
	}
	defer func() {
		if r := recover(); r != nil {
			log.Error("output grammar panicked",
				zap.String("tool", tool),
				zap.String("stream", stream),
				zap.Any("panic", r),
			)
			var zero T
			v, ok = zero, false
		}
	}()

	rest, v, err := grammar.WS(p)(text)
	if err != nil {
		log.Debug("output not recognized",
			zap.String("tool", tool),
			zap.String("stream", stream),
			zap.Error(err),
		)
		return v, false
	}
	if rest != "" {
		log.Warn("output grammar left input unconsumed",
			zap.String("tool", tool),
			zap.String("stream", stream),
			zap.String("remaining", rest),
		)
		var zero T
		return zero, false
	}
	return v, true
}

// Empty accepts a stream with nothing but whitespace in it.
func Empty[T any](v T) grammar.Parser[T] {
	return grammar.Value(v, grammar.EOF)
}

// JSON decodes the whole stream as a JSON document.
func JSON[T any]() grammar.Parser[T] {
	return func(input string) (string, T, error) {
		var v T
		if err := json.Unmarshal([]byte(input), &v); err != nil {
			return input, v, grammar.Fail(input, fmt.Sprintf("JSON document (%v)", err))
		}
		return "", v, nil
	}
}

// GJSON validates the stream as JSON and hands it to f for querying.
func GJSON[T any](f func(gjson.Result) (T, error)) grammar.Parser[T] {
	return func(input string) (string, T, error) {
		var zero T
		if !gjson.Valid(input) {
			return input, zero, grammar.Fail(input, "JSON document")
		}
		v, err := f(gjson.Parse(input))
		if err != nil {
			return input, zero, grammar.Fail(input, err.Error())
		}
		return "", v, nil
	}
}
