// Package output classifies the captured result of an external tool run.
//
// A Classifier pairs a success grammar for one stream with a failure
// grammar for the other. Classify always yields exactly one of four kinds:
// a recognized success or failure when the matching grammar consumes the
// whole stream, otherwise an unimplemented success or failure carrying the
// raw text. Nothing the tool prints can make classification fail.
package output

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is the outcome bucket of a classified run.
type Kind int

const (
	RecognizedSuccess Kind = iota
	RecognizedFailure
	UnimplementedSuccess
	UnimplementedFailure
)

func (k Kind) String() string {
	switch k {
	case RecognizedSuccess:
		return "RecognizedSuccess"
	case RecognizedFailure:
		return "RecognizedFailure"
	case UnimplementedSuccess:
		return "UnimplementedSuccess"
	case UnimplementedFailure:
		return "UnimplementedFailure"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Execution is the captured result of one process run.
type Execution struct {
	Success bool
	Stdout  []byte
	Stderr  []byte
}

// ErrNoStreamData means the process never produced streams to classify,
// typically because it could not be started.
var ErrNoStreamData = errors.New("no output streams to classify")

// ClassificationError is returned by Output.Primary when the output is not
// a recognized success.
type ClassificationError struct {
	Tool  string
	Kind  Kind
	Debug string
	// Hint is a remediation suggestion, may be empty.
	Hint string
}

func (e *ClassificationError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: expected a recognized success, got %s", e.Tool, e.Debug)
	if e.Hint != "" {
		b.WriteString(" (hint: ")
		b.WriteString(e.Hint)
		b.WriteString(")")
	}
	return b.String()
}

// Output is a classified run. S is the success payload, F the failure
// reason. The zero value is an unimplemented success with no text.
type Output[S, F any] struct {
	tool     string
	kind     Kind
	success  S
	failure  F
	raw      string
	hint     string
	tolerate func(F) bool
}

// Kind returns the outcome bucket.
func (o Output[S, F]) Kind() Kind { return o.kind }

// Tool names the command that produced the output.
func (o Output[S, F]) Tool() string { return o.tool }

// Recognized reports whether a grammar accepted the stream.
func (o Output[S, F]) Recognized() bool {
	return o.kind == RecognizedSuccess || o.kind == RecognizedFailure
}

// IsSuccess reports whether the run should be treated as having worked.
// Besides both success kinds this includes recognized failures the
// classifier tolerates, such as booting a device that is already booted.
func (o Output[S, F]) IsSuccess() bool {
	switch o.kind {
	case RecognizedSuccess, UnimplementedSuccess:
		return true
	case RecognizedFailure:
		return o.tolerate != nil && o.tolerate(o.failure)
	}
	return false
}

// Success returns the recognized success payload.
func (o Output[S, F]) Success() (S, bool) {
	return o.success, o.kind == RecognizedSuccess
}

// Failure returns the recognized failure reason.
func (o Output[S, F]) Failure() (F, bool) {
	return o.failure, o.kind == RecognizedFailure
}

// Raw returns the classified stream's text. For recognized outputs it is
// the text the grammar consumed.
func (o Output[S, F]) Raw() string { return o.raw }

// Primary returns the recognized success payload, or a
// *ClassificationError describing whatever was classified instead.
func (o Output[S, F]) Primary() (S, error) {
	if o.kind == RecognizedSuccess {
		return o.success, nil
	}
	var zero S
	return zero, &ClassificationError{
		Tool:  o.tool,
		Kind:  o.kind,
		Debug: o.String(),
		Hint:  o.hint,
	}
}

// Result is Primary, except that a recognized failure which is itself an
// error is returned as that error, wrapped with the tool name.
func (o Output[S, F]) Result() (S, error) {
	if o.kind == RecognizedFailure {
		if err, ok := any(o.failure).(error); ok {
			var zero S
			return zero, fmt.Errorf("%s: %w", o.tool, err)
		}
	}
	return o.Primary()
}

// Check is Result for commands whose success carries nothing worth
// keeping. Anything IsSuccess accepts passes.
func (o Output[S, F]) Check() error {
	if o.IsSuccess() {
		return nil
	}
	_, err := o.Result()
	return err
}

// String renders the kind and its payload for debugging.
func (o Output[S, F]) String() string {
	switch o.kind {
	case RecognizedSuccess:
		return fmt.Sprintf("%s(%+v)", o.kind, o.success)
	case RecognizedFailure:
		return fmt.Sprintf("%s(%+v)", o.kind, o.failure)
	}
	return fmt.Sprintf("%s(%q)", o.kind, o.raw)
}
