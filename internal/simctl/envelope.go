// Package simctl classifies the output of `xcrun simctl` subcommands.
package simctl

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Error is the envelope simctl prints on stderr when a command fails:
//
//	An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=405):
//	Unable to boot device in current state: Booted
type Error struct {
	Domain   string
	Code     int
	Messages []string
}

func (e Error) Error() string {
	return fmt.Sprintf("simctl: %s (domain=%s, code=%d)", e.Message(), e.Domain, e.Code)
}

// Message returns the first message line.
func (e Error) Message() string {
	if len(e.Messages) == 0 {
		return ""
	}
	return e.Messages[0]
}

// Reason classifies a simctl failure.
type Reason int

const (
	ReasonOther Reason = iota
	ReasonAlreadyBooted
	ReasonAlreadyShutdown
	ReasonInvalidDevice
	ReasonInvalidDeviceType
	ReasonInvalidRuntime
)

func (r Reason) String() string {
	switch r {
	case ReasonAlreadyBooted:
		return "already booted"
	case ReasonAlreadyShutdown:
		return "already shut down"
	case ReasonInvalidDevice:
		return "invalid device"
	case ReasonInvalidDeviceType:
		return "invalid device type"
	case ReasonInvalidRuntime:
		return "invalid runtime"
	}
	return "other"
}

// Failure is a recognized simctl error. Subject holds the offending name
// for the Invalid* reasons.
type Failure struct {
	Reason  Reason
	Subject string
	Err     Error
}

func (f Failure) Error() string { return f.Err.Error() }

const envelopePreamble = "An error was encountered processing the command"

var (
	errorCode = grammar.TryMap(
		grammar.TakeWhile1("error code", func(r rune) bool { return r == '-' || ('0' <= r && r <= '9') }),
		"error code",
		strconv.Atoi,
	)

	domain = grammar.Delimited(
		grammar.WS(grammar.Tag("(domain=")),
		grammar.TakeUntil(","),
		grammar.Tag(","),
	)

	code = grammar.Delimited(
		grammar.WS(grammar.Tag("code=")),
		errorCode,
		grammar.WS(grammar.Tag("):")),
	)

	messages = grammar.Map(grammar.Many1(grammar.Line), func(lines []string) []string {
		out := lines[:0]
		for _, l := range lines {
			if l = strings.TrimSpace(l); l != "" {
				out = append(out, l)
			}
		}
		return out
	})
)

// envelope parses the error envelope. Once the preamble matches, the rest
// must follow the envelope format.
var envelope grammar.Parser[Error] = func(input string) (string, Error, error) {
	rest, _, err := grammar.WS(grammar.Tag(envelopePreamble))(input)
	if err != nil {
		return input, Error{}, err
	}
	var e Error
	if rest, e.Domain, err = grammar.Cut(domain)(rest); err != nil {
		return input, Error{}, err
	}
	if rest, e.Code, err = grammar.Cut(code)(rest); err != nil {
		return input, Error{}, err
	}
	if rest, e.Messages, err = grammar.Cut(messages)(rest); err != nil {
		return input, Error{}, err
	}
	if len(e.Messages) == 0 {
		return input, Error{}, &grammar.Error{Input: rest, Expected: "error message", Committed: true}
	}
	return rest, e, nil
}

// Known first message lines.
var reasons = []grammar.Parser[Failure]{
	grammar.Value(Failure{Reason: ReasonAlreadyBooted},
		grammar.AllConsuming(grammar.Tag("Unable to boot device in current state: Booted"))),
	grammar.Value(Failure{Reason: ReasonAlreadyShutdown},
		grammar.AllConsuming(grammar.Tag("Unable to shutdown device in current state: Shutdown"))),
	subject(ReasonInvalidDeviceType, "Invalid device type: "),
	subject(ReasonInvalidDevice, "Invalid device: "),
	subject(ReasonInvalidRuntime, "Invalid runtime: "),
}

func subject(r Reason, prefix string) grammar.Parser[Failure] {
	return grammar.Map(
		grammar.Preceded(grammar.Tag(prefix), grammar.TakeWhile1("subject", func(rune) bool { return true })),
		func(s string) Failure { return Failure{Reason: r, Subject: s} },
	)
}

func classifyMessage(msg string) Failure {
	for _, p := range reasons {
		if _, f, err := p(msg); err == nil {
			return f
		}
	}
	return Failure{Reason: ReasonOther}
}

// failure recognizes any simctl error envelope.
var failure = grammar.Map(envelope, func(e Error) Failure {
	f := classifyMessage(e.Message())
	f.Err = e
	return f
})

// ParseError parses a simctl error envelope from stderr text.
func ParseError(stderr string) (Error, error) {
	return grammar.Parse(envelope, stderr)
}
