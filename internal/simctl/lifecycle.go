package simctl

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
	"github.com/arnavsurve/applectl/internal/output"
)

const listHint = "run `applectl devices list` to see available simulators"

type (
	// Booted is the silent success of `simctl boot`.
	Booted struct{}
	// ShutDown is the silent success of `simctl shutdown`.
	ShutDown struct{}
	// Installed is the silent success of `simctl install`.
	Installed struct{}
	// Deleted is the silent success of `simctl delete`.
	Deleted struct{}
)

// Launched is printed by `simctl launch` as "<bundle-id>: <pid>".
type Launched struct {
	BundleID string
	PID      int
}

// Created is the new device's UDID printed by `simctl create`.
type Created struct {
	UDID uuid.UUID
}

// Boot classifies `simctl boot`. Booting an already booted device counts as
// success.
func Boot(log *zap.Logger) *output.Classifier[Booted, Failure] {
	return &output.Classifier[Booted, Failure]{
		Tool:     "simctl boot",
		Success:  output.Empty(Booted{}),
		Failure:  failure,
		Tolerate: func(f Failure) bool { return f.Reason == ReasonAlreadyBooted },
		Hint:     listHint,
		Logger:   log,
	}
}

// Shutdown classifies `simctl shutdown`. Shutting down a device that is not
// running counts as success.
func Shutdown(log *zap.Logger) *output.Classifier[ShutDown, Failure] {
	return &output.Classifier[ShutDown, Failure]{
		Tool:     "simctl shutdown",
		Success:  output.Empty(ShutDown{}),
		Failure:  failure,
		Tolerate: func(f Failure) bool { return f.Reason == ReasonAlreadyShutdown },
		Hint:     listHint,
		Logger:   log,
	}
}

func Install(log *zap.Logger) *output.Classifier[Installed, Failure] {
	return &output.Classifier[Installed, Failure]{
		Tool:    "simctl install",
		Success: output.Empty(Installed{}),
		Failure: failure,
		Hint:    "make sure the simulator is booted and the .app was built for the simulator",
		Logger:  log,
	}
}

func Launch(log *zap.Logger) *output.Classifier[Launched, Failure] {
	return &output.Classifier[Launched, Failure]{
		Tool:    "simctl launch",
		Success: launched,
		Failure: failure,
		Hint:    "make sure the app is installed on the booted simulator",
		Logger:  log,
	}
}

func Create(log *zap.Logger) *output.Classifier[Created, Failure] {
	return &output.Classifier[Created, Failure]{
		Tool:    "simctl create",
		Success: created,
		Failure: failure,
		Hint:    "run `applectl devices types` and `applectl devices runtimes` for valid identifiers",
		Logger:  log,
	}
}

func Delete(log *zap.Logger) *output.Classifier[Deleted, Failure] {
	return &output.Classifier[Deleted, Failure]{
		Tool:    "simctl delete",
		Success: output.Empty(Deleted{}),
		Failure: failure,
		Hint:    listHint,
		Logger:  log,
	}
}

var launched grammar.Parser[Launched] = func(input string) (string, Launched, error) {
	rest, bundle, err := grammar.TakeUntil(":")(input)
	if err != nil {
		return input, Launched{}, err
	}
	bundle = strings.TrimSpace(bundle)
	if bundle == "" || strings.ContainsFunc(bundle, unicode.IsSpace) {
		return input, Launched{}, grammar.Fail(input, "bundle identifier")
	}
	rest, pid, err := grammar.Preceded(
		grammar.WS(grammar.Tag(":")),
		grammar.TryMap(grammar.Digits, "process id", strconv.Atoi),
	)(rest)
	if err != nil {
		return input, Launched{}, err
	}
	return rest, Launched{BundleID: bundle, PID: pid}, nil
}

var created = grammar.TryMap(
	grammar.TakeWhile1("UDID", func(r rune) bool {
		return r == '-' || unicode.Is(unicode.ASCII_Hex_Digit, r)
	}),
	"UDID",
	func(s string) (Created, error) {
		id, err := uuid.Parse(s)
		return Created{UDID: id}, err
	},
)
