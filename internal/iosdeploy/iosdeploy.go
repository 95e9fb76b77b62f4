// Package iosdeploy classifies output of the ios-deploy tool used to talk to
// physical devices.
package iosdeploy

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/output"
)

// RealDevice is a device reported by `ios-deploy --detect --json`.
type RealDevice struct {
	Identifier string                `json:"DeviceIdentifier"`
	Name       string                `json:"DeviceName"`
	Model      identifier.Identifier `json:"modelName"`
	// Interface is "USB" or "WIFI".
	Interface string `json:"-"`
}

type event struct {
	Event     string      `json:"Event"`
	Interface string      `json:"Interface"`
	Device    *RealDevice `json:"Device"`
}

// detected reads the stream of concatenated JSON objects ios-deploy prints,
// keeping DeviceDetected events. No events means no devices.
var detected grammar.Parser[[]RealDevice] = func(input string) (string, []RealDevice, error) {
	dec := json.NewDecoder(strings.NewReader(input))
	var devices []RealDevice
	for {
		var ev event
		err := dec.Decode(&ev)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return input, nil, grammar.Fail(input[dec.InputOffset():], fmt.Sprintf("JSON event (%v)", err))
		}
		if ev.Device == nil || (ev.Event != "" && ev.Event != "DeviceDetected") {
			continue
		}
		d := *ev.Device
		d.Interface = ev.Interface
		devices = append(devices, d)
	}
	return "", devices, nil
}

// Detect classifies `ios-deploy --detect --json`. Failures are never
// recognized.
func Detect(log *zap.Logger) *output.Classifier[[]RealDevice, struct{}] {
	return &output.Classifier[[]RealDevice, struct{}]{
		Tool:    "ios-deploy --detect",
		Success: detected,
		Hint:    "connect a device over USB and trust this computer",
		Logger:  log,
	}
}

// DetectArgs builds the arguments for a detect run.
func DetectArgs(timeoutSeconds int, wifi bool) []string {
	args := []string{"--detect", "--json", "--timeout", strconv.Itoa(timeoutSeconds)}
	if !wifi {
		args = append(args, "--no-wifi")
	}
	return args
}

// Uploaded is a successful `ios-deploy --bundle` run.
type Uploaded struct {
	// Package is the path from the "[100%] Installed package" line.
	Package string
}

// DeployError is an "[ !! ] Error 0x...: message" line.
type DeployError struct {
	Code    uint32
	Message string
}

func (e DeployError) Error() string {
	return fmt.Sprintf("ios-deploy: error 0x%08x: %s", e.Code, e.Message)
}

const installedMarker = "[100%] Installed package"

var (
	installedLine = grammar.Map(
		grammar.Preceded(grammar.Tag(installedMarker), grammar.Rest),
		func(s string) Uploaded { return Uploaded{Package: strings.TrimSpace(s)} },
	)

	hexCode = grammar.TryMap(
		grammar.TakeWhile1("hex digits", func(r rune) bool { return unicode.Is(unicode.ASCII_Hex_Digit, r) }),
		"32-bit error code",
		func(s string) (uint32, error) {
			n, err := strconv.ParseUint(s, 16, 32)
			return uint32(n), err
		},
	)

	errorLine grammar.Parser[DeployError] = func(input string) (string, DeployError, error) {
		rest, code, err := grammar.Preceded(grammar.Tag("[ !! ] Error 0x"), hexCode)(input)
		if err != nil {
			return input, DeployError{}, err
		}
		rest, msg, err := grammar.Preceded(grammar.WS(grammar.Tag(":")), grammar.Rest)(rest)
		if err != nil {
			return input, DeployError{}, err
		}
		return rest, DeployError{Code: code, Message: strings.TrimSpace(msg)}, nil
	}
)

// scanLines consumes the whole stream and returns the first line p accepts.
// Other lines are progress chatter.
func scanLines[T any](expected string, p grammar.Parser[T]) grammar.Parser[T] {
	return func(input string) (string, T, error) {
		rest := input
		for rest != "" {
			next, line, _ := grammar.Line(rest)
			if _, v, err := grammar.AllConsuming(p)(strings.TrimSpace(line)); err == nil {
				return "", v, nil
			}
			rest = next
		}
		var zero T
		return input, zero, grammar.Fail(input, expected)
	}
}

// Upload classifies `ios-deploy --id <udid> --bundle <app>`.
func Upload(log *zap.Logger) *output.Classifier[Uploaded, DeployError] {
	return &output.Classifier[Uploaded, DeployError]{
		Tool:    "ios-deploy --bundle",
		Success: scanLines(fmt.Sprintf("%q line", installedMarker), installedLine),
		Failure: scanLines(`"[ !! ] Error" line`, errorLine),
		Hint:    "check the provisioning profile includes this device",
		Logger:  log,
	}
}
