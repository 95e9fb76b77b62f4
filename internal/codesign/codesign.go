// Package codesign classifies `codesign` output. codesign reports on
// stderr whether it succeeds or not.
package codesign

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
	"github.com/arnavsurve/applectl/internal/output"
)

// Reason classifies a codesign failure.
type Reason int

const (
	ReasonNotSigned Reason = iota + 1
	ReasonAlreadySigned
	ReasonIdentityNotFound
	ReasonNoSuchFile
)

func (r Reason) String() string {
	switch r {
	case ReasonNotSigned:
		return "not signed"
	case ReasonAlreadySigned:
		return "already signed"
	case ReasonIdentityNotFound:
		return "identity not found"
	case ReasonNoSuchFile:
		return "no such file"
	}
	return fmt.Sprintf("Reason(%d)", int(r))
}

// Failure is a recognized codesign error. Subject is the path, or the
// identity for ReasonIdentityNotFound when codesign names it.
type Failure struct {
	Reason  Reason
	Subject string
}

func (f Failure) Error() string {
	if f.Subject == "" {
		return "codesign: " + f.Reason.String()
	}
	return fmt.Sprintf("codesign: %s: %s", f.Subject, f.Reason)
}

// SignedKeys are the fields of `codesign -d -vvvv`.
type SignedKeys struct {
	Executable     string
	Identifier     string
	TeamIdentifier string
	// Authorities is the certificate chain, leaf first.
	Authorities []string
	SignedTime  time.Time
	// Raw holds every key as printed, with repeated Authority keys numbered
	// Authority_1, Authority_2 and so on.
	Raw map[string]string
}

// Signed is a successful `codesign -s`.
type Signed struct {
	// Replaced is set when --force overwrote an existing signature.
	Replaced bool
}

// "16 Mar 2024 at 2:41:28 pm"; newer macOS separates the seconds and
// "pm" with a narrow no-break space.
const signedTimeLayout = "2 Jan 2006 at 3:04:05 pm"

func parseSignedTime(s string) (time.Time, error) {
	s = strings.NewReplacer("\u202f", " ", "\u00a0", " ").Replace(s)
	if t, err := time.Parse(signedTimeLayout, s); err == nil {
		return t, nil
	}
	return time.Parse("2 Jan 2006 at 15:04:05", s)
}

type pair struct{ key, value string }

var (
	keyValue grammar.Parser[pair] = func(input string) (string, pair, error) {
		rest, key, err := grammar.TakeWhile1("key", func(r rune) bool { return r != '=' && r != '\n' })(input)
		if err != nil {
			return input, pair{}, err
		}
		if rest, _, err = grammar.Tag("=")(rest); err != nil {
			return input, pair{}, err
		}
		rest, value, _ := grammar.TakeTill(func(r rune) bool { return r == '\n' })(rest)
		rest, _, _ = grammar.Space0(rest)
		return rest, pair{key: key, value: strings.TrimRight(value, "\r")}, nil
	}

	signedKeys = grammar.TryMap(grammar.Many1(keyValue), "codesign key=value listing", fromPairs)
)

func fromPairs(pairs []pair) (SignedKeys, error) {
	keys := SignedKeys{Raw: make(map[string]string, len(pairs))}
	for _, p := range pairs {
		key := p.key
		if key == "Authority" {
			keys.Authorities = append(keys.Authorities, p.value)
			key = fmt.Sprintf("Authority_%d", len(keys.Authorities))
		}
		keys.Raw[key] = p.value
	}

	var missing []string
	get := func(k string) string {
		v, ok := keys.Raw[k]
		if !ok {
			missing = append(missing, k)
		}
		return v
	}
	keys.Executable = get("Executable")
	keys.Identifier = get("Identifier")
	get("Authority_1")
	signed := get("Signed Time")
	if len(missing) > 0 {
		return SignedKeys{}, fmt.Errorf("missing %s", strings.Join(missing, ", "))
	}
	keys.TeamIdentifier = keys.Raw["TeamIdentifier"]

	t, err := parseSignedTime(signed)
	if err != nil {
		return SignedKeys{}, fmt.Errorf("signed time: %w", err)
	}
	keys.SignedTime = t
	return keys, nil
}

// ParseSignedKeys parses `codesign -d -vvvv` stderr.
func ParseSignedKeys(s string) (SignedKeys, error) {
	return grammar.Parse(signedKeys, s)
}

// pathFailure matches "<path>: <suffix>".
func pathFailure(r Reason, suffix string) grammar.Parser[Failure] {
	return grammar.Map(
		grammar.Terminated(grammar.TakeUntil(": "+suffix), grammar.Tag(": "+suffix)),
		func(path string) Failure { return Failure{Reason: r, Subject: path} },
	)
}

var (
	notSigned     = pathFailure(ReasonNotSigned, "code object is not signed at all")
	noSuchFile    = pathFailure(ReasonNoSuchFile, "No such file or directory")
	alreadySigned = pathFailure(ReasonAlreadySigned, "is already signed")

	identityNotFound = grammar.Alt(
		grammar.Value(Failure{Reason: ReasonIdentityNotFound},
			grammar.Tag("error: The specified item could not be found in the keychain.")),
		pathFailure(ReasonIdentityNotFound, "no identity found"),
	)

	replacing = grammar.Value(Signed{Replaced: true},
		grammar.Preceded(grammar.TakeUntil(": replacing existing signature"), grammar.Tag(": replacing existing signature")))

	signed = grammar.Alt(replacing, grammar.Value(Signed{}, grammar.EOF))
)

// Display classifies `codesign -d -vvvv <path>`.
func Display(log *zap.Logger) *output.Classifier[SignedKeys, Failure] {
	return &output.Classifier[SignedKeys, Failure]{
		Tool:              "codesign -d",
		Success:           signedKeys,
		SuccessFromStderr: true,
		Failure:           grammar.Alt(notSigned, noSuchFile),
		Hint:              "sign the bundle first with `applectl codesign sign`",
		Logger:            log,
	}
}

// Sign classifies `codesign -s <identity> <path>`.
func Sign(log *zap.Logger) *output.Classifier[Signed, Failure] {
	return &output.Classifier[Signed, Failure]{
		Tool:              "codesign -s",
		Success:           signed,
		SuccessFromStderr: true,
		Failure:           grammar.Alt(alreadySigned, identityNotFound, noSuchFile),
		Hint:              "list signing identities with `security find-identity -v -p codesigning`; pass --force to re-sign",
		Logger:            log,
	}
}
