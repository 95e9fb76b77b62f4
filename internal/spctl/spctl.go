// Package spctl classifies `spctl --assess --verbose` output:
//
//	/Applications/Demo.app: accepted
//	source=Notarized Developer ID
//	origin=Developer ID Application: Example Corp (ABCDE12345)
package spctl

import (
	"strings"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
	"github.com/arnavsurve/applectl/internal/output"
)

// Verdict is Gatekeeper's assessment of one path.
type Verdict struct {
	Path     string
	Accepted bool
	// Detail is the parenthesised note after a verdict, e.g. "the code is
	// valid but does not seem to be an app".
	Detail string
	Source string
	Origin string
	Fields map[string]string
}

type field struct{ key, value string }

var (
	verdictWord = grammar.Alt(
		grammar.Value(true, grammar.Tag("accepted")),
		grammar.Value(false, grammar.Tag("rejected")),
	)

	detail = grammar.Map(
		grammar.Optional(grammar.Delimited(
			grammar.WS(grammar.Tag("(")),
			grammar.TakeTill(func(r rune) bool { return r == ')' || r == '\n' }),
			grammar.Tag(")"),
		)),
		func(s *string) string {
			if s == nil {
				return ""
			}
			return *s
		},
	)

	fieldLine grammar.Parser[field] = func(input string) (string, field, error) {
		rest, line, err := grammar.Line(input)
		if err != nil {
			return input, field{}, err
		}
		k, v, ok := strings.Cut(line, "=")
		if !ok || k == "" || strings.ContainsAny(k, " \t") {
			return input, field{}, grammar.Fail(input, "key=value line")
		}
		return rest, field{key: k, value: v}, nil
	}
)

// verdictFor accepts only the given verdict so success and failure grammars
// stay disjoint.
func verdictFor(accepted bool) grammar.Parser[Verdict] {
	return func(input string) (string, Verdict, error) {
		rest, path, err := grammar.TakeUntil(": ")(input)
		if err != nil {
			return input, Verdict{}, err
		}
		rest = rest[len(": "):]
		var v Verdict
		if rest, v.Accepted, err = verdictWord(rest); err != nil {
			return input, Verdict{}, err
		}
		if v.Accepted != accepted {
			return input, Verdict{}, grammar.Fail(rest, "verdict")
		}
		rest, v.Detail, _ = detail(rest)
		rest, _, _ = grammar.Space0(rest)

		rest, fields, err := grammar.Many0(fieldLine)(rest)
		if err != nil {
			return input, Verdict{}, err
		}
		v.Path = path
		v.Fields = make(map[string]string, len(fields))
		for _, f := range fields {
			v.Fields[f.key] = f.value
		}
		v.Source, v.Origin = v.Fields["source"], v.Fields["origin"]
		return rest, v, nil
	}
}

// Assess classifies `spctl --assess --verbose <path>`. Both verdicts are
// printed on stderr; a rejection exits non-zero.
func Assess(log *zap.Logger) *output.Classifier[Verdict, Verdict] {
	return &output.Classifier[Verdict, Verdict]{
		Tool:              "spctl --assess",
		Success:           verdictFor(true),
		SuccessFromStderr: true,
		Failure:           verdictFor(false),
		Hint:              "notarize the app or check its signature with `applectl codesign display`",
		Logger:            log,
	}
}
