// Package corpus checks that device names survive a parse and render
// unchanged.
//
// A corpus is a YAML or JSON list. Each entry is either a bare name, which
// must be recognized and round-trip exactly, or a mapping that marks names
// the grammars are expected to leave unrecognized:
//
//	- iPhone 15 Pro Max
//	- name: Apple Watch Series 9 (45mm)
//	  unrecognized: true
package corpus

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/arnavsurve/applectl/internal/identifier"
)

var (
	ErrNotRecognized   = errors.New("name is not recognized")
	ErrUnexpectedMatch = errors.New("name was expected to stay unrecognized")
	ErrEmptyName       = errors.New("empty name")
)

type Entry struct {
	Name         string `yaml:"name"`
	Unrecognized bool   `yaml:"unrecognized"`
}

func (e *Entry) UnmarshalYAML(n *yaml.Node) error {
	if n.Kind == yaml.ScalarNode {
		e.Name = n.Value
		return nil
	}
	type plain Entry
	return n.Decode((*plain)(e))
}

// RoundTripError records a corpus name that did not survive.
type RoundTripError struct {
	Name string
	// Got is the rendering of the parsed name.
	Got string
	Err error
}

func (e *RoundTripError) Error() string {
	if e.Got != "" && e.Got != e.Name {
		return fmt.Sprintf("%q: rendered as %q: %v", e.Name, e.Got, e.Err)
	}
	return fmt.Sprintf("%q: %v", e.Name, e.Err)
}

func (e *RoundTripError) Unwrap() error { return e.Err }

// Decode reads a corpus. JSON is accepted as the YAML subset it is.
func Decode(data []byte) ([]Entry, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return entries, nil
}

func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	entries, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return entries, nil
}

// Result is the outcome for one entry. Err is nil or a *RoundTripError.
type Result struct {
	Entry
	Identifier identifier.Identifier
	Err        error
}

type Report struct {
	Results []Result
}

func (r Report) Failures() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}

func (r Report) OK() bool { return len(r.Failures()) == 0 }

// Err joins every failure, or returns nil.
func (r Report) Err() error {
	var errs []error
	for _, res := range r.Failures() {
		errs = append(errs, res.Err)
	}
	return errors.Join(errs...)
}

func Check(entries []Entry) Report {
	report := Report{Results: make([]Result, len(entries))}
	for i, e := range entries {
		report.Results[i] = check(e)
	}
	return report
}

func check(e Entry) Result {
	res := Result{Entry: e}
	if strings.TrimSpace(e.Name) == "" {
		res.Err = &RoundTripError{Name: e.Name, Err: ErrEmptyName}
		return res
	}

	id, err := identifier.ParseStrict(e.Name)
	res.Identifier = id
	switch {
	case e.Unrecognized:
		if id.Recognized() {
			res.Err = &RoundTripError{Name: e.Name, Got: id.String(), Err: ErrUnexpectedMatch}
		}
	case err != nil:
		var nc *identifier.NotCanonicalError
		got := ""
		if errors.As(err, &nc) {
			got = nc.Rendered
		}
		res.Err = &RoundTripError{Name: e.Name, Got: got, Err: err}
	case !id.Recognized():
		res.Err = &RoundTripError{Name: e.Name, Err: ErrNotRecognized}
	}
	return res
}

func CheckFile(path string) (Report, error) {
	entries, err := Load(path)
	if err != nil {
		return Report{}, err
	}
	return Check(entries), nil
}
