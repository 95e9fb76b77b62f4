// Package identifier parses the product names Apple tooling prints for
// devices ("iPhone 15 Pro Max", "iPad Pro 11-inch (M4)") into typed values.
//
// Parse is total: a name that no family grammar accepts becomes an
// Unrecognized identifier holding the input verbatim. A recognized
// identifier always renders back to exactly the string it was parsed from.
package identifier

import (
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Family is the top-level device category.
type Family int

const (
	FamilyUnrecognized Family = iota
	FamilyIPhone
	FamilyIPad
)

func (f Family) String() string {
	switch f {
	case FamilyIPhone:
		return "iphone"
	case FamilyIPad:
		return "ipad"
	}
	return "unrecognized"
}

// rank fixes the cross-family order: iPhones, then iPads, then anything
// unrecognized.
func (f Family) rank() int {
	switch f {
	case FamilyIPhone:
		return 0
	case FamilyIPad:
		return 1
	}
	return 2
}

// Identifier is an iPhone, an iPad or an unrecognized name. The zero value
// is the unrecognized empty string.
type Identifier struct {
	family Family
	iphone IPhoneVariant
	ipad   IPadVariant
	raw    string
}

// FromIPhone wraps an iPhone variant.
func FromIPhone(v IPhoneVariant) Identifier {
	return Identifier{family: FamilyIPhone, iphone: v, raw: v.String()}
}

// FromIPad wraps an iPad variant.
func FromIPad(v IPadVariant) Identifier {
	return Identifier{family: FamilyIPad, ipad: v, raw: v.String()}
}

// Unrecognized holds raw verbatim.
func Unrecognized(raw string) Identifier {
	return Identifier{raw: raw}
}

// NotCanonicalError reports a name that parsed but does not render back to
// the same bytes, e.g. because of irregular spacing.
type NotCanonicalError struct {
	Input    string
	Rendered string
}

func (e *NotCanonicalError) Error() string {
	return fmt.Sprintf("identifier %q renders as %q", e.Input, e.Rendered)
}

// iPad is tried before iPhone; neither keyword is a prefix of the other.
var family = grammar.Alt(
	grammar.Map(ipad, FromIPad),
	grammar.Map(iphone, FromIPhone),
)

// ParseStrict parses raw and reports grammar gaps instead of hiding them.
//
// A name with no family keyword is Unrecognized with a nil error. A name
// whose family keyword matched but whose body did not parse returns a
// committed *grammar.Error, and one that parsed but would render
// differently returns a *NotCanonicalError. In both error cases the
// returned identifier is Unrecognized(raw).
func ParseStrict(raw string) (Identifier, error) {
	_, id, err := family(raw)
	if err != nil {
		if grammar.IsCommitted(err) {
			return Unrecognized(raw), fmt.Errorf("parse %q: %w", raw, err)
		}
		return Unrecognized(raw), nil
	}
	if rendered := id.String(); rendered != raw {
		return Unrecognized(raw), &NotCanonicalError{Input: raw, Rendered: rendered}
	}
	return id, nil
}

// Parse never fails. Names ParseStrict rejects are logged at debug level
// and come back Unrecognized, so String always returns raw.
func Parse(raw string) Identifier {
	id, err := ParseStrict(raw)
	if err != nil {
		zap.L().Debug("identifier not recognized",
			zap.String("input", raw),
			zap.Error(err),
		)
	}
	return id
}

// Family returns the identifier's top-level category.
func (id Identifier) Family() Family { return id.family }

// Recognized reports whether a family grammar accepted the name.
func (id Identifier) Recognized() bool { return id.family != FamilyUnrecognized }

func (id Identifier) IsIPhone() bool { return id.family == FamilyIPhone }
func (id Identifier) IsIPad() bool   { return id.family == FamilyIPad }

// IPhone returns the iPhone variant, if any.
func (id Identifier) IPhone() (IPhoneVariant, bool) {
	return id.iphone, id.family == FamilyIPhone
}

// IPad returns the iPad variant, if any.
func (id Identifier) IPad() (IPadVariant, bool) {
	return id.ipad, id.family == FamilyIPad
}

// Raw returns the string the identifier was built from.
func (id Identifier) Raw() string { return id.raw }

func (id Identifier) String() string {
	switch id.family {
	case FamilyIPhone:
		return id.iphone.String()
	case FamilyIPad:
		return id.ipad.String()
	}
	return id.raw
}

// Compare orders identifiers oldest first. Across families every iPhone
// sorts before every iPad, and unrecognized names sort last, by raw string.
func Compare(a, b Identifier) int {
	if a.family != b.family {
		if a.family.rank() < b.family.rank() {
			return -1
		}
		return 1
	}
	switch a.family {
	case FamilyIPhone:
		return CompareIPhones(a.iphone, b.iphone)
	case FamilyIPad:
		return CompareIPads(a.ipad, b.ipad)
	}
	return strings.Compare(a.raw, b.raw)
}

// Equal reports whether a and b name the same device, ignoring how sizes
// and generations were spelled.
func (id Identifier) Equal(o Identifier) bool { return Compare(id, o) == 0 }

func (id Identifier) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

func (id *Identifier) UnmarshalText(text []byte) error {
	*id = Parse(string(text))
	return nil
}

func (id Identifier) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

func (id *Identifier) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("identifier: %w", err)
	}
	*id = Parse(s)
	return nil
}
