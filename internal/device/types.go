package device

import (
	"slices"
	"strings"

	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/iosdeploy"
	"github.com/arnavsurve/applectl/internal/simctl"
)

// Kind distinguishes simulators from physical devices
type Kind int

const (
	KindSimulator Kind = iota
	KindPhysical
)

func (k Kind) String() string {
	if k == KindPhysical {
		return "physical"
	}
	return "simulator"
}

func (k Kind) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// StateConnected is reported for physical devices, which have no boot state.
const StateConnected = "Connected"

// Device is a simulator or physical device as presented to the user.
type Device struct {
	UDID string `json:"udid"`
	// Label is the user-facing name. For simulators it is the model name;
	// physical devices carry the name their owner gave them.
	Label       string                `json:"label"`
	Model       identifier.Identifier `json:"model"`
	Kind        Kind                  `json:"kind"`
	Platform    identifier.Platform   `json:"platform"`
	OSVersion   string                `json:"os_version,omitempty"`
	State       string                `json:"state"`
	IsAvailable bool                  `json:"is_available"`
	Interface   string                `json:"interface,omitempty"`
}

func FromSimulator(d simctl.Device) Device {
	return Device{
		UDID:        d.ID(),
		Label:       d.Name.String(),
		Model:       d.Name,
		Kind:        KindSimulator,
		Platform:    d.Runtime.Platform,
		OSVersion:   d.Runtime.Version,
		State:       string(d.State),
		IsAvailable: d.IsAvailable,
	}
}

func FromPhysical(d iosdeploy.RealDevice) Device {
	return Device{
		UDID:        d.Identifier,
		Label:       d.Name,
		Model:       d.Model,
		Kind:        KindPhysical,
		Platform:    identifier.PlatformIOS,
		State:       StateConnected,
		IsAvailable: true,
		Interface:   d.Interface,
	}
}

// Filter narrows a device listing. Zero fields match everything.
type Filter struct {
	Platform identifier.Platform
	// Family is "iphone" or "ipad".
	Family             string
	OnlyBooted         bool
	IncludeUnavailable bool
}

func (f Filter) match(d simctl.Device) bool {
	if !f.IncludeUnavailable && !d.IsAvailable {
		return false
	}
	if f.Platform != "" && d.Runtime.Platform != f.Platform {
		return false
	}
	if f.Family != "" && !strings.EqualFold(d.Name.Family().String(), f.Family) {
		return false
	}
	if f.OnlyBooted && d.State != simctl.StateBooted {
		return false
	}
	return true
}

// Sort orders devices by model: iPhones, then iPads, oldest first, with
// unrecognized names last. The same model on several OS versions is listed
// newest version first.
func Sort(devices []Device) {
	slices.SortStableFunc(devices, func(a, b Device) int {
		if c := identifier.Compare(a.Model, b.Model); c != 0 {
			return c
		}
		ra := identifier.Runtime{Version: a.OSVersion}
		rb := identifier.Runtime{Version: b.OSVersion}
		if c := rb.CompareVersion(ra); c != 0 {
			return c
		}
		return strings.Compare(a.Label, b.Label)
	})
}
