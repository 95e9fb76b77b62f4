package simctl

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/grammar"
	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/output"
)

// State is a simulator's run state.
type State string

const (
	StateShutdown     State = "Shutdown"
	StateBooted       State = "Booted"
	StateBooting      State = "Booting"
	StateShuttingDown State = "Shutting Down"
)

// Device is one entry of `simctl list devices -j`.
type Device struct {
	UDID                 uuid.UUID             `json:"udid"`
	Name                 identifier.Identifier `json:"name"`
	State                State                 `json:"state"`
	IsAvailable          bool                  `json:"isAvailable"`
	DeviceTypeIdentifier string                `json:"deviceTypeIdentifier"`
	DataPath             string                `json:"dataPath"`
	LogPath              string                `json:"logPath"`
	AvailabilityError    string                `json:"availabilityError,omitempty"`
	LastBootedAt         string                `json:"lastBootedAt,omitempty"`

	// Runtime is filled in from the enclosing runtime key.
	Runtime identifier.Runtime `json:"-"`
}

// ID is the UDID in the upper-case form simctl prints.
func (d Device) ID() string { return strings.ToUpper(d.UDID.String()) }

// Ready reports whether the simulator is booted and usable.
func (d Device) Ready() bool { return d.State == StateBooted && d.IsAvailable }

// DeviceList is the output of `simctl list devices -j`, keyed by runtime
// identifier.
type DeviceList struct {
	Devices map[string][]Device `json:"devices"`
}

// All returns every device with its Runtime set, ordered by runtime
// identifier and then as listed.
func (l DeviceList) All() []Device {
	keys := make([]string, 0, len(l.Devices))
	for k := range l.Devices {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var out []Device
	for _, k := range keys {
		rt := identifier.ParseRuntime(k)
		for _, d := range l.Devices[k] {
			d.Runtime = rt
			out = append(out, d)
		}
	}
	return out
}

// Names returns the parsed names of all devices.
func (l DeviceList) Names() []identifier.Identifier {
	all := l.All()
	names := make([]identifier.Identifier, len(all))
	for i, d := range all {
		names[i] = d.Name
	}
	return names
}

// Filter returns the devices accepted by keep.
func (l DeviceList) Filter(keep func(Device) bool) []Device {
	return slices.DeleteFunc(l.All(), func(d Device) bool { return !keep(d) })
}

// Find looks a device up by UDID or exact name. Available devices win over
// unavailable ones with the same name.
func (l DeviceList) Find(nameOrUDID string) (Device, bool) {
	var found *Device
	all := l.All()
	for i := range all {
		d := &all[i]
		if strings.EqualFold(d.UDID.String(), nameOrUDID) {
			return *d, true
		}
		if d.Name.String() == nameOrUDID && (found == nil || (!found.IsAvailable && d.IsAvailable)) {
			found = d
		}
	}
	if found == nil {
		return Device{}, false
	}
	return *found, true
}

// NewestIPad returns the available device with the newest iPad name.
func (l DeviceList) NewestIPad() (Device, bool) {
	return l.newest(identifier.FamilyIPad)
}

// NewestIPhone returns the available device with the newest iPhone name.
func (l DeviceList) NewestIPhone() (Device, bool) {
	return l.newest(identifier.FamilyIPhone)
}

func (l DeviceList) newest(f identifier.Family) (Device, bool) {
	devices := l.Filter(func(d Device) bool { return d.IsAvailable && d.Name.Family() == f })
	if len(devices) == 0 {
		return Device{}, false
	}
	return slices.MaxFunc(devices, func(a, b Device) int {
		if c := identifier.Compare(a.Name, b.Name); c != 0 {
			return c
		}
		// Same model on several runtimes: prefer the newest runtime.
		return a.Runtime.CompareVersion(b.Runtime)
	}), true
}

var errNoDevices = errors.New(`missing "devices" object`)

var deviceList = grammar.TryMap(output.JSON[DeviceList](), "device list", func(l DeviceList) (DeviceList, error) {
	if l.Devices == nil {
		return l, errNoDevices
	}
	return l, nil
})

// List classifies `simctl list devices -j`.
func List(log *zap.Logger) *output.Classifier[DeviceList, Failure] {
	return &output.Classifier[DeviceList, Failure]{
		Tool:    "simctl list devices",
		Success: deviceList,
		Failure: failure,
		Hint:    "make sure Xcode command line tools are installed: xcode-select --install",
		Logger:  log,
	}
}

// DeviceType is one entry of `simctl list devicetypes -j`.
type DeviceType struct {
	Identifier    string
	Name          identifier.Identifier
	ProductFamily string
	MinRuntime    string
	MaxRuntime    string
}

// RuntimeInfo is one entry of `simctl list runtimes -j`.
type RuntimeInfo struct {
	Runtime      identifier.Runtime
	Name         string
	Version      string
	BuildVersion string
	IsAvailable  bool
}

var deviceTypes = output.GJSON(func(r gjson.Result) ([]DeviceType, error) {
	arr := r.Get("devicetypes")
	if !arr.IsArray() {
		return nil, errors.New(`missing "devicetypes" array`)
	}
	var out []DeviceType
	arr.ForEach(func(_, dt gjson.Result) bool {
		out = append(out, DeviceType{
			Identifier:    dt.Get("identifier").String(),
			Name:          identifier.Parse(dt.Get("name").String()),
			ProductFamily: dt.Get("productFamily").String(),
			MinRuntime:    dt.Get("minRuntimeVersionString").String(),
			MaxRuntime:    dt.Get("maxRuntimeVersionString").String(),
		})
		return true
	})
	return out, nil
})

var runtimes = output.GJSON(func(r gjson.Result) ([]RuntimeInfo, error) {
	arr := r.Get("runtimes")
	if !arr.IsArray() {
		return nil, errors.New(`missing "runtimes" array`)
	}
	var out []RuntimeInfo
	arr.ForEach(func(_, rt gjson.Result) bool {
		out = append(out, RuntimeInfo{
			Runtime:      identifier.ParseRuntime(rt.Get("identifier").String()),
			Name:         rt.Get("name").String(),
			Version:      rt.Get("version").String(),
			BuildVersion: rt.Get("buildversion").String(),
			IsAvailable:  rt.Get("isAvailable").Bool(),
		})
		return true
	})
	return out, nil
})

// DeviceTypes classifies `simctl list devicetypes -j`.
func DeviceTypes(log *zap.Logger) *output.Classifier[[]DeviceType, Failure] {
	return &output.Classifier[[]DeviceType, Failure]{
		Tool:    "simctl list devicetypes",
		Success: deviceTypes,
		Failure: failure,
		Logger:  log,
	}
}

// Runtimes classifies `simctl list runtimes -j`.
func Runtimes(log *zap.Logger) *output.Classifier[[]RuntimeInfo, Failure] {
	return &output.Classifier[[]RuntimeInfo, Failure]{
		Tool:    "simctl list runtimes",
		Success: runtimes,
		Failure: failure,
		Logger:  log,
	}
}
