package identifier

import (
	"cmp"
	"strconv"
	"strings"
	"unicode"

	"github.com/arnavsurve/applectl/internal/grammar"
)

// Platform is a simulator runtime's operating system.
type Platform string

const (
	PlatformIOS      Platform = "ios"
	PlatformMacOS    Platform = "macos"
	PlatformWatchOS  Platform = "watchos"
	PlatformTVOS     Platform = "tvos"
	PlatformVisionOS Platform = "visionos"
	PlatformUnknown  Platform = "unknown"
)

// Runtime is a parsed CoreSimulator runtime identifier such as
// "com.apple.CoreSimulator.SimRuntime.iOS-17-4".
type Runtime struct {
	ID       string
	Platform Platform
	// Version is dotted, e.g. "17.4". Empty when the identifier has none.
	Version string
}

func (r Runtime) String() string { return r.ID }

// CompareVersion orders runtimes by numeric version, so "9.3" < "17.4".
// Missing components count as zero.
func (r Runtime) CompareVersion(o Runtime) int {
	a, b := strings.Split(r.Version, "."), strings.Split(o.Version, ".")
	for i := range max(len(a), len(b)) {
		if c := cmp.Compare(component(a, i), component(b, i)); c != 0 {
			return c
		}
	}
	return 0
}

func component(parts []string, i int) int {
	if i >= len(parts) {
		return 0
	}
	n, _ := strconv.Atoi(parts[i])
	return n
}

const runtimePrefix = "com.apple.CoreSimulator.SimRuntime."

var (
	platformName = grammar.Map(
		grammar.TakeWhile1("platform", func(r rune) bool { return unicode.IsLetter(r) }),
		func(s string) Platform {
			switch strings.ToLower(s) {
			case "ios":
				return PlatformIOS
			case "macos":
				return PlatformMacOS
			case "watchos":
				return PlatformWatchOS
			case "tvos":
				return PlatformTVOS
			case "xros", "visionos":
				return PlatformVisionOS
			}
			return PlatformUnknown
		},
	)

	versionPart = grammar.Preceded(grammar.Tag("-"), grammar.Digits)
)

// ParseRuntime splits a runtime identifier into platform and version. The
// reverse-DNS prefix is optional. Anything it cannot read yields
// PlatformUnknown rather than an error.
func ParseRuntime(id string) Runtime {
	rt := Runtime{ID: id, Platform: PlatformUnknown}
	rest, plat, err := platformName(strings.TrimPrefix(id, runtimePrefix))
	if err != nil {
		return rt
	}
	rt.Platform = plat
	if _, parts, err := grammar.AllConsuming(grammar.Many0(versionPart))(rest); err == nil {
		rt.Version = strings.Join(parts, ".")
	}
	return rt
}
