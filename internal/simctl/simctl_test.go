package simctl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/output"
)

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func failed(stderr string) output.Execution {
	return output.Execution{Stderr: []byte(stderr)}
}

func succeeded(stdout string) output.Execution {
	return output.Execution{Success: true, Stdout: []byte(stdout)}
}

func TestBootAlreadyBooted(t *testing.T) {
	tests := []struct {
		name   string
		stderr string
	}{
		{
			name:   "single line",
			stderr: "An error was encountered processing the command (domain=..., code=60): Unable to boot device in current state: Booted",
		},
		{
			name: "as printed",
			stderr: "An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=405):\n" +
				"Unable to boot device in current state: Booted\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Boot(zap.NewNop()).Classify(failed(tt.stderr))
			require.Equal(t, output.RecognizedFailure, out.Kind())

			f, ok := out.Failure()
			require.True(t, ok)
			assert.Equal(t, ReasonAlreadyBooted, f.Reason)
			assert.True(t, out.IsSuccess(), "already booted is not an error")

			_, err := out.Primary()
			assert.Error(t, err)
		})
	}
}

func TestBoot(t *testing.T) {
	c := Boot(nil)

	out := c.Classify(succeeded(""))
	assert.Equal(t, output.RecognizedSuccess, out.Kind())
	_, err := out.Primary()
	assert.NoError(t, err)

	out = c.Classify(succeeded("unexpected chatter"))
	assert.Equal(t, output.UnimplementedSuccess, out.Kind())
	assert.True(t, out.IsSuccess())

	out = c.Classify(failed("An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=164):\nInvalid device: iPhone 99\n"))
	f, ok := out.Failure()
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidDevice, f.Reason)
	assert.Equal(t, "iPhone 99", f.Subject)
	assert.Equal(t, 164, f.Err.Code)
	assert.False(t, out.IsSuccess())

	_, err = out.Primary()
	var ce *output.ClassificationError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, listHint, ce.Hint)

	out = c.Classify(failed("xcrun: error: unable to find utility \"simctl\", not a developer tool or in PATH\n"))
	assert.Equal(t, output.UnimplementedFailure, out.Kind())
}

func TestShutdown(t *testing.T) {
	c := Shutdown(nil)
	out := c.Classify(failed("An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=405):\nUnable to shutdown device in current state: Shutdown\n"))
	f, ok := out.Failure()
	require.True(t, ok)
	assert.Equal(t, ReasonAlreadyShutdown, f.Reason)
	assert.True(t, out.IsSuccess())

	bootOut := Boot(nil).Classify(failed("An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=405):\nUnable to shutdown device in current state: Shutdown\n"))
	assert.False(t, bootOut.IsSuccess(), "boot does not tolerate shutdown failures")
}

func TestEnvelope(t *testing.T) {
	stderr := "An error was encountered processing the command (domain=NSPOSIXErrorDomain, code=-2):\n" +
		"Simulator device failed to install the application.\n" +
		"\tUnderlying error (domain=NSPOSIXErrorDomain, code=2):\n" +
		"\t\tNo such file or directory\n"
	e, err := ParseError(stderr)
	require.NoError(t, err)
	want := Error{
		Domain: "NSPOSIXErrorDomain",
		Code:   -2,
		Messages: []string{
			"Simulator device failed to install the application.",
			"Underlying error (domain=NSPOSIXErrorDomain, code=2):",
			"No such file or directory",
		},
	}
	if diff := cmp.Diff(want, e); diff != "" {
		t.Errorf("ParseError mismatch (-want +got):\n%s", diff)
	}
	assert.Contains(t, e.Error(), "failed to install")

	out := Install(nil).Classify(failed(stderr))
	f, ok := out.Failure()
	require.True(t, ok)
	assert.Equal(t, ReasonOther, f.Reason)

	_, err = ParseError("An error was encountered processing the command (domain=X, code=1):")
	assert.Error(t, err)
	_, err = ParseError("An error was encountered processing the command garbage")
	assert.Error(t, err)
}

func TestLaunch(t *testing.T) {
	out := Launch(nil).Classify(succeeded("com.example.App: 48213\n"))
	got, err := out.Primary()
	require.NoError(t, err)
	assert.Equal(t, Launched{BundleID: "com.example.App", PID: 48213}, got)

	for _, bad := range []string{"", "com.example.App", "com.example.App: abc", "two words: 1"} {
		out := Launch(nil).Classify(succeeded(bad))
		assert.Equal(t, output.UnimplementedSuccess, out.Kind(), bad)
	}
}

func TestCreate(t *testing.T) {
	out := Create(nil).Classify(succeeded("5D3C1B0A-9F8E-4D7C-8B6A-594837261504\n"))
	got, err := out.Primary()
	require.NoError(t, err)
	assert.Equal(t, uuid.MustParse("5D3C1B0A-9F8E-4D7C-8B6A-594837261504"), got.UDID)

	out = Create(nil).Classify(succeeded("not-a-uuid"))
	assert.Equal(t, output.UnimplementedSuccess, out.Kind())

	out = Create(nil).Classify(failed("An error was encountered processing the command (domain=com.apple.CoreSimulator.SimError, code=163):\nInvalid device type: com.apple.CoreSimulator.SimDeviceType.iPhone-99\n"))
	f, ok := out.Failure()
	require.True(t, ok)
	assert.Equal(t, ReasonInvalidDeviceType, f.Reason)
	assert.Equal(t, "com.apple.CoreSimulator.SimDeviceType.iPhone-99", f.Subject)
}

func TestDeleteAndInstall(t *testing.T) {
	assert.Equal(t, output.RecognizedSuccess, Delete(nil).Classify(succeeded("")).Kind())
	assert.Equal(t, output.RecognizedSuccess, Install(nil).Classify(succeeded("\n")).Kind())
}

func TestList(t *testing.T) {
	out := List(nil).Classify(output.Execution{Success: true, Stdout: fixture(t, "list-devices.json")})
	list, err := out.Primary()
	require.NoError(t, err)

	all := list.All()
	require.Len(t, all, 7)
	assert.Equal(t, identifier.PlatformIOS, all[0].Runtime.Platform)
	assert.Equal(t, "17.4", all[0].Runtime.Version)
	assert.Equal(t, "iPhone 15 Pro Max", all[0].Name.String())
	assert.True(t, all[0].Name.IsIPhone())
	assert.True(t, all[0].Ready())

	mini, ok := list.Find("iPad mini (A17 Pro)")
	require.True(t, ok)
	assert.False(t, mini.Name.Recognized())

	byUDID, ok := list.Find("f0e1d2c3-b4a5-4697-8879-6a5b4c3d2e1f")
	require.True(t, ok)
	assert.Equal(t, "iPad Pro 11-inch (M4)", byUDID.Name.String())

	_, ok = list.Find("iPhone 99")
	assert.False(t, ok)

	ipad, ok := list.NewestIPad()
	require.True(t, ok)
	assert.Equal(t, "iPad Pro 11-inch (M4)", ipad.Name.String(), "the 13-inch is unavailable")

	iphone, ok := list.NewestIPhone()
	require.True(t, ok)
	assert.Equal(t, "iPhone 15 Pro Max", iphone.Name.String())

	booted := list.Filter(Device.Ready)
	require.Len(t, booted, 1)

	assert.Len(t, list.Names(), 7)
}

func TestListRejectsOtherJSON(t *testing.T) {
	for _, stdout := range []string{`{}`, `[]`, `{"devices": `, `== Devices ==`} {
		out := List(nil).Classify(succeeded(stdout))
		assert.Equal(t, output.UnimplementedSuccess, out.Kind(), stdout)
	}
}

func TestDeviceTypes(t *testing.T) {
	out := DeviceTypes(nil).Classify(output.Execution{Success: true, Stdout: fixture(t, "list-devicetypes.json")})
	types, err := out.Primary()
	require.NoError(t, err)
	require.Len(t, types, 3)

	assert.Equal(t, "com.apple.CoreSimulator.SimDeviceType.iPhone-15-Pro", types[0].Identifier)
	assert.True(t, types[0].Name.IsIPhone())
	assert.True(t, types[1].Name.IsIPad())
	assert.Equal(t, "17.4.0", types[1].MinRuntime)
	assert.False(t, types[2].Name.Recognized())

	out = DeviceTypes(nil).Classify(succeeded(`{"runtimes": []}`))
	assert.Equal(t, output.UnimplementedSuccess, out.Kind())
}

func TestRuntimes(t *testing.T) {
	out := Runtimes(nil).Classify(output.Execution{Success: true, Stdout: fixture(t, "list-runtimes.json")})
	rts, err := out.Primary()
	require.NoError(t, err)
	require.Len(t, rts, 2)

	assert.Equal(t, identifier.PlatformIOS, rts[0].Runtime.Platform)
	assert.Equal(t, "21E213", rts[0].BuildVersion)
	assert.True(t, rts[0].IsAvailable)
	assert.Equal(t, identifier.PlatformVisionOS, rts[1].Runtime.Platform)
	assert.False(t, rts[1].IsAvailable)
}
