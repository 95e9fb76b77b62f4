package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavsurve/applectl/internal/output"
	"github.com/arnavsurve/applectl/internal/process"
)

type fakeExecutor struct {
	responses map[string]output.Execution
	calls     []string
}

func (f *fakeExecutor) Execute(_ context.Context, name string, args ...string) (output.Execution, error) {
	line := strings.Join(append([]string{name}, args...), " ")
	f.calls = append(f.calls, line)
	exec, ok := f.responses[line]
	if !ok {
		return output.Execution{}, &process.CommandError{Command: name, Err: fmt.Errorf("unexpected command %q", line)}
	}
	return exec, nil
}

func readFile(t *testing.T, parts ...string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(parts...))
	require.NoError(t, err)
	return data
}

type result struct {
	stdout, stderr string
	err            error
}

func run(t *testing.T, fake *fakeExecutor, args ...string) result {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	prev := color.NoColor
	color.NoColor = true
	t.Cleanup(func() { color.NoColor = prev })

	if fake == nil {
		fake = &fakeExecutor{}
	}
	a := &app{exec: fake}
	defer a.teardown()

	cmd := newRootCmd(a, "test")
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func simulators(t *testing.T) *fakeExecutor {
	return &fakeExecutor{responses: map[string]output.Execution{
		"xcrun simctl list devices -j": {Success: true, Stdout: readFile(t, "..", "simctl", "testdata", "list-devices.json")},
	}}
}

func TestNamesParseJSON(t *testing.T) {
	res := run(t, nil, "names", "parse", "--json", "iPhone 15 Pro Max", "iPhone  15", "Apple TV")
	require.NoError(t, res.err)

	var got []parsedName
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	require.Len(t, got, 3)

	assert.Equal(t, parsedName{
		Input: "iPhone 15 Pro Max", Recognized: true, Family: "iphone",
		Rendered: "iPhone 15 Pro Max", RoundTrip: true,
	}, got[0])

	assert.False(t, got[1].Recognized)
	assert.False(t, got[1].RoundTrip)
	assert.NotEmpty(t, got[1].Error)

	assert.Equal(t, parsedName{Input: "Apple TV", Family: "unrecognized", Rendered: "Apple TV"}, got[2])
}

func TestNamesParseText(t *testing.T) {
	res := run(t, nil, "names", "parse", "iPad Air 11-inch (M2)")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "✓ iPad Air 11-inch (M2) ipad")
}

func TestNamesCheck(t *testing.T) {
	res := run(t, nil, "names", "check", filepath.Join("..", "corpus", "testdata", "names.yaml"))
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "names round-trip")

	res = run(t, nil, "names", "check", filepath.Join("..", "corpus", "testdata", "broken.yaml"))
	assert.ErrorIs(t, res.err, errCorpusFailed)
	assert.Contains(t, res.stderr, `"iPhone 16e"`)
}

func TestDevicesListJSON(t *testing.T) {
	res := run(t, simulators(t), "devices", "list", "--json", "--family", "ipad")
	require.NoError(t, res.err)

	var got []struct {
		Label string `json:"label"`
		Model string `json:"model"`
		Kind  string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &got))
	require.Len(t, got, 2)
	assert.Equal(t, "iPad Pro (12.9-inch) (6th generation)", got[0].Label)
	assert.Equal(t, "iPad Pro 11-inch (M4)", got[1].Model)
	assert.Equal(t, "simulator", got[1].Kind)
}

func TestDevicesListRejectsUnknownFamily(t *testing.T) {
	res := run(t, simulators(t), "devices", "list", "--family", "watch")
	assert.ErrorContains(t, res.err, "unknown family")
}

func TestDevicesListText(t *testing.T) {
	res := run(t, simulators(t), "devices", "list")
	require.NoError(t, res.err)
	assert.Less(t, strings.Index(res.stderr, "IPHONE"), strings.Index(res.stderr, "IPAD"))
	assert.Contains(t, res.stderr, "[Booted]")
}

func TestDevicesBootNewest(t *testing.T) {
	fake := simulators(t)
	fake.responses["xcrun simctl boot F0E1D2C3-B4A5-4697-8879-6A5B4C3D2E1F"] = output.Execution{Success: true}
	fake.responses["open -a Simulator"] = output.Execution{Success: true}

	res := run(t, fake, "devices", "boot", "--newest-ipad")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "Booted iPad Pro 11-inch (M4)")
	assert.Contains(t, fake.calls, "open -a Simulator")

	res = run(t, simulators(t), "devices", "boot")
	assert.ErrorIs(t, res.err, errNoDevice)
}

func TestDevicesLaunchPassesAppArgs(t *testing.T) {
	fake := simulators(t)
	fake.responses["xcrun simctl launch 0B1D2F6E-4A3C-4E8B-9C7D-1A2B3C4D5E6F com.example.demo -reset 1"] = output.Execution{
		Success: true, Stdout: []byte("com.example.demo: 311\n"),
	}

	res := run(t, fake, "devices", "launch", "iPhone 15 Pro Max", "com.example.demo", "--", "-reset", "1")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "pid 311")
}

func TestCodesignDisplay(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]output.Execution{
		"codesign -d -vvvv Demo.app":  {Success: true, Stderr: readFile(t, "..", "codesign", "testdata", "display.txt")},
		"codesign -d -vvvv Plain.app": {Stderr: []byte("Plain.app: code object is not signed at all\n")},
	}}

	res := run(t, fake, "codesign", "display", "Demo.app")
	require.NoError(t, res.err)
	assert.Contains(t, res.stderr, "com.example.demo")
	assert.Contains(t, res.stderr, "XYZ9876543")

	res = run(t, fake, "codesign", "display", "Plain.app")
	assert.ErrorContains(t, res.err, "not signed")
}

func TestSpctlAssessRejected(t *testing.T) {
	fake := &fakeExecutor{responses: map[string]output.Execution{
		"spctl --assess --verbose --type execute Demo.app": {Stderr: []byte("Demo.app: rejected\nsource=Unnotarized Developer ID\n")},
	}}

	res := run(t, fake, "spctl", "assess", "Demo.app")
	assert.ErrorIs(t, res.err, errRejected)
	assert.Contains(t, res.stderr, "source: Unnotarized Developer ID")
}

func TestToolMissing(t *testing.T) {
	res := run(t, &fakeExecutor{}, "devices", "list")
	require.Error(t, res.err)
	assert.ErrorIs(t, res.err, output.ErrNoStreamData)
}
