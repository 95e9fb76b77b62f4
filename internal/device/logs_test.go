package device

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arnavsurve/applectl/internal/output"
	"github.com/arnavsurve/applectl/internal/process"
)

type fakeStreamer struct {
	fakeExecutor
	lines []process.OutputLine
	exec  output.Execution
	args  []string
}

func (f *fakeStreamer) Stream(_ context.Context, name string, args []string, onLine func(process.OutputLine)) (output.Execution, error) {
	f.args = append([]string{name}, args...)
	for _, l := range f.lines {
		onLine(l)
	}
	return f.exec, nil
}

func TestStreamLogs(t *testing.T) {
	_, base := newTestManager(t, nil)
	fake := &fakeStreamer{
		fakeExecutor: *base,
		lines:        []process.OutputLine{
			{Stream: "stdout", Content: "Filtering the log data using \"processImagePath CONTAINS \\\"Demo\\\"\""},
			{Stream: "stderr", Content: "noise"},
			{Stream: "stdout", Content: "2024-03-16 14:41:28.123 Df Demo[4242:1a2b] hello"},
		},
		exec: output.Execution{Success: true},
	}
	m := NewManager(fake, Options{}, nil)
	ctx := context.Background()

	d, err := m.Resolve(ctx, proMaxUDID)
	require.NoError(t, err)

	var got []string
	require.NoError(t, m.StreamLogs(ctx, d, "Demo", func(line string) { got = append(got, line) }))
	assert.Len(t, got, 2)
	assert.Contains(t, got[1], "hello")
	assert.Equal(t, "xcrun simctl spawn "+proMaxUDID+" log stream --style compact --predicate processImagePath CONTAINS \"Demo\"",
		strings.Join(fake.args, " "))
}

func TestStreamLogsRequiresBootedDevice(t *testing.T) {
	_, base := newTestManager(t, nil)
	fake := &fakeStreamer{fakeExecutor: *base}
	m := NewManager(fake, Options{}, nil)
	ctx := context.Background()

	d, err := m.Resolve(ctx, seUDID)
	require.NoError(t, err)
	assert.ErrorIs(t, m.StreamLogs(ctx, d, "Demo", func(string) {}), ErrNotBooted)
}

func TestStreamLogsFailure(t *testing.T) {
	_, base := newTestManager(t, nil)
	fake := &fakeStreamer{
		fakeExecutor: *base,
		exec:         output.Execution{Stderr: []byte("log: Invalid predicate\n")},
	}
	m := NewManager(fake, Options{}, nil)
	ctx := context.Background()

	d, err := m.Resolve(ctx, proMaxUDID)
	require.NoError(t, err)
	assert.ErrorContains(t, m.StreamLogs(ctx, d, "Demo", func(string) {}), "Invalid predicate")
}

func TestStreamLogsNeedsStreamer(t *testing.T) {
	m, _ := newTestManager(t, nil)
	d, err := m.Resolve(context.Background(), proMaxUDID)
	require.NoError(t, err)
	assert.ErrorIs(t, m.StreamLogs(context.Background(), d, "Demo", func(string) {}), ErrStreamingUnsupported)
}

func TestLogStreamArgsEscapesFilter(t *testing.T) {
	args := logStreamArgs(proMaxUDID, `My "App" \ Beta`)
	assert.Equal(t, `processImagePath CONTAINS "My \"App\" \\ Beta"`, args[len(args)-1])
}

// stubXcrun writes an executable script standing in for xcrun.
func stubXcrun(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "xcrun")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestStreamLogsThroughRunner(t *testing.T) {
	m, _ := newTestManager(t, nil)
	d, err := m.Resolve(context.Background(), proMaxUDID)
	require.NoError(t, err)

	// A log stream that outlives any sensible capture buffer.
	xcrun := stubXcrun(t, `awk 'BEGIN { for (i = 0; i < 20000; i++) printf "%05d %0200d\n", i, 0 }'
echo "starting" >&2
`)
	runner := process.NewRunner(nil)
	live := NewManager(runner, Options{Xcrun: xcrun}, nil)

	var count int
	var last string
	require.NoError(t, live.StreamLogs(context.Background(), d, "Demo", func(line string) {
		count++
		last = line
	}))
	assert.Equal(t, 20000, count)
	assert.True(t, strings.HasPrefix(last, "19999 "))

	res, err := runner.Stream(context.Background(), xcrun, nil, nil)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(res.Stdout), process.StreamTail)
	assert.Equal(t, "starting\n", string(res.Stderr))
}

func TestStreamLogsThroughRunnerFailure(t *testing.T) {
	m, _ := newTestManager(t, nil)
	d, err := m.Resolve(context.Background(), proMaxUDID)
	require.NoError(t, err)

	xcrun := stubXcrun(t, "echo 'log: Invalid predicate' >&2\nexit 64\n")
	live := NewManager(process.NewRunner(nil), Options{Xcrun: xcrun}, nil)
	assert.ErrorContains(t, live.StreamLogs(context.Background(), d, "Demo", func(string) {}), "Invalid predicate")
}
