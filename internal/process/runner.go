// Package process runs external tools and captures their output for
// classification.
package process

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/output"
)

type OutputLine struct {
	Stream  string // "stdout" or "stderr"
	Content string
}

// Executor runs a command to completion and captures both streams.
type Executor interface {
	Execute(ctx context.Context, name string, args ...string) (output.Execution, error)
}

// Streamer runs a command while reporting its output line by line.
type Streamer interface {
	Stream(ctx context.Context, name string, args []string, onLine func(OutputLine)) (output.Execution, error)
}

// CommandError records a command that could not be run at all. It matches
// output.ErrNoStreamData with errors.Is.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %q failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() []error {
	return []error{e.Err, output.ErrNoStreamData}
}

// Runner is the Executor backed by os/exec.
type Runner struct {
	log *zap.Logger
	// Timeout bounds each command; zero means no limit beyond ctx.
	Timeout time.Duration
}

func NewRunner(log *zap.Logger) *Runner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Runner{log: log}
}

func (r *Runner) logCommand(name string, args []string) {
	r.log.Debug("$ "+name+" "+strings.Join(args, " "),
		zap.String("command", name),
		zap.Strings("args", args),
	)
}

func (r *Runner) context(ctx context.Context) (context.Context, context.CancelFunc) {
	if r.Timeout > 0 {
		return context.WithTimeout(ctx, r.Timeout)
	}
	return context.WithCancel(ctx)
}

// Execute runs name to completion. A non-zero exit is not an error: it is
// reported as an unsuccessful Execution. Only failing to run the command
// returns a *CommandError.
func (r *Runner) Execute(ctx context.Context, name string, args ...string) (output.Execution, error) {
	r.logCommand(name, args)
	ctx, cancel := r.context(ctx)
	defer cancel()

	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	return r.finish(ctx, name, cmd.Run(), stdout.Bytes(), stderr.Bytes())
}

func (r *Runner) finish(ctx context.Context, name string, err error, stdout, stderr []byte) (output.Execution, error) {
	result := output.Execution{Success: err == nil, Stdout: stdout, Stderr: stderr}
	if err == nil {
		return result, nil
	}
	// A killed process has an exit status too, but its streams are cut short.
	if ctxErr := ctx.Err(); ctxErr != nil {
		return output.Execution{}, &CommandError{Command: name, Err: ctxErr}
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		r.log.Debug("command exited non-zero",
			zap.String("command", name),
			zap.Int("exit_code", exitErr.ExitCode()),
		)
		return result, nil
	}
	return output.Execution{}, &CommandError{Command: name, Err: err}
}

// StreamTail is how much of each stream Stream keeps in the returned
// Execution. onLine still sees every line.
const StreamTail = 64 << 10

// waitDelay bounds how long Stream waits for the output pipes after the
// process is gone, e.g. when a grandchild still holds them open.
const waitDelay = 2 * time.Second

// Stream runs name, calling onLine for every line either stream prints, and
// returns the last StreamTail bytes of each stream once it exits. Lines may
// be of any length.
func (r *Runner) Stream(ctx context.Context, name string, args []string, onLine func(OutputLine)) (output.Execution, error) {
	r.logCommand(name, args)
	ctx, cancel := r.context(ctx)
	defer cancel()

	var mu sync.Mutex
	stdout := &lineWriter{stream: "stdout", mu: &mu, onLine: onLine, tail: tailBuffer{max: StreamTail}}
	stderr := &lineWriter{stream: "stderr", mu: &mu, onLine: onLine, tail: tailBuffer{max: StreamTail}}

	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay

	err := cmd.Run()
	stdout.flush()
	stderr.flush()
	return r.finish(ctx, name, err, stdout.tail.Bytes(), stderr.tail.Bytes())
}

// lineWriter splits what a process writes into lines for onLine and keeps a
// bounded tail of the raw bytes.
type lineWriter struct {
	stream  string
	mu      *sync.Mutex
	onLine  func(OutputLine)
	tail    tailBuffer
	partial []byte
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.tail.Write(p)
	if w.onLine == nil {
		return len(p), nil
	}
	w.partial = append(w.partial, p...)
	for {
		i := bytes.IndexByte(w.partial, '\n')
		if i < 0 {
			break
		}
		w.emit(w.partial[:i])
		w.partial = w.partial[i+1:]
	}
	if len(w.partial) == 0 {
		w.partial = nil
	}
	return len(p), nil
}

// flush emits a final line that was not newline-terminated.
func (w *lineWriter) flush() {
	if len(w.partial) > 0 && w.onLine != nil {
		w.emit(w.partial)
	}
	w.partial = nil
}

func (w *lineWriter) emit(line []byte) {
	content := strings.TrimSuffix(string(line), "\r")
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onLine(OutputLine{Stream: w.stream, Content: content})
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	max int
	buf []byte
}

func (t *tailBuffer) Write(p []byte) {
	t.buf = append(t.buf, p...)
	if len(t.buf) > 2*t.max {
		t.buf = append([]byte(nil), t.buf[len(t.buf)-t.max:]...)
	}
}

func (t *tailBuffer) Bytes() []byte {
	if len(t.buf) > t.max {
		return t.buf[len(t.buf)-t.max:]
	}
	return t.buf
}

func CommandExists(name string) bool {
	_, err := exec.LookPath(name)
	return err == nil
}
