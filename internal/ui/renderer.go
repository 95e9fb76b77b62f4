package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"

	"github.com/arnavsurve/applectl/internal/corpus"
	"github.com/arnavsurve/applectl/internal/identifier"
)

// Renderer handles terminal output with colors and spinners
type Renderer struct {
	out         io.Writer
	mu          sync.Mutex
	spinning    bool
	spinnerDone chan struct{}
}

// NewRenderer creates a Renderer writing to stderr
func NewRenderer() *Renderer {
	return NewRendererTo(os.Stderr)
}

func NewRendererTo(w io.Writer) *Renderer {
	return &Renderer{out: w}
}

// Colors
var (
	green  = color.New(color.FgGreen).SprintFunc()
	red    = color.New(color.FgRed).SprintFunc()
	yellow = color.New(color.FgYellow).SprintFunc()
	cyan   = color.New(color.FgCyan).SprintFunc()
	dim    = color.New(color.Faint).SprintFunc()
	bold   = color.New(color.Bold).SprintFunc()
)

// Spinner frames
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// StartSpinner starts an animated spinner with a message
func (r *Renderer) StartSpinner(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.spinning {
		return
	}

	r.spinning = true
	r.spinnerDone = make(chan struct{})
	done := r.spinnerDone

	msg := fmt.Sprintf(format, args...)

	go func() {
		frame := 0
		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				r.mu.Lock()
				fmt.Fprintf(r.out, "\r%s %s", cyan(spinnerFrames[frame]), msg)
				r.mu.Unlock()
				frame = (frame + 1) % len(spinnerFrames)
			}
		}
	}()
}

// StopSpinner stops the spinner and clears its line
func (r *Renderer) StopSpinner() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.spinning {
		return
	}

	close(r.spinnerDone)
	r.spinning = false

	// Clear the spinner line
	fmt.Fprint(r.out, "\r\033[K")
}

func (r *Renderer) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

// Success prints a success message
func (r *Renderer) Success(format string, args ...any) {
	r.printf("%s %s\n", green("✓"), fmt.Sprintf(format, args...))
}

// Error prints an error message
func (r *Renderer) Error(format string, args ...any) {
	r.printf("%s %s\n", red("✗"), fmt.Sprintf(format, args...))
}

// Warning prints a warning message
func (r *Renderer) Warning(format string, args ...any) {
	r.printf("%s %s\n", yellow("!"), fmt.Sprintf(format, args...))
}

// Info prints an info message
func (r *Renderer) Info(format string, args ...any) {
	r.printf("  %s\n", fmt.Sprintf(format, args...))
}

// Dim prints dimmed/secondary text
func (r *Renderer) Dim(format string, args ...any) {
	r.printf("  %s\n", dim(fmt.Sprintf(format, args...)))
}

// DeviceInfo contains device information for display
type DeviceInfo struct {
	Name      string
	UDID      string
	State     string
	OSVersion string
	// Group heads the section the device is listed under, e.g. "iphone".
	Group string
}

// RenderDeviceList prints devices grouped in the order groups first appear.
func (r *Renderer) RenderDeviceList(devices []DeviceInfo) {
	if len(devices) == 0 {
		r.Info("No devices found")
		return
	}

	var order []string
	byGroup := make(map[string][]DeviceInfo)
	for _, d := range devices {
		if _, seen := byGroup[d.Group]; !seen {
			order = append(order, d.Group)
		}
		byGroup[d.Group] = append(byGroup[d.Group], d)
	}

	for _, group := range order {
		r.printf("\n%s\n", bold(strings.ToUpper(group)))
		for _, d := range byGroup[group] {
			stateColor := dim
			switch d.State {
			case "Booted", "Connected":
				stateColor = green
			}
			r.printf("  %s %s %s %s\n",
				d.Name,
				dim(d.OSVersion),
				stateColor(fmt.Sprintf("[%s]", d.State)),
				dim(d.UDID),
			)
		}
	}
	r.printf("\n")
}

// RenderIdentifier shows how a name parsed. err is the strict parse error,
// if any.
func (r *Renderer) RenderIdentifier(id identifier.Identifier, err error) {
	switch {
	case err != nil:
		r.Error("%s", id.Raw())
		r.Dim("%v", err)
	case !id.Recognized():
		r.Warning("%s %s", id.Raw(), dim("(unrecognized)"))
	default:
		r.Success("%s %s", id.String(), dim(id.Family().String()))
		if v, ok := id.IPhone(); ok {
			r.Dim("%#v", v)
		}
		if v, ok := id.IPad(); ok {
			r.Dim("%#v", v)
		}
	}
}

// RenderReport summarizes a corpus check.
func (r *Renderer) RenderReport(path string, report corpus.Report) {
	failures := report.Failures()
	for _, f := range failures {
		r.Error("%v", f.Err)
	}
	total := len(report.Results)
	if len(failures) == 0 {
		r.Success("%s: %d names round-trip", path, total)
		return
	}
	r.Warning("%s: %d of %d names failed", path, len(failures), total)
}

// RenderFields prints aligned key/value pairs under a title.
func (r *Renderer) RenderFields(title string, fields [][2]string) {
	width := 0
	for _, f := range fields {
		width = max(width, len(f[0]))
	}
	r.printf("%s\n", bold(title))
	for _, f := range fields {
		r.printf("  %s %s\n", cyan(fmt.Sprintf("%-*s", width, f[0])), f[1])
	}
}
