package device

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/process"
	"github.com/arnavsurve/applectl/internal/simctl"
)

var (
	ErrNotBooted            = errors.New("simulator is not booted")
	ErrStreamingUnsupported = errors.New("executor cannot stream output")
)

// predicateQuoter escapes a value for a double-quoted NSPredicate string.
var predicateQuoter = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

func logStreamArgs(udid, filter string) []string {
	return []string{
		"simctl", "spawn", udid,
		"log", "stream",
		"--style", "compact",
		"--predicate", `processImagePath CONTAINS "` + predicateQuoter.Replace(filter) + `"`,
	}
}

// StreamLogs follows a booted simulator's unified log, keeping entries from
// processes whose image path contains filter, until ctx is done.
func (m *Manager) StreamLogs(ctx context.Context, d simctl.Device, filter string, onLine func(string)) error {
	s, ok := m.exec.(process.Streamer)
	if !ok {
		return ErrStreamingUnsupported
	}
	if d.State != simctl.StateBooted {
		return fmt.Errorf("%w: %s", ErrNotBooted, d.Name)
	}

	exec, err := s.Stream(ctx, m.opts.Xcrun, logStreamArgs(d.ID(), filter), func(line process.OutputLine) {
		if line.Stream == "stderr" {
			m.log.Debug("log stream", zap.String("stderr", line.Content))
			return
		}
		onLine(line.Content)
	})
	switch {
	case ctx.Err() != nil:
		return nil
	case err != nil:
		return fmt.Errorf("log stream: %w", err)
	case !exec.Success:
		return fmt.Errorf("log stream exited: %s", strings.TrimSpace(string(exec.Stderr)))
	}
	return nil
}
