package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/corpus"
	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/watcher"
)

var errCorpusFailed = errors.New("corpus check failed")

func namesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "names",
		Short: "Parse Apple device names",
		Long: `Show how device names such as "iPad Pro 13-inch (M4)" are understood, and
check that a list of names parses and renders back unchanged.`,
	}

	cmd.AddCommand(namesParseCmd(a))
	cmd.AddCommand(namesCheckCmd(a))

	return cmd
}

// parsedName is the JSON form of `names parse`.
type parsedName struct {
	Input      string `json:"input"`
	Recognized bool   `json:"recognized"`
	Family     string `json:"family"`
	Rendered   string `json:"rendered"`
	RoundTrip  bool   `json:"round_trip"`
	Error      string `json:"error,omitempty"`
}

func namesParseCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "parse <name>...",
		Short: "Parse device names",
		Example: `  applectl names parse "iPhone 15 Pro Max"
  applectl names parse "iPad Pro (12.9-inch) (6th generation)" "iPad mini (A17 Pro)" --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := a.renderer(cmd)
			var parsed []parsedName

			for _, name := range args {
				id, err := identifier.ParseStrict(name)
				if !jsonOut {
					renderer.RenderIdentifier(id, err)
					continue
				}
				p := parsedName{
					Input:      name,
					Recognized: id.Recognized(),
					Family:     id.Family().String(),
					Rendered:   id.String(),
					RoundTrip:  id.Recognized() && err == nil && id.String() == name,
				}
				if err != nil {
					p.Error = err.Error()
				}
				parsed = append(parsed, p)
			}

			if jsonOut {
				return writeJSON(cmd, parsed)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func namesCheckCmd(a *app) *cobra.Command {
	var watch bool

	cmd := &cobra.Command{
		Use:   "check <corpus>...",
		Short: "Check that every name in a corpus round-trips",
		Long: `Each corpus is a YAML or JSON list of names. Plain entries must parse and
render back unchanged; entries written as {name: ..., unrecognized: true} must
stay unrecognized.`,
		Example: `  applectl names check testdata/names.yaml
  applectl names check names.json --watch`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := a.renderer(cmd)

			check := func(path string) error {
				report, err := corpus.CheckFile(path)
				if err != nil {
					renderer.Error("%s: %v", path, err)
					return err
				}
				renderer.RenderReport(path, report)
				if !report.OK() {
					return fmt.Errorf("%w: %s", errCorpusFailed, path)
				}
				return nil
			}

			var errs []error
			for _, path := range args {
				errs = append(errs, check(path))
			}
			if !watch {
				return errors.Join(errs...)
			}

			w, err := watcher.New(a.cfg.Watch.Debounce, a.log)
			if err != nil {
				return fmt.Errorf("watch: %w", err)
			}
			defer w.Close()

			byPath := make(map[string]string, len(args))
			for _, path := range args {
				if err := w.AddFile(path); err != nil {
					return fmt.Errorf("watch %s: %w", path, err)
				}
				byPath[absPath(path)] = path
			}

			renderer.Dim("Watching %d file(s) for changes, press Ctrl-C to stop", len(args))
			for ev := range w.Watch(cmd.Context()) {
				path, ok := byPath[absPath(ev.Path)]
				if !ok {
					path = ev.Path
				}
				a.log.Debug("corpus changed", zap.String("path", path))
				_ = check(path)
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&watch, "watch", "w", false, "Re-check a corpus whenever it changes")
	return cmd
}
