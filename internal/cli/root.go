package cli

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arnavsurve/applectl/internal/config"
	"github.com/arnavsurve/applectl/internal/device"
	"github.com/arnavsurve/applectl/internal/logging"
	"github.com/arnavsurve/applectl/internal/process"
	"github.com/arnavsurve/applectl/internal/ui"
)

// app is what every command shares once flags and configuration are read.
type app struct {
	verbose    bool
	configPath string

	cfg        *config.Config
	log        *zap.Logger
	exec       process.Executor
	restoreLog func()
}

func (a *app) setup() error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	level, development := cfg.Log.Level, cfg.Log.Development
	if a.verbose {
		level, development = "debug", true
	}
	log, err := logging.New(level, development)
	if err != nil {
		return err
	}

	a.cfg, a.log = cfg, log
	a.restoreLog = zap.ReplaceGlobals(log)
	if a.exec == nil {
		a.exec = process.NewRunner(log)
	}
	return nil
}

func (a *app) teardown() {
	if a.log != nil {
		_ = a.log.Sync()
	}
	if a.restoreLog != nil {
		a.restoreLog()
		a.restoreLog = nil
	}
}

func (a *app) manager() *device.Manager {
	return device.NewManager(a.exec, device.Options{
		Xcrun:         a.cfg.Tools.Xcrun,
		IOSDeploy:     a.cfg.Tools.IOSDeploy,
		OpenSimulator: true,
	}, a.log)
}

func (a *app) renderer(cmd *cobra.Command) *ui.Renderer {
	return ui.NewRendererTo(cmd.ErrOrStderr())
}

func newRootCmd(a *app, version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "applectl",
		Short:   "Drive Apple developer tools and make sense of their output",
		Version: version,
		Long: `applectl wraps simctl, codesign, spctl and ios-deploy, and understands
what they print: device names, error envelopes, signatures and verdicts.

Common workflows:
  applectl devices list                 Show simulators, newest models last
  applectl devices boot --newest-ipad   Boot the most recent iPad simulator
  applectl names parse "iPhone 15 Pro"  Show how a device name is understood
  applectl codesign display Demo.app    Show an app's signature`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := a.setup(); err != nil {
				return fmt.Errorf("startup: %w", err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Show underlying commands and debug logs")
	cmd.PersistentFlags().StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/applectl/config.yaml)")

	cmd.AddCommand(devicesCmd(a))
	cmd.AddCommand(namesCmd(a))
	cmd.AddCommand(codesignCmd(a))
	cmd.AddCommand(spctlCmd(a))
	cmd.AddCommand(iosDeployCmd(a))

	return cmd
}

func Execute(ctx context.Context, version string) error {
	a := &app{}
	defer a.teardown()
	return newRootCmd(a, version).ExecuteContext(ctx)
}

func absPath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	return abs
}
