package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arnavsurve/applectl/internal/device"
	"github.com/arnavsurve/applectl/internal/identifier"
	"github.com/arnavsurve/applectl/internal/simctl"
	"github.com/arnavsurve/applectl/internal/ui"
)

func devicesCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "Manage simulators",
		Long:  `List, boot, shutdown, create and delete simulators, and install and launch apps on them.`,
	}

	cmd.AddCommand(devicesListCmd(a))
	cmd.AddCommand(devicesBootCmd(a))
	cmd.AddCommand(devicesShutdownCmd(a))
	cmd.AddCommand(devicesInstallCmd(a))
	cmd.AddCommand(devicesLaunchCmd(a))
	cmd.AddCommand(devicesCreateCmd(a))
	cmd.AddCommand(devicesDeleteCmd(a))
	cmd.AddCommand(devicesTypesCmd(a))
	cmd.AddCommand(devicesRuntimesCmd(a))
	cmd.AddCommand(devicesLogsCmd(a))

	return cmd
}

func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func displayDevices(devices []device.Device) []ui.DeviceInfo {
	out := make([]ui.DeviceInfo, len(devices))
	for i, d := range devices {
		group := d.Model.Family().String()
		if !d.Model.Recognized() {
			group = string(d.Platform)
		}
		out[i] = ui.DeviceInfo{
			Name:      d.Label,
			UDID:      d.UDID,
			State:     d.State,
			OSVersion: d.OSVersion,
			Group:     group,
		}
	}
	return out
}

func devicesListCmd(a *app) *cobra.Command {
	var (
		filter  device.Filter
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List simulators, iPhones then iPads, oldest model first",
		Example: `  applectl devices list
  applectl devices list --platform ios
  applectl devices list --family ipad
  applectl devices list --booted
  applectl devices list --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			switch filter.Family {
			case "", "iphone", "ipad":
			default:
				return fmt.Errorf("unknown family %q (want iphone or ipad)", filter.Family)
			}

			devices, err := a.manager().List(cmd.Context(), filter)
			if err != nil {
				return fmt.Errorf("failed to list devices: %w", err)
			}

			if jsonOut {
				return writeJSON(cmd, devices)
			}
			a.renderer(cmd).RenderDeviceList(displayDevices(devices))
			return nil
		},
	}

	cmd.Flags().StringVarP((*string)(&filter.Platform), "platform", "p", "", "Filter by platform (ios, watchos, tvos, visionos)")
	cmd.Flags().StringVar(&filter.Family, "family", "", "Filter by device family (iphone, ipad)")
	cmd.Flags().BoolVar(&filter.OnlyBooted, "booted", false, "Show only booted devices")
	cmd.Flags().BoolVar(&filter.IncludeUnavailable, "all", false, "Include unavailable devices")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

var errNoDevice = errors.New("name a device or pass --newest-ipad or --newest-iphone")

// deviceSelector resolves the device argument shared by several commands.
type deviceSelector struct {
	newestIPad   bool
	newestIPhone bool
}

func (s *deviceSelector) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&s.newestIPad, "newest-ipad", false, "Use the most recent available iPad simulator")
	cmd.Flags().BoolVar(&s.newestIPhone, "newest-iphone", false, "Use the most recent available iPhone simulator")
	cmd.MarkFlagsMutuallyExclusive("newest-ipad", "newest-iphone")
}

// resolve consumes the device argument from args unless a --newest flag
// picks the device, and returns the remaining arguments.
func (s *deviceSelector) resolve(cmd *cobra.Command, mgr *device.Manager, args []string) (simctl.Device, []string, error) {
	ctx := cmd.Context()
	switch {
	case s.newestIPad:
		d, err := mgr.NewestIPad(ctx)
		return d, args, err
	case s.newestIPhone:
		d, err := mgr.NewestIPhone(ctx)
		return d, args, err
	case len(args) == 0:
		return simctl.Device{}, nil, errNoDevice
	}
	d, err := mgr.Resolve(ctx, args[0])
	return d, args[1:], err
}

func devicesBootCmd(a *app) *cobra.Command {
	var sel deviceSelector

	cmd := &cobra.Command{
		Use:   "boot [device]",
		Short: "Boot a simulator",
		Long:  `Boot a simulator by name or UDID, or the newest iPad or iPhone available.`,
		Example: `  applectl devices boot "iPhone 15 Pro"
  applectl devices boot 12345678-1234-1234-1234-123456789ABC
  applectl devices boot --newest-ipad`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.manager()
			renderer := a.renderer(cmd)

			dev, _, err := sel.resolve(cmd, mgr, args)
			if err != nil {
				return err
			}

			renderer.StartSpinner("Booting %s...", dev.Name)
			err = mgr.Boot(cmd.Context(), dev)
			renderer.StopSpinner()
			if err != nil {
				return fmt.Errorf("failed to boot: %w", err)
			}

			renderer.Success("Booted %s", dev.Name)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func devicesShutdownCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shutdown [device|all]",
		Short: "Shutdown simulator(s)",
		Long:  `Shutdown a specific simulator or all running simulators.`,
		Example: `  applectl devices shutdown all
  applectl devices shutdown "iPhone 15 Pro"`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr := a.manager()
			renderer := a.renderer(cmd)

			if len(args) == 0 || args[0] == "all" {
				renderer.StartSpinner("Shutting down all simulators...")
				err := mgr.ShutdownAll(ctx)
				renderer.StopSpinner()
				if err != nil {
					return fmt.Errorf("failed to shutdown: %w", err)
				}
				renderer.Success("All simulators shut down")
				return nil
			}

			dev, err := mgr.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			renderer.StartSpinner("Shutting down %s...", dev.Name)
			err = mgr.Shutdown(ctx, dev)
			renderer.StopSpinner()
			if err != nil {
				return fmt.Errorf("failed to shutdown: %w", err)
			}

			renderer.Success("Shut down %s", dev.Name)
			return nil
		},
	}
}

func devicesInstallCmd(a *app) *cobra.Command {
	var sel deviceSelector

	cmd := &cobra.Command{
		Use:   "install [device] <app>",
		Short: "Install a .app bundle on a simulator",
		Example: `  applectl devices install "iPhone 15 Pro" build/Demo.app
  applectl devices install --newest-iphone build/Demo.app`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.manager()
			renderer := a.renderer(cmd)

			dev, rest, err := sel.resolve(cmd, mgr, args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return fmt.Errorf("expected one app path, got %d", len(rest))
			}

			renderer.StartSpinner("Installing %s on %s...", rest[0], dev.Name)
			err = mgr.Install(cmd.Context(), dev, rest[0])
			renderer.StopSpinner()
			if err != nil {
				return err
			}
			renderer.Success("Installed %s on %s", rest[0], dev.Name)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func devicesLaunchCmd(a *app) *cobra.Command {
	var sel deviceSelector

	cmd := &cobra.Command{
		Use:   "launch [device] <bundle-id> [-- app args...]",
		Short: "Launch an installed app on a simulator",
		Example: `  applectl devices launch "iPhone 15 Pro" com.example.demo
  applectl devices launch --newest-ipad com.example.demo -- -reset 1`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.manager()

			var appArgs []string
			if dash := cmd.ArgsLenAtDash(); dash >= 0 {
				args, appArgs = args[:dash], args[dash:]
			}

			dev, rest, err := sel.resolve(cmd, mgr, args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return fmt.Errorf("expected one bundle identifier, got %d", len(rest))
			}

			launched, err := mgr.Launch(cmd.Context(), dev, rest[0], appArgs)
			if err != nil {
				return err
			}
			a.renderer(cmd).Success("Launched %s on %s (pid %d)", launched.BundleID, dev.Name, launched.PID)
			return nil
		},
	}
	sel.register(cmd)
	return cmd
}

func devicesCreateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "create <name> <device-type> <runtime>",
		Short: "Create a new simulator",
		Example: `  applectl devices create "My iPhone" "iPhone 15 Pro" "iOS 17.4"
  applectl devices create "Latest iPad" "iPad Pro 13-inch (M4)" iOS
  applectl devices create "Test Phone" com.apple.CoreSimulator.SimDeviceType.iPhone-15-Pro com.apple.CoreSimulator.SimRuntime.iOS-17-4`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr := a.manager()
			renderer := a.renderer(cmd)

			name, deviceType, runtime := args[0], args[1], args[2]

			deviceTypeID, err := mgr.ResolveDeviceType(ctx, deviceType)
			if err != nil {
				return err
			}

			runtimeID, err := mgr.ResolveRuntime(ctx, runtime)
			if err != nil {
				return err
			}

			renderer.StartSpinner("Creating %s...", name)
			udid, err := mgr.Create(ctx, name, deviceTypeID, runtimeID)
			renderer.StopSpinner()
			if err != nil {
				return fmt.Errorf("failed to create: %w", err)
			}

			renderer.Success("Created %s (%s)", name, strings.ToUpper(udid.String()))
			return nil
		},
	}
}

func devicesDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <device>",
		Short: "Delete a simulator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			mgr := a.manager()
			renderer := a.renderer(cmd)

			dev, err := mgr.Resolve(ctx, args[0])
			if err != nil {
				return err
			}

			renderer.StartSpinner("Deleting %s...", dev.Name)
			err = mgr.Delete(ctx, dev)
			renderer.StopSpinner()
			if err != nil {
				return fmt.Errorf("failed to delete: %w", err)
			}

			renderer.Success("Deleted %s", dev.Name)
			return nil
		},
	}
}

func devicesTypesCmd(a *app) *cobra.Command {
	var family string

	cmd := &cobra.Command{
		Use:   "types",
		Short: "List available device types",
		RunE: func(cmd *cobra.Command, args []string) error {
			types, err := a.manager().DeviceTypes(cmd.Context())
			if err != nil {
				return err
			}

			for _, t := range types {
				if family != "" && t.Name.Family().String() != family {
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-40s %s\n", t.Name, t.Identifier)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&family, "family", "", "Filter by device family (iphone, ipad, unrecognized)")
	return cmd
}

func devicesRuntimesCmd(a *app) *cobra.Command {
	var platform string

	cmd := &cobra.Command{
		Use:   "runtimes",
		Short: "List available runtimes",
		RunE: func(cmd *cobra.Command, args []string) error {
			runtimes, err := a.manager().Runtimes(cmd.Context())
			if err != nil {
				return err
			}

			for _, r := range runtimes {
				if platform != "" && r.Runtime.Platform != identifier.Platform(platform) {
					continue
				}
				status := ""
				if !r.IsAvailable {
					status = " (unavailable)"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%-20s %s%s\n", r.Name, r.Runtime, status)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&platform, "platform", "p", "", "Filter by platform (ios, watchos, tvos, visionos)")

	return cmd
}

func devicesLogsCmd(a *app) *cobra.Command {
	var sel deviceSelector

	cmd := &cobra.Command{
		Use:   "logs [device] <process>",
		Short: "Stream an app's logs from a booted simulator",
		Example: `  applectl devices logs "iPhone 15 Pro" Demo
  applectl devices logs --newest-iphone Demo`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr := a.manager()

			dev, rest, err := sel.resolve(cmd, mgr, args)
			if err != nil {
				return err
			}
			if len(rest) != 1 {
				return fmt.Errorf("expected one process name, got %d", len(rest))
			}

			a.renderer(cmd).Dim("Streaming logs for %s on %s, press Ctrl-C to stop", rest[0], dev.Name)
			out := cmd.OutOrStdout()
			return mgr.StreamLogs(cmd.Context(), dev, rest[0], func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	sel.register(cmd)
	return cmd
}
