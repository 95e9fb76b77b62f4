package cli

import (
	"github.com/spf13/cobra"
)

func iosDeployCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ios-deploy",
		Short: "Work with physical devices through ios-deploy",
	}
	cmd.AddCommand(iosDeployDetectCmd(a))
	cmd.AddCommand(iosDeployUploadCmd(a))
	return cmd
}

func iosDeployDetectCmd(a *app) *cobra.Command {
	var (
		timeout int
		noWiFi  bool
		jsonOut bool
	)

	cmd := &cobra.Command{
		Use:   "detect",
		Short: "List connected devices",
		Example: `  applectl ios-deploy detect
  applectl ios-deploy detect --timeout 5 --no-wifi`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("timeout") {
				timeout = a.cfg.IOSDeploy.Timeout
			}
			wifi := a.cfg.IOSDeploy.WiFi && !noWiFi

			renderer := a.renderer(cmd)
			renderer.StartSpinner("Looking for devices...")
			devices, err := a.manager().Detect(cmd.Context(), timeout, wifi)
			renderer.StopSpinner()
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, devices)
			}
			renderer.RenderDeviceList(displayDevices(devices))
			return nil
		},
	}

	cmd.Flags().IntVar(&timeout, "timeout", 1, "Seconds to wait for devices (default from config)")
	cmd.Flags().BoolVar(&noWiFi, "no-wifi", false, "Only look for devices connected over USB")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func iosDeployUploadCmd(a *app) *cobra.Command {
	var udid string

	cmd := &cobra.Command{
		Use:   "upload <bundle>",
		Short: "Install an app bundle on a connected device",
		Example: `  applectl ios-deploy upload build/Demo.app
  applectl ios-deploy upload build/Demo.app --id 00008110-001A2B3C4D5E801E`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			renderer := a.renderer(cmd)
			renderer.StartSpinner("Installing %s...", args[0])
			uploaded, err := a.manager().Upload(cmd.Context(), udid, args[0])
			renderer.StopSpinner()
			if err != nil {
				return err
			}
			renderer.Success("Installed %s", uploaded.Package)
			return nil
		},
	}

	cmd.Flags().StringVar(&udid, "id", "", "Device identifier (default: ios-deploy picks one)")
	return cmd
}
