package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/arnavsurve/applectl/internal/codesign"
	"github.com/arnavsurve/applectl/internal/spctl"
)

func codesignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codesign",
		Short: "Inspect and apply code signatures",
	}
	cmd.AddCommand(codesignDisplayCmd(a))
	cmd.AddCommand(codesignSignCmd(a))
	return cmd
}

func codesignDisplayCmd(a *app) *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:     "display <app>",
		Short:   "Show an app's signature",
		Example: `  applectl codesign display build/Demo.app`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			out, err := codesign.Display(a.log).ClassifyResult(
				a.exec.Execute(cmd.Context(), a.cfg.Tools.Codesign, "-d", "-vvvv", path),
			)
			if err != nil {
				return err
			}
			keys, err := out.Result()
			if err != nil {
				return err
			}

			if jsonOut {
				return writeJSON(cmd, keys)
			}
			fields := [][2]string{
				{"Executable", keys.Executable},
				{"Identifier", keys.Identifier},
				{"Team", keys.TeamIdentifier},
				{"Authority", strings.Join(keys.Authorities, " < ")},
			}
			if !keys.SignedTime.IsZero() {
				fields = append(fields, [2]string{"Signed", keys.SignedTime.Format("2006-01-02 15:04:05")})
			}
			a.renderer(cmd).RenderFields(path, fields)
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")
	return cmd
}

func codesignSignCmd(a *app) *cobra.Command {
	var (
		identity string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "sign <app>",
		Short: "Sign an app with a keychain identity",
		Example: `  applectl codesign sign build/Demo.app --identity "Apple Development: Jane Doe"
  applectl codesign sign build/Demo.app --identity - --force`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			cmdArgs := []string{"-s", identity}
			if force {
				cmdArgs = append(cmdArgs, "--force")
			}
			cmdArgs = append(cmdArgs, path)

			out, err := codesign.Sign(a.log).ClassifyResult(
				a.exec.Execute(cmd.Context(), a.cfg.Tools.Codesign, cmdArgs...),
			)
			if err != nil {
				return err
			}
			if err := out.Check(); err != nil {
				return err
			}

			renderer := a.renderer(cmd)
			if signed, ok := out.Success(); ok && signed.Replaced {
				renderer.Success("Re-signed %s", path)
				return nil
			}
			renderer.Success("Signed %s", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&identity, "identity", "", `Signing identity, or "-" for ad-hoc`)
	cmd.Flags().BoolVar(&force, "force", false, "Replace an existing signature")
	_ = cmd.MarkFlagRequired("identity")
	return cmd
}

var errRejected = errors.New("rejected by Gatekeeper")

func spctlCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "spctl",
		Short: "Ask Gatekeeper about apps",
	}
	cmd.AddCommand(spctlAssessCmd(a))
	return cmd
}

func spctlAssessCmd(a *app) *cobra.Command {
	var assessType string

	cmd := &cobra.Command{
		Use:     "assess <app>",
		Short:   "Check whether Gatekeeper would allow an app to run",
		Example: `  applectl spctl assess /Applications/Demo.app`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			out, err := spctl.Assess(a.log).ClassifyResult(
				a.exec.Execute(cmd.Context(), a.cfg.Tools.Spctl, "--assess", "--verbose", "--type", assessType, args[0]),
			)
			if err != nil {
				return err
			}

			renderer := a.renderer(cmd)
			if v, ok := out.Failure(); ok {
				renderer.Error("%s: rejected", v.Path)
				renderVerdict(a, cmd, v)
				return fmt.Errorf("%s: %w", v.Path, errRejected)
			}
			v, err := out.Result()
			if err != nil {
				return err
			}
			renderer.Success("%s: accepted", v.Path)
			renderVerdict(a, cmd, v)
			return nil
		},
	}

	cmd.Flags().StringVar(&assessType, "type", "execute", "Assessment type (execute, install, open)")
	return cmd
}

func renderVerdict(a *app, cmd *cobra.Command, v spctl.Verdict) {
	renderer := a.renderer(cmd)
	if v.Detail != "" {
		renderer.Dim("%s", v.Detail)
	}
	if v.Source != "" {
		renderer.Dim("source: %s", v.Source)
	}
	if v.Origin != "" {
		renderer.Dim("origin: %s", v.Origin)
	}
}
