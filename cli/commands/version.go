package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/cli/internal/update"
	"github.com/satishbabariya/prisma-docdb/cli/internal/version"
)

func newVersionCommand() *cobra.Command {
	var (
		latest     string
		constraint string
		full       bool
	)
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// Version needs no config.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			info := version.Get()
			if full {
				fmt.Fprintln(ui.Out, info.FullString())
			} else {
				fmt.Fprintln(ui.Out, info.String())
			}

			if latest != "" {
				status, err := update.Check(info.Version, latest)
				if err != nil {
					return err
				}
				if status.Outdated() {
					ui.PrintWarning("A newer version is available: %s", status.Latest)
					ui.PrintInfo("Download: %s", update.GetDownloadURL(status.Latest.String()))
				} else {
					ui.PrintSuccess("Up to date")
				}
			}

			if constraint != "" {
				ok, err := update.Satisfies(info.Version, constraint)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("version %s does not satisfy %q", info.Version, constraint)
				}
				ui.PrintSuccess("Version %s satisfies %q", info.Version, constraint)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&latest, "check", "", "compare against this released version")
	cmd.Flags().StringVar(&constraint, "constraint", "", "fail unless the version meets this constraint")
	cmd.Flags().BoolVar(&full, "full", false, "include build details")
	return cmd
}
