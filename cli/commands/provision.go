package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
)

func newProvisionCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "provision <collection>...",
		Short: "Create the configured database and the named collections if missing",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			spinner, _ := ui.Spinner(fmt.Sprintf("Provisioning %d collection(s) in %s", len(args), a.cfg.Database))
			links := make([]string, len(args))
			for i, name := range args {
				coll, err := s.adapter.EnsureCollection(cmd.Context(), collectionRef(name, ""))
				if err != nil {
					if spinner != nil {
						spinner.Fail(err.Error())
					}
					return err
				}
				links[i] = coll.Link()
			}
			if spinner != nil {
				spinner.Success("Provisioned")
			}
			for i, name := range args {
				ui.PrintKeyValue(name, links[i])
			}

			stats := s.adapter.Resources().Stats()
			ui.PrintSection("Store calls")
			return ui.PrintTable(
				[]string{"database lists", "database creates", "collection lists", "collection creates"},
				[][]string{{
					fmt.Sprint(stats.DatabaseLists),
					fmt.Sprint(stats.DatabaseCreates),
					fmt.Sprint(stats.CollectionLists),
					fmt.Sprint(stats.CollectionCreates),
				}},
			)
		},
	}
	return cmd
}
