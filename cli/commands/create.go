package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

func newCreateCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "create <collection> <record-file>",
		Short: "Create one document or a list of documents",
		Long: `Create the documents held in a YAML or JSON file. A file holding a list
creates every element; the first failure aborts the batch.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := readRecords(args[1], cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ref := collectionRef(args[0], out.alias)
			var (
				created []types.Record
				meta    types.Metadata
			)
			if len(records) == 1 {
				var record types.Record
				record, meta, err = s.adapter.Create(cmd.Context(), ref, records[0])
				created = []types.Record{record}
			} else {
				created, meta, err = s.adapter.CreateMany(cmd.Context(), ref, records)
			}
			if err != nil {
				return err
			}
			if !out.json {
				ui.PrintSuccess("Created %d document(s) in %s", meta.Created, args[0])
			}
			return printRecords(created, meta, out.json)
		},
	}
	out.register(cmd)
	return cmd
}

func newUpdateCommand(a *app) *cobra.Command {
	var (
		out   outputFlags
		where string
	)
	cmd := &cobra.Command{
		Use:   "update <collection> <id|-> <patch-file>",
		Short: "Deep-merge a patch into one document, or every match with --where",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			if where != "" && args[1] != "-" {
				return usageError(cmd, "pass \"-\" as the id when using --where")
			}
			patches, err := readRecords(args[2], cmd.InOrStdin())
			if err != nil {
				return err
			}
			if len(patches) != 1 {
				return usageError(cmd, "%s must hold a single object", args[2])
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ref := collectionRef(args[0], out.alias)
			if where != "" {
				q, err := readQuery(where, cmd.InOrStdin())
				if err != nil {
					return err
				}
				updated, meta, err := s.adapter.UpdateAll(cmd.Context(), ref, patches[0], q)
				if err != nil {
					return err
				}
				if !out.json {
					ui.PrintSuccess("Updated %d document(s)", meta.Updated)
				}
				return printRecords(updated, meta, out.json)
			}

			updated, meta, err := s.adapter.Update(cmd.Context(), ref, args[1], patches[0])
			if err != nil {
				return err
			}
			if !out.json {
				ui.PrintSuccess("Updated %s", args[1])
			}
			return printRecords([]types.Record{updated}, meta, out.json)
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&where, "where", "", "query file selecting the documents to update")
	return cmd
}

func newDeleteCommand(a *app) *cobra.Command {
	var (
		out   outputFlags
		where string
	)
	cmd := &cobra.Command{
		Use:   "delete <collection> [id]",
		Short: "Delete one document, or every match with --where",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if (where == "") == (len(args) < 2) {
				return usageError(cmd, "pass either an id or --where")
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ref := collectionRef(args[0], out.alias)
			if where != "" {
				q, err := readQuery(where, cmd.InOrStdin())
				if err != nil {
					return err
				}
				deleted, meta, err := s.adapter.DestroyAll(cmd.Context(), ref, q)
				if err != nil {
					return err
				}
				if out.json {
					return ui.PrintJSON(deleted)
				}
				ui.PrintSuccess("Deleted %d document(s)", meta.Deleted)
				return nil
			}

			deleted, _, err := s.adapter.Destroy(cmd.Context(), ref, args[1])
			if err != nil {
				return err
			}
			if out.json {
				return ui.PrintJSON(deleted)
			}
			if deleted == nil {
				ui.PrintWarning("No document with id %q", args[1])
				return nil
			}
			ui.PrintSuccess("Deleted %s", args[1])
			return nil
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&where, "where", "", "query file selecting the documents to delete")
	return cmd
}
