package commands

import (
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

// outputFlags are shared by the commands that print documents.
type outputFlags struct {
	alias string
	json  bool
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.alias, "alias", "", "query alias (default: the collection name)")
	cmd.Flags().BoolVar(&f.json, "json", false, "print JSON instead of a table")
}

func printRecords(records []types.Record, meta types.Metadata, asJSON bool) error {
	if asJSON {
		return ui.PrintJSON(records)
	}
	if len(records) == 0 {
		ui.PrintInfo("No documents found")
		return nil
	}
	if err := ui.PrintRecords(records); err != nil {
		return err
	}
	printMetadata(meta)
	return nil
}

func printMetadata(meta types.Metadata) {
	for _, kv := range []struct {
		name string
		n    int
	}{
		{"found", meta.Found},
		{"created", meta.Created},
		{"updated", meta.Updated},
		{"deleted", meta.Deleted},
	} {
		if kv.n > 0 {
			ui.PrintKeyValue(kv.name, kv.n)
		}
	}
}

func optionalArg(args []string, i int) string {
	if len(args) > i {
		return args[i]
	}
	return ""
}

func newFindCommand(a *app) *cobra.Command {
	var (
		out outputFlags
		id  string
	)
	cmd := &cobra.Command{
		Use:   "find <collection> [query-file]",
		Short: "Find documents matching a query, or one document by id",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if id != "" && len(args) > 1 {
				return usageError(cmd, "--id and a query file are mutually exclusive")
			}
			q, err := readQuery(optionalArg(args, 1), cmd.InOrStdin())
			if err != nil {
				return err
			}

			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			ref := collectionRef(args[0], out.alias)
			if id != "" {
				record, meta, err := s.adapter.Find(cmd.Context(), ref, id)
				if err != nil {
					return err
				}
				if record == nil {
					if out.json {
						return ui.PrintJSON(nil)
					}
					ui.PrintWarning("No document with id %q", id)
					return nil
				}
				return printRecords([]types.Record{record}, meta, out.json)
			}

			records, meta, err := s.adapter.FindAll(cmd.Context(), ref, q)
			if err != nil {
				return err
			}
			return printRecords(records, meta, out.json)
		},
	}
	out.register(cmd)
	cmd.Flags().StringVar(&id, "id", "", "find a single document by id")
	return cmd
}

func newCountCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "count <collection> [query-file]",
		Short: "Count documents matching a query",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readQuery(optionalArg(args, 1), cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			n, _, err := s.adapter.Count(cmd.Context(), collectionRef(args[0], out.alias), q)
			if err != nil {
				return err
			}
			if out.json {
				return ui.PrintJSON(map[string]int{"count": n})
			}
			ui.PrintKeyValue("count", n)
			return nil
		},
	}
	out.register(cmd)
	return cmd
}

func newSumCommand(a *app) *cobra.Command {
	var out outputFlags
	cmd := &cobra.Command{
		Use:   "sum <collection> <field> [query-file]",
		Short: "Sum a numeric field over the documents matching a query",
		Args:  cobra.RangeArgs(2, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := readQuery(optionalArg(args, 2), cmd.InOrStdin())
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			total, _, err := s.adapter.Sum(cmd.Context(), collectionRef(args[0], out.alias), args[1], q)
			if err != nil {
				return err
			}
			if out.json {
				return ui.PrintJSON(map[string]float64{"sum": total})
			}
			ui.PrintKeyValue("sum", total)
			return nil
		},
	}
	out.register(cmd)
	return cmd
}
