package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
	"github.com/satishbabariya/prisma-docdb/cli/internal/watch"
	"github.com/satishbabariya/prisma-docdb/query/sqlgen"
	"github.com/satishbabariya/prisma-docdb/runtime/adapter"
	"github.com/satishbabariya/prisma-docdb/runtime/types"
)

type compileFlags struct {
	alias   string
	explain bool
	json    bool
}

func (f *compileFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.alias, "alias", "root", "collection alias used in the query")
	cmd.Flags().BoolVar(&f.explain, "explain", false, "render the query and its parameters as markdown")
	cmd.Flags().BoolVar(&f.json, "json", false, "print the compiled query as JSON")
}

func newCompileCommand(a *app) *cobra.Command {
	var flags compileFlags
	cmd := &cobra.Command{
		Use:   "compile <query-file>",
		Short: "Compile a query file and print the query text and parameters",
		Long: `Compile a YAML or JSON query file. Nothing is sent to the store.
Use "-" to read the query from stdin.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.compileFile(cmd, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func newWatchCommand(a *app) *cobra.Command {
	var flags compileFlags
	cmd := &cobra.Command{
		Use:   "watch <query-file>",
		Short: "Recompile a query file whenever it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := signalContext(cmd.Context())
			defer cancel()
			return a.watchFile(ctx, cmd, args[0], flags)
		},
	}
	flags.register(cmd)
	return cmd
}

func (a *app) watchFile(ctx context.Context, cmd *cobra.Command, path string, flags compileFlags) error {
	w, err := watch.NewWatcher(path, func() error {
		ui.PrintSection(path)
		return a.compileFile(cmd, path, flags)
	}, func(err error) {
		ui.PrintError("%v", err)
	})
	if err != nil {
		return err
	}
	ui.PrintInfo("Watching %s (Ctrl+C to stop)", path)
	return w.Run(ctx)
}

func (a *app) compileFile(cmd *cobra.Command, path string, flags compileFlags) error {
	q, err := readQuery(path, cmd.InOrStdin())
	if err != nil {
		return err
	}
	ad := adapter.New(nil, adapter.Config{Database: a.cfg.Database, IDField: a.cfg.IDField})
	compiled, err := ad.Compile(types.CollectionRef{Name: flags.alias, Alias: flags.alias}, q)
	if err != nil {
		return err
	}
	return printCompiled(compiled, flags)
}

func printCompiled(q *sqlgen.Query, flags compileFlags) error {
	switch {
	case flags.json:
		return ui.PrintJSON(q)
	case flags.explain:
		return ui.PrintMarkdown(explain(q))
	}
	ui.PrintCodeBlock(q.Text, "sql")
	for _, p := range q.Parameters {
		ui.PrintKeyValue(p.Name, p.Value)
	}
	return nil
}

// explain renders q as a markdown document.
func explain(q *sqlgen.Query) string {
	var b strings.Builder
	b.WriteString("## Query\n\n```sql\n")
	b.WriteString(q.Text)
	b.WriteString("\n```\n\n")
	if len(q.Parameters) == 0 {
		b.WriteString("_No parameters._\n")
		return b.String()
	}
	b.WriteString("## Parameters\n\n| Name | Value |\n|---|---|\n")
	for _, p := range q.Parameters {
		fmt.Fprintf(&b, "| `%s` | `%s` |\n", p.Name, ui.FormatValue(p.Value))
	}
	return b.String()
}

