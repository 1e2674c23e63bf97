package commands

import (
	"fmt"
	"path/filepath"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/prisma-docdb/cli/internal/config"
	"github.com/satishbabariya/prisma-docdb/cli/internal/ui"
)

const exampleQuery = `# Filter keys outside the reserved set are folded into where.
status: active
where:
  age:
    ">=": 18
    "<": 65
orderBy:
  - [name, asc]
limit: 10
`

func newInitCommand(a *app) *cobra.Command {
	var (
		dir         string
		force       bool
		interactive bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file and an example query",
		Long: `Write .prisma-docdb.yaml and query.yaml into the target directory.
Values come from the global flags, or from prompts with --interactive.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := *a.cfg
			if interactive {
				if err := askConfig(&cfg); err != nil {
					return err
				}
			}
			return runInit(&cfg, dir, force)
		},
	}

	cmd.Flags().StringVar(&dir, "dir", ".", "target directory")
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite existing files")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "prompt for settings")
	return cmd
}

func askConfig(cfg *config.Config) error {
	questions := []*survey.Question{
		{
			Name: "backend",
			Prompt: &survey.Select{
				Message: "Storage backend:",
				Options: []string{"sqlite", "memory", "postgres", "mysql"},
				Default: cfg.Backend,
			},
		},
		{
			Name:     "dsn",
			Prompt:   &survey.Input{Message: "Connection string:", Default: cfg.DSN},
			Validate: survey.Required,
		},
		{
			Name:     "database",
			Prompt:   &survey.Input{Message: "Database id:", Default: cfg.Database},
			Validate: survey.Required,
		},
	}
	answers := struct {
		Backend  string `survey:"backend"`
		DSN      string `survey:"dsn"`
		Database string `survey:"database"`
	}{}
	if err := survey.Ask(questions, &answers); err != nil {
		return err
	}
	cfg.Backend, cfg.DSN, cfg.Database = answers.Backend, answers.DSN, answers.Database
	return nil
}

func runInit(cfg *config.Config, dir string, force bool) error {
	configPath := filepath.Join(dir, config.FileName+".yaml")
	queryPath := filepath.Join(dir, "query.yaml")

	for _, p := range []string{configPath, queryPath} {
		if exists, _ := afero.Exists(config.AppFs, p); exists && !force {
			return fmt.Errorf("%s already exists (use --force to overwrite)", p)
		}
	}

	if _, err := config.SaveConfig(cfg, configPath); err != nil {
		return err
	}
	ui.PrintSuccess("Created %s", configPath)

	if err := afero.WriteFile(config.AppFs, queryPath, []byte(exampleQuery), 0644); err != nil {
		return fmt.Errorf("failed to write example query: %w", err)
	}
	ui.PrintSuccess("Created %s", queryPath)

	ui.PrintSection("Next steps")
	ui.PrintInfo("prisma-docdb compile %s --alias users", queryPath)
	ui.PrintInfo("prisma-docdb find users %s", queryPath)
	return nil
}
