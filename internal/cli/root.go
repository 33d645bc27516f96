package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

type App struct {
	DatabaseURL string
	PrettyJSON  bool
}

func NewRootCmd() *cobra.Command {
	app := &App{}

	cmd := &cobra.Command{
		Use:          "timelinectl",
		Short:        "Operator tooling for the timeline service",
		SilenceUsage: true,
		Example: strings.TrimSpace(`
  # Lay out blocks from a file without touching the database
  timelinectl layout blocks.json

  # Create or upgrade the schema
  timelinectl migrate --database-url postgres://...

  # Rewrite a channel's offsets from its stored order
  timelinectl relayout 6f1c2b1e-0000-4000-8000-0000000000c1
`),
	}

	cmd.PersistentFlags().StringVar(&app.DatabaseURL, "database-url", envOr("DATABASE_URL", ""), "Postgres connection string")
	cmd.PersistentFlags().BoolVar(&app.PrettyJSON, "pretty", false, "Pretty-print JSON output")

	cmd.AddCommand(newLayoutCmd(app))
	cmd.AddCommand(newMigrateCmd(app))
	cmd.AddCommand(newRelayoutCmd(app))

	return cmd
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func writeOut(cmd *cobra.Command, app *App, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	if app.PrettyJSON {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(v)
}

func writeErr(cmd *cobra.Command, err error) error {
	fmt.Fprintln(cmd.ErrOrStderr(), err.Error())
	return err
}
