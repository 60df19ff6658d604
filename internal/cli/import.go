package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-app-ranking/internal/importer"
)

// 导入后展示的记录条数。
const defaultShowLimit = 10

func newImportCmd(g *globalOpts) *cobra.Command {
	var dsn string
	cmd := &cobra.Command{
		Use:   "import [PATH]",
		Short: "Import a snapshot file into the database",
		Long: `Import PATH, or the newest app_store_ranking_*.json in SNAPSHOT_DIR when
PATH is omitted. App rows are replaced per (name, date); error rows are
appended. The whole snapshot is written in one transaction.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(g, importLogPrefix)
			if err != nil {
				return err
			}
			defer closer.Close()

			db, err := openStore(cfg, dsn)
			if err != nil {
				return err
			}
			defer db.Close()

			var path string
			if len(args) == 1 {
				path = args[0]
			}
			ctx := cmd.Context()
			res, err := importer.New(db, cfg.SnapshotDir).Run(ctx, path)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Imported %s\n", res.Path)
			fmt.Fprintf(w, "  apps: %d (replaced %d)  errors: %d\n\n", res.AppsInserted, res.AppsReplaced, res.ErrorsInserted)
			return printStored(ctx, w, db, "", defaultShowLimit)
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "database DSN (default: DATABASE.dsn)")
	return cmd
}
