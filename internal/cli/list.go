package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"go-app-ranking/internal/model"
	"go-app-ranking/internal/report"
	"go-app-ranking/internal/store"
)

func newListCmd(g *globalOpts) *cobra.Command {
	var (
		dsn   string
		limit int
		date  string
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored rankings and recent errors",
		Example: `  # Latest 10 rows
  asr list

  # All rows for one day
  asr list --date 2025-01-02 --limit 0`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit < 0 {
				return fmt.Errorf("invalid limit: %d (must be >= 0)", limit)
			}
			if date != "" {
				if _, err := time.Parse(model.DateLayout, date); err != nil {
					return fmt.Errorf("invalid date %q: want YYYY-MM-DD", date)
				}
			}
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
			return printStored(cmd.Context(), cmd.OutOrStdout(), db, date, limit)
		},
	}
	cmd.Flags().StringVar(&dsn, "db", "", "database DSN (default: DATABASE.dsn)")
	cmd.Flags().IntVar(&limit, "limit", defaultShowLimit, "max rows to show (0 = all)")
	cmd.Flags().StringVar(&date, "date", "", "only show app and error rows of this date (YYYY-MM-DD, UTC+8)")
	return cmd
}

// printStored 输出库内汇总、应用行与最近的错误行。
func printStored(ctx context.Context, w io.Writer, db *store.DB, date string, limit int) error {
	st, err := db.Stats(ctx)
	if err != nil {
		return err
	}
	apps, err := db.ListApps(ctx, date, limit)
	if err != nil {
		return err
	}
	errs, err := db.ListErrors(ctx, date, limit)
	if err != nil {
		return err
	}
	fmt.Fprint(w, report.RenderStats(st))
	fmt.Fprintln(w)
	fmt.Fprint(w, report.RenderAppRows(apps))
	fmt.Fprintln(w)
	fmt.Fprint(w, report.RenderErrorRows(errs))
	return nil
}
