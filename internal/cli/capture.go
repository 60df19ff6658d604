package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"go-app-ranking/internal/extract"
	"go-app-ranking/internal/fetch"
	"go-app-ranking/internal/logx"
	"go-app-ranking/internal/report"
	"go-app-ranking/internal/snapshot"
)

func newCaptureCmd(g *globalOpts) *cobra.Command {
	var outDir string
	cmd := &cobra.Command{
		Use:   "capture",
		Short: "Fetch every configured app page and write one snapshot",
		Long: `Fetch each app in APPS sequentially, extract name, version and category
rank, and write app_store_ranking_YYYYMMDD_HHMMSS.json into the snapshot
directory. A failing app is recorded in the snapshot's errors list and never
aborts the run; only a failure to write the snapshot is fatal.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, closer, err := setup(g, captureLogPrefix)
			if err != nil {
				return err
			}
			defer closer.Close()
			if outDir == "" {
				outDir = cfg.SnapshotDir
			}

			cl, err := fetch.New(fetch.Options{
				ProxyHTTP:  cfg.Proxy.HTTP,
				ProxyHTTPS: cfg.Proxy.HTTPS,
				Timeout:    cfg.Fetch.Timeout,
				UserAgent:  cfg.Fetch.UserAgent,
			})
			if err != nil {
				return fmt.Errorf("http client: %w", err)
			}
			if len(cfg.Apps) == 0 {
				logx.Warnf("APPS 为空，将写出空快照")
			}
			ex := extract.New(loadAppPage(g, cfg.Theme))
			b := snapshot.NewBuilder(cfg.Apps, cl, ex, outDir)

			snap, path, err := b.Run(cmd.Context())
			if err != nil {
				logx.Errorf("写出快照失败：%v", err)
				return err
			}

			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "\nSnapshot %s\n\n", snap.Timestamp)
			fmt.Fprint(w, report.RenderRanking(snap.Apps))
			if s := report.RenderCaptureErrors(snap.Errors); s != "" {
				fmt.Fprintf(w, "\nFailed (%d):\n", len(snap.Errors))
				fmt.Fprint(w, s)
			}
			fmt.Fprintf(w, "\nSaved to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&outDir, "out", "", "snapshot output directory (default: SNAPSHOT_DIR)")
	return cmd
}
