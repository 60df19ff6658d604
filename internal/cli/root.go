// 包 cli 提供命令行：capture（抓取并写出快照）、import（快照入库）、list（查询库内记录）。
package cli

import (
	"github.com/spf13/cobra"
)

// globalOpts 为所有子命令共享的参数。
type globalOpts struct {
	configPath string
	rulesPath  string
}

// NewRootCmd 构建完整的命令树；每次调用返回独立实例，便于测试。
func NewRootCmd() *cobra.Command {
	g := &globalOpts{}
	root := &cobra.Command{
		Use:   "asr",
		Short: "App Store ranking capture and import",
		Long: `asr captures the category ranking of a fixed list of App Store apps,
writes each run as a timestamped JSON snapshot, and imports snapshots into
a relational database (SQLite by default, Postgres optional).

Examples:
  # Capture one snapshot into SNAPSHOT_DIR
  asr capture

  # Import the newest snapshot
  asr import

  # Import a specific file into another database
  asr import app_store_ranking/app_store_ranking_20250102_090005.json --db ./other.db

  # Show stored rankings for one day
  asr list --date 2025-01-02`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&g.configPath, "config", "settings.yaml", "path to settings.yaml")
	root.PersistentFlags().StringVar(&g.rulesPath, "rules", "rules.yaml", "path to rules.yaml (optional)")
	root.SuggestionsMinimumDistance = 2

	root.AddCommand(newCaptureCmd(g))
	root.AddCommand(newImportCmd(g))
	root.AddCommand(newListCmd(g))
	return root
}

// Execute 运行根命令。
func Execute() error {
	return NewRootCmd().Execute()
}
