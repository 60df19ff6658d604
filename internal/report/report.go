// 包 report 渲染终端表格：抓取结果、导入摘要与库内记录。
package report

import (
	"fmt"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"go-app-ranking/internal/model"
)

const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGray  = "\033[90m"
)

// ColorEnabled 在 stdout 为终端且未设置 NO_COLOR 时返回 true。
var ColorEnabled = func() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if ColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderRanking 渲染快照中的成功记录（已按排名升序）。
func RenderRanking(apps []model.AppRecord) string {
	if len(apps) == 0 {
		return "No apps captured.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-6s %-28s %-12s %s\n", "Rank", "App", "Version", "Date"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")
	for _, a := range apps {
		sb.WriteString(fmt.Sprintf("%-6d %-28s %-12s %s\n",
			a.Rank, truncate(a.Name, 28), orDash(a.Version), a.Date))
	}
	return sb.String()
}

// RenderCaptureErrors 渲染快照中的失败记录；无失败时返回空串。
func RenderCaptureErrors(errs []model.ErrorRecord) string {
	if len(errs) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-28s %s\n", "App", "Error"))
	sb.WriteString(strings.Repeat("─", 60))
	sb.WriteString("\n")
	for _, e := range errs {
		sb.WriteString(fmt.Sprintf("%-28s %s\n", truncate(e.Name, 28), colorize(colorRed, e.ErrorMessage)))
	}
	return sb.String()
}

// RenderAppRows 渲染库内应用行。
func RenderAppRows(rows []model.AppRow) string {
	if len(rows) == 0 {
		return "No app records found.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-12s %-6s %-28s %-12s %s\n", "Date", "Rank", "App", "Version", "Captured"))
	sb.WriteString(strings.Repeat("─", 88))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-12s %-6d %-28s %-12s %s\n",
			r.Date, r.Ranking, truncate(r.Name, 28), orDash(r.Version), colorize(colorGray, r.Timestamp)))
	}
	return sb.String()
}

// RenderErrorRows 渲染库内错误行。
func RenderErrorRows(rows []model.ErrorRow) string {
	if len(rows) == 0 {
		return "No error records found.\n"
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%-26s %-28s %s\n", "Time", "App", "Error"))
	sb.WriteString(strings.Repeat("─", 88))
	sb.WriteString("\n")
	for _, r := range rows {
		sb.WriteString(fmt.Sprintf("%-26s %-28s %s\n",
			r.Timestamp, truncate(r.Name, 28), colorize(colorRed, truncate(r.ErrorMessage, 60))))
	}
	return sb.String()
}

// RenderStats 渲染库内汇总。
func RenderStats(st model.Stats) string {
	return fmt.Sprintf("Apps: %d  Errors: %d  Dates: %d\n", st.AppsTotal, st.ErrorsTotal, st.Dates)
}

// truncate 按字符截断，超长时以 ... 结尾。
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 3 {
		return string(r[:n])
	}
	return string(r[:n-3]) + "..."
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
