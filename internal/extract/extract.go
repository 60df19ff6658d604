// 包 extract 提供应用页解析：
// - 依据 rules 预设的 CSS 选择器获取 name/version/rank
// - 支持 "选择器@属性"、"." 以及 "||" 多方案回退
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"go-app-ranking/internal/rules"
)

var (
	digitsRe  = regexp.MustCompile(`\d+`)
	versionRe = regexp.MustCompile(`\d+(?:\.\d+)+|\d+`)
)

// Fields 为应用页解析结果。
type Fields struct {
	Name    string
	Version string
	Rank    int
}

// Extractor 按预设规则解析 HTML。
type Extractor struct {
	page rules.AppPage
}

func New(page rules.AppPage) *Extractor {
	return &Extractor{page: page}
}

// Extract 解析应用名称、版本与排名；名称或排名缺失/非数字时返回 *ParseError。
func (e *Extractor) Extract(html string) (Fields, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return Fields{}, &ParseError{Field: "html", Reason: err.Error()}
	}
	root := doc.Selection

	var f Fields
	f.Name = getVal(root, e.page.Name, e.page.Strip)
	if f.Name == "" {
		return Fields{}, &ParseError{Field: "name", Reason: fmt.Sprintf("no element matches %q", e.page.Name)}
	}

	rankText := getVal(root, e.page.Rank, "")
	if rankText == "" {
		return Fields{}, &ParseError{Field: "rank", Reason: fmt.Sprintf("no element matches %q", e.page.Rank)}
	}
	rank, err := ParseRank(rankText)
	if err != nil {
		return Fields{}, err
	}
	f.Rank = rank
	f.Version = NormalizeVersion(getVal(root, e.page.Version, ""))
	return f, nil
}

// ParseRank 取文本中第一段连续数字作为排名，如 "#12 in Finance" → 12。
func ParseRank(text string) (int, error) {
	m := digitsRe.FindString(text)
	if m == "" {
		return 0, &ParseError{Field: "rank", Reason: fmt.Sprintf("not numeric: %q", text)}
	}
	n, err := strconv.Atoi(m)
	if err != nil || n < 1 {
		return 0, &ParseError{Field: "rank", Reason: fmt.Sprintf("invalid rank: %q", text)}
	}
	return n, nil
}

// NormalizeVersion 提取 "Version 3.1.0" 中的版本号；无数字时保留原文本。
func NormalizeVersion(text string) string {
	text = collapse(text)
	if m := versionRe.FindString(text); m != "" {
		return m
	}
	return text
}

// getVal 解析表达式并支持使用 "||" 作为回退分隔，例如："h1.title||h1"。
func getVal(scope *goquery.Selection, expr, strip string) string {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return ""
	}
	for _, p := range strings.Split(expr, "||") {
		if v := getValSingle(scope, strings.TrimSpace(p), strip); v != "" {
			return v
		}
	}
	return ""
}

// getValSingle 解析单个表达式：文本或属性读取。
func getValSingle(scope *goquery.Selection, expr, strip string) string {
	if expr == "" {
		return ""
	}
	if expr == "." {
		return textOf(scope, strip)
	}
	if at := strings.Index(expr, "@"); at != -1 {
		sel := strings.TrimSpace(expr[:at])
		attr := strings.TrimSpace(expr[at+1:])
		el := scope
		if sel != "" {
			el = scope.Find(sel).First()
		}
		if el.Length() == 0 {
			return ""
		}
		val, _ := el.Attr(attr)
		return collapse(val)
	}
	el := scope.Find(expr).First()
	if el.Length() == 0 {
		return ""
	}
	return textOf(el, strip)
}

// textOf 读取元素文本，先移除 strip 命中的子元素。
func textOf(s *goquery.Selection, strip string) string {
	if strip != "" {
		s = s.Clone()
		s.Find(strip).Remove()
	}
	return collapse(s.Text())
}

func collapse(s string) string { return strings.Join(strings.Fields(s), " ") }

// ParseError 表示页面结构不符合预期或字段无法转换。
type ParseError struct {
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %s", e.Field, e.Reason)
}
