// 包 rules 负责加载并提供页面解析规则（rules.yaml），
// 以预设名（如 appstore）组织 CSS 选择器，用于应用页解析。
package rules

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// BuiltinName 为内置 App Store 预设名。
const BuiltinName = "appstore"

// Rules 表示全部规则集合：键为预设名，值为具体规则。
type Rules struct {
	Presets map[string]Preset `yaml:",inline"`
}

// Preset 为单个预设的解析规则集合。
type Preset struct {
	AppPage *AppPage `yaml:"app_page"`
}

// AppPage 描述应用页的选择器：
// - name/rank 必需，version 可选
// - 表达式支持 "选择器@属性"、"." 与 "||" 回退
// - strip：读取名称前需移除的子元素（如年龄分级徽章）
type AppPage struct {
	Name    string `yaml:"name"`
	Version string `yaml:"version"`
	Rank    string `yaml:"rank"`
	Strip   string `yaml:"strip"`
}

// Builtin 返回 App Store 应用页的内置规则。
func Builtin() AppPage {
	return AppPage{
		Name:    "h1.product-header__title||h1",
		Version: ".whats-new__latest__version||[data-test-version]",
		Rank:    "a.inline-list__item||.product-header__list__item a",
		Strip:   ".badge",
	}
}

func Load(path string) (*Rules, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules %s: %w", path, err)
	}
	var r Rules
	if err := yaml.Unmarshal(b, &r.Presets); err != nil {
		return nil, fmt.Errorf("unmarshal rules %s: %w", path, err)
	}
	return &r, nil
}

// GetPreset 按名称获取预设（不区分大小写），若为空或不存在则回退到 "default"。
func (r *Rules) GetPreset(name string) (Preset, bool) {
	if r == nil || len(r.Presets) == 0 {
		return Preset{}, false
	}
	if name == "" {
		name = "default"
	}
	if p, ok := r.Presets[name]; ok {
		return p, true
	}
	lower := strings.ToLower(name)
	for k, v := range r.Presets {
		if strings.ToLower(k) == lower {
			return v, true
		}
	}
	if p, ok := r.Presets["default"]; ok {
		return p, true
	}
	return Preset{}, false
}

// AppPageFor 返回指定主题的应用页规则；未配置或字段留空时以内置规则补齐。
func (r *Rules) AppPageFor(theme string) AppPage {
	out := Builtin()
	p, ok := r.GetPreset(theme)
	if !ok || p.AppPage == nil {
		return out
	}
	if p.AppPage.Name != "" {
		out.Name = p.AppPage.Name
	}
	if p.AppPage.Version != "" {
		out.Version = p.AppPage.Version
	}
	if p.AppPage.Rank != "" {
		out.Rank = p.AppPage.Rank
	}
	if p.AppPage.Strip != "" {
		out.Strip = p.AppPage.Strip
	}
	return out
}
