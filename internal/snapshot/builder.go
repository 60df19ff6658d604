// 包 snapshot 负责单次抓取流程与快照文件读写：
// - Builder：顺序抓取配置中的应用 → 解析 → 排序 → 写出 JSON
// - Latest/Read：定位并校验快照文件，供导入使用
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"go-app-ranking/internal/config"
	"go-app-ranking/internal/extract"
	"go-app-ranking/internal/fetch"
	"go-app-ranking/internal/logx"
	"go-app-ranking/internal/model"
)

// Fetcher 抓取页面正文。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor 从 HTML 中解析应用字段。
type Extractor interface {
	Extract(html string) (extract.Fields, error)
}

// Builder 单次抓取执行器，持有应用列表/抓取器/解析器与输出目录。
type Builder struct {
	apps    []config.App
	fetcher Fetcher
	extract Extractor
	dir     string
	// Now 为可替换时钟，默认 model.Now
	Now func() time.Time
}

// NewBuilder 创建 Builder；apps 由外部配置注入。
func NewBuilder(apps []config.App, f Fetcher, e Extractor, dir string) *Builder {
	return &Builder{apps: apps, fetcher: f, extract: e, dir: dir, Now: model.Now}
}

// Run 执行一轮抓取并写出快照，返回快照与文件路径。
// 单个应用失败只记录为错误项；仅目录或文件写入失败时返回错误。
func (b *Builder) Run(ctx context.Context) (*model.Snapshot, string, error) {
	snap := b.Capture(ctx)
	path, err := Write(b.dir, snap)
	if err != nil {
		return snap, "", err
	}
	logx.Infof("快照已保存：%s", path)
	return snap, path, nil
}

// Capture 顺序抓取全部应用并组装快照（不落盘）。
func (b *Builder) Capture(ctx context.Context) *model.Snapshot {
	logx.Infof("开始抓取：应用数=%d", len(b.apps))
	apps := make([]model.AppRecord, 0, len(b.apps))
	errs := make([]model.ErrorRecord, 0)
	for _, a := range b.apps {
		rec, err := b.captureOne(ctx, a)
		if err != nil {
			errs = append(errs, model.ErrorRecord{
				Name:         a.Name,
				URL:          a.URL,
				ErrorMessage: err.Error(),
				Timestamp:    model.FormatTimestamp(b.now()),
			})
			continue
		}
		apps = append(apps, rec)
	}

	sort.SliceStable(apps, func(i, j int) bool { return apps[i].Rank < apps[j].Rank })
	apps, dup := dedup(apps)
	errs = append(errs, dup...)

	snap := &model.Snapshot{
		Timestamp: model.FormatTimestamp(b.now()),
		Apps:      apps,
		Errors:    errs,
	}
	for _, a := range snap.Apps {
		logx.Infof("排名=%d 名称=%s 版本=%s", a.Rank, a.Name, a.Version)
	}
	logx.Infof("抓取完成：成功=%d 错误=%d", len(snap.Apps), len(snap.Errors))
	return snap
}

// captureOne 处理单个应用：抓取→解析→组装记录。
func (b *Builder) captureOne(ctx context.Context, a config.App) (model.AppRecord, error) {
	logx.Infof("开始抓取：%s %s", a.Name, a.URL)
	html, err := b.fetcher.Fetch(ctx, a.URL)
	if err != nil {
		var ne *fetch.NetworkError
		if errors.As(err, &ne) {
			logx.Errorf("网络请求错误：%s - %v", a.URL, err)
		} else {
			logx.Errorf("抓取失败：%s - %v", a.URL, err)
		}
		return model.AppRecord{}, err
	}
	f, err := b.extract.Extract(html)
	if err != nil {
		logx.Errorf("解析失败：%s - %v", a.URL, err)
		return model.AppRecord{}, err
	}
	now := b.now()
	rec := model.AppRecord{
		Name:      f.Name,
		Version:   f.Version,
		Rank:      f.Rank,
		URL:       a.URL,
		Timestamp: model.FormatTimestamp(now),
		Date:      model.FormatDate(now),
	}
	logx.Infof("成功抓取应用信息：%s", rec.Name)
	return rec, nil
}

// dedup 要求输入已按排名排序；排名重复或同日名称重复时，后者降级为错误项。
func dedup(apps []model.AppRecord) ([]model.AppRecord, []model.ErrorRecord) {
	out := apps[:0]
	var errs []model.ErrorRecord
	holder := map[int]string{}
	names := map[string]int{}
	for _, a := range apps {
		msg := ""
		if h, ok := holder[a.Rank]; ok {
			logx.Warnf("排名重复：%s 与 %s 同为 %d", a.Name, h, a.Rank)
			msg = fmt.Sprintf("duplicate rank %d (held by %s)", a.Rank, h)
		} else if r, ok := names[a.Name+"\x00"+a.Date]; ok {
			logx.Warnf("名称重复：%s 已占排名 %d", a.Name, r)
			msg = fmt.Sprintf("duplicate name %s (rank %d kept)", a.Name, r)
		}
		if msg != "" {
			errs = append(errs, model.ErrorRecord{
				Name:         a.Name,
				URL:          a.URL,
				ErrorMessage: msg,
				Timestamp:    a.Timestamp,
			})
			continue
		}
		holder[a.Rank] = a.Name
		names[a.Name+"\x00"+a.Date] = a.Rank
		out = append(out, a)
	}
	return out, errs
}

func (b *Builder) now() time.Time {
	if b.Now == nil {
		return model.Now()
	}
	return b.Now().In(model.Location)
}
