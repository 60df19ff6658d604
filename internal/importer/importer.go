// 包 importer 将快照文件导入关系库：定位 → 校验 → 单事务写入。
package importer

import (
	"context"
	"time"

	"go-app-ranking/internal/logx"
	"go-app-ranking/internal/model"
	"go-app-ranking/internal/snapshot"
	"go-app-ranking/internal/store"
)

// Store 为导入所需的最小存储能力。
type Store interface {
	Import(ctx context.Context, apps []model.AppRow, errs []model.ErrorRow) (store.ImportResult, error)
}

// Importer 从快照目录或指定文件导入。
type Importer struct {
	store Store
	dir   string
	// Now 为可替换时钟，用于 created_at
	Now func() time.Time
}

// Result 为一次导入的结果摘要。
type Result struct {
	Path           string
	Timestamp      string
	AppsInserted   int
	AppsReplaced   int
	ErrorsInserted int
}

func New(s Store, dir string) *Importer {
	return &Importer{store: s, dir: dir, Now: model.Now}
}

// Run 导入 path 指定的快照；path 为空时取目录中最新的快照。
// 文件缺失返回 *snapshot.NotFoundError，格式问题返回 *snapshot.FormatError，
// 两种情况下均不写库。
func (im *Importer) Run(ctx context.Context, path string) (*Result, error) {
	if path == "" {
		p, err := snapshot.Latest(im.dir)
		if err != nil {
			return nil, err
		}
		path = p
	}
	logx.Infof("读取快照：%s", path)
	snap, err := snapshot.Read(path)
	if err != nil {
		return nil, err
	}

	createdAt := model.FormatTimestamp(im.Now())
	apps := make([]model.AppRow, 0, len(snap.Apps))
	for _, a := range snap.Apps {
		apps = append(apps, a.Row(createdAt))
	}
	errs := make([]model.ErrorRow, 0, len(snap.Errors))
	for _, e := range snap.Errors {
		errs = append(errs, e.Row(createdAt))
	}

	res, err := im.store.Import(ctx, apps, errs)
	if err != nil {
		logx.Errorf("导入失败，已回滚：%v", err)
		return nil, err
	}
	logx.Infof("导入完成：应用=%d（覆盖 %d） 错误=%d", res.AppsInserted, res.AppsReplaced, res.ErrorsInserted)
	return &Result{
		Path:           path,
		Timestamp:      snap.Timestamp,
		AppsInserted:   res.AppsInserted,
		AppsReplaced:   res.AppsReplaced,
		ErrorsInserted: res.ErrorsInserted,
	}, nil
}
