package snapshot

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"go-app-ranking/internal/model"
)

const (
	filePrefix = "app_store_ranking_"
	fileExt    = ".json"
	// 文件名中的时间部分（UTC+8）
	fileTimeLayout = "20060102_150405"
	// 同一秒内的后续快照追加 _01.._99，字典序仍排在无后缀文件之后
	maxSameSecond = 99
)

// FileName 由快照时间戳生成文件名，如 app_store_ranking_20250101_093000.json。
func FileName(ts string) (string, error) {
	t, err := model.ParseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return filePrefix + t.Format(fileTimeLayout) + fileExt, nil
}

// Write 将快照写入 dir（不存在则创建）：先写临时文件，再以硬链接发布。
// 已存在的快照不会被覆盖，同名时改用带序号的文件名。
func Write(dir string, snap *model.Snapshot) (string, error) {
	name, err := FileName(snap.Timestamp)
	if err != nil {
		return "", fmt.Errorf("snapshot file name: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create snapshot dir %s: %w", dir, err)
	}
	out := *snap
	if out.Apps == nil {
		out.Apps = []model.AppRecord{}
	}
	if out.Errors == nil {
		out.Errors = []model.ErrorRecord{}
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return "", fmt.Errorf("encode snapshot: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+name+".*")
	if err != nil {
		return "", fmt.Errorf("create temp in %s: %w", dir, err)
	}
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", fmt.Errorf("write %s: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("close %s: %w", tmp.Name(), err)
	}
	defer os.Remove(tmp.Name())
	return publish(tmp.Name(), dir, name)
}

// publish 将 tmp 链接到第一个未被占用的快照文件名。
func publish(tmp, dir, name string) (string, error) {
	base := strings.TrimSuffix(name, fileExt)
	for i := 0; i <= maxSameSecond; i++ {
		n := name
		if i > 0 {
			n = fmt.Sprintf("%s_%02d%s", base, i, fileExt)
		}
		path := filepath.Join(dir, n)
		err := os.Link(tmp, path)
		if err == nil {
			return path, nil
		}
		if !errors.Is(err, fs.ErrExist) {
			return "", fmt.Errorf("publish %s: %w", path, err)
		}
	}
	return "", fmt.Errorf("publish %s: more than %d snapshots in one second", name, maxSameSecond+1)
}

// Latest 返回 dir 中文件名字典序最大（即时间最新）的快照。
func Latest(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", &NotFoundError{Dir: dir}
		}
		return "", fmt.Errorf("read snapshot dir %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasPrefix(n, filePrefix) || !strings.HasSuffix(n, fileExt) {
			continue
		}
		names = append(names, n)
	}
	if len(names) == 0 {
		return "", &NotFoundError{Dir: dir}
	}
	sort.Strings(names)
	return filepath.Join(dir, names[len(names)-1]), nil
}

// 读取时使用的宽松结构：指针字段用于区分"缺失"与"零值"。
type rawSnapshot struct {
	Timestamp string      `json:"timestamp"`
	Apps      *[]rawApp   `json:"apps"`
	Errors    *[]rawError `json:"errors"`
}

type rawApp struct {
	Name      *string `json:"name"`
	Version   *string `json:"version"`
	Rank      *int    `json:"rank"`
	URL       *string `json:"url"`
	Timestamp *string `json:"timestamp"`
	Date      *string `json:"date"`
}

type rawError struct {
	Name         *string `json:"name"`
	URL          *string `json:"url"`
	ErrorMessage *string `json:"error_message"`
	Timestamp    *string `json:"timestamp"`
}

// Read 读取并校验快照文件；格式问题返回 *FormatError。
func Read(path string) (*model.Snapshot, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &NotFoundError{Path: path}
		}
		return nil, fmt.Errorf("read snapshot %s: %w", path, err)
	}
	return Decode(path, b)
}

// Decode 解析快照内容；path 仅用于错误信息。
func Decode(path string, b []byte) (*model.Snapshot, error) {
	var raw rawSnapshot
	if err := json.Unmarshal(b, &raw); err != nil {
		return nil, &FormatError{Path: path, Reason: "malformed json", Err: err}
	}
	if raw.Apps == nil {
		return nil, &FormatError{Path: path, Reason: `missing "apps"`}
	}
	snap := &model.Snapshot{
		Timestamp: raw.Timestamp,
		Apps:      make([]model.AppRecord, 0, len(*raw.Apps)),
		Errors:    []model.ErrorRecord{},
	}
	seen := map[int]string{}
	names := map[string]bool{}
	for i, ra := range *raw.Apps {
		a, err := ra.record()
		if err != nil {
			return nil, &FormatError{Path: path, Reason: fmt.Sprintf("apps[%d]: %v", i, err)}
		}
		if h, ok := seen[a.Rank]; ok {
			return nil, &FormatError{Path: path, Reason: fmt.Sprintf("apps[%d]: rank %d repeats %s", i, a.Rank, h)}
		}
		// 导入以 (name, date) 为键覆盖，同一快照内重复会相互覆盖
		key := a.Name + "\x00" + a.Date
		if names[key] {
			return nil, &FormatError{Path: path, Reason: fmt.Sprintf("apps[%d]: name %q repeats on %s", i, a.Name, a.Date)}
		}
		names[key] = true
		seen[a.Rank] = a.Name
		snap.Apps = append(snap.Apps, a)
	}
	if raw.Errors != nil {
		for i, re := range *raw.Errors {
			e, err := re.record()
			if err != nil {
				return nil, &FormatError{Path: path, Reason: fmt.Sprintf("errors[%d]: %v", i, err)}
			}
			snap.Errors = append(snap.Errors, e)
		}
	}
	return snap, nil
}

func (r rawApp) record() (model.AppRecord, error) {
	switch {
	case r.Name == nil || *r.Name == "":
		return model.AppRecord{}, errors.New(`missing "name"`)
	case r.URL == nil || *r.URL == "":
		return model.AppRecord{}, errors.New(`missing "url"`)
	case r.Rank == nil:
		return model.AppRecord{}, errors.New(`missing "rank"`)
	case *r.Rank < 1:
		return model.AppRecord{}, fmt.Errorf("rank %d < 1", *r.Rank)
	case r.Timestamp == nil || *r.Timestamp == "":
		return model.AppRecord{}, errors.New(`missing "timestamp"`)
	}
	date, err := model.DateOf(*r.Timestamp)
	if err != nil {
		return model.AppRecord{}, err
	}
	if r.Date != nil && *r.Date != "" && *r.Date != date {
		return model.AppRecord{}, fmt.Errorf("date %s does not match timestamp %s", *r.Date, *r.Timestamp)
	}
	a := model.AppRecord{
		Name:      *r.Name,
		Rank:      *r.Rank,
		URL:       *r.URL,
		Timestamp: *r.Timestamp,
		Date:      date,
	}
	if r.Version != nil {
		a.Version = *r.Version
	}
	return a, nil
}

func (r rawError) record() (model.ErrorRecord, error) {
	switch {
	case r.Name == nil:
		return model.ErrorRecord{}, errors.New(`missing "name"`)
	case r.URL == nil || *r.URL == "":
		return model.ErrorRecord{}, errors.New(`missing "url"`)
	case r.ErrorMessage == nil:
		return model.ErrorRecord{}, errors.New(`missing "error_message"`)
	case r.Timestamp == nil || *r.Timestamp == "":
		return model.ErrorRecord{}, errors.New(`missing "timestamp"`)
	}
	if _, err := model.ParseTimestamp(*r.Timestamp); err != nil {
		return model.ErrorRecord{}, err
	}
	return model.ErrorRecord{
		Name:         *r.Name,
		URL:          *r.URL,
		ErrorMessage: *r.ErrorMessage,
		Timestamp:    *r.Timestamp,
	}, nil
}
