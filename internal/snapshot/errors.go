package snapshot

import "fmt"

// FormatError 表示快照 JSON 格式错误或缺少必需字段。
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("snapshot %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("snapshot %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error { return e.Err }

// NotFoundError 表示没有可导入的快照文件。
type NotFoundError struct {
	Dir  string
	Path string
}

func (e *NotFoundError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("snapshot file not found: %s", e.Path)
	}
	return fmt.Sprintf("no snapshot file in %s", e.Dir)
}
