package model

import (
	"fmt"
	"time"
)

// 时间统一使用固定 UTC+8 偏移，不依赖宿主机时区。
var Location = time.FixedZone("UTC+8", 8*60*60)

const (
	TimestampLayout = "2006-01-02T15:04:05-07:00"
	DateLayout      = "2006-01-02"
)

// Now 返回 UTC+8 下的当前时间。
func Now() time.Time { return time.Now().In(Location) }

// FormatTimestamp 以固定格式输出 UTC+8 时间戳。
func FormatTimestamp(t time.Time) string { return t.In(Location).Format(TimestampLayout) }

// FormatDate 返回 UTC+8 日历日期。
func FormatDate(t time.Time) string { return t.In(Location).Format(DateLayout) }

// ParseTimestamp 解析时间戳；偏移不要求一定为 +08:00，结果统一换算到 UTC+8。
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", s, err)
	}
	return t.In(Location), nil
}

// DateOf 由时间戳推导 UTC+8 日期。
func DateOf(ts string) (string, error) {
	t, err := ParseTimestamp(ts)
	if err != nil {
		return "", err
	}
	return FormatDate(t), nil
}
