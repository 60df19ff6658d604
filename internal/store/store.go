// 包 store 提供关系型存储（SQLite 默认，可选 Postgres），包含建表/导入/查询。
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"go-app-ranking/internal/model"
)

func init() {
	// modernc 驱动名为 sqlite，sqlx 默认不识别其占位符风格
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// DB 封装 *sqlx.DB；SQL 统一使用 ? 占位符，由 Rebind 适配驱动。
type DB struct {
	db     *sqlx.DB
	driver string
}

// Open 按类型打开数据库并执行自动迁移。typ 为 sqlite 或 postgres。
func Open(typ, dsn string) (*DB, error) {
	switch typ {
	case "", "sqlite":
		return OpenSQLite(dsn)
	case "postgres":
		return open("postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported database type: %s", typ)
	}
}

// OpenSQLite 打开 SQLite 数据库文件（父目录不存在时创建）。
func OpenSQLite(path string) (*DB, error) {
	if dir := sqliteDir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir %s: %w", dir, err)
		}
	}
	s, err := open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s.db.SetMaxOpenConns(1)
	return s, nil
}

// OpenDB 复用已打开的连接（如测试容器），并执行迁移。
func OpenDB(db *sqlx.DB) (*DB, error) {
	s := &DB{db: db, driver: db.DriverName()}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func open(driver, dsn string) (*DB, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	s := &DB{db: db, driver: driver}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *DB) Close() error { return s.db.Close() }

// SQL 返回底层连接，供测试或临时查询使用。
func (s *DB) SQL() *sqlx.DB { return s.db }

// migrate 执行建表语句，保持幂等。
func (s *DB) migrate() error {
	id := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	if s.driver == "postgres" {
		id = "id BIGSERIAL PRIMARY KEY"
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS apps (
            ` + id + `,
            name TEXT NOT NULL,
            version TEXT NOT NULL DEFAULT '',
            ranking INTEGER NOT NULL,
            url TEXT NOT NULL,
            date TEXT NOT NULL,
            timestamp TEXT NOT NULL,
            created_at TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_apps_name_date ON apps(name, date)`,
		`CREATE TABLE IF NOT EXISTS errors (
            ` + id + `,
            name TEXT NOT NULL,
            url TEXT NOT NULL,
            error_message TEXT NOT NULL,
            timestamp TEXT NOT NULL,
            created_at TEXT NOT NULL
        )`,
	}
	for _, q := range stmts {
		if _, err := s.db.Exec(q); err != nil {
			return fmt.Errorf("exec migrate: %w", err)
		}
	}
	return nil
}

// withTx 在单个事务中执行 fn；fn 出错或提交失败时整体回滚。
func (s *DB) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// ImportResult 为一次导入的写入统计。
type ImportResult struct {
	AppsInserted   int
	AppsReplaced   int
	ErrorsInserted int
}

// Import 在一个事务内写入整份快照：
// apps 按 (name, date) 先删后插，实现同日覆盖；errors 仅追加。
func (s *DB) Import(ctx context.Context, apps []model.AppRow, errs []model.ErrorRow) (ImportResult, error) {
	var res ImportResult
	del := s.db.Rebind(`DELETE FROM apps WHERE name = ? AND date = ?`)
	insApp := s.db.Rebind(`INSERT INTO apps (name, version, ranking, url, date, timestamp, created_at)
        VALUES (?, ?, ?, ?, ?, ?, ?)`)
	insErr := s.db.Rebind(`INSERT INTO errors (name, url, error_message, timestamp, created_at)
        VALUES (?, ?, ?, ?, ?)`)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		for _, a := range apps {
			r, err := tx.ExecContext(ctx, del, a.Name, a.Date)
			if err != nil {
				return fmt.Errorf("delete app %s@%s: %w", a.Name, a.Date, err)
			}
			if n, err := r.RowsAffected(); err == nil {
				res.AppsReplaced += int(n)
			}
			if _, err := tx.ExecContext(ctx, insApp, a.Name, a.Version, a.Ranking, a.URL, a.Date, a.Timestamp, a.CreatedAt); err != nil {
				return fmt.Errorf("insert app %s: %w", a.Name, err)
			}
			res.AppsInserted++
		}
		for _, e := range errs {
			if _, err := tx.ExecContext(ctx, insErr, e.Name, e.URL, e.ErrorMessage, e.Timestamp, e.CreatedAt); err != nil {
				return fmt.Errorf("insert error %s: %w", e.Name, err)
			}
			res.ErrorsInserted++
		}
		return nil
	})
	if err != nil {
		return ImportResult{}, err
	}
	return res, nil
}

// ListApps 返回应用行：日期倒序、排名升序；date 非空时仅返回该日。
func (s *DB) ListApps(ctx context.Context, date string, limit int) ([]model.AppRow, error) {
	q := `SELECT id, name, version, ranking, url, date, timestamp, created_at FROM apps`
	var args []any
	if date != "" {
		q += ` WHERE date = ?`
		args = append(args, date)
	}
	q += ` ORDER BY date DESC, ranking ASC, name ASC`
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var out []model.AppRow
	if err := s.db.SelectContext(ctx, &out, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query apps: %w", err)
	}
	return out, nil
}

// ListErrors 返回最近的错误记录（按时间戳倒序）；date 非空时仅返回该日（UTC+8）的记录。
// 时间戳可能带任意偏移，日期过滤在换算后进行。
func (s *DB) ListErrors(ctx context.Context, date string, limit int) ([]model.ErrorRow, error) {
	q := `SELECT id, name, url, error_message, timestamp, created_at FROM errors ORDER BY timestamp DESC, id DESC`
	var args []any
	if limit > 0 && date == "" {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	var rows []model.ErrorRow
	if err := s.db.SelectContext(ctx, &rows, s.db.Rebind(q), args...); err != nil {
		return nil, fmt.Errorf("query errors: %w", err)
	}
	if date == "" {
		return rows, nil
	}
	out := rows[:0]
	for _, r := range rows {
		if d, err := model.DateOf(r.Timestamp); err != nil || d != date {
			continue
		}
		out = append(out, r)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Stats 统计汇总：应用行数/错误行数/日期数。
func (s *DB) Stats(ctx context.Context) (model.Stats, error) {
	var st model.Stats
	err := s.db.GetContext(ctx, &st, `SELECT
        (SELECT COUNT(1) FROM apps) AS apps_total,
        (SELECT COUNT(1) FROM errors) AS errors_total,
        (SELECT COUNT(DISTINCT date) FROM apps) AS dates`)
	if err != nil {
		return st, fmt.Errorf("stats: %w", err)
	}
	return st, nil
}

// sqliteDir 返回 SQLite 文件所在目录；内存库或当前目录返回空。
func sqliteDir(dsn string) string {
	p := strings.TrimPrefix(dsn, "file:")
	if i := strings.IndexByte(p, '?'); i >= 0 {
		p = p[:i]
	}
	if p == "" || p == ":memory:" || strings.HasPrefix(p, ":") {
		return ""
	}
	dir := filepath.Dir(p)
	if dir == "." {
		return ""
	}
	return dir
}
