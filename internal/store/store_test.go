package store_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-app-ranking/internal/model"
	"go-app-ranking/internal/store"
)

func openTemp(t *testing.T) *store.DB {
	t.Helper()
	s, err := store.OpenSQLite(filepath.Join(t.TempDir(), "db", "t.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func app(name string, rank int, date string) model.AppRow {
	return model.AppRow{
		Name:      name,
		Version:   "1.0",
		Ranking:   rank,
		URL:       "https://x/" + name,
		Date:      date,
		Timestamp: date + "T09:00:00+08:00",
		CreatedAt: date + "T10:00:00+08:00",
	}
}

func countApps(t *testing.T, s *store.DB, name, date string) int {
	t.Helper()
	var n int
	require.NoError(t, s.SQL().Get(&n, `SELECT COUNT(1) FROM apps WHERE name = ? AND date = ?`, name, date))
	return n
}

func TestImport_IdempotentPerNameDate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	apps := []model.AppRow{app("A", 12, "2025-01-02"), app("B", 3, "2025-01-02")}
	errs := []model.ErrorRow{{Name: "C", URL: "https://x/C", ErrorMessage: "timeout", Timestamp: "2025-01-02T09:00:00+08:00", CreatedAt: "2025-01-02T10:00:00+08:00"}}

	res, err := s.Import(ctx, apps, errs)
	require.NoError(t, err)
	assert.Equal(t, store.ImportResult{AppsInserted: 2, ErrorsInserted: 1}, res)

	res, err = s.Import(ctx, apps, errs)
	require.NoError(t, err)
	assert.Equal(t, 2, res.AppsReplaced)

	assert.Equal(t, 1, countApps(t, s, "A", "2025-01-02"))
	assert.Equal(t, 1, countApps(t, s, "B", "2025-01-02"))
	st, err := s.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, model.Stats{AppsTotal: 2, ErrorsTotal: 2, Dates: 1}, st, "errors are append-only")
}

func TestImport_SameDateOverwritesOtherDatesKept(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Import(ctx, []model.AppRow{app("App A", 12, "2025-01-02")}, nil)
	require.NoError(t, err)
	_, err = s.Import(ctx, []model.AppRow{app("App A", 9, "2025-01-02")}, nil)
	require.NoError(t, err)
	_, err = s.Import(ctx, []model.AppRow{app("App A", 15, "2025-01-03")}, nil)
	require.NoError(t, err)

	rows, err := s.ListApps(ctx, "2025-01-02", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 9, rows[0].Ranking)

	all, err := s.ListApps(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "2025-01-03", all[0].Date, "newest date first")
}

func TestImport_FailureRollsBackWholeSnapshot(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Import(ctx, []model.AppRow{app("A", 12, "2025-01-02")}, nil)
	require.NoError(t, err)

	_, err = s.SQL().Exec(`DROP TABLE errors`)
	require.NoError(t, err)
	_, err = s.Import(ctx,
		[]model.AppRow{app("A", 1, "2025-01-02"), app("B", 2, "2025-01-02")},
		[]model.ErrorRow{{Name: "C", URL: "u", ErrorMessage: "x", Timestamp: "t", CreatedAt: "t"}})
	require.Error(t, err)

	rows, err := s.ListApps(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, 12, rows[0].Ranking)
}

func TestListAppsOrderAndLimit(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Import(ctx, []model.AppRow{app("C", 30, "2025-01-01"), app("A", 4, "2025-01-01"), app("B", 7, "2025-01-01")}, nil)
	require.NoError(t, err)

	rows, err := s.ListApps(ctx, "", 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "A", rows[0].Name)
	assert.Equal(t, "B", rows[1].Name)
	assert.NotZero(t, rows[0].ID)
	assert.Equal(t, "1.0", rows[0].Version)
}

func TestListErrorsNewestFirst(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Import(ctx, nil, []model.ErrorRow{
		{Name: "old", URL: "u", ErrorMessage: "x", Timestamp: "2025-01-01T00:00:00+08:00", CreatedAt: "c"},
		{Name: "new", URL: "u", ErrorMessage: "y", Timestamp: "2025-01-05T00:00:00+08:00", CreatedAt: "c"},
	})
	require.NoError(t, err)
	rows, err := s.ListErrors(ctx, "", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "new", rows[0].Name)
}

func TestOpen_UnsupportedType(t *testing.T) {
	_, err := store.Open("mysql", "x")
	assert.Error(t, err)
}

func TestOpen_MigrateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "again.db")
	s, err := store.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
	s, err = store.Open("sqlite", path)
	require.NoError(t, err)
	require.NoError(t, s.Close())
}

func TestListErrorsByDate(t *testing.T) {
	s := openTemp(t)
	ctx := context.Background()
	_, err := s.Import(ctx, nil, []model.ErrorRow{
		{Name: "d1", URL: "u", ErrorMessage: "x", Timestamp: "2025-01-01T08:00:00+08:00", CreatedAt: "c"},
		// 16:30Z 为 UTC+8 次日 00:30
		{Name: "d2-utc", URL: "u", ErrorMessage: "x", Timestamp: "2025-01-01T16:30:00Z", CreatedAt: "c"},
		{Name: "d2-a", URL: "u", ErrorMessage: "x", Timestamp: "2025-01-02T09:00:00+08:00", CreatedAt: "c"},
		{Name: "d2-b", URL: "u", ErrorMessage: "x", Timestamp: "2025-01-02T10:00:00+08:00", CreatedAt: "c"},
	})
	require.NoError(t, err)

	rows, err := s.ListErrors(ctx, "2025-01-02", 0)
	require.NoError(t, err)
	var names []string
	for _, r := range rows {
		names = append(names, r.Name)
	}
	assert.ElementsMatch(t, []string{"d2-utc", "d2-a", "d2-b"}, names)

	rows, err = s.ListErrors(ctx, "2025-01-02", 1)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "d2-b", rows[0].Name)

	rows, err = s.ListErrors(ctx, "2025-01-03", 0)
	require.NoError(t, err)
	assert.Empty(t, rows)
}
