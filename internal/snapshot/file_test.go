package snapshot_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-app-ranking/internal/model"
	"go-app-ranking/internal/snapshot"
)

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	for _, n := range []string{
		"app_store_ranking_20250101_090000.json",
		"app_store_ranking_20250102_080000.json",
		"app_store_ranking_20241231_235959.json",
		"notes.json",
		"zzz.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, n), []byte("{}"), 0o644))
	}
	got, err := snapshot.Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "app_store_ranking_20250102_080000.json"), got)
}

func TestLatest_NotFound(t *testing.T) {
	var nf *snapshot.NotFoundError

	_, err := snapshot.Latest(t.TempDir())
	assert.True(t, errors.As(err, &nf))

	_, err = snapshot.Latest(filepath.Join(t.TempDir(), "missing"))
	assert.True(t, errors.As(err, &nf))

	_, err = snapshot.Read(filepath.Join(t.TempDir(), "missing.json"))
	assert.True(t, errors.As(err, &nf))
}

func TestDecode_DerivesMissingDateAndAcceptsMissingErrors(t *testing.T) {
	snap, err := snapshot.Decode("mem", []byte(`{"timestamp":"2025-05-01T23:10:00+08:00",
		"apps":[{"name":"A","rank":3,"url":"u","timestamp":"2025-05-01T15:10:00Z"}]}`))
	require.NoError(t, err)
	require.Len(t, snap.Apps, 1)
	assert.Equal(t, "2025-05-01", snap.Apps[0].Date)
	assert.Equal(t, "", snap.Apps[0].Version)
	assert.Empty(t, snap.Errors)
}

func TestDecode_FormatErrors(t *testing.T) {
	cases := map[string]string{
		"malformed":     `{"apps": [`,
		"no apps":       `{"timestamp":"2025-01-01T00:00:00+08:00","errors":[]}`,
		"no name":       `{"apps":[{"rank":1,"url":"u","timestamp":"2025-01-01T00:00:00+08:00"}]}`,
		"no rank":       `{"apps":[{"name":"A","url":"u","timestamp":"2025-01-01T00:00:00+08:00"}]}`,
		"zero rank":     `{"apps":[{"name":"A","rank":0,"url":"u","timestamp":"2025-01-01T00:00:00+08:00"}]}`,
		"bad timestamp": `{"apps":[{"name":"A","rank":1,"url":"u","timestamp":"yesterday"}]}`,
		"date mismatch": `{"apps":[{"name":"A","rank":1,"url":"u","timestamp":"2025-01-01T00:00:00+08:00","date":"2024-12-31"}]}`,
		"dup rank": `{"apps":[{"name":"A","rank":1,"url":"u","timestamp":"2025-01-01T00:00:00+08:00"},
			{"name":"B","rank":1,"url":"v","timestamp":"2025-01-01T00:00:00+08:00"}]}`,
		"dup name same date": `{"apps":[{"name":"A","rank":1,"url":"u","timestamp":"2025-01-01T00:00:00+08:00"},
			{"name":"A","rank":2,"url":"v","timestamp":"2025-01-01T00:00:05+08:00"}]}`,
		"error no message": `{"apps":[],"errors":[{"name":"A","url":"u","timestamp":"2025-01-01T00:00:00+08:00"}]}`,
	}
	for name, body := range cases {
		_, err := snapshot.Decode(name, []byte(body))
		var fe *snapshot.FormatError
		assert.True(t, errors.As(err, &fe), "%s: got %v", name, err)
	}
}

func TestWrite_RoundTripPreservesFields(t *testing.T) {
	in := &model.Snapshot{
		Timestamp: "2025-06-01T10:00:00+08:00",
		Apps: []model.AppRecord{
			{Name: "幣安 Binance", Version: "2.90.1", Rank: 4, URL: "https://apps.apple.com/tw/app/id1436799971", Timestamp: "2025-06-01T09:59:58+08:00", Date: "2025-06-01"},
			{Name: "MAX & <Co>", Version: "", Rank: 9, URL: "https://apps.apple.com/tw/app/id1370837255", Timestamp: "2025-06-01T09:59:59+08:00", Date: "2025-06-01"},
		},
		Errors: []model.ErrorRecord{
			{Name: "OKX", URL: "https://apps.apple.com/tw/app/id1327268470", ErrorMessage: "timeout", Timestamp: "2025-06-01T10:00:00+08:00"},
		},
	}
	dir := t.TempDir()
	path, err := snapshot.Write(dir, in)
	require.NoError(t, err)
	assert.Equal(t, "app_store_ranking_20250601_100000.json", filepath.Base(path))

	out, err := snapshot.Read(path)
	require.NoError(t, err)
	assert.Equal(t, in, out)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file must not remain")
}

func TestWrite_SameSecondKeepsEarlierSnapshot(t *testing.T) {
	dir := t.TempDir()
	first := &model.Snapshot{Timestamp: "2025-03-04T09:02:03+08:00",
		Apps: []model.AppRecord{{Name: "First", Rank: 1, URL: "u", Timestamp: "2025-03-04T09:02:03+08:00", Date: "2025-03-04"}}}
	second := &model.Snapshot{Timestamp: "2025-03-04T09:02:03+08:00",
		Apps: []model.AppRecord{{Name: "Second", Rank: 1, URL: "u", Timestamp: "2025-03-04T09:02:03+08:00", Date: "2025-03-04"}}}

	p1, err := snapshot.Write(dir, first)
	require.NoError(t, err)
	p2, err := snapshot.Write(dir, second)
	require.NoError(t, err)
	assert.NotEqual(t, p1, p2)
	assert.Equal(t, "app_store_ranking_20250304_090203.json", filepath.Base(p1))
	assert.Equal(t, "app_store_ranking_20250304_090203_01.json", filepath.Base(p2))

	got, err := snapshot.Read(p1)
	require.NoError(t, err)
	assert.Equal(t, "First", got.Apps[0].Name)
	got, err = snapshot.Read(p2)
	require.NoError(t, err)
	assert.Equal(t, "Second", got.Apps[0].Name)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "both snapshots kept, no temp files left")

	latest, err := snapshot.Latest(dir)
	require.NoError(t, err)
	assert.Equal(t, p2, latest)
}

func TestDecode_SameNameOnDifferentDatesAccepted(t *testing.T) {
	snap, err := snapshot.Decode("mem", []byte(`{"apps":[
		{"name":"A","rank":1,"url":"u","timestamp":"2025-01-01T23:59:59+08:00"},
		{"name":"A","rank":2,"url":"u","timestamp":"2025-01-02T00:00:01+08:00"}]}`))
	require.NoError(t, err)
	assert.Len(t, snap.Apps, 2)
}
