package export

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/use-agent/reviewharvest/models"
)

var fixedNow = time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)

func newTestExporter(dir, site string) *CSVExporter {
	e := NewCSV(dir, site)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestFileName(t *testing.T) {
	assert.Equal(t, "2024-03-09_14-05-07-coupang-reviews.csv", FileName("coupang", fixedNow))
}

func TestExportRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "output")
	reviews := []models.Review{
		{Author: "kim", Score: "5", Content: "fast delivery", CreatedAt: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)},
		{Author: "lee", Score: "3", Content: "so-so", CreatedAt: time.Date(2024, 1, 3, 9, 30, 0, 0, time.UTC)},
		{Author: "park", Score: "1", Content: "broken", CreatedAt: time.Date(2023, 12, 31, 23, 59, 59, 0, time.UTC)},
	}

	path, err := newTestExporter(dir, "naver").Export(reviews)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "2024-03-09_14-05-07-naver-reviews.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	got := strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
	want := []string{
		"author,score,content,createdAt",
		"kim,5,fast delivery,2024-01-02 00:00:00",
		"lee,3,so-so,2024-01-03 09:30:00",
		"park,1,broken,2023-12-31 23:59:59",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("file mismatch (-want +got):\n%s", diff)
	}
}

func TestExportDoesNotQuote(t *testing.T) {
	r := models.Review{Author: "a", Score: "4", Content: `said "ok", then left`, CreatedAt: fixedNow}

	assert.Equal(t, `a,4,said "ok", then left,2024-03-09 14:05:07`, FormatLine(r))
}

func TestExportEmptyCollectionWritesHeader(t *testing.T) {
	path, err := newTestExporter(t.TempDir(), "coupang").Export(nil)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, Header+"\n", string(data))
}

func TestExportExistingDirectory(t *testing.T) {
	dir := t.TempDir()
	e := newTestExporter(dir, "coupang")

	_, err := e.Export(nil)
	require.NoError(t, err)
	_, err = e.Export([]models.Review{{Author: "x", CreatedAt: fixedNow}})
	require.NoError(t, err, "existing directory must not fail")
}

func TestExportDirectoryIsAFile(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "output")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	_, err := newTestExporter(blocker, "coupang").Export(nil)

	var herr *models.HarvestError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, models.ErrCodeExport, herr.Code)
}

func TestExportSameSecondKeepsBothRuns(t *testing.T) {
	dir := t.TempDir()
	first := NewCSV(dir, "coupang")
	first.now = func() time.Time { return fixedNow }
	second := NewCSV(dir, "coupang")
	second.now = func() time.Time { return fixedNow.Add(300 * time.Millisecond) }

	pathA, err := first.Export([]models.Review{{Author: "runA", Score: "5", Content: "x", CreatedAt: fixedNow}})
	require.NoError(t, err)
	pathB, err := second.Export([]models.Review{{Author: "runB", Score: "4", Content: "y", CreatedAt: fixedNow}})
	require.NoError(t, err)

	require.NotEqual(t, pathA, pathB)
	assert.Equal(t, filepath.Join(dir, "2024-03-09_14-05-07-coupang-reviews.csv"), pathA)
	assert.Equal(t, filepath.Join(dir, "2024-03-09_14-05-07-coupang-2-reviews.csv"), pathB)

	a, err := os.ReadFile(pathA)
	require.NoError(t, err)
	assert.Equal(t, Header+"\nrunA,5,x,2024-03-09 14:05:07\n", string(a))

	b, err := os.ReadFile(pathB)
	require.NoError(t, err)
	assert.Equal(t, Header+"\nrunB,4,y,2024-03-09 14:05:07\n", string(b))
}

func TestExportAllNamesTaken(t *testing.T) {
	dir := t.TempDir()
	base := FileName("coupang", fixedNow)
	require.NoError(t, os.WriteFile(filepath.Join(dir, base), []byte("keep\n"), 0o644))
	for n := 2; n <= maxNameAttempts; n++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, numbered(base, n)), []byte("keep\n"), 0o644))
	}

	_, err := newTestExporter(dir, "coupang").Export(nil)

	var herr *models.HarvestError
	require.True(t, errors.As(err, &herr))
	assert.Equal(t, models.ErrCodeExport, herr.Code)
	assert.ErrorIs(t, err, os.ErrExist)

	data, err := os.ReadFile(filepath.Join(dir, base))
	require.NoError(t, err)
	assert.Equal(t, "keep\n", string(data), "existing export must not be truncated")
}
