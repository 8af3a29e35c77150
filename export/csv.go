// Package export writes harvested reviews to disk.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/use-agent/reviewharvest/models"
)

const (
	// Header is the first line of every export file.
	Header = "author,score,content,createdAt"

	// CreatedAtLayout renders Review.CreatedAt in the createdAt column.
	CreatedAtLayout = "2006-01-02 15:04:05"

	fileStampLayout = "2006-01-02_15-04-05"
	fileSuffix      = "-reviews.csv"

	// maxNameAttempts bounds the numbered names tried when runs of the same
	// site finish within one second.
	maxNameAttempts = 100
)

// CSVExporter writes one file per run into Dir. Fields are joined with
// commas as-is; values are not quoted or escaped.
type CSVExporter struct {
	Dir  string
	Site string

	now func() time.Time
}

// NewCSV returns an exporter for site writing into dir.
func NewCSV(dir, site string) *CSVExporter {
	return &CSVExporter{Dir: dir, Site: site, now: time.Now}
}

// FileName is the export file name for a run of site started at t.
func FileName(site string, t time.Time) string {
	return fmt.Sprintf("%s-%s%s", t.Format(fileStampLayout), site, fileSuffix)
}

// numbered inserts "-n" before the suffix of a FileName result.
func numbered(name string, n int) string {
	return fmt.Sprintf("%s-%d%s", strings.TrimSuffix(name, fileSuffix), n, fileSuffix)
}

// FormatLine renders a review as one record, without the line terminator.
func FormatLine(r models.Review) string {
	return strings.Join([]string{
		r.Author,
		r.Score,
		r.Content,
		r.CreatedAt.Format(CreatedAtLayout),
	}, ",")
}

// Export creates Dir if needed, writes the header, then appends one line
// per review in order. It returns the path of the written file. An existing
// file is never reused: when the timestamped name is taken, "-2", "-3", ...
// is inserted before the suffix. A failure part-way leaves the partial file
// in place.
func (e *CSVExporter) Export(reviews []models.Review) (string, error) {
	if err := os.MkdirAll(e.Dir, 0o755); err != nil {
		return "", models.NewHarvestError(models.ErrCodeExport, "create output directory", err)
	}

	f, path, err := e.create()
	if err != nil {
		return path, models.NewHarvestError(models.ErrCodeExport, "create export file", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if _, err := w.WriteString(Header + "\n"); err != nil {
		return path, models.NewHarvestError(models.ErrCodeExport, "write header", err)
	}
	for _, r := range reviews {
		if _, err := w.WriteString(FormatLine(r) + "\n"); err != nil {
			return path, models.NewHarvestError(models.ErrCodeExport, "append review", err)
		}
	}
	if err := w.Flush(); err != nil {
		return path, models.NewHarvestError(models.ErrCodeExport, "flush export file", err)
	}
	if err := f.Close(); err != nil {
		return path, models.NewHarvestError(models.ErrCodeExport, "close export file", err)
	}
	return path, nil
}

// create opens a new file under Dir, failing rather than truncating when
// every candidate name already exists.
func (e *CSVExporter) create() (*os.File, string, error) {
	base := FileName(e.Site, e.now())
	for n := 1; n <= maxNameAttempts; n++ {
		name := base
		if n > 1 {
			name = numbered(base, n)
		}
		path := filepath.Join(e.Dir, name)
		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL|os.O_APPEND, 0o644)
		if err == nil {
			return f, path, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, path, err
		}
	}
	return nil, "", fmt.Errorf("%s: %d names taken: %w", base, maxNameAttempts, os.ErrExist)
}
