package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
	"github.com/use-agent/reviewharvest/export"
	"github.com/use-agent/reviewharvest/harvest"
	"github.com/use-agent/reviewharvest/models"
	"github.com/use-agent/reviewharvest/sites"
	"github.com/use-agent/reviewharvest/webhook"
)

const previewContentWidth = 48

type runSummary struct {
	match    *sites.Match
	maxCount int
	result   *harvest.Result
	outDir   string
	export   bool
	preview  int
}

// finish exports the collection, notifies the webhook and prints a report.
// It runs even for interrupted runs so partial work is kept.
func finish(cmd *cobra.Command, s runSummary) error {
	res := s.result
	site := s.match.Profile.Name

	var path string
	if s.export {
		p, err := export.NewCSV(s.outDir, site).Export(res.Reviews)
		if err != nil {
			return err
		}
		path = p
	}

	notify(webhook.EventHarvestCompleted, res.RunID, webhook.Summary{
		Site:       site,
		ProductID:  s.match.ProductID,
		URL:        s.match.URL,
		Count:      len(res.Reviews),
		MaxCount:   s.maxCount,
		OutputPath: path,
		Stats:      res.Stats(),
	})

	out := cmd.OutOrStdout()
	if s.preview > 0 && len(res.Reviews) > 0 {
		renderPreview(out, res.Reviews, s.preview)
	}

	status := "complete"
	switch {
	case res.Interrupted:
		status = "interrupted"
	case res.Exhausted:
		status = "source exhausted"
	}
	fmt.Fprintf(out, "%d/%d reviews from %s (%s, %d passes, %d skipped)\n",
		len(res.Reviews), s.maxCount, site, status, res.Passes, res.Skipped)
	if path != "" {
		fmt.Fprintf(out, "saved to %s\n", path)
	}
	return nil
}

func renderPreview(w io.Writer, reviews []models.Review, n int) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Author", "Score", "Date", "Content"})
	for i, r := range reviews {
		if i == n {
			break
		}
		t.AppendRow(table.Row{i + 1, r.Author, r.Score, r.CreatedAt.Format("2006-01-02"), truncate(r.Content, previewContentWidth)})
	}
	if len(reviews) > n {
		t.AppendFooter(table.Row{"", "", "", "", fmt.Sprintf("… %d more", len(reviews)-n)})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

// truncate shortens s to at most width runes on a single line.
func truncate(s string, width int) string {
	s = strings.Join(strings.Fields(s), " ")
	if utf8.RuneCountInString(s) <= width {
		return s
	}
	r := []rune(s)
	return string(r[:width-1]) + "…"
}

// notify sends a webhook event synchronously; the CLI exits right after.
func notify(eventType, runID string, summary webhook.Summary) {
	if cfg.Webhook.URL == "" {
		return
	}
	client := webhook.NewClient(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout)
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Webhook.Timeout)
	defer cancel()
	if err := client.Deliver(ctx, webhook.NewEvent(eventType, runID, summary)); err != nil {
		slog.Warn("webhook delivery failed", "event", eventType, "error", err)
		fmt.Fprintln(os.Stderr, "webhook:", err)
	}
}
