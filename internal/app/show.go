package app

import (
	"context"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"creator-trends/internal/storage"
)

// Show prints stored keywords: the top ones by volume, or recent ones when a window or category is given.
func (a *App) Show(ctx context.Context, out io.Writer, opts ShowOptions) error {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	var records []storage.KeywordRecord
	if opts.Since > 0 || opts.Category != "" {
		since := time.Time{}
		if opts.Since > 0 {
			since = time.Now().Add(-opts.Since)
		}
		records, err = store.ListRecentKeywords(ctx, storage.KeywordFilter{Category: opts.Category}, since, opts.Limit)
	} else {
		records, err = store.ListTopKeywords(ctx, opts.Limit)
	}
	if err != nil {
		return err
	}

	return writeKeywordTable(out, records)
}

func writeKeywordTable(out io.Writer, records []storage.KeywordRecord) error {
	if len(records) == 0 {
		_, err := fmt.Fprintln(out, "no keywords found")
		return err
	}

	writer := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "Keyword\tCategory\tVolume\tTrend\tRelated\tUpdated (UTC)")

	for _, rec := range records {
		fmt.Fprintf(
			writer,
			"%s\t%s\t%d\t%s\t%s\t%s\n",
			sanitizeInline(rec.Keyword),
			orDash(rec.Category),
			rec.SearchVolume,
			rec.Trend,
			sanitizeInline(strings.Join(rec.RelatedKeywords, ", ")),
			rec.LastUpdated.UTC().Format(time.RFC3339),
		)
	}

	return writer.Flush()
}

func sanitizeInline(v string) string {
	cleaned := strings.ReplaceAll(v, "\n", " ")
	cleaned = strings.ReplaceAll(cleaned, "\r", " ")
	cleaned = strings.ReplaceAll(cleaned, "\t", " ")
	return cleaned
}

func orDash(v string) string {
	if v == "" {
		return "-"
	}
	return v
}
