package app

import (
	"context"
	"encoding/csv"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	chart "github.com/wcharczuk/go-chart/v2"

	"creator-trends/internal/storage"
)

// Export renders the top stored keywords as CSV and/or a PNG bar chart.
func (a *App) Export(ctx context.Context, opts ExportOptions) error {
	if opts.CSVPath == "" && opts.PNGPath == "" {
		return errors.New("at least one of --csv or --png must be provided")
	}

	opts.MaxKeywords = a.Config.ResolveMaxKeywords(opts.MaxKeywords)

	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return err
	}
	defer closeStore()

	records, err := store.ListTopKeywords(ctx, opts.MaxKeywords)
	if err != nil {
		return err
	}
	if len(records) == 0 {
		a.Logger.Info().Msg("no keywords found to export")
		return nil
	}

	a.Logger.Info().Int("exported", len(records)).Msg("exporting keywords")

	if opts.CSVPath != "" {
		if err := writeKeywordsCSV(opts.CSVPath, records); err != nil {
			return err
		}
	}

	if opts.PNGPath != "" {
		if err := writeKeywordsPNG(opts.PNGPath, records); err != nil {
			return err
		}
	}

	return nil
}

func writeKeywordsCSV(path string, records []storage.KeywordRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)

	header := []string{"keyword", "category", "search_volume", "trend", "related_keywords", "articles", "source", "last_updated"}
	if err := writer.Write(header); err != nil {
		return err
	}

	for _, rec := range records {
		record := []string{
			rec.Keyword,
			rec.Category,
			strconv.FormatInt(rec.SearchVolume, 10),
			string(rec.Trend),
			strings.Join(rec.RelatedKeywords, "|"),
			strconv.Itoa(rec.Articles),
			rec.Source,
			rec.LastUpdated.UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}

	writer.Flush()
	return writer.Error()
}

// maxChartBars keeps bar labels legible.
const maxChartBars = 20

func writeKeywordsPNG(path string, records []storage.KeywordRecord) error {
	if err := ensureDir(path); err != nil {
		return err
	}

	if len(records) > maxChartBars {
		records = records[:maxChartBars]
	}

	bars := make([]chart.Value, 0, len(records))
	var peak int64
	for _, rec := range records {
		peak = max(peak, rec.SearchVolume)
		bars = append(bars, chart.Value{
			Label: rec.Keyword,
			Value: float64(rec.SearchVolume),
		})
	}
	// go-chart rejects a zero-height value range
	if peak == 0 {
		return errors.New("all exported keywords have zero search volume; nothing to chart")
	}

	graph := chart.BarChart{
		Title:    "Keyword search volume",
		Width:    1280,
		Height:   720,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				return chart.FloatValueFormatterWithFormat(v, "%.0f")
			},
		},
		Bars: bars,
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	return graph.Render(chart.PNG, file)
}

func ensureDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}
