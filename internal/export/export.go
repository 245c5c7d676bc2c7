// Package export writes catalog snapshots as Parquet files for offline
// analytics and backup.
package export

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/parquet-go/parquet-go"

	"github.com/aurora-audio/feedsmith/internal/models"
)

// CatalogRow is the flattened Parquet schema for one episode.
type CatalogRow struct {
	ID              string `parquet:"id"`
	Title           string `parquet:"title"`
	Category        string `parquet:"category"`
	Format          string `parquet:"format"`
	DurationSeconds int    `parquet:"duration_seconds"`
	Summary         string `parquet:"summary"`
	AudioPath       string `parquet:"audio_path"`
	ThumbnailPath   string `parquet:"thumbnail_path"`
	PubDate         int64  `parquet:"pub_date_unix"`
	CreatedAt       int64  `parquet:"created_at_unix"`
	UpdatedAt       int64  `parquet:"updated_at_unix"`
	Publishable     bool   `parquet:"publishable"`
	SubmittedToFeed bool   `parquet:"submitted_to_feed"`
}

// WriteSnapshot writes all records to a Parquet file at path.
func WriteSnapshot(path string, records []models.EpisodeRecord) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	defer file.Close()

	writer := parquet.NewGenericWriter[CatalogRow](file)

	rows := make([]CatalogRow, 0, len(records))
	for _, rec := range records {
		rows = append(rows, CatalogRow{
			ID:              rec.ID,
			Title:           rec.Title,
			Category:        string(rec.Category),
			Format:          string(rec.Format),
			DurationSeconds: rec.DurationSeconds,
			Summary:         rec.Summary,
			AudioPath:       rec.AudioPath,
			ThumbnailPath:   rec.ThumbnailPath,
			PubDate:         unixOrZero(rec.PubDate),
			CreatedAt:       unixOrZero(rec.CreatedAt),
			UpdatedAt:       unixOrZero(rec.UpdatedAt),
			Publishable:     rec.Publishable,
			SubmittedToFeed: rec.SubmittedToFeed,
		})
	}

	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}

	slog.Info("Catalog snapshot written", "path", path, "rows", len(rows))
	return nil
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
