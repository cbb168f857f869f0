package export

import (
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// WriteParquet writes the records as a single row group
func WriteParquet(w io.Writer, records []models.ExtractionRecord) error {
	writer := parquet.NewGenericWriter[Row](w)
	if _, err := writer.Write(rows(records)); err != nil {
		writer.Close()
		return fmt.Errorf("parquet write: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("parquet close: %w", err)
	}
	return nil
}
