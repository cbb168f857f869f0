package storage

import (
	"encoding/json"

	"github.com/lehigh-university-libraries/pdf-renamer/internal/cataloging"
	"github.com/lehigh-university-libraries/pdf-renamer/internal/models"
)

// legacyRecord is one entry of the older array format. Those files stored the
// model's answer as returned, so author may be a list and year a number.
type legacyRecord struct {
	SourceFilename string           `json:"source_filename"`
	Title          string           `json:"title"`
	Author         json.RawMessage  `json:"author"`
	Year           json.RawMessage  `json:"year"`
	OutputFilename string           `json:"output_filename"`
	Copied         bool             `json:"copied"`
	Error          string           `json:"error"`
	ErrorKind      models.ErrorKind `json:"error_kind"`
	ParseError     string           `json:"parse_error"`
	CopyInfo       *legacyCopyInfo  `json:"copy_info"`
	Provider       string           `json:"provider"`
	Model          string           `json:"model"`
	Pages          int              `json:"pages"`
	RunID          string           `json:"run_id"`
	Timestamp      string           `json:"timestamp"`
}

type legacyCopyInfo struct {
	Copied         bool   `json:"copied"`
	OutputFilename string `json:"output_filename"`
	Error          string `json:"error"`
}

func (l legacyRecord) record() models.ExtractionRecord {
	rec := models.ExtractionRecord{
		SourceFilename: l.SourceFilename,
		OutputFilename: l.OutputFilename,
		Copied:         l.Copied,
		Error:          l.Error,
		ErrorKind:      l.ErrorKind,
		Provider:       l.Provider,
		Model:          l.Model,
		Pages:          l.Pages,
		RunID:          l.RunID,
		Timestamp:      l.Timestamp,
	}

	if l.CopyInfo != nil {
		if l.CopyInfo.Copied {
			rec.Copied = true
			if l.CopyInfo.OutputFilename != "" {
				rec.OutputFilename = l.CopyInfo.OutputFilename
			}
		} else if l.CopyInfo.Error != "" && rec.Error == "" {
			rec.Error = "copy: " + l.CopyInfo.Error
			rec.ErrorKind = models.KindFilesystem
		}
	}

	// Unparseable answers were saved with placeholder metadata and no error key.
	if l.ParseError != "" && rec.Error == "" {
		rec.Error = "parse response: " + l.ParseError
		rec.ErrorKind = models.KindInference
	}

	if rec.Failed() {
		rec.OutputFilename = ""
		rec.Copied = false
		return rec
	}

	md := cataloging.Normalize(cataloging.BookMetadata{
		Title:   l.Title,
		Authors: cataloging.DecodeAuthors(l.Author),
		Year:    cataloging.DecodeYear(l.Year),
	})
	rec.Title = md.Title
	rec.Author = md.Author
	rec.Year = md.Year
	return rec
}

func decodeLegacy(data []byte) ([]models.ExtractionRecord, error) {
	var list []legacyRecord
	if err := json.Unmarshal(data, &list); err != nil {
		return nil, err
	}
	records := make([]models.ExtractionRecord, 0, len(list))
	for _, l := range list {
		records = append(records, l.record())
	}
	return records, nil
}
