package models

import "time"

// Unknown is the sentinel written for metadata fields the model could not determine.
const Unknown = "Unknown"

// Metadata is the normalized bibliographic guess for a single PDF
type Metadata struct {
	Title  string `json:"title"`
	Author string `json:"author"`
	Year   string `json:"year"`
}

// ExtractionRecord is the persisted outcome of processing one source file
type ExtractionRecord struct {
	SourceFilename string    `json:"source_filename"`
	Title          string    `json:"title,omitempty"`
	Author         string    `json:"author,omitempty"`
	Year           string    `json:"year,omitempty"`
	OutputFilename string    `json:"output_filename,omitempty"`
	Copied         bool      `json:"copied,omitempty"`
	Error          string    `json:"error,omitempty"`
	ErrorKind      ErrorKind `json:"error_kind,omitempty"`
	Provider       string    `json:"provider,omitempty"`
	Model          string    `json:"model,omitempty"`
	Pages          int       `json:"pages,omitempty"`
	RunID          string    `json:"run_id,omitempty"`
	Timestamp      string    `json:"timestamp"`
}

// Failed reports whether the record describes a failed attempt
func (r ExtractionRecord) Failed() bool {
	return r.Error != ""
}

// Metadata returns the extracted fields of a successful record
func (r ExtractionRecord) Metadata() Metadata {
	return Metadata{Title: r.Title, Author: r.Author, Year: r.Year}
}

// Stamp sets the record timestamp in RFC 3339 form
func (r *ExtractionRecord) Stamp(t time.Time) {
	r.Timestamp = t.UTC().Format(time.RFC3339)
}

// Summary aggregates the outcome of a batch run
type Summary struct {
	RunID     string             `json:"run_id"`
	Processed int                `json:"processed"`
	Skipped   int                `json:"skipped"`
	Failed    int                `json:"failed"`
	Copied    int                `json:"copied"`
	Records   []ExtractionRecord `json:"records,omitempty"`
}

// Total returns the number of candidate files the run saw
func (s Summary) Total() int {
	return s.Processed + s.Skipped + s.Failed
}
