package domain

import "time"

// ReportFormat is the rendering format of a report.
type ReportFormat string

const (
	FormatHTML ReportFormat = "html"
	FormatCSV  ReportFormat = "csv"
	FormatXLSX ReportFormat = "xlsx"
	FormatPDF  ReportFormat = "pdf"
)

// Valid reports whether f is a supported format.
func (f ReportFormat) Valid() bool {
	switch f {
	case FormatHTML, FormatCSV, FormatXLSX, FormatPDF:
		return true
	}
	return false
}

// ContentType returns the MIME type for the format.
func (f ReportFormat) ContentType() string {
	switch f {
	case FormatHTML:
		return "text/html; charset=utf-8"
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPDF:
		return "application/pdf"
	}
	return "application/octet-stream"
}

// Extension returns the file extension without the dot.
func (f ReportFormat) Extension() string {
	return string(f)
}

// ReportStatus tracks report generation.
type ReportStatus string

const (
	ReportReady  ReportStatus = "ready"
	ReportFailed ReportStatus = "failed"
)

// Report is a rendered, stored performance report.
type Report struct {
	ID          string       `json:"id" db:"id"`
	WorkspaceID string       `json:"workspace_id" db:"workspace_id"`
	Name        string       `json:"name" db:"name"`
	Format      ReportFormat `json:"format" db:"format"`
	From        time.Time    `json:"from" db:"date_from"`
	To          time.Time    `json:"to" db:"date_to"`
	Status      ReportStatus `json:"status" db:"status"`
	StorageKey  string       `json:"-" db:"storage_key"`
	SizeBytes   int64        `json:"size_bytes" db:"size_bytes"`
	CreatedBy   string       `json:"created_by" db:"created_by"`
	CreatedAt   time.Time    `json:"created_at" db:"created_at"`
}

// Filename returns the download filename for the report.
func (r *Report) Filename() string {
	return "adlens-" + r.From.Format("20060102") + "-" + r.To.Format("20060102") + "." + r.Format.Extension()
}
