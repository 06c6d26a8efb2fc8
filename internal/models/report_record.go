package models

import (
	"time"
)

// ReportStatus is the lifecycle state of a report record.
type ReportStatus string

const (
	ReportStatusPending   ReportStatus = "pending"
	ReportStatusCompleted ReportStatus = "completed"
	ReportStatusFailed    ReportStatus = "failed"
)

// ReportRecord is one row per (symbol, report date). Uniqueness on that pair
// is the core invariant: rows are created or updated only via upsert, never
// deleted by the pipeline. expires_at is consumed by an external retention
// process.
type ReportRecord struct {
	ID               int64        `json:"id"`
	Symbol           string       `json:"symbol"`
	ReportDate       string       `json:"report_date"` // YYYY-MM-DD in the business timezone
	Status           ReportStatus `json:"status"`
	ReportText       string       `json:"report_text,omitempty"`       // Markdown; non-empty iff status=completed
	ReportStructured string       `json:"report_structured,omitempty"` // Opaque JSON payload, superset of ReportText
	ChartBlob        []byte       `json:"-"`                           // PNG chart image
	PDFKey           string       `json:"pdf_key,omitempty"`           // Object-store key; set by the PDF stage
	PDFGeneratedAt   *time.Time   `json:"pdf_generated_at,omitempty"`  // Non-nil iff PDFKey is set
	GenerationTimeMs int64        `json:"generation_time_ms"`
	ErrorMessage     string       `json:"error_message,omitempty"`
	ComputedAt       time.Time    `json:"computed_at"`
	ExpiresAt        time.Time    `json:"expires_at"`
}

// ReportRef is a lightweight reference returned by "needs work" scans.
type ReportRef struct {
	ID         int64  `json:"id"`
	Symbol     string `json:"symbol"`
	ReportDate string `json:"report_date"`
}
