package interfaces

import (
	"context"
	"time"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// ReportStore is the relational system of record for report records. It is
// the sole coordination point between stateless workers: all mutating
// operations return an affected-row count, and callers are contractually
// required to treat zero as a data-integrity failure, never silence.
type ReportStore interface {
	// UpsertReport inserts a new row or updates the existing row on the
	// (symbol, report_date) unique-key conflict, setting all content fields.
	UpsertReport(ctx context.Context, rec *models.ReportRecord) (rowsAffected int64, err error)

	// GetReport fetches the full record by surrogate id.
	GetReport(ctx context.Context, id int64) (*models.ReportRecord, error)

	// GetReportBySymbolDate fetches the record for a (symbol, date) pair.
	GetReportBySymbolDate(ctx context.Context, symbol, reportDate string) (*models.ReportRecord, error)

	// GetReportsNeedingPDF scans for records with status=completed and no PDF
	// key for the given report date. The predicate makes the PDF stage
	// naturally idempotent: re-running only processes the remaining gap.
	GetReportsNeedingPDF(ctx context.Context, reportDate string) ([]models.ReportRef, error)

	// UpdatePDFMetadata records the uploaded object key and generation time.
	UpdatePDFMetadata(ctx context.Context, id int64, pdfKey string, generatedAt time.Time) (rowsAffected int64, err error)

	// VerifySchemaContract diffs the column set referenced by store code
	// against the live schema. It is a blocking startup gate: a mismatch here
	// fails before any code path that writes the missing column is trusted.
	VerifySchemaContract(ctx context.Context) error

	// Close releases the underlying database handle.
	Close() error
}
