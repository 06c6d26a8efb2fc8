package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/interfaces"
	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

// ReportStore implements the ReportStore interface for SQLite
type ReportStore struct {
	db     *SQLiteDB
	logger arbor.ILogger
}

// Compile-time assertion
var _ interfaces.ReportStore = (*ReportStore)(nil)

// NewReportStore creates a new ReportStore instance
func NewReportStore(db *SQLiteDB, logger arbor.ILogger) *ReportStore {
	return &ReportStore{
		db:     db,
		logger: logger,
	}
}

// UpsertReport inserts a new row or updates the existing row on the
// (symbol, report_date) unique-key conflict, setting all content fields.
// The returned affected-row count must be checked by the caller; zero rows
// after a write is a data-integrity failure, not a soft outcome.
func (s *ReportStore) UpsertReport(ctx context.Context, rec *models.ReportRecord) (int64, error) {
	if rec.Symbol == "" || rec.ReportDate == "" {
		return 0, fmt.Errorf("upsert requires symbol and report_date (got %q, %q)", rec.Symbol, rec.ReportDate)
	}

	query := `
	INSERT INTO report_records (
		symbol, report_date, status, report_text, report_structured,
		chart_blob, pdf_key, pdf_generated_at, generation_time_ms,
		error_message, computed_at, expires_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(symbol, report_date) DO UPDATE SET
		status = excluded.status,
		report_text = excluded.report_text,
		report_structured = excluded.report_structured,
		chart_blob = excluded.chart_blob,
		generation_time_ms = excluded.generation_time_ms,
		error_message = excluded.error_message,
		computed_at = excluded.computed_at,
		expires_at = excluded.expires_at,
		pdf_key = COALESCE(excluded.pdf_key, report_records.pdf_key),
		pdf_generated_at = COALESCE(excluded.pdf_generated_at, report_records.pdf_generated_at)`

	result, err := s.db.DB().ExecContext(ctx, query,
		rec.Symbol, rec.ReportDate, string(rec.Status),
		nullString(rec.ReportText), nullString(rec.ReportStructured),
		rec.ChartBlob, nullString(rec.PDFKey), rec.PDFGeneratedAt,
		rec.GenerationTimeMs, nullString(rec.ErrorMessage),
		rec.ComputedAt, rec.ExpiresAt)
	if err != nil {
		return 0, fmt.Errorf("failed to upsert report for %s/%s: %w", rec.Symbol, rec.ReportDate, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for %s/%s: %w", rec.Symbol, rec.ReportDate, err)
	}

	s.logger.Debug().
		Str("symbol", rec.Symbol).
		Str("report_date", rec.ReportDate).
		Str("status", string(rec.Status)).
		Int64("rows_affected", rows).
		Msg("Upserted report record")

	return rows, nil
}

// GetReport fetches the full record by surrogate id.
func (s *ReportStore) GetReport(ctx context.Context, id int64) (*models.ReportRecord, error) {
	query := `
	SELECT id, symbol, report_date, status, report_text, report_structured,
		chart_blob, pdf_key, pdf_generated_at, generation_time_ms,
		error_message, computed_at, expires_at
	FROM report_records WHERE id = ?`

	return s.scanOne(s.db.DB().QueryRowContext(ctx, query, id))
}

// GetReportBySymbolDate fetches the record for a (symbol, date) pair.
func (s *ReportStore) GetReportBySymbolDate(ctx context.Context, symbol, reportDate string) (*models.ReportRecord, error) {
	query := `
	SELECT id, symbol, report_date, status, report_text, report_structured,
		chart_blob, pdf_key, pdf_generated_at, generation_time_ms,
		error_message, computed_at, expires_at
	FROM report_records WHERE symbol = ? AND report_date = ?`

	return s.scanOne(s.db.DB().QueryRowContext(ctx, query, symbol, reportDate))
}

// GetReportsNeedingPDF scans for completed records without a PDF key for the
// given date. The predicate makes the PDF stage idempotent by construction:
// re-running over the same date only returns the remaining gap.
func (s *ReportStore) GetReportsNeedingPDF(ctx context.Context, reportDate string) ([]models.ReportRef, error) {
	if reportDate == "" {
		return nil, fmt.Errorf("report date is required for the needs-PDF scan")
	}

	query := `
	SELECT id, symbol, report_date FROM report_records
	WHERE report_date = ? AND status = ? AND pdf_key IS NULL
	ORDER BY symbol`

	rows, err := s.db.DB().QueryContext(ctx, query, reportDate, string(models.ReportStatusCompleted))
	if err != nil {
		return nil, fmt.Errorf("failed to scan reports needing PDFs: %w", err)
	}
	defer rows.Close()

	var refs []models.ReportRef
	for rows.Next() {
		var ref models.ReportRef
		if err := rows.Scan(&ref.ID, &ref.Symbol, &ref.ReportDate); err != nil {
			return nil, fmt.Errorf("failed to scan report ref: %w", err)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate report refs: %w", err)
	}

	return refs, nil
}

// UpdatePDFMetadata records the uploaded object key and generation time.
// Only records that still lack a PDF are updated, so a duplicate delivery of
// the same work is a zero-row no-op the caller can detect.
func (s *ReportStore) UpdatePDFMetadata(ctx context.Context, id int64, pdfKey string, generatedAt time.Time) (int64, error) {
	if pdfKey == "" {
		return 0, fmt.Errorf("pdf key is required for metadata update")
	}

	query := `
	UPDATE report_records
	SET pdf_key = ?, pdf_generated_at = ?
	WHERE id = ? AND pdf_key IS NULL`

	result, err := s.db.DB().ExecContext(ctx, query, pdfKey, generatedAt, id)
	if err != nil {
		return 0, fmt.Errorf("failed to update pdf metadata for record %d: %w", id, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read affected rows for record %d: %w", id, err)
	}

	s.logger.Debug().
		Int64("record_id", id).
		Str("pdf_key", pdfKey).
		Int64("rows_affected", rows).
		Msg("Updated PDF metadata")

	return rows, nil
}

// VerifySchemaContract diffs the column set referenced by store code against
// the live table. A column the code writes but the schema lacks would
// otherwise be dropped silently, which is indistinguishable from success
// without this check. Run as a blocking gate at startup.
func (s *ReportStore) VerifySchemaContract(ctx context.Context) error {
	rows, err := s.db.DB().QueryContext(ctx, `PRAGMA table_info(report_records)`)
	if err != nil {
		return fmt.Errorf("failed to read live schema: %w", err)
	}
	defer rows.Close()

	live := make(map[string]bool)
	for rows.Next() {
		var (
			cid        int
			name       string
			colType    string
			notNull    int
			defaultVal sql.NullString
			pk         int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &defaultVal, &pk); err != nil {
			return fmt.Errorf("failed to scan schema row: %w", err)
		}
		live[name] = true
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate schema rows: %w", err)
	}

	if len(live) == 0 {
		return fmt.Errorf("schema contract violated: table report_records does not exist")
	}

	var missing []string
	for _, col := range reportColumns {
		if !live[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("schema contract violated: columns %v referenced by code are missing from report_records", missing)
	}

	s.logger.Debug().
		Int("declared_columns", len(reportColumns)).
		Int("live_columns", len(live)).
		Msg("Schema contract verified")

	return nil
}

// Close releases the underlying database handle.
func (s *ReportStore) Close() error {
	return s.db.Close()
}

func (s *ReportStore) scanOne(row *sql.Row) (*models.ReportRecord, error) {
	var (
		rec          models.ReportRecord
		status       string
		reportText   sql.NullString
		structured   sql.NullString
		pdfKey       sql.NullString
		pdfGenAt     sql.NullTime
		errorMessage sql.NullString
	)

	err := row.Scan(&rec.ID, &rec.Symbol, &rec.ReportDate, &status,
		&reportText, &structured, &rec.ChartBlob, &pdfKey, &pdfGenAt,
		&rec.GenerationTimeMs, &errorMessage, &rec.ComputedAt, &rec.ExpiresAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("report record not found")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan report record: %w", err)
	}

	rec.Status = models.ReportStatus(status)
	rec.ReportText = reportText.String
	rec.ReportStructured = structured.String
	rec.PDFKey = pdfKey.String
	if pdfGenAt.Valid {
		t := pdfGenAt.Time
		rec.PDFGeneratedAt = &t
	}
	rec.ErrorMessage = errorMessage.String

	return &rec, nil
}

// nullString maps an empty string to SQL NULL so nullable-unless-set
// invariants (completed => report_text non-null) hold at the column level.
func nullString(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
