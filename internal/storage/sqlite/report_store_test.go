package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/Awannaphasch2016/dr-daily-report-sub002/internal/models"
)

func newTestStore(t *testing.T) *ReportStore {
	t.Helper()

	db, err := NewSQLiteDB(testLogger(), filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewReportStore(db, testLogger())
}

func completedRecord(symbol, date, text string) *models.ReportRecord {
	now := time.Now().UTC()
	return &models.ReportRecord{
		Symbol:           symbol,
		ReportDate:       date,
		Status:           models.ReportStatusCompleted,
		ReportText:       text,
		ReportStructured: `{"summary":"` + text + `"}`,
		ChartBlob:        []byte{0x89, 0x50, 0x4e, 0x47},
		GenerationTimeMs: 1200,
		ComputedAt:       now,
		ExpiresAt:        now.AddDate(0, 0, 30),
	}
}

func TestUpsertReportIdempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Repeated upserts for the same (symbol, date) must converge on one row.
	for i := 0; i < 5; i++ {
		rows, err := store.UpsertReport(ctx, completedRecord("ASX:GNP", "2026-08-31", "Report body"))
		require.NoError(t, err)
		require.Equal(t, int64(1), rows)
	}

	var count int
	err := store.db.DB().QueryRow(
		`SELECT COUNT(*) FROM report_records WHERE symbol = ? AND report_date = ?`,
		"ASX:GNP", "2026-08-31").Scan(&count)
	require.NoError(t, err)
	require.Equal(t, 1, count)
}

func TestUpsertPreservesPDFFieldsOnContentUpdate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	rec := completedRecord("ASX:GNP", "2026-08-31", "v1")
	_, err := store.UpsertReport(ctx, rec)
	require.NoError(t, err)

	stored, err := store.GetReportBySymbolDate(ctx, "ASX:GNP", "2026-08-31")
	require.NoError(t, err)

	rows, err := store.UpdatePDFMetadata(ctx, stored.ID, "reports/ASX:GNP/2026-08-31/x.pdf", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	// A later content-only upsert must not clear delivery metadata.
	_, err = store.UpsertReport(ctx, completedRecord("ASX:GNP", "2026-08-31", "v2"))
	require.NoError(t, err)

	updated, err := store.GetReportBySymbolDate(ctx, "ASX:GNP", "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, "v2", updated.ReportText)
	require.Equal(t, "reports/ASX:GNP/2026-08-31/x.pdf", updated.PDFKey)
	require.NotNil(t, updated.PDFGeneratedAt)
}

func TestReportTextRoundTripNonASCII(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	text := "日次レポート: ราคาหุ้น ↑ 3.2% — résumé complet 📈"
	_, err := store.UpsertReport(ctx, completedRecord("ASX:GNP", "2026-08-31", text))
	require.NoError(t, err)

	stored, err := store.GetReportBySymbolDate(ctx, "ASX:GNP", "2026-08-31")
	require.NoError(t, err)
	require.Equal(t, []byte(text), []byte(stored.ReportText))
}

func TestGetReportsNeedingPDF(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	date := "2026-08-31"
	for _, symbol := range []string{"ASX:GNP", "ASX:BHP", "ASX:CBA"} {
		_, err := store.UpsertReport(ctx, completedRecord(symbol, date, "body"))
		require.NoError(t, err)
	}

	// A failed record and a record on another date must not match the scan.
	failed := completedRecord("ASX:XRO", date, "")
	failed.Status = models.ReportStatusFailed
	failed.ErrorMessage = "generation quota exhausted"
	_, err := store.UpsertReport(ctx, failed)
	require.NoError(t, err)

	_, err = store.UpsertReport(ctx, completedRecord("ASX:GNP", "2026-09-01", "body"))
	require.NoError(t, err)

	refs, err := store.GetReportsNeedingPDF(ctx, date)
	require.NoError(t, err)
	require.Len(t, refs, 3)

	// After updating one record, the scan returns only the remaining gap.
	rows, err := store.UpdatePDFMetadata(ctx, refs[0].ID, "reports/a.pdf", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	refs, err = store.GetReportsNeedingPDF(ctx, date)
	require.NoError(t, err)
	require.Len(t, refs, 2)
}

func TestUpdatePDFMetadataZeroRowsOnDuplicate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.UpsertReport(ctx, completedRecord("ASX:GNP", "2026-08-31", "body"))
	require.NoError(t, err)

	stored, err := store.GetReportBySymbolDate(ctx, "ASX:GNP", "2026-08-31")
	require.NoError(t, err)

	rows, err := store.UpdatePDFMetadata(ctx, stored.ID, "reports/a.pdf", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(1), rows)

	// Second delivery of the same work affects zero rows; the caller treats
	// that as a signal, not a silent success.
	rows, err = store.UpdatePDFMetadata(ctx, stored.ID, "reports/b.pdf", time.Now().UTC())
	require.NoError(t, err)
	require.Equal(t, int64(0), rows)

	unchanged, err := store.GetReport(ctx, stored.ID)
	require.NoError(t, err)
	require.Equal(t, "reports/a.pdf", unchanged.PDFKey)
}

func TestVerifySchemaContract(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.VerifySchemaContract(ctx))
}

func TestVerifySchemaContractDetectsMissingColumn(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	// Simulate code declaring a column the live schema does not have, as
	// happens when a write set grows without a matching migration.
	original := reportColumns
	reportColumns = append(append([]string{}, reportColumns...), "sentiment_score")
	defer func() { reportColumns = original }()

	err := store.VerifySchemaContract(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "sentiment_score")
}
