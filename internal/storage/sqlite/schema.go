package sqlite

// reportColumns is the column set the store's queries reference. The schema
// contract check diffs this list against the live table, so a column added to
// a query below must be added here and to schemaSQL in the same change.
var reportColumns = []string{
	"id",
	"symbol",
	"report_date",
	"status",
	"report_text",
	"report_structured",
	"chart_blob",
	"pdf_key",
	"pdf_generated_at",
	"generation_time_ms",
	"error_message",
	"computed_at",
	"expires_at",
}

const schemaSQL = `
-- Report records: one row per (symbol, report_date).
-- Rows are created or updated only via upsert on the unique pair;
-- the pipeline never deletes them. expires_at is consumed by an
-- external retention process.
CREATE TABLE IF NOT EXISTS report_records (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol TEXT NOT NULL,
	report_date TEXT NOT NULL,
	status TEXT NOT NULL DEFAULT 'pending',
	report_text TEXT,
	report_structured TEXT,
	chart_blob BLOB,
	pdf_key TEXT,
	pdf_generated_at TIMESTAMP,
	generation_time_ms INTEGER NOT NULL DEFAULT 0,
	error_message TEXT,
	computed_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL,
	UNIQUE(symbol, report_date)
);

CREATE INDEX IF NOT EXISTS idx_report_records_date_status
	ON report_records(report_date, status);
`
