package common

import (
	"fmt"
	"regexp"
	"time"
)

// ReportDateLayout is the canonical calendar-date format used for report_date
// columns, object keys and workflow inputs.
const ReportDateLayout = "2006-01-02"

var reportDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ReportDateIn converts an instant to a calendar date in the given business
// timezone. Event envelopes carry UTC timestamps; the conversion to a business
// date happens here, explicitly, at the consumer, never at the event bus.
func ReportDateIn(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(ReportDateLayout)
}

// ValidateReportDate checks that a report date string is a well-formed
// calendar date. An empty value is an error: callers must never substitute
// "today" for a missing date.
func ValidateReportDate(date string) error {
	if date == "" {
		return fmt.Errorf("report date is required")
	}
	if !reportDatePattern.MatchString(date) {
		return fmt.Errorf("report date %q is not in YYYY-MM-DD format", date)
	}
	if _, err := time.Parse(ReportDateLayout, date); err != nil {
		return fmt.Errorf("report date %q is not a valid calendar date: %w", date, err)
	}
	return nil
}
