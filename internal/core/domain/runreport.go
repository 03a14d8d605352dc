package domain

import "time"

// UnmappedReason groups excluded records by cause in the run report.
type UnmappedReason string

const (
	ReasonUnknownCurrency UnmappedReason = "unknown currency"
	ReasonUnknownAccount  UnmappedReason = "unknown account"
	ReasonNoRate          UnmappedReason = "no rate available"
)

// UnmappedRecord is one observation excluded from the committed snapshot,
// kept visible so partial failures can be diagnosed from logs alone.
type UnmappedRecord struct {
	AccountName string
	Identity    string
	Reason      UnmappedReason
}

// RunReport is the structured end-of-run summary of one ingestion run.
// Every run produces one, in addition to the process exit code.
type RunReport struct {
	Sources    string
	StartedAt  time.Time
	FinishedAt time.Time

	// SourceFailures maps collector name to the error that emptied its
	// contribution for this run. These are warnings, not run failures.
	SourceFailures map[string]string

	Observed        int
	Normalized      int
	Unmapped        []UnmappedRecord
	Unvaluable      []UnmappedRecord
	ZeroSynthesized int
	Inserted        int
}

// Excluded returns the total number of records left out of the snapshot.
func (r RunReport) Excluded() int {
	return len(r.Unmapped) + len(r.Unvaluable)
}

// CountByReason groups the excluded records for the summary log line.
func (r RunReport) CountByReason() map[UnmappedReason]int {
	counts := make(map[UnmappedReason]int)
	for _, u := range r.Unmapped {
		counts[u.Reason]++
	}
	for _, u := range r.Unvaluable {
		counts[u.Reason]++
	}
	return counts
}
