// Package store persists import records, their issue logs, and the per-user
// reading and to-read collections.
package store

import "time"

// ImportStatus is the lifecycle state of an import record.
type ImportStatus string

const (
	StatusQueued              ImportStatus = "queued"
	StatusProcessing          ImportStatus = "processing"
	StatusCompleted           ImportStatus = "completed"
	StatusCompletedWithErrors ImportStatus = "completed_with_errors"
	StatusFailed              ImportStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s ImportStatus) Terminal() bool {
	switch s {
	case StatusCompleted, StatusCompletedWithErrors, StatusFailed:
		return true
	}
	return false
}

// ImportRecord is one durable record per user-submitted CSV. The raw payload
// is persisted verbatim so a retry import can be created from the record alone.
type ImportRecord struct {
	ID            string
	UserID        string
	Filename      string
	RawCSV        string
	OptionsJSON   string
	Status        ImportStatus
	TotalRows     int
	ProcessedRows int
	ImportedRows  int
	FailedRows    int
	WarningRows   int
	SummaryJSON   string
	StartedAt     *time.Time
	FinishedAt    *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IssueSeverity classifies an import issue.
type IssueSeverity string

const (
	SeverityWarning IssueSeverity = "warning"
	SeverityError   IssueSeverity = "error"
)

// ImportIssue is one append-only audit log entry for an import row.
// Row numbers are 1-based with the header counted, so the first data row is 2.
type ImportIssue struct {
	ID            string
	ImportID      string
	RowNumber     int
	Title         string
	Author        string
	Severity      IssueSeverity
	Code          string
	Message       string
	InferenceRule string
	RawRowJSON    string
	CreatedAt     time.Time
}

// Judgment is the user's post-reading verdict. Absence means unjudged.
type Judgment string

const (
	JudgmentAccepted Judgment = "accepted"
	JudgmentRejected Judgment = "rejected"
)

// ReadingEntry is a book the user has started; a finish date marks it complete.
// Unique per (user, book key).
type ReadingEntry struct {
	ID         string
	UserID     string
	BookKey    string
	StartedAt  *time.Time
	FinishedAt *time.Time
	Judgment   *Judgment
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// ToReadEntry is a book the user plans to read. Unique per (user, book key).
type ToReadEntry struct {
	ID        string
	UserID    string
	BookKey   string
	CreatedAt time.Time
}
