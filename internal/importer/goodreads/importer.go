package goodreads

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/readstack/readstack/internal/hardcover"
	"github.com/readstack/readstack/internal/store"
)

// Issue codes recorded on the import audit trail.
const (
	IssueBookNotFound        = "BOOK_NOT_FOUND"
	IssueRateLimited         = "HARDCOVER_RATE_LIMITED"
	IssueUnavailable         = "HARDCOVER_UNAVAILABLE"
	IssueMetadataUnavailable = "HARDCOVER_METADATA_UNAVAILABLE"
	IssueReadingExists       = "READING_RECORD_ALREADY_EXISTS"
	IssueRuntimeError        = "IMPORT_RUNTIME_ERROR"
)

const (
	unknownTitle  = "Unknown title"
	unknownAuthor = "Unknown author"

	maxIssuesReturned  = 200
	maxImportsReturned = 20
)

// Catalog is the slice of the catalog resolver the import pipeline needs.
type Catalog interface {
	ResolveByISBN(ctx context.Context, isbn string) hardcover.LookupOutcome
	SearchByTitleAuthor(ctx context.Context, title, author string) hardcover.LookupOutcome
	GetDetail(ctx context.Context, bookKey string, opts hardcover.DetailOptions) (*hardcover.BookDetail, error)
	SeedMetadata(meta hardcover.BookMeta) error
}

// Service drives the end-to-end import pipeline.
type Service struct {
	store   store.Store
	catalog Catalog
	now     func() time.Time
}

// NewService creates the import pipeline over the given store and catalog.
func NewService(st store.Store, catalog Catalog) *Service {
	return &Service{
		store:   st,
		catalog: catalog,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// ImportSummary is the running counter snapshot serialized onto the import
// record after every row, so a status poller sees monotone progress.
type ImportSummary struct {
	TotalRows     int `json:"totalRows"`
	ProcessedRows int `json:"processedRows"`
	ImportedRows  int `json:"importedRows"`
	FailedRows    int `json:"failedRows"`
	WarningRows   int `json:"warningRows"`
}

// ImportDetail is an import record with its most recent issues.
type ImportDetail struct {
	Record *store.ImportRecord
	Issues []store.ImportIssue
}

// CreateQueuedImport validates the options and CSV headers, then persists a
// queued import record carrying the verbatim payload. Validation failures
// happen before any persistence.
func (s *Service) CreateQueuedImport(ctx context.Context, userID, filename, csvPayload string, opts Options) (*store.ImportRecord, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	rows, err := ParseCSV(csvPayload)
	if err != nil {
		return nil, err
	}

	optionsJSON, err := json.Marshal(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to serialize import options: %w", err)
	}

	rec := &store.ImportRecord{
		ID:          uuid.NewString(),
		UserID:      userID,
		Filename:    filename,
		RawCSV:      csvPayload,
		OptionsJSON: string(optionsJSON),
		Status:      store.StatusQueued,
		TotalRows:   len(rows),
	}
	if err := s.store.CreateImport(rec); err != nil {
		return nil, err
	}

	slog.Info("Queued import", "import_id", rec.ID, "user_id", userID, "rows", rec.TotalRows)
	return rec, nil
}

// GetImport returns an import record with up to its 200 most recent issues
// by row number descending, or nil when no such record exists for the user.
func (s *Service) GetImport(ctx context.Context, importID, userID string) (*ImportDetail, error) {
	rec, err := s.store.GetImport(importID, userID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	issues, err := s.store.ListIssues(importID, maxIssuesReturned)
	if err != nil {
		return nil, err
	}
	return &ImportDetail{Record: rec, Issues: issues}, nil
}

// ListImports returns the user's 20 most recent imports, newest first.
func (s *Service) ListImports(ctx context.Context, userID string) ([]store.ImportRecord, error) {
	return s.store.ListImports(userID, maxImportsReturned)
}

// ProcessImport runs the pipeline for one import record to completion.
// Re-invoking it on an already-terminal record is a no-op. Row-level
// failures are recorded and skipped; anything else aborts the import, marks
// the record failed, and is returned to the caller for alerting.
func (s *Service) ProcessImport(ctx context.Context, importID, userID string) error {
	rec, err := s.store.GetImport(importID, userID)
	if err != nil {
		return err
	}
	if rec == nil {
		return fmt.Errorf("import %s not found", importID)
	}
	if rec.Status.Terminal() {
		slog.Info("Import already finished, nothing to do", "import_id", importID, "status", rec.Status)
		return nil
	}

	// Preserve the original start time if a crashed run already set one.
	if rec.StartedAt == nil {
		started := s.now()
		rec.StartedAt = &started
	}
	rec.Status = store.StatusProcessing
	if err := s.store.UpdateImport(rec); err != nil {
		return err
	}

	if err := s.runRows(ctx, rec); err != nil {
		s.recordCrash(rec, err)
		return err
	}

	rec.Status = store.StatusCompleted
	if rec.FailedRows > 0 || rec.WarningRows > 0 {
		rec.Status = store.StatusCompletedWithErrors
	}
	finished := s.now()
	rec.FinishedAt = &finished
	if err := s.persistProgress(rec); err != nil {
		return err
	}

	slog.Info("Import finished",
		"import_id", rec.ID,
		"status", rec.Status,
		"processed", rec.ProcessedRows,
		"imported", rec.ImportedRows,
		"failed", rec.FailedRows,
		"warnings", rec.WarningRows,
	)
	return nil
}

// runRows executes the sequential row loop. A returned error is fatal to
// the import; per-row reconciliation failures are absorbed as issues.
func (s *Service) runRows(ctx context.Context, rec *store.ImportRecord) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("import panicked: %v", r)
		}
	}()

	opts, err := DecodeOptions(rec.OptionsJSON)
	if err != nil {
		return err
	}
	rows, err := ParseCSV(rec.RawCSV)
	if err != nil {
		return err
	}
	rec.TotalRows = len(rows)

	for i, row := range rows {
		// Header row excluded: the first data row is row 2.
		rowNumber := i + 2
		if err := s.processRow(ctx, rec, opts, row, rowNumber); err != nil {
			return err
		}
		if err := s.persistProgress(rec); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) processRow(ctx context.Context, rec *store.ImportRecord, opts Options, row Row, rowNumber int) error {
	title := strings.TrimSpace(row[ColTitle])
	if title == "" {
		title = unknownTitle
	}
	author := strings.TrimSpace(row[ColAuthor])
	if author == "" {
		author = unknownAuthor
	}

	plan := PlanRow(row, opts, s.now())
	bookKey, outcomes := ResolveBookKey(ctx, attemptsFor(s.catalog, row))

	for _, warning := range plan.Warnings {
		if err := s.appendIssue(rec, rowNumber, title, author, store.SeverityWarning, warning.Code, warning.Message, warning.Rule, nil); err != nil {
			return err
		}
		rec.WarningRows++
	}

	if bookKey == "" {
		reason := OverallFailureReason(outcomes)
		code, message := issueForFailure(reason)
		if err := s.appendIssue(rec, rowNumber, title, author, store.SeverityError, code, message, "", row); err != nil {
			return err
		}
		rec.FailedRows++
		rec.ProcessedRows++
		slog.Debug("Row failed to resolve", "import_id", rec.ID, "row", rowNumber, "reason", reason)
		return nil
	}

	// Hydrate fresh catalog metadata for the resolved key. A failure here
	// degrades to seeding the metadata cache from the row itself so a later
	// detail view is never empty; it never aborts the row.
	if _, err := s.catalog.GetDetail(ctx, bookKey, hardcover.DetailOptions{
		AllowRemoteFetch: true,
		ForceRemoteFetch: true,
	}); err != nil {
		if seedErr := s.catalog.SeedMetadata(hardcover.BookMeta{
			BookKey: bookKey,
			Title:   title,
			Authors: []string{author},
		}); seedErr != nil {
			slog.Warn("Metadata fallback seed failed", "book_key", bookKey, "error", seedErr)
		}
		if err := s.appendIssue(rec, rowNumber, title, author, store.SeverityWarning,
			IssueMetadataUnavailable, "Catalog metadata could not be refreshed; using imported title/author", "", nil); err != nil {
			return err
		}
		rec.WarningRows++
	}

	switch plan.Target {
	case TargetReading:
		if err := s.mergeReading(rec, plan, bookKey); err != nil {
			return err
		}
	case TargetPlanned:
		if err := s.mergePlanned(rec, rowNumber, title, author, bookKey); err != nil {
			return err
		}
	}

	rec.ImportedRows++
	rec.ProcessedRows++
	return nil
}

// mergeReading merges a reading-target row. Existing non-null finish dates
// and judgments win over the plan's inferred values, protecting prior
// manual edits. Reading always supersedes planned for the same book.
func (s *Service) mergeReading(rec *store.ImportRecord, plan RowPlan, bookKey string) error {
	existing, err := s.store.GetReadingEntry(rec.UserID, bookKey)
	if err != nil {
		return err
	}

	if existing != nil {
		changed := false
		if existing.FinishedAt == nil && plan.FinishedAt != nil {
			existing.FinishedAt = plan.FinishedAt
			changed = true
		}
		if existing.Judgment == nil && plan.Judgment != nil {
			existing.Judgment = plan.Judgment
			changed = true
		}
		if changed {
			if err := s.store.UpdateReadingEntry(existing); err != nil {
				return err
			}
		}
	} else {
		entry := &store.ReadingEntry{
			ID:         uuid.NewString(),
			UserID:     rec.UserID,
			BookKey:    bookKey,
			StartedAt:  plan.StartedAt,
			FinishedAt: plan.FinishedAt,
			Judgment:   plan.Judgment,
		}
		if err := s.store.InsertReadingEntry(entry); err != nil {
			return err
		}
	}

	return s.store.DeleteToReadEntry(rec.UserID, bookKey)
}

// mergePlanned merges a planned-target row. An existing reading record is
// never demoted; the conflict is logged and the row still counts as
// imported.
func (s *Service) mergePlanned(rec *store.ImportRecord, rowNumber int, title, author, bookKey string) error {
	existing, err := s.store.GetReadingEntry(rec.UserID, bookKey)
	if err != nil {
		return err
	}
	if existing != nil {
		if err := s.appendIssue(rec, rowNumber, title, author, store.SeverityWarning,
			IssueReadingExists, "Book already has a reading record; not demoting to planned", "", nil); err != nil {
			return err
		}
		rec.WarningRows++
		return nil
	}

	return s.store.InsertToReadEntry(&store.ToReadEntry{
		ID:      uuid.NewString(),
		UserID:  rec.UserID,
		BookKey: bookKey,
	})
}

func (s *Service) appendIssue(rec *store.ImportRecord, rowNumber int, title, author string, severity store.IssueSeverity, code, message, rule string, rawRow Row) error {
	issue := &store.ImportIssue{
		ID:            uuid.NewString(),
		ImportID:      rec.ID,
		RowNumber:     rowNumber,
		Title:         title,
		Author:        author,
		Severity:      severity,
		Code:          code,
		Message:       message,
		InferenceRule: rule,
	}
	if rawRow != nil {
		if snapshot, err := json.Marshal(rawRow); err == nil {
			issue.RawRowJSON = string(snapshot)
		}
	}
	return s.store.AppendIssue(issue)
}

func (s *Service) persistProgress(rec *store.ImportRecord) error {
	summary, err := json.Marshal(ImportSummary{
		TotalRows:     rec.TotalRows,
		ProcessedRows: rec.ProcessedRows,
		ImportedRows:  rec.ImportedRows,
		FailedRows:    rec.FailedRows,
		WarningRows:   rec.WarningRows,
	})
	if err != nil {
		return fmt.Errorf("failed to serialize import summary: %w", err)
	}
	rec.SummaryJSON = string(summary)
	return s.store.UpdateImport(rec)
}

// recordCrash marks the import failed after a process-fatal error. The row
// in flight is counted as failed and a synthetic issue carries the error
// message. Best-effort: the original error is what the caller sees.
func (s *Service) recordCrash(rec *store.ImportRecord, cause error) {
	slog.Error("Import failed", "import_id", rec.ID, "error", cause)

	rec.Status = store.StatusFailed
	rec.FailedRows++
	finished := s.now()
	rec.FinishedAt = &finished

	if err := s.appendIssue(rec, 1, unknownTitle, unknownAuthor, store.SeverityError,
		IssueRuntimeError, cause.Error(), "", nil); err != nil {
		slog.Error("Failed to record crash issue", "import_id", rec.ID, "error", err)
	}
	if err := s.persistProgress(rec); err != nil {
		slog.Error("Failed to persist crash state", "import_id", rec.ID, "error", err)
	}
}

func issueForFailure(reason hardcover.FailureReason) (code, message string) {
	switch reason {
	case hardcover.ReasonRateLimited:
		return IssueRateLimited, "Catalog is rate limiting requests; try the import again later"
	case hardcover.ReasonUpstream:
		return IssueUnavailable, "Catalog is unavailable; try the import again later"
	default:
		return IssueBookNotFound, "No catalog entry matched this book"
	}
}
