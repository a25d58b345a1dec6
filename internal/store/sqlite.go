package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface for local SQLite storage
type SQLiteStore struct {
	db     *sql.DB
	dbPath string
}

// Compile-time check that SQLiteStore implements Store.
var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore creates a new SQLiteStore instance
func NewSQLiteStore(dbPath string) *SQLiteStore {
	return &SQLiteStore{
		dbPath: dbPath,
	}
}

// Connect opens a connection to the SQLite database and initializes tables.
func (s *SQLiteStore) Connect() error {
	db, err := sql.Open("sqlite", s.dbPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		return fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	for _, schema := range AllSchemas {
		if _, err := db.Exec(schema); err != nil {
			return fmt.Errorf("failed to create table: %w", err)
		}
	}
	s.db = db
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// CreateImport persists a new import record.
func (s *SQLiteStore) CreateImport(rec *ImportRecord) error {
	now := time.Now().UTC()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO imports (
			id, user_id, filename, raw_csv, options_json, status,
			total_rows, processed_rows, imported_rows, failed_rows, warning_rows,
			summary_json, started_at, finished_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Filename, rec.RawCSV, rec.OptionsJSON, string(rec.Status),
		rec.TotalRows, rec.ProcessedRows, rec.ImportedRows, rec.FailedRows, rec.WarningRows,
		rec.SummaryJSON, nullTime(rec.StartedAt), nullTime(rec.FinishedAt), rec.CreatedAt, rec.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert import: %w", err)
	}
	return nil
}

// GetImport loads an import record owned by userID. Returns nil when absent.
func (s *SQLiteStore) GetImport(id, userID string) (*ImportRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, filename, raw_csv, options_json, status,
			total_rows, processed_rows, imported_rows, failed_rows, warning_rows,
			summary_json, started_at, finished_at, created_at, updated_at
		FROM imports
		WHERE id = ? AND user_id = ?`, id, userID)
	rec, err := scanImport(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query import: %w", err)
	}
	return rec, nil
}

// UpdateImport persists status, counters, summary and timestamps for an
// existing record.
func (s *SQLiteStore) UpdateImport(rec *ImportRecord) error {
	rec.UpdatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		UPDATE imports SET
			status = ?, total_rows = ?, processed_rows = ?, imported_rows = ?,
			failed_rows = ?, warning_rows = ?, summary_json = ?,
			started_at = ?, finished_at = ?, updated_at = ?
		WHERE id = ?`,
		string(rec.Status), rec.TotalRows, rec.ProcessedRows, rec.ImportedRows,
		rec.FailedRows, rec.WarningRows, rec.SummaryJSON,
		nullTime(rec.StartedAt), nullTime(rec.FinishedAt), rec.UpdatedAt,
		rec.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update import: %w", err)
	}
	return nil
}

// ListImports returns the user's most recent imports, newest first.
func (s *SQLiteStore) ListImports(userID string, limit int) ([]ImportRecord, error) {
	rows, err := s.db.Query(`
		SELECT id, user_id, filename, raw_csv, options_json, status,
			total_rows, processed_rows, imported_rows, failed_rows, warning_rows,
			summary_json, started_at, finished_at, created_at, updated_at
		FROM imports
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []ImportRecord
	for rows.Next() {
		rec, err := scanImport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan import: %w", err)
		}
		records = append(records, *rec)
	}
	return records, rows.Err()
}

// AppendIssue writes one issue log entry.
func (s *SQLiteStore) AppendIssue(issue *ImportIssue) error {
	issue.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO import_issues (
			id, import_id, row_number, title, author, severity,
			code, message, inference_rule, raw_row_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		issue.ID, issue.ImportID, issue.RowNumber, issue.Title, issue.Author,
		string(issue.Severity), issue.Code, issue.Message, issue.InferenceRule,
		issue.RawRowJSON, issue.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert issue: %w", err)
	}
	return nil
}

// ListIssues returns up to limit issues for an import, most recent row first.
func (s *SQLiteStore) ListIssues(importID string, limit int) ([]ImportIssue, error) {
	rows, err := s.db.Query(`
		SELECT id, import_id, row_number, title, author, severity,
			code, message, inference_rule, raw_row_json, created_at
		FROM import_issues
		WHERE import_id = ?
		ORDER BY row_number DESC, created_at DESC
		LIMIT ?`, importID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var issues []ImportIssue
	for rows.Next() {
		var issue ImportIssue
		var severity string
		if err := rows.Scan(
			&issue.ID, &issue.ImportID, &issue.RowNumber, &issue.Title, &issue.Author,
			&severity, &issue.Code, &issue.Message, &issue.InferenceRule,
			&issue.RawRowJSON, &issue.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan issue: %w", err)
		}
		issue.Severity = IssueSeverity(severity)
		issues = append(issues, issue)
	}
	return issues, rows.Err()
}

// GetReadingEntry loads the reading record for (user, book key). Nil when absent.
func (s *SQLiteStore) GetReadingEntry(userID, bookKey string) (*ReadingEntry, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, book_key, started_at, finished_at, judgment, created_at, updated_at
		FROM reading_entries
		WHERE user_id = ? AND book_key = ?`, userID, bookKey)

	var entry ReadingEntry
	var started, finished sql.NullTime
	var judgment sql.NullString
	err := row.Scan(&entry.ID, &entry.UserID, &entry.BookKey, &started, &finished, &judgment, &entry.CreatedAt, &entry.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query reading entry: %w", err)
	}
	entry.StartedAt = timePtr(started)
	entry.FinishedAt = timePtr(finished)
	if judgment.Valid {
		j := Judgment(judgment.String)
		entry.Judgment = &j
	}
	return &entry, nil
}

// InsertReadingEntry persists a new reading record.
func (s *SQLiteStore) InsertReadingEntry(entry *ReadingEntry) error {
	now := time.Now().UTC()
	entry.CreatedAt = now
	entry.UpdatedAt = now

	_, err := s.db.Exec(`
		INSERT INTO reading_entries (id, user_id, book_key, started_at, finished_at, judgment, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.BookKey,
		nullTime(entry.StartedAt), nullTime(entry.FinishedAt), nullJudgment(entry.Judgment),
		entry.CreatedAt, entry.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert reading entry: %w", err)
	}
	return nil
}

// UpdateReadingEntry persists dates and judgment for an existing reading record.
func (s *SQLiteStore) UpdateReadingEntry(entry *ReadingEntry) error {
	entry.UpdatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		UPDATE reading_entries SET started_at = ?, finished_at = ?, judgment = ?, updated_at = ?
		WHERE id = ?`,
		nullTime(entry.StartedAt), nullTime(entry.FinishedAt), nullJudgment(entry.Judgment),
		entry.UpdatedAt, entry.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update reading entry: %w", err)
	}
	return nil
}

// GetToReadEntry loads the planned record for (user, book key). Nil when absent.
func (s *SQLiteStore) GetToReadEntry(userID, bookKey string) (*ToReadEntry, error) {
	row := s.db.QueryRow(`
		SELECT id, user_id, book_key, created_at
		FROM to_read_entries
		WHERE user_id = ? AND book_key = ?`, userID, bookKey)

	var entry ToReadEntry
	err := row.Scan(&entry.ID, &entry.UserID, &entry.BookKey, &entry.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query to-read entry: %w", err)
	}
	return &entry, nil
}

// InsertToReadEntry persists a planned record. Inserting a (user, book key)
// pair that already exists is a no-op, not an error.
func (s *SQLiteStore) InsertToReadEntry(entry *ToReadEntry) error {
	entry.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT OR IGNORE INTO to_read_entries (id, user_id, book_key, created_at)
		VALUES (?, ?, ?, ?)`,
		entry.ID, entry.UserID, entry.BookKey, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert to-read entry: %w", err)
	}
	return nil
}

// DeleteToReadEntry removes the planned record for (user, book key), if any.
func (s *SQLiteStore) DeleteToReadEntry(userID, bookKey string) error {
	_, err := s.db.Exec(`DELETE FROM to_read_entries WHERE user_id = ? AND book_key = ?`, userID, bookKey)
	if err != nil {
		return fmt.Errorf("failed to delete to-read entry: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImport(row rowScanner) (*ImportRecord, error) {
	var rec ImportRecord
	var status string
	var started, finished sql.NullTime
	if err := row.Scan(
		&rec.ID, &rec.UserID, &rec.Filename, &rec.RawCSV, &rec.OptionsJSON, &status,
		&rec.TotalRows, &rec.ProcessedRows, &rec.ImportedRows, &rec.FailedRows, &rec.WarningRows,
		&rec.SummaryJSON, &started, &finished, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return nil, err
	}
	rec.Status = ImportStatus(status)
	rec.StartedAt = timePtr(started)
	rec.FinishedAt = timePtr(finished)
	return &rec, nil
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func timePtr(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

func nullJudgment(j *Judgment) sql.NullString {
	if j == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(*j), Valid: true}
}
