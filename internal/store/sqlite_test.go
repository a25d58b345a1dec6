package store

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s := NewSQLiteStore(filepath.Join(t.TempDir(), "store.db"))
	require.NoError(t, s.Connect())
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestImportRoundTrip(t *testing.T) {
	s := newTestStore(t)

	rec := &ImportRecord{
		ID:          uuid.NewString(),
		UserID:      "user-1",
		Filename:    "goodreads_library_export.csv",
		RawCSV:      "Title,Author\nDune,Frank Herbert\n",
		OptionsJSON: `{"mapRatings":true}`,
		Status:      StatusQueued,
		TotalRows:   1,
	}
	require.NoError(t, s.CreateImport(rec))

	loaded, err := s.GetImport(rec.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, rec.ID, loaded.ID)
	assert.Equal(t, StatusQueued, loaded.Status)
	assert.Equal(t, rec.RawCSV, loaded.RawCSV)
	assert.Equal(t, 1, loaded.TotalRows)
	assert.Nil(t, loaded.StartedAt)
	assert.Nil(t, loaded.FinishedAt)
}

func TestGetImportScopedToUser(t *testing.T) {
	s := newTestStore(t)

	rec := &ImportRecord{ID: uuid.NewString(), UserID: "user-1", Status: StatusQueued}
	require.NoError(t, s.CreateImport(rec))

	loaded, err := s.GetImport(rec.ID, "someone-else")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestGetImportMissing(t *testing.T) {
	s := newTestStore(t)

	loaded, err := s.GetImport(uuid.NewString(), "user-1")
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestUpdateImport(t *testing.T) {
	s := newTestStore(t)

	rec := &ImportRecord{ID: uuid.NewString(), UserID: "user-1", Status: StatusQueued, TotalRows: 3}
	require.NoError(t, s.CreateImport(rec))

	started := time.Now().UTC()
	finished := started.Add(time.Second)
	rec.Status = StatusCompletedWithErrors
	rec.ProcessedRows = 3
	rec.ImportedRows = 2
	rec.FailedRows = 1
	rec.SummaryJSON = `{"failedRows":1}`
	rec.StartedAt = &started
	rec.FinishedAt = &finished
	require.NoError(t, s.UpdateImport(rec))

	loaded, err := s.GetImport(rec.ID, "user-1")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, StatusCompletedWithErrors, loaded.Status)
	assert.Equal(t, 2, loaded.ImportedRows)
	assert.Equal(t, 1, loaded.FailedRows)
	require.NotNil(t, loaded.StartedAt)
	require.NotNil(t, loaded.FinishedAt)
}

func TestListImportsNewestFirstAndLimited(t *testing.T) {
	s := newTestStore(t)

	var ids []string
	for i := 0; i < 5; i++ {
		rec := &ImportRecord{ID: fmt.Sprintf("import-%d", i), UserID: "user-1", Status: StatusCompleted}
		require.NoError(t, s.CreateImport(rec))
		ids = append(ids, rec.ID)
	}
	require.NoError(t, s.CreateImport(&ImportRecord{ID: uuid.NewString(), UserID: "other", Status: StatusQueued}))

	records, err := s.ListImports("user-1", 3)
	require.NoError(t, err)
	require.Len(t, records, 3)
	// Same created_at collapses to id DESC, so the highest suffix wins.
	assert.Equal(t, ids[4], records[0].ID)
	for _, rec := range records {
		assert.Equal(t, "user-1", rec.UserID)
	}
}

func TestIssuesOrderedByRowDescending(t *testing.T) {
	s := newTestStore(t)

	rec := &ImportRecord{ID: uuid.NewString(), UserID: "user-1", Status: StatusProcessing}
	require.NoError(t, s.CreateImport(rec))

	for _, rowNumber := range []int{2, 5, 3} {
		require.NoError(t, s.AppendIssue(&ImportIssue{
			ID:        uuid.NewString(),
			ImportID:  rec.ID,
			RowNumber: rowNumber,
			Title:     "Dune",
			Author:    "Frank Herbert",
			Severity:  SeverityWarning,
			Code:      "INFERRED_START_DATE",
			Message:   "start date inferred",
		}))
	}

	issues, err := s.ListIssues(rec.ID, 10)
	require.NoError(t, err)
	require.Len(t, issues, 3)
	assert.Equal(t, 5, issues[0].RowNumber)
	assert.Equal(t, 3, issues[1].RowNumber)
	assert.Equal(t, 2, issues[2].RowNumber)

	limited, err := s.ListIssues(rec.ID, 1)
	require.NoError(t, err)
	require.Len(t, limited, 1)
	assert.Equal(t, 5, limited[0].RowNumber)
}

func TestReadingEntryRoundTrip(t *testing.T) {
	s := newTestStore(t)

	started := time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)
	finished := time.Date(2020, 3, 15, 0, 0, 0, 0, time.UTC)
	judgment := JudgmentAccepted
	entry := &ReadingEntry{
		ID:         uuid.NewString(),
		UserID:     "user-1",
		BookKey:    "hardcover:42",
		StartedAt:  &started,
		FinishedAt: &finished,
		Judgment:   &judgment,
	}
	require.NoError(t, s.InsertReadingEntry(entry))

	loaded, err := s.GetReadingEntry("user-1", "hardcover:42")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, entry.ID, loaded.ID)
	require.NotNil(t, loaded.FinishedAt)
	assert.True(t, loaded.FinishedAt.Equal(finished))
	require.NotNil(t, loaded.Judgment)
	assert.Equal(t, JudgmentAccepted, *loaded.Judgment)
}

func TestReadingEntryNullFields(t *testing.T) {
	s := newTestStore(t)

	entry := &ReadingEntry{ID: uuid.NewString(), UserID: "user-1", BookKey: "hardcover:7"}
	require.NoError(t, s.InsertReadingEntry(entry))

	loaded, err := s.GetReadingEntry("user-1", "hardcover:7")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Nil(t, loaded.StartedAt)
	assert.Nil(t, loaded.FinishedAt)
	assert.Nil(t, loaded.Judgment)
}

func TestUpdateReadingEntry(t *testing.T) {
	s := newTestStore(t)

	entry := &ReadingEntry{ID: uuid.NewString(), UserID: "user-1", BookKey: "hardcover:7"}
	require.NoError(t, s.InsertReadingEntry(entry))

	finished := time.Date(2021, 6, 1, 0, 0, 0, 0, time.UTC)
	judgment := JudgmentRejected
	entry.FinishedAt = &finished
	entry.Judgment = &judgment
	require.NoError(t, s.UpdateReadingEntry(entry))

	loaded, err := s.GetReadingEntry("user-1", "hardcover:7")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	require.NotNil(t, loaded.FinishedAt)
	require.NotNil(t, loaded.Judgment)
	assert.Equal(t, JudgmentRejected, *loaded.Judgment)
}

func TestToReadEntryInsertIsIdempotent(t *testing.T) {
	s := newTestStore(t)

	first := &ToReadEntry{ID: uuid.NewString(), UserID: "user-1", BookKey: "hardcover:9"}
	require.NoError(t, s.InsertToReadEntry(first))

	dup := &ToReadEntry{ID: uuid.NewString(), UserID: "user-1", BookKey: "hardcover:9"}
	require.NoError(t, s.InsertToReadEntry(dup))

	loaded, err := s.GetToReadEntry("user-1", "hardcover:9")
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, first.ID, loaded.ID)
}

func TestDeleteToReadEntry(t *testing.T) {
	s := newTestStore(t)

	entry := &ToReadEntry{ID: uuid.NewString(), UserID: "user-1", BookKey: "hardcover:9"}
	require.NoError(t, s.InsertToReadEntry(entry))
	require.NoError(t, s.DeleteToReadEntry("user-1", "hardcover:9"))

	loaded, err := s.GetToReadEntry("user-1", "hardcover:9")
	require.NoError(t, err)
	assert.Nil(t, loaded)

	// Deleting an absent entry is not an error.
	require.NoError(t, s.DeleteToReadEntry("user-1", "hardcover:9"))
}
