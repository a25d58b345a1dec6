package store

// Store defines the durable storage operations the import pipeline needs.
type Store interface {
	// Connect establishes a connection to the data store
	Connect() error

	// Import records
	CreateImport(rec *ImportRecord) error
	GetImport(id, userID string) (*ImportRecord, error)
	UpdateImport(rec *ImportRecord) error
	ListImports(userID string, limit int) ([]ImportRecord, error)

	// Issue log
	AppendIssue(issue *ImportIssue) error
	ListIssues(importID string, limit int) ([]ImportIssue, error)

	// Reading collection
	GetReadingEntry(userID, bookKey string) (*ReadingEntry, error)
	InsertReadingEntry(entry *ReadingEntry) error
	UpdateReadingEntry(entry *ReadingEntry) error

	// Planned collection
	GetToReadEntry(userID, bookKey string) (*ToReadEntry, error)
	InsertToReadEntry(entry *ToReadEntry) error
	DeleteToReadEntry(userID, bookKey string) error

	// Close closes the connection to the data store
	Close() error
}
