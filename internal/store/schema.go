package store

// ImportsSchema defines the import record table.
const ImportsSchema = `
CREATE TABLE IF NOT EXISTS imports (
	id TEXT PRIMARY KEY NOT NULL,
	user_id TEXT NOT NULL,
	filename TEXT NOT NULL,
	raw_csv TEXT NOT NULL,
	options_json TEXT NOT NULL,
	status TEXT NOT NULL,
	total_rows INTEGER NOT NULL DEFAULT 0,
	processed_rows INTEGER NOT NULL DEFAULT 0,
	imported_rows INTEGER NOT NULL DEFAULT 0,
	failed_rows INTEGER NOT NULL DEFAULT 0,
	warning_rows INTEGER NOT NULL DEFAULT 0,
	summary_json TEXT NOT NULL DEFAULT '',
	started_at DATETIME,
	finished_at DATETIME,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_imports_user_created ON imports(user_id, created_at);
`

// ImportIssuesSchema defines the append-only issue log. Issues cascade-delete
// with their parent import record.
const ImportIssuesSchema = `
CREATE TABLE IF NOT EXISTS import_issues (
	id TEXT PRIMARY KEY NOT NULL,
	import_id TEXT NOT NULL REFERENCES imports(id) ON DELETE CASCADE,
	row_number INTEGER NOT NULL,
	title TEXT NOT NULL,
	author TEXT NOT NULL,
	severity TEXT NOT NULL,
	code TEXT NOT NULL,
	message TEXT NOT NULL,
	inference_rule TEXT NOT NULL DEFAULT '',
	raw_row_json TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_import_issues_import_row ON import_issues(import_id, row_number);
`

// ReadingEntriesSchema defines the currently-reading/finished collection.
const ReadingEntriesSchema = `
CREATE TABLE IF NOT EXISTS reading_entries (
	id TEXT PRIMARY KEY NOT NULL,
	user_id TEXT NOT NULL,
	book_key TEXT NOT NULL,
	started_at DATETIME,
	finished_at DATETIME,
	judgment TEXT,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, book_key)
);
`

// ToReadEntriesSchema defines the planned collection.
const ToReadEntriesSchema = `
CREATE TABLE IF NOT EXISTS to_read_entries (
	id TEXT PRIMARY KEY NOT NULL,
	user_id TEXT NOT NULL,
	book_key TEXT NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE(user_id, book_key)
);
`

// AllSchemas contains every store schema for easy initialization.
var AllSchemas = []string{
	ImportsSchema,
	ImportIssuesSchema,
	ReadingEntriesSchema,
	ToReadEntriesSchema,
}
