package goodreads

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
)

// Column names of the Goodreads library export the pipeline depends on.
const (
	ColTitle          = "Title"
	ColAuthor         = "Author"
	ColISBN           = "ISBN"
	ColISBN13         = "ISBN13"
	ColMyRating       = "My Rating"
	ColDateRead       = "Date Read"
	ColDateAdded      = "Date Added"
	ColExclusiveShelf = "Exclusive Shelf"
)

// RequiredHeaders is the fixed header set an export must carry. A missing
// header fails the whole import before any row is processed.
var RequiredHeaders = []string{
	ColTitle, ColAuthor, ColISBN, ColISBN13,
	ColMyRating, ColDateRead, ColDateAdded, ColExclusiveShelf,
}

// Row is one CSV data row keyed by header name.
type Row map[string]string

// ParseCSV parses a Goodreads export into header-keyed rows, validating the
// required header set. Malformed records are skipped with a warning, like
// any other semi-structured export.
func ParseCSV(raw string) ([]Row, error) {
	reader := csv.NewReader(strings.NewReader(raw))
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.TrimSpace(name)] = i
	}

	var missing []string
	for _, name := range RequiredHeaders {
		if _, ok := index[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("CSV is missing required headers: %s", strings.Join(missing, ", "))
	}

	var rows []Row
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			slog.Warn("Error reading record", "error", err)
			continue
		}

		row := make(Row, len(index))
		for name, i := range index {
			if i < len(record) {
				row[name] = record[i]
			}
		}
		rows = append(rows, row)
	}

	return rows, nil
}

// NormalizeISBN strips the Excel-export artifacts Goodreads wraps ISBNs in
// (="..." quoting) along with hyphens and spaces.
func NormalizeISBN(value string) string {
	normalized := strings.ReplaceAll(value, "\"", "")
	normalized = strings.ReplaceAll(normalized, "=", "")
	normalized = strings.ReplaceAll(normalized, "-", "")
	return strings.TrimSpace(normalized)
}

func parseRating(value string) int {
	rating, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return 0
	}
	return int(rating)
}
