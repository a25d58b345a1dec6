package goodreads

import (
	"strconv"
	"strings"
	"time"

	"github.com/readstack/readstack/internal/store"
)

// Warning codes attached to inferred reading-state facts.
const (
	WarnInferredStartDate = "INFERRED_START_DATE"
	WarnInferredEndDate   = "INFERRED_END_DATE"
	WarnInferredStatus    = "INFERRED_STATUS"
)

// PlanWarning records one inference made while planning a row.
type PlanWarning struct {
	Code    string
	Message string
	// Rule is a short machine-readable inference rule for the audit trail.
	Rule string
}

// Target is the collection a row merges into.
type Target string

const (
	TargetReading Target = "reading"
	TargetPlanned Target = "planned"
)

// RowPlan is the planner's verdict for one CSV row: where the book goes and
// which reading-state facts were inferred along the way. It is recomputed
// every time a row is processed and holds no identity.
type RowPlan struct {
	Target     Target
	StartedAt  *time.Time
	FinishedAt *time.Time
	Judgment   *store.Judgment
	Warnings   []PlanWarning
}

// PlanRow deterministically infers the target collection, dates, and
// judgment for one raw CSV row. It always produces a plan; ambiguity is
// resolved by documented defaults and surfaced as warnings. The today
// argument anchors the last-resort start date fallback.
func PlanRow(row Row, opts Options, today time.Time) RowPlan {
	shelf := strings.ToLower(strings.TrimSpace(row[ColExclusiveShelf]))
	dateAdded := parseFlexibleDate(row[ColDateAdded])
	dateRead := parseFlexibleDate(row[ColDateRead])
	judgment := opts.judgmentFor(parseRating(row[ColMyRating]))

	plan := RowPlan{}

	switch shelf {
	case "currently-reading":
		plan.Target = TargetReading
		plan.StartedAt = inferStartDate(&plan, dateAdded, dateRead, today)
		plan.Judgment = judgment

	case "read":
		plan.Target = TargetReading
		plan.StartedAt = inferStartDate(&plan, dateAdded, dateRead, today)
		plan.Judgment = judgment
		if dateRead != nil {
			plan.FinishedAt = dateRead
		} else {
			plan.FinishedAt = plan.StartedAt
			plan.Warnings = append(plan.Warnings, PlanWarning{
				Code:    WarnInferredEndDate,
				Message: "No Date Read present; finish date inferred from start date",
				Rule:    "finish←start",
			})
		}

	case "to-read":
		plan.Target = TargetPlanned

	default:
		if dateRead != nil {
			plan.Target = TargetReading
			plan.Warnings = append(plan.Warnings, PlanWarning{
				Code:    WarnInferredStatus,
				Message: "Unrecognized shelf with a finish date; treating as read",
				Rule:    "status←read",
			})
			plan.StartedAt = inferStartDate(&plan, dateAdded, dateRead, today)
			plan.FinishedAt = dateRead
			plan.Judgment = judgment
		} else {
			plan.Target = TargetPlanned
			plan.Warnings = append(plan.Warnings, PlanWarning{
				Code:    WarnInferredStatus,
				Message: "Unrecognized shelf; treating as planned",
				Rule:    "status←to-read",
			})
		}
	}

	return plan
}

// inferStartDate picks Date Added, then Date Read, then today, warning on
// each fallback.
func inferStartDate(plan *RowPlan, dateAdded, dateRead *time.Time, today time.Time) *time.Time {
	if dateAdded != nil {
		return dateAdded
	}
	if dateRead != nil {
		plan.Warnings = append(plan.Warnings, PlanWarning{
			Code:    WarnInferredStartDate,
			Message: "No Date Added present; start date inferred from Date Read",
			Rule:    "start←Date Read",
		})
		return dateRead
	}
	plan.Warnings = append(plan.Warnings, PlanWarning{
		Code:    WarnInferredStartDate,
		Message: "No dates present; start date defaulted to today",
		Rule:    "start←today",
	})
	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	return &day
}

// generalDateLayouts are fallbacks for exports that ran through spreadsheet
// tools and lost the native Goodreads date format.
var generalDateLayouts = []string{
	"2006-01-02",
	"01/02/2006",
	"Jan 02, 2006",
	"January 2, 2006",
	time.RFC3339,
}

// parseFlexibleDate parses a Goodreads date column. The native YYYY/M/D
// shape is preferred; general layouts are tried after it. A value only
// counts when its calendar fields are in range. Anything else means no date.
func parseFlexibleDate(value string) *time.Time {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}

	if t, ok := parseSlashDate(trimmed); ok {
		return &t
	}

	for _, layout := range generalDateLayouts {
		if t, err := time.Parse(layout, trimmed); err == nil {
			day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
			return &day
		}
	}
	return nil
}

// parseSlashDate parses the strict YYYY/M/D token Goodreads exports use.
func parseSlashDate(value string) (time.Time, bool) {
	parts := strings.Split(value, "/")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	year, err := strconv.Atoi(parts[0])
	if err != nil || year < 1 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(parts[1])
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(parts[2])
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}
