// Package tracker holds the observance-grid core: seeding a new user's
// entry block, pivoting long-format entry rows into the editable matrix,
// flattening the edited matrix back, and reconciling one user's block into
// the full multi-user table.
package tracker

import (
	"errors"
	"fmt"
	"sort"
	"time"

	"amaltrack/models"
)

var (
	// ErrDuplicateEntry reports two stored rows with the same (date, task)
	// key for one user. Duplicates are a data-integrity problem (a botched
	// concurrent save); they are rejected rather than silently resolved.
	ErrDuplicateEntry = errors.New("duplicate entry for the same date and task")

	// ErrEmptySave rejects a save that would wipe a user's entire block.
	ErrEmptySave = errors.New("refusing to save an empty entry set")
)

// Matrix is the per-user wide view: one row per (category, task), one
// column per date. It exists only for the duration of one edit session.
type Matrix struct {
	Dates []string
	Rows  []MatrixRow
}

// MatrixRow is one matrix line. A date absent from Cells means the user has
// no stored entry for that day; it is distinct from a stored false.
type MatrixRow struct {
	Category string
	Task     string
	Cells    map[string]bool
}

// SeedEntries builds the initial all-false entry block for a new user:
// one row per (date, task) pair, TrackDays days from start, covering the
// whole catalog. Pure and deterministic.
func SeedEntries(username string, start time.Time) []models.Entry {
	catalog := Catalog()
	entries := make([]models.Entry, 0, TrackDays*len(catalog))
	for _, date := range Dates(start) {
		for _, def := range catalog {
			entries = append(entries, models.Entry{
				Username: username,
				Date:     date,
				Category: def.Category,
				Task:     def.Task,
				Status:   false,
			})
		}
	}
	return entries
}

// Pivot turns one user's long-format entries into the wide matrix. Rows
// appear in first-seen order, dates sorted ascending. A duplicate
// (date, task) key returns ErrDuplicateEntry.
func Pivot(entries []models.Entry) (*Matrix, error) {
	m := &Matrix{}
	rowIndex := make(map[string]int)
	dateSeen := make(map[string]bool)

	for _, e := range entries {
		idx, ok := rowIndex[e.Task]
		if !ok {
			idx = len(m.Rows)
			rowIndex[e.Task] = idx
			m.Rows = append(m.Rows, MatrixRow{
				Category: e.Category,
				Task:     e.Task,
				Cells:    make(map[string]bool),
			})
		}
		if _, exists := m.Rows[idx].Cells[e.Date]; exists {
			return nil, fmt.Errorf("%w: task %q on %s", ErrDuplicateEntry, e.Task, e.Date)
		}
		m.Rows[idx].Cells[e.Date] = e.Status
		if !dateSeen[e.Date] {
			dateSeen[e.Date] = true
			m.Dates = append(m.Dates, e.Date)
		}
	}

	sort.Strings(m.Dates)
	return m, nil
}

// Flatten melts the matrix back to long format, tagging every present cell
// with username. Absent cells produce no row, so a Pivot/Flatten round trip
// reproduces the original set exactly.
func Flatten(m *Matrix, username string) []models.Entry {
	var entries []models.Entry
	for _, row := range m.Rows {
		for _, date := range m.Dates {
			status, ok := row.Cells[date]
			if !ok {
				continue
			}
			entries = append(entries, models.Entry{
				Username: username,
				Date:     date,
				Category: row.Category,
				Task:     row.Task,
				Status:   status,
			})
		}
	}
	return entries
}

// Reconcile merges one user's freshly flattened block into the full table:
// every row belonging to another user passes through unchanged and in its
// original order, followed by the replacement block. An empty replacement
// is rejected so a malformed edit can never erase a user's history.
func Reconcile(all []models.Entry, username string, replacement []models.Entry) ([]models.Entry, error) {
	if len(replacement) == 0 {
		return nil, ErrEmptySave
	}

	merged := make([]models.Entry, 0, len(all)+len(replacement))
	for _, e := range all {
		if e.Username != username {
			merged = append(merged, e)
		}
	}
	merged = append(merged, replacement...)
	return merged, nil
}

// ForUser filters the full entries table down to one user's rows,
// preserving order.
func ForUser(all []models.Entry, username string) []models.Entry {
	var mine []models.Entry
	for _, e := range all {
		if e.Username == username {
			mine = append(mine, e)
		}
	}
	return mine
}
