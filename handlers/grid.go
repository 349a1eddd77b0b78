package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"amaltrack/tracker"
)

var errMalformedEdit = errors.New("malformed grid payload")

// rowSep joins category and task in the hidden row identity fields. The
// catalog labels never contain it.
const rowSep = "|"

// parseGridForm rebuilds the edited matrix from the posted grid. The form
// carries its own identity: one "row" field per matrix row (category|task),
// one "date" field per column, one "present" field per rendered cell and
// one "checked" field per ticked checkbox, both as rowIdx:dateIdx. Anything
// that does not parse, is out of range, or references an unrendered cell
// rejects the whole save.
func parseGridForm(r *http.Request) (*tracker.Matrix, error) {
	if err := r.ParseForm(); err != nil {
		return nil, errMalformedEdit
	}

	rowFields := r.PostForm["row"]
	dateFields := r.PostForm["date"]
	if len(rowFields) == 0 || len(dateFields) == 0 {
		return nil, errMalformedEdit
	}

	m := &tracker.Matrix{}

	seenDate := make(map[string]bool)
	for _, d := range dateFields {
		if _, err := time.Parse(tracker.DateFormat, d); err != nil {
			return nil, errMalformedEdit
		}
		if seenDate[d] {
			return nil, errMalformedEdit
		}
		seenDate[d] = true
		m.Dates = append(m.Dates, d)
	}

	seenTask := make(map[string]bool)
	for _, rv := range rowFields {
		category, task, ok := strings.Cut(rv, rowSep)
		if !ok || category == "" || task == "" {
			return nil, errMalformedEdit
		}
		if seenTask[task] {
			return nil, errMalformedEdit
		}
		seenTask[task] = true
		m.Rows = append(m.Rows, tracker.MatrixRow{
			Category: category,
			Task:     task,
			Cells:    make(map[string]bool),
		})
	}

	for _, p := range r.PostForm["present"] {
		row, date, err := cellCoords(p, len(m.Rows), len(m.Dates))
		if err != nil {
			return nil, err
		}
		m.Rows[row].Cells[m.Dates[date]] = false
	}

	for _, c := range r.PostForm["checked"] {
		row, date, err := cellCoords(c, len(m.Rows), len(m.Dates))
		if err != nil {
			return nil, err
		}
		if _, present := m.Rows[row].Cells[m.Dates[date]]; !present {
			return nil, errMalformedEdit
		}
		m.Rows[row].Cells[m.Dates[date]] = true
	}

	return m, nil
}

func cellCoords(v string, rows, dates int) (int, int, error) {
	rowPart, datePart, ok := strings.Cut(v, ":")
	if !ok {
		return 0, 0, errMalformedEdit
	}
	row, err := strconv.Atoi(rowPart)
	if err != nil || row < 0 || row >= rows {
		return 0, 0, errMalformedEdit
	}
	date, err := strconv.Atoi(datePart)
	if err != nil || date < 0 || date >= dates {
		return 0, 0, errMalformedEdit
	}
	return row, date, nil
}
