package tracker

import "time"

// TaskDef is one fixed (category, task) pair from the observance catalog.
type TaskDef struct {
	Category string
	Task     string
}

// TrackDays is the length of the tracked calendar.
const TrackDays = 30

// DateFormat is the wire form of dates in the entries table.
const DateFormat = "2006-01-02"

// Catalog returns the fixed 12-task observance catalog in display order.
// Labels are Bengali and must match the persisted rows byte for byte.
func Catalog() []TaskDef {
	return []TaskDef{
		{"সেহরি ও ফজর", "তাহাজ্জুদ সালাত"},
		{"সেহরি ও ফজর", "সেহরি গ্রহণ"},
		{"সেহরি ও ফজর", "ফজরের সালাত"},
		{"সেহরি ও ফজর", "কুরআন তিলাওয়াত"},
		{"যোহরের সময়", "যোহরের সালাত"},
		{"যোহরের সময়", "জিকির ও দোয়া"},
		{"আসরের সময়", "আসরের সালাত"},
		{"মাগরিব ও ইফতার", "ইফতার ও দোয়া"},
		{"মাগরিব ও ইফতার", "মাগরিবের সালাত"},
		{"এশা ও তারাবীহ", "এশার সালাত"},
		{"এশা ও তারাবীহ", "তারাবীহ সালাত"},
		{"এশা ও তারাবীহ", "বিতর ও তওবা"},
	}
}

// Dates returns the TrackDays consecutive calendar days starting at start,
// formatted as YYYY-MM-DD.
func Dates(start time.Time) []string {
	dates := make([]string, TrackDays)
	for i := 0; i < TrackDays; i++ {
		dates[i] = start.AddDate(0, 0, i).Format(DateFormat)
	}
	return dates
}
