// Package quil extracts recruiter-led interview content from Quil meeting
// notes. Quil writes its meeting summaries into ATS candidate notes as HTML
// with a fixed header line and marker-delimited sections; this package parses
// that convention and picks the note matching a given job.
package quil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/outstaffer/candidate-summary-api/internal/types"
)

// NotePrefix marks an ATS note description as a Quil meeting note
const NotePrefix = "Quil "

var (
	headerPattern  = regexp.MustCompile(`^Quil (\d{1,2}/\d{1,2}/\d{4}): (.+)`)
	summaryPattern = regexp.MustCompile(`(?s)<b>----Summary----</b>(.*?)<b>----Manual Notes----</b>`)
)

// Interview is the structured content of a single Quil meeting note
type Interview struct {
	NoteID      int
	Date        string
	Title       string
	SummaryHTML string
	MeetingLink string
}

// IsQuilNote reports whether a note description follows the Quil convention
func IsQuilNote(description string) bool {
	return strings.HasPrefix(description, NotePrefix)
}

// FilterNotes returns the subset of notes that follow the Quil convention
func FilterNotes(notes []types.Note) []types.Note {
	var quilNotes []types.Note
	for _, note := range notes {
		if IsQuilNote(note.Description) {
			quilNotes = append(quilNotes, note)
		}
	}
	return quilNotes
}

// Parse extracts the date, title, summary block and meeting link from a Quil
// note description. Returns nil for descriptions that do not follow the
// convention. Fields that cannot be located are left empty.
func Parse(description string) *Interview {
	if !IsQuilNote(description) {
		return nil
	}

	interview := &Interview{}

	// Header line: "Quil M/D/YYYY: Meeting title"
	firstLine := description
	if idx := strings.Index(description, "<br/>"); idx >= 0 {
		firstLine = description[:idx]
	} else if idx := strings.Index(description, "\n"); idx >= 0 {
		firstLine = description[:idx]
	}
	if m := headerPattern.FindStringSubmatch(firstLine); m != nil {
		interview.Date = m[1]
		interview.Title = strings.TrimSpace(m[2])
	}

	if m := summaryPattern.FindStringSubmatch(description); m != nil {
		interview.SummaryHTML = strings.TrimSpace(m[1])
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(description))
	if err != nil {
		return interview
	}
	doc.Find("a[href]").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		href, _ := s.Attr("href")
		if strings.Contains(href, "salesq.app") {
			interview.MeetingLink = href
			return false
		}
		return true
	})

	return interview
}
