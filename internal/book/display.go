package book

import (
	"math"
	"strings"
	"unicode"
)

const (
	FilledStar = "★"
	EmptyStar  = "☆"
	maxStars   = 5

	// NotePreviewLength bounds the note shown in the listing.
	NotePreviewLength = 150
	// NotePlaceholder stands in for a book without a note.
	NotePlaceholder = "No note available"
)

// StarGlyphs renders rating as five glyphs, the first round(rating) filled.
func StarGlyphs(rating float64) string {
	filled := int(math.Round(rating))
	if filled < 0 || math.IsNaN(rating) {
		filled = 0
	}
	if filled > maxStars {
		filled = maxStars
	}
	return strings.Repeat(FilledStar, filled) + strings.Repeat(EmptyStar, maxStars-filled)
}

// TruncateNote shortens text to at most maxLen runes plus an ellipsis,
// cutting at the last whitespace before the limit when there is one.
func TruncateNote(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}

	cut := runes[:maxLen]
	for i := len(cut) - 1; i > 0; i-- {
		if unicode.IsSpace(cut[i]) {
			cut = cut[:i]
			break
		}
	}
	return strings.TrimRightFunc(string(cut), unicode.IsSpace) + "..."
}

func enrichForListing(e Entry) Entry {
	e.Note = TruncateNote(e.Note, NotePreviewLength)
	e.Stars = StarGlyphs(e.Rating)
	return e
}
