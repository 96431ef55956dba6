package book

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrNotFound is returned when no book has the requested identifier.
	ErrNotFound = errors.New("book not found")
	// ErrDuplicateISBN is returned when the ISBN is already in the collection.
	ErrDuplicateISBN = errors.New("a book with this ISBN already exists in your collection")
	// ErrLookupUnavailable is returned when no metadata source is configured.
	ErrLookupUnavailable = errors.New("metadata lookup unavailable")
)

// Book is a row of the books table.
type Book struct {
	ID           int        `json:"id"`
	Title        string     `json:"title"`
	ISBN         string     `json:"isbn"`
	CoverURL     string     `json:"cover_url"`
	Author       string     `json:"author"`
	DateStarted  time.Time  `json:"date_started"`
	DateFinished *time.Time `json:"date_finished,omitempty"`
}

// Entry is a book joined with its rating and note, plus display fields.
type Entry struct {
	Book
	Rating        float64    `json:"rating"`
	Note          string     `json:"note"`
	NoteCreatedAt *time.Time `json:"note_created_at,omitempty"`
	Stars         string     `json:"stars"`
}

// Submission is the raw form a client posts to create or update a book.
type Submission struct {
	ISBN         string `json:"isbn"`
	Title        string `json:"title"`
	Author       string `json:"author"`
	Date         string `json:"date"`
	DateFinished string `json:"date_finished"`
	Note         string `json:"note"`
	CoverURL     string `json:"coverUrl"`
	Rating       string `json:"book_rating"`
}

// Draft is a validated, normalized submission ready for persistence.
// Nil pointers are stored as NULL.
type Draft struct {
	ISBN         string
	Title        string
	Author       string
	DateStarted  time.Time
	DateFinished *time.Time
	CoverURL     string
	Rating       *float64
	Note         *string
}

// Metadata is what an external catalog knows about an ISBN.
type Metadata struct {
	ISBN        string   `json:"isbn"`
	Title       string   `json:"title"`
	Authors     []string `json:"authors"`
	CoverURL    string   `json:"cover_url"`
	PublishDate string   `json:"publish_date,omitempty"`
}

// FieldError describes one rejected field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries every field violation found in a submission, in
// rule order.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		msgs[i] = f.Field + ": " + f.Message
	}
	return "invalid book: " + strings.Join(msgs, "; ")
}
