package book

import (
	"html"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
)

const dateLayout = "2006-01-02"

var (
	isbn10Pattern = regexp.MustCompile(`^\d{9}[\dXx]$`)
	datePattern   = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

	validate   = newValidator()
	notePolicy = bluemonday.StrictPolicy()
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("isbn10", func(fl validator.FieldLevel) bool {
		return isbn10Pattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("ymd", func(fl validator.FieldLevel) bool {
		return datePattern.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("image_url", func(fl validator.FieldLevel) bool {
		return isImageURL(fl.Field().String())
	})
	return v
}

func isImageURL(raw string) bool {
	u, err := url.ParseRequestURI(raw)
	if err != nil || u.Host == "" {
		return false
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return false
	}
	path := strings.ToLower(u.Path)
	return strings.HasSuffix(path, ".jpg") || strings.HasSuffix(path, ".jpeg") || strings.HasSuffix(path, ".png")
}

const (
	msgISBN         = "Invalid ISBN format. Must be exactly 10 characters."
	msgTitle        = "Title must be between 2 and 150 characters."
	msgAuthor       = "Author must be between 2 and 150 characters."
	msgDate         = "Date must be in YYYY-MM-DD format."
	msgDateCalendar = "Date must be a real calendar date."
	msgDateFinished = "Finish date must be in YYYY-MM-DD format."
	msgNote         = "Note must be at most 500 characters."
	msgCoverURL     = "Cover URL must be an http(s) link ending in .jpg, .jpeg or .png."
	msgRating       = "Rating must be a number between 0 and 5."
)

// fieldRule checks one field of s and, when it passes, writes the normalized
// value into d. Rules never depend on each other.
type fieldRule func(s Submission, d *Draft) *FieldError

var (
	createRules = []fieldRule{checkISBN, checkTitle, checkAuthor, checkDate, checkNote, checkCoverURL, checkRating}
	updateRules = []fieldRule{checkTitle, checkAuthor, checkDate, checkDateFinished, checkNote, checkRating}
)

// ValidateNew checks a creation submission. Every rule runs; the returned
// error is a *ValidationError listing all violations.
func ValidateNew(s Submission) (Draft, error) {
	return apply(s, createRules)
}

// ValidateUpdate checks an update submission. ISBN and cover are immutable
// and therefore not read.
func ValidateUpdate(s Submission) (Draft, error) {
	return apply(s, updateRules)
}

// ValidateISBN applies the ISBN-10 rule alone.
func ValidateISBN(isbn string) (string, error) {
	var d Draft
	if fe := checkISBN(Submission{ISBN: isbn}, &d); fe != nil {
		return "", &ValidationError{Fields: []FieldError{*fe}}
	}
	return d.ISBN, nil
}

func apply(s Submission, rules []fieldRule) (Draft, error) {
	var (
		d      Draft
		failed []FieldError
	)
	for _, rule := range rules {
		if fe := rule(s, &d); fe != nil {
			failed = append(failed, *fe)
		}
	}
	if len(failed) > 0 {
		return Draft{}, &ValidationError{Fields: failed}
	}
	return d, nil
}

func checkISBN(s Submission, d *Draft) *FieldError {
	isbn := strings.TrimSpace(s.ISBN)
	if validate.Var(isbn, "required,len=10,isbn10") != nil {
		return &FieldError{Field: "isbn", Message: msgISBN}
	}
	d.ISBN = isbn
	return nil
}

func checkTitle(s Submission, d *Draft) *FieldError {
	title := strings.TrimSpace(s.Title)
	if validate.Var(title, "min=2,max=150") != nil {
		return &FieldError{Field: "title", Message: msgTitle}
	}
	d.Title = html.EscapeString(title)
	return nil
}

func checkAuthor(s Submission, d *Draft) *FieldError {
	author := strings.TrimSpace(s.Author)
	if validate.Var(author, "min=2,max=150") != nil {
		return &FieldError{Field: "author", Message: msgAuthor}
	}
	d.Author = html.EscapeString(author)
	return nil
}

func checkDate(s Submission, d *Draft) *FieldError {
	date := strings.TrimSpace(s.Date)
	if validate.Var(date, "required,ymd") != nil {
		return &FieldError{Field: "date", Message: msgDate}
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return &FieldError{Field: "date", Message: msgDateCalendar}
	}
	d.DateStarted = t
	return nil
}

func checkDateFinished(s Submission, d *Draft) *FieldError {
	date := strings.TrimSpace(s.DateFinished)
	if date == "" {
		return nil
	}
	if validate.Var(date, "ymd") != nil {
		return &FieldError{Field: "date_finished", Message: msgDateFinished}
	}
	t, err := time.Parse(dateLayout, date)
	if err != nil {
		return &FieldError{Field: "date_finished", Message: msgDateCalendar}
	}
	d.DateFinished = &t
	return nil
}

func checkNote(s Submission, d *Draft) *FieldError {
	note := strings.TrimSpace(s.Note)
	if note == "" {
		return nil
	}
	if validate.Var(note, "max=500") != nil {
		return &FieldError{Field: "note", Message: msgNote}
	}
	if clean := strings.TrimSpace(notePolicy.Sanitize(note)); clean != "" {
		d.Note = &clean
	}
	return nil
}

func checkCoverURL(s Submission, d *Draft) *FieldError {
	cover := strings.TrimSpace(s.CoverURL)
	if cover == "" {
		return nil
	}
	if validate.Var(cover, "image_url") != nil {
		return &FieldError{Field: "coverUrl", Message: msgCoverURL}
	}
	d.CoverURL = cover
	return nil
}

func checkRating(s Submission, d *Draft) *FieldError {
	raw := strings.TrimSpace(s.Rating)
	if raw == "" {
		return nil
	}
	if validate.Var(raw, "numeric") != nil {
		return &FieldError{Field: "book_rating", Message: msgRating}
	}
	rating, err := strconv.ParseFloat(raw, 64)
	if err != nil || validate.Var(rating, "gte=0,lte=5") != nil {
		return &FieldError{Field: "book_rating", Message: msgRating}
	}
	d.Rating = &rating
	return nil
}
