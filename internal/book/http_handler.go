package book

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"booknotes/internal/httpx"

	"github.com/rs/zerolog"
)

//go:embed views/*.html
var views embed.FS

var newBookForm = template.Must(template.ParseFS(views, "views/new_book.html"))

const msgDuplicateISBN = "A book with this ISBN already exists in your collection."

type HTTPHandler struct {
	service *Service
}

func NewHTTPHandler(service *Service) *HTTPHandler {
	return &HTTPHandler{service: service}
}

// Register mounts the book routes on mux.
func (h *HTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /{$}", h.List)
	mux.HandleFunc("GET /new-book", h.NewBookForm)
	mux.HandleFunc("GET /view-book/{id}", h.View)
	mux.HandleFunc("GET /lookup/{isbn}", h.Lookup)
	mux.HandleFunc("POST /addBook", h.AddBook)
	mux.HandleFunc("POST /updateBook/{id}", h.UpdateBook)
}

// List handles GET /
func (h *HTTPHandler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.List(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("list books")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	if entries == nil {
		entries = []Entry{}
	}
	httpx.JSONSuccess(w, r, entries, map[string]any{"total": len(entries)})
}

// NewBookForm handles GET /new-book
func (h *HTTPHandler) NewBookForm(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := newBookForm.Execute(w, nil); err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("render new book form")
	}
}

// View handles GET /view-book/{id}
func (h *HTTPHandler) View(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}

	entry, err := h.service.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
			return
		}
		zerolog.Ctx(r.Context()).Error().Err(err).Int("book_id", id).Msg("get book")
		httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error", nil)
		return
	}
	httpx.JSONSuccess(w, r, entry, nil)
}

// AddBook handles POST /addBook
func (h *HTTPHandler) AddBook(w http.ResponseWriter, r *http.Request) {
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	_, err := h.service.Create(r.Context(), sub)
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, r, verr)
		case errors.Is(err, ErrDuplicateISBN):
			httpx.JSONError(w, r, http.StatusConflict, "CONFLICT", msgDuplicateISBN, nil)
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not add book", nil)
		}
		return
	}
	http.Redirect(w, r, "/", http.StatusFound)
}

// UpdateBook handles POST /updateBook/{id}
func (h *HTTPHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	id, ok := bookID(r)
	if !ok {
		httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		return
	}
	sub, ok := decodeSubmission(w, r)
	if !ok {
		return
	}

	if err := h.service.Update(r.Context(), id, sub); err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, r, verr)
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "Book not found", nil)
		default:
			httpx.JSONError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "Could not update book", nil)
		}
		return
	}
	http.Redirect(w, r, fmt.Sprintf("/view-book/%d", id), http.StatusFound)
}

// Lookup handles GET /lookup/{isbn}
func (h *HTTPHandler) Lookup(w http.ResponseWriter, r *http.Request) {
	meta, err := h.service.Lookup(r.Context(), r.PathValue("isbn"))
	if err != nil {
		var verr *ValidationError
		switch {
		case errors.As(err, &verr):
			writeValidationError(w, r, verr)
		case errors.Is(err, ErrNotFound):
			httpx.JSONError(w, r, http.StatusNotFound, "NOT_FOUND", "ISBN not found", nil)
		default:
			zerolog.Ctx(r.Context()).Warn().Err(err).Msg("metadata lookup failed")
			httpx.JSONError(w, r, http.StatusBadGateway, "UPSTREAM_ERROR", "Metadata lookup failed", nil)
		}
		return
	}
	httpx.JSONSuccess(w, r, meta, nil)
}

func bookID(r *http.Request) (int, bool) {
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func writeValidationError(w http.ResponseWriter, r *http.Request, verr *ValidationError) {
	details := make([]httpx.ErrorDetail, len(verr.Fields))
	for i, f := range verr.Fields {
		details[i] = httpx.ErrorDetail{Field: f.Field, Message: f.Message}
	}
	httpx.JSONError(w, r, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid book submission", details)
}

// decodeSubmission reads a JSON or form-encoded body. On failure it has
// already written the response.
func decodeSubmission(w http.ResponseWriter, r *http.Request) (Submission, bool) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	var (
		sub Submission
		err error
	)
	if mediaType == "application/json" {
		sub, err = decodeJSONSubmission(r)
	} else {
		sub, err = decodeFormSubmission(r)
	}
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			httpx.JSONError(w, r, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Request body too large", nil)
			return Submission{}, false
		}
		httpx.JSONError(w, r, http.StatusBadRequest, "BAD_REQUEST", "Malformed request body", nil)
		return Submission{}, false
	}
	return sub, true
}

func decodeJSONSubmission(r *http.Request) (Submission, error) {
	var raw map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return Submission{}, err
	}
	field := func(name string) string {
		switch v := raw[name].(type) {
		case string:
			return v
		case json.Number:
			return v.String()
		case bool:
			return strconv.FormatBool(v)
		default:
			return ""
		}
	}
	return Submission{
		ISBN:         field("isbn"),
		Title:        field("title"),
		Author:       field("author"),
		Date:         field("date"),
		DateFinished: field("date_finished"),
		Note:         field("note"),
		CoverURL:     field("coverUrl"),
		Rating:       field("book_rating"),
	}, nil
}

func decodeFormSubmission(r *http.Request) (Submission, error) {
	if err := r.ParseForm(); err != nil {
		return Submission{}, err
	}
	f := r.PostForm
	return Submission{
		ISBN:         f.Get("isbn"),
		Title:        f.Get("title"),
		Author:       f.Get("author"),
		Date:         f.Get("date"),
		DateFinished: f.Get("date_finished"),
		Note:         f.Get("note"),
		CoverURL:     strings.TrimSpace(f.Get("coverUrl")),
		Rating:       f.Get("book_rating"),
	}, nil
}
