package book

import (
	"context"
	"errors"
	"fmt"

	"booknotes/internal/platform/openlibrary"

	"github.com/rs/zerolog"
)

const coverURLTemplate = "https://covers.openlibrary.org/b/isbn/%s-L.jpg"

// DefaultCoverURL is the Open Library cover used when the caller gives none.
func DefaultCoverURL(isbn string) string {
	return fmt.Sprintf(coverURLTemplate, isbn)
}

// Service provides the book catalog workflows.
type Service struct {
	repo     Repository
	cache    *ListingCache
	metadata MetadataSource
}

// NewService creates a new book service. metadata may be nil, in which case
// Lookup returns ErrLookupUnavailable.
func NewService(repo Repository, cache *ListingCache, metadata MetadataSource) *Service {
	if cache == nil {
		cache = NewListingCache(DefaultCacheTTL)
	}
	return &Service{repo: repo, cache: cache, metadata: metadata}
}

// Create validates s and stores the book with its rating and note. A missing
// rating is stored as 0.
func (s *Service) Create(ctx context.Context, sub Submission) (int, error) {
	d, err := ValidateNew(sub)
	if err != nil {
		return 0, err
	}

	if d.CoverURL == "" {
		d.CoverURL = DefaultCoverURL(d.ISBN)
	}
	if d.Rating == nil {
		zero := 0.0
		d.Rating = &zero
	}

	id, err := s.repo.Create(ctx, d)
	if err != nil {
		if !errors.Is(err, ErrDuplicateISBN) {
			zerolog.Ctx(ctx).Error().Err(err).Str("isbn", d.ISBN).Msg("create book failed")
		}
		return 0, err
	}
	s.cache.Invalidate()

	zerolog.Ctx(ctx).Info().Int("book_id", id).Str("isbn", d.ISBN).Msg("book added")
	return id, nil
}

// Update overwrites title, author, dates, rating and note of book id.
// Last writer wins.
func (s *Service) Update(ctx context.Context, id int, sub Submission) error {
	d, err := ValidateUpdate(sub)
	if err != nil {
		return err
	}

	if err := s.repo.Update(ctx, id, d); err != nil {
		if !errors.Is(err, ErrNotFound) {
			zerolog.Ctx(ctx).Error().Err(err).Int("book_id", id).Msg("update book failed")
		}
		return err
	}
	s.cache.Invalidate()
	return nil
}

// List returns every book with rating glyphs and a note preview, served
// from the listing cache when fresh.
func (s *Service) List(ctx context.Context) ([]Entry, error) {
	return s.cache.Get(ctx, func(ctx context.Context) ([]Entry, error) {
		zerolog.Ctx(ctx).Debug().Msg("listing cache miss")
		rows, err := s.repo.List(ctx)
		if err != nil {
			return nil, err
		}
		out := make([]Entry, len(rows))
		for i, e := range rows {
			out[i] = enrichForListing(e)
		}
		return out, nil
	})
}

// Get returns one book with its full note.
func (s *Service) Get(ctx context.Context, id int) (Entry, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return Entry{}, err
	}
	e.Stars = StarGlyphs(e.Rating)
	return e, nil
}

// Lookup fetches catalog metadata for an ISBN-10 to prefill the form.
func (s *Service) Lookup(ctx context.Context, isbn string) (Metadata, error) {
	isbn, err := ValidateISBN(isbn)
	if err != nil {
		return Metadata{}, err
	}
	if s.metadata == nil {
		return Metadata{}, ErrLookupUnavailable
	}

	details, err := s.metadata.GetBookByISBN(ctx, isbn)
	if err != nil {
		if errors.Is(err, openlibrary.ErrNotFound) {
			return Metadata{}, ErrNotFound
		}
		return Metadata{}, fmt.Errorf("lookup %s: %w", isbn, err)
	}

	cover := details.Cover.Large
	if cover == "" {
		cover = DefaultCoverURL(isbn)
	}
	return Metadata{
		ISBN:        isbn,
		Title:       details.Title,
		Authors:     details.AuthorNames(),
		CoverURL:    cover,
		PublishDate: details.PublishDate,
	}, nil
}
