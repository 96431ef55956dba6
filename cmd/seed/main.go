package main

import (
	"context"
	"errors"
	"flag"
	"strings"
	"time"

	"booknotes/internal/book"
	"booknotes/internal/config"
	"booknotes/internal/logger"
	"booknotes/internal/platform/openlibrary"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	var (
		subject = flag.String("subject", "science_fiction", "Open Library subject to search when -isbns is empty")
		isbnArg = flag.String("isbns", "", "Comma-separated ISBN-10 list to seed")
		limit   = flag.Int("limit", 20, "Maximum books to take from the subject search")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.Get().Fatal().Err(err).Msg("load config")
	}
	log := logger.Init(cfg.LogLevel)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	client := openlibrary.NewClient(cfg.OpenLibraryUserAgent, cfg.OpenLibraryRPS, cfg.OpenLibraryRetries)
	service := book.NewService(book.NewPostgresRepo(pool, cfg.DBTimeout), nil, client)

	isbns := splitISBNs(*isbnArg)
	if len(isbns) == 0 {
		log.Info().Str("subject", *subject).Int("limit", *limit).Msg("searching Open Library")
		res, err := client.SearchBooks(ctx, *subject, *limit)
		if err != nil {
			log.Fatal().Err(err).Msg("subject search failed")
		}
		for _, doc := range res.Docs {
			if isbn := pickISBN10(doc.ISBN); isbn != "" {
				isbns = append(isbns, isbn)
			}
		}
	}
	if len(isbns) == 0 {
		log.Warn().Msg("no ISBN-10 candidates found")
		return
	}

	details, err := client.GetBooksByISBN(ctx, isbns)
	if err != nil {
		log.Fatal().Err(err).Msg("fetching book details failed")
	}

	var added, skipped int
	started := time.Now().UTC()
	for _, isbn := range isbns {
		d, ok := details[isbn]
		if !ok {
			log.Debug().Str("isbn", isbn).Msg("no Open Library record")
			skipped++
			continue
		}
		id, err := service.Create(ctx, submissionFor(isbn, d, started))
		if err != nil {
			var verr *book.ValidationError
			switch {
			case errors.Is(err, book.ErrDuplicateISBN):
				log.Debug().Str("isbn", isbn).Msg("already in collection")
			case errors.As(err, &verr):
				log.Warn().Str("isbn", isbn).Err(err).Msg("skipping invalid record")
			default:
				log.Fatal().Err(err).Str("isbn", isbn).Msg("failed to add book")
			}
			skipped++
			continue
		}
		log.Info().Int("book_id", id).Str("title", d.Title).Msg("seeded")
		added++
	}

	log.Info().Int("added", added).Int("skipped", skipped).Msg("seed complete")
}

func splitISBNs(raw string) []string {
	var out []string
	for _, s := range strings.Split(raw, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// pickISBN10 returns the first ten-character identifier in isbns.
func pickISBN10(isbns []string) string {
	for _, isbn := range isbns {
		if _, err := book.ValidateISBN(isbn); err == nil {
			return isbn
		}
	}
	return ""
}

func submissionFor(isbn string, d openlibrary.BookDetails, started time.Time) book.Submission {
	title := d.Title
	if len([]rune(title)) > 150 {
		title = string([]rune(title)[:150])
	}
	author := strings.Join(d.AuthorNames(), ", ")
	if author == "" {
		author = "Unknown"
	}
	return book.Submission{
		ISBN:     isbn,
		Title:    title,
		Author:   author,
		Date:     started.Format("2006-01-02"),
		CoverURL: d.Cover.Large,
	}
}
