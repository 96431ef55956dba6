package book

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	insertBookSQL = `
		INSERT INTO books (title, isbn, cover_url, date_started, author)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING book_id`
	insertRatingSQL = `INSERT INTO ratings (book_id, rating) VALUES ($1, $2)`
	insertNoteSQL   = `INSERT INTO notes (book_id, note) VALUES ($1, $2)`

	updateBookSQL = `
		UPDATE books
		SET title = $1, author = $2, date_started = $3, date_finished = $4
		WHERE book_id = $5`
	upsertRatingSQL = `
		INSERT INTO ratings (book_id, rating) VALUES ($1, $2)
		ON CONFLICT (book_id) DO UPDATE SET rating = EXCLUDED.rating`
	upsertNoteSQL = `
		INSERT INTO notes (book_id, note) VALUES ($1, $2)
		ON CONFLICT (book_id) DO UPDATE SET note = EXCLUDED.note`

	selectEntrySQL = `
		SELECT b.book_id, b.title, b.isbn, b.cover_url, b.author, b.date_started, b.date_finished,
		       COALESCE(r.rating, 0)::FLOAT8 AS rating,
		       COALESCE(n.note, $1) AS note,
		       n.created_at
		FROM books b
		LEFT JOIN ratings r ON r.book_id = b.book_id
		LEFT JOIN notes n ON n.book_id = b.book_id`
)

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

func (r *PostgresRepo) Create(ctx context.Context, d Draft) (int, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	var id int
	if err := tx.QueryRow(ctx, insertBookSQL, d.Title, d.ISBN, d.CoverURL, d.DateStarted, d.Author).Scan(&id); err != nil {
		if isUniqueViolation(err) {
			return 0, ErrDuplicateISBN
		}
		return 0, fmt.Errorf("insert book: %w", err)
	}
	if _, err := tx.Exec(ctx, insertRatingSQL, id, d.Rating); err != nil {
		return 0, fmt.Errorf("insert rating: %w", err)
	}
	if _, err := tx.Exec(ctx, insertNoteSQL, id, d.Note); err != nil {
		return 0, fmt.Errorf("insert note: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return id, nil
}

func (r *PostgresRepo) Update(ctx context.Context, id int, d Draft) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, updateBookSQL, d.Title, d.Author, d.DateStarted, d.DateFinished, id)
	if err != nil {
		return fmt.Errorf("update book: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, upsertRatingSQL, id, d.Rating); err != nil {
		return fmt.Errorf("update rating: %w", err)
	}
	if _, err := tx.Exec(ctx, upsertNoteSQL, id, d.Note); err != nil {
		return fmt.Errorf("update note: %w", err)
	}

	return tx.Commit(ctx)
}

func (r *PostgresRepo) List(ctx context.Context) ([]Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	rows, err := r.db.Query(ctx, selectEntrySQL+" ORDER BY b.book_id", NotePlaceholder)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) GetByID(ctx context.Context, id int) (Entry, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	e, err := scanEntry(r.db.QueryRow(ctx, selectEntrySQL+" WHERE b.book_id = $2", NotePlaceholder, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, err
	}
	return e, nil
}

func scanEntry(row pgx.Row) (Entry, error) {
	var e Entry
	err := row.Scan(
		&e.ID, &e.Title, &e.ISBN, &e.CoverURL, &e.Author, &e.DateStarted, &e.DateFinished,
		&e.Rating, &e.Note, &e.NoteCreatedAt,
	)
	return e, err
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
