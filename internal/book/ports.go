package book

import (
	"context"

	"booknotes/internal/platform/openlibrary"
)

//go:generate mockgen -source=ports.go -destination=mock_ports.go -package=book

// Repository defines the contract for book storage.
type Repository interface {
	// Create stores the book, its rating and its note atomically and
	// returns the generated identifier.
	Create(ctx context.Context, d Draft) (int, error)
	Update(ctx context.Context, id int, d Draft) error
	List(ctx context.Context) ([]Entry, error)
	GetByID(ctx context.Context, id int) (Entry, error)
}

// MetadataSource looks books up in an external catalog.
type MetadataSource interface {
	GetBookByISBN(ctx context.Context, isbn string) (*openlibrary.BookDetails, error)
}
