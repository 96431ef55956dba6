package book

import (
	"context"
	"errors"
	"testing"
	"time"

	"booknotes/internal/platform/openlibrary"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestService_Create(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil, nil)

	t.Run("defaults cover and rating", func(t *testing.T) {
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d Draft) (int, error) {
			assert.Equal(t, "https://covers.openlibrary.org/b/isbn/0123456789-L.jpg", d.CoverURL)
			require.NotNil(t, d.Rating)
			assert.Equal(t, 0.0, *d.Rating)
			assert.Nil(t, d.Note)
			return 1, nil
		})

		id, err := service.Create(context.Background(), validSubmission())

		require.NoError(t, err)
		assert.Equal(t, 1, id)
	})

	t.Run("keeps supplied cover", func(t *testing.T) {
		sub := validSubmission()
		sub.CoverURL = "https://example.com/dune.png"
		sub.Rating = "4.5"
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, d Draft) (int, error) {
			assert.Equal(t, "https://example.com/dune.png", d.CoverURL)
			assert.Equal(t, 4.5, *d.Rating)
			return 2, nil
		})

		_, err := service.Create(context.Background(), sub)
		require.NoError(t, err)
	})

	t.Run("invalid submission never reaches storage", func(t *testing.T) {
		sub := validSubmission()
		sub.ISBN = "123"

		_, err := service.Create(context.Background(), sub)

		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("duplicate isbn", func(t *testing.T) {
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(0, ErrDuplicateISBN)

		_, err := service.Create(context.Background(), validSubmission())

		assert.ErrorIs(t, err, ErrDuplicateISBN)
	})
}

func TestService_CreateThenListReflectsNewBook(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, NewListingCache(time.Hour), nil)
	ctx := context.Background()

	first := Entry{Book: Book{ID: 1, Title: "Dune"}, Rating: 4, Note: NotePlaceholder}
	second := Entry{Book: Book{ID: 2, Title: "Emma"}, Rating: 0, Note: NotePlaceholder}

	gomock.InOrder(
		mockRepo.EXPECT().List(gomock.Any()).Return([]Entry{first}, nil),
		mockRepo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(2, nil),
		mockRepo.EXPECT().List(gomock.Any()).Return([]Entry{first, second}, nil),
	)

	before, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, before, 1)

	_, err = service.Create(ctx, validSubmission())
	require.NoError(t, err)

	after, err := service.List(ctx)
	require.NoError(t, err)
	require.Len(t, after, 2)
	assert.Equal(t, "★★★★☆", after[0].Stars)
	assert.Equal(t, "☆☆☆☆☆", after[1].Stars)
}

func TestService_ListServedFromCache(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, NewListingCache(time.Hour), nil)

	mockRepo.EXPECT().List(gomock.Any()).Return([]Entry{{Book: Book{ID: 1}}}, nil).Times(1)

	for i := 0; i < 3; i++ {
		got, err := service.List(context.Background())
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}
}

func TestService_Update(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil, nil)

	t.Run("success", func(t *testing.T) {
		sub := validSubmission()
		sub.Rating = "3"
		mockRepo.EXPECT().Update(gomock.Any(), 5, gomock.Any()).DoAndReturn(func(_ context.Context, _ int, d Draft) error {
			assert.Equal(t, "Dune", d.Title)
			assert.Equal(t, 3.0, *d.Rating)
			return nil
		})

		require.NoError(t, service.Update(context.Background(), 5, sub))
	})

	t.Run("unknown id", func(t *testing.T) {
		mockRepo.EXPECT().Update(gomock.Any(), 99, gomock.Any()).Return(ErrNotFound)

		err := service.Update(context.Background(), 99, validSubmission())

		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestService_Get(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockRepo := NewMockRepository(ctrl)
	service := NewService(mockRepo, nil, nil)

	long := "This note is long enough to be truncated in the listing but the detail view keeps every word of it intact, " +
		"including the part after the hundred and fiftieth character."
	mockRepo.EXPECT().GetByID(gomock.Any(), 1).Return(Entry{Book: Book{ID: 1}, Rating: 5, Note: long}, nil)

	e, err := service.Get(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, long, e.Note)
	assert.Equal(t, "★★★★★", e.Stars)
}

func TestService_Lookup(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	mockSource := NewMockMetadataSource(ctrl)
	service := NewService(NewMockRepository(ctrl), nil, mockSource)
	ctx := context.Background()

	t.Run("found", func(t *testing.T) {
		details := &openlibrary.BookDetails{Title: "Dune", PublishDate: "1965"}
		details.Authors = append(details.Authors, openlibrary.Author{Name: "Frank Herbert"})
		mockSource.EXPECT().GetBookByISBN(gomock.Any(), "0441013597").Return(details, nil)

		meta, err := service.Lookup(ctx, "0441013597")

		require.NoError(t, err)
		assert.Equal(t, "Dune", meta.Title)
		assert.Equal(t, []string{"Frank Herbert"}, meta.Authors)
		assert.Equal(t, DefaultCoverURL("0441013597"), meta.CoverURL)
	})

	t.Run("not found", func(t *testing.T) {
		mockSource.EXPECT().GetBookByISBN(gomock.Any(), "0123456789").Return(nil, openlibrary.ErrNotFound)

		_, err := service.Lookup(ctx, "0123456789")

		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("invalid isbn", func(t *testing.T) {
		_, err := service.Lookup(ctx, "abc")

		var verr *ValidationError
		assert.True(t, errors.As(err, &verr))
	})

	t.Run("no source configured", func(t *testing.T) {
		_, err := NewService(NewMockRepository(ctrl), nil, nil).Lookup(ctx, "0123456789")

		assert.ErrorIs(t, err, ErrLookupUnavailable)
	})
}
