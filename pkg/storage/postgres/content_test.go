package postgres_test

import (
	"context"
	"qrportal/pkg/domain"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func newQuiz(author domain.UserID, title string) domain.Content {
	return domain.Content{
		AuthorID: author,
		Kind:     domain.ContentKindQuiz,
		Title:    title,
		Category: "science",
		Quiz: &domain.Quiz{Questions: []domain.Question{
			{Question: "2+2?", Options: []string{"3", "4"}, Correct: 1},
		}},
	}
}

func newVideo(author domain.UserID, title string) domain.Content {
	return domain.Content{
		AuthorID:    author,
		Kind:        domain.ContentKindVideo,
		Title:       title,
		Description: "an introduction",
		Video:       &domain.Video{URL: "https://videos.test/embed/1", Duration: "25:30"},
	}
}

func TestPgSQL_StoreContent(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	author := domain.UserID(uuid.New())

	t.Run("quiz", func(t *testing.T) {
		t.Parallel()

		in := newQuiz(author, "Basics")
		got, err := pgSQL.StoreContent(ctx, in)
		require.NoError(t, err)
		require.NotEqual(t, uuid.Nil, uuid.UUID(got.ID))
		require.False(t, got.CreatedAt.IsZero())
		require.Equal(t, in.Title, got.Title)
		require.Equal(t, in.Quiz, got.Quiz)
		require.Nil(t, got.Video)

		byID, err := pgSQL.ContentByID(ctx, domain.ContentKindQuiz, got.ID)
		require.NoError(t, err)
		require.Equal(t, got.Quiz, byID.Quiz)
		require.Equal(t, "science", byID.Category)
	})

	t.Run("video", func(t *testing.T) {
		t.Parallel()

		in := newVideo(author, "Intro")
		got, err := pgSQL.StoreContent(ctx, in)
		require.NoError(t, err)
		require.Equal(t, in.Video, got.Video)

		// the kind is part of the address
		other, err := pgSQL.ContentByID(ctx, domain.ContentKindQuiz, got.ID)
		require.NoError(t, err)
		require.Nil(t, other)
	})

	t.Run("unknown kind", func(t *testing.T) {
		t.Parallel()

		_, err := pgSQL.StoreContent(ctx, domain.Content{AuthorID: author, Kind: "podcast", Title: "x"})
		require.Error(t, err)
	})
}

func TestPgSQL_ListContent(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	author := domain.UserID(uuid.New())

	for _, title := range []string{"q1", "q2", "q3"} {
		_, err := pgSQL.StoreContent(ctx, newQuiz(author, title))
		require.NoError(t, err)
		// created_at must differ for cursor pagination
		time.Sleep(10 * time.Millisecond)
	}
	_, err := pgSQL.StoreContent(ctx, newVideo(author, "v1"))
	require.NoError(t, err)

	page, err := pgSQL.ListContent(ctx, domain.ContentKindQuiz, time.Time{}, 2)
	require.NoError(t, err)
	require.Len(t, page.Contents, 2)
	require.Equal(t, "q3", page.Contents[0].Title)
	require.Equal(t, "q2", page.Contents[1].Title)
	require.NotNil(t, page.NextCursor)

	page, err = pgSQL.ListContent(ctx, domain.ContentKindQuiz, *page.NextCursor, 2)
	require.NoError(t, err)
	require.Len(t, page.Contents, 1)
	require.Equal(t, "q1", page.Contents[0].Title)
	require.Nil(t, page.NextCursor)

	videos, err := pgSQL.ListContent(ctx, domain.ContentKindVideo, time.Time{}, 10)
	require.NoError(t, err)
	require.Len(t, videos.Contents, 1)
}

func TestPgSQL_DeleteContent(t *testing.T) {
	t.Parallel()

	pgSQL, cleanup := setupTestDB(t)
	t.Cleanup(cleanup)
	ctx := context.Background()
	author := domain.UserID(uuid.New())

	c, err := pgSQL.StoreContent(ctx, newVideo(author, "v"))
	require.NoError(t, err)

	// someone else cannot delete it
	res, err := pgSQL.DeleteContent(ctx, domain.UserID(uuid.New()), domain.ContentKindVideo, c.ID)
	require.NoError(t, err)
	require.Nil(t, res)

	res, err = pgSQL.DeleteContent(ctx, author, domain.ContentKindVideo, c.ID)
	require.NoError(t, err)
	require.NotNil(t, res)
	require.False(t, res.DeletedAt.IsZero())

	// soft-deleted rows are invisible
	got, err := pgSQL.ContentByID(ctx, domain.ContentKindVideo, c.ID)
	require.NoError(t, err)
	require.Nil(t, got)

	res, err = pgSQL.DeleteContent(ctx, author, domain.ContentKindVideo, c.ID)
	require.NoError(t, err)
	require.Nil(t, res)
}
