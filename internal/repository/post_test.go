package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"healthbuddy/internal/cache"
	"healthbuddy/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPostRepository_UpdateCountersQuery(t *testing.T) {
	db, mock := setupMockDB(t)
	repo := NewPostRepository(db)
	at := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "community_posts" SET "comments"=$1,"likes"=$2,"updated_at"=$3 WHERE id = $4`)).
		WithArgs(2, 5, at, "post_u1_1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.UpdateCounters(context.Background(), &models.CommunityPost{
		ID: "post_u1_1", Likes: 5, Comments: 2, UpdatedAt: at,
	})
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostRepository_ListNewestFirstAndCounters(t *testing.T) {
	t.Parallel()
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"p1", "p2", "p3"} {
		require.NoError(t, repo.Create(ctx, &models.CommunityPost{
			ID: id, UserID: "u1", Content: id, Category: "motivation",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}))
	}

	page, err := repo.List(ctx, 2, 0)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p3", page[0].ID)
	assert.Equal(t, "p2", page[1].ID)

	next, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, next, 1)
	assert.Equal(t, "p1", next[0].ID)

	post, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	post.Likes = 3
	post.Comments = 1
	require.NoError(t, repo.UpdateCounters(ctx, post))

	reloaded, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 3, reloaded.Likes)
	assert.Equal(t, 1, reloaded.Comments)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestPostRepository_Comments(t *testing.T) {
	t.Parallel()
	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	base := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateComment(ctx, &models.CommunityComment{ID: "c2", PostID: "p1", UserID: "u2", Content: "second", CreatedAt: base.Add(time.Minute)}))
	require.NoError(t, repo.CreateComment(ctx, &models.CommunityComment{ID: "c1", PostID: "p1", UserID: "u3", Content: "first", CreatedAt: base}))
	require.NoError(t, repo.CreateComment(ctx, &models.CommunityComment{ID: "c3", PostID: "p2", UserID: "u3", Content: "other"}))

	comments, err := repo.ListComments(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Content)
}

// Not parallel: swaps the package-level cache client.
func TestPostRepository_ListIsCachedAndInvalidatedOnCreate(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cache.SetClient(rdb)
	t.Cleanup(func() {
		cache.SetClient(nil)
		_ = rdb.Close()
	})

	db := setupSQLite(t)
	repo := NewPostRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.CommunityPost{ID: "p1", UserID: "u1", Content: "hi", Category: "question"}))

	first, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.True(t, mr.Exists(cache.PostListKey(10, 0)))

	// A row written behind the repository is not visible until the page expires.
	require.NoError(t, db.Create(&models.CommunityPost{ID: "p2", UserID: "u1", Content: "sneaky", Category: "question"}).Error)
	cached, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, cached, 1)

	require.NoError(t, repo.Create(ctx, &models.CommunityPost{ID: "p3", UserID: "u1", Content: "new", Category: "progress"}))
	assert.False(t, mr.Exists(cache.PostListKey(10, 0)))

	fresh, err := repo.List(ctx, 10, 0)
	require.NoError(t, err)
	assert.Len(t, fresh, 3)
}
