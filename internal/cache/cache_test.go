package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type item struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

func useMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	prev := client
	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() {
		_ = client.Close()
		client = prev
	})
	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *item) func() error {
		return func() error {
			calls++
			*dest = item{ID: "w1", Name: "Morning Run"}
			return nil
		}
	}

	var first item
	require.NoError(t, Aside(ctx, WorkoutKey("w1"), &first, LibraryTTL, fetch(&first)))
	assert.Equal(t, "Morning Run", first.Name)
	assert.Equal(t, 1, calls)
	assert.True(t, mr.Exists("workout:w1"))

	var second item
	require.NoError(t, Aside(ctx, WorkoutKey("w1"), &second, LibraryTTL, fetch(&second)))
	assert.Equal(t, "Morning Run", second.Name)
	assert.Equal(t, 1, calls, "second read should be served from redis")

	mr.FastForward(LibraryTTL + time.Second)
	var third item
	require.NoError(t, Aside(ctx, WorkoutKey("w1"), &third, LibraryTTL, fetch(&third)))
	assert.Equal(t, 2, calls)
}

func TestAside_FetchErrorIsNotCached(t *testing.T) {
	mr := useMiniredis(t)

	var dest item
	err := Aside(context.Background(), RecipeKey("r1"), &dest, LibraryTTL, func() error {
		return errors.New("db down")
	})
	assert.EqualError(t, err, "db down")
	assert.False(t, mr.Exists("recipe:r1"))
}

func TestAside_RedisOutageFallsBackToSource(t *testing.T) {
	mr := useMiniredis(t)
	mr.Close()

	var dest item
	err := Aside(context.Background(), VideoKey("v1"), &dest, LibraryTTL, func() error {
		dest = item{ID: "v1"}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, "v1", dest.ID)
}

func TestAside_NoClient(t *testing.T) {
	prev := client
	client = nil
	t.Cleanup(func() { client = prev })

	calls := 0
	var dest []item
	require.NoError(t, Aside(context.Background(), PlansKey, &dest, PlansTTL, func() error {
		calls++
		dest = []item{{ID: "plan_basic"}}
		return nil
	}))
	assert.Equal(t, 1, calls)
	assert.Len(t, dest, 1)
}

func TestInvalidatePostLists(t *testing.T) {
	mr := useMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostListKey(10, 0), []item{{ID: "p1"}}, PostListTTL))
	require.NoError(t, SetJSON(ctx, PostListKey(10, 10), []item{{ID: "p2"}}, PostListTTL))
	require.NoError(t, SetJSON(ctx, PlansKey, []item{{ID: "plan_basic"}}, PlansTTL))

	InvalidatePostLists(ctx)

	assert.False(t, mr.Exists(PostListKey(10, 0)))
	assert.False(t, mr.Exists(PostListKey(10, 10)))
	assert.True(t, mr.Exists(PlansKey))

	InvalidatePlans(ctx)
	assert.False(t, mr.Exists(PlansKey))
}

func TestKeyPrefix(t *testing.T) {
	assert.Equal(t, "posts", keyPrefix(PostListKey(10, 0)))
	assert.Equal(t, "plans", keyPrefix(PlansKey))
	assert.Equal(t, "bare", keyPrefix("bare"))
}
