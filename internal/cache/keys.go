package cache

import (
	"context"
	"fmt"
	"time"
)

const (
	PlansKey            = "plans:all"
	WorkoutKeyPrefix    = "workout:%s"
	MeditationKeyPrefix = "meditation:%s"
	RecipeKeyPrefix     = "recipe:%s"
	VideoKeyPrefix      = "video:%s"
	PostListKeyPrefix   = "posts:list:%d:%d"
	postListPattern     = "posts:list:*"
)

const (
	PlansTTL    = 10 * time.Minute
	LibraryTTL  = 10 * time.Minute
	PostListTTL = 30 * time.Second
)

func WorkoutKey(id string) string {
	return fmt.Sprintf(WorkoutKeyPrefix, id)
}

func MeditationKey(id string) string {
	return fmt.Sprintf(MeditationKeyPrefix, id)
}

func RecipeKey(id string) string {
	return fmt.Sprintf(RecipeKeyPrefix, id)
}

func VideoKey(id string) string {
	return fmt.Sprintf(VideoKeyPrefix, id)
}

// PostListKey is the key of one page of the community feed.
func PostListKey(limit, offset int) string {
	return fmt.Sprintf(PostListKeyPrefix, limit, offset)
}

func Invalidate(ctx context.Context, key string) {
	if client != nil {
		client.Del(ctx, key)
	}
}

func InvalidatePlans(ctx context.Context) {
	Invalidate(ctx, PlansKey)
}

// InvalidatePostLists drops every cached feed page.
func InvalidatePostLists(ctx context.Context) {
	if client == nil {
		return
	}
	iter := client.Scan(ctx, 0, postListPattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil || len(keys) == 0 {
		return
	}
	client.Del(ctx, keys...)
}
