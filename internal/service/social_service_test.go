package service

import (
	"context"
	"math"
	"testing"

	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type socialFixture struct {
	svc      *SocialService
	library  *libraryRepoStub
	points   *pointsRepoStub
	posts    *postRepoStub
	profiles *profileRepoStub
	notifs   *notificationRepoStub
	llm      *llmStub
}

func newSocialFixture(flags string) *socialFixture {
	f := &socialFixture{
		library:  &libraryRepoStub{},
		points:   newPointsRepoStub(),
		posts:    newPostRepoStub(),
		profiles: newProfileRepoStub(),
		notifs:   &notificationRepoStub{},
		llm:      &llmStub{},
	}
	f.svc = NewSocialService(SocialDeps{
		Library:       f.library,
		Points:        f.points,
		Posts:         f.posts,
		Profiles:      f.profiles,
		Notifications: NewNotificationService(f.notifs, nil, fixedClock),
		LLM:           f.llm,
		Flags:         featureflags.NewManager(flags),
		Now:           fixedClock,
	})
	return f
}

func TestRankForLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level int
		want  string
	}{
		{1, models.RankBeginner},
		{4, models.RankBeginner},
		{5, models.RankBronze},
		{10, models.RankSilver},
		{19, models.RankSilver},
		{20, models.RankGold},
		{50, models.RankPlatinum},
		{120, models.RankPlatinum},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, rankForLevel(tt.level), "level %d", tt.level)
	}
}

func TestSocialService_Points(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")

	stats, err := f.svc.GetUserStats(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 0, stats.Points.TotalPoints)
	assert.Equal(t, 1, stats.Points.Level)
	assert.Equal(t, models.RankBeginner, stats.Points.Rank)
	assert.Equal(t, 0, stats.Achievements)
	assert.NotNil(t, stats.Badges)

	res, err := f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: 4999})
	require.NoError(t, err)
	assert.Equal(t, 4999, res.NewPoints)
	assert.Equal(t, 5, res.NewLevel)
	assert.Equal(t, models.RankBronze, res.Rank)

	res, err = f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: 5001})
	require.NoError(t, err)
	assert.Equal(t, 10000, res.NewPoints)
	assert.Equal(t, 11, res.NewLevel)
	assert.Equal(t, models.RankSilver, res.Rank)

	_, err = f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: -5})
	assertAppError(t, err, models.CodeValidation)

	_, err = f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: math.MaxInt})
	assertAppError(t, err, models.CodeValidation)
	_, err = f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: MaxPointsPerAward + 1})
	assertAppError(t, err, models.CodeValidation)
	assert.Equal(t, 10000, f.points.points["u1"].TotalPoints)

	res, err = f.svc.AddPoints(context.Background(), AddPointsInput{UserID: "u1", Points: MaxPointsPerAward})
	require.NoError(t, err)
	assert.Equal(t, 110000, res.NewPoints)
	assert.Equal(t, 111, res.NewLevel)
	assert.Equal(t, models.RankPlatinum, res.Rank)
}

func TestSocialService_CreatePost(t *testing.T) {
	t.Parallel()

	t.Run("creates post, notifies and awards points", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("")

		res, err := f.svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1", Content: "Ran 5k!", Category: "progress"})
		require.NoError(t, err)
		assert.True(t, res.Success)

		post := f.posts.posts[res.PostID]
		require.NotNil(t, post)
		assert.Zero(t, post.Likes)
		assert.Zero(t, post.Comments)

		require.Len(t, f.notifs.items, 1)
		assert.Equal(t, "Great job sharing!", f.notifs.items[0].Title)
		assert.Equal(t, "You earned 10 points for sharing your progress with the community!", f.notifs.items[0].Message)
		assert.Equal(t, PointsPerPost, f.points.points["u1"].TotalPoints)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("")

		_, err := f.svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1", Content: "x", Category: "rant"})
		assertAppError(t, err, models.CodeValidation)
		_, err = f.svc.CreatePost(context.Background(), CreatePostInput{UserID: "u1", Content: "", Category: "question"})
		assertAppError(t, err, models.CodeValidation)
	})

}

func TestSocialService_CommunityFlagOff(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("list is gated", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("community_posts=off")

		_, err := f.svc.GetCommunityPosts(ctx, "", 10, 0)
		assertAppError(t, err, models.CodeForbidden)
		_, err = f.svc.GetCommunityPosts(ctx, "u1", 10, 0)
		assertAppError(t, err, models.CodeForbidden)
	})

	t.Run("createPost is gated", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("community_posts=off")

		_, err := f.svc.CreatePost(ctx, CreatePostInput{UserID: "u1", Content: "hi", Category: "question"})
		assertAppError(t, err, models.CodeForbidden)
		assert.Empty(t, f.posts.posts)
		assert.Empty(t, f.notifs.items)
	})

	t.Run("addComment is gated", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("community_posts=off")
		f.posts.posts["p1"] = &models.CommunityPost{ID: "p1", UserID: "u2", Content: "hello", Category: "question"}

		_, err := f.svc.AddComment(ctx, AddCommentInput{UserID: "u1", PostID: "p1", Content: "welcome"})
		assertAppError(t, err, models.CodeForbidden)
		assert.Zero(t, f.posts.posts["p1"].Comments)
	})

	t.Run("likePost is gated", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("community_posts=off")
		f.posts.posts["p1"] = &models.CommunityPost{ID: "p1", UserID: "u2", Content: "hello", Category: "question"}

		_, err := f.svc.LikePost(ctx, "u1", "p1")
		assertAppError(t, err, models.CodeForbidden)
		assert.Zero(t, f.posts.posts["p1"].Likes)
	})

	t.Run("single post stays readable", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("community_posts=off")
		f.posts.posts["p1"] = &models.CommunityPost{ID: "p1", UserID: "u2", Content: "hello", Category: "question"}

		detail, err := f.svc.GetCommunityPost(ctx, "p1")
		require.NoError(t, err)
		require.NotNil(t, detail)
		assert.Equal(t, "hello", detail.Content)
		assert.Empty(t, detail.CommentList)
	})
}

func TestSocialService_CommentsAndLikes(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")
	f.posts.posts["p1"] = &models.CommunityPost{ID: "p1", UserID: "u2", Content: "hello", Category: "question"}

	res, err := f.svc.AddComment(context.Background(), AddCommentInput{UserID: "u1", PostID: "p1", Content: "welcome"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, 1, f.posts.posts["p1"].Comments)

	like, err := f.svc.LikePost(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, like.Likes)

	detail, err := f.svc.GetCommunityPost(context.Background(), "p1")
	require.NoError(t, err)
	require.NotNil(t, detail)
	assert.Len(t, detail.CommentList, 1)

	missing, err := f.svc.GetCommunityPost(context.Background(), "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = f.svc.AddComment(context.Background(), AddCommentInput{UserID: "u1", PostID: "nope", Content: "x"})
	assertAppError(t, err, models.CodeNotFound)
	_, err = f.svc.LikePost(context.Background(), "u1", "nope")
	assertAppError(t, err, models.CodeNotFound)
}

func TestSocialService_GetCommunityPostsDefaults(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")

	_, err := f.svc.GetCommunityPosts(context.Background(), "", 0, -3)
	require.NoError(t, err)
	assert.Equal(t, [2]int{10, 0}, f.posts.listArgs)
}

func TestSocialService_Motivation(t *testing.T) {
	t.Parallel()

	t.Run("fallback message is delivered", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("")

		res, err := f.svc.GenerateMotivationalNotification(context.Background(), "u1", "")
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "You've got this! Take a moment for yourself today.", res.Message)

		require.Len(t, f.notifs.items, 1)
		assert.Equal(t, models.NotificationMotivational, f.notifs.items[0].Type)
		assert.Equal(t, "Your Daily Motivation", f.notifs.items[0].Title)
	})

	t.Run("llm failure", func(t *testing.T) {
		t.Parallel()
		f := newSocialFixture("")
		f.llm.err = errBoom

		res, err := f.svc.GenerateMotivationalNotification(context.Background(), "u1", "en")
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Service temporarily unavailable", res.Error)
		assert.Empty(t, f.notifs.items)

		assert.ErrorIs(t, f.svc.SendDailyMotivation(context.Background(), "u1"), errBoom)
	})
}

func TestSocialService_UnlockAchievement(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")

	res, err := f.svc.UnlockAchievement(context.Background(), UnlockAchievementInput{
		UserID:           "u1",
		BadgeID:          "first_walk",
		BadgeName:        "First Walk",
		BadgeDescription: "Logged your first walk",
	})
	require.NoError(t, err)
	assert.Equal(t, "achievement_u1_first_walk_1773144000000", res.AchievementID)

	require.Len(t, f.points.achievements, 1)
	require.Len(t, f.notifs.items, 1)
	assert.Equal(t, "Achievement Unlocked: First Walk", f.notifs.items[0].Title)
	assert.Equal(t, "Logged your first walk", f.notifs.items[0].Message)
}

func TestSocialService_Notifications(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")
	f.notifs.items = []models.UserNotification{{ID: "n1", UserID: "u1"}, {ID: "n2", UserID: "u2"}}

	items, err := f.svc.GetNotifications(context.Background(), "u1", 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	require.NoError(t, f.svc.MarkAsRead(context.Background(), "u1", "n1"))
	assertAppError(t, f.svc.MarkAsRead(context.Background(), "u1", "n2"), models.CodeNotFound)
}

func TestSocialService_Videos(t *testing.T) {
	t.Parallel()
	f := newSocialFixture("")
	f.library.videos = []models.VideoClass{{ID: "v1", Category: "yoga"}, {ID: "v2", Category: "pilates"}}

	videos, err := f.svc.GetVideoClassesByCategory(context.Background(), "yoga", 0)
	require.NoError(t, err)
	require.Len(t, videos, 1)

	v, err := f.svc.GetVideoClass(context.Background(), "v2")
	require.NoError(t, err)
	assert.Equal(t, "pilates", v.Category)
}
