package service

import (
	"context"
	"fmt"
	"log/slog"

	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/llm"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

// PointsPerPost is awarded for every community post.
const PointsPerPost = 10

// MaxPointsPerAward bounds a single addPoints call. Keep in sync with the
// AddPointsInput validate tag.
const MaxPointsPerAward = 100000

// NotificationCenter is the part of NotificationService the social procedures use.
type NotificationCenter interface {
	Notifier
	List(ctx context.Context, userID string, limit int) ([]models.UserNotification, error)
	MarkAsRead(ctx context.Context, userID, notificationID string) error
}

type SocialService struct {
	library       repository.LibraryRepository
	points        repository.PointsRepository
	posts         repository.PostRepository
	profiles      repository.ProfileRepository
	notifications NotificationCenter
	llm           llm.Client
	flags         *featureflags.Manager
	now           Clock
}

type SocialDeps struct {
	Library       repository.LibraryRepository
	Points        repository.PointsRepository
	Posts         repository.PostRepository
	Profiles      repository.ProfileRepository
	Notifications NotificationCenter
	LLM           llm.Client
	Flags         *featureflags.Manager
	Now           Clock
}

func NewSocialService(d SocialDeps) *SocialService {
	return &SocialService{
		library:       d.Library,
		points:        d.Points,
		posts:         d.Posts,
		profiles:      d.Profiles,
		notifications: d.Notifications,
		llm:           d.LLM,
		flags:         d.Flags,
		now:           clockOrDefault(d.Now),
	}
}

type UserStats struct {
	Points       *models.UserPoints       `json:"points"`
	Achievements int                      `json:"achievements"`
	Badges       []models.UserAchievement `json:"badges"`
}

type AddPointsInput struct {
	UserID string
	Points int    `json:"points" validate:"gte=0,lte=100000"`
	Reason string `json:"reason"`
}

type PointsResult struct {
	Success   bool   `json:"success"`
	NewPoints int    `json:"newPoints"`
	NewLevel  int    `json:"newLevel"`
	Rank      string `json:"rank"`
}

type CreatePostInput struct {
	UserID   string
	Content  string `json:"content" validate:"min=1,max=5000"`
	Category string `json:"category" validate:"oneof=progress motivation question"`
	ImageURL string `json:"imageUrl" validate:"omitempty,url,max=1024"`
}

type AddCommentInput struct {
	UserID  string
	PostID  string `json:"postId" validate:"required"`
	Content string `json:"content" validate:"min=1,max=1000"`
}

type UnlockAchievementInput struct {
	UserID           string
	BadgeID          string `json:"badgeId" validate:"required,max=64"`
	BadgeName        string `json:"badgeName" validate:"required,max=255"`
	BadgeDescription string `json:"badgeDescription" validate:"required"`
	BadgeIcon        string `json:"badgeIcon"`
}

// PostDetail is a post together with its comments.
type PostDetail struct {
	*models.CommunityPost
	CommentList []models.CommunityComment `json:"comments"`
}

type PostResult struct {
	Success bool   `json:"success"`
	PostID  string `json:"postId"`
}

type CommentResult struct {
	Success   bool   `json:"success"`
	CommentID string `json:"commentId"`
}

type LikeResult struct {
	Success bool `json:"success"`
	Likes   int  `json:"likes"`
}

type DailyMotivationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

type AchievementResult struct {
	Success       bool   `json:"success"`
	AchievementID string `json:"achievementId"`
}

var errCommunityDisabled = models.NewForbiddenError("Community posts are not available")

func (s *SocialService) GetVideoClass(ctx context.Context, id string) (*models.VideoClass, error) {
	return s.library.GetVideo(ctx, id)
}

func (s *SocialService) GetVideoClassesByCategory(ctx context.Context, category string, limit int) ([]models.VideoClass, error) {
	if category == "" {
		return nil, models.NewValidationError("category is required")
	}
	return s.library.ListVideosByCategory(ctx, category, clampLimit(limit, 10, 100))
}

func (s *SocialService) GetUserStats(ctx context.Context, userID string) (*UserStats, error) {
	points, err := s.points.GetPoints(ctx, userID)
	if err != nil {
		return nil, err
	}
	if points == nil {
		points = &models.UserPoints{UserID: userID, Level: 1, Rank: models.RankBeginner}
	}
	achievements, err := s.points.ListAchievements(ctx, userID)
	if err != nil {
		return nil, err
	}
	if achievements == nil {
		achievements = []models.UserAchievement{}
	}
	return &UserStats{Points: points, Achievements: len(achievements), Badges: achievements}, nil
}

// AddPoints credits points and recomputes level and rank. Every 1000 points is a level.
func (s *SocialService) AddPoints(ctx context.Context, in AddPointsInput) (*PointsResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	current, err := s.points.GetPoints(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		current = &models.UserPoints{ID: "points_" + in.UserID, UserID: in.UserID}
	}

	current.TotalPoints += in.Points
	current.Level = current.TotalPoints/1000 + 1
	current.Rank = rankForLevel(current.Level)
	current.UpdatedAt = s.now()
	if err := s.points.UpsertPoints(ctx, current); err != nil {
		return nil, err
	}

	return &PointsResult{
		Success:   true,
		NewPoints: current.TotalPoints,
		NewLevel:  current.Level,
		Rank:      current.Rank,
	}, nil
}

func rankForLevel(level int) string {
	switch {
	case level >= 50:
		return models.RankPlatinum
	case level >= 20:
		return models.RankGold
	case level >= 10:
		return models.RankSilver
	case level >= 5:
		return models.RankBronze
	default:
		return models.RankBeginner
	}
}

func (s *SocialService) communityEnabled(userID string) bool {
	return s.flags.Enabled(featureflags.CommunityPosts, userID)
}

func (s *SocialService) GetCommunityPosts(ctx context.Context, userID string, limit, offset int) ([]models.CommunityPost, error) {
	if !s.communityEnabled(userID) {
		return nil, errCommunityDisabled
	}
	if offset < 0 {
		offset = 0
	}
	return s.posts.List(ctx, clampLimit(limit, 10, 100), offset)
}

// GetCommunityPost returns nil when the post does not exist. Unlike the list
// and the write procedures it ignores the community_posts flag.
func (s *SocialService) GetCommunityPost(ctx context.Context, postID string) (*PostDetail, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil || post == nil {
		return nil, err
	}
	comments, err := s.posts.ListComments(ctx, postID)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.CommunityComment{}
	}
	return &PostDetail{CommunityPost: post, CommentList: comments}, nil
}

// CreatePost publishes a post and rewards the author. The reward steps are
// best effort and never fail the post.
func (s *SocialService) CreatePost(ctx context.Context, in CreatePostInput) (*PostResult, error) {
	if !s.communityEnabled(in.UserID) {
		return nil, errCommunityDisabled
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	post := &models.CommunityPost{
		ID:        models.NewID("post", in.UserID, now),
		UserID:    in.UserID,
		Content:   in.Content,
		Category:  in.Category,
		ImageURL:  in.ImageURL,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}

	s.notify(ctx, NotifyInput{
		UserID:  in.UserID,
		Type:    models.NotificationMotivational,
		Title:   "Great job sharing!",
		Message: fmt.Sprintf("You earned %d points for sharing your progress with the community!", PointsPerPost),
	})
	if _, err := s.AddPoints(ctx, AddPointsInput{UserID: in.UserID, Points: PointsPerPost, Reason: "community_post"}); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to award post points",
			slog.String("user_id", in.UserID),
			slog.String("error", err.Error()),
		)
	}

	return &PostResult{Success: true, PostID: post.ID}, nil
}

func (s *SocialService) AddComment(ctx context.Context, in AddCommentInput) (*CommentResult, error) {
	if !s.communityEnabled(in.UserID) {
		return nil, errCommunityDisabled
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	post, err := s.existingPost(ctx, in.PostID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	comment := &models.CommunityComment{
		ID:        models.NewID("comment", in.UserID, now),
		PostID:    post.ID,
		UserID:    in.UserID,
		Content:   in.Content,
		CreatedAt: now,
	}
	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, err
	}

	post.Comments++
	post.UpdatedAt = now
	if err := s.posts.UpdateCounters(ctx, post); err != nil {
		return nil, err
	}
	return &CommentResult{Success: true, CommentID: comment.ID}, nil
}

func (s *SocialService) LikePost(ctx context.Context, userID, postID string) (*LikeResult, error) {
	if !s.communityEnabled(userID) {
		return nil, errCommunityDisabled
	}
	post, err := s.existingPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	post.Likes++
	post.UpdatedAt = s.now()
	if err := s.posts.UpdateCounters(ctx, post); err != nil {
		return nil, err
	}
	return &LikeResult{Success: true, Likes: post.Likes}, nil
}

func (s *SocialService) existingPost(ctx context.Context, postID string) (*models.CommunityPost, error) {
	post, err := s.posts.GetByID(ctx, postID)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, models.NewNotFoundMessage("Post not found")
	}
	return post, nil
}

func (s *SocialService) GetNotifications(ctx context.Context, userID string, limit int) ([]models.UserNotification, error) {
	return s.notifications.List(ctx, userID, limit)
}

func (s *SocialService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	return s.notifications.MarkAsRead(ctx, userID, notificationID)
}

// GenerateMotivationalNotification asks the coach persona for a short nudge
// and delivers it as a notification.
func (s *SocialService) GenerateMotivationalNotification(ctx context.Context, userID, language string) (*DailyMotivationResult, error) {
	message, err := s.motivate(ctx, userID, languageOrDefault(language))
	if err != nil {
		logAIFailure(ctx, "daily_motivation", userID, err)
		return &DailyMotivationResult{Success: false, Error: "Service temporarily unavailable"}, nil
	}
	return &DailyMotivationResult{Success: true, Message: message}, nil
}

func (s *SocialService) motivate(ctx context.Context, userID, language string) (string, error) {
	profile, err := s.profiles.GetByUserID(ctx, userID)
	if err != nil {
		return "", err
	}
	reply, err := s.llm.Complete(ctx, llm.Prompt("daily_motivation",
		dailyMotivationPrompt(profile, language),
		"Generate a motivational notification for me."))
	if err != nil {
		return "", err
	}
	message := orDefault(reply, "You've got this! Take a moment for yourself today.")

	if _, err := s.notifications.Notify(ctx, NotifyInput{
		UserID:  userID,
		Type:    models.NotificationMotivational,
		Title:   "Your Daily Motivation",
		Message: message,
	}); err != nil {
		return "", err
	}
	return message, nil
}

// SendDailyMotivation is the scheduler entry point for one user.
func (s *SocialService) SendDailyMotivation(ctx context.Context, userID string) error {
	_, err := s.motivate(ctx, userID, languageOrDefault(""))
	return err
}

func (s *SocialService) UnlockAchievement(ctx context.Context, in UnlockAchievementInput) (*AchievementResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	achievement := &models.UserAchievement{
		ID:               fmt.Sprintf("achievement_%s_%s_%d", in.UserID, in.BadgeID, now.UnixMilli()),
		UserID:           in.UserID,
		BadgeID:          in.BadgeID,
		BadgeName:        in.BadgeName,
		BadgeDescription: in.BadgeDescription,
		BadgeIcon:        in.BadgeIcon,
		UnlockedAt:       now,
	}
	if err := s.points.CreateAchievement(ctx, achievement); err != nil {
		return nil, err
	}

	s.notify(ctx, NotifyInput{
		UserID:  in.UserID,
		Type:    models.NotificationAchievement,
		Title:   "Achievement Unlocked: " + in.BadgeName,
		Message: in.BadgeDescription,
	})
	return &AchievementResult{Success: true, AchievementID: achievement.ID}, nil
}

// notify sends a notification and only logs failures.
func (s *SocialService) notify(ctx context.Context, in NotifyInput) {
	if s.notifications == nil {
		return
	}
	if _, err := s.notifications.Notify(ctx, in); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to create notification",
			slog.String("user_id", in.UserID),
			slog.String("type", in.Type),
			slog.String("error", err.Error()),
		)
	}
}
