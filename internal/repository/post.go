package repository

import (
	"context"

	"healthbuddy/internal/cache"
	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"

	"gorm.io/gorm"
)

// PostRepository defines the interface for community feed operations.
type PostRepository interface {
	Create(ctx context.Context, post *models.CommunityPost) error
	GetByID(ctx context.Context, id string) (*models.CommunityPost, error)
	List(ctx context.Context, limit, offset int) ([]models.CommunityPost, error)
	// UpdateCounters writes the denormalized likes and comments columns.
	UpdateCounters(ctx context.Context, post *models.CommunityPost) error

	CreateComment(ctx context.Context, comment *models.CommunityComment) error
	ListComments(ctx context.Context, postID string) ([]models.CommunityComment, error)
}

type postRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &postRepository{
		db:     db,
		logger: observability.NewRepoLogger("community_posts"),
	}
}

func (r *postRepository) Create(ctx context.Context, post *models.CommunityPost) error {
	defer observability.TrackQuery("insert", "community_posts")()
	if err := r.db.WithContext(ctx).Create(post).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"post_id": post.ID, "user_id": post.UserID})
	cache.InvalidatePostLists(ctx)
	return nil
}

func (r *postRepository) GetByID(ctx context.Context, id string) (*models.CommunityPost, error) {
	var post models.CommunityPost
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&post).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.CommunityPost, error) {
	var posts []models.CommunityPost
	err := cache.Aside(ctx, cache.PostListKey(limit, offset), &posts, cache.PostListTTL, func() error {
		defer observability.TrackQuery("select", "community_posts")()
		return readDB(r.db).WithContext(ctx).
			Order("created_at DESC").
			Limit(limit).
			Offset(offset).
			Find(&posts).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return posts, nil
}

func (r *postRepository) UpdateCounters(ctx context.Context, post *models.CommunityPost) error {
	if err := r.db.WithContext(ctx).Model(&models.CommunityPost{}).
		Where("id = ?", post.ID).
		Updates(map[string]interface{}{
			"likes":      post.Likes,
			"comments":   post.Comments,
			"updated_at": post.UpdatedAt,
		}).Error; err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePostLists(ctx)
	return nil
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.CommunityComment) error {
	if err := r.db.WithContext(ctx).Create(comment).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *postRepository) ListComments(ctx context.Context, postID string) ([]models.CommunityComment, error) {
	var comments []models.CommunityComment
	if err := readDB(r.db).WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at ASC").
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}
