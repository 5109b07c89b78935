package repository

import (
	"context"

	"healthbuddy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PointsRepository persists gamification state: points, levels and badges.
type PointsRepository interface {
	GetPoints(ctx context.Context, userID string) (*models.UserPoints, error)
	// UpsertPoints writes the totals for points.UserID, keyed on user id.
	UpsertPoints(ctx context.Context, points *models.UserPoints) error
	CreateAchievement(ctx context.Context, a *models.UserAchievement) error
	ListAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error)
}

type pointsRepository struct {
	db *gorm.DB
}

// NewPointsRepository returns a gorm-backed PointsRepository.
func NewPointsRepository(db *gorm.DB) PointsRepository {
	return &pointsRepository{db: db}
}

func (r *pointsRepository) GetPoints(ctx context.Context, userID string) (*models.UserPoints, error) {
	var points models.UserPoints
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&points).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &points, nil
}

func (r *pointsRepository) UpsertPoints(ctx context.Context, points *models.UserPoints) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_points", "current_streak", "longest_streak", "level", "rank", "updated_at",
		}),
	}).Create(points).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pointsRepository) CreateAchievement(ctx context.Context, a *models.UserAchievement) error {
	if err := r.db.WithContext(ctx).Create(a).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *pointsRepository) ListAchievements(ctx context.Context, userID string) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("unlocked_at DESC").
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}
