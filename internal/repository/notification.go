package repository

import (
	"context"

	"healthbuddy/internal/models"

	"gorm.io/gorm"
)

// NotificationRepository persists in-app notifications.
type NotificationRepository interface {
	Create(ctx context.Context, n *models.UserNotification) error
	ListByUser(ctx context.Context, userID string, limit int) ([]models.UserNotification, error)
	// MarkRead flags the notification as read when it belongs to userID and
	// reports whether such a row existed.
	MarkRead(ctx context.Context, id, userID string) (bool, error)
}

type notificationRepository struct {
	db *gorm.DB
}

func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func (r *notificationRepository) Create(ctx context.Context, n *models.UserNotification) error {
	if err := r.db.WithContext(ctx).Create(n).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *notificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]models.UserNotification, error) {
	var out []models.UserNotification
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&out).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return out, nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id, userID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.UserNotification{}).
		Where("id = ? AND user_id = ?", id, userID).
		Update("is_read", true)
	if res.Error != nil {
		return false, models.NewInternalError(res.Error)
	}
	return res.RowsAffected > 0, nil
}
