package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

// Publisher pushes a serialized event to one user's realtime channel.
type Publisher interface {
	PublishUser(ctx context.Context, userID string, payload string) error
}

// NotifyInput describes a notification to create.
type NotifyInput struct {
	UserID    string
	Type      string `validate:"oneof=achievement reminder community motivational system"`
	Title     string `validate:"required,max=255"`
	Message   string `validate:"required"`
	ActionURL string
}

// NotificationEvent is the realtime envelope sent to connected clients.
type NotificationEvent struct {
	Type    string                   `json:"type"`
	Payload *models.UserNotification `json:"payload"`
}

type NotificationService struct {
	repo      repository.NotificationRepository
	publisher Publisher
	now       Clock
}

func NewNotificationService(repo repository.NotificationRepository, publisher Publisher, now Clock) *NotificationService {
	return &NotificationService{
		repo:      repo,
		publisher: publisher,
		now:       clockOrDefault(now),
	}
}

// Notify persists a notification and publishes it to the user's channel.
// Publishing is best effort: a failed publish is logged, not returned.
func (s *NotificationService) Notify(ctx context.Context, in NotifyInput) (*models.UserNotification, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	n := &models.UserNotification{
		ID:        models.NewID("notif", in.UserID, now),
		UserID:    in.UserID,
		Type:      in.Type,
		Title:     in.Title,
		Message:   in.Message,
		ActionURL: in.ActionURL,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, n); err != nil {
		return nil, err
	}

	s.publish(ctx, n)
	return n, nil
}

func (s *NotificationService) publish(ctx context.Context, n *models.UserNotification) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(NotificationEvent{Type: "notification", Payload: n})
	if err != nil {
		return
	}
	if err := s.publisher.PublishUser(ctx, n.UserID, string(payload)); err != nil {
		middleware.Logger.WarnContext(ctx, "failed to publish notification",
			slog.String("notification_id", n.ID),
			slog.String("error", err.Error()),
		)
	}
}

// List returns the newest notifications of a user. limit defaults to 10.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.UserNotification, error) {
	return s.repo.ListByUser(ctx, userID, clampLimit(limit, 10, 100))
}

// MarkAsRead flags one of the user's notifications as read.
func (s *NotificationService) MarkAsRead(ctx context.Context, userID, notificationID string) error {
	ok, err := s.repo.MarkRead(ctx, notificationID, userID)
	if err != nil {
		return err
	}
	if !ok {
		return models.NewNotFoundError("Notification", notificationID)
	}
	return nil
}
