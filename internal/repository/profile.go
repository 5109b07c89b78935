package repository

import (
	"context"
	"time"

	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"

	"gorm.io/gorm"
)

// ProfileRepository persists user profiles, tracking logs and AI conversations.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error)
	Create(ctx context.Context, profile *models.UserProfile) error
	Save(ctx context.Context, profile *models.UserProfile) error
	ListUserIDs(ctx context.Context) ([]string, error)

	CreateHealthEntry(ctx context.Context, entry *models.HealthEntry) error
	ListHealthEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.HealthEntry, error)
	LatestHealthEntry(ctx context.Context, userID string) (*models.HealthEntry, error)

	CreateNutritionEntry(ctx context.Context, entry *models.NutritionEntry) error
	ListNutritionEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.NutritionEntry, error)

	CreateConversation(ctx context.Context, turn *models.AIConversation) error
	// ListConversations returns the newest limit turns, oldest first.
	ListConversations(ctx context.Context, userID string, limit int) ([]models.AIConversation, error)
}

type profileRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewProfileRepository returns a gorm-backed ProfileRepository.
func NewProfileRepository(db *gorm.DB) ProfileRepository {
	return &profileRepository{
		db:     db,
		logger: observability.NewRepoLogger("user_profiles"),
	}
}

func (r *profileRepository) GetByUserID(ctx context.Context, userID string) (*models.UserProfile, error) {
	var profile models.UserProfile
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&profile).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &profile, nil
}

func (r *profileRepository) Create(ctx context.Context, profile *models.UserProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		if isUniqueConstraintError(err) {
			return models.NewConflictError("Profile already exists")
		}
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{"user_id": profile.UserID})
	return nil
}

func (r *profileRepository) Save(ctx context.Context, profile *models.UserProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{"user_id": profile.UserID})
	return nil
}

func (r *profileRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := readDB(r.db).WithContext(ctx).
		Model(&models.UserProfile{}).
		Order("user_id ASC").
		Pluck("user_id", &ids).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return ids, nil
}

func (r *profileRepository) CreateHealthEntry(ctx context.Context, entry *models.HealthEntry) error {
	defer observability.TrackQuery("insert", "health_tracking")()
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) ListHealthEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.HealthEntry, error) {
	var entries []models.HealthEntry
	q := dateRange(readDB(r.db).WithContext(ctx).Where("user_id = ?", userID), start, end)
	if err := q.Order("date ASC").Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *profileRepository) LatestHealthEntry(ctx context.Context, userID string) (*models.HealthEntry, error) {
	var entry models.HealthEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("date DESC").
		Order("created_at DESC").
		First(&entry).Error
	if err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &entry, nil
}

func (r *profileRepository) CreateNutritionEntry(ctx context.Context, entry *models.NutritionEntry) error {
	defer observability.TrackQuery("insert", "nutrition_tracking")()
	if err := r.db.WithContext(ctx).Create(entry).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) ListNutritionEntries(ctx context.Context, userID string, start, end *time.Time) ([]models.NutritionEntry, error) {
	var entries []models.NutritionEntry
	q := dateRange(readDB(r.db).WithContext(ctx).Where("user_id = ?", userID), start, end)
	if err := q.Order("date ASC").Find(&entries).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return entries, nil
}

func (r *profileRepository) CreateConversation(ctx context.Context, turn *models.AIConversation) error {
	if err := r.db.WithContext(ctx).Create(turn).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *profileRepository) ListConversations(ctx context.Context, userID string, limit int) ([]models.AIConversation, error) {
	var turns []models.AIConversation
	if err := readDB(r.db).WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&turns).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	for i, j := 0, len(turns)-1; i < j; i, j = i+1, j-1 {
		turns[i], turns[j] = turns[j], turns[i]
	}
	return turns, nil
}

// dateRange applies an inclusive bound on the date column.
func dateRange(q *gorm.DB, start, end *time.Time) *gorm.DB {
	if start != nil {
		q = q.Where("date >= ?", *start)
	}
	if end != nil {
		q = q.Where("date <= ?", *end)
	}
	return q
}
