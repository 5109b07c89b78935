package repository

import (
	"context"
	"time"

	"healthbuddy/internal/cache"
	"healthbuddy/internal/models"
	"healthbuddy/internal/observability"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubscriptionRepository persists plans, user subscriptions and payment transactions.
type SubscriptionRepository interface {
	ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error)
	GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error)
	UpsertPlan(ctx context.Context, plan *models.SubscriptionPlan) error

	GetByUserID(ctx context.Context, userID string) (*models.UserSubscription, error)
	GetByStripeSubscriptionID(ctx context.Context, stripeID string) (*models.UserSubscription, error)
	Create(ctx context.Context, sub *models.UserSubscription) error
	Save(ctx context.Context, sub *models.UserSubscription) error
	ListExpiredTrials(ctx context.Context, now time.Time) ([]models.UserSubscription, error)

	CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error
	// UpdateTransactionStatus sets the status of the transaction carrying the
	// given payment intent id and reports how many rows changed.
	UpdateTransactionStatus(ctx context.Context, paymentIntentID, status string) (int64, error)
}

type subscriptionRepository struct {
	db     *gorm.DB
	logger *observability.RepoLogger
}

// NewSubscriptionRepository returns a gorm-backed SubscriptionRepository.
func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepository{
		db:     db,
		logger: observability.NewRepoLogger("user_subscriptions"),
	}
}

func (r *subscriptionRepository) ListPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	var plans []models.SubscriptionPlan
	err := cache.Aside(ctx, cache.PlansKey, &plans, cache.PlansTTL, func() error {
		defer observability.TrackQuery("select", "subscription_plans")()
		return readDB(r.db).WithContext(ctx).Order("id ASC").Find(&plans).Error
	})
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return plans, nil
}

func (r *subscriptionRepository) GetPlan(ctx context.Context, id string) (*models.SubscriptionPlan, error) {
	var plan models.SubscriptionPlan
	if err := readDB(r.db).WithContext(ctx).Where("id = ?", id).First(&plan).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &plan, nil
}

func (r *subscriptionRepository) UpsertPlan(ctx context.Context, plan *models.SubscriptionPlan) error {
	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "currency", "billing_period", "features", "updated_at"}),
	}).Create(plan).Error
	if err != nil {
		return models.NewInternalError(err)
	}
	cache.InvalidatePlans(ctx)
	return nil
}

func (r *subscriptionRepository) GetByUserID(ctx context.Context, userID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).First(&sub).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) GetByStripeSubscriptionID(ctx context.Context, stripeID string) (*models.UserSubscription, error) {
	var sub models.UserSubscription
	if err := r.db.WithContext(ctx).Where("stripe_subscription_id = ?", stripeID).First(&sub).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &sub, nil
}

func (r *subscriptionRepository) Create(ctx context.Context, sub *models.UserSubscription) error {
	defer observability.TrackQuery("insert", "user_subscriptions")()
	if err := r.db.WithContext(ctx).Create(sub).Error; err != nil {
		r.logger.LogError(ctx, err, "create")
		return models.NewInternalError(err)
	}
	r.logger.LogCreate(ctx, map[string]interface{}{
		"subscription_id": sub.ID,
		"user_id":         sub.UserID,
		"status":          sub.Status,
	})
	return nil
}

func (r *subscriptionRepository) Save(ctx context.Context, sub *models.UserSubscription) error {
	defer observability.TrackQuery("update", "user_subscriptions")()
	if err := r.db.WithContext(ctx).Save(sub).Error; err != nil {
		r.logger.LogError(ctx, err, "update")
		return models.NewInternalError(err)
	}
	r.logger.LogUpdate(ctx, map[string]interface{}{
		"subscription_id": sub.ID,
		"status":          sub.Status,
	})
	return nil
}

func (r *subscriptionRepository) ListExpiredTrials(ctx context.Context, now time.Time) ([]models.UserSubscription, error) {
	var subs []models.UserSubscription
	if err := r.db.WithContext(ctx).
		Where("status = ? AND trial_ends_at IS NOT NULL AND trial_ends_at <= ?", models.SubscriptionTrial, now).
		Order("trial_ends_at ASC").
		Find(&subs).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return subs, nil
}

func (r *subscriptionRepository) CreateTransaction(ctx context.Context, txn *models.PaymentTransaction) error {
	if err := r.db.WithContext(ctx).Create(txn).Error; err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (r *subscriptionRepository) UpdateTransactionStatus(ctx context.Context, paymentIntentID, status string) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PaymentTransaction{}).
		Where("stripe_payment_intent_id = ?", paymentIntentID).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return 0, models.NewInternalError(res.Error)
	}
	return res.RowsAffected, nil
}
