package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

// TrialDays is the length of the free trial on the basic plan.
const TrialDays = 7

type SubscriptionService struct {
	repo     repository.SubscriptionRepository
	notifier Notifier
	now      Clock
}

func NewSubscriptionService(repo repository.SubscriptionRepository, notifier Notifier, now Clock) *SubscriptionService {
	return &SubscriptionService{repo: repo, notifier: notifier, now: clockOrDefault(now)}
}

// SubscriptionView is a subscription joined with its plan and derived trial state.
type SubscriptionView struct {
	*models.UserSubscription
	Plan            *models.SubscriptionPlan `json:"plan"`
	IsActive        bool                     `json:"isActive"`
	IsTrialActive   bool                     `json:"isTrialActive"`
	DaysLeftInTrial int                      `json:"daysLeftInTrial"`
}

type TrialResult struct {
	SubscriptionID string    `json:"subscriptionId"`
	Status         string    `json:"status"`
	TrialEndsAt    time.Time `json:"trialEndsAt"`
	DaysRemaining  int       `json:"daysRemaining"`
}

type UpgradeInput struct {
	UserID          string
	PlanID          string `json:"planId" validate:"required"`
	PaymentMethodID string `json:"paymentMethodId"`
}

type UpgradeResult struct {
	Success  bool   `json:"success"`
	PlanID   string `json:"planId"`
	PlanName string `json:"planName"`
	Price    string `json:"price"`
	Message  string `json:"message"`
}

type AccessInput struct {
	UserID      string
	ContentType string `json:"contentType" validate:"oneof=video meditation nutrition_plan exclusive advanced_ai"`
	ContentID   string `json:"contentId"`
}

type AccessResult struct {
	HasAccess bool   `json:"hasAccess"`
	Reason    string `json:"reason"`
}

func (s *SubscriptionService) GetPlans(ctx context.Context) ([]models.SubscriptionPlan, error) {
	return s.repo.ListPlans(ctx)
}

// GetMySubscription returns nil when the user never subscribed.
func (s *SubscriptionService) GetMySubscription(ctx context.Context, userID string) (*SubscriptionView, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil || sub == nil {
		return nil, err
	}
	plan, err := s.repo.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	view := &SubscriptionView{
		UserSubscription: sub,
		Plan:             plan,
		IsActive:         sub.Status == models.SubscriptionActive || sub.Status == models.SubscriptionTrial,
	}
	if sub.Status == models.SubscriptionTrial && sub.TrialEndsAt != nil && sub.TrialEndsAt.After(now) {
		view.IsTrialActive = true
		view.DaysLeftInTrial = int(math.Ceil(sub.TrialEndsAt.Sub(now).Hours() / 24))
	}
	return view, nil
}

func (s *SubscriptionService) InitializeTrial(ctx context.Context, userID string) (*TrialResult, error) {
	existing, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, models.NewConflictError("User already has an active subscription")
	}

	plan, err := s.repo.GetPlan(ctx, models.PlanBasic)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, models.NewInternalMessage("Basic plan not found")
	}

	now := s.now()
	trialEnds := now.AddDate(0, 0, TrialDays)
	sub := &models.UserSubscription{
		ID:                 models.NewID("sub", userID, now),
		UserID:             userID,
		PlanID:             plan.ID,
		Status:             models.SubscriptionTrial,
		TrialEndsAt:        &trialEnds,
		CurrentPeriodStart: &now,
		CurrentPeriodEnd:   &trialEnds,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	return &TrialResult{
		SubscriptionID: sub.ID,
		Status:         models.SubscriptionTrial,
		TrialEndsAt:    trialEnds,
		DaysRemaining:  TrialDays,
	}, nil
}

// UpgradeToPlan moves the user onto a paid plan for one month and records the charge.
func (s *SubscriptionService) UpgradeToPlan(ctx context.Context, in UpgradeInput) (*UpgradeResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	plan, err := s.repo.GetPlan(ctx, in.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, models.NewNotFoundMessage("Plan not found")
	}

	now := s.now()
	periodEnd := now.AddDate(0, 1, 0)

	sub, err := s.repo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	if sub != nil {
		sub.PlanID = plan.ID
		sub.Status = models.SubscriptionActive
		sub.TrialEndsAt = nil
		sub.CurrentPeriodStart = &now
		sub.CurrentPeriodEnd = &periodEnd
		sub.UpdatedAt = now
		err = s.repo.Save(ctx, sub)
	} else {
		sub = &models.UserSubscription{
			ID:                 models.NewID("sub", in.UserID, now),
			UserID:             in.UserID,
			PlanID:             plan.ID,
			Status:             models.SubscriptionActive,
			CurrentPeriodStart: &now,
			CurrentPeriodEnd:   &periodEnd,
			CreatedAt:          now,
			UpdatedAt:          now,
		}
		err = s.repo.Create(ctx, sub)
	}
	if err != nil {
		return nil, err
	}

	if err := s.repo.CreateTransaction(ctx, &models.PaymentTransaction{
		ID:             models.NewID("txn", in.UserID, now),
		UserID:         in.UserID,
		SubscriptionID: sub.ID,
		Amount:         plan.Price,
		Currency:       plan.Currency,
		Status:         models.TransactionSucceeded,
		PaymentMethod:  "stripe",
		CreatedAt:      now,
		UpdatedAt:      now,
	}); err != nil {
		return nil, err
	}

	return &UpgradeResult{
		Success:  true,
		PlanID:   plan.ID,
		PlanName: plan.Name,
		Price:    plan.Price,
		Message:  fmt.Sprintf("Successfully upgraded to %s", plan.Name),
	}, nil
}

func (s *SubscriptionService) CancelSubscription(ctx context.Context, userID string) (*SuccessMessage, error) {
	sub, err := s.repo.GetByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, models.NewNotFoundMessage("No active subscription found")
	}

	now := s.now()
	sub.Status = models.SubscriptionCanceled
	sub.CanceledAt = &now
	sub.UpdatedAt = now
	if err := s.repo.Save(ctx, sub); err != nil {
		return nil, err
	}
	return &SuccessMessage{Success: true, Message: "Subscription canceled successfully"}, nil
}

// HasAccessToContent decides whether the user's subscription unlocks a content type.
func (s *SubscriptionService) HasAccessToContent(ctx context.Context, in AccessInput) (*AccessResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	sub, err := s.repo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	return accessFor(sub, in.ContentType), nil
}

func accessFor(sub *models.UserSubscription, contentType string) *AccessResult {
	switch {
	case sub == nil:
		return &AccessResult{HasAccess: false, Reason: "No subscription found"}
	case sub.Status == models.SubscriptionTrial:
		return &AccessResult{HasAccess: true, Reason: "Trial user"}
	case sub.Status != models.SubscriptionActive:
		return &AccessResult{HasAccess: false, Reason: "Subscription expired or inactive"}
	case sub.PlanID == models.PlanPremium:
		return &AccessResult{HasAccess: true, Reason: "Premium subscriber"}
	case sub.PlanID != models.PlanBasic:
		return &AccessResult{HasAccess: false, Reason: "Subscription expired or inactive"}
	}

	switch contentType {
	case "video", "meditation":
		return &AccessResult{HasAccess: true, Reason: "Basic plan includes limited content"}
	case "exclusive", "advanced_ai":
		return &AccessResult{HasAccess: false, Reason: "Upgrade to Premium for this content"}
	default:
		return &AccessResult{HasAccess: true, Reason: "Basic plan access"}
	}
}

// ExpireTrials marks finished trials as expired and reminds each user.
// A failure on one subscription is logged and the sweep continues.
func (s *SubscriptionService) ExpireTrials(ctx context.Context) (int, error) {
	now := s.now()
	subs, err := s.repo.ListExpiredTrials(ctx, now)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range subs {
		sub := &subs[i]
		sub.Status = models.SubscriptionExpired
		sub.UpdatedAt = now
		if err := s.repo.Save(ctx, sub); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to expire trial",
				slog.String("subscription_id", sub.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		expired++

		if s.notifier == nil {
			continue
		}
		if _, err := s.notifier.Notify(ctx, NotifyInput{
			UserID:    sub.UserID,
			Type:      models.NotificationReminder,
			Title:     "Your free trial has ended",
			Message:   "Upgrade to keep access to personalized workouts, meditations and AI coaching.",
			ActionURL: "/subscription",
		}); err != nil {
			middleware.Logger.WarnContext(ctx, "failed to send trial reminder",
				slog.String("user_id", sub.UserID),
				slog.String("error", err.Error()),
			)
		}
	}
	return expired, nil
}
