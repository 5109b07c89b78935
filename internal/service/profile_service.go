package service

import (
	"context"
	"time"

	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

type ProfileService struct {
	repo repository.ProfileRepository
	now  Clock
}

func NewProfileService(repo repository.ProfileRepository, now Clock) *ProfileService {
	return &ProfileService{repo: repo, now: clockOrDefault(now)}
}

// UpdateProfileInput carries a partial profile. Nil fields are left unchanged.
type UpdateProfileInput struct {
	UserID                  string
	AgeGroup                *string        `json:"ageGroup" validate:"omitempty,oneof=young middle_age senior"`
	Gender                  *string        `json:"gender" validate:"omitempty,oneof=male female other"`
	FitnessLevel            *string        `json:"fitnessLevel" validate:"omitempty,oneof=beginner intermediate advanced"`
	HealthGoals             []string       `json:"healthGoals"`
	Preferences             map[string]any `json:"preferences"`
	MenstrualCycleLength    *string        `json:"menstrualCycleLength"`
	MenstrualCycleStartDate *time.Time     `json:"menstrualCycleStartDate"`
	MenopauseStatus         *string        `json:"menopauseStatus" validate:"omitempty,oneof=none pre_menopause menopause post_menopause"`
	Allergies               []string       `json:"allergies"`
	DietaryRestrictions     []string       `json:"dietaryRestrictions"`
}

type HealthEntryInput struct {
	UserID       string
	ActivityType string     `json:"activityType" validate:"required,max=64"`
	Date         *time.Time `json:"date"`
	Duration     *int       `json:"duration" validate:"omitempty,gte=0"`
	Calories     *int       `json:"calories" validate:"omitempty,gte=0"`
	Mood         string     `json:"mood" validate:"omitempty,oneof=very_sad sad neutral happy very_happy"`
	EnergyLevel  string     `json:"energyLevel" validate:"omitempty,oneof=very_low low medium high very_high"`
	SleepHours   *float64   `json:"sleepHours" validate:"omitempty,gte=0,lte=24"`
	WaterIntake  *float64   `json:"waterIntake" validate:"omitempty,gte=0"`
	Notes        string     `json:"notes"`
}

type NutritionEntryInput struct {
	UserID    string
	MealType  string     `json:"mealType" validate:"oneof=breakfast lunch dinner snack"`
	Date      *time.Time `json:"date"`
	FoodItems []string   `json:"foodItems" validate:"min=1,dive,required"`
	Calories  *int       `json:"calories" validate:"omitempty,gte=0"`
	Protein   *float64   `json:"protein" validate:"omitempty,gte=0"`
	Carbs     *float64   `json:"carbs" validate:"omitempty,gte=0"`
	Fat       *float64   `json:"fat" validate:"omitempty,gte=0"`
	Notes     string     `json:"notes"`
}

// DateRange bounds a tracking query. Both ends are optional and inclusive.
type DateRange struct {
	Start *time.Time `json:"startDate"`
	End   *time.Time `json:"endDate"`
}

type ConversationInput struct {
	UserID         string
	ConversationID string         `json:"conversationId"`
	UserMessage    string         `json:"userMessage" validate:"required"`
	AIResponse     string         `json:"aiResponse" validate:"required"`
	Context        map[string]any `json:"context"`
}

type MessageIDResult struct {
	Success   bool   `json:"success"`
	MessageID string `json:"messageId"`
}

// GetProfile returns nil when the user has not created a profile.
func (s *ProfileService) GetProfile(ctx context.Context, userID string) (*models.UserProfile, error) {
	return s.repo.GetByUserID(ctx, userID)
}

func (s *ProfileService) UpdateProfile(ctx context.Context, in UpdateProfileInput) (*SuccessMessage, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	profile, err := s.repo.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	create := profile == nil
	if create {
		profile = &models.UserProfile{
			ID:        models.NewID("profile", in.UserID, now),
			UserID:    in.UserID,
			CreatedAt: now,
		}
	}
	applyProfile(profile, in)
	profile.UpdatedAt = now

	if create {
		err = s.repo.Create(ctx, profile)
	} else {
		err = s.repo.Save(ctx, profile)
	}
	if err != nil {
		return nil, err
	}
	return &SuccessMessage{Success: true, Message: "Profile updated successfully"}, nil
}

func applyProfile(p *models.UserProfile, in UpdateProfileInput) {
	if in.AgeGroup != nil {
		p.AgeGroup = *in.AgeGroup
	}
	if in.Gender != nil {
		p.Gender = *in.Gender
	}
	if in.FitnessLevel != nil {
		p.FitnessLevel = *in.FitnessLevel
	}
	if in.HealthGoals != nil {
		p.HealthGoals = in.HealthGoals
	}
	if in.Preferences != nil {
		p.Preferences = in.Preferences
	}
	if in.MenstrualCycleLength != nil {
		p.MenstrualCycleLength = *in.MenstrualCycleLength
	}
	if in.MenstrualCycleStartDate != nil {
		p.MenstrualCycleStartDate = in.MenstrualCycleStartDate
	}
	if in.MenopauseStatus != nil {
		p.MenopauseStatus = *in.MenopauseStatus
	}
	if in.Allergies != nil {
		p.Allergies = in.Allergies
	}
	if in.DietaryRestrictions != nil {
		p.DietaryRestrictions = in.DietaryRestrictions
	}
}

func (s *ProfileService) AddHealthTracking(ctx context.Context, in HealthEntryInput) (*SuccessMessage, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	now := s.now()
	entry := &models.HealthEntry{
		ID:           models.NewID("health", in.UserID, now),
		UserID:       in.UserID,
		Date:         dateOrNow(in.Date, now),
		ActivityType: in.ActivityType,
		Duration:     in.Duration,
		Calories:     in.Calories,
		Mood:         in.Mood,
		EnergyLevel:  in.EnergyLevel,
		SleepHours:   in.SleepHours,
		WaterIntake:  in.WaterIntake,
		Notes:        in.Notes,
		CreatedAt:    now,
	}
	if err := s.repo.CreateHealthEntry(ctx, entry); err != nil {
		return nil, err
	}
	return &SuccessMessage{Success: true, Message: "Health tracking entry added"}, nil
}

func (s *ProfileService) GetHealthTracking(ctx context.Context, userID string, r DateRange) ([]models.HealthEntry, error) {
	return s.repo.ListHealthEntries(ctx, userID, r.Start, r.End)
}

func (s *ProfileService) AddNutritionTracking(ctx context.Context, in NutritionEntryInput) (*SuccessMessage, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	now := s.now()
	entry := &models.NutritionEntry{
		ID:        models.NewID("nutrition", in.UserID, now),
		UserID:    in.UserID,
		Date:      dateOrNow(in.Date, now),
		MealType:  in.MealType,
		FoodItems: in.FoodItems,
		Calories:  in.Calories,
		Protein:   in.Protein,
		Carbs:     in.Carbs,
		Fat:       in.Fat,
		Notes:     in.Notes,
		CreatedAt: now,
	}
	if err := s.repo.CreateNutritionEntry(ctx, entry); err != nil {
		return nil, err
	}
	return &SuccessMessage{Success: true, Message: "Nutrition tracking entry added"}, nil
}

func (s *ProfileService) GetNutritionTracking(ctx context.Context, userID string, r DateRange) ([]models.NutritionEntry, error) {
	return s.repo.ListNutritionEntries(ctx, userID, r.Start, r.End)
}

// AddAIConversation stores one exchange. Without a conversation id the turn
// joins the user's default conversation.
func (s *ProfileService) AddAIConversation(ctx context.Context, in ConversationInput) (*MessageIDResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	now := s.now()
	turn := &models.AIConversation{
		ID:             models.NewID("msg", in.UserID, now),
		UserID:         in.UserID,
		ConversationID: in.ConversationID,
		UserMessage:    in.UserMessage,
		AIResponse:     in.AIResponse,
		Context:        in.Context,
		CreatedAt:      now,
	}
	if turn.ConversationID == "" {
		turn.ConversationID = defaultConversationID(in.UserID)
	}
	if err := s.repo.CreateConversation(ctx, turn); err != nil {
		return nil, err
	}
	return &MessageIDResult{Success: true, MessageID: turn.ID}, nil
}

// GetConversationHistory returns up to limit turns, oldest first.
func (s *ProfileService) GetConversationHistory(ctx context.Context, userID string, limit int) ([]models.AIConversation, error) {
	return s.repo.ListConversations(ctx, userID, clampLimit(limit, 50, 200))
}

func defaultConversationID(userID string) string { return "conv_" + userID }

func dateOrNow(d *time.Time, now time.Time) time.Time {
	if d == nil || d.IsZero() {
		return now
	}
	return d.UTC()
}
