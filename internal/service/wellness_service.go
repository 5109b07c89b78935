package service

import (
	"context"
	"sort"

	"healthbuddy/internal/llm"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

type WellnessService struct {
	library  repository.LibraryRepository
	profiles repository.ProfileRepository
	llm      llm.Client
}

func NewWellnessService(library repository.LibraryRepository, profiles repository.ProfileRepository, client llm.Client) *WellnessService {
	return &WellnessService{library: library, profiles: profiles, llm: client}
}

type LibraryQuery struct {
	UserID   string
	Category string `json:"category" query:"category"`
	Limit    int    `json:"limit" query:"limit" validate:"gte=0,lte=100"`
}

type RecipeSearchInput struct {
	Tag         string `json:"tag" query:"tag"`
	MinCalories *int   `json:"minCalories" query:"minCalories" validate:"omitempty,gte=0"`
	MaxCalories *int   `json:"maxCalories" query:"maxCalories" validate:"omitempty,gte=0"`
	Limit       int    `json:"limit" query:"limit" validate:"gte=0,lte=100"`
}

type AdviceInput struct {
	UserID   string
	Topic    string `json:"topic" validate:"oneof=workout nutrition mental_health overall"`
	Language string `json:"language"`
}

type AdviceResult struct {
	Success bool   `json:"success"`
	Advice  string `json:"advice"`
	Topic   string `json:"topic,omitempty"`
	Error   string `json:"error,omitempty"`
}

// GetRecommendedWorkouts narrows a category to the user's fitness level and
// adjusts intensity to the energy level of the latest health entry.
func (s *WellnessService) GetRecommendedWorkouts(ctx context.Context, in LibraryQuery) ([]models.Workout, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	last, err := s.profiles.LatestHealthEntry(ctx, in.UserID)
	if err != nil {
		return nil, err
	}
	workouts, err := s.library.ListWorkoutsByCategory(ctx, orDefault(in.Category, "cardio"))
	if err != nil {
		return nil, err
	}

	level := ""
	if profile != nil {
		level = profile.FitnessLevel
	}
	energy := ""
	if last != nil {
		energy = last.EnergyLevel
	}
	return recommendWorkouts(workouts, level, energy, clampLimit(in.Limit, 5, 100)), nil
}

func recommendWorkouts(workouts []models.Workout, fitnessLevel, energy string, limit int) []models.Workout {
	out := make([]models.Workout, 0, len(workouts))
	for _, w := range workouts {
		if fitnessLevel != "" && w.Difficulty != fitnessLevel {
			continue
		}
		if (energy == "low" || energy == "very_low") && w.Difficulty != models.DifficultyBeginner {
			continue
		}
		out = append(out, w)
	}

	if energy == "high" || energy == "very_high" {
		sort.SliceStable(out, func(i, j int) bool {
			return models.DifficultyRank(out[i].Difficulty) > models.DifficultyRank(out[j].Difficulty)
		})
	}

	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// GetWorkout returns nil when the id is unknown.
func (s *WellnessService) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	return s.library.GetWorkout(ctx, id)
}

func (s *WellnessService) GetRecommendedMeditations(ctx context.Context, in LibraryQuery) ([]models.Meditation, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	category := in.Category
	if category == "" {
		last, err := s.profiles.LatestHealthEntry(ctx, in.UserID)
		if err != nil {
			return nil, err
		}
		category = meditationCategory(last)
	}
	return s.library.ListMeditationsByCategory(ctx, category, clampLimit(in.Limit, 5, 100))
}

func meditationCategory(last *models.HealthEntry) string {
	switch {
	case last == nil:
		return "focus"
	case last.Mood == "sad" || last.Mood == "very_sad":
		return "stress"
	case last.EnergyLevel == "very_low":
		return "sleep"
	default:
		return "focus"
	}
}

func (s *WellnessService) GetMeditation(ctx context.Context, id string) (*models.Meditation, error) {
	return s.library.GetMeditation(ctx, id)
}

func (s *WellnessService) GetRecommendedNutritionPlan(ctx context.Context, dietaryType string) (*models.NutritionPlan, error) {
	return s.library.FirstNutritionPlan(ctx, orDefault(dietaryType, "omnivore"))
}

func (s *WellnessService) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return s.library.GetRecipe(ctx, id)
}

func (s *WellnessService) SearchRecipes(ctx context.Context, in RecipeSearchInput) ([]models.Recipe, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	if in.MinCalories != nil && in.MaxCalories != nil && *in.MinCalories > *in.MaxCalories {
		return nil, models.NewValidationError("minCalories must not exceed maxCalories")
	}
	return s.library.SearchRecipes(ctx, repository.RecipeFilter{
		Tag:         in.Tag,
		MinCalories: in.MinCalories,
		MaxCalories: in.MaxCalories,
		Limit:       clampLimit(in.Limit, 20, 100),
	})
}

func (s *WellnessService) GetWellnessAdvice(ctx context.Context, in AdviceInput) (*AdviceResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	advice, err := s.advise(ctx, in)
	if err != nil {
		logAIFailure(ctx, "wellness_advice", in.UserID, err)
		return &AdviceResult{
			Success: false,
			Advice:  "Please try again later.",
			Error:   "Service temporarily unavailable",
		}, nil
	}
	return &AdviceResult{Success: true, Advice: advice, Topic: in.Topic}, nil
}

func (s *WellnessService) advise(ctx context.Context, in AdviceInput) (string, error) {
	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	last, err := s.profiles.LatestHealthEntry(ctx, in.UserID)
	if err != nil {
		return "", err
	}
	reply, err := s.llm.Complete(ctx, llm.Prompt("wellness_advice",
		wellnessPrompt(profile, last, languageOrDefault(in.Language)),
		wellnessMessage(in.Topic)))
	if err != nil {
		return "", err
	}
	return orDefault(reply, "I recommend focusing on sustainable habits that work for you."), nil
}
