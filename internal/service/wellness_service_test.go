package service

import (
	"context"
	"testing"

	"healthbuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func workoutIDs(ws []models.Workout) []string {
	ids := make([]string, 0, len(ws))
	for _, w := range ws {
		ids = append(ids, w.ID)
	}
	return ids
}

func TestRecommendWorkouts(t *testing.T) {
	t.Parallel()

	library := []models.Workout{
		{ID: "w1", Difficulty: models.DifficultyBeginner},
		{ID: "w2", Difficulty: models.DifficultyAdvanced},
		{ID: "w3", Difficulty: models.DifficultyIntermediate},
		{ID: "w4", Difficulty: models.DifficultyBeginner},
	}

	tests := []struct {
		name   string
		level  string
		energy string
		limit  int
		want   []string
	}{
		{"no signals", "", "", 5, []string{"w1", "w2", "w3", "w4"}},
		{"fitness level filter", models.DifficultyBeginner, "", 5, []string{"w1", "w4"}},
		{"low energy keeps beginner", "", "low", 5, []string{"w1", "w4"}},
		{"high energy sorts hardest first", "", "very_high", 5, []string{"w2", "w3", "w1", "w4"}},
		{"limit", "", "", 2, []string{"w1", "w2"}},
		{"level and low energy can empty", models.DifficultyAdvanced, "very_low", 5, []string{}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := recommendWorkouts(library, tt.level, tt.energy, tt.limit)
			assert.Equal(t, tt.want, workoutIDs(got))
		})
	}
}

func TestMeditationCategory(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "focus", meditationCategory(nil))
	assert.Equal(t, "stress", meditationCategory(&models.HealthEntry{Mood: "very_sad", EnergyLevel: "very_low"}))
	assert.Equal(t, "sleep", meditationCategory(&models.HealthEntry{Mood: "neutral", EnergyLevel: "very_low"}))
	assert.Equal(t, "focus", meditationCategory(&models.HealthEntry{Mood: "happy", EnergyLevel: "high"}))
}

func TestWellnessService_Recommendations(t *testing.T) {
	t.Parallel()

	library := &libraryRepoStub{
		workouts: []models.Workout{
			{ID: "w1", Category: "cardio", Difficulty: models.DifficultyIntermediate},
			{ID: "w2", Category: "strength", Difficulty: models.DifficultyIntermediate},
		},
		meditations: []models.Meditation{
			{ID: "m1", Category: "stress"},
			{ID: "m2", Category: "focus"},
		},
	}
	profiles := newProfileRepoStub()
	profiles.profiles["u1"] = &models.UserProfile{UserID: "u1", FitnessLevel: models.DifficultyIntermediate}
	profiles.latest = &models.HealthEntry{Mood: "sad"}
	svc := NewWellnessService(library, profiles, &llmStub{})

	workouts, err := svc.GetRecommendedWorkouts(context.Background(), LibraryQuery{UserID: "u1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"w1"}, workoutIDs(workouts))

	meditations, err := svc.GetRecommendedMeditations(context.Background(), LibraryQuery{UserID: "u1"})
	require.NoError(t, err)
	require.Len(t, meditations, 1)
	assert.Equal(t, "m1", meditations[0].ID)

	meditations, err = svc.GetRecommendedMeditations(context.Background(), LibraryQuery{UserID: "u1", Category: "focus"})
	require.NoError(t, err)
	require.Len(t, meditations, 1)
	assert.Equal(t, "m2", meditations[0].ID)
}

func TestWellnessService_LookupsAndSearch(t *testing.T) {
	t.Parallel()

	library := &libraryRepoStub{
		plans:   []models.NutritionPlan{{ID: "np1", DietaryType: "omnivore"}},
		recipes: []models.Recipe{{ID: "r1"}},
	}
	svc := NewWellnessService(library, newProfileRepoStub(), &llmStub{})

	plan, err := svc.GetRecommendedNutritionPlan(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, plan)
	assert.Equal(t, "np1", plan.ID)

	plan, err = svc.GetRecommendedNutritionPlan(context.Background(), "vegan")
	require.NoError(t, err)
	assert.Nil(t, plan)

	w, err := svc.GetWorkout(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, w)

	_, err = svc.SearchRecipes(context.Background(), RecipeSearchInput{Tag: "vegan"})
	require.NoError(t, err)
	assert.Equal(t, 20, library.lastFilter.Limit)
	assert.Equal(t, "vegan", library.lastFilter.Tag)

	_, err = svc.SearchRecipes(context.Background(), RecipeSearchInput{MinCalories: intPtr(500), MaxCalories: intPtr(100)})
	assertAppError(t, err, models.CodeValidation)
}

func TestWellnessService_GetWellnessAdvice(t *testing.T) {
	t.Parallel()

	profiles := newProfileRepoStub()
	profiles.latest = &models.HealthEntry{Mood: "happy", EnergyLevel: "medium"}
	client := &llmStub{}
	svc := NewWellnessService(&libraryRepoStub{}, profiles, client)

	res, err := svc.GetWellnessAdvice(context.Background(), AdviceInput{UserID: "u1", Topic: "overall"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "I recommend focusing on sustainable habits that work for you.", res.Advice)

	req := client.last(t)
	assert.Contains(t, req.Messages[0].Content, "- Current Mood: happy")
	assert.Contains(t, req.Messages[0].Content, "- Energy Level: medium")
	assert.Equal(t, "What wellness advice do you have for me today?", req.Messages[1].Content)

	client.err = errBoom
	res, err = svc.GetWellnessAdvice(context.Background(), AdviceInput{UserID: "u1", Topic: "workout"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Please try again later.", res.Advice)
}
