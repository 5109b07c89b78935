package seed

import (
	"fmt"
	"strings"

	"healthbuddy/internal/models"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	workoutCategories    = []string{"cardio", "strength", "yoga", "pilates", "hiit", "stretching"}
	meditationCategories = []string{"stress", "sleep", "focus", "anxiety", "gratitude"}
	dietaryTypes         = []string{"balanced", "vegetarian", "vegan", "keto", "mediterranean"}
	dietaryTags          = []string{"vegetarian", "vegan", "gluten_free", "dairy_free", "high_protein", "low_carb"}
	videoCategories      = []string{"yoga", "pilates", "dance", "strength", "mobility"}
	ageGroups            = []string{"young", "middle_age", "senior"}
	difficulties         = []string{models.DifficultyBeginner, models.DifficultyIntermediate, models.DifficultyAdvanced}
)

// GenerateContent builds a fake catalogue with perKind items of each kind.
// The same seed always yields the same catalogue.
func GenerateContent(seed int64, perKind int) *Content {
	f := gofakeit.New(seed)
	c := &Content{}

	for i := 0; i < perKind; i++ {
		calories := f.Number(80, 600)
		c.Workouts = append(c.Workouts, WorkoutItem{
			ID:             fmt.Sprintf("workout_%03d", i+1),
			Name:           title(f.Adjective() + " " + f.RandomString(workoutCategories) + " session"),
			Description:    f.Sentence(12),
			Category:       workoutCategories[i%len(workoutCategories)],
			Duration:       f.Number(10, 60),
			Difficulty:     f.RandomString(difficulties),
			TargetAgeGroup: pick(f, ageGroups),
			CaloriesBurned: &calories,
			Equipment:      pick(f, []string{"mat", "dumbbells", "resistance band", "kettlebell", "none"}),
			Instructions:   f.Paragraph(1, 4, 10, "\n"),
			ImageURL:       fmt.Sprintf("https://picsum.photos/seed/workout-%d/800/600", i+1),
			Premium:        i%3 == 2,
		})

		c.Meditations = append(c.Meditations, MeditationItem{
			ID:             fmt.Sprintf("meditation_%03d", i+1),
			Name:           title(f.Adjective() + " " + meditationCategories[i%len(meditationCategories)] + " practice"),
			Description:    f.Sentence(10),
			Category:       meditationCategories[i%len(meditationCategories)],
			Duration:       f.Number(5, 30),
			Instructor:     f.Name(),
			TargetAgeGroup: pick(f, ageGroups),
			ImageURL:       fmt.Sprintf("https://picsum.photos/seed/meditation-%d/800/600", i+1),
			Premium:        i%4 == 3,
		})

		target := f.Number(1400, 2600)
		c.NutritionPlans = append(c.NutritionPlans, NutritionItem{
			ID:            fmt.Sprintf("nutrition_plan_%03d", i+1),
			Name:          title(dietaryTypes[i%len(dietaryTypes)] + " " + f.Adjective() + " plan"),
			Description:   f.Sentence(12),
			DietaryType:   dietaryTypes[i%len(dietaryTypes)],
			CalorieTarget: &target,
			MacroBreakdown: map[string]any{
				"protein": f.Number(20, 35),
				"carbs":   f.Number(30, 50),
				"fat":     f.Number(20, 35),
			},
			Meals: map[string][]string{
				"breakfast": {f.Breakfast()},
				"lunch":     {f.Lunch()},
				"dinner":    {f.Dinner()},
				"snack":     {f.Snack()},
			},
			TargetAgeGroup: pick(f, ageGroups),
			Premium:        i%3 == 2,
		})

		kcal := f.Number(150, 900)
		prep, cook, servings := f.Number(5, 30), f.Number(0, 60), f.Number(1, 6)
		protein, carbs, fat := f.Float64Range(5, 45), f.Float64Range(10, 90), f.Float64Range(3, 40)
		c.Recipes = append(c.Recipes, RecipeItem{
			ID:           fmt.Sprintf("recipe_%03d", i+1),
			Name:         title(f.Dinner()),
			Description:  f.Sentence(10),
			Ingredients:  []string{f.Fruit(), f.Vegetable(), f.Vegetable(), f.Drink()},
			Instructions: f.Paragraph(1, 3, 10, "\n"),
			PrepTime:     &prep,
			CookTime:     &cook,
			Servings:     &servings,
			Calories:     &kcal,
			Protein:      &protein,
			Carbs:        &carbs,
			Fat:          &fat,
			DietaryTags:  pick(f, dietaryTags),
			ImageURL:     fmt.Sprintf("https://picsum.photos/seed/recipe-%d/800/600", i+1),
			Premium:      i%4 == 3,
		})

		c.VideoClasses = append(c.VideoClasses, VideoItem{
			ID:             fmt.Sprintf("video_%03d", i+1),
			Title:          title(f.Adjective() + " " + videoCategories[i%len(videoCategories)] + " class"),
			Description:    f.Sentence(12),
			Category:       videoCategories[i%len(videoCategories)],
			Instructor:     f.Name(),
			Duration:       f.Number(15, 60),
			Difficulty:     f.RandomString(difficulties),
			VideoURL:       fmt.Sprintf("https://videos.example.com/classes/%d.mp4", i+1),
			ThumbnailURL:   fmt.Sprintf("https://picsum.photos/seed/video-%d/640/360", i+1),
			TargetAgeGroup: pick(f, ageGroups),
			Premium:        i%3 == 2,
			Rating:         fmt.Sprintf("%.1f", f.Float64Range(3.5, 5)),
		})
	}

	return c
}

// pick returns a non-empty subset of from, preserving order.
func pick(f *gofakeit.Faker, from []string) []string {
	out := make([]string, 0, len(from))
	for _, v := range from {
		if f.Bool() {
			out = append(out, v)
		}
	}
	if len(out) == 0 {
		out = append(out, f.RandomString(from))
	}
	return out
}

func title(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
