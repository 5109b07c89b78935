package seed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"healthbuddy/internal/models"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Content is the library catalogue loaded from a YAML file.
type Content struct {
	Workouts       []WorkoutItem    `yaml:"workouts"`
	Meditations    []MeditationItem `yaml:"meditations"`
	NutritionPlans []NutritionItem  `yaml:"nutrition_plans"`
	Recipes        []RecipeItem     `yaml:"recipes"`
	VideoClasses   []VideoItem      `yaml:"video_classes"`
}

type WorkoutItem struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	Duration       int      `yaml:"duration"`
	Difficulty     string   `yaml:"difficulty"`
	TargetAgeGroup []string `yaml:"target_age_group"`
	CaloriesBurned *int     `yaml:"calories_burned"`
	Equipment      []string `yaml:"equipment"`
	Instructions   string   `yaml:"instructions"`
	VideoURL       string   `yaml:"video_url"`
	ImageURL       string   `yaml:"image_url"`
	Premium        bool     `yaml:"premium"`
}

type MeditationItem struct {
	ID             string   `yaml:"id"`
	Name           string   `yaml:"name"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	Duration       int      `yaml:"duration"`
	AudioURL       string   `yaml:"audio_url"`
	ImageURL       string   `yaml:"image_url"`
	Instructor     string   `yaml:"instructor"`
	TargetAgeGroup []string `yaml:"target_age_group"`
	Premium        bool     `yaml:"premium"`
}

type NutritionItem struct {
	ID             string              `yaml:"id"`
	Name           string              `yaml:"name"`
	Description    string              `yaml:"description"`
	DietaryType    string              `yaml:"dietary_type"`
	CalorieTarget  *int                `yaml:"calorie_target"`
	MacroBreakdown map[string]any      `yaml:"macro_breakdown"`
	Meals          map[string][]string `yaml:"meals"`
	TargetAgeGroup []string            `yaml:"target_age_group"`
	Premium        bool                `yaml:"premium"`
}

type RecipeItem struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Ingredients  []string `yaml:"ingredients"`
	Instructions string   `yaml:"instructions"`
	PrepTime     *int     `yaml:"prep_time"`
	CookTime     *int     `yaml:"cook_time"`
	Servings     *int     `yaml:"servings"`
	Calories     *int     `yaml:"calories"`
	Protein      *float64 `yaml:"protein"`
	Carbs        *float64 `yaml:"carbs"`
	Fat          *float64 `yaml:"fat"`
	DietaryTags  []string `yaml:"dietary_tags"`
	ImageURL     string   `yaml:"image_url"`
	Premium      bool     `yaml:"premium"`
}

type VideoItem struct {
	ID             string   `yaml:"id"`
	Title          string   `yaml:"title"`
	Description    string   `yaml:"description"`
	Category       string   `yaml:"category"`
	Instructor     string   `yaml:"instructor"`
	Duration       int      `yaml:"duration"`
	Difficulty     string   `yaml:"difficulty"`
	VideoURL       string   `yaml:"video_url"`
	ThumbnailURL   string   `yaml:"thumbnail_url"`
	TargetAgeGroup []string `yaml:"target_age_group"`
	Premium        bool     `yaml:"premium"`
	Rating         string   `yaml:"rating"`
}

// LoadContent reads a YAML catalogue from path.
func LoadContent(path string) (*Content, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read content file: %w", err)
	}
	return ParseContent(raw)
}

// ParseContent decodes a YAML catalogue. Unknown keys are rejected and every
// item needs an id.
func ParseContent(raw []byte) (*Content, error) {
	var c Content
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("parse content: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Content) validate() error {
	check := func(kind string, i int, id string) error {
		if id == "" {
			return fmt.Errorf("content: %s #%d has no id", kind, i+1)
		}
		return nil
	}
	for i, w := range c.Workouts {
		if err := check("workout", i, w.ID); err != nil {
			return err
		}
	}
	for i, m := range c.Meditations {
		if err := check("meditation", i, m.ID); err != nil {
			return err
		}
	}
	for i, n := range c.NutritionPlans {
		if err := check("nutrition plan", i, n.ID); err != nil {
			return err
		}
	}
	for i, r := range c.Recipes {
		if err := check("recipe", i, r.ID); err != nil {
			return err
		}
	}
	for i, v := range c.VideoClasses {
		if err := check("video class", i, v.ID); err != nil {
			return err
		}
	}
	return nil
}

// Size returns the number of items across all collections.
func (c *Content) Size() int {
	return len(c.Workouts) + len(c.Meditations) + len(c.NutritionPlans) + len(c.Recipes) + len(c.VideoClasses)
}

// Models converts the catalogue into persistable rows, grouped per table.
func (c *Content) Models() []any {
	out := make([]any, 0, 5)

	if len(c.Workouts) > 0 {
		rows := make([]models.Workout, 0, len(c.Workouts))
		for _, w := range c.Workouts {
			rows = append(rows, models.Workout{
				ID:             w.ID,
				Name:           w.Name,
				Description:    w.Description,
				Category:       w.Category,
				Duration:       w.Duration,
				Difficulty:     orDefault(w.Difficulty, models.DifficultyBeginner),
				TargetAgeGroup: w.TargetAgeGroup,
				CaloriesBurned: w.CaloriesBurned,
				Equipment:      w.Equipment,
				Instructions:   w.Instructions,
				VideoURL:       w.VideoURL,
				ImageURL:       w.ImageURL,
				IsPremium:      w.Premium,
			})
		}
		out = append(out, &rows)
	}

	if len(c.Meditations) > 0 {
		rows := make([]models.Meditation, 0, len(c.Meditations))
		for _, m := range c.Meditations {
			rows = append(rows, models.Meditation{
				ID:             m.ID,
				Name:           m.Name,
				Description:    m.Description,
				Category:       m.Category,
				Duration:       m.Duration,
				AudioURL:       m.AudioURL,
				ImageURL:       m.ImageURL,
				Instructor:     m.Instructor,
				TargetAgeGroup: m.TargetAgeGroup,
				IsPremium:      m.Premium,
			})
		}
		out = append(out, &rows)
	}

	if len(c.NutritionPlans) > 0 {
		rows := make([]models.NutritionPlan, 0, len(c.NutritionPlans))
		for _, n := range c.NutritionPlans {
			meals, err := json.Marshal(n.Meals)
			if err != nil || n.Meals == nil {
				meals = []byte("{}")
			}
			rows = append(rows, models.NutritionPlan{
				ID:             n.ID,
				Name:           n.Name,
				Description:    n.Description,
				DietaryType:    n.DietaryType,
				CalorieTarget:  n.CalorieTarget,
				MacroBreakdown: n.MacroBreakdown,
				Meals:          models.JSONDoc(meals),
				TargetAgeGroup: n.TargetAgeGroup,
				IsPremium:      n.Premium,
			})
		}
		out = append(out, &rows)
	}

	if len(c.Recipes) > 0 {
		rows := make([]models.Recipe, 0, len(c.Recipes))
		for _, r := range c.Recipes {
			rows = append(rows, models.Recipe{
				ID:           r.ID,
				Name:         r.Name,
				Description:  r.Description,
				Ingredients:  r.Ingredients,
				Instructions: r.Instructions,
				PrepTime:     r.PrepTime,
				CookTime:     r.CookTime,
				Servings:     r.Servings,
				Calories:     r.Calories,
				Protein:      r.Protein,
				Carbs:        r.Carbs,
				Fat:          r.Fat,
				DietaryTags:  r.DietaryTags,
				ImageURL:     r.ImageURL,
				IsPremium:    r.Premium,
			})
		}
		out = append(out, &rows)
	}

	if len(c.VideoClasses) > 0 {
		rows := make([]models.VideoClass, 0, len(c.VideoClasses))
		for _, v := range c.VideoClasses {
			rows = append(rows, models.VideoClass{
				ID:             v.ID,
				Title:          v.Title,
				Description:    v.Description,
				Category:       v.Category,
				Instructor:     v.Instructor,
				Duration:       v.Duration,
				Difficulty:     orDefault(v.Difficulty, models.DifficultyBeginner),
				VideoURL:       v.VideoURL,
				ThumbnailURL:   v.ThumbnailURL,
				TargetAgeGroup: v.TargetAgeGroup,
				IsPremium:      v.Premium,
				Rating:         v.Rating,
			})
		}
		out = append(out, &rows)
	}

	return out
}

// Library upserts the catalogue by id, replacing existing rows.
func Library(db *gorm.DB, c *Content) error {
	for _, rows := range c.Models() {
		if err := db.Clauses(clause.OnConflict{UpdateAll: true}).CreateInBatches(rows, 100).Error; err != nil {
			return fmt.Errorf("seed library: %w", err)
		}
	}
	return nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
