package models

import "time"

// Difficulty levels shared by workouts and video classes.
const (
	DifficultyBeginner     = "beginner"
	DifficultyIntermediate = "intermediate"
	DifficultyAdvanced     = "advanced"
)

// DifficultyRank orders difficulty levels; unknown values rank as beginner.
func DifficultyRank(d string) int {
	switch d {
	case DifficultyIntermediate:
		return 1
	case DifficultyAdvanced:
		return 2
	default:
		return 0
	}
}

// Workout is an entry of the workout library.
type Workout struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Category       string     `gorm:"size:64;not null;index" json:"category"`
	Duration       int        `gorm:"not null" json:"duration"`
	Difficulty     string     `gorm:"size:16;not null" json:"difficulty"`
	TargetAgeGroup StringList `gorm:"type:text" json:"targetAgeGroup"`
	CaloriesBurned *int       `json:"caloriesBurned"`
	Equipment      StringList `gorm:"type:text" json:"equipment"`
	Instructions   string     `gorm:"type:text" json:"instructions"`
	VideoURL       string     `gorm:"size:1024" json:"videoUrl"`
	ImageURL       string     `gorm:"size:1024" json:"imageUrl"`
	IsPremium      bool       `gorm:"not null;default:false" json:"isPremium"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// TableName returns the database table name for Workout.
func (Workout) TableName() string { return "workout_library" }

// Meditation is an entry of the meditation library.
type Meditation struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	Category       string     `gorm:"size:64;not null;index" json:"category"`
	Duration       int        `gorm:"not null" json:"duration"`
	AudioURL       string     `gorm:"size:1024" json:"audioUrl"`
	ImageURL       string     `gorm:"size:1024" json:"imageUrl"`
	Instructor     string     `gorm:"size:255" json:"instructor"`
	TargetAgeGroup StringList `gorm:"type:text" json:"targetAgeGroup"`
	IsPremium      bool       `gorm:"not null;default:false" json:"isPremium"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// TableName returns the database table name for Meditation.
func (Meditation) TableName() string { return "meditation_library" }

// NutritionPlan is a templated meal plan for a dietary type.
type NutritionPlan struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	Name           string     `gorm:"size:255;not null" json:"name"`
	Description    string     `gorm:"type:text" json:"description"`
	DietaryType    string     `gorm:"size:64;not null;index" json:"dietaryType"`
	CalorieTarget  *int       `json:"calorieTarget"`
	MacroBreakdown JSONMap    `gorm:"type:text" json:"macroBreakdown"`
	Meals          JSONDoc    `gorm:"type:text" json:"meals"`
	TargetAgeGroup StringList `gorm:"type:text" json:"targetAgeGroup"`
	IsPremium      bool       `gorm:"not null;default:false" json:"isPremium"`
	CreatedAt      time.Time  `json:"createdAt"`
}

// Recipe is an entry of the recipe library.
type Recipe struct {
	ID           string     `gorm:"primaryKey;size:64" json:"id"`
	Name         string     `gorm:"size:255;not null" json:"name"`
	Description  string     `gorm:"type:text" json:"description"`
	Ingredients  StringList `gorm:"type:text" json:"ingredients"`
	Instructions string     `gorm:"type:text" json:"instructions"`
	PrepTime     *int       `json:"prepTime"`
	CookTime     *int       `json:"cookTime"`
	Servings     *int       `json:"servings"`
	Calories     *int       `gorm:"index" json:"calories"`
	Protein      *float64   `json:"protein"`
	Carbs        *float64   `json:"carbs"`
	Fat          *float64   `json:"fat"`
	DietaryTags  StringList `gorm:"type:text" json:"dietaryTags"`
	ImageURL     string     `gorm:"size:1024" json:"imageUrl"`
	IsPremium    bool       `gorm:"not null;default:false" json:"isPremium"`
	CreatedAt    time.Time  `json:"createdAt"`
}

// TableName returns the database table name for Recipe.
func (Recipe) TableName() string { return "recipe_library" }

// VideoClass is a recorded class.
type VideoClass struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	Title          string     `gorm:"size:255;not null" json:"title"`
	Description    string     `gorm:"type:text" json:"description"`
	Category       string     `gorm:"size:64;not null;index" json:"category"`
	Instructor     string     `gorm:"size:255" json:"instructor"`
	Duration       int        `gorm:"not null" json:"duration"`
	Difficulty     string     `gorm:"size:16;not null" json:"difficulty"`
	VideoURL       string     `gorm:"size:1024;not null" json:"videoUrl"`
	ThumbnailURL   string     `gorm:"size:1024" json:"thumbnailUrl"`
	TargetAgeGroup StringList `gorm:"type:text" json:"targetAgeGroup"`
	IsPremium      bool       `gorm:"not null;default:false" json:"isPremium"`
	ViewCount      int        `gorm:"not null;default:0" json:"viewCount"`
	Rating         string     `gorm:"size:8" json:"rating"`
	CreatedAt      time.Time  `json:"createdAt"`
}
