package repository

import (
	"context"

	"healthbuddy/internal/cache"
	"healthbuddy/internal/models"

	"gorm.io/gorm"
)

// RecipeFilter narrows a recipe search. Zero values do not filter.
type RecipeFilter struct {
	Tag         string
	MinCalories *int
	MaxCalories *int
	Limit       int
}

// LibraryRepository reads (and seeds) the workout, meditation, nutrition,
// recipe and video libraries.
type LibraryRepository interface {
	GetWorkout(ctx context.Context, id string) (*models.Workout, error)
	ListWorkoutsByCategory(ctx context.Context, category string) ([]models.Workout, error)
	GetMeditation(ctx context.Context, id string) (*models.Meditation, error)
	ListMeditationsByCategory(ctx context.Context, category string, limit int) ([]models.Meditation, error)
	FirstNutritionPlan(ctx context.Context, dietaryType string) (*models.NutritionPlan, error)
	GetRecipe(ctx context.Context, id string) (*models.Recipe, error)
	SearchRecipes(ctx context.Context, f RecipeFilter) ([]models.Recipe, error)
	GetVideo(ctx context.Context, id string) (*models.VideoClass, error)
	ListVideosByCategory(ctx context.Context, category string, limit int) ([]models.VideoClass, error)

	// Seed inserts library rows, skipping ids that already exist.
	Seed(ctx context.Context, rows ...interface{}) error
}

type libraryRepository struct {
	db *gorm.DB
}

// NewLibraryRepository returns a gorm-backed LibraryRepository.
func NewLibraryRepository(db *gorm.DB) LibraryRepository {
	return &libraryRepository{db: db}
}

// getCached loads one library row by id through the read-through cache.
// A missing row is reported as found=false and is not cached.
func getCached[T any](ctx context.Context, db *gorm.DB, key, id string) (*T, error) {
	var row T
	found := true
	err := cache.Aside(ctx, key, &row, cache.LibraryTTL, func() error {
		err := db.WithContext(ctx).Where("id = ?", id).First(&row).Error
		if isNotFound(err) {
			found = false
		}
		return err
	})
	if err != nil {
		if !found {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &row, nil
}

func (r *libraryRepository) GetWorkout(ctx context.Context, id string) (*models.Workout, error) {
	return getCached[models.Workout](ctx, readDB(r.db), cache.WorkoutKey(id), id)
}

func (r *libraryRepository) ListWorkoutsByCategory(ctx context.Context, category string) ([]models.Workout, error) {
	var workouts []models.Workout
	if err := readDB(r.db).WithContext(ctx).
		Where("category = ?", category).
		Order("id ASC").
		Find(&workouts).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return workouts, nil
}

func (r *libraryRepository) GetMeditation(ctx context.Context, id string) (*models.Meditation, error) {
	return getCached[models.Meditation](ctx, readDB(r.db), cache.MeditationKey(id), id)
}

func (r *libraryRepository) ListMeditationsByCategory(ctx context.Context, category string, limit int) ([]models.Meditation, error) {
	var meditations []models.Meditation
	if err := readDB(r.db).WithContext(ctx).
		Where("category = ?", category).
		Order("id ASC").
		Limit(limit).
		Find(&meditations).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return meditations, nil
}

func (r *libraryRepository) FirstNutritionPlan(ctx context.Context, dietaryType string) (*models.NutritionPlan, error) {
	var plan models.NutritionPlan
	if err := readDB(r.db).WithContext(ctx).
		Where("dietary_type = ?", dietaryType).
		Order("id ASC").
		First(&plan).Error; err != nil {
		if isNotFound(err) {
			return nil, nil
		}
		return nil, models.NewInternalError(err)
	}
	return &plan, nil
}

func (r *libraryRepository) GetRecipe(ctx context.Context, id string) (*models.Recipe, error) {
	return getCached[models.Recipe](ctx, readDB(r.db), cache.RecipeKey(id), id)
}

func (r *libraryRepository) SearchRecipes(ctx context.Context, f RecipeFilter) ([]models.Recipe, error) {
	q := readDB(r.db).WithContext(ctx).Model(&models.Recipe{})
	if f.Tag != "" {
		// dietary_tags is a serialized JSON array of strings.
		q = q.Where("dietary_tags LIKE ?", "%\""+f.Tag+"\"%")
	}
	if f.MinCalories != nil {
		q = q.Where("calories >= ?", *f.MinCalories)
	}
	if f.MaxCalories != nil {
		q = q.Where("calories <= ?", *f.MaxCalories)
	}
	var recipes []models.Recipe
	if err := q.Order("id ASC").Limit(f.Limit).Find(&recipes).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return recipes, nil
}

func (r *libraryRepository) GetVideo(ctx context.Context, id string) (*models.VideoClass, error) {
	return getCached[models.VideoClass](ctx, readDB(r.db), cache.VideoKey(id), id)
}

func (r *libraryRepository) ListVideosByCategory(ctx context.Context, category string, limit int) ([]models.VideoClass, error) {
	var videos []models.VideoClass
	if err := readDB(r.db).WithContext(ctx).
		Where("category = ?", category).
		Order("created_at DESC").
		Limit(limit).
		Find(&videos).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return videos, nil
}

func (r *libraryRepository) Seed(ctx context.Context, rows ...interface{}) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, row := range rows {
			res := tx.Clauses(onConflictDoNothing()).Create(row)
			if res.Error != nil {
				return models.NewInternalError(res.Error)
			}
		}
		return nil
	})
}
