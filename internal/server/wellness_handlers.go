package server

import (
	"healthbuddy/internal/models"
	"healthbuddy/internal/service"

	"github.com/gofiber/fiber/v2"
)

func parseQuery(c *fiber.Ctx, dst any) error {
	if err := c.QueryParser(dst); err != nil {
		_ = models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Invalid query parameters"))
		return errResponseWritten
	}
	return nil
}

// GetRecommendedWorkouts handles GET /api/wellness/getRecommendedWorkouts?category=&limit=
// @Summary Workouts matched to fitness level and energy
// @Tags wellness
// @Produce json
// @Param category query string false "Category" default(cardio)
// @Param limit query int false "Limit" default(5)
// @Success 200 {array} models.Workout
// @Router /wellness/getRecommendedWorkouts [get]
func (s *Server) GetRecommendedWorkouts(c *fiber.Ctx) error {
	var q service.LibraryQuery
	if err := parseQuery(c, &q); err != nil {
		return nil
	}
	q.UserID = currentUserID(c)
	workouts, err := s.wellness.GetRecommendedWorkouts(c.UserContext(), q)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(workouts)
}

// GetWorkout handles GET /api/wellness/getWorkout?id=
func (s *Server) GetWorkout(c *fiber.Ctx) error {
	id, err := requireQuery(c, "id")
	if err != nil {
		return nil
	}
	w, err := s.wellness.GetWorkout(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, w)
}

// GetRecommendedMeditations handles GET /api/wellness/getRecommendedMeditations?category=&limit=
func (s *Server) GetRecommendedMeditations(c *fiber.Ctx) error {
	var q service.LibraryQuery
	if err := parseQuery(c, &q); err != nil {
		return nil
	}
	q.UserID = currentUserID(c)
	meditations, err := s.wellness.GetRecommendedMeditations(c.UserContext(), q)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(meditations)
}

// GetMeditation handles GET /api/wellness/getMeditation?id=
func (s *Server) GetMeditation(c *fiber.Ctx) error {
	id, err := requireQuery(c, "id")
	if err != nil {
		return nil
	}
	m, err := s.wellness.GetMeditation(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, m)
}

// GetRecommendedNutritionPlan handles GET /api/wellness/getRecommendedNutritionPlan?dietaryType=
func (s *Server) GetRecommendedNutritionPlan(c *fiber.Ctx) error {
	plan, err := s.wellness.GetRecommendedNutritionPlan(c.UserContext(), c.Query("dietaryType"))
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, plan)
}

// GetRecipe handles GET /api/wellness/getRecipe?id=
func (s *Server) GetRecipe(c *fiber.Ctx) error {
	id, err := requireQuery(c, "id")
	if err != nil {
		return nil
	}
	r, err := s.wellness.GetRecipe(c.UserContext(), id)
	if err != nil {
		return respond(c, err)
	}
	return jsonOrNull(c, r)
}

// SearchRecipes handles GET /api/wellness/searchRecipes
// @Summary Search recipes by dietary tag and calorie range
// @Tags wellness
// @Produce json
// @Param tag query string false "Dietary tag"
// @Param minCalories query int false "Minimum calories"
// @Param maxCalories query int false "Maximum calories"
// @Param limit query int false "Limit" default(20)
// @Success 200 {array} models.Recipe
// @Failure 400 {object} models.ErrorResponse
// @Router /wellness/searchRecipes [get]
func (s *Server) SearchRecipes(c *fiber.Ctx) error {
	var in service.RecipeSearchInput
	if err := parseQuery(c, &in); err != nil {
		return nil
	}
	recipes, err := s.wellness.SearchRecipes(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(recipes)
}

// GetWellnessAdvice handles POST /api/wellness/getWellnessAdvice
func (s *Server) GetWellnessAdvice(c *fiber.Ctx) error {
	var in service.AdviceInput
	if err := parseBody(c, &in); err != nil {
		return nil
	}
	in.UserID = currentUserID(c)
	res, err := s.wellness.GetWellnessAdvice(c.UserContext(), in)
	if err != nil {
		return respond(c, err)
	}
	return c.JSON(res)
}
