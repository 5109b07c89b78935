package models

import "time"

// UserProfile holds the health context used to personalize prompts and recommendations.
type UserProfile struct {
	ID                      string     `gorm:"primaryKey;size:64" json:"id"`
	UserID                  string     `gorm:"size:64;not null;uniqueIndex" json:"userId"`
	AgeGroup                string     `gorm:"size:16" json:"ageGroup"`
	Gender                  string     `gorm:"size:16" json:"gender"`
	FitnessLevel            string     `gorm:"size:16" json:"fitnessLevel"`
	HealthGoals             StringList `gorm:"type:text" json:"healthGoals"`
	Preferences             JSONMap    `gorm:"type:text" json:"preferences"`
	MenstrualCycleLength    string     `gorm:"size:16" json:"menstrualCycleLength"`
	MenstrualCycleStartDate *time.Time `json:"menstrualCycleStartDate"`
	MenopauseStatus         string     `gorm:"size:16" json:"menopauseStatus"`
	Allergies               StringList `gorm:"type:text" json:"allergies"`
	DietaryRestrictions     StringList `gorm:"type:text" json:"dietaryRestrictions"`
	CreatedAt               time.Time  `json:"createdAt"`
	UpdatedAt               time.Time  `json:"updatedAt"`
}

// HealthEntry is a single activity / mood / energy log.
type HealthEntry struct {
	ID           string    `gorm:"primaryKey;size:64" json:"id"`
	UserID       string    `gorm:"size:64;not null;index:idx_health_user_date,priority:1" json:"userId"`
	Date         time.Time `gorm:"not null;index:idx_health_user_date,priority:2" json:"date"`
	ActivityType string    `gorm:"size:64;not null" json:"activityType"`
	Duration     *int      `json:"duration"`
	Calories     *int      `json:"calories"`
	Mood         string    `gorm:"size:16" json:"mood"`
	EnergyLevel  string    `gorm:"size:16" json:"energyLevel"`
	SleepHours   *float64  `json:"sleepHours"`
	WaterIntake  *float64  `json:"waterIntake"`
	Notes        string    `gorm:"type:text" json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
}

// TableName returns the database table name for HealthEntry.
func (HealthEntry) TableName() string { return "health_tracking" }

// NutritionEntry is a single meal log.
type NutritionEntry struct {
	ID        string     `gorm:"primaryKey;size:64" json:"id"`
	UserID    string     `gorm:"size:64;not null;index:idx_nutrition_user_date,priority:1" json:"userId"`
	Date      time.Time  `gorm:"not null;index:idx_nutrition_user_date,priority:2" json:"date"`
	MealType  string     `gorm:"size:16;not null" json:"mealType"`
	FoodItems StringList `gorm:"type:text" json:"foodItems"`
	Calories  *int       `json:"calories"`
	Protein   *float64   `json:"protein"`
	Carbs     *float64   `json:"carbs"`
	Fat       *float64   `json:"fat"`
	Notes     string     `gorm:"type:text" json:"notes"`
	CreatedAt time.Time  `json:"createdAt"`
}

// TableName returns the database table name for NutritionEntry.
func (NutritionEntry) TableName() string { return "nutrition_tracking" }

// AIConversation is one user/assistant exchange.
type AIConversation struct {
	ID             string    `gorm:"primaryKey;size:64" json:"id"`
	UserID         string    `gorm:"size:64;not null;index" json:"userId"`
	ConversationID string    `gorm:"size:128;not null;index" json:"conversationId"`
	UserMessage    string    `gorm:"type:text;not null" json:"userMessage"`
	AIResponse     string    `gorm:"column:ai_response;type:text;not null" json:"aiResponse"`
	Context        JSONMap   `gorm:"type:text" json:"context"`
	CreatedAt      time.Time `json:"createdAt"`
}

// TableName returns the database table name for AIConversation.
func (AIConversation) TableName() string { return "ai_conversations" }
