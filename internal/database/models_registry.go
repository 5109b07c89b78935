package database

import "healthbuddy/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.User{},
		&models.SubscriptionPlan{},
		&models.UserSubscription{},
		&models.PaymentTransaction{},
		&models.UserProfile{},
		&models.HealthEntry{},
		&models.NutritionEntry{},
		&models.AIConversation{},
		&models.Workout{},
		&models.Meditation{},
		&models.NutritionPlan{},
		&models.Recipe{},
		&models.VideoClass{},
		&models.UserAchievement{},
		&models.UserPoints{},
		&models.CommunityPost{},
		&models.CommunityComment{},
		&models.UserNotification{},
		&models.SupportTicket{},
		&models.SupportMessage{},
	}
}
