package seed

import (
	"fmt"

	"healthbuddy/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// BuiltInPlans are the subscription plans every environment starts with.
var BuiltInPlans = []models.SubscriptionPlan{
	{
		ID:            models.PlanBasic,
		Name:          "Basic Plan",
		Description:   "Everything you need to build a healthy routine.",
		Price:         "5.00",
		Currency:      "GBP",
		BillingPeriod: models.BillingMonthly,
		Features: models.StringList{
			"Personalized workout plans",
			"Selected video classes (20-30 per category)",
			"Basic guided meditations (10-15 per theme)",
			"Basic nutrition plans",
			"Basic menstrual cycle tracking",
			"Monthly reports",
			"Ad-free experience",
		},
	},
	{
		ID:            models.PlanPremium,
		Name:          "Premium Plan",
		Description:   "The full HealthBuddy library with advanced coaching.",
		Price:         "12.00",
		Currency:      "GBP",
		BillingPeriod: models.BillingMonthly,
		Features: models.StringList{
			"Advanced personalized workout plans",
			"Complete video class library (hundreds of videos)",
			"Full meditation and mental wellness library",
			"Personalized nutrition plans",
			"Advanced menstrual cycle and menopause tracking",
			"Advanced conversational AI",
			"Detailed weekly and monthly reports",
			"Exclusive content (webinars, expert interviews)",
			"Wearable device integration",
			"Priority support",
			"Premium community access",
		},
	},
}

// Plans upserts BuiltInPlans. Name, price and features follow the code;
// a Stripe price id set by an operator is kept.
func Plans(db *gorm.DB) error {
	for i := range BuiltInPlans {
		plan := BuiltInPlans[i]
		if err := db.Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{"name", "description", "price", "currency", "billing_period", "features", "updated_at"}),
		}).Create(&plan).Error; err != nil {
			return fmt.Errorf("seed plan %s: %w", plan.ID, err)
		}
	}
	return nil
}
