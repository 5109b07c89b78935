package models

import "time"

// Built-in plan ids.
const (
	PlanBasic   = "plan_basic"
	PlanPremium = "plan_premium"
)

// Billing periods.
const (
	BillingMonthly = "monthly"
	BillingYearly  = "yearly"
)

// Subscription statuses.
const (
	SubscriptionTrial      = "trial"
	SubscriptionActive     = "active"
	SubscriptionIncomplete = "incomplete"
	SubscriptionPastDue    = "past_due"
	SubscriptionCanceled   = "canceled"
	SubscriptionExpired    = "expired"
)

// Transaction statuses.
const (
	TransactionPending   = "pending"
	TransactionSucceeded = "succeeded"
	TransactionFailed    = "failed"
	TransactionRefunded  = "refunded"
)

// SubscriptionPlan is a purchasable tier.
type SubscriptionPlan struct {
	ID            string     `gorm:"primaryKey;size:64" json:"id"`
	Name          string     `gorm:"size:255;not null" json:"name"`
	Description   string     `gorm:"type:text" json:"description"`
	Price         string     `gorm:"size:16;not null" json:"price"`
	Currency      string     `gorm:"size:3;not null;default:GBP" json:"currency"`
	BillingPeriod string     `gorm:"size:16;not null" json:"billingPeriod"`
	Features      StringList `gorm:"type:text" json:"features"`
	StripePriceID string     `gorm:"size:255" json:"stripePriceId,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// UserSubscription is a user's (single) subscription record.
type UserSubscription struct {
	ID                   string     `gorm:"primaryKey;size:64" json:"id"`
	UserID               string     `gorm:"size:64;not null;index" json:"userId"`
	PlanID               string     `gorm:"size:64;not null" json:"planId"`
	Status               string     `gorm:"size:16;not null" json:"status"`
	TrialEndsAt          *time.Time `json:"trialEndsAt"`
	CurrentPeriodStart   *time.Time `json:"currentPeriodStart"`
	CurrentPeriodEnd     *time.Time `json:"currentPeriodEnd"`
	CanceledAt           *time.Time `json:"canceledAt"`
	StripeCustomerID     string     `gorm:"size:255" json:"stripeCustomerId,omitempty"`
	StripeSubscriptionID string     `gorm:"size:255;index" json:"stripeSubscriptionId,omitempty"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// PaymentTransaction records a charge attempt.
type PaymentTransaction struct {
	ID                    string    `gorm:"primaryKey;size:64" json:"id"`
	UserID                string    `gorm:"size:64;not null;index" json:"userId"`
	SubscriptionID        string    `gorm:"size:64" json:"subscriptionId,omitempty"`
	Amount                string    `gorm:"size:16;not null" json:"amount"`
	Currency              string    `gorm:"size:3;not null" json:"currency"`
	Status                string    `gorm:"size:16;not null" json:"status"`
	PaymentMethod         string    `gorm:"size:64" json:"paymentMethod"`
	StripePaymentIntentID string    `gorm:"size:255;index" json:"stripePaymentIntentId,omitempty"`
	CreatedAt             time.Time `json:"createdAt"`
	UpdatedAt             time.Time `json:"updatedAt"`
}
