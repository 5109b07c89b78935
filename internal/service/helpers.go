// Package service implements the HealthBuddy procedures on top of the
// repositories and external clients.
package service

import (
	"context"
	"time"

	"healthbuddy/internal/models"
	"healthbuddy/internal/validation"
)

// Clock returns the current time. Services take one so tests can pin it.
type Clock func() time.Time

func systemClock() time.Time { return time.Now().UTC() }

func clockOrDefault(c Clock) Clock {
	if c == nil {
		return systemClock
	}
	return c
}

// validate runs struct-tag validation and reports failures as VALIDATION_ERROR.
func validate(in any) error {
	if err := validation.Struct(in); err != nil {
		return models.NewValidationError(err.Error())
	}
	return nil
}

// Notifier creates in-app notifications on behalf of other services.
type Notifier interface {
	Notify(ctx context.Context, in NotifyInput) (*models.UserNotification, error)
}

func clampLimit(limit, def, max int) int {
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// Success is the bare acknowledgement returned by mutations.
type Success struct {
	Success bool `json:"success"`
}

// SuccessMessage is an acknowledgement with a user-facing message.
type SuccessMessage struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}
