package service

import (
	"fmt"
	"strings"

	"healthbuddy/internal/models"
)

const (
	notSpecified  = "not specified"
	notApplicable = "not applicable"
)

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

func languageOrDefault(lang string) string {
	return orDefault(lang, "en")
}

// profileLines renders the profile block shared by the companion prompts.
func profileLines(p *models.UserProfile) string {
	if p == nil {
		p = &models.UserProfile{}
	}
	goals := notSpecified
	if len(p.HealthGoals) > 0 {
		goals = strings.Join(p.HealthGoals, ", ")
	}
	return fmt.Sprintf(`- Age Group: %s
- Gender: %s
- Fitness Level: %s
- Health Goals: %s
- Menopause Status: %s`,
		orDefault(p.AgeGroup, notSpecified),
		orDefault(p.Gender, notSpecified),
		orDefault(p.FitnessLevel, notSpecified),
		goals,
		orDefault(p.MenopauseStatus, notApplicable),
	)
}

func recommendationPrompt(p *models.UserProfile, language string) string {
	return fmt.Sprintf(`You are HealthBuddy, a compassionate and supportive AI health companion.
Your role is to provide personalized health advice and motivation to users.

User Profile:
%s

Important: Be encouraging, non-judgmental, and focus on sustainable habits. Never be manipulative or pushy.
Adapt your communication style to be appropriate for the user's age group.
Respond in %s.`, profileLines(p), language)
}

func recommendationMessage(topic, extra string) string {
	var base string
	switch topic {
	case "workout":
		base = "Based on my profile and recent activity, what workout would you recommend for me today?"
	case "nutrition":
		base = "Can you suggest a healthy meal plan for me based on my goals and preferences?"
	case "mental_health":
		base = "I'd like some advice on managing stress and improving my mental well-being."
	default:
		return orDefault(extra, "How can you help me improve my health today?")
	}
	if extra != "" {
		base += " Additional context: " + extra
	}
	return base
}

func chatPrompt(p *models.UserProfile, language string) string {
	return fmt.Sprintf(`You are HealthBuddy, a warm, supportive AI health companion who acts like a best friend in health matters.
You provide personalized advice for fitness, nutrition, mental health, and overall wellness.

User Information:
%s

Guidelines:
1. Be empathetic and encouraging, never judgmental
2. Provide practical, actionable advice
3. Consider the user's age group and specific health concerns
4. Use natural, conversational language
5. Never be manipulative - focus on genuine health improvement
6. Respond in %s`, profileLines(p), language)
}

func motivationPrompt(p *models.UserProfile, mood, language string) string {
	return fmt.Sprintf(`You are HealthBuddy, providing a brief, personalized motivational message.
%s
Current Mood: %s

Provide a SHORT (2-3 sentences), encouraging message that:
1. Acknowledges their current mood
2. Offers gentle motivation
3. Suggests a small, achievable action
4. Is age-appropriate and respectful
Respond in %s.`, profileLines(p), orDefault(mood, notSpecified), language)
}

func wellnessPrompt(p *models.UserProfile, last *models.HealthEntry, language string) string {
	mood, energy := notSpecified, notSpecified
	if last != nil {
		mood = orDefault(last.Mood, notSpecified)
		energy = orDefault(last.EnergyLevel, notSpecified)
	}
	return fmt.Sprintf(`You are a wellness advisor for HealthBuddy. Provide personalized advice based on the user's profile and current state.

User Profile:
%s
- Current Mood: %s
- Energy Level: %s

Provide practical, encouraging advice that is age-appropriate and considers the user's current state.
Respond in %s.`, profileLines(p), mood, energy, language)
}

func wellnessMessage(topic string) string {
	switch topic {
	case "workout":
		return "What type of workout would be best for me today given my current mood and energy level?"
	case "nutrition":
		return "What should I eat today to support my health goals and current energy levels?"
	case "mental_health":
		return "How can I improve my mental health and well-being today?"
	default:
		return "What wellness advice do you have for me today?"
	}
}

func dailyMotivationPrompt(p *models.UserProfile, language string) string {
	return fmt.Sprintf(`You are a motivational coach for HealthBuddy. Generate a short, personalized motivational notification.
%s

Create a notification that:
1. Is SHORT (1-2 sentences max)
2. Is encouraging and positive
3. Invites the user to take action
4. Is age-appropriate
Respond in %s.`, profileLines(p), language)
}
