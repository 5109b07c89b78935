package service

import (
	"context"
	"fmt"
	"log/slog"

	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/llm"
	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
)

// AIService serves the companion procedures. LLM and storage failures are
// reported in the result body with success=false rather than as errors.
type AIService struct {
	profiles repository.ProfileRepository
	llm      llm.Client
	flags    *featureflags.Manager
	now      Clock
}

func NewAIService(profiles repository.ProfileRepository, client llm.Client, flags *featureflags.Manager, now Clock) *AIService {
	return &AIService{profiles: profiles, llm: client, flags: flags, now: clockOrDefault(now)}
}

type RecommendationInput struct {
	UserID   string
	Topic    string `json:"topic" validate:"oneof=workout nutrition mental_health general"`
	Context  string `json:"context"`
	Language string `json:"language"`
}

type RecommendationResult struct {
	Success  bool   `json:"success"`
	Response string `json:"response"`
	Topic    string `json:"topic,omitempty"`
	Error    string `json:"error,omitempty"`
}

type ChatInput struct {
	UserID         string
	Message        string `json:"message" validate:"min=1,max=4000"`
	ConversationID string `json:"conversationId"`
	Language       string `json:"language"`
}

type ChatResult struct {
	Success        bool   `json:"success"`
	Response       string `json:"response"`
	ConversationID string `json:"conversationId,omitempty"`
	Error          string `json:"error,omitempty"`
}

type MotivationInput struct {
	UserID      string
	CurrentMood string `json:"currentMood" validate:"omitempty,oneof=very_sad sad neutral happy very_happy"`
	Language    string `json:"language"`
}

type MotivationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

func (s *AIService) GetRecommendation(ctx context.Context, in RecommendationInput) (*RecommendationResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	failed := func(err error) (*RecommendationResult, error) {
		logAIFailure(ctx, "recommendation", in.UserID, err)
		return &RecommendationResult{
			Success:  false,
			Response: "I'm sorry, I'm having trouble generating a recommendation right now. Please try again later.",
			Error:    "AI service temporarily unavailable",
		}, nil
	}

	reply, userMessage, err := s.recommend(ctx, in)
	if err != nil {
		return failed(err)
	}

	now := s.now()
	if err := s.profiles.CreateConversation(ctx, &models.AIConversation{
		ID:             models.NewID("msg", in.UserID, now),
		UserID:         in.UserID,
		ConversationID: defaultConversationID(in.UserID),
		UserMessage:    userMessage,
		AIResponse:     reply,
		Context:        models.JSONMap{"topic": in.Topic, "timestamp": now.Format(timestampLayout)},
		CreatedAt:      now,
	}); err != nil {
		return failed(err)
	}

	return &RecommendationResult{Success: true, Response: reply, Topic: in.Topic}, nil
}

func (s *AIService) recommend(ctx context.Context, in RecommendationInput) (reply, userMessage string, err error) {
	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return "", "", err
	}
	userMessage = recommendationMessage(in.Topic, in.Context)
	reply, err = s.llm.Complete(ctx, llm.Prompt("recommendation",
		recommendationPrompt(profile, languageOrDefault(in.Language)), userMessage))
	if err != nil {
		return "", "", err
	}
	return orDefault(reply, "I'm having trouble generating a response right now."), userMessage, nil
}

// Chat answers a free-form message. It is FORBIDDEN while the ai_chat flag is off.
func (s *AIService) Chat(ctx context.Context, in ChatInput) (*ChatResult, error) {
	if !s.flags.Enabled(featureflags.AIChat, in.UserID) {
		return nil, models.NewForbiddenError("AI chat is not available")
	}
	if err := validate(in); err != nil {
		return nil, err
	}

	now := s.now()
	conversationID := in.ConversationID
	if conversationID == "" {
		conversationID = fmt.Sprintf("conv_%s_%d", in.UserID, now.UnixMilli())
	}
	language := languageOrDefault(in.Language)

	failed := func(err error) (*ChatResult, error) {
		logAIFailure(ctx, "chat", in.UserID, err)
		return &ChatResult{
			Success:  false,
			Response: "I'm sorry, I'm having trouble responding right now. Please try again.",
			Error:    "Chat service temporarily unavailable",
		}, nil
	}

	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err != nil {
		return failed(err)
	}
	reply, err := s.llm.Complete(ctx, llm.Prompt("chat", chatPrompt(profile, language), in.Message))
	if err != nil {
		return failed(err)
	}
	reply = orDefault(reply, "I'm here to help. Can you tell me more?")

	if err := s.profiles.CreateConversation(ctx, &models.AIConversation{
		ID:             models.NewID("msg", in.UserID, now),
		UserID:         in.UserID,
		ConversationID: conversationID,
		UserMessage:    in.Message,
		AIResponse:     reply,
		Context:        models.JSONMap{"timestamp": now.Format(timestampLayout), "language": language},
		CreatedAt:      now,
	}); err != nil {
		return failed(err)
	}

	return &ChatResult{Success: true, Response: reply, ConversationID: conversationID}, nil
}

func (s *AIService) GetMotivation(ctx context.Context, in MotivationInput) (*MotivationResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}

	profile, err := s.profiles.GetByUserID(ctx, in.UserID)
	if err == nil {
		var reply string
		reply, err = s.llm.Complete(ctx, llm.Prompt("motivation",
			motivationPrompt(profile, in.CurrentMood, languageOrDefault(in.Language)),
			"I need some motivation right now."))
		if err == nil {
			return &MotivationResult{Success: true, Message: orDefault(reply, "You've got this! Every small step counts.")}, nil
		}
	}

	logAIFailure(ctx, "motivation", in.UserID, err)
	return &MotivationResult{
		Success: false,
		Message: "Remember, you're doing great! Keep taking care of yourself.",
		Error:   "Service temporarily unavailable",
	}, nil
}

const timestampLayout = "2006-01-02T15:04:05.000Z07:00"

func logAIFailure(ctx context.Context, op, userID string, err error) {
	middleware.Logger.ErrorContext(ctx, "ai procedure failed",
		slog.String("operation", op),
		slog.String("user_id", userID),
		slog.String("error", err.Error()),
	)
}
