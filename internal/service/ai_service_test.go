package service

import (
	"context"
	"strings"
	"testing"

	"healthbuddy/internal/featureflags"
	"healthbuddy/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProfileLines(t *testing.T) {
	t.Parallel()

	empty := profileLines(nil)
	assert.Contains(t, empty, "- Age Group: not specified")
	assert.Contains(t, empty, "- Health Goals: not specified")
	assert.Contains(t, empty, "- Menopause Status: not applicable")

	full := profileLines(&models.UserProfile{
		AgeGroup:        "senior",
		Gender:          "female",
		FitnessLevel:    "beginner",
		HealthGoals:     models.StringList{"mobility", "sleep"},
		MenopauseStatus: "post_menopause",
	})
	assert.Contains(t, full, "- Age Group: senior")
	assert.Contains(t, full, "- Health Goals: mobility, sleep")
	assert.Contains(t, full, "- Menopause Status: post_menopause")
}

func TestRecommendationMessage(t *testing.T) {
	t.Parallel()

	assert.Equal(t,
		"Can you suggest a healthy meal plan for me based on my goals and preferences? Additional context: vegetarian",
		recommendationMessage("nutrition", "vegetarian"))
	assert.Equal(t, "How can you help me improve my health today?", recommendationMessage("general", ""))
	assert.Equal(t, "knees hurt", recommendationMessage("general", "knees hurt"))
}

func TestAIService_GetRecommendation(t *testing.T) {
	t.Parallel()

	t.Run("stores the exchange", func(t *testing.T) {
		t.Parallel()
		profiles := newProfileRepoStub()
		client := &llmStub{reply: "Try a brisk walk."}
		svc := NewAIService(profiles, client, nil, fixedClock)

		res, err := svc.GetRecommendation(context.Background(), RecommendationInput{UserID: "u1", Topic: "workout", Language: "de"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "Try a brisk walk.", res.Response)
		assert.Equal(t, "workout", res.Topic)

		req := client.last(t)
		assert.Equal(t, "recommendation", req.Persona)
		assert.True(t, strings.HasSuffix(req.Messages[0].Content, "Respond in de."))

		require.Len(t, profiles.conversations, 1)
		turn := profiles.conversations[0]
		assert.Equal(t, "conv_u1", turn.ConversationID)
		assert.Equal(t, "workout", turn.Context["topic"])
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		t.Parallel()
		svc := NewAIService(newProfileRepoStub(), &llmStub{}, nil, fixedClock)

		res, err := svc.GetRecommendation(context.Background(), RecommendationInput{UserID: "u1", Topic: "general"})
		require.NoError(t, err)
		assert.Equal(t, "I'm having trouble generating a response right now.", res.Response)
	})

	t.Run("llm failure is reported in body", func(t *testing.T) {
		t.Parallel()
		profiles := newProfileRepoStub()
		svc := NewAIService(profiles, &llmStub{err: errBoom}, nil, fixedClock)

		res, err := svc.GetRecommendation(context.Background(), RecommendationInput{UserID: "u1", Topic: "workout"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "AI service temporarily unavailable", res.Error)
		assert.Empty(t, profiles.conversations)
	})

	t.Run("unknown topic", func(t *testing.T) {
		t.Parallel()
		svc := NewAIService(newProfileRepoStub(), &llmStub{}, nil, fixedClock)

		_, err := svc.GetRecommendation(context.Background(), RecommendationInput{UserID: "u1", Topic: "astrology"})
		assertAppError(t, err, models.CodeValidation)
	})
}

func TestAIService_Chat(t *testing.T) {
	t.Parallel()

	t.Run("default conversation id", func(t *testing.T) {
		t.Parallel()
		profiles := newProfileRepoStub()
		svc := NewAIService(profiles, &llmStub{reply: "Sure!"}, nil, fixedClock)

		res, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, "conv_u1_1773144000000", res.ConversationID)
		assert.Equal(t, "en", profiles.conversations[0].Context["language"])
	})

	t.Run("empty reply falls back", func(t *testing.T) {
		t.Parallel()
		svc := NewAIService(newProfileRepoStub(), &llmStub{}, nil, fixedClock)

		res, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi", ConversationID: "c1"})
		require.NoError(t, err)
		assert.Equal(t, "I'm here to help. Can you tell me more?", res.Response)
		assert.Equal(t, "c1", res.ConversationID)
	})

	t.Run("storage failure is reported in body", func(t *testing.T) {
		t.Parallel()
		profiles := newProfileRepoStub()
		profiles.createConvErr = errBoom
		svc := NewAIService(profiles, &llmStub{reply: "ok"}, nil, fixedClock)

		res, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, "Chat service temporarily unavailable", res.Error)
	})

	t.Run("forbidden when flag off", func(t *testing.T) {
		t.Parallel()
		client := &llmStub{reply: "ok"}
		svc := NewAIService(newProfileRepoStub(), client, featureflags.NewManager("ai_chat=off"), fixedClock)

		_, err := svc.Chat(context.Background(), ChatInput{UserID: "u1", Message: "hi"})
		assertAppError(t, err, models.CodeForbidden)
		assert.Empty(t, client.requests)
	})
}

func TestAIService_GetMotivation(t *testing.T) {
	t.Parallel()

	svc := NewAIService(newProfileRepoStub(), &llmStub{}, nil, fixedClock)
	res, err := svc.GetMotivation(context.Background(), MotivationInput{UserID: "u1", CurrentMood: "sad"})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "You've got this! Every small step counts.", res.Message)

	svc = NewAIService(newProfileRepoStub(), &llmStub{err: errBoom}, nil, fixedClock)
	res, err = svc.GetMotivation(context.Background(), MotivationInput{UserID: "u1"})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, "Remember, you're doing great! Keep taking care of yourself.", res.Message)
}
