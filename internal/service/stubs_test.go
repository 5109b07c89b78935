package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"healthbuddy/internal/llm"
	"healthbuddy/internal/mailer"
	"healthbuddy/internal/models"
	"healthbuddy/internal/payments"
	"healthbuddy/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func strPtr(s string) *string { return &s }

// llmStub is a stub for llm.Client that records requests.
type llmStub struct {
	mu       sync.Mutex
	reply    string
	err      error
	requests []llm.Request
}

func (s *llmStub) Complete(_ context.Context, req llm.Request) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	return s.reply, s.err
}

func (s *llmStub) last(t *testing.T) llm.Request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

// notifierStub is a stub for Notifier that records inputs.
type notifierStub struct {
	inputs []NotifyInput
	err    error
}

func (s *notifierStub) Notify(_ context.Context, in NotifyInput) (*models.UserNotification, error) {
	s.inputs = append(s.inputs, in)
	if s.err != nil {
		return nil, s.err
	}
	return &models.UserNotification{ID: "notif_" + in.UserID, UserID: in.UserID, Type: in.Type, Title: in.Title, Message: in.Message}, nil
}

// mailerStub is a stub for mailer.Mailer.
type mailerStub struct {
	receipts    []string
	escalations []string
}

func (s *mailerStub) TicketReceipt(_ context.Context, to mailer.Recipient, ticketID, _ string) error {
	s.receipts = append(s.receipts, to.Email+":"+ticketID)
	return nil
}

func (s *mailerStub) EscalationNotice(_ context.Context, to mailer.Recipient, ticketID, _, agent string) error {
	s.escalations = append(s.escalations, to.Email+":"+ticketID+":"+agent)
	return nil
}

// userRepoStub is a stub for repository.UserRepository.
type userRepoStub struct {
	getByIDFn           func(context.Context, string) (*models.User, error)
	getByEmailFn        func(context.Context, string) (*models.User, error)
	createFn            func(context.Context, *models.User) error
	upsertFn            func(context.Context, *models.User) error
	touchLastSignedInFn func(context.Context, string, time.Time) error
	setRoleFn           func(context.Context, string, string) error
	listFn              func(context.Context, int, int) ([]models.User, error)
}

func (s *userRepoStub) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getByIDFn(ctx, id)
}
func (s *userRepoStub) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return s.getByEmailFn(ctx, email)
}
func (s *userRepoStub) Create(ctx context.Context, u *models.User) error { return s.createFn(ctx, u) }
func (s *userRepoStub) Upsert(ctx context.Context, u *models.User) error { return s.upsertFn(ctx, u) }
func (s *userRepoStub) TouchLastSignedIn(ctx context.Context, id string, at time.Time) error {
	return s.touchLastSignedInFn(ctx, id, at)
}
func (s *userRepoStub) SetRole(ctx context.Context, id, role string) error {
	return s.setRoleFn(ctx, id, role)
}
func (s *userRepoStub) List(ctx context.Context, limit, offset int) ([]models.User, error) {
	return s.listFn(ctx, limit, offset)
}

func noopUserRepo() *userRepoStub {
	return &userRepoStub{
		getByIDFn:           func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		getByEmailFn:        func(_ context.Context, _ string) (*models.User, error) { return nil, nil },
		createFn:            func(_ context.Context, _ *models.User) error { return nil },
		upsertFn:            func(_ context.Context, _ *models.User) error { return nil },
		touchLastSignedInFn: func(_ context.Context, _ string, _ time.Time) error { return nil },
		setRoleFn:           func(_ context.Context, _, _ string) error { return nil },
		listFn:              func(_ context.Context, _, _ int) ([]models.User, error) { return nil, nil },
	}
}

// supportRepoStub is an in-memory repository.SupportRepository.
type supportRepoStub struct {
	tickets          map[string]*models.SupportTicket
	messages         []models.SupportMessage
	updates          []map[string]interface{}
	createMessageErr error
}

func newSupportRepoStub() *supportRepoStub {
	return &supportRepoStub{tickets: map[string]*models.SupportTicket{}}
}

func (s *supportRepoStub) CreateTicket(_ context.Context, t *models.SupportTicket) error {
	cp := *t
	s.tickets[t.ID] = &cp
	return nil
}
func (s *supportRepoStub) GetTicket(_ context.Context, id string) (*models.SupportTicket, error) {
	t, ok := s.tickets[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}
func (s *supportRepoStub) ListTickets(_ context.Context, userID string) ([]models.SupportTicket, error) {
	var out []models.SupportTicket
	for _, t := range s.tickets {
		if t.UserID == userID {
			out = append(out, *t)
		}
	}
	return out, nil
}
func (s *supportRepoStub) UpdateTicket(_ context.Context, id string, fields map[string]interface{}) error {
	s.updates = append(s.updates, fields)
	t := s.tickets[id]
	if v, ok := fields["current_agent"].(string); ok {
		t.CurrentAgent = v
	}
	if v, ok := fields["status"].(string); ok {
		t.Status = v
	}
	if v, ok := fields["rating"].(string); ok {
		t.Rating = v
	}
	if v, ok := fields["feedback"]; ok {
		t.Feedback, _ = v.(*string)
	}
	return nil
}
func (s *supportRepoStub) CreateMessage(_ context.Context, m *models.SupportMessage) error {
	if s.createMessageErr != nil && m.Sender == models.SenderAgent {
		return s.createMessageErr
	}
	s.messages = append(s.messages, *m)
	return nil
}
func (s *supportRepoStub) ListMessages(_ context.Context, ticketID string) ([]models.SupportMessage, error) {
	var out []models.SupportMessage
	for _, m := range s.messages {
		if m.TicketID == ticketID {
			out = append(out, m)
		}
	}
	return out, nil
}

// profileRepoStub is an in-memory repository.ProfileRepository.
type profileRepoStub struct {
	profiles      map[string]*models.UserProfile
	health        []models.HealthEntry
	nutrition     []models.NutritionEntry
	conversations []models.AIConversation
	latest        *models.HealthEntry
	createConvErr error
}

func newProfileRepoStub() *profileRepoStub {
	return &profileRepoStub{profiles: map[string]*models.UserProfile{}}
}

func (s *profileRepoStub) GetByUserID(_ context.Context, userID string) (*models.UserProfile, error) {
	p, ok := s.profiles[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *profileRepoStub) Create(_ context.Context, p *models.UserProfile) error {
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}
func (s *profileRepoStub) Save(_ context.Context, p *models.UserProfile) error {
	cp := *p
	s.profiles[p.UserID] = &cp
	return nil
}
func (s *profileRepoStub) ListUserIDs(_ context.Context) ([]string, error) {
	var ids []string
	for id := range s.profiles {
		ids = append(ids, id)
	}
	return ids, nil
}
func (s *profileRepoStub) CreateHealthEntry(_ context.Context, e *models.HealthEntry) error {
	s.health = append(s.health, *e)
	return nil
}
func (s *profileRepoStub) ListHealthEntries(_ context.Context, _ string, _, _ *time.Time) ([]models.HealthEntry, error) {
	return s.health, nil
}
func (s *profileRepoStub) LatestHealthEntry(_ context.Context, _ string) (*models.HealthEntry, error) {
	return s.latest, nil
}
func (s *profileRepoStub) CreateNutritionEntry(_ context.Context, e *models.NutritionEntry) error {
	s.nutrition = append(s.nutrition, *e)
	return nil
}
func (s *profileRepoStub) ListNutritionEntries(_ context.Context, _ string, _, _ *time.Time) ([]models.NutritionEntry, error) {
	return s.nutrition, nil
}
func (s *profileRepoStub) CreateConversation(_ context.Context, c *models.AIConversation) error {
	if s.createConvErr != nil {
		return s.createConvErr
	}
	s.conversations = append(s.conversations, *c)
	return nil
}
func (s *profileRepoStub) ListConversations(_ context.Context, _ string, limit int) ([]models.AIConversation, error) {
	if len(s.conversations) > limit {
		return s.conversations[len(s.conversations)-limit:], nil
	}
	return s.conversations, nil
}

// subscriptionRepoStub is an in-memory repository.SubscriptionRepository.
type subscriptionRepoStub struct {
	plans        map[string]*models.SubscriptionPlan
	subs         map[string]*models.UserSubscription
	transactions []models.PaymentTransaction
	txnUpdates   map[string]string
}

func newSubscriptionRepoStub() *subscriptionRepoStub {
	return &subscriptionRepoStub{
		plans: map[string]*models.SubscriptionPlan{
			models.PlanBasic: {ID: models.PlanBasic, Name: "Basic Plan", Price: "5.00", Currency: "GBP",
				BillingPeriod: "monthly", Features: models.StringList{"AI chat"}},
			models.PlanPremium: {ID: models.PlanPremium, Name: "Premium Plan", Price: "12.00", Currency: "GBP",
				BillingPeriod: "monthly", Features: models.StringList{"Everything"}, StripePriceID: "price_premium"},
		},
		subs:       map[string]*models.UserSubscription{},
		txnUpdates: map[string]string{},
	}
}

func (s *subscriptionRepoStub) ListPlans(_ context.Context) ([]models.SubscriptionPlan, error) {
	return []models.SubscriptionPlan{*s.plans[models.PlanBasic], *s.plans[models.PlanPremium]}, nil
}
func (s *subscriptionRepoStub) GetPlan(_ context.Context, id string) (*models.SubscriptionPlan, error) {
	p, ok := s.plans[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *subscriptionRepoStub) UpsertPlan(_ context.Context, p *models.SubscriptionPlan) error {
	cp := *p
	s.plans[p.ID] = &cp
	return nil
}
func (s *subscriptionRepoStub) GetByUserID(_ context.Context, userID string) (*models.UserSubscription, error) {
	sub, ok := s.subs[userID]
	if !ok {
		return nil, nil
	}
	cp := *sub
	return &cp, nil
}
func (s *subscriptionRepoStub) GetByStripeSubscriptionID(_ context.Context, stripeID string) (*models.UserSubscription, error) {
	for _, sub := range s.subs {
		if sub.StripeSubscriptionID == stripeID {
			cp := *sub
			return &cp, nil
		}
	}
	return nil, nil
}
func (s *subscriptionRepoStub) Create(_ context.Context, sub *models.UserSubscription) error {
	cp := *sub
	s.subs[sub.UserID] = &cp
	return nil
}
func (s *subscriptionRepoStub) Save(_ context.Context, sub *models.UserSubscription) error {
	cp := *sub
	s.subs[sub.UserID] = &cp
	return nil
}
func (s *subscriptionRepoStub) ListExpiredTrials(_ context.Context, now time.Time) ([]models.UserSubscription, error) {
	var out []models.UserSubscription
	for _, sub := range s.subs {
		if sub.Status == models.SubscriptionTrial && sub.TrialEndsAt != nil && !sub.TrialEndsAt.After(now) {
			out = append(out, *sub)
		}
	}
	return out, nil
}
func (s *subscriptionRepoStub) CreateTransaction(_ context.Context, txn *models.PaymentTransaction) error {
	s.transactions = append(s.transactions, *txn)
	return nil
}
func (s *subscriptionRepoStub) UpdateTransactionStatus(_ context.Context, intentID, status string) (int64, error) {
	for i := range s.transactions {
		if s.transactions[i].StripePaymentIntentID == intentID {
			s.transactions[i].Status = status
			s.txnUpdates[intentID] = status
			return 1, nil
		}
	}
	return 0, nil
}

// libraryRepoStub is a stub for repository.LibraryRepository.
type libraryRepoStub struct {
	workouts    []models.Workout
	meditations []models.Meditation
	plans       []models.NutritionPlan
	recipes     []models.Recipe
	videos      []models.VideoClass
	lastFilter  repository.RecipeFilter
}

func (s *libraryRepoStub) GetWorkout(_ context.Context, id string) (*models.Workout, error) {
	for i := range s.workouts {
		if s.workouts[i].ID == id {
			return &s.workouts[i], nil
		}
	}
	return nil, nil
}
func (s *libraryRepoStub) ListWorkoutsByCategory(_ context.Context, category string) ([]models.Workout, error) {
	var out []models.Workout
	for _, w := range s.workouts {
		if w.Category == category {
			out = append(out, w)
		}
	}
	return out, nil
}
func (s *libraryRepoStub) GetMeditation(_ context.Context, id string) (*models.Meditation, error) {
	for i := range s.meditations {
		if s.meditations[i].ID == id {
			return &s.meditations[i], nil
		}
	}
	return nil, nil
}
func (s *libraryRepoStub) ListMeditationsByCategory(_ context.Context, category string, limit int) ([]models.Meditation, error) {
	var out []models.Meditation
	for _, m := range s.meditations {
		if m.Category == category && len(out) < limit {
			out = append(out, m)
		}
	}
	return out, nil
}
func (s *libraryRepoStub) FirstNutritionPlan(_ context.Context, dietaryType string) (*models.NutritionPlan, error) {
	for i := range s.plans {
		if s.plans[i].DietaryType == dietaryType {
			return &s.plans[i], nil
		}
	}
	return nil, nil
}
func (s *libraryRepoStub) GetRecipe(_ context.Context, id string) (*models.Recipe, error) {
	for i := range s.recipes {
		if s.recipes[i].ID == id {
			return &s.recipes[i], nil
		}
	}
	return nil, nil
}
func (s *libraryRepoStub) SearchRecipes(_ context.Context, f repository.RecipeFilter) ([]models.Recipe, error) {
	s.lastFilter = f
	return s.recipes, nil
}
func (s *libraryRepoStub) GetVideo(_ context.Context, id string) (*models.VideoClass, error) {
	for i := range s.videos {
		if s.videos[i].ID == id {
			return &s.videos[i], nil
		}
	}
	return nil, nil
}
func (s *libraryRepoStub) ListVideosByCategory(_ context.Context, category string, limit int) ([]models.VideoClass, error) {
	var out []models.VideoClass
	for _, v := range s.videos {
		if v.Category == category && len(out) < limit {
			out = append(out, v)
		}
	}
	return out, nil
}
func (s *libraryRepoStub) Seed(_ context.Context, _ ...interface{}) error { return nil }

// pointsRepoStub is an in-memory repository.PointsRepository.
type pointsRepoStub struct {
	points       map[string]*models.UserPoints
	achievements []models.UserAchievement
}

func newPointsRepoStub() *pointsRepoStub {
	return &pointsRepoStub{points: map[string]*models.UserPoints{}}
}

func (s *pointsRepoStub) GetPoints(_ context.Context, userID string) (*models.UserPoints, error) {
	p, ok := s.points[userID]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *pointsRepoStub) UpsertPoints(_ context.Context, p *models.UserPoints) error {
	cp := *p
	s.points[p.UserID] = &cp
	return nil
}
func (s *pointsRepoStub) CreateAchievement(_ context.Context, a *models.UserAchievement) error {
	s.achievements = append(s.achievements, *a)
	return nil
}
func (s *pointsRepoStub) ListAchievements(_ context.Context, userID string) ([]models.UserAchievement, error) {
	var out []models.UserAchievement
	for _, a := range s.achievements {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

// postRepoStub is an in-memory repository.PostRepository.
type postRepoStub struct {
	posts    map[string]*models.CommunityPost
	comments []models.CommunityComment
	listArgs [2]int
}

func newPostRepoStub() *postRepoStub {
	return &postRepoStub{posts: map[string]*models.CommunityPost{}}
}

func (s *postRepoStub) Create(_ context.Context, p *models.CommunityPost) error {
	cp := *p
	s.posts[p.ID] = &cp
	return nil
}
func (s *postRepoStub) GetByID(_ context.Context, id string) (*models.CommunityPost, error) {
	p, ok := s.posts[id]
	if !ok {
		return nil, nil
	}
	cp := *p
	return &cp, nil
}
func (s *postRepoStub) List(_ context.Context, limit, offset int) ([]models.CommunityPost, error) {
	s.listArgs = [2]int{limit, offset}
	var out []models.CommunityPost
	for _, p := range s.posts {
		out = append(out, *p)
	}
	return out, nil
}
func (s *postRepoStub) UpdateCounters(_ context.Context, p *models.CommunityPost) error {
	stored := s.posts[p.ID]
	stored.Likes = p.Likes
	stored.Comments = p.Comments
	return nil
}
func (s *postRepoStub) CreateComment(_ context.Context, c *models.CommunityComment) error {
	s.comments = append(s.comments, *c)
	return nil
}
func (s *postRepoStub) ListComments(_ context.Context, postID string) ([]models.CommunityComment, error) {
	var out []models.CommunityComment
	for _, c := range s.comments {
		if c.PostID == postID {
			out = append(out, c)
		}
	}
	return out, nil
}

// notificationRepoStub is an in-memory repository.NotificationRepository.
type notificationRepoStub struct {
	items []models.UserNotification
}

func (s *notificationRepoStub) Create(_ context.Context, n *models.UserNotification) error {
	s.items = append(s.items, *n)
	return nil
}
func (s *notificationRepoStub) ListByUser(_ context.Context, userID string, limit int) ([]models.UserNotification, error) {
	var out []models.UserNotification
	for _, n := range s.items {
		if n.UserID == userID && len(out) < limit {
			out = append(out, n)
		}
	}
	return out, nil
}
func (s *notificationRepoStub) MarkRead(_ context.Context, id, userID string) (bool, error) {
	for i := range s.items {
		if s.items[i].ID == id && s.items[i].UserID == userID {
			s.items[i].IsRead = true
			return true, nil
		}
	}
	return false, nil
}

// gatewayStub is a stub for payments.Gateway.
type gatewayStub struct {
	customerID string
	intent     *payments.PaymentIntent
	sub        *payments.Subscription
	event      *payments.WebhookEvent
	err        error

	intentAmount int64
	priceID      string
	canceled     []string
}

func (s *gatewayStub) FindOrCreateCustomer(_ context.Context, _, _, _ string) (string, error) {
	return s.customerID, s.err
}
func (s *gatewayStub) CreatePaymentIntent(_ context.Context, _ string, amount int64, _ string) (*payments.PaymentIntent, error) {
	s.intentAmount = amount
	return s.intent, s.err
}
func (s *gatewayStub) CreateSubscription(_ context.Context, _, priceID string) (*payments.Subscription, error) {
	s.priceID = priceID
	return s.sub, s.err
}
func (s *gatewayStub) GetSubscription(_ context.Context, _ string) (*payments.Subscription, error) {
	return s.sub, s.err
}
func (s *gatewayStub) CancelAtPeriodEnd(_ context.Context, id string) (*payments.Subscription, error) {
	s.canceled = append(s.canceled, id)
	return s.sub, s.err
}
func (s *gatewayStub) ConstructEvent(_ []byte, sig string) (*payments.WebhookEvent, error) {
	if sig != "valid" {
		return nil, payments.ErrInvalidSignature
	}
	return s.event, nil
}

var errBoom = errors.New("boom")

// assertAppError asserts that err is an AppError with the given code.
func assertAppError(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	var appErr *models.AppError
	require.True(t, errors.As(err, &appErr), "expected AppError, got %T: %v", err, err)
	assert.Equal(t, code, appErr.Code)
}
