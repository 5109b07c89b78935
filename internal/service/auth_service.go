package service

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"healthbuddy/internal/middleware"
	"healthbuddy/internal/models"
	"healthbuddy/internal/repository"
	"healthbuddy/internal/validation"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/tidwall/gjson"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
)

const (
	// SessionTTL is the lifetime of a session token and its cookie.
	SessionTTL = 365 * 24 * time.Hour
	// WSTicketTTL bounds how long a websocket ticket can be redeemed.
	WSTicketTTL = 60 * time.Second

	blacklistPrefix = "blacklist:"
	wsTicketPrefix  = "ws_ticket:"
)

// OAuthConfig holds the identity provider endpoints.
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	AuthURL      string
	TokenURL     string
	UserInfoURL  string
	RedirectURL  string
}

func (c OAuthConfig) enabled() bool {
	return c.ClientID != "" && c.TokenURL != "" && c.UserInfoURL != ""
}

type AuthService struct {
	users       repository.UserRepository
	redis       *redis.Client
	secret      string
	ownerOpenID string
	oauth       *oauth2.Config
	userInfoURL string
	now         Clock
}

func NewAuthService(users repository.UserRepository, rdb *redis.Client, secret, ownerOpenID string, oc OAuthConfig, now Clock) *AuthService {
	s := &AuthService{
		users:       users,
		redis:       rdb,
		secret:      secret,
		ownerOpenID: ownerOpenID,
		now:         clockOrDefault(now),
	}
	if oc.enabled() {
		s.oauth = &oauth2.Config{
			ClientID:     oc.ClientID,
			ClientSecret: oc.ClientSecret,
			RedirectURL:  oc.RedirectURL,
			Endpoint: oauth2.Endpoint{
				AuthURL:  oc.AuthURL,
				TokenURL: oc.TokenURL,
			},
			Scopes: []string{"openid", "profile", "email"},
		}
		s.userInfoURL = oc.UserInfoURL
	}
	return s
}

type DevLoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"max=255"`
	Password string `json:"password" validate:"required"`
}

type LoginResult struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expiresAt"`
	User      *models.User `json:"user"`
}

// IssueToken signs a session token for the user.
func (s *AuthService) IssueToken(userID string) (string, time.Time, error) {
	if s.secret == "" {
		return "", time.Time{}, errors.New("JWT secret not configured")
	}

	now := s.now()
	exp := now.Add(SessionTTL)
	claims := jwt.MapClaims{
		"sub": userID,
		"iss": middleware.TokenIssuer,
		"aud": middleware.TokenAudience,
		"exp": exp.Unix(),
		"iat": now.Unix(),
		"nbf": now.Unix(),
		"jti": generateJTI(now),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.secret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}

func generateJTI(now time.Time) string {
	return fmt.Sprintf("%d-%s", now.Unix(), uuid.New().String()[:8])
}

// Authenticate verifies a session token and rejects revoked ones.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*middleware.SessionClaims, error) {
	claims, err := middleware.ParseSessionToken(s.secret, token)
	if err != nil {
		return nil, models.NewUnauthorizedError(err.Error())
	}
	if claims.JTI != "" && s.redis != nil {
		n, err := s.redis.Exists(ctx, blacklistPrefix+claims.JTI).Result()
		if err == nil && n > 0 {
			return nil, models.NewUnauthorizedError("Token has been revoked")
		}
	}
	return claims, nil
}

// Me returns the user or nil when the id is unknown.
func (s *AuthService) Me(ctx context.Context, userID string) (*models.User, error) {
	if userID == "" {
		return nil, nil
	}
	return s.users.GetByID(ctx, userID)
}

// Logout revokes the token's jti until the token would have expired anyway.
func (s *AuthService) Logout(ctx context.Context, claims *middleware.SessionClaims) error {
	if claims == nil || claims.JTI == "" || s.redis == nil {
		return nil
	}
	ttl := claims.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return nil
	}
	if err := s.redis.Set(ctx, blacklistPrefix+claims.JTI, "1", ttl).Err(); err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

// AuthCodeURL returns the provider login URL carrying returnPath in state.
func (s *AuthService) AuthCodeURL(returnPath string) (string, error) {
	if s.oauth == nil {
		return "", models.NewUnavailableError("OAuth is not configured", nil)
	}
	return s.oauth.AuthCodeURL(EncodeState(returnPath)), nil
}

// OAuthCallback exchanges an authorization code, upserts the user and signs
// a session. The returned path is where the browser should land.
func (s *AuthService) OAuthCallback(ctx context.Context, code, state string) (*LoginResult, string, error) {
	if code == "" || state == "" {
		return nil, "", models.NewValidationError("code and state are required")
	}
	if s.oauth == nil {
		return nil, "", models.NewUnavailableError("OAuth is not configured", nil)
	}

	tok, err := s.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", models.NewUnauthorizedError("OAuth code exchange failed")
	}

	info, err := s.fetchUserInfo(ctx, tok)
	if err != nil {
		middleware.Logger.ErrorContext(ctx, "oauth userinfo failed", slog.String("error", err.Error()))
		return nil, "", models.NewUnauthorizedError("Unable to load user info")
	}

	user, err := s.upsertOAuthUser(ctx, info)
	if err != nil {
		return nil, "", err
	}

	token, exp, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, DecodeState(state), nil
}

func (s *AuthService) fetchUserInfo(ctx context.Context, tok *oauth2.Token) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.userInfoURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.oauth.Client(ctx, tok).Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("userinfo status %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, 1<<20))
}

func (s *AuthService) upsertOAuthUser(ctx context.Context, info []byte) (*models.User, error) {
	doc := gjson.ParseBytes(info)
	openID := doc.Get("openId").String()
	if openID == "" {
		openID = doc.Get("sub").String()
	}
	if openID == "" {
		return nil, models.NewUnauthorizedError("User info has no subject")
	}

	now := s.now()
	user := &models.User{
		ID:           openID,
		Name:         doc.Get("name").String(),
		Email:        doc.Get("email").String(),
		LoginMethod:  doc.Get("loginMethod").String(),
		Role:         models.RoleUser,
		CreatedAt:    now,
		LastSignedIn: now,
	}
	if user.LoginMethod == "" {
		user.LoginMethod = "oauth"
	}
	if err := s.users.Upsert(ctx, user); err != nil {
		return nil, err
	}
	if s.ownerOpenID != "" && openID == s.ownerOpenID {
		if err := s.users.SetRole(ctx, openID, models.RoleAdmin); err != nil {
			return nil, err
		}
	}
	return s.users.GetByID(ctx, openID)
}

// DevLogin signs in with a password, creating the account on first use.
func (s *AuthService) DevLogin(ctx context.Context, in DevLoginInput) (*LoginResult, error) {
	if err := validate(in); err != nil {
		return nil, err
	}
	email := strings.ToLower(strings.TrimSpace(in.Email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if user == nil {
		if err := validation.ValidatePassword(in.Password); err != nil {
			return nil, models.NewValidationError(err.Error())
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, models.NewInternalError(err)
		}
		name := in.Name
		if name == "" {
			name = strings.Split(email, "@")[0]
		}
		user = &models.User{
			ID:           "dev_" + uuid.NewString(),
			Name:         name,
			Email:        email,
			LoginMethod:  "password",
			Role:         models.RoleUser,
			PasswordHash: string(hash),
			CreatedAt:    now,
			LastSignedIn: now,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, err
		}
	} else {
		if user.PasswordHash == "" || bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)) != nil {
			return nil, models.NewUnauthorizedError("Invalid credentials")
		}
		if err := s.users.TouchLastSignedIn(ctx, user.ID, now); err != nil {
			return nil, err
		}
		user.LastSignedIn = now
	}

	token, exp, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, User: user}, nil
}

// IssueWSTicket stores a single-use ticket that authenticates one websocket upgrade.
func (s *AuthService) IssueWSTicket(ctx context.Context, userID string) (string, error) {
	if s.redis == nil {
		return "", models.NewUnavailableError("Realtime service unavailable", nil)
	}
	ticket := uuid.NewString()
	if err := s.redis.Set(ctx, wsTicketPrefix+ticket, userID, WSTicketTTL).Err(); err != nil {
		return "", models.NewInternalError(err)
	}
	return ticket, nil
}

// RedeemWSTicket consumes a ticket and returns its user id.
func (s *AuthService) RedeemWSTicket(ctx context.Context, ticket string) (string, error) {
	if s.redis == nil || ticket == "" {
		return "", models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	}
	userID, err := s.redis.GetDel(ctx, wsTicketPrefix+ticket).Result()
	if err != nil || userID == "" {
		return "", models.NewUnauthorizedError("Invalid or expired WebSocket ticket")
	}
	return userID, nil
}

// EncodeState packs a return path into the OAuth state parameter.
func EncodeState(returnPath string) string {
	return base64.RawURLEncoding.EncodeToString([]byte(returnPath))
}

// DecodeState recovers a same-origin return path, falling back to "/".
func DecodeState(state string) string {
	raw, err := base64.RawURLEncoding.DecodeString(state)
	if err != nil {
		return "/"
	}
	path := string(raw)
	if !strings.HasPrefix(path, "/") || strings.HasPrefix(path, "//") {
		return "/"
	}
	return path
}
