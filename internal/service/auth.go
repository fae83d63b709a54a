package service

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/ratelimit"
	"github.com/forgo/hangman/api/pkg/jwt"
)

const (
	// bcrypt cost factor (10-14 recommended for production)
	defaultBcryptCost = 12

	// Credential constraints. bcrypt ignores input past 72 bytes.
	minUsernameLength = 3
	maxUsernameLength = 32
	minPasswordLength = 8
	maxPasswordLength = 72
	maxNicknameLength = 64

	defaultRefreshTTL = 30 * 24 * time.Hour
)

// LoginThrottle counts failed logins per username. *ratelimit.Limiter
// implements it with the ratelimit.ScopeLogin bucket.
type LoginThrottle interface {
	Peek(scope ratelimit.Scope, id string) ratelimit.Decision
	Allow(scope ratelimit.Scope, id string) ratelimit.Decision
	Reset(scope ratelimit.Scope, id string)
}

// AuthService registers players, logs them in and resolves bearer tokens
// back to user IDs
type AuthService struct {
	userRepo   UserRepository
	tokenRepo  TokenRepository
	tokens     *jwt.Service
	refreshTTL time.Duration
	throttle   LoginThrottle
	bcryptCost int
	now        func() time.Time

	// serializes the username uniqueness check with the insert
	registerMu sync.Mutex
}

// AuthServiceConfig holds configuration for the auth service
type AuthServiceConfig struct {
	UserRepo   UserRepository
	JWTService *jwt.Service
	BcryptCost int // Default: 12
	Now        func() time.Time

	// TokenRepo stores refresh tokens; without it only access tokens are
	// issued
	TokenRepo  TokenRepository
	RefreshTTL time.Duration // Default: 30 days

	// Throttle locks out usernames after repeated failed logins
	Throttle LoginThrottle
}

// NewAuthService creates a new auth service
func NewAuthService(cfg AuthServiceConfig) *AuthService {
	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = defaultBcryptCost
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = defaultRefreshTTL
	}
	return &AuthService{
		userRepo:   cfg.UserRepo,
		tokenRepo:  cfg.TokenRepo,
		tokens:     cfg.JWTService,
		refreshTTL: cfg.RefreshTTL,
		throttle:   cfg.Throttle,
		bcryptCost: cfg.BcryptCost,
		now:        cfg.Now,
	}
}

// Register creates a new player account
func (s *AuthService) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, error) {
	username := normalizeUsername(req.Username)
	if err := validateUsername(username); err != nil {
		return nil, err
	}
	if err := validatePassword(req.Password); err != nil {
		return nil, err
	}
	nickname := strings.TrimSpace(req.Nickname)
	if utf8.RuneCountInString(nickname) > maxNicknameLength {
		return nil, ErrNicknameTooLong
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	s.registerMu.Lock()
	defer s.registerMu.Unlock()

	existing, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up username: %w", err)
	}
	if existing != nil {
		return nil, ErrUsernameTaken
	}

	user, err := s.userRepo.Create(ctx, &model.User{
		Username:     username,
		Nickname:     nickname,
		PasswordHash: string(hash),
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return user, nil
}

// Login checks a username/password pair and issues a token pair. A
// username with too many recent failures is locked out until its login
// bucket refills; a success clears the count.
func (s *AuthService) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenPair, error) {
	username := normalizeUsername(req.Username)
	if s.throttle != nil {
		if d := s.throttle.Peek(ratelimit.ScopeLogin, username); !d.Allowed {
			return nil, ErrLoginLocked.retryAfter(d.RetryAfter)
		}
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if user == nil || user.PasswordHash == "" ||
		bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		if s.throttle != nil {
			s.throttle.Allow(ratelimit.ScopeLogin, username)
		}
		return nil, ErrInvalidCredentials
	}

	if s.throttle != nil {
		s.throttle.Reset(ratelimit.ScopeLogin, username)
	}
	return s.IssueToken(ctx, user)
}

// IssueToken signs an access token for user and, when refresh tokens are
// stored, creates a new refresh token
func (s *AuthService) IssueToken(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	token, err := s.tokens.Sign(jwt.Claims{Subject: user.ID, Username: user.Username})
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}
	pair := &model.TokenPair{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresIn:   int(s.tokens.GetExpiration().Seconds()),
		UserID:      user.ID,
	}
	if s.tokenRepo == nil {
		return pair, nil
	}

	refresh, err := generateRefreshToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	now := s.now().UTC()
	err = s.tokenRepo.CreateRefreshToken(ctx, &model.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashToken(refresh),
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}
	pair.RefreshToken = refresh
	return pair, nil
}

// Refresh exchanges a refresh token for a new token pair. Refresh tokens
// are single use; presenting a revoked one revokes every token of its
// owner.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	if s.tokenRepo == nil || refreshToken == "" {
		return nil, ErrInvalidRefreshToken
	}

	hash := hashToken(refreshToken)
	stored, err := s.tokenRepo.GetRefreshTokenByHash(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to look up refresh token: %w", err)
	}
	if stored == nil {
		return nil, ErrInvalidRefreshToken
	}
	if stored.Revoked {
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, stored.UserID); err != nil {
			return nil, fmt.Errorf("failed to revoke tokens: %w", err)
		}
		return nil, ErrRefreshTokenRevoked
	}
	if !s.now().Before(stored.ExpiresAt) {
		return nil, ErrRefreshTokenExpired
	}

	revoked, err := s.tokenRepo.RevokeRefreshToken(ctx, hash)
	if err != nil {
		return nil, fmt.Errorf("failed to rotate refresh token: %w", err)
	}
	if !revoked {
		// a concurrent refresh spent it first
		return nil, ErrRefreshTokenRevoked
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrInvalidRefreshToken
	}
	return s.IssueToken(ctx, user)
}

// Logout revokes every refresh token of a user
func (s *AuthService) Logout(ctx context.Context, userID string) error {
	if s.tokenRepo == nil {
		return nil
	}
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	return nil
}

// PurgeExpiredTokens deletes refresh tokens past their expiry
func (s *AuthService) PurgeExpiredTokens(ctx context.Context) (int, error) {
	if s.tokenRepo == nil {
		return 0, nil
	}
	return s.tokenRepo.DeleteExpiredTokens(ctx, s.now())
}

// ResolvePrincipal maps a bearer credential to the user ID it was issued
// for. Every failure is reported as ErrUnauthenticated.
func (s *AuthService) ResolvePrincipal(ctx context.Context, credential string) (string, error) {
	if credential == "" {
		return "", ErrUnauthenticated
	}
	claims, err := s.tokens.Validate(credential)
	if err != nil {
		return "", ErrUnauthenticated
	}

	user, err := s.userRepo.GetByID(ctx, claims.Subject)
	if err != nil {
		return "", fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return "", ErrUnauthenticated
	}
	return user.ID, nil
}

// GetUser returns a user by ID
func (s *AuthService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// Helper functions

// generateRefreshToken returns 32 random bytes, hex encoded
func generateRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// hashToken is the stored form of a refresh token
func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

func normalizeUsername(username string) string {
	return strings.ToLower(strings.TrimSpace(username))
}

func validateUsername(username string) error {
	if len(username) < minUsernameLength || len(username) > maxUsernameLength {
		return ErrInvalidUsername
	}
	for _, r := range username {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '-':
		default:
			return ErrInvalidUsername
		}
	}
	return nil
}

func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > maxPasswordLength {
		return ErrPasswordTooLong
	}
	return nil
}
