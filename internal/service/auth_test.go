package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/forgo/hangman/api/internal/model"
	"github.com/forgo/hangman/api/internal/ratelimit"
	"github.com/forgo/hangman/api/internal/repository/memory"
	"github.com/forgo/hangman/api/pkg/jwt"
)

// Mock implementations

type mockUserRepo struct {
	createFunc        func(ctx context.Context, user *model.User) (*model.User, error)
	getByIDFunc       func(ctx context.Context, id string) (*model.User, error)
	getByUsernameFunc func(ctx context.Context, username string) (*model.User, error)
}

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (*model.User, error) {
	if m.createFunc != nil {
		return m.createFunc(ctx, user)
	}
	return user, nil
}

func (m *mockUserRepo) GetByID(ctx context.Context, id string) (*model.User, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, nil
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if m.getByUsernameFunc != nil {
		return m.getByUsernameFunc(ctx, username)
	}
	return nil, nil
}

func (m *mockUserRepo) Count(context.Context) (int, error) { return 0, nil }

// Test helpers

var authTestSecret = strings.Repeat("k", jwt.MinSecretLength)

func newTestJWT(t *testing.T) *jwt.Service {
	t.Helper()
	svc, err := jwt.NewService(jwt.Config{Secret: authTestSecret, Issuer: "hangman-test", ExpirationMins: 60})
	if err != nil {
		t.Fatalf("failed to create jwt service: %v", err)
	}
	return svc
}

func newTestAuthService(t *testing.T, repo UserRepository, opts ...func(*AuthServiceConfig)) *AuthService {
	t.Helper()
	if repo == nil {
		repo = memory.NewUserRepository()
	}
	cfg := AuthServiceConfig{
		UserRepo:   repo,
		TokenRepo:  memory.NewTokenRepository(),
		JWTService: newTestJWT(t),
		BcryptCost: bcrypt.MinCost,
		Now:        func() time.Time { return testEpoch },
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return NewAuthService(cfg)
}

func registerUser(t *testing.T, svc *AuthService, username, password string) *model.User {
	t.Helper()
	user, err := svc.Register(context.Background(), &model.RegisterRequest{Username: username, Password: password})
	if err != nil {
		t.Fatalf("register %s: %v", username, err)
	}
	return user
}

// ============================================================================
// Register Tests
// ============================================================================

func TestRegister_Success(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)

	user, err := svc.Register(context.Background(), &model.RegisterRequest{
		Username: "  Alice_01 ",
		Password: "correct horse",
		Nickname: " Al ",
	})
	if err != nil {
		t.Fatalf("Register failed: %v", err)
	}
	if user.ID == "" {
		t.Error("expected an assigned user ID")
	}
	if user.Username != "alice_01" {
		t.Errorf("Username = %q, want alice_01", user.Username)
	}
	if user.Nickname != "Al" {
		t.Errorf("Nickname = %q, want Al", user.Nickname)
	}
	if !user.CreatedAt.Equal(testEpoch) {
		t.Errorf("CreatedAt = %v, want %v", user.CreatedAt, testEpoch)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("correct horse")) != nil {
		t.Error("stored hash does not match the password")
	}
}

func TestRegister_UsernameTakenCaseInsensitive(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	registerUser(t, svc, "alice", "password1")

	_, err := svc.Register(context.Background(), &model.RegisterRequest{Username: "ALICE", Password: "password2"})
	if !errors.Is(err, ErrUsernameTaken) {
		t.Errorf("expected ErrUsernameTaken, got %v", err)
	}
}

func TestRegister_Validation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		req  model.RegisterRequest
		want error
	}{
		{"username too short", model.RegisterRequest{Username: "ab", Password: "password1"}, ErrInvalidUsername},
		{"username too long", model.RegisterRequest{Username: strings.Repeat("a", 33), Password: "password1"}, ErrInvalidUsername},
		{"username with space", model.RegisterRequest{Username: "al ice", Password: "password1"}, ErrInvalidUsername},
		{"username with symbol", model.RegisterRequest{Username: "alice!", Password: "password1"}, ErrInvalidUsername},
		{"password too short", model.RegisterRequest{Username: "alice", Password: "short"}, ErrPasswordTooShort},
		{"password too long", model.RegisterRequest{Username: "alice", Password: strings.Repeat("p", 73)}, ErrPasswordTooLong},
		{"nickname too long", model.RegisterRequest{Username: "alice", Password: "password1", Nickname: strings.Repeat("n", 65)}, ErrNicknameTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestAuthService(t, nil)
			_, err := svc.Register(context.Background(), &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestRegister_RepositoryError(t *testing.T) {
	t.Parallel()
	boom := errors.New("storage offline")
	svc := newTestAuthService(t, &mockUserRepo{
		getByUsernameFunc: func(context.Context, string) (*model.User, error) { return nil, boom },
	})

	_, err := svc.Register(context.Background(), &model.RegisterRequest{Username: "alice", Password: "password1"})
	if !errors.Is(err, boom) {
		t.Errorf("expected wrapped storage error, got %v", err)
	}
	if KindOf(err) != KindUnknown {
		t.Errorf("storage failure classified as %v", KindOf(err))
	}
}

// ============================================================================
// Login Tests
// ============================================================================

func TestLogin_IssuesValidToken(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")

	pair, err := svc.Login(context.Background(), &model.LoginRequest{Username: "Alice", Password: "password1"})
	if err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	if pair.TokenType != "Bearer" || pair.ExpiresIn != 3600 || pair.UserID != user.ID {
		t.Errorf("unexpected token pair: %+v", pair)
	}
	if len(pair.RefreshToken) != 64 {
		t.Errorf("expected a 32-byte hex refresh token, got %q", pair.RefreshToken)
	}

	claims, err := newTestJWT(t).Validate(pair.AccessToken)
	if err != nil {
		t.Fatalf("token does not validate: %v", err)
	}
	if claims.Subject != user.ID || claims.Username != "alice" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestLogin_Failures(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	registerUser(t, svc, "alice", "password1")

	for _, req := range []model.LoginRequest{
		{Username: "alice", Password: "wrong-password"},
		{Username: "nobody", Password: "password1"},
	} {
		_, err := svc.Login(context.Background(), &req)
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Errorf("Login(%s) expected ErrInvalidCredentials, got %v", req.Username, err)
		}
	}
}

func TestLogin_LockoutAfterRepeatedFailures(t *testing.T) {
	t.Parallel()
	limiter := ratelimit.New(ratelimit.Config{
		Login: ratelimit.Quota{Capacity: 3, Per: 15 * time.Minute},
		Now:   func() time.Time { return testEpoch },
	})
	svc := newTestAuthService(t, nil, func(c *AuthServiceConfig) { c.Throttle = limiter })
	registerUser(t, svc, "alice", "password1")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wrong-password"})
		if !errors.Is(err, ErrInvalidCredentials) {
			t.Fatalf("attempt %d: expected ErrInvalidCredentials, got %v", i+1, err)
		}
	}

	// the right password is refused while locked, keyed by normalized username
	_, err := svc.Login(ctx, &model.LoginRequest{Username: " ALICE ", Password: "password1"})
	if !errors.Is(err, ErrLoginLocked) {
		t.Fatalf("expected ErrLoginLocked, got %v", err)
	}
	if KindOf(err) != KindRateLimited {
		t.Errorf("kind = %v", KindOf(err))
	}
	// one of three tokens refills every five minutes
	if wait := RetryAfterOf(err); wait < 5*time.Minute-time.Second || wait > 5*time.Minute {
		t.Errorf("retry after = %v, want about 5m", wait)
	}

	// other usernames are unaffected
	registerUser(t, svc, "bob", "password1")
	if _, err := svc.Login(ctx, &model.LoginRequest{Username: "bob", Password: "password1"}); err != nil {
		t.Errorf("bob should log in: %v", err)
	}
}

func TestLogin_SuccessClearsFailures(t *testing.T) {
	t.Parallel()
	limiter := ratelimit.New(ratelimit.Config{
		Login: ratelimit.Quota{Capacity: 2, Per: time.Hour},
		Now:   func() time.Time { return testEpoch },
	})
	svc := newTestAuthService(t, nil, func(c *AuthServiceConfig) { c.Throttle = limiter })
	registerUser(t, svc, "alice", "password1")
	ctx := context.Background()

	_, _ = svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wrong-password"})
	if _, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "password1"}); err != nil {
		t.Fatalf("Login failed: %v", err)
	}
	_, _ = svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "wrong-password"})

	if _, err := svc.Login(ctx, &model.LoginRequest{Username: "alice", Password: "password1"}); err != nil {
		t.Errorf("one failure after a success must not lock: %v", err)
	}
}

// ============================================================================
// Refresh Token Tests
// ============================================================================

func TestRefresh_RotatesToken(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")
	ctx := context.Background()

	first, err := svc.IssueToken(ctx, user)
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("Refresh failed: %v", err)
	}
	if second.UserID != user.ID || second.RefreshToken == "" || second.RefreshToken == first.RefreshToken {
		t.Errorf("unexpected rotated pair: %+v", second)
	}
	if id, err := svc.ResolvePrincipal(ctx, second.AccessToken); err != nil || id != user.ID {
		t.Errorf("refreshed access token resolves to %q, %v", id, err)
	}
}

func TestRefresh_ReuseRevokesFamily(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")
	ctx := context.Background()

	first, _ := svc.IssueToken(ctx, user)
	second, err := svc.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := svc.Refresh(ctx, first.RefreshToken); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Fatalf("expected ErrRefreshTokenRevoked on reuse, got %v", err)
	}
	// the replay revoked the live token as well
	if _, err := svc.Refresh(ctx, second.RefreshToken); !errors.Is(err, ErrRefreshTokenRevoked) {
		t.Errorf("expected the newer token revoked too, got %v", err)
	}
}

func TestRefresh_Expired(t *testing.T) {
	t.Parallel()
	clock := &fixedClock{t: testEpoch}
	svc := newTestAuthService(t, nil, func(c *AuthServiceConfig) {
		c.Now = clock.Now
		c.RefreshTTL = time.Hour
	})
	user := registerUser(t, svc, "alice", "password1")

	pair, _ := svc.IssueToken(context.Background(), user)
	clock.Advance(time.Hour)

	if _, err := svc.Refresh(context.Background(), pair.RefreshToken); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Errorf("expected ErrRefreshTokenExpired, got %v", err)
	}
	if n, err := svc.PurgeExpiredTokens(context.Background()); err != nil || n != 0 {
		t.Errorf("token expiring exactly now is kept: n=%d err=%v", n, err)
	}
	clock.Advance(time.Second)
	if n, err := svc.PurgeExpiredTokens(context.Background()); err != nil || n != 1 {
		t.Errorf("PurgeExpiredTokens = %d, %v", n, err)
	}
}

func TestRefresh_Rejections(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	noStore := newTestAuthService(t, nil, func(c *AuthServiceConfig) { c.TokenRepo = nil })

	for name, err := range map[string]error{
		"empty":    func() error { _, err := svc.Refresh(context.Background(), ""); return err }(),
		"unknown":  func() error { _, err := svc.Refresh(context.Background(), "deadbeef"); return err }(),
		"no store": func() error { _, err := noStore.Refresh(context.Background(), "deadbeef"); return err }(),
	} {
		if !errors.Is(err, ErrInvalidRefreshToken) {
			t.Errorf("%s: expected ErrInvalidRefreshToken, got %v", name, err)
		}
		if KindOf(err) != KindUnauthenticated {
			t.Errorf("%s: kind = %v", name, KindOf(err))
		}
	}

	user := registerUser(t, noStore, "alice", "password1")
	pair, err := noStore.IssueToken(context.Background(), user)
	if err != nil || pair.RefreshToken != "" {
		t.Errorf("without a token store no refresh token is issued: %+v, %v", pair, err)
	}
}

func TestLogout_RevokesRefreshTokens(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")
	ctx := context.Background()

	a, _ := svc.IssueToken(ctx, user)
	b, _ := svc.IssueToken(ctx, user)
	if err := svc.Logout(ctx, user.ID); err != nil {
		t.Fatal(err)
	}
	for _, pair := range []*model.TokenPair{a, b} {
		if _, err := svc.Refresh(ctx, pair.RefreshToken); !errors.Is(err, ErrRefreshTokenRevoked) {
			t.Errorf("expected revoked after logout, got %v", err)
		}
	}
}

// ============================================================================
// Principal Resolution Tests
// ============================================================================

func TestResolvePrincipal(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")
	pair, err := svc.IssueToken(context.Background(), user)
	if err != nil {
		t.Fatal(err)
	}

	id, err := svc.ResolvePrincipal(context.Background(), pair.AccessToken)
	if err != nil {
		t.Fatalf("ResolvePrincipal failed: %v", err)
	}
	if id != user.ID {
		t.Errorf("principal = %q, want %q", id, user.ID)
	}
}

func TestResolvePrincipal_Rejections(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)

	otherIssuer, err := jwt.NewService(jwt.Config{Secret: authTestSecret, Issuer: "someone-else"})
	if err != nil {
		t.Fatal(err)
	}
	foreign, _ := otherIssuer.Sign(jwt.Claims{Subject: "u1"})
	orphan, _ := newTestJWT(t).Sign(jwt.Claims{Subject: "deleted-user"})

	for name, credential := range map[string]string{
		"empty":          "",
		"garbage":        "not.a.token",
		"wrong issuer":   foreign,
		"unknown user":   orphan,
		"tampered token": orphan + "x",
	} {
		if _, err := svc.ResolvePrincipal(context.Background(), credential); !errors.Is(err, ErrUnauthenticated) {
			t.Errorf("%s: expected ErrUnauthenticated, got %v", name, err)
		}
	}
}

func TestGetUser(t *testing.T) {
	t.Parallel()
	svc := newTestAuthService(t, nil)
	user := registerUser(t, svc, "alice", "password1")

	got, err := svc.GetUser(context.Background(), user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "alice" {
		t.Errorf("Username = %q", got.Username)
	}

	if _, err := svc.GetUser(context.Background(), "missing"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}
