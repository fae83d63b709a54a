package jwt

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

var (
	ErrInvalidToken     = errors.New("invalid token")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenNotYetValid = errors.New("token not yet valid")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidKey       = errors.New("invalid key")
)

// MinSecretLength is the shortest accepted HMAC secret, in bytes
const MinSecretLength = 32

// Claims represents JWT claims
type Claims struct {
	// Standard claims
	Issuer    string `json:"iss,omitempty"`
	Subject   string `json:"sub,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
	NotBefore int64  `json:"nbf,omitempty"`
	IssuedAt  int64  `json:"iat,omitempty"`
	JWTID     string `json:"jti,omitempty"`

	// Custom claims
	Username string `json:"username,omitempty"`
}

// Valid checks the time-based claims against now
func (c *Claims) Valid(now time.Time) error {
	ts := now.Unix()

	if c.ExpiresAt != 0 && ts > c.ExpiresAt {
		return ErrTokenExpired
	}
	if c.NotBefore != 0 && ts < c.NotBefore {
		return ErrTokenNotYetValid
	}
	return nil
}

// Service signs and validates HS256 tokens
type Service struct {
	secret     []byte
	issuer     string
	expiration time.Duration
	now        func() time.Time
}

// Config holds JWT service configuration
type Config struct {
	Secret         string
	Issuer         string
	ExpirationMins int
}

// NewService creates a new JWT service
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < MinSecretLength {
		return nil, fmt.Errorf("%w: secret must be at least %d bytes", ErrInvalidKey, MinSecretLength)
	}
	expiration := time.Duration(cfg.ExpirationMins) * time.Minute
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		issuer:     cfg.Issuer,
		expiration: expiration,
		now:        time.Now,
	}, nil
}

// WithClock returns a copy of the service that reads time from now
func (s *Service) WithClock(now func() time.Time) *Service {
	c := *s
	c.now = now
	return &c
}

var encodedHeader = base64URLEncode([]byte(`{"alg":"HS256","typ":"JWT"}`))

// Sign creates a signed token. Issuer, issue time and (unless already set)
// expiry are filled in by the service.
func (s *Service) Sign(claims Claims) (string, error) {
	now := s.now()

	claims.Issuer = s.issuer
	claims.IssuedAt = now.Unix()
	claims.NotBefore = now.Unix()
	if claims.ExpiresAt == 0 {
		claims.ExpiresAt = now.Add(s.expiration).Unix()
	}

	claimsJSON, err := json.Marshal(claims)
	if err != nil {
		return "", fmt.Errorf("failed to marshal claims: %w", err)
	}

	message := encodedHeader + "." + base64URLEncode(claimsJSON)
	return message + "." + base64URLEncode(s.mac(message)), nil
}

// Validate verifies the signature and time claims of a token
func (s *Service) Validate(tokenString string) (*Claims, error) {
	parts := strings.Split(tokenString, ".")
	if len(parts) != 3 {
		return nil, ErrInvalidToken
	}
	if parts[0] != encodedHeader {
		return nil, ErrInvalidToken
	}

	signature, err := base64URLDecode(parts[2])
	if err != nil {
		return nil, ErrInvalidToken
	}
	if !hmac.Equal(signature, s.mac(parts[0]+"."+parts[1])) {
		return nil, ErrInvalidSignature
	}

	claimsJSON, err := base64URLDecode(parts[1])
	if err != nil {
		return nil, ErrInvalidToken
	}
	var claims Claims
	if err := json.Unmarshal(claimsJSON, &claims); err != nil {
		return nil, ErrInvalidToken
	}

	if err := claims.Valid(s.now()); err != nil {
		return nil, err
	}
	if claims.Issuer != s.issuer || claims.Subject == "" {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}

// GetExpiration returns the token lifetime
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}

func (s *Service) mac(message string) []byte {
	h := hmac.New(sha256.New, s.secret)
	h.Write([]byte(message))
	return h.Sum(nil)
}

func base64URLEncode(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

func base64URLDecode(s string) ([]byte, error) {
	return base64.RawURLEncoding.DecodeString(strings.TrimRight(s, "="))
}
