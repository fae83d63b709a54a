package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/valkey-io/valkey-go"
)

// DefaultKeyPrefix namespaces idempotency keys in a shared Valkey
const DefaultKeyPrefix = "hangman:idem:"

// ValkeyConfig holds connection settings for the shared store
type ValkeyConfig struct {
	Addr         string
	Username     string
	Password     string
	DB           int
	DialTimeout  time.Duration
	DisableCache bool
}

// NewValkeyClient opens a Valkey client from cfg
func NewValkeyClient(cfg ValkeyConfig) (valkey.Client, error) {
	addr := strings.TrimSpace(cfg.Addr)
	if addr == "" {
		return nil, errors.New("valkey addr is empty")
	}

	opts := valkey.ClientOption{
		InitAddress:  []string{addr},
		Username:     cfg.Username,
		Password:     cfg.Password,
		SelectDB:     cfg.DB,
		DisableCache: cfg.DisableCache,
	}
	if cfg.DialTimeout > 0 {
		opts.Dialer.Timeout = cfg.DialTimeout
	}

	client, err := valkey.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}
	return client, nil
}

// ValkeyStore keeps entries in Valkey. Expiry is enforced by the server.
type ValkeyStore struct {
	client valkey.Client
	prefix string
}

// NewValkeyStore wraps client. An empty prefix uses DefaultKeyPrefix.
func NewValkeyStore(client valkey.Client, prefix string) *ValkeyStore {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	return &ValkeyStore{client: client, prefix: prefix}
}

// Get loads the entry stored under key
func (s *ValkeyStore) Get(ctx context.Context, key string) (*Entry, error) {
	cmd := s.client.B().Get().Key(s.prefix + key).Build()
	raw, err := s.client.Do(ctx, cmd).AsBytes()
	if valkey.IsValkeyNil(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get idempotency entry: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency entry: %w", err)
	}
	return &entry, nil
}

// Put stores entry with SET EX
func (s *ValkeyStore) Put(ctx context.Context, key string, entry *Entry, ttl time.Duration) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode idempotency entry: %w", err)
	}
	cmd := s.client.B().Set().Key(s.prefix + key).Value(string(payload)).Ex(ttl).Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("failed to store idempotency entry: %w", err)
	}
	return nil
}

// Purge is a no-op; Valkey expires keys on its own
func (s *ValkeyStore) Purge(context.Context) (int, error) {
	return 0, nil
}
