package access

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore keeps sessions in Redis keyed by a hash of the bearer token.
// The token itself is never written.
type SessionStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewSessionStore creates a session store with the given expiry.
func NewSessionStore(redisClient *redis.Client, ttl time.Duration) *SessionStore {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}
	return &SessionStore{redis: redisClient, ttl: ttl}
}

func (s *SessionStore) key(token string) string {
	sum := sha256.Sum256([]byte(token))
	return "clinicdesk:session:" + hex.EncodeToString(sum[:])
}

// Save stores the session under its token.
func (s *SessionStore) Save(ctx context.Context, sess *Session) error {
	if sess.Token == "" {
		return fmt.Errorf("access: save session: empty token")
	}
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("access: marshal session: %w", err)
	}
	if err := s.redis.Set(ctx, s.key(sess.Token), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("access: save session: %w", err)
	}
	return nil
}

// Load returns the live session for token or ErrSessionNotFound.
func (s *SessionStore) Load(ctx context.Context, token string) (*Session, error) {
	data, err := s.redis.Get(ctx, s.key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("access: load session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("access: unmarshal session: %w", err)
	}
	sess.Token = token
	return &sess, nil
}

// Delete ends the session. Deleting an unknown session is not an error.
func (s *SessionStore) Delete(ctx context.Context, token string) error {
	if err := s.redis.Del(ctx, s.key(token)).Err(); err != nil {
		return fmt.Errorf("access: delete session: %w", err)
	}
	return nil
}
