package vitals

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultDraftTTL = 2 * time.Hour

// DraftStore keeps unsaved editor state per session and doctor.
type DraftStore struct {
	redis *redis.Client
	ttl   time.Duration
}

// NewDraftStore creates a draft store. A zero ttl uses two hours.
func NewDraftStore(client *redis.Client, ttl time.Duration) *DraftStore {
	if ttl <= 0 {
		ttl = defaultDraftTTL
	}
	return &DraftStore{redis: client, ttl: ttl}
}

func draftKey(sessionID string, clinicID, doctorID int64) string {
	return fmt.Sprintf("clinicdesk:vitals:draft:%s:%d:%d", sessionID, clinicID, doctorID)
}

// Load returns the draft, or false when none exists.
func (s *DraftStore) Load(ctx context.Context, sessionID string, clinicID, doctorID int64) (State, bool, error) {
	data, err := s.redis.Get(ctx, draftKey(sessionID, clinicID, doctorID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("vitals: load draft: %w", err)
	}
	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return State{}, false, fmt.Errorf("vitals: decode draft: %w", err)
	}
	return st, true, nil
}

// Save stores the draft and refreshes its TTL.
func (s *DraftStore) Save(ctx context.Context, sessionID string, clinicID, doctorID int64, st State) error {
	data, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("vitals: encode draft: %w", err)
	}
	if err := s.redis.Set(ctx, draftKey(sessionID, clinicID, doctorID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("vitals: save draft: %w", err)
	}
	return nil
}

// Discard removes the draft.
func (s *DraftStore) Discard(ctx context.Context, sessionID string, clinicID, doctorID int64) error {
	if err := s.redis.Del(ctx, draftKey(sessionID, clinicID, doctorID)).Err(); err != nil {
		return fmt.Errorf("vitals: discard draft: %w", err)
	}
	return nil
}
