package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tidehaven/authportal/internal/cache"
)

// ErrNotFound reports a missing or expired session.
var ErrNotFound = cache.ErrNotFound

// Store persists Session records in the cache as JSON blobs keyed by
// "session:<id>". A browser session issues requests sequentially, so
// last-write-wins on a single key is sufficient.
type Store struct {
	cache cache.Cache
	ttl   time.Duration
}

func NewStore(c cache.Cache, ttl time.Duration) *Store {
	return &Store{cache: c, ttl: ttl}
}

// New creates and persists a fresh session.
func (st *Store) New(ctx context.Context) (*Session, error) {
	sess := &Session{
		ID:        uuid.New().String(),
		CreatedAt: time.Now(),
	}

	if err := st.Put(ctx, sess); err != nil {
		return nil, err
	}

	return sess, nil
}

func (st *Store) Get(ctx context.Context, id string) (*Session, error) {
	data, err := st.cache.Get(ctx, sessionKey(id))
	if err != nil {
		return nil, err
	}

	var sess Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}

	return &sess, nil
}

func (st *Store) Put(ctx context.Context, sess *Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	return st.cache.Set(ctx, sessionKey(sess.ID), data, st.ttl)
}

func (st *Store) Delete(ctx context.Context, id string) error {
	return st.cache.Delete(ctx, sessionKey(id))
}

// SetIntendedURL records the originally requested URL so login can return
// the user there. The slot holds one value; a later write replaces it.
func (st *Store) SetIntendedURL(ctx context.Context, sess *Session, url string) error {
	sess.IntendedURL = url
	return st.Put(ctx, sess)
}

// ConsumeIntendedURL returns the recorded URL and clears the slot. Returns
// "" when nothing was recorded.
func (st *Store) ConsumeIntendedURL(ctx context.Context, sess *Session) (string, error) {
	url := sess.IntendedURL
	if url == "" {
		return "", nil
	}

	sess.IntendedURL = ""
	if err := st.Put(ctx, sess); err != nil {
		return "", err
	}

	return url, nil
}

// AddFlash queues a notice for the next rendered page.
func (st *Store) AddFlash(ctx context.Context, sess *Session, level, message string) error {
	sess.Flashes = append(sess.Flashes, Flash{Level: level, Message: message})
	return st.Put(ctx, sess)
}

// ConsumeFlashes returns queued notices and clears them.
func (st *Store) ConsumeFlashes(ctx context.Context, sess *Session) ([]Flash, error) {
	if len(sess.Flashes) == 0 {
		return nil, nil
	}

	flashes := sess.Flashes
	sess.Flashes = nil
	if err := st.Put(ctx, sess); err != nil {
		return nil, err
	}

	return flashes, nil
}

func sessionKey(id string) string {
	return "session:" + id
}
