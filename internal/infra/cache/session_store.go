package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/allegro/bigcache/v3"

	"telegram-fish-shop/internal/config"
	"telegram-fish-shop/internal/domain"
	"telegram-fish-shop/internal/domain/model"
	"telegram-fish-shop/internal/domain/ports/repository"
	"telegram-fish-shop/internal/infra/metrics"
)

var (
	_ repository.SessionRepository = (*SessionCache)(nil)
	_ repository.SessionStore      = (*SessionStore)(nil)
)

// SessionCache keeps conversation sessions in process memory. An entry
// idle for longer than the configured TTL is evicted and the chat starts over.
type SessionCache struct {
	cache *bigcache.BigCache
	now   func() time.Time
}

func NewSessionCache(ctx context.Context, cfg config.SessionConfig) (*SessionCache, error) {
	bc := bigcache.DefaultConfig(cfg.TTL)
	bc.Shards = cfg.Shards
	bc.CleanWindow = cfg.TTL / 4
	if bc.CleanWindow < time.Second {
		bc.CleanWindow = time.Second
	}
	bc.Verbose = false

	c, err := bigcache.New(ctx, bc)
	if err != nil {
		return nil, fmt.Errorf("init session cache: %w", err)
	}
	return &SessionCache{cache: c, now: time.Now}, nil
}

func sessionKey(chatID int64) string { return strconv.FormatInt(chatID, 10) }

func (s *SessionCache) Get(ctx context.Context, chatID int64) (model.Session, error) {
	b, err := s.cache.Get(sessionKey(chatID))
	if errors.Is(err, bigcache.ErrEntryNotFound) {
		metrics.IncCacheMiss("session")
		return model.NewSession(chatID), nil
	}
	if err != nil {
		return model.Session{}, err
	}
	metrics.IncCacheHit("session")

	var sess model.Session
	if err := json.Unmarshal(b, &sess); err != nil {
		metrics.IncCacheCorrupt("session")
		return model.Session{}, fmt.Errorf("decode session %d: %w", chatID, err)
	}
	if sess.CartLines == nil {
		sess.CartLines = map[string]model.CartLineRef{}
	}
	return sess, nil
}

func (s *SessionCache) Put(ctx context.Context, sess model.Session) error {
	if sess.ChatID == 0 {
		return domain.ErrInvalidArgument
	}
	sess.UpdatedAt = s.now().UTC()
	b, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %d: %w", sess.ChatID, err)
	}
	if err := s.cache.Set(sessionKey(sess.ChatID), b); err != nil {
		return fmt.Errorf("store session %d: %w", sess.ChatID, err)
	}
	metrics.SetSessionsLive(s.cache.Len())
	return nil
}

// Len reports the number of live sessions.
func (s *SessionCache) Len() int { return s.cache.Len() }

func (s *SessionCache) Close() error { return s.cache.Close() }

// SessionStore joins the volatile session cache with the durable customer binding.
type SessionStore struct {
	repository.SessionRepository
	repository.CustomerBindingRepository
}

func NewSessionStore(sessions repository.SessionRepository, customers repository.CustomerBindingRepository) *SessionStore {
	return &SessionStore{SessionRepository: sessions, CustomerBindingRepository: customers}
}
