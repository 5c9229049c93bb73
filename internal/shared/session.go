package shared

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// SessionManager orchestrates sessions backed by Redis. The session id travels
// in a cookie for browsers or as a bearer token for API clients.
type SessionManager struct {
	client     *redis.Client
	cookieName string
	prefix     string
	ttl        time.Duration
	secure     bool
}

// Session holds per-request session data. The only durable field is the
// active account id.
type Session struct {
	ID        string
	accountID string
	// replaced is the stored id superseded by a sign-in; Commit deletes it.
	replaced  string
	isNew     bool
	dirty     bool
	destroyed bool
}

type sessionPayload struct {
	AccountID string `json:"account_id"`
}

// NewSessionManager constructs a SessionManager.
func NewSessionManager(client *redis.Client, cookieName, prefix string, ttl time.Duration, secure bool) *SessionManager {
	return &SessionManager{
		client:     client,
		cookieName: cookieName,
		prefix:     prefix,
		ttl:        ttl,
		secure:     secure,
	}
}

// Load loads the session referenced by the request or creates a new one.
func (sm *SessionManager) Load(ctx context.Context, r *http.Request) (*Session, error) {
	id := sm.tokenFromRequest(r)
	if id == "" {
		return sm.newSession(), nil
	}

	payload, err := sm.client.Get(ctx, sm.redisKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return sm.newSession(), nil
		}
		return nil, err
	}

	var stored sessionPayload
	if err := json.Unmarshal(payload, &stored); err != nil {
		return nil, err
	}

	return &Session{
		ID:        id,
		accountID: stored.AccountID,
	}, nil
}

// Commit persists the session and writes cookie headers as needed. Anonymous
// sessions that were never modified are not stored.
func (sm *SessionManager) Commit(ctx context.Context, w http.ResponseWriter, sess *Session) error {
	if sess == nil {
		return nil
	}

	if sess.destroyed {
		keys := []string{sm.redisKey(sess.ID)}
		if sess.replaced != "" {
			keys = append(keys, sm.redisKey(sess.replaced))
		}
		if err := sm.client.Del(ctx, keys...).Err(); err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		sess.replaced = ""
		http.SetCookie(w, &http.Cookie{
			Name:     sm.cookieName,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   sm.secure,
			SameSite: http.SameSiteStrictMode,
		})
		return nil
	}

	if !sess.dirty {
		return nil
	}

	data, err := json.Marshal(sessionPayload{AccountID: sess.accountID})
	if err != nil {
		return err
	}
	_, err = sm.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, sm.redisKey(sess.ID), data, sm.ttl)
		if sess.replaced != "" {
			pipe.Del(ctx, sm.redisKey(sess.replaced))
		}
		return nil
	})
	if err != nil {
		return err
	}
	sess.replaced = ""
	sess.dirty = false
	sess.isNew = false

	http.SetCookie(w, &http.Cookie{
		Name:     sm.cookieName,
		Value:    sess.ID,
		Path:     "/",
		HttpOnly: true,
		Secure:   sm.secure,
		SameSite: http.SameSiteStrictMode,
		Expires:  time.Now().Add(sm.ttl),
	})
	return nil
}

// Destroy marks the session for deletion.
func (sm *SessionManager) Destroy(sess *Session) {
	if sess == nil {
		return
	}
	sess.destroyed = true
	sess.accountID = ""
}

// SetAccount makes id the active account. A fresh session id is issued to
// avoid fixation of an id that existed before sign-in, and the old id is
// revoked on the next Commit.
func (s *Session) SetAccount(id string) {
	if !s.isNew {
		if s.replaced == "" {
			s.replaced = s.ID
		}
		s.ID = newSessionID()
		s.isNew = true
	}
	s.accountID = id
	s.dirty = true
}

// Account returns the active account id, empty when signed out.
func (s *Session) Account() string {
	return s.accountID
}

func (sm *SessionManager) tokenFromRequest(r *http.Request) string {
	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return strings.TrimSpace(token)
		}
	}
	if cookie, err := r.Cookie(sm.cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

func (sm *SessionManager) newSession() *Session {
	return &Session{
		ID:    newSessionID(),
		isNew: true,
	}
}

func (sm *SessionManager) redisKey(id string) string {
	return sm.prefix + "session:" + id
}

func newSessionID() string {
	return uuid.NewString()
}
