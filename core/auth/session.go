package auth

import (
	"context"
	"errors"
	"time"

	"securereport/core/store"

	"github.com/gofrs/uuid/v5"
)

var ErrSessionNotFound = errors.New("session not found")

// SessionManager owns the server-side half of a login: one row per login,
// living as long as the refresh token.
type SessionManager struct {
	sessions store.SessionStore
	ttl      time.Duration
	now      func() time.Time
}

func NewSessionManager(sessions store.SessionStore, ttl time.Duration) *SessionManager {
	return &SessionManager{sessions: sessions, ttl: ttl, now: time.Now}
}

func (m *SessionManager) Create(ctx context.Context, user *store.User, ip, userAgent string) (*store.SessionRecord, error) {
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	now := m.now().UTC()
	sess := &store.SessionRecord{
		ID:         id.String(),
		UserID:     user.ID,
		Email:      user.Email,
		Role:       user.Role,
		IP:         ip,
		UserAgent:  userAgent,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(m.ttl),
	}
	if err := m.sessions.SaveSession(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Validate returns the live session for id or ErrSessionNotFound when it is
// missing, revoked or expired.
func (m *SessionManager) Validate(ctx context.Context, id string) (*store.SessionRecord, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	sess, err := m.sessions.GetSession(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, ErrSessionNotFound
	}
	return sess, nil
}

func (m *SessionManager) Touch(ctx context.Context, id string) error {
	return m.sessions.UpdateActivity(ctx, id, m.now().UTC())
}

func (m *SessionManager) Revoke(ctx context.Context, id, by string) error {
	return m.sessions.DeleteSession(ctx, id, by)
}

func (m *SessionManager) RevokeAll(ctx context.Context, userID int64, by string) error {
	return m.sessions.DeleteAllForUser(ctx, userID, by)
}
