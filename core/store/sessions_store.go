package store

import (
	"context"
	"database/sql"
	"time"
)

type SessionStore interface {
	SaveSession(ctx context.Context, sess *SessionRecord) error
	GetSession(ctx context.Context, id string) (*SessionRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]SessionRecord, error)
	DeleteSession(ctx context.Context, id string, by string) error
	DeleteAllForUser(ctx context.Context, userID int64, by string) error
	UpdateActivity(ctx context.Context, id string, now time.Time) error
	PurgeExpired(ctx context.Context, before time.Time) (int64, error)
}

type sessionsStore struct {
	db *sql.DB
}

func NewSessionsStore(db *sql.DB) SessionStore {
	return &sessionsStore{db: db}
}

const sessionColumns = `id, user_id, email, role, ip, user_agent, created_at, last_seen_at, expires_at, revoked, revoked_at, revoked_by`

func (s *sessionsStore) SaveSession(ctx context.Context, sess *SessionRecord) error {
	now := time.Now().UTC()
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = now
	}
	if sess.LastSeenAt.IsZero() {
		sess.LastSeenAt = sess.CreatedAt
	}
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions(`+sessionColumns+`) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		sess.ID, sess.UserID, sess.Email, sess.Role, sess.IP, sess.UserAgent,
		sess.CreatedAt.UTC(), sess.LastSeenAt.UTC(), sess.ExpiresAt.UTC(), boolToInt(sess.Revoked), nullTime(sess.RevokedAt), sess.RevokedBy)
	return err
}

func scanSession(row rowScanner) (*SessionRecord, error) {
	var sr SessionRecord
	var revoked int
	var revokedAt sql.NullTime
	if err := row.Scan(&sr.ID, &sr.UserID, &sr.Email, &sr.Role, &sr.IP, &sr.UserAgent, &sr.CreatedAt, &sr.LastSeenAt, &sr.ExpiresAt, &revoked, &revokedAt, &sr.RevokedBy); err != nil {
		return nil, err
	}
	sr.Revoked = revoked == 1
	sr.RevokedAt = timePtr(revokedAt)
	if sr.LastSeenAt.IsZero() {
		sr.LastSeenAt = sr.CreatedAt
	}
	return &sr, nil
}

// GetSession returns only live sessions: revoked or expired rows read as nil.
func (s *sessionsStore) GetSession(ctx context.Context, id string) (*SessionRecord, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE id=?`, id)
	sr, err := scanSession(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if sr.Revoked {
		return nil, nil
	}
	if time.Now().After(sr.ExpiresAt) {
		return nil, nil
	}
	return sr, nil
}

func (s *sessionsStore) DeleteSession(ctx context.Context, id string, by string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=1, revoked_at=?, revoked_by=?, expires_at=? WHERE id=? AND revoked=0`, now, by, now, id)
	return err
}

func (s *sessionsStore) DeleteAllForUser(ctx context.Context, userID int64, by string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET revoked=1, revoked_at=?, revoked_by=?, expires_at=? WHERE user_id=? AND revoked=0`, now, by, now, userID)
	return err
}

func (s *sessionsStore) UpdateActivity(ctx context.Context, id string, now time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE sessions SET last_seen_at=? WHERE id=? AND revoked=0`, now.UTC(), id)
	return err
}

func (s *sessionsStore) ListByUser(ctx context.Context, userID int64) ([]SessionRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sessionColumns+` FROM sessions WHERE user_id=? AND revoked=0 AND expires_at > ? ORDER BY last_seen_at DESC`, userID, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []SessionRecord
	for rows.Next() {
		sr, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *sr)
	}
	return res, rows.Err()
}

// PurgeExpired deletes rows that expired (revocation also sets expires_at)
// before the cutoff.
func (s *sessionsStore) PurgeExpired(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`, before.UTC())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
