package store

import (
	"context"
	"database/sql"
	"strings"
	"time"
)

type UsersStore interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
	Get(ctx context.Context, userID int64) (*User, error)
	Create(ctx context.Context, user *User) (int64, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user *User) error
	UpdatePassword(ctx context.Context, userID int64, hash, salt string) error
	TouchLogin(ctx context.Context, userID int64, at time.Time) error
	Delete(ctx context.Context, userID int64) error
	Count(ctx context.Context) (int, error)
}

type usersStore struct {
	db *sql.DB
}

func NewUsersStore(db *sql.DB) UsersStore {
	return &usersStore{db: db}
}

const userColumns = `id, email, full_name, role, status, password_hash, salt, date_joined, last_login_at, password_changed_at, updated_at`

func (s *usersStore) FindByEmail(ctx context.Context, email string) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE email=?`, strings.ToLower(strings.TrimSpace(email)))
	return scanUser(row)
}

func (s *usersStore) Get(ctx context.Context, userID int64) (*User, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id=?`, userID)
	return scanUser(row)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*User, error) {
	u := User{}
	var lastLogin, changed sql.NullTime
	if err := row.Scan(&u.ID, &u.Email, &u.FullName, &u.Role, &u.Status, &u.PasswordHash, &u.Salt,
		&u.DateJoined, &lastLogin, &changed, &u.UpdatedAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	u.LastLoginAt = timePtr(lastLogin)
	u.PasswordChangedAt = timePtr(changed)
	return &u, nil
}

func (s *usersStore) Create(ctx context.Context, user *User) (int64, error) {
	now := time.Now().UTC()
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if user.Status == "" {
		user.Status = UserStatusActive
	}
	if user.DateJoined.IsZero() {
		user.DateJoined = now
	}
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO users(email, full_name, role, status, password_hash, salt, date_joined, last_login_at, password_changed_at, updated_at)
		VALUES(?,?,?,?,?,?,?,?,?,?)`,
		user.Email, user.FullName, user.Role, user.Status, user.PasswordHash, user.Salt,
		user.DateJoined.UTC(), nullTime(user.LastLoginAt), now, now)
	if err != nil {
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	user.ID = id
	user.UpdatedAt = now
	user.PasswordChangedAt = &now
	return id, nil
}

func (s *usersStore) List(ctx context.Context) ([]User, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *u)
	}
	return res, rows.Err()
}

// Update writes the profile fields. Password changes go through UpdatePassword.
func (s *usersStore) Update(ctx context.Context, user *User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.UpdatedAt = time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE users SET email=?, full_name=?, role=?, status=?, updated_at=? WHERE id=?`,
		user.Email, user.FullName, user.Role, user.Status, user.UpdatedAt, user.ID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *usersStore) UpdatePassword(ctx context.Context, userID int64, hash, salt string) error {
	now := time.Now().UTC()
	res, err := s.db.ExecContext(ctx, `UPDATE users SET password_hash=?, salt=?, password_changed_at=?, updated_at=? WHERE id=?`,
		hash, salt, now, now, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *usersStore) TouchLogin(ctx context.Context, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `UPDATE users SET last_login_at=? WHERE id=?`, at.UTC(), userID)
	return err
}

func (s *usersStore) Delete(ctx context.Context, userID int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id=?`, userID)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (s *usersStore) Count(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM users`).Scan(&n)
	return n, err
}
