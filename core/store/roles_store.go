package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/goccy/go-json"
)

type RolesStore interface {
	List(ctx context.Context) ([]Role, error)
	FindByName(ctx context.Context, name string) (*Role, error)
	EnsureBuiltIn(ctx context.Context, roles []Role) error
}

type rolesStore struct {
	db *sql.DB
}

func NewRolesStore(db *sql.DB) RolesStore {
	return &rolesStore{db: db}
}

func scanRole(row rowScanner) (*Role, error) {
	var r Role
	var permsRaw string
	var builtIn int
	if err := row.Scan(&r.ID, &r.Name, &r.Description, &permsRaw, &builtIn, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	_ = json.Unmarshal([]byte(permsRaw), &r.Permissions)
	r.BuiltIn = builtIn == 1
	return &r, nil
}

func (s *rolesStore) List(ctx context.Context) ([]Role, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, description, permissions, built_in, created_at, updated_at FROM roles ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var res []Role
	for rows.Next() {
		r, err := scanRole(rows)
		if err != nil {
			return nil, err
		}
		res = append(res, *r)
	}
	return res, rows.Err()
}

// FindByName matches the role name exactly; role names are capitalised
// ("Admin", "Employee", "Viewer").
func (s *rolesStore) FindByName(ctx context.Context, name string) (*Role, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, name, description, permissions, built_in, created_at, updated_at FROM roles WHERE name=?`, name)
	r, err := scanRole(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return r, nil
}

func (s *rolesStore) EnsureBuiltIn(ctx context.Context, roles []Role) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	for _, r := range roles {
		permsJSON, _ := json.Marshal(r.Permissions)
		var id int64
		err := tx.QueryRowContext(ctx, `SELECT id FROM roles WHERE name=?`, r.Name).Scan(&id)
		if err != nil {
			if err == sql.ErrNoRows {
				if _, err := tx.ExecContext(ctx, `INSERT INTO roles(name, description, permissions, built_in, created_at, updated_at) VALUES(?,?,?,?,?,?)`,
					r.Name, r.Description, string(permsJSON), 1, now, now); err != nil {
					tx.Rollback()
					return err
				}
				continue
			}
			tx.Rollback()
			return err
		}
		if _, err := tx.ExecContext(ctx, `UPDATE roles SET description=?, permissions=?, built_in=1, updated_at=? WHERE id=?`,
			r.Description, string(permsJSON), now, id); err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}
