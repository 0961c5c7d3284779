package store

import (
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"booklend/errs"
	"booklend/model"
)

// CreateUser persists a user, hashing the given plaintext password.
func (s *Store) CreateUser(create *model.User, password string) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	create.PasswordHash = string(hash)
	if create.Role == "" {
		create.Role = model.RoleUser
	}
	create.CreatedTs = time.Now().Unix()

	stmt := `
    INSERT INTO user (username, password_hash, email, role, created_ts)
    VALUES (?, ?, ?, ?, ?)
    RETURNING id
    `

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt,
		create.Username,
		create.PasswordHash,
		create.Email,
		create.Role,
		create.CreatedTs,
	).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("user %q", create.Username)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	s.UserCache.Store(create.ID, create)
	return create, nil
}

func (s *Store) GetUser(find *model.FindUser) (*model.User, error) {
	if find.ID != nil {
		if cache, ok := s.UserCache.Load(*find.ID); ok {
			return cache.(*model.User), nil
		}
	}

	list, err := s.ListUsers(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	user := list[0]
	s.UserCache.Store(user.ID, user)
	return user, nil
}

func (s *Store) ListUsers(find *model.FindUser) ([]*model.User, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Username; v != nil {
		where, args = append(where, "username = ?"), append(args, *v)
	}
	if v := find.Email; v != nil {
		where, args = append(where, "email = ?"), append(args, *v)
	}
	if v := find.Role; v != nil {
		where, args = append(where, "role = ?"), append(args, *v)
	}

	// Here will return password_hash, so need to be careful when responding
	// to a client.
	query := `
        SELECT
            id,
            username,
            password_hash,
            email,
            role,
            created_ts
        FROM user
    WHERE ` + strings.Join(where, " AND ") + ` ORDER BY created_ts DESC`
	if v := find.Limit; v != nil {
		query += fmt.Sprintf(" LIMIT %d", *v)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.User, 0)
	for rows.Next() {
		var user model.User
		if err := rows.Scan(
			&user.ID,
			&user.Username,
			&user.PasswordHash,
			&user.Email,
			&user.Role,
			&user.CreatedTs,
		); err != nil {
			return nil, err
		}
		list = append(list, &user)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}
