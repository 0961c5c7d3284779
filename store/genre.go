package store

import (
	"strings"

	"booklend/errs"
	"booklend/model"
)

func (s *Store) CreateGenre(create *model.Genre) (*model.Genre, error) {
	stmt := `
    INSERT INTO genre (name, slug)
    VALUES (?, ?)
    RETURNING id
    `

	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return nil, errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	if err := tx.QueryRow(stmt, create.Name, create.Slug).Scan(&create.ID); err != nil {
		if isUniqueViolation(err) {
			return nil, errs.Duplicate("genre %q", create.Name)
		}
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, errs.Infrastructure(err, "failed to commit transaction")
	}

	s.GenreCache.Store(create.ID, create)
	return create, nil
}

func (s *Store) GetGenre(find *model.FindGenre) (*model.Genre, error) {
	if find.ID != nil {
		if cache, ok := s.GenreCache.Load(*find.ID); ok {
			return cache.(*model.Genre), nil
		}
	}

	list, err := s.ListGenres(find)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, nil
	}

	genre := list[0]
	s.GenreCache.Store(genre.ID, genre)
	return genre, nil
}

func (s *Store) ListGenres(find *model.FindGenre) ([]*model.Genre, error) {
	where, args := []string{"1 = 1"}, []any{}

	if v := find.ID; v != nil {
		where, args = append(where, "id = ?"), append(args, *v)
	}
	if v := find.Name; v != nil {
		where, args = append(where, "name = ?"), append(args, *v)
	}
	if v := find.Slug; v != nil {
		where, args = append(where, "slug = ?"), append(args, *v)
	}

	query := `SELECT id, name, slug FROM genre WHERE ` + strings.Join(where, " AND ") + ` ORDER BY name`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]*model.Genre, 0)
	for rows.Next() {
		var genre model.Genre
		if err := rows.Scan(&genre.ID, &genre.Name, &genre.Slug); err != nil {
			return nil, err
		}
		list = append(list, &genre)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return list, nil
}

// RemoveGenre deletes a genre. Genres referenced by books are protected.
func (s *Store) RemoveGenre(genreID int) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()
	tx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer tx.Rollback()

	var count int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM book WHERE genre_id = ?`, genreID).Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return errs.InvalidState("genre %d is referenced by %d books", genreID, count)
	}

	res, err := tx.Exec(`DELETE FROM genre WHERE id = ?`, genreID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound("genre %d", genreID)
	}
	if err := tx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}

	s.GenreCache.Delete(genreID)
	return nil
}
