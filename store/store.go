package store

import (
	"database/sql"
	"strings"
	"sync"

	"booklend/errs"
)

// Store wraps the relational database and exposes typed entity operations.
// Users and genres change rarely and are cached in-process, books and loans
// are always read from the database because availability flips on every loan
// transition.
type Store struct {
	db         *sql.DB
	dbLock     sync.Mutex
	UserCache  sync.Map // map[int]*model.User
	GenreCache sync.Map // map[int]*model.Genre
}

func NewStore(db *sql.DB) *Store {
	return &Store{
		db: db,
	}
}

func (s *Store) DBStats() sql.DBStats {
	return s.db.Stats()
}

func (s *Store) Ping() error {
	return s.db.Ping()
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Tx is the unit-of-work handle passed to RunAtomically. All reads and writes
// through it happen inside one database transaction.
type Tx struct {
	tx *sql.Tx
}

// RunAtomically executes fn inside a transaction: every write either commits
// with the rest or rolls back with the rest. The database serializes
// concurrent writers on the same rows, so two atomic units racing on one book
// observe each other's committed state, never a partial one.
func (s *Store) RunAtomically(fn func(tx *Tx) error) error {
	s.dbLock.Lock()
	defer s.dbLock.Unlock()

	sqlTx, err := s.db.Begin()
	if err != nil {
		return errs.Infrastructure(err, "failed to begin transaction")
	}
	defer sqlTx.Rollback()

	if err := fn(&Tx{tx: sqlTx}); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return errs.Infrastructure(err, "failed to commit transaction")
	}
	return nil
}

// isUniqueViolation reports whether err is a sqlite UNIQUE constraint
// failure. modernc.org/sqlite exposes no typed constraint error, the message
// is the stable surface.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
