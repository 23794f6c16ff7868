package database

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// FieldCipher is what the store needs from the field codec to keep updated
// identifying fields encrypted.
type FieldCipher interface {
	Encrypt(plaintext string) (string, error)
	IsEncrypted(value string) bool
}

// Store is the only writer of users, patients and logs.
type Store struct {
	db     *gorm.DB
	cipher FieldCipher
	now    func() time.Time
}

// NewStore wraps db. cipher is used by UpdatePatient only; inserts store
// fields exactly as given.
func NewStore(db *gorm.DB, cipher FieldCipher) *Store {
	return &Store{
		db:     db,
		cipher: cipher,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// WithClock returns a copy of s whose timestamps come from now.
func (s *Store) WithClock(now func() time.Time) *Store {
	cp := *s
	cp.now = now
	return &cp
}

// Now returns the store clock's current time.
func (s *Store) Now() time.Time {
	return s.now()
}

// Transaction runs fn against a Store bound to one transaction. The
// transaction commits when fn returns nil and rolls back on an error or a
// panic. Calling Transaction on a transactional Store opens a savepoint.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{db: tx, cipher: s.cipher, now: s.now})
	})
}

// Ping checks the underlying connection.
func (s *Store) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
