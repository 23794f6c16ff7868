package database

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"minihospital/apperrors"
)

// RunMigrations creates missing tables and columns.
func RunMigrations(db *gorm.DB, log *zap.Logger) error {
	log.Info("Running database migrations...")

	if err := db.AutoMigrate(
		&User{},
		&Patient{},
		&AuditLog{},
	); err != nil {
		log.Error("Migration failed", zap.Error(err))
		return err
	}

	log.Info("Database migrations completed successfully")
	return nil
}

type seedUser struct {
	username, password, role string
}

// Demo accounts are stored as legacy plaintext credentials, the same way
// the first deployments stored them.
var defaultUsers = []seedUser{
	{"admin", "admin123", RoleAdmin},
	{"Dr. Bob", "doc123", RoleDoctor},
	{"Alice_recep", "rec123", RoleReceptionist},
}

var defaultPatients = []Patient{
	{Name: "John Doe", Contact: "123-456-7890", Diagnosis: "Flu"},
	{Name: "Jane Smith", Contact: "987-654-3210", Diagnosis: "Cold"},
}

// SeedDefaults adds the demo users that do not exist yet and, when the
// patients table is empty, the sample patients. It returns how many users
// and patients were created.
func SeedDefaults(ctx context.Context, s *Store) (users, patients int, err error) {
	for _, su := range defaultUsers {
		u := &User{Username: su.username, Password: su.password, Role: su.role}
		err := s.CreateUser(ctx, u)
		if errors.Is(err, apperrors.ErrConflict) {
			continue
		}
		if err != nil {
			return users, patients, fmt.Errorf("failed to seed user %q: %w", su.username, err)
		}
		users++
	}

	count, err := s.CountPatients(ctx)
	if err != nil {
		return users, patients, err
	}
	if count > 0 {
		return users, patients, nil
	}

	for _, dp := range defaultPatients {
		p := dp
		if err := s.InsertPatient(ctx, &p); err != nil {
			return users, patients, fmt.Errorf("failed to seed patient: %w", err)
		}
		patients++
	}
	return users, patients, nil
}
