package database

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"minihospital/apperrors"
)

// CreateUser inserts u and assigns its id. A taken username yields
// apperrors.ErrConflict.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	var count int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", u.Username).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check username: %w", err)
	}
	if count > 0 {
		return fmt.Errorf("username %q: %w", u.Username, apperrors.ErrConflict)
	}

	u.ID = 0
	if err := s.db.WithContext(ctx).Create(u).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("username %q: %w", u.Username, apperrors.ErrConflict)
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID returns the user, or apperrors.ErrNotFound.
func (s *Store) GetUserByID(ctx context.Context, id uint) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("user_id = ?", id).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", id, err)
	}
	return &u, nil
}

// GetUserByUsername returns the user, or apperrors.ErrNotFound.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	var u User
	err := s.db.WithContext(ctx).Where("username = ?", username).First(&u).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load user %q: %w", username, err)
	}
	return &u, nil
}

// ListUsers returns every user ordered by id.
func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	var users []User
	if err := s.db.WithContext(ctx).Order("user_id").Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

// ListUsernamesByRole returns the usernames holding role.
func (s *Store) ListUsernamesByRole(ctx context.Context, role string) ([]string, error) {
	var names []string
	err := s.db.WithContext(ctx).Model(&User{}).
		Where("role = ?", role).
		Order("username").
		Pluck("username", &names).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list users with role %s: %w", role, err)
	}
	return names, nil
}

// CountUsersByRole returns how many users hold role.
func (s *Store) CountUsersByRole(ctx context.Context, role string) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&User{}).Where("role = ?", role).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count users with role %s: %w", role, err)
	}
	return n, nil
}

// UpdateUserRole changes the role of username.
func (s *Store) UpdateUserRole(ctx context.Context, username, role string) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("username = ?", username).Update("role", role)
	if res.Error != nil {
		return fmt.Errorf("failed to update role of %q: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %q: %w", username, apperrors.ErrNotFound)
	}
	return nil
}

// UpdateUserCredential replaces the stored password and its scheme.
func (s *Store) UpdateUserCredential(ctx context.Context, id uint, password, scheme string) error {
	res := s.db.WithContext(ctx).Model(&User{}).Where("user_id = ?", id).Updates(map[string]any{
		"password":        password,
		"password_scheme": scheme,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update credential of user %d: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %d: %w", id, apperrors.ErrNotFound)
	}
	return nil
}

// DeleteUser removes the user matching both username and role.
func (s *Store) DeleteUser(ctx context.Context, username, role string) error {
	res := s.db.WithContext(ctx).Where("username = ? AND role = ?", username, role).Delete(&User{})
	if res.Error != nil {
		return fmt.Errorf("failed to delete user %q: %w", username, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user %q with role %s: %w", username, role, apperrors.ErrNotFound)
	}
	return nil
}
