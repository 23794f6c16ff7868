package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hengadev/errsx"
	"go.uber.org/zap"

	"minihospital/apperrors"
	"minihospital/database"
	"minihospital/utils"
)

// UserService manages login accounts.
type UserService struct {
	store  *database.Store
	audit  *AuditService
	gate   *AccessGate
	logger *zap.Logger
}

func NewUserService(store *database.Store, audit *AuditService, gate *AccessGate, logger *zap.Logger) *UserService {
	return &UserService{store: store, audit: audit, gate: gate, logger: logger.Named("users")}
}

// Create adds an account with a bcrypt credential.
func (s *UserService) Create(ctx context.Context, actor Actor, username, password, role string) (*database.User, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}

	var errs errsx.Map
	if strings.TrimSpace(username) == "" {
		errs.Set("username", errors.New("username is required"))
	}
	if password == "" {
		errs.Set("password", errors.New("password is required"))
	}
	if !database.IsValidRole(role) {
		errs.Set("role", fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role))
	}
	if err := apperrors.NewValidationError(errs); err != nil {
		return nil, err
	}

	cred, err := utils.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	u := &database.User{Username: username, Password: cred.Secret, PasswordScheme: cred.Scheme, Role: role}
	err = s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.CreateUser(ctx, u); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionAddUser, fmt.Sprintf("Added user %s with role %s", username, role))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

// List returns every account.
func (s *UserService) List(ctx context.Context, actor Actor) ([]database.User, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}
	return s.store.ListUsers(ctx)
}

// ListByRole returns the usernames holding role.
func (s *UserService) ListByRole(ctx context.Context, actor Actor, role string) ([]string, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}
	if !database.IsValidRole(role) {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role)
	}
	return s.store.ListUsernamesByRole(ctx, role)
}

// UpdateRole moves username to role.
func (s *UserService) UpdateRole(ctx context.Context, actor Actor, username, role string) error {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return err
	}
	if !database.IsValidRole(role) {
		return fmt.Errorf("%w: %q", apperrors.ErrInvalidRole, role)
	}

	return s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.UpdateUserRole(ctx, username, role); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionUpdateUser, fmt.Sprintf("Changed role of %s to %s", username, role))
		return nil
	})
}

// Delete removes the account matching username and role for an admin
// holding a DeleteUser grant.
func (s *UserService) Delete(ctx context.Context, actor Actor, username, role, grantID string) error {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return err
	}
	user, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		return err
	}
	if user.Role != role {
		return fmt.Errorf("user %q with role %s: %w", username, role, apperrors.ErrNotFound)
	}
	if err := s.gate.Consume(actor, grantID, database.ActionDeleteUser, UserTarget(username)); err != nil {
		return err
	}

	err = s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.DeleteUser(ctx, username, role); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionDeleteUser, fmt.Sprintf("Deleted user '%s' with role '%s'", username, role))
		return nil
	})
	if err != nil {
		return err
	}

	s.logger.Info("user deleted", zap.String("username", username), zap.Uint("by", actor.UserID))
	return nil
}

// Profile returns the actor's own account.
func (s *UserService) Profile(ctx context.Context, actor Actor) (*database.User, error) {
	return s.store.GetUserByID(ctx, actor.UserID)
}

// ChangePassword replaces the actor's credential after checking the current
// one. The new credential is always bcrypt.
func (s *UserService) ChangePassword(ctx context.Context, actor Actor, current, next string) error {
	if next == "" {
		var errs errsx.Map
		errs.Set("new_password", errors.New("new password is required"))
		return apperrors.NewValidationError(errs)
	}

	user, err := s.store.GetUserByID(ctx, actor.UserID)
	if err != nil {
		return err
	}
	if !utils.VerifyCredential(current, credentialOf(user)) {
		return fmt.Errorf("current password does not match: %w", apperrors.ErrAccessDenied)
	}

	cred, err := utils.HashPassword(next)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.UpdateUserCredential(ctx, user.ID, cred.Secret, cred.Scheme); err != nil {
			return err
		}
		s.audit.Record(ctx, tx, actor, database.ActionChangePassword, "Password changed")
		return nil
	})
}

// UserTarget is the grant target naming one account.
func UserTarget(username string) string {
	return "user:" + username
}
