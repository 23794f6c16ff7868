package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"minihospital/apperrors"
	"minihospital/database"
	"minihospital/metrics"
	"minihospital/utils"
)

// Actions that require a fresh password re-verification.
var reverifiable = map[string]bool{
	database.ActionDecryptView:   true,
	database.ActionDeletePatient: true,
	database.ActionDeleteUser:    true,
}

// Grant is a single-use permission issued after an actor re-entered their
// own password. It covers exactly one Action on one Target.
type Grant struct {
	ID        string    `json:"grant_id"`
	Action    string    `json:"action"`
	Target    string    `json:"target,omitempty"`
	ExpiresAt time.Time `json:"expires_at"`

	userID uint
}

// AccessGate checks credentials and owns the re-verification grants.
type AccessGate struct {
	store  *database.Store
	audit  *AuditService
	logger *zap.Logger
	ttl    time.Duration
	now    func() time.Time

	mu     sync.Mutex
	grants map[string]Grant
}

func NewAccessGate(store *database.Store, audit *AuditService, ttl time.Duration, logger *zap.Logger) *AccessGate {
	return &AccessGate{
		store:  store,
		audit:  audit,
		logger: logger.Named("access"),
		ttl:    ttl,
		now:    time.Now,
		grants: make(map[string]Grant),
	}
}

// Authenticate returns the user whose credential matches password and
// records the login. Unknown users and wrong passwords both yield
// apperrors.ErrAccessDenied.
func (g *AccessGate) Authenticate(ctx context.Context, username, password string) (*database.User, error) {
	user, err := g.store.GetUserByUsername(ctx, username)
	if errors.Is(err, apperrors.ErrNotFound) {
		metrics.AccessDenials.WithLabelValues("login").Inc()
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrAccessDenied)
	}
	if err != nil {
		return nil, err
	}

	if !utils.VerifyCredential(password, credentialOf(user)) {
		metrics.AccessDenials.WithLabelValues("login").Inc()
		g.logger.Info("login rejected", zap.String("username", username))
		return nil, fmt.Errorf("invalid credentials: %w", apperrors.ErrAccessDenied)
	}

	g.audit.Log(ctx, ActorOf(user), database.ActionLogin, "User logged in")
	return user, nil
}

// Reverify checks password against the actor's own stored credential and
// issues a grant for one action on target. A failed check is audited.
func (g *AccessGate) Reverify(ctx context.Context, actor Actor, password, action, target string) (Grant, error) {
	if !reverifiable[action] {
		return Grant{}, fmt.Errorf("action %q does not take a re-verification: %w", action, apperrors.ErrValidation)
	}
	if target == "" {
		return Grant{}, fmt.Errorf("re-verification for %s needs a target: %w", action, apperrors.ErrValidation)
	}
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return Grant{}, err
	}

	user, err := g.store.GetUserByID(ctx, actor.UserID)
	if errors.Is(err, apperrors.ErrNotFound) {
		return Grant{}, fmt.Errorf("actor no longer exists: %w", apperrors.ErrAccessDenied)
	}
	if err != nil {
		return Grant{}, err
	}

	// The session role may be stale; the stored role decides.
	actor = ActorOf(user)
	if actor.Role != database.RoleAdmin {
		metrics.AccessDenials.WithLabelValues("reverify").Inc()
		return Grant{}, fmt.Errorf("user %q is no longer an admin: %w", actor.Username, apperrors.ErrAccessDenied)
	}

	if !utils.VerifyCredential(password, credentialOf(user)) {
		metrics.AccessDenials.WithLabelValues("reverify").Inc()
		g.audit.Log(ctx, actor, database.ActionReverifyFailed, fmt.Sprintf("Re-verification failed for %s", action))
		return Grant{}, fmt.Errorf("re-verification failed: %w", apperrors.ErrAccessDenied)
	}

	now := g.now()
	grant := Grant{
		ID:        uuid.NewString(),
		Action:    action,
		Target:    target,
		ExpiresAt: now.Add(g.ttl),
		userID:    actor.UserID,
	}

	g.mu.Lock()
	g.pruneLocked(now)
	g.grants[grant.ID] = grant
	g.mu.Unlock()

	g.audit.Log(ctx, actor, database.ActionReverify, fmt.Sprintf("Re-verified for %s", action))
	return grant, nil
}

// Consume spends the grant for action on target. A grant is usable once;
// an unknown, expired or foreign grant yields apperrors.ErrAccessDenied.
func (g *AccessGate) Consume(actor Actor, grantID, action, target string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	grant, ok := g.grants[grantID]
	if !ok {
		metrics.AccessDenials.WithLabelValues("grant").Inc()
		return fmt.Errorf("no re-verification for %s: %w", action, apperrors.ErrAccessDenied)
	}
	if g.now().After(grant.ExpiresAt) {
		delete(g.grants, grantID)
		metrics.AccessDenials.WithLabelValues("grant").Inc()
		return fmt.Errorf("re-verification expired: %w", apperrors.ErrAccessDenied)
	}
	if grant.userID != actor.UserID || grant.Action != action || grant.Target != target {
		metrics.AccessDenials.WithLabelValues("grant").Inc()
		return fmt.Errorf("re-verification does not cover %s on %q: %w", action, target, apperrors.ErrAccessDenied)
	}

	delete(g.grants, grantID)
	return nil
}

func (g *AccessGate) pruneLocked(now time.Time) {
	for id, grant := range g.grants {
		if now.After(grant.ExpiresAt) {
			delete(g.grants, id)
		}
	}
}

// ActorOf builds the actor for an authenticated user.
func ActorOf(u *database.User) Actor {
	return Actor{UserID: u.ID, Username: u.Username, Role: u.Role}
}

func credentialOf(u *database.User) utils.Credential {
	return utils.Credential{Scheme: u.PasswordScheme, Secret: u.Password}
}
