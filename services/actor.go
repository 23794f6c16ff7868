// Package services orchestrates the privacy pipeline: every mutating
// operation runs in one store transaction together with its audit row.
package services

import (
	"fmt"

	"minihospital/apperrors"
	"minihospital/metrics"
)

// RoleSystem is the audit role of operations started by the process itself.
const RoleSystem = "system"

// Actor is the authenticated principal an operation runs for.
type Actor struct {
	UserID   uint
	Username string
	Role     string
}

// SystemActor runs scheduled and command line operations. It is logged with
// user id 0.
var SystemActor = Actor{UserID: 0, Username: "system", Role: RoleSystem}

func (a Actor) IsSystem() bool {
	return a.UserID == 0 && a.Role == RoleSystem
}

// RequireRole fails with apperrors.ErrAccessDenied unless actor holds one of
// roles. The system actor passes every role check.
func RequireRole(actor Actor, roles ...string) error {
	if actor.IsSystem() {
		return nil
	}
	for _, r := range roles {
		if actor.Role == r {
			return nil
		}
	}
	metrics.AccessDenials.WithLabelValues("role").Inc()
	return fmt.Errorf("role %q: %w", actor.Role, apperrors.ErrAccessDenied)
}
