package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"minihospital/apperrors"
	"minihospital/middleware"
	"minihospital/services"
	"minihospital/utils"
)

// GrantHeader carries the id of a re-verification grant.
const GrantHeader = "X-Reverify-Grant"

// Handlers holds every HTTP handler and the services behind them.
type Handlers struct {
	gate     *services.AccessGate
	patients *services.PatientService
	users    *services.UserService
	audit    *services.AuditService
	stats    *services.StatsService
	tokens   *utils.TokenIssuer
	logger   *zap.Logger

	retentionDays int
}

// Deps groups what NewHandlers needs.
type Deps struct {
	Gate          *services.AccessGate
	Patients      *services.PatientService
	Users         *services.UserService
	Audit         *services.AuditService
	Stats         *services.StatsService
	Tokens        *utils.TokenIssuer
	Logger        *zap.Logger
	RetentionDays int
}

func NewHandlers(d Deps) *Handlers {
	return &Handlers{
		gate:          d.Gate,
		patients:      d.Patients,
		users:         d.Users,
		audit:         d.Audit,
		stats:         d.Stats,
		tokens:        d.Tokens,
		logger:        d.Logger.Named("controllers"),
		retentionDays: d.RetentionDays,
	}
}

// actor returns the authenticated principal or writes a 401.
func (h *Handlers) actor(c *gin.Context) (services.Actor, bool) {
	actor, ok := middleware.CurrentActor(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return services.Actor{}, false
	}
	return actor, true
}

// respondError maps service errors to a status and a gin.H error body.
func (h *Handlers) respondError(c *gin.Context, err error) {
	if apperrors.IsClientError(err) {
		h.logger.Debug("request rejected", zap.String("route", c.FullPath()), zap.Error(err))
	}

	var verr *apperrors.ValidationError
	switch {
	case errors.As(err, &verr):
		fields := make(map[string]string, len(verr.Fields))
		for k, v := range verr.Fields {
			fields[k] = v.Error()
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data", "fields": fields})
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidRole), errors.Is(err, apperrors.ErrCodec):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrConflict):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, apperrors.ErrAccessDenied):
		c.JSON(http.StatusForbidden, gin.H{"error": "Permission denied"})
	default:
		h.logger.Error("request failed", zap.String("route", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
