package controllers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"minihospital/database"
	"minihospital/services"
)

// ReverifyRequest asks for a grant to perform one sensitive action.
type ReverifyRequest struct {
	Password  string `json:"password" binding:"required"`
	Action    string `json:"action" binding:"required"`
	PatientID uint   `json:"patient_id"`
	Username  string `json:"username"`
}

// Reverify checks the admin's own password and issues a single-use grant
func (h *Handlers) Reverify(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req ReverifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
		return
	}

	var target string
	switch {
	case req.PatientID != 0:
		target = services.PatientTarget(req.PatientID)
	case req.Username != "":
		target = services.UserTarget(req.Username)
	}

	grant, err := h.gate.Reverify(c.Request.Context(), actor, req.Password, req.Action, target)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grant)
}

// AnonymizeAll runs the anonymization pass
func (h *Handlers) AnonymizeAll(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	count, err := h.patients.AnonymizeAll(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"anonymized": count})
}

// RetentionRequest overrides the configured retention period
type RetentionRequest struct {
	Days *int `json:"days"`
}

// ApplyRetention deletes patients older than the retention period
func (h *Handlers) ApplyRetention(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var req RetentionRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request data"})
			return
		}
	}
	days := h.retentionDays
	if req.Days != nil {
		days = *req.Days
	}

	deleted, err := h.patients.ApplyRetention(c.Request.Context(), actor, days)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": deleted, "retention_days": days})
}

// ExportPatients streams the decrypted patient table as CSV
func (h *Handlers) ExportPatients(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.patients.ExportPatientsCSV(c.Request.Context(), actor, &buf); err != nil {
		h.respondError(c, err)
		return
	}
	sendCSV(c, "patients_backup.csv", buf.Bytes())
}

// ExportLogs streams the audit trail as CSV
func (h *Handlers) ExportLogs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if _, err := h.audit.ExportLogsCSV(c.Request.Context(), actor, &buf); err != nil {
		h.respondError(c, err)
		return
	}
	sendCSV(c, "logs_export.csv", buf.Bytes())
}

func sendCSV(c *gin.Context, filename string, data []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", data)
}

// GetLogs returns the audit trail newest first
func (h *Handlers) GetLogs(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	logs, err := h.audit.ListLogs(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if logs == nil {
		logs = []database.AuditLog{}
	}
	c.JSON(http.StatusOK, logs)
}

// AdminDashboard returns key statistics for the audit dashboard
func (h *Handlers) AdminDashboard(c *gin.Context) {
	actor, ok := h.actor(c)
	if !ok {
		return
	}

	stats, err := h.stats.Collect(c.Request.Context(), actor)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"stats": stats})
}
