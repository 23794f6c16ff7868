package services

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"go.uber.org/zap"

	"minihospital/database"
	"minihospital/metrics"
)

var logsCSVHeader = []string{"log_id", "user_id", "role", "action", "timestamp", "details"}

// AuditService appends to and reads the audit trail.
type AuditService struct {
	store  *database.Store
	logger *zap.Logger
}

func NewAuditService(store *database.Store, logger *zap.Logger) *AuditService {
	return &AuditService{store: store, logger: logger.Named("audit")}
}

// Record appends one audit row through tx. The write runs under its own
// savepoint: a failure is rolled back to it, logged and counted, and never
// reaches the caller. tx may be the root store, in which case the row gets
// its own transaction.
func (a *AuditService) Record(ctx context.Context, tx *database.Store, actor Actor, action, details string) {
	entry := &database.AuditLog{
		UserID:  actor.UserID,
		Role:    actor.Role,
		Action:  action,
		Details: details,
	}
	err := tx.Transaction(ctx, func(sp *database.Store) error {
		return sp.AppendLog(ctx, entry)
	})
	if err != nil {
		metrics.AuditWriteFailures.WithLabelValues(action).Inc()
		a.logger.Warn("failed to write audit log",
			zap.String("action", action),
			zap.Uint("user_id", actor.UserID),
			zap.Error(err))
	}
}

// Log appends one audit row outside of any operation transaction.
func (a *AuditService) Log(ctx context.Context, actor Actor, action, details string) {
	a.Record(ctx, a.store, actor, action, details)
}

// ListLogs returns the audit trail newest first.
func (a *AuditService) ListLogs(ctx context.Context, actor Actor) ([]database.AuditLog, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}
	return a.store.ListLogs(ctx)
}

// ExportLogsCSV writes the audit trail to w and returns the number of rows
// written. The export itself is audited.
func (a *AuditService) ExportLogsCSV(ctx context.Context, actor Actor, w io.Writer) (int, error) {
	logs, err := a.ListLogs(ctx, actor)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(logsCSVHeader); err != nil {
		return 0, fmt.Errorf("failed to write csv header: %w", err)
	}
	for _, l := range logs {
		row := []string{
			strconv.FormatUint(uint64(l.ID), 10),
			strconv.FormatUint(uint64(l.UserID), 10),
			l.Role,
			l.Action,
			l.Timestamp,
			l.Details,
		}
		if err := cw.Write(row); err != nil {
			return 0, fmt.Errorf("failed to write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return 0, fmt.Errorf("failed to flush csv: %w", err)
	}

	a.Log(ctx, actor, database.ActionExportLogs, fmt.Sprintf("Exported %d log entries", len(logs)))
	return len(logs), nil
}
