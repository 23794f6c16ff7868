package database

import (
	"context"
	"fmt"
)

// AppendLog inserts one audit row. An empty Timestamp is stamped with the
// store clock.
func (s *Store) AppendLog(ctx context.Context, entry *AuditLog) error {
	entry.ID = 0
	if entry.Timestamp == "" {
		entry.Timestamp = FormatTimestamp(s.now())
	}
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to append audit log: %w", err)
	}
	return nil
}

// ListLogs returns the audit trail newest first.
func (s *Store) ListLogs(ctx context.Context) ([]AuditLog, error) {
	var logs []AuditLog
	if err := s.db.WithContext(ctx).Order("timestamp DESC, log_id DESC").Find(&logs).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit logs: %w", err)
	}
	return logs, nil
}

// CountLogs returns the number of audit rows.
func (s *Store) CountLogs(ctx context.Context) (int64, error) {
	var n int64
	if err := s.db.WithContext(ctx).Model(&AuditLog{}).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("failed to count audit logs: %w", err)
	}
	return n, nil
}

// ActionCounts counts audit rows per action, most frequent first.
func (s *Store) ActionCounts(ctx context.Context) ([]CountByKey, error) {
	return s.countLogsBy(ctx, "action")
}

// RoleCounts counts audit rows per actor role, most frequent first.
func (s *Store) RoleCounts(ctx context.Context) ([]CountByKey, error) {
	return s.countLogsBy(ctx, "role")
}

func (s *Store) countLogsBy(ctx context.Context, column string) ([]CountByKey, error) {
	var rows []CountByKey
	err := s.db.WithContext(ctx).Model(&AuditLog{}).
		Select(column + " AS key, COUNT(*) AS count").
		Group(column).
		Order("count DESC, key").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count audit logs by %s: %w", column, err)
	}
	return rows, nil
}
