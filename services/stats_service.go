package services

import (
	"context"

	"minihospital/database"
)

// Stats is the audit dashboard summary.
type Stats struct {
	TotalLogs      int64                 `json:"total_logs"`
	TotalPatients  int64                 `json:"total_patients"`
	TotalDoctors   int64                 `json:"total_doctors"`
	PatientsPerDay []database.CountByKey `json:"patients_per_day"`
	ActionCounts   []database.CountByKey `json:"action_counts"`
	RoleCounts     []database.CountByKey `json:"role_counts"`
}

type StatsService struct {
	store *database.Store
}

func NewStatsService(store *database.Store) *StatsService {
	return &StatsService{store: store}
}

// Collect gathers the dashboard figures.
func (s *StatsService) Collect(ctx context.Context, actor Actor) (*Stats, error) {
	if err := RequireRole(actor, database.RoleAdmin); err != nil {
		return nil, err
	}

	var (
		st  Stats
		err error
	)
	if st.TotalLogs, err = s.store.CountLogs(ctx); err != nil {
		return nil, err
	}
	if st.TotalPatients, err = s.store.CountPatients(ctx); err != nil {
		return nil, err
	}
	if st.TotalDoctors, err = s.store.CountUsersByRole(ctx, database.RoleDoctor); err != nil {
		return nil, err
	}
	if st.PatientsPerDay, err = s.store.PatientsPerDay(ctx); err != nil {
		return nil, err
	}
	if st.ActionCounts, err = s.store.ActionCounts(ctx); err != nil {
		return nil, err
	}
	if st.RoleCounts, err = s.store.RoleCounts(ctx); err != nil {
		return nil, err
	}
	return &st, nil
}
