package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"minihospital/database"
	"minihospital/privacy"
	"minihospital/testhelpers"
)

const adminPassword = "admin123"

type fixture struct {
	db       *gorm.DB
	store    *database.Store
	codec    *privacy.Codec
	audit    *AuditService
	gate     *AccessGate
	patients *PatientService
	users    *UserService
	stats    *StatsService

	admin        Actor
	doctor       Actor
	receptionist Actor
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	logger := zap.NewNop()

	db := testhelpers.NewTestDB(t)
	codec := testhelpers.NewTestCodec(t)
	store := database.NewStore(db, codec)

	audit := NewAuditService(store, logger)
	gate := NewAccessGate(store, audit, 5*time.Minute, logger)
	f := &fixture{
		db:       db,
		store:    store,
		codec:    codec,
		audit:    audit,
		gate:     gate,
		patients: NewPatientService(store, codec, privacy.NewAnonymizer(codec, logger), audit, gate, logger),
		users:    NewUserService(store, audit, gate, logger),
		stats:    NewStatsService(store),
	}

	f.admin = f.addUser(t, ctx, "admin", adminPassword, database.RoleAdmin)
	f.doctor = f.addUser(t, ctx, "Dr. Bob", "doc123", database.RoleDoctor)
	f.receptionist = f.addUser(t, ctx, "Alice_recep", "rec123", database.RoleReceptionist)
	return f
}

// addUser stores a legacy plaintext account, the way seeded accounts exist.
func (f *fixture) addUser(t *testing.T, ctx context.Context, username, password, role string) Actor {
	t.Helper()
	u := &database.User{Username: username, Password: password, Role: role}
	require.NoError(t, f.store.CreateUser(ctx, u))
	return ActorOf(u)
}

func (f *fixture) addPatient(t *testing.T, name, contact, diagnosis string) *database.Patient {
	t.Helper()
	p, err := f.patients.Add(context.Background(), f.receptionist, PatientInput{Name: name, Contact: contact, Diagnosis: diagnosis})
	require.NoError(t, err)
	return p
}

func (f *fixture) logs(t *testing.T) []database.AuditLog {
	t.Helper()
	logs, err := f.store.ListLogs(context.Background())
	require.NoError(t, err)
	return logs
}

func (f *fixture) lastLog(t *testing.T) database.AuditLog {
	t.Helper()
	logs := f.logs(t)
	require.NotEmpty(t, logs)
	return logs[0]
}
