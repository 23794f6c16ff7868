package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minihospital/apperrors"
	"minihospital/database"
	"minihospital/testhelpers"
)

func ptr(s string) *string { return &s }

func TestInsertAndGetPatient(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	p := &database.Patient{Name: "John", Contact: "555-1234", Diagnosis: "Flu"}
	require.NoError(t, store.InsertPatient(ctx, p))
	assert.NotZero(t, p.ID)
	assert.NotEmpty(t, p.DateAdded)

	_, err := time.Parse(database.TimestampLayout, p.DateAdded)
	assert.NoError(t, err)

	got, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "John", got.Name, "insert stores fields as given")
	assert.Equal(t, "555-1234", got.Contact)
	assert.Equal(t, "", got.AnonymizedName)
	assert.False(t, got.IsAnonymized())

	second := &database.Patient{Name: "Jane", Contact: "555-9876"}
	require.NoError(t, store.InsertPatient(ctx, second))
	assert.Greater(t, second.ID, p.ID)
}

func TestGetPatient_NotFound(t *testing.T) {
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	_, err := store.GetPatient(context.Background(), 42)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdatePatient_DiagnosisOnlyKeepsCiphertext(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)

	p := &database.Patient{Name: "John", Contact: "555-1234", Diagnosis: "Flu"}
	require.NoError(t, store.InsertPatient(ctx, p))

	// Encrypt through an update first so the stored values are ciphertext.
	_, err := store.UpdatePatient(ctx, p.ID, database.PatientUpdate{Name: ptr("John"), Contact: ptr("555-1234")})
	require.NoError(t, err)
	before, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	require.True(t, codec.IsEncrypted(before.Name))
	require.True(t, codec.IsEncrypted(before.Contact))

	_, err = store.UpdatePatient(ctx, p.ID, database.PatientUpdate{Diagnosis: ptr("Cold")})
	require.NoError(t, err)

	after, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, before.Name, after.Name)
	assert.Equal(t, before.Contact, after.Contact)
	assert.Equal(t, "Cold", after.Diagnosis)
}

func TestUpdatePatient_FieldRules(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)

	p := &database.Patient{Name: "John", Contact: "555-1234", Diagnosis: "Flu"}
	require.NoError(t, store.InsertPatient(ctx, p))

	t.Run("plaintext name is encrypted", func(t *testing.T) {
		got, err := store.UpdatePatient(ctx, p.ID, database.PatientUpdate{Name: ptr("Johnny")})
		require.NoError(t, err)
		assert.True(t, codec.IsEncrypted(got.Name))
		assert.Equal(t, "Johnny", codec.Decrypt(got.Name))
		assert.Equal(t, "555-1234", got.Contact, "contact left unspecified keeps its plaintext")
		assert.Equal(t, "Flu", got.Diagnosis)
	})

	t.Run("blank values keep stored values", func(t *testing.T) {
		before, err := store.GetPatient(ctx, p.ID)
		require.NoError(t, err)

		got, err := store.UpdatePatient(ctx, p.ID, database.PatientUpdate{Name: ptr("  "), Contact: ptr(""), Diagnosis: ptr(" ")})
		require.NoError(t, err)
		assert.Equal(t, before.Name, got.Name)
		assert.Equal(t, before.Contact, got.Contact)
		assert.Equal(t, before.Diagnosis, got.Diagnosis)
	})

	t.Run("provided ciphertext keeps stored value", func(t *testing.T) {
		before, err := store.GetPatient(ctx, p.ID)
		require.NoError(t, err)

		foreign, err := codec.Encrypt("Someone Else")
		require.NoError(t, err)

		got, err := store.UpdatePatient(ctx, p.ID, database.PatientUpdate{Name: &foreign})
		require.NoError(t, err)
		assert.Equal(t, before.Name, got.Name)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := store.UpdatePatient(ctx, 999, database.PatientUpdate{Diagnosis: ptr("x")})
		assert.ErrorIs(t, err, apperrors.ErrNotFound)
	})
}

func TestDeletePatient(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	p := &database.Patient{Name: "John", Contact: "555-1234"}
	require.NoError(t, store.InsertPatient(ctx, p))

	require.NoError(t, store.DeletePatient(ctx, p.ID))
	_, err := store.GetPatient(ctx, p.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.ErrorIs(t, store.DeletePatient(ctx, p.ID), apperrors.ErrNotFound)
}

func TestApplyRetention(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	old := &database.Patient{
		Name:      "Old",
		Contact:   "555-0000",
		DateAdded: database.FormatTimestamp(time.Now().UTC().AddDate(0, 0, -400)),
	}
	fresh := &database.Patient{Name: "New", Contact: "555-1111"}
	require.NoError(t, store.InsertPatient(ctx, old))
	require.NoError(t, store.InsertPatient(ctx, fresh))

	deleted, err := store.ApplyRetention(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)

	_, err = store.GetPatient(ctx, old.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	_, err = store.GetPatient(ctx, fresh.ID)
	assert.NoError(t, err)

	deleted, err = store.ApplyRetention(ctx, 365)
	require.NoError(t, err)
	assert.Equal(t, int64(0), deleted)
}

func TestApplyRetention_UsesStoreClock(t *testing.T) {
	ctx := context.Background()
	base := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := base.WithClock(func() time.Time { return now })

	p := &database.Patient{Name: "John", Contact: "555-1234"}
	require.NoError(t, store.InsertPatient(ctx, p))
	assert.Equal(t, "2025-06-01 12:00:00", p.DateAdded)

	later := base.WithClock(func() time.Time { return now.AddDate(0, 0, 31) })
	deleted, err := later.ApplyRetention(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
}

func TestListUnanonymized_IncludesNullAndEmpty(t *testing.T) {
	ctx := context.Background()
	db := testhelpers.NewTestDB(t)
	store := database.NewStore(db, testhelpers.NewTestCodec(t))

	require.NoError(t, db.Exec(
		"INSERT INTO patients (name, contact, diagnosis, anonymized_name, anonymized_contact, date_added) VALUES (?, ?, ?, NULL, NULL, ?)",
		"Legacy", "123-456-7890", "Flu", "2024-01-01 00:00:00",
	).Error)

	empty := &database.Patient{Name: "Empty", Contact: "555-1234"}
	require.NoError(t, store.InsertPatient(ctx, empty))

	done := &database.Patient{Name: "x", Contact: "y", AnonymizedName: "ANON_1003", AnonymizedContact: "XXX-XXX-y"}
	require.NoError(t, store.InsertPatient(ctx, done))

	patients, err := store.ListUnanonymized(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "Legacy", patients[0].Name)
	assert.Equal(t, "", patients[0].AnonymizedName)
	assert.Equal(t, "Empty", patients[1].Name)
}

func TestSetAnonymized_NotFound(t *testing.T) {
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	err := store.SetAnonymized(context.Background(), 7, database.AnonymizedFields{AnonymizedName: "ANON_1007"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUsers(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	u := &database.User{Username: "alice", Password: "pw", Role: database.RoleReceptionist}
	require.NoError(t, store.CreateUser(ctx, u))
	assert.NotZero(t, u.ID)

	dup := &database.User{Username: "alice", Password: "pw2", Role: database.RoleDoctor}
	assert.ErrorIs(t, store.CreateUser(ctx, dup), apperrors.ErrConflict)

	got, err := store.GetUserByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)
	assert.Equal(t, "", got.PasswordScheme)

	require.NoError(t, store.UpdateUserRole(ctx, "alice", database.RoleDoctor))
	names, err := store.ListUsernamesByRole(ctx, database.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice"}, names)

	n, err := store.CountUsersByRole(ctx, database.RoleDoctor)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.UpdateUserCredential(ctx, u.ID, "hash", "bcrypt"))
	got, err = store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, "hash", got.Password)
	assert.Equal(t, "bcrypt", got.PasswordScheme)

	assert.ErrorIs(t, store.DeleteUser(ctx, "alice", database.RoleAdmin), apperrors.ErrNotFound,
		"delete requires username and role to match")
	require.NoError(t, store.DeleteUser(ctx, "alice", database.RoleDoctor))

	_, err = store.GetUserByID(ctx, u.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.ErrorIs(t, store.UpdateUserRole(ctx, "alice", database.RoleAdmin), apperrors.ErrNotFound)
}

func TestLogs(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	entries := []database.AuditLog{
		{UserID: 1, Role: "admin", Action: "Login", Timestamp: "2025-01-01 09:00:00"},
		{UserID: 2, Role: "doctor", Action: "Login", Timestamp: "2025-01-02 09:00:00"},
		{UserID: 1, Role: "admin", Action: "AddPatient", Timestamp: "2025-01-02 09:00:00", Details: "Added patient_id 1"},
	}
	for i := range entries {
		require.NoError(t, store.AppendLog(ctx, &entries[i]))
	}

	logs, err := store.ListLogs(ctx)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, "AddPatient", logs[0].Action, "ties on timestamp fall back to insertion order, newest first")
	assert.Equal(t, "2025-01-02 09:00:00", logs[1].Timestamp)
	assert.Equal(t, "2025-01-01 09:00:00", logs[2].Timestamp)

	n, err := store.CountLogs(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	actions, err := store.ActionCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.CountByKey{{Key: "Login", Count: 2}, {Key: "AddPatient", Count: 1}}, actions)

	roles, err := store.RoleCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.CountByKey{{Key: "admin", Count: 2}, {Key: "doctor", Count: 1}}, roles)

	stamped := &database.AuditLog{UserID: 1, Role: "admin", Action: "Login"}
	require.NoError(t, store.AppendLog(ctx, stamped))
	assert.NotEmpty(t, stamped.Timestamp)
}

func TestPatientsPerDay(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	for _, day := range []string{"2025-01-01 08:00:00", "2025-01-01 17:30:00", "2025-01-03 10:00:00"} {
		require.NoError(t, store.InsertPatient(ctx, &database.Patient{Name: "p", DateAdded: day}))
	}

	rows, err := store.PatientsPerDay(ctx)
	require.NoError(t, err)
	assert.Equal(t, []database.CountByKey{{Key: "2025-01-01", Count: 2}, {Key: "2025-01-03", Count: 1}}, rows)
}

func TestTransaction_RollsBackOnError(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	boom := errors.New("boom")
	err := store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.InsertPatient(ctx, &database.Patient{Name: "John"}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	n, err := store.CountPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestTransaction_NestedSavepointRollback(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	err := store.Transaction(ctx, func(tx *database.Store) error {
		if err := tx.InsertPatient(ctx, &database.Patient{Name: "kept"}); err != nil {
			return err
		}
		inner := tx.Transaction(ctx, func(sp *database.Store) error {
			if err := sp.InsertPatient(ctx, &database.Patient{Name: "discarded"}); err != nil {
				return err
			}
			return errors.New("inner failure")
		})
		assert.Error(t, inner)
		return nil
	})
	require.NoError(t, err)

	patients, err := store.ListPatients(ctx)
	require.NoError(t, err)
	require.Len(t, patients, 1)
	assert.Equal(t, "kept", patients[0].Name)
}

func TestSeedDefaults(t *testing.T) {
	ctx := context.Background()
	store := testhelpers.NewTestStore(t, testhelpers.NewTestCodec(t))

	users, patients, err := database.SeedDefaults(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 3, users)
	assert.Equal(t, 2, patients)

	admin, err := store.GetUserByUsername(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, database.RoleAdmin, admin.Role)

	users, patients, err = database.SeedDefaults(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, users)
	assert.Equal(t, 0, patients)
}

func TestIsValidRole(t *testing.T) {
	assert.True(t, database.IsValidRole("admin"))
	assert.True(t, database.IsValidRole("doctor"))
	assert.True(t, database.IsValidRole("receptionist"))
	assert.False(t, database.IsValidRole("Admin"))
	assert.False(t, database.IsValidRole("nurse"))
}
