package privacy_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"minihospital/database"
	"minihospital/privacy"
	"minihospital/testhelpers"
)

func TestAnonymizeAll_EndToEnd(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)
	anonymizer := privacy.NewAnonymizer(codec, zap.NewNop())

	p := &database.Patient{Name: "John", Contact: "555-1234", Diagnosis: "Flu"}
	require.NoError(t, store.InsertPatient(ctx, p))

	n, err := anonymizer.AnonymizeAll(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, privacy.AnonymizedName(p.ID), got.AnonymizedName)
	assert.Equal(t, "XXX-XXX-1234", got.AnonymizedContact)
	assert.True(t, codec.IsEncrypted(got.Name))
	assert.True(t, codec.IsEncrypted(got.Contact))
	assert.Equal(t, "John", codec.Decrypt(got.Name))
	assert.Equal(t, "555-1234", codec.Decrypt(got.Contact))
	assert.Equal(t, "Flu", got.Diagnosis)
}

func TestAnonymizeAll_Idempotent(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)
	anonymizer := privacy.NewAnonymizer(codec, zap.NewNop())

	for _, name := range []string{"John", "Jane"} {
		require.NoError(t, store.InsertPatient(ctx, &database.Patient{Name: name, Contact: "555-0000"}))
	}

	n, err := anonymizer.AnonymizeAll(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	first, err := store.ListPatients(ctx)
	require.NoError(t, err)

	n, err = anonymizer.AnonymizeAll(ctx, store)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	second, err := store.ListPatients(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second, "a second pass leaves every record byte-identical")
}

func TestAnonymizeAll_DoesNotDoubleEncrypt(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)
	anonymizer := privacy.NewAnonymizer(codec, zap.NewNop())

	sealedName, err := codec.Encrypt("John")
	require.NoError(t, err)
	sealedContact, err := codec.Encrypt("555-1234")
	require.NoError(t, err)

	p := &database.Patient{Name: sealedName, Contact: sealedContact}
	require.NoError(t, store.InsertPatient(ctx, p))

	_, err = anonymizer.AnonymizeAll(ctx, store)
	require.NoError(t, err)

	got, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, sealedName, got.Name)
	assert.Equal(t, sealedContact, got.Contact)
	assert.Equal(t, "XXX-XXX-1234", got.AnonymizedContact, "mask is computed from the decrypted contact")
}

func TestAnonymizeAll_EmptyContact(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)
	anonymizer := privacy.NewAnonymizer(codec, zap.NewNop())

	p := &database.Patient{Name: "NoPhone"}
	require.NoError(t, store.InsertPatient(ctx, p))

	_, err := anonymizer.AnonymizeAll(ctx, store)
	require.NoError(t, err)

	got, err := store.GetPatient(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "XXX-XXX-XXXX", got.AnonymizedContact)
	assert.Equal(t, "", got.Contact)
}

func TestAnonymizeAll_InsideTransaction(t *testing.T) {
	ctx := context.Background()
	codec := testhelpers.NewTestCodec(t)
	store := testhelpers.NewTestStore(t, codec)
	anonymizer := privacy.NewAnonymizer(codec, zap.NewNop())

	require.NoError(t, store.InsertPatient(ctx, &database.Patient{Name: "John", Contact: "555-1234"}))

	var n int
	err := store.Transaction(ctx, func(tx *database.Store) error {
		var err error
		n, err = anonymizer.AnonymizeAll(ctx, tx)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	pending, err := store.ListUnanonymized(ctx)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestAnonymizedName(t *testing.T) {
	assert.Equal(t, "ANON_1001", privacy.AnonymizedName(1))
	assert.Equal(t, "ANON_1042", privacy.AnonymizedName(42))
}

func TestMaskContact(t *testing.T) {
	tests := []struct {
		contact string
		want    string
	}{
		{"555-1234", "XXX-XXX-1234"},
		{"123-456-7890", "XXX-XXX-7890"},
		{"12", "XXX-XXX-12"},
		{"", "XXX-XXX-XXXX"},
		{"тел-5678", "XXX-XXX-5678"},
	}

	for _, tt := range tests {
		t.Run(tt.contact, func(t *testing.T) {
			assert.Equal(t, tt.want, privacy.MaskContact(tt.contact))
		})
	}
}
