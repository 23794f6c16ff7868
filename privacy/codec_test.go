package privacy_test

import (
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"minihospital/apperrors"
	"minihospital/privacy"
	"minihospital/testhelpers"
)

func TestNewCodec(t *testing.T) {
	tests := []struct {
		name    string
		key     string
		wantErr bool
	}{
		{name: "standard base64 32-byte key", key: testhelpers.TestKey},
		{name: "url base64 32-byte key", key: "l6uwdkD_JVmYy-JOODtYb_lzwA7quvhbEEgKfJ8chhk="},
		{name: "passphrase", key: "quickstart-demo-key"},
		{name: "short base64 key is hashed", key: base64.StdEncoding.EncodeToString([]byte("sixteen-byte-key"))},
		{name: "empty key", key: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := privacy.NewCodec(tt.key)
			if tt.wantErr {
				assert.ErrorIs(t, err, privacy.ErrInvalidKey)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, c)
		})
	}
}

func TestCodec_RoundTrip(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	inputs := []string{
		"John",
		"555-1234",
		"Jane Smith",
		"unicode: Zoë Łukasz 山田",
		strings.Repeat("long value ", 100),
		privacy.CiphertextPrefix + "looks-tagged-but-is-plaintext",
	}

	for _, s := range inputs {
		enc, err := c.Encrypt(s)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(enc, privacy.CiphertextPrefix))
		assert.NotEqual(t, s, enc)
		assert.Equal(t, s, c.Decrypt(enc))
		assert.True(t, c.IsEncrypted(enc))
	}
}

func TestCodec_EncryptIsNonDeterministic(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	a, err := c.Encrypt("John")
	require.NoError(t, err)
	b, err := c.Encrypt("John")
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
	assert.Equal(t, c.Decrypt(a), c.Decrypt(b))
}

func TestCodec_EmptyValue(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	enc, err := c.Encrypt("")
	require.NoError(t, err)
	assert.Equal(t, "", enc)
	assert.Equal(t, "", c.Decrypt(""))
	assert.False(t, c.IsEncrypted(""))
}

func TestCodec_InvalidText(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	_, err := c.Encrypt(string([]byte{0xff, 0xfe, 0xfd}))
	assert.ErrorIs(t, err, apperrors.ErrCodec)
}

func TestCodec_TolerantDecrypt(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	plaintexts := []string{
		"John Doe",
		"123-456-7890",
		"gAAAAABlegacyFernetLookingToken==",
		privacy.CiphertextPrefix,
		privacy.CiphertextPrefix + "!!!not-base64!!!",
		privacy.CiphertextPrefix + base64.URLEncoding.EncodeToString([]byte("short")),
		privacy.CiphertextPrefix + base64.URLEncoding.EncodeToString([]byte(strings.Repeat("x", 64))),
	}

	for _, s := range plaintexts {
		assert.Equal(t, s, c.Decrypt(s), "decrypt must return %q unchanged", s)
		assert.False(t, c.IsEncrypted(s), "%q must not be reported as ciphertext", s)
	}
}

func TestCodec_WrongKeyIsNotCiphertext(t *testing.T) {
	c := testhelpers.NewTestCodec(t)
	other, err := privacy.NewCodec("a-different-passphrase")
	require.NoError(t, err)

	enc, err := c.Encrypt("John")
	require.NoError(t, err)

	assert.False(t, other.IsEncrypted(enc))
	assert.Equal(t, enc, other.Decrypt(enc))
}

func TestCodec_TamperedCiphertext(t *testing.T) {
	c := testhelpers.NewTestCodec(t)

	enc, err := c.Encrypt("John")
	require.NoError(t, err)

	raw, err := base64.URLEncoding.DecodeString(strings.TrimPrefix(enc, privacy.CiphertextPrefix))
	require.NoError(t, err)
	raw[len(raw)-1] ^= 0x01
	tampered := privacy.CiphertextPrefix + base64.URLEncoding.EncodeToString(raw)

	assert.False(t, c.IsEncrypted(tampered))
	assert.Equal(t, tampered, c.Decrypt(tampered))
}
