package aes256_test

import (
	"testing"

	cypher "github.com/harborwallet/harbor/internal/infrastructure/mnemonic-cypher/aes256"
	"github.com/stretchr/testify/require"
)

var (
	mnemonic = []byte(
		"leader monkey parrot ring guide accident before fence cannon height " +
			"naive bean",
	)
	password = []byte("password")
)

func TestEncryptDecrypt(t *testing.T) {
	c := cypher.NewAES256Cypher()

	encrypted, err := c.Encrypt(mnemonic, password)
	require.NoError(t, err)
	require.NotEmpty(t, encrypted)

	// the salt is random, two encryptions never match.
	reencrypted, err := c.Encrypt(mnemonic, password)
	require.NoError(t, err)
	require.NotEqual(t, encrypted, reencrypted)

	decrypted, err := c.Decrypt(encrypted, password)
	require.NoError(t, err)
	require.Equal(t, mnemonic, decrypted)
}

func TestFailingEncrypt(t *testing.T) {
	tests := []struct {
		name     string
		mnemonic []byte
		password []byte
		err      error
	}{
		{"missing_mnemonic", nil, password, cypher.ErrMissingPlainText},
		{"missing_password", mnemonic, nil, cypher.ErrMissingPassword},
	}

	c := cypher.NewAES256Cypher()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encrypted, err := c.Encrypt(tt.mnemonic, tt.password)
			require.EqualError(t, err, tt.err.Error())
			require.Nil(t, encrypted)
		})
	}
}

func TestFailingDecrypt(t *testing.T) {
	c := cypher.NewAES256Cypher()

	encrypted, err := c.Encrypt(mnemonic, password)
	require.NoError(t, err)

	tests := []struct {
		name      string
		encrypted []byte
		password  []byte
		err       error
	}{
		{"missing_cyphertext", nil, password, cypher.ErrMissingCypherText},
		{"missing_password", encrypted, nil, cypher.ErrMissingPassword},
		{"invalid_cyphertext", []byte("too short"), password, cypher.ErrInvalidCypherText},
		{"wrong_password", encrypted, []byte("wrong password"), cypher.ErrInvalidPassword},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decrypted, err := c.Decrypt(tt.encrypted, tt.password)
			require.EqualError(t, err, tt.err.Error())
			require.Nil(t, decrypted)
		})
	}
}
