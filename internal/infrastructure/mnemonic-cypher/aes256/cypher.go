package aes256

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/scrypt"
)

var (
	ErrMissingPlainText     = fmt.Errorf("missing plaintext mnemonic")
	ErrMissingCypherText    = fmt.Errorf("missing encrypted mnemonic")
	ErrMissingPassword      = fmt.Errorf("missing password")
	ErrInvalidPassword      = fmt.Errorf("invalid password")
	ErrInvalidCypherText    = fmt.Errorf("invalid encrypted mnemonic")
	ErrUnableToEncrypt      = fmt.Errorf("unable to encrypt mnemonic")
	ErrUnableToDeriveKey    = fmt.Errorf("unable to derive encryption key")
	ErrUnableToGenerateSalt = fmt.Errorf("unable to generate random salt")
)

const saltSize = 32

// AES256Cypher encrypts and decrypts a mnemonic with AES-256-GCM, deriving
// the key from the password with scrypt. The random salt is prepended to the
// cyphertext.
type AES256Cypher struct{}

func NewAES256Cypher() *AES256Cypher {
	return &AES256Cypher{}
}

func (c *AES256Cypher) Encrypt(mnemonic, password []byte) ([]byte, error) {
	if len(mnemonic) <= 0 {
		return nil, ErrMissingPlainText
	}
	if len(password) <= 0 {
		return nil, ErrMissingPassword
	}

	salt := make([]byte, saltSize)
	if _, err := rand.Read(salt); err != nil {
		return nil, ErrUnableToGenerateSalt
	}

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, ErrUnableToEncrypt
	}

	cypherText := gcm.Seal(nonce, nonce, mnemonic, nil)
	return append(salt, cypherText...), nil
}

func (c *AES256Cypher) Decrypt(encryptedMnemonic, password []byte) ([]byte, error) {
	if len(encryptedMnemonic) <= 0 {
		return nil, ErrMissingCypherText
	}
	if len(password) <= 0 {
		return nil, ErrMissingPassword
	}
	if len(encryptedMnemonic) <= saltSize {
		return nil, ErrInvalidCypherText
	}

	salt, data := encryptedMnemonic[:saltSize], encryptedMnemonic[saltSize:]

	gcm, err := newGCM(password, salt)
	if err != nil {
		return nil, err
	}

	if len(data) <= gcm.NonceSize() {
		return nil, ErrInvalidCypherText
	}

	nonce, cypherText := data[:gcm.NonceSize()], data[gcm.NonceSize():]
	plainText, err := gcm.Open(nil, nonce, cypherText, nil)
	if err != nil {
		return nil, ErrInvalidPassword
	}
	return plainText, nil
}

func newGCM(password, salt []byte) (cipher.AEAD, error) {
	key, err := scrypt.Key(password, salt, 32768, 8, 1, 32)
	if err != nil {
		return nil, ErrUnableToDeriveKey
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, ErrUnableToDeriveKey
	}

	return cipher.NewGCM(block)
}
