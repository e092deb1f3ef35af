package auth

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"io"

	"github.com/goliatone/go-errors"
)

// SecretCipherKeySize is the required key size for AES-256.
const SecretCipherKeySize = 32

// SecretCipher seals the TOTP shared secret before it touches the store.
// The key must be distinct from the token signing secret so a leak of one
// does not compromise the other.
type SecretCipher struct {
	key []byte
}

// NewSecretCipher validates the key length and returns a cipher
func NewSecretCipher(key []byte) (*SecretCipher, error) {
	if len(key) != SecretCipherKeySize {
		return nil, errors.New("secret cipher key must be 32 bytes", errors.CategoryValidation).
			WithCode(errors.CodeBadRequest)
	}
	k := make([]byte, SecretCipherKeySize)
	copy(k, key)
	return &SecretCipher{key: k}, nil
}

// Seal encrypts the plaintext with AES-256-GCM and returns a
// base64-encoded, nonce-prefixed ciphertext.
func (c *SecretCipher) Seal(plainText string) (string, error) {
	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize secret cipher")
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize secret cipher")
	}

	nonce := make([]byte, aesGCM.NonceSize())
	if _, err = io.ReadFull(rand.Reader, nonce); err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to generate nonce")
	}

	cipherText := aesGCM.Seal(nonce, nonce, []byte(plainText), nil)
	return base64.StdEncoding.EncodeToString(cipherText), nil
}

// Open decrypts a sealed secret produced by Seal.
func (c *SecretCipher) Open(cipherTextBase64 string) (string, error) {
	cipherText, err := base64.StdEncoding.DecodeString(cipherTextBase64)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to decode sealed secret")
	}

	block, err := aes.NewCipher(c.key)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize secret cipher")
	}

	aesGCM, err := cipher.NewGCM(block)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to initialize secret cipher")
	}

	nonceSize := aesGCM.NonceSize()
	if len(cipherText) < nonceSize {
		return "", errors.New("sealed secret is too short", errors.CategoryInternal)
	}
	nonce, cipherText := cipherText[:nonceSize], cipherText[nonceSize:]

	plainText, err := aesGCM.Open(nil, nonce, cipherText, nil)
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryInternal, "failed to unseal secret")
	}

	return string(plainText), nil
}

// GenerateCipherKey creates a new random key suitable for NewSecretCipher.
func GenerateCipherKey() ([]byte, error) {
	key := make([]byte, SecretCipherKeySize)
	if _, err := rand.Read(key); err != nil {
		return nil, errors.Wrap(err, errors.CategoryInternal, "failed to generate cipher key")
	}
	return key, nil
}
