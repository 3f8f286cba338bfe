package codec

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"strings"

	"golang.org/x/crypto/pbkdf2"

	"github.com/s3db-io/s3db/errs"
)

const (
	pbkdf2Iterations = 100_000
	saltLen          = 16
)

// SecretKey is read once at engine init (spec.md §5: "read-once... never
// logged") and threaded into the codec registry via WithKey. It is never
// serialised or logged by this package.
type SecretKey []byte

// SecretCodec encrypts a string with AES-256-GCM, deriving the AES key
// from SecretKey via PBKDF2 with a random salt per value. The encoded form
// is base64(salt)|base64(iv)|base64(ciphertext+tag); decryption failures collapse to
// errs.CryptoFailure without revealing ciphertext, per spec.md §7.
type SecretCodec struct {
	Key SecretKey
}

func (c SecretCodec) WithKey(key SecretKey) SecretCodec {
	c.Key = key
	return c
}

func (c SecretCodec) Encode(_ string, value any) (string, error) {
	plaintext, ok := value.(string)
	if !ok {
		return "", invalidType("secret", value)
	}
	if len(c.Key) == 0 {
		return "", errs.New(errs.CryptoFailure, "no secret key configured")
	}

	salt := make([]byte, saltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", errs.CryptoFailureErr(err)
	}
	derivedKey := pbkdf2.Key(c.Key, salt, pbkdf2Iterations, 32, sha256.New)

	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return "", errs.CryptoFailureErr(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", errs.CryptoFailureErr(err)
	}
	iv := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(iv); err != nil {
		return "", errs.CryptoFailureErr(err)
	}
	ciphertext := gcm.Seal(nil, iv, []byte(plaintext), nil)

	parts := []string{
		base64.StdEncoding.EncodeToString(salt),
		base64.StdEncoding.EncodeToString(iv),
		base64.StdEncoding.EncodeToString(ciphertext),
	}
	return strings.Join(parts, "|"), nil
}

func (c SecretCodec) Decode(_ string, encoded string) (any, error) {
	if len(c.Key) == 0 {
		return nil, errs.New(errs.CryptoFailure, "no secret key configured")
	}
	parts := strings.Split(encoded, "|")
	if len(parts) != 3 {
		return nil, errs.CryptoFailureErr(nil)
	}
	salt, err1 := base64.StdEncoding.DecodeString(parts[0])
	iv, err2 := base64.StdEncoding.DecodeString(parts[1])
	ciphertext, err3 := base64.StdEncoding.DecodeString(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return nil, errs.CryptoFailureErr(nil)
	}

	derivedKey := pbkdf2.Key(c.Key, salt, pbkdf2Iterations, 32, sha256.New)
	block, err := aes.NewCipher(derivedKey)
	if err != nil {
		return nil, errs.CryptoFailureErr(err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, errs.CryptoFailureErr(err)
	}
	if len(iv) != gcm.NonceSize() {
		return nil, errs.CryptoFailureErr(nil)
	}
	plaintext, err := gcm.Open(nil, iv, ciphertext, nil)
	if err != nil {
		return nil, errs.CryptoFailureErr(nil)
	}
	return string(plaintext), nil
}
