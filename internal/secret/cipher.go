package secret

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fernet/fernet-go"
)

var (
	ErrMissingKey    = errors.New("encryption key is not set")
	ErrUndecryptable = errors.New("value cannot be decrypted with the configured key")
)

// Tokens are not expired by age.
const noTTL = -1 * time.Second

// Cipher encrypts card fields at rest with a process-wide Fernet key.
type Cipher struct {
	keys []*fernet.Key
}

// NewCipher parses the primary key and any retired keys that may still be
// needed to read older rows. Only the primary key is used to encrypt.
func NewCipher(primary string, retired ...string) (*Cipher, error) {
	primary = strings.TrimSpace(primary)
	if primary == "" {
		return nil, ErrMissingKey
	}

	k, err := fernet.DecodeKey(primary)
	if err != nil {
		return nil, fmt.Errorf("invalid encryption key: %w", err)
	}
	keys := []*fernet.Key{k}

	for _, r := range retired {
		if strings.TrimSpace(r) == "" {
			continue
		}
		old, err := fernet.DecodeKey(strings.TrimSpace(r))
		if err != nil {
			return nil, fmt.Errorf("invalid retired encryption key: %w", err)
		}
		keys = append(keys, old)
	}

	return &Cipher{keys: keys}, nil
}

func (c *Cipher) Encrypt(plain string) (string, error) {
	tok, err := fernet.EncryptAndSign([]byte(plain), c.keys[0])
	if err != nil {
		return "", fmt.Errorf("encrypt: %w", err)
	}
	return string(tok), nil
}

func (c *Cipher) Decrypt(token string) (string, error) {
	msg := fernet.VerifyAndDecrypt([]byte(token), noTTL, c.keys)
	if msg == nil {
		return "", ErrUndecryptable
	}
	return string(msg), nil
}

// GenerateKey returns a new random key in the encoding NewCipher accepts.
func GenerateKey() (string, error) {
	var k fernet.Key
	if err := k.Generate(); err != nil {
		return "", err
	}
	return k.Encode(), nil
}
