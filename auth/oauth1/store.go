package oauth1

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/ajtowns/beanbag/security"
	"github.com/bytedance/sonic"
)

var storeInfo = []byte("beanbag oauth1 credentials v1")

// Store persists Dance credentials in a file sealed with a passphrase.
// Endpoints are not stored.
type Store struct {
	Path       string
	Passphrase string
}

type storedCreds struct {
	ClientKey    string `json:"client_key"`
	ClientSecret string `json:"client_secret"`
	UserKey      string `json:"user_key"`
	UserSecret   string `json:"user_secret"`
}

// Save writes the credentials of d, replacing any existing file.
func (s *Store) Save(d *Dance) error {
	plain, err := sonic.ConfigStd.Marshal(storedCreds{
		ClientKey:    d.ClientKey,
		ClientSecret: d.ClientSecret,
		UserKey:      d.UserKey,
		UserSecret:   d.UserSecret,
	})
	if err != nil {
		return fmt.Errorf("encode credentials: %w", err)
	}
	defer security.Zero(plain)

	sealed, err := security.Seal(s.Passphrase, plain, storeInfo)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return err
	}
	return os.WriteFile(s.Path, sealed, 0o600)
}

// Load fills the credentials of d from the file. A wrong passphrase fails
// with security.ErrInvalidCiphertext.
func (s *Store) Load(d *Dance) error {
	sealed, err := os.ReadFile(s.Path)
	if err != nil {
		return err
	}
	plain, err := security.Open(s.Passphrase, sealed, storeInfo)
	if err != nil {
		return fmt.Errorf("open %s: %w", s.Path, err)
	}
	defer security.Zero(plain)

	var c storedCreds
	if err := sonic.ConfigStd.Unmarshal(plain, &c); err != nil {
		return fmt.Errorf("decode credentials: %w", err)
	}
	d.ClientKey, d.ClientSecret = c.ClientKey, c.ClientSecret
	d.UserKey, d.UserSecret = c.UserKey, c.UserSecret
	return nil
}
