package cryptox

import (
	"bytes"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

const pepperSize = 32

// The pepper is a server-wide secret appended to every password and client
// secret before hashing. It is stored in a file, never in the database.
var peppers struct {
	mu     sync.Mutex
	path   string
	loaded []byte
}

// SetPepperPath selects the pepper file. The pepper is (re)loaded on next use.
func SetPepperPath(file string) {
	peppers.mu.Lock()
	defer peppers.mu.Unlock()

	peppers.path = filepath.Clean(file)
	peppers.loaded = nil
}

// LoadPepper returns the pepper, creating the pepper file with a random
// value the first time.
func LoadPepper() ([]byte, error) {
	peppers.mu.Lock()
	defer peppers.mu.Unlock()

	if peppers.loaded != nil {
		return peppers.loaded, nil
	}
	if peppers.path == "" || peppers.path == "." {
		return nil, errors.New("pepper file not configured")
	}

	p, err := readOrCreatePepper(peppers.path)
	if err != nil {
		return nil, fmt.Errorf("pepper %s: %w", peppers.path, err)
	}
	peppers.loaded = p
	return p, nil
}

func readOrCreatePepper(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	switch {
	case err == nil:
		p := bytes.TrimSpace(raw)
		if len(p) == 0 {
			return nil, errors.New("empty pepper file")
		}
		return p, nil
	case !errors.Is(err, fs.ErrNotExist):
		return nil, err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return nil, err
	}
	buf := make([]byte, pepperSize)
	if _, err := rand.Read(buf); err != nil {
		return nil, err
	}
	p := []byte(base64.RawURLEncoding.EncodeToString(buf))

	// O_EXCL so two processes racing on first start agree on one pepper.
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if errors.Is(err, fs.ErrExist) {
		return readOrCreatePepper(path)
	}
	if err != nil {
		return nil, err
	}
	if _, err := f.Write(p); err != nil {
		_ = f.Close()
		return nil, err
	}
	return p, f.Close()
}
