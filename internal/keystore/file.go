package keystore

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/crypto/nacl/secretbox"
)

const (
	keyFileName   = "keystore.key"
	tokenFileName = "token.sealed"
	nonceSize     = 24
	keySize       = 32
)

// FileStore seals the token at rest under a directory owned by the current
// user. The sealing key is generated on first use and kept next to the token
// with 0600 permissions, so the token is unreadable without the key file.
type FileStore struct {
	dir string
}

// NewFileStore builds a file-backed token store rooted at dir. The directory
// is created on demand.
func NewFileStore(dir string) *FileStore {
	return &FileStore{dir: dir}
}

func (s *FileStore) Get(_ context.Context) (string, error) {
	sealed, err := os.ReadFile(filepath.Join(s.dir, tokenFileName))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read sealed token: %w", err)
	}
	if len(sealed) < nonceSize {
		return "", fmt.Errorf("sealed token too short")
	}

	key, err := s.loadKey()
	if err != nil {
		return "", err
	}

	var nonce [nonceSize]byte
	copy(nonce[:], sealed[:nonceSize])
	token, ok := secretbox.Open(nil, sealed[nonceSize:], &nonce, key)
	if !ok {
		return "", fmt.Errorf("unseal token: key mismatch or corrupt file")
	}
	return string(token), nil
}

func (s *FileStore) Set(_ context.Context, token string) error {
	if token == "" {
		return ErrEmptyToken
	}

	if err := os.MkdirAll(s.dir, 0o700); err != nil {
		return fmt.Errorf("create keystore dir: %w", err)
	}

	key, err := s.loadOrCreateKey()
	if err != nil {
		return err
	}

	var nonce [nonceSize]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return fmt.Errorf("generate nonce: %w", err)
	}
	sealed := secretbox.Seal(nonce[:], []byte(token), &nonce, key)

	return writeAtomic(filepath.Join(s.dir, tokenFileName), sealed)
}

func (s *FileStore) Remove(_ context.Context) error {
	err := os.Remove(filepath.Join(s.dir, tokenFileName))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("remove sealed token: %w", err)
	}
	return nil
}

func (s *FileStore) loadKey() (*[keySize]byte, error) {
	raw, err := os.ReadFile(filepath.Join(s.dir, keyFileName))
	if err != nil {
		return nil, fmt.Errorf("read keystore key: %w", err)
	}
	if len(raw) != keySize {
		return nil, fmt.Errorf("keystore key has wrong size %d", len(raw))
	}
	var key [keySize]byte
	copy(key[:], raw)
	return &key, nil
}

func (s *FileStore) loadOrCreateKey() (*[keySize]byte, error) {
	key, err := s.loadKey()
	if err == nil {
		return key, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var fresh [keySize]byte
	if _, err := rand.Read(fresh[:]); err != nil {
		return nil, fmt.Errorf("generate keystore key: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, keyFileName), fresh[:]); err != nil {
		return nil, err
	}
	return &fresh, nil
}

// writeAtomic writes via a temp file and rename so a crash mid-write never
// leaves a truncated token or key on disk.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".keystore-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace %s: %w", filepath.Base(path), err)
	}
	return nil
}
