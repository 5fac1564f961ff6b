package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/mdawahq/mdawa-transfer/internal/auth"
	"github.com/mdawahq/mdawa-transfer/internal/encryption"
	"github.com/mdawahq/mdawa-transfer/internal/merge"
	"github.com/mdawahq/mdawa-transfer/internal/otp"
)

// document is the on-disk shape: the dataset's per-collection arrays at the
// top level plus the session table and clinician accounts.
type document struct {
	merge.Dataset
	OTPSessions []otp.Session `json:"otpSessions"`
	Users       []auth.User   `json:"users"`
}

// FileStore keeps everything in one JSON document on disk, optionally
// encrypted at rest. A missing file reads as an empty store.
type FileStore struct {
	mu      sync.Mutex
	path    string
	encrypt encryption.Service
}

// NewFileStore opens a file store at path. A nil encryption service stores
// plaintext JSON.
func NewFileStore(path string, encrypt encryption.Service) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}
	return &FileStore{path: path, encrypt: encrypt}, nil
}

func (f *FileStore) LoadDataset(_ context.Context) (merge.Dataset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return merge.Dataset{}, err
	}
	return doc.Dataset, nil
}

func (f *FileStore) SaveDataset(_ context.Context, ds merge.Dataset) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Dataset = ds
	return f.write(doc)
}

func (f *FileStore) LoadSessions(_ context.Context) ([]otp.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.OTPSessions, nil
}

func (f *FileStore) SaveSessions(_ context.Context, sessions []otp.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.OTPSessions = sessions
	return f.write(doc)
}

func (f *FileStore) LoadUsers(_ context.Context) ([]auth.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return nil, err
	}
	return doc.Users, nil
}

func (f *FileStore) SaveUsers(_ context.Context, users []auth.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	doc, err := f.read()
	if err != nil {
		return err
	}
	doc.Users = users
	return f.write(doc)
}

func (f *FileStore) Close(context.Context) error {
	return nil
}

func (f *FileStore) read() (document, error) {
	var doc document

	raw, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return doc, nil
	}
	if err != nil {
		return doc, fmt.Errorf("read store file: %w", err)
	}

	if f.encrypt != nil {
		raw, err = f.encrypt.Decrypt(string(raw))
		if err != nil {
			return doc, fmt.Errorf("decrypt store file: %w", err)
		}
	}

	if err := json.Unmarshal(raw, &doc); err != nil {
		return doc, fmt.Errorf("parse store file: %w", err)
	}
	return doc, nil
}

func (f *FileStore) write(doc document) error {
	raw, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode store file: %w", err)
	}

	if f.encrypt != nil {
		sealed, err := f.encrypt.Encrypt(raw)
		if err != nil {
			return fmt.Errorf("encrypt store file: %w", err)
		}
		raw = []byte(sealed)
	}

	// Write-then-rename so a crash mid-write never corrupts the store.
	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return fmt.Errorf("write store file: %w", err)
	}
	return os.Rename(tmp, f.path)
}
