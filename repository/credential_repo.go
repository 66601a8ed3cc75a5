package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"chat-client/models"
)

// ErrNoCredential means no token is stored; the caller must log in first.
var ErrNoCredential = errors.New("no credential stored")

type CredentialRepository interface {
	Set(cred models.Credential) error
	Get() (models.Credential, error)
	Clear() error
}

// FileCredentialRepo keeps the credential in a JSON file so a restart does
// not force re-login. The file is the only copy; no expiry check happens
// client-side, the server rejects stale tokens on connect.
type FileCredentialRepo struct {
	mu   sync.RWMutex
	path string
	cred *models.Credential
}

func NewFileCredentialRepo(path string) (*FileCredentialRepo, error) {
	r := &FileCredentialRepo{path: path}

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return r, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read credential file: %w", err)
	}

	var cred models.Credential
	if err := json.Unmarshal(data, &cred); err != nil {
		// Corrupt file is the same as no credential.
		return r, nil
	}
	if cred.Token != "" {
		r.cred = &cred
	}
	return r, nil
}

func (r *FileCredentialRepo) Set(cred models.Credential) error {
	if cred.Token == "" {
		return errors.New("empty token")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("create credential dir: %w", err)
	}
	if err := os.WriteFile(r.path, data, 0o600); err != nil {
		return fmt.Errorf("write credential file: %w", err)
	}
	r.cred = &cred
	return nil
}

func (r *FileCredentialRepo) Get() (models.Credential, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.cred == nil {
		return models.Credential{}, ErrNoCredential
	}
	return *r.cred, nil
}

func (r *FileCredentialRepo) Clear() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cred = nil
	if err := os.Remove(r.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove credential file: %w", err)
	}
	return nil
}
