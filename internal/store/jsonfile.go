package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"churchsite/internal/model"
)

const (
	prayerRequestsFile  = "prayer_requests.json"
	contactMessagesFile = "contact_messages.json"
)

// JSONStore persists submissions as one JSON array file per kind. Writes
// rewrite the whole file atomically (temp + rename); a mutex serializes
// the read-modify-write cycle.
type JSONStore struct {
	dataDir string
	mu      sync.Mutex
}

// NewJSONStore returns a store writing under dataDir. The directory is
// created lazily on first save.
func NewJSONStore(dataDir string) *JSONStore {
	return &JSONStore{dataDir: dataDir}
}

func (s *JSONStore) SavePrayerRequest(ctx context.Context, pr model.PrayerRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []model.PrayerRequest
	if err := s.read(prayerRequestsFile, &existing); err != nil {
		return err
	}
	existing = append(existing, pr)
	return s.write(prayerRequestsFile, existing)
}

func (s *JSONStore) ListPrayerRequests(ctx context.Context) ([]model.PrayerRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.PrayerRequest
	if err := s.read(prayerRequestsFile, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *JSONStore) SaveContactMessage(ctx context.Context, cm model.ContactMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var existing []model.ContactMessage
	if err := s.read(contactMessagesFile, &existing); err != nil {
		return err
	}
	existing = append(existing, cm)
	return s.write(contactMessagesFile, existing)
}

func (s *JSONStore) ListContactMessages(ctx context.Context) ([]model.ContactMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []model.ContactMessage
	if err := s.read(contactMessagesFile, &out); err != nil {
		return nil, err
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (s *JSONStore) Close() error { return nil }

// read unmarshals the named file into v; a missing file is an empty list.
func (s *JSONStore) read(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("store: read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: parse %s: %w", name, err)
	}
	return nil
}

// write persists v atomically with 0600 permissions. Caller holds s.mu.
func (s *JSONStore) write(name string, v any) error {
	if err := os.MkdirAll(s.dataDir, 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(s.dataDir, "."+name+"-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, filepath.Join(s.dataDir, name))
}
