package purchase

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Pending is an unverified checkout kept across runs.
type Pending struct {
	Reference string    `json:"reference"`
	PlanID    string    `json:"plan_id"`
	Provider  string    `json:"provider"`
	CreatedAt time.Time `json:"created_at"`
}

// PendingStore persists the last unverified checkout as a JSON file.
type PendingStore struct {
	path string
}

func NewPendingStore(dir string) *PendingStore {
	return &PendingStore{path: filepath.Join(dir, "pending_checkout.json")}
}

func (p *PendingStore) Path() string { return p.path }

func (p *PendingStore) Save(pending Pending) error {
	if pending.CreatedAt.IsZero() {
		pending.CreatedAt = time.Now().UTC()
	}
	data, err := json.MarshalIndent(pending, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal pending checkout: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(p.path), 0o700); err != nil {
		return fmt.Errorf("create state dir: %w", err)
	}
	if err := os.WriteFile(p.path, data, 0o600); err != nil {
		return fmt.Errorf("write pending checkout: %w", err)
	}
	return nil
}

// Load returns nil without error when nothing is pending.
func (p *PendingStore) Load() (*Pending, error) {
	data, err := os.ReadFile(p.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read pending checkout: %w", err)
	}
	var pending Pending
	if err := json.Unmarshal(data, &pending); err != nil {
		return nil, fmt.Errorf("decode pending checkout: %w", err)
	}
	return &pending, nil
}

func (p *PendingStore) Clear() error {
	if err := os.Remove(p.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("clear pending checkout: %w", err)
	}
	return nil
}

// VerifyPending re-checks a stored checkout and clears it once the backend
// reports it completed. It returns nil, nil when nothing is pending.
func (s *Service) VerifyPending(ctx context.Context, store *PendingStore) (*VerifyResult, error) {
	pending, err := store.Load()
	if err != nil || pending == nil {
		return nil, err
	}

	var res *VerifyResult
	if pending.Provider == ProviderPayPal {
		res, err = s.CapturePayPal(ctx, pending.Reference)
	} else {
		res, err = s.Verify(ctx, pending.Reference)
	}
	if err != nil {
		return nil, err
	}
	if res.Completed() || res.Failed() {
		if err := store.Clear(); err != nil {
			return res, err
		}
	}
	return res, nil
}
