package realm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// DefaultCrumbQuota mirrors the cookie-store value ceiling.
const DefaultCrumbQuota = 4096

// CrumbRealm is the cookie-store stand-in: one small JSON file holding
// all keys, with a per-value quota. Oversized writes fail the way a
// cookie write fails in a locked-down browser, leaving the other realms
// to carry the ledger.
type CrumbRealm struct {
	mu    sync.Mutex
	path  string
	quota int
}

// NewCrumbRealm creates a crumb realm persisted at path.
func NewCrumbRealm(path string, quota int) *CrumbRealm {
	if quota <= 0 {
		quota = DefaultCrumbQuota
	}
	return &CrumbRealm{path: path, quota: quota}
}

func (r *CrumbRealm) Name() string { return "crumb" }

func (r *CrumbRealm) Capabilities() Capabilities {
	return Capabilities{Synchronous: true, QuotaBytes: r.quota}
}

func (r *CrumbRealm) Get(_ context.Context, key string) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	jar, err := r.load()
	if err != nil {
		return nil, err
	}
	v, ok := jar[key]
	if !ok {
		return nil, ErrNotFound
	}
	return []byte(v), nil
}

func (r *CrumbRealm) Set(_ context.Context, key string, value []byte) error {
	if len(value) > r.quota {
		return fmt.Errorf("%w: %d bytes > %d", ErrOverQuota, len(value), r.quota)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	jar, err := r.load()
	if err != nil {
		return err
	}
	jar[key] = string(value)
	return r.save(jar)
}

func (r *CrumbRealm) Delete(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	jar, err := r.load()
	if err != nil {
		return err
	}
	delete(jar, key)
	return r.save(jar)
}

// load reads the whole jar; a missing file is an empty jar, a corrupt
// file is unavailable (treated as absent by the store).
func (r *CrumbRealm) load() (map[string]string, error) {
	raw, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	jar := map[string]string{}
	if err := json.Unmarshal(raw, &jar); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return jar, nil
}

func (r *CrumbRealm) save(jar map[string]string) error {
	raw, err := json.Marshal(jar)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.WriteFile(r.path, raw, 0o600); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
