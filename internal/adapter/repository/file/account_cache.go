// Package file keeps the account snapshot on local disk for CLI use
// without Redis.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/iho/cfadjust/internal/domain"
)

const accountsFile = "accounts.json"

// DefaultDir returns the data directory (~/.cfadjust).
func DefaultDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".cfadjust"), nil
}

// AccountCache implements usecase.AccountCache on a JSON file.
type AccountCache struct {
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewAccountCache creates a new AccountCache in dir. A snapshot older than
// ttl reads as absent; zero disables expiry.
func NewAccountCache(dir string, ttl time.Duration) *AccountCache {
	return &AccountCache{
		path: filepath.Join(dir, accountsFile),
		ttl:  ttl,
		now:  time.Now,
	}
}

// Load returns the stored snapshot, or nil when none is stored or it has
// expired.
func (c *AccountCache) Load(_ context.Context) (*domain.AccountSnapshot, error) {
	data, err := os.ReadFile(c.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("storage error reading %s: %w", c.path, err)
	}

	var snapshot domain.AccountSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		// Back up the corrupt file so the next refresh starts clean.
		backupPath := c.path + ".corrupt"
		_ = os.Rename(c.path, backupPath)
		return nil, fmt.Errorf("corrupt JSON in %s (backed up to %s): %w", c.path, backupPath, err)
	}

	if c.ttl > 0 && c.now().Sub(snapshot.FetchedAt) > c.ttl {
		return nil, nil
	}
	return &snapshot, nil
}

// Store atomically replaces the stored snapshot.
func (c *AccountCache) Store(_ context.Context, snapshot *domain.AccountSnapshot) error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0o700); err != nil {
		return fmt.Errorf("storage error creating directories: %w", err)
	}

	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("storage error marshalling JSON: %w", err)
	}

	tmpPath := c.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o600); err != nil {
		return fmt.Errorf("storage error writing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("storage error renaming temp file: %w", err)
	}
	return nil
}
