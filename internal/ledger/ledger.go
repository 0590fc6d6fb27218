// Package ledger persists each model's last-known verification outcome.
//
// The ledger is a single JSON file with three maps: verified, failed, and
// skipped. It is rewritten in full on every save (atomic replace, sorted
// keys, two-space indent), so it must fit comfortably in memory. There is
// no ambient ledger state: callers load one explicitly, record outcomes,
// and save it when done.
//
// Recording a Verified outcome removes the model's failed entry. Recording
// a Failed outcome does NOT remove a prior verified entry: historical
// verification is sticky until the model is re-verified, and models
// carrying both entries are surfaced as stale.
package ledger

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"maps"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// Status classifies a verification outcome.
type Status string

const (
	StatusVerified Status = "verified"
	StatusFailed   Status = "failed"
	StatusSkipped  Status = "skipped"
	// StatusPending is never persisted: a model is pending when it appears
	// in none of the three maps.
	StatusPending Status = "pending"
)

// Record is one model's verification outcome to be merged into the ledger.
type Record struct {
	Status   Status
	Seed     int
	Accuracy float64
	Reason   string
}

// VerifiedEntry is the persisted form of a verified outcome.
type VerifiedEntry struct {
	Accuracy   float64 `json:"accuracy"`
	Seed       int     `json:"seed"`
	VerifiedAt string  `json:"verified_at,omitempty"`
}

// FailedEntry is the persisted form of a failed outcome.
type FailedEntry struct {
	Accuracy float64 `json:"accuracy"`
	Reason   string  `json:"reason"`
	Seed     int     `json:"seed"`
}

type skippedEntry struct {
	Reason string `json:"reason,omitempty"`
}

// Error reports an unreadable or malformed ledger file.
// Fatal for the failing operation only; an absent file is not an error.
type Error struct {
	Path string
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("ledger %s: %v", e.Path, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ledgerFile is the on-disk shape. Field order keeps the top-level keys
// sorted in the serialized output.
type ledgerFile struct {
	Failed   map[string]FailedEntry     `json:"failed"`
	Skipped  map[string]json.RawMessage `json:"skipped"`
	Verified map[string]VerifiedEntry   `json:"verified"`
}

// Ledger holds the in-memory state between Load and Save.
type Ledger struct {
	path     string
	verified map[string]VerifiedEntry
	failed   map[string]FailedEntry
	skipped  map[string]json.RawMessage
	now      func() time.Time
}

// Load reads the ledger at path. An absent file yields an empty ledger.
func Load(path string) (*Ledger, error) {
	l := &Ledger{
		path:     path,
		verified: make(map[string]VerifiedEntry),
		failed:   make(map[string]FailedEntry),
		skipped:  make(map[string]json.RawMessage),
		now:      time.Now,
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return l, nil
	}
	if err != nil {
		return nil, &Error{Path: path, Err: err}
	}

	var f ledgerFile
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, &Error{Path: path, Err: err}
	}
	if f.Verified != nil {
		l.verified = f.Verified
	}
	if f.Failed != nil {
		l.failed = f.Failed
	}
	if f.Skipped != nil {
		l.skipped = f.Skipped
	}
	return l, nil
}

// SetClock overrides the timestamp source used for verified_at entries.
func (l *Ledger) SetClock(now func() time.Time) {
	l.now = now
}

// Path returns the ledger file path.
func (l *Ledger) Path() string {
	return l.path
}

// Record merges one outcome into the ledger.
//
// Verified clears any failed entry for the model. Failed leaves a prior
// verified entry standing. Pending records nothing.
func (l *Ledger) Record(model string, rec Record) {
	switch rec.Status {
	case StatusVerified:
		l.verified[model] = VerifiedEntry{
			Accuracy:   rec.Accuracy,
			Seed:       rec.Seed,
			VerifiedAt: l.now().UTC().Format(time.RFC3339),
		}
		delete(l.failed, model)
	case StatusFailed:
		l.failed[model] = FailedEntry{
			Accuracy: rec.Accuracy,
			Reason:   rec.Reason,
			Seed:     rec.Seed,
		}
	case StatusSkipped:
		raw, err := json.Marshal(skippedEntry{Reason: rec.Reason})
		if err != nil {
			// skippedEntry cannot fail to marshal
			return
		}
		l.skipped[model] = raw
	}
}

// Verified returns a copy of the verified map.
func (l *Ledger) Verified() map[string]VerifiedEntry {
	return maps.Clone(l.verified)
}

// Failed returns a copy of the failed map.
func (l *Ledger) Failed() map[string]FailedEntry {
	return maps.Clone(l.failed)
}

// SkippedModels returns the sorted model names with skipped entries.
func (l *Ledger) SkippedModels() []string {
	names := make([]string, 0, len(l.skipped))
	for name := range l.skipped {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsVerified reports whether the model has a verified entry.
func (l *Ledger) IsVerified(model string) bool {
	_, ok := l.verified[model]
	return ok
}

// IsSkipped reports whether the model has a skipped entry.
func (l *Ledger) IsSkipped(model string) bool {
	_, ok := l.skipped[model]
	return ok
}

// Stale returns the sorted models present in both the verified and failed
// maps: their verified entry predates a failing re-check and stands only
// because failures never clear history.
func (l *Ledger) Stale() []string {
	var names []string
	for name := range l.verified {
		if _, failed := l.failed[name]; failed {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// Save rewrites the ledger file in full, creating parent directories as
// needed. The replace is atomic so a crashed save never truncates the
// previous ledger.
func (l *Ledger) Save() error {
	out := ledgerFile{
		Failed:   l.failed,
		Skipped:  l.skipped,
		Verified: l.verified,
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return &Error{Path: l.path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return &Error{Path: l.path, Err: err}
	}
	if err := writeFileAtomic(l.path, data); err != nil {
		return &Error{Path: l.path, Err: err}
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
