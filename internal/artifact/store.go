package artifact

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ErrNotFound reports an absent artifact. Match with errors.Is.
var ErrNotFound = errors.New("artifact not found")

// Store caches artifacts on disk, one JSON file per (model, seed, engine).
//
// Each engine role has its own directory; file presence is the sole
// existence check. The store performs no generation and no locking:
// a single harness run schedules each (model, seed, engine) at most once,
// and concurrent harness runs are unsupported.
type Store struct {
	dirs map[Role]string
}

// NewStore creates a store over the two per-engine artifact directories.
func NewStore(referenceDir, candidateDir string) *Store {
	return &Store{dirs: map[Role]string{
		RoleReference: referenceDir,
		RoleCandidate: candidateDir,
	}}
}

// Dir returns the artifact directory for a role.
func (s *Store) Dir(role Role) string {
	return s.dirs[role]
}

// Path returns the artifact file path for a (model, seed, engine) tuple.
func (s *Store) Path(role Role, model string, seed int) string {
	return filepath.Join(s.dirs[role], fmt.Sprintf("%s_seed%d.json", model, seed))
}

// Has reports whether the artifact file exists.
func (s *Store) Has(role Role, model string, seed int) bool {
	_, err := os.Stat(s.Path(role, model, seed))
	return err == nil
}

// EnsureDir creates the role's artifact directory if needed.
// Adapters call this before invoking an engine that writes into it.
func (s *Store) EnsureDir(role Role) error {
	if err := os.MkdirAll(s.dirs[role], 0o755); err != nil {
		return fmt.Errorf("create artifact dir: %w", err)
	}
	return nil
}

// Get loads and decodes an artifact.
// Returns an error matching ErrNotFound when the file is absent.
func (s *Store) Get(role Role, model string, seed int) (*Grid, error) {
	path := s.Path(role, model, seed)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFound)
		}
		return nil, fmt.Errorf("read artifact %s: %w", path, err)
	}
	g, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("artifact %s: %w", path, err)
	}
	return g, nil
}

// Put encodes and writes an artifact atomically (temp file + rename),
// creating the role's directory if needed.
func (s *Store) Put(role Role, model string, seed int, g *Grid) error {
	if err := s.EnsureDir(role); err != nil {
		return err
	}
	data, err := g.Encode()
	if err != nil {
		return err
	}
	path := s.Path(role, model, seed)
	if err := writeFileAtomic(path, data); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}

// Invalidate removes an artifact. Idempotent: absent files are a no-op.
func (s *Store) Invalidate(role Role, model string, seed int) error {
	err := os.Remove(s.Path(role, model, seed))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("invalidate artifact: %w", err)
	}
	return nil
}

// writeFileAtomic writes data to path via a temp file in the same
// directory followed by a rename, so readers never observe a partial file.
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
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
