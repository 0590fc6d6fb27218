// Package config loads harness configuration from CUE.
//
// The schema and its defaults are embedded; a user file only states what
// differs from the standard repository layout. User files are unified
// against the schema definition, so unknown fields and type mismatches
// are rejected with positions instead of being silently ignored.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"time"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/token"
)

// DefaultPath is the config file looked for when none is given.
const DefaultPath = "gridparity.cue"

//go:embed defaults.cue
var defaultsCUE []byte

// Config is the fully resolved harness configuration.
type Config struct {
	Manifest string
	Ledger   string
	History  string
	Seed     int
	Timeout  time.Duration
	Jobs     int

	Reference Engine
	Candidate Engine

	Skip Skip
}

// Engine describes how to invoke one generation implementation.
type Engine struct {
	Command   []string
	Dir       string
	Env       []string
	Artifacts string
}

// Skip lists models excluded from batch runs and coverage totals.
type Skip struct {
	Unsupported []string
	TestOnly    []string
}

// Excluded reports whether model appears in either skip list.
func (s Skip) Excluded(model string) bool {
	return s.IsUnsupported(model) || s.IsTestOnly(model)
}

// IsUnsupported reports whether model is known not to work yet.
func (s Skip) IsUnsupported(model string) bool {
	return slices.Contains(s.Unsupported, model)
}

// IsTestOnly reports whether model exists only for unit tests.
func (s Skip) IsTestOnly(model string) bool {
	return slices.Contains(s.TestOnly, model)
}

// Error represents an invalid configuration value.
type Error struct {
	Field   string    // dotted path into the config, when known
	Message string
	Pos     token.Pos // CUE source position if available
}

func (e *Error) Error() string {
	switch {
	case e.Pos.IsValid() && e.Field != "":
		return fmt.Sprintf("%s:%d:%d: config %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Field, e.Message)
	case e.Field != "":
		return fmt.Sprintf("config %s: %s", e.Field, e.Message)
	default:
		return fmt.Sprintf("config: %s", e.Message)
	}
}

// Load reads the configuration at path, unified with the built-in schema
// and defaults.
//
// An empty path means DefaultPath, and a missing DefaultPath is not an
// error: the defaults alone describe the standard layout. Any other
// missing path is reported.
func Load(path string) (*Config, error) {
	explicit := path != "" && path != DefaultPath
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		data = nil
	} else if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}

	ctx := cuecontext.New()
	schema := ctx.CompileBytes(defaultsCUE, cue.Filename("defaults.cue"))
	if err := schema.Err(); err != nil {
		return nil, fmt.Errorf("built-in config schema: %w", err)
	}
	merged := schema.LookupPath(cue.ParsePath("#Config"))

	if len(data) > 0 {
		user := ctx.CompileBytes(data, cue.Filename(path))
		if err := user.Err(); err != nil {
			return nil, &Error{Message: fmt.Sprintf("parsing %s: %v", path, err)}
		}
		merged = merged.Unify(user)
	}
	if err := merged.Err(); err != nil {
		return nil, &Error{Message: err.Error()}
	}
	if err := merged.Validate(cue.Concrete(true)); err != nil {
		return nil, &Error{Message: err.Error()}
	}

	return decode(merged)
}

func decode(v cue.Value) (*Config, error) {
	var cfg Config
	var err error

	if cfg.Manifest, err = stringField(v, "manifest"); err != nil {
		return nil, err
	}
	if cfg.Ledger, err = stringField(v, "ledger"); err != nil {
		return nil, err
	}
	if cfg.History, err = stringField(v, "history"); err != nil {
		return nil, err
	}
	if cfg.Seed, err = intField(v, "seed"); err != nil {
		return nil, err
	}
	if cfg.Jobs, err = intField(v, "jobs"); err != nil {
		return nil, err
	}

	raw, err := stringField(v, "timeout")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = time.ParseDuration(raw)
	if err != nil {
		return nil, &Error{Field: "timeout", Message: fmt.Sprintf("invalid duration %q", raw)}
	}
	if cfg.Timeout < 0 {
		return nil, &Error{Field: "timeout", Message: "must not be negative"}
	}

	if cfg.Reference, err = engineSection(v, "reference"); err != nil {
		return nil, err
	}
	if cfg.Candidate, err = engineSection(v, "candidate"); err != nil {
		return nil, err
	}

	if cfg.Skip.Unsupported, err = stringsField(v, "skip.unsupported"); err != nil {
		return nil, err
	}
	if cfg.Skip.TestOnly, err = stringsField(v, "skip.testOnly"); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func engineSection(v cue.Value, name string) (Engine, error) {
	var ec Engine
	var err error

	if ec.Command, err = stringsField(v, name+".command"); err != nil {
		return ec, err
	}
	if ec.Dir, err = stringField(v, name+".dir"); err != nil {
		return ec, err
	}
	if ec.Env, err = stringsField(v, name+".env"); err != nil {
		return ec, err
	}
	if ec.Artifacts, err = stringField(v, name+".artifacts"); err != nil {
		return ec, err
	}
	return ec, nil
}

func stringField(v cue.Value, path string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return "", &Error{Field: path, Message: "missing"}
	}
	s, err := fv.String()
	if err != nil {
		return "", &Error{Field: path, Message: err.Error(), Pos: fv.Pos()}
	}
	return s, nil
}

func intField(v cue.Value, path string) (int, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return 0, &Error{Field: path, Message: "missing"}
	}
	i, err := fv.Int64()
	if err != nil {
		return 0, &Error{Field: path, Message: err.Error(), Pos: fv.Pos()}
	}
	return int(i), nil
}

func stringsField(v cue.Value, path string) ([]string, error) {
	fv := v.LookupPath(cue.ParsePath(path))
	if !fv.Exists() {
		return nil, &Error{Field: path, Message: "missing"}
	}
	iter, err := fv.List()
	if err != nil {
		return nil, &Error{Field: path, Message: err.Error(), Pos: fv.Pos()}
	}
	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, &Error{Field: path, Message: err.Error(), Pos: iter.Value().Pos()}
		}
		out = append(out, s)
	}
	return out, nil
}
