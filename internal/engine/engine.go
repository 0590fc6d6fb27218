// Package engine drives the external generation implementations that
// produce grid artifacts.
//
// Each engine is an external process, either the trusted reference
// implementation or the ported candidate, invoked once per (model, seed)
// pair. Success is judged by the artifact file the process leaves behind,
// not by exit status alone: both implementations run behind build wrappers
// that can exit zero without generating anything.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/voxstudio/gridparity/internal/artifact"
)

// Engine produces the grid artifact for one (model, seed) pair.
//
// Generate returns nil when the artifact exists afterwards, whether it was
// freshly generated or already cached. To force regeneration, invalidate
// the artifact in the store first.
type Engine interface {
	Role() artifact.Role
	Generate(ctx context.Context, model string, seed int) error
}

// Config describes how to invoke an external generation process.
type Config struct {
	// Command is the argv template. Entries may contain the {model} and
	// {seed} placeholders, expanded per generation.
	Command []string

	// Dir is the working directory for the process. Empty inherits the
	// caller's working directory.
	Dir string

	// Env lists KEY=VALUE entries appended to the inherited environment.
	// Values may contain the {model} and {seed} placeholders.
	Env []string

	// Timeout bounds one generation. Zero means no deadline.
	Timeout time.Duration
}

// ProcessEngine runs an external process per generation and verifies the
// artifact it should leave behind.
type ProcessEngine struct {
	role  artifact.Role
	store *artifact.Store
	cfg   Config
}

// NewProcessEngine creates an engine for one role backed by an external
// command.
func NewProcessEngine(role artifact.Role, store *artifact.Store, cfg Config) (*ProcessEngine, error) {
	if len(cfg.Command) == 0 {
		return nil, fmt.Errorf("%s engine: command must not be empty", role)
	}
	return &ProcessEngine{role: role, store: store, cfg: cfg}, nil
}

// Role returns the role this engine generates for.
func (p *ProcessEngine) Role() artifact.Role {
	return p.role
}

// Generate runs the configured process for (model, seed) unless the
// artifact already exists.
func (p *ProcessEngine) Generate(ctx context.Context, model string, seed int) error {
	if p.store.Has(p.role, model, seed) {
		slog.Debug("artifact cached", "engine", p.role, "model", model, "seed", seed)
		return nil
	}
	if err := p.store.EnsureDir(p.role); err != nil {
		return fmt.Errorf("%s engine: %w", p.role, err)
	}

	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	argv := expandAll(p.cfg.Command, model, seed)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = p.cfg.Dir
	cmd.Env = append(os.Environ(), expandAll(p.cfg.Env, model, seed)...)

	// Stdout and Stderr share one writer; os/exec serializes the writes.
	var output tailBuffer
	cmd.Stdout = &output
	cmd.Stderr = &output

	slog.Info("generating artifact", "engine", p.role, "model", model, "seed", seed)
	start := time.Now()
	runErr := cmd.Run()
	if runErr != nil {
		switch {
		case errors.Is(ctx.Err(), context.DeadlineExceeded):
			return NewTimeoutError(p.role, model, seed, p.cfg.Timeout)
		case ctx.Err() != nil:
			return ctx.Err()
		}
	}

	// The artifact decides, not the exit status: a failing wrapper exit
	// with the artifact in place is a success, a clean exit without it is
	// not.
	if !p.store.Has(p.role, model, seed) {
		if runErr != nil {
			return NewProcessError(p.role, model, seed, output.String(), runErr)
		}
		return NewNoArtifactError(p.role, model, seed, p.store.Path(p.role, model, seed), output.String())
	}
	slog.Debug("artifact generated", "engine", p.role, "model", model, "seed", seed, "elapsed", time.Since(start))
	return nil
}

func expand(s, model string, seed int) string {
	r := strings.NewReplacer("{model}", model, "{seed}", strconv.Itoa(seed))
	return r.Replace(s)
}

func expandAll(in []string, model string, seed int) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = expand(s, model, seed)
	}
	return out
}

// tailLimit bounds how much process output is retained for error reports.
const tailLimit = 4096

// tailBuffer keeps the last tailLimit bytes written to it. Generation
// processes can be arbitrarily chatty; only the tail is useful when they
// fail.
type tailBuffer struct {
	buf []byte
}

func (b *tailBuffer) Write(p []byte) (int, error) {
	b.buf = append(b.buf, p...)
	if len(b.buf) > tailLimit {
		b.buf = b.buf[len(b.buf)-tailLimit:]
	}
	return len(p), nil
}

func (b *tailBuffer) String() string {
	return strings.TrimSpace(string(b.buf))
}
