package cli

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/voxstudio/gridparity/internal/artifact"
	"github.com/voxstudio/gridparity/internal/catalog"
	"github.com/voxstudio/gridparity/internal/config"
	"github.com/voxstudio/gridparity/internal/engine"
	"github.com/voxstudio/gridparity/internal/history"
	"github.com/voxstudio/gridparity/internal/ledger"
)

// loadConfig resolves the effective configuration for a command invocation.
func loadConfig(opts *RootOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load config", err)
	}
	return cfg, nil
}

// loadCatalog reads the model manifest named by the config. A manifest
// problem aborts the whole command.
func loadCatalog(cfg *config.Config) ([]catalog.Model, error) {
	models, err := catalog.Load(cfg.Manifest)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load model catalog", err)
	}
	return models, nil
}

// loadLedger reads the status ledger named by the config. An absent
// ledger file loads as empty, so this only fails on unreadable or
// malformed content.
func loadLedger(cfg *config.Config) (*ledger.Ledger, error) {
	led, err := ledger.Load(cfg.Ledger)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to load status ledger", err)
	}
	return led, nil
}

// newStore builds the artifact store over the configured engine output
// directories.
func newStore(cfg *config.Config) *artifact.Store {
	return artifact.NewStore(cfg.Reference.Artifacts, cfg.Candidate.Artifacts)
}

// newEngine builds one process-backed generation adapter.
func newEngine(role artifact.Role, store *artifact.Store, ecfg config.Engine, timeout time.Duration) (engine.Engine, error) {
	eng, err := engine.NewProcessEngine(role, store, engine.Config{
		Command: ecfg.Command,
		Dir:     ecfg.Dir,
		Env:     ecfg.Env,
		Timeout: timeout,
	})
	if err != nil {
		return nil, WrapExitError(ExitCommandError, fmt.Sprintf("invalid %s engine config", role), err)
	}
	return eng, nil
}

// openHistory opens the run history database, or returns nil when
// history is disabled by an empty path.
func openHistory(cfg *config.Config) (*history.Store, error) {
	if cfg.History == "" {
		return nil, nil
	}
	hist, err := history.Open(cfg.History)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "failed to open run history", err)
	}
	return hist, nil
}

// closeHistory logs instead of failing: by the time a command closes
// the history store its results are already persisted.
func closeHistory(hist *history.Store) {
	if hist == nil {
		return
	}
	if err := hist.Close(); err != nil {
		slog.Error("error closing run history", "error", err)
	}
}
