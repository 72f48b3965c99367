// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// app.go - Wiring shared by every host: config, logging, registry, history
// store, Ollama client and router construction.
package cli

import (
	"fmt"
	"io"
	"log"
	"os"

	"github.com/jeranaias/navshell/internal/config"
	"github.com/jeranaias/navshell/internal/logging"
	"github.com/jeranaias/navshell/internal/nav"
	"github.com/jeranaias/navshell/internal/ollama"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/storage"
	"github.com/jeranaias/navshell/internal/view"
	"github.com/jeranaias/navshell/internal/views"
)

// LoadConfig loads the configuration named by --config, or the default
// locations. A broken config file in a default location is reported on
// stderr and the defaults are used.
func LoadConfig(args Args) (*config.Config, error) {
	var cfg *config.Config
	var err error
	if args.ConfigPath != "" {
		cfg, err = config.LoadFromPath(args.ConfigPath)
		if err != nil {
			return nil, err
		}
	} else {
		cfg, err = config.Load()
		if cfg == nil {
			return nil, err
		}
		if err != nil {
			fmt.Fprintln(os.Stderr, Warning(fmt.Sprintf("%v (using defaults)", err)))
		}
	}
	if args.Verbose {
		cfg.Log.Verbose = true
	}
	return cfg, nil
}

// ConfigFilePath is where config init/set write: --config, or the default
// TOML path.
func ConfigFilePath(args Args) (string, error) {
	if args.ConfigPath != "" {
		return args.ConfigPath, nil
	}
	return config.ConfigPathTOML()
}

// =============================================================================
// APP
// =============================================================================

// App holds the components a host needs. Build it with NewApp and Close it
// after the router has shut down.
type App struct {
	Config   *config.Config
	Registry *registry.Registry
	Logger   *log.Logger

	args    Args
	store   *storage.Store
	chat    *ollama.Client
	closers []io.Closer
}

// NewApp loads config, opens the log file and builds the view registry.
// With stderr set and verbose logging on, log lines are mirrored to stderr.
func NewApp(args Args, stderr bool) (*App, error) {
	cfg, err := LoadConfig(args)
	if err != nil {
		return nil, err
	}
	reg, err := cfg.Registry()
	if err != nil {
		return nil, fmt.Errorf("view registry: %w", err)
	}

	logger, closer, err := logging.Open(cfg.LogPath(), "")
	if err != nil {
		// A read-only home directory should not stop the shell.
		fmt.Fprintln(os.Stderr, Warning(err.Error()))
		logger, closer = logging.Discard, io.NopCloser(nil)
	}
	if stderr && cfg.Log.Verbose {
		logger = log.New(io.MultiWriter(logger.Writer(), os.Stderr), logger.Prefix(), logging.Flags)
	}

	app := &App{
		Config:   cfg,
		Registry: reg,
		Logger:   logger,
		args:     args,
		closers:  []io.Closer{closer},
	}
	logger.Printf("[App] navshell %s starting views=%d default=%s", Version, reg.Len(), reg.DefaultViewName())
	return app, nil
}

// Chat returns the Ollama client, creating it on first use.
func (a *App) Chat() *ollama.Client {
	if a.chat == nil {
		a.chat = ollama.NewClientWithConfig(&ollama.ClientConfig{
			BaseURL:      a.Config.Local.OllamaURL,
			DefaultModel: a.Config.Local.OllamaModel,
		})
	}
	return a.chat
}

// Store opens the chat history database on first use.
func (a *App) Store() (*storage.Store, error) {
	if a.store != nil {
		return a.store, nil
	}
	path := a.Config.DatabasePath()
	if path == "" {
		return nil, fmt.Errorf("storage.database_path is not set")
	}
	st, err := storage.Open(path)
	if err != nil {
		return nil, err
	}
	a.store = st
	a.closers = append(a.closers, st)
	return st, nil
}

// Fragment returns the location fragment hosts navigate through: the
// location file when one is configured, memory otherwise. The file is only
// watched when router.watch_location is set.
func (a *App) Fragment() nav.Fragment {
	path := a.Config.LocationPath()
	if path == "" {
		return nav.NewMemoryFragment("")
	}
	f := nav.NewFileFragment(path, a.Logger)
	if !a.Config.Router.WatchLocation {
		return unwatched{f}
	}
	return f
}

// unwatched hides FragmentWatcher so the router never follows the file.
type unwatched struct {
	nav.Fragment
}

// Catalog builds the view catalog. The history store is optional; views
// that need it fail to mount when it could not be opened.
func (a *App) Catalog(glamourStyle string) *view.Catalog {
	deps := views.Deps{
		Config:       a.Config,
		Registry:     a.Registry,
		Chat:         a.Chat(),
		Version:      Version,
		GlamourStyle: glamourStyle,
		Logger:       a.Logger,
	}
	if st, err := a.Store(); err != nil {
		a.Logger.Printf("[App] history disabled: %v", err)
	} else {
		deps.Store = st
	}
	return views.NewCatalog(deps)
}

// CheckStartView rejects a start view that is not registered but is close
// to a command word, so "navshell serv" reports the typo instead of opening
// the default view.
func (a *App) CheckStartView() error {
	if a.args.View == "" || a.Registry.Has(nav.ParseFragment(a.args.View)) {
		return nil
	}
	if s := SuggestCommand(a.args.View); s != "" {
		return badArgs("unknown command or view %q (did you mean %s?)", a.args.View, s)
	}
	return nil
}

// NewRouter builds a router rendering into mp. --view, when given, replaces
// the stored location before the router starts.
func (a *App) NewRouter(mp view.MountPoint, glamourStyle string) (*nav.Router, error) {
	frag := a.Fragment()
	if a.args.View != "" {
		if err := frag.Set(a.args.View); err != nil {
			a.Logger.Printf("[App] set start view: %v", err)
		}
	}
	return nav.New(nav.Options{
		Registry:     a.Registry,
		Loader:       a.Catalog(glamourStyle),
		MountPoint:   mp,
		Fragment:     frag,
		Logger:       a.Logger,
		MountTimeout: a.Config.MountTimeout(),
		QueueSize:    a.Config.Router.QueueSize,
		HistorySize:  a.Config.Router.HistorySize,
	})
}

// Close releases the store and the log file, in reverse order of opening.
func (a *App) Close() error {
	var first error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	a.closers = nil
	a.store = nil
	return first
}
