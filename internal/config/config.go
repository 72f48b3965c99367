// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for navshell.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.navshell/config.toml
//   - ~/.navshell/config.json
//   - Built-in defaults
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/jeranaias/navshell/internal/registry"
	"github.com/jeranaias/navshell/internal/util"
)

// CurrentVersion is the config schema version written by this build.
const CurrentVersion = "1"

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete navshell configuration.
type Config struct {
	// General settings
	Version     string `toml:"version" json:"version"`
	DefaultView string `toml:"default_view" json:"default_view"`

	// Views is the registry table, in navigation order.
	Views []ViewConfig `toml:"views" json:"views"`

	Router  RouterConfig  `toml:"router" json:"router"`
	Local   LocalConfig   `toml:"local" json:"local"`
	Storage StorageConfig `toml:"storage" json:"storage"`
	Server  ServerConfig  `toml:"server" json:"server"`
	Login   LoginConfig   `toml:"login" json:"login"`
	UI      UIConfig      `toml:"ui" json:"ui"`
	Log     LogConfig     `toml:"log" json:"log"`
}

// ViewConfig is one [[views]] entry.
type ViewConfig struct {
	Name         string `toml:"name" json:"name"`
	Module       string `toml:"module" json:"module"`
	Label        string `toml:"label,omitempty" json:"label,omitempty"`
	ShowInHeader bool   `toml:"show_in_header" json:"show_in_header"`
}

// RouterConfig controls navigation behavior.
type RouterConfig struct {
	// LocationFile holds the address fragment ("#Name"). Empty keeps the
	// fragment in memory only.
	LocationFile string `toml:"location_file" json:"location_file"`

	// WatchLocation navigates when another process rewrites LocationFile.
	WatchLocation bool `toml:"watch_location" json:"watch_location"`

	// MountTimeoutSecs bounds a single mount. 0 means no timeout.
	MountTimeoutSecs int `toml:"mount_timeout_secs" json:"mount_timeout_secs"`

	// QueueSize is the buffered request queue depth.
	QueueSize int `toml:"queue_size" json:"queue_size"`

	// HistorySize bounds Back() history. 0 disables history.
	HistorySize int `toml:"history_size" json:"history_size"`
}

// LocalConfig contains local model (Ollama) settings.
type LocalConfig struct {
	OllamaURL   string `toml:"ollama_url" json:"ollama_url"`
	OllamaModel string `toml:"ollama_model" json:"ollama_model"`
}

// StorageConfig contains chat history storage settings.
type StorageConfig struct {
	DatabasePath string `toml:"database_path" json:"database_path"`
}

// ServerConfig contains chat proxy server settings.
type ServerConfig struct {
	Port            int      `toml:"port" json:"port"`
	RateLimitPerSec float64  `toml:"rate_limit_per_sec" json:"rate_limit_per_sec"`
	RateBurst       int      `toml:"rate_burst" json:"rate_burst"`
	AllowedOrigins  []string `toml:"allowed_origins" json:"allowed_origins"`
}

// LoginConfig contains the credentials checked by the login view.
// An empty Username disables the login view's check.
type LoginConfig struct {
	Username     string `toml:"username" json:"username"`
	PasswordHash string `toml:"password_hash" json:"password_hash"`
	TOTPSecret   string `toml:"totp_secret" json:"totp_secret"`
}

// UIConfig contains UI preferences.
type UIConfig struct {
	Theme       string `toml:"theme" json:"theme"`
	CompactMode bool   `toml:"compact_mode" json:"compact_mode"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Path    string `toml:"path" json:"path"`
	Verbose bool   `toml:"verbose" json:"verbose"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// DefaultViews returns the built-in view table.
func DefaultViews() []ViewConfig {
	return []ViewConfig{
		{Name: "Home", Module: "views/home", ShowInHeader: true},
		{Name: "About", Module: "views/about", ShowInHeader: true},
		{Name: "Chat", Module: "views/chat", ShowInHeader: true},
		{Name: "History", Module: "views/history", ShowInHeader: true},
		{Name: "Clock", Module: "views/clock", ShowInHeader: true},
		{Name: "Config", Module: "views/config", ShowInHeader: true},
		{Name: "Login", Module: "views/login", ShowInHeader: false},
	}
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version:     CurrentVersion,
		DefaultView: "Home",
		Views:       DefaultViews(),
		Router: RouterConfig{
			LocationFile:     "~/.navshell/location",
			WatchLocation:    true,
			MountTimeoutSecs: 0,
			QueueSize:        16,
			HistorySize:      32,
		},
		Local: LocalConfig{
			OllamaURL:   "http://127.0.0.1:11434",
			OllamaModel: "qwen2.5-coder:7b",
		},
		Storage: StorageConfig{
			DatabasePath: "~/.navshell/history.db",
		},
		Server: ServerConfig{
			Port:            8787,
			RateLimitPerSec: 5,
			RateBurst:       10,
			AllowedOrigins:  []string{"http://localhost", "http://127.0.0.1"},
		},
		UI: UIConfig{
			Theme: "auto",
		},
		Log: LogConfig{
			Path: "~/.navshell/navshell.log",
		},
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the navshell configuration directory path.
func ConfigDir() (string, error) {
	return util.HomePath()
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	return util.HomePath("config.toml")
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	return util.HomePath("config.json")
}

// ensureSecurePermissions checks and fixes permissions on config files.
// SECURITY: Config files hold the login hash and TOTP secret.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the default locations.
// TOML wins over JSON; if neither exists the defaults are used. Environment
// overrides are applied last. A file that exists but fails to parse is
// reported together with the defaults so the caller can warn and continue.
func Load() (*Config, error) {
	var loadErr error

	for _, candidate := range []func() (string, error){ConfigPathTOML, ConfigPathJSON} {
		path, err := candidate()
		if err != nil {
			continue
		}
		if _, statErr := os.Stat(path); statErr != nil {
			continue
		}
		cfg, err := LoadFromPath(path)
		if err == nil {
			return cfg, nil
		}
		loadErr = err
		break
	}

	cfg := Default()
	cfg.ApplyEnvOverrides()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// LoadFromPath loads configuration from a specific file path with full validation.
// Files ending in ".json" are decoded as JSON, everything else as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	if err := cfg.finish(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// finish runs migration, defaults and validation in that order.
func (c *Config) finish() error {
	if err := c.Migrate(); err != nil {
		return fmt.Errorf("config migration failed: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	md, err := toml.DecodeFile(path, cfg)
	if err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, 0, len(undecoded))
		for _, k := range undecoded {
			keys = append(keys, k.String())
		}
		fmt.Fprintf(os.Stderr, "Warning: unknown config keys in %s: %s\n", path, strings.Join(keys, ", "))
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
// SECURITY: Checks and fixes file permissions on load.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// EncodeTOML renders cfg as a commented TOML document.
func EncodeTOML(cfg *Config) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# navshell configuration file\n")
	buf.WriteString("# Generated by navshell - edit with care\n")
	buf.WriteString("#\n")
	buf.WriteString("# Views are listed in navigation order. default_view must name one of them.\n\n")

	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return buf.Bytes(), nil
}

// SaveTOML saves the configuration to a TOML file.
// SECURITY: Config files are written 0600 (owner read/write only).
// RELIABILITY: Atomic write with fsync prevents a half-written config
func SaveTOML(cfg *Config, path string) error {
	data, err := EncodeTOML(cfg)
	if err != nil {
		return err
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file.
// SECURITY: Config files are written 0600 (owner read/write only).
func SaveJSON(cfg *Config, path string) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	msgs := make([]string, 0, len(e))
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors as ValidateErrors.
func (c *Config) Validate() error {
	var errs ValidateErrors
	add := func(field, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: field, Message: fmt.Sprintf(format, args...)})
	}

	// ==========================================================================
	// Views
	// ==========================================================================

	if len(c.Views) == 0 {
		add("views", "at least one view must be configured")
	}
	seen := make(map[string]bool, len(c.Views))
	for i, v := range c.Views {
		field := fmt.Sprintf("views[%d]", i)
		name := strings.TrimSpace(v.Name)
		if name == "" {
			add(field+".name", "must not be empty")
			continue
		}
		if strings.ContainsAny(name, "# \t\r\n") {
			add(field+".name", "'%s' must not contain '#' or whitespace", name)
		}
		if seen[name] {
			add(field+".name", "duplicate view name '%s'", name)
		}
		seen[name] = true
	}
	if c.DefaultView != "" && len(c.Views) > 0 && !seen[c.DefaultView] {
		add("default_view", "'%s' is not a configured view", c.DefaultView)
	}

	// ==========================================================================
	// Router
	// ==========================================================================

	if c.Router.MountTimeoutSecs < 0 {
		add("router.mount_timeout_secs", "must be >= 0, got %d", c.Router.MountTimeoutSecs)
	}
	if c.Router.QueueSize < 1 || c.Router.QueueSize > 1024 {
		add("router.queue_size", "must be between 1 and 1024, got %d", c.Router.QueueSize)
	}
	if c.Router.HistorySize < 0 {
		add("router.history_size", "must be >= 0, got %d", c.Router.HistorySize)
	}
	if c.Router.WatchLocation && c.Router.LocationFile == "" {
		add("router.watch_location", "requires router.location_file")
	}

	// ==========================================================================
	// Local model
	// ==========================================================================

	if c.Local.OllamaURL != "" {
		u, err := url.Parse(c.Local.OllamaURL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			add("local.ollama_url", "invalid URL '%s'", c.Local.OllamaURL)
		}
	}

	// ==========================================================================
	// Server
	// ==========================================================================

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		add("server.port", "must be between 1 and 65535, got %d", c.Server.Port)
	}
	if c.Server.RateLimitPerSec < 0 {
		add("server.rate_limit_per_sec", "must be >= 0, got %g", c.Server.RateLimitPerSec)
	}
	if c.Server.RateBurst < 0 {
		add("server.rate_burst", "must be >= 0, got %d", c.Server.RateBurst)
	}

	// ==========================================================================
	// Login
	// ==========================================================================

	if c.Login.PasswordHash != "" && !strings.HasPrefix(c.Login.PasswordHash, "$2") {
		add("login.password_hash", "must be a bcrypt hash")
	}
	if (c.Login.PasswordHash != "" || c.Login.TOTPSecret != "") && c.Login.Username == "" {
		add("login.username", "required when a password hash or TOTP secret is set")
	}

	// ==========================================================================
	// UI
	// ==========================================================================

	switch strings.ToLower(c.UI.Theme) {
	case "auto", "dark", "light":
	default:
		add("ui.theme", "invalid theme '%s', must be one of: auto, dark, light", c.UI.Theme)
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Views are only defaulted when
// none are configured at all; a partial table is taken as intentional.
func (c *Config) SetDefaults() {
	d := Default()

	if c.Version == "" {
		c.Version = d.Version
	}
	if len(c.Views) == 0 {
		c.Views = d.Views
	}
	for i := range c.Views {
		c.Views[i].Name = strings.TrimSpace(c.Views[i].Name)
		if c.Views[i].Module == "" && c.Views[i].Name != "" {
			c.Views[i].Module = "views/" + strings.ToLower(c.Views[i].Name)
		}
	}
	if c.DefaultView == "" && len(c.Views) > 0 {
		c.DefaultView = c.Views[0].Name
	}

	if c.Router.QueueSize == 0 {
		c.Router.QueueSize = d.Router.QueueSize
	}
	if c.Local.OllamaURL == "" {
		c.Local.OllamaURL = d.Local.OllamaURL
	}
	if c.Local.OllamaModel == "" {
		c.Local.OllamaModel = d.Local.OllamaModel
	}
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = d.Storage.DatabasePath
	}
	if c.Server.Port == 0 {
		c.Server.Port = d.Server.Port
	}
	if c.UI.Theme == "" {
		c.UI.Theme = d.UI.Theme
	}
}

// Migrate upgrades older config files in place.
func (c *Config) Migrate() error {
	switch c.Version {
	case "", "0":
		// Pre-versioned files listed views without module paths.
		c.Version = CurrentVersion
	case CurrentVersion:
	default:
		return fmt.Errorf("unsupported config version %q (this build understands %q)", c.Version, CurrentVersion)
	}
	return nil
}

// =============================================================================
// DERIVED VALUES
// =============================================================================

// Registry builds the immutable view registry from the [[views]] table.
func (c *Config) Registry() (*registry.Registry, error) {
	descs := make([]registry.Descriptor, 0, len(c.Views))
	for _, v := range c.Views {
		descs = append(descs, registry.Descriptor{
			Name:         v.Name,
			ModulePath:   v.Module,
			Label:        v.Label,
			ShowInHeader: v.ShowInHeader,
		})
	}
	return registry.New(c.DefaultView, descs)
}

// MountTimeout returns the per-mount timeout, 0 meaning none.
func (c *Config) MountTimeout() time.Duration {
	return time.Duration(c.Router.MountTimeoutSecs) * time.Second
}

// LocationPath returns the expanded location file path, or "" when the
// fragment is memory-only.
func (c *Config) LocationPath() string {
	return util.ExpandHome(c.Router.LocationFile)
}

// DatabasePath returns the expanded chat history database path.
func (c *Config) DatabasePath() string {
	return util.ExpandHome(c.Storage.DatabasePath)
}

// LogPath returns the expanded log file path.
func (c *Config) LogPath() string {
	return util.ExpandHome(c.Log.Path)
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - NAVSHELL_DEFAULT_VIEW: overrides default_view
//   - NAVSHELL_OLLAMA_URL: overrides local.ollama_url
//   - NAVSHELL_MODEL: overrides local.ollama_model
//   - NAVSHELL_DB: overrides storage.database_path
//   - NAVSHELL_LOCATION: overrides router.location_file
//   - NAVSHELL_PORT: overrides server.port
//   - NAVSHELL_LOG: overrides log.path
//   - NAVSHELL_VERBOSE: set to "1" or "true" to enable verbose logging
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("NAVSHELL_DEFAULT_VIEW"); v != "" {
		c.DefaultView = v
	}
	if v := os.Getenv("NAVSHELL_OLLAMA_URL"); v != "" {
		c.Local.OllamaURL = v
	}
	if v := os.Getenv("NAVSHELL_MODEL"); v != "" {
		c.Local.OllamaModel = v
	}
	if v := os.Getenv("NAVSHELL_DB"); v != "" {
		c.Storage.DatabasePath = v
	}
	if v, ok := os.LookupEnv("NAVSHELL_LOCATION"); ok {
		c.Router.LocationFile = v
		if v == "" {
			c.Router.WatchLocation = false
		}
	}
	if v := os.Getenv("NAVSHELL_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Server.Port = port
		}
	}
	if v := os.Getenv("NAVSHELL_LOG"); v != "" {
		c.Log.Path = v
	}
	if v := os.Getenv("NAVSHELL_VERBOSE"); v != "" {
		c.Log.Verbose = v == "1" || strings.EqualFold(v, "true")
	}
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// Get retrieves a configuration value using dot notation (e.g., "router.queue_size").
func (c *Config) Get(key string) (interface{}, error) {
	field, err := c.lookupField(key)
	if err != nil {
		return nil, err
	}
	return field.Interface(), nil
}

// Set sets a configuration value using dot notation. String values are
// converted to the field's kind.
func (c *Config) Set(key string, value interface{}) error {
	field, err := c.lookupField(key)
	if err != nil {
		return err
	}
	if !field.CanSet() {
		return fmt.Errorf("cannot set field: %s", key)
	}
	return setFieldValue(field, value)
}

func (c *Config) lookupField(key string) (reflect.Value, error) {
	if strings.TrimSpace(key) == "" {
		return reflect.Value{}, errors.New("empty key")
	}
	parts := strings.Split(key, ".")

	v := reflect.ValueOf(c).Elem()
	for i, part := range parts {
		fieldName := normalizeFieldName(part)
		field := v.FieldByNameFunc(func(name string) bool {
			return strings.EqualFold(name, fieldName)
		})
		if !field.IsValid() {
			return reflect.Value{}, fmt.Errorf("unknown field: %s", strings.Join(parts[:i+1], "."))
		}
		if i == len(parts)-1 {
			return field, nil
		}
		if field.Kind() != reflect.Struct {
			return reflect.Value{}, fmt.Errorf("field '%s' is not a struct", strings.Join(parts[:i+1], "."))
		}
		v = field
	}
	return reflect.Value{}, fmt.Errorf("invalid key: %s", key)
}

// normalizeFieldName converts a snake_case or kebab-case name to its Go field
// equivalent. "totp_secret" becomes "TotpSecret", which still matches
// TOTPSecret because lookups are case-insensitive.
func normalizeFieldName(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-'
	})

	var result strings.Builder
	for _, part := range parts {
		result.WriteString(strings.ToUpper(part[:1]))
		result.WriteString(strings.ToLower(part[1:]))
	}
	return result.String()
}

// setFieldValue sets a reflect.Value from an interface{} value with type conversion.
func setFieldValue(field reflect.Value, value interface{}) error {
	if strVal, ok := value.(string); ok {
		switch field.Kind() {
		case reflect.String:
			field.SetString(strVal)
			return nil
		case reflect.Int, reflect.Int64:
			intVal, err := strconv.ParseInt(strVal, 10, 64)
			if err != nil {
				return fmt.Errorf("invalid integer value: %v", err)
			}
			field.SetInt(intVal)
			return nil
		case reflect.Float64:
			floatVal, err := strconv.ParseFloat(strVal, 64)
			if err != nil {
				return fmt.Errorf("invalid float value: %v", err)
			}
			field.SetFloat(floatVal)
			return nil
		case reflect.Bool:
			lower := strings.ToLower(strVal)
			field.SetBool(lower == "1" || lower == "true" || lower == "yes")
			return nil
		case reflect.Slice:
			if field.Type().Elem().Kind() == reflect.String {
				var items []string
				for _, s := range strings.Split(strVal, ",") {
					if s = strings.TrimSpace(s); s != "" {
						items = append(items, s)
					}
				}
				field.Set(reflect.ValueOf(items))
				return nil
			}
		}
	}

	val := reflect.ValueOf(value)
	if !val.IsValid() {
		return fmt.Errorf("cannot assign nil to %s", field.Type())
	}
	if val.Type().AssignableTo(field.Type()) {
		field.Set(val)
		return nil
	}
	if val.Type().ConvertibleTo(field.Type()) {
		field.Set(val.Convert(field.Type()))
		return nil
	}
	return fmt.Errorf("cannot assign %T to %s", value, field.Type())
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// GetAllKeys returns all scalar configuration keys in dot notation.
func GetAllKeys() []string {
	return []string{
		"version",
		"default_view",
		"router.location_file",
		"router.watch_location",
		"router.mount_timeout_secs",
		"router.queue_size",
		"router.history_size",
		"local.ollama_url",
		"local.ollama_model",
		"storage.database_path",
		"server.port",
		"server.rate_limit_per_sec",
		"server.rate_burst",
		"server.allowed_origins",
		"login.username",
		"login.password_hash",
		"login.totp_secret",
		"ui.theme",
		"ui.compact_mode",
		"log.path",
		"log.verbose",
	}
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	clone.Views = append([]ViewConfig(nil), c.Views...)
	clone.Server.AllowedOrigins = append([]string(nil), c.Server.AllowedOrigins...)
	return &clone
}

// Redacted returns a copy with secrets replaced, for display and logging.
func (c *Config) Redacted() *Config {
	safe := c.Clone()
	if safe.Login.PasswordHash != "" {
		safe.Login.PasswordHash = "[REDACTED]"
	}
	if safe.Login.TOTPSecret != "" {
		safe.Login.TOTPSecret = "[REDACTED]"
	}
	return safe
}

// String returns a JSON representation of the config for debugging.
// SECURITY: Login secrets are redacted.
func (c *Config) String() string {
	data, _ := json.MarshalIndent(c.Redacted(), "", "  ")
	return string(data)
}

// EnsureDirs creates the parent directories of every file path the config
// names.
func (c *Config) EnsureDirs() error {
	for _, p := range []string{c.LocationPath(), c.DatabasePath(), c.LogPath()} {
		if p == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
			return fmt.Errorf("failed to create %s: %w", filepath.Dir(p), err)
		}
	}
	return nil
}
