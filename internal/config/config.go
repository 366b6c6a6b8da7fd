// Package config provides the Config struct and loader for .intervu.yaml
// client configuration files plus environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Default values for client configuration. These are the single source of
// truth; New() references them and no other code should duplicate them.
const (
	DefaultBackendURL = "http://localhost:3000"
	DefaultEditorURL  = "https://editor.intervu.dev"

	DefaultBridgeAddr = "127.0.0.1:0"

	DefaultDebounceMs          = 800
	DefaultHandshakeAttempts   = 6
	DefaultHandshakeIntervalMs = 400
	DefaultGraceDelaySec       = 3

	DefaultResultsDir = "interviews/"

	DefaultSpeechVoice = "en-US"
)

// BackendConfig holds settings for the interview backend API.
type BackendConfig struct {
	URL string `yaml:"url,omitempty"`
}

// EditorConfig holds settings for the embedded code editor bridge.
type EditorConfig struct {
	URL                 string   `yaml:"url,omitempty"`
	Origins             []string `yaml:"origins,omitempty"`
	BridgeAddr          string   `yaml:"bridge_addr,omitempty"`
	HandshakeAttempts   int      `yaml:"handshake_attempts,omitempty"`
	HandshakeIntervalMs int      `yaml:"handshake_interval_ms,omitempty"`
}

// SpeechConfig holds speech input/output settings. SpeakCmd and ListenCmd
// are external program invocations; the text to speak is appended to
// SpeakCmd, and ListenCmd is expected to print one final utterance per line.
type SpeechConfig struct {
	Enabled   *bool    `yaml:"enabled,omitempty"`
	Voice     string   `yaml:"voice,omitempty"`
	SpeakCmd  []string `yaml:"speak_cmd,omitempty"`
	ListenCmd []string `yaml:"listen_cmd,omitempty"`
}

// ComposerConfig holds message composition settings.
type ComposerConfig struct {
	DebounceMs int `yaml:"debounce_ms,omitempty"`
}

// TimingConfig holds session timing settings.
type TimingConfig struct {
	GraceDelaySec int `yaml:"grace_delay_sec,omitempty"`
}

// PathsConfig holds directory paths for saved transcripts and event logs.
type PathsConfig struct {
	Results    string `yaml:"results,omitempty"`
	SessionLog string `yaml:"session_log,omitempty"`
}

// Config is the top-level configuration loaded from .intervu.yaml.
type Config struct {
	Backend  BackendConfig  `yaml:"backend,omitempty"`
	Editor   EditorConfig   `yaml:"editor,omitempty"`
	Speech   SpeechConfig   `yaml:"speech,omitempty"`
	Composer ComposerConfig `yaml:"composer,omitempty"`
	Timing   TimingConfig   `yaml:"timing,omitempty"`
	Paths    PathsConfig    `yaml:"paths,omitempty"`
}

// New returns a Config with all hard-coded defaults populated.
func New() *Config {
	return &Config{
		Backend: BackendConfig{
			URL: DefaultBackendURL,
		},
		Editor: EditorConfig{
			URL:                 DefaultEditorURL,
			BridgeAddr:          DefaultBridgeAddr,
			HandshakeAttempts:   DefaultHandshakeAttempts,
			HandshakeIntervalMs: DefaultHandshakeIntervalMs,
		},
		Speech: SpeechConfig{
			Enabled: boolPtr(true),
			Voice:   DefaultSpeechVoice,
		},
		Composer: ComposerConfig{
			DebounceMs: DefaultDebounceMs,
		},
		Timing: TimingConfig{
			GraceDelaySec: DefaultGraceDelaySec,
		},
		Paths: PathsConfig{
			Results: DefaultResultsDir,
		},
	}
}

// Load reads .intervu.yaml from startDir (walking up, max 10 levels), loads
// a .env file if one exists beside it, and applies INTERVU_* environment
// overrides on top. A missing config file is not an error, defaults apply.
func Load(startDir string) (*Config, error) {
	cfg := New()

	// A .env next to the config is a development convenience; ignore absence.
	_ = godotenv.Load(filepath.Join(startDir, ".env"))

	data, err := findConfigFile(startDir)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("loading .intervu.yaml: %w", err)
		}
	} else {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing .intervu.yaml: %w", err)
		}
		merge(cfg, &fileCfg)
	}

	applyEnv(cfg)
	return cfg, nil
}

// findConfigFile walks up from dir looking for .intervu.yaml (max 10 levels).
// Returns os.ErrNotExist if no config file is found. Propagates real I/O
// errors (e.g. permission denied) instead of silently swallowing them.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, ".intervu.yaml")
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break // reached filesystem root
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// merge copies non-zero fields from src onto dst.
func merge(dst, src *Config) {
	if src.Backend.URL != "" {
		dst.Backend.URL = src.Backend.URL
	}
	if src.Editor.URL != "" {
		dst.Editor.URL = src.Editor.URL
	}
	if len(src.Editor.Origins) > 0 {
		dst.Editor.Origins = src.Editor.Origins
	}
	if src.Editor.BridgeAddr != "" {
		dst.Editor.BridgeAddr = src.Editor.BridgeAddr
	}
	if src.Editor.HandshakeAttempts > 0 {
		dst.Editor.HandshakeAttempts = src.Editor.HandshakeAttempts
	}
	if src.Editor.HandshakeIntervalMs > 0 {
		dst.Editor.HandshakeIntervalMs = src.Editor.HandshakeIntervalMs
	}
	if src.Speech.Enabled != nil {
		dst.Speech.Enabled = src.Speech.Enabled
	}
	if src.Speech.Voice != "" {
		dst.Speech.Voice = src.Speech.Voice
	}
	if len(src.Speech.SpeakCmd) > 0 {
		dst.Speech.SpeakCmd = src.Speech.SpeakCmd
	}
	if len(src.Speech.ListenCmd) > 0 {
		dst.Speech.ListenCmd = src.Speech.ListenCmd
	}
	if src.Composer.DebounceMs > 0 {
		dst.Composer.DebounceMs = src.Composer.DebounceMs
	}
	if src.Timing.GraceDelaySec > 0 {
		dst.Timing.GraceDelaySec = src.Timing.GraceDelaySec
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.SessionLog != "" {
		dst.Paths.SessionLog = src.Paths.SessionLog
	}
}

// applyEnv applies INTERVU_* environment variable overrides.
func applyEnv(cfg *Config) {
	if v := os.Getenv("INTERVU_BACKEND_URL"); v != "" {
		cfg.Backend.URL = v
	}
	if v := os.Getenv("INTERVU_EDITOR_URL"); v != "" {
		cfg.Editor.URL = v
	}
	if v := os.Getenv("INTERVU_EDITOR_ORIGINS"); v != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		cfg.Editor.Origins = origins
	}
	if v := os.Getenv("INTERVU_RESULTS_DIR"); v != "" {
		cfg.Paths.Results = v
	}
	if v := os.Getenv("INTERVU_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil && ms > 0 {
			cfg.Composer.DebounceMs = ms
		}
	}
}

// SpeechEnabled reports whether speech output is turned on.
func (c *Config) SpeechEnabled() bool {
	return c.Speech.Enabled == nil || *c.Speech.Enabled
}

func boolPtr(b bool) *bool { return &b }
