package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g.
// CHATR_BACKEND_URL for backend.url.
const EnvPrefix = "CHATR"

// BackendKinds lists the accepted backend.kind values.
var BackendKinds = []string{"server", "ollama", "anthropic", "gemini"}

type Config struct {
	Backend   BackendConfig  `mapstructure:"backend" yaml:"backend"`
	Ollama    OllamaConfig   `mapstructure:"ollama" yaml:"ollama"`
	Anthropic ProviderConfig `mapstructure:"anthropic" yaml:"anthropic"`
	Gemini    ProviderConfig `mapstructure:"gemini" yaml:"gemini"`
	Exec      ExecConfig     `mapstructure:"exec" yaml:"exec"`
	Render    RenderConfig   `mapstructure:"render" yaml:"render"`
	Theme     ThemeConfig    `mapstructure:"theme" yaml:"theme"`
	History   HistoryConfig  `mapstructure:"history" yaml:"history"`
	Log       LogConfig      `mapstructure:"log" yaml:"log"`
}

// BackendConfig selects where responses come from.
type BackendConfig struct {
	Kind    string        `mapstructure:"kind" yaml:"kind"`       // one of BackendKinds
	URL     string        `mapstructure:"url" yaml:"url"`         // chatr API server
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"` // per request
	Mode    string        `mapstructure:"mode" yaml:"mode"`       // "interactive" or "script"
}

// OllamaConfig configures the Ollama provider (OpenAI-compatible)
type OllamaConfig struct {
	BaseURL string `mapstructure:"base_url" yaml:"base_url"` // Default: http://localhost:11434/v1
	Model   string `mapstructure:"model" yaml:"model"`
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // Optional, Ollama ignores it
}

// ProviderConfig configures a hosted model API.
type ProviderConfig struct {
	APIKey  string `mapstructure:"api_key" yaml:"api_key"` // supports ${VAR}
	Model   string `mapstructure:"model" yaml:"model"`
	BaseURL string `mapstructure:"base_url" yaml:"base_url,omitempty"` // proxies only
}

type ExecConfig struct {
	Rscript        string        `mapstructure:"rscript" yaml:"rscript"`                   // interpreter binary
	Timeout        time.Duration `mapstructure:"timeout" yaml:"timeout"`                   // wall clock limit per run
	MaxOutputLines int           `mapstructure:"max_output_lines" yaml:"max_output_lines"` // 0 disables truncation
	Sandbox        bool          `mapstructure:"sandbox" yaml:"sandbox"`                   // reject unsafe calls before running
	CRANMirror     string        `mapstructure:"cran_mirror" yaml:"cran_mirror"`
}

type RenderConfig struct {
	Width                 int  `mapstructure:"width" yaml:"width"` // 0 uses the terminal width
	MinColumnWidth        int  `mapstructure:"min_column_width" yaml:"min_column_width"`
	SectionBlankThreshold int  `mapstructure:"section_blank_threshold" yaml:"section_blank_threshold"`
	Markdown              bool `mapstructure:"markdown" yaml:"markdown"` // render explanations with glamour
}

// ThemeConfig allows customization of UI colors
// Colors can be ANSI color numbers (0-255) or hex codes (#RRGGBB)
type ThemeConfig struct {
	Preset    string `mapstructure:"preset" yaml:"preset"`
	Primary   string `mapstructure:"primary" yaml:"primary"`     // frame labels
	Secondary string `mapstructure:"secondary" yaml:"secondary"` // frame borders
	Success   string `mapstructure:"success" yaml:"success"`
	Error     string `mapstructure:"error" yaml:"error"`
	Warning   string `mapstructure:"warning" yaml:"warning"`
	Muted     string `mapstructure:"muted" yaml:"muted"`
	Text      string `mapstructure:"text" yaml:"text"`
}

// HistoryConfig controls the local record of asked questions.
type HistoryConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Path     string `mapstructure:"path" yaml:"path,omitempty"` // default $XDG_DATA_HOME/chatr/history.db
	MaxCount int    `mapstructure:"max_count" yaml:"max_count"` // 0 keeps everything
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Pretty bool   `mapstructure:"pretty" yaml:"pretty"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("backend.kind", "server")
	v.SetDefault("backend.url", "http://localhost:8000")
	v.SetDefault("backend.timeout", 120*time.Second)
	v.SetDefault("backend.mode", "interactive")

	v.SetDefault("ollama.base_url", "http://localhost:11434/v1")
	v.SetDefault("ollama.model", "llama3.2:3b")
	v.SetDefault("ollama.api_key", "")

	v.SetDefault("anthropic.api_key", "${ANTHROPIC_API_KEY}")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5")
	v.SetDefault("anthropic.base_url", "")
	v.SetDefault("gemini.api_key", "${GEMINI_API_KEY}")
	v.SetDefault("gemini.model", "gemini-2.5-flash")
	v.SetDefault("gemini.base_url", "")

	v.SetDefault("exec.rscript", "Rscript")
	v.SetDefault("exec.timeout", 30*time.Second)
	v.SetDefault("exec.max_output_lines", 100)
	v.SetDefault("exec.sandbox", true)
	v.SetDefault("exec.cran_mirror", "https://cran.r-project.org")

	v.SetDefault("render.width", 0)
	v.SetDefault("render.min_column_width", 3)
	v.SetDefault("render.section_blank_threshold", 2)
	v.SetDefault("render.markdown", true)

	v.SetDefault("theme.preset", "gruvbox")
	for _, key := range []string{"primary", "secondary", "success", "error", "warning", "muted", "text"} {
		v.SetDefault("theme."+key, "")
	}

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.path", "")
	v.SetDefault("history.max_count", 1000)

	v.SetDefault("log.level", "warn")
	v.SetDefault("log.pretty", true)
}

// Load reads configuration from the default config file, a .env file in
// the working directory, and CHATR_* environment variables, in increasing
// order of precedence.
func Load() (*Config, error) {
	configPath, err := GetConfigDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get config dir: %w", err)
	}
	return LoadFrom("", configPath, ".")
}

// LoadFrom is Load with an explicit config file (used when non-empty)
// or list of directories searched for config.yaml.
func LoadFrom(file string, dirs ...string) (*Config, error) {
	// .env is optional; a malformed one is still an error.
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if file != "" {
		v.SetConfigFile(file)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		for _, dir := range dirs {
			v.AddConfigPath(dir)
		}
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	// Read config file (optional - won't error if missing)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	cfg.Ollama.APIKey = expandEnv(cfg.Ollama.APIKey)
	cfg.Anthropic.APIKey = expandEnv(cfg.Anthropic.APIKey)
	cfg.Gemini.APIKey = expandEnv(cfg.Gemini.APIKey)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports the first setting that cannot work.
func (c *Config) Validate() error {
	switch c.Backend.Kind {
	case "server":
		if err := checkURL("backend.url", c.Backend.URL); err != nil {
			return err
		}
	case "ollama":
		if err := checkURL("ollama.base_url", c.Ollama.BaseURL); err != nil {
			return err
		}
		if c.Ollama.Model == "" {
			return fmt.Errorf("ollama.model must be set")
		}
	case "anthropic", "gemini":
		p := c.Provider()
		if p.APIKey == "" {
			return fmt.Errorf("%s.api_key must be set", c.Backend.Kind)
		}
		if p.Model == "" {
			return fmt.Errorf("%s.model must be set", c.Backend.Kind)
		}
		if p.BaseURL != "" {
			if err := checkURL(c.Backend.Kind+".base_url", p.BaseURL); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("backend.kind %q: must be one of %s", c.Backend.Kind, strings.Join(BackendKinds, ", "))
	}
	if c.Backend.Mode != "interactive" && c.Backend.Mode != "script" {
		return fmt.Errorf("backend.mode %q: must be interactive or script", c.Backend.Mode)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Exec.Timeout <= 0 {
		return fmt.Errorf("exec.timeout must be positive, got %s", c.Exec.Timeout)
	}
	if c.Exec.MaxOutputLines < 0 {
		return fmt.Errorf("exec.max_output_lines must not be negative, got %d", c.Exec.MaxOutputLines)
	}
	if c.History.MaxCount < 0 {
		return fmt.Errorf("history.max_count must not be negative, got %d", c.History.MaxCount)
	}
	if c.Render.Width < 0 {
		return fmt.Errorf("render.width must not be negative, got %d", c.Render.Width)
	}
	return nil
}

// ApplyOverrides applies backend and model overrides from flags.
// Empty values leave the config unchanged.
func (c *Config) ApplyOverrides(kind, model string) {
	if kind != "" {
		c.Backend.Kind = kind
	}
	if model == "" {
		return
	}
	switch c.Backend.Kind {
	case "anthropic":
		c.Anthropic.Model = model
	case "gemini":
		c.Gemini.Model = model
	default:
		c.Ollama.Model = model
	}
}

// Provider returns the hosted provider section for the selected backend
// kind, or a zero value for server and ollama.
func (c *Config) Provider() ProviderConfig {
	switch c.Backend.Kind {
	case "anthropic":
		return c.Anthropic
	case "gemini":
		return c.Gemini
	}
	return ProviderConfig{}
}

func checkURL(key, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s %q: scheme must be http or https", key, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s %q: missing host", key, raw)
	}
	return nil
}

// expandEnv expands ${VAR} or $VAR in a string
func expandEnv(s string) string {
	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		varName := s[2 : len(s)-1]
		return os.Getenv(varName)
	}
	if strings.HasPrefix(s, "$") {
		return os.Getenv(s[1:])
	}
	return s
}

// GetConfigDir returns the XDG config directory for chatr.
// Uses $XDG_CONFIG_HOME if set, otherwise ~/.config
func GetConfigDir() (string, error) {
	if xdgHome := os.Getenv("XDG_CONFIG_HOME"); xdgHome != "" {
		return filepath.Join(xdgHome, "chatr"), nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "chatr"), nil
}

// GetConfigPath returns the path where the config file should be located
func GetConfigPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "config.yaml"), nil
}

// Exists returns true if a config file exists
func Exists() bool {
	path, err := GetConfigPath()
	if err != nil {
		return false
	}
	_, err = os.Stat(path)
	return err == nil
}

// Save writes cfg to path as a commented YAML file.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	content := fmt.Sprintf(`backend:
  # server talks to the chatr API; ollama, anthropic and gemini talk to a
  # model directly
  kind: %s
  url: %s
  timeout: %s
  mode: %s

ollama:
  base_url: %s
  model: %s
  # api_key: ${OLLAMA_API_KEY}

anthropic:
  api_key: ${ANTHROPIC_API_KEY}
  model: %s

gemini:
  api_key: ${GEMINI_API_KEY}
  model: %s

exec:
  rscript: %s
  timeout: %s
  max_output_lines: %d
  # Reject code that calls system(), unlink() and friends
  sandbox: %t
  cran_mirror: %s

render:
  # 0 uses the terminal width
  width: %d
  min_column_width: %d
  section_blank_threshold: %d
  markdown: %t

theme:
  # gruvbox, dracula, nord, solarized or classic
  preset: %s

history:
  enabled: %t
  max_count: %d

log:
  level: %s
`,
		cfg.Backend.Kind, cfg.Backend.URL, cfg.Backend.Timeout, cfg.Backend.Mode,
		cfg.Ollama.BaseURL, cfg.Ollama.Model,
		cfg.Anthropic.Model, cfg.Gemini.Model,
		cfg.Exec.Rscript, cfg.Exec.Timeout, cfg.Exec.MaxOutputLines, cfg.Exec.Sandbox, cfg.Exec.CRANMirror,
		cfg.Render.Width, cfg.Render.MinColumnWidth, cfg.Render.SectionBlankThreshold, cfg.Render.Markdown,
		cfg.Theme.Preset,
		cfg.History.Enabled, cfg.History.MaxCount,
		cfg.Log.Level,
	)

	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
