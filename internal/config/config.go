package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Repository describes the remote git repository and the local clone
type Repository struct {
	URL     string        `mapstructure:"url"`
	Remote  string        `mapstructure:"remote"`
	Branch  string        `mapstructure:"branch"`
	Local   string        `mapstructure:"local"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// Paths are the sub-paths inside the repository for documents and schemas
type Paths struct {
	Config  string `mapstructure:"config"`
	Schemas string `mapstructure:"schemas"`
}

// Validation toggles server-side schema validation of saved documents
type Validation struct {
	Server bool `mapstructure:"server"`
}

// Log configures the zap logger and the optional rotating file sink
type Log struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

// Settings is the full confgit configuration
type Settings struct {
	Repository Repository        `mapstructure:"repository"`
	Paths      Paths             `mapstructure:"paths"`
	Extension  string            `mapstructure:"extension"`
	Validation Validation        `mapstructure:"validation"`
	Listen     string            `mapstructure:"listen"`
	Users      map[string]string `mapstructure:"users"`
	Log        Log               `mapstructure:"log"`
}

// defaultUsers are the sample users the console ships with. Replace them via
// the users key for anything beyond a demo.
func defaultUsers() map[string]string {
	return map[string]string{
		"alice":   "password",
		"bob":     "password",
		"charlie": "password",
		"admin":   "password",
	}
}

// Load reads settings from the given config file, or from the default search
// path (., $HOME/.config/confgit, /etc/confgit) when cfgFile is empty. A
// missing config file is not an error; the environment can supply everything.
func Load(cfgFile string) (*Settings, error) {
	v := viper.New()

	// Every key gets a default so that AutomaticEnv can override it even
	// when no config file mentions it.
	v.SetDefault("repository.url", "")
	v.SetDefault("repository.remote", "origin")
	v.SetDefault("repository.branch", "main")
	v.SetDefault("repository.timeout", "30s")
	v.SetDefault("repository.local", filepath.Join(os.TempDir(), "confgit", "repo"))
	v.SetDefault("paths.config", "config")
	v.SetDefault("paths.schemas", "schemas")
	v.SetDefault("extension", "yaml")
	v.SetDefault("validation.server", true)
	v.SetDefault("listen", ":8080")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")

	if cfgFile == "" {
		cfgFile = os.Getenv("CONFGIT_CONFIG")
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".config", "confgit"))
		v.AddConfigPath(filepath.Join("/etc", "confgit"))
		v.SetConfigName("confgit")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("CONFGIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var settings Settings
	if err := v.Unmarshal(&settings); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if len(settings.Users) == 0 {
		settings.Users = defaultUsers()
	}
	return &settings, nil
}

// Validate checks that the settings are usable
func (s *Settings) Validate() error {
	if s.Repository.URL == "" {
		return fmt.Errorf("repository.url is required (set it in confgit.yaml or CONFGIT_REPOSITORY_URL)")
	}
	if s.Repository.Timeout <= 0 {
		return fmt.Errorf("repository.timeout must be positive")
	}
	if strings.ContainsAny(s.Extension, "/\\.") {
		return fmt.Errorf("extension must be a bare suffix without dot or separators, got %q", s.Extension)
	}
	return nil
}
