package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// ClientConfig es la configuración del cliente lazygrid (fichero TOML).
type ClientConfig struct {
	BaseURL    string   `toml:"base_url"`
	Collection string   `toml:"collection"`
	PageSize   int      `toml:"page_size"`
	Timeout    Duration `toml:"timeout"`
	Token      string   `toml:"token,omitempty"`
}

// Duration acepta "10s", "1m30s"... en TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		BaseURL:    "http://localhost:8080/api",
		Collection: "employees",
		PageSize:   10,
		Timeout:    Duration{10 * time.Second},
	}
}

// ClientConfigPath: $LAZYGRID_CONFIG o ~/.config/lazygrid.toml.
func ClientConfigPath() (string, error) {
	if p := os.Getenv("LAZYGRID_CONFIG"); p != "" {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lazygrid.toml"), nil
}

// LoadClientConfig lee el fichero sobre los valores por defecto. Si no existe
// devuelve los valores por defecto.
func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return DefaultClientConfig(), nil
		}
		return ClientConfig{}, fmt.Errorf("reading %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return ClientConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func SaveClientConfig(path string, cfg ClientConfig) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return err
	}
	defer f.Close()
	return toml.NewEncoder(f).Encode(cfg)
}

func (c ClientConfig) Validate() error {
	if c.BaseURL == "" {
		return errors.New("base_url is required")
	}
	if c.Collection == "" {
		return errors.New("collection is required")
	}
	if c.PageSize <= 0 {
		return fmt.Errorf("page_size must be positive, got %d", c.PageSize)
	}
	if c.Timeout.Duration <= 0 {
		return errors.New("timeout must be positive")
	}
	return nil
}

// CollectionURL une base_url y collection, p.ej. http://host/api/employees.
func (c ClientConfig) CollectionURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/" + strings.Trim(c.Collection, "/")
}
