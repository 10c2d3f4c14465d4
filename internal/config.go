package internal

import (
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Content store providers.
const (
	StoreFileService = "fileservice"
	StoreLocal       = "local"
)

// Media store providers.
const (
	MediaLocal  = "local"
	MediaPinata = "pinata"
)

// Config represents the application configuration.
type Config struct {
	App      ApplicationConfig `yaml:"app"`
	Ledger   LedgerConfig      `yaml:"ledger"`
	Store    StoreConfig       `yaml:"store"`
	Media    MediaConfig       `yaml:"media"`
	Registry RegistryConfig    `yaml:"registry"`
	Auth     AuthConfig        `yaml:"auth"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Ledger.Validate(); err != nil {
		return err
	}
	if err := c.Store.Validate(); err != nil {
		return err
	}
	if err := c.Media.Validate(); err != nil {
		return err
	}
	if err := c.Registry.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LedgerConfig selects the Hedera network and optional boot-time
// operator credentials. Credentials may also arrive at runtime through
// POST /auth/login; both are optional here.
type LedgerConfig struct {
	Network    string `yaml:"network"`
	OperatorID string `yaml:"operator_id"`
	PrivateKey string `yaml:"private_key"`
}

// Validate validates the ledger configuration.
func (c *LedgerConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Network, validation.Required,
			validation.In("testnet", "mainnet", "previewnet")),
	)
}

// StoreConfig selects where mint-time metadata blobs too large to
// inline end up.
//
//   - "fileservice" (default): Hedera File Service, handles are file ids.
//   - "local": content-addressed directory on disk, for development.
type StoreConfig struct {
	Provider string `yaml:"provider"`
	Path     string `yaml:"path"`
}

// Validate validates the store configuration.
func (c *StoreConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = StoreFileService
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(StoreFileService, StoreLocal)),
	); err != nil {
		return err
	}
	if c.Provider == StoreLocal && c.Path == "" {
		return fmt.Errorf("store: provider is %q but path is empty", StoreLocal)
	}
	return nil
}

// MediaConfig selects where uploaded media blobs (photos, documents)
// are pinned.
//
//   - "local" (default): content-addressed directory on disk.
//   - "pinata": Pinata IPFS pinning service; both keys required.
type MediaConfig struct {
	Provider  string `yaml:"provider"`
	Path      string `yaml:"path"`
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
}

// Validate validates the media configuration.
func (c *MediaConfig) Validate() error {
	if c.Provider == "" {
		c.Provider = MediaLocal
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Provider, validation.Required,
			validation.In(MediaLocal, MediaPinata)),
	); err != nil {
		return err
	}
	if c.Provider == MediaPinata && (c.APIKey == "" || c.APISecret == "") {
		return fmt.Errorf("media: provider is %q but api_key/api_secret are empty", MediaPinata)
	}
	if c.Provider == MediaLocal && c.Path == "" {
		return fmt.Errorf("media: provider is %q but path is empty", MediaLocal)
	}
	return nil
}

// RegistryConfig holds the local SQLite cache configuration.
type RegistryConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the registry configuration.
func (c *RegistryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// AuthConfig holds API authentication configuration.
//
// Mode controls how the HTTP surface is protected:
//   - "disabled" (default): no authentication, suitable for local dev.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Ledger: LedgerConfig{
			Network: "testnet",
		},
		Store: StoreConfig{
			Provider: StoreFileService,
		},
		Media: MediaConfig{
			Provider: MediaLocal,
			Path:     "./media",
		},
		Registry: RegistryConfig{
			Path: "./haras.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
	}
}
