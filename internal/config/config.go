package config

import (
	"crypto/rsa"
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"voipbits/internal/constants"
	"voipbits/internal/credentials"
	"voipbits/internal/models"
	"voipbits/internal/security"
	"voipbits/pkg/acrobits"
)

var (
	ErrMissingServerURL     = models.ConfigError{Message: "missing server URL"}
	ErrMissingProviderURL   = models.ConfigError{Message: "missing provider API URL"}
	ErrInvalidBackend       = models.ConfigError{Message: "registry backend must be \"redis\" or \"sqlite\""}
	ErrMissingRedisAddr     = models.ConfigError{Message: "missing redis address"}
	ErrMissingSQLitePath    = models.ConfigError{Message: "missing sqlite database path"}
	ErrMissingPrivateKey    = models.ConfigError{Message: "missing private key (set VOIPBITS_PRIVATE_KEY environment variable)"}
	ErrMissingEncryptionKey = models.ConfigError{Message: "registry encryption enabled but VOIPBITS_ENCRYPTION_SECRET is not set"}
)

func LoadConfig(path string) (*models.Config, error) {
	if err := security.ValidateFilePath(path); err != nil {
		return nil, fmt.Errorf("invalid config path: %w", err)
	}

	file, err := os.ReadFile(path) // #nosec G304 - Path validated by security.ValidateFilePath above
	if err != nil {
		return nil, err
	}

	var config models.Config
	if err := json.Unmarshal(file, &config); err != nil {
		return nil, err
	}

	applyEnvironmentOverrides(&config)

	if err := validate(&config); err != nil {
		return nil, err
	}

	if err := validateSecurity(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

func validate(c *models.Config) error {
	if c.Server.ServerURL == "" {
		return ErrMissingServerURL
	}
	if c.Provider.APIBaseURL == "" {
		return ErrMissingProviderURL
	}

	switch c.Registry.Backend {
	case "redis":
		if c.Registry.Redis.Addr == "" {
			return ErrMissingRedisAddr
		}
	case "sqlite":
		if c.Registry.SQLite.Path == "" {
			return ErrMissingSQLitePath
		}
	default:
		return ErrInvalidBackend
	}

	if c.Server.ListenAddr == "" {
		c.Server.ListenAddr = constants.DefaultListenAddr
	}
	if c.Provider.TimeoutSec <= 0 {
		c.Provider.TimeoutSec = constants.DefaultProviderTimeoutSec
	}
	if c.PushGateway.APIBaseURL == "" {
		c.PushGateway.APIBaseURL = acrobits.DefaultBaseURL
	}
	if c.PushGateway.TimeoutSec <= 0 {
		c.PushGateway.TimeoutSec = constants.DefaultPushTimeoutSec
	}
	if c.Retry.InitialBackoffMs <= 0 {
		c.Retry.InitialBackoffMs = constants.DefaultRetryBackoffMs
	}
	if c.Retry.MaxBackoffMs <= 0 {
		c.Retry.MaxBackoffMs = constants.DefaultMaxBackoffMs
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	return nil
}

func applyEnvironmentOverrides(c *models.Config) {
	if url := os.Getenv("VOIPBITS_SERVER_URL"); url != "" {
		c.Server.ServerURL = url
	}
	if addr := os.Getenv("VOIPBITS_LISTEN_ADDR"); addr != "" {
		c.Server.ListenAddr = addr
	}
	if url := os.Getenv("VOIPMS_API_URL"); url != "" {
		c.Provider.APIBaseURL = url
	}
	if url := os.Getenv("ACROBITS_PNM_URL"); url != "" {
		c.PushGateway.APIBaseURL = url
	}
	if backend := os.Getenv("VOIPBITS_REGISTRY_BACKEND"); backend != "" {
		c.Registry.Backend = backend
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		c.Registry.Redis.Addr = addr
	}
	// Redis credentials come from the environment, never the config file.
	if password := os.Getenv("REDIS_PASSWORD"); password != "" {
		c.Registry.Redis.Password = password
	}
	if db := os.Getenv("REDIS_DB"); db != "" {
		if n, err := strconv.Atoi(db); err == nil {
			c.Registry.Redis.DB = n
		}
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		c.Registry.SQLite.Path = path
	}
	if level := os.Getenv("LOG_LEVEL"); level != "" {
		c.LogLevel = level
	}
}

// validateSecurity performs security-specific validation
func validateSecurity(c *models.Config) error {
	isProduction := os.Getenv("VOIPBITS_ENV") == "production"

	if c.Registry.EncryptionEnabled && os.Getenv("VOIPBITS_ENCRYPTION_SECRET") == "" {
		return ErrMissingEncryptionKey
	}

	if isProduction {
		if c.LogLevel == "debug" {
			return models.ConfigError{Message: "debug logging should not be used in production (security risk)"}
		}
		if os.Getenv("VOIPBITS_PRIVATE_KEY") == "" {
			return ErrMissingPrivateKey
		}
	} else {
		if os.Getenv("VOIPBITS_PRIVATE_KEY") == "" {
			fmt.Fprintf(os.Stderr, "WARNING: private key not set. Set VOIPBITS_PRIVATE_KEY environment variable before serving traffic.\n")
		}
	}

	return nil
}

// LoadPrivateKey reads the credential decryption key from the
// environment. The material is the same base64-wrapped PKCS#8 blob
// the provisioning portal encrypts against.
func LoadPrivateKey() (*rsa.PrivateKey, error) {
	material := os.Getenv("VOIPBITS_PRIVATE_KEY")
	if material == "" {
		return nil, ErrMissingPrivateKey
	}
	return credentials.ParsePrivateKey(material)
}
