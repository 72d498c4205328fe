// Package config handles input from etc/*.toml files
package config

import (
	"bytes"
	"encoding/json"
	"os"
	"slices"

	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"
)

const (
	// EnvJSONOverride names the environment variable holding a JSON document
	// merged over the TOML configuration.
	EnvJSONOverride = "RUNTIME_CONFIG_CONFIG_JSON"

	// MinSecretLength is the shortest accepted token signing secret.
	MinSecretLength = 32

	defaultShutDownTime = 5
	redacted            = "***"
)

var supportedAlgorithms = []string{"HS256", "HS384", "HS512"} //nolint:gochecknoglobals

// ReadConfig from config file.
func ReadConfig(path string) (Config, error) {
	var (
		c             Config
		JSONConfigEnv string
		err           error
	)

	// Read main configuration
	if path == "" {
		path = "./etc/"
	}

	if _, err = toml.DecodeFile(path+"main.toml", &c); err != nil {
		return Config{}, errors.Wrap(err, "failed to read main config file")
	}

	// override it from env
	JSONConfigEnv = os.Getenv(EnvJSONOverride)

	if JSONConfigEnv != "" {
		c, err = decodeAndMergeConfig(c, JSONConfigEnv)
		if err != nil {
			return c, err
		}
	}

	return c, validate(&c)
}

func decodeAndMergeConfig(c Config, configAsJSON string) (Config, error) {
	err := json.Unmarshal([]byte(configAsJSON), &c)
	if err != nil {
		return Config{}, errors.Wrap(err, "failed to decode json config override")
	}

	return c, nil
}

// DumpConfig config as TOML String. Secrets are redacted.
func DumpConfig(c *Config) (string, error) {
	var buffer bytes.Buffer
	t := toml.NewEncoder(&buffer)

	if err := t.Encode(redact(*c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

// DumpConfigJSON config as JSON String. Secrets are redacted.
func DumpConfigJSON(c *Config) (string, error) {
	var buffer bytes.Buffer
	j := json.NewEncoder(&buffer)
	j.SetIndent("", "  ")

	if err := j.Encode(redact(*c)); err != nil {
		return "", err //nolint: wrapcheck
	}

	return buffer.String(), nil
}

func redact(c Config) Config {
	if c.Token.Secret != "" {
		c.Token.Secret = redacted
	}

	if c.DB.Password != "" {
		c.DB.Password = redacted
	}

	return c
}

// validate the settings the service can not start without and fill in defaults.
func validate(c *Config) error {
	invalidErrMessage := "invalid config"

	// validate webserver listening port
	if c.Webserver.Port == 0 {
		return errors.Wrap(ErrWebServerPortCanNotBeZero, invalidErrMessage)
	}

	if c.Webserver.URL == "" {
		return errors.Wrap(ErrEmptyURL, invalidErrMessage)
	}

	if c.Webserver.ShutDownTime == 0 {
		c.Webserver.ShutDownTime = defaultShutDownTime
	}

	if len(c.Token.Secret) < MinSecretLength {
		return errors.Wrapf(ErrTokenSecretTooShort, "%s: need at least %d bytes", invalidErrMessage, MinSecretLength)
	}

	if c.Token.Algorithm == "" {
		c.Token.Algorithm = supportedAlgorithms[0]
	}

	if !slices.Contains(supportedAlgorithms, c.Token.Algorithm) {
		return errors.Wrapf(ErrUnsupportedAlgorithm, "%s: %s", invalidErrMessage, c.Token.Algorithm)
	}

	if c.Token.AccessTokenExpireMinutes <= 0 || c.Token.RefreshTokenExpireMinutes <= 0 {
		return errors.Wrap(ErrTokenTTL, invalidErrMessage)
	}

	switch c.DB.GormEngine {
	case "":
		c.DB.GormEngine = EnginePostgres
	case EnginePostgres, EngineMySQL, EngineSQLite:
	default:
		return errors.Wrapf(ErrUnsupportedGormEngine, "%s: %s", invalidErrMessage, c.DB.GormEngine)
	}

	return nil
}
