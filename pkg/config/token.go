package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

const (
	// TokenEnv is the environment variable checked first for the disk token.
	TokenEnv = "SYNCOPY_YADISK_OAUTH_TOKEN"
	// TokenFile is the file checked last for the disk token.
	TokenFile = ".disk_token"
)

// ErrNoToken is returned when no token source yields a value.
var ErrNoToken = errors.New("no disk token found")

// ResolveToken looks up the disk token in the environment, then the config
// secrets, then tokenFile. getenv is usually os.Getenv.
func ResolveToken(cfg *Config, getenv func(string) string, tokenFile string) (string, error) {
	if v := strings.TrimSpace(getenv(TokenEnv)); v != "" {
		return v, nil
	}
	if cfg != nil && strings.TrimSpace(cfg.Secrets.DiskToken) != "" {
		return strings.TrimSpace(cfg.Secrets.DiskToken), nil
	}

	data, err := os.ReadFile(tokenFile)
	if err != nil {
		return "", fmt.Errorf("%w: env %s unset, config has no secrets.disk_token, %s: %v", ErrNoToken, TokenEnv, tokenFile, err)
	}

	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: %s is empty", ErrNoToken, tokenFile)
	}
	return token, nil
}
