//go:build !darwin

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

func dataHome() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return dir
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, ".local", "share")
	}
	return "."
}

func defaultDataDir() string {
	return filepath.Join(dataHome(), "magic")
}

// secretsFile holds one table per keychain service, keyed by account:
//
//	[magic]
//	"remote.api_key" = "sk-..."
type secretsFile map[string]map[string]string

func secretsFilePath() string {
	return filepath.Join(defaultDataDir(), "secrets.toml")
}

func readSecrets(path string) (secretsFile, error) {
	secrets := make(secretsFile)
	if _, err := toml.DecodeFile(path, &secrets); err != nil {
		return nil, err
	}
	return secrets, nil
}

func keychainGet(service, account string) ([]byte, error) {
	secrets, err := readSecrets(secretsFilePath())
	if err != nil {
		return nil, fmt.Errorf("reading secrets: %w", err)
	}
	val, ok := secrets[service][account]
	if !ok {
		return nil, fmt.Errorf("no secret for %s in %s", account, service)
	}
	return []byte(val), nil
}

// keychainSet refuses to rewrite a secrets file it cannot parse, so a
// hand-edited typo never wipes the other secrets.
func keychainSet(service, account, value string) error {
	p := secretsFilePath()
	secrets, err := readSecrets(p)
	if errors.Is(err, fs.ErrNotExist) {
		secrets = make(secretsFile)
	} else if err != nil {
		return fmt.Errorf("reading secrets: %w", err)
	}
	if secrets[service] == nil {
		secrets[service] = make(map[string]string)
	}
	secrets[service][account] = value
	if err := writePrivateTOML(p, secrets); err != nil {
		return fmt.Errorf("writing secrets: %w", err)
	}
	return nil
}
