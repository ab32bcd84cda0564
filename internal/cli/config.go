package cli

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
)

// Config holds CLI configuration
type Config struct {
	ServerURL       string
	Username        string
	Password        string
	PasswordHash    string
	CredentialsFile string
	Output          string
	Verbose         bool
}

// credentials is what `auth login` persists: the username and the
// salted password hash. The plaintext password is never written.
type credentials struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
}

// DefaultConfig returns a Config with default values
func DefaultConfig() *Config {
	return &Config{
		ServerURL:       getEnvOrDefault("LOBBYGATE_SERVER", "http://localhost:8080"),
		Username:        os.Getenv("LOBBYGATE_USERNAME"),
		Password:        os.Getenv("LOBBYGATE_PASSWORD"),
		CredentialsFile: getEnvOrDefault("LOBBYGATE_CREDENTIALS", defaultCredentialsFile()),
		Output:          "text",
		Verbose:         false,
	}
}

// LoadCredentials fills in the username and password hash from the
// credentials file, for any field not already set via flag or env.
func (c *Config) LoadCredentials() error {
	if c.Username != "" && (c.Password != "" || c.PasswordHash != "") {
		return nil
	}

	data, err := os.ReadFile(c.CredentialsFile)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil // no credentials file is fine
		}
		return err
	}

	var creds credentials
	if err := json.Unmarshal(data, &creds); err != nil {
		return err
	}

	if c.Username == "" {
		c.Username = creds.Username
	}
	if c.PasswordHash == "" {
		c.PasswordHash = creds.PasswordHash
	}
	return nil
}

// SaveCredentials writes the username and password hash to the
// credentials file.
func (c *Config) SaveCredentials(username, passwordHash string) error {
	c.Username = username
	c.PasswordHash = passwordHash

	dir := filepath.Dir(c.CredentialsFile)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return err
	}

	data, err := json.Marshal(credentials{
		Username:     username,
		PasswordHash: passwordHash,
	})
	if err != nil {
		return err
	}
	return os.WriteFile(c.CredentialsFile, data, 0600)
}

// RemoveCredentials deletes the credentials file if present.
func (c *Config) RemoveCredentials() error {
	err := os.Remove(c.CredentialsFile)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

func defaultCredentialsFile() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".lobbyctl/credentials"
	}
	return filepath.Join(home, ".lobbyctl", "credentials")
}

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}
