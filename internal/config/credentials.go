package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	apierrors "github.com/diogo/cellchat/internal/errors"
)

// Credential environment variables, in lookup order
const (
	EnvAPIKey     = "CELLCHAT_API_KEY"
	EnvGroqAPIKey = "GROQ_API_KEY"
)

// Credentials holds the bearer token for the completion endpoint
type Credentials struct {
	APIKey string `json:"api_key"`
	// Source records where the key came from, for diagnostics only
	Source string `json:"-"`
}

// Masked returns the key with all but the last four characters hidden
func (c *Credentials) Masked() string {
	if c == nil || c.APIKey == "" {
		return ""
	}
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return strings.Repeat("*", 8) + c.APIKey[len(c.APIKey)-4:]
}

// GetCredentialsPath returns the path to the credentials file
func GetCredentialsPath() (string, error) {
	configDir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "credentials.json"), nil
}

// LoadCredentials resolves the API key from the environment, then from the
// credentials file. It returns ErrNoAPIKey when neither provides one.
func LoadCredentials() (*Credentials, error) {
	for _, name := range []string{EnvAPIKey, EnvGroqAPIKey} {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			return &Credentials{APIKey: key, Source: "env:" + name}, nil
		}
	}

	path, err := GetCredentialsPath()
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: set %s or run 'cellchat config set-key'", apierrors.ErrNoAPIKey, EnvAPIKey)
		}
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	creds, err := parseCredentials(data)
	if err != nil {
		return nil, err
	}
	creds.Source = path
	return creds, nil
}

// parseCredentials accepts {"api_key": "..."} or a bare key on a single line
func parseCredentials(data []byte) (*Credentials, error) {
	var creds Credentials
	if err := json.Unmarshal(data, &creds); err == nil {
		if err := ValidateCredentials(&creds); err != nil {
			return nil, err
		}
		return &creds, nil
	}

	key := strings.TrimSpace(string(data))
	if key == "" || strings.ContainsAny(key, " \n\t{}") {
		return nil, fmt.Errorf("invalid credentials format: expected {\"api_key\": \"...\"}")
	}
	return &Credentials{APIKey: key}, nil
}

// ValidateCredentials checks that a usable key is present
func ValidateCredentials(creds *Credentials) error {
	if creds == nil || strings.TrimSpace(creds.APIKey) == "" {
		return apierrors.ErrNoAPIKey
	}
	if strings.ContainsAny(creds.APIKey, " \r\n\t") {
		return fmt.Errorf("invalid API key: must not contain whitespace")
	}
	return nil
}

// SaveCredentials writes the key to the credentials file with mode 0600
func SaveCredentials(creds *Credentials) error {
	if err := ValidateCredentials(creds); err != nil {
		return err
	}

	configDir, err := EnsureConfigDir()
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(creds, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal credentials: %w", err)
	}

	path := filepath.Join(configDir, "credentials.json")
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("failed to write credentials file: %w", err)
	}

	return nil
}
