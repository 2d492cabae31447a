// Package credentials manages the access tokens for the external services
// the assistant talks to: the conversational-agent platform and the speech
// cloud. Tokens live in credentials.toml inside the .sweeper/ directory and
// can be overridden per service through environment variables.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/QingShuishui/rdk-x5-app-sub000/pkg/dotdir"
)

const (
	credentialsFile = "credentials.toml"

	currentVersion = 0
)

// Service names with stored tokens.
const (
	ServiceBot    = "bot"
	ServiceSpeech = "speech"
)

// serviceEnvVars maps service names to their expected environment variables.
var serviceEnvVars = map[string]string{
	ServiceBot:    "SWEEPER_BOT_TOKEN",
	ServiceSpeech: "SWEEPER_SPEECH_TOKEN",
}

// Manager manages reading and writing credentials.toml in the .sweeper/ directory.
type Manager struct {
	ddm        *dotdir.Manager
	targetPath string
}

// NewManager creates a new credentials Manager. If override is non-empty it is
// used as the .sweeper/ directory; otherwise the standard dotdir resolution
// applies. When no .sweeper/ directory is found, one is created at ~/.sweeper/.
func NewManager(override string) (*Manager, error) {
	mgr := &Manager{}
	mgr.ddm = dotdir.NewManager()

	target, err := mgr.ddm.Ensure(override)
	if err != nil {
		return nil, err
	}

	mgr.targetPath = filepath.Join(target, credentialsFile)

	return mgr, nil
}

// Load reads credentials.toml from the target directory.
// Returns an empty Credentials if the file does not exist.
func (m *Manager) Load() (*Credentials, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &Credentials{
				Version:  currentVersion,
				Services: make(map[string]ServiceCredential),
			}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	creds := &Credentials{}
	if err := toml.Unmarshal(data, creds); err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	if creds.Services == nil {
		creds.Services = make(map[string]ServiceCredential)
	}

	return creds, nil
}

// Save writes credentials to credentials.toml with 0600 permissions.
func (m *Manager) Save(creds *Credentials) error {
	if creds == nil {
		return errors.New("cannot save nil credentials")
	}

	var buf bytes.Buffer
	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(creds); err != nil {
		return fmt.Errorf("encoding credentials: %w", err)
	}

	if err := os.WriteFile(m.targetPath, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// SetToken stores an access token for the given service.
func (m *Manager) SetToken(service, token string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	creds.Services[service] = ServiceCredential{Token: token}

	return m.Save(creds)
}

// GetToken returns the stored access token for the given service.
// Returns an empty string if no token is stored.
func (m *Manager) GetToken(service string) (string, error) {
	creds, err := m.Load()
	if err != nil {
		return "", err
	}

	sc, ok := creds.Services[service]
	if !ok {
		return "", nil
	}

	return sc.Token, nil
}

// RemoveToken deletes the stored credential for a service.
func (m *Manager) RemoveToken(service string) error {
	creds, err := m.Load()
	if err != nil {
		return err
	}

	delete(creds.Services, service)

	return m.Save(creds)
}

// ListServices returns the names of services that have stored credentials.
func (m *Manager) ListServices() ([]string, error) {
	creds, err := m.Load()
	if err != nil {
		return nil, err
	}

	services := make([]string, 0, len(creds.Services))
	for name := range creds.Services {
		services = append(services, name)
	}

	sort.Strings(services)

	return services, nil
}

// Resolve returns the token for a service, preferring the environment
// variable over the stored file.
func (m *Manager) Resolve(service string) (string, error) {
	if envVar := EnvVarForService(service); envVar != "" {
		if token := os.Getenv(envVar); token != "" {
			return token, nil
		}
	}

	return m.GetToken(service)
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

// EnvVarForService returns the environment variable name for a given service.
// Returns an empty string for unknown services.
func EnvVarForService(service string) string {
	return serviceEnvVars[service]
}

// SupportedServices returns the list of services that require tokens.
func SupportedServices() []string {
	return []string{ServiceBot, ServiceSpeech}
}

// IsSupportedService returns true if the given service is supported.
func IsSupportedService(service string) bool {
	return slices.Contains(SupportedServices(), service)
}
