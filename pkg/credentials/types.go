package credentials

// Credentials represents the stored service tokens in credentials.toml.
type Credentials struct {
	Version  int                          `toml:"version"`
	Services map[string]ServiceCredential `toml:"services"`
}

// ServiceCredential holds the access token for a single service.
type ServiceCredential struct {
	Token string `toml:"token"`
}
