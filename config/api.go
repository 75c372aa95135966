package config

// APIConfig configures the HTTP planning API.
type APIConfig struct {
	// Addr is the listen address of the REST server.
	Addr string `json:"addr"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
