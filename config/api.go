package config

// APIConfig holds the HTTP API settings. The API is off while Addr is empty.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token, when set, is required as a bearer token on history requests.
	Token string `json:"token"`
}
