package config

// Config holds runtime settings for the minsend CLI.
type Config struct {
	ServerAddr    string
	KeyDerivation string
	HistoryPath   string
	DownloadDir   string
}

// LoadDefaults populates c with defaults.
func (c *Config) LoadDefaults() {
	c.ServerAddr = "127.0.0.1:5050"
	c.KeyDerivation = "raw"
	c.HistoryPath = "history.db"
	c.DownloadDir = "downloads"
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
