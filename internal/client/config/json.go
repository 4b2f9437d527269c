package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/minsend/internal/flagx"
)

type JsonConfig struct {
	ServerAddr    string `json:"server_addr"`
	KeyDerivation string `json:"key_derivation"`
	HistoryPath   string `json:"history_path"`
	DownloadDir   string `json:"download_dir"`
}

// parseJson overlays the file named by -c/-config onto config, panicking if
// it cannot be read or decoded.
func parseJson(config *Config) {
	path := flagx.ConfigFileFlag()
	if path == "" {
		return
	}

	file, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	c := JsonConfig(*config)
	if err := json.Unmarshal(file, &c); err != nil {
		panic(err)
	}

	*config = Config(c)
}
