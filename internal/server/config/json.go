package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/minsend/internal/flagx"
)

// JsonConfig is the on-disk form of Config. Keys missing from the file keep
// their current values.
type JsonConfig struct {
	ListenAddr     string `json:"listen_addr"`
	DataRoot       string `json:"data_root"`
	PinLength      int    `json:"pin_length"`
	KeyDerivation  string `json:"key_derivation"`
	StorageBackend string `json:"storage_backend"`
	DatabaseDSN    string `json:"database_dsn"`
	S3RootUser     string `json:"s3_root_user"`
	S3RootPassword string `json:"s3_root_password"`
	S3Bucket       string `json:"s3_bucket"`
	S3Region       string `json:"s3_region"`
	S3BaseEndpoint string `json:"s3_base_endpoint"`
}

// parseJson overlays the JSON file named by -c or -config onto config. It
// does nothing when neither flag is set and panics if the file cannot be
// read or parsed.
func parseJson(config *Config) {
	jsonConfigFile := flagx.ConfigFileFlag()

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := JsonConfig(*config)

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	if err := json.Unmarshal(file, &c); err != nil {
		panic(err)
	}

	*config = Config(c)
}
