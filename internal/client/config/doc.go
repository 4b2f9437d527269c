// Package config loads runtime configuration for the minsend CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-a string   address:port of the file server
//	-k string   key derivation, "raw" or "hkdf" (must match the server)
//	-l string   path of the local transfer history database
//	-o string   directory where files shared by other clients are saved
//
// # JSON schema
//
//	{
//	  "server_addr": "127.0.0.1:5050",
//	  "key_derivation": "raw",
//	  "history_path": "history.db",
//	  "download_dir": "downloads"
//	}
//
// Keys missing from the file keep their default values.
package config
