// Package config loads runtime configuration for the encodex CLI.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file (see parseJson) selected via flags: -c or -config.
//  3. Command-line flags (see parseFlags), which override earlier values.
//
// Supported flags
//
//	-s string   storage driver: memory, sqlite, postgres, bolt, s3
//	-d string   sqlite/bolt file path or postgres DSN
//	-k string   KDF for new users: pbkdf2-sha256 or argon2id
//	-i int      KDF iterations (argon2id: time cost) for new users
//	-l string   log level: debug, info, warn, error
//	-f string   log format: text or json
//	-b string   S3 bucket
//	-g string   S3 region
//	-e string   S3 endpoint (MinIO and other S3 compatible servers)
//	-u string   S3 access key
//	-p string   S3 secret key
//	-w string   base URL used when printing share links
//
// # JSON schema
//
//	{
//	  "storage_driver": "sqlite",
//	  "storage_dsn": "data/encodex.db",
//	  "kdf": "pbkdf2-sha256",
//	  "kdf_iterations": 150000,
//	  "log_level": "info",
//	  "log_format": "text",
//	  "s3_bucket": "encodex",
//	  "s3_region": "us-east-1",
//	  "s3_endpoint": "http://127.0.0.1:9000",
//	  "s3_access_key": "minio",
//	  "s3_secret_key": "minio123",
//	  "s3_prefix": "vault/",
//	  "share_base_url": "encodex://open"
//	}
//
// Only keys present in the file override defaults.
package config
