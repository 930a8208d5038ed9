package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/encodex/internal/flagx"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling. Pointer
// fields tell "absent" apart from zero values.
type JsonConfig struct {
	StorageDriver *string `json:"storage_driver"`
	StorageDSN    *string `json:"storage_dsn"`
	KDF           *string `json:"kdf"`
	KDFIterations *int    `json:"kdf_iterations"`
	LogLevel      *string `json:"log_level"`
	LogFormat     *string `json:"log_format"`
	S3Bucket      *string `json:"s3_bucket"`
	S3Region      *string `json:"s3_region"`
	S3Endpoint    *string `json:"s3_endpoint"`
	S3AccessKey   *string `json:"s3_access_key"`
	S3SecretKey   *string `json:"s3_secret_key"`
	S3Prefix      *string `json:"s3_prefix"`
	ShareBaseURL  *string `json:"share_base_url"`
}

// parseJson overlays Config with values loaded from the JSON file named by
// -c or -config. Without either flag nothing happens. Read and unmarshal
// errors panic; the caller may recover.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	setString(&cfg.StorageDriver, jc.StorageDriver)
	setString(&cfg.StorageDSN, jc.StorageDSN)
	setString(&cfg.KDF, jc.KDF)
	if jc.KDFIterations != nil {
		cfg.KDFIterations = *jc.KDFIterations
	}
	setString(&cfg.LogLevel, jc.LogLevel)
	setString(&cfg.LogFormat, jc.LogFormat)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.S3Prefix, jc.S3Prefix)
	setString(&cfg.ShareBaseURL, jc.ShareBaseURL)
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
