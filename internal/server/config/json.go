package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "1s" and integer nanoseconds.
//
// Only fields present in the file are applied; absent fields keep the value
// from the previous layer.
type JsonConfig struct {
	AppEnv    string `json:"app_env"`
	LogLevel  string `json:"log_level"`
	LogFormat string `json:"log_format"`

	DatabaseDriver  string          `json:"database_driver"`
	DatabaseDSN     string          `json:"database_dsn"`
	RDSHost         string          `json:"rds_host"`
	RDSPort         int             `json:"rds_port"`
	RDSDB           string          `json:"rds_db"`
	RDSUser         string          `json:"rds_user"`
	RDSPassword     string          `json:"rds_password"`
	RDSSSLMode      string          `json:"rds_ssl_mode"`
	DatabaseTimeout *timex.Duration `json:"database_timeout"`

	StorageBackend    string          `json:"storage_backend"`
	S3AccessKeyID     string          `json:"s3_access_key_id"`
	S3SecretAccessKey string          `json:"s3_secret_access_key"`
	S3Region          string          `json:"s3_region"`
	S3Bucket          string          `json:"s3_bucket"`
	S3BaseEndpoint    string          `json:"s3_base_endpoint"`
	S3UsePathStyle    *bool           `json:"s3_use_path_style"`
	LocalStorageDir   string          `json:"local_storage_dir"`
	StorageTimeout    *timex.Duration `json:"storage_timeout"`
	PresignTTL        *timex.Duration `json:"presign_ttl"`

	MaxFileSize         int64    `json:"max_file_size"`
	SupportedExtensions []string `json:"supported_extensions"`

	CompensateOnCatalogFailure *bool  `json:"compensate_on_catalog_failure"`
	UploadConcurrency          int    `json:"upload_concurrency"`
	MetricsTextfile            string `json:"metrics_textfile"`
}

// parseJson loads configuration values from the JSON file at path into cfg.
// An empty path means no JSON layer.
func parseJson(cfg *Config, path string) error {
	if path == "" {
		return nil
	}

	file, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("%w: read %s: %v", common.ErrConfig, path, err)
	}

	c := &JsonConfig{}
	if err := json.Unmarshal(file, c); err != nil {
		return fmt.Errorf("%w: parse %s: %v", common.ErrConfig, path, err)
	}

	c.applyTo(cfg)
	return nil
}

func (c *JsonConfig) applyTo(cfg *Config) {
	setStr(&cfg.AppEnv, c.AppEnv)
	setStr(&cfg.LogLevel, c.LogLevel)
	setStr(&cfg.LogFormat, c.LogFormat)

	setStr(&cfg.DatabaseDriver, c.DatabaseDriver)
	setStr(&cfg.DatabaseDSN, c.DatabaseDSN)
	setStr(&cfg.RDSHost, c.RDSHost)
	if c.RDSPort != 0 {
		cfg.RDSPort = c.RDSPort
	}
	setStr(&cfg.RDSDB, c.RDSDB)
	setStr(&cfg.RDSUser, c.RDSUser)
	setStr(&cfg.RDSPassword, c.RDSPassword)
	setStr(&cfg.RDSSSLMode, c.RDSSSLMode)
	if c.DatabaseTimeout != nil {
		cfg.DatabaseTimeout = c.DatabaseTimeout.Duration
	}

	setStr(&cfg.StorageBackend, c.StorageBackend)
	setStr(&cfg.S3AccessKeyID, c.S3AccessKeyID)
	setStr(&cfg.S3SecretAccessKey, c.S3SecretAccessKey)
	setStr(&cfg.S3Region, c.S3Region)
	setStr(&cfg.S3Bucket, c.S3Bucket)
	setStr(&cfg.S3BaseEndpoint, c.S3BaseEndpoint)
	if c.S3UsePathStyle != nil {
		cfg.S3UsePathStyle = *c.S3UsePathStyle
	}
	setStr(&cfg.LocalStorageDir, c.LocalStorageDir)
	if c.StorageTimeout != nil {
		cfg.StorageTimeout = c.StorageTimeout.Duration
	}
	if c.PresignTTL != nil {
		cfg.PresignTTL = c.PresignTTL.Duration
	}

	if c.MaxFileSize != 0 {
		cfg.MaxFileSize = c.MaxFileSize
	}
	if c.SupportedExtensions != nil {
		cfg.SupportedExtensions = NormalizeExtensions(strings.Join(c.SupportedExtensions, ","))
	}

	if c.CompensateOnCatalogFailure != nil {
		cfg.CompensateOnCatalogFailure = *c.CompensateOnCatalogFailure
	}
	if c.UploadConcurrency != 0 {
		cfg.UploadConcurrency = c.UploadConcurrency
	}
	setStr(&cfg.MetricsTextfile, c.MetricsTextfile)
}

func setStr(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
