package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/docvault/internal/common"
)

// defaultEnvFile is loaded when -env is not given. A missing file is not an error.
const defaultEnvFile = ".env"

// loadEnvFile is a seam for tests.
var loadEnvFile = godotenv.Load

// parseEnv overlays settings from environment variables. Variables from the
// env file never override variables already set in the process environment.
//
// Recognized variables:
//
//	APP_ENV, LOG_LEVEL, LOG_FORMAT
//	DATABASE_DRIVER, DATABASE_URL, DATABASE_TIMEOUT
//	RDS_HOST, RDS_PORT, RDS_DB, RDS_USER, RDS_PASSWORD, RDS_SSL_MODE
//	STORAGE_BACKEND, STORAGE_TIMEOUT, PRESIGN_TTL, LOCAL_STORAGE_DIR
//	AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY, AWS_REGION
//	S3_BUCKET_NAME, S3_ENDPOINT, S3_USE_PATH_STYLE
//	MAX_FILE_SIZE, SUPPORTED_EXTENSIONS
//	COMPENSATE_ON_CATALOG_FAILURE, UPLOAD_CONCURRENCY, METRICS_TEXTFILE
func parseEnv(cfg *Config, envFile string) error {
	explicit := envFile != ""
	if !explicit {
		envFile = defaultEnvFile
	}

	if err := loadEnvFile(envFile); err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("%w: load env file %s: %v", common.ErrConfig, envFile, err)
		}
	}

	p := envParser{}

	p.str("APP_ENV", &cfg.AppEnv)
	p.str("LOG_LEVEL", &cfg.LogLevel)
	p.str("LOG_FORMAT", &cfg.LogFormat)

	p.str("DATABASE_DRIVER", &cfg.DatabaseDriver)
	p.str("DATABASE_URL", &cfg.DatabaseDSN)
	p.duration("DATABASE_TIMEOUT", &cfg.DatabaseTimeout)
	p.str("RDS_HOST", &cfg.RDSHost)
	p.integer("RDS_PORT", &cfg.RDSPort)
	p.str("RDS_DB", &cfg.RDSDB)
	p.str("RDS_USER", &cfg.RDSUser)
	p.str("RDS_PASSWORD", &cfg.RDSPassword)
	p.str("RDS_SSL_MODE", &cfg.RDSSSLMode)

	p.str("STORAGE_BACKEND", &cfg.StorageBackend)
	p.duration("STORAGE_TIMEOUT", &cfg.StorageTimeout)
	p.duration("PRESIGN_TTL", &cfg.PresignTTL)
	p.str("LOCAL_STORAGE_DIR", &cfg.LocalStorageDir)
	p.str("AWS_ACCESS_KEY_ID", &cfg.S3AccessKeyID)
	p.str("AWS_SECRET_ACCESS_KEY", &cfg.S3SecretAccessKey)
	p.str("AWS_REGION", &cfg.S3Region)
	p.str("S3_BUCKET_NAME", &cfg.S3Bucket)
	p.str("S3_ENDPOINT", &cfg.S3BaseEndpoint)
	p.boolean("S3_USE_PATH_STYLE", &cfg.S3UsePathStyle)

	p.integer64("MAX_FILE_SIZE", &cfg.MaxFileSize)
	if v, ok := os.LookupEnv("SUPPORTED_EXTENSIONS"); ok {
		cfg.SupportedExtensions = NormalizeExtensions(v)
	}

	p.boolean("COMPENSATE_ON_CATALOG_FAILURE", &cfg.CompensateOnCatalogFailure)
	p.integer("UPLOAD_CONCURRENCY", &cfg.UploadConcurrency)
	p.str("METRICS_TEXTFILE", &cfg.MetricsTextfile)

	if p.err != nil {
		return fmt.Errorf("%w: %v", common.ErrConfig, p.err)
	}
	return nil
}

// envParser collects conversion errors so every bad variable is reported.
type envParser struct {
	err error
}

func (p *envParser) fail(name, value string, err error) {
	p.err = errors.Join(p.err, fmt.Errorf("%s=%q: %v", name, value, err))
}

func (p *envParser) str(name string, dst *string) {
	if v, ok := os.LookupEnv(name); ok {
		*dst = v
	}
}

func (p *envParser) integer(name string, dst *int) {
	if v, ok := os.LookupEnv(name); ok {
		n, err := strconv.Atoi(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) integer64(name string, dst *int64) {
	if v, ok := os.LookupEnv(name); ok {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = n
	}
}

func (p *envParser) boolean(name string, dst *bool) {
	if v, ok := os.LookupEnv(name); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = b
	}
}

func (p *envParser) duration(name string, dst *time.Duration) {
	if v, ok := os.LookupEnv(name); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			p.fail(name, v, err)
			return
		}
		*dst = d
	}
}
