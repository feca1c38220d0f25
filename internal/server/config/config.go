// Package config handles configuration for the uploader, including defaults,
// environment (.env) overlay, JSON overlay, and command-line flags.
package config

import (
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dmitrijs2005/docvault/internal/common"
	"github.com/dmitrijs2005/docvault/internal/flagx"
	"github.com/dmitrijs2005/docvault/internal/logging"
)

// Storage backends.
const (
	BackendS3    = "s3"
	BackendMinio = "minio"
	BackendLocal = "local"
)

// Catalog drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds runtime settings. It is built once at process start and
// passed down explicitly; nothing below cmd/ reads the environment.
//
// Fields:
//   - DatabaseDriver / DatabaseDSN: catalog driver and DSN. For PostgreSQL the
//     DSN may instead be composed from the RDS* parts.
//   - StorageBackend: "s3", "minio" or "local".
//   - S3*: credentials, region, bucket and optional base endpoint for S3 or MinIO.
//   - MaxFileSize / SupportedExtensions: validation limits.
//   - CompensateOnCatalogFailure: delete the stored blob when the catalog
//     insert fails.
type Config struct {
	AppEnv    string
	LogLevel  string
	LogFormat string

	DatabaseDriver  string
	DatabaseDSN     string
	RDSHost         string
	RDSPort         int
	RDSDB           string
	RDSUser         string
	RDSPassword     string
	RDSSSLMode      string
	DatabaseTimeout time.Duration

	StorageBackend    string
	S3AccessKeyID     string
	S3SecretAccessKey string
	S3Region          string
	S3Bucket          string
	S3BaseEndpoint    string
	S3UsePathStyle    bool
	LocalStorageDir   string
	StorageTimeout    time.Duration
	PresignTTL        time.Duration

	MaxFileSize         int64
	SupportedExtensions []string

	CompensateOnCatalogFailure bool
	UploadConcurrency          int
	MetricsTextfile            string
}

// LoadDefaults populates Config with development defaults.
func (c *Config) LoadDefaults() {
	c.AppEnv = "development"
	c.LogLevel = "INFO"
	c.LogFormat = logging.FormatAuto

	c.DatabaseDriver = DriverPostgres
	c.RDSPort = 5432
	c.RDSSSLMode = "require"

	c.StorageBackend = BackendS3
	c.S3Region = "us-east-1"
	c.S3Bucket = "syllabus-documents"
	c.LocalStorageDir = "blobs"
	c.PresignTTL = 15 * time.Minute

	c.MaxFileSize = 52428800
	c.SupportedExtensions = []string{".pdf", ".doc", ".docx"}

	c.CompensateOnCatalogFailure = true
	c.UploadConcurrency = 4
}

// LoadConfig builds a Config by applying defaults, then overlaying values
// from the environment (optionally seeded from a .env file selected with
// -env), an optional JSON file (-c/-config), and finally command-line flags.
// The result is not validated; call Validate before use.
func LoadConfig(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	envFile := flagx.LookupValue(args, "env")
	if err := parseEnv(cfg, envFile); err != nil {
		return nil, err
	}
	if err := parseJson(cfg, flagx.JsonConfigFlags(args)); err != nil {
		return nil, err
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, err
	}
	return cfg, nil
}

// CommandArgs strips configuration flags from args, leaving the subcommand
// and its own flags.
func CommandArgs(args []string) []string {
	return flagx.StripArgs(args, commandLineFlags)
}

// IsProduction reports whether AppEnv is "production".
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppEnv, "production")
}

// IsDevelopment reports whether AppEnv is "development".
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.AppEnv, "development")
}

// DSN returns DatabaseDSN or, for PostgreSQL, a DSN composed from the RDS*
// parts.
func (c *Config) DSN() (string, error) {
	if c.DatabaseDSN != "" {
		return c.DatabaseDSN, nil
	}
	if c.DatabaseDriver != DriverPostgres {
		return "", fmt.Errorf("%w: DATABASE_URL is required for driver %q", common.ErrConfig, c.DatabaseDriver)
	}
	if missing := c.missingRDS(); len(missing) > 0 {
		return "", fmt.Errorf("%w: missing required RDS PostgreSQL settings: %s", common.ErrConfig, strings.Join(missing, ", "))
	}

	u := url.URL{
		Scheme:   "postgresql",
		User:     url.UserPassword(c.RDSUser, c.RDSPassword),
		Host:     net.JoinHostPort(c.RDSHost, strconv.Itoa(c.RDSPort)),
		Path:     "/" + c.RDSDB,
		RawQuery: url.Values{"sslmode": []string{c.RDSSSLMode}}.Encode(),
	}
	return u.String(), nil
}

func (c *Config) missingRDS() []string {
	var missing []string
	if c.RDSHost == "" {
		missing = append(missing, "RDS_HOST")
	}
	if c.RDSDB == "" {
		missing = append(missing, "RDS_DB")
	}
	if c.RDSUser == "" {
		missing = append(missing, "RDS_USER")
	}
	if c.RDSPassword == "" {
		missing = append(missing, "RDS_PASSWORD")
	}
	return missing
}

// Validate checks that every setting required by the selected backends is
// present. All missing settings are reported at once.
func (c *Config) Validate() error {
	var missing, invalid []string

	switch c.StorageBackend {
	case BackendS3:
		missing = appendIfEmpty(missing, "AWS_ACCESS_KEY_ID", c.S3AccessKeyID)
		missing = appendIfEmpty(missing, "AWS_SECRET_ACCESS_KEY", c.S3SecretAccessKey)
		missing = appendIfEmpty(missing, "AWS_REGION", c.S3Region)
		missing = appendIfEmpty(missing, "S3_BUCKET_NAME", c.S3Bucket)
	case BackendMinio:
		missing = appendIfEmpty(missing, "S3_ENDPOINT", c.S3BaseEndpoint)
		missing = appendIfEmpty(missing, "AWS_ACCESS_KEY_ID", c.S3AccessKeyID)
		missing = appendIfEmpty(missing, "AWS_SECRET_ACCESS_KEY", c.S3SecretAccessKey)
		missing = appendIfEmpty(missing, "S3_BUCKET_NAME", c.S3Bucket)
	case BackendLocal:
		missing = appendIfEmpty(missing, "LOCAL_STORAGE_DIR", c.LocalStorageDir)
	default:
		invalid = append(invalid, fmt.Sprintf("STORAGE_BACKEND=%q", c.StorageBackend))
	}

	switch c.DatabaseDriver {
	case DriverPostgres:
		if c.DatabaseDSN == "" {
			missing = append(missing, c.missingRDS()...)
		}
	case DriverSQLite:
		missing = appendIfEmpty(missing, "DATABASE_URL", c.DatabaseDSN)
	default:
		invalid = append(invalid, fmt.Sprintf("DATABASE_DRIVER=%q", c.DatabaseDriver))
	}

	if c.MaxFileSize <= 0 {
		invalid = append(invalid, fmt.Sprintf("MAX_FILE_SIZE=%d", c.MaxFileSize))
	}
	if len(c.SupportedExtensions) == 0 {
		missing = append(missing, "SUPPORTED_EXTENSIONS")
	}
	if c.UploadConcurrency <= 0 {
		invalid = append(invalid, fmt.Sprintf("UPLOAD_CONCURRENCY=%d", c.UploadConcurrency))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		invalid = append(invalid, fmt.Sprintf("LOG_LEVEL=%q", c.LogLevel))
	}

	var parts []string
	if len(missing) > 0 {
		parts = append(parts, "missing required settings: "+strings.Join(missing, ", "))
	}
	if len(invalid) > 0 {
		parts = append(parts, "invalid settings: "+strings.Join(invalid, ", "))
	}
	if len(parts) > 0 {
		return fmt.Errorf("%w: %s", common.ErrConfig, strings.Join(parts, "; "))
	}
	return nil
}

func appendIfEmpty(list []string, name, value string) []string {
	if strings.TrimSpace(value) == "" {
		return append(list, name)
	}
	return list
}

// NormalizeExtensions turns a comma-separated list into lowercase
// extensions with a leading dot, dropping blanks and duplicates.
func NormalizeExtensions(list string) []string {
	seen := make(map[string]struct{})
	result := make([]string, 0)
	for _, raw := range strings.Split(list, ",") {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" || ext == "." {
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if _, dup := seen[ext]; dup {
			continue
		}
		seen[ext] = struct{}{}
		result = append(result, ext)
	}
	return result
}
