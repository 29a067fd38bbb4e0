package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/sharevault/internal/flagx"
	"github.com/dmitrijs2005/sharevault/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is the on-disk shape of the configuration. Durations accept
// either "90s"-style strings or integer nanoseconds. Only keys present in
// the file override the current values.
type FileConfig struct {
	EndpointAddrGRPC            *string         `json:"endpoint_addr_grpc" yaml:"endpoint_addr_grpc"`
	EndpointAddrHTTP            *string         `json:"endpoint_addr_http" yaml:"endpoint_addr_http"`
	DatabaseDSN                 *string         `json:"database_dsn" yaml:"database_dsn"`
	SecretKey                   *string         `json:"secret_key" yaml:"secret_key"`
	AccessTokenValidityDuration *timex.Duration `json:"access_token_validity_duration" yaml:"access_token_validity_duration"`
	MasterKeyBackend            *string         `json:"master_key_backend" yaml:"master_key_backend"`
	MasterKeyPath               *string         `json:"master_key_path" yaml:"master_key_path"`
	StorageBackend              *string         `json:"storage_backend" yaml:"storage_backend"`
	StorageDir                  *string         `json:"storage_dir" yaml:"storage_dir"`
	S3RootUser                  *string         `json:"s3_root_user" yaml:"s3_root_user"`
	S3RootPassword              *string         `json:"s3_root_password" yaml:"s3_root_password"`
	S3Bucket                    *string         `json:"s3_bucket" yaml:"s3_bucket"`
	S3Region                    *string         `json:"s3_region" yaml:"s3_region"`
	S3BaseEndpoint              *string         `json:"s3_base_endpoint" yaml:"s3_base_endpoint"`
	MaxUploadSize               *int64          `json:"max_upload_size" yaml:"max_upload_size"`
	DefaultMaxDownloads         *int            `json:"default_max_downloads" yaml:"default_max_downloads"`
	DefaultShareExpiry          *timex.Duration `json:"default_share_expiry" yaml:"default_share_expiry"`
	LogLevel                    *string         `json:"log_level" yaml:"log_level"`
	LogFormat                   *string         `json:"log_format" yaml:"log_format"`
	TracingEnabled              *bool           `json:"tracing_enabled" yaml:"tracing_enabled"`
}

// parseFile overlays values from the file named by -c/-config. The format is
// picked by extension: .yaml and .yml are YAML, anything else is JSON. A
// file that cannot be read or decoded panics, like a bad flag.
func parseFile(config *Config) {
	path := flagx.ConfigFileFlag(os.Args[1:])
	if path == "" {
		return
	}

	data, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}

	fc, err := decodeFile(path, data)
	if err != nil {
		panic(err)
	}
	fc.apply(config)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	fc := &FileConfig{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := json.Unmarshal(data, fc); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}
	return fc, nil
}

func setIf[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (fc *FileConfig) apply(c *Config) {
	setIf(&c.EndpointAddrGRPC, fc.EndpointAddrGRPC)
	setIf(&c.EndpointAddrHTTP, fc.EndpointAddrHTTP)
	setIf(&c.DatabaseDSN, fc.DatabaseDSN)
	setIf(&c.SecretKey, fc.SecretKey)
	if fc.AccessTokenValidityDuration != nil {
		c.AccessTokenValidityDuration = fc.AccessTokenValidityDuration.Duration
	}
	setIf(&c.MasterKeyBackend, fc.MasterKeyBackend)
	setIf(&c.MasterKeyPath, fc.MasterKeyPath)
	setIf(&c.StorageBackend, fc.StorageBackend)
	setIf(&c.StorageDir, fc.StorageDir)
	setIf(&c.S3RootUser, fc.S3RootUser)
	setIf(&c.S3RootPassword, fc.S3RootPassword)
	setIf(&c.S3Bucket, fc.S3Bucket)
	setIf(&c.S3Region, fc.S3Region)
	setIf(&c.S3BaseEndpoint, fc.S3BaseEndpoint)
	setIf(&c.MaxUploadSize, fc.MaxUploadSize)
	setIf(&c.DefaultMaxDownloads, fc.DefaultMaxDownloads)
	if fc.DefaultShareExpiry != nil {
		c.DefaultShareExpiry = fc.DefaultShareExpiry.Duration
	}
	setIf(&c.LogLevel, fc.LogLevel)
	setIf(&c.LogFormat, fc.LogFormat)
	setIf(&c.TracingEnabled, fc.TracingEnabled)
}
