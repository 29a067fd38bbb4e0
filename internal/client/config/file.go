package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dmitrijs2005/sharevault/internal/flagx"
	"github.com/dmitrijs2005/sharevault/internal/timex"
	"gopkg.in/yaml.v3"
)

// FileConfig is a DTO used exclusively for decoding the config file.
// RequestTimeout relies on timex.Duration so it can be written either as
// "30s" or as integer nanoseconds.
type FileConfig struct {
	ServerEndpointAddr string         `json:"server_endpoint_addr" yaml:"server_endpoint_addr"`
	AccessToken        string         `json:"access_token" yaml:"access_token"`
	KeyPath            string         `json:"key_path" yaml:"key_path"`
	RequestTimeout     timex.Duration `json:"request_timeout" yaml:"request_timeout"`
}

// parseFile overlays Config with values loaded from the file named by
// -c/-config. Empty values in the file leave the current ones alone.
// Panics on read or decode errors.
func parseFile(cfg *Config) {
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
	fc.apply(cfg)
}

func decodeFile(path string, data []byte) (*FileConfig, error) {
	var fc FileConfig
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &fc)
	default:
		err = json.Unmarshal(data, &fc)
	}
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return &fc, nil
}

func (fc *FileConfig) apply(cfg *Config) {
	if fc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if fc.AccessToken != "" {
		cfg.AccessToken = fc.AccessToken
	}
	if fc.KeyPath != "" {
		cfg.KeyPath = fc.KeyPath
	}
	if fc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = time.Duration(fc.RequestTimeout.Duration)
	}
}
