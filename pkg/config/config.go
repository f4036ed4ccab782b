// Package config provides the unified configuration system for LazyVec.
// It defines a single Config structure controlling how chunked columnar
// values are exposed as lazy vectors, mirroring the host-level options of
// the conversion layer:
//
//   - UseLazy: whether lazy wrapping happens at all; when disabled the
//     dispatch function declines every input and callers convert eagerly.
//   - StripNuls: policy for embedded nul bytes in string values. When off
//     (the default) a nul byte is a conversion error; when on, nul bytes are
//     removed and a single warning is emitted per converting pass.
//   - Compression: codec name used when persisting vector state
//     ("none", "zstd" or "s2").
//
// Example usage:
//
//	cfg := config.Default()
//	cfg.StripNuls = true
//
//	vec, err := lazyvec.New(chunked, cfg)
package config

import (
	"github.com/vectral/lazyvec/pkg/logger"
	"github.com/vectral/lazyvec/pkg/vecerrors"
)

// Config is the single configuration structure used across the library.
type Config struct {
	// UseLazy controls whether lazy vectors are produced at all.
	UseLazy bool `yaml:"use_lazy" json:"use_lazy"`

	// StripNuls removes embedded nul bytes from string values instead of
	// failing the conversion.
	StripNuls bool `yaml:"strip_nuls" json:"strip_nuls"`

	// Compression names the codec for serialized vector state.
	Compression string `yaml:"compression" json:"compression"`

	// Logging configures the structured logger.
	Logging logger.Config `yaml:"logging" json:"logging"`
}

// Default returns the default configuration: lazy wrapping on, strict nul
// handling, uncompressed state.
func Default() *Config {
	return &Config{
		UseLazy:     true,
		StripNuls:   false,
		Compression: "none",
		Logging: logger.Config{
			Level:    "info",
			Encoding: "json",
		},
	}
}

// Validate checks the configuration for invalid combinations.
func (c *Config) Validate() error {
	switch c.Compression {
	case "", "none", "zstd", "s2":
	default:
		return vecerrors.Newf(vecerrors.ErrorTypeConfig,
			"unknown compression codec %q", c.Compression)
	}
	return nil
}
