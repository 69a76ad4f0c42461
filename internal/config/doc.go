// Package config provides configuration loading and validation for the
// lung-sound feature pipeline. It handles YAML-based configuration with
// per-section struct validation.
package config
