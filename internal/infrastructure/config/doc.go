// Package config provides configuration loading for Showbox Core.
//
// Configuration is loaded in three layers:
//  1. Hardcoded defaults (defaultConfig)
//  2. YAML file (configs/config.yaml by default)
//  3. Environment variable overrides (SHOWBOX_* pattern)
//
// The devices section is the show's device directory: an ordered list of
// animatronic endpoints whose position doubles as the device index. The
// speech section carries the per-character voice casting table.
//
// Secrets (broker credentials, telemetry tokens) should be supplied via
// environment variables rather than committed YAML.
package config
