// Package config provides configuration structures and utilities for
// LinkGuard: engine policy constants (timeouts, caps, TTLs), the flat
// Config struct populated from CLI flags, the optional .linkguard YAML
// file, and environment-based API key loading.
package config
