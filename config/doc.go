// Package config provides unified configuration loading for voicedesk.
// Precedence: built-in defaults, then YAML file, then environment overrides.
package config
