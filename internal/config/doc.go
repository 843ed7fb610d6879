// Package config loads confgit settings from a config file, environment
// variables and defaults. Environment variables use the CONFGIT_ prefix with
// underscores for key separators (CONFGIT_REPOSITORY_URL overrides
// repository.url).
package config
