package main

import "github.com/decolnz/condoor/config"

// condoorConfig returns condoor's default configuration with cacheDir
// overridden, the CLI's -cache-dir flag plumbed through.
func condoorConfig(cacheDir string) *config.Config {
	cfg := config.Default()
	cfg.CacheDir = cacheDir
	return cfg
}
