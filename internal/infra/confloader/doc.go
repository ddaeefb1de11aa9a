// Package confloader provides configuration loading mechanism.
//
// This package implements a configuration loader that supports multiple
// sources using koanf as the underlying library, and a file watcher built
// on fsnotify for reloading configuration and certificates.
//
// Priority (highest to lowest):
//
//  1. Overrides (command-line flags)
//  2. Environment variables (RESTKIT_ prefix)
//  3. Configuration file (YAML)
//  4. Default values
package confloader
