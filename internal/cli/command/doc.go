// Package command provides CLI command definitions for restkit-server.
//
// This package defines the commands using urfave/cli/v2:
//
//   - root.go: App, global flags, configuration loading
//   - serve.go: serve command and runtime wiring
//   - check.go: check-config command
//   - version.go: version command
//
// Commands follow a consistent pattern of loading configuration,
// building the components they need, and writing to the app writer.
package command
