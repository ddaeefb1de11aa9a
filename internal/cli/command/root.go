// Package command provides CLI command definitions for restkit-server.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/restkit-go/internal/infra/buildinfo"
	"github.com/yndnr/restkit-go/internal/infra/confloader"
	"github.com/yndnr/restkit-go/internal/server/config"
)

// App creates the CLI application.
func App() *cli.App {
	return &cli.App{
		Name:    "restkit-server",
		Usage:   "HTTP request contract server",
		Version: buildinfo.String(),
		Flags:   globalFlags(),
		Commands: []*cli.Command{
			ServeCommand(),
			CheckConfigCommand(),
			VersionCommand(),
		},
		DefaultCommand: "serve",
	}
}

// globalFlags returns the global CLI flags.
func globalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config",
			Aliases: []string{"c"},
			Usage:   "Path to the YAML configuration file",
			EnvVars: []string{"RESTKIT_CONFIG"},
		},
		&cli.StringFlag{
			Name:  "addr",
			Usage: "Listen address, overrides server.addr",
		},
		&cli.StringFlag{
			Name:  "log-level",
			Usage: "Log level (debug, info, warn, error), overrides log.level",
		},
	}
}

// newLoader builds the configuration loader from the global flags.
func newLoader(c *cli.Context) *confloader.Loader {
	overrides := make(map[string]any)
	if c.IsSet("addr") {
		overrides["server.addr"] = c.String("addr")
	}
	if c.IsSet("log-level") {
		overrides["log.level"] = c.String("log-level")
	}
	return confloader.NewLoader(
		confloader.WithConfigFile(c.String("config")),
		confloader.WithOverrides(overrides),
	)
}

// loadConfig loads and verifies the configuration.
func loadConfig(loader *confloader.Loader) (*config.ServerConfig, error) {
	cfg := config.Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := config.Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
