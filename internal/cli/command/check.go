// Package command provides CLI command definitions for restkit-server.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/restkit-go/internal/cli/output"
	"github.com/yndnr/restkit-go/internal/server/config"
)

// CheckConfigCommand returns the check-config command. It loads and
// verifies the configuration and prints it with secrets masked.
func CheckConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "check-config",
		Usage: "Validate the configuration and print the effective values",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: json, yaml",
				Value:   "yaml",
			},
			&cli.BoolFlag{
				Name:  "quiet",
				Usage: "Only report whether the configuration is valid",
			},
		},
		Action: checkConfig,
	}
}

func checkConfig(c *cli.Context) error {
	f, err := output.NewFormatter(output.Format(c.String("output")))
	if err != nil {
		return err
	}

	cfg, err := loadConfig(newLoader(c))
	if err != nil {
		return err
	}

	if c.Bool("quiet") {
		_, err := fmt.Fprintln(c.App.Writer, "configuration ok")
		return err
	}
	return f.Format(c.App.Writer, config.Sanitize(cfg))
}
