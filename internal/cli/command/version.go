// Package command provides CLI command definitions for restkit-server.
package command

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/yndnr/restkit-go/internal/cli/output"
	"github.com/yndnr/restkit-go/internal/infra/buildinfo"
)

// VersionCommand returns the version command.
func VersionCommand() *cli.Command {
	return &cli.Command{
		Name:  "version",
		Usage: "Show version information",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output format: text, json, yaml",
				Value:   "text",
			},
		},
		Action: func(c *cli.Context) error {
			format := c.String("output")
			if format == "text" {
				_, err := fmt.Fprintln(c.App.Writer, "restkit-server "+buildinfo.String())
				return err
			}
			f, err := output.NewFormatter(output.Format(format))
			if err != nil {
				return err
			}
			return f.Format(c.App.Writer, buildinfo.Get())
		},
	}
}
