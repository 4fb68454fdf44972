package main

import (
	"fmt"

	"github.com/panbanda/cogmark/internal/mcpserver"
	"github.com/urfave/cli/v2"
)

func mcpCmd() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve cogmark tools over the Model Context Protocol (stdio)",
		Description: `Starts an MCP server over stdio so that assistants can score code.

To use with Claude Desktop, add to your config:
  {
    "mcpServers": {
      "cogmark": {
        "command": "cogmark",
        "args": ["mcp"]
      }
    }
  }

Available tools:
  - analyze_code     Score a Python snippet
  - analyze_paths    Score files and directories against the maximum
  - diff_paths       Compare scores with a git revision`,
		Flags:  globalFlags(),
		Before: setup,
		Action: func(c *cli.Context) error {
			return mcpserver.NewServer(version, loadedConfig(c)).Run(c.Context)
		},
		Subcommands: []*cli.Command{
			{
				Name:  "manifest",
				Usage: "Print the MCP registry server.json",
				Action: func(c *cli.Context) error {
					data, err := mcpserver.GenerateManifest(version)
					if err != nil {
						return err
					}
					_, err = fmt.Fprintln(c.App.Writer, string(data))
					return err
				},
			},
		},
	}
}
