package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/arborlabs/arbor/pkg/config"
)

func initCmd() *cli.Command {
	return &cli.Command{
		Name:      "init",
		Usage:     "Create the .arbor directory and a default config file",
		ArgsUsage: "[path]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Overwrite an existing config file",
			},
		},
		Action: runInit,
	}
}

func runInit(c *cli.Context) error {
	root := "."
	if c.Args().Len() > 0 {
		root = c.Args().First()
	}

	arborDir := filepath.Join(root, ".arbor")
	if err := os.MkdirAll(arborDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", arborDir, err)
	}

	configPath := filepath.Join(root, "arbor.toml")
	if _, err := os.Stat(configPath); err == nil && !c.Bool("force") {
		color.Yellow("%s already exists, use --force to overwrite", configPath)
		return nil
	}

	if err := os.WriteFile(configPath, []byte(config.DefaultTOML), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", configPath, err)
	}

	color.Green("Initialized arbor project: %s", configPath)
	return nil
}
