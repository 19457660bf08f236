package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/arborlabs/arbor/internal/cache"
	"github.com/arborlabs/arbor/internal/database"
)

func dbCmd() *cli.Command {
	return &cli.Command{
		Name:  "db",
		Usage: "Manage the analysis database",
		Subcommands: []*cli.Command{
			{
				Name:   "path",
				Usage:  "Print the database file path",
				Action: runDBPath,
			},
			{
				Name:   "info",
				Usage:  "Show database contents summary",
				Action: runDBInfo,
			},
			{
				Name:   "clear",
				Usage:  "Delete the database and the result cache",
				Action: runDBClear,
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "yes",
						Usage: "Skip the confirmation prompt",
					},
				},
			},
		},
	}
}

func runDBPath(c *cli.Context) error {
	cfg := loadConfig(c)
	abs, err := filepath.Abs(cfg.Database.Path)
	if err != nil {
		abs = cfg.Database.Path
	}
	fmt.Println(abs)
	return nil
}

func runDBInfo(c *cli.Context) error {
	cfg := loadConfig(c)
	db, err := database.Load(cfg.Database.Path)
	if err != nil {
		return err
	}

	fmt.Printf("Database:  %s\n", cfg.Database.Path)
	fmt.Printf("Schema:    %s\n", db.Version)
	fmt.Printf("Created:   %s\n", db.CreatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Updated:   %s\n", db.UpdatedAt.Format("2006-01-02 15:04:05"))
	fmt.Printf("Symbols:   %d\n", db.SymbolCount())
	fmt.Printf("Functions: %d\n", db.FunctionCount())
	if db.SymbolIndex.IndexedAt != nil {
		fmt.Printf("Indexed:   %s\n", db.SymbolIndex.IndexedAt.Format("2006-01-02 15:04:05"))
	}
	return nil
}

func runDBClear(c *cli.Context) error {
	cfg := loadConfig(c)

	if !c.Bool("yes") {
		fmt.Printf("Delete %s and the cache? [y/N] ", cfg.Database.Path)
		var answer string
		fmt.Scanln(&answer)
		if answer != "y" && answer != "Y" {
			fmt.Println("Aborted.")
			return nil
		}
	}

	if err := os.Remove(cfg.Database.Path); err != nil && !os.IsNotExist(err) {
		return err
	}

	resultCache, err := cache.New(cache.DefaultDir, 24, true)
	if err == nil {
		resultCache.Clear()
	}

	color.Green("Database cleared")
	return nil
}
