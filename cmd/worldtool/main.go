// Command worldtool inspects world directories written by worldstore.
//
//	worldtool --root ./saves/overworld regions
//	worldtool --root ./saves/overworld inspect 0.0.-1
//	worldtool --root ./saves/overworld chunk 3.0.-7
//	worldtool --config world.yaml options
//
// The world is opened read-only.
package main

import (
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/voxelforge/worldstore/world"
)

func main() {
	app := &cli.App{
		Name:  "worldtool",
		Usage: "inspect worldstore world directories",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "root",
				Aliases: []string{"r"},
				Usage:   "world directory (overrides the config file)",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "YAML config file",
				EnvVars: []string{"WORLDTOOL_CONFIG"},
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log region and chunk warnings",
			},
		},
		Commands: []*cli.Command{
			regionsCommand(),
			inspectCommand(),
			chunkCommand(),
			optionsCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// openStore opens the configured world read-only.
func openStore(cCtx *cli.Context) (*world.Store, afero.Fs, error) {
	osFs := afero.NewOsFs()

	cfg, err := world.LoadConfig(osFs, cCtx.String("config"))
	if err != nil {
		return nil, nil, err
	}
	if root := cCtx.String("root"); root != "" {
		cfg.Root = root
	}

	level := slog.LevelError
	if cCtx.Bool("verbose") {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cCtx.App.ErrWriter, &slog.HandlerOptions{Level: level}))

	fsys := afero.NewReadOnlyFs(osFs)
	store, err := world.Open(fsys, cfg.Root, append(cfg.StoreOptions(), world.WithLogger(logger))...)
	if err != nil {
		return nil, nil, fmt.Errorf("open world %s: %w", cfg.Root, err)
	}

	return store, fsys, nil
}
