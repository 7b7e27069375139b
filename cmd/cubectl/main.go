// cubectl exposes the four operations the core library offers to any CLI
// wrapper: construct-grid, assimilate-batch, read-surface,
// finalise. Layout and flag naming are grounded on the corpus's
// cmd/main.go (one cli.Command per operation, --foo-bar flags,
// --config-uri for the TileDB config).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"

	"github.com/alitto/pond"
	"github.com/urfave/cli/v2"

	cube "github.com/seafloor-cube/go-cube"
	"github.com/seafloor-cube/go-cube/ingest"
)

func constructGrid(uri, configURI string, rows, cols int, spacing, originEast, originNorth float64, tileSize, cacheCapacity int) error {
	cfg := cube.DefaultConfig()
	cfg.Rows = rows
	cfg.Cols = cols
	cfg.Spacing = spacing
	cfg.OriginEast = originEast
	cfg.OriginNorth = originNorth
	if tileSize > 0 {
		cfg.TileSize = tileSize
	}
	if cacheCapacity > 0 {
		cfg.CacheCapacity = cacheCapacity
	}

	container, err := cube.NewContainer(uri, configURI, cfg)
	if err != nil {
		return err
	}

	log.Println("Created grid at:", uri)

	return container.Finalise()
}

// assimilateFile processes one sounding-stream file against an already
// constructed grid.
func assimilateFile(uri, configURI, soundingsURI string) error {
	container, err := cube.OpenContainer(uri, configURI)
	if err != nil {
		return err
	}
	defer container.Finalise()

	f, err := os.Open(soundingsURI)
	if err != nil {
		return err
	}
	defer f.Close()

	batch, err := ingest.ReadBatch(f)
	if err != nil {
		return err
	}

	log.Println("Assimilating", len(batch), "soundings from:", soundingsURI)

	stats, err := container.Assimilate(batch)
	if err != nil {
		return err
	}

	log.Printf("Accepted=%d OutsideGrid=%d BadUncert=%d NonFiniteDepth=%d EmptyFootprint=%d\n",
		stats.Accepted, stats.OutsideGrid, stats.BadUncert, stats.NonFiniteDepth, stats.EmptyFootprint)

	return nil
}

// assimilateDir fans a directory of sounding-stream files out across a
// worker pool, one worker per file (never per sounding, since soundings
// within one file must stay ordered for a node's change-point
// detection to stay reproducible). Grounded on the corpus's
// convert_gsf_list / convert-trawl pattern.
func assimilateDir(uri, configURI, soundingsDir string) error {
	entries, err := os.ReadDir(soundingsDir)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	n := runtime.NumCPU() * 2
	pool := pond.New(n, 0, pond.MinWorkers(n), pond.Context(ctx))
	defer pool.StopAndWait()

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(soundingsDir, entry.Name())
		pool.Submit(func() {
			if err := assimilateFile(uri, configURI, path); err != nil {
				log.Println("Error assimilating", path, ":", err)
			}
		})
	}

	return nil
}

func readSurface(uri, configURI, kind, outURI string) error {
	container, err := cube.OpenContainer(uri, configURI)
	if err != nil {
		return err
	}
	defer container.Finalise()

	var sk cube.SurfaceKind
	switch kind {
	case "depth":
		sk = cube.SurfaceDepth
	case "uncertainty":
		sk = cube.SurfaceUncertainty
	case "count":
		sk = cube.SurfaceHypothesisCount
	case "strength":
		sk = cube.SurfaceHypothesisStrength
	default:
		return errors.New("Error Unknown Surface Kind: " + kind)
	}

	surface, err := container.ReadSurface(sk)
	if err != nil {
		return err
	}

	jsn, err := json.Marshal(surface)
	if err != nil {
		return err
	}

	return os.WriteFile(outURI, jsn, 0644)
}

func finalise(uri, configURI string) error {
	container, err := cube.OpenContainer(uri, configURI)
	if err != nil {
		return err
	}

	return container.Finalise()
}

func main() {
	app := &cli.App{
		Name:  "cubectl",
		Usage: "drive the CUBE bathymetric surface estimation core",
		Commands: []*cli.Command{
			{
				Name: "construct-grid",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname for the new grid's backing store."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
					&cli.IntFlag{Name: "rows", Usage: "Number of grid rows."},
					&cli.IntFlag{Name: "cols", Usage: "Number of grid columns."},
					&cli.Float64Flag{Name: "spacing", Usage: "Node spacing, metres."},
					&cli.Float64Flag{Name: "origin-east", Usage: "Ground easting of node (0,0), metres."},
					&cli.Float64Flag{Name: "origin-north", Usage: "Ground northing of node (0,0), metres."},
					&cli.IntFlag{Name: "tile-size", Usage: "Nodes per tile side, power of two."},
					&cli.IntFlag{Name: "cache-capacity", Usage: "Maximum resident tiles."},
				},
				Action: func(cCtx *cli.Context) error {
					return constructGrid(
						cCtx.String("uri"), cCtx.String("config-uri"),
						cCtx.Int("rows"), cCtx.Int("cols"), cCtx.Float64("spacing"),
						cCtx.Float64("origin-east"), cCtx.Float64("origin-north"),
						cCtx.Int("tile-size"), cCtx.Int("cache-capacity"),
					)
				},
			},
			{
				Name: "assimilate-batch",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname to an existing grid's backing store."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
					&cli.StringFlag{Name: "soundings-uri", Usage: "Pathname to a single sounding-stream file."},
					&cli.StringFlag{Name: "soundings-dir", Usage: "Pathname to a directory of sounding-stream files."},
				},
				Action: func(cCtx *cli.Context) error {
					if dir := cCtx.String("soundings-dir"); dir != "" {
						return assimilateDir(cCtx.String("uri"), cCtx.String("config-uri"), dir)
					}
					return assimilateFile(cCtx.String("uri"), cCtx.String("config-uri"), cCtx.String("soundings-uri"))
				},
			},
			{
				Name: "read-surface",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname to an existing grid's backing store."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
					&cli.StringFlag{Name: "kind", Usage: "One of depth, uncertainty, count, strength."},
					&cli.StringFlag{Name: "out-uri", Usage: "Pathname to write the JSON-encoded surface to."},
				},
				Action: func(cCtx *cli.Context) error {
					return readSurface(cCtx.String("uri"), cCtx.String("config-uri"), cCtx.String("kind"), cCtx.String("out-uri"))
				},
			},
			{
				Name: "finalise",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "uri", Usage: "URI or pathname to an existing grid's backing store."},
					&cli.StringFlag{Name: "config-uri", Usage: "URI or pathname to a TileDB config file."},
				},
				Action: func(cCtx *cli.Context) error {
					return finalise(cCtx.String("uri"), cCtx.String("config-uri"))
				},
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}
