package main

import (
	"fmt"
	"maps"
	"slices"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/voxelforge/worldstore/endian"
	"github.com/voxelforge/worldstore/geom"
	"github.com/voxelforge/worldstore/region"
)

func coordArg(cCtx *cli.Context) (geom.Vec3, error) {
	if cCtx.Args().Len() != 1 {
		return geom.Vec3{}, fmt.Errorf("expected one x.y.z coordinate, got %d arguments", cCtx.Args().Len())
	}

	return geom.Parse(cCtx.Args().First())
}

func regionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "regions",
		Usage: "list region files with their chunk counts",
		Action: func(cCtx *cli.Context) error {
			store, fsys, err := openStore(cCtx)
			if err != nil {
				return err
			}
			regions, err := store.Regions()
			if err != nil {
				return err
			}

			tw := tabwriter.NewWriter(cCtx.App.Writer, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "REGION\tCHUNKS\tBYTES")
			for _, r := range regions {
				f, err := fsys.Open(store.RegionPath(r))
				if err != nil {
					return err
				}
				info, statErr := f.Stat()
				h, err := region.ReadHeader(f, store.Options().RegionSize.Volume())
				_ = f.Close()

				switch {
				case statErr != nil:
					return statErr
				case err != nil:
					fmt.Fprintf(tw, "%s\tunreadable: %v\t%d\n", r, err, info.Size())
				default:
					fmt.Fprintf(tw, "%s\t%d\t%d\n", r, h.Present(), info.Size())
				}
			}

			return tw.Flush()
		},
	}
}

func inspectCommand() *cli.Command {
	return &cli.Command{
		Name:      "inspect",
		Usage:     "show the block-state palette and offset table of one region",
		ArgsUsage: "x.y.z",
		Action: func(cCtx *cli.Context) error {
			pos, err := coordArg(cCtx)
			if err != nil {
				return err
			}
			store, fsys, err := openStore(cCtx)
			if err != nil {
				return err
			}

			f, err := fsys.Open(store.RegionPath(pos))
			if err != nil {
				return err
			}
			defer f.Close()

			size := store.Options().RegionSize
			h, err := region.ReadHeader(f, size.Volume())
			if err != nil {
				return err
			}

			w := cCtx.App.Writer
			fmt.Fprintf(w, "region %s: %d of %d slots, header %d bytes, bodies %d bytes\n",
				pos, h.Present(), size.Volume(), h.Size, h.End)

			fmt.Fprintln(w, "\npalette:")
			for id, s := range h.States {
				fmt.Fprintf(w, "  %4d  %s\n", id, s)
			}

			fmt.Fprintln(w, "\nchunks:")
			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  LOCAL\tWORLD\tOFFSET\tBYTES")
			for slot := range h.Offsets {
				off, length, ok := h.Span(slot)
				if !ok {
					continue
				}
				local := geom.FromIndex(slot, size)
				fmt.Fprintf(tw, "  %s\t%s\t%d\t%d\n", local, store.ChunkCoord(pos, local), off, length)
			}

			return tw.Flush()
		},
	}
}

func chunkCommand() *cli.Command {
	return &cli.Command{
		Name:      "chunk",
		Usage:     "summarize one chunk by world chunk coordinate",
		ArgsUsage: "x.y.z",
		Action: func(cCtx *cli.Context) error {
			pos, err := coordArg(cCtx)
			if err != nil {
				return err
			}
			store, _, err := openStore(cCtx)
			if err != nil {
				return err
			}

			c, ok, err := store.LoadChunk(cCtx.Context, pos)
			if err != nil {
				return err
			}
			w := cCtx.App.Writer
			if !ok {
				fmt.Fprintf(w, "chunk %s is not generated\n", pos)
				return nil
			}

			counts := make(map[uint32]int)
			for _, id := range c.Blocks() {
				counts[id]++
			}

			r, local := store.Locate(pos)
			fmt.Fprintf(w, "chunk %s (region %s, local %s), %d blocks, %d block entities\n",
				pos, r, local, c.Volume(), c.EntityCount())

			tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "  STATE\tCOUNT")
			for _, id := range slices.Sorted(maps.Keys(counts)) {
				name := fmt.Sprintf("#%d", id)
				if s, ok := store.Resolver().State(id); ok {
					name = s.Key()
				}
				fmt.Fprintf(tw, "  %s\t%d\n", name, counts[id])
			}
			if err := tw.Flush(); err != nil {
				return err
			}

			for i, blob := range c.Entities() {
				fmt.Fprintf(w, "  entity at %s: %d bytes\n", geom.FromIndex(i, c.Size()), len(blob))
			}

			return nil
		},
	}
}

func optionsCommand() *cli.Command {
	return &cli.Command{
		Name:  "options",
		Usage: "print the world.options file",
		Action: func(cCtx *cli.Context) error {
			store, _, err := openStore(cCtx)
			if err != nil {
				return err
			}

			o := store.Options()
			w := cCtx.App.Writer
			fmt.Fprintf(w, "root:        %s\n", store.Root())
			fmt.Fprintf(w, "id:          %s\n", o.ID)
			fmt.Fprintf(w, "version:     %d\n", o.Version)
			fmt.Fprintf(w, "region size: %s chunks\n", o.RegionSize)
			fmt.Fprintf(w, "chunk size:  %s blocks\n", o.ChunkSize)
			fmt.Fprintf(w, "byte order:  %s\n", endian.Name(endian.Default()))

			return nil
		},
	}
}
