package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/arloliu/blocktally/errs"
	"github.com/arloliu/blocktally/region"
)

type chunkInfo struct {
	Slot        int       `json:"slot"`
	X           int       `json:"x"`
	Z           int       `json:"z"`
	WorldX      int       `json:"world_x"`
	WorldZ      int       `json:"world_z"`
	Offset      uint32    `json:"offset"`
	Sectors     uint8     `json:"sectors"`
	Size        int       `json:"size"`
	Compression string    `json:"compression,omitempty"`
	External    bool      `json:"external,omitempty"`
	Modified    time.Time `json:"modified"`
	Error       string    `json:"error,omitempty"`
}

type regionInfo struct {
	Path    string      `json:"path"`
	X       int         `json:"x"`
	Z       int         `json:"z"`
	Size    int64       `json:"size"`
	Present int         `json:"present"`
	Chunks  []chunkInfo `json:"chunks"`
}

func newInfoCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "info <region>",
		Short: "List the chunks of a region file",
		Long: `Info prints the header of a region file: one row per present chunk with
its location, allocated sectors, compression scheme and modification time.
Slots whose header entry is inconsistent with the file are listed with the
error instead.`,
		Args: cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			info, err := readRegionInfo(args[0])
			if err != nil {
				return err
			}

			if a.jsonOut {
				return a.printJSON(info)
			}
			renderRegionInfo(a, info)

			return nil
		},
	}
}

func readRegionInfo(path string) (*regionInfo, error) {
	f, err := region.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info := &regionInfo{
		Path:    path,
		X:       f.Coord().X,
		Z:       f.Coord().Z,
		Size:    f.Size(),
		Present: f.Header().Count(),
		Chunks:  make([]chunkInfo, 0, f.Header().Count()),
	}

	for c, err := range f.Chunks() {
		ci := chunkInfo{
			Slot:     c.Index,
			X:        c.X,
			Z:        c.Z,
			WorldX:   c.WorldX(),
			WorldZ:   c.WorldZ(),
			Offset:   c.Location.Offset,
			Sectors:  c.Location.Sectors,
			Size:     len(c.Data),
			Modified: c.Location.ModTime(),
		}
		if err != nil {
			var ce *errs.ChunkError
			if errors.As(err, &ce) {
				err = ce.Err
			}
			ci.Error = err.Error()
		} else {
			ci.Compression = c.Compression.String()
			ci.External = c.External
		}
		info.Chunks = append(info.Chunks, ci)
	}

	return info, nil
}

func renderRegionInfo(a *app, info *regionInfo) {
	a.printInfo("Region %d,%d  %s\n", info.X, info.Z, info.Path)
	a.printInfo("Size: %s  Chunks: %d/%d\n\n", humanize.IBytes(uint64(info.Size)), info.Present, region.ChunksPerRegion) //nolint:gosec

	if len(info.Chunks) == 0 || a.quiet {
		return
	}

	t := newTable([]string{"SLOT", "CHUNK", "WORLD", "SECTOR", "SECTORS", "SIZE", "COMPRESSION", "MODIFIED"}, 0, 3, 4, 5)
	for _, c := range info.Chunks {
		compression := c.Compression
		switch {
		case c.Error != "":
			compression = "error: " + c.Error
		case c.External:
			compression += " (external)"
		}
		t.Row(
			fmt.Sprint(c.Slot),
			fmt.Sprintf("%d,%d", c.X, c.Z),
			fmt.Sprintf("%d,%d", c.WorldX, c.WorldZ),
			fmt.Sprint(c.Offset),
			fmt.Sprint(c.Sectors),
			humanize.IBytes(uint64(c.Size)), //nolint:gosec
			compression,
			c.Modified.Format(time.RFC3339),
		)
	}
	fmt.Fprintln(a.out, t.Render())
}
