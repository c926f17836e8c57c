package main

import (
	"bytes"
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/arloliu/blocktally/chunk"
	"github.com/arloliu/blocktally/compress"
	"github.com/arloliu/blocktally/format"
	"github.com/arloliu/blocktally/nbt"
	"github.com/arloliu/blocktally/region"
)

type dumpFlags struct {
	compact  bool
	sections bool
}

func newDumpCmd(a *app) *cobra.Command {
	f := &dumpFlags{}

	cmd := &cobra.Command{
		Use:   "dump <region> <x> <z> | dump <file.dat>",
		Short: "Print a chunk or NBT file as stringified NBT",
		Long: `Dump decodes one chunk of a region file, addressed by its region-local
coordinates (0..31), and prints its tag tree in stringified NBT form.

With a single argument it prints a standalone NBT file such as level.dat;
gzip and zlib compressed files are detected automatically.

Examples:
  blocktally dump world/region/r.0.0.mca 3 7
  blocktally dump world/region/r.0.0.mca 3 7 --sections
  blocktally dump world/level.dat --compact`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 && len(args) != 3 {
				return fmt.Errorf("accepts 1 or 3 arg(s), received %d", len(args))
			}

			return nil
		},
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 1 {
				return dumpFile(a, f, args[0])
			}

			x, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("invalid chunk x %q", args[1])
			}
			z, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("invalid chunk z %q", args[2])
			}

			return dumpChunk(a, f, args[0], x, z)
		},
	}

	cmd.Flags().BoolVar(&f.compact, "compact", false, "Print on a single line")
	cmd.Flags().BoolVar(&f.sections, "sections", false, "Print a summary of the chunk's block sections instead")

	return cmd
}

func dumpChunk(a *app, f *dumpFlags, path string, x, z int) error {
	rf, err := region.Open(path)
	if err != nil {
		return err
	}
	defer rf.Close()

	c, err := rf.ChunkAt(x, z)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if _, err := rf.Decompress(c, &buf); err != nil {
		return err
	}
	a.printVerbose("Chunk %d,%d: %s, %d bytes compressed, %d bytes decoded\n",
		c.WorldX(), c.WorldZ(), c.Compression, len(c.Data), buf.Len())

	name, root, err := nbt.Decode(buf.Bytes())
	if err != nil {
		return err
	}
	if f.sections {
		return printSections(a, root)
	}

	return printTag(a, f, name, root)
}

func dumpFile(a *app, f *dumpFlags, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	ct := sniffCompression(data)
	if ct != format.CompressionNone {
		codec, err := compress.GetCodec(ct)
		if err != nil {
			return err
		}
		if data, err = codec.Decompress(data); err != nil {
			return err
		}
	}
	a.printVerbose("%s: %s, %d bytes decoded\n", path, ct, len(data))

	name, tag, err := nbt.DecodeTag(data)
	if err != nil {
		return err
	}

	return printTag(a, f, name, tag)
}

// sniffCompression recognizes the gzip magic and the common zlib headers.
func sniffCompression(data []byte) format.CompressionType {
	switch {
	case len(data) >= 2 && data[0] == 0x1f && data[1] == 0x8b:
		return format.CompressionGzip
	case len(data) >= 2 && data[0] == 0x78 && (uint16(data[0])<<8|uint16(data[1]))%31 == 0:
		return format.CompressionZlib
	default:
		return format.CompressionNone
	}
}

func printTag(a *app, f *dumpFlags, name string, tag nbt.Tag) error {
	if a.jsonOut {
		return a.printJSON(map[string]string{"name": name, "snbt": nbt.Stringify(tag)})
	}

	text := nbt.StringifyIndent(tag, "  ")
	if f.compact {
		text = nbt.Stringify(tag)
	}
	if name != "" {
		text = name + ": " + text
	}
	_, err := fmt.Fprintln(a.out, text)

	return err
}

type sectionSummary struct {
	Y           int    `json:"y"`
	Palette     int    `json:"palette"`
	Bits        int    `json:"bits"` // 0 when nothing is packed
	Homogeneous bool   `json:"homogeneous"`
	Top         string `json:"top"`
	TopCount    uint64 `json:"top_count"`
}

func printSections(a *app, root *nbt.Compound) error {
	c, err := chunk.Parse(root, chunk.WithBlockStates())
	if err != nil {
		return err
	}

	summaries := make([]sectionSummary, 0, len(c.Sections))
	for i := range c.Sections {
		s := &c.Sections[i]
		sum := sectionSummary{
			Y:           s.Y,
			Palette:     len(s.Palette),
			Bits:        s.BitsPerIndex(),
			Homogeneous: s.Homogeneous(),
		}
		if sum.Homogeneous {
			sum.Bits = 0
		}
		err := s.Count(func(id string, n uint64) {
			if n > sum.TopCount {
				sum.Top, sum.TopCount = id, n
			}
		})
		if err != nil {
			return fmt.Errorf("section %d: %w", s.Y, err)
		}
		summaries = append(summaries, sum)
	}

	if a.jsonOut {
		return a.printJSON(map[string]any{
			"revision":     c.Revision.String(),
			"data_version": c.DataVersion,
			"x":            c.X,
			"z":            c.Z,
			"sections":     summaries,
		})
	}

	a.printInfo("Chunk %d,%d  %s  DataVersion %d\n\n", c.X, c.Z, c.Revision, c.DataVersion)
	t := newTable([]string{"Y", "PALETTE", "BITS", "MOST COMMON", "COUNT"}, 0, 1, 2, 4)
	for _, s := range summaries {
		bits := "-"
		if s.Bits > 0 {
			bits = strconv.Itoa(s.Bits)
		}
		t.Row(strconv.Itoa(s.Y), strconv.Itoa(s.Palette), bits, s.Top, comma(s.TopCount))
	}
	_, err = fmt.Fprintln(a.out, t.Render())

	return err
}
