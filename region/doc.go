// Package region reads Anvil region files.
//
// A region file stores the 32x32 chunks of one region. It starts with two
// 4 KiB tables of big-endian uint32 values: the location table, where each
// entry is (sector offset << 8 | sector count), and the timestamp table.
// Chunk payloads follow, aligned to 4 KiB sectors:
//
//	+--------+--------+-----------------------+---------+
//	| length | scheme | compressed tag data   | padding |
//	| 4 B BE | 1 B    | length-1 bytes        |         |
//	+--------+--------+-----------------------+---------+
//
// A scheme with the 0x80 bit set marks a chunk too large for its sectors; its
// compressed data lives in c.<x>.<z>.mcc next to the region file.
//
// Open maps the file read-only and Chunks yields payload spans lazily:
//
//	f, err := region.Open("world/region/r.0.-1.mca")
//	if err != nil {
//	    return err
//	}
//	defer f.Close()
//
//	for c, err := range f.Chunks() {
//	    if err != nil {
//	        log.Print(err) // one damaged slot; the rest still decode
//	        continue
//	    }
//	    buf := pool.GetChunkBuffer()
//	    if _, err := f.Decompress(c, buf); err != nil {
//	        ...
//	    }
//	}
//
// The format carries no checksums, so integrity checks are limited to the
// header agreeing with the file length and the payload prefix agreeing with
// its sectors.
package region
