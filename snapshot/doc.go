// Package snapshot persists an embedding store to a single binary file.
//
// Layout (little-endian):
//
//	magic   "LKSNAP"
//	version uint8
//	codec   uint8   (0 none, 1 lz4, 2 zstd)
//	rawSize uint32  size of the uncompressed body
//	size    uint32  size of the stored body
//	body    records: dim, n, then n x (idLen, id, float32[dim])
//
// Records are written in ascending identifier order and float32 values
// round-trip bit-exact.
package snapshot
