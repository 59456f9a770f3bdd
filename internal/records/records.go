// Package records implements the binary record layout shared by index
// serialization and store snapshots:
//
//	dim(uint32) n(uint32) n x [idLen(uint32) id vec(float32[dim])]
//
// All integers and floats are little-endian; floats round-trip bit-exact.
package records

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/viant/lookalike/vector"
)

// ErrTruncated is returned when data ends inside a record.
var ErrTruncated = errors.New("records: truncated data")

// Marshal encodes parallel ids and vectors. Every vector must have dim values.
func Marshal(dim int, ids []string, vecs [][]float32) ([]byte, error) {
	if len(ids) != len(vecs) {
		return nil, fmt.Errorf("records: ids and vectors length mismatch: %d != %d", len(ids), len(vecs))
	}
	size := 8
	for _, id := range ids {
		size += 4 + len(id) + 4*dim
	}
	out := make([]byte, 0, size)
	out = binary.LittleEndian.AppendUint32(out, uint32(dim))
	out = binary.LittleEndian.AppendUint32(out, uint32(len(ids)))
	for i, id := range ids {
		if len(vecs[i]) != dim {
			return nil, &vector.DimensionMismatchError{Expected: dim, Actual: len(vecs[i])}
		}
		out = binary.LittleEndian.AppendUint32(out, uint32(len(id)))
		out = append(out, id...)
		out = vector.AppendEmbedding(out, vecs[i])
	}
	return out, nil
}

// Unmarshal decodes data produced by Marshal.
func Unmarshal(data []byte) (dim int, ids []string, vecs [][]float32, err error) {
	if len(data) < 8 {
		return 0, nil, nil, ErrTruncated
	}
	dim = int(binary.LittleEndian.Uint32(data[0:4]))
	n := int(binary.LittleEndian.Uint32(data[4:8]))
	off := 8
	// every record needs at least its id length prefix
	if n > (len(data)-off)/4 {
		return 0, nil, nil, ErrTruncated
	}
	ids = make([]string, n)
	vecs = make([][]float32, n)
	for i := 0; i < n; i++ {
		if off+4 > len(data) {
			return 0, nil, nil, ErrTruncated
		}
		idLen := int(binary.LittleEndian.Uint32(data[off:]))
		off += 4
		if idLen > len(data)-off {
			return 0, nil, nil, fmt.Errorf("records: id %d: %w", i, ErrTruncated)
		}
		ids[i] = string(data[off : off+idLen])
		off += idLen
		if 4*dim > len(data)-off {
			return 0, nil, nil, fmt.Errorf("records: vector %q: %w", ids[i], ErrTruncated)
		}
		if vecs[i], err = vector.DecodeEmbeddingDim(data[off:off+4*dim], dim); err != nil {
			return 0, nil, nil, err
		}
		off += 4 * dim
	}
	if off != len(data) {
		return 0, nil, nil, fmt.Errorf("records: %d trailing bytes", len(data)-off)
	}
	return dim, ids, vecs, nil
}
