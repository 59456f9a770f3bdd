package snapshot

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/viant/lookalike/embedding"
	"github.com/viant/lookalike/internal/records"
)

const (
	magic      = "LKSNAP"
	version    = 1
	headerSize = len(magic) + 2 + 8
	// maxBody guards allocations when reading corrupt headers.
	maxBody = 1 << 31
)

// ErrFormat is returned for data that is not a snapshot.
var ErrFormat = errors.New("snapshot: invalid format")

// Option configures Write.
type Option func(*writeOptions)

type writeOptions struct {
	codec Codec
}

// WithCodec selects body compression (default none).
func WithCodec(c Codec) Option {
	return func(o *writeOptions) { o.codec = c }
}

// Write serializes store to w.
func Write(w io.Writer, store *embedding.Store, opts ...Option) error {
	o := &writeOptions{}
	for _, opt := range opts {
		opt(o)
	}
	ids := make([]string, 0, store.Len())
	vecs := make([][]float32, 0, store.Len())
	store.Range(func(id string, vec []float32) bool {
		ids = append(ids, id)
		vecs = append(vecs, vec)
		return true
	})
	raw, err := records.Marshal(store.Dim(), ids, vecs)
	if err != nil {
		return fmt.Errorf("snapshot: encode: %w", err)
	}
	body, codec, err := compress(raw, o.codec)
	if err != nil {
		return err
	}
	header := make([]byte, 0, headerSize)
	header = append(header, magic...)
	header = append(header, version, byte(codec))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(raw)))
	header = binary.LittleEndian.AppendUint32(header, uint32(len(body)))
	if _, err := w.Write(header); err != nil {
		return fmt.Errorf("snapshot: write header: %w", err)
	}
	if _, err := w.Write(body); err != nil {
		return fmt.Errorf("snapshot: write body: %w", err)
	}
	return nil
}

// Read deserializes a store written by Write. The returned store is not frozen.
func Read(r io.Reader) (*embedding.Store, error) {
	header := make([]byte, headerSize)
	if _, err := io.ReadFull(r, header); err != nil {
		return nil, fmt.Errorf("snapshot: read header: %w", err)
	}
	if !bytes.Equal(header[:len(magic)], []byte(magic)) {
		return nil, ErrFormat
	}
	off := len(magic)
	if v := header[off]; v != version {
		return nil, fmt.Errorf("snapshot: unsupported version %d", v)
	}
	codec := Codec(header[off+1])
	rawSize := binary.LittleEndian.Uint32(header[off+2:])
	size := binary.LittleEndian.Uint32(header[off+6:])
	if rawSize > maxBody || size > maxBody {
		return nil, fmt.Errorf("%w: body too large", ErrFormat)
	}
	body := make([]byte, size)
	if _, err := io.ReadFull(r, body); err != nil {
		return nil, fmt.Errorf("snapshot: read body: %w", err)
	}
	raw, err := decompress(body, codec, int(rawSize))
	if err != nil {
		return nil, err
	}
	_, ids, vecs, err := records.Unmarshal(raw)
	if err != nil {
		return nil, fmt.Errorf("snapshot: decode: %w", err)
	}
	store := embedding.NewStore()
	for i, id := range ids {
		if err := store.Put(id, vecs[i]); err != nil {
			return nil, fmt.Errorf("snapshot: record %q: %w", id, err)
		}
	}
	return store, nil
}

// Save writes store to path atomically through a temporary file.
func Save(path string, store *embedding.Store, opts ...Option) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("snapshot: create dir: %w", err)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("snapshot: create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmp.Name())
		}
	}()
	if err = Write(tmp, store, opts...); err != nil {
		return err
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("snapshot: sync: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("snapshot: close: %w", err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("snapshot: rename: %w", err)
	}
	return nil
}

// Load reads the snapshot at path.
func Load(path string) (*embedding.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("snapshot: open: %w", err)
	}
	defer f.Close()
	return Read(f)
}
