package snapshot

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Codec selects body compression.
type Codec uint8

const (
	CodecNone Codec = 0
	CodecLZ4  Codec = 1
	CodecZstd Codec = 2
)

// ParseCodec resolves "none", "lz4" or "zstd"; "" means none.
func ParseCodec(name string) (Codec, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "none":
		return CodecNone, nil
	case "lz4":
		return CodecLZ4, nil
	case "zstd":
		return CodecZstd, nil
	}
	return 0, fmt.Errorf("snapshot: unknown codec %q", name)
}

func (c Codec) String() string {
	switch c {
	case CodecNone:
		return "none"
	case CodecLZ4:
		return "lz4"
	case CodecZstd:
		return "zstd"
	}
	return fmt.Sprintf("codec(%d)", uint8(c))
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil)
}

// compress returns the stored body and the codec actually used; input that
// lz4 cannot shrink is stored uncompressed.
func compress(data []byte, codec Codec) ([]byte, Codec, error) {
	switch codec {
	case CodecNone:
		return data, CodecNone, nil
	case CodecLZ4:
		out := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, out, nil)
		if err != nil {
			return nil, codec, fmt.Errorf("snapshot: lz4: %w", err)
		}
		if n == 0 {
			return data, CodecNone, nil
		}
		return out[:n], CodecLZ4, nil
	case CodecZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, codec, fmt.Errorf("snapshot: zstd: %w", err)
		}
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(data, nil), CodecZstd, nil
	}
	return nil, codec, fmt.Errorf("snapshot: unsupported codec %s", codec)
}

func decompress(data []byte, codec Codec, rawSize int) ([]byte, error) {
	switch codec {
	case CodecNone:
		if len(data) != rawSize {
			return nil, errors.New("snapshot: body size mismatch")
		}
		return data, nil
	case CodecLZ4:
		out := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(data, out)
		if err != nil {
			return nil, fmt.Errorf("snapshot: lz4: %w", err)
		}
		if n != rawSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return out, nil
	case CodecZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("snapshot: zstd: %w", err)
		}
		defer zstdDecoderPool.Put(dec)
		out, err := dec.DecodeAll(data, make([]byte, 0, rawSize))
		if err != nil {
			return nil, fmt.Errorf("snapshot: zstd: %w", err)
		}
		if len(out) != rawSize {
			return nil, errors.New("snapshot: decompressed size mismatch")
		}
		return out, nil
	}
	return nil, fmt.Errorf("snapshot: unsupported codec %s", codec)
}
