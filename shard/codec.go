package shard

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how shard payloads are compressed on disk.
type Compression uint8

const (
	// CompressionZstd stores payloads as a zstd frame. Default.
	CompressionZstd Compression = iota
	// CompressionLZ4 stores payloads as an lz4 frame.
	CompressionLZ4
	// CompressionNone stores the raw payload, readable as plain JSON.
	CompressionNone
)

func (c Compression) String() string {
	switch c {
	case CompressionZstd:
		return "zstd"
	case CompressionLZ4:
		return "lz4"
	case CompressionNone:
		return "none"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// Frame magics, little-endian on disk. Decoding sniffs these instead of
// trusting configuration, so a store can be reopened with a different
// compression setting and still read its old shards.
var (
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	lz4Magic  = []byte{0x04, 0x22, 0x4d, 0x18}
)

// Encoder/decoder pools for efficiency
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	// Level 3 balances compression ratio vs speed
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func putZstdEncoder(enc *zstd.Encoder) {
	zstdEncoderPool.Put(enc)
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

func putZstdDecoder(dec *zstd.Decoder) {
	zstdDecoderPool.Put(dec)
}

// compress wraps payload in a frame of the requested compression.
func compress(payload []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionZstd:
		enc := getZstdEncoder()
		defer putZstdEncoder(enc)
		return enc.EncodeAll(payload, nil), nil

	case CompressionLZ4:
		var buf bytes.Buffer
		w := lz4.NewWriter(&buf)
		if _, err := w.Write(payload); err != nil {
			return nil, err
		}
		if err := w.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil

	case CompressionNone:
		return payload, nil

	default:
		return nil, fmt.Errorf("unknown compression %d", uint8(c))
	}
}

// decompress unwraps a shard file into its payload, sniffing the frame magic.
// Data without a known magic is treated as a raw payload.
func decompress(data []byte) ([]byte, error) {
	switch {
	case bytes.HasPrefix(data, zstdMagic):
		dec := getZstdDecoder()
		defer putZstdDecoder(dec)
		return dec.DecodeAll(data, nil)

	case bytes.HasPrefix(data, lz4Magic):
		return io.ReadAll(lz4.NewReader(bytes.NewReader(data)))

	default:
		return data, nil
	}
}
