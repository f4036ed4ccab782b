// Package compression provides the codecs used when persisting vector
// state. Serialized state is small and written rarely, so the codec set is
// deliberately short: zstd for ratio, s2 for speed, and a passthrough.
package compression

import (
	"fmt"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"

	"github.com/vectral/lazyvec/pkg/pool"
)

// Algorithm identifies a compression codec by name.
type Algorithm string

const (
	// None is the passthrough codec.
	None Algorithm = "none"
	// Zstd is Zstandard compression.
	Zstd Algorithm = "zstd"
	// S2 is the Snappy-compatible s2 codec.
	S2 Algorithm = "s2"
)

// Codec compresses and decompresses byte payloads.
type Codec interface {
	Name() Algorithm
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// Get returns the codec for the given algorithm name. An empty name maps
// to the passthrough codec.
func Get(name string) (Codec, error) {
	switch Algorithm(name) {
	case "", None:
		return noneCodec{}, nil
	case Zstd:
		return &zstdCodec{}, nil
	case S2:
		return s2Codec{}, nil
	default:
		return nil, fmt.Errorf("unknown compression codec %q", name)
	}
}

type noneCodec struct{}

func (noneCodec) Name() Algorithm                        { return None }
func (noneCodec) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCodec) Decompress(data []byte) ([]byte, error) { return data, nil }

// zstd encoders and decoders are expensive to build, so they are pooled
// and reused across calls.
var (
	zstdEncoders = pool.New(
		func() *zstd.Encoder {
			enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
			return enc
		},
		nil,
	)
	zstdDecoders = pool.New(
		func() *zstd.Decoder {
			dec, _ := zstd.NewReader(nil)
			return dec
		},
		nil,
	)
)

type zstdCodec struct{}

func (*zstdCodec) Name() Algorithm { return Zstd }

func (*zstdCodec) Compress(data []byte) ([]byte, error) {
	enc := zstdEncoders.Get()
	defer zstdEncoders.Put(enc)
	return enc.EncodeAll(data, nil), nil
}

func (*zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec := zstdDecoders.Get()
	defer zstdDecoders.Put(dec)
	return dec.DecodeAll(data, nil)
}

type s2Codec struct{}

func (s2Codec) Name() Algorithm { return S2 }

func (s2Codec) Compress(data []byte) ([]byte, error) {
	return s2.Encode(nil, data), nil
}

func (s2Codec) Decompress(data []byte) ([]byte, error) {
	return s2.Decode(nil, data)
}
