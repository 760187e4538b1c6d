package codec

import (
	"fmt"

	"github.com/klauspost/compress/zstd"
)

var (
	zstdEnc *zstd.Encoder
	zstdDec *zstd.Decoder
)

func init() {
	var err error
	zstdEnc, err = zstd.NewWriter(nil)
	if err != nil {
		panic(fmt.Errorf("codec: create zstd encoder: %w", err))
	}
	zstdDec, err = zstd.NewReader(nil)
	if err != nil {
		panic(fmt.Errorf("codec: create zstd decoder: %w", err))
	}
}

type zstdCodec struct {
	inner Codec
}

// Zstd wraps another codec with zstd compression of the encoded bytes.
// Useful with the shared memory transport where the payload has to fit a
// fixed capacity.
func Zstd(inner Codec) Codec {
	return zstdCodec{inner: inner}
}

func (c zstdCodec) Encode(v any) ([]byte, error) {
	raw, err := c.inner.Encode(v)
	if err != nil {
		return nil, err
	}
	return zstdEnc.EncodeAll(raw, nil), nil
}

func (c zstdCodec) Decode(data []byte, v any) error {
	raw, err := zstdDec.DecodeAll(data, nil)
	if err != nil {
		return fmt.Errorf("decompress payload: %w", err)
	}
	return c.inner.Decode(raw, v)
}
