package codec_test

import (
	"testing"

	"github.com/programme-lv/isocall/codec"
	"github.com/stretchr/testify/require"
)

type box struct {
	V any
}

func roundTrip(t *testing.T, c codec.Codec, v any) any {
	t.Helper()
	data, err := c.Encode(box{V: v})
	require.NoError(t, err)
	var out box
	require.NoError(t, c.Decode(data, &out))
	return out.V
}

func TestGobRoundTrip(t *testing.T) {
	c := codec.Gob{}
	require.Equal(t, 2, roundTrip(t, c, 2))
	require.Equal(t, "a very long string", roundTrip(t, c, "a very long string"))
	require.Equal(t, []byte{1, 2, 3}, roundTrip(t, c, []byte{1, 2, 3}))
	require.Equal(t, map[string]any{"n": int64(5)}, roundTrip(t, c, map[string]any{"n": int64(5)}))
}

func TestZstdRoundTrip(t *testing.T) {
	c := codec.Zstd(codec.Gob{})
	require.Equal(t, "payload", roundTrip(t, c, "payload"))

	// compressed encoding of repetitive data should be much smaller
	long := make([]byte, 1<<16)
	plain, err := codec.Gob{}.Encode(box{V: long})
	require.NoError(t, err)
	packed, err := c.Encode(box{V: long})
	require.NoError(t, err)
	require.Less(t, len(packed), len(plain))
}

func TestLookup(t *testing.T) {
	c, err := codec.Lookup(codec.GobName)
	require.NoError(t, err)
	require.NotNil(t, c)

	c, err = codec.Lookup(codec.GobZstdName)
	require.NoError(t, err)
	require.NotNil(t, c)

	_, err = codec.Lookup("no-such-codec")
	require.Error(t, err)
}

func TestRegisterTwicePanics(t *testing.T) {
	codec.Register("codec-test-once", codec.Gob{})
	require.Panics(t, func() {
		codec.Register("codec-test-once", codec.Gob{})
	})
}
