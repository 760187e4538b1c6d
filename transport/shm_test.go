package transport

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPrefixWidth(t *testing.T) {
	cases := []struct {
		capacity int
		width    int
	}{
		{capacity: 1, width: 1},
		{capacity: 4, width: 1},
		{capacity: 254, width: 1},
		{capacity: 255, width: 2}, // would collide with the overflow sentinel
		{capacity: 300, width: 2},
		{capacity: 65534, width: 2},
		{capacity: 65535, width: 3},
		{capacity: 1 << 20, width: 3},
	}
	for _, c := range cases {
		require.Equal(t, c.width, prefixWidth(c.capacity), "capacity %d", c.capacity)
	}
}

func TestPrefixRoundTrip(t *testing.T) {
	buf := make([]byte, 3)
	putPrefix(buf, 70000)
	require.Equal(t, uint64(70000), getPrefix(buf))
}

func openWriterFor(t *testing.T, tr Transport) *shmWriter {
	t.Helper()
	shm := tr.(*shmTransport)
	w, err := openSharedMemory(shm.path, shm.capacity)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

func TestSharedMemoryRoundTrip(t *testing.T) {
	tr, err := NewSharedMemory(64)
	require.NoError(t, err)
	defer tr.Release()

	_, err = tr.Read()
	require.ErrorIs(t, err, ErrNothingWritten)

	w := openWriterFor(t, tr)
	payload := []byte("hello from the child")
	require.NoError(t, w.Write(payload, false))

	got, err := tr.Read()
	require.NoError(t, err)
	require.True(t, bytes.Equal(payload, got))
}

func TestSharedMemoryOverflow(t *testing.T) {
	tr, err := NewSharedMemory(4)
	require.NoError(t, err)
	defer tr.Release()

	w := openWriterFor(t, tr)
	err = w.Write([]byte("a very long string"), false)
	var childSide *OverflowError
	require.ErrorAs(t, err, &childSide)
	require.Equal(t, 4, childSide.Capacity)
	require.Equal(t, len("a very long string"), childSide.Size)

	_, err = tr.Read()
	var parentSide *OverflowError
	require.ErrorAs(t, err, &parentSide)
	require.Equal(t, 4, parentSide.Capacity)
}

func TestSharedMemoryRejectsBadCapacity(t *testing.T) {
	_, err := NewSharedMemory(0)
	require.Error(t, err)
	_, err = NewSharedMemory(-1)
	require.Error(t, err)
}

func TestSharedMemoryReleaseIdempotent(t *testing.T) {
	tr, err := NewSharedMemory(16)
	require.NoError(t, err)
	require.NoError(t, tr.Release())
	require.NoError(t, tr.Release())
	require.Empty(t, LiveRegions())
}

func TestSharedMemoryTracksLiveRegions(t *testing.T) {
	require.Empty(t, LiveRegions())
	tr, err := NewSharedMemory(16)
	require.NoError(t, err)
	require.Len(t, LiveRegions(), 1)
	require.NoError(t, tr.Release())
	require.Empty(t, LiveRegions())
}

func TestSharedMemoryCorruptPrefix(t *testing.T) {
	tr, err := NewSharedMemory(8)
	require.NoError(t, err)
	defer tr.Release()

	shm := tr.(*shmTransport)
	putPrefix(shm.data[:shm.width], 200) // claims more than the region holds

	_, err = tr.Read()
	require.Error(t, err)
	require.False(t, errors.Is(err, ErrNothingWritten))
}
