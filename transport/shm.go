package transport

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/google/uuid"
	"golang.org/x/sys/unix"
)

const shmDir = "/dev/shm"

// prefixWidth returns the number of little-endian bytes used for the length
// prefix of a region with the given capacity. The all-ones value of the
// prefix is reserved as the overflow sentinel, so the width grows when the
// capacity would collide with it.
func prefixWidth(capacity int) int {
	w := 1
	for capacity >= (1<<(8*w))-1 {
		w++
	}
	return w
}

func sentinel(width int) uint64 {
	return 1<<(8*width) - 1
}

func putPrefix(dst []byte, v uint64) {
	for i := range dst {
		dst[i] = byte(v >> (8 * i))
	}
}

func getPrefix(src []byte) uint64 {
	var v uint64
	for i := range src {
		v |= uint64(src[i]) << (8 * i)
	}
	return v
}

type shmTransport struct {
	path     string
	capacity int
	width    int
	data     []byte
	released bool
}

// NewSharedMemory allocates a region of capacity+prefix bytes under
// /dev/shm with a call-unique name. The child attaches to it by name from
// the environment.
func NewSharedMemory(capacity int) (Transport, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("transport: capacity must be positive, got %d", capacity)
	}
	width := prefixWidth(capacity)
	path := filepath.Join(shmDir, "isocall-"+uuid.NewString())
	fd, err := unix.Open(path, unix.O_CREAT|unix.O_EXCL|unix.O_RDWR, 0o600)
	if err != nil {
		return nil, fmt.Errorf("transport: create shared memory region: %w", err)
	}
	size := width + capacity
	if err := unix.Ftruncate(fd, int64(size)); err != nil {
		unix.Close(fd)
		unix.Unlink(path)
		return nil, fmt.Errorf("transport: size shared memory region: %w", err)
	}
	data, err := unix.Mmap(fd, 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	unix.Close(fd)
	if err != nil {
		unix.Unlink(path)
		return nil, fmt.Errorf("transport: map shared memory region: %w", err)
	}
	liveRegions.Add(path)
	return &shmTransport{path: path, capacity: capacity, width: width, data: data}, nil
}

func (t *shmTransport) Kind() Kind { return SharedMemory }

func (t *shmTransport) Env() []string {
	return []string{
		EnvKind + "=" + string(SharedMemory),
		EnvShmPath + "=" + t.path,
		EnvShmCap + "=" + strconv.Itoa(t.capacity),
	}
}

func (t *shmTransport) Files() []*os.File { return nil }

func (t *shmTransport) Spawned() error { return nil }

func (t *shmTransport) Read() ([]byte, error) {
	if t.released {
		return nil, fmt.Errorf("transport: read after release")
	}
	length := getPrefix(t.data[:t.width])
	switch {
	case length == 0:
		return nil, ErrNothingWritten
	case length == sentinel(t.width):
		return nil, &OverflowError{Capacity: t.capacity}
	case length > uint64(t.capacity):
		return nil, fmt.Errorf("transport: corrupt length prefix %d exceeds capacity %d", length, t.capacity)
	}
	payload := make([]byte, length)
	copy(payload, t.data[t.width:t.width+int(length)])
	return payload, nil
}

func (t *shmTransport) Release() error {
	if t.released {
		return nil
	}
	t.released = true
	liveRegions.Remove(t.path)
	merr := unix.Munmap(t.data)
	t.data = nil
	uerr := unix.Unlink(t.path)
	if merr != nil {
		return fmt.Errorf("transport: unmap shared memory region: %w", merr)
	}
	if uerr != nil {
		return fmt.Errorf("transport: unlink shared memory region: %w", uerr)
	}
	return nil
}

type shmWriter struct {
	capacity int
	width    int
	data     []byte
}

// openSharedMemory attaches the child to the region the parent created.
func openSharedMemory(path string, capacity int) (*shmWriter, error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("transport: bad shared memory capacity %d", capacity)
	}
	width := prefixWidth(capacity)
	fd, err := unix.Open(path, unix.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("transport: open shared memory region: %w", err)
	}
	data, err := unix.Mmap(fd, 0, width+capacity, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	unix.Close(fd)
	if err != nil {
		return nil, fmt.Errorf("transport: map shared memory region: %w", err)
	}
	return &shmWriter{capacity: capacity, width: width, data: data}, nil
}

// Write places the payload after the length prefix. The prefix is written
// last so a partially written region never looks complete to the parent.
// Oversized payloads leave the overflow sentinel in the prefix instead of
// truncating or spilling past the region.
func (w *shmWriter) Write(payload []byte, isError bool) error {
	_ = isError // the outcome flag travels inside the payload for this transport
	if len(payload) > w.capacity {
		putPrefix(w.data[:w.width], sentinel(w.width))
		return &OverflowError{Size: len(payload), Capacity: w.capacity}
	}
	copy(w.data[w.width:], payload)
	putPrefix(w.data[:w.width], uint64(len(payload)))
	return nil
}

func (w *shmWriter) Close() error {
	if w.data == nil {
		return nil
	}
	err := unix.Munmap(w.data)
	w.data = nil
	return err
}
