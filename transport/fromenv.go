package transport

import (
	"fmt"
	"os"
	"strconv"
)

// childFd is where ExtraFiles places the first inherited descriptor.
const childFd = 3

// FromEnv builds the child half of whatever transport the parent
// configured. The kind travels through the environment because the child
// is a re-executed binary, not a fork continuation.
func FromEnv() (Writer, error) {
	switch Kind(os.Getenv(EnvKind)) {
	case SharedMemory:
		path := os.Getenv(EnvShmPath)
		if path == "" {
			return nil, fmt.Errorf("transport: %s is not set", EnvShmPath)
		}
		capacity, err := strconv.Atoi(os.Getenv(EnvShmCap))
		if err != nil {
			return nil, fmt.Errorf("transport: bad %s: %w", EnvShmCap, err)
		}
		return openSharedMemory(path, capacity)
	case Socket:
		return &socketWriter{f: os.NewFile(childFd, "isocall-socket")}, nil
	case Discard:
		return discardWriter{}, nil
	default:
		return nil, fmt.Errorf("transport: unknown kind %q in environment", os.Getenv(EnvKind))
	}
}
