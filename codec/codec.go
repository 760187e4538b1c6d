// Package codec encodes call arguments and outcomes so they can cross the
// process boundary. A codec must round-trip both ordinary values and error
// objects.
package codec

import (
	"fmt"

	"github.com/puzpuzpuz/xsync/v3"
)

type Codec interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

// Codecs are registered under a name because the parent and the child are
// separate processes of the same binary: the parent picks a codec and the
// child resolves the same one by name from its environment.
var registry = xsync.NewMapOf[string, Codec]()

const (
	GobName     = "gob"
	GobZstdName = "gob+zstd"
)

func init() {
	Register(GobName, Gob{})
	Register(GobZstdName, Zstd(Gob{}))
}

// Register makes a codec resolvable by name in both the parent and the
// child. Registering the same name twice panics.
func Register(name string, c Codec) {
	if name == "" || c == nil {
		panic("codec: registration needs a name and a codec")
	}
	if _, loaded := registry.LoadOrStore(name, c); loaded {
		panic(fmt.Sprintf("codec: %q registered twice", name))
	}
}

// Lookup resolves a previously registered codec.
func Lookup(name string) (Codec, error) {
	c, ok := registry.Load(name)
	if !ok {
		return nil, fmt.Errorf("codec: %q is not registered", name)
	}
	return c, nil
}
