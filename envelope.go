package isocall

import (
	"encoding/gob"
	"fmt"

	"github.com/programme-lv/isocall/codec"
)

// envelope is the single payload shape that crosses the process boundary,
// both for arguments going in and outcomes coming back. IsError set means
// Value holds the error the task raised.
type envelope struct {
	IsError bool
	Value   any
}

func init() {
	gob.Register(RemoteError{})
}

// encodeOutcome packs a task result. Error values whose concrete type the
// codec cannot encode degrade to RemoteError so the message still makes it
// back to the parent.
func encodeOutcome(c codec.Codec, v any, taskErr error) (payload []byte, isError bool, err error) {
	env := envelope{}
	if taskErr != nil {
		env.IsError = true
		env.Value = taskErr
		if b, encErr := c.Encode(env); encErr == nil {
			return b, true, nil
		}
		env.Value = RemoteError{Msg: taskErr.Error()}
	} else {
		env.Value = v
	}
	b, encErr := c.Encode(env)
	if encErr != nil {
		return nil, env.IsError, fmt.Errorf("encode outcome: %w", encErr)
	}
	return b, env.IsError, nil
}

// decodeOutcome unpacks a payload read from the transport. The second
// return is the re-materialized child error, distinct from decode failures.
func decodeOutcome(c codec.Codec, payload []byte) (any, error, error) {
	var env envelope
	if err := c.Decode(payload, &env); err != nil {
		return nil, nil, fmt.Errorf("decode outcome: %w", err)
	}
	if env.IsError {
		if e, ok := env.Value.(error); ok {
			return nil, e, nil
		}
		return nil, RemoteError{Msg: fmt.Sprintf("%v", env.Value)}, nil
	}
	return env.Value, nil, nil
}
