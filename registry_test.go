package isocall_test

import (
	"testing"

	"github.com/programme-lv/isocall"
	"github.com/stretchr/testify/require"
)

func TestRegisterValidation(t *testing.T) {
	require.Panics(t, func() {
		isocall.Register("", func(args any) (any, error) { return nil, nil })
	})
	require.Panics(t, func() {
		isocall.Register("nil-func", nil)
	})

	isocall.Register("registry-test-once", func(args any) (any, error) { return nil, nil })
	require.Panics(t, func() {
		isocall.Register("registry-test-once", func(args any) (any, error) { return nil, nil })
	})
}
