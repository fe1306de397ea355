package microvulkan

import (
	"github.com/pkg/errors"
	vk "github.com/vulkan-go/vulkan"
)

var (
	// ErrFenceTimeout is returned when a fence wait or image acquire outlives Options.FenceTimeout
	ErrFenceTimeout = errors.New("fence wait timed out")
	// ErrPoolExhausted signals backpressure: no free queue or command buffer slot was available
	ErrPoolExhausted = errors.New("resource pool exhausted")
	// ErrInvalidState is returned when frame calls are made out of Acquire, Submit, Present order
	ErrInvalidState = errors.New("invalid frame state")
	// ErrNoSurfaceFormat is returned when the surface reports no formats at all
	ErrNoSurfaceFormat = errors.New("surface reports no formats")
)

// resultError converts a native result into a wrapped error, nil on success
func resultError(res vk.Result, msg string) error {
	if res == vk.Success {
		return nil
	}
	if res == vk.Timeout {
		return errors.Wrap(ErrFenceTimeout, msg)
	}
	return errors.Wrap(vk.Error(res), msg)
}
