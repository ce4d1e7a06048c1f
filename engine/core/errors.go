package core

import (
	"errors"
)

var (
	// Transient: the surface no longer matches the window and must be rebuilt.
	ErrSwapchainOutOfDate = errors.New("swapchain out of date")
	// Transient: presentation still works but the surface should be rebuilt.
	ErrSwapchainSuboptimal = errors.New("swapchain suboptimal")

	// Fatal: the GPU did not answer within the wait bound.
	ErrDeviceTimeout = errors.New("device timed out")
	// Fatal: the logical device is gone.
	ErrDeviceLost = errors.New("device lost")

	ErrInvalidFrameOverlap = errors.New("frame overlap must be at least 1")
	ErrUnsupportedFormat   = errors.New("surface format not supported")
	ErrEngineInitialized   = errors.New("engine already initialized")
)

// IsSwapchainStale reports whether err means the swapchain has to be rebuilt
// rather than treated as a failure.
func IsSwapchainStale(err error) bool {
	return errors.Is(err, ErrSwapchainOutOfDate) || errors.Is(err, ErrSwapchainSuboptimal)
}

// IsDeviceFatal reports whether err means the GPU stopped answering. Nothing
// may wait on the device afterwards.
func IsDeviceFatal(err error) bool {
	return errors.Is(err, ErrDeviceTimeout) || errors.Is(err, ErrDeviceLost)
}
