// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import "github.com/devblok/framepace/gfx"

// Configuration describes the renderer configuration
type Configuration struct {
	// FramesInFlight is how many frames the CPU may record
	// ahead of the GPU. Fixed for the lifetime of a Presenter.
	FramesInFlight int

	// SwapchainSize is the requested image count, clamped
	// to what the surface allows.
	SwapchainSize uint32

	// PreferLowLatency selects mailbox presentation when available.
	PreferLowLatency bool

	MinAPIVersion    gfx.Version
	DeviceExtensions []string

	ScreenWidth  uint32
	ScreenHeight uint32
}

// DefaultConfiguration returns double buffered frames in flight
// on a triple buffered swapchain.
func DefaultConfiguration() Configuration {
	return Configuration{
		FramesInFlight:   2,
		SwapchainSize:    3,
		PreferLowLatency: true,
		MinAPIVersion:    gfx.MakeVersion(1, 0, 0),
		DeviceExtensions: []string{"VK_KHR_swapchain"},
		ScreenWidth:      800,
		ScreenHeight:     600,
	}
}
