// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import "errors"

// Error kinds reported by backends. Match them with errors.Is.
var (
	// ErrOutOfDate means the swapchain no longer matches its surface
	// and must be rebuilt before further use.
	ErrOutOfDate = errors.New("gfx: swapchain out of date")

	ErrNoSuitableDevice = errors.New("gfx: no suitable device")
	ErrDeviceLost       = errors.New("gfx: device lost")
	ErrSurfaceLost      = errors.New("gfx: surface lost")
	ErrTimeout          = errors.New("gfx: timeout")

	// ErrNoSurfaceFormats means the surface reported no formats at all.
	ErrNoSurfaceFormats = errors.New("gfx: surface reports no formats")
)
