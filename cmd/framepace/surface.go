// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"sync/atomic"
	"unsafe"

	"github.com/devblok/framepace/gfx"
	"github.com/veandco/go-sdl2/sdl"
)

// windowSurface is the Vulkan surface of an SDL window. The drawable
// size is read on the main thread by refresh, and can then be read
// from the render goroutine.
type windowSurface struct {
	window  *sdl.Window
	surface unsafe.Pointer

	width  uint32
	height uint32
}

func newWindowSurface(window *sdl.Window, instance interface{}) (*windowSurface, error) {
	srf, err := window.VulkanCreateSurface(instance)
	if err != nil {
		return nil, err
	}
	ws := &windowSurface{window: window, surface: srf}
	ws.refresh()
	return ws, nil
}

// refresh must be called from the thread that owns the window
func (s *windowSurface) refresh() {
	w, h := s.window.VulkanGetDrawableSize()
	if s.window.GetFlags()&sdl.WINDOW_MINIMIZED != 0 {
		w, h = 0, 0
	}
	atomic.StoreUint32(&s.width, uint32(w))
	atomic.StoreUint32(&s.height, uint32(h))
}

func (s *windowSurface) Handle() uintptr {
	return uintptr(s.surface)
}

func (s *windowSurface) PixelExtent() gfx.Extent2D {
	return gfx.Extent2D{
		Width:  atomic.LoadUint32(&s.width),
		Height: atomic.LoadUint32(&s.height),
	}
}

func (s *windowSurface) SupportsPresentation(a gfx.Adapter, family uint32) (bool, error) {
	return a.SurfaceSupport(s.Handle(), family)
}
