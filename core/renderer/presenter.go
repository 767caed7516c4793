// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"math"
	"sync/atomic"

	"github.com/devblok/framepace/device"
	"github.com/devblok/framepace/gfx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Errors returned by the presenter
var (
	ErrInvalidCommandBuffer = errors.New("renderer: recording returned no command buffer")
	ErrPresenterClosed      = errors.New("renderer: presenter is shut down")
	ErrZeroExtent           = errors.New("renderer: surface has zero area")
)

// Target is what a RecordFunc records into.
type Target struct {
	// Frame is the frame slot the commands are recorded for.
	Frame int

	// Index of the acquired swapchain image.
	Index int

	Image  gfx.Image
	View   gfx.ImageView
	Format gfx.SurfaceFormat
	Extent gfx.Extent2D

	// OldLayout is the layout the image is in when the commands start:
	// undefined on first use since the swapchain was built, present
	// source afterwards.
	OldLayout gfx.Layout

	// CommandBuffer belongs to the frame slot and was reset.
	CommandBuffer gfx.CommandBuffer
}

// RecordFunc records the commands of a frame. The returned command
// buffer is submitted and must leave the image in the present source
// layout. Returning nil is an error.
type RecordFunc func(t Target) (gfx.CommandBuffer, error)

// Stats counts presenter activity.
type Stats struct {
	Presented uint64
	Skipped   uint64
	Rebuilds  uint64
}

// Presenter runs the acquire, record, submit and present loop on one
// device and surface. Apart from NotifyResize it must be used from a
// single goroutine.
type Presenter struct {
	stats   Stats
	resized int32

	device     gfx.Device
	surface    gfx.Surface
	swapchains *SwapchainManager
	frames     *FrameSyncSet
	log        logrus.FieldLogger

	cursor    int
	presented []bool
	closed    bool
}

// Initialize selects a device from the instance adapters that can
// present to surface and sets up a presenter on it. The instance
// and surface stay owned by the caller.
func Initialize(instance gfx.Instance, surface gfx.Surface, cfg Configuration, log logrus.FieldLogger) (*Presenter, error) {
	adapters, err := instance.Adapters()
	if err != nil {
		return nil, errors.Wrap(err, "enumerate adapters")
	}

	dev, err := device.Select(adapters, device.Requirements{
		MinAPIVersion: cfg.MinAPIVersion,
		Extensions:    cfg.DeviceExtensions,
		Surface:       surface,
	}, log)
	if err != nil {
		return nil, err
	}

	p, err := NewPresenter(dev, surface, cfg, log)
	if err != nil {
		dev.Release()
		return nil, err
	}
	return p, nil
}

// NewPresenter sets up a presenter on an existing device, which it
// owns from then on. On error the device is left to the caller.
func NewPresenter(dev gfx.Device, surface gfx.Surface, cfg Configuration, log logrus.FieldLogger) (*Presenter, error) {
	swapchains := NewSwapchainManager(dev, surface, cfg, log)
	if err := swapchains.Build(surface.PixelExtent()); err != nil {
		return nil, err
	}

	frames, err := NewFrameSyncSet(dev, cfg.FramesInFlight, swapchains.Current().ImageCount())
	if err != nil {
		swapchains.Destroy()
		return nil, err
	}

	return &Presenter{
		device:     dev,
		surface:    surface,
		swapchains: swapchains,
		frames:     frames,
		log:        log,
		presented:  make([]bool, swapchains.Current().ImageCount()),
	}, nil
}

// RenderFrame runs one tick of the loop. The fence wait of the frame
// slot is the only place it blocks on the GPU. A swapchain reported
// out of date on acquire is rebuilt and the tick is skipped without
// advancing the frame slot. Every returned error is fatal.
func (p *Presenter) RenderFrame(record RecordFunc) error {
	if p.closed {
		return ErrPresenterClosed
	}

	if atomic.SwapInt32(&p.resized, 0) == 1 {
		p.swapchains.MarkStale(SoftStale)
	}
	if p.swapchains.State() == StateStale {
		skip, err := p.rebuild()
		if err != nil {
			return err
		}
		if skip {
			atomic.AddUint64(&p.stats.Skipped, 1)
			return nil
		}
	}
	sc := p.swapchains.Current()

	if err := p.frames.Wait(p.cursor); err != nil {
		return err
	}

	acquireSem := p.frames.AcquireSemaphore(p.cursor)
	index, suboptimal, err := p.device.Acquire(sc.Handle(), acquireSem, math.MaxUint64)
	switch {
	case errors.Is(err, gfx.ErrOutOfDate):
		// Nothing was submitted, the fence stays signaled for the retry.
		p.swapchains.MarkStale(HardStale)
		atomic.AddUint64(&p.stats.Skipped, 1)
		_, err := p.rebuild()
		return err
	case err != nil:
		return errors.Wrap(err, "acquire image")
	}
	if index < 0 || index >= sc.ImageCount() {
		return errors.Errorf("acquired image %d of %d", index, sc.ImageCount())
	}
	if suboptimal {
		p.swapchains.MarkStale(SoftStale)
	}

	if err := p.frames.Reset(p.cursor); err != nil {
		return err
	}
	cb := p.frames.CommandBuffer(p.cursor)
	if err := cb.Reset(); err != nil {
		return errors.Wrap(err, "reset command buffer")
	}

	oldLayout := gfx.LayoutUndefined
	if p.presented[index] {
		oldLayout = gfx.LayoutPresentSrc
	}
	recorded, err := record(Target{
		Frame:         p.cursor,
		Index:         index,
		Image:         sc.Images[index],
		View:          sc.Views[index],
		Format:        sc.Format,
		Extent:        sc.Extent,
		OldLayout:     oldLayout,
		CommandBuffer: cb,
	})
	if err != nil {
		return errors.Wrap(err, "record frame")
	}
	if recorded == nil {
		return ErrInvalidCommandBuffer
	}

	renderSem := p.frames.RenderComplete(index)
	if err := p.device.Submit(gfx.Submission{
		CommandBuffer: recorded,
		Wait:          acquireSem,
		WaitStage:     gfx.StageColorAttachmentOutput,
		Signal:        renderSem,
		Fence:         p.frames.Fence(p.cursor),
	}); err != nil {
		return errors.Wrap(err, "submit frame")
	}
	p.presented[index] = true

	suboptimal, err = p.device.Present(sc.Handle(), index, renderSem)
	switch {
	case errors.Is(err, gfx.ErrOutOfDate):
		// The frame is already submitted, so finish it and rebuild next tick.
		p.swapchains.MarkStale(SoftStale)
	case err != nil:
		return errors.Wrap(err, "present image")
	default:
		atomic.AddUint64(&p.stats.Presented, 1)
		if suboptimal {
			p.swapchains.MarkStale(SoftStale)
		}
	}

	p.cursor = (p.cursor + 1) % p.frames.Frames()
	return nil
}

// rebuild waits for the device and replaces the swapchain. skip is
// set when the surface has no area and the tick has to be skipped.
func (p *Presenter) rebuild() (skip bool, err error) {
	if err := p.device.WaitIdle(); err != nil {
		return false, errors.Wrap(err, "wait for device idle")
	}

	if err := p.swapchains.Rebuild(p.surface.PixelExtent()); err != nil {
		if errors.Is(err, ErrZeroExtent) {
			p.log.Debug("surface has no area, skipping frame")
			return true, nil
		}
		return false, err
	}

	count := p.swapchains.Current().ImageCount()
	if err := p.frames.Resize(count); err != nil {
		return false, err
	}
	p.presented = make([]bool, count)
	atomic.AddUint64(&p.stats.Rebuilds, 1)
	return false, nil
}

// NotifyResize schedules a swapchain rebuild before the next acquire.
// It is safe to call from any goroutine.
func (p *Presenter) NotifyResize() {
	atomic.StoreInt32(&p.resized, 1)
}

// FrameCursor returns the frame slot the next tick records into.
func (p *Presenter) FrameCursor() int {
	return p.cursor
}

// Swapchain returns the current swapchain.
func (p *Presenter) Swapchain() *Swapchain {
	return p.swapchains.Current()
}

// SwapchainState returns the lifecycle state of the swapchain.
func (p *Presenter) SwapchainState() State {
	return p.swapchains.State()
}

// Stats returns the counters. It is safe to call from any goroutine.
func (p *Presenter) Stats() Stats {
	return Stats{
		Presented: atomic.LoadUint64(&p.stats.Presented),
		Skipped:   atomic.LoadUint64(&p.stats.Skipped),
		Rebuilds:  atomic.LoadUint64(&p.stats.Rebuilds),
	}
}

// Shutdown waits for the device to go idle, then releases the frame
// synchronization objects, the swapchain and the device, in that order.
// Calling it again does nothing.
func (p *Presenter) Shutdown() error {
	if p.closed {
		return nil
	}
	p.closed = true

	err := p.device.WaitIdle()
	p.frames.Release()
	p.swapchains.Destroy()
	p.device.Release()

	if err != nil {
		return errors.Wrap(err, "wait for device idle")
	}
	return nil
}
