// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"fmt"
	"io/ioutil"

	"github.com/devblok/framepace/core/renderer"
	"github.com/devblok/framepace/gfx"
	"github.com/sirupsen/logrus"
)

type fenceState int

const (
	fenceSignaled fenceState = iota
	fenceUnsignaled
	fencePending
)

type fakeObject struct {
	dev      *fakeDevice
	kind     string
	id       int
	released bool
}

func (o *fakeObject) Inner() interface{} { return o.id }

func (o *fakeObject) Release() {
	if o.released {
		o.dev.violate("%s %d released twice", o.kind, o.id)
		return
	}
	if o.kind != "fence" && o.kind != "commandbuffer" && o.dev.pending() > 0 {
		o.dev.violate("%s %d released while work is pending", o.kind, o.id)
	}
	o.released = true
	o.dev.live[o.kind]--
	o.dev.event("release %s", o.kind)
}

type fakeFence struct {
	fakeObject
	state    fenceState
	observed bool
}

type fakeSemaphore struct {
	fakeObject
	signaled bool
}

type fakeCommandBuffer struct {
	fakeObject
	resets int
}

func (c *fakeCommandBuffer) Reset() error {
	c.resets++
	return nil
}

type fakeImage struct {
	swapchain int
	index     int
}

func (i fakeImage) Inner() interface{} { return i }

type fakeView struct {
	fakeObject
	image gfx.Image
}

type fakeSwapchain struct {
	fakeObject
	info   gfx.SwapchainInfo
	images []gfx.Image
	next   int
}

func (s *fakeSwapchain) Images() ([]gfx.Image, error) {
	return s.images, nil
}

type fakeSurface struct {
	extent gfx.Extent2D
}

func (s *fakeSurface) Handle() uintptr { return 1 }

func (s *fakeSurface) PixelExtent() gfx.Extent2D { return s.extent }

func (s *fakeSurface) SupportsPresentation(gfx.Adapter, uint32) (bool, error) { return true, nil }

// fakeDevice completes GPU work only when a fence is waited on or the
// device is waited idle, so submissions stay in flight as long as
// possible. Protocol mistakes are collected in violations.
type fakeDevice struct {
	caps    gfx.SurfaceCapabilities
	formats []gfx.SurfaceFormat
	modes   []gfx.PresentMode

	// Scripted results, keyed by the 1-based call number.
	acquireErr        map[int]error
	acquireSuboptimal map[int]bool
	submitErr         map[int]error
	presentErr        map[int]error
	presentSuboptimal map[int]bool

	nextID     int
	live       map[string]int
	acquires   int
	submits    int
	presents   int
	fenceWaits int
	waitIdles  int

	swapchains  []*fakeSwapchain
	fences      []*fakeFence
	submissions []gfx.Submission
	presented   []int
	events      []string
	violations  []string
	released    bool
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		caps: gfx.SurfaceCapabilities{
			MinImageCount:       2,
			MaxImageCount:       8,
			CurrentExtent:       gfx.Extent2D{Width: gfx.VariableExtent, Height: gfx.VariableExtent},
			MinImageExtent:      gfx.Extent2D{Width: 100, Height: 100},
			MaxImageExtent:      gfx.Extent2D{Width: 4000, Height: 4000},
			SupportedTransforms: gfx.TransformIdentity,
			CurrentTransform:    gfx.TransformIdentity,
		},
		formats: []gfx.SurfaceFormat{
			{Format: gfx.FormatB8G8R8A8Unorm, ColorSpace: gfx.ColorSpaceSRGBNonlinear},
			{Format: gfx.FormatB8G8R8A8SRGB, ColorSpace: gfx.ColorSpaceSRGBNonlinear},
		},
		modes:             []gfx.PresentMode{gfx.PresentModeFIFO, gfx.PresentModeMailbox},
		acquireErr:        map[int]error{},
		acquireSuboptimal: map[int]bool{},
		submitErr:         map[int]error{},
		presentErr:        map[int]error{},
		presentSuboptimal: map[int]bool{},
		live:              map[string]int{},
	}
}

func (d *fakeDevice) violate(format string, args ...interface{}) {
	d.violations = append(d.violations, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) event(format string, args ...interface{}) {
	d.events = append(d.events, fmt.Sprintf(format, args...))
}

func (d *fakeDevice) object(kind string) fakeObject {
	if d.released {
		d.violate("%s created on released device", kind)
	}
	d.nextID++
	d.live[kind]++
	return fakeObject{dev: d, kind: kind, id: d.nextID}
}

func (d *fakeDevice) pending() int {
	n := 0
	for _, f := range d.fences {
		if f.state == fencePending {
			n++
		}
	}
	return n
}

func (d *fakeDevice) lastSwapchainInfo() gfx.SwapchainInfo {
	return d.swapchains[len(d.swapchains)-1].info
}

func (d *fakeDevice) firstEvent(names ...string) int {
	for i, e := range d.events {
		for _, name := range names {
			if e == name {
				return i
			}
		}
	}
	return -1
}

func (d *fakeDevice) lastEvent(names ...string) int {
	for i := len(d.events) - 1; i >= 0; i-- {
		for _, name := range names {
			if d.events[i] == name {
				return i
			}
		}
	}
	return -1
}

func (d *fakeDevice) Inner() interface{} { return d }

func (d *fakeDevice) QueueFamily() uint32 { return 0 }

func (d *fakeDevice) Release() {
	for kind, n := range d.live {
		if n != 0 {
			d.violate("device released with %d %s alive", n, kind)
		}
	}
	d.released = true
	d.event("release device")
}

func (d *fakeDevice) SurfaceCapabilities(gfx.Surface) (gfx.SurfaceCapabilities, error) {
	return d.caps, nil
}

func (d *fakeDevice) SurfaceFormats(gfx.Surface) ([]gfx.SurfaceFormat, error) {
	return d.formats, nil
}

func (d *fakeDevice) PresentModes(gfx.Surface) ([]gfx.PresentMode, error) {
	return d.modes, nil
}

func (d *fakeDevice) NewSwapchain(info gfx.SwapchainInfo) (gfx.Swapchain, error) {
	if info.Old != nil && info.Old.(*fakeSwapchain).released {
		d.violate("released swapchain passed as old")
	}
	sc := &fakeSwapchain{fakeObject: d.object("swapchain"), info: info}
	for i := 0; i < int(info.ImageCount); i++ {
		sc.images = append(sc.images, fakeImage{swapchain: sc.id, index: i})
	}
	d.swapchains = append(d.swapchains, sc)
	d.event("create swapchain")
	return sc, nil
}

func (d *fakeDevice) NewImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	return &fakeView{fakeObject: d.object("view"), image: img}, nil
}

func (d *fakeDevice) NewFence(signaled bool) (gfx.Fence, error) {
	f := &fakeFence{fakeObject: d.object("fence"), state: fenceUnsignaled}
	if signaled {
		f.state = fenceSignaled
	}
	d.fences = append(d.fences, f)
	return f, nil
}

func (d *fakeDevice) NewSemaphore() (gfx.Semaphore, error) {
	return &fakeSemaphore{fakeObject: d.object("semaphore")}, nil
}

func (d *fakeDevice) NewCommandBuffer() (gfx.CommandBuffer, error) {
	return &fakeCommandBuffer{fakeObject: d.object("commandbuffer")}, nil
}

func (d *fakeDevice) WaitFence(f gfx.Fence, timeout uint64) error {
	d.fenceWaits++
	ff := f.(*fakeFence)
	switch ff.state {
	case fenceUnsignaled:
		d.violate("wait on fence %d that nothing will signal", ff.id)
		return gfx.ErrTimeout
	case fencePending:
		ff.state = fenceSignaled
	}
	ff.observed = true
	return nil
}

func (d *fakeDevice) ResetFence(f gfx.Fence) error {
	ff := f.(*fakeFence)
	if ff.state == fencePending {
		d.violate("reset of fence %d in use", ff.id)
	}
	ff.state = fenceUnsignaled
	return nil
}

func (d *fakeDevice) Acquire(sc gfx.Swapchain, signal gfx.Semaphore, timeout uint64) (int, bool, error) {
	d.acquires++
	d.event("acquire")
	fsc := sc.(*fakeSwapchain)
	if fsc.released {
		d.violate("acquire from released swapchain %d", fsc.id)
	}
	if err := d.acquireErr[d.acquires]; err != nil {
		return 0, false, err
	}

	sem := signal.(*fakeSemaphore)
	if sem.signaled {
		d.violate("acquire signals semaphore %d twice", sem.id)
	}
	sem.signaled = true

	index := fsc.next
	fsc.next = (fsc.next + 1) % len(fsc.images)
	return index, d.acquireSuboptimal[d.acquires], nil
}

func (d *fakeDevice) Submit(s gfx.Submission) error {
	d.submits++
	if err := d.submitErr[d.submits]; err != nil {
		return err
	}
	if s.CommandBuffer == nil {
		d.violate("submit without command buffer")
	}
	if w := s.Wait.(*fakeSemaphore); !w.signaled {
		d.violate("submit waits on unsignaled semaphore %d", w.id)
	} else {
		w.signaled = false
	}
	if sig := s.Signal.(*fakeSemaphore); sig.signaled {
		d.violate("submit signals semaphore %d twice", sig.id)
	} else {
		sig.signaled = true
	}

	f := s.Fence.(*fakeFence)
	if f.state != fenceUnsignaled {
		d.violate("submit with fence %d not reset", f.id)
	}
	if !f.observed {
		d.violate("submit reuses frame of fence %d before it was seen signaled", f.id)
	}
	f.state = fencePending
	f.observed = false

	d.submissions = append(d.submissions, s)
	d.event("submit")
	return nil
}

func (d *fakeDevice) Present(sc gfx.Swapchain, index int, wait gfx.Semaphore) (bool, error) {
	d.presents++
	w := wait.(*fakeSemaphore)
	if !w.signaled {
		d.violate("present waits on unsignaled semaphore %d", w.id)
	}
	w.signaled = false

	if err := d.presentErr[d.presents]; err != nil {
		return false, err
	}
	d.presented = append(d.presented, index)
	return d.presentSuboptimal[d.presents], nil
}

func (d *fakeDevice) WaitIdle() error {
	d.waitIdles++
	for _, f := range d.fences {
		if f.state == fencePending {
			f.state = fenceSignaled
		}
	}
	d.event("wait idle")
	return nil
}

type fakeAdapter struct {
	name    string
	version gfx.Version
	dev     *fakeDevice
	created int
}

func (a *fakeAdapter) Inner() interface{} { return a }

func (a *fakeAdapter) Info() gfx.AdapterInfo {
	return gfx.AdapterInfo{Name: a.name, APIVersion: a.version}
}

func (a *fakeAdapter) QueueFamilies() ([]gfx.QueueFamily, error) {
	return []gfx.QueueFamily{{Index: 0, Count: 1, Graphics: true}}, nil
}

func (a *fakeAdapter) Extensions() ([]string, error) {
	return []string{"VK_KHR_swapchain"}, nil
}

func (a *fakeAdapter) SurfaceSupport(uintptr, uint32) (bool, error) { return true, nil }

func (a *fakeAdapter) NewDevice(uint32, []string) (gfx.Device, error) {
	a.created++
	return a.dev, nil
}

type fakeInstance struct {
	adapters []gfx.Adapter
}

func (i *fakeInstance) Inner() interface{} { return i }

func (i *fakeInstance) Release() {}

func (i *fakeInstance) Adapters() ([]gfx.Adapter, error) { return i.adapters, nil }

func quietLogger() logrus.FieldLogger {
	l := logrus.New()
	l.Out = ioutil.Discard
	return l
}

// passThrough records nothing and submits the slot's command buffer.
func passThrough(t renderer.Target) (gfx.CommandBuffer, error) {
	return t.CommandBuffer, nil
}
