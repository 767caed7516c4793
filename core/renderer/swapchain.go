// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"fmt"

	"github.com/devblok/framepace/gfx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// State is the lifecycle state of the managed swapchain.
type State int

// Swapchain lifecycle states
const (
	StateUninitialized State = iota
	StateLive
	StateStale
	StateDestroyed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLive:
		return "live"
	case StateStale:
		return "stale"
	case StateDestroyed:
		return "destroyed"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// Staleness tells how urgently a swapchain has to be rebuilt.
type Staleness int

const (
	// Fresh swapchains match their surface.
	Fresh Staleness = iota

	// SoftStale swapchains may finish the frame in progress.
	SoftStale

	// HardStale swapchains must not be used again.
	HardStale
)

// Swapchain is a built swapchain with one view per image.
type Swapchain struct {
	handle gfx.Swapchain

	Images      []gfx.Image
	Views       []gfx.ImageView
	Format      gfx.SurfaceFormat
	Extent      gfx.Extent2D
	PresentMode gfx.PresentMode
	Transform   gfx.Transform
}

// Handle returns the backend swapchain.
func (s *Swapchain) Handle() gfx.Swapchain {
	return s.handle
}

// ImageCount returns the number of images the backend created,
// which may exceed the requested count.
func (s *Swapchain) ImageCount() int {
	return len(s.Images)
}

// release destroys the views before the swapchain that owns the images.
func (s *Swapchain) release() {
	for _, v := range s.Views {
		v.Release()
	}
	s.Views = nil
	s.Images = nil
	if s.handle != nil {
		s.handle.Release()
		s.handle = nil
	}
}

// SwapchainManager owns the swapchain of a surface and drives it
// through its lifecycle.
type SwapchainManager struct {
	device  gfx.Device
	surface gfx.Surface
	log     logrus.FieldLogger

	imageCount       uint32
	preferLowLatency bool

	current   *Swapchain
	state     State
	staleness Staleness
}

// NewSwapchainManager creates a manager with nothing built yet.
func NewSwapchainManager(dev gfx.Device, surface gfx.Surface, cfg Configuration, log logrus.FieldLogger) *SwapchainManager {
	return &SwapchainManager{
		device:           dev,
		surface:          surface,
		log:              log,
		imageCount:       cfg.SwapchainSize,
		preferLowLatency: cfg.PreferLowLatency,
	}
}

// State returns the lifecycle state.
func (m *SwapchainManager) State() State {
	return m.state
}

// Staleness returns how stale the swapchain is. Only meaningful
// in StateStale.
func (m *SwapchainManager) Staleness() Staleness {
	return m.staleness
}

// Current returns the swapchain, or nil before the first build.
// A hard stale swapchain is still returned but must not be used.
func (m *SwapchainManager) Current() *Swapchain {
	return m.current
}

// Build creates the first swapchain.
func (m *SwapchainManager) Build(requested gfx.Extent2D) error {
	if m.state != StateUninitialized {
		return errors.Errorf("renderer: build on %s swapchain", m.state)
	}

	sc, err := m.build(requested, nil)
	if err != nil {
		return err
	}
	m.current = sc
	m.state = StateLive
	m.staleness = Fresh
	return nil
}

// Rebuild replaces the swapchain. The device must be idle. The old
// swapchain is handed to the backend as a recycling hint and released
// only after its replacement exists. If the surface has no area
// ErrZeroExtent is returned and the old swapchain is kept, stale.
func (m *SwapchainManager) Rebuild(requested gfx.Extent2D) error {
	switch m.state {
	case StateLive, StateStale:
	default:
		return errors.Errorf("renderer: rebuild on %s swapchain", m.state)
	}

	sc, err := m.build(requested, m.current)
	if err != nil {
		if m.state == StateLive {
			m.MarkStale(SoftStale)
		}
		return err
	}

	m.current.release()
	m.current = sc
	m.state = StateLive
	m.staleness = Fresh
	return nil
}

// MarkStale records that the swapchain no longer matches its surface.
// The stronger staleness wins when marked more than once.
func (m *SwapchainManager) MarkStale(s Staleness) {
	if m.state != StateLive && m.state != StateStale {
		return
	}
	if s == Fresh {
		return
	}
	if m.state == StateLive || s > m.staleness {
		m.staleness = s
	}
	if m.state == StateLive {
		m.log.WithField("staleness", s).Debug("swapchain marked stale")
	}
	m.state = StateStale
}

// Destroy releases the swapchain. The device must be idle.
func (m *SwapchainManager) Destroy() {
	if m.current != nil {
		m.current.release()
		m.current = nil
	}
	m.state = StateDestroyed
}

func (m *SwapchainManager) build(requested gfx.Extent2D, old *Swapchain) (*Swapchain, error) {
	caps, err := m.device.SurfaceCapabilities(m.surface)
	if err != nil {
		return nil, errors.Wrap(err, "query surface capabilities")
	}
	formats, err := m.device.SurfaceFormats(m.surface)
	if err != nil {
		return nil, errors.Wrap(err, "query surface formats")
	}
	modes, err := m.device.PresentModes(m.surface)
	if err != nil {
		return nil, errors.Wrap(err, "query present modes")
	}

	format, err := ChooseSurfaceFormat(formats)
	if err != nil {
		return nil, err
	}
	extent := ResolveExtent(caps, requested)
	if extent.Empty() {
		return nil, ErrZeroExtent
	}
	// Clamping would hide a minimised window behind the minimum extent.
	if caps.CurrentExtent.Width == gfx.VariableExtent && requested.Empty() {
		return nil, ErrZeroExtent
	}

	info := gfx.SwapchainInfo{
		Surface:     m.surface,
		Format:      format,
		ImageCount:  ResolveImageCount(caps, m.imageCount),
		Extent:      extent,
		PresentMode: ChoosePresentMode(modes, m.preferLowLatency),
		Transform:   chooseTransform(caps),
	}
	if old != nil {
		info.Old = old.handle
	}

	handle, err := m.device.NewSwapchain(info)
	if err != nil {
		return nil, errors.Wrap(err, "create swapchain")
	}
	sc := &Swapchain{
		handle:      handle,
		Format:      info.Format,
		Extent:      info.Extent,
		PresentMode: info.PresentMode,
		Transform:   info.Transform,
	}

	if sc.Images, err = handle.Images(); err != nil {
		sc.release()
		return nil, errors.Wrap(err, "get swapchain images")
	}
	for i, img := range sc.Images {
		view, err := m.device.NewImageView(img, format.Format)
		if err != nil {
			sc.release()
			return nil, errors.Wrapf(err, "create view of swapchain image %d", i)
		}
		sc.Views = append(sc.Views, view)
	}

	m.log.WithFields(logrus.Fields{
		"format":      format.Format,
		"presentMode": info.PresentMode,
		"extent":      extent,
		"images":      len(sc.Images),
	}).Info("swapchain built")
	return sc, nil
}

// ChooseSurfaceFormat prefers an 8 bit sRGB format in the sRGB
// nonlinear colour space and falls back to the first format listed.
func ChooseSurfaceFormat(formats []gfx.SurfaceFormat) (gfx.SurfaceFormat, error) {
	if len(formats) == 0 {
		return gfx.SurfaceFormat{}, gfx.ErrNoSurfaceFormats
	}
	for _, f := range formats {
		if f.Format.IsSRGB8() && f.ColorSpace == gfx.ColorSpaceSRGBNonlinear {
			return f, nil
		}
	}
	return formats[0], nil
}

// ChoosePresentMode picks mailbox when low latency is preferred and the
// surface offers it. FIFO is always available, so it is the fallback.
func ChoosePresentMode(modes []gfx.PresentMode, preferLowLatency bool) gfx.PresentMode {
	if preferLowLatency {
		for _, m := range modes {
			if m == gfx.PresentModeMailbox {
				return m
			}
		}
	}
	return gfx.PresentModeFIFO
}

// ResolveExtent returns the surface's current extent, or the requested
// extent clamped to the surface limits when the surface lets the
// swapchain decide.
func ResolveExtent(caps gfx.SurfaceCapabilities, requested gfx.Extent2D) gfx.Extent2D {
	if caps.CurrentExtent.Width != gfx.VariableExtent {
		return caps.CurrentExtent
	}
	return gfx.Extent2D{
		Width:  clamp(requested.Width, caps.MinImageExtent.Width, caps.MaxImageExtent.Width),
		Height: clamp(requested.Height, caps.MinImageExtent.Height, caps.MaxImageExtent.Height),
	}
}

// ResolveImageCount raises the requested count to the surface minimum
// and caps it at the maximum, unless the maximum is zero (unbounded).
func ResolveImageCount(caps gfx.SurfaceCapabilities, requested uint32) uint32 {
	count := requested
	if count < caps.MinImageCount {
		count = caps.MinImageCount
	}
	if caps.MaxImageCount > 0 && count > caps.MaxImageCount {
		count = caps.MaxImageCount
	}
	return count
}

func chooseTransform(caps gfx.SurfaceCapabilities) gfx.Transform {
	if caps.SupportedTransforms&gfx.TransformIdentity != 0 {
		return gfx.TransformIdentity
	}
	return caps.CurrentTransform
}

func clamp(v, lo, hi uint32) uint32 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
