// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer_test

import (
	"errors"
	"testing"

	"github.com/devblok/framepace/core/renderer"
	"github.com/devblok/framepace/gfx"
	"github.com/stretchr/testify/require"
)

func testConfiguration() renderer.Configuration {
	cfg := renderer.DefaultConfiguration()
	cfg.FramesInFlight = 2
	cfg.SwapchainSize = 3
	return cfg
}

func newTestPresenter(t testing.TB, dev *fakeDevice, cfg renderer.Configuration) (*renderer.Presenter, *fakeSurface) {
	surface := &fakeSurface{extent: gfx.Extent2D{Width: 800, Height: 600}}
	p, err := renderer.NewPresenter(dev, surface, cfg, quietLogger())
	require.NoError(t, err)
	return p, surface
}

func renderFrames(t *testing.T, p *renderer.Presenter, n int, record renderer.RecordFunc) {
	for i := 0; i < n; i++ {
		require.NoError(t, p.RenderFrame(record))
	}
}

func TestRenderFrameProtocol(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())

	var frames []int
	renderFrames(t, p, 20, func(target renderer.Target) (gfx.CommandBuffer, error) {
		frames = append(frames, target.Frame)
		return target.CommandBuffer, nil
	})

	require.Empty(t, dev.violations)
	require.Len(t, dev.submissions, 20)
	require.Len(t, dev.presented, 20)
	require.Equal(t, 20, dev.fenceWaits)
	require.Zero(t, dev.waitIdles)

	signalOf := map[int]gfx.Semaphore{}
	for i, s := range dev.submissions {
		require.Equal(t, i%2, frames[i])
		require.Equal(t, gfx.StageColorAttachmentOutput, s.WaitStage)
		require.True(t, s.Wait != s.Signal)

		index := dev.presented[i]
		if sem, ok := signalOf[index]; ok {
			require.True(t, sem == s.Signal, "image %d signals a different semaphore", index)
		}
		signalOf[index] = s.Signal
	}
	require.Len(t, signalOf, 3)

	require.Equal(t, uint64(20), p.Stats().Presented)
	require.Equal(t, 0, p.FrameCursor())
}

func TestRenderFrameBlocksOnlyOnFrameFence(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfiguration()
	cfg.FramesInFlight = 3
	p, _ := newTestPresenter(t, dev, cfg)

	renderFrames(t, p, 3, passThrough)
	require.Equal(t, 3, dev.pending(), "three frames may be in flight")

	renderFrames(t, p, 1, passThrough)
	require.Equal(t, 3, dev.pending())
	require.Equal(t, fencePending, dev.fences[0].state, "slot 0 was waited on and reused")
	require.Empty(t, dev.violations)
}

func TestOldLayoutTracksPresentation(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())

	var layouts []gfx.Layout
	record := func(target renderer.Target) (gfx.CommandBuffer, error) {
		layouts = append(layouts, target.OldLayout)
		return target.CommandBuffer, nil
	}
	renderFrames(t, p, 4, record)
	require.Equal(t, []gfx.Layout{
		gfx.LayoutUndefined, gfx.LayoutUndefined, gfx.LayoutUndefined, gfx.LayoutPresentSrc,
	}, layouts)

	layouts = nil
	p.NotifyResize()
	renderFrames(t, p, 1, record)
	require.Equal(t, []gfx.Layout{gfx.LayoutUndefined}, layouts)
}

func TestHardStaleSkipsTick(t *testing.T) {
	dev := newFakeDevice()
	dev.acquireErr[5] = gfx.ErrOutOfDate
	p, _ := newTestPresenter(t, dev, testConfiguration())

	var cursors []int
	for tick := 1; tick <= 10; tick++ {
		require.NoError(t, p.RenderFrame(passThrough))
		cursors = append(cursors, p.FrameCursor())

		if tick == 5 {
			require.Len(t, dev.submissions, 4, "no submission on the stale tick")
			require.Len(t, dev.presented, 4, "no presentation on the stale tick")
			require.Len(t, dev.swapchains, 2, "swapchain rebuilt on the stale tick")
			require.Equal(t, 1, dev.waitIdles)
			require.Equal(t, renderer.StateLive, p.SwapchainState())
		}
	}

	require.Equal(t, []int{1, 0, 1, 0, 0, 1, 0, 1, 0, 1}, cursors)
	require.Len(t, dev.submissions, 9)
	require.Len(t, dev.presented, 9)
	require.True(t, dev.swapchains[0].released)
	require.Empty(t, dev.violations)

	stats := p.Stats()
	require.Equal(t, uint64(9), stats.Presented)
	require.Equal(t, uint64(1), stats.Skipped)
	require.Equal(t, uint64(1), stats.Rebuilds)
}

func TestSoftStaleAcquirePresentsThenRebuilds(t *testing.T) {
	dev := newFakeDevice()
	dev.acquireSuboptimal[3] = true
	p, _ := newTestPresenter(t, dev, testConfiguration())

	renderFrames(t, p, 3, passThrough)
	require.Len(t, dev.presented, 3, "suboptimal frame is still presented")
	require.Len(t, dev.swapchains, 1)

	dev.events = nil
	renderFrames(t, p, 1, passThrough)
	require.Len(t, dev.swapchains, 2)
	require.Len(t, dev.presented, 4)

	old, current := dev.swapchains[0], dev.swapchains[1]
	require.True(t, current.info.Old == gfx.Swapchain(old), "old swapchain handed over as hint")
	require.True(t, old.released)
	require.Equal(t, 1, current.next, "tick 4 acquired from the new swapchain")
	require.Empty(t, dev.violations)

	idle := dev.firstEvent("wait idle")
	created := dev.firstEvent("create swapchain")
	released := dev.firstEvent("release swapchain")
	require.True(t, idle >= 0 && idle < created, "device idle before rebuild")
	require.True(t, created < released, "new swapchain exists before the old one is released")
	require.True(t, released < dev.firstEvent("submit"))
}

func TestPresentOutOfDateRebuildsNextTick(t *testing.T) {
	dev := newFakeDevice()
	dev.presentErr[2] = gfx.ErrOutOfDate
	p, _ := newTestPresenter(t, dev, testConfiguration())

	renderFrames(t, p, 2, passThrough)
	require.Len(t, dev.submissions, 2)
	require.Equal(t, 0, p.FrameCursor(), "submitted frame advances the cursor")
	require.Equal(t, renderer.StateStale, p.SwapchainState())

	renderFrames(t, p, 1, passThrough)
	require.Len(t, dev.swapchains, 2)
	require.Equal(t, renderer.StateLive, p.SwapchainState())
	require.Empty(t, dev.violations)
}

func TestPresentSuboptimalRebuildsNextTick(t *testing.T) {
	dev := newFakeDevice()
	dev.presentSuboptimal[2] = true
	p, _ := newTestPresenter(t, dev, testConfiguration())

	renderFrames(t, p, 2, passThrough)
	require.Len(t, dev.presented, 2, "suboptimal frame is still presented")
	require.Equal(t, uint64(2), p.Stats().Presented)
	require.Equal(t, renderer.StateStale, p.SwapchainState())
	require.Len(t, dev.swapchains, 1)

	dev.events = nil
	renderFrames(t, p, 1, passThrough)
	require.Len(t, dev.swapchains, 2)
	require.Equal(t, renderer.StateLive, p.SwapchainState())
	require.Equal(t, uint64(1), p.Stats().Rebuilds)
	require.True(t, dev.firstEvent("create swapchain") < dev.firstEvent("acquire"), "rebuilt before acquiring")
	require.Equal(t, 1, dev.swapchains[1].next, "tick 3 acquired from the new swapchain")
	require.Empty(t, dev.violations)
}

func TestFatalPresentError(t *testing.T) {
	dev := newFakeDevice()
	dev.presentErr[1] = gfx.ErrSurfaceLost
	p, _ := newTestPresenter(t, dev, testConfiguration())

	err := p.RenderFrame(passThrough)
	require.True(t, errors.Is(err, gfx.ErrSurfaceLost))
	require.Len(t, dev.submissions, 1)
	require.Zero(t, p.Stats().Presented)
	require.Equal(t, 0, p.FrameCursor())
	require.Equal(t, renderer.StateLive, p.SwapchainState())
}

func TestFatalSubmitError(t *testing.T) {
	dev := newFakeDevice()
	dev.submitErr[1] = gfx.ErrDeviceLost
	p, _ := newTestPresenter(t, dev, testConfiguration())

	err := p.RenderFrame(passThrough)
	require.True(t, errors.Is(err, gfx.ErrDeviceLost))
	require.Empty(t, dev.submissions)
	require.Zero(t, dev.presents)
	require.Equal(t, 0, p.FrameCursor())
}

func TestNotifyResizeResizesRenderSemaphores(t *testing.T) {
	dev := newFakeDevice()
	cfg := testConfiguration()
	p, surface := newTestPresenter(t, dev, cfg)
	require.Equal(t, cfg.FramesInFlight+3, dev.live["semaphore"])

	renderFrames(t, p, 2, passThrough)

	dev.caps.MinImageCount = 5
	surface.extent = gfx.Extent2D{Width: 1024, Height: 768}
	p.NotifyResize()
	renderFrames(t, p, 1, passThrough)

	require.Equal(t, 5, p.Swapchain().ImageCount())
	require.Equal(t, gfx.Extent2D{Width: 1024, Height: 768}, p.Swapchain().Extent)
	require.Equal(t, cfg.FramesInFlight+5, dev.live["semaphore"])
	require.Equal(t, 5, dev.live["view"])
	require.Equal(t, 1, dev.live["swapchain"])
	require.Empty(t, dev.violations)
}

func TestRenderSemaphoresMatchImageCount(t *testing.T) {
	for _, maxCount := range []uint32{8, 0} {
		for requested := uint32(1); requested <= 10; requested++ {
			dev := newFakeDevice()
			dev.caps.MaxImageCount = maxCount
			cfg := testConfiguration()
			cfg.SwapchainSize = requested

			expected := renderer.ResolveImageCount(dev.caps, requested)
			p, _ := newTestPresenter(t, dev, cfg)
			require.Equal(t, int(expected), p.Swapchain().ImageCount())
			require.Equal(t, cfg.FramesInFlight+int(expected), dev.live["semaphore"], "max %d requested %d", maxCount, requested)

			p.NotifyResize()
			require.NoError(t, p.RenderFrame(passThrough))
			require.Equal(t, cfg.FramesInFlight+int(expected), dev.live["semaphore"])
			require.NoError(t, p.Shutdown())
			require.Empty(t, dev.violations)
		}
	}
}

func TestZeroExtentSkipsUntilRestored(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())
	renderFrames(t, p, 2, passThrough)

	// Minimised: the surface reports a fixed zero extent.
	dev.caps.CurrentExtent = gfx.Extent2D{}
	dev.acquireErr[3] = gfx.ErrOutOfDate
	renderFrames(t, p, 3, passThrough)
	require.Len(t, dev.submissions, 2)
	require.Len(t, dev.swapchains, 1)
	require.Equal(t, renderer.StateStale, p.SwapchainState())
	require.Equal(t, uint64(3), p.Stats().Skipped)

	dev.caps.CurrentExtent = gfx.Extent2D{Width: 640, Height: 480}
	renderFrames(t, p, 1, passThrough)
	require.Len(t, dev.submissions, 3)
	require.Len(t, dev.swapchains, 2)
	require.Equal(t, gfx.Extent2D{Width: 640, Height: 480}, p.Swapchain().Extent)
	require.Empty(t, dev.violations)
}

func TestRecordingNilCommandBuffer(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())

	err := p.RenderFrame(func(renderer.Target) (gfx.CommandBuffer, error) {
		return nil, nil
	})
	require.True(t, errors.Is(err, renderer.ErrInvalidCommandBuffer))
	require.Empty(t, dev.submissions)
}

func TestRecordingError(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())

	boom := errors.New("boom")
	err := p.RenderFrame(func(renderer.Target) (gfx.CommandBuffer, error) {
		return nil, boom
	})
	require.True(t, errors.Is(err, boom))
	require.Empty(t, dev.submissions)
}

func TestFatalAcquireError(t *testing.T) {
	dev := newFakeDevice()
	dev.acquireErr[1] = gfx.ErrDeviceLost
	p, _ := newTestPresenter(t, dev, testConfiguration())

	err := p.RenderFrame(passThrough)
	require.True(t, errors.Is(err, gfx.ErrDeviceLost))
	require.Empty(t, dev.submissions)
}

func TestShutdownOrder(t *testing.T) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(t, dev, testConfiguration())
	renderFrames(t, p, 5, passThrough)

	dev.events = nil
	require.NoError(t, p.Shutdown())
	require.Empty(t, dev.violations)
	require.True(t, dev.released)
	for kind, n := range dev.live {
		require.Zero(t, n, kind)
	}

	require.Equal(t, "wait idle", dev.events[0])
	require.Equal(t, "release device", dev.events[len(dev.events)-1])
	lastSync := dev.lastEvent("release fence", "release semaphore", "release commandbuffer")
	firstView := dev.firstEvent("release view")
	swapchain := dev.firstEvent("release swapchain")
	require.True(t, lastSync < firstView, "frame sync objects go before the swapchain views")
	require.True(t, dev.lastEvent("release view") < swapchain, "views go before their swapchain")

	require.NoError(t, p.Shutdown())
	require.True(t, errors.Is(p.RenderFrame(passThrough), renderer.ErrPresenterClosed))
}

func TestNewPresenterRejectsEmptyFormats(t *testing.T) {
	dev := newFakeDevice()
	dev.formats = nil
	surface := &fakeSurface{extent: gfx.Extent2D{Width: 800, Height: 600}}

	_, err := renderer.NewPresenter(dev, surface, testConfiguration(), quietLogger())
	require.True(t, errors.Is(err, gfx.ErrNoSurfaceFormats))
}

func TestInitialize(t *testing.T) {
	dev := newFakeDevice()
	old := &fakeAdapter{name: "old", version: gfx.MakeVersion(1, 0, 0), dev: newFakeDevice()}
	good := &fakeAdapter{name: "good", version: gfx.MakeVersion(1, 3, 0), dev: dev}
	instance := &fakeInstance{adapters: []gfx.Adapter{old, good}}
	surface := &fakeSurface{extent: gfx.Extent2D{Width: 800, Height: 600}}

	cfg := testConfiguration()
	cfg.MinAPIVersion = gfx.MakeVersion(1, 3, 0)
	p, err := renderer.Initialize(instance, surface, cfg, quietLogger())
	require.NoError(t, err)
	require.Zero(t, old.created)
	require.Equal(t, 1, good.created)

	renderFrames(t, p, 3, passThrough)
	require.Len(t, dev.presented, 3)
	require.NoError(t, p.Shutdown())

	cfg.MinAPIVersion = gfx.MakeVersion(1, 4, 0)
	_, err = renderer.Initialize(instance, surface, cfg, quietLogger())
	require.True(t, errors.Is(err, gfx.ErrNoSuitableDevice))
}

func BenchmarkRenderFrame(b *testing.B) {
	dev := newFakeDevice()
	p, _ := newTestPresenter(b, dev, testConfiguration())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := p.RenderFrame(passThrough); err != nil {
			b.Fatal(err)
		}
	}
}
