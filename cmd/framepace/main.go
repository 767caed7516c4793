// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"context"
	"flag"
	"fmt"
	"math"
	"os"
	"runtime"
	"runtime/pprof"
	"runtime/trace"
	"sync"
	"time"

	"github.com/devblok/framepace/core"
	"github.com/devblok/framepace/core/renderer"
	"github.com/devblok/framepace/gfx"
	"github.com/devblok/framepace/gfx/vkr"
	glm "github.com/go-gl/mathgl/mgl32"
	log "github.com/sirupsen/logrus"
	"github.com/veandco/go-sdl2/sdl"
)

func init() {
	runtime.LockOSThread()
}

// Profiling
var (
	cpuProfile   = flag.String("cpuprof", "", "Profile CPU usage to file")
	memProfile   = flag.String("memprof", "", "Profile memory usage into a file")
	traceProfile = flag.String("trace", "", "Trace output for profiling")
	debug        = flag.Bool("vkdbg", false, "Load Vulkan validation layers")
)

func newWindow(cfg renderer.Configuration) *sdl.Window {
	window, err := sdl.CreateWindow("framepace",
		sdl.WINDOWPOS_UNDEFINED,
		sdl.WINDOWPOS_UNDEFINED,
		int32(cfg.ScreenWidth),
		int32(cfg.ScreenHeight),
		sdl.WINDOW_VULKAN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		log.WithError(err).Fatal("create window")
	}
	return window
}

// cycle clears every frame to a colour that slowly moves around the hue circle
type cycle struct {
	phase float64
}

func (c *cycle) record(t renderer.Target) (gfx.CommandBuffer, error) {
	c.phase += 0.01
	third := 2 * math.Pi / 3
	color := glm.Vec3{
		float32(math.Sin(c.phase)),
		float32(math.Sin(c.phase + third)),
		float32(math.Sin(c.phase + 2*third)),
	}.Mul(0.5).Add(glm.Vec3{0.5, 0.5, 0.5})

	if err := vkr.RecordClear(t.CommandBuffer, t.Image, t.OldLayout, color.Vec4(1)); err != nil {
		return nil, err
	}
	return t.CommandBuffer, nil
}

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}
	logger, err := core.NewLogger(configuration.LogLevel)
	if err != nil {
		log.WithError(err).Fatal("configure logging")
	}

	if *cpuProfile != "" {
		f, err := os.Create(*cpuProfile)
		if err != nil {
			logger.WithError(err).Fatal("create cpu profile")
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.WithError(err).Fatal("start cpu profile")
		}
		defer pprof.StopCPUProfile()
	}

	if *traceProfile != "" {
		f, err := os.Create(*traceProfile)
		if err != nil {
			logger.WithError(err).Fatal("create trace")
		}
		if err := trace.Start(f); err != nil {
			logger.WithError(err).Fatal("start trace")
		}
		defer trace.Stop()
	}

	if err := sdl.Init(sdl.INIT_VIDEO | sdl.INIT_EVENTS); err != nil {
		logger.WithError(err).Fatal("sdl.Init()")
	}
	defer sdl.Quit()

	if err := sdl.VulkanLoadLibrary(""); err != nil {
		logger.WithError(err).Fatal("sdl.VulkanLoadLibrary()")
	}
	defer sdl.VulkanUnloadLibrary()

	window := newWindow(configuration.Renderer)
	defer window.Destroy()

	instance, err := vkr.NewInstance(sdl.VulkanGetVkGetInstanceProcAddr(), vkr.InstanceConfiguration{
		DebugMode:  configuration.DebugMode || *debug,
		Logger:     logger,
		Extensions: window.VulkanGetInstanceExtensions(),
	})
	if err != nil {
		logger.WithError(err).Fatal("create instance")
	}
	defer instance.Release()

	surface, err := newWindowSurface(window, instance.Inner())
	if err != nil {
		logger.WithError(err).Fatal("create surface")
	}
	defer instance.DestroySurface(surface.Handle())

	presenter, err := renderer.Initialize(instance, surface, configuration.Renderer, logger)
	if err != nil {
		logger.WithError(err).Fatal("initialize presenter")
	}
	// Deferred calls run in reverse, so the presenter goes before
	// the surface and the instance.
	defer func() {
		if err := presenter.Shutdown(); err != nil {
			logger.WithError(err).Error("shutdown")
		}
	}()

	timeService := core.NewTime(configuration.Time)
	defer timeService.Stop()

	ctx, cancel := context.WithCancel(context.Background())

	programSync := sync.WaitGroup{}

	/* Frame counter loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		defer wg.Done()
		var last renderer.Stats
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s := presenter.Stats()
				fmt.Printf("\r\033[2KFrames: %d\tSkipped: %d\tRebuilds: %d",
					s.Presented-last.Presented, s.Skipped-last.Skipped, s.Rebuilds)
				last = s
			}
		}
	}(ctx, &programSync)

	/* Renderer loop */
	programSync.Add(1)
	go func(ctx context.Context, wg *sync.WaitGroup) {
		defer wg.Done()
		hues := &cycle{}
		for {
			select {
			case <-ctx.Done():
				return
			case <-timeService.FpsTicker().C:
				if err := presenter.RenderFrame(hues.record); err != nil {
					logger.WithError(err).Error("render frame")
					cancel()
					return
				}
			}
		}
	}(ctx, &programSync)

	/* Event loop */
EventLoop:
	for {
		select {
		case <-ctx.Done():
			break EventLoop
		case <-timeService.EventTicker().C:
			for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
				switch et := event.(type) {
				case *sdl.KeyboardEvent:
					if et.Keysym.Sym == sdl.K_ESCAPE {
						cancel()
						continue EventLoop
					}
				case *sdl.WindowEvent:
					switch et.Event {
					case sdl.WINDOWEVENT_SIZE_CHANGED, sdl.WINDOWEVENT_MINIMIZED, sdl.WINDOWEVENT_RESTORED:
						surface.refresh()
						presenter.NotifyResize()
						logger.WithField("extent", surface.PixelExtent()).Debug("window resized")
					}
				case *sdl.QuitEvent:
					cancel()
					continue EventLoop
				}
			}
		}
	}

	programSync.Wait()
	fmt.Println()

	if *memProfile != "" {
		f, err := os.Create(*memProfile)
		if err != nil {
			logger.WithError(err).Fatal("create memory profile")
		}
		if err := pprof.WriteHeapProfile(f); err != nil {
			logger.WithError(err).Fatal("write memory profile")
		}
	}
}
