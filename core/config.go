// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"strconv"
	"strings"

	"github.com/devblok/framepace/core/renderer"
	"github.com/devblok/framepace/gfx"
	"github.com/gobuffalo/envy"
	"github.com/gobuffalo/packr"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
)

// Configuration defines a global engine configuration setting
type Configuration struct {
	Time     TimeConfiguration
	Renderer renderer.Configuration

	// DebugMode loads the validation layers.
	DebugMode bool
	LogLevel  string
}

// TimeConfiguration is used to configure time services
type TimeConfiguration struct {
	// FramesPerSecond caps frames per second that is put out
	// To unlimit, set to 0
	FramesPerSecond int

	// EventPollDelay is the delay between window event polls in milliseconds
	EventPollDelay int
}

var resources = packr.NewBox("./resources")

// LoadConfiguration reads the packed defaults, then applies the .env
// file of the working directory and the environment on top.
func LoadConfiguration() (Configuration, error) {
	raw, err := resources.FindString("defaults.env")
	if err != nil {
		return Configuration{}, errors.Wrap(err, "read packed defaults")
	}
	defaults, err := godotenv.Unmarshal(raw)
	if err != nil {
		return Configuration{}, errors.Wrap(err, "parse packed defaults")
	}

	return ParseConfiguration(func(key string) string {
		return envy.Get(key, defaults[key])
	})
}

// ParseConfiguration builds a configuration from FRAMEPACE_* values.
func ParseConfiguration(lookup func(key string) string) (Configuration, error) {
	p := parser{lookup: lookup}

	cfg := Configuration{
		Time: TimeConfiguration{
			FramesPerSecond: p.int("FRAMEPACE_FPS"),
			EventPollDelay:  p.int("FRAMEPACE_EVENT_POLL_DELAY"),
		},
		Renderer: renderer.Configuration{
			FramesInFlight:   p.int("FRAMEPACE_FRAMES_IN_FLIGHT"),
			SwapchainSize:    uint32(p.int("FRAMEPACE_SWAPCHAIN_SIZE")),
			PreferLowLatency: p.bool("FRAMEPACE_PREFER_LOW_LATENCY"),
			MinAPIVersion:    p.version("FRAMEPACE_MIN_API_VERSION"),
			DeviceExtensions: p.list("FRAMEPACE_DEVICE_EXTENSIONS"),
			ScreenWidth:      uint32(p.int("FRAMEPACE_SCREEN_WIDTH")),
			ScreenHeight:     uint32(p.int("FRAMEPACE_SCREEN_HEIGHT")),
		},
		DebugMode: p.bool("FRAMEPACE_DEBUG"),
		LogLevel:  lookup("FRAMEPACE_LOG_LEVEL"),
	}
	if p.err != nil {
		return Configuration{}, p.err
	}
	return cfg, cfg.Validate()
}

// Validate checks the values the renderer cannot work without.
func (c Configuration) Validate() error {
	switch {
	case c.Renderer.FramesInFlight < 1:
		return errors.Errorf("core: frames in flight must be at least 1, got %d", c.Renderer.FramesInFlight)
	case c.Renderer.SwapchainSize < 1:
		return errors.Errorf("core: swapchain size must be at least 1, got %d", c.Renderer.SwapchainSize)
	case c.Renderer.ScreenWidth == 0 || c.Renderer.ScreenHeight == 0:
		return errors.Errorf("core: screen size %dx%d has no area", c.Renderer.ScreenWidth, c.Renderer.ScreenHeight)
	case c.Time.FramesPerSecond < 0:
		return errors.New("core: negative frames per second")
	case c.Time.EventPollDelay < 1:
		return errors.Errorf("core: event poll delay must be at least 1ms, got %d", c.Time.EventPollDelay)
	}
	return nil
}

// parser keeps the first error so values can be read in one go.
type parser struct {
	lookup func(string) string
	err    error
}

func (p *parser) fail(key string, err error) {
	if p.err == nil {
		p.err = errors.Wrapf(err, "core: %s", key)
	}
}

func (p *parser) int(key string) int {
	v, err := strconv.Atoi(strings.TrimSpace(p.lookup(key)))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) bool(key string) bool {
	v, err := strconv.ParseBool(strings.TrimSpace(p.lookup(key)))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) version(key string) gfx.Version {
	v, err := gfx.ParseVersion(strings.TrimSpace(p.lookup(key)))
	if err != nil {
		p.fail(key, err)
	}
	return v
}

func (p *parser) list(key string) []string {
	var out []string
	for _, item := range strings.Split(p.lookup(key), ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
