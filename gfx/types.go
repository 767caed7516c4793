// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package gfx

import (
	"fmt"
	"math"
)

// VariableExtent is the current extent width a surface reports
// when the swapchain extent decides the surface size.
const VariableExtent = math.MaxUint32

// Version is a packed API version number.
type Version uint32

// MakeVersion packs a version the way graphics APIs do.
func MakeVersion(major, minor, patch uint32) Version {
	return Version(major<<22 | minor<<12 | patch)
}

// ParseVersion parses "major.minor" or "major.minor.patch".
func ParseVersion(s string) (Version, error) {
	var major, minor, patch uint32
	if n, _ := fmt.Sscanf(s, "%d.%d.%d", &major, &minor, &patch); n < 2 {
		return 0, fmt.Errorf("gfx: malformed version %q", s)
	}
	return MakeVersion(major, minor, patch), nil
}

// Major returns the major version.
func (v Version) Major() uint32 { return uint32(v) >> 22 }

// Minor returns the minor version.
func (v Version) Minor() uint32 { return uint32(v) >> 12 & 0x3ff }

// Patch returns the patch version.
func (v Version) Patch() uint32 { return uint32(v) & 0xfff }

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch())
}

// MarshalText renders the version in dotted form for JSON output.
func (v Version) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// AdapterType identifies the kind of physical device.
type AdapterType int

// Adapter types, same values as the Vulkan device types
const (
	AdapterOther AdapterType = iota
	AdapterIntegrated
	AdapterDiscrete
	AdapterVirtual
	AdapterCPU
)

func (t AdapterType) String() string {
	switch t {
	case AdapterIntegrated:
		return "integrated"
	case AdapterDiscrete:
		return "discrete"
	case AdapterVirtual:
		return "virtual"
	case AdapterCPU:
		return "cpu"
	}
	return "other"
}

// AdapterInfo holds general adapter properties.
type AdapterInfo struct {
	Name          string
	ID            int
	VendorID      int
	Type          AdapterType
	APIVersion    Version
	DriverVersion int
	Memory        uint
}

// QueueFamily describes a queue family of an adapter.
type QueueFamily struct {
	Index    uint32
	Count    uint32
	Graphics bool
	Compute  bool
	Transfer bool
}

// Extent2D is a size in pixels.
type Extent2D struct {
	Width  uint32
	Height uint32
}

// Empty reports whether either side is zero.
func (e Extent2D) Empty() bool {
	return e.Width == 0 || e.Height == 0
}

func (e Extent2D) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// Format is a pixel format, same values as VkFormat.
type Format int32

// Formats a presentation surface commonly reports
const (
	FormatUndefined     Format = 0
	FormatR8G8B8A8Unorm Format = 37
	FormatR8G8B8A8SRGB  Format = 43
	FormatB8G8R8A8Unorm Format = 44
	FormatB8G8R8A8SRGB  Format = 50
)

// IsSRGB8 reports whether the format has 8 bits per channel
// with sRGB encoding.
func (f Format) IsSRGB8() bool {
	return f == FormatB8G8R8A8SRGB || f == FormatR8G8B8A8SRGB
}

func (f Format) String() string {
	switch f {
	case FormatUndefined:
		return "undefined"
	case FormatR8G8B8A8Unorm:
		return "R8G8B8A8_UNORM"
	case FormatR8G8B8A8SRGB:
		return "R8G8B8A8_SRGB"
	case FormatB8G8R8A8Unorm:
		return "B8G8R8A8_UNORM"
	case FormatB8G8R8A8SRGB:
		return "B8G8R8A8_SRGB"
	}
	return fmt.Sprintf("format(%d)", int32(f))
}

// ColorSpace is a presentation colour space, same values as VkColorSpaceKHR.
type ColorSpace int32

// ColorSpaceSRGBNonlinear is the sRGB nonlinear colour space.
const ColorSpaceSRGBNonlinear ColorSpace = 0

// SurfaceFormat pairs a format with its colour space.
type SurfaceFormat struct {
	Format     Format
	ColorSpace ColorSpace
}

// PresentMode is a presentation mode, same values as VkPresentModeKHR.
type PresentMode int32

// Presentation modes
const (
	PresentModeImmediate PresentMode = iota
	PresentModeMailbox
	PresentModeFIFO
	PresentModeFIFORelaxed
)

func (m PresentMode) String() string {
	switch m {
	case PresentModeImmediate:
		return "immediate"
	case PresentModeMailbox:
		return "mailbox"
	case PresentModeFIFO:
		return "fifo"
	case PresentModeFIFORelaxed:
		return "fifo-relaxed"
	}
	return fmt.Sprintf("present-mode(%d)", int32(m))
}

// Transform is a surface pre-transform bit mask.
type Transform uint32

// TransformIdentity leaves the image as is.
const TransformIdentity Transform = 1

// Layout is an image layout, same values as VkImageLayout.
type Layout int32

// Layouts a presentable image moves through
const (
	LayoutUndefined       Layout = 0
	LayoutColorAttachment Layout = 2
	LayoutTransferDst     Layout = 7
	LayoutPresentSrc      Layout = 1000001002
)

// Stage is a pipeline stage bit mask.
type Stage uint32

// StageColorAttachmentOutput is the stage colour attachments are written in.
const StageColorAttachmentOutput Stage = 0x400

// SurfaceCapabilities are the limits a surface imposes on swapchains.
type SurfaceCapabilities struct {
	MinImageCount uint32

	// MaxImageCount of zero means unbounded.
	MaxImageCount uint32

	// CurrentExtent.Width is VariableExtent when the surface
	// takes its size from the swapchain.
	CurrentExtent  Extent2D
	MinImageExtent Extent2D
	MaxImageExtent Extent2D

	SupportedTransforms Transform
	CurrentTransform    Transform
}
