// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package gfx defines the presentation features that graphics backends must implement.
package gfx

// Releasable defines any memory-occupying item that can be freed.
type Releasable interface {

	// Release releases memory occupied by the implementing structure.
	Release()
}

// Handle is implemented by every object that wraps a handle
// of the underlying API.
type Handle interface {

	// Inner returns the inner handle of the underlying API.
	Inner() interface{}
}

// Instance is the entry point of a graphics API. It enumerates
// the adapters that can be turned into a Device.
type Instance interface {
	Releasable
	Handle

	// Adapters returns every physical adapter in enumeration order.
	Adapters() ([]Adapter, error)
}

// Adapter describes a physical device that can be queried
// and turned into a logical Device.
type Adapter interface {
	Handle

	// Info returns the general properties of the adapter.
	Info() AdapterInfo

	// QueueFamilies returns the queue families in index order.
	QueueFamilies() ([]QueueFamily, error)

	// Extensions returns the names of supported device extensions.
	Extensions() ([]string, error)

	// SurfaceSupport reports whether the queue family can present
	// to the raw surface handle.
	SurfaceSupport(surface uintptr, family uint32) (bool, error)

	// NewDevice creates a logical device with exactly one queue
	// from the given family and the named extensions enabled.
	NewDevice(family uint32, extensions []string) (Device, error)
}

// Surface is the presentable target provided by a windowing layer.
// It is owned by the provider, never by the Device.
type Surface interface {

	// Handle returns the raw surface handle of the underlying API.
	Handle() uintptr

	// PixelExtent returns the drawable size of the window in pixels.
	PixelExtent() Extent2D

	// SupportsPresentation reports whether the queue family of the
	// adapter can present to this surface.
	SupportsPresentation(a Adapter, family uint32) (bool, error)
}

// Device is a logical device owning a single work queue.
// It must outlive every object it creates.
type Device interface {
	Releasable
	Handle

	// QueueFamily returns the family index of the owned queue.
	QueueFamily() uint32

	SurfaceCapabilities(s Surface) (SurfaceCapabilities, error)
	SurfaceFormats(s Surface) ([]SurfaceFormat, error)
	PresentModes(s Surface) ([]PresentMode, error)

	// NewSwapchain creates a swapchain. SwapchainInfo.Old, if set,
	// is handed to the API as a recycling hint only; it still has
	// to be released by the caller.
	NewSwapchain(info SwapchainInfo) (Swapchain, error)

	// NewImageView creates a 2D colour view with one mip level
	// and one array layer.
	NewImageView(img Image, format Format) (ImageView, error)

	NewFence(signaled bool) (Fence, error)
	NewSemaphore() (Semaphore, error)
	NewCommandBuffer() (CommandBuffer, error)

	// WaitFence blocks until the fence is signaled or the timeout
	// in nanoseconds elapses.
	WaitFence(f Fence, timeout uint64) error

	// ResetFence returns the fence to the unsignaled state.
	ResetFence(f Fence) error

	// Acquire requests the next presentable image. ErrOutOfDate is
	// returned when the swapchain can no longer be used, suboptimal
	// is true when the image was acquired but the swapchain no longer
	// matches the surface exactly.
	Acquire(sc Swapchain, signal Semaphore, timeout uint64) (index int, suboptimal bool, err error)

	// Submit queues recorded work.
	Submit(s Submission) error

	// Present queues the image for presentation. Results are reported
	// the same way as Acquire.
	Present(sc Swapchain, index int, wait Semaphore) (suboptimal bool, err error)

	// WaitIdle blocks until all queued work has completed.
	WaitIdle() error
}

// Swapchain is a set of presentable images bound to a surface.
type Swapchain interface {
	Releasable
	Handle

	// Images returns the presentable images in index order.
	Images() ([]Image, error)
}

// Image is a presentable image. It is owned by its Swapchain.
type Image interface {
	Handle
}

// ImageView is a view onto an Image.
type ImageView interface {
	Releasable
	Handle
}

// Fence is a GPU to CPU signal.
type Fence interface {
	Releasable
	Handle
}

// Semaphore is a GPU to GPU signal.
type Semaphore interface {
	Releasable
	Handle
}

// CommandBuffer is a recordable list of GPU commands.
type CommandBuffer interface {
	Releasable
	Handle

	// Reset discards previously recorded commands.
	Reset() error
}

// Submission describes a single queue submission.
type Submission struct {
	CommandBuffer CommandBuffer

	// Wait is waited on at WaitStage before the commands execute.
	Wait      Semaphore
	WaitStage Stage

	// Signal is signaled once the commands complete.
	Signal Semaphore

	// Fence is signaled once the commands complete.
	Fence Fence
}

// SwapchainInfo describes a swapchain to be created.
type SwapchainInfo struct {
	Surface     Surface
	Format      SurfaceFormat
	ImageCount  uint32
	Extent      Extent2D
	PresentMode PresentMode
	Transform   Transform
	Old         Swapchain
}
