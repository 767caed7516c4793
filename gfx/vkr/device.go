// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
)

// Device is a Vulkan logical device with a single queue
// and the command pool its command buffers come from.
type Device struct {
	physicalDevice vk.PhysicalDevice
	device         vk.Device
	queue          vk.Queue
	queueFamily    uint32
	commandPool    vk.CommandPool
}

func (d *Device) createCommandPool() error {
	cpci := vk.CommandPoolCreateInfo{
		SType:            vk.StructureTypeCommandPoolCreateInfo,
		QueueFamilyIndex: d.queueFamily,
		Flags:            vk.CommandPoolCreateFlags(vk.CommandPoolCreateResetCommandBufferBit),
	}

	var commandPool vk.CommandPool
	if err := check("vk.CreateCommandPool()", vk.CreateCommandPool(d.device, &cpci, nil, &commandPool)); err != nil {
		return err
	}
	d.commandPool = commandPool
	return nil
}

// QueueFamily implements gfx.Device
func (d *Device) QueueFamily() uint32 {
	return d.queueFamily
}

// SurfaceCapabilities implements gfx.Device
func (d *Device) SurfaceCapabilities(s gfx.Surface) (gfx.SurfaceCapabilities, error) {
	caps, err := d.surfaceCapabilities(s)
	if err != nil {
		return gfx.SurfaceCapabilities{}, err
	}
	return gfx.SurfaceCapabilities{
		MinImageCount:       caps.MinImageCount,
		MaxImageCount:       caps.MaxImageCount,
		CurrentExtent:       extent(caps.CurrentExtent),
		MinImageExtent:      extent(caps.MinImageExtent),
		MaxImageExtent:      extent(caps.MaxImageExtent),
		SupportedTransforms: gfx.Transform(caps.SupportedTransforms),
		CurrentTransform:    gfx.Transform(caps.CurrentTransform),
	}, nil
}

func (d *Device) surfaceCapabilities(s gfx.Surface) (vk.SurfaceCapabilities, error) {
	var caps vk.SurfaceCapabilities
	r := vk.GetPhysicalDeviceSurfaceCapabilities(d.physicalDevice, surfaceOf(s), &caps)
	if err := check("vk.GetPhysicalDeviceSurfaceCapabilities()", r); err != nil {
		return caps, err
	}
	caps.Deref()
	caps.CurrentExtent.Deref()
	caps.MinImageExtent.Deref()
	caps.MaxImageExtent.Deref()
	return caps, nil
}

// SurfaceFormats implements gfx.Device
func (d *Device) SurfaceFormats(s gfx.Surface) ([]gfx.SurfaceFormat, error) {
	surface := surfaceOf(s)

	var count uint32
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	formats := make([]vk.SurfaceFormat, count)
	if err := check("vk.GetPhysicalDeviceSurfaceFormats()", vk.GetPhysicalDeviceSurfaceFormats(d.physicalDevice, surface, &count, formats)); err != nil {
		return nil, err
	}

	out := make([]gfx.SurfaceFormat, 0, count)
	for _, f := range formats[:count] {
		f.Deref()
		out = append(out, gfx.SurfaceFormat{
			Format:     gfx.Format(f.Format),
			ColorSpace: gfx.ColorSpace(f.ColorSpace),
		})
	}
	return out, nil
}

// PresentModes implements gfx.Device
func (d *Device) PresentModes(s gfx.Surface) ([]gfx.PresentMode, error) {
	surface := surfaceOf(s)

	var count uint32
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(d.physicalDevice, surface, &count, nil)); err != nil {
		return nil, err
	}
	modes := make([]vk.PresentMode, count)
	if err := check("vk.GetPhysicalDeviceSurfacePresentModes()", vk.GetPhysicalDeviceSurfacePresentModes(d.physicalDevice, surface, &count, modes)); err != nil {
		return nil, err
	}

	out := make([]gfx.PresentMode, 0, count)
	for _, m := range modes[:count] {
		out = append(out, gfx.PresentMode(m))
	}
	return out, nil
}

// NewImageView implements gfx.Device
func (d *Device) NewImageView(img gfx.Image, format gfx.Format) (gfx.ImageView, error) {
	ivci := vk.ImageViewCreateInfo{
		SType:    vk.StructureTypeImageViewCreateInfo,
		Image:    img.Inner().(vk.Image),
		ViewType: vk.ImageViewType2d,
		Format:   vk.Format(format),
		Components: vk.ComponentMapping{
			R: vk.ComponentSwizzleIdentity,
			G: vk.ComponentSwizzleIdentity,
			B: vk.ComponentSwizzleIdentity,
			A: vk.ComponentSwizzleIdentity,
		},
		SubresourceRange: colorSubresource,
	}

	var view vk.ImageView
	if err := check("vk.CreateImageView()", vk.CreateImageView(d.device, &ivci, nil, &view)); err != nil {
		return nil, err
	}
	return &ImageView{device: d.device, view: view}, nil
}

// NewFence implements gfx.Device
func (d *Device) NewFence(signaled bool) (gfx.Fence, error) {
	fci := vk.FenceCreateInfo{
		SType: vk.StructureTypeFenceCreateInfo,
	}
	if signaled {
		fci.Flags = vk.FenceCreateFlags(vk.FenceCreateSignaledBit)
	}

	var fence vk.Fence
	if err := check("vk.CreateFence()", vk.CreateFence(d.device, &fci, nil, &fence)); err != nil {
		return nil, err
	}
	return &Fence{device: d.device, fence: fence}, nil
}

// NewSemaphore implements gfx.Device
func (d *Device) NewSemaphore() (gfx.Semaphore, error) {
	sci := vk.SemaphoreCreateInfo{
		SType: vk.StructureTypeSemaphoreCreateInfo,
	}

	var semaphore vk.Semaphore
	if err := check("vk.CreateSemaphore()", vk.CreateSemaphore(d.device, &sci, nil, &semaphore)); err != nil {
		return nil, err
	}
	return &Semaphore{device: d.device, semaphore: semaphore}, nil
}

// NewCommandBuffer implements gfx.Device
func (d *Device) NewCommandBuffer() (gfx.CommandBuffer, error) {
	cbai := vk.CommandBufferAllocateInfo{
		SType:              vk.StructureTypeCommandBufferAllocateInfo,
		CommandPool:        d.commandPool,
		Level:              vk.CommandBufferLevelPrimary,
		CommandBufferCount: 1,
	}

	buffers := make([]vk.CommandBuffer, 1)
	if err := check("vk.AllocateCommandBuffers()", vk.AllocateCommandBuffers(d.device, &cbai, buffers)); err != nil {
		return nil, err
	}
	return &CommandBuffer{device: d.device, pool: d.commandPool, buffer: buffers[0]}, nil
}

// WaitFence implements gfx.Device
func (d *Device) WaitFence(f gfx.Fence, timeout uint64) error {
	fences := []vk.Fence{f.Inner().(vk.Fence)}
	return check("vk.WaitForFences()", vk.WaitForFences(d.device, 1, fences, vk.True, uint(timeout)))
}

// ResetFence implements gfx.Device
func (d *Device) ResetFence(f gfx.Fence) error {
	fences := []vk.Fence{f.Inner().(vk.Fence)}
	return check("vk.ResetFences()", vk.ResetFences(d.device, 1, fences))
}

// Acquire implements gfx.Device
func (d *Device) Acquire(sc gfx.Swapchain, signal gfx.Semaphore, timeout uint64) (int, bool, error) {
	var index uint32
	r := vk.AcquireNextImage(d.device, sc.Inner().(vk.Swapchain), uint(timeout), signal.Inner().(vk.Semaphore), vk.NullFence, &index)
	suboptimal, err := checkPresent("vk.AcquireNextImage()", r)
	if err != nil {
		return 0, false, err
	}
	return int(index), suboptimal, nil
}

// Submit implements gfx.Device
func (d *Device) Submit(s gfx.Submission) error {
	si := vk.SubmitInfo{
		SType:              vk.StructureTypeSubmitInfo,
		CommandBufferCount: 1,
		PCommandBuffers:    []vk.CommandBuffer{s.CommandBuffer.Inner().(vk.CommandBuffer)},
	}
	if s.Wait != nil {
		si.WaitSemaphoreCount = 1
		si.PWaitSemaphores = []vk.Semaphore{s.Wait.Inner().(vk.Semaphore)}
		si.PWaitDstStageMask = []vk.PipelineStageFlags{vk.PipelineStageFlags(s.WaitStage)}
	}
	if s.Signal != nil {
		si.SignalSemaphoreCount = 1
		si.PSignalSemaphores = []vk.Semaphore{s.Signal.Inner().(vk.Semaphore)}
	}

	fence := vk.NullFence
	if s.Fence != nil {
		fence = s.Fence.Inner().(vk.Fence)
	}
	return check("vk.QueueSubmit()", vk.QueueSubmit(d.queue, 1, []vk.SubmitInfo{si}, fence))
}

// Present implements gfx.Device
func (d *Device) Present(sc gfx.Swapchain, index int, wait gfx.Semaphore) (bool, error) {
	presentInfo := vk.PresentInfo{
		SType:          vk.StructureTypePresentInfo,
		SwapchainCount: 1,
		PSwapchains:    []vk.Swapchain{sc.Inner().(vk.Swapchain)},
		PImageIndices:  []uint32{uint32(index)},
	}
	if wait != nil {
		presentInfo.WaitSemaphoreCount = 1
		presentInfo.PWaitSemaphores = []vk.Semaphore{wait.Inner().(vk.Semaphore)}
	}
	return checkPresent("vk.QueuePresent()", vk.QueuePresent(d.queue, &presentInfo))
}

// WaitIdle implements gfx.Device
func (d *Device) WaitIdle() error {
	return check("vk.DeviceWaitIdle()", vk.DeviceWaitIdle(d.device))
}

// Inner returns the vk.Device
func (d *Device) Inner() interface{} {
	return d.device
}

// Release destroys the command pool and the device. Everything
// created from the device has to be released before.
func (d *Device) Release() {
	vk.DestroyCommandPool(d.device, d.commandPool, nil)
	vk.DestroyDevice(d.device, nil)
}

func surfaceOf(s gfx.Surface) vk.Surface {
	return vk.SurfaceFromPointer(s.Handle())
}

func extent(e vk.Extent2D) gfx.Extent2D {
	return gfx.Extent2D{Width: e.Width, Height: e.Height}
}

var colorSubresource = vk.ImageSubresourceRange{
	AspectMask:     vk.ImageAspectFlags(vk.ImageAspectColorBit),
	BaseMipLevel:   0,
	LevelCount:     1,
	BaseArrayLayer: 0,
	LayerCount:     1,
}
