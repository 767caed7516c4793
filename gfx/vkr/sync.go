// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	vk "github.com/devblok/vulkan"
)

// Fence wraps a vk.Fence
type Fence struct {
	device vk.Device
	fence  vk.Fence
}

// Inner returns the vk.Fence
func (f *Fence) Inner() interface{} {
	return f.fence
}

// Release implements gfx.Releasable
func (f *Fence) Release() {
	if f.fence == vk.NullFence {
		return
	}
	vk.DestroyFence(f.device, f.fence, nil)
	f.fence = vk.NullFence
}

// Semaphore wraps a vk.Semaphore
type Semaphore struct {
	device    vk.Device
	semaphore vk.Semaphore
}

// Inner returns the vk.Semaphore
func (s *Semaphore) Inner() interface{} {
	return s.semaphore
}

// Release implements gfx.Releasable
func (s *Semaphore) Release() {
	if s.semaphore == vk.NullSemaphore {
		return
	}
	vk.DestroySemaphore(s.device, s.semaphore, nil)
	s.semaphore = vk.NullSemaphore
}

// CommandBuffer is a primary command buffer from the device pool.
type CommandBuffer struct {
	device vk.Device
	pool   vk.CommandPool
	buffer vk.CommandBuffer
}

// Reset implements gfx.CommandBuffer
func (c *CommandBuffer) Reset() error {
	return check("vk.ResetCommandBuffer()", vk.ResetCommandBuffer(c.buffer, 0))
}

// Inner returns the vk.CommandBuffer
func (c *CommandBuffer) Inner() interface{} {
	return c.buffer
}

// Release implements gfx.Releasable
func (c *CommandBuffer) Release() {
	if c.buffer == nil {
		return
	}
	vk.FreeCommandBuffers(c.device, c.pool, 1, []vk.CommandBuffer{c.buffer})
	c.buffer = nil
}
