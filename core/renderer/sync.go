// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package renderer

import (
	"math"

	"github.com/devblok/framepace/gfx"
	"github.com/pkg/errors"
)

// FrameSyncSet holds the synchronization objects of the frames in
// flight, indexed by frame slot, and the render complete semaphores,
// indexed by swapchain image.
type FrameSyncSet struct {
	device gfx.Device

	fences   []gfx.Fence
	acquire  []gfx.Semaphore
	commands []gfx.CommandBuffer

	renderComplete []gfx.Semaphore
}

// NewFrameSyncSet creates frame slots, each with a signaled fence,
// an acquire semaphore and a command buffer, plus one render complete
// semaphore per swapchain image.
func NewFrameSyncSet(dev gfx.Device, frames, images int) (*FrameSyncSet, error) {
	if frames < 1 {
		return nil, errors.Errorf("renderer: %d frames in flight", frames)
	}

	s := &FrameSyncSet{device: dev}
	for i := 0; i < frames; i++ {
		fence, err := dev.NewFence(true)
		if err != nil {
			s.Release()
			return nil, errors.Wrap(err, "create frame fence")
		}
		s.fences = append(s.fences, fence)

		sem, err := dev.NewSemaphore()
		if err != nil {
			s.Release()
			return nil, errors.Wrap(err, "create acquire semaphore")
		}
		s.acquire = append(s.acquire, sem)

		cb, err := dev.NewCommandBuffer()
		if err != nil {
			s.Release()
			return nil, errors.Wrap(err, "create command buffer")
		}
		s.commands = append(s.commands, cb)
	}

	if err := s.Resize(images); err != nil {
		s.Release()
		return nil, err
	}
	return s, nil
}

// Frames returns the number of frame slots.
func (s *FrameSyncSet) Frames() int {
	return len(s.fences)
}

// Images returns the number of render complete semaphores.
func (s *FrameSyncSet) Images() int {
	return len(s.renderComplete)
}

// Fence returns the fence of a frame slot.
func (s *FrameSyncSet) Fence(frame int) gfx.Fence {
	return s.fences[frame]
}

// AcquireSemaphore returns the semaphore a frame slot acquires with.
func (s *FrameSyncSet) AcquireSemaphore(frame int) gfx.Semaphore {
	return s.acquire[frame]
}

// CommandBuffer returns the command buffer of a frame slot.
func (s *FrameSyncSet) CommandBuffer(frame int) gfx.CommandBuffer {
	return s.commands[frame]
}

// RenderComplete returns the semaphore presentation of an image waits on.
func (s *FrameSyncSet) RenderComplete(image int) gfx.Semaphore {
	return s.renderComplete[image]
}

// Wait blocks until the last submission of the frame slot completed.
func (s *FrameSyncSet) Wait(frame int) error {
	if err := s.device.WaitFence(s.fences[frame], math.MaxUint64); err != nil {
		return errors.Wrapf(err, "wait for frame %d", frame)
	}
	return nil
}

// Reset unsignals the fence of the frame slot. It must only be
// called when a submission signaling it follows.
func (s *FrameSyncSet) Reset(frame int) error {
	if err := s.device.ResetFence(s.fences[frame]); err != nil {
		return errors.Wrapf(err, "reset frame %d", frame)
	}
	return nil
}

// WaitAndReset waits for the frame slot and resets its fence.
func (s *FrameSyncSet) WaitAndReset(frame int) error {
	if err := s.Wait(frame); err != nil {
		return err
	}
	return s.Reset(frame)
}

// Resize recreates the render complete semaphores when the image
// count changed. Frame slots are left alone. The device must be idle.
func (s *FrameSyncSet) Resize(images int) error {
	if images == len(s.renderComplete) {
		return nil
	}

	for _, sem := range s.renderComplete {
		sem.Release()
	}
	s.renderComplete = s.renderComplete[:0]

	for i := 0; i < images; i++ {
		sem, err := s.device.NewSemaphore()
		if err != nil {
			return errors.Wrap(err, "create render complete semaphore")
		}
		s.renderComplete = append(s.renderComplete, sem)
	}
	return nil
}

// Release destroys every object of the set. The device must be idle.
func (s *FrameSyncSet) Release() {
	for _, sem := range s.renderComplete {
		sem.Release()
	}
	for _, cb := range s.commands {
		cb.Release()
	}
	for _, sem := range s.acquire {
		sem.Release()
	}
	for _, f := range s.fences {
		f.Release()
	}
	s.renderComplete, s.commands, s.acquire, s.fences = nil, nil, nil, nil
}
