// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
	glm "github.com/go-gl/mathgl/mgl32"
	"github.com/pkg/errors"
)

// ErrNoTransferUsage is returned when an image cannot be cleared
// because the surface does not allow transfer usage on its images.
var ErrNoTransferUsage = errors.New("vkr: swapchain image has no transfer destination usage")

// RecordClear records a full clear of a swapchain image to the given
// colour and leaves the image ready for presentation. old is the
// layout the image is in when the commands start executing.
//
// The first barrier waits on the colour attachment output stage, which
// chains it to the acquire semaphore wait of the submission.
func RecordClear(cb gfx.CommandBuffer, img gfx.Image, old gfx.Layout, color glm.Vec4) error {
	vi, ok := img.(Image)
	if !ok || !vi.TransferDst() {
		return ErrNoTransferUsage
	}
	cmd := cb.Inner().(vk.CommandBuffer)
	image := vi.image

	cbbi := vk.CommandBufferBeginInfo{
		SType: vk.StructureTypeCommandBufferBeginInfo,
		Flags: vk.CommandBufferUsageFlags(vk.CommandBufferUsageOneTimeSubmitBit),
	}
	if err := vk.Error(vk.BeginCommandBuffer(cmd, &cbbi)); err != nil {
		return errors.Wrap(err, "vk.BeginCommandBuffer()")
	}

	toTransfer := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayout(old),
		NewLayout:           vk.ImageLayoutTransferDstOptimal,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorSubresource,
		SrcAccessMask:       0,
		DstAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageColorAttachmentOutputBit),
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toTransfer})

	clearColor := vk.ClearColorValue{}
	floats := (*[4]float32)(unsafe.Pointer(&clearColor))
	floats[0], floats[1], floats[2], floats[3] = color[0], color[1], color[2], color[3]
	vk.CmdClearColorImage(cmd, image, vk.ImageLayoutTransferDstOptimal, &clearColor, 1, []vk.ImageSubresourceRange{colorSubresource})

	toPresent := vk.ImageMemoryBarrier{
		SType:               vk.StructureTypeImageMemoryBarrier,
		OldLayout:           vk.ImageLayoutTransferDstOptimal,
		NewLayout:           vk.ImageLayoutPresentSrc,
		SrcQueueFamilyIndex: vk.QueueFamilyIgnored,
		DstQueueFamilyIndex: vk.QueueFamilyIgnored,
		Image:               image,
		SubresourceRange:    colorSubresource,
		SrcAccessMask:       vk.AccessFlags(vk.AccessTransferWriteBit),
		DstAccessMask:       0,
	}
	vk.CmdPipelineBarrier(cmd,
		vk.PipelineStageFlags(vk.PipelineStageTransferBit),
		vk.PipelineStageFlags(vk.PipelineStageBottomOfPipeBit),
		0, 0, nil, 0, nil, 1, []vk.ImageMemoryBarrier{toPresent})

	if err := vk.Error(vk.EndCommandBuffer(cmd)); err != nil {
		return errors.Wrap(err, "vk.EndCommandBuffer()")
	}
	return nil
}
