// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
)

var compositeAlphaFlags = []vk.CompositeAlphaFlagBits{
	vk.CompositeAlphaOpaqueBit,
	vk.CompositeAlphaPreMultipliedBit,
	vk.CompositeAlphaPostMultipliedBit,
	vk.CompositeAlphaInheritBit,
}

// NewSwapchain implements gfx.Device
func (d *Device) NewSwapchain(info gfx.SwapchainInfo) (gfx.Swapchain, error) {
	caps, err := d.surfaceCapabilities(info.Surface)
	if err != nil {
		return nil, err
	}

	compositeAlpha := vk.CompositeAlphaOpaqueBit
	for _, flag := range compositeAlphaFlags {
		if caps.SupportedCompositeAlpha&vk.CompositeAlphaFlags(flag) != 0 {
			compositeAlpha = flag
			break
		}
	}

	// Transfer usage lets hosts clear images without a render pass.
	usage := vk.ImageUsageFlags(vk.ImageUsageColorAttachmentBit)
	if caps.SupportedUsageFlags&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0 {
		usage |= vk.ImageUsageFlags(vk.ImageUsageTransferDstBit)
	}

	oldSwapchain := vk.NullSwapchain
	if info.Old != nil {
		oldSwapchain = info.Old.Inner().(vk.Swapchain)
	}

	scci := vk.SwapchainCreateInfo{
		SType:           vk.StructureTypeSwapchainCreateInfo,
		Surface:         surfaceOf(info.Surface),
		MinImageCount:   info.ImageCount,
		ImageFormat:     vk.Format(info.Format.Format),
		ImageColorSpace: vk.ColorSpace(info.Format.ColorSpace),
		ImageExtent: vk.Extent2D{
			Width:  info.Extent.Width,
			Height: info.Extent.Height,
		},
		ImageUsage:       usage,
		PreTransform:     vk.SurfaceTransformFlagBits(info.Transform),
		CompositeAlpha:   compositeAlpha,
		PresentMode:      vk.PresentMode(info.PresentMode),
		Clipped:          vk.True,
		ImageArrayLayers: 1,
		ImageSharingMode: vk.SharingModeExclusive,
		OldSwapchain:     oldSwapchain,
	}

	var swapchain vk.Swapchain
	if err := check("vk.CreateSwapchain()", vk.CreateSwapchain(d.device, &scci, nil, &swapchain)); err != nil {
		return nil, err
	}
	return &Swapchain{device: d.device, swapchain: swapchain, usage: usage}, nil
}

// Swapchain is a Vulkan swapchain.
type Swapchain struct {
	device    vk.Device
	swapchain vk.Swapchain
	usage     vk.ImageUsageFlags
}

// Images implements gfx.Swapchain
func (s *Swapchain) Images() ([]gfx.Image, error) {
	var count uint32
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(s.device, s.swapchain, &count, nil)); err != nil {
		return nil, err
	}
	images := make([]vk.Image, count)
	if err := check("vk.GetSwapchainImages()", vk.GetSwapchainImages(s.device, s.swapchain, &count, images)); err != nil {
		return nil, err
	}

	transferDst := s.usage&vk.ImageUsageFlags(vk.ImageUsageTransferDstBit) != 0
	out := make([]gfx.Image, 0, count)
	for _, img := range images[:count] {
		out = append(out, Image{image: img, transferDst: transferDst})
	}
	return out, nil
}

// Inner returns the vk.Swapchain
func (s *Swapchain) Inner() interface{} {
	return s.swapchain
}

// Release implements gfx.Releasable
func (s *Swapchain) Release() {
	vk.DestroySwapchain(s.device, s.swapchain, nil)
}

// Image is a presentable image owned by a Swapchain.
type Image struct {
	image       vk.Image
	transferDst bool
}

// TransferDst reports whether the image can be a transfer destination.
func (i Image) TransferDst() bool {
	return i.transferDst
}

// Inner returns the vk.Image
func (i Image) Inner() interface{} {
	return i.image
}

// ImageView is a 2D colour view.
type ImageView struct {
	device vk.Device
	view   vk.ImageView
}

// Inner returns the vk.ImageView
func (v *ImageView) Inner() interface{} {
	return v.view
}

// Release implements gfx.Releasable
func (v *ImageView) Release() {
	vk.DestroyImageView(v.device, v.view, nil)
}
