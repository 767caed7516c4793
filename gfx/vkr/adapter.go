// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
)

func newAdapter(pd vk.PhysicalDevice) *Adapter {
	var props vk.PhysicalDeviceProperties
	vk.GetPhysicalDeviceProperties(pd, &props)
	props.Deref()

	info := gfx.AdapterInfo{
		Name:          vk.ToString(props.DeviceName[:]),
		ID:            int(props.DeviceID),
		VendorID:      int(props.VendorID),
		Type:          gfx.AdapterType(props.DeviceType),
		APIVersion:    gfx.Version(props.ApiVersion),
		DriverVersion: int(props.DriverVersion),
	}

	var memoryProperties vk.PhysicalDeviceMemoryProperties
	vk.GetPhysicalDeviceMemoryProperties(pd, &memoryProperties)
	memoryProperties.Deref()
	for i := uint32(0); i < memoryProperties.MemoryHeapCount; i++ {
		memoryProperties.MemoryHeaps[i].Deref()
		info.Memory += uint(memoryProperties.MemoryHeaps[i].Size)
	}

	return &Adapter{
		physicalDevice: pd,
		info:           info,
	}
}

// Adapter is a Vulkan physical device.
type Adapter struct {
	physicalDevice vk.PhysicalDevice
	info           gfx.AdapterInfo
}

// Info implements gfx.Adapter
func (a *Adapter) Info() gfx.AdapterInfo {
	return a.info
}

// QueueFamilies implements gfx.Adapter
func (a *Adapter) QueueFamilies() ([]gfx.QueueFamily, error) {
	var count uint32
	vk.GetPhysicalDeviceQueueFamilyProperties(a.physicalDevice, &count, nil)
	if count == 0 {
		return nil, errors.New("vk.GetPhysicalDeviceQueueFamilyProperties(): no queue families on adapter")
	}
	props := make([]vk.QueueFamilyProperties, count)
	vk.GetPhysicalDeviceQueueFamilyProperties(a.physicalDevice, &count, props)

	families := make([]gfx.QueueFamily, count)
	for i := range families {
		props[i].Deref()
		flags := props[i].QueueFlags
		families[i] = gfx.QueueFamily{
			Index:    uint32(i),
			Count:    props[i].QueueCount,
			Graphics: flags&vk.QueueFlags(vk.QueueGraphicsBit) != 0,
			Compute:  flags&vk.QueueFlags(vk.QueueComputeBit) != 0,
			Transfer: flags&vk.QueueFlags(vk.QueueTransferBit) != 0,
		}
	}
	return families, nil
}

// Extensions implements gfx.Adapter
func (a *Adapter) Extensions() ([]string, error) {
	var count uint32
	if err := check("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(a.physicalDevice, "", &count, nil)); err != nil {
		return nil, err
	}
	props := make([]vk.ExtensionProperties, count)
	if err := check("vk.EnumerateDeviceExtensionProperties()", vk.EnumerateDeviceExtensionProperties(a.physicalDevice, "", &count, props)); err != nil {
		return nil, err
	}

	names := make([]string, 0, count)
	for _, ext := range props[:count] {
		ext.Deref()
		names = append(names, vk.ToString(ext.ExtensionName[:]))
	}
	return names, nil
}

// SurfaceSupport implements gfx.Adapter
func (a *Adapter) SurfaceSupport(surface uintptr, family uint32) (bool, error) {
	var supported vk.Bool32
	r := vk.GetPhysicalDeviceSurfaceSupport(a.physicalDevice, family, vk.SurfaceFromPointer(surface), &supported)
	if err := check("vk.GetPhysicalDeviceSurfaceSupport()", r); err != nil {
		return false, err
	}
	return supported.B(), nil
}

// NewDevice implements gfx.Adapter
func (a *Adapter) NewDevice(family uint32, extensions []string) (gfx.Device, error) {
	queueInfos := []vk.DeviceQueueCreateInfo{{
		SType:            vk.StructureTypeDeviceQueueCreateInfo,
		QueueFamilyIndex: family,
		QueueCount:       1,
		PQueuePriorities: []float32{1.0},
	}}

	dci := vk.DeviceCreateInfo{
		SType:                   vk.StructureTypeDeviceCreateInfo,
		QueueCreateInfoCount:    uint32(len(queueInfos)),
		PQueueCreateInfos:       queueInfos,
		EnabledExtensionCount:   uint32(len(extensions)),
		PpEnabledExtensionNames: safeStrings(extensions),
	}

	var device vk.Device
	if err := check("vk.CreateDevice()", vk.CreateDevice(a.physicalDevice, &dci, nil, &device)); err != nil {
		return nil, err
	}

	var queue vk.Queue
	vk.GetDeviceQueue(device, family, 0, &queue)

	d := &Device{
		physicalDevice: a.physicalDevice,
		device:         device,
		queue:          queue,
		queueFamily:    family,
	}
	if err := d.createCommandPool(); err != nil {
		vk.DestroyDevice(device, nil)
		return nil, err
	}
	return d, nil
}

// Inner returns the vk.PhysicalDevice
func (a *Adapter) Inner() interface{} {
	return a.physicalDevice
}
