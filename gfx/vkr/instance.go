// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// InstanceConfiguration is used to configure the Vulkan instance
type InstanceConfiguration struct {
	ApplicationName string
	DebugMode       bool
	Extensions      []string
	Layers          []string

	// Logger receives validation messages in debug mode.
	Logger logrus.FieldLogger
}

// NewInstance creates a Vulkan instance. When procAddr is nil the
// system loader is used, otherwise procAddr must point to
// vkGetInstanceProcAddr, as handed out by SDL.
func NewInstance(procAddr unsafe.Pointer, cfg InstanceConfiguration) (*Instance, error) {
	if cfg.DebugMode {
		cfg.Layers = append(cfg.Layers, "VK_LAYER_KHRONOS_validation")
		cfg.Extensions = append(cfg.Extensions, "VK_EXT_debug_report")
	}
	if cfg.ApplicationName == "" {
		cfg.ApplicationName = "framepace"
	}

	if procAddr == nil {
		if err := vk.SetDefaultGetInstanceProcAddr(); err != nil {
			return nil, errors.Wrap(err, "vk.SetDefaultGetInstanceProcAddr()")
		}
	} else {
		vk.SetGetInstanceProcAddr(procAddr)
	}

	if err := vk.Init(); err != nil {
		return nil, errors.Wrap(err, "vk.Init()")
	}

	appInfo := vk.ApplicationInfo{
		SType:              vk.StructureTypeApplicationInfo,
		ApiVersion:         vk.MakeVersion(1, 0, 0),
		ApplicationVersion: vk.MakeVersion(1, 0, 0),
		PApplicationName:   safeString(cfg.ApplicationName),
		PEngineName:        safeString("framepace"),
	}

	instanceInfo := vk.InstanceCreateInfo{
		SType:                   vk.StructureTypeInstanceCreateInfo,
		PApplicationInfo:        &appInfo,
		EnabledExtensionCount:   uint32(len(cfg.Extensions)),
		PpEnabledExtensionNames: safeStrings(cfg.Extensions),
		EnabledLayerCount:       uint32(len(cfg.Layers)),
		PpEnabledLayerNames:     safeStrings(cfg.Layers),
	}

	var instance vk.Instance
	if err := check("vk.CreateInstance()", vk.CreateInstance(&instanceInfo, nil, &instance)); err != nil {
		return nil, err
	}
	vk.InitInstance(instance)

	i := &Instance{
		configuration: cfg,
		instance:      instance,
	}
	if cfg.DebugMode {
		if err := i.registerDebugReport(); err != nil {
			vk.DestroyInstance(instance, nil)
			return nil, err
		}
	}
	return i, nil
}

// Instance is a Vulkan instance.
type Instance struct {
	configuration InstanceConfiguration
	instance      vk.Instance
	debugReport   vk.DebugReportCallback
	reporting     bool
}

// Adapters implements gfx.Instance
func (i *Instance) Adapters() ([]gfx.Adapter, error) {
	var count uint32
	if err := check("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(i.instance, &count, nil)); err != nil {
		return nil, err
	}
	devices := make([]vk.PhysicalDevice, count)
	if err := check("vk.EnumeratePhysicalDevices()", vk.EnumeratePhysicalDevices(i.instance, &count, devices)); err != nil {
		return nil, err
	}

	adapters := make([]gfx.Adapter, 0, count)
	for _, pd := range devices[:count] {
		adapters = append(adapters, newAdapter(pd))
	}
	return adapters, nil
}

// DestroySurface destroys a surface created against this instance.
// Surfaces belong to the window layer, so it calls this itself.
func (i *Instance) DestroySurface(surface uintptr) {
	if surface == 0 {
		return
	}
	vk.DestroySurface(i.instance, vk.SurfaceFromPointer(surface), nil)
}

// Extensions returns the enabled instance extensions.
func (i *Instance) Extensions() []string {
	return i.configuration.Extensions
}

// Inner returns the vk.Instance
func (i *Instance) Inner() interface{} {
	return i.instance
}

// Release implements gfx.Releasable
func (i *Instance) Release() {
	if i.reporting {
		vk.DestroyDebugReportCallback(i.instance, i.debugReport, nil)
		i.reporting = false
	}
	vk.DestroyInstance(i.instance, nil)
}
