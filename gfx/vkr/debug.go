// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package vkr

import (
	"unsafe"

	vk "github.com/devblok/vulkan"
	"github.com/sirupsen/logrus"
)

func (i *Instance) registerDebugReport() error {
	log := i.configuration.Logger
	if log == nil {
		log = logrus.StandardLogger()
	}

	drcci := vk.DebugReportCallbackCreateInfo{
		SType: vk.StructureTypeDebugReportCallbackCreateInfo,
		Flags: vk.DebugReportFlags(vk.DebugReportErrorBit | vk.DebugReportWarningBit |
			vk.DebugReportPerformanceWarningBit | vk.DebugReportInformationBit),
		PfnCallback: func(flags vk.DebugReportFlags, objectType vk.DebugReportObjectType, object uint, location uint,
			messageCode int32, layerPrefix string, message string, userData unsafe.Pointer) vk.Bool32 {
			logDebugReport(log, flags, layerPrefix, messageCode, message)
			return vk.False
		},
	}

	var callback vk.DebugReportCallback
	if err := check("vk.CreateDebugReportCallback()", vk.CreateDebugReportCallback(i.instance, &drcci, nil, &callback)); err != nil {
		return err
	}
	i.debugReport = callback
	i.reporting = true
	return nil
}

// logDebugReport writes a validation message at the level its flags call for.
func logDebugReport(log logrus.FieldLogger, flags vk.DebugReportFlags, layer string, code int32, message string) {
	entry := log.WithFields(logrus.Fields{
		"layer": layer,
		"code":  code,
	})
	switch {
	case flags&vk.DebugReportFlags(vk.DebugReportErrorBit) != 0:
		entry.Error(message)
	case flags&vk.DebugReportFlags(vk.DebugReportWarningBit|vk.DebugReportPerformanceWarningBit) != 0:
		entry.Warn(message)
	default:
		entry.Debug(message)
	}
}
