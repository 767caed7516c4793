// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"encoding/json"
	"flag"
	"fmt"

	"github.com/devblok/framepace/core"
	"github.com/devblok/framepace/device"
	"github.com/devblok/framepace/gfx/vkr"
	log "github.com/sirupsen/logrus"
)

var debug = flag.Bool("vkdbg", false, "Load Vulkan validation layers")

func main() {
	flag.Parse()

	configuration, err := core.LoadConfiguration()
	if err != nil {
		log.WithError(err).Fatal("load configuration")
	}

	instance, err := vkr.NewInstance(nil, vkr.InstanceConfiguration{
		ApplicationName: "fpinfo",
		DebugMode:       *debug,
	})
	if err != nil {
		log.WithError(err).Fatal("create instance")
	}
	defer instance.Release()

	adapters, err := instance.Adapters()
	if err != nil {
		log.WithError(err).Fatal("enumerate adapters")
	}

	// Without a window there is no surface, so presentation
	// support is not part of the verdict.
	infos := device.Describe(adapters, device.Requirements{
		MinAPIVersion: configuration.Renderer.MinAPIVersion,
		Extensions:    configuration.Renderer.DeviceExtensions,
	})

	bytes, err := json.MarshalIndent(infos, "", "  ")
	if err != nil {
		log.WithError(err).Fatal("encode device info")
	}
	fmt.Printf("%s\n", bytes)
}
