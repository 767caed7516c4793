// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package vkr implements the gfx presentation interfaces on Vulkan.
package vkr

import (
	"github.com/devblok/framepace/gfx"
	vk "github.com/devblok/vulkan"
	"github.com/pkg/errors"
)

// check converts a Vulkan result into an error, mapping the results
// the presentation core reacts to onto gfx error kinds.
func check(call string, r vk.Result) error {
	switch r {
	case vk.Success:
		return nil
	case vk.ErrorOutOfDate:
		return errors.Wrap(gfx.ErrOutOfDate, call)
	case vk.ErrorDeviceLost:
		return errors.Wrap(gfx.ErrDeviceLost, call)
	case vk.ErrorSurfaceLost:
		return errors.Wrap(gfx.ErrSurfaceLost, call)
	case vk.Timeout:
		return errors.Wrap(gfx.ErrTimeout, call)
	}
	if err := vk.Error(r); err != nil {
		return errors.Wrap(err, call)
	}
	return nil
}

// checkPresent is check for calls that may report vk.Suboptimal.
func checkPresent(call string, r vk.Result) (suboptimal bool, err error) {
	if r == vk.Suboptimal {
		return true, nil
	}
	return false, check(call, r)
}

func safeString(s string) string {
	return s + "\x00"
}

func safeStrings(sgs []string) []string {
	out := make([]string, 0, len(sgs))
	for _, s := range sgs {
		out = append(out, safeString(s))
	}
	return out
}
