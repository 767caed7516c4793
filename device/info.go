// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package device

import "github.com/devblok/framepace/gfx"

// PhysicalDeviceInfo describes available physical properties of a rendering device
type PhysicalDeviceInfo struct {
	ID            int
	VendorID      int
	DriverVersion int
	Name          string
	Type          string
	APIVersion    gfx.Version
	Memory        uint
	Invalid       bool
	Extensions    []string
	QueueFamilies []gfx.QueueFamily

	Suitable bool
	Reason   string `json:",omitempty"`
}

// Describe collects the properties of every adapter along with
// its verdict against req. Adapters whose queries fail are
// marked Invalid rather than dropped.
func Describe(adapters []gfx.Adapter, req Requirements) []PhysicalDeviceInfo {
	pdi := make([]PhysicalDeviceInfo, len(adapters))
	for i, a := range adapters {
		info := a.Info()
		pdi[i] = PhysicalDeviceInfo{
			ID:            info.ID,
			VendorID:      info.VendorID,
			DriverVersion: info.DriverVersion,
			Name:          info.Name,
			Type:          info.Type.String(),
			APIVersion:    info.APIVersion,
			Memory:        info.Memory,
		}

		if ext, err := a.Extensions(); err != nil {
			pdi[i].Invalid = true
		} else {
			pdi[i].Extensions = ext
		}
		if families, err := a.QueueFamilies(); err != nil {
			pdi[i].Invalid = true
		} else {
			pdi[i].QueueFamilies = families
		}

		if verdict, err := Suitable(a, req); err != nil {
			pdi[i].Invalid = true
			pdi[i].Reason = err.Error()
		} else {
			pdi[i].Suitable = verdict.Suitable
			pdi[i].Reason = verdict.Reason
		}
	}
	return pdi
}
