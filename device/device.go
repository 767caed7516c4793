// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package device picks the adapter that presentation runs on.
package device

import (
	"fmt"
	"strings"

	"github.com/devblok/framepace/gfx"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Requirements an adapter has to meet to be selected.
type Requirements struct {
	// MinAPIVersion is the lowest API version the adapter may report.
	MinAPIVersion gfx.Version

	// Extensions are device extension names that must all be present.
	Extensions []string

	// Surface the chosen queue family must be able to present to.
	// When nil only graphics support is checked.
	Surface gfx.Surface
}

// Verdict is the outcome of checking one adapter.
type Verdict struct {
	Suitable bool

	// Family is the queue family to create the queue on.
	// Only meaningful when Suitable is set.
	Family uint32

	// Reason the adapter was rejected.
	Reason string
}

// Suitable checks the adapter against the requirements. The checks run
// in order (API version, graphics and present queue family, extensions)
// and stop at the first that fails. Errors are query failures, not
// rejections.
func Suitable(a gfx.Adapter, req Requirements) (Verdict, error) {
	info := a.Info()
	if info.APIVersion < req.MinAPIVersion {
		return Verdict{Reason: fmt.Sprintf("API version %s is below %s", info.APIVersion, req.MinAPIVersion)}, nil
	}

	families, err := a.QueueFamilies()
	if err != nil {
		return Verdict{}, errors.Wrapf(err, "query queue families of %q", info.Name)
	}

	var (
		family uint32
		found  bool
	)
	for _, f := range families {
		if !f.Graphics {
			continue
		}
		if req.Surface != nil {
			ok, err := req.Surface.SupportsPresentation(a, f.Index)
			if err != nil {
				return Verdict{}, errors.Wrapf(err, "query presentation support of %q", info.Name)
			}
			if !ok {
				continue
			}
		}
		family, found = f.Index, true
		break
	}
	if !found {
		return Verdict{Reason: "no queue family supports both graphics and presentation"}, nil
	}

	available, err := a.Extensions()
	if err != nil {
		return Verdict{}, errors.Wrapf(err, "query extensions of %q", info.Name)
	}
	if missing := missingExtensions(req.Extensions, available); len(missing) > 0 {
		return Verdict{Reason: "missing extensions: " + strings.Join(missing, ", ")}, nil
	}

	return Verdict{Suitable: true, Family: family}, nil
}

// Select creates a device on the first suitable adapter in enumeration
// order. Adapters are not scored, so an integrated adapter listed before
// a discrete one wins. gfx.ErrNoSuitableDevice is returned when none
// qualifies.
func Select(adapters []gfx.Adapter, req Requirements, log logrus.FieldLogger) (gfx.Device, error) {
	for _, a := range adapters {
		verdict, err := Suitable(a, req)
		if err != nil {
			return nil, err
		}

		name := a.Info().Name
		if !verdict.Suitable {
			log.WithFields(logrus.Fields{
				"adapter": name,
				"reason":  verdict.Reason,
			}).Debug("adapter rejected")
			continue
		}

		dev, err := a.NewDevice(verdict.Family, req.Extensions)
		if err != nil {
			return nil, errors.Wrapf(err, "create device on %q", name)
		}
		log.WithFields(logrus.Fields{
			"adapter":     name,
			"queueFamily": verdict.Family,
		}).Info("device selected")
		return dev, nil
	}
	return nil, gfx.ErrNoSuitableDevice
}

func missingExtensions(required, available []string) []string {
	have := make(map[string]struct{}, len(available))
	for _, name := range available {
		have[name] = struct{}{}
	}

	var missing []string
	for _, name := range required {
		if _, ok := have[name]; !ok {
			missing = append(missing, name)
		}
	}
	return missing
}
