// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package core

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

// NewLogger creates a text logger at the given level name.
// An empty level means info.
func NewLogger(level string) (*log.Logger, error) {
	logger := log.New()
	logger.Formatter = &log.TextFormatter{FullTimestamp: true}

	if level == "" {
		level = "info"
	}
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "core: log level")
	}
	logger.SetLevel(lvl)
	return logger, nil
}
