/**
 * Copyright 2024 kmeaw
 *
 * Licensed under the GNU Affero General Public License (AGPL).
 *
 * This program is free software: you can redistribute it and/or modify it
 * under the terms of the GNU Affero General Public License as published by the
 * Free Software Foundation, version 3 of the License.
 *
 * This program is distributed in the hope that it will be useful, but WITHOUT
 * ANY WARRANTY; without even the implied warranty of MERCHANTABILITY or
 * FITNESS FOR A PARTICULAR PURPOSE.  See the GNU Affero General Public License
 * for more details.
 *
 * You should have received a copy of the GNU Affero General Public License
 * along with this program.  If not, see <http://www.gnu.org/licenses/>.
 */

package bitfix

import (
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

// The log sink lives for the whole process. It is created on first use and
// never closed: when bitfix runs inside a host, the host owns the exit.
var (
	logOnce sync.Once
	logger  *logrus.Logger
)

func baseLogger() *logrus.Logger {
	logOnce.Do(func() {
		logger = logrus.New()
		logger.SetOutput(os.Stderr)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
		})
		logger.SetLevel(logrus.DebugLevel)
	})
	return logger
}

func Log() logrus.FieldLogger {
	return baseLogger()
}

// SetupLogging sends log output to cfg.LogFile as well as stderr and applies
// cfg.LogLevel.
func SetupLogging(cfg *Config) error {
	l := baseLogger()

	if cfg.LogLevel != "" {
		level, err := logrus.ParseLevel(cfg.LogLevel)
		if err != nil {
			return fmt.Errorf("cannot parse log level %q: %w", cfg.LogLevel, err)
		}
		l.SetLevel(level)
	}

	if cfg.LogFile == "" {
		return nil
	}

	f, err := os.OpenFile(cfg.LogPath(), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("cannot open log file: %w", err)
	}
	l.SetOutput(io.MultiWriter(os.Stderr, f))

	return nil
}

func AddLogHook(hook logrus.Hook) {
	baseLogger().AddHook(hook)
}

// vim: ai:ts=8:sw=8:noet:syntax=go
