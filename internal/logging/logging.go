// Package logging configures the process-wide logrus logger.
package logging

import (
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"pastry-portal/internal/config"
)

// Setup applies cfg to the standard logrus logger. An unknown level falls
// back to info.
func Setup(cfg config.LoggingConfig) {
	Configure(logrus.StandardLogger(), cfg)
}

// Configure applies cfg to logger.
func Configure(logger *logrus.Logger, cfg config.LoggingConfig) {
	level, err := logrus.ParseLevel(strings.TrimSpace(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	logger.SetOutput(os.Stderr)

	switch strings.ToLower(cfg.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	default:
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
}
