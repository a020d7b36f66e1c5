package logging

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"pastry-portal/internal/config"
)

func TestConfigure(t *testing.T) {
	tests := []struct {
		name      string
		cfg       config.LoggingConfig
		level     logrus.Level
		formatter logrus.Formatter
	}{
		{"json debug", config.LoggingConfig{Level: "debug", Format: "JSON"}, logrus.DebugLevel, &logrus.JSONFormatter{}},
		{"text warn", config.LoggingConfig{Level: " warn ", Format: "text"}, logrus.WarnLevel, &logrus.TextFormatter{}},
		{"bad level", config.LoggingConfig{Level: "loud"}, logrus.InfoLevel, &logrus.TextFormatter{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := logrus.New()
			Configure(logger, tt.cfg)
			assert.Equal(t, tt.level, logger.GetLevel())
			assert.IsType(t, tt.formatter, logger.Formatter)
		})
	}
}
