package config

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
)

// NewLogger builds the process logger from the Log section.
func (c *Config) NewLogger() (*log.Logger, error) {
	logger := log.New()
	logger.SetOutput(os.Stdout)

	level := log.InfoLevel
	if c.Log.Level != "" {
		parsed, err := log.ParseLevel(c.Log.Level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", c.Log.Level, err)
		}
		level = parsed
	}
	logger.SetLevel(level)

	switch c.Log.Format {
	case "json":
		logger.SetFormatter(&log.JSONFormatter{})
	default:
		logger.SetFormatter(&log.TextFormatter{
			FullTimestamp: true,
			DisableColors: c.IsProduction(),
		})
	}

	return logger, nil
}
