package config

import (
	"os"

	"github.com/sirupsen/logrus"
)

var (
	logg *logrus.Logger
)

func GetLogger() *logrus.Logger {
	return logg
}

func init() {
	logg = logrus.New()
	logg.SetLevel(logrus.InfoLevel)
	logg.SetOutput(os.Stdout)
}

// ConfigureLogging applies the logging section of the loaded config to
// the shared logger.
func ConfigureLogging(cfg LoggingConfig) {
	if cfg.JSON {
		logg.SetFormatter(&logrus.JSONFormatter{})
	}
	if level, err := logrus.ParseLevel(cfg.Level); err == nil {
		logg.SetLevel(level)
	}
}
