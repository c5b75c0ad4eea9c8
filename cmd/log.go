package cmd

import (
	"os"

	"github.com/sirupsen/logrus"
)

// newLogger creates the application logger. Logs go to stderr so that they
// never mix with the reports.
func newLogger(level logrus.Level) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stderr)
	log.SetLevel(level)
	log.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})
	return log
}
