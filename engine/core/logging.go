package core

import (
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

var once sync.Once

type logger struct {
	*log.Logger
}

var singleton *logger

func getLogger() *logger {
	once.Do(
		func() {
			l := log.NewWithOptions(os.Stderr, log.Options{
				ReportCaller:    true,
				ReportTimestamp: true,
				TimeFormat:      time.RFC3339,
				Prefix:          "Engine 🏎️ ",
			})
			l.SetLevel(log.InfoLevel)
			singleton = &logger{l}
		})
	return singleton
}

// SetLogLevel parses one of "debug", "info", "warn", "error" or "fatal".
func SetLogLevel(level string) error {
	lvl, err := log.ParseLevel(level)
	if err != nil {
		return err
	}
	getLogger().SetLevel(lvl)
	return nil
}

// WithPrefix returns a child logger tagging every line with the given prefix.
// It copies the engine logger's level at the time of the call.
func WithPrefix(prefix string) *log.Logger {
	return getLogger().WithPrefix(prefix)
}

func LogDebug(msg string, args ...interface{}) {
	getLogger().Debugf(msg, args...)
}

func LogInfo(msg string, args ...interface{}) {
	getLogger().Infof(msg, args...)
}

func LogWarn(msg string, args ...interface{}) {
	getLogger().Warnf(msg, args...)
}

func LogError(msg string, args ...interface{}) {
	getLogger().Errorf(msg, args...)
}

func LogFatal(msg string, args ...interface{}) {
	getLogger().Fatalf(msg, args...)
}
