package logger

import (
	"os"
	"sync"

	"github.com/sirupsen/logrus"
)

var (
	log  *logrus.Logger
	once sync.Once
)

// Init initializes the console logger only once
func Init() {
	once.Do(func() {
		l := logrus.New()
		l.SetOutput(os.Stdout)
		l.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})

		level, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
		if err != nil {
			level = logrus.InfoLevel
		}
		l.SetLevel(level)

		log = l
	})
}

// GetLogger returns the singleton logger
func GetLogger() *logrus.Logger {
	Init()
	return log
}

// SetLevel applies a configured level name, keeping the current level when
// the name is not recognised.
func SetLevel(name string) {
	level, err := logrus.ParseLevel(name)
	if err != nil {
		GetLogger().WithField("level", name).Warn("Unknown log level, keeping current")
		return
	}
	GetLogger().SetLevel(level)
}

func Info(msg string) {
	GetLogger().Info(msg)
}

func Error(err error, msg string) {
	GetLogger().WithError(err).Error(msg)
}
