package logging

import (
	"flag"
	"github.com/fernandosanchezjr/goaxeminer/utils"
	"github.com/sirupsen/logrus"
	"io"
	"os"
	"path"
)

const LogPath = "logs"

var logFile *os.File
var logLevel = logrus.InfoLevel.String()

func init() {
	flag.StringVar(&logLevel, "log-level", logLevel, "log level (trace, debug, info, warn, error)")
}

func getLogFile() *os.File {
	logFolder := utils.GetSubFolder(LogPath)
	f, err := os.OpenFile(path.Join(logFolder, "log.out"), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		logrus.Fatal("Error opening log file:", err)
		return nil
	} else {
		return f
	}
}

func exitHandler() {
	if logFile != nil {
		_ = logFile.Close()
	}
}

func SetupLogger() {
	logrus.SetFormatter(&logrus.TextFormatter{ForceColors: true, FullTimestamp: true})
	logrus.RegisterExitHandler(exitHandler)
	if level, err := logrus.ParseLevel(logLevel); err != nil {
		logrus.WithField("level", logLevel).Warnln("Unknown log level, using info")
		logrus.SetLevel(logrus.InfoLevel)
	} else {
		logrus.SetLevel(level)
	}
	logFile = getLogFile()
	logrus.SetOutput(io.MultiWriter(logFile, os.Stdout))
}

// Close flushes the log file on a regular shutdown.
func Close() {
	exitHandler()
}
