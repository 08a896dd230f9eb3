package util

import (
	"fmt"
	"strings"

	"github.com/golang/glog"
)

// LogF writes a verbose log line, emitted only when glog runs with -v=1 or higher.
func LogF(format string, args ...interface{}) {
	if glog.V(1) {
		glog.InfoDepth(1, sprintf(format, args...))
	}
}

// Infof always logs, for startup and connection messages.
func Infof(format string, args ...interface{}) {
	glog.InfoDepth(1, sprintf(format, args...))
}

func Warnf(format string, args ...interface{}) {
	glog.WarningDepth(1, sprintf(format, args...))
}

func Errorf(format string, args ...interface{}) {
	glog.ErrorDepth(1, sprintf(format, args...))
}

// Flush writes any buffered log lines. Commands call it before exiting.
func Flush() {
	glog.Flush()
}

func sprintf(format string, args ...interface{}) string {
	return strings.TrimSuffix(fmt.Sprintf(format, args...), "\n")
}
