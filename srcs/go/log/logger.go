package log

import (
	"fmt"
	"sync/atomic"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/config"
	"k8s.io/klog/v2"
)

type Level int32

const (
	Debug Level = iota
	Info  Level = iota
	Warn  Level = iota
	Error Level = iota
)

var levelNames = map[string]Level{
	`DEBUG`: Debug,
	`INFO`:  Info,
	`WARN`:  Warn,
	`ERROR`: Error,
}

var level = int32(parseLevel(config.LogLevel))

func parseLevel(name string) Level {
	if l, ok := levelNames[name]; ok {
		return l
	}
	return Info
}

func SetLevel(l Level) {
	atomic.StoreInt32(&level, int32(l))
}

func Enabled(l Level) bool {
	return int32(l) >= atomic.LoadInt32(&level)
}

// depth 2 skips logf and the exported wrapper so klog reports the caller's file:line
const depth = 2

func logf(l Level, format string, v ...interface{}) {
	if !Enabled(l) {
		return
	}
	s := fmt.Sprintf(format, v...)
	switch l {
	case Debug, Info:
		klog.InfoDepth(depth, s)
	case Warn:
		klog.WarningDepth(depth, s)
	default:
		klog.ErrorDepth(depth, s)
	}
}

func Debugf(format string, v ...interface{}) {
	logf(Debug, format, v...)
}

func Infof(format string, v ...interface{}) {
	logf(Info, format, v...)
}

func Warnf(format string, v ...interface{}) {
	logf(Warn, format, v...)
}

func Errorf(format string, v ...interface{}) {
	logf(Error, format, v...)
}

func Flush() {
	klog.Flush()
}
