package config

import (
	"os"
	"strings"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/utils"
	"github.com/pkg/errors"
)

const (
	LogLevelEnvKey       = `HB_RUN_LOG_LEVEL`
	TerminateGraceEnvKey = `HB_RUN_TERMINATE_GRACE`
)

var (
	LogLevel = `INFO`
	// TerminateGrace is how long a member may take to exit after SIGTERM before it is killed.
	TerminateGrace = 10 * time.Second
)

// Invalid values are fatal.
func init() {
	var err error
	if val := os.Getenv(LogLevelEnvKey); len(val) > 0 {
		if LogLevel, err = parseLogLevel(val); err != nil {
			utils.ExitErr(err)
		}
	}
	if val := os.Getenv(TerminateGraceEnvKey); len(val) > 0 {
		if TerminateGrace, err = parseDuration(val); err != nil {
			utils.ExitErr(err)
		}
	}
}

var logLevels = map[string]struct{}{
	`DEBUG`: {},
	`INFO`:  {},
	`WARN`:  {},
	`ERROR`: {},
}

func parseLogLevel(val string) (string, error) {
	level := strings.ToUpper(val)
	if _, ok := logLevels[level]; !ok {
		return ``, errors.Errorf("invalid %s: %q", LogLevelEnvKey, val)
	}
	return level, nil
}

func parseDuration(val string) (time.Duration, error) {
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, errors.Wrapf(err, "invalid %s", TerminateGraceEnvKey)
	}
	if d < 0 {
		return 0, errors.Errorf("invalid %s: %s is negative", TerminateGraceEnvKey, val)
	}
	return d, nil
}
