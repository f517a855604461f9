package utils

import (
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"time"
)

func ProgName() string {
	if len(os.Args) > 0 {
		return path.Base(os.Args[0])
	}
	return ""
}

// EnvWithPrefix returns the sorted KEY=VALUE pairs of environ whose key starts with prefix
func EnvWithPrefix(environ []string, prefix string) []string {
	var kvs []string
	for _, kv := range environ {
		if strings.HasPrefix(kv, prefix) {
			kvs = append(kvs, kv)
		}
	}
	sort.Strings(kvs)
	return kvs
}

func Measure(f func() error) (time.Duration, error) {
	t0 := time.Now()
	err := f()
	d := time.Since(t0)
	return d, err
}

func pluralize(n int, singular, plural string) string {
	if n != 1 {
		return plural
	}
	return singular
}

func Pluralize(n int, singular, plural string) string {
	return fmt.Sprintf("%d %s", n, pluralize(n, singular, plural))
}
