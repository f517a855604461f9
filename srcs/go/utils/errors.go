package utils

import (
	"fmt"
	"os"

	"github.com/pkg/errors"
)

// ExitCoder is implemented by errors that carry a process exit code
type ExitCoder interface {
	ExitCode() int
}

func ExitErr(err error) {
	fmt.Fprintf(os.Stderr, "exit on error: %v\n", err)
	code := 1
	var e ExitCoder
	if errors.As(err, &e) && e.ExitCode() != 0 {
		code = e.ExitCode()
	}
	os.Exit(code)
}
