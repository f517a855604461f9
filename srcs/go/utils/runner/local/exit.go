package local

import (
	"fmt"
	"os/exec"
	"syscall"

	"github.com/alibaba/HybridBackend/srcs/go/utils"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ExitError reports why a member of the group failed
type ExitError struct {
	Name   string
	Code   int
	Signal syscall.Signal // non-zero if the member was killed by a signal
	Err    error          // set for in-process members
}

func (e *ExitError) Error() string {
	switch {
	case e.Signal != 0:
		return fmt.Sprintf("%s killed by %s", e.Name, unix.SignalName(e.Signal))
	case e.Err != nil:
		return fmt.Sprintf("%s failed: %v", e.Name, e.Err)
	default:
		return fmt.Sprintf("%s exits unexpectedly: %d", e.Name, e.Code)
	}
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// ExitCode is the code hb-run should exit with, signals map to 1.
func (e *ExitError) ExitCode() int {
	if e.Signal != 0 || e.Code <= 0 {
		return 1
	}
	return e.Code
}

func fromExecError(name string, err error) error {
	if err == nil {
		return nil
	}
	var ee *exec.ExitError
	if !errors.As(err, &ee) {
		return errors.Wrapf(err, "%s", name)
	}
	if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
		return &ExitError{Name: name, Code: -1, Signal: ws.Signal()}
	}
	return &ExitError{Name: name, Code: ee.ExitCode()}
}

func fromFuncError(name string, err error) error {
	if err == nil {
		return nil
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return err
	}
	code := 1
	var ec utils.ExitCoder
	if errors.As(err, &ec) && ec.ExitCode() > 0 {
		code = ec.ExitCode()
	}
	return &ExitError{Name: name, Code: code, Err: err}
}
