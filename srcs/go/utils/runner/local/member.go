package local

import (
	"context"
	"fmt"
	"os"
	"syscall"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/alibaba/HybridBackend/srcs/go/proc"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// ExecMember runs an external command with inherited stdout and stderr.
// The command leads its own process group. On cancellation the group receives SIGTERM,
// and SIGKILL after Grace. Processes left in the group when the command exits are
// terminated the same way.
type ExecMember struct {
	Proc  proc.Proc
	Grace time.Duration
	// Kill, once closed, sends SIGKILL to the group without waiting for Grace.
	Kill <-chan struct{}
}

func (m ExecMember) Name() string {
	return m.Proc.Name
}

func (m ExecMember) Run(ctx context.Context) error {
	cmd := m.Proc.CmdContext(ctx)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		sig := syscall.SIGKILL
		if m.Grace > 0 {
			sig = syscall.SIGTERM
		}
		log.Debugf("#<%s> sending %s to process group %d", m.Name(), unix.SignalName(sig), cmd.Process.Pid)
		return signalGroup(cmd.Process.Pid, sig)
	}
	cmd.WaitDelay = m.Grace
	if err := cmd.Start(); err != nil {
		return errors.Wrapf(err, "%s failed to start", m.Name())
	}
	pgid := cmd.Process.Pid
	log.Debugf("#<%s> started with pid %d", m.Name(), pgid)

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-m.Kill:
			log.Debugf("#<%s> killing process group %d", m.Name(), pgid)
			_ = signalGroup(pgid, syscall.SIGKILL)
		case <-done:
		}
	}()

	err := cmd.Wait()
	m.reap(pgid)
	return fromExecError(m.Name(), err)
}

const reapInterval = 50 * time.Millisecond

// reap terminates whatever is left in the process group after its leader has exited.
func (m ExecMember) reap(pgid int) {
	if signalGroup(pgid, 0) != nil {
		return
	}
	log.Debugf("#<%s> terminating leftover processes in group %d", m.Name(), pgid)
	if signalGroup(pgid, syscall.SIGTERM) != nil {
		return
	}
	timer := time.NewTimer(m.Grace)
	defer timer.Stop()
	tick := time.NewTicker(reapInterval)
	defer tick.Stop()
	for signalGroup(pgid, 0) == nil {
		select {
		case <-timer.C:
			log.Warnf("#<%s> process group %d still alive after %s, killing", m.Name(), pgid, m.Grace)
			_ = signalGroup(pgid, syscall.SIGKILL)
			return
		case <-m.Kill:
			_ = signalGroup(pgid, syscall.SIGKILL)
			return
		case <-tick.C:
		}
	}
}

// signalGroup sends sig to every process in group pgid, signal 0 only checks that the group exists.
func signalGroup(pgid int, sig syscall.Signal) error {
	err := unix.Kill(-pgid, sig)
	if errors.Is(err, unix.ESRCH) {
		return os.ErrProcessDone
	}
	return err
}

// Func is an in-process entry point, envs is its private environment view
type Func func(ctx context.Context, envs proc.Envs) error

// FuncMember runs a Func on its own goroutine, cancellation is only observed through ctx
type FuncMember struct {
	ID   string
	Envs proc.Envs
	F    Func
}

func (m FuncMember) Name() string {
	return m.ID
}

func (m FuncMember) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &ExitError{Name: m.ID, Code: 1, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	return fromFuncError(m.ID, m.F(ctx, m.Envs.Clone()))
}
