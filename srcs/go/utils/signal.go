package utils

import (
	"os"
	"os/signal"
	"syscall"
)

// Trap calls handle for every SIGINT or SIGTERM until stop is called.
func Trap(handle func(os.Signal)) (stop func()) {
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case sig := <-c:
				handle(sig)
			case <-done:
				return
			}
		}
	}()
	return func() {
		signal.Stop(c)
		close(done)
	}
}
