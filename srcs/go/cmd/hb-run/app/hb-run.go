package app

import (
	"context"
	"os"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/config"
	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/env"
	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/job"
	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/runner"
	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/alibaba/HybridBackend/srcs/go/utils"
)

func Main(args []string) {
	defer log.Flush()
	var f runner.FlagSet
	runner.Init(&f, args)
	t0 := time.Now()
	c, err := env.ParseConfigFromEnv(os.LookupEnv)
	if err != nil {
		exitErr(err)
	}
	kill := make(chan struct{})
	j := job.Job{
		Prog:   f.Prog,
		Args:   f.Args,
		Config: *c,
		Grace:  config.TerminateGrace,
		Kill:   kill,
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	defer trap(cancel, kill)()
	err = runner.SimpleRun(ctx, j)
	log.Debugf("%s finished, took %s", utils.ProgName(), time.Since(t0))
	if err != nil {
		exitErr(err)
	}
}

func exitErr(err error) {
	log.Flush()
	utils.ExitErr(err)
}

// trap terminates members on the first signal and kills them on the second.
func trap(cancel context.CancelFunc, kill chan struct{}) func() {
	var n int
	return utils.Trap(func(sig os.Signal) {
		n++
		switch n {
		case 1:
			log.Warnf("%s trapped, terminating members within %s", sig, config.TerminateGrace)
			cancel()
		case 2:
			log.Warnf("%s trapped again, killing members", sig)
			close(kill)
		}
	})
}
