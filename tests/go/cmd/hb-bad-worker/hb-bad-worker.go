package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/env"
	"github.com/alibaba/HybridBackend/srcs/go/plan"
	"github.com/alibaba/HybridBackend/srcs/go/utils"
)

// hb-bad-worker stands in for a training script: the chief fails after -error-after,
// so `hb-run hb-bad-worker` shows every other member being terminated.
var (
	runFor     = flag.Duration("run-for", 30*time.Second, "")
	errorAfter = flag.Duration("error-after", 5*time.Second, "")
	exitCode   = flag.Int("exit-code", 1, "")
)

func main() {
	flag.Parse()
	c, err := plan.ParseTFConfig(os.Getenv(env.TFConfigEnvKey))
	if err != nil {
		utils.ExitErr(err)
	}
	device := os.Getenv(env.CudaVisibleDevicesEnvKey)
	fmt.Printf("OK, task=%s, device=%q.\n", c.Task, device)
	fmt.Fprintf(os.Stderr, "Err, task=%s, device=%q!\n", c.Task, device)
	ctx := context.Background()
	if c.Task.Type == plan.ChiefRole {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *errorAfter)
		defer cancel()
	}
	done := time.After(*runFor)
	select {
	case <-ctx.Done():
		os.Exit(*exitCode)
	case <-done:
		return
	}
}
