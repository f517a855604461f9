package runner

import (
	"context"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/job"
	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/alibaba/HybridBackend/srcs/go/plan"
	"github.com/alibaba/HybridBackend/srcs/go/proc"
	"github.com/alibaba/HybridBackend/srcs/go/utils"
	"github.com/alibaba/HybridBackend/srcs/go/utils/runner/local"
	"github.com/pkg/errors"
)

// SimpleRun runs j once per visible device and waits for all of them.
// With less than two devices, or for a non-worker task, j runs exactly once in place.
// TF_CONFIG and the thread hints are only read when there are at least two devices.
func SimpleRun(ctx context.Context, j job.Job) error {
	devices := job.QueryVisibleDevices(ctx)
	log.Infof("found %s: %q", utils.Pluralize(len(devices), "device", "devices"), devices)
	switch len(devices) {
	case 0:
		return runOnce(ctx, j, `cpu`, j.CPUEnvs())
	case 1:
		return runOnce(ctx, j, string(devices[0]), j.SingleDeviceEnvs())
	}
	cc, err := j.Config.ParseClusterConfig()
	if err != nil {
		return err
	}
	j.Cluster = *cc
	task := cc.TFConfig.Task
	p, err := plan.Expand(cc.TFConfig, len(devices), j.Config.BasePort)
	if err != nil {
		return errors.Wrapf(err, "failed to expand cluster for %s", task)
	}
	log.Debugf("expanded cluster: %s", p.Cluster.DebugString())
	if !plan.IsWorkerRole(task.Type) {
		return runOnce(ctx, j, task.String(), j.AuxiliaryEnvs(*p))
	}
	ms := j.CreateMembers(*p, devices)
	log.Infof("will parallel run %d instances of %s", len(ms), j.DebugString())
	d, err := utils.Measure(func() error { return local.RunAll(ctx, ms) })
	if err != nil {
		log.Errorf("local members failed after %s: %v", d, err)
		return err
	}
	log.Infof("all %d local members finished, took %s", len(ms), d)
	return nil
}

func runOnce(ctx context.Context, j job.Job, name string, envs proc.Envs) error {
	log.Infof("will run %s as %s", j.DebugString(), name)
	return j.NewMember(name, envs).Run(ctx)
}
