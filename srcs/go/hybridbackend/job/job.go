package job

import (
	"fmt"
	"strconv"
	"time"

	"github.com/alibaba/HybridBackend/srcs/go/hybridbackend/env"
	"github.com/alibaba/HybridBackend/srcs/go/log"
	"github.com/alibaba/HybridBackend/srcs/go/plan"
	"github.com/alibaba/HybridBackend/srcs/go/proc"
	"github.com/alibaba/HybridBackend/srcs/go/utils/runner/local"
)

const pythonUnbufferedEnvKey = `PYTHONUNBUFFERED`

// Job is what hb-run launches on every local device.
// If Func is set it runs in-process, otherwise Prog is executed.
type Job struct {
	Prog string
	Args []string
	Func local.Func

	Config env.Config
	// Cluster is only set once the job fans out to more than one device.
	Cluster env.ClusterConfig

	Grace time.Duration
	// Kill is closed to skip the rest of the termination grace.
	Kill <-chan struct{}
}

func (j Job) commonEnvs() proc.Envs {
	envs := proc.Envs{
		env.RunIDEnvKey: j.Config.RunID,
	}
	if _, ok := lookupEnv(pythonUnbufferedEnvKey); !ok {
		envs[pythonUnbufferedEnvKey] = `1`
	}
	return envs
}

// CPUEnvs hides every device and disables device specific optimizations.
func (j Job) CPUEnvs() proc.Envs {
	envs := j.commonEnvs()
	envs[env.CudaVisibleDevicesEnvKey] = ``
	envs[env.OpOptimizationDisabledKey] = `1`
	return envs
}

// SingleDeviceEnvs binds the only visible device, the cluster is left as is.
func (j Job) SingleDeviceEnvs() proc.Envs {
	envs := j.commonEnvs()
	envs[env.CudaVisibleDevicesEnvKey] = `0`
	envs[env.LocalRankEnvKey] = `0`
	return envs
}

// AuxiliaryEnvs is for tasks like ps or evaluator: they see the expanded cluster but no device.
func (j Job) AuxiliaryEnvs(p plan.Plan) proc.Envs {
	envs := j.CPUEnvs()
	tfConfig := plan.TFConfig{Cluster: p.Cluster, Task: j.Cluster.TFConfig.Task}
	envs[env.TFConfigEnvKey] = tfConfig.String()
	return envs
}

// DeviceEnvs is the environment of the i-th local device
func (j Job) DeviceEnvs(p plan.Plan, devices []DeviceID, i int) proc.Envs {
	envs := j.commonEnvs()
	envs[env.TFConfigEnvKey] = p.TFConfig(i).String()
	envs[env.CudaVisibleDevicesEnvKey] = string(devices[i])
	envs[env.LocalRankEnvKey] = strconv.Itoa(i)
	interOp, intraOp := j.Cluster.ThreadsPerDevice(len(devices))
	if interOp > 0 {
		envs[env.InterOpThreadsEnvKey] = strconv.Itoa(interOp)
	}
	if intraOp > 0 {
		envs[env.IntraOpThreadsEnvKey] = strconv.Itoa(intraOp)
	}
	return envs
}

func (j Job) NewProc(name string, envs proc.Envs) proc.Proc {
	return proc.Proc{
		Name: name,
		Prog: j.Prog,
		Args: j.Args,
		Envs: envs,
	}
}

func (j Job) NewMember(name string, envs proc.Envs) local.Member {
	p := j.NewProc(name, envs)
	if log.Enabled(log.Debug) {
		log.Debugf("#<%s>:\n%s", name, p.Script())
	}
	if j.Func != nil {
		return local.FuncMember{
			ID:   name,
			Envs: p.Environ(),
			F:    j.Func,
		}
	}
	return local.ExecMember{
		Proc:  p,
		Grace: j.Grace,
		Kill:  j.Kill,
	}
}

// CreateMembers creates one member per local device
func (j Job) CreateMembers(p plan.Plan, devices []DeviceID) []local.Member {
	var ms []local.Member
	for i, d := range devices {
		name := fmt.Sprintf("%s/%s", p.Tasks[i], d)
		ms = append(ms, j.NewMember(name, j.DeviceEnvs(p, devices, i)))
	}
	return ms
}

func (j Job) DebugString() string {
	if j.Func != nil {
		return "job{func}"
	}
	return fmt.Sprintf("job{prog=%s, args=%q}", j.Prog, j.Args)
}
